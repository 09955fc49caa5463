package keys

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fernet/fernet-go"

	"github.com/doodlesbykumbi/keycustody/pkg/server/store"
)

// ErrDecryptionFailed covers every way a ciphertext can fail to open: bad
// HMAC, malformed envelope, wrong key or an expired token.
var ErrDecryptionFailed = errors.New("decryption failed")

// noMaxAge disables the fernet timestamp check.
const noMaxAge time.Duration = -1

// Generated is a freshly created key. Material is only ever returned here.
type Generated struct {
	ID       int64
	Material string
}

// Service generates keys scoped to their owner and encrypts or decrypts with them
type Service struct {
	keys   store.KeyStore
	maxAge time.Duration
}

// Option customizes a Service.
type Option func(*Service)

// WithMaxAge rejects ciphertexts older than d on decrypt. Zero means no limit.
func WithMaxAge(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.maxAge = d
		}
	}
}

// NewService creates a Service backed by keys
func NewService(keys store.KeyStore, opts ...Option) *Service {
	s := &Service{
		keys:   keys,
		maxAge: noMaxAge,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate creates a random Fernet key, stores it for ownerID and returns it.
func (s *Service) Generate(ctx context.Context, ownerID int64) (*Generated, error) {
	var k fernet.Key
	if err := k.Generate(); err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}
	material := k.Encode()

	stored, err := s.keys.CreateKey(ctx, ownerID, material)
	if err != nil {
		return nil, fmt.Errorf("storing key: %w", err)
	}
	return &Generated{ID: stored.ID, Material: material}, nil
}

// Encrypt seals plaintext into a Fernet token with key keyID. The key must
// belong to ownerID, otherwise store.ErrKeyNotFound is returned.
func (s *Service) Encrypt(ctx context.Context, ownerID, keyID int64, plaintext string) (string, error) {
	k, err := s.ownedKey(ctx, ownerID, keyID)
	if err != nil {
		return "", err
	}

	tok, err := fernet.EncryptAndSign([]byte(plaintext), k)
	if err != nil {
		return "", fmt.Errorf("encrypting with key %d: %w", keyID, err)
	}
	return string(tok), nil
}

// Decrypt opens a Fernet token with key keyID. Ownership is checked the same
// way as Encrypt.
func (s *Service) Decrypt(ctx context.Context, ownerID, keyID int64, ciphertext string) (string, error) {
	k, err := s.ownedKey(ctx, ownerID, keyID)
	if err != nil {
		return "", err
	}

	msg := fernet.VerifyAndDecrypt([]byte(ciphertext), s.maxAge, []*fernet.Key{k})
	if msg == nil {
		return "", ErrDecryptionFailed
	}
	return string(msg), nil
}

func (s *Service) ownedKey(ctx context.Context, ownerID, keyID int64) (*fernet.Key, error) {
	rec, err := s.keys.FindOwnedKey(ctx, keyID, ownerID)
	if err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("loading key %d: %w", keyID, err)
	}

	k, err := fernet.DecodeKey(rec.KeyMaterial)
	if err != nil {
		return nil, fmt.Errorf("decoding key %d: %w", keyID, err)
	}
	return k, nil
}
