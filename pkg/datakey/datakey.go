package datakey

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
)

// KeySize is the length of a data key in bytes (AES-256).
const KeySize = 32

const (
	nonceSize    = 12
	tagSize      = aes.BlockSize
	versionMagic = byte('G')
	headerSize   = 1 + tagSize + nonceSize
)

// EnvVar names the environment variable holding the base64 data key.
const EnvVar = "CUSTODY_DATA_KEY"

var (
	// ErrMalformed is returned when sealed data is too short or carries an unknown version
	ErrMalformed = errors.New("sealed data is malformed")
	// ErrNoCipher is returned when wrapped data is read without a data key
	ErrNoCipher = errors.New("data key is not configured")
)

// Cipher seals and opens small values bound to some additional data.
type Cipher interface {
	Seal(aad, plaintext []byte) ([]byte, error)
	Open(aad, sealed []byte) ([]byte, error)
}

// AESGCM is a Cipher backed by AES-256-GCM with random 96-bit nonces.
type AESGCM struct {
	aead cipher.AEAD
}

var _ Cipher = (*AESGCM)(nil)

// New creates an AESGCM cipher from a 32 byte key.
func New(key []byte) (*AESGCM, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("data key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &AESGCM{aead: aead}, nil
}

// Decode creates a cipher from a standard base64 encoded key.
func Decode(encoded string) (*AESGCM, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("bad %s: %w", EnvVar, err)
	}
	return New(key)
}

// FromEnv returns the cipher configured by CUSTODY_DATA_KEY. The boolean is
// false when the variable is unset.
func FromEnv() (*AESGCM, bool, error) {
	encoded, ok := os.LookupEnv(EnvVar)
	if !ok || encoded == "" {
		return nil, false, nil
	}
	c, err := Decode(encoded)
	if err != nil {
		return nil, true, err
	}
	return c, true, nil
}

// Generate returns a fresh random data key, base64 encoded.
func Generate() (string, error) {
	key, err := RandomBytes(KeySize)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.Strict().EncodeToString(key), nil
}

// RandomBytes reads size bytes from crypto/rand.
func RandomBytes(size int) ([]byte, error) {
	value := make([]byte, size)
	if _, err := io.ReadFull(rand.Reader, value); err != nil {
		return nil, err
	}
	return value, nil
}

// Seal encrypts plaintext and packs it as version || tag || nonce || ciphertext.
func (c *AESGCM) Seal(aad, plaintext []byte) ([]byte, error) {
	// Never use more than 2^32 random nonces with a given key.
	nonce, err := RandomBytes(nonceSize)
	if err != nil {
		return nil, err
	}
	return c.sealWithNonce(aad, plaintext, nonce), nil
}

func (c *AESGCM) sealWithNonce(aad, plaintext, nonce []byte) []byte {
	out := c.aead.Seal(nil, nonce, plaintext, aad)
	body, tag := out[:len(out)-tagSize], out[len(out)-tagSize:]

	packed := make([]byte, 0, headerSize+len(body))
	packed = append(packed, versionMagic)
	packed = append(packed, tag...)
	packed = append(packed, nonce...)
	packed = append(packed, body...)
	return packed
}

// Open reverses Seal. Any tampering with the data or the aad fails.
func (c *AESGCM) Open(aad, sealed []byte) ([]byte, error) {
	if len(sealed) < headerSize || sealed[0] != versionMagic {
		return nil, ErrMalformed
	}
	tag := sealed[1 : 1+tagSize]
	nonce := sealed[1+tagSize : headerSize]
	body := sealed[headerSize:]

	joined := make([]byte, 0, len(body)+tagSize)
	joined = append(joined, body...)
	joined = append(joined, tag...)

	return c.aead.Open(nil, nonce, joined, aad)
}

type contextKey struct{}

// NewContext returns a context carrying c, read back by the model hooks.
func NewContext(ctx context.Context, c Cipher) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// FromContext returns the cipher stored by NewContext, if any.
func FromContext(ctx context.Context) (Cipher, bool) {
	if ctx == nil {
		return nil, false
	}
	c, ok := ctx.Value(contextKey{}).(Cipher)
	return c, ok && c != nil
}
