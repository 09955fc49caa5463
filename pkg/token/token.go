package token

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the token lifetime used when Config.TTL is zero.
const DefaultTTL = 15 * time.Minute

var (
	// ErrTokenInvalid covers malformed tokens, bad signatures, wrong algorithms and missing claims
	ErrTokenInvalid = errors.New("token is invalid")
	// ErrTokenExpired is returned for a correctly signed token past its exp claim
	ErrTokenExpired = errors.New("token has expired")
)

// Config holds the signing settings. It is passed explicitly to NewIssuer.
type Config struct {
	Secret    []byte
	TTL       time.Duration
	Algorithm string
}

// Claims are the registered claims carried by a bearer token: sub, exp and iat.
type Claims struct {
	jwt.RegisteredClaims
}

// Username returns the subject claim.
func (c *Claims) Username() string {
	return c.Subject
}

// Option customizes an Issuer.
type Option func(*Issuer)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		i.now = now
	}
}

// Issuer signs and verifies bearer tokens with a shared HMAC secret.
// It is safe for concurrent use; Rotate swaps the settings atomically.
type Issuer struct {
	mu     sync.RWMutex
	cfg    Config
	method jwt.SigningMethod
	now    func() time.Time
}

// NewIssuer validates cfg and returns an Issuer.
func NewIssuer(cfg Config, opts ...Option) (*Issuer, error) {
	i := &Issuer{now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	if err := i.Rotate(cfg); err != nil {
		return nil, err
	}
	return i, nil
}

// Rotate replaces the secret, lifetime and algorithm. Tokens signed with the
// previous secret stop verifying immediately.
func (i *Issuer) Rotate(cfg Config) error {
	if len(cfg.Secret) == 0 {
		return errors.New("token secret must not be empty")
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.TTL < 0 {
		return fmt.Errorf("token ttl must be positive, got %s", cfg.TTL)
	}
	method, err := signingMethod(cfg.Algorithm)
	if err != nil {
		return err
	}
	cfg.Algorithm = method.Alg()
	cfg.Secret = append([]byte(nil), cfg.Secret...)

	i.mu.Lock()
	i.cfg = cfg
	i.method = method
	i.mu.Unlock()
	return nil
}

// TTL returns the current token lifetime.
func (i *Issuer) TTL() time.Duration {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.cfg.TTL
}

// Issue signs a token for username valid for the configured TTL.
func (i *Issuer) Issue(username string) (string, error) {
	i.mu.RLock()
	secret, ttl, method := i.cfg.Secret, i.cfg.TTL, i.method
	i.mu.RUnlock()

	now := i.now()
	tok := jwt.NewWithClaims(method, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return tok.SignedString(secret)
}

// Verify checks the signature, the algorithm and the expiry of tokenString
// and returns its claims. No claim is read before the signature is checked.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	i.mu.RLock()
	secret, method := i.cfg.Secret, i.method
	i.mu.RUnlock()

	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return secret, nil
		},
		jwt.WithValidMethods([]string{method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !tok.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func signingMethod(alg string) (jwt.SigningMethod, error) {
	switch strings.ToUpper(alg) {
	case "", "HS256":
		return jwt.SigningMethodHS256, nil
	case "HS384":
		return jwt.SigningMethodHS384, nil
	case "HS512":
		return jwt.SigningMethodHS512, nil
	}
	return nil, fmt.Errorf("unsupported token algorithm %q", alg)
}
