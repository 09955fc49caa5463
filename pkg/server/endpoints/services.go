package endpoints

import (
	"context"

	"github.com/doodlesbykumbi/keycustody/pkg/keys"
)

// AccountService registers and authenticates users
type AccountService interface {
	Register(ctx context.Context, username, password string) (int64, error)
	Authenticate(ctx context.Context, username, password string) (int64, error)
}

// TokenIssuer signs bearer tokens
type TokenIssuer interface {
	Issue(username string) (string, error)
}

// KeyService generates keys and encrypts or decrypts with them
type KeyService interface {
	Generate(ctx context.Context, ownerID int64) (*keys.Generated, error)
	Encrypt(ctx context.Context, ownerID, keyID int64, plaintext string) (string, error)
	Decrypt(ctx context.Context, ownerID, keyID int64, ciphertext string) (string, error)
}
