package store

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound is returned when a key does not exist or belongs to another
// user. Both cases yield the same error.
var ErrKeyNotFound = errors.New("key not found")

// Key is a stored symmetric key
type Key struct {
	ID          int64
	OwnerID     int64
	KeyMaterial string
	CreatedAt   time.Time
}

// KeyStore persists keys scoped to their owner
type KeyStore interface {
	// CreateKey stores material for ownerID and returns the new record.
	CreateKey(ctx context.Context, ownerID int64, material string) (*Key, error)

	// FindOwnedKey looks a key up by id and owner together.
	// Returns ErrKeyNotFound when either does not match.
	FindOwnedKey(ctx context.Context, keyID, ownerID int64) (*Key, error)
}
