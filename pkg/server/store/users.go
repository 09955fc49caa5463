package store

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateUsername is returned when a username is already registered
var ErrDuplicateUsername = errors.New("username already exists")

// ErrUserNotFound is returned when no user has the given username
var ErrUserNotFound = errors.New("user not found")

// User is a stored credential record
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// CredentialStore persists usernames and password hashes
type CredentialStore interface {
	// CreateUser inserts a new user. The insert is atomic: a concurrent or
	// repeated registration of the same username fails with
	// ErrDuplicateUsername and leaves the existing row untouched.
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)

	// FindUserByUsername returns ErrUserNotFound if the username is unknown.
	FindUserByUsername(ctx context.Context, username string) (*User, error)
}
