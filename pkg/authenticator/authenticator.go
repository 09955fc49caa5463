package authenticator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/doodlesbykumbi/keycustody/pkg/server/store"
)

var (
	// ErrInvalidCredentials is returned for an unknown username or a wrong password.
	// The two cases are indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnknownUser is returned by Resolve when the username no longer maps to a user
	ErrUnknownUser = errors.New("unknown user")
	// ErrInvalidInput is returned by Register for an empty username or password
	ErrInvalidInput = errors.New("username and password are required")
	// ErrPasswordTooLong is returned by Register for passwords bcrypt cannot hash
	ErrPasswordTooLong = fmt.Errorf("password must be at most %d bytes", maxPasswordBytes)
)

// maxPasswordBytes is the bcrypt input limit
const maxPasswordBytes = 72

// dummyHash is compared against when the username is unknown so that both
// paths cost one bcrypt comparison.
var dummyHash = mustHash("custody-dummy-password", bcrypt.DefaultCost)

// Authenticator verifies username/password pairs against a CredentialStore
type Authenticator struct {
	users store.CredentialStore
	cost  int
}

// Option customizes an Authenticator.
type Option func(*Authenticator)

// WithBcryptCost sets the cost used when hashing new passwords.
func WithBcryptCost(cost int) Option {
	return func(a *Authenticator) {
		if cost != 0 {
			a.cost = cost
		}
	}
}

// New creates an Authenticator over users
func New(users store.CredentialStore, opts ...Option) *Authenticator {
	a := &Authenticator{
		users: users,
		cost:  bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Register hashes password and creates the user. A taken username yields
// store.ErrDuplicateUsername. The username is stored as given; a blank one
// is rejected.
func (a *Authenticator) Register(ctx context.Context, username, password string) (int64, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return 0, ErrInvalidInput
	}
	if len(password) > maxPasswordBytes {
		return 0, ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return 0, ErrPasswordTooLong
		}
		return 0, fmt.Errorf("hashing password: %w", err)
	}

	user, err := a.users.CreateUser(ctx, username, string(hash))
	if err != nil {
		if errors.Is(err, store.ErrDuplicateUsername) {
			return 0, err
		}
		return 0, fmt.Errorf("creating user %q: %w", username, err)
	}
	return user.ID, nil
}

// Authenticate returns the user id for a matching username and password.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (int64, error) {
	user, err := a.users.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return 0, ErrInvalidCredentials
		}
		return 0, fmt.Errorf("looking up user %q: %w", username, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return 0, ErrInvalidCredentials
	}
	return user.ID, nil
}

// Resolve maps the username carried by a verified token back to a user id.
// It runs on every protected request.
func (a *Authenticator) Resolve(ctx context.Context, username string) (int64, error) {
	user, err := a.users.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return 0, ErrUnknownUser
		}
		return 0, fmt.Errorf("resolving user %q: %w", username, err)
	}
	return user.ID, nil
}

func mustHash(password string, cost int) []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		panic(err)
	}
	return hash
}
