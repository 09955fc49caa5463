package gorm

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/keycustody/pkg/model"
	"github.com/doodlesbykumbi/keycustody/pkg/server/store"
)

// Ensure UserStore implements store.CredentialStore
var _ store.CredentialStore = (*UserStore)(nil)

// UserStore implements store.CredentialStore using GORM
type UserStore struct {
	db *gorm.DB
}

// NewUserStore creates a new UserStore
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// CreateUser inserts a user, relying on the unique index for duplicate detection.
func (s *UserStore) CreateUser(ctx context.Context, username, passwordHash string) (*store.User, error) {
	user := model.User{
		Username:     username,
		PasswordHash: passwordHash,
	}

	if err := model.WithContext(s.db, ctx).Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicateUsername
		}
		return nil, err
	}

	return toStoreUser(&user), nil
}

// FindUserByUsername retrieves a user by username.
func (s *UserStore) FindUserByUsername(ctx context.Context, username string) (*store.User, error) {
	var user model.User
	tx := model.WithContext(s.db, ctx).Where("username = ?", username).First(&user)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrUserNotFound
		}
		return nil, tx.Error
	}
	return toStoreUser(&user), nil
}

func toStoreUser(u *model.User) *store.User {
	return &store.User{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}
