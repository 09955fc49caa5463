package gorm

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/keycustody/pkg/model"
	"github.com/doodlesbykumbi/keycustody/pkg/server/store"
)

// Ensure KeyStore implements store.KeyStore
var _ store.KeyStore = (*KeyStore)(nil)

// KeyStore implements store.KeyStore using GORM
type KeyStore struct {
	db *gorm.DB
}

// NewKeyStore creates a new KeyStore
func NewKeyStore(db *gorm.DB) *KeyStore {
	return &KeyStore{db: db}
}

// CreateKey stores key material for an owner.
func (s *KeyStore) CreateKey(ctx context.Context, ownerID int64, material string) (*store.Key, error) {
	key := model.Key{
		UserID:      ownerID,
		KeyMaterial: material,
	}

	if err := model.WithContext(s.db, ctx).Create(&key).Error; err != nil {
		return nil, err
	}

	return &store.Key{
		ID:          key.ID,
		OwnerID:     key.UserID,
		KeyMaterial: material,
		CreatedAt:   key.CreatedAt,
	}, nil
}

// FindOwnedKey retrieves a key only if it belongs to ownerID.
func (s *KeyStore) FindOwnedKey(ctx context.Context, keyID, ownerID int64) (*store.Key, error) {
	var key model.Key
	tx := model.WithContext(s.db, ctx).Where("id = ? AND user_id = ?", keyID, ownerID).First(&key)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrKeyNotFound
		}
		return nil, tx.Error
	}

	return &store.Key{
		ID:          key.ID,
		OwnerID:     key.UserID,
		KeyMaterial: key.KeyMaterial,
		CreatedAt:   key.CreatedAt,
	}, nil
}
