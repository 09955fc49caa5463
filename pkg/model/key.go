package model

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/keycustody/pkg/datakey"
)

// Key is a Fernet key owned by exactly one user. When the database handle
// carries a data key, KeyMaterial is sealed on insert and opened on read so
// the column never holds the key in clear.
type Key struct {
	ID          int64  `gorm:"primaryKey"`
	UserID      int64  `gorm:"column:user_id;not null;index"`
	KeyMaterial string `gorm:"column:key_material;not null"`
	Wrapped     bool   `gorm:"column:wrapped;not null"`
	CreatedAt   time.Time

	plain string `gorm:"-"`
}

func (Key) TableName() string {
	return "keys"
}

func keyAAD(userID int64) []byte {
	return []byte("user:" + strconv.FormatInt(userID, 10))
}

func (k *Key) BeforeCreate(tx *gorm.DB) error {
	cipher, ok := cipherForDB(tx)
	if !ok {
		k.Wrapped = false
		return nil
	}

	sealed, err := cipher.Seal(keyAAD(k.UserID), []byte(k.KeyMaterial))
	if err != nil {
		return fmt.Errorf("key wrapping failed for user_id=%d: %w", k.UserID, err)
	}
	k.plain = k.KeyMaterial
	k.KeyMaterial = base64.StdEncoding.EncodeToString(sealed)
	k.Wrapped = true
	return nil
}

// AfterCreate puts the clear material back so callers never see the sealed form.
func (k *Key) AfterCreate(tx *gorm.DB) error {
	if k.Wrapped && k.plain != "" {
		k.KeyMaterial = k.plain
		k.plain = ""
	}
	return nil
}

func (k *Key) AfterFind(tx *gorm.DB) error {
	if !k.Wrapped {
		return nil
	}

	cipher, ok := cipherForDB(tx)
	if !ok {
		return fmt.Errorf("key id=%d is wrapped: %w", k.ID, datakey.ErrNoCipher)
	}

	sealed, err := base64.StdEncoding.DecodeString(k.KeyMaterial)
	if err != nil {
		return fmt.Errorf("key unwrapping failed for id=%d: %w", k.ID, err)
	}
	material, err := cipher.Open(keyAAD(k.UserID), sealed)
	if err != nil {
		return fmt.Errorf("key unwrapping failed for id=%d: %w", k.ID, err)
	}
	k.KeyMaterial = string(material)
	return nil
}
