package model

import (
	"context"

	"gorm.io/gorm"

	"github.com/doodlesbykumbi/keycustody/pkg/datakey"
)

func cipherForDB(tx *gorm.DB) (datakey.Cipher, bool) {
	if tx == nil || tx.Statement == nil {
		return nil, false
	}
	return datakey.FromContext(tx.Statement.Context)
}

// WithContext returns db bound to ctx while keeping any data key carried by
// the handle's original context.
func WithContext(db *gorm.DB, ctx context.Context) *gorm.DB {
	if c, ok := datakey.FromContext(db.Statement.Context); ok {
		if _, has := datakey.FromContext(ctx); !has {
			ctx = datakey.NewContext(ctx, c)
		}
	}
	return db.WithContext(ctx)
}
