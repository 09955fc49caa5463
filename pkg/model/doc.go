// Package model defines the GORM models for the custody database.
//
//   - User: users(id, username UNIQUE, password_hash, created_at)
//   - Key: keys(id, user_id REFERENCES users(id), key_material, wrapped, created_at)
//
// Key material is wrapped with the data key (see package datakey) when the
// *gorm.DB context carries one. Use WithContext instead of db.WithContext so
// a request context does not drop the cipher.
package model
