package model

import "time"

// User is a registered account. Username is unique and never changes.
type User struct {
	ID           int64  `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"column:password_hash;not null"`
	CreatedAt    time.Time
}

func (User) TableName() string {
	return "users"
}
