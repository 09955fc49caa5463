// Package gorm provides GORM-based implementations of the store interfaces
// defined in the parent store package.
//
// Unique constraint failures from postgres (pgx or lib/pq) and sqlite are
// translated into store.ErrDuplicateUsername; gorm.ErrRecordNotFound is
// translated into the matching store sentinel.
package gorm
