package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/doodlesbykumbi/keycustody/pkg/datakey"
)

// Supported URL schemes
const (
	SchemePostgres = "postgres"
	SchemeSQLite   = "sqlite3"
)

// Config holds database connection configuration
type Config struct {
	// URL is the database connection URL (defaults to DATABASE_URL env var)
	URL string
	// Cipher is optional - if provided, key material is wrapped at rest
	Cipher datakey.Cipher
}

// Connect establishes a database connection.
// If no URL is provided, it reads from DATABASE_URL environment variable.
func Connect(cfg Config) (*gorm.DB, error) {
	dbURL := cfg.URL
	if dbURL == "" {
		dbURL = URL()
	}
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	dialector, err := Dialector(dbURL)
	if err != nil {
		return nil, err
	}

	// Default to silent logging unless CUSTODY_LOG_LEVEL=debug is set
	logMode := logger.Silent
	if os.Getenv("CUSTODY_LOG_LEVEL") == "debug" {
		logMode = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if Scheme(dbURL) == SchemeSQLite {
		if err := tuneSQLite(db); err != nil {
			return nil, err
		}
	}

	if cfg.Cipher != nil {
		db = db.WithContext(datakey.NewContext(context.Background(), cfg.Cipher))
	}

	return db, nil
}

// Dialector returns the GORM dialector for a database URL.
func Dialector(dbURL string) (gorm.Dialector, error) {
	switch Scheme(dbURL) {
	case SchemePostgres:
		return postgres.New(postgres.Config{
			DSN:                  dbURL,
			PreferSimpleProtocol: true, // disables implicit prepared statement usage
		}), nil
	case SchemeSQLite:
		path := SQLitePath(dbURL)
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
		return sqlite.Open(path + "?_foreign_keys=1"), nil
	default:
		return nil, fmt.Errorf("unsupported database URL scheme in %q (want postgres:// or sqlite3://)", redact(dbURL))
	}
}

// Scheme returns the normalized scheme of a database URL, or "" if unknown.
func Scheme(dbURL string) string {
	i := strings.Index(dbURL, "://")
	if i < 0 {
		return ""
	}
	switch strings.ToLower(dbURL[:i]) {
	case "postgres", "postgresql":
		return SchemePostgres
	case "sqlite", "sqlite3":
		return SchemeSQLite
	}
	return ""
}

// SQLitePath returns the file path of a sqlite3:// URL without query options.
func SQLitePath(dbURL string) string {
	path := dbURL[strings.Index(dbURL, "://")+3:]
	if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}
	return path
}

// MigrateURL returns the URL golang-migrate expects for the same database.
func MigrateURL(dbURL string) string {
	if Scheme(dbURL) == SchemeSQLite {
		return "sqlite3://" + SQLitePath(dbURL)
	}
	return dbURL
}

func tuneSQLite(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}

	// a single writer avoids "database is locked" under concurrent requests
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	_, _ = sqlDB.Exec("PRAGMA journal_mode = WAL;")
	_, _ = sqlDB.Exec("PRAGMA foreign_keys = ON;")
	return nil
}

func redact(dbURL string) string {
	at := strings.LastIndex(dbURL, "@")
	i := strings.Index(dbURL, "://")
	if at < 0 || i < 0 || at < i {
		return dbURL
	}
	return dbURL[:i+3] + "***" + dbURL[at:]
}

// URL returns the database URL from environment.
// Returns empty string if DATABASE_URL is not set.
func URL() string {
	return os.Getenv("DATABASE_URL")
}
