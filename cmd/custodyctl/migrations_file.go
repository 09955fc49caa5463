//go:build !embed_migrations

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const defaultMigrationsPath = "db/migrations"

func migrationsDir(dialect string) string {
	base := defaultMigrationsPath
	if p := os.Getenv("CUSTODY_MIGRATIONS_PATH"); p != "" {
		base = p
	}
	return filepath.Join(base, dialect)
}

func createMigrateInstance(dialect, dbURL string) (*migrate.Migrate, error) {
	dir := migrationsDir(dialect)
	fmt.Printf("Running migrations from file://%s\n", dir)
	return migrate.New("file://"+dir, dbURL)
}

func listMigrationFiles(dialect string) ([]string, error) {
	entries, err := os.ReadDir(migrationsDir(dialect))
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			files = append(files, entry.Name())
		}
	}
	return files, nil
}
