//go:build embed_migrations

package main

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/doodlesbykumbi/keycustody/db"
)

func init() {
	fmt.Println("Using embedded migrations (production build)")
}

func dialectFS(dialect string) (fs.FS, error) {
	sub, err := fs.Sub(db.Migrations, path.Join("migrations", dialect))
	if err != nil {
		return nil, fmt.Errorf("failed to get embedded migrations: %w", err)
	}
	return sub, nil
}

func createMigrateInstance(dialect, dbURL string) (*migrate.Migrate, error) {
	migrationsFS, err := dialectFS(dialect)
	if err != nil {
		return nil, err
	}

	d, err := iofs.New(migrationsFS, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to create iofs driver: %w", err)
	}

	return migrate.NewWithSourceInstance("iofs", d, dbURL)
}

func listMigrationFiles(dialect string) ([]string, error) {
	migrationsFS, err := dialectFS(dialect)
	if err != nil {
		return nil, err
	}

	entries, err := fs.ReadDir(migrationsFS, ".")
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
