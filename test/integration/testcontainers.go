package integration

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	migrations "github.com/doodlesbykumbi/keycustody/db"
	"github.com/doodlesbykumbi/keycustody/pkg/datakey"
	"github.com/doodlesbykumbi/keycustody/pkg/db"
)

// tokenSecret signs bearer tokens for the server under test
const tokenSecret = "integration-token-secret"

// TestContext holds all the resources needed for integration tests
type TestContext struct {
	DB          *gorm.DB
	RawDB       *sql.DB
	Container   testcontainers.Container
	DatabaseURL string
	DataKey     []byte
	Cipher      *datakey.AESGCM
	HTTPClient  *http.Client
	Server      *ServerInstance
	InlineMode  bool
	BinaryPath  string
}

// NewTestContext creates a new test context with a PostgreSQL testcontainer.
// Modes:
//   - Binary mode (default): Set CUSTODY_BINARY to the path of the custodyctl binary
//   - Inline mode: Set CUSTODY_INLINE=1 to run the server in-process (no binary needed)
func NewTestContext(ctx context.Context) (*TestContext, error) {
	inlineMode := os.Getenv("CUSTODY_INLINE") == "1"
	binaryPath := os.Getenv("CUSTODY_BINARY")

	if !inlineMode && binaryPath == "" {
		return nil, fmt.Errorf("Either CUSTODY_BINARY or CUSTODY_INLINE=1 is required.\n\nBinary mode:\n  go build -o custodyctl ./cmd/custodyctl\n  INTEGRATION_TEST=1 CUSTODY_BINARY=$(pwd)/custodyctl go test -v ./test/integration/...\n\nInline mode:\n  INTEGRATION_TEST=1 CUSTODY_INLINE=1 go test -v ./test/integration/...")
	}

	if !inlineMode {
		if _, err := os.Stat(binaryPath); err != nil {
			return nil, fmt.Errorf("CUSTODY_BINARY path does not exist: %s", binaryPath)
		}
		log.Printf("Using binary: %s", binaryPath)
	} else {
		log.Println("Using inline server mode")
	}

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("custody_test"),
		tcpostgres.WithUsername("custody"),
		tcpostgres.WithPassword("custody"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	dataKey := make([]byte, datakey.KeySize)
	for i := range dataKey {
		dataKey[i] = byte(i)
	}
	cipher, err := datakey.New(dataKey)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	// The cipher lets assertions read wrapped key material back in clear.
	gormDB, err := db.Connect(db.Config{URL: connStr, Cipher: cipher})
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, err
	}

	rawDB, err := gormDB.DB()
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get raw db: %w", err)
	}

	if err := runMigrations(rawDB); err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	tc := &TestContext{
		DB:          gormDB,
		RawDB:       rawDB,
		Container:   pgContainer,
		DatabaseURL: connStr,
		DataKey:     dataKey,
		Cipher:      cipher,
		HTTPClient:  &http.Client{Timeout: 10 * time.Second},
		InlineMode:  inlineMode,
		BinaryPath:  binaryPath,
	}

	tc.Server, err = StartServer(tc)
	if err != nil {
		tc.Close(ctx)
		return nil, err
	}
	return tc, nil
}

// ServerURL is the base URL of the server under test
func (tc *TestContext) ServerURL() string {
	return tc.Server.ServerURL
}

// waitForServer polls the server until it responds or times out
func waitForServer(serverURL string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(serverURL + "/")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("server did not become ready within %v", timeout)
}

// Close cleans up all test resources
func (tc *TestContext) Close(ctx context.Context) {
	if tc.Server != nil {
		tc.Server.Stop()
	}
	if tc.RawDB != nil {
		_ = tc.RawDB.Close()
	}
	if tc.Container != nil {
		_ = tc.Container.Terminate(ctx)
	}
}

// runMigrations applies the embedded postgres up migrations in order
func runMigrations(rawDB *sql.DB) error {
	files, err := fs.Glob(migrations.Migrations, "migrations/postgres/*.up.sql")
	if err != nil {
		return err
	}
	sort.Strings(files)

	for _, file := range files {
		content, err := fs.ReadFile(migrations.Migrations, file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}
		if _, err := rawDB.Exec(string(content)); err != nil {
			return fmt.Errorf("migration %s: %w", file, err)
		}
	}
	return nil
}
