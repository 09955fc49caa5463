package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func clearEnv(t *testing.T) {
	for _, name := range []string{
		"CUSTODY_TOKEN_SECRET", "CUSTODY_TOKEN_TTL_MINUTES", "CUSTODY_TOKEN_ALGORITHM",
		"CUSTODY_CORS_ALLOWED_ORIGINS", "CUSTODY_BCRYPT_COST", "CUSTODY_CIPHERTEXT_TTL",
	} {
		t.Setenv(name, "")
	}
}

func writeConfig(t *testing.T, dir, content string) {
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o600))
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.TokenTTL())
	assert.Equal(t, "HS256", cfg.TokenAlgorithm)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, bcrypt.DefaultCost, cfg.BcryptCost)
	assert.Equal(t, time.Duration(0), cfg.CiphertextMaxAge())
	assert.Equal(t, "default", cfg.Source("token_ttl_minutes"))
	assert.Equal(t, "default", cfg.Source("unknown"))
}

func TestLoadFileThenEnvironment(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeConfig(t, dir, `
token_secret: from-file
token_ttl_minutes: 30
token_algorithm: hs512
cors_allowed_origins:
  - https://app.example.com
`)
	t.Setenv("CUSTODY_TOKEN_TTL_MINUTES", "5")
	t.Setenv("CUSTODY_BCRYPT_COST", "4")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.TokenSecret)
	assert.Equal(t, "file", cfg.Source("token_secret"))
	assert.Equal(t, 5, cfg.TokenTTLMinutes)
	assert.Equal(t, "environment", cfg.Source("token_ttl_minutes"))
	assert.Equal(t, "HS512", cfg.TokenAlgorithm)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 4, cfg.BcryptCost)
	assert.Equal(t, filepath.Join(dir, ConfigFileName), cfg.ConfigFilePath())
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeConfig(t, dir, "token_ttl_minutes: [not a number")

	_, err := LoadFrom(dir)
	assert.Error(t, err)
}

func TestLoadRejectsNonNumericEnvironment(t *testing.T) {
	for _, name := range []string{"CUSTODY_TOKEN_TTL_MINUTES", "CUSTODY_BCRYPT_COST", "CUSTODY_CIPHERTEXT_TTL"} {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(name, "fifteen")

			_, err := LoadFrom(t.TempDir())
			require.Error(t, err)
			assert.Contains(t, err.Error(), name)
		})
	}

	t.Run("every bad value is reported", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CUSTODY_TOKEN_TTL_MINUTES", "15m")
		t.Setenv("CUSTODY_CIPHERTEXT_TTL", "1h")

		_, err := LoadFrom(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "CUSTODY_TOKEN_TTL_MINUTES")
		assert.Contains(t, err.Error(), "CUSTODY_CIPHERTEXT_TTL")
	})

	t.Run("surrounding spaces are tolerated", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CUSTODY_BCRYPT_COST", " 5 ")

		cfg, err := LoadFrom(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, 5, cfg.BcryptCost)
	})
}

func TestLoadUsesConfigPathEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeConfig(t, dir, "token_secret: s3cret\n")
	t.Setenv("CUSTODY_CONFIG_PATH", dir)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.TokenSecret)
}

func TestValidate(t *testing.T) {
	valid := func() *CustodyConfig {
		cfg := NewDefault()
		cfg.TokenSecret = "secret"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *CustodyConfig)
		wantErr string
	}{
		{name: "valid", mutate: func(c *CustodyConfig) {}},
		{name: "missing secret", mutate: func(c *CustodyConfig) { c.TokenSecret = "" }, wantErr: "token_secret is required"},
		{name: "zero ttl", mutate: func(c *CustodyConfig) { c.TokenTTLMinutes = 0 }, wantErr: "token_ttl_minutes"},
		{name: "asymmetric algorithm", mutate: func(c *CustodyConfig) { c.TokenAlgorithm = "RS256" }, wantErr: "token_algorithm"},
		{name: "bcrypt cost too low", mutate: func(c *CustodyConfig) { c.BcryptCost = 2 }, wantErr: "bcrypt_cost"},
		{name: "negative ciphertext ttl", mutate: func(c *CustodyConfig) { c.CiphertextTTL = -1 }, wantErr: "ciphertext_ttl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAttributesRedactSecret(t *testing.T) {
	cfg := NewDefault()
	cfg.TokenSecret = "do-not-print"

	text := cfg.FormatText()
	assert.NotContains(t, text, "do-not-print")
	assert.Contains(t, text, "(redacted)")

	out, err := cfg.FormatJSON()
	require.NoError(t, err)
	assert.NotContains(t, out, "do-not-print")

	var parsed struct {
		Attributes []Attribute `json:"attributes"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Len(t, parsed.Attributes, len(attributeNames()))
}

func TestWatchReloadsOnWrite(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeConfig(t, dir, "token_secret: first\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *CustodyConfig, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, dir, func(c *CustodyConfig) { changes <- c })
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	writeConfig(t, dir, "token_secret: second\n")

	select {
	case cfg := <-changes:
		assert.Equal(t, "second", cfg.TokenSecret)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}

	cancel()
	assert.NoError(t, <-done)
}
