package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "/etc/custody"
	ConfigFileName    = "custody.yml"

	DefaultTokenTTLMinutes = 15
	DefaultTokenAlgorithm  = "HS256"
)

// ValidTokenAlgorithms lists the HMAC algorithms the token issuer accepts
var ValidTokenAlgorithms = []string{"HS256", "HS384", "HS512"}

// CustodyConfig holds all server configuration settings
type CustodyConfig struct {
	// TokenSecret is the HMAC key used to sign and verify bearer tokens
	TokenSecret string `yaml:"token_secret" json:"token_secret"`

	// TokenTTLMinutes is the lifetime of an issued token
	TokenTTLMinutes int `yaml:"token_ttl_minutes" json:"token_ttl_minutes"`

	// TokenAlgorithm is the JWT signing algorithm (HS256, HS384 or HS512)
	TokenAlgorithm string `yaml:"token_algorithm" json:"token_algorithm"`

	// CORSAllowedOrigins is the list of origins allowed by the CORS handler
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" json:"cors_allowed_origins"`

	// BcryptCost is the work factor for password hashes
	BcryptCost int `yaml:"bcrypt_cost" json:"bcrypt_cost"`

	// CiphertextTTL is the maximum accepted ciphertext age in seconds, 0 means unlimited
	CiphertextTTL int `yaml:"ciphertext_ttl" json:"ciphertext_ttl"`

	sources        map[string]string
	configFilePath string
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// NewDefault returns a configuration holding only default values
func NewDefault() *CustodyConfig {
	return &CustodyConfig{
		TokenTTLMinutes:    DefaultTokenTTLMinutes,
		TokenAlgorithm:     DefaultTokenAlgorithm,
		CORSAllowedOrigins: []string{"*"},
		BcryptCost:         bcrypt.DefaultCost,
		CiphertextTTL:      0,
		sources:            make(map[string]string),
	}
}

// Dir returns the directory holding the config file, honouring CUSTODY_CONFIG_PATH
func Dir() string {
	if p := os.Getenv("CUSTODY_CONFIG_PATH"); p != "" {
		return p
	}
	return DefaultConfigPath
}

// Load loads configuration from the default location and the environment.
// Environment variables take precedence over file values.
func Load() (*CustodyConfig, error) {
	return LoadFrom(Dir())
}

// LoadFrom loads configuration from custody.yml inside dir and the environment.
// A missing file is not an error; a malformed file or a non-numeric numeric
// environment variable is.
func LoadFrom(dir string) (*CustodyConfig, error) {
	config := NewDefault()
	for _, name := range attributeNames() {
		config.sources[name] = "default"
	}

	config.configFilePath = filepath.Join(dir, ConfigFileName)

	if data, err := os.ReadFile(config.configFilePath); err == nil {
		var fileConfig CustodyConfig
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", config.configFilePath, err)
		}
		config.applyFileConfig(&fileConfig)
	}

	if err := config.applyEnvConfig(); err != nil {
		return nil, err
	}

	return config, nil
}

func attributeNames() []string {
	return []string{
		"token_secret", "token_ttl_minutes", "token_algorithm",
		"cors_allowed_origins", "bcrypt_cost", "ciphertext_ttl",
	}
}

func (c *CustodyConfig) applyFileConfig(file *CustodyConfig) {
	if file.TokenSecret != "" {
		c.TokenSecret = file.TokenSecret
		c.sources["token_secret"] = "file"
	}
	if file.TokenTTLMinutes != 0 {
		c.TokenTTLMinutes = file.TokenTTLMinutes
		c.sources["token_ttl_minutes"] = "file"
	}
	if file.TokenAlgorithm != "" {
		c.TokenAlgorithm = strings.ToUpper(file.TokenAlgorithm)
		c.sources["token_algorithm"] = "file"
	}
	if len(file.CORSAllowedOrigins) > 0 {
		c.CORSAllowedOrigins = file.CORSAllowedOrigins
		c.sources["cors_allowed_origins"] = "file"
	}
	if file.BcryptCost != 0 {
		c.BcryptCost = file.BcryptCost
		c.sources["bcrypt_cost"] = "file"
	}
	if file.CiphertextTTL != 0 {
		c.CiphertextTTL = file.CiphertextTTL
		c.sources["ciphertext_ttl"] = "file"
	}
}

func (c *CustodyConfig) applyEnvConfig() error {
	var errs []error
	envInt := func(name, attr string, dst *int) {
		val := os.Getenv(name)
		if val == "" {
			return
		}
		i, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s value %q: not an integer", name, val))
			return
		}
		*dst = i
		c.sources[attr] = "environment"
	}

	if val := os.Getenv("CUSTODY_TOKEN_SECRET"); val != "" {
		c.TokenSecret = val
		c.sources["token_secret"] = "environment"
	}
	envInt("CUSTODY_TOKEN_TTL_MINUTES", "token_ttl_minutes", &c.TokenTTLMinutes)
	if val := os.Getenv("CUSTODY_TOKEN_ALGORITHM"); val != "" {
		c.TokenAlgorithm = strings.ToUpper(val)
		c.sources["token_algorithm"] = "environment"
	}
	if val := os.Getenv("CUSTODY_CORS_ALLOWED_ORIGINS"); val != "" {
		c.CORSAllowedOrigins = splitAndTrim(val)
		c.sources["cors_allowed_origins"] = "environment"
	}
	envInt("CUSTODY_BCRYPT_COST", "bcrypt_cost", &c.BcryptCost)
	envInt("CUSTODY_CIPHERTEXT_TTL", "ciphertext_ttl", &c.CiphertextTTL)

	return errors.Join(errs...)
}

// ConfigFilePath returns the path to the config file
func (c *CustodyConfig) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *CustodyConfig) Source(name string) string {
	if c.sources == nil {
		return "default"
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// TokenTTL returns the token lifetime as a duration
func (c *CustodyConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMinutes) * time.Minute
}

// CiphertextMaxAge returns the ciphertext TTL as a duration, 0 when unlimited
func (c *CustodyConfig) CiphertextMaxAge() time.Duration {
	return time.Duration(c.CiphertextTTL) * time.Second
}

// Validate validates the configuration
func (c *CustodyConfig) Validate() error {
	if c.TokenSecret == "" {
		return fmt.Errorf("token_secret is required (set CUSTODY_TOKEN_SECRET)")
	}
	if c.TokenTTLMinutes <= 0 {
		return fmt.Errorf("invalid token_ttl_minutes value: %d", c.TokenTTLMinutes)
	}

	valid := false
	for _, alg := range ValidTokenAlgorithms {
		if c.TokenAlgorithm == alg {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid token_algorithm: %s", c.TokenAlgorithm)
	}

	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("invalid bcrypt_cost value: %d", c.BcryptCost)
	}
	if c.CiphertextTTL < 0 {
		return fmt.Errorf("invalid ciphertext_ttl value: %d", c.CiphertextTTL)
	}

	return nil
}

// Attributes returns all configuration attributes with their values and sources.
// The token secret is never included in clear.
func (c *CustodyConfig) Attributes() []Attribute {
	secret := ""
	if c.TokenSecret != "" {
		secret = "(redacted)"
	}
	return []Attribute{
		{Name: "token_secret", Value: secret, Source: c.Source("token_secret")},
		{Name: "token_ttl_minutes", Value: strconv.Itoa(c.TokenTTLMinutes), Source: c.Source("token_ttl_minutes")},
		{Name: "token_algorithm", Value: c.TokenAlgorithm, Source: c.Source("token_algorithm")},
		{Name: "cors_allowed_origins", Value: strings.Join(c.CORSAllowedOrigins, ","), Source: c.Source("cors_allowed_origins")},
		{Name: "bcrypt_cost", Value: strconv.Itoa(c.BcryptCost), Source: c.Source("bcrypt_cost")},
		{Name: "ciphertext_ttl", Value: strconv.Itoa(c.CiphertextTTL), Source: c.Source("ciphertext_ttl")},
	}
}

// FormatText returns a text representation of the configuration
func (c *CustodyConfig) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("%-30s %-30s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-30s %-30s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-30s %-30s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *CustodyConfig) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
