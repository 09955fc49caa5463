// Package config provides configuration management for the custody server.
//
// Settings are resolved in three layers: built-in defaults, the YAML file
// $CUSTODY_CONFIG_PATH/custody.yml (default /etc/custody/custody.yml) and
// CUSTODY_* environment variables. The source of every attribute is tracked
// so `custodyctl configuration show` can report where a value came from.
//
// # Key Configuration Options
//
//   - CUSTODY_TOKEN_SECRET: HMAC secret for bearer tokens (required)
//   - CUSTODY_TOKEN_TTL_MINUTES: token lifetime (default 15)
//   - CUSTODY_TOKEN_ALGORITHM: HS256, HS384 or HS512 (default HS256)
//   - CUSTODY_CORS_ALLOWED_ORIGINS: comma separated origins (default *)
//   - CUSTODY_BCRYPT_COST: password hash work factor
//   - CUSTODY_CIPHERTEXT_TTL: maximum ciphertext age in seconds (default unlimited)
//
// Watch re-reads the file on change so a running server can pick up a new
// token secret without a restart.
package config
