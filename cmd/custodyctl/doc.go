// Command custodyctl runs and manages the key custody API server.
//
// The server registers users, hands out short-lived bearer tokens and keeps
// one or more symmetric keys per user, encrypting and decrypting on their
// behalf.
//
// # Quick Start
//
//	# Generate a token signing secret
//	export CUSTODY_TOKEN_SECRET=$(custodyctl token-secret generate)
//
//	# Optionally wrap stored key material with a data key
//	export CUSTODY_DATA_KEY=$(custodyctl data-key generate)
//
//	# Run database migrations
//	export DATABASE_URL=sqlite3:///var/lib/custody/custody.db
//	custodyctl db migrate
//
//	# Start the server
//	custodyctl server
//
// # Environment Variables
//
//   - DATABASE_URL: postgres:// or sqlite3:// connection URL
//   - CUSTODY_TOKEN_SECRET: HMAC secret for bearer tokens
//   - CUSTODY_DATA_KEY: Base64-encoded 256-bit key wrapping key material at rest
//   - CUSTODY_CONFIG_PATH: directory holding custody.yml (default: /etc/custody)
//   - CUSTODY_LOG_LEVEL: set to debug to log SQL statements
//   - AUDIT_DATABASE_URL: optional postgres database receiving audit events
//   - PORT: Server port (default: 8000)
package main
