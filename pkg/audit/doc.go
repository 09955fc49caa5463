// Package audit records security-relevant custody operations.
//
// Every registration, login, key generation, encryption and decryption,
// successful or not, produces one event. Events are written to stdout in
// RFC5424 syslog format and, when AUDIT_DATABASE_URL is set, inserted into
// the messages table of that database.
//
// # Usage
//
//	audit.Log(audit.KeyEvent{
//	    Action:   audit.ActionEncrypt,
//	    Username: "alice",
//	    KeyID:    3,
//	    ClientIP: "10.0.0.1",
//	    Success:  true,
//	})
//
// Events never carry plaintexts, ciphertexts, passwords or key material.
// Set CUSTODY_AUDIT_ENABLED=false to turn audit logging off.
package audit
