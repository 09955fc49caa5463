// Package keys generates per-user symmetric keys and encrypts and decrypts
// text with them.
//
// Keys are Fernet keys (AES-128-CBC with HMAC-SHA256) encoded as URL-safe
// base64. Ciphertexts are standard Fernet tokens, so any Fernet
// implementation holding the key can open them.
//
// Every lookup is scoped to the caller: a key that does not exist and a key
// owned by someone else both yield store.ErrKeyNotFound.
package keys
