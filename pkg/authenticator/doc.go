// Package authenticator verifies usernames and passwords.
//
// Passwords are stored as salted bcrypt hashes through a
// [github.com/doodlesbykumbi/keycustody/pkg/server/store.CredentialStore].
//
// # Operations
//
//   - Register hashes the password and creates the user.
//   - Authenticate returns the user id for a valid username and password, or
//     ErrInvalidCredentials. Unknown usernames still cost one bcrypt comparison.
//   - Resolve maps a token subject back to a user id. Protected endpoints call
//     it on every request instead of trusting the token alone.
package authenticator
