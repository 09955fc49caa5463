// Package middleware holds the HTTP middleware shared by the custody routes.
//
//   - RequestID assigns every request an X-Request-Id.
//   - BearerAuthenticator guards the key routes: it verifies the bearer
//     token, re-resolves the subject to a user id and answers 401 with
//     WWW-Authenticate: Bearer when either step fails.
package middleware
