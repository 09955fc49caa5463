// Package token issues and verifies the bearer tokens handed out by /token.
//
// Tokens are JWTs signed with a shared HMAC secret (HS256 by default)
// carrying three claims:
//
//   - sub: the username
//   - iat: issue time
//   - exp: issue time plus the configured TTL (15 minutes by default)
//
// # Usage
//
//	issuer, err := token.NewIssuer(token.Config{
//	    Secret: []byte(cfg.TokenSecret),
//	    TTL:    cfg.TokenTTL(),
//	})
//	signed, err := issuer.Issue("alice")
//	claims, err := issuer.Verify(signed)
//
// Verify returns ErrTokenExpired for an expired but otherwise valid token and
// ErrTokenInvalid for everything else.
package token
