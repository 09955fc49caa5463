package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/doodlesbykumbi/keycustody/pkg/authenticator"
	"github.com/doodlesbykumbi/keycustody/pkg/identity"
	"github.com/doodlesbykumbi/keycustody/pkg/token"
)

// TokenVerifier checks a bearer token and returns its claims
type TokenVerifier interface {
	Verify(tokenString string) (*token.Claims, error)
}

// UserResolver maps a token subject to a user id
type UserResolver interface {
	Resolve(ctx context.Context, username string) (int64, error)
}

// BearerAuthenticator is middleware that requires a valid bearer token
// whose subject still resolves to a user.
type BearerAuthenticator struct {
	Verifier TokenVerifier
	Resolver UserResolver
}

// NewBearerAuthenticator creates a new bearer authenticator middleware
func NewBearerAuthenticator(verifier TokenVerifier, resolver UserResolver) *BearerAuthenticator {
	return &BearerAuthenticator{Verifier: verifier, Resolver: resolver}
}

// Middleware returns an HTTP middleware that authenticates the request and
// stores the caller's identity in the request context.
func (b *BearerAuthenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeUnauthorized(w)
			return
		}

		claims, err := b.Verifier.Verify(tokenStr)
		if err != nil {
			writeUnauthorized(w)
			return
		}

		userID, err := b.Resolver.Resolve(r.Context(), claims.Username())
		if err != nil {
			if errors.Is(err, authenticator.ErrUnknownUser) {
				writeUnauthorized(w)
				return
			}
			log.Printf("resolving token subject: %v", err)
			writeDetail(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		id := identity.FromClaims(claims, userID).
			WithRequestID(RequestIDFromContext(r.Context())).
			WithRemoteIP(identity.ParseRemoteAddr(r.RemoteAddr))

		next.ServeHTTP(w, r.WithContext(identity.Set(r.Context(), id)))
	})
}

// bearerToken extracts the credentials of an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, credentials, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	credentials = strings.TrimSpace(credentials)
	if credentials == "" {
		return "", false
	}
	return credentials, true
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeDetail(w, http.StatusUnauthorized, "Unauthorized")
}

func writeDetail(w http.ResponseWriter, code int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
