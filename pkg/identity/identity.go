package identity

import (
	"context"
	"net"
	"time"

	"github.com/doodlesbykumbi/keycustody/pkg/token"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// Key is the context key for Identity.
	Key ContextKey = "identity"
)

// Identity is the authenticated caller of a protected request.
type Identity struct {
	// Resolved from the token subject on this request
	UserID   int64
	Username string

	// Token claims
	IssuedAt  time.Time
	ExpiresAt time.Time

	// Request context
	RequestID string
	RemoteIP  net.IP
}

// FromClaims creates an Identity for the verified claims and the user id the
// subject resolved to.
func FromClaims(claims *token.Claims, userID int64) *Identity {
	id := &Identity{
		UserID:   userID,
		Username: claims.Username(),
	}
	if claims.IssuedAt != nil {
		id.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id
}

// WithRequestID sets the request id.
func (i *Identity) WithRequestID(requestID string) *Identity {
	i.RequestID = requestID
	return i
}

// WithRemoteIP sets the remote IP address.
func (i *Identity) WithRemoteIP(ip net.IP) *Identity {
	i.RemoteIP = ip
	return i
}

// ClientIP returns the remote IP as a string, or "" when unknown.
func (i *Identity) ClientIP() string {
	if i.RemoteIP == nil {
		return ""
	}
	return i.RemoteIP.String()
}

// ParseRemoteAddr extracts the IP from an http.Request RemoteAddr.
func ParseRemoteAddr(remoteAddr string) net.IP {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	return net.ParseIP(host)
}

// Get retrieves Identity from context.
func Get(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(Key).(*Identity)
	return id, ok
}

// Set stores Identity in context.
func Set(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, Key, id)
}
