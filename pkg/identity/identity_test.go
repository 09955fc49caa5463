package identity

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doodlesbykumbi/keycustody/pkg/token"
)

func TestFromClaims(t *testing.T) {
	iat := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	claims := &token.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(iat.Add(15 * time.Minute)),
		},
	}

	id := FromClaims(claims, 42)
	assert.Equal(t, int64(42), id.UserID)
	assert.Equal(t, "alice", id.Username)
	assert.True(t, iat.Equal(id.IssuedAt))
	assert.True(t, iat.Add(15*time.Minute).Equal(id.ExpiresAt))

	t.Run("missing timestamps", func(t *testing.T) {
		id := FromClaims(&token.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "bob"}}, 1)
		assert.True(t, id.IssuedAt.IsZero())
		assert.True(t, id.ExpiresAt.IsZero())
	})
}

func TestIdentity_WithMethods(t *testing.T) {
	id := &Identity{UserID: 1, Username: "alice"}
	assert.Equal(t, "", id.ClientIP())

	ip := net.ParseIP("192.168.1.100")
	id.WithRequestID("req-123").WithRemoteIP(ip)

	assert.Equal(t, "req-123", id.RequestID)
	assert.Equal(t, ip, id.RemoteIP)
	assert.Equal(t, "192.168.1.100", id.ClientIP())
}

func TestParseRemoteAddr(t *testing.T) {
	tests := []struct {
		name     string
		addr     string
		expected string
	}{
		{name: "ipv4 with port", addr: "10.0.0.1:54321", expected: "10.0.0.1"},
		{name: "ipv6 with port", addr: "[::1]:8080", expected: "::1"},
		{name: "bare ip", addr: "10.0.0.2", expected: "10.0.0.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ip := ParseRemoteAddr(tt.addr)
			require.NotNil(t, ip)
			assert.Equal(t, tt.expected, ip.String())
		})
	}

	assert.Nil(t, ParseRemoteAddr("not-an-ip"))
}

func TestContextGetSet(t *testing.T) {
	ctx := context.Background()

	id, ok := Get(ctx)
	assert.False(t, ok)
	assert.Nil(t, id)

	expected := &Identity{UserID: 5, Username: "alice"}
	ctx = Set(ctx, expected)

	id, ok = Get(ctx)
	assert.True(t, ok)
	require.NotNil(t, id)
	assert.Equal(t, expected.UserID, id.UserID)
	assert.Equal(t, expected.Username, id.Username)
}
