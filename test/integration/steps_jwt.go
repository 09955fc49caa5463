package integration

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/doodlesbykumbi/keycustody/pkg/token"
)

func (s *StepsContext) iShouldReceiveAValidBearerTokenFor(username string) error {
	var out struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal(s.responseBody, &out); err != nil {
		return fmt.Errorf("invalid token response: %w", err)
	}
	if out.TokenType != "bearer" {
		return fmt.Errorf("expected token_type bearer, got %q", out.TokenType)
	}

	claims := jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(out.AccessToken, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(tokenSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		return fmt.Errorf("token does not verify: %w", err)
	}
	if claims.Subject != username {
		return fmt.Errorf("expected sub %q, got %q", username, claims.Subject)
	}
	if ttl := time.Until(claims.ExpiresAt.Time); ttl > 15*time.Minute || ttl < 14*time.Minute {
		return fmt.Errorf("unexpected token lifetime %s", ttl)
	}

	s.authToken = out.AccessToken
	s.username = username
	return nil
}

func (s *StepsContext) iUseAnExpiredTokenFor(username string) error {
	past := time.Now().Add(-time.Hour)
	issuer, err := token.NewIssuer(token.Config{Secret: []byte(tokenSecret)}, token.WithClock(func() time.Time { return past }))
	if err != nil {
		return err
	}
	s.authToken, err = issuer.Issue(username)
	return err
}

func (s *StepsContext) iUseATokenSignedWithAnotherSecret(username string) error {
	issuer, err := token.NewIssuer(token.Config{Secret: []byte("not-the-server-secret")})
	if err != nil {
		return err
	}
	s.authToken, err = issuer.Issue(username)
	return err
}

// iUseATamperedCopyOfMyToken swaps the payload of the current token and keeps
// the original signature.
func (s *StepsContext) iUseATamperedCopyOfMyToken(username string) error {
	parts := strings.Split(s.authToken, ".")
	if len(parts) != 3 {
		return fmt.Errorf("no token to tamper with")
	}
	payload, err := json.Marshal(map[string]interface{}{
		"sub": username,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		return err
	}
	parts[1] = base64.RawURLEncoding.EncodeToString(payload)
	s.authToken = strings.Join(parts, ".")
	return nil
}

func (s *StepsContext) iUseNoToken() error {
	s.authToken = ""
	return nil
}
