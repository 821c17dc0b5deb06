package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// NewCredentials builds stored credentials from a session token. When the token
// is a JWT its subject and expiry are copied without verifying the signature;
// only the server can do that. Opaque tokens are accepted as-is.
func NewCredentials(token string) (*Credentials, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("token cannot be empty")
	}

	creds := &Credentials{Token: token, IssuedAt: time.Now()}
	if strings.Count(token, ".") != 2 {
		return creds, nil
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	creds.UserID = claims.Subject
	if claims.ExpiresAt != nil {
		creds.ExpiresAt = claims.ExpiresAt.Time
		if creds.IsExpired() {
			return nil, fmt.Errorf("token expired at %s", creds.ExpiresAt.Format(time.RFC3339))
		}
	}
	if claims.IssuedAt != nil {
		creds.IssuedAt = claims.IssuedAt.Time
	}
	return creds, nil
}
