package hub

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rupaya/live/pkg/config"
	"github.com/rupaya/live/pkg/errors"
)

const testSecret = "0123456789abcdef-secret"

func signJWT(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.RegisteredClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func TestJWTVerifier(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))

	tests := []struct {
		name    string
		token   string
		subject string
	}{
		{
			name:    "valid",
			token:   signJWT(t, testSecret, jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "7", ExpiresAt: future}),
			subject: "7",
		},
		{
			name:  "wrong secret",
			token: signJWT(t, "another-secret-entirely", jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "7"}),
		},
		{
			name:  "wrong algorithm",
			token: signJWT(t, testSecret, jwt.SigningMethodHS512, jwt.RegisteredClaims{Subject: "7"}),
		},
		{
			name: "expired",
			token: signJWT(t, testSecret, jwt.SigningMethodHS256, jwt.RegisteredClaims{
				Subject:   "7",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			}),
		},
		{
			name:  "no subject",
			token: signJWT(t, testSecret, jwt.SigningMethodHS256, jwt.RegisteredClaims{ExpiresAt: future}),
		},
		{
			name:  "garbage",
			token: "not-a-jwt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, err := v.Verify(tt.token)
			if tt.subject == "" {
				if !errors.IsUnauthenticated(err) {
					t.Fatalf("expected unauthenticated, got %q, %v", subject, err)
				}
				return
			}
			if err != nil || subject != tt.subject {
				t.Fatalf("got %q, %v; want %q", subject, err, tt.subject)
			}
		})
	}
}

func TestStaticTokens(t *testing.T) {
	v := NewStaticTokens("a", " ", "b")
	if len(v) != 2 {
		t.Fatalf("blank token kept: %v", v)
	}
	if sub, err := v.Verify("a"); err != nil || sub != "a" {
		t.Fatalf("got %q, %v", sub, err)
	}
	for _, tok := range []string{"", "c"} {
		if _, err := v.Verify(tok); !errors.IsUnauthenticated(err) {
			t.Errorf("%q: expected unauthenticated, got %v", tok, err)
		}
	}
}

func TestNewVerifier(t *testing.T) {
	jwtTok := signJWT(t, testSecret, jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "9"})

	tests := []struct {
		name   string
		cfg    config.HubConfig
		accept []string
		reject []string
	}{
		{
			name:   "nothing configured accepts any token",
			cfg:    config.HubConfig{},
			accept: []string{"anything", jwtTok},
			reject: []string{""},
		},
		{
			name:   "static only",
			cfg:    config.HubConfig{Tokens: []string{"dev"}},
			accept: []string{"dev"},
			reject: []string{"", "other", jwtTok},
		},
		{
			name:   "jwt only",
			cfg:    config.HubConfig{JWTSecret: testSecret},
			accept: []string{jwtTok},
			reject: []string{"", "dev"},
		},
		{
			name:   "both",
			cfg:    config.HubConfig{JWTSecret: testSecret, Tokens: []string{"dev"}},
			accept: []string{jwtTok, "dev"},
			reject: []string{"", "other"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewVerifier(tt.cfg)
			for _, tok := range tt.accept {
				if _, err := v.Verify(tok); err != nil {
					t.Errorf("rejected %q: %v", tok, err)
				}
			}
			for _, tok := range tt.reject {
				if _, err := v.Verify(tok); err == nil {
					t.Errorf("accepted %q", tok)
				}
			}
		})
	}
}
