package hub

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rupaya/live/pkg/config"
	"github.com/rupaya/live/pkg/errors"
)

// TokenVerifier checks a subscriber token and returns the subject it names.
type TokenVerifier interface {
	Verify(token string) (subject string, err error)
}

// VerifierFunc adapts a function to TokenVerifier.
type VerifierFunc func(token string) (string, error)

func (f VerifierFunc) Verify(token string) (string, error) { return f(token) }

// AnyToken accepts every non-empty token. The token itself is the subject.
var AnyToken = VerifierFunc(func(token string) (string, error) {
	if token == "" {
		return "", errors.NewUnauthenticatedError("token", nil)
	}
	return token, nil
})

// StaticTokens accepts a fixed set of opaque tokens.
type StaticTokens map[string]struct{}

// NewStaticTokens builds a StaticTokens set, ignoring blank entries.
func NewStaticTokens(tokens ...string) StaticTokens {
	s := make(StaticTokens, len(tokens))
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			s[t] = struct{}{}
		}
	}
	return s
}

func (s StaticTokens) Verify(token string) (string, error) {
	if _, ok := s[token]; !ok || token == "" {
		return "", errors.NewUnauthenticatedError("token", nil)
	}
	return token, nil
}

// JWTVerifier accepts HS256 tokens signed with a shared secret that carry a
// subject claim.
type JWTVerifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewJWTVerifier creates a verifier for secret.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

func (v *JWTVerifier) Verify(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := v.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return "", errors.NewUnauthenticatedError("token", err)
	}
	if claims.Subject == "" {
		return "", errors.NewUnauthenticatedError("token", fmt.Errorf("token has no subject"))
	}
	return claims.Subject, nil
}

// verifierChain accepts a token if any verifier does.
type verifierChain []TokenVerifier

func (c verifierChain) Verify(token string) (string, error) {
	var lastErr error
	for _, v := range c {
		subject, err := v.Verify(token)
		if err == nil {
			return subject, nil
		}
		lastErr = err
	}
	return "", lastErr
}

// NewVerifier picks the verifier described by cfg: the JWT secret and the
// static tokens are both accepted when both are set, and any non-empty token is
// accepted when neither is.
func NewVerifier(cfg config.HubConfig) TokenVerifier {
	var chain verifierChain
	if cfg.JWTSecret != "" {
		chain = append(chain, NewJWTVerifier(cfg.JWTSecret))
	}
	if static := NewStaticTokens(cfg.Tokens...); len(static) > 0 {
		chain = append(chain, static)
	}
	switch len(chain) {
	case 0:
		return AnyToken
	case 1:
		return chain[0]
	default:
		return chain
	}
}
