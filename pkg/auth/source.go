package auth

import (
	"os"
	"strings"

	"github.com/rupaya/live/pkg/errors"
	"github.com/rupaya/live/pkg/pubsub"
)

// TokenEnvVar names the environment variable read by EnvSource.
const TokenEnvVar = "RUPAYA_TOKEN"

var (
	_ pubsub.CredentialSource = StaticSource("")
	_ pubsub.CredentialSource = EnvSource{}
	_ pubsub.CredentialSource = (*StoreSource)(nil)
	_ pubsub.CredentialSource = ChainSource(nil)
)

// StaticSource always returns the same token.
type StaticSource string

func (s StaticSource) Credential() (string, error) {
	token := strings.TrimSpace(string(s))
	if token == "" {
		return "", errors.NewUnauthenticatedError("static token", nil)
	}
	return token, nil
}

// EnvSource reads the token from an environment variable, TokenEnvVar by default.
type EnvSource struct {
	Var string
}

func (s EnvSource) Credential() (string, error) {
	name := s.Var
	if name == "" {
		name = TokenEnvVar
	}
	token := strings.TrimSpace(os.Getenv(name))
	if token == "" {
		return "", errors.NewUnauthenticatedError(name, nil)
	}
	return token, nil
}

// StoreSource reads the token saved for APIURL in the credentials file. The
// file is read on every call so a later login is picked up.
type StoreSource struct {
	APIURL string
}

func (s *StoreSource) Credential() (string, error) {
	store, err := LoadCredentials()
	if err != nil {
		return "", errors.NewUnauthenticatedError("credentials file", err)
	}
	creds, ok := store.Get(s.APIURL)
	if !ok {
		return "", errors.NewUnauthenticatedError("credentials file", nil)
	}
	return creds.Token, nil
}

// ChainSource returns the first credential any of its sources can provide.
type ChainSource []pubsub.CredentialSource

func (c ChainSource) Credential() (string, error) {
	var lastErr error
	for _, src := range c {
		if src == nil {
			continue
		}
		token, err := src.Credential()
		if err == nil && token != "" {
			return token, nil
		}
		lastErr = err
	}
	if lastErr == nil || !errors.IsUnauthenticated(lastErr) {
		return "", errors.NewUnauthenticatedError("", lastErr)
	}
	return "", lastErr
}
