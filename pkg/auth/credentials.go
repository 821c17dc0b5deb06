package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rupaya/live/pkg/config"
)

// Credentials is the session token stored for one API base URL.
type Credentials struct {
	Token      string    `json:"token"`
	UserID     string    `json:"user_id,omitempty"`
	ExpiresAt  time.Time `json:"expires_at,omitempty"`
	IssuedAt   time.Time `json:"issued_at"`
	LastUsedAt time.Time `json:"last_used_at,omitempty"`
}

// CredentialStore manages credentials for multiple API servers
type CredentialStore struct {
	Servers map[string]*Credentials `json:"servers"`
	Version string                  `json:"version"`
}

// GetCredentialsPath returns the path to the credentials file
func GetCredentialsPath() (string, error) {
	dir, err := config.EnsureConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "credentials.json"), nil
}

func newStore() *CredentialStore {
	return &CredentialStore{
		Servers: make(map[string]*Credentials),
		Version: "1.0",
	}
}

// LoadCredentials loads credentials from ~/.rupaya/credentials.json
func LoadCredentials() (*CredentialStore, error) {
	credPath, err := GetCredentialsPath()
	if err != nil {
		return nil, err
	}

	// If file doesn't exist, return empty store
	data, err := os.ReadFile(credPath)
	if os.IsNotExist(err) {
		return newStore(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var store CredentialStore
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	if store.Servers == nil {
		store.Servers = make(map[string]*Credentials)
	}
	if store.Version == "" {
		store.Version = "1.0"
	}
	return &store, nil
}

// SaveCredentials saves credentials to ~/.rupaya/credentials.json
func (store *CredentialStore) SaveCredentials() error {
	credPath, err := GetCredentialsPath()
	if err != nil {
		return err
	}
	if store.Version == "" {
		store.Version = "1.0"
	}

	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	// Write with restricted permissions (readable only by owner)
	if err := os.WriteFile(credPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}

// Get returns unexpired credentials for apiURL.
func (store *CredentialStore) Get(apiURL string) (*Credentials, bool) {
	creds, exists := store.Servers[apiURL]
	if !exists || !creds.IsValid() {
		return nil, false
	}
	return creds, true
}

// Set stores credentials for apiURL.
func (store *CredentialStore) Set(apiURL string, creds *Credentials) {
	if store.Servers == nil {
		store.Servers = make(map[string]*Credentials)
	}
	creds.LastUsedAt = time.Now()
	store.Servers[apiURL] = creds
}

// Remove deletes the credentials for apiURL.
func (store *CredentialStore) Remove(apiURL string) {
	if store.Servers != nil {
		delete(store.Servers, apiURL)
	}
}

// IsExpired checks if credentials are expired
func (creds *Credentials) IsExpired() bool {
	if creds.ExpiresAt.IsZero() {
		return false // No expiration set
	}
	return time.Now().After(creds.ExpiresAt)
}

// IsValid checks if credentials are valid (not empty and not expired)
func (creds *Credentials) IsValid() bool {
	if creds == nil || creds.Token == "" {
		return false
	}
	return !creds.IsExpired()
}

// GetDefaultAPIURL returns the API base URL from the environment or the local default.
func GetDefaultAPIURL() string {
	if envURL := os.Getenv("RUPAYA_API_URL"); envURL != "" {
		return envURL
	}
	return "http://localhost:8000/api/v1"
}
