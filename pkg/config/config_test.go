package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Fatalf("default config should validate, got %v", errs)
	}
	if cfg.Reconnect.Enabled {
		t.Fatal("reconnect must be disabled by default")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "live.yaml")
	data := `
client:
  api_base_url: https://api.example.com/api/v1
  dial_timeout: 3s
reconnect:
  enabled: true
  max_attempts: 0
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Client.APIBaseURL != "https://api.example.com/api/v1" {
		t.Errorf("api_base_url not applied: %q", cfg.Client.APIBaseURL)
	}
	if cfg.Client.DialTimeout != 3*time.Second {
		t.Errorf("dial_timeout not applied: %v", cfg.Client.DialTimeout)
	}
	if cfg.Client.WSPathPrefix != "/ws/" {
		t.Errorf("default ws_path_prefix lost: %q", cfg.Client.WSPathPrefix)
	}
	if !cfg.Reconnect.Enabled || cfg.Reconnect.MaxAttempts != 0 {
		t.Errorf("reconnect not applied: %+v", cfg.Reconnect)
	}
	if cfg.Reconnect.InitialInterval != time.Second {
		t.Errorf("default initial_interval lost: %v", cfg.Reconnect.InitialInterval)
	}
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Fatalf("unexpected validation errors: %v", errs)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "live.yaml")
	if err := os.WriteFile(path, []byte("client:\n  api_url: x\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected unknown field error")
	}
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Client.APIBaseURL != DefaultConfig().Client.APIBaseURL {
		t.Error("expected defaults")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		wantPath string
	}{
		{"empty base url", func(c *Config) { c.Client.APIBaseURL = "" }, "client.api_base_url"},
		{"bad scheme", func(c *Config) { c.Client.APIBaseURL = "ftp://host/api" }, "client.api_base_url"},
		{"relative base url", func(c *Config) { c.Client.APIBaseURL = "/api/v1" }, "client.api_base_url"},
		{"ws prefix", func(c *Config) { c.Client.WSPathPrefix = "ws/" }, "client.ws_path_prefix"},
		{"dial timeout", func(c *Config) { c.Client.DialTimeout = 0 }, "client.dial_timeout"},
		{"negative ping", func(c *Config) { c.Client.PingInterval = -time.Second }, "client.ping_interval"},
		{"reconnect interval", func(c *Config) {
			c.Reconnect.Enabled = true
			c.Reconnect.InitialInterval = 0
		}, "reconnect.initial_interval"},
		{"reconnect max below initial", func(c *Config) {
			c.Reconnect.Enabled = true
			c.Reconnect.MaxInterval = time.Millisecond
		}, "reconnect.max_interval"},
		{"hub addr", func(c *Config) { c.Hub.ListenAddr = "8000" }, "hub.listen_addr"},
		{"hub buffer", func(c *Config) { c.Hub.SendBuffer = 0 }, "hub.send_buffer"},
		{"blank token", func(c *Config) { c.Hub.Tokens = []string{"ok", " "} }, "hub.tokens[1]"},
		{"short secret", func(c *Config) { c.Hub.JWTSecret = "abc" }, "hub.jwt_secret"},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			errs := cfg.Validate()
			if len(errs) == 0 {
				t.Fatalf("expected an error at %s", tt.wantPath)
			}
			found := false
			for _, err := range errs {
				if strings.HasPrefix(err.Error(), tt.wantPath+":") {
					found = true
				}
			}
			if !found {
				t.Errorf("no error at %s in %v", tt.wantPath, errs)
			}
		})
	}
}

func TestDisabledReconnectSkipsValidation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Reconnect.InitialInterval = 0
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Fatalf("disabled reconnect should not be validated: %v", errs)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	p, err := DefaultPath("live.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(filepath.Dir(p)) != ".rupaya" {
		t.Errorf("unexpected path %s", p)
	}
	abs := filepath.Join(t.TempDir(), "x.yaml")
	if p, _ := DefaultPath(abs); p != abs {
		t.Errorf("absolute path changed: %s", p)
	}
}
