package config

import (
	"fmt"
	"os"
	"time"
)

// Config represents the full configuration of the live client and the push hub
type Config struct {
	Client    ClientConfig    `yaml:"client"`
	Reconnect ReconnectConfig `yaml:"reconnect"`
	Hub       HubConfig       `yaml:"hub"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ClientConfig controls how channels to the push endpoint are opened
type ClientConfig struct {
	APIBaseURL   string        `yaml:"api_base_url"`   // REST base URL; the websocket host is derived from it
	WSPathPrefix string        `yaml:"ws_path_prefix"` // default: /ws/
	DialTimeout  time.Duration `yaml:"dial_timeout"`   // default: 10s
	PingInterval time.Duration `yaml:"ping_interval"`  // 0 disables keepalive pings
	WriteTimeout time.Duration `yaml:"write_timeout"`  // default: 10s
	ReadLimit    int64         `yaml:"read_limit"`     // max inbound frame size in bytes
	CAFile       string        `yaml:"ca_file"`        // extra PEM roots trusted for wss
}

// ReconnectConfig controls reopening of channels closed by the transport while
// listeners are still registered. Disabled by default.
type ReconnectConfig struct {
	Enabled         bool          `yaml:"enabled"`
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
	MaxAttempts     int           `yaml:"max_attempts"` // 0 means unlimited
}

// HubConfig contains settings for the development push hub
type HubConfig struct {
	ListenAddr   string        `yaml:"listen_addr"`
	SendBuffer   int           `yaml:"send_buffer"`   // per-connection outbound queue length
	PingInterval time.Duration `yaml:"ping_interval"` // server keepalive pings
	Tokens       []string      `yaml:"tokens"`        // accepted opaque tokens
	JWTSecret    string        `yaml:"jwt_secret"`    // HS256 secret; tokens must carry a subject
	// With neither Tokens nor JWTSecret set, any non-empty token is accepted.
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level"`       // debug, info, warn, error
	Format     string `yaml:"format"`      // json, console
	OutputFile string `yaml:"output_file"` // Empty for stdout
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Client: ClientConfig{
			APIBaseURL:   "http://localhost:8000/api/v1",
			WSPathPrefix: "/ws/",
			DialTimeout:  10 * time.Second,
			PingInterval: 30 * time.Second,
			WriteTimeout: 10 * time.Second,
			ReadLimit:    1 << 20,
		},
		Reconnect: ReconnectConfig{
			Enabled:         false,
			InitialInterval: time.Second,
			MaxInterval:     30 * time.Second,
			MaxAttempts:     5,
		},
		Hub: HubConfig{
			ListenAddr:   ":8000",
			SendBuffer:   64,
			PingInterval: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a YAML file on top of the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to open config %s: %w", path, err)
	}
	defer f.Close()

	if err := DecodeStrict(f, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
