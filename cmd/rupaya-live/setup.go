package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/rupaya/live/pkg/auth"
	"github.com/rupaya/live/pkg/config"
	"github.com/rupaya/live/pkg/logging"
	"github.com/rupaya/live/pkg/pubsub"
	"github.com/rupaya/live/pkg/transport"
)

// commonFlags are accepted by every command that talks to the API.
type commonFlags struct {
	configPath string
	apiURL     string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "Path to a YAML config file")
	fs.StringVar(&c.apiURL, "api", "", "API base URL")
}

// load reads the config file and resolves the API URL.
// Priority: flag > $RUPAYA_API_URL > file > default.
func (c *commonFlags) load() (*config.Config, error) {
	path := c.configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath("live.yaml"); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if c.apiURL != "" {
		cfg.Client.APIBaseURL = c.apiURL
	} else if env := os.Getenv("RUPAYA_API_URL"); env != "" {
		cfg.Client.APIBaseURL = env
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func transportConfig(cfg *config.Config) transport.Config {
	return transport.Config{
		BaseURL:      cfg.Client.APIBaseURL,
		PathPrefix:   cfg.Client.WSPathPrefix,
		DialTimeout:  cfg.Client.DialTimeout,
		PingInterval: cfg.Client.PingInterval,
		WriteTimeout: cfg.Client.WriteTimeout,
		ReadLimit:    cfg.Client.ReadLimit,
		CAFile:       cfg.Client.CAFile,
	}
}

func reconnectPolicy(cfg *config.Config) pubsub.ReconnectPolicy {
	return pubsub.ReconnectPolicy{
		Enabled:         cfg.Reconnect.Enabled,
		InitialInterval: cfg.Reconnect.InitialInterval,
		MaxInterval:     cfg.Reconnect.MaxInterval,
		MaxAttempts:     cfg.Reconnect.MaxAttempts,
	}
}

// credentialSource prefers an explicit token, then the environment, then the
// credentials file.
func credentialSource(token, apiURL string) pubsub.CredentialSource {
	chain := auth.ChainSource{auth.EnvSource{}, &auth.StoreSource{APIURL: apiURL}}
	if token != "" {
		chain = append(auth.ChainSource{auth.StaticSource(token)}, chain...)
	}
	return chain
}

func newLogger(cfg *config.Config) (*logging.ColoredLogger, error) {
	return logging.NewFromOptions(logging.Options{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		OutputFile:   cfg.Logging.OutputFile,
		EnableColors: true,
	})
}
