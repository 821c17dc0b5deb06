package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/rupaya/live/pkg/config"
	"github.com/rupaya/live/pkg/logging"
)

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// parseHubConfig loads the config file and applies flags and environment
// variables on top. Priority: flags > env > file > defaults.
func parseHubConfig(args []string) (*config.Config, error) {
	fs := flag.NewFlagSet("rupaya-hub", flag.ContinueOnError)
	cfgPath := fs.String("config", getEnvDefault("RUPAYA_HUB_CONFIG", ""), "Path to a YAML config file")
	addr := fs.String("addr", os.Getenv("RUPAYA_HUB_ADDR"), "HTTP listen address (e.g., :8000)")
	secret := fs.String("jwt-secret", os.Getenv("RUPAYA_HUB_JWT_SECRET"), "HS256 secret used to verify subscriber tokens")
	tokens := fs.String("tokens", os.Getenv("RUPAYA_HUB_TOKENS"), "Comma-separated list of accepted opaque tokens")
	level := fs.String("log-level", os.Getenv("RUPAYA_LOG_LEVEL"), "Log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return nil, err
	}
	if *addr != "" {
		cfg.Hub.ListenAddr = *addr
	}
	if *secret != "" {
		cfg.Hub.JWTSecret = *secret
	}
	if list := splitList(*tokens); len(list) > 0 {
		cfg.Hub.Tokens = list
	}
	if *level != "" {
		cfg.Logging.Level = *level
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		var b strings.Builder
		b.WriteString("invalid configuration:")
		for _, e := range errs {
			b.WriteString("\n  - ")
			b.WriteString(e.Error())
		}
		return nil, fmt.Errorf("%s", b.String())
	}
	return cfg, nil
}

func logConfig(logger *logging.ColoredLogger, cfg *config.Config) {
	mode := "any non-empty token"
	switch {
	case cfg.Hub.JWTSecret != "" && len(cfg.Hub.Tokens) > 0:
		mode = "jwt + static tokens"
	case cfg.Hub.JWTSecret != "":
		mode = "jwt"
	case len(cfg.Hub.Tokens) > 0:
		mode = "static tokens"
	}
	logger.ComponentInfo(logging.ComponentGeneral, "Loaded hub configuration",
		zap.String("addr", cfg.Hub.ListenAddr),
		zap.Int("send_buffer", cfg.Hub.SendBuffer),
		zap.Duration("ping_interval", cfg.Hub.PingInterval),
		zap.String("auth", mode),
	)
}
