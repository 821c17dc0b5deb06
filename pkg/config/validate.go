package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ValidationError represents a single validation error with context.
type ValidationError struct {
	Path    string // e.g., "client.api_base_url"
	Message string // e.g., "must use http or https"
	Hint    string // e.g., "expected http://host:port/api/v1"
}

func (e ValidationError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s; %s", e.Path, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validate performs validation of the entire config.
// It aggregates all errors so the caller can print every issue at once.
func (c *Config) Validate() []error {
	var errs []error
	errs = append(errs, c.validateClient()...)
	errs = append(errs, c.validateReconnect()...)
	errs = append(errs, c.validateHub()...)
	errs = append(errs, c.validateLogging()...)
	return errs
}

func (c *Config) validateClient() []error {
	var errs []error
	cc := c.Client

	if cc.APIBaseURL == "" {
		errs = append(errs, ValidationError{
			Path:    "client.api_base_url",
			Message: "must not be empty",
		})
	} else if u, err := url.Parse(cc.APIBaseURL); err != nil || u.Host == "" {
		errs = append(errs, ValidationError{
			Path:    "client.api_base_url",
			Message: "invalid URL",
			Hint:    "expected http://host:port/api/v1",
		})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, ValidationError{
			Path:    "client.api_base_url",
			Message: fmt.Sprintf("unsupported scheme %q", u.Scheme),
			Hint:    "must use http or https",
		})
	}

	if !strings.HasPrefix(cc.WSPathPrefix, "/") {
		errs = append(errs, ValidationError{
			Path:    "client.ws_path_prefix",
			Message: "must start with /",
		})
	}
	if cc.DialTimeout <= 0 {
		errs = append(errs, ValidationError{
			Path:    "client.dial_timeout",
			Message: "must be positive",
		})
	}
	if cc.PingInterval < 0 {
		errs = append(errs, ValidationError{
			Path:    "client.ping_interval",
			Message: "must not be negative",
			Hint:    "use 0 to disable keepalive pings",
		})
	}
	if cc.WriteTimeout <= 0 {
		errs = append(errs, ValidationError{
			Path:    "client.write_timeout",
			Message: "must be positive",
		})
	}
	if cc.ReadLimit < 0 {
		errs = append(errs, ValidationError{
			Path:    "client.read_limit",
			Message: "must not be negative",
		})
	}
	return errs
}

func (c *Config) validateReconnect() []error {
	rc := c.Reconnect
	if !rc.Enabled {
		return nil
	}

	var errs []error
	if rc.InitialInterval <= 0 {
		errs = append(errs, ValidationError{
			Path:    "reconnect.initial_interval",
			Message: "must be positive when reconnect is enabled",
		})
	}
	if rc.MaxInterval < rc.InitialInterval {
		errs = append(errs, ValidationError{
			Path:    "reconnect.max_interval",
			Message: "must be >= initial_interval",
		})
	}
	if rc.MaxAttempts < 0 {
		errs = append(errs, ValidationError{
			Path:    "reconnect.max_attempts",
			Message: "must not be negative",
			Hint:    "use 0 for unlimited attempts",
		})
	}
	return errs
}

func (c *Config) validateHub() []error {
	var errs []error
	hc := c.Hub

	if hc.ListenAddr != "" {
		if _, _, err := net.SplitHostPort(hc.ListenAddr); err != nil {
			errs = append(errs, ValidationError{
				Path:    "hub.listen_addr",
				Message: "invalid address",
				Hint:    "expected host:port or :port",
			})
		}
	}
	if hc.SendBuffer <= 0 {
		errs = append(errs, ValidationError{
			Path:    "hub.send_buffer",
			Message: "must be positive",
		})
	}
	for i, tok := range hc.Tokens {
		if strings.TrimSpace(tok) == "" {
			errs = append(errs, ValidationError{
				Path:    fmt.Sprintf("hub.tokens[%d]", i),
				Message: "must not be blank",
			})
		}
	}
	if hc.JWTSecret != "" && len(hc.JWTSecret) < 16 {
		errs = append(errs, ValidationError{
			Path:    "hub.jwt_secret",
			Message: "too short",
			Hint:    "use at least 16 characters",
		})
	}
	return errs
}

func (c *Config) validateLogging() []error {
	var errs []error
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, ValidationError{
			Path:    "logging.level",
			Message: fmt.Sprintf("unknown level %q", c.Logging.Level),
			Hint:    "one of debug, info, warn, error",
		})
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "json":
	default:
		errs = append(errs, ValidationError{
			Path:    "logging.format",
			Message: fmt.Sprintf("unknown format %q", c.Logging.Format),
			Hint:    "one of console, json",
		})
	}
	return errs
}
