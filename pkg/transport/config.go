package transport

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config describes how channels reach the server.
type Config struct {
	// BaseURL is the HTTP API base; its scheme and host decide the socket origin.
	BaseURL string
	// PathPrefix is prepended to the channel key, e.g. "/ws/".
	PathPrefix   string
	DialTimeout  time.Duration
	PingInterval time.Duration // 0 disables keepalive pings
	WriteTimeout time.Duration
	ReadLimit    int64
	// CAFile is a PEM bundle trusted in addition to the system roots.
	CAFile string
	// Header is sent with every handshake.
	Header http.Header
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		BaseURL:      "http://localhost:8000/api/v1",
		PathPrefix:   "/ws/",
		DialTimeout:  10 * time.Second,
		PingInterval: 30 * time.Second,
		WriteTimeout: 10 * time.Second,
		ReadLimit:    1 << 20,
	}
}

// URLFor builds the socket URL for key authenticated with token. The scheme is
// wss when the API is served over https and ws otherwise.
func (c Config) URLFor(key, token string) (string, error) {
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", c.BaseURL, err)
	}
	if base.Host == "" {
		return "", fmt.Errorf("base URL %q has no host", c.BaseURL)
	}

	scheme := "ws"
	switch strings.ToLower(base.Scheme) {
	case "https", "wss":
		scheme = "wss"
	case "http", "ws", "":
	default:
		return "", fmt.Errorf("unsupported base URL scheme %q", base.Scheme)
	}

	prefix := c.PathPrefix
	if prefix == "" {
		prefix = "/ws/"
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	u := url.URL{
		Scheme:  scheme,
		Host:    base.Host,
		Path:    prefix + key,
		RawPath: prefix + url.PathEscape(key),
	}
	q := url.Values{}
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
