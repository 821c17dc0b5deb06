package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rupaya/live/pkg/auth"
	"github.com/rupaya/live/pkg/events"
	"github.com/rupaya/live/pkg/logging"
)

func TestEventPrinter_JSON(t *testing.T) {
	var buf bytes.Buffer
	p := newEventPrinter(&buf, true, logging.NewNop())

	msg, err := events.Decode("g1", []byte(`{"type":"NEW_BILL","description":"Dinner"}`))
	if err != nil {
		t.Fatal(err)
	}
	p.handle(msg)

	var line struct {
		Group string         `json:"group"`
		Event map[string]any `json:"event"`
	}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not JSON: %q", buf.String())
	}
	if line.Group != "g1" || line.Event["description"] != "Dinner" {
		t.Errorf("unexpected line %+v", line)
	}
}

func TestEventPrinter_Text(t *testing.T) {
	var buf bytes.Buffer
	p := newEventPrinter(&buf, false, logging.NewNop())

	for _, frame := range []string{
		`{"type":"NEW_BILL","description":"Dinner"}`,
		`{"type":"MEMBER_JOINED","name":"Ravi"}`,
	} {
		msg, err := events.Decode("g1", []byte(frame))
		if err != nil {
			t.Fatal(err)
		}
		p.handle(msg)
	}

	want := "[g1] NEW_BILL (balances changed)\n[g1] MEMBER_JOINED\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestCredentialSource_Order(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(auth.TokenEnvVar, "from-env")

	tok, err := credentialSource("explicit", "http://api").Credential()
	if err != nil || tok != "explicit" {
		t.Fatalf("got %q, %v", tok, err)
	}
	tok, err = credentialSource("", "http://api").Credential()
	if err != nil || tok != "from-env" {
		t.Fatalf("got %q, %v", tok, err)
	}

	t.Setenv(auth.TokenEnvVar, "")
	if _, err := credentialSource("", "http://api").Credential(); err == nil {
		t.Fatal("expected an error with no credential anywhere")
	}
}

func TestCommonFlags_Load(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "live.yaml")
	yaml := "client:\n  api_base_url: https://file.example/api/v1\nreconnect:\n  enabled: true\n"
	if err := os.WriteFile(path, []byte(yaml), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("RUPAYA_API_URL", "")
	c := commonFlags{configPath: path}
	cfg, err := c.load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Client.APIBaseURL != "https://file.example/api/v1" {
		t.Errorf("file value lost: %s", cfg.Client.APIBaseURL)
	}
	if !reconnectPolicy(cfg).Enabled {
		t.Error("reconnect policy not carried over")
	}
	tc := transportConfig(cfg)
	if u, _ := tc.URLFor("g1", "t"); u != "wss://file.example/ws/g1?token=t" {
		t.Errorf("unexpected socket URL %s", u)
	}

	t.Setenv("RUPAYA_API_URL", "http://env.example:8000/api/v1")
	cfg, err = c.load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Client.APIBaseURL != "http://env.example:8000/api/v1" {
		t.Errorf("env should override file: %s", cfg.Client.APIBaseURL)
	}

	c.apiURL = "http://flag.example/api/v1"
	cfg, err = c.load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Client.APIBaseURL != "http://flag.example/api/v1" {
		t.Errorf("flag should override env: %s", cfg.Client.APIBaseURL)
	}
}
