package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/relaymesh/echorelay/internal/relay"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default() should validate, got %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.HTTPLogLevel() != relay.LevelURI {
		t.Errorf("default http log level = %v, want uri", cfg.HTTPLogLevel())
	}
	if !cfg.Logging.WebSocket {
		t.Error("streaming logging should default to enabled")
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.yaml")
	data := []byte(`
server:
  port: 9000
logging:
  http: uri-headers-body
  websocket: false
metrics:
  addr: 127.0.0.1:9091
discovery:
  announce: true
  instance: test-relay
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	// Values the file does not mention keep their defaults.
	if cfg.Server.IdleTimeout != 60 {
		t.Errorf("idle_timeout = %d, want default 60", cfg.Server.IdleTimeout)
	}
	if cfg.HTTPLogLevel() != relay.LevelURIHeadersBody {
		t.Errorf("http log level = %v, want uri-headers-body", cfg.HTTPLogLevel())
	}
	if cfg.Logging.WebSocket {
		t.Error("websocket logging should be disabled by the file")
	}
	if cfg.Metrics.Addr != "127.0.0.1:9091" {
		t.Errorf("metrics addr = %q", cfg.Metrics.Addr)
	}
	if !cfg.Discovery.Announce || cfg.Discovery.Instance != "test-relay" {
		t.Errorf("discovery = %+v", cfg.Discovery)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load() should fail for a missing file")
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [not a mapping"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load() should fail for malformed YAML")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"negative idle timeout", func(c *Config) { c.Server.IdleTimeout = -1 }},
		{"unknown http tier", func(c *Config) { c.Logging.HTTP = "everything" }},
		{"announce without instance", func(c *Config) {
			c.Discovery.Announce = true
			c.Discovery.Instance = ""
		}},
	}

	for _, tc := range cases {
		cfg := Default()
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: Validate() should fail", tc.name)
		}
	}
}

func TestHTTPLogLevelFallsBackToNone(t *testing.T) {
	cfg := Default()
	cfg.Logging.HTTP = "garbage"
	if got := cfg.HTTPLogLevel(); got != relay.LevelNone {
		t.Errorf("HTTPLogLevel() = %v, want none", got)
	}
}
