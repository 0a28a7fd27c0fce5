package config

import (
	"fmt"
	"os"

	"github.com/relaymesh/echorelay/internal/relay"
	"gopkg.in/yaml.v3"
)

// Config is the entire relay configuration file.
type Config struct {
	Server    Server    `yaml:"server"`
	Logging   Logging   `yaml:"logging"`
	Metrics   Metrics   `yaml:"metrics"`
	Discovery Discovery `yaml:"discovery"`
}

// Server holds the listener settings.
type Server struct {
	Host string `yaml:"host"` // empty = all interfaces
	Port int    `yaml:"port"`
	// IdleTimeout is the streaming-side read deadline in seconds. A peer
	// silent for longer than this has its session closed.
	IdleTimeout int `yaml:"idle_timeout"`
}

// Logging holds the observation settings for both relay paths plus the
// diagnostic stream.
type Logging struct {
	// Level is the diagnostic zap level (debug, info, warn, error).
	// Empty means silent.
	Level string `yaml:"level,omitempty"`
	// HTTP is the plain-path verbosity tier: none, uri, uri-headers,
	// uri-headers-body.
	HTTP string `yaml:"http"`
	// WebSocket toggles the streaming-side observation events.
	WebSocket bool `yaml:"websocket"`
}

// Metrics holds the optional Prometheus endpoint settings.
type Metrics struct {
	// Addr is the listen address for /metrics (e.g. "127.0.0.1:9091").
	// Empty disables the endpoint.
	Addr string `yaml:"addr,omitempty"`
}

// Discovery holds the optional mDNS announcement settings.
type Discovery struct {
	// Announce advertises the relay as a _ws._tcp service on the local
	// network.
	Announce bool `yaml:"announce"`
	// Instance is the advertised service instance name.
	Instance string `yaml:"instance,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: Server{
			Host:        "",
			Port:        8080,
			IdleTimeout: 60,
		},
		Logging: Logging{
			Level:     "info",
			HTTP:      "uri",
			WebSocket: true,
		},
		Discovery: Discovery{
			Instance: "echorelay",
		},
	}
}

// Load reads the YAML file at path over the defaults. A missing file is an
// error; callers that treat the file as optional check for it first.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Validate checks the config for values that cannot be acted on.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.IdleTimeout <= 0 {
		return fmt.Errorf("idle_timeout must be positive, got %d", c.Server.IdleTimeout)
	}
	if _, err := relay.ParseLogLevel(c.Logging.HTTP); err != nil {
		return err
	}
	if c.Discovery.Announce && c.Discovery.Instance == "" {
		return fmt.Errorf("discovery.instance must be set when announce is enabled")
	}
	return nil
}

// HTTPLogLevel returns the parsed plain-path verbosity tier. Call Validate
// first; an invalid tier falls back to none here.
func (c *Config) HTTPLogLevel() relay.LogLevel {
	level, err := relay.ParseLogLevel(c.Logging.HTTP)
	if err != nil {
		return relay.LevelNone
	}
	return level
}
