// Echorelay is an HTTP/WebSocket echo relay.
//
// It accepts inbound HTTP connections, mirrors plain requests back
// byte-identically, and echoes every frame of upgraded WebSocket connections
// with identical opcode and payload. A verbosity-tiered logging layer
// observes both paths.
//
// Usage:
//
//	echorelay serve [flags]
//
// See 'echorelay serve --help' for available options.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/relaymesh/echorelay/internal/config"
	"github.com/relaymesh/echorelay/internal/server"
	"github.com/relaymesh/echorelay/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "echorelay",
	Short: "HTTP/WebSocket echo relay",
	Long: `A connection-handling relay that echoes everything back to the caller.

Plain HTTP requests are mirrored byte-identically: status 200, the request's
own protocol version, header set and body. WebSocket upgrade requests are
negotiated and every Text/Binary frame on the upgraded connection is echoed
with identical opcode and payload until the peer closes.

Both paths are observed by a configurable logging layer that never alters
their behavior.`,
	Version: version.Version,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Serve command and flags
var (
	configPath  string
	host        string
	port        int
	logLevel    string
	httpLog     string
	wsLog       bool
	idleTimeout int
	metricsAddr string
	announce    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the echo relay",
	Long: `Start the echo relay and accept connections until interrupted.

Settings come from an optional YAML config file; every value can be
overridden with a flag. The relay shuts down gracefully on SIGINT/SIGTERM,
draining in-flight exchanges and open streaming sessions.`,
	Example: `  # Start with defaults (port 8080, request-line logging)
  echorelay serve

  # Log full headers and body chunks on the HTTP path
  echorelay serve --http-log uri-headers-body --log-level debug

  # Load a config file, override the port, expose Prometheus metrics
  echorelay serve --config relay.yaml --port 9000 --metrics-addr 127.0.0.1:9091

  # Advertise the relay on the local network over mDNS
  echorelay serve --announce`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "", "Path to YAML config file (optional)")
	serveCmd.Flags().StringVar(&host, "host", "", "Listen host (empty = all interfaces)")
	serveCmd.Flags().IntVar(&port, "port", 8080, "Listen port")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "info", "Diagnostic log level (debug, info, warn, error)")
	serveCmd.Flags().StringVar(&httpLog, "http-log", "uri", "HTTP observation tier (none, uri, uri-headers, uri-headers-body)")
	serveCmd.Flags().BoolVar(&wsLog, "ws-log", true, "Log streaming frames and round-trip durations")
	serveCmd.Flags().IntVar(&idleTimeout, "idle-timeout", 60, "Seconds without a frame before a streaming session closes")
	serveCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Listen address for Prometheus /metrics (disabled if not specified)")
	serveCmd.Flags().BoolVar(&announce, "announce", false, "Advertise the relay over mDNS")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	// Flags the user set explicitly win over the config file.
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Server.Host = host
	}
	if flags.Changed("port") {
		cfg.Server.Port = port
	}
	if flags.Changed("idle-timeout") {
		cfg.Server.IdleTimeout = idleTimeout
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if flags.Changed("http-log") {
		cfg.Logging.HTTP = httpLog
	}
	if flags.Changed("ws-log") {
		cfg.Logging.WebSocket = wsLog
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = metricsAddr
	}
	if flags.Changed("announce") {
		cfg.Discovery.Announce = announce
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	srv, err := server.New(&server.Config{
		Host:             cfg.Server.Host,
		Port:             cfg.Server.Port,
		LogLevel:         cfg.Logging.Level,
		HTTPLogLevel:     cfg.HTTPLogLevel(),
		WSLogging:        cfg.Logging.WebSocket,
		IdleTimeout:      time.Duration(cfg.Server.IdleTimeout) * time.Second,
		MetricsAddr:      cfg.Metrics.Addr,
		Announce:         cfg.Discovery.Announce,
		AnnounceInstance: cfg.Discovery.Instance,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("echorelay %s (commit: %s)\n", version.Version, version.Commit)
	},
}
