package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/relaymesh/echorelay/internal/logging"
	"github.com/relaymesh/echorelay/internal/relay"
	"go.uber.org/zap"
)

// shutdownTimeout bounds the graceful drain of HTTP exchanges and streaming
// sessions.
const shutdownTimeout = 10 * time.Second

// Config holds the server configuration
type Config struct {
	Host             string
	Port             int
	LogLevel         string         // diagnostic zap level; empty = silent
	HTTPLogLevel     relay.LogLevel // plain-path verbosity tier
	WSLogging        bool           // streaming-side observation toggle
	IdleTimeout      time.Duration  // streaming read deadline
	MetricsAddr      string         // empty disables the /metrics endpoint
	Announce         bool           // advertise the relay over mDNS
	AnnounceInstance string
}

// Server wires the relay core to a TCP listener: per-connection correlation
// contexts, the logging middleware, the dispatcher, a session registry for
// drain, and the optional metrics and mDNS side-cars.
type Server struct {
	config        *Config
	listener      net.Listener
	httpServer    *http.Server
	metricsServer *http.Server
	registry      *Registry
	metrics       *relay.Metrics
	announcer     *Announcer
}

// New creates a new Server instance
func New(config *Config) (*Server, error) {
	// Initialize logging
	if err := logging.Initialize(config.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	promReg := prometheus.NewRegistry()
	metrics := relay.NewMetrics(promReg)
	registry := NewRegistry()
	factory := relay.NewContextFactory()

	dispatcher := relay.NewDispatcher(relay.DispatcherConfig{
		WSLogging: config.WSLogging,
		ReadWait:  config.IdleTimeout,
		Logger:    logging.GetLogger(),
		Metrics:   metrics,
		Tracker:   registry,
	})
	handler := relay.WithHTTPLogging(
		relay.NewZapStrategy(config.HTTPLogLevel, logging.GetLogger()),
		dispatcher,
	)

	s := &Server{
		config:   config,
		registry: registry,
		metrics:  metrics,
	}
	s.httpServer = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// The correlation context exists before any handler runs.
		ConnContext: func(ctx context.Context, conn net.Conn) context.Context {
			metrics.ConnectionsTotal.Inc()
			return factory.Attach(ctx, conn)
		},
	}

	if config.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
		s.metricsServer = &http.Server{
			Addr:              config.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	return s, nil
}

// Start starts the server and blocks until shutdown
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener

	logging.Info("Echo relay listening",
		zap.String("addr", listener.Addr().String()),
		zap.String("http_log", s.config.HTTPLogLevel.String()),
		zap.Bool("ws_log", s.config.WSLogging),
		zap.Duration("idle_timeout", s.config.IdleTimeout),
	)

	if s.config.Announce {
		announcer, err := Announce(s.config.AnnounceInstance, s.config.Port)
		if err != nil {
			logging.Warn("mDNS announcement failed", zap.Error(err))
		} else {
			s.announcer = announcer
			logging.Info("Announcing relay over mDNS",
				zap.String("instance", s.config.AnnounceInstance),
				zap.String("service", ServiceType),
			)
		}
	}

	if s.metricsServer != nil {
		go func() {
			logging.Info("Metrics endpoint listening", zap.String("addr", s.config.MetricsAddr))
			if err := s.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics endpoint failed", zap.Error(err))
			}
		}()
	}

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
			return
		}
		errChan <- nil
	}()

	// Wait for shutdown signal or listener error
	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping relay...")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(ctx)
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully shuts down the relay: stop accepting, drain plain HTTP
// exchanges, then close and drain streaming sessions. Hijacked connections
// are invisible to http.Server.Shutdown, so sessions drain via the registry.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.announcer != nil {
		s.announcer.Shutdown()
	}
	if s.metricsServer != nil {
		_ = s.metricsServer.Close()
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		logging.Warn("HTTP shutdown did not complete cleanly", zap.Error(err))
	}

	if n := s.registry.Len(); n > 0 {
		logging.Info("Closing live streaming sessions", zap.Int("count", n))
	}
	s.registry.CloseAll()
	if s.registry.Wait(shutdownTimeout) {
		logging.Info("All sessions drained")
	} else {
		logging.Warn("Session drain timeout, forcing close")
	}

	logging.Sync()
	return nil
}

// ActiveSessions returns the number of live streaming sessions.
func (s *Server) ActiveSessions() int {
	return s.registry.Len()
}
