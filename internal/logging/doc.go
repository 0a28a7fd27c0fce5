// Package logging provides structured logging for the echo relay.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the relay. It covers the diagnostic log stream
// only; the per-connection request/frame observation tiers live in the relay
// package and drive their output through the logger configured here.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed protocol info (ping/pong, handshake headers)
//   - Info: Normal operations (connections, sessions, shutdown)
//   - Warn: Non-fatal issues (frame write failures, handshake rejections)
//   - Error: Fatal issues (startup failures, listener errors)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Session established",
//	    zap.String("remote_addr", "192.168.1.100:53412"),
//	    zap.Uint64("conn_id", 7),
//	)
//
// # Configuration
//
// Initialize logging at startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// When no level is configured (flag or ECHORELAY_LOG_LEVEL), the package
// installs a nop logger and produces no output.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap
// logger handles synchronization automatically.
package logging
