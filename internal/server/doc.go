// Package server wires the relay core to the network.
//
// It owns everything the core treats as an external collaborator: the TCP
// listener, the http.Server accept loop, per-connection correlation context
// installation, signal handling, and graceful shutdown. It also runs the two
// optional side-cars: a Prometheus /metrics listener and an mDNS service
// announcement.
//
// # Connection lifecycle
//
//  1. http.Server accepts a connection; ConnContext mints the correlation
//     context (client address, monotonic connection id, creation time).
//  2. Each request on the connection flows through the logging middleware
//     into the dispatcher.
//  3. Upgraded connections become streaming sessions tracked in a Registry
//     keyed by connection id.
//
// # Graceful Shutdown
//
// The server handles SIGINT and SIGTERM:
//
//  1. Stop accepting new connections and drain in-flight HTTP exchanges
//     (http.Server.Shutdown).
//  2. Close every live streaming session via the registry; hijacked
//     connections are not covered by http.Server.Shutdown.
//  3. Wait for the session loops to exit, with a bounded timeout.
//
// # Usage Example
//
//	srv, err := server.New(&server.Config{
//	    Port:         8080,
//	    LogLevel:     "info",
//	    HTTPLogLevel: relay.LevelURI,
//	    WSLogging:    true,
//	    IdleTimeout:  60 * time.Second,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Start blocks until shutdown signal or error
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
package server
