package relay

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/relaymesh/echorelay/internal/logging"
	"go.uber.org/zap"
)

// SessionTracker observes session lifecycles. The server installs one to keep
// a registry of live sessions for graceful drain; it may be nil.
type SessionTracker interface {
	Add(*Session)
	Remove(*Session)
}

// DispatcherConfig carries the per-connection configuration the dispatcher
// hands to its handlers. Everything here is resolved before any handler runs
// and immutable afterwards.
type DispatcherConfig struct {
	// WSLogging toggles the streaming-side observation events.
	WSLogging bool
	// ReadWait bounds the wait for the next streaming frame; zero means the
	// default.
	ReadWait time.Duration
	// Logger is the base for session observation lines. Defaults to the
	// package logger.
	Logger *zap.Logger
	// Metrics receives counters for both paths. A private registry is used
	// when nil, which is what tests want.
	Metrics *Metrics
	// Tracker, when set, is told about every session start and end.
	Tracker SessionTracker
}

// Dispatcher routes each inbound request: plain HTTP requests go to the echo
// handler, upgrade requests go through the handshake and, on success, hand
// the connection to a streaming session on its own goroutine. Exactly one
// response is produced per request on every branch.
type Dispatcher struct {
	upgrader  websocket.Upgrader
	echo      EchoHandler
	wsLogging bool
	readWait  time.Duration
	logger    *zap.Logger
	metrics   *Metrics
	tracker   SessionTracker
}

// NewDispatcher builds the dispatcher for one server instance.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.GetLogger()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewMetrics(prometheus.NewRegistry())
	}
	return &Dispatcher{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The relay echoes for any origin.
			CheckOrigin: func(*http.Request) bool { return true },
			// A failed negotiation answers with the failure description as
			// the body, not the bare status text.
			Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
				http.Error(w, reason.Error(), status)
			},
		},
		wsLogging: cfg.WSLogging,
		readWait:  cfg.ReadWait,
		logger:    logger,
		metrics:   metrics,
		tracker:   cfg.Tracker,
	}
}

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Requests without the Connection/Upgrade negotiation pair are plain
	// HTTP, never a handshake failure.
	if !websocket.IsWebSocketUpgrade(r) {
		d.metrics.RequestsTotal.WithLabelValues("http").Inc()
		d.echo.ServeHTTP(w, r)
		return
	}

	cc := FromContext(r.Context())
	conn, err := d.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader's Error hook has already written the 400. No session
		// exists; the connection stays usable for plain HTTP traffic.
		d.metrics.RequestsTotal.WithLabelValues("upgrade_failed").Inc()
		d.metrics.HandshakeFailures.Inc()
		logging.Warn("websocket handshake failed",
			zap.String("remote_addr", cc.RemoteAddr),
			zap.Uint64("conn_id", cc.ID),
			zap.Error(err),
		)
		return
	}

	d.metrics.RequestsTotal.WithLabelValues("upgrade").Inc()
	sess := NewSession(conn, cc, NewSessionLogger(d.wsLogging, d.logger, cc), d.metrics, d.readWait, d.sessionClosed)
	if d.tracker != nil {
		d.tracker.Add(sess)
	}

	// The 101 has been written; from here the session's lifetime and failure
	// domain are decoupled from this handler, which returns immediately.
	go sess.Run()
}

func (d *Dispatcher) sessionClosed(s *Session) {
	if d.tracker != nil {
		d.tracker.Remove(s)
	}
}
