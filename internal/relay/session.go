package relay

import (
	"net"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"
	"github.com/relaymesh/echorelay/internal/logging"
	"go.uber.org/zap"
)

const (
	// writeWait bounds each echo or control frame write.
	writeWait = 10 * time.Second

	// defaultReadWait bounds the wait for the next frame. A peer that stays
	// silent longer than this has its session closed instead of holding the
	// goroutine forever.
	defaultReadWait = 60 * time.Second

	// maxMessageSize is the largest inbound frame the session accepts.
	maxMessageSize = 1 << 20
)

// SessionState is the lifecycle state of a streaming session.
type SessionState int32

const (
	// StateOpen is entered on successful handshake.
	StateOpen SessionState = iota
	// StateClosed is terminal; a session is never resurrected.
	StateClosed
)

// Session runs the read-echo-write loop over an upgraded connection. Each
// session lives in its own goroutine with a failure domain independent of the
// request handler that produced the handshake response.
type Session struct {
	conn     *websocket.Conn
	cc       *ConnContext
	logger   *SessionLogger
	metrics  *Metrics
	readWait time.Duration
	onClose  func(*Session)
	state    atomic.Int32
}

// NewSession wires up a session over a freshly upgraded connection. onClose
// may be nil; when set it runs exactly once, after the closed event.
func NewSession(conn *websocket.Conn, cc *ConnContext, logger *SessionLogger, metrics *Metrics, readWait time.Duration, onClose func(*Session)) *Session {
	if readWait <= 0 {
		readWait = defaultReadWait
	}
	s := &Session{
		conn:     conn,
		cc:       cc,
		logger:   logger,
		metrics:  metrics,
		readWait: readWait,
		onClose:  onClose,
	}
	s.state.Store(int32(StateOpen))
	return s
}

// ConnID returns the id of the connection this session runs on.
func (s *Session) ConnID() uint64 {
	return s.cc.ID
}

// State reports whether the session is still open.
func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

// Close tears the session down from outside the read loop, e.g. during
// server drain. The read loop observes the closed connection and exits
// through its normal path, so the closed event is still emitted exactly once.
func (s *Session) Close() {
	_ = s.conn.Close()
}

// Run drives the session until it closes. It must be called on its own
// goroutine; it blocks while waiting for the next frame.
func (s *Session) Run() {
	s.metrics.ActiveSessions.Inc()
	s.logger.Established()
	defer s.finish()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetPingHandler(func(appData string) error {
		logging.Debug("ping received, answering pong",
			zap.String("remote_addr", s.cc.RemoteAddr),
			zap.Uint64("conn_id", s.cc.ID),
		)
		err := s.conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
		if err == websocket.ErrCloseSent {
			return nil
		}
		return err
	})

	for {
		_ = s.conn.SetReadDeadline(time.Now().Add(s.readWait))
		messageType, payload, err := s.conn.ReadMessage()
		if err != nil {
			s.logReadEnd(err)
			return
		}

		start := time.Now()

		if messageType == websocket.TextMessage && !utf8.Valid(payload) {
			// Protocol error, not a crash: tell the peer why and close.
			logging.Warn("invalid UTF-8 in text frame",
				zap.String("remote_addr", s.cc.RemoteAddr),
				zap.Uint64("conn_id", s.cc.ID),
				zap.Int("bytes", len(payload)),
			)
			s.sendClose(websocket.CloseInvalidFramePayloadData, "invalid UTF-8 in text frame")
			return
		}

		s.logger.Frame(messageType, payload)

		_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := s.conn.WriteMessage(messageType, payload); err != nil {
			logging.Warn("echo frame write failed",
				zap.String("remote_addr", s.cc.RemoteAddr),
				zap.Uint64("conn_id", s.cc.ID),
				zap.Error(err),
			)
			return
		}

		elapsed := time.Since(start)
		s.logger.RoundTrip(elapsed)
		s.metrics.FramesEchoedTotal.WithLabelValues(opcodeName(messageType)).Inc()
		s.metrics.FrameRoundTrip.Observe(elapsed.Seconds())
	}
}

// finish transitions to Closed. Paired 1:1 with the established event emitted
// at the top of Run.
func (s *Session) finish() {
	s.state.Store(int32(StateClosed))
	_ = s.conn.Close()
	s.logger.Closed()
	s.metrics.ActiveSessions.Dec()
	if s.onClose != nil {
		s.onClose(s)
	}
}

// sendClose writes a close control frame with the given status code. Write
// errors are irrelevant here; the session is ending either way.
func (s *Session) sendClose(code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

func (s *Session) logReadEnd(err error) {
	fields := []zap.Field{
		zap.String("remote_addr", s.cc.RemoteAddr),
		zap.Uint64("conn_id", s.cc.ID),
		zap.Error(err),
	}
	switch {
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
		logging.Info("close frame received", fields...)
	case isTimeout(err):
		logging.Warn("session idle timeout", fields...)
	default:
		logging.Warn("frame read failed", fields...)
	}
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}

func opcodeName(messageType int) string {
	switch messageType {
	case websocket.TextMessage:
		return "text"
	case websocket.BinaryMessage:
		return "binary"
	default:
		return "other"
	}
}

// SessionLogger emits the streaming-side observation events. It is toggled
// independently of the HTTP-side verbosity tiers; when disabled every method
// is a no-op. All lines carry the connection's correlation fields.
type SessionLogger struct {
	enabled bool
	log     *zap.Logger
}

// NewSessionLogger binds the connection identity into a session logger.
func NewSessionLogger(enabled bool, base *zap.Logger, cc *ConnContext) *SessionLogger {
	return &SessionLogger{
		enabled: enabled,
		log: base.With(
			zap.String("remote_addr", cc.RemoteAddr),
			zap.Uint64("conn_id", cc.ID),
		),
	}
}

// Established marks entry to the Open state. Emitted exactly once per session.
func (l *SessionLogger) Established() {
	if !l.enabled {
		return
	}
	l.log.Info("session established")
}

// Frame logs one echoed frame's payload.
func (l *SessionLogger) Frame(messageType int, payload []byte) {
	if !l.enabled {
		return
	}
	switch messageType {
	case websocket.TextMessage:
		l.log.Info("frame",
			zap.String("opcode", "text"),
			zap.Int("bytes", len(payload)),
			zap.String("payload", logging.TextPreview(payload)),
		)
	default:
		l.log.Info("frame",
			zap.String("opcode", opcodeName(messageType)),
			zap.Int("bytes", len(payload)),
			zap.String("payload_hex", logging.HexPreview(payload)),
		)
	}
}

// RoundTrip logs one echoed frame's read-to-write duration.
func (l *SessionLogger) RoundTrip(d time.Duration) {
	if !l.enabled {
		return
	}
	l.log.Info("frame round trip", zap.Duration("duration", d))
}

// Closed marks entry to the Closed state. Emitted exactly once per session,
// always after Established.
func (l *SessionLogger) Closed() {
	if !l.enabled {
		return
	}
	l.log.Info("session closed")
}
