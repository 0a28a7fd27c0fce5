package relay

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LogStrategy is the capability object behind the HTTP-side logging
// middleware. One strategy is chosen at startup and shared by all
// connections; MakeContext opens a per-request observation scope tagged with
// the connection's identity.
//
// Strategies observe only. They must not buffer or mutate any payload.
type LogStrategy interface {
	MakeContext(cc *ConnContext, r *http.Request) RequestObserver
}

// RequestObserver receives the events of a single request/response exchange.
type RequestObserver interface {
	// OnRequest is called once, before the handler consumes the request.
	OnRequest(r *http.Request)
	// OnBodyChunk is called for every request body chunk as the handler
	// consumes it.
	OnBodyChunk(chunk []byte)
	// OnResponse is called once, after the handler returns.
	OnResponse(status int, header http.Header, latency time.Duration)
}

// ZapStrategy emits request/response events through a zap logger, gated by a
// verbosity level. Each exchange is additionally tagged with a request id so
// pipelined requests on one connection stay distinguishable.
type ZapStrategy struct {
	level LogLevel
	log   *zap.Logger
}

// NewZapStrategy creates the standard logging strategy.
func NewZapStrategy(level LogLevel, log *zap.Logger) *ZapStrategy {
	return &ZapStrategy{level: level, log: log}
}

// MakeContext binds the connection identity and a fresh request id into the
// observer's logger.
func (s *ZapStrategy) MakeContext(cc *ConnContext, r *http.Request) RequestObserver {
	return &zapObserver{
		level: s.level,
		log: s.log.With(
			zap.String("remote_addr", cc.RemoteAddr),
			zap.Uint64("conn_id", cc.ID),
			zap.String("request_id", uuid.New().String()),
		),
	}
}

type zapObserver struct {
	level LogLevel
	log   *zap.Logger
}

func (o *zapObserver) OnRequest(r *http.Request) {
	switch o.level {
	case LevelNone:
	case LevelURI:
		o.logRequestLine(r)
	case LevelURIHeaders, LevelURIHeadersBody:
		o.logRequestLine(r)
		o.logHeaders("request headers", r.Header)
	}
}

func (o *zapObserver) OnBodyChunk(chunk []byte) {
	switch o.level {
	case LevelNone, LevelURI, LevelURIHeaders:
	case LevelURIHeadersBody:
		o.log.Info("request body chunk",
			zap.Int("bytes", len(chunk)),
			zap.ByteString("chunk", chunk),
		)
	}
}

func (o *zapObserver) OnResponse(status int, header http.Header, latency time.Duration) {
	switch o.level {
	case LevelNone:
		return
	case LevelURI:
		o.logStatus(status)
	case LevelURIHeaders, LevelURIHeadersBody:
		o.logStatus(status)
		o.logHeaders("response headers", header)
	}
	o.log.Info("response latency", zap.Duration("latency", latency))
}

func (o *zapObserver) logRequestLine(r *http.Request) {
	o.log.Info("request",
		zap.String("method", r.Method),
		zap.String("target", r.RequestURI),
		zap.String("proto", r.Proto),
	)
}

func (o *zapObserver) logStatus(status int) {
	o.log.Info("response", zap.Int("status", status))
}

func (o *zapObserver) logHeaders(msg string, header http.Header) {
	fields := make([]zap.Field, 0, len(header))
	for name, values := range header {
		fields = append(fields, zap.Strings(name, values))
	}
	o.log.Info(msg, fields...)
}
