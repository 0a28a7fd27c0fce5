package relay

import (
	"context"
	"net"
	"sync/atomic"
	"time"
)

// ConnContext is the identity tuple for a single accepted connection. It is
// created before any handler runs, tags every log line emitted for that
// connection, and is never shared across connections.
type ConnContext struct {
	RemoteAddr string
	ID         uint64
	CreatedAt  time.Time
}

// ContextFactory hands out ConnContexts with monotonically increasing
// connection ids.
type ContextFactory struct {
	nextID atomic.Uint64
}

// NewContextFactory creates a factory whose first connection gets id 1.
func NewContextFactory() *ContextFactory {
	return &ContextFactory{}
}

// New creates the ConnContext for a freshly accepted connection.
func (f *ContextFactory) New(remoteAddr string) *ConnContext {
	return &ConnContext{
		RemoteAddr: remoteAddr,
		ID:         f.nextID.Add(1),
		CreatedAt:  time.Now(),
	}
}

type connContextKey struct{}

// Attach creates a ConnContext for conn and stores it in ctx. It has the
// signature expected by http.Server.ConnContext.
func (f *ContextFactory) Attach(ctx context.Context, conn net.Conn) context.Context {
	return context.WithValue(ctx, connContextKey{}, f.New(conn.RemoteAddr().String()))
}

// WithConnContext stores cc in ctx. Tests use this to exercise handlers
// without a real listener.
func WithConnContext(ctx context.Context, cc *ConnContext) context.Context {
	return context.WithValue(ctx, connContextKey{}, cc)
}

// FromContext recovers the connection's ConnContext. Requests that did not
// pass through the server wiring get a zero-id placeholder so logging call
// sites never deal with nil.
func FromContext(ctx context.Context) *ConnContext {
	if cc, ok := ctx.Value(connContextKey{}).(*ConnContext); ok {
		return cc
	}
	return &ConnContext{RemoteAddr: "unknown", CreatedAt: time.Now()}
}
