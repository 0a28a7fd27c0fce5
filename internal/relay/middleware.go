package relay

import (
	"bufio"
	"errors"
	"io"
	"net"
	"net/http"
	"time"
)

// WithHTTPLogging wraps next so every exchange is reported to the strategy.
// The wrapper observes only: the request body passes through untouched and
// the response writer is transparent to hijacking, which the upgrade
// handshake depends on.
func WithHTTPLogging(strategy LogStrategy, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		obs := strategy.MakeContext(FromContext(r.Context()), r)
		obs.OnRequest(r)

		r.Body = &observedBody{body: r.Body, obs: obs}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		start := time.Now()
		next.ServeHTTP(rec, r)
		obs.OnResponse(rec.status, rec.Header(), time.Since(start))
	})
}

// observedBody reports each chunk to the observer as the handler consumes it.
type observedBody struct {
	body io.ReadCloser
	obs  RequestObserver
}

func (b *observedBody) Read(p []byte) (int, error) {
	n, err := b.body.Read(p)
	if n > 0 {
		b.obs.OnBodyChunk(p[:n])
	}
	return n, err
}

func (b *observedBody) Close() error {
	return b.body.Close()
}

// statusRecorder captures the response status for the observer while
// delegating everything else, including Flush and Hijack, to the real writer.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(p)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack hands the raw connection to the upgrade handshake. The 101 is
// written directly to the hijacked connection, so record it here.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	conn, rw, err := hj.Hijack()
	if err == nil {
		r.status = http.StatusSwitchingProtocols
		r.wroteHeader = true
	}
	return conn, rw, err
}
