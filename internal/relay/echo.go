package relay

import (
	"io"
	"net/http"

	"github.com/relaymesh/echorelay/internal/logging"
	"go.uber.org/zap"
)

// echoCopyBufSize is the chunk size for streaming request bodies back out.
// Memory use per exchange stays constant regardless of body size.
const echoCopyBufSize = 32 * 1024

// framingHeaders are owned by the net/http transport on the response side.
// They describe the connection rather than the message, so they are not
// mirrored.
var framingHeaders = map[string]bool{
	"Connection":        true,
	"Content-Length":    true,
	"Transfer-Encoding": true,
	"Upgrade":           true,
	"Keep-Alive":        true,
}

// EchoHandler mirrors each plain HTTP request back as the response: status
// 200, the request's header set verbatim, and the body streamed through
// unbuffered. net/http replies with the request's protocol version, so the
// version is preserved as well.
type EchoHandler struct{}

func (EchoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	for name, values := range r.Header {
		if framingHeaders[name] {
			continue
		}
		h[name] = values
	}

	// Nothing beyond the request's own headers goes out: a nil entry stops
	// net/http from injecting Date and from sniffing a Content-Type.
	if _, ok := h["Date"]; !ok {
		h["Date"] = nil
	}
	if _, ok := h["Content-Type"]; !ok {
		h["Content-Type"] = nil
	}

	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	buf := make([]byte, echoCopyBufSize)
	for {
		n, rerr := r.Body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				logging.Warn("echo response write failed",
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(werr),
				)
				return
			}
			// Flush each chunk so round-trip latency tracks the network, not
			// the body size, and the client's read rate back-pressures the
			// request drain.
			if flusher != nil {
				flusher.Flush()
			}
		}
		if rerr != nil {
			if rerr != io.EOF {
				logging.Warn("echo request body read failed",
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(rerr),
				)
			}
			return
		}
	}
}
