package relay

import (
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// A text frame that is not valid UTF-8 is a protocol error: the session
// answers with close 1007 and ends, instead of tearing anything else down.
func TestInvalidUTF8TextFrameClosesWith1007(t *testing.T) {
	srv, tracker := newTestRelay(t, DispatcherConfig{})
	conn := dialWS(t, srv)
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte{0xff, 0xfe, 0xfd}); err != nil {
		t.Fatal(err)
	}

	_, _, err := conn.ReadMessage()
	closeErr, ok := err.(*websocket.CloseError)
	if !ok {
		t.Fatalf("read = %v, want a close error", err)
	}
	if closeErr.Code != websocket.CloseInvalidFramePayloadData {
		t.Errorf("close code = %d, want 1007", closeErr.Code)
	}

	tracker.waitRemoved(t, 1)
}

// A protocol error on one session leaves other connections untouched.
func TestProtocolErrorDoesNotAffectOtherSessions(t *testing.T) {
	srv, tracker := newTestRelay(t, DispatcherConfig{})

	healthy := dialWS(t, srv)
	defer healthy.Close()
	broken := dialWS(t, srv)
	defer broken.Close()

	if err := broken.WriteMessage(websocket.TextMessage, []byte{0xc0}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := broken.ReadMessage(); err == nil {
		t.Fatal("broken session should have closed")
	}
	tracker.waitRemoved(t, 1)

	if err := healthy.WriteMessage(websocket.TextMessage, []byte("still here")); err != nil {
		t.Fatal(err)
	}
	_, payload, err := healthy.ReadMessage()
	if err != nil {
		t.Fatalf("healthy session read: %v", err)
	}
	if string(payload) != "still here" {
		t.Errorf("payload = %q", payload)
	}
}

func TestPingAnsweredWithPong(t *testing.T) {
	srv, _ := newTestRelay(t, DispatcherConfig{})
	conn := dialWS(t, srv)
	defer conn.Close()

	pongs := make(chan string, 1)
	conn.SetPongHandler(func(appData string) error {
		select {
		case pongs <- appData:
		default:
		}
		return nil
	})

	if err := conn.WriteControl(websocket.PingMessage, []byte("heartbeat"), time.Now().Add(time.Second)); err != nil {
		t.Fatal(err)
	}
	// Pongs are delivered while a read is in flight; the echo read drives it.
	if err := conn.WriteMessage(websocket.TextMessage, []byte("after ping")); err != nil {
		t.Fatal(err)
	}
	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatal(err)
	}

	select {
	case data := <-pongs:
		if data != "heartbeat" {
			t.Errorf("pong payload = %q, want %q", data, "heartbeat")
		}
	default:
		t.Error("no pong received for ping")
	}
}

func TestIdleSessionClosedAfterReadDeadline(t *testing.T) {
	srv, tracker := newTestRelay(t, DispatcherConfig{ReadWait: 100 * time.Millisecond})
	conn := dialWS(t, srv)
	defer conn.Close()

	start := time.Now()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("idle session should have been closed by the relay")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("session closed after %v, deadline is 100ms", elapsed)
	}

	tracker.waitRemoved(t, 1)
}

// External Close (the drain path) ends the loop and still produces the
// closed event through the session's own exit path.
func TestExternalCloseEndsSession(t *testing.T) {
	srv, tracker := newTestRelay(t, DispatcherConfig{})
	conn := dialWS(t, srv)
	defer conn.Close()

	// Exchange one frame so the session is certainly registered.
	if err := conn.WriteMessage(websocket.TextMessage, []byte("x")); err != nil {
		t.Fatal(err)
	}
	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatal(err)
	}

	tracker.lastSession().Close()
	tracker.waitRemoved(t, 1)

	if tracker.lastSession().State() != StateClosed {
		t.Error("session not in Closed state after external close")
	}
}

func TestSessionEchoPreservesInterleavedTypes(t *testing.T) {
	srv, _ := newTestRelay(t, DispatcherConfig{})
	conn := dialWS(t, srv)
	defer conn.Close()

	sequence := []struct {
		msgType int
		payload string
	}{
		{websocket.TextMessage, "one"},
		{websocket.BinaryMessage, "\x00\x01two"},
		{websocket.TextMessage, "three"},
	}

	for i, step := range sequence {
		if err := conn.WriteMessage(step.msgType, []byte(step.payload)); err != nil {
			t.Fatal(err)
		}
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			t.Fatal(err)
		}
		if msgType != step.msgType {
			t.Errorf("step %d: type = %d, want %d", i, msgType, step.msgType)
		}
		if string(payload) != step.payload {
			t.Errorf("step %d: payload = %q, want %q", i, payload, step.payload)
		}
	}
}
