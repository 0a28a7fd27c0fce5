package logging

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitializeSilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")
	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if GetLogger() == nil {
		t.Fatal("GetLogger() returned nil")
	}
	// Nop logger: no panic, no output expected.
	Info("should go nowhere")
}

func TestInitializeLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		if err := Initialize(level); err != nil {
			t.Errorf("Initialize(%q) error = %v", level, err)
		}
	}
	// Unknown levels fall back instead of failing startup.
	if err := Initialize("chatty"); err != nil {
		t.Errorf("Initialize with unknown level error = %v", err)
	}
	SetLogger(zap.NewNop())
}

func TestLogConnectionFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	SetLogger(zap.New(core))
	defer SetLogger(zap.NewNop())

	LogConnection("10.0.0.9:1234", 3, "accepted")

	entries := logs.AllUntimed()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["remote_addr"] != "10.0.0.9:1234" {
		t.Errorf("remote_addr = %v", fields["remote_addr"])
	}
	if fields["conn_id"] != uint64(3) {
		t.Errorf("conn_id = %v", fields["conn_id"])
	}
	if fields["event"] != "accepted" {
		t.Errorf("event = %v", fields["event"])
	}
}

func TestTextPreview(t *testing.T) {
	if got := TextPreview(nil); got != "" {
		t.Errorf("TextPreview(nil) = %q", got)
	}
	if got := TextPreview([]byte("plain")); got != "plain" {
		t.Errorf("TextPreview = %q", got)
	}
	if got := TextPreview([]byte{'a', 0x00, 'b'}); got != "a.b" {
		t.Errorf("non-printable bytes: %q", got)
	}

	long := bytes.Repeat([]byte("x"), 300)
	got := TextPreview(long)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("long preview not truncated: %d chars", len(got))
	}
	if len(got) != 256+3 {
		t.Errorf("truncated length = %d, want 259", len(got))
	}
}

func TestHexPreview(t *testing.T) {
	if got := HexPreview(nil); got != "" {
		t.Errorf("HexPreview(nil) = %q", got)
	}
	if got := HexPreview([]byte{0xde, 0xad}); got != "dead" {
		t.Errorf("HexPreview = %q", got)
	}

	long := bytes.Repeat([]byte{0xab}, 300)
	got := HexPreview(long)
	if !strings.HasSuffix(got, "...") {
		t.Error("long hex preview not truncated")
	}
	if len(got) != 512+3 {
		t.Errorf("truncated length = %d, want 515", len(got))
	}
}
