package chanio

import (
	"bytes"
	"strings"
	"testing"
)

// fakeSerial is an io.ReadWriter recording every write and replying
// from a canned queue of responses, one per exchange.
type fakeSerial struct {
	writes    []string
	responses []string
	next      int
	readBuf   bytes.Buffer
}

func (f *fakeSerial) Write(p []byte) (int, error) {
	f.writes = append(f.writes, string(p))
	if f.next < len(f.responses) {
		f.readBuf.WriteString(f.responses[f.next] + "\r")
		f.next++
	}
	return len(p), nil
}

func (f *fakeSerial) Read(p []byte) (int, error) {
	return f.readBuf.Read(p)
}

func TestSerialBridgeDoubleRoundTrip(t *testing.T) {
	fake := &fakeSerial{responses: []string{"12.5"}}
	b := newSerialBridge(fake)

	ch := b.RegisterDouble("m1:posvalRb", 0)
	if got := ch.Get(); got != 12.5 {
		t.Fatalf("expected 12.5, got %v", got)
	}
	if len(fake.writes) != 1 || strings.TrimSpace(fake.writes[0]) != "m1:posvalRb?" {
		t.Fatalf("unexpected write: %v", fake.writes)
	}
}

func TestSerialBridgeStringSet(t *testing.T) {
	fake := &fakeSerial{responses: []string{"ok"}}
	b := newSerialBridge(fake)

	ch := b.RegisterString("seq:request")
	ch.Set("home")
	if len(fake.writes) != 1 || strings.TrimSpace(fake.writes[0]) != "seq:request=home" {
		t.Fatalf("unexpected write: %v", fake.writes)
	}
}

func TestSerialBridgeMarksDisconnectedOnWriteError(t *testing.T) {
	b := newSerialBridge(&alwaysFailWriter{})
	ch := b.RegisterDouble("m1:posvalRb", 0)
	if v := ch.Get(); v != 0 {
		t.Fatalf("expected 0 on failed exchange, got %v", v)
	}
	if ch.Connected() {
		t.Fatal("expected the bridge to report disconnected after a write error")
	}
}

type alwaysFailWriter struct{}

func (alwaysFailWriter) Write(p []byte) (int, error) { return 0, errWriteFailed }
func (alwaysFailWriter) Read(p []byte) (int, error)  { return 0, errWriteFailed }

var errWriteFailed = errFake("simulated serial write failure")

type errFake string

func (e errFake) Error() string { return string(e) }
