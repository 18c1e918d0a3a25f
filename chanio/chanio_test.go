package chanio

import "testing"

func TestLatchedDoubleSentinelIdempotence(t *testing.T) {
	reg := NewMemRegistry()
	raw := reg.RegisterDouble("m1Offset", ResetVal)
	l := NewLatchedDouble(raw)

	if _, set, _ := l.Read(); set {
		t.Fatal("expected no value before any write")
	}

	raw.Set(5.0)
	v, set, connected := l.Read()
	if !connected || !set || v != 5.0 {
		t.Fatalf("got (%v, %v, %v), want (5, true, true)", v, set, connected)
	}

	// Subsequent reads without a further write must produce nothing.
	if _, set, _ := l.Read(); set {
		t.Fatal("expected sentinel to suppress repeat reads")
	}
}

func TestLatchedStringDestructiveRead(t *testing.T) {
	reg := NewMemRegistry()
	raw := reg.RegisterString("request")
	l := NewLatchedString(raw)

	raw.Set("home")
	v, connected := l.Read()
	if !connected || v != "home" {
		t.Fatalf("got (%q, %v), want (home, true)", v, connected)
	}
	v2, _ := l.Read()
	if v2 != "" {
		t.Fatalf("expected destructive read to clear value, got %q", v2)
	}
}

func TestDisconnected(t *testing.T) {
	reg := NewMemRegistry()
	raw := reg.RegisterDouble("m1PosRb", 0).(*MemDoubleChannel)
	l := NewLatchedDouble(raw)
	raw.Disconnect()
	if _, _, connected := l.Read(); connected {
		t.Fatal("expected disconnected channel to report unconnected")
	}
	raw.Reconnect()
	if _, _, connected := l.Read(); !connected {
		t.Fatal("expected reconnected channel to report connected")
	}
}
