package chanio

// ResetVal is the sentinel written back to a destructively-read double
// channel once its value has been consumed, distinguishing "unset" from
// "set to zero" (spec §4.6).
const ResetVal = -999.9

// LatchedString wraps a StringChannel with destructive-read semantics:
// Read consumes the current value and resets the channel to empty, so a
// later tick without a new write observes "".
type LatchedString struct {
	ch StringChannel
}

// NewLatchedString wraps ch with destructive-read semantics.
func NewLatchedString(ch StringChannel) LatchedString {
	return LatchedString{ch: ch}
}

// Read returns the channel's value, clearing it if non-empty, and
// reports whether the channel is connected.
func (l LatchedString) Read() (string, bool) {
	if !l.ch.Connected() {
		return "", false
	}
	v := l.ch.Get()
	if v != "" {
		l.ch.Set("")
	}
	return v, true
}

// Peek returns the channel's current value without clearing it.
func (l LatchedString) Peek() string {
	return l.ch.Get()
}

// Write publishes a value without destructive-read semantics (used for
// readback channels).
func (l LatchedString) Write(v string) {
	l.ch.Set(v)
}

// LatchedDouble wraps a DoubleChannel with RESET_VAL sentinel semantics:
// Read consumes a set value and immediately writes the sentinel back, so
// a single write produces exactly one observed change (spec §8
// invariant 4).
type LatchedDouble struct {
	ch DoubleChannel
}

// NewLatchedDouble wraps ch with sentinel destructive-read semantics.
func NewLatchedDouble(ch DoubleChannel) LatchedDouble {
	return LatchedDouble{ch: ch}
}

// Read returns (value, true, connected) if the channel holds a
// non-sentinel value, latching the sentinel back in its place. It
// returns (0, false, connected) if the channel is at the sentinel.
func (l LatchedDouble) Read() (value float64, set bool, connected bool) {
	if !l.ch.Connected() {
		return 0, false, false
	}
	v := l.ch.Get()
	if v == ResetVal {
		return 0, false, true
	}
	l.ch.Set(ResetVal)
	return v, true, true
}

// Write publishes a value without destructive-read semantics (used for
// readback channels).
func (l LatchedDouble) Write(v float64) {
	l.ch.Set(v)
}
