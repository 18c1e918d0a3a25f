// Package chanio models the scalar, latched publish/subscribe channel
// fabric that the PCU core is built against. The real channel-access
// messaging layer is an external collaborator (see spec §1); this
// package supplies only the contract the sequencer, guardian, and motor
// facade need, plus an in-memory implementation used for development,
// simulation, and tests.
package chanio

import "errors"

// ErrDisconnected is returned by a channel operation when the remote
// endpoint is unreachable. It is the channel-layer analogue of an EPICS
// PV failing to connect.
var ErrDisconnected = errors.New("chanio: channel disconnected")

// StringChannel is a single scalar string channel: an externally
// published command/status endpoint.
type StringChannel interface {
	// Connected reports whether the channel's endpoint currently responds.
	Connected() bool
	// Get reads the current value.
	Get() string
	// Set publishes a new value.
	Set(string)
}

// DoubleChannel is a single scalar floating point channel.
type DoubleChannel interface {
	Connected() bool
	Get() float64
	Set(float64)
}

// Registry creates and looks up named channels. It is passed into each
// state machine and motor facade at construction, rather than shared as
// a process-wide singleton (see spec §9's note on the singleton channel
// registry).
type Registry interface {
	// RegisterString returns the named string channel, creating it with
	// an empty initial value if it does not already exist.
	RegisterString(name string) StringChannel

	// RegisterDouble returns the named double channel, creating it with
	// the given initial value if it does not already exist.
	RegisterDouble(name string, initial float64) DoubleChannel
}
