// Package motor implements the per-axis operation layer over the
// external channel fabric (spec §4.1). It is the only place the core
// touches the motor device's channel-quartet naming convention (spec
// §6.2).
package motor

// Controller is the per-axis contract both the sequencer and the
// collision guardian consume. Every operation except Stop may fail with
// a cause of ErrDisconnected; SetPosition may additionally fail with a
// cause of ErrDisabled.
type Controller interface {
	// ReadPosition returns the current position in millimeters.
	ReadPosition() (float64, error)

	// ReadCommanded returns the last commanded position in millimeters.
	ReadCommanded() (float64, error)

	// SetPosition issues a move to an absolute position and latches a "go".
	SetPosition(mm float64) error

	// Jog issues a relative nudge.
	Jog(deltaMM float64) error

	// Home begins axis homing. It has no completion semantics; the
	// caller must separately poll IsMoving to confirm homing started.
	Home() error

	// Stop immediately halts motion. It must not check connectivity, so
	// it is callable from exception/fault paths.
	Stop()

	// Enable engages torque and the software enable.
	Enable() error

	// Disable disengages torque and the software enable.
	Disable() error

	// IsEnabled reports whether the axis is currently enabled.
	IsEnabled() (bool, error)

	// IsMoving reports whether the axis is currently in motion.
	IsMoving() (bool, error)

	// ResetPosition re-latches the commanded value to the current
	// position, canceling any queued target. Used by the guardian to
	// defuse a commanded move that would otherwise re-trigger once
	// motors are re-enabled.
	ResetPosition() error
}

// Set is a named collection of per-axis controllers, keyed by the axis
// identifiers in position.Axes.
type Set map[string]Controller

// EnableAll enables every motor in the set, returning the first error
// encountered (if any) after attempting all of them.
func (s Set) EnableAll() error {
	var first error
	for _, m := range s {
		if err := m.Enable(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// DisableAll disables every motor in the set, returning the first error
// encountered (if any) after attempting all of them.
func (s Set) DisableAll() error {
	var first error
	for _, m := range s {
		if err := m.Disable(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// StopAll stops every motor in the set. Stop never fails.
func (s Set) StopAll() {
	for _, m := range s {
		m.Stop()
	}
}

// AnyEnabled reports whether at least one motor in the set is enabled.
// Disconnected axes are treated as not-enabled rather than aborting the
// scan, matching the guardian's "motors_enabled" sweep in §4.5.
func (s Set) AnyEnabled() bool {
	for _, m := range s {
		if en, err := m.IsEnabled(); err == nil && en {
			return true
		}
	}
	return false
}
