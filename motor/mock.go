package motor

import "github.com/pkg/errors"

// Mock is an in-memory Controller used by sequencer/guardian/planner
// tests, grounded on the reference corpus's own device mocks
// (pi/mock.go, newport/mockXPS.go). It mimics a motor that reaches a
// commanded position instantly unless Moving is held true by the test.
type Mock struct {
	Name string

	Position  float64
	Commanded float64
	Enabled   bool
	Moving    bool
	Connected bool

	// HomeCalls/StopCalls/JogCalls count invocations for assertions.
	HomeCalls, StopCalls, JogCalls int
}

// NewMock returns an enabled, connected, stationary mock axis.
func NewMock(name string) *Mock {
	return &Mock{Name: name, Enabled: true, Connected: true}
}

func (m *Mock) disconnected() error {
	return errors.Wrapf(ErrDisconnected, "axis %s: mock disconnected", m.Name)
}

// ReadPosition implements Controller.
func (m *Mock) ReadPosition() (float64, error) {
	if !m.Connected {
		return 0, m.disconnected()
	}
	return m.Position, nil
}

// ReadCommanded implements Controller.
func (m *Mock) ReadCommanded() (float64, error) {
	if !m.Connected {
		return 0, m.disconnected()
	}
	return m.Commanded, nil
}

// SetPosition implements Controller. Unless a test holds Moving true,
// the mock "arrives" immediately.
func (m *Mock) SetPosition(mm float64) error {
	if !m.Connected {
		return m.disconnected()
	}
	if !m.Enabled {
		return errors.Wrapf(ErrDisabled, "axis %s: mock disabled", m.Name)
	}
	m.Commanded = mm
	if !m.Moving {
		m.Position = mm
	}
	return nil
}

// Jog implements Controller.
func (m *Mock) Jog(deltaMM float64) error {
	if !m.Connected {
		return m.disconnected()
	}
	m.JogCalls++
	m.Commanded += deltaMM
	if !m.Moving {
		m.Position += deltaMM
	}
	return nil
}

// Home implements Controller. It leaves Position untouched; tests
// drive the homed result by setting Position/Moving directly.
func (m *Mock) Home() error {
	if !m.Connected {
		return m.disconnected()
	}
	m.HomeCalls++
	return nil
}

// Stop implements Controller. It never fails, even when disconnected.
func (m *Mock) Stop() {
	m.StopCalls++
	m.Moving = false
}

// Enable implements Controller.
func (m *Mock) Enable() error {
	if !m.Connected {
		return m.disconnected()
	}
	m.Enabled = true
	return nil
}

// Disable implements Controller.
func (m *Mock) Disable() error {
	if !m.Connected {
		return m.disconnected()
	}
	m.Enabled = false
	return nil
}

// IsEnabled implements Controller.
func (m *Mock) IsEnabled() (bool, error) {
	if !m.Connected {
		return false, m.disconnected()
	}
	return m.Enabled, nil
}

// IsMoving implements Controller.
func (m *Mock) IsMoving() (bool, error) {
	if !m.Connected {
		return false, m.disconnected()
	}
	return m.Moving, nil
}

// ResetPosition implements Controller.
func (m *Mock) ResetPosition() error {
	if !m.Connected {
		return m.disconnected()
	}
	m.Commanded = m.Position
	return nil
}
