package motor

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"

	"github.jpl.nasa.gov/keck/aopcu/chanio"
)

// Channels is the fixed channel quartet for one axis (spec §6.2). It is
// built once at process start by enumerating the configured motors; no
// runtime metaprogramming is used to synthesize it (spec §9).
type Channels struct {
	PosValRb chanio.DoubleChannel // R: current position
	PosVal   chanio.DoubleChannel // W: commanded absolute position
	Halt     chanio.DoubleChannel // W: trigger, halts motion immediately
	Jog      chanio.DoubleChannel // W: relative nudge
	Go       chanio.DoubleChannel // W: trigger, latches a commanded move
	Enable   chanio.DoubleChannel // W: 0 enables software, 1 disables (inverted, see note)
	EnableRb chanio.DoubleChannel // R: readback of Enable
	Torque   chanio.DoubleChannel // W: 1 enables torque, 0 disables
	Moving   chanio.DoubleChannel // R: nonzero while the axis is in motion
	Home     chanio.DoubleChannel // W: trigger, begins homing
}

// NewChannels registers the channel quartet for axis m_name under the
// given per-axis device prefix (spec §6.2), e.g.
// "k1:ao:pcu:ln:m1:posvalRb".
func NewChannels(reg chanio.Registry, prefix string) Channels {
	return Channels{
		PosValRb: reg.RegisterDouble(prefix+":posvalRb", 0),
		PosVal:   reg.RegisterDouble(prefix+":posval", 0),
		Halt:     reg.RegisterDouble(prefix+":halt", 0),
		Jog:      reg.RegisterDouble(prefix+":jog", 0),
		Go:       reg.RegisterDouble(prefix+":go", 0),
		Enable:   reg.RegisterDouble(prefix+":enable", 1),
		EnableRb: reg.RegisterDouble(prefix+":enableRb", 1),
		Torque:   reg.RegisterDouble(prefix+":torque", 0),
		Moving:   reg.RegisterDouble(prefix+":moving", 0),
		Home:     reg.RegisterDouble(prefix+":home", 0),
	}
}

func (c Channels) all() []chanio.DoubleChannel {
	return []chanio.DoubleChannel{
		c.PosValRb, c.PosVal, c.Halt, c.Jog, c.Go,
		c.Enable, c.EnableRb, c.Torque, c.Moving, c.Home,
	}
}

// Axis is the Controller implementation that speaks to a real (or
// simulated) axis through its channel quartet.
type Axis struct {
	Name    string
	Chans   Channels
	Backoff backoff.BackOff
}

// NewAxis returns an Axis bound to reg under the conventional device
// prefix base:m_type:m_name (spec §6.2), with a bounded exponential
// backoff governing how long a disconnected channel is retried before
// ErrDisconnected is raised (spec §5's "disconnect timeout").
func NewAxis(reg chanio.Registry, name, devicePrefix string) *Axis {
	prefix := fmt.Sprintf("%s:%s", devicePrefix, name)
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 10 * time.Millisecond
	bo.MaxInterval = 200 * time.Millisecond
	bo.MaxElapsedTime = 500 * time.Millisecond
	return &Axis{
		Name:    name,
		Chans:   NewChannels(reg, prefix),
		Backoff: bo,
	}
}

func (a *Axis) checkConnected() error {
	connected := func() bool {
		for _, ch := range a.Chans.all() {
			if !ch.Connected() {
				return false
			}
		}
		return true
	}
	if connected() {
		return nil
	}
	a.Backoff.Reset()
	op := func() error {
		if connected() {
			return nil
		}
		return chanio.ErrDisconnected
	}
	if err := backoff.Retry(op, a.Backoff); err != nil {
		return errors.Wrapf(ErrDisconnected, "axis %s: channel endpoint unreachable", a.Name)
	}
	return nil
}

// ReadPosition implements Controller.
func (a *Axis) ReadPosition() (float64, error) {
	if err := a.checkConnected(); err != nil {
		return 0, err
	}
	return a.Chans.PosValRb.Get(), nil
}

// ReadCommanded implements Controller.
func (a *Axis) ReadCommanded() (float64, error) {
	if err := a.checkConnected(); err != nil {
		return 0, err
	}
	return a.Chans.PosVal.Get(), nil
}

// SetPosition implements Controller.
func (a *Axis) SetPosition(mm float64) error {
	if err := a.checkConnected(); err != nil {
		return err
	}
	enabled, err := a.IsEnabled()
	if err != nil {
		return err
	}
	if !enabled {
		return errors.Wrapf(ErrDisabled, "axis %s: not enabled", a.Name)
	}
	a.Chans.PosVal.Set(mm)
	a.Chans.Go.Set(1)
	return nil
}

// Jog implements Controller.
func (a *Axis) Jog(deltaMM float64) error {
	if err := a.checkConnected(); err != nil {
		return err
	}
	a.Chans.Jog.Set(deltaMM)
	return nil
}

// Home implements Controller.
func (a *Axis) Home() error {
	if err := a.checkConnected(); err != nil {
		return err
	}
	a.Chans.Home.Set(1)
	return nil
}

// Stop implements Controller. It deliberately does not call
// checkConnected: it must remain callable from a fault/exception path
// even when the axis is believed disconnected (spec §4.1).
func (a *Axis) Stop() {
	a.Chans.Halt.Set(1)
}

// Enable implements Controller. The software-enable channel is
// inverted: writing 0 enables it (see IsEnabled).
func (a *Axis) Enable() error {
	if err := a.checkConnected(); err != nil {
		return err
	}
	a.Chans.Enable.Set(0)
	a.Chans.Torque.Set(1)
	return nil
}

// Disable implements Controller.
func (a *Axis) Disable() error {
	if err := a.checkConnected(); err != nil {
		return err
	}
	a.Chans.Torque.Set(0)
	a.Chans.Enable.Set(1)
	return nil
}

// IsEnabled implements Controller. The enable-readback channel is
// inverted relative to its name: a value of 0 means enabled.
func (a *Axis) IsEnabled() (bool, error) {
	if err := a.checkConnected(); err != nil {
		return false, err
	}
	return a.Chans.EnableRb.Get() == 0, nil
}

// IsMoving implements Controller.
func (a *Axis) IsMoving() (bool, error) {
	if err := a.checkConnected(); err != nil {
		return false, err
	}
	return a.Chans.Moving.Get() != 0, nil
}

// ResetPosition implements Controller.
func (a *Axis) ResetPosition() error {
	if err := a.checkConnected(); err != nil {
		return err
	}
	cur := a.Chans.PosValRb.Get()
	a.Chans.PosVal.Set(cur)
	return nil
}
