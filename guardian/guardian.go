// Package guardian implements the collision guardian state machine
// (spec §4.5): an independent tick-driven loop that validates current
// and commanded motor positions against the geometric admissibility
// predicates and halts/disables motors on violation, enforcing a
// restricted recovery mode afterward.
package guardian

import (
	"time"

	"github.jpl.nasa.gov/keck/aopcu/catalog"
	"github.jpl.nasa.gov/keck/aopcu/logging"
	"github.jpl.nasa.gov/keck/aopcu/motor"
	"github.jpl.nasa.gov/keck/aopcu/position"
)

// State is one of the guardian's seven states.
type State string

// The guardian's states.
const (
	Init       State = "INIT"
	Monitoring State = "MONITORING"
	Stopped    State = "STOPPED"
	Restricted State = "RESTRICTED"
	Disabled   State = "DISABLED"
	Fault      State = "FAULT"
	Terminate  State = "TERMINATE"
)

// Op is a monotone direction constraint on one axis's commanded value
// relative to its current value.
type Op int

// The two directions an axis may be allowed to move in RESTRICTED.
const (
	LE Op = iota // commanded must be <= current (retract/move down)
	GE           // commanded must be >= current (move up)
)

func (o Op) holds(newVal, previous float64) bool {
	if o == LE {
		return newVal <= previous
	}
	return newVal >= previous
}

// Requester is the command-ingest surface: a destructive-read string
// channel (spec §4.6).
type Requester interface {
	Read() (string, bool)
}

// Channels is the guardian's published external surface (spec §4.5,
// §6.1): `collisions:stst` and `collisions:request`.
type Channels struct {
	Stst    StringWriter
	Request Requester
}

// StringWriter is the minimal surface the guardian needs to publish a
// readback string.
type StringWriter interface {
	Set(string)
}

// Guardian is the collision guardian state machine. Construct with New
// and drive it with Step once per tick; it shares no memory with any
// sequencer instance.
type Guardian struct {
	Chans  Channels
	Motors motor.Set
	Store  *catalog.Store
	Log    *logging.Logger

	state   State
	allowed map[position.Axis]Op
	latch   logging.Latch

	// restrictedAdvisory suppresses repeats of the "send reinit" nudge
	// below while the position stays valid and no direction
	// restriction remains; it is reset on every fresh entry into
	// RESTRICTED so the advisory can fire again next time.
	restrictedAdvisory logging.Latch

	// previousCommanded is the last-observed commanded position, used
	// as the basis for the RESTRICTED monotonicity check.
	previousCommanded position.Position
}

// New returns a Guardian in INIT.
func New(motors motor.Set, store *catalog.Store, chans Channels, log *logging.Logger) *Guardian {
	return &Guardian{
		Chans:  chans,
		Motors: motors,
		Store:  store,
		Log:    log,
		state:  Init,
	}
}

// State returns the guardian's current state.
func (g *Guardian) State() State {
	return g.state
}

// Allowed returns a copy of the current allowed-direction map (for
// inspection/testing); it is recomputed from scratch every tick while
// in RESTRICTED and is empty in every other state.
func (g *Guardian) Allowed() map[position.Axis]Op {
	out := make(map[position.Axis]Op, len(g.allowed))
	for a, op := range g.allowed {
		out[a] = op
	}
	return out
}

func (g *Guardian) currentPosition() (position.Position, error) {
	return samplePosition(g.Motors, func(c motor.Controller) (float64, error) { return c.ReadPosition() })
}

func (g *Guardian) commandedPosition() (position.Position, error) {
	return samplePosition(g.Motors, func(c motor.Controller) (float64, error) { return c.ReadCommanded() })
}

func samplePosition(motors motor.Set, read func(motor.Controller) (float64, error)) (position.Position, error) {
	var vals [4]float64
	for i, a := range position.Axes {
		m, ok := motors[string(a)]
		if !ok {
			return position.Position{}, motor.ErrDisconnected
		}
		v, err := read(m)
		if err != nil {
			return position.Position{}, err
		}
		vals[i] = v
	}
	return position.New(vals[0], vals[1], vals[2], vals[3]), nil
}

// stopAndReset performs the "stop and reset" sequence: stop, wait,
// disable, wait, reset-commanded, wait. It does not re-latch the go
// trigger afterward.
func (g *Guardian) stopAndReset(reason string) {
	g.latch.Critical(g.Log, reason)
	g.Motors.StopAll()
	time.Sleep(5 * time.Millisecond)
	g.Motors.DisableAll()
	time.Sleep(5 * time.Millisecond)
	for _, m := range g.Motors {
		m.ResetPosition()
	}
	time.Sleep(5 * time.Millisecond)
	g.allowed = nil
	g.state = Stopped
}

// Step advances the guardian by one tick.
func (g *Guardian) Step() {
	switch g.state {
	case Init:
		g.stepInit()
	case Monitoring:
		g.stepMonitoring()
	case Stopped:
		g.stepStopped()
	case Restricted:
		g.stepRestricted()
	case Disabled:
		g.stepDisabled()
	case Fault:
		g.stepFault()
	case Terminate:
		// terminal; ticks are no-ops.
	}
	g.publish()
}

func (g *Guardian) publish() {
	g.Chans.Stst.Set(string(g.state))
}

func (g *Guardian) stepInit() {
	cur, err := g.currentPosition()
	if err != nil {
		g.state = Stopped
		return
	}
	if cur.Valid(g.Store.Geometry) {
		g.state = Monitoring
	} else {
		g.state = Stopped
	}
}

// handleCommonRequest services shutdown/reinit/disable the same way in
// every state where they're legal (spec §4.5). disable never forces
// the motors off by itself: DISABLED only means the guardian stops
// intervening, per "motors may be driven freely." When
// reinitRequiresValid is true, reinit only succeeds from a
// geometrically valid current position (true everywhere except
// MONITORING and FAULT, where it is unconditional).
func (g *Guardian) handleCommonRequest(reinitRequiresValid bool) (handled bool) {
	cmd, ok := g.Chans.Request.Read()
	if !ok || cmd == "" {
		return false
	}
	switch cmd {
	case "shutdown":
		g.Motors.StopAll()
		g.state = Terminate
		return true
	case "reinit":
		if !reinitRequiresValid {
			g.state = Init
			return true
		}
		if cur, err := g.currentPosition(); err == nil && cur.Valid(g.Store.Geometry) {
			g.state = Init
			return true
		}
		return false
	case "disable":
		g.state = Disabled
		return true
	}
	return false
}

func (g *Guardian) stepMonitoring() {
	if g.handleCommonRequest(false) {
		return
	}
	cur, errCur := g.currentPosition()
	cmd, errCmd := g.commandedPosition()
	if errCur != nil || errCmd != nil {
		g.stopAndReset("motor disconnected while monitoring")
		return
	}
	if !cur.Valid(g.Store.Geometry) || !cmd.Valid(g.Store.Geometry) {
		g.stopAndReset("current or commanded position is not valid")
		return
	}
	g.latch.Clear()
}

func (g *Guardian) stepStopped() {
	if g.Motors.AnyEnabled() {
		g.stopAndReset("motor observed enabled while STOPPED")
	}
	cmd, ok := g.Chans.Request.Read()
	if !ok {
		return
	}
	switch cmd {
	case "shutdown":
		g.Motors.StopAll()
		g.state = Terminate
	case "reinit":
		cur, err := g.currentPosition()
		if err == nil && cur.Valid(g.Store.Geometry) {
			g.state = Init
		}
	case "allow_moves":
		for _, m := range g.Motors {
			m.ResetPosition()
		}
		if cur, err := g.currentPosition(); err == nil {
			g.previousCommanded = cur
		}
		g.allowed = nil
		g.restrictedAdvisory.Clear()
		g.state = Restricted
	case "disable":
		g.state = Disabled
	}
}

func (g *Guardian) stepRestricted() {
	if g.handleCommonRequest(true) {
		g.allowed = nil
		return
	}
	cur, err := g.currentPosition()
	if err != nil {
		g.stopAndReset("motor disconnected while RESTRICTED")
		return
	}
	allowed, manualResetRequired := loadRestrictedMoves(cur, g.Store.Geometry)
	g.allowed = allowed
	g.latch.Clear()
	if manualResetRequired {
		g.stopAndReset("both payloads extended and a center move is required: manual reset required")
		return
	}

	for _, axis := range position.Axes {
		m, ok := g.Motors[string(axis)]
		if !ok {
			continue
		}
		if _, isAllowed := allowed[axis]; !isAllowed {
			m.Disable()
		}
	}

	cmd, err := g.commandedPosition()
	if err != nil {
		g.stopAndReset("motor disconnected reading commanded position")
		return
	}
	for axis, op := range allowed {
		newVal, _ := cmd.Get(axis)
		prevVal, _ := g.previousCommanded.Get(axis)
		if !op.holds(newVal, prevVal) {
			g.stopAndReset("commanded value on axis " + string(axis) + " violates the allowed direction")
			return
		}
	}
	g.previousCommanded = cmd

	// RESTRICTED is never left automatically: a valid position with no
	// direction restriction remaining only means it's now safe for the
	// operator to request reinit, not that the guardian should resume
	// unsupervised monitoring on its own.
	if cur.Valid(g.Store.Geometry) && len(allowed) == 0 {
		g.restrictedAdvisory.Info(g.Log, "position is valid and no direction restrictions remain: send reinit to leave RESTRICTED")
	} else {
		g.restrictedAdvisory.Clear()
	}
}

func (g *Guardian) stepDisabled() {
	g.handleCommonRequest(true)
}

func (g *Guardian) stepFault() {
	cmd, ok := g.Chans.Request.Read()
	if !ok || cmd == "" {
		return
	}
	switch cmd {
	case "reinit":
		g.state = Init
	case "shutdown":
		g.Motors.StopAll()
		g.state = Terminate
	}
}
