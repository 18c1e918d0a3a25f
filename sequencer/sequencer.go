// Package sequencer implements the sequencer state machine (spec
// §4.4): the tick-driven loop that accepts high-level motion goals,
// decomposes them via the planner into a per-axis move queue, drives
// the motor facade, and publishes metastate/position/offset readbacks.
package sequencer

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.jpl.nasa.gov/keck/aopcu/catalog"
	"github.jpl.nasa.gov/keck/aopcu/logging"
	"github.jpl.nasa.gov/keck/aopcu/motor"
	"github.jpl.nasa.gov/keck/aopcu/planner"
	"github.jpl.nasa.gov/keck/aopcu/position"
)

// State is one of the sequencer's five states.
type State string

// The sequencer's states.
const (
	Init      State = "INIT"
	InPos     State = "INPOS"
	Moving    State = "MOVING"
	Fault     State = "FAULT"
	Terminate State = "TERMINATE"
)

// Default per-move timeouts (spec §4.4).
const (
	DefaultMoveTimeout = 45 * time.Second
	DefaultHomeTimeout = 360 * time.Second
	defaultHomingCheck = time.Second
)

type moveKind int

const (
	kindPosition moveKind = iota
	kindHome
)

type queuedItem struct {
	kind moveKind
	move position.Move   // valid for kindPosition
	axes []position.Axis // valid for kindHome
}

// Sequencer is the sequencer state machine. Construct with New and
// drive it with Step once per tick.
type Sequencer struct {
	Chans    Channels
	Motors   motor.Set
	Store    *catalog.Store
	Guardian GuardianPort
	Log      *logging.Logger

	// MoveTimeout/HomeTimeout/HomingCheckDelay default to the spec's
	// values but are exported so tests can shrink them.
	MoveTimeout      time.Duration
	HomeTimeout      time.Duration
	HomingCheckDelay time.Duration

	// Now is the clock used for move-timeout bookkeeping; defaults to
	// time.Now and is overridable in tests.
	Now func() time.Time

	// Loader, if set, reloads and revalidates the configuration store
	// on every entry into INIT, replacing Store on success and going to
	// FAULT on failure. A nil Loader leaves Store as constructed (used
	// by tests that don't exercise configuration reload).
	Loader catalog.Loader

	state         State
	latchedConfig string
	homing        bool

	queue            []queuedItem
	current          *queuedItem
	currentTargets   map[position.Axis]float64
	pendingConfigure string
	moveDeadline     time.Time

	latch logging.Latch
}

// New returns a Sequencer in INIT.
func New(motors motor.Set, store *catalog.Store, chans Channels, guardian GuardianPort, log *logging.Logger) *Sequencer {
	return &Sequencer{
		Chans:            chans,
		Motors:           motors,
		Store:            store,
		Guardian:         guardian,
		Log:              log,
		state:            Init,
		MoveTimeout:      DefaultMoveTimeout,
		HomeTimeout:      DefaultHomeTimeout,
		HomingCheckDelay: defaultHomingCheck,
		Now:              time.Now,
	}
}

// State returns the sequencer's current state.
func (s *Sequencer) State() State {
	return s.state
}

// Configuration returns the currently latched configuration name, or
// "" if none is latched (metastate USER_DEF).
func (s *Sequencer) Configuration() string {
	return s.latchedConfig
}

func (s *Sequencer) samplePositions() (position.Position, error) {
	var vals [4]float64
	for i, a := range position.Axes {
		m, ok := s.Motors[string(a)]
		if !ok {
			return position.Position{}, motor.ErrDisconnected
		}
		v, err := m.ReadPosition()
		if err != nil {
			return position.Position{}, err
		}
		vals[i] = v
	}
	return position.New(vals[0], vals[1], vals[2], vals[3]), nil
}

// Step advances the sequencer by one tick: ingest requests, run state
// logic, publish readbacks (spec §5's ordering rule).
func (s *Sequencer) Step() {
	switch s.state {
	case Init:
		s.stepInit()
	case InPos:
		s.stepInPos()
		if s.state == Moving {
			// A goal accepted this tick dispatches its first queued
			// move in the same tick.
			s.stepMoving()
		}
	case Moving:
		s.stepMoving()
	case Fault:
		s.stepFault()
	case Terminate:
		// terminal; ticks are no-ops.
	}
	s.publish()
}

func (s *Sequencer) stepInit() {
	// The configuration store is reloaded and revalidated on every
	// entry into INIT, so a reinit after editing the YAML on disk
	// actually picks up the fix (or re-fails into FAULT) rather than
	// trusting whatever was loaded at process start.
	if s.Loader != nil {
		store, err := s.Loader()
		if err != nil {
			s.latch.Critical(s.Log, "configuration load/validation failed: "+err.Error())
			s.state = Fault
			return
		}
		s.Store = store
	}
	cur, err := s.samplePositions()
	if err != nil {
		s.state = Fault
		return
	}
	if name, ok := s.Store.Match(cur); ok {
		s.latchedConfig = name
	} else {
		s.latchedConfig = ""
	}
	s.state = InPos
}

func (s *Sequencer) stepInPos() {
	if cmd, ok := s.Chans.Request.Read(); ok && cmd != "" {
		switch cmd {
		case "reinit":
			s.state = Init
			return
		case "stop":
			s.Log.Info("stop requested while already stationary")
			return
		case "shutdown":
			s.Motors.StopAll()
			s.state = Terminate
			return
		case "enable":
			s.Motors.EnableAll()
			return
		case "disable":
			s.Motors.DisableAll()
			return
		case "clear_pos":
			s.latchedConfig = ""
			return
		case "home":
			s.beginHoming()
			return
		default:
			s.latch.Critical(s.Log, "unrecognized sequencer request: "+cmd)
			return
		}
	}

	if name, ok := s.Chans.PosReq.Read(); ok && name != "" {
		s.tryGoTo(name)
		return
	}
	if mv, any := s.collectAxisPos(); any {
		s.tryMove(mv)
		return
	}
	if mv, any := s.collectOffsets(); any {
		s.tryMove(mv)
		return
	}
}

func (s *Sequencer) collectAxisPos() (position.Move, bool) {
	values := map[position.Axis]float64{}
	for _, a := range position.Axes {
		if v, set, _ := s.Chans.AxisPos[a].Read(); set {
			values[a] = v
		}
	}
	if len(values) == 0 {
		return position.Move{}, false
	}
	return position.NewAbsolute(values), true
}

func (s *Sequencer) collectOffsets() (position.Move, bool) {
	values := map[position.Axis]float64{}
	for _, a := range position.Axes {
		if v, set, _ := s.Chans.AxisOffset[a].Read(); set {
			values[a] = v
		}
	}
	if len(values) == 0 {
		return position.Move{}, false
	}
	return position.NewRelative(values), true
}

func (s *Sequencer) tryGoTo(name string) {
	cur, err := s.samplePositions()
	if err != nil {
		s.state = Fault
		return
	}
	plan, err := planner.GoTo(cur, name, s.Store)
	if err != nil {
		s.latch.Critical(s.Log, "rejected GoTo "+name+": "+err.Error())
		return
	}
	s.queuePlan(plan)
	s.pendingConfigure = name
	s.state = Moving
}

func (s *Sequencer) tryMove(mv position.Move) {
	cur, err := s.samplePositions()
	if err != nil {
		s.state = Fault
		return
	}
	plan, err := planner.Offset(cur, mv, s.Store)
	if err != nil {
		s.latch.Critical(s.Log, "rejected move: "+err.Error())
		return
	}
	s.queuePlan(plan)
	s.pendingConfigure = ""
	s.state = Moving
}

func (s *Sequencer) queuePlan(plan planner.Plan) {
	items := make([]queuedItem, 0, len(plan))
	for _, mv := range plan {
		items = append(items, queuedItem{kind: kindPosition, move: mv})
	}
	s.queue = items
	s.current = nil
}

func (s *Sequencer) beginHoming() {
	s.queue = []queuedItem{
		{kind: kindHome, axes: []position.Axis{position.M3, position.M4}},
		{kind: kindHome, axes: []position.Axis{position.M1, position.M2}},
	}
	s.current = nil
	s.homing = true
	s.pendingConfigure = ""
	s.Guardian.DisableGuardian()
	s.state = Moving
}

func (s *Sequencer) stepMoving() {
	if cmd, ok := s.Chans.Request.Read(); ok && cmd != "" {
		switch cmd {
		case "stop":
			s.abortToInPos()
			return
		case "shutdown":
			s.abortToTerminate()
			return
		case "enable":
			s.Motors.EnableAll()
		case "disable":
			s.Motors.DisableAll()
		default:
			s.latch.Critical(s.Log, "rejected "+cmd+": motion in progress, send stop first")
		}
	}
	// Any motion-implying request arriving mid-move is drained and
	// rejected rather than left to be reprocessed on a later tick.
	if name, ok := s.Chans.PosReq.Read(); ok && name != "" {
		s.latch.Critical(s.Log, "rejected GoTo "+name+": motion in progress")
	}
	if _, any := s.collectAxisPos(); any {
		s.latch.Critical(s.Log, "rejected axis position request: motion in progress")
	}
	if _, any := s.collectOffsets(); any {
		s.latch.Critical(s.Log, "rejected offset request: motion in progress")
	}
	if s.state != Moving {
		return
	}

	if s.current != nil {
		done, err := s.checkCurrentMove()
		if err != nil {
			s.faultStop()
			return
		}
		if done {
			s.current = nil
		} else {
			if s.Now().After(s.moveDeadline) {
				s.faultStop()
			}
			return
		}
	}

	if s.current == nil && len(s.queue) > 0 {
		item := s.queue[0]
		s.queue = s.queue[1:]
		if err := s.dispatch(item); err != nil {
			s.faultStop()
		}
		return
	}

	if s.current == nil && len(s.queue) == 0 {
		s.completeMotion()
	}
}

func (s *Sequencer) checkCurrentMove() (bool, error) {
	if s.current.kind == kindHome {
		for _, a := range s.current.axes {
			m := s.Motors[string(a)]
			moving, err := m.IsMoving()
			if err != nil {
				return false, err
			}
			if moving {
				return false, nil
			}
		}
		return true, nil
	}
	for axis, target := range s.currentTargets {
		m := s.Motors[string(axis)]
		v, err := m.ReadPosition()
		if err != nil {
			return false, err
		}
		tol := s.Store.Geometry.Tolerance[axis]
		diff := v - target
		if diff < -tol || diff > tol {
			return false, nil
		}
	}
	return true, nil
}

var errHomeDidNotStart = errors.New("sequencer: axis did not report motion after home command")

func (s *Sequencer) dispatch(item queuedItem) error {
	if item.kind == kindHome {
		for _, a := range item.axes {
			if err := s.Motors[string(a)].Home(); err != nil {
				return err
			}
		}
		s.current = &item
		s.moveDeadline = s.Now().Add(s.HomeTimeout)
		time.Sleep(s.HomingCheckDelay)
		for _, a := range item.axes {
			moving, err := s.Motors[string(a)].IsMoving()
			if err != nil {
				return err
			}
			if !moving {
				return errHomeDidNotStart
			}
		}
		return nil
	}

	cur, err := s.samplePositions()
	if err != nil {
		return err
	}
	dest := cur.Apply(item.move)
	targets := map[position.Axis]float64{}
	for _, a := range position.Axes {
		if _, ok := item.move.Get(a); !ok {
			continue
		}
		tv, _ := dest.Get(a)
		targets[a] = tv
		if err := s.Motors[string(a)].SetPosition(tv); err != nil {
			return err
		}
	}
	s.currentTargets = targets
	s.current = &item
	s.moveDeadline = s.Now().Add(s.MoveTimeout)
	return nil
}

func (s *Sequencer) completeMotion() {
	if s.pendingConfigure != "" {
		s.latchedConfig = s.pendingConfigure
	} else if cur, err := s.samplePositions(); err == nil {
		if name, ok := s.Store.Match(cur); ok {
			s.latchedConfig = name
		} else {
			s.latchedConfig = ""
		}
	}
	s.pendingConfigure = ""
	s.endHomingIfActive()
	s.state = InPos
}

func (s *Sequencer) endHomingIfActive() {
	if s.homing {
		s.homing = false
		s.Guardian.EnableGuardian()
	}
}

func (s *Sequencer) faultStop() {
	s.Motors.StopAll()
	s.queue = nil
	s.current = nil
	s.endHomingIfActive()
	s.state = Fault
}

func (s *Sequencer) abortToInPos() {
	s.Motors.StopAll()
	s.queue = nil
	s.current = nil
	s.endHomingIfActive()
	s.state = InPos
}

func (s *Sequencer) abortToTerminate() {
	s.Motors.StopAll()
	s.queue = nil
	s.current = nil
	s.endHomingIfActive()
	s.state = Terminate
}

func (s *Sequencer) stepFault() {
	cmd, ok := s.Chans.Request.Read()
	if !ok || cmd == "" {
		return
	}
	switch cmd {
	case "reinit":
		s.state = Init
	case "shutdown":
		s.Motors.StopAll()
		s.state = Terminate
	}
}

func (s *Sequencer) metastate() string {
	if s.state != InPos {
		return string(s.state)
	}
	if s.latchedConfig == "" {
		return "USER_DEF"
	}
	return strings.ToUpper(s.latchedConfig)
}

func (s *Sequencer) publish() {
	s.Chans.Stst.Set(s.metastate())
	if s.latchedConfig == "" {
		s.Chans.PosRb.Set("USER_DEF")
	} else {
		s.Chans.PosRb.Set(strings.ToUpper(s.latchedConfig))
	}

	cur, err := s.samplePositions()
	if err != nil {
		return
	}
	var ref position.Position
	haveRef := false
	if s.latchedConfig != "" {
		if e, err := s.Store.Lookup(s.latchedConfig); err == nil {
			ref = e.Position
			haveRef = true
		}
	}
	for _, a := range position.Axes {
		v, _ := cur.Get(a)
		s.Chans.AxisPosRb[a].Set(v)
		if haveRef {
			rv, _ := ref.Get(a)
			s.Chans.AxisOffsetRb[a].Set(v - rv)
		} else {
			s.Chans.AxisOffsetRb[a].Set(0)
		}
	}
}
