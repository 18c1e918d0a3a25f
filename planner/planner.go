// Package planner turns a goal (a named configuration or an offset)
// into an ordered queue of per-axis moves the sequencer can issue one
// at a time (spec §4.3). It touches no state itself: every function
// takes the values it needs and returns a value, kept deliberately
// pure (its only imports are pkg/errors and the catalog and position
// value packages) in the same spirit as the reference corpus's
// preference for small, mockable interfaces around anything stateful.
package planner

import (
	"github.com/pkg/errors"

	"github.jpl.nasa.gov/keck/aopcu/catalog"
	"github.jpl.nasa.gov/keck/aopcu/position"
)

// ErrInvalidDestination is returned when a goal's computed destination
// fails the geometric admissibility check.
var ErrInvalidDestination = errors.New("planner: destination is not a valid position")

// ErrUnknownConfiguration is returned when GoTo names a configuration
// the store has no entry for.
var ErrUnknownConfiguration = catalog.ErrUnknownConfiguration

// Plan is the ordered list of moves the sequencer must issue, one at a
// time, to reach a goal from a starting position.
type Plan []position.Move

// Destination returns the final position the plan will reach by
// applying every queued move, in order, to start.
func (p Plan) Destination(start position.Position) position.Position {
	cur := start
	for _, mv := range p {
		cur = cur.Apply(mv)
	}
	return cur
}

// GoTo plans a move to a named configuration: the destination is that
// configuration's absolute position; the queue pushes one absolute
// move per axis, in the store's canonical axis order (tie-break per
// spec §4.3: the configuration's declared order, which in this
// implementation is always the global valid-motors order the store
// was loaded with, since every configuration is built against that
// same fixed axis table — see catalog.Load).
func GoTo(current position.Position, name string, store *catalog.Store) (Plan, error) {
	entry, err := store.Lookup(name)
	if err != nil {
		return nil, err
	}
	dest := entry.Position
	if !dest.Valid(store.Geometry) {
		return nil, errors.Wrapf(ErrInvalidDestination, "configuration %q at %s", name, dest)
	}

	var plan Plan
	if needsRetraction(current, dest, store.Geometry) {
		plan = append(plan, position.RetractZ)
	}
	for _, axis := range store.ValidMotors {
		v, ok := dest.Get(axis)
		if !ok {
			continue
		}
		plan = append(plan, position.NewAbsolute(map[position.Axis]float64{axis: v}))
	}
	return plan, nil
}

// needsRetraction reports whether a plan from current to dest must begin
// with RetractZ: the two positions are not in-hole-compatible and at
// least one Z stage is currently extended. With both Z stages already
// at zero the retraction would be a no-op and is skipped.
func needsRetraction(current, dest position.Position, g position.Geometry) bool {
	if current.MoveInHole(dest, g) {
		return false
	}
	return current.MaskExtended() || current.FiberExtended()
}

// Offset plans a relative move applied to the current position: the
// destination is current+move; the queue pushes the move's XY
// component first, then its Z component, each as a single combined
// move (spec §4.3).
func Offset(current position.Position, move position.Move, store *catalog.Store) (Plan, error) {
	dest := current.Apply(move)
	if !dest.Valid(store.Geometry) {
		return nil, errors.Wrapf(ErrInvalidDestination, "offset destination %s", dest)
	}

	var plan Plan
	if needsRetraction(current, dest, store.Geometry) {
		plan = append(plan, position.RetractZ)
	}
	if xy := move.XY(); !xy.Empty() {
		plan = append(plan, xy)
	}
	if z := move.Z(); !z.Empty() {
		plan = append(plan, z)
	}
	return plan, nil
}
