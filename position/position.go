// Package position provides the value types for a four-axis PCU position
// and the geometric admissibility predicates that the sequencer and
// collision guardian both evaluate against them.
package position

import "fmt"

// Axis identifies one of the four PCU stages.
type Axis string

// The four axes of the PCU.  m1, m2 are the planar (X, Y) stages; m3, m4
// are the axial payload extensions (pinhole mask, fiber bundle).
const (
	M1 Axis = "m1"
	M2 Axis = "m2"
	M3 Axis = "m3"
	M4 Axis = "m4"
)

// Axes lists the four axes in their canonical order.
var Axes = [4]Axis{M1, M2, M3, M4}

// Aperture names one of the two circular clearances in the K-mirror
// rotator that an axially extended payload must stay within.
type Aperture int

// The two apertures a payload may be extended into.
const (
	Fiber Aperture = iota
	Mask
)

func (a Aperture) String() string {
	if a == Fiber {
		return "fiber"
	}
	return "mask"
}

// Position is an immutable four-axis sample or target.  A nil pointer
// for an axis means that axis is undefined; a position with any
// undefined axis is invalid (see Valid).  Positions are never mutated
// after construction; every operation returns a new value.
type Position struct {
	m1, m2, m3, m4 *float64
}

// New builds a fully-defined position from four values.
func New(m1, m2, m3, m4 float64) Position {
	return Position{m1: &m1, m2: &m2, m3: &m3, m4: &m4}
}

// ptr returns the internal pointer for an axis, or nil for an unknown axis.
func (p Position) ptr(a Axis) *float64 {
	switch a {
	case M1:
		return p.m1
	case M2:
		return p.m2
	case M3:
		return p.m3
	case M4:
		return p.m4
	default:
		return nil
	}
}

// Get returns the value of an axis and whether it is defined.
func (p Position) Get(a Axis) (float64, bool) {
	ptr := p.ptr(a)
	if ptr == nil {
		return 0, false
	}
	return *ptr, true
}

// Defined reports whether every axis of p has a value.
func (p Position) Defined() bool {
	return p.m1 != nil && p.m2 != nil && p.m3 != nil && p.m4 != nil
}

// MaskExtended reports whether the pinhole mask stage (m3) is extended.
func (p Position) MaskExtended() bool {
	v, ok := p.Get(M3)
	return ok && v > 0
}

// FiberExtended reports whether the fiber bundle stage (m4) is extended.
func (p Position) FiberExtended() bool {
	v, ok := p.Get(M4)
	return ok && v > 0
}

// Equal reports whether p and other agree exactly, component-wise.
// Undefined axes on either side make the axes unequal unless both sides
// are undefined.
func (p Position) Equal(other Position) bool {
	for _, a := range Axes {
		pv, pok := p.Get(a)
		ov, ook := other.Get(a)
		if pok != ook {
			return false
		}
		if pok && pv != ov {
			return false
		}
	}
	return true
}

// WithinTolerance reports whether p and other agree within tol[axis] on
// every axis. An axis undefined on either side counts as a mismatch. It
// is the predicate the sequencer uses to decide a latched named
// configuration has been reached.
func (p Position) WithinTolerance(other Position, tol map[Axis]float64) bool {
	for _, a := range Axes {
		pv, pok := p.Get(a)
		ov, ook := other.Get(a)
		if !pok || !ook {
			return false
		}
		t := tol[a]
		diff := pv - ov
		if diff < 0 {
			diff = -diff
		}
		if diff > t {
			return false
		}
	}
	return true
}

// AxisInTolerance reports whether a single axis of p is within tol of
// target. Used by the sequencer to evaluate per-axis move completion.
func (p Position) AxisInTolerance(a Axis, target, tol float64) bool {
	v, ok := p.Get(a)
	if !ok {
		return false
	}
	diff := v - target
	if diff < 0 {
		diff = -diff
	}
	return diff <= tol
}

// Sub returns the relative Move that carries other to p (p - other).
func (p Position) Sub(other Position) Move {
	mv := Move{Type: Relative}
	for _, a := range Axes {
		pv, pok := p.Get(a)
		ov, ook := other.Get(a)
		if pok && ook {
			d := pv - ov
			mv.set(a, d)
		}
	}
	return mv
}

// Apply returns the position that results from applying mv to p. For an
// absolute move, the moved axes are replaced outright; for a relative
// move, they are added to p's current value. Axes not present in mv are
// left untouched.
func (p Position) Apply(mv Move) Position {
	out := p
	for _, a := range Axes {
		delta, ok := mv.Get(a)
		if !ok {
			continue
		}
		if mv.Type == Absolute {
			out = out.with(a, delta)
			continue
		}
		base, baseOK := p.Get(a)
		if !baseOK {
			base = 0
		}
		out = out.with(a, base+delta)
	}
	return out
}

func (p Position) with(a Axis, v float64) Position {
	switch a {
	case M1:
		p.m1 = &v
	case M2:
		p.m2 = &v
	case M3:
		p.m3 = &v
	case M4:
		p.m4 = &v
	}
	return p
}

func (p Position) String() string {
	fmtAxis := func(a Axis) string {
		v, ok := p.Get(a)
		if !ok {
			return fmt.Sprintf("%s=undefined", a)
		}
		return fmt.Sprintf("%s=%.4f", a, v)
	}
	return fmt.Sprintf("{%s, %s, %s, %s}", fmtAxis(M1), fmtAxis(M2), fmtAxis(M3), fmtAxis(M4))
}
