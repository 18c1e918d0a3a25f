package position

import "math"

// XY is a planar point, used for the fiber and mask aperture centers.
type XY struct {
	X, Y float64
}

// Range is an inclusive [Lo, Hi] limit on a single axis.
type Range struct {
	Lo, Hi float64
}

// Contains reports whether v lies within the closed interval [Lo, Hi].
func (r Range) Contains(v float64) bool {
	return v >= r.Lo && v <= r.Hi
}

// Geometry holds the static geometric constants loaded from the motor
// configuration table: aperture centers and safe radii, per-axis motor
// limits and tolerances, and the true physical K-mirror aperture radius
// (always >= the configured safe radii).
type Geometry struct {
	FiberCenter   XY
	MaskCenter    XY
	SafeRadius    map[Aperture]float64
	KmirrorRadius float64
	Limits        map[Axis]Range
	Tolerance     map[Axis]float64
}

// Center returns the aperture center for which.
func (g Geometry) Center(which Aperture) XY {
	if which == Fiber {
		return g.FiberCenter
	}
	return g.MaskCenter
}

// InLimits reports whether every defined axis of p lies within its
// configured motor limits. Axes absent from g.Limits are unconstrained.
func (p Position) InLimits(g Geometry) bool {
	for _, a := range Axes {
		v, ok := p.Get(a)
		if !ok {
			continue
		}
		if r, has := g.Limits[a]; has && !r.Contains(v) {
			return false
		}
	}
	return true
}

// InAperture reports whether p's planar (m1, m2) components lie within
// radius of the given aperture's center. It is the primitive used by
// both InHole (the configured safe radius) and the collision guardian
// (the true K-mirror radius).
func (p Position) InAperture(which Aperture, g Geometry, radius float64) bool {
	x, xok := p.Get(M1)
	y, yok := p.Get(M2)
	if !xok || !yok {
		return false
	}
	c := g.Center(which)
	dx, dy := x-c.X, y-c.Y
	return dx*dx+dy*dy <= radius*radius
}

// InHole reports whether p's planar position lies within the
// configured safe radius of the given aperture.
func (p Position) InHole(which Aperture, g Geometry) bool {
	return p.InAperture(which, g, g.SafeRadius[which])
}

// MaskSafe reports that, if the mask is extended, its planar position
// lies within the mask safe aperture.
func (p Position) MaskSafe(g Geometry) bool {
	if !p.MaskExtended() {
		return true
	}
	return p.InHole(Mask, g)
}

// FiberSafe reports that, if the fiber is extended, its planar position
// lies within the fiber safe aperture.
func (p Position) FiberSafe(g Geometry) bool {
	if !p.FiberExtended() {
		return true
	}
	return p.InHole(Fiber, g)
}

// Valid reports whether p satisfies every admissibility predicate in
// §3: fully defined, within motor limits, and safe for any extended
// payload.
func (p Position) Valid(g Geometry) bool {
	return p.Defined() && p.InLimits(g) && p.MaskSafe(g) && p.FiberSafe(g)
}

// MoveInHole reports whether p and dest are in-hole-compatible: both
// valid, and both lying within the same safe aperture (both within the
// mask hole, or both within the fiber hole). If they are not
// compatible, any planned transition between them must first retract
// both Z axes to zero.
func (p Position) MoveInHole(dest Position, g Geometry) bool {
	if !p.Valid(g) || !dest.Valid(g) {
		return false
	}
	bothMask := p.InHole(Mask, g) && dest.InHole(Mask, g)
	bothFiber := p.InHole(Fiber, g) && dest.InHole(Fiber, g)
	return bothMask || bothFiber
}

// Distance returns the planar Euclidean distance between p and other.
func (p Position) Distance(other Position) float64 {
	x1, _ := p.Get(M1)
	y1, _ := p.Get(M2)
	x2, _ := other.Get(M1)
	y2, _ := other.Get(M2)
	dx, dy := x1-x2, y1-y2
	return math.Sqrt(dx*dx + dy*dy)
}
