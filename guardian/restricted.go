package guardian

import "github.jpl.nasa.gov/keck/aopcu/position"

type payloadState struct {
	extended   bool
	inAperture bool
	safe       bool
}

func evaluatePayload(cur position.Position, which position.Aperture, axis position.Axis, g position.Geometry) payloadState {
	v, _ := cur.Get(axis)
	return payloadState{
		extended:   v > 0,
		inAperture: cur.InAperture(which, g, g.KmirrorRadius),
		safe:       cur.InHole(which, g),
	}
}

func towardCenter(center, currentAxisValue float64) Op {
	if center-currentAxisValue >= 0 {
		return GE
	}
	return LE
}

// loadRestrictedMoves implements spec §4.5's per-tick recomputation of
// the allowed-direction map. It returns the map and whether the
// situation is unrecoverable automatically (both payloads extended and
// an XY move toward center is required), in which case the map is
// irrelevant and the guardian must fall back to STOPPED.
func loadRestrictedMoves(cur position.Position, g position.Geometry) (map[position.Axis]Op, bool) {
	fiber := evaluatePayload(cur, position.Fiber, position.M4, g)
	mask := evaluatePayload(cur, position.Mask, position.M3, g)

	fiberNeedsRetract := fiber.extended && !fiber.inAperture
	fiberNeedsXY := fiber.extended && fiber.inAperture && !fiber.safe
	maskNeedsRetract := mask.extended && !mask.inAperture
	maskNeedsXY := mask.extended && mask.inAperture && !mask.safe

	if fiber.extended && mask.extended && (fiberNeedsXY || maskNeedsXY) {
		return nil, true
	}

	allowed := make(map[position.Axis]Op)
	if fiberNeedsRetract {
		allowed[position.M4] = LE
	}
	if maskNeedsRetract {
		allowed[position.M3] = LE
	}
	if fiberNeedsXY {
		m1, _ := cur.Get(position.M1)
		m2, _ := cur.Get(position.M2)
		allowed[position.M1] = towardCenter(g.FiberCenter.X, m1)
		allowed[position.M2] = towardCenter(g.FiberCenter.Y, m2)
	}
	if maskNeedsXY {
		m1, _ := cur.Get(position.M1)
		m2, _ := cur.Get(position.M2)
		allowed[position.M1] = towardCenter(g.MaskCenter.X, m1)
		allowed[position.M2] = towardCenter(g.MaskCenter.Y, m2)
	}
	return allowed, false
}
