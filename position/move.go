package position

import "strconv"

// MoveType tags a Move as absolute (replace) or relative (add).
type MoveType int

// The two kinds of move a Move can express.
const (
	Absolute MoveType = iota
	Relative
)

func (t MoveType) String() string {
	if t == Absolute {
		return "absolute"
	}
	return "relative"
}

// Move is a partial mapping over the four axes, tagged with whether it
// should be applied as an absolute replacement or a relative offset.
// Axes left unset leave the corresponding position component untouched
// when applied. A Move with no axes set is "empty."
type Move struct {
	Type           MoveType
	m1, m2, m3, m4 *float64
}

// NewAbsolute builds an absolute move setting only the given axes.
func NewAbsolute(values map[Axis]float64) Move {
	mv := Move{Type: Absolute}
	for a, v := range values {
		mv.set(a, v)
	}
	return mv
}

// NewRelative builds a relative move setting only the given axes.
func NewRelative(values map[Axis]float64) Move {
	mv := Move{Type: Relative}
	for a, v := range values {
		mv.set(a, v)
	}
	return mv
}

func (mv *Move) set(a Axis, v float64) {
	switch a {
	case M1:
		mv.m1 = &v
	case M2:
		mv.m2 = &v
	case M3:
		mv.m3 = &v
	case M4:
		mv.m4 = &v
	}
}

// Get returns the delta/target of an axis in the move and whether it is
// set at all.
func (mv Move) Get(a Axis) (float64, bool) {
	var ptr *float64
	switch a {
	case M1:
		ptr = mv.m1
	case M2:
		ptr = mv.m2
	case M3:
		ptr = mv.m3
	case M4:
		ptr = mv.m4
	}
	if ptr == nil {
		return 0, false
	}
	return *ptr, true
}

// Empty reports whether no axis is set; an empty move is a no-op.
func (mv Move) Empty() bool {
	return mv.m1 == nil && mv.m2 == nil && mv.m3 == nil && mv.m4 == nil
}

// XY returns the sub-move containing only the planar (m1, m2) components.
func (mv Move) XY() Move {
	out := Move{Type: mv.Type}
	if mv.m1 != nil {
		out.set(M1, *mv.m1)
	}
	if mv.m2 != nil {
		out.set(M2, *mv.m2)
	}
	return out
}

// Z returns the sub-move containing only the axial (m3, m4) components.
func (mv Move) Z() Move {
	out := Move{Type: mv.Type}
	if mv.m3 != nil {
		out.set(M3, *mv.m3)
	}
	if mv.m4 != nil {
		out.set(M4, *mv.m4)
	}
	return out
}

// RetractZ is the absolute move that retracts both Z stages to zero. The
// planner pushes it onto the front of the queue whenever a transition is
// not in-hole-compatible and a Z stage is currently extended.
var RetractZ = NewAbsolute(map[Axis]float64{M3: 0, M4: 0})

func (mv Move) String() string {
	out := "{" + mv.Type.String() + ":"
	any := false
	for _, a := range Axes {
		if v, ok := mv.Get(a); ok {
			if any {
				out += ","
			}
			out += string(a) + "="
			out += strconv.FormatFloat(v, 'g', -1, 64)
			any = true
		}
	}
	return out + "}"
}
