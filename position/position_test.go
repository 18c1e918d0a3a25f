package position

import "testing"

func testGeometry() Geometry {
	return Geometry{
		FiberCenter:   XY{X: 100, Y: 50},
		MaskCenter:    XY{X: 200, Y: 50},
		SafeRadius:    map[Aperture]float64{Fiber: 20, Mask: 20},
		KmirrorRadius: 50,
		Limits: map[Axis]Range{
			M1: {Lo: -500, Hi: 500},
			M2: {Lo: -500, Hi: 500},
			M3: {Lo: 0, Hi: 100},
			M4: {Lo: 0, Hi: 100},
		},
		Tolerance: map[Axis]float64{M1: 0.1, M2: 0.1, M3: 0.1, M4: 0.1},
	}
}

func TestSubApplyRoundTrip(t *testing.T) {
	a := New(10, 20, 0, 0)
	b := New(3, 4, 0, 0)
	mv := a.Sub(b)
	if got := b.Apply(mv); !got.Equal(a) {
		t.Fatalf("b+(a-b) = %v, want %v", got, a)
	}
	zero := a.Sub(a)
	if got := a.Apply(zero); !got.Equal(a) {
		t.Fatalf("a+(a-a) = %v, want %v", got, a)
	}
}

func TestValidLimits(t *testing.T) {
	g := testGeometry()
	p := New(0, 0, 0, 0)
	if !p.Valid(g) {
		t.Fatal("origin with no extension should be valid")
	}
	bad := New(0, 0, 0, 0).Apply(NewAbsolute(map[Axis]float64{M1: 9999}))
	if bad.Valid(g) {
		t.Fatal("position outside motor limits should be invalid")
	}
}

func TestFiberMaskSafety(t *testing.T) {
	g := testGeometry()
	// fiber extended, planar position inside fiber safe radius: valid
	p := New(100, 50, 0, 5)
	if !p.Valid(g) {
		t.Fatalf("expected valid fiber-extended position, got invalid: %v", p)
	}
	// fiber extended outside fiber safe radius: invalid (S4 in spec.md)
	p2 := New(200, 50, 0, 5)
	if p2.Valid(g) {
		t.Fatal("expected invalid position: fiber extended outside fiber aperture")
	}
	// mask extended inside mask safe radius: valid
	p3 := New(200, 50, 5, 0)
	if !p3.Valid(g) {
		t.Fatalf("expected valid mask-extended position, got invalid: %v", p3)
	}
}

func TestMoveInHole(t *testing.T) {
	g := testGeometry()
	a := New(100, 50, 0, 5)  // fiber extended, in fiber hole
	b := New(101, 51, 0, 10) // still within fiber hole
	if !a.MoveInHole(b, g) {
		t.Fatal("expected in-hole-compatible transition within fiber aperture")
	}
	c := New(200, 50, 5, 0) // mask extended, in mask hole
	if a.MoveInHole(c, g) {
		t.Fatal("fiber-hole to mask-hole transition should not be in-hole-compatible")
	}
}

func TestWithinTolerance(t *testing.T) {
	g := testGeometry()
	a := New(10, 10, 10, 10)
	b := New(10.05, 9.95, 10, 10)
	if !a.WithinTolerance(b, g.Tolerance) {
		t.Fatal("expected positions within tolerance to match")
	}
	c := New(10.5, 10, 10, 10)
	if a.WithinTolerance(c, g.Tolerance) {
		t.Fatal("expected positions outside tolerance to differ")
	}
}

func TestMoveEmpty(t *testing.T) {
	mv := Move{Type: Absolute}
	if !mv.Empty() {
		t.Fatal("zero-value move should be empty")
	}
	mv2 := NewAbsolute(map[Axis]float64{M1: 0})
	if mv2.Empty() {
		t.Fatal("move with an explicit zero value should not be empty")
	}
}
