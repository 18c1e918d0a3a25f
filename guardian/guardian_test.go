package guardian

import (
	"testing"

	"github.jpl.nasa.gov/keck/aopcu/catalog"
	"github.jpl.nasa.gov/keck/aopcu/logging"
	"github.jpl.nasa.gov/keck/aopcu/motor"
	"github.jpl.nasa.gov/keck/aopcu/pcuconfig"
	"github.jpl.nasa.gov/keck/aopcu/position"
)

type fakeString struct{ v string }

func (f *fakeString) Set(v string) { f.v = v }

type fakeRequest struct {
	queue []string
}

func (f *fakeRequest) push(cmd string) { f.queue = append(f.queue, cmd) }

func (f *fakeRequest) Read() (string, bool) {
	if len(f.queue) == 0 {
		return "", true
	}
	cmd := f.queue[0]
	f.queue = f.queue[1:]
	return cmd, true
}

func testStore(t *testing.T) *catalog.Store {
	t.Helper()
	mf := pcuconfig.MotorsFile{
		ValidMotors: []string{"m1", "m2", "m3", "m4"},
		Tolerance:   map[string]float64{"m1": 0.1, "m2": 0.1, "m3": 0.1, "m4": 0.1},
		MotorLimits: map[string][]float64{
			"m1": {-500, 500}, "m2": {-500, 500}, "m3": {0, 100}, "m4": {0, 100},
		},
		FiberCenter:   map[string]float64{"m1": 100, "m2": 50},
		MaskCenter:    map[string]float64{"m1": 200, "m2": 50},
		SafeRadius:    map[string]float64{"fiber": 20, "mask": 20},
		KmirrorRadius: 50,
	}
	store, err := catalog.Load(pcuconfig.ConfigurationsFile{}, mf)
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func testMotors(pos position.Position) motor.Set {
	set := motor.Set{}
	for _, a := range position.Axes {
		v, _ := pos.Get(a)
		m := motor.NewMock(string(a))
		m.Position = v
		m.Commanded = v
		set[string(a)] = m
	}
	return set
}

func newGuardian(t *testing.T, pos position.Position) (*Guardian, *fakeRequest) {
	store := testStore(t)
	motors := testMotors(pos)
	req := &fakeRequest{}
	chans := Channels{Stst: &fakeString{}, Request: req}
	g := New(motors, store, chans, logging.New("test", false))
	return g, req
}

// S5: guardian starts in INIT at a fiber-extended-outside-aperture
// position; INIT must go to STOPPED, then allow_moves enters
// RESTRICTED with allowed={m4: LE} (retract only).
func TestS5RestrictedRetractOnly(t *testing.T) {
	pos := position.New(200, 50, 0, 10) // fiber extended, >50mm from fiber center
	g, req := newGuardian(t, pos)

	g.Step() // INIT -> STOPPED
	if g.State() != Stopped {
		t.Fatalf("expected STOPPED after INIT, got %s", g.State())
	}

	req.push("allow_moves")
	g.Step() // STOPPED -> RESTRICTED
	if g.State() != Restricted {
		t.Fatalf("expected RESTRICTED, got %s", g.State())
	}

	g.Step() // compute allowed directions
	allowed := g.Allowed()
	op, ok := allowed[position.M4]
	if !ok || op != LE {
		t.Fatalf("expected allowed={m4: LE}, got %v", allowed)
	}
	if _, ok := allowed[position.M1]; ok {
		t.Fatal("m1 should not be in the allowed map")
	}

	// a commanded increase in m4 beyond current must bounce back to STOPPED
	m4 := g.Motors["m4"].(*motor.Mock)
	m4.Commanded = 15
	g.Step()
	if g.State() != Stopped {
		t.Fatalf("expected STOPPED after an m4 commanded increase, got %s", g.State())
	}
}

// Invariant 5: in MONITORING, an invalid current or commanded position
// drives all motors to !is_enabled() and the guardian to STOPPED within
// one tick.
func TestMonitoringStopsOnInvalidPosition(t *testing.T) {
	pos := position.New(10, 10, 0, 0)
	g, _ := newGuardian(t, pos)
	g.state = Monitoring
	for _, m := range g.Motors {
		m.(*motor.Mock).Enabled = true
	}

	// push m4 out to an unsafe extension.
	g.Motors["m4"].(*motor.Mock).Position = 5
	g.Motors["m4"].(*motor.Mock).Commanded = 5
	// fiber center (100,50), current (10,10): far outside safe radius.

	g.Step()

	if g.State() != Stopped {
		t.Fatalf("expected STOPPED, got %s", g.State())
	}
	for name, m := range g.Motors {
		if m.(*motor.Mock).Enabled {
			t.Fatalf("expected motor %s disabled after invalid position", name)
		}
	}
}

// RESTRICTED must never auto-transition back to MONITORING on its own,
// even once the position is valid and no direction restriction remains:
// only an explicit reinit may leave RESTRICTED (spec §4.5).
func TestRestrictedRequiresExplicitReinit(t *testing.T) {
	pos := position.New(200, 50, 0, 10)
	g, req := newGuardian(t, pos)

	g.Step() // INIT -> STOPPED
	req.push("allow_moves")
	g.Step() // STOPPED -> RESTRICTED

	m4 := g.Motors["m4"].(*motor.Mock)
	m4.Position = 0
	m4.Commanded = 0

	for i := 0; i < 5; i++ {
		g.Step()
		if g.State() != Restricted {
			t.Fatalf("guardian left RESTRICTED on its own at tick %d (state %s)", i, g.State())
		}
	}

	req.push("reinit")
	g.Step()
	if g.State() != Init {
		t.Fatalf("expected reinit to move to INIT, got %s", g.State())
	}
	g.Step()
	if g.State() != Monitoring {
		t.Fatalf("expected INIT to resolve to MONITORING from a valid position, got %s", g.State())
	}
}

func TestDisableIsPassiveNotForced(t *testing.T) {
	pos := position.New(0, 0, 0, 0)
	g, req := newGuardian(t, pos)
	g.state = Monitoring
	for _, m := range g.Motors {
		m.(*motor.Mock).Enabled = true
	}

	req.push("disable")
	g.Step()

	if g.State() != Disabled {
		t.Fatalf("expected DISABLED, got %s", g.State())
	}
	for name, m := range g.Motors {
		if !m.(*motor.Mock).Enabled {
			t.Fatalf("expected motor %s to remain enabled: disable is passive", name)
		}
	}
}
