package catalog

import (
	"errors"
	"testing"

	"github.jpl.nasa.gov/keck/aopcu/pcuconfig"
	"github.jpl.nasa.gov/keck/aopcu/position"
)

func testMotors() pcuconfig.MotorsFile {
	return pcuconfig.MotorsFile{
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
}

func TestLoadValidCatalog(t *testing.T) {
	cf := pcuconfig.ConfigurationsFile{
		Base: map[string]map[string]float64{
			"telescope": {"m1": 10, "m2": 10, "m3": 0, "m4": 0},
		},
		Fiber: map[string]map[string]float64{
			"fiber_center": {"m1": 100, "m2": 50, "m3": 0, "m4": 8},
		},
		Mask: map[string]map[string]float64{
			"mask_center": {"m1": 200, "m2": 50, "m3": 9, "m4": 0},
		},
	}
	store, err := Load(cf, testMotors())
	if err != nil {
		t.Fatal(err)
	}
	e, err := store.Lookup("fiber_center")
	if err != nil {
		t.Fatal(err)
	}
	if e.Family != position.Fiber {
		t.Fatalf("expected fiber family, got %v", e.Family)
	}

	if _, err := store.Lookup("nonexistent"); !errors.Is(err, ErrUnknownConfiguration) {
		t.Fatalf("expected ErrUnknownConfiguration, got %v", err)
	}
}

func TestLoadRejectsInvalidUserConfiguration(t *testing.T) {
	cf := pcuconfig.ConfigurationsFile{
		Mask: map[string]map[string]float64{
			// far outside the mask aperture and not in the hole: invalid.
			"bogus": {"m1": 400, "m2": 400, "m3": 50, "m4": 0},
		},
	}
	_, err := Load(cf, testMotors())
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestLoadRejectsUnknownAxis(t *testing.T) {
	cf := pcuconfig.ConfigurationsFile{
		Base: map[string]map[string]float64{
			"bad": {"m1": 1, "m9": 2},
		},
	}
	if _, err := Load(cf, testMotors()); err == nil {
		t.Fatal("expected error for unknown axis m9")
	}
}

func TestNamesFiltersFamily(t *testing.T) {
	cf := pcuconfig.ConfigurationsFile{
		Base: map[string]map[string]float64{
			"telescope": {"m1": 10, "m2": 10, "m3": 0, "m4": 0},
		},
		Fiber: map[string]map[string]float64{
			"fiber_center": {"m1": 100, "m2": 50, "m3": 0, "m4": 8},
			"fiber_a":      {"m1": 95, "m2": 55, "m3": 0, "m4": 8},
		},
	}
	store, err := Load(cf, testMotors())
	if err != nil {
		t.Fatal(err)
	}
	names := store.Names(position.Fiber, false)
	if len(names) != 2 {
		t.Fatalf("expected 2 fiber configurations, got %v", names)
	}
	withBase := store.Names(position.Fiber, true)
	if len(withBase) != 3 {
		t.Fatalf("expected 3 entries including base, got %v", withBase)
	}
}
