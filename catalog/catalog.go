// Package catalog holds the named-configuration store: the domain
// construction over the raw tables pcuconfig decodes from YAML (spec
// §4.2). It is loaded once at INIT and never mutated afterward; a
// fsnotify watch on the source files is advisory only (see
// pcuconfig.Watch) and never triggers an automatic reload.
package catalog

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.jpl.nasa.gov/keck/aopcu/pcuconfig"
	"github.jpl.nasa.gov/keck/aopcu/position"
)

// ErrUnknownConfiguration is returned when a name is not present in any
// family of the store.
var ErrUnknownConfiguration = errors.New("catalog: unknown configuration name")

// ErrInvalidConfiguration is returned at load time when a
// user-selectable configuration fails geometry validation (spec §4.2:
// "any invalid user-selectable configuration fails INIT").
var ErrInvalidConfiguration = errors.New("catalog: configuration fails validity check")

// Entry is one named configuration: the target position plus the
// family it belongs to.
type Entry struct {
	Name     string
	Family   position.Aperture // zero value means "base", not user-selectable as fiber/mask
	IsBase   bool
	Position position.Position
}

// Store is the loaded, validated named-configuration table together
// with the geometry every predicate in the position package needs.
type Store struct {
	Geometry    position.Geometry
	ValidMotors []position.Axis // canonical axis order, authoritative for planner output
	entries     map[string]Entry
}

// Load builds a Store from the decoded configuration files. It
// validates every user-selectable (fiber/mask family) configuration
// against the geometry and fails closed (spec §4.2) if any is
// inadmissible; base configurations are not required to be admissible
// since they represent external-collaborator handoff points (spec §6,
// "Out of scope").
func Load(cf pcuconfig.ConfigurationsFile, mf pcuconfig.MotorsFile) (*Store, error) {
	geom, validMotors, err := geometryFrom(mf)
	if err != nil {
		return nil, err
	}

	s := &Store{
		Geometry:    geom,
		ValidMotors: validMotors,
		entries:     make(map[string]Entry),
	}

	for name, axes := range cf.Base {
		pos, err := positionFrom(validMotors, axes)
		if err != nil {
			return nil, errors.Wrapf(err, "catalog: base configuration %q", name)
		}
		s.entries[name] = Entry{Name: name, IsBase: true, Position: pos}
	}
	if err := s.loadFamily(cf.Fiber, position.Fiber, validMotors); err != nil {
		return nil, err
	}
	if err := s.loadFamily(cf.Mask, position.Mask, validMotors); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) loadFamily(raw map[string]map[string]float64, family position.Aperture, validMotors []position.Axis) error {
	for name, axes := range raw {
		pos, err := positionFrom(validMotors, axes)
		if err != nil {
			return errors.Wrapf(err, "catalog: %s configuration %q", family, name)
		}
		if !pos.Valid(s.Geometry) {
			return errors.Wrapf(ErrInvalidConfiguration, "%s configuration %q at %s", family, name, pos)
		}
		if _, dup := s.entries[name]; dup {
			return fmt.Errorf("catalog: configuration name %q reused across families", name)
		}
		s.entries[name] = Entry{Name: name, Family: family, Position: pos}
	}
	return nil
}

func positionFrom(validMotors []position.Axis, axes map[string]float64) (position.Position, error) {
	values := make(map[position.Axis]float64, len(axes))
	for k, v := range axes {
		a := position.Axis(k)
		if !contains(validMotors, a) {
			return position.Position{}, fmt.Errorf("axis %q not in valid_motors", k)
		}
		values[a] = v
	}
	return position.New(
		valueOr(values, position.M1),
		valueOr(values, position.M2),
		valueOr(values, position.M3),
		valueOr(values, position.M4),
	), nil
}

func valueOr(m map[position.Axis]float64, a position.Axis) float64 {
	return m[a]
}

func contains(list []position.Axis, a position.Axis) bool {
	for _, v := range list {
		if v == a {
			return true
		}
	}
	return false
}

func geometryFrom(mf pcuconfig.MotorsFile) (position.Geometry, []position.Axis, error) {
	var geom position.Geometry

	validMotors := make([]position.Axis, 0, len(mf.ValidMotors))
	for _, m := range mf.ValidMotors {
		validMotors = append(validMotors, position.Axis(m))
	}

	geom.Limits = make(map[position.Axis]position.Range, len(mf.MotorLimits))
	for axis, bounds := range mf.MotorLimits {
		if len(bounds) != 2 {
			return geom, nil, fmt.Errorf("catalog: motor_limits[%s] must have exactly two bounds", axis)
		}
		geom.Limits[position.Axis(axis)] = position.Range{Lo: bounds[0], Hi: bounds[1]}
	}

	geom.Tolerance = make(map[position.Axis]float64, len(mf.Tolerance))
	for axis, tol := range mf.Tolerance {
		geom.Tolerance[position.Axis(axis)] = tol
	}

	geom.FiberCenter = position.XY{X: mf.FiberCenter["m1"], Y: mf.FiberCenter["m2"]}
	geom.MaskCenter = position.XY{X: mf.MaskCenter["m1"], Y: mf.MaskCenter["m2"]}
	geom.KmirrorRadius = mf.KmirrorRadius

	geom.SafeRadius = map[position.Aperture]float64{
		position.Fiber: mf.SafeRadius["fiber"],
		position.Mask:  mf.SafeRadius["mask"],
	}

	return geom, validMotors, nil
}

// Loader produces a freshly loaded and validated Store, used by the
// sequencer so that every entry into INIT (including one driven by an
// operator's reinit) re-reads and re-validates configuration from disk
// instead of trusting whatever was loaded at process start (spec §4.4:
// "Load the configuration store; validate every user-selectable named
// configuration ... On ... validation failure, go to FAULT").
type Loader func() (*Store, error)

// DirLoader returns a Loader reading configurations.yaml and
// motors.yaml from dir.
func DirLoader(dir string) Loader {
	return func() (*Store, error) {
		cf, err := pcuconfig.LoadConfigurations(dir + "/configurations.yaml")
		if err != nil {
			return nil, err
		}
		mf, err := pcuconfig.LoadMotors(dir + "/motors.yaml")
		if err != nil {
			return nil, err
		}
		return Load(cf, mf)
	}
}

// Lookup returns the configuration registered under name.
func (s *Store) Lookup(name string) (Entry, error) {
	e, ok := s.entries[name]
	if !ok {
		return Entry{}, errors.Wrapf(ErrUnknownConfiguration, "%q", name)
	}
	return e, nil
}

// Names returns the registered configuration names of one family in
// sorted order, plus every base configuration name when baseToo is set.
func (s *Store) Names(family position.Aperture, baseToo bool) []string {
	var names []string
	for name, e := range s.entries {
		if e.IsBase {
			if baseToo {
				names = append(names, name)
			}
			continue
		}
		if e.Family == family {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Match returns the name of the first registered configuration (in
// sorted name order, for determinism) whose position agrees with cur
// within the store's per-axis tolerance, used by the sequencer's INIT
// step to latch an already-reached configuration.
func (s *Store) Match(cur position.Position) (string, bool) {
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if cur.WithinTolerance(s.entries[name].Position, s.Geometry.Tolerance) {
			return name, true
		}
	}
	return "", false
}
