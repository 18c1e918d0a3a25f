// Package pcuconfig loads the two static configuration tables the core
// reads once at INIT (spec §4.2, §6.3): the named-configuration table
// and the motor/geometry table. It is deliberately thin — it decodes
// YAML into plain structs and leaves domain construction (geometry
// predicates, validation) to the catalog package.
package pcuconfig

import (
	"fmt"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/mitchellh/mapstructure"
)

// strictDecode rejects any top-level key that doesn't map onto a field
// of o, catching a mistyped section name in YAML (e.g. "fiber_center"
// misspelled) that koanf's default, looser Unmarshal would silently
// drop instead of surfacing as a load error.
func strictDecode(k *koanf.Koanf, o interface{}) error {
	return k.UnmarshalWithConf("", o, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           o,
			ErrorUnused:      true,
			WeaklyTypedInput: true,
			TagName:          "koanf",
		},
	})
}

// ConfigurationsFile mirrors the three-section "Configurations" table
// of spec §6.3: base, fiber family, mask family, each mapping a
// configuration name to an axis->value map.
type ConfigurationsFile struct {
	Base  map[string]map[string]float64 `koanf:"base"`
	Fiber map[string]map[string]float64 `koanf:"fiber"`
	Mask  map[string]map[string]float64 `koanf:"mask"`
}

// MotorsFile mirrors the "Motors" table of spec §6.3: valid motor
// order, per-axis tolerance and limits, and the K-mirror geometry
// constants.
type MotorsFile struct {
	ValidMotors   []string             `koanf:"valid_motors"`
	Tolerance     map[string]float64   `koanf:"tolerance"`
	MotorLimits   map[string][]float64 `koanf:"motor_limits"`
	FiberCenter   map[string]float64   `koanf:"fiber_center"`
	MaskCenter    map[string]float64   `koanf:"mask_center"`
	SafeRadius    map[string]float64   `koanf:"safe_radius"`
	KmirrorRadius float64              `koanf:"kmirror_radius"`
}

// LoadConfigurations reads and decodes the named-configuration table.
func LoadConfigurations(path string) (ConfigurationsFile, error) {
	var cf ConfigurationsFile
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return cf, fmt.Errorf("pcuconfig: loading configurations from %s: %w", path, err)
	}
	if err := strictDecode(k, &cf); err != nil {
		return cf, fmt.Errorf("pcuconfig: decoding configurations from %s: %w", path, err)
	}
	return cf, nil
}

// LoadMotors reads and decodes the motor/geometry table.
func LoadMotors(path string) (MotorsFile, error) {
	var mf MotorsFile
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return mf, fmt.Errorf("pcuconfig: loading motors from %s: %w", path, err)
	}
	if err := strictDecode(k, &mf); err != nil {
		return mf, fmt.Errorf("pcuconfig: decoding motors from %s: %w", path, err)
	}
	return mf, nil
}
