package rig

import (
	"fmt"
	"io/ioutil"

	"gopkg.in/yaml.v2"

	"github.com/bindpose/autorig/geom"
)

// Preset overrides tuning constants of the rigging path. Presets are
// hand-edited files, so the format is YAML.
type Preset struct {
	Name string `yaml:"name"`

	// RadiusMultipliers overrides envelope radius multipliers by
	// canonical bone name (e.g. "hips", "leftLowerArm").
	RadiusMultipliers map[string]geom.Element `yaml:"radiusMultipliers"`
}

func LoadPreset(path string) (*Preset, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("rig: preset %s: %w", path, err)
	}
	for name, m := range p.RadiusMultipliers {
		if m <= 0 {
			return nil, fmt.Errorf("rig: preset %s: non-positive multiplier for %s", path, name)
		}
	}
	return &p, nil
}
