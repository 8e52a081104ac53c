package service

import (
	"sort"

	"github.com/berfenger/sundispatch/internal/core/domain"
	"github.com/berfenger/sundispatch/internal/core/port"
)

const DEFAULT_UNIT_CAPACITY_WATT = 1000

// PresetRegistry is built once and never mutated, so one instance can back any
// number of engines.
type PresetRegistry struct {
	presets map[string]domain.Preset
}

func NewPresetRegistry(presets ...domain.Preset) *PresetRegistry {
	m := make(map[string]domain.Preset, len(presets))
	for _, p := range presets {
		m[p.Name] = p
	}
	return &PresetRegistry{presets: m}
}

func DefaultPresetRegistry() *PresetRegistry {
	return NewPresetRegistry(
		domain.Preset{Name: domain.PRESET_BASIC, MaxStorageUnits: 2, UnitCapacityWatt: DEFAULT_UNIT_CAPACITY_WATT},
		domain.Preset{Name: domain.PRESET_STANDARD, MaxStorageUnits: 3, UnitCapacityWatt: DEFAULT_UNIT_CAPACITY_WATT},
		domain.Preset{Name: domain.PRESET_PRO, MaxStorageUnits: 5, UnitCapacityWatt: DEFAULT_UNIT_CAPACITY_WATT},
	)
}

func (r *PresetRegistry) Get(name string) (domain.Preset, error) {
	p, ok := r.presets[name]
	if !ok {
		return domain.Preset{}, &domain.ConfigurationNotFoundError{Name: name}
	}
	return p, nil
}

func (r *PresetRegistry) Names() []string {
	names := make([]string, 0, len(r.presets))
	for name := range r.presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ensure interface compliance
var _ port.PresetRegistry = (*PresetRegistry)(nil)
