package domain

const (
	PRESET_BASIC    = "Basic"
	PRESET_STANDARD = "Standard"
	PRESET_PRO      = "Pro"
)

// Preset bounds the battery capacity the engine dispatches against.
type Preset struct {
	Name             string  `json:"name"`
	MaxStorageUnits  uint    `json:"max_storage_units"`
	UnitCapacityWatt float64 `json:"unit_capacity_watt"`
}

func (p Preset) TotalCapacityWatt() float64 {
	return float64(p.MaxStorageUnits) * p.UnitCapacityWatt
}
