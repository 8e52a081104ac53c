package domain

type SnapshotMode string

const (
	// Each dispatch only overwrites the fields its action names. Everything else
	// keeps the value it had after construction, reset or an earlier dispatch.
	SnapshotModeRetain SnapshotMode = "retain"
	// Each successful dispatch starts from zero and records the reading fields too.
	SnapshotModeFresh SnapshotMode = "fresh"
)

func ParseSnapshotMode(s string) (SnapshotMode, bool) {
	switch SnapshotMode(s) {
	case SnapshotModeRetain, SnapshotModeFresh:
		return SnapshotMode(s), true
	default:
		return "", false
	}
}

// StateSnapshot is the engine's output record.
//
// GridUse is signed: positive exports to the grid, negative imports from it.
// In retain mode the reading fields are never written by a dispatch.
type StateSnapshot struct {
	PVOutput         float64 `json:"pv_output"`
	HouseConsumption float64 `json:"house_consumption"`
	BatteryLevel     float64 `json:"battery_level"`
	GridUse          float64 `json:"grid_use"`
	BatteryCharge    float64 `json:"battery_charge"`
	BatteryDischarge float64 `json:"battery_discharge"`
}
