package domain

const (
	// sanity cap applied to both power inputs, independent of preset capacity
	MAX_POWER_WATT      = 100000
	MAX_BATTERY_PERCENT = 100
)

const (
	READING_FIELD_PV_OUTPUT         = "pv_output"
	READING_FIELD_HOUSE_CONSUMPTION = "house_consumption"
	READING_FIELD_BATTERY_LEVEL     = "battery_level"
)

// Reading is one instantaneous sample. Power in watts, battery level in percent.
type Reading struct {
	PVOutputWatt         float64 `json:"pv_output"`
	HouseConsumptionWatt float64 `json:"house_consumption"`
	BatteryLevelPercent  float64 `json:"battery_level"`
}
