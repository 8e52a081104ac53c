package events

import (
	. "github.com/berfenger/sundispatch/internal/core/domain"
)

func DecisionToUpdateEvents(preset string, d Decision) []any {
	var events []any

	events = append(events, TextSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_DISPATCH_ACTION,
		},
		Value: d.Action.String(),
	})
	events = append(events, TextSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_DISPATCH_PRESET,
		},
		Value: preset,
	})
	events = append(events, SnapshotToUpdateEvents(d.Snapshot)...)
	// Clipped flows
	events = append(events, floatEvent(SENSOR_ID_CURTAILED_POWER, d.CurtailedWatt, 2))
	events = append(events, floatEvent(SENSOR_ID_UNMET_POWER, d.UnmetWatt, 2))

	return events
}

func SnapshotToUpdateEvents(s StateSnapshot) []any {
	return []any{
		floatEvent(SENSOR_ID_PV_OUTPUT, s.PVOutput, 2),
		floatEvent(SENSOR_ID_HOUSE_CONSUMPTION, s.HouseConsumption, 2),
		floatEvent(SENSOR_ID_BATTERY_LEVEL, s.BatteryLevel, 1),
		floatEvent(SENSOR_ID_GRID_USE, s.GridUse, 2),
		floatEvent(SENSOR_ID_BATTERY_CHARGE, s.BatteryCharge, 2),
		floatEvent(SENSOR_ID_BATTERY_DISCHARGE, s.BatteryDischarge, 2),
	}
}

// ReadingToUpdateEvents reports the raw telemetry before the engine sees it.
func ReadingToUpdateEvents(r *Reading) []any {
	var events []any
	if r == nil {
		return events
	}
	events = append(events, floatEvent(SENSOR_ID_INVERTER_PV_POWER, r.PVOutputWatt, 2))
	events = append(events, floatEvent(SENSOR_ID_HOUSE_POWER, r.HouseConsumptionWatt, 2))
	events = append(events, floatEvent(SENSOR_ID_BATTERY_SOC, r.BatteryLevelPercent, 2))
	return events
}

func floatEvent(id string, value float64, decimals uint) FloatSensorUpdateEvent {
	return FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: id,
		},
		Value:    value,
		Decimals: decimals,
	}
}
