package events

import (
	"testing"

	"github.com/berfenger/sundispatch/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecisionToUpdateEvents(t *testing.T) {
	require := require.New(t)

	evs := DecisionToUpdateEvents(domain.PRESET_STANDARD, domain.Decision{
		Action:        domain.ActionChargeBattery,
		Snapshot:      domain.StateSnapshot{BatteryCharge: 1500},
		CurtailedWatt: 2000,
	})
	require.Len(evs, 10)

	byId := map[string]any{}
	for _, ev := range evs {
		sensorEv, ok := ev.(domain.SensorUpdateEvent)
		require.True(ok)
		byId[sensorEv.SensorId()] = ev
	}

	require.Equal("charge_battery", byId[SENSOR_ID_DISPATCH_ACTION].(domain.TextSensorUpdateEvent).Value)
	require.Equal(domain.PRESET_STANDARD, byId[SENSOR_ID_DISPATCH_PRESET].(domain.TextSensorUpdateEvent).Value)
	require.Equal(1500.0, byId[SENSOR_ID_BATTERY_CHARGE].(domain.FloatSensorUpdateEvent).Value)
	require.Equal(2000.0, byId[SENSOR_ID_CURTAILED_POWER].(domain.FloatSensorUpdateEvent).Value)
	require.Equal(0.0, byId[SENSOR_ID_UNMET_POWER].(domain.FloatSensorUpdateEvent).Value)
}

func TestReadingToUpdateEvents(t *testing.T) {
	assert.Empty(t, ReadingToUpdateEvents(nil))
	evs := ReadingToUpdateEvents(&domain.Reading{PVOutputWatt: 1, HouseConsumptionWatt: 2, BatteryLevelPercent: 3})
	assert.Len(t, evs, 3)
}

func TestDispatchSensors(t *testing.T) {
	device := BridgeDevice("sundispatch")
	sensors := DispatchSensors(device)
	require.Len(t, sensors, 10)

	// full device block only on the first sensor
	assert.Equal(t, device, sensors[0].Device)
	ids := map[string]bool{}
	for i, s := range sensors {
		if i > 0 {
			assert.Equal(t, IdDevice(device), s.Device)
		}
		assert.False(t, ids[s.UniqueId], "duplicated unique id %s", s.UniqueId)
		ids[s.UniqueId] = true
	}

	buttons := DispatchButtons(device)
	require.Len(t, buttons, 1)
	assert.Equal(t, BUTTON_ID_RESET, buttons[0].Id)
}

func TestDispatchDevice(t *testing.T) {
	preset := domain.Preset{Name: domain.PRESET_STANDARD, MaxStorageUnits: 3, UnitCapacityWatt: 1000}
	device := DispatchDevice("sundispatch", preset)
	bridge := BridgeDevice("sundispatch")

	assert.Equal(t, "Standard (3 x 1000 W)", device.Model)
	assert.Equal(t, bridge.Id, device.ViaDevice)
	assert.NotEqual(t, bridge.Id, device.Id)
}
