package events

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	. "github.com/berfenger/sundispatch/internal/core/domain"
	"github.com/berfenger/sundispatch/pkg/sunspec_modbus"
	"github.com/carlmjohnson/versioninfo"
)

const (
	SENSOR_ID_BRIDGE_STATE       = "bridge"
	SENSOR_ID_PV_OUTPUT          = "pv_output"
	SENSOR_ID_HOUSE_CONSUMPTION  = "house_consumption"
	SENSOR_ID_BATTERY_LEVEL      = "battery_level"
	SENSOR_ID_GRID_USE           = "grid_use"
	SENSOR_ID_BATTERY_CHARGE     = "battery_charge"
	SENSOR_ID_BATTERY_DISCHARGE  = "battery_discharge"
	SENSOR_ID_DISPATCH_ACTION    = "dispatch_action"
	SENSOR_ID_DISPATCH_PRESET    = "dispatch_preset"
	SENSOR_ID_CURTAILED_POWER    = "curtailed_power"
	SENSOR_ID_UNMET_POWER        = "unmet_power"
	SENSOR_ID_INVERTER_PV_POWER  = "inverter_pv_power"
	SENSOR_ID_HOUSE_POWER        = "house_power"
	SENSOR_ID_BATTERY_SOC        = "battery_soc"
	BUTTON_ID_RESET              = "reset"
	STATE_CLASS_MEASUREMENT      = "measurement"
	DEVICE_CLASS_BATTERY         = "battery"
	DEVICE_CLASS_ENUM            = "enum"
	DEVICE_CLASS_POWER           = "power"
	DEVICE_CLASS_CONNECTIVITY    = "connectivity"
	ENTITY_CLASS_DIAGNOSTIC      = "diagnostic"
	ENTITY_CLASS_CONFIG          = "config"
	SENSOR_TYPE_SENSOR           = "sensor"
	SENSOR_TYPE_BINARY           = "binary_sensor"
	UNIT_WATT                    = "W"
	UNIT_PERCENT                 = "%"
)

func BridgeDevice(baseTopic string) Device {
	return Device{
		Id:           fmt.Sprintf("sundispatch_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "ACasal",
		Model:        "Sundispatch",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("Sundispatch %s", md5HashShort(baseTopic)),
	}
}

// DispatchDevice groups the engine sensors under the bridge. The preset is shown as model.
func DispatchDevice(baseTopic string, preset Preset) Device {
	return Device{
		Id:           fmt.Sprintf("sundispatch_engine_%s", md5HashShort(baseTopic)),
		Manufacturer: "ACasal",
		Model:        fmt.Sprintf("%s (%d x %.0f W)", preset.Name, preset.MaxStorageUnits, preset.UnitCapacityWatt),
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("Sundispatch engine %s", md5HashShort(baseTopic)),
		ViaDevice:    fmt.Sprintf("sundispatch_bridge_%s", md5HashShort(baseTopic)),
	}
}

func InverterDevice(info *sunspec_modbus.InverterInfo) Device {
	return Device{
		Id:           fmt.Sprintf("sdp_inverter_%s", md5HashShort(info.Serial)),
		Version:      info.Version,
		Manufacturer: info.Manufacturer,
		Model:        info.Model,
		Name:         fmt.Sprintf("%s %s %s", info.Manufacturer, info.Model, md5HashShort(info.Serial)),
	}
}

func IdDevice(device Device) Device {
	return Device{
		Id:   device.Id,
		Name: device.Name,
	}
}

func BridgeSensors(bridgeDevice Device) []GenericSensor {
	return []GenericSensor{{
		Device:         bridgeDevice,
		Id:             SENSOR_ID_BRIDGE_STATE,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Connection state",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
	}}
}

// DispatchSensors describes the engine output. Only the first sensor carries the
// full device block; the rest reference it by id.
func DispatchSensors(device Device) []GenericSensor {
	var sensors []GenericSensor

	powerSensor := func(id, name, icon string) GenericSensor {
		return GenericSensor{
			Device:            IdDevice(device),
			Id:                id,
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              name,
			StateClass:        STATE_CLASS_MEASUREMENT,
			DeviceClass:       DEVICE_CLASS_POWER,
			UnitOfMeasurement: UNIT_WATT,
			UniqueId:          uniqueId(device.Id, id),
			Icon:              icon,
		}
	}

	sensors = append(sensors, GenericSensor{
		Device:     device,
		Id:         SENSOR_ID_DISPATCH_ACTION,
		SensorType: SENSOR_TYPE_SENSOR,
		Name:       "Dispatch action",
		UniqueId:   uniqueId(device.Id, SENSOR_ID_DISPATCH_ACTION),
		Icon:       "mdi:transmission-tower-export",
	})
	sensors = append(sensors, GenericSensor{
		Device:         IdDevice(device),
		Id:             SENSOR_ID_DISPATCH_PRESET,
		SensorType:     SENSOR_TYPE_SENSOR,
		Name:           "Dispatch preset",
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(device.Id, SENSOR_ID_DISPATCH_PRESET),
		Icon:           "mdi:battery-high",
	})

	sensors = append(sensors, powerSensor(SENSOR_ID_PV_OUTPUT, "PV output", "mdi:solar-power"))
	sensors = append(sensors, powerSensor(SENSOR_ID_HOUSE_CONSUMPTION, "House consumption", "mdi:home-lightning-bolt"))
	sensors = append(sensors, GenericSensor{
		Device:            IdDevice(device),
		Id:                SENSOR_ID_BATTERY_LEVEL,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Battery level",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_BATTERY,
		UnitOfMeasurement: UNIT_PERCENT,
		UniqueId:          uniqueId(device.Id, SENSOR_ID_BATTERY_LEVEL),
	})
	sensors = append(sensors, powerSensor(SENSOR_ID_GRID_USE, "Grid use", "mdi:transmission-tower"))
	sensors = append(sensors, powerSensor(SENSOR_ID_BATTERY_CHARGE, "Battery charge", "mdi:battery-plus"))
	sensors = append(sensors, powerSensor(SENSOR_ID_BATTERY_DISCHARGE, "Battery discharge", "mdi:battery-minus"))

	curtailed := powerSensor(SENSOR_ID_CURTAILED_POWER, "Curtailed power", "mdi:solar-power-variant-outline")
	curtailed.EntityCategory = ENTITY_CLASS_DIAGNOSTIC
	curtailed.EnabledByDefault = optionalBool(false)
	sensors = append(sensors, curtailed)

	unmet := powerSensor(SENSOR_ID_UNMET_POWER, "Unmet power", "mdi:flash-alert")
	unmet.EntityCategory = ENTITY_CLASS_DIAGNOSTIC
	unmet.EnabledByDefault = optionalBool(false)
	sensors = append(sensors, unmet)

	return sensors
}

func TelemetrySensors(inverterDevice Device) []GenericSensor {

	var sensors []GenericSensor

	// Inverter PV Power
	sensors = append(sensors, GenericSensor{
		Device:            inverterDevice,
		Id:                SENSOR_ID_INVERTER_PV_POWER,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Inverter PV power",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_POWER,
		UnitOfMeasurement: UNIT_WATT,
		UniqueId:          uniqueId(inverterDevice.Id, SENSOR_ID_INVERTER_PV_POWER),
	})

	// House Power
	sensors = append(sensors, GenericSensor{
		Device:            IdDevice(inverterDevice),
		Id:                SENSOR_ID_HOUSE_POWER,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "House power",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_POWER,
		UnitOfMeasurement: UNIT_WATT,
		UniqueId:          uniqueId(inverterDevice.Id, SENSOR_ID_HOUSE_POWER),
	})

	// Battery SoC
	sensors = append(sensors, GenericSensor{
		Device:            IdDevice(inverterDevice),
		Id:                SENSOR_ID_BATTERY_SOC,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Battery SoC",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_BATTERY,
		UnitOfMeasurement: UNIT_PERCENT,
		UniqueId:          uniqueId(inverterDevice.Id, SENSOR_ID_BATTERY_SOC),
	})

	return sensors
}

func DispatchButtons(device Device) []GenericButton {
	return []GenericButton{{
		Device:   IdDevice(device),
		Id:       BUTTON_ID_RESET,
		Name:     "Reset dispatch state",
		UniqueId: uniqueId(device.Id, BUTTON_ID_RESET),
		Icon:     "mdi:restart",
	}}
}

func uniqueId(baseId, id string) string {
	return fmt.Sprintf("uid_%s_%s", baseId, id)
}

func md5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}

func md5HashShort(text string) string {
	hash := md5Hash(text)
	return hash[0:8]
}

func optionalBool(value bool) *bool {
	return &value
}
