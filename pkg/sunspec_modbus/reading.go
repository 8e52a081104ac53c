package sunspec_modbus

import (
	"errors"
	"math"
)

// PowerReading holds the site quantities a dispatcher works on.
type PowerReading struct {
	PVPowerWatt    float64
	HousePowerWatt float64
	StateOfCharge  float64
}

// HousePowerWatt derives the house load from inverter AC output plus meter import.
func HousePowerWatt(inv *InverterPowerFlow, meter *ACMeterPowerFlow) float64 {
	return inv.ACPowerWatt + meter.CurrentPowerFlowWatt
}

// ReadPowerReading takes one sample from both devices. Negative PV and house
// values caused by measurement skew are reported as zero. Without a connected
// storage the state of charge is zero.
func ReadPowerReading(inv InverterModbusReader, meter ACMeterModbusReader) (*PowerReading, error) {
	if inv == nil || meter == nil {
		return nil, errors.New("sunspec: inverter and ac meter readers are required")
	}
	invFlow, err := inv.GetPowerFlow()
	if err != nil {
		return nil, err
	}
	meterFlow, err := meter.GetPowerFlow()
	if err != nil {
		return nil, err
	}
	var soc float64 = 0
	hasStorage, err := inv.HasStorage()
	if err != nil {
		return nil, err
	}
	if hasStorage {
		storage, err := inv.GetStorageState()
		if err != nil {
			return nil, err
		}
		soc = storage.StateOfCharge
	}
	return &PowerReading{
		PVPowerWatt:    math.Max(0, invFlow.PVPowerWatt),
		HousePowerWatt: math.Max(0, HousePowerWatt(invFlow, meterFlow)),
		StateOfCharge:  math.Min(100, math.Max(0, soc)),
	}, nil
}
