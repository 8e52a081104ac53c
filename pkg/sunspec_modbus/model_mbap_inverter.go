package sunspec_modbus

import (
	"fmt"
)

// ChargeStatus is the ChaSt point of SunSpec model 124.
type ChargeStatus uint16

const (
	ChargeStatusOff ChargeStatus = iota + 1
	ChargeStatusEmpty
	ChargeStatusDischarging
	ChargeStatusCharging
	ChargeStatusFull
	ChargeStatusHolding
	ChargeStatusTest
)

var chargeStatusNames = map[ChargeStatus]string{
	ChargeStatusOff:         "off",
	ChargeStatusEmpty:       "empty",
	ChargeStatusDischarging: "discharging",
	ChargeStatusCharging:    "charging",
	ChargeStatusFull:        "full",
	ChargeStatusHolding:     "holding",
	ChargeStatusTest:        "test",
}

func (s ChargeStatus) String() string {
	if name, ok := chargeStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint16(s))
}

type InverterInfo struct {
	Manufacturer      string
	Model             string
	Version           string
	Serial            string
	MaxRatedPowerWatt uint32
	HasStorage        bool
}

// InverterPowerFlow is one sample of the inverter side. BatteryPowerWatt is
// positive while discharging and negative while charging.
type InverterPowerFlow struct {
	ACPowerWatt      float64
	PVPowerWatt      float64
	BatteryPowerWatt float64
}

type StorageState struct {
	StateOfCharge float64
	CapacityWatt  uint32
	Status        ChargeStatus
}

type InverterModbusReader interface {
	Open() error
	Close() error
	Validate() error
	GetInfo() (*InverterInfo, error)
	GetPowerFlow() (*InverterPowerFlow, error)
	HasStorage() (bool, error)
	GetStorageState() (*StorageState, error)
}
