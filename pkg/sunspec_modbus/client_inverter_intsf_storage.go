package sunspec_modbus

import (
	"errors"
	"math"

	"github.com/simonvetter/modbus"
)

var ErrStorageNotSupported = errors.New("sunspec: storage block not supported")

// HasStorage reports a battery only when the status model flags it as
// connected and the inverter exposes model 124.
func (inv InverterIntSFModbusReader) HasStorage() (bool, error) {
	storageConn, err := inv.readRegister(inv.blocks.status+3, modbus.HOLDING_REGISTER)
	if err != nil {
		return false, err
	}
	return storageConn&0x0001 != 0 && inv.blocks.storage > 0, nil
}

func (inv InverterIntSFModbusReader) GetStorageState() (*StorageState, error) {
	if inv.blocks.storage == 0 {
		return nil, ErrStorageNotSupported
	}
	regs, err := inv.readRegisters(inv.blocks.storage+2, 24, modbus.HOLDING_REGISTER)
	if err != nil {
		return nil, err
	}
	status := ChargeStatus(regs[9])
	var soc float64
	// an idle battery keeps reporting its last SoC
	if status != ChargeStatusOff {
		soc = inv.applySF(regs[6], regs[20])
	}
	return &StorageState{
		StateOfCharge: soc,
		CapacityWatt:  uint32(math.Round(inv.applySF(regs[0], regs[17]))),
		Status:        status,
	}, nil
}
