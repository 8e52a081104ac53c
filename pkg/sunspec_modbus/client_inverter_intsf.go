package sunspec_modbus

import (
	"fmt"
	"time"

	"github.com/simonvetter/modbus"
	"go.uber.org/zap"
)

type InverterIntSFModbusReader struct {
	ModbusClient

	logger        *zap.Logger
	blocks        inverterIntSFModbusBlocks
	ignoreFronius bool
}

func (inv *InverterIntSFModbusReader) Open() error {
	if err := inv.client.Open(); err != nil {
		return err
	}
	if err := inv.survey(); err != nil {
		return err
	}
	return nil
}

func (inv InverterIntSFModbusReader) Close() error {
	return inv.client.Close()
}

func (inv InverterIntSFModbusReader) Validate() error {
	if inv.ignoreFronius {
		return nil
	}
	return inv.expectManufacturer(inv.blocks.common, "Fronius")
}

func (inv InverterIntSFModbusReader) GetInfo() (*InverterInfo, error) {
	common, err := inv.readCommonBlock(inv.blocks.common)
	if err != nil {
		return nil, err
	}
	pow, err := inv.readRegister(inv.blocks.inverter+82, modbus.HOLDING_REGISTER)
	if err != nil {
		return nil, err
	}
	powSF, err := inv.readRegister(inv.blocks.inverter+102, modbus.HOLDING_REGISTER)
	if err != nil {
		return nil, err
	}
	hasStorage, err := inv.HasStorage()
	if err != nil {
		return nil, err
	}

	return &InverterInfo{
		Manufacturer:      common.manufacturer,
		Model:             common.model,
		Version:           common.version,
		Serial:            common.serial,
		MaxRatedPowerWatt: uint32(inv.applySF(pow, powSF)),
		HasStorage:        hasStorage,
	}, nil
}

func (inv InverterIntSFModbusReader) GetPowerFlow() (*InverterPowerFlow, error) {
	// ac power
	acpower, err := inv.readRegisters(inv.blocks.inverter+14, 2, modbus.HOLDING_REGISTER)
	if err != nil {
		return nil, err
	}
	// dc power sf
	dcPowerSF, err := inv.readRegister(inv.blocks.mppt+4, modbus.HOLDING_REGISTER)
	if err != nil {
		return nil, err
	}
	nMods, err := inv.readRegister(inv.blocks.mppt+8, modbus.HOLDING_REGISTER)
	if err != nil {
		return nil, err
	}
	// 3 and 4 modules mean the last two carry battery charge and discharge
	pvMods, hasBattery := nMods, nMods >= 3
	if hasBattery {
		pvMods = nMods - 2
	}
	var pvPower, chargeDCPower, dischargeDCPower float64
	for i := uint16(0); i < pvMods; i++ {
		raw, err := inv.readMPPTPower(uint8(i))
		if err != nil {
			return nil, err
		}
		pvPower += inv.applySF(raw, dcPowerSF)
	}
	if hasBattery {
		chargeRaw, err := inv.readMPPTPower(uint8(nMods - 2))
		if err != nil {
			return nil, err
		}
		dischargeRaw, err := inv.readMPPTPower(uint8(nMods - 1))
		if err != nil {
			return nil, err
		}
		chargeDCPower = inv.applySF(chargeRaw, dcPowerSF)
		dischargeDCPower = inv.applySF(dischargeRaw, dcPowerSF)
	}

	return &InverterPowerFlow{
		ACPowerWatt:      inv.applySFint16(int16(acpower[0]), acpower[1]),
		PVPowerWatt:      pvPower,
		BatteryPowerWatt: dischargeDCPower - chargeDCPower,
	}, nil
}

func (inv InverterIntSFModbusReader) readMPPTPower(index uint8) (uint16, error) {
	baseAddr := uint16(inv.blocks.mppt + 10 + 20*uint16(index))
	// dc power
	dcpower, err := inv.readRegister(baseAddr+11, modbus.HOLDING_REGISTER)
	if err != nil {
		return 0, err
	}
	if int16(dcpower) == -1 {
		dcpower = 0
	}
	return dcpower, nil
}

func traceLoggerInstrumentation(logger *zap.Logger) *ModbusInstrument {
	return &ModbusInstrument{
		RecordTime: func(fnName string, readTime time.Duration) {
			logger.Debug("modbus read", zap.String("fn", fnName), zap.Int64("millis", readTime.Milliseconds()))
		},
	}
}

func CreateInverterIntSFModbusReader(ip string, port uint, inverterAddress uint8, timeout time.Duration,
	ignoreFronius bool, logger *zap.Logger, instrumentation *ModbusInstrument) (InverterModbusReader, error) {
	client, err := modbus.NewClient(&modbus.ClientConfiguration{
		URL:     fmt.Sprintf("tcp://%s:%d", ip, port),
		Timeout: timeout,
	})
	if err != nil {
		return nil, err
	}

	// instrumentation
	var inst []ModbusInstrument
	logInst := traceLoggerInstrumentation(logger.With(zap.String("target", "inverter"), zap.Uint8("inverter", inverterAddress)))
	if logInst != nil {
		inst = append(inst, *logInst)
	}
	if instrumentation != nil {
		inst = append(inst, *instrumentation)
	}

	// set inverter address
	if inverterAddress > 0 {
		err = client.SetUnitId(inverterAddress)
		if err != nil {
			return nil, err
		}
	}

	// create reader instance
	fron := InverterIntSFModbusReader{
		ModbusClient: ModbusClient{
			client:     client,
			instrument: inst,
		},
		logger:        logger,
		ignoreFronius: ignoreFronius,
	}
	return &fron, nil
}
