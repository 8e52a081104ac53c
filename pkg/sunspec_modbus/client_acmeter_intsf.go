package sunspec_modbus

import (
	"errors"
	"fmt"
	"time"

	"github.com/simonvetter/modbus"
	"go.uber.org/zap"
)

type acMeterIntSFModbusBlocks struct {
	common  uint16
	acMeter uint16
}

func (blk *acMeterIntSFModbusBlocks) AllBlocksDefined() bool {
	return blk.common > 0 && blk.acMeter > 0
}

// ACMeterIntSFModbusReader reads the grid meter (SunSpec models 201-204) behind the inverter.
type ACMeterIntSFModbusReader struct {
	ModbusClient
	blocks        acMeterIntSFModbusBlocks
	ignoreFronius bool
}

func CreateACMeterIntSFModbusReader(ip string, port uint, acMeterAddress uint8, timeout time.Duration,
	ignoreFronius bool, logger *zap.Logger, instrumentation *ModbusInstrument) (ACMeterModbusReader, error) {
	client, err := modbus.NewClient(&modbus.ClientConfiguration{
		URL:     fmt.Sprintf("tcp://%s:%d", ip, port),
		Timeout: timeout,
	})
	if err != nil {
		return nil, err
	}
	if err := client.SetUnitId(acMeterAddress); err != nil {
		return nil, err
	}
	inst := []ModbusInstrument{*traceLoggerInstrumentation(logger.With(zap.String("target", "acMeter"), zap.Uint8("acMeter", acMeterAddress)))}
	if instrumentation != nil {
		inst = append(inst, *instrumentation)
	}
	return &ACMeterIntSFModbusReader{
		ModbusClient: ModbusClient{
			client:     client,
			instrument: inst,
		},
		ignoreFronius: ignoreFronius,
	}, nil
}

func (reader *ACMeterIntSFModbusReader) Open() error {
	if err := reader.client.Open(); err != nil {
		return err
	}
	blocks := acMeterIntSFModbusBlocks{}
	err := surveyBlocks(reader.client, "smart meter", 10, func(block *modbusBlock) bool {
		switch block.id {
		case SUNSPEC_WK_COMMON:
			blocks.common = block.baseAddr
		case 201, 202, 203, 204:
			blocks.acMeter = block.baseAddr
		}
		return blocks.AllBlocksDefined()
	})
	if err != nil {
		return err
	}
	if !blocks.AllBlocksDefined() {
		return errors.New("could not find all required sunspec blocks (common, ac_meter)")
	}
	reader.blocks = blocks
	return nil
}

func (reader ACMeterIntSFModbusReader) Close() error {
	return reader.client.Close()
}

func (reader ACMeterIntSFModbusReader) Validate() error {
	if reader.ignoreFronius {
		return nil
	}
	return reader.expectManufacturer(reader.blocks.common, "Fronius")
}

func (reader ACMeterIntSFModbusReader) GetInfo() (*ACMeterInfo, error) {
	common, err := reader.readCommonBlock(reader.blocks.common)
	if err != nil {
		return nil, err
	}
	return &ACMeterInfo{
		Manufacturer: common.manufacturer,
		Model:        common.model,
		Version:      common.version,
		Serial:       common.serial,
	}, nil
}

func (reader ACMeterIntSFModbusReader) GetPowerFlow() (*ACMeterPowerFlow, error) {
	defer RecordTimer("acmeter.GetPowerFlow", reader.instrument)()
	// W and W_SF
	totalRealPower, err := reader.readRegister(reader.blocks.acMeter+18, modbus.HOLDING_REGISTER)
	if err != nil {
		return nil, err
	}
	totalRealPowerSF, err := reader.readRegister(reader.blocks.acMeter+22, modbus.HOLDING_REGISTER)
	if err != nil {
		return nil, err
	}
	return NewACMeterPowerFlow(reader.applySFint16(int16(totalRealPower), totalRealPowerSF)), nil
}
