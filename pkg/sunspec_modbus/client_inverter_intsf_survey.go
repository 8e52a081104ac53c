package sunspec_modbus

import (
	"errors"
	"fmt"

	"github.com/simonvetter/modbus"
)

const (
	SUNSPEC_WK_COMMON        = 1
	SUNSPEC_WK_INVERTERS_MIN = 101
	SUNSPEC_WK_INVERTERS_MAX = 103
	SUNSPEC_WK_STATUS        = 122
	SUNSPEC_WK_CONTROLS      = 123
	SUNSPEC_WK_STORAGE       = 124
	SUNSPEC_WK_MPPT          = 160
	SUNSPEC_END_BLOCK        = 0xFFFF
	SUNSPEC_BASE_ADDR        = 40000
)

type inverterIntSFModbusBlocks struct {
	common   uint16
	inverter uint16
	controls uint16
	status   uint16
	mppt     uint16
	storage  uint16
}

func (blk *inverterIntSFModbusBlocks) AllBlocksDefined() bool {
	return blk.common > 0 && blk.inverter > 0 && blk.controls > 0 &&
		blk.status > 0 && blk.mppt > 0 && blk.storage > 0
}

func (blk *inverterIntSFModbusBlocks) RequiredBlocksDefined() bool {
	return blk.common > 0 && blk.inverter > 0 && blk.status > 0 && blk.mppt > 0
}

func (inv *InverterIntSFModbusReader) survey() error {
	blocks := inverterIntSFModbusBlocks{}
	err := surveyBlocks(inv.client, "inverter", 20, func(block *modbusBlock) bool {
		if block.id >= SUNSPEC_WK_INVERTERS_MIN && block.id <= SUNSPEC_WK_INVERTERS_MAX {
			blocks.inverter = block.baseAddr
			return blocks.AllBlocksDefined()
		}
		switch block.id {
		case SUNSPEC_WK_COMMON:
			blocks.common = block.baseAddr
		case SUNSPEC_WK_STATUS:
			blocks.status = block.baseAddr
		case SUNSPEC_WK_CONTROLS:
			blocks.controls = block.baseAddr
		case SUNSPEC_WK_STORAGE:
			blocks.storage = block.baseAddr
		case SUNSPEC_WK_MPPT:
			blocks.mppt = block.baseAddr
		}
		return blocks.AllBlocksDefined()
	})
	if err != nil {
		return err
	}
	if !blocks.RequiredBlocksDefined() {
		return errors.New("could not find all required sunspec blocks (common, inverter, status, mppt)")
	}
	inv.blocks = blocks
	return nil
}

type modbusBlock struct {
	id       uint16
	baseAddr uint16
	length   uint16
}

func (block *modbusBlock) isEndBlock() bool {
	return block.id == SUNSPEC_END_BLOCK
}

// surveyBlocks walks the SunSpec model chain handing each block to visit until
// visit returns true, the end block is reached or maxBlocks were read.
func surveyBlocks(client *modbus.ModbusClient, device string, maxBlocks int, visit func(block *modbusBlock) bool) error {
	str, err := readModbusString(client, SUNSPEC_BASE_ADDR, 4)
	if err != nil {
		return err
	}
	if str != "SunS" {
		return fmt.Errorf("could not find a SunSpec %s", device)
	}
	baseAddr := uint16(SUNSPEC_BASE_ADDR + 2)
	for n := 0; n <= maxBlocks; n++ {
		block, err := surveyModbusBlock(client, baseAddr)
		if err != nil {
			return err
		}
		if block.isEndBlock() || visit(block) {
			return nil
		}
		baseAddr = baseAddr + block.length + 2
	}
	return nil
}

func surveyModbusBlock(client *modbus.ModbusClient, baseAddr uint16) (*modbusBlock, error) {
	header, err := client.ReadRegisters(baseAddr, 2, modbus.HOLDING_REGISTER)
	if err != nil {
		return nil, err
	}
	return &modbusBlock{
		id:       header[0],
		length:   header[1],
		baseAddr: baseAddr,
	}, nil
}
