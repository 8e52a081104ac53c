package sunspec_modbus

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/simonvetter/modbus"
)

type ModbusClient struct {
	client     *modbus.ModbusClient
	instrument []ModbusInstrument
}

type ModbusInstrument struct {
	RecordTime func(fnName string, readTime time.Duration)
}

func (reader ModbusClient) readString(address uint16, size uint16) (string, error) {
	defer RecordTimer("ReadString", reader.instrument)()
	return readModbusString(reader.client, address, size)
}

func readModbusString(client *modbus.ModbusClient, address uint16, size uint16) (string, error) {
	bytes, err := client.ReadRawBytes(address, size, modbus.HOLDING_REGISTER)
	if err != nil {
		return "", err
	}
	if f := slices.Index(bytes, 0x00); f >= 0 {
		return string(bytes[:f]), nil
	}
	return string(bytes), nil
}

// commonBlock is the identification part of SunSpec model 1.
type commonBlock struct {
	manufacturer string
	model        string
	version      string
	serial       string
}

func (reader ModbusClient) readCommonBlock(base uint16) (*commonBlock, error) {
	var common commonBlock
	fields := []struct {
		offset uint16
		size   uint16
		dst    *string
	}{
		{2, 32, &common.manufacturer},
		{18, 32, &common.model},
		{42, 16, &common.version},
		{50, 32, &common.serial},
	}
	for _, f := range fields {
		str, err := reader.readString(base+f.offset, f.size)
		if err != nil {
			return nil, err
		}
		*f.dst = str
	}
	return &common, nil
}

func (reader ModbusClient) expectManufacturer(base uint16, manufacturer string) error {
	str, err := reader.readString(base+2, 32)
	if err != nil {
		return err
	}
	if str != manufacturer {
		return fmt.Errorf("unexpected manufacturer %q, want %s", str, manufacturer)
	}
	return nil
}

func (reader ModbusClient) applySF(number uint16, sf uint16) float64 {
	return float64(number) * math.Pow(10, float64(int16(sf)))
}

func (reader ModbusClient) applySFint16(number int16, sf uint16) float64 {
	return float64(number) * math.Pow(10, float64(int16(sf)))
}

func (reader ModbusClient) readRegister(addr uint16, regType modbus.RegType) (uint16, error) {
	defer RecordTimer("ReadRegister", reader.instrument)()
	return reader.client.ReadRegister(addr, regType)
}

func (reader ModbusClient) readRegisters(addr uint16, quantity uint16, regType modbus.RegType) ([]uint16, error) {
	defer RecordTimer("ReadRegisters", reader.instrument)()
	return reader.client.ReadRegisters(addr, quantity, regType)
}

func RecordTimer(name string, instrument []ModbusInstrument) func() {
	if instrument == nil {
		return func() {}
	}

	start := time.Now()
	return func() {
		duration := time.Since(start)
		for i := range instrument {
			instrument[i].RecordTime(name, duration)
		}
	}
}
