package sunspec_modbus

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	USE_MOCKED_READER = true
)

func TestCapabilities(t *testing.T) {

	reader := InverterReader()

	err := reader.Open()
	if err != nil {
		t.Error(err)
	}

	st, err := reader.HasStorage()
	if err != nil {
		t.Error(err)
	}
	fmt.Printf("Has storage: %v\n", st)
}

func TestInfoInverter(t *testing.T) {

	reader := InverterReader()

	err := reader.Open()
	if err != nil {
		t.Error(err)
	}
	err = reader.Validate()
	if err != nil {
		t.Error(err)
	}

	nfo, err := reader.GetInfo()
	if err != nil {
		t.Error(err)
	}
	fmt.Printf("Inverter Info: %+v\n", nfo)
}

func TestMeter(t *testing.T) {

	reader := ACMeterReader()

	err := reader.Open()
	if err != nil {
		t.Error(err)
		return
	}
	err = reader.Validate()
	if err != nil {
		t.Error(err)
		return
	}

	info, err := reader.GetInfo()
	if err != nil {
		t.Error(err)
		return
	}
	fmt.Printf("Meter info: %+v\n", info)

	power, err := reader.GetPowerFlow()
	if err != nil {
		t.Error(err)
		return
	}
	fmt.Printf("Meter power flow: %+v\n", power)
}

func TestStorageState(t *testing.T) {

	reader := InverterReader()

	err := reader.Open()
	if err != nil {
		t.Error(err)
		return
	}

	stState, err := reader.GetStorageState()
	if err != nil {
		t.Error(err)
		return
	}
	fmt.Printf("Storage State: %+v\n", stState)

	flow, err := reader.GetPowerFlow()
	if err != nil {
		t.Error(err)
		return
	}
	fmt.Printf("Inverter Power Flow: %+v\n", flow)
}

func TestReadPowerReading(t *testing.T) {
	require := require.New(t)

	reading, err := ReadPowerReading(MockedInverterReader(), MockedACMeterReader())
	require.NoError(err)
	require.InDelta(920.3, reading.PVPowerWatt, 1e-9)
	require.InDelta(320.2+250.5, reading.HousePowerWatt, 1e-9)
	require.Equal(23.5, reading.StateOfCharge)
}

func TestReadPowerReadingWithoutStorage(t *testing.T) {
	reading, err := ReadPowerReading(TestInverterModbusReader{WithStorage: false}, MockedACMeterReader())
	require.NoError(t, err)
	assert.Equal(t, 0.0, reading.StateOfCharge)
}

func TestReadPowerReadingClampsNegativeHouse(t *testing.T) {
	reading, err := ReadPowerReading(MockedInverterReader(), exportingMeter{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, reading.HousePowerWatt)
}

func TestReadPowerReadingErrors(t *testing.T) {
	_, err := ReadPowerReading(nil, MockedACMeterReader())
	assert.Error(t, err)

	_, err = ReadPowerReading(MockedInverterReader(), brokenMeter{})
	assert.ErrorContains(t, err, "timeout")
}

// exports far more than the inverter produces
type exportingMeter struct {
	TestACMeterModbusReader
}

func (exportingMeter) GetPowerFlow() (*ACMeterPowerFlow, error) {
	return NewACMeterPowerFlow(-5000), nil
}

type brokenMeter struct {
	TestACMeterModbusReader
}

func (brokenMeter) GetPowerFlow() (*ACMeterPowerFlow, error) {
	return nil, errors.New("modbus: request timeout")
}

func TestACMeterPowerFlowDirection(t *testing.T) {
	assert := assert.New(t)

	importing := NewACMeterPowerFlow(250.5)
	assert.Equal(250.5, importing.ImportPowerWatt)
	assert.Zero(importing.ExportPowerWatt)

	exporting := NewACMeterPowerFlow(-1200)
	assert.Equal(1200.0, exporting.ExportPowerWatt)
	assert.Zero(exporting.ImportPowerWatt)
	assert.Equal(-1200.0, exporting.CurrentPowerFlowWatt)
}

func TestChargeStatusString(t *testing.T) {
	assert.Equal(t, "charging", ChargeStatusCharging.String())
	assert.Equal(t, "off", ChargeStatusOff.String())
	assert.Equal(t, "unknown(42)", ChargeStatus(42).String())
}

func RealInverterReader() InverterModbusReader {
	logger := zap.Must(zap.NewDevelopment())
	reader, err := CreateInverterIntSFModbusReader("-.-.-.-", 502, 0, 1*time.Second, false, logger, nil)
	if err != nil {
		panic(err)
	}
	return reader
}

func MockedInverterReader() InverterModbusReader {
	reader, err := CreateTestInverterModbusReader()
	if err != nil {
		panic(err)
	}
	return reader
}

func RealACMeterReader() ACMeterModbusReader {
	logger := zap.Must(zap.NewDevelopment())
	reader, err := CreateACMeterIntSFModbusReader("-.-.-.-", 502, 240, 1*time.Second, false, logger, nil)
	if err != nil {
		panic(err)
	}
	return reader
}

func MockedACMeterReader() ACMeterModbusReader {
	reader, err := CreateTestACMeterModbusReader()
	if err != nil {
		panic(err)
	}
	return reader
}

func InverterReader() InverterModbusReader {
	if USE_MOCKED_READER {
		return MockedInverterReader()
	} else {
		return RealInverterReader()
	}
}

func ACMeterReader() ACMeterModbusReader {
	if USE_MOCKED_READER {
		return MockedACMeterReader()
	} else {
		return RealACMeterReader()
	}
}
