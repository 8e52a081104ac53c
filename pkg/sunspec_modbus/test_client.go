package sunspec_modbus

func CreateTestACMeterModbusReader() (ACMeterModbusReader, error) {
	return TestACMeterModbusReader{}, nil
}

func CreateTestInverterModbusReader() (InverterModbusReader, error) {
	return TestInverterModbusReader{WithStorage: true}, nil
}

// ACMeter

type TestACMeterModbusReader struct {
}

func (reader TestACMeterModbusReader) Open() error {
	return nil
}

func (reader TestACMeterModbusReader) Close() error {
	return nil
}

func (reader TestACMeterModbusReader) Validate() error {
	return nil
}

func (reader TestACMeterModbusReader) GetInfo() (*ACMeterInfo, error) {
	return &ACMeterInfo{
		Manufacturer: "Sundispatch",
		Model:        "Smart Meter TS 100A-1",
		Version:      "1.2",
		Serial:       "SM0001",
	}, nil
}

func (reader TestACMeterModbusReader) GetPowerFlow() (*ACMeterPowerFlow, error) {
	return NewACMeterPowerFlow(250.5), nil
}

// Inverter

type TestInverterModbusReader struct {
	WithStorage bool
}

func (inv TestInverterModbusReader) Open() error {
	return nil
}

func (inv TestInverterModbusReader) Close() error {
	return nil
}

func (inv TestInverterModbusReader) Validate() error {
	return nil
}

func (inv TestInverterModbusReader) GetInfo() (*InverterInfo, error) {
	return &InverterInfo{
		Manufacturer:      "Sundispatch",
		Model:             "Primo GEN24 4.0",
		Version:           "1.30.7-1",
		Serial:            "INV0001",
		MaxRatedPowerWatt: 4000,
		HasStorage:        inv.WithStorage,
	}, nil
}

func (inv TestInverterModbusReader) GetPowerFlow() (*InverterPowerFlow, error) {
	return &InverterPowerFlow{
		ACPowerWatt:      320.2,
		PVPowerWatt:      920.3,
		BatteryPowerWatt: -572.45,
	}, nil
}

func (inv TestInverterModbusReader) HasStorage() (bool, error) {
	return inv.WithStorage, nil
}

func (inv TestInverterModbusReader) GetStorageState() (*StorageState, error) {
	return &StorageState{
		StateOfCharge: 23.5,
		CapacityWatt:  5260,
		Status:        ChargeStatusCharging,
	}, nil
}
