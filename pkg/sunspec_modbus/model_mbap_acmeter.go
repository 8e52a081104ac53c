package sunspec_modbus

type ACMeterInfo struct {
	Manufacturer string
	Model        string
	Version      string
	Serial       string
}

// ACMeterPowerFlow is the grid exchange seen at the meter.
type ACMeterPowerFlow struct {
	// Positive = import. Negative = export
	CurrentPowerFlowWatt float64
	ImportPowerWatt      float64
	ExportPowerWatt      float64
}

func NewACMeterPowerFlow(flowWatt float64) *ACMeterPowerFlow {
	flow := &ACMeterPowerFlow{CurrentPowerFlowWatt: flowWatt}
	if flowWatt < 0 {
		flow.ExportPowerWatt = -flowWatt
	} else {
		flow.ImportPowerWatt = flowWatt
	}
	return flow
}

type ACMeterModbusReader interface {
	Open() error
	Close() error
	Validate() error
	GetInfo() (*ACMeterInfo, error)
	GetPowerFlow() (*ACMeterPowerFlow, error)
}
