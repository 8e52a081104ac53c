package service

import (
	"math"

	"github.com/berfenger/sundispatch/internal/core/domain"
	"github.com/berfenger/sundispatch/internal/core/port"
	"go.uber.org/zap"
)

// DispatchEngine decides one action per reading and writes the resulting flows
// into its snapshot. It is not safe for concurrent use; the owner serialises calls.
type DispatchEngine struct {
	preset   domain.Preset
	mode     domain.SnapshotMode
	snapshot domain.StateSnapshot
	logger   *zap.Logger
}

type EngineOption func(*DispatchEngine)

func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *DispatchEngine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithSnapshotMode(mode domain.SnapshotMode) EngineOption {
	return func(e *DispatchEngine) {
		e.mode = mode
	}
}

func NewDispatchEngine(registry port.PresetRegistry, presetName string, opts ...EngineOption) (*DispatchEngine, error) {
	preset, err := registry.Get(presetName)
	if err != nil {
		return nil, err
	}
	engine := &DispatchEngine{
		preset: preset,
		mode:   domain.SnapshotModeRetain,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine, nil
}

func (e *DispatchEngine) Preset() domain.Preset {
	return e.preset
}

func (e *DispatchEngine) Mode() domain.SnapshotMode {
	return e.mode
}

func (e *DispatchEngine) Reset() {
	e.snapshot = domain.StateSnapshot{}
}

func (e *DispatchEngine) Snapshot() domain.StateSnapshot {
	return e.snapshot
}

func (e *DispatchEngine) Validate(reading domain.Reading) error {
	if invalidPower(reading.PVOutputWatt) {
		return &domain.InvalidReadingError{Field: domain.READING_FIELD_PV_OUTPUT, Value: reading.PVOutputWatt}
	}
	if invalidPower(reading.HouseConsumptionWatt) {
		return &domain.InvalidReadingError{Field: domain.READING_FIELD_HOUSE_CONSUMPTION, Value: reading.HouseConsumptionWatt}
	}
	level := reading.BatteryLevelPercent
	if math.IsNaN(level) || level < 0 || level > domain.MAX_BATTERY_PERCENT {
		return &domain.InvalidReadingError{Field: domain.READING_FIELD_BATTERY_LEVEL, Value: level}
	}
	return nil
}

func invalidPower(w float64) bool {
	return math.IsNaN(w) || w < 0 || w > domain.MAX_POWER_WATT
}

func (e *DispatchEngine) Classify(reading domain.Reading) (domain.Action, error) {
	if err := e.Validate(reading); err != nil {
		return "", err
	}
	pv, house, level := reading.PVOutputWatt, reading.HouseConsumptionWatt, reading.BatteryLevelPercent
	switch {
	case pv > house:
		if level < domain.MAX_BATTERY_PERCENT {
			return domain.ActionChargeBattery, nil
		}
		return domain.ActionSendToGrid, nil
	case pv < house:
		if level > 0 {
			return domain.ActionDischargeBattery, nil
		}
		return domain.ActionUseGrid, nil
	default:
		return domain.ActionMaintainState, nil
	}
}

func (e *DispatchEngine) Dispatch(reading domain.Reading) (domain.StateSnapshot, error) {
	decision, err := e.Decide(reading)
	if err != nil {
		return e.snapshot, err
	}
	return decision.Snapshot, nil
}

// Decide classifies the reading and applies the action's flows to the snapshot.
// On error the snapshot is left untouched.
func (e *DispatchEngine) Decide(reading domain.Reading) (domain.Decision, error) {
	action, err := e.Classify(reading)
	if err != nil {
		e.logger.Debug("rejected reading", zap.Error(err))
		return domain.Decision{}, err
	}

	if e.mode == domain.SnapshotModeFresh {
		e.snapshot = domain.StateSnapshot{
			PVOutput:         reading.PVOutputWatt,
			HouseConsumption: reading.HouseConsumptionWatt,
			BatteryLevel:     reading.BatteryLevelPercent,
		}
	}

	pv, house, level := reading.PVOutputWatt, reading.HouseConsumptionWatt, reading.BatteryLevelPercent
	units := float64(e.preset.MaxStorageUnits)
	decision := domain.Decision{Action: action}

	switch action {
	case domain.ActionChargeBattery:
		surplus := pv - house
		headroom := (domain.MAX_BATTERY_PERCENT - level) / 100 * units * e.preset.UnitCapacityWatt
		charge := math.Min(surplus, headroom)
		e.snapshot.BatteryCharge = charge
		e.snapshot.GridUse = 0
		decision.CurtailedWatt = surplus - charge
	case domain.ActionSendToGrid:
		e.snapshot.GridUse = pv - house
	case domain.ActionDischargeBattery:
		deficit := house - pv
		available := (level / 100) * units * e.preset.UnitCapacityWatt
		discharge := math.Min(deficit, available)
		e.snapshot.BatteryDischarge = discharge
		e.snapshot.GridUse = 0
		decision.UnmetWatt = deficit - discharge
	case domain.ActionUseGrid:
		e.snapshot.GridUse = -house
	case domain.ActionMaintainState:
	}

	decision.Snapshot = e.snapshot

	if decision.CurtailedWatt > 0 {
		e.logger.Warn("battery headroom exceeded, surplus curtailed",
			zap.String("preset", e.preset.Name), zap.Float64("curtailed_watt", decision.CurtailedWatt))
	}
	if decision.UnmetWatt > 0 {
		e.logger.Warn("battery charge exhausted, deficit unmet",
			zap.String("preset", e.preset.Name), zap.Float64("unmet_watt", decision.UnmetWatt))
	}
	e.logger.Debug("dispatch decision",
		zap.String("preset", e.preset.Name),
		zap.Stringer("action", action),
		zap.Float64("grid_use", e.snapshot.GridUse),
		zap.Float64("battery_charge", e.snapshot.BatteryCharge),
		zap.Float64("battery_discharge", e.snapshot.BatteryDischarge))

	return decision, nil
}

// ensure interface compliance
var _ port.DispatchEngine = (*DispatchEngine)(nil)
