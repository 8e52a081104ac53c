package metrics

import (
	"github.com/berfenger/sundispatch/internal/core/domain"
	"github.com/berfenger/sundispatch/internal/core/port"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	CLIPPED_KIND_CURTAILED = "curtailed"
	CLIPPED_KIND_UNMET     = "unmet"
)

// PromRecorder records dispatch decisions in Prometheus metrics.
type PromRecorder struct {
	decisions       *prometheus.CounterVec
	invalidReadings *prometheus.CounterVec
	gridUse         *prometheus.GaugeVec
	batteryCharge   *prometheus.GaugeVec
	batteryDischrg  *prometheus.GaugeVec
	clipped         *prometheus.CounterVec
}

// NewPromRecorder registers dispatch metrics on the provided registerer.
// If reg is nil, the default registerer is used. Collectors already registered
// under the same name are reused.
func NewPromRecorder(reg prometheus.Registerer) (*PromRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	decisions, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sundispatch_decisions_total",
		Help: "Total number of dispatch decisions by action",
	}, []string{"preset", "action"}))
	if err != nil {
		return nil, err
	}
	invalid, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sundispatch_invalid_readings_total",
		Help: "Total number of rejected readings",
	}, []string{"preset"}))
	if err != nil {
		return nil, err
	}
	gridUse, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sundispatch_grid_use_watt",
		Help: "Grid flow of the latest snapshot. Positive exports, negative imports",
	}, []string{"preset"}))
	if err != nil {
		return nil, err
	}
	charge, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sundispatch_battery_charge_watt",
		Help: "Battery charge power of the latest snapshot",
	}, []string{"preset"}))
	if err != nil {
		return nil, err
	}
	discharge, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sundispatch_battery_discharge_watt",
		Help: "Battery discharge power of the latest snapshot",
	}, []string{"preset"}))
	if err != nil {
		return nil, err
	}
	clipped, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sundispatch_clipped_watt_total",
		Help: "Accumulated power the battery could not absorb or supply",
	}, []string{"preset", "kind"}))
	if err != nil {
		return nil, err
	}

	return &PromRecorder{
		decisions:       decisions,
		invalidReadings: invalid,
		gridUse:         gridUse,
		batteryCharge:   charge,
		batteryDischrg:  discharge,
		clipped:         clipped,
	}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (r *PromRecorder) RecordDecision(preset string, d domain.Decision) {
	r.decisions.WithLabelValues(preset, d.Action.String()).Inc()
	r.gridUse.WithLabelValues(preset).Set(d.Snapshot.GridUse)
	r.batteryCharge.WithLabelValues(preset).Set(d.Snapshot.BatteryCharge)
	r.batteryDischrg.WithLabelValues(preset).Set(d.Snapshot.BatteryDischarge)
	if d.CurtailedWatt > 0 {
		r.clipped.WithLabelValues(preset, CLIPPED_KIND_CURTAILED).Add(d.CurtailedWatt)
	}
	if d.UnmetWatt > 0 {
		r.clipped.WithLabelValues(preset, CLIPPED_KIND_UNMET).Add(d.UnmetWatt)
	}
}

func (r *PromRecorder) RecordInvalidReading(preset string) {
	r.invalidReadings.WithLabelValues(preset).Inc()
}

type NopRecorder struct{}

func (NopRecorder) RecordDecision(string, domain.Decision) {}
func (NopRecorder) RecordInvalidReading(string)            {}

// ensure interface compliance
var _ port.DispatchRecorder = (*PromRecorder)(nil)
var _ port.DispatchRecorder = NopRecorder{}
