package metrics

import (
	"testing"

	"github.com/berfenger/sundispatch/internal/core/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// value returns the sample of the metric family name whose labels match.
func value(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue metrics
				}
			}
			if m.GetCounter() != nil {
				return m.GetCounter().GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s%v not found", name, labels)
	return 0
}

func TestPromRecorder(t *testing.T) {
	require := require.New(t)
	reg := prometheus.NewRegistry()

	rec, err := NewPromRecorder(reg)
	require.NoError(err)

	rec.RecordDecision(domain.PRESET_STANDARD, domain.Decision{
		Action:        domain.ActionChargeBattery,
		Snapshot:      domain.StateSnapshot{BatteryCharge: 1500},
		CurtailedWatt: 2000,
	})
	rec.RecordDecision(domain.PRESET_STANDARD, domain.Decision{
		Action:   domain.ActionUseGrid,
		Snapshot: domain.StateSnapshot{GridUse: -2500, BatteryCharge: 1500},
	})
	rec.RecordInvalidReading(domain.PRESET_STANDARD)

	preset := map[string]string{"preset": domain.PRESET_STANDARD}
	require.Equal(1.0, value(t, reg, "sundispatch_decisions_total", map[string]string{"preset": domain.PRESET_STANDARD, "action": "charge_battery"}))
	require.Equal(1.0, value(t, reg, "sundispatch_decisions_total", map[string]string{"preset": domain.PRESET_STANDARD, "action": "use_grid"}))
	require.Equal(1.0, value(t, reg, "sundispatch_invalid_readings_total", preset))
	require.Equal(-2500.0, value(t, reg, "sundispatch_grid_use_watt", preset))
	require.Equal(1500.0, value(t, reg, "sundispatch_battery_charge_watt", preset))
	require.Equal(2000.0, value(t, reg, "sundispatch_clipped_watt_total", map[string]string{"preset": domain.PRESET_STANDARD, "kind": CLIPPED_KIND_CURTAILED}))
}

func TestPromRecorderReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first, err := NewPromRecorder(reg)
	require.NoError(t, err)
	second, err := NewPromRecorder(reg)
	require.NoError(t, err)

	first.RecordInvalidReading(domain.PRESET_PRO)
	second.RecordInvalidReading(domain.PRESET_PRO)

	assert.Equal(t, 2.0, value(t, reg, "sundispatch_invalid_readings_total", map[string]string{"preset": domain.PRESET_PRO}))
}
