package actor

import (
	"fmt"
	"testing"
	"time"

	adactor "github.com/berfenger/sundispatch/internal/adapter/actor"
	"github.com/berfenger/sundispatch/internal/config"
	"github.com/berfenger/sundispatch/internal/core/domain"
	"github.com/berfenger/sundispatch/internal/core/service"
	"github.com/berfenger/sundispatch/internal/metrics"
	"github.com/berfenger/sundispatch/internal/util"
	"github.com/berfenger/sundispatch/pkg/sunspec_modbus"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func spawnMaster(t *testing.T, cfg config.Config) (*actor.ActorSystem, *actor.PID) {
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(logCfg.Build())

	engine, err := service.NewDispatchEngine(service.DefaultPresetRegistry(), cfg.Preset, service.WithLogger(logger))
	require.NoError(t, err)

	as := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterOfPuppetsActor(cfg, engine, metrics.NopRecorder{}, func() *adactor.ModbusActor {
			return adactor.NewModbusActor(sunspec_modbus.TestInverterModbusReader{WithStorage: true}, sunspec_modbus.TestACMeterModbusReader{}, logger)
		}, func(es *eventstream.EventStream) *adactor.MQTTActor {
			return adactor.NewTestMQTTActor(&cfg, es, logger)
		}, logger)
	})
	pid, err := as.Root.SpawnNamed(props, domain.ACTOR_ID_MASTER)
	require.NoError(t, err)
	return as, pid
}

func TestMasterActor(t *testing.T) {

	cfg := util.LoadTestConfig()
	cfg.MQTT.Enable = true
	cfg.MQTT.HADiscoveryEnable = true

	as, pid := spawnMaster(t, cfg)
	context := as.Root

	time.Sleep(2 * time.Second)

	res, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
		//return
	}
	healthResp, ok := res.(domain.ActorHealthResponse)
	assert.True(t, ok)
	fmt.Printf("Health response: %+v\n", healthResp)
	assert.NotNil(t, healthResp)

	assert.True(t, healthResp.Healthy, "healthy is true")

	context.Stop(pid)

	as.Shutdown()
}

func TestMasterRoutesDispatchRequests(t *testing.T) {
	require := require.New(t)

	cfg := util.LoadTestConfig()
	cfg.InverterModbusTcp.Host = ""

	as, pid := spawnMaster(t, cfg)
	defer as.Shutdown()
	context := as.Root

	res, err := context.RequestFuture(pid, domain.DispatchRequest{
		Reading: domain.Reading{PVOutputWatt: 3500, HouseConsumptionWatt: 2500, BatteryLevelPercent: 50},
	}, 5*time.Second).Result()
	require.NoError(err)
	resp, ok := res.(domain.DispatchResponse)
	require.True(ok)
	assert.Equal(t, domain.ActionChargeBattery, resp.Decision.Action)
	assert.InDelta(t, 1000, resp.Decision.Snapshot.BatteryCharge, 1e-9)

	res, err = context.RequestFuture(pid, domain.GetSnapshotRequest{}, 5*time.Second).Result()
	require.NoError(err)
	snap, ok := res.(domain.GetSnapshotResponse)
	require.True(ok)
	assert.Equal(t, domain.PRESET_BASIC, snap.Preset.Name)
	assert.Equal(t, domain.ActionChargeBattery, snap.LastAction)

	res, err = context.RequestFuture(pid, domain.ResetRequest{}, 5*time.Second).Result()
	require.NoError(err)
	reset, ok := res.(domain.ResetResponse)
	require.True(ok)
	assert.Equal(t, domain.StateSnapshot{}, reset.Snapshot)

	// only the dispatch child is running
	res, err = context.RequestFuture(pid, domain.ActorHealthRequest{}, 5*time.Second).Result()
	require.NoError(err)
	assert.True(t, res.(domain.ActorHealthResponse).Healthy)

	context.Stop(pid)
}

func TestMasterTelemetryFeedsDispatch(t *testing.T) {

	cfg := util.LoadTestConfig()
	cfg.MonitorConfig.PollIntervalMillis = 1000

	as, pid := spawnMaster(t, cfg)
	defer as.Shutdown()
	context := as.Root

	// test inverter: pv 920.3 W, house 570.7 W, soc 23.5 %
	assert.Eventually(t, func() bool {
		res, err := context.RequestFuture(pid, domain.GetSnapshotRequest{}, time.Second).Result()
		if err != nil {
			return false
		}
		snap, ok := res.(domain.GetSnapshotResponse)
		return ok && snap.LastAction == domain.ActionChargeBattery
	}, 10*time.Second, 250*time.Millisecond)

	res, err := context.RequestFuture(pid, domain.GetSnapshotRequest{}, time.Second).Result()
	require.NoError(t, err)
	snap := res.(domain.GetSnapshotResponse)
	assert.InDelta(t, 349.6, snap.Snapshot.BatteryCharge, 1e-6)
	assert.Equal(t, 0.0, snap.Snapshot.GridUse)

	context.Stop(pid)
}
