package actor

import (
	"testing"
	"time"

	"github.com/berfenger/sundispatch/internal/core/domain"
	"github.com/berfenger/sundispatch/internal/core/events"
	"github.com/berfenger/sundispatch/internal/core/service"
	"github.com/berfenger/sundispatch/internal/metrics"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingRecorder struct {
	decisions chan domain.Decision
	invalid   chan string
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		decisions: make(chan domain.Decision, 16),
		invalid:   make(chan string, 16),
	}
}

func (r *countingRecorder) RecordDecision(_ string, d domain.Decision) {
	r.decisions <- d
}

func (r *countingRecorder) RecordInvalidReading(preset string) {
	r.invalid <- preset
}

func spawnDispatch(t *testing.T, preset string, recorder *countingRecorder, es *eventstream.EventStream) (*actor.ActorSystem, *actor.PID) {
	engine, err := service.NewDispatchEngine(service.DefaultPresetRegistry(), preset)
	require.NoError(t, err)

	as := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewDispatchActor(engine, recorder, es, zap.NewNop())
	})
	return as, as.Root.Spawn(props)
}

func TestDispatchActorDecides(t *testing.T) {
	require := require.New(t)

	recorder := newCountingRecorder()
	es := &eventstream.EventStream{}
	published := make(chan any, 64)
	es.Subscribe(func(evt any) {
		published <- evt
	})

	as, pid := spawnDispatch(t, domain.PRESET_STANDARD, recorder, es)
	defer as.Shutdown()

	res, err := as.Root.RequestFuture(pid, domain.DispatchRequest{
		Reading: domain.Reading{PVOutputWatt: 6000, HouseConsumptionWatt: 2500, BatteryLevelPercent: 50},
	}, 5*time.Second).Result()
	require.NoError(err)

	resp, ok := res.(domain.DispatchResponse)
	require.True(ok)
	require.False(resp.HasResponseError())
	assert.Equal(t, domain.ActionChargeBattery, resp.Decision.Action)
	assert.InDelta(t, 1500, resp.Decision.Snapshot.BatteryCharge, 1e-9)
	assert.InDelta(t, 2000, resp.Decision.CurtailedWatt, 1e-9)

	select {
	case d := <-recorder.decisions:
		assert.Equal(t, domain.ActionChargeBattery, d.Action)
	case <-time.After(time.Second):
		t.Fatal("decision not recorded")
	}

	// one event per sensor of the decision
	expected := len(events.DecisionToUpdateEvents(domain.PRESET_STANDARD, resp.Decision))
	for i := 0; i < expected; i++ {
		select {
		case <-published:
		case <-time.After(time.Second):
			t.Fatalf("only %d of %d events published", i, expected)
		}
	}

	res, err = as.Root.RequestFuture(pid, domain.GetSnapshotRequest{}, 5*time.Second).Result()
	require.NoError(err)
	snap := res.(domain.GetSnapshotResponse)
	assert.Equal(t, domain.PRESET_STANDARD, snap.Preset.Name)
	assert.Equal(t, domain.ActionChargeBattery, snap.LastAction)
	assert.InDelta(t, 1500, snap.Snapshot.BatteryCharge, 1e-9)

	res, err = as.Root.RequestFuture(pid, domain.ActorHealthRequest{}, 5*time.Second).Result()
	require.NoError(err)
	health := res.(domain.ActorHealthResponse)
	assert.True(t, health.Healthy)
	assert.Equal(t, domain.ActionChargeBattery.String(), health.State)
}

func TestDispatchActorRejectsInvalidReading(t *testing.T) {
	require := require.New(t)

	recorder := newCountingRecorder()
	as, pid := spawnDispatch(t, domain.PRESET_BASIC, recorder, nil)
	defer as.Shutdown()

	res, err := as.Root.RequestFuture(pid, domain.DispatchRequest{
		Reading: domain.Reading{PVOutputWatt: -1, HouseConsumptionWatt: 2500, BatteryLevelPercent: 50},
	}, 5*time.Second).Result()
	require.NoError(err)

	resp := res.(domain.DispatchResponse)
	require.True(resp.HasResponseError())
	assert.ErrorIs(t, resp.GetResponseError(), domain.ErrInvalidReading)

	select {
	case preset := <-recorder.invalid:
		assert.Equal(t, domain.PRESET_BASIC, preset)
	case <-time.After(time.Second):
		t.Fatal("invalid reading not recorded")
	}

	res, err = as.Root.RequestFuture(pid, domain.GetSnapshotRequest{}, 5*time.Second).Result()
	require.NoError(err)
	snap := res.(domain.GetSnapshotResponse)
	assert.Equal(t, domain.StateSnapshot{}, snap.Snapshot)
	assert.Equal(t, domain.Action(""), snap.LastAction)
}

func TestDispatchActorReset(t *testing.T) {
	require := require.New(t)

	engine, err := service.NewDispatchEngine(service.DefaultPresetRegistry(), domain.PRESET_BASIC)
	require.NoError(err)

	as := actor.NewActorSystem()
	defer as.Shutdown()
	pid := as.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewDispatchActor(engine, metrics.NopRecorder{}, nil, zap.NewNop())
	}))

	_, err = as.Root.RequestFuture(pid, domain.DispatchRequest{
		Reading: domain.Reading{PVOutputWatt: 1500, HouseConsumptionWatt: 2500, BatteryLevelPercent: 0},
	}, 5*time.Second).Result()
	require.NoError(err)

	res, err := as.Root.RequestFuture(pid, domain.ResetRequest{}, 5*time.Second).Result()
	require.NoError(err)
	resp := res.(domain.ResetResponse)
	assert.Equal(t, domain.StateSnapshot{}, resp.Snapshot)
	assert.Equal(t, domain.StateSnapshot{}, engine.Snapshot())
}
