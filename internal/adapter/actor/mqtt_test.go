package actor

import (
	"testing"
	"time"

	"github.com/berfenger/sundispatch/internal/core/domain"
	"github.com/berfenger/sundispatch/internal/core/events"
	"github.com/berfenger/sundispatch/internal/mqtt"
	"github.com/berfenger/sundispatch/internal/util"
	"github.com/berfenger/sundispatch/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMQTTActor(t *testing.T) {

	cfg := util.LoadTestConfig()

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)

	context := as.Root

	es := eventstream.EventStream{}

	props := actor.PropsFromProducer(func() actor.Actor { return NewTestMQTTActor(&cfg, &es, logger) })
	pid := context.Spawn(props)

	time.Sleep(2 * time.Second)

	msg := domain.ActorHealthRequest{}
	result, err := context.RequestFuture(pid, msg, 2*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp, ok := result.(domain.ActorHealthResponse)
	assert.True(t, ok)
	assert.True(t, resp.Healthy)
	assert.EqualValues(t, 1, es.Length(), "subscribed to the event stream")

	decision := domain.Decision{
		Action: domain.ActionChargeBattery,
		Snapshot: domain.StateSnapshot{
			BatteryCharge: 1000,
		},
	}
	for _, ev := range events.DecisionToUpdateEvents(domain.PRESET_BASIC, decision) {
		es.Publish(ev)
	}

	result, err = context.RequestFuture(pid, domain.PublishDiscoveryRequest{}, 2*time.Second).Result()
	require.NoError(t, err)
	_, ok = result.(domain.PublishDiscoveryResponse)
	assert.True(t, ok)

	context.Stop(pid)

	time.Sleep(1 * time.Second)

	assert.EqualValues(t, 0, es.Length(), "unsubscribed on stop")

	as.Shutdown()
}

func TestEvent2MQTTMessage(t *testing.T) {
	cfg := util.LoadTestConfig()
	act := NewTestMQTTActor(&cfg, nil, zap.NewNop())
	act.client = mqtt.CreateMQTTClient(&cfg, mqtt.OptsFromConfig(&cfg), nil, nil)

	msg := act.event2MQTTMessage(domain.FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{
			Id: events.SENSOR_ID_GRID_USE,
		},
		Value:    -2500,
		Decimals: 2,
	})
	require.NotNil(t, msg)
	assert.Equal(t, "sundispatch/sensor/grid_use/state", msg.topic)
	assert.Equal(t, "-2500.00", msg.message)
	assert.False(t, msg.retain)

	msg = act.event2MQTTMessage(domain.TextSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{
			Id: events.SENSOR_ID_DISPATCH_ACTION,
		},
		Value: domain.ActionUseGrid.String(),
	})
	require.NotNil(t, msg)
	assert.Equal(t, "sundispatch/sensor/dispatch_action/state", msg.topic)
	assert.Equal(t, "use_grid", msg.message)
	assert.True(t, msg.retain)

	msg = act.event2MQTTMessage(domain.BridgeStateUpdateEvent{Value: false})
	require.NotNil(t, msg)
	assert.Equal(t, mqtt.MQTT_PAYLOAD_OFFLINE, msg.message)

	assert.Nil(t, act.event2MQTTMessage("not an event"))
}
