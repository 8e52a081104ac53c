package mqtt

import (
	"testing"

	"github.com/berfenger/sundispatch/internal/core/events"
	"github.com/berfenger/sundispatch/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchCommandParse(t *testing.T) {

	assert := assert.New(t)

	r := dispatchCommandExtractor("loremTopic")

	assert.True(r.MatchString("loremTopic/dispatch/set"), "dispatch topic")
	assert.False(r.MatchString("loremTopic/dispatch/state"), "state topic")
	assert.False(r.MatchString("otherTopic/loremTopic/dispatch/set"), "anchored")
}

func TestButtonCommandParse(t *testing.T) {

	assert := assert.New(t)

	baseTopic := "loremTopic"
	topic := "loremTopic/button/reset/press"
	r := buttonCommandExtractor(baseTopic)
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal("reset", matches[0][1], "button extract")
}

func TestButtonCommandParseFail(t *testing.T) {

	assert := assert.New(t)

	baseTopic := "loremTopic"
	topic := "loremTopic/sensor/reset/state"
	r := buttonCommandExtractor(baseTopic)
	matches := r.FindAllStringSubmatch(topic, 1)

	assert.Equal(0, len(matches), "no matches")
}

func TestParseCommand(t *testing.T) {
	require := require.New(t)

	cfg := util.LoadTestConfig()
	client := CreateMQTTClient(&cfg, OptsFromConfig(&cfg), nil, nil)

	cmd, err := client.parseCommand(client.DispatchCommandTopic(), []byte(`{"pv_output":1}`))
	require.NoError(err)
	assert.Equal(t, COMMAND_DISPATCH, cmd.Command)
	assert.Equal(t, `{"pv_output":1}`, cmd.Payload)

	cmd, err = client.parseCommand(client.ButtonCommandTopic(events.BUTTON_ID_RESET), []byte(MQTT_PAYLOAD_PRESS))
	require.NoError(err)
	assert.Equal(t, COMMAND_BUTTON, cmd.Command)
	assert.Equal(t, events.BUTTON_ID_RESET, cmd.DeviceId)

	// our own state topics are ignored
	_, err = client.parseCommand(client.SensorStateTopic(events.SENSOR_ID_GRID_USE), []byte("1.00"))
	assert.Error(t, err)
}

func TestHADiscoveryMessages(t *testing.T) {
	cfg := util.LoadTestConfig()
	cfg.MQTT.HADiscoveryTopic = "ha"
	client := CreateMQTTClient(&cfg, OptsFromConfig(&cfg), nil, nil)

	bridge := events.BridgeDevice(cfg.MQTT.BaseTopic)
	bridgeSensor := events.BridgeSensors(bridge)[0]
	msg := GenericSensorToHADiscoveryMessage(client, bridgeSensor)
	assert.Equal(t, "sundispatch/bridge/state", msg.StateTopic)
	assert.Equal(t, MQTT_PAYLOAD_ONLINE, msg.PayloadOn)
	assert.Equal(t, []string{bridge.Id}, msg.Device.Id)
	assert.Equal(t, "ha/binary_sensor/"+bridge.Id+"/bridge/config", client.HADiscoverySensorTopic(bridgeSensor))

	button := events.DispatchButtons(bridge)[0]
	bmsg := GenericButtonToHADiscoveryMessage(client, button)
	assert.Equal(t, "sundispatch/button/reset/press", bmsg.CommandTopic)
	assert.Equal(t, MQTT_PAYLOAD_PRESS, bmsg.PayloadPress)
	assert.Empty(t, bmsg.StateTopic)
	assert.Equal(t, "ha/button/"+bridge.Id+"/reset/config", client.HADiscoveryButtonTopic(button))
}
