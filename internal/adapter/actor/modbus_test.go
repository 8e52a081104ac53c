package actor

import (
	"errors"
	"testing"
	"time"

	"github.com/berfenger/sundispatch/internal/core/domain"
	"github.com/berfenger/sundispatch/internal/util/actorutil"
	"github.com/berfenger/sundispatch/pkg/sunspec_modbus"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingACMeter struct {
	sunspec_modbus.TestACMeterModbusReader
}

func (failingACMeter) GetPowerFlow() (*sunspec_modbus.ACMeterPowerFlow, error) {
	return nil, errors.New("modbus: request timed out")
}

func TestGetDevicesInfoModbusActor(t *testing.T) {

	assert := assert.New(t)

	inv, err := sunspec_modbus.CreateTestInverterModbusReader()
	if err != nil {
		t.Error(err)
		return
	}

	acMeter, err := sunspec_modbus.CreateTestACMeterModbusReader()
	if err != nil {
		t.Error(err)
		return
	}

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)

	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor { return NewModbusActor(inv, acMeter, logger) })
	pid := context.Spawn(props)

	time.Sleep(1 * time.Second)

	msg := domain.GetDevicesInfoRequest{}
	result, err := context.RequestFuture(pid, msg, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.GetDevicesInfoResponse)

	assert.Equal("Sundispatch", resp.Inverter.Manufacturer, "Inverter manufacturer")
	assert.Equal("Primo GEN24 4.0", resp.Inverter.Model, "Inverter model")
	assert.Equal("1.30.7-1", resp.Inverter.Version, "Inverter version")
	assert.True(resp.Inverter.HasStorage, "Inverter storage")
	assert.Equal("Sundispatch", resp.ACMeter.Manufacturer, "ACMeter manufacturer")
	assert.Equal("Smart Meter TS 100A-1", resp.ACMeter.Model, "ACMeter model")
	assert.Equal("1.2", resp.ACMeter.Version, "ACMeter version")

	context.Stop(pid)

	as.Shutdown()
}

func TestGetReadingModbusActor(t *testing.T) {

	require := require.New(t)

	inv, err := sunspec_modbus.CreateTestInverterModbusReader()
	require.NoError(err)

	acMeter, err := sunspec_modbus.CreateTestACMeterModbusReader()
	require.NoError(err)

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor { return NewModbusActor(inv, acMeter, logger) })
	pid := context.Spawn(props)

	time.Sleep(1 * time.Second)

	result, err := context.RequestFuture(pid, domain.GetReadingRequest{}, 15*time.Second).Result()
	require.NoError(err)
	resp, ok := result.(domain.GetReadingResponse)
	require.True(ok)
	require.False(resp.HasResponseError())
	require.NotNil(resp.Reading)

	assert.InDelta(t, 920.3, resp.Reading.PVOutputWatt, 1e-9, "PV output")
	assert.InDelta(t, 570.7, resp.Reading.HouseConsumptionWatt, 1e-9, "house consumption")
	assert.InDelta(t, 23.5, resp.Reading.BatteryLevelPercent, 1e-9, "battery level")

	context.Stop(pid)

	as.Shutdown()
}

func TestGetReadingModbusActorError(t *testing.T) {

	require := require.New(t)

	inv, err := sunspec_modbus.CreateTestInverterModbusReader()
	require.NoError(err)

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor { return NewModbusActor(inv, failingACMeter{}, logger) })
	pid := context.Spawn(props)

	time.Sleep(1 * time.Second)

	result, err := context.RequestFuture(pid, domain.GetReadingRequest{}, 15*time.Second).Result()
	require.NoError(err)
	resp, ok := result.(domain.GetReadingResponse)
	require.True(ok)
	assert.True(t, resp.HasResponseError())
	assert.Nil(t, resp.Reading)

	// actor is back to its default behavior
	result, err = context.RequestFuture(pid, domain.ActorHealthRequest{}, 5*time.Second).Result()
	require.NoError(err)
	health := result.(domain.ActorHealthResponse)
	assert.True(t, health.Healthy)

	context.Stop(pid)

	as.Shutdown()
}
