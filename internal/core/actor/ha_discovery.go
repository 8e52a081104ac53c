package actor

import (
	"errors"
	"fmt"
	"time"

	"github.com/berfenger/sundispatch/internal/config"
	"github.com/berfenger/sundispatch/internal/core/domain"
	"github.com/berfenger/sundispatch/internal/core/events"
	"github.com/berfenger/sundispatch/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// HADiscoveryActor publishes Home Assistant discovery once the MQTT actor is up,
// then idles.
type HADiscoveryActor struct {
	config        *config.Config
	behavior      actor.Behavior
	stash         *actorutil.Stash
	dispatchActor *actor.PID
	mqttActor     *actor.PID
	modbusActor   *actor.PID

	pending     int
	preset      *domain.Preset
	devicesInfo *domain.GetDevicesInfoResponse

	logger *zap.Logger
}

func NewHADiscoveryActor(config *config.Config, dispatchActor *actor.PID, mqttActor *actor.PID, modbusActor *actor.PID, logger *zap.Logger) *HADiscoveryActor {
	act := &HADiscoveryActor{
		config:        config,
		dispatchActor: dispatchActor,
		mqttActor:     mqttActor,
		modbusActor:   modbusActor,
		behavior:      actor.NewBehavior(),
		stash:         &actorutil.Stash{},
		logger:        actorutil.ActorLogger(domain.ACTOR_ID_HA_DISCOVERY, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *HADiscoveryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *HADiscoveryActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("hadiscovery@starting started")

		// MQTT must be connected before anything is published
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 5*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		state.behavior.Become(state.WaitingHealthyReceive)
	case *actor.Restarting:
	default:
		state.logger.Debug("hadiscovery@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) WaitingHealthyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthResponse:
		state.logger.Debug("hadiscovery@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		if !msg.Healthy {
			panic(errors.New("MQTT Actor is not healthy"))
		}

		state.pending = 1
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.dispatchActor, domain.GetSnapshotRequest{}, 2*time.Second), func(err error) any {
			return domain.GetSnapshotResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})
		if state.modbusActor != nil {
			state.pending++
			actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.modbusActor, domain.GetDevicesInfoRequest{}, 5*time.Second), func(err error) any {
				return domain.GetDevicesInfoResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				}
			})
		}
		state.behavior.Become(state.WaitingInfoReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("hadiscovery@healthcheck stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) WaitingInfoReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetSnapshotResponse:
		if msg.HasResponseError() {
			panic(msg.GetResponseError())
		}
		state.logger.Debug("hadiscovery@info GetSnapshotResponse", zap.String("preset", msg.Preset.Name))
		state.preset = &msg.Preset
		state.pending--
	case domain.GetDevicesInfoResponse:
		// discovery goes ahead without telemetry sensors when the inverter is unreachable
		if msg.HasResponseError() {
			state.logger.Warn("hadiscovery@info GetDevicesInfoResponse", zap.Error(msg.GetResponseError()))
		} else {
			state.logger.Debug("hadiscovery@info GetDevicesInfoResponse", zap.Any("response", msg))
			state.devicesInfo = &msg
		}
		state.pending--
	default:
		state.logger.Debug("hadiscovery@info default recv", zap.String("type", fmt.Sprintf("%T", msg)))
		return
	}

	if state.pending > 0 {
		return
	}

	sensors, buttons := state.discovery()
	ctx.Send(state.mqttActor, domain.PublishDiscoveryRequest{
		Sensors: sensors,
		Buttons: buttons,
	})
	state.logger.Info("hadiscovery@info discovery published", zap.Int("sensors", len(sensors)), zap.Int("buttons", len(buttons)))
	state.behavior.Become(state.Done)
}

func (state *HADiscoveryActor) Done(ctx actor.Context) {
	switch ctx.Message().(type) {
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_HA_DISCOVERY,
			Healthy: true,
			State:   "done",
		})
	}
}

func (state *HADiscoveryActor) discovery() ([]domain.GenericSensor, []domain.GenericButton) {
	var sensors []domain.GenericSensor
	var buttons []domain.GenericButton

	bridgeDevice := events.BridgeDevice(state.config.MQTT.BaseTopic)
	sensors = append(sensors, events.BridgeSensors(bridgeDevice)...)

	dispatchDevice := events.DispatchDevice(state.config.MQTT.BaseTopic, *state.preset)
	sensors = append(sensors, events.DispatchSensors(dispatchDevice)...)
	buttons = append(buttons, events.DispatchButtons(dispatchDevice)...)

	if state.devicesInfo != nil && state.devicesInfo.Inverter != nil {
		inverterDevice := events.InverterDevice(state.devicesInfo.Inverter)
		inverterDevice.ViaDevice = bridgeDevice.Id
		sensors = append(sensors, events.TelemetrySensors(inverterDevice)...)
	}
	return sensors, buttons
}
