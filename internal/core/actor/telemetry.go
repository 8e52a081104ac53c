package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/sundispatch/internal/config"
	"github.com/berfenger/sundispatch/internal/core/domain"
	"github.com/berfenger/sundispatch/internal/core/events"
	. "github.com/berfenger/sundispatch/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// TelemetryActor polls the modbus actor for readings and feeds them to the
// dispatch actor.
type TelemetryActor struct {
	behavior   actor.Behavior
	stash      *Stash
	scheduler  *scheduler.TimerScheduler
	cancelTick scheduler.CancelFunc

	modbusActor   *actor.PID
	dispatchActor *actor.PID
	config        *config.Config
	eventStream   *eventstream.EventStream
	hasStorage    bool
	readings      uint64
	failures      uint64

	logger *zap.Logger
}

type telemetryTick struct {
}

func NewTelemetryActor(config *config.Config, modbusActor *actor.PID, dispatchActor *actor.PID, eventStream *eventstream.EventStream, logger *zap.Logger) *TelemetryActor {
	act := &TelemetryActor{
		config:        config,
		modbusActor:   modbusActor,
		dispatchActor: dispatchActor,
		behavior:      actor.NewBehavior(),
		stash:         &Stash{},
		logger:        ActorLogger(domain.ACTOR_ID_TELEMETRY, logger),
		eventStream:   eventStream,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *TelemetryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *TelemetryActor) pollInterval() time.Duration {
	return time.Duration(state.config.MonitorConfig.PollIntervalMillis) * time.Millisecond
}

func (state *TelemetryActor) scheduleTick(ctx actor.Context) {
	if state.pollInterval() <= 0 {
		return
	}
	if state.scheduler == nil {
		state.scheduler = scheduler.NewTimerScheduler(ctx)
	}
	state.cancelTick = state.scheduler.RequestOnce(state.pollInterval(), ctx.Self(), telemetryTick{})
}

func (state *TelemetryActor) stopTicking() {
	if state.cancelTick != nil {
		state.cancelTick()
		state.cancelTick = nil
	}
}

func (state *TelemetryActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("telemetry@starting started")

		state.scheduleTick(ctx)

		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.modbusActor, domain.GetDevicesInfoRequest{}, 3*time.Second), func(err error) any {
			return domain.GetDevicesInfoResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})
		state.behavior.Become(state.WaitingInfoReceive)
	case *actor.Restarting:
		state.stopTicking()
	default:
		state.logger.Debug("telemetry@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *TelemetryActor) WaitingInfoReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetDevicesInfoResponse:
		if msg.HasResponseError() {
			state.logger.Error("telemetry@waitingInfo GetDevicesInfoResponse", zap.Error(msg.GetResponseError()))
		} else if msg.Inverter != nil {
			state.logger.Debug("telemetry@waitingInfo GetDevicesInfoResponse", zap.String("inverter", msg.Inverter.Model))
			state.hasStorage = msg.Inverter.HasStorage
			if !state.hasStorage {
				state.logger.Warn("telemetry@waitingInfo inverter reports no storage, battery level will read 0")
			}
		}
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting, *actor.Stopping:
		state.stopTicking()
	default:
		state.logger.Debug("telemetry@waitingInfo stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *TelemetryActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("telemetry@default ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_TELEMETRY,
			Healthy: true,
			State:   fmt.Sprintf("readings=%d failures=%d", state.readings, state.failures),
		})
	case telemetryTick:
		state.logger.Debug("telemetry@default tick")
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.modbusActor, domain.GetReadingRequest{}, 3*time.Second), func(err error) any {
			return domain.GetReadingResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})

		// schedule next tick
		state.scheduleTick(ctx)
		state.behavior.BecomeStacked(state.WaitingReadingReceive)
	case domain.DispatchResponse:
		if msg.HasResponseError() {
			state.logger.Warn("telemetry@default reading rejected", zap.Error(msg.GetResponseError()))
		} else {
			state.logger.Debug("telemetry@default DispatchResponse", zap.String("action", msg.Decision.Action.String()))
		}
	case *actor.Restarting, *actor.Stopping:
		state.stopTicking()
	default:
		state.logger.Debug("telemetry@default unhandled", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *TelemetryActor) WaitingReadingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetReadingResponse:
		if msg.HasResponseError() || msg.Reading == nil {
			state.failures++
			state.logger.Error("telemetry@waiting GetReadingResponse error", zap.Error(msg.GetResponseError()))
			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
			return
		}
		state.readings++
		state.logger.Debug("telemetry@waiting GetReadingResponse", zap.Any("reading", msg.Reading))
		for _, ev := range events.ReadingToUpdateEvents(msg.Reading) {
			state.eventStream.Publish(ev)
		}
		ctx.Request(state.dispatchActor, domain.DispatchRequest{
			Reading: *msg.Reading,
		})

		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case *actor.Restarting, *actor.Stopping:
		state.stopTicking()
	default:
		state.logger.Debug("telemetry@waiting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}
