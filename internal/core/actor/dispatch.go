package actor

import (
	"fmt"

	"github.com/berfenger/sundispatch/internal/core/domain"
	"github.com/berfenger/sundispatch/internal/core/events"
	"github.com/berfenger/sundispatch/internal/core/port"
	. "github.com/berfenger/sundispatch/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

// DispatchActor serializes access to a single dispatch engine.
type DispatchActor struct {
	behavior    actor.Behavior
	engine      port.DispatchEngine
	recorder    port.DispatchRecorder
	eventStream *eventstream.EventStream
	lastAction  domain.Action
	logger      *zap.Logger
}

func NewDispatchActor(engine port.DispatchEngine, recorder port.DispatchRecorder, eventStream *eventstream.EventStream, logger *zap.Logger) *DispatchActor {
	act := &DispatchActor{
		behavior:    actor.NewBehavior(),
		engine:      engine,
		recorder:    recorder,
		eventStream: eventStream,
		logger:      ActorLogger(domain.ACTOR_ID_DISPATCH, logger),
	}
	act.behavior.Become(act.DefaultReceive)
	return act
}

func (state *DispatchActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *DispatchActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("dispatch@default started", zap.String("preset", state.preset()))
	case domain.ActorHealthRequest:
		state.logger.Debug("dispatch@default ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_DISPATCH,
			Healthy: true,
			State:   state.stateName(),
		})
	case domain.DispatchRequest:
		state.logger.Debug("dispatch@default DispatchRequest", zap.Any("reading", msg.Reading))
		decision, err := state.engine.Decide(msg.Reading)
		if err != nil {
			state.logger.Warn("dispatch@default rejected reading", zap.Error(err))
			state.recorder.RecordInvalidReading(state.preset())
			state.respond(ctx, msg, domain.DispatchResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			})
			return
		}
		state.lastAction = decision.Action
		state.recorder.RecordDecision(state.preset(), decision)
		state.publish(events.DecisionToUpdateEvents(state.preset(), decision))
		state.respond(ctx, msg, domain.DispatchResponse{
			Decision: decision,
		})
	case domain.ResetRequest:
		state.logger.Info("dispatch@default ResetRequest")
		state.engine.Reset()
		state.lastAction = ""
		snapshot := state.engine.Snapshot()
		state.publish(events.SnapshotToUpdateEvents(snapshot))
		state.respond(ctx, msg, domain.ResetResponse{
			Snapshot: snapshot,
		})
	case domain.GetSnapshotRequest:
		state.logger.Debug("dispatch@default GetSnapshotRequest")
		state.respond(ctx, msg, domain.GetSnapshotResponse{
			Preset:     state.engine.Preset(),
			LastAction: state.lastAction,
			Snapshot:   state.engine.Snapshot(),
		})
	default:
		state.logger.Debug("dispatch@default unhandled", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *DispatchActor) preset() string {
	return state.engine.Preset().Name
}

func (state *DispatchActor) stateName() string {
	if state.lastAction == "" {
		return "idle"
	}
	return state.lastAction.String()
}

func (state *DispatchActor) publish(evs []any) {
	if state.eventStream == nil {
		return
	}
	for _, ev := range evs {
		state.eventStream.Publish(ev)
	}
}

// fire-and-forget requests (no sender, no reply-to) get no response
func (state *DispatchActor) respond(ctx actor.Context, req domain.ActorRequest, resp domain.ActorResponse) {
	r := ForRequest(req)
	if r.ReplyTo(ctx) == nil {
		return
	}
	r.Respond(ctx, resp)
}
