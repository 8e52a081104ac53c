package actor

import (
	"errors"
	"fmt"
	"log"
	"time"

	adactor "github.com/berfenger/sundispatch/internal/adapter/actor"
	"github.com/berfenger/sundispatch/internal/config"
	"github.com/berfenger/sundispatch/internal/core/domain"
	"github.com/berfenger/sundispatch/internal/core/port"
	. "github.com/berfenger/sundispatch/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

type MQTTActorProvider func(*eventstream.EventStream) *adactor.MQTTActor

type ModbusActorProvider func() *adactor.ModbusActor

type MasterOfPuppetsActor struct {
	config   config.Config
	behavior actor.Behavior
	stash    *Stash

	currentHealthCheck  healthCheckResult
	eventStream         *eventstream.EventStream
	engine              port.DispatchEngine
	recorder            port.DispatchRecorder
	dispatchActor       *actor.PID
	modbusActor         *actor.PID
	mqttActor           *actor.PID
	telemetryActor      *actor.PID
	modbusActorProvider ModbusActorProvider
	mqttActorProvider   MQTTActorProvider
	logger              *zap.Logger
}

// healthCheckResult tracks one round of health requests to the started children.
type healthCheckResult struct {
	healthy        map[string]bool
	checksReceived int
	respondTo      *actor.PID
}

// NewMasterOfPuppetsActor builds the root actor. Providers may be nil, in which
// case the matching child is not started regardless of config.
func NewMasterOfPuppetsActor(config config.Config, engine port.DispatchEngine, recorder port.DispatchRecorder,
	modbusActorProvider ModbusActorProvider, mqttActorProvider MQTTActorProvider, logger *zap.Logger) *MasterOfPuppetsActor {
	act := &MasterOfPuppetsActor{
		config:              config,
		behavior:            actor.NewBehavior(),
		stash:               &Stash{},
		logger:              ActorLogger(domain.ACTOR_ID_MASTER, logger),
		eventStream:         &eventstream.EventStream{},
		engine:              engine,
		recorder:            recorder,
		modbusActorProvider: modbusActorProvider,
		mqttActorProvider:   mqttActorProvider,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MasterOfPuppetsActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MasterOfPuppetsActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("master@starting started")

		state.currentHealthCheck = healthCheckResult{healthy: map[string]bool{}}

		// start Dispatch child
		dispatchActorPID, err := state.startDispatchActor(ctx)
		if err != nil {
			panic(err)
		}
		state.dispatchActor = dispatchActorPID
		state.currentHealthCheck.expect(domain.ACTOR_ID_DISPATCH)

		// start MQTT child
		if state.config.MQTT.Enable && state.mqttActorProvider != nil {
			mqttActorPID, err := state.startMQTTActor(ctx)
			if err != nil {
				panic(err)
			}
			state.mqttActor = mqttActorPID
			state.currentHealthCheck.expect(domain.ACTOR_ID_MQTT)
		}

		// start Modbus and Telemetry children
		if state.config.InverterModbusTcp.Enabled() && state.modbusActorProvider != nil {
			modbusActorPID, err := state.startModbusActor(ctx)
			if err != nil {
				panic(err)
			}
			state.modbusActor = modbusActorPID
			state.currentHealthCheck.expect(domain.ACTOR_ID_MODBUS)

			telemetryActorPID, err := state.startTelemetryActor(ctx)
			if err != nil {
				panic(err)
			}
			state.telemetryActor = telemetryActorPID
			state.currentHealthCheck.expect(domain.ACTOR_ID_TELEMETRY)
		}

		// start HA Discovery
		if state.config.MQTT.HADiscoveryEnable && state.mqttActor != nil {
			_, err := state.startHADiscoveryActor(ctx)
			if err != nil {
				panic(err)
			}
		}

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("master@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("master@default ActorHealthRequest")
		state.currentHealthCheck.reset()
		state.currentHealthCheck.respondTo = ctx.Sender()
		for id, pid := range state.healthCheckedChildren() {
			PipeToSelfWithRecover(ctx, ctx.RequestFuture(pid, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
				return domain.ActorHealthResponse{
					Id:      id,
					Healthy: false,
				}
			})
		}

		ctx.SetReceiveTimeout(1 * time.Second)

		state.behavior.BecomeStacked(state.HealthCheckReceive)
	case domain.DispatchActorRequest:
		// HTTP and telemetry requests keep their sender so the dispatch actor replies directly
		state.logger.Debug("master@default dispatch request", zap.String("type", fmt.Sprintf("%T", msg)))
		Forward(ctx, state.dispatchActor, msg)
	case adactor.ParsedCommand:
		// redirect parsedCommand to actor
		state.logger.Debug("master@default parsedCommand", zap.Any("command", msg.Command))
		if msg.Command != nil {
			cmd, err := ParsedMQTTCommandToCommand(*msg.Command)
			if err != nil {
				state.logger.Warn("master@default invalid command", zap.Error(err))
				return
			}
			if pcmd, ok := cmd.(domain.DispatchActorRequest); ok {
				ctx.Send(state.dispatchActor, pcmd)
			}
		}
	case domain.ActorHealthResponse:
		state.logger.Debug("master@default late ActorHealthResponse", zap.String("sender", msg.Id))
	case *actor.Terminated:
		// the engine owner is mandatory
		if msg.Who.Id == childId(domain.ACTOR_ID_DISPATCH) {
			state.logger.Error("master@default dispatch terminated")
			panic(errors.New("dispatch terminated"))
		}
		state.logger.Warn("master@default child terminated", zap.String("child", msg.Who.Id))
	default:
		state.logger.Debug("master@default unhandled", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MasterOfPuppetsActor) HealthCheckReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		// if some actor does not respond to healthCheck, assume not healthy
		state.finishHealthCheck(ctx)
	case domain.ActorHealthResponse:
		state.logger.Debug("master@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.currentHealthCheck.record(msg)
		if state.currentHealthCheck.allReceived() {
			state.finishHealthCheck(ctx)
		} else {
			ctx.SetReceiveTimeout(1 * time.Second)
		}
	default:
		state.logger.Debug("master@healthcheck stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) finishHealthCheck(ctx actor.Context) {
	ctx.CancelReceiveTimeout()
	state.currentHealthCheck.respond(ctx)
	state.behavior.UnbecomeStacked()
	state.stash.UnstashAll(ctx)
}

func (state *MasterOfPuppetsActor) healthCheckedChildren() map[string]*actor.PID {
	children := map[string]*actor.PID{}
	for id, pid := range map[string]*actor.PID{
		domain.ACTOR_ID_DISPATCH:  state.dispatchActor,
		domain.ACTOR_ID_MQTT:      state.mqttActor,
		domain.ACTOR_ID_MODBUS:    state.modbusActor,
		domain.ACTOR_ID_TELEMETRY: state.telemetryActor,
	} {
		if pid != nil {
			children[id] = pid
		}
	}
	return children
}

func (state *MasterOfPuppetsActor) startDispatchActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(10, 10*time.Second, decider)

	dispatchProps := actor.PropsFromProducer(func() actor.Actor {
		return NewDispatchActor(state.engine, state.recorder, state.eventStream, state.logger)
	}, actor.WithSupervisor(supervisor))
	return ctx.SpawnNamed(dispatchProps, domain.ACTOR_ID_DISPATCH)
}

func (state *MasterOfPuppetsActor) startModbusActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	modbusProps := actor.PropsFromProducer(func() actor.Actor {
		return state.modbusActorProvider()
	}, actor.WithSupervisor(supervisor))
	return ctx.SpawnNamed(modbusProps, domain.ACTOR_ID_MODBUS)
}

func (state *MasterOfPuppetsActor) startTelemetryActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	telemetryProps := actor.PropsFromProducer(func() actor.Actor {
		return NewTelemetryActor(&state.config, state.modbusActor, state.dispatchActor, state.eventStream, state.logger)
	}, actor.WithSupervisor(supervisor))
	return ctx.SpawnNamed(telemetryProps, domain.ACTOR_ID_TELEMETRY)
}

func (state *MasterOfPuppetsActor) startHADiscoveryActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	haDiscProps := actor.PropsFromProducer(func() actor.Actor {
		return NewHADiscoveryActor(&state.config, state.dispatchActor, state.mqttActor, state.modbusActor, state.logger)
	}, actor.WithSupervisor(supervisor))
	return ctx.SpawnNamed(haDiscProps, domain.ACTOR_ID_HA_DISCOVERY)
}

func (state *MasterOfPuppetsActor) startMQTTActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	mqttProps := actor.PropsFromProducer(func() actor.Actor {
		return state.mqttActorProvider(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	return ctx.SpawnNamed(mqttProps, domain.ACTOR_ID_MQTT)
}

func childId(name string) string {
	return fmt.Sprintf("%s/%s", domain.ACTOR_ID_MASTER, name)
}

func (state *healthCheckResult) expect(id string) {
	state.healthy[id] = false
}

func (state *healthCheckResult) record(resp domain.ActorHealthResponse) {
	if _, ok := state.healthy[resp.Id]; !ok {
		return
	}
	state.checksReceived++
	if resp.Healthy {
		state.healthy[resp.Id] = true
	}
}

func (state *healthCheckResult) reset() {
	for id := range state.healthy {
		state.healthy[id] = false
	}
	state.checksReceived = 0
}

func (state *healthCheckResult) allReceived() bool {
	return state.checksReceived >= len(state.healthy)
}

func (state *healthCheckResult) allHealthy() bool {
	if len(state.healthy) == 0 {
		return false
	}
	for _, healthy := range state.healthy {
		if !healthy {
			return false
		}
	}
	return true
}

func (state *healthCheckResult) respond(ctx actor.Context) {
	resp := domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_MASTER,
		Healthy: state.allHealthy(),
	}
	if state.respondTo != nil {
		ctx.Send(state.respondTo, resp)
	}
}
