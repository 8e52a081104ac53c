package actorutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/berfenger/sundispatch/internal/core/domain"
	"github.com/berfenger/sundispatch/internal/core/events"
	"github.com/berfenger/sundispatch/internal/mqtt"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/lmittmann/tint"
	"go.uber.org/zap"
)

func PipeToSelfWithRecover(ctx actor.Context, future *actor.Future, mapFn func(error) any) {
	ctx.ReenterAfter(future, func(msg any, err error) {
		if err != nil {
			ctx.Send(ctx.Self(), mapFn(err))
			return
		}
		ctx.Send(ctx.Self(), msg)
	})
}

func NewActorSystemWithZapLogger(logger *zap.Logger) *actor.ActorSystem {
	stdOutLogger := zap.NewStdLog(logger)

	var slogLevel slog.Level = slog.LevelInfo

	switch logger.Level() {
	case zap.DebugLevel:
		slogLevel = slog.LevelDebug
	case zap.InfoLevel:
		slogLevel = slog.LevelInfo
	case zap.WarnLevel:
		slogLevel = slog.LevelWarn
	case zap.ErrorLevel:
		slogLevel = slog.LevelError
	case zap.PanicLevel:
		slogLevel = slog.LevelError
	}

	return actor.NewActorSystem(actor.WithLoggerFactory(func(system *actor.ActorSystem) *slog.Logger {

		// create a new logger
		return slog.New(tint.NewHandler(stdOutLogger.Writer(), &tint.Options{
			Level:      slogLevel,
			TimeFormat: time.DateTime,
		}))
	}))
}

func ActorLogger(actorName string, logger *zap.Logger) *zap.Logger {
	return logger.With(zap.String("actor", actorName))
}

// ParsedMQTTCommandToCommand maps an inbound MQTT command to a dispatch actor request.
// Unknown commands map to nil without error.
func ParsedMQTTCommandToCommand(cmd mqtt.ParsedMQTTCommand) (domain.ActorRequest, error) {
	switch cmd.Command {
	case mqtt.COMMAND_DISPATCH:
		reading, err := DecodeReading([]byte(cmd.Payload))
		if err != nil {
			return nil, err
		}
		return domain.DispatchRequest{
			Reading: *reading,
		}, nil
	case mqtt.COMMAND_BUTTON:
		if cmd.DeviceId == events.BUTTON_ID_RESET {
			return domain.ResetRequest{}, nil
		}
	}
	return nil, nil
}

// DecodeReading parses a JSON reading. All three fields are required.
func DecodeReading(payload []byte) (*domain.Reading, error) {
	var raw struct {
		PVOutput         *float64 `json:"pv_output"`
		HouseConsumption *float64 `json:"house_consumption"`
		BatteryLevel     *float64 `json:"battery_level"`
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("malformed reading: %w", err)
	}
	switch {
	case raw.PVOutput == nil:
		return nil, fmt.Errorf("malformed reading: missing %s", domain.READING_FIELD_PV_OUTPUT)
	case raw.HouseConsumption == nil:
		return nil, fmt.Errorf("malformed reading: missing %s", domain.READING_FIELD_HOUSE_CONSUMPTION)
	case raw.BatteryLevel == nil:
		return nil, fmt.Errorf("malformed reading: missing %s", domain.READING_FIELD_BATTERY_LEVEL)
	}
	return &domain.Reading{
		PVOutputWatt:         *raw.PVOutput,
		HouseConsumptionWatt: *raw.HouseConsumption,
		BatteryLevelPercent:  *raw.BatteryLevel,
	}, nil
}
