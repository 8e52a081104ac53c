package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adactor "github.com/berfenger/sundispatch/internal/adapter/actor"
	"github.com/berfenger/sundispatch/internal/config"
	"github.com/berfenger/sundispatch/internal/core/actor"
	"github.com/berfenger/sundispatch/internal/core/domain"
	"github.com/berfenger/sundispatch/internal/core/service"
	"github.com/berfenger/sundispatch/internal/metrics"
	"github.com/berfenger/sundispatch/internal/server"
	"github.com/berfenger/sundispatch/internal/util/actorutil"
	"github.com/berfenger/sundispatch/pkg/sunspec_modbus"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {

	// load and print config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config errors", "error", err)
		os.Exit(1)
	}
	config.SafePrintConfig(*cfg)

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())
	defer logger.Sync()

	// dispatch engine
	registry := service.DefaultPresetRegistry()
	engine, err := service.NewDispatchEngine(registry, cfg.Preset,
		service.WithSnapshotMode(cfg.Mode()), service.WithLogger(logger.Named("engine")))
	if err != nil {
		fields := []zap.Field{zap.Error(err)}
		if errors.Is(err, domain.ErrConfigurationNotFound) {
			fields = append(fields, zap.Strings("available", registry.Names()))
		}
		logger.Error("dispatch engine", fields...)
		logger.Sync()
		os.Exit(1)
	}

	// metrics
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder, err := metrics.NewPromRecorder(promRegistry)
	if err != nil {
		logger.Fatal("metrics", zap.Error(err))
	}

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	// init Modbus actor provider
	var modbusProv actor.ModbusActorProvider
	if cfg.InverterModbusTcp.Enabled() {
		modbusProv, err = modbusActorProvider(cfg, logger)
		if err != nil {
			logger.Fatal("modbus", zap.Error(err))
		}
	}

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterOfPuppetsActor(*cfg, engine, recorder, modbusProv, mqttActorProvider(cfg, logger), logger)
	})
	pid, err := ctx.SpawnNamed(props, domain.ACTOR_ID_MASTER)
	if err != nil {
		logger.Fatal("master", zap.Error(err))
	}

	server := server.NewServer(*cfg, ctx, pid, registry, promRegistry)
	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(server, done)

	logger.Info("listening", zap.String("addr", server.Addr), zap.String("preset", engine.Preset().Name),
		zap.String("snapshot_mode", string(engine.Mode())))

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")

	ctx.Stop(pid)
	as.Shutdown()
}

func modbusActorProvider(cfg *config.Config, logger *zap.Logger) (actor.ModbusActorProvider, error) {

	inv, err := sunspec_modbus.CreateInverterIntSFModbusReader(cfg.InverterModbusTcp.Host,
		cfg.InverterModbusTcp.Port, uint8(cfg.InverterModbusTcp.InverterId), 1*time.Second,
		cfg.InverterModbusTcp.IgnoreFronius, logger, nil)

	if err != nil {
		return nil, err
	}

	acMeter, err := sunspec_modbus.CreateACMeterIntSFModbusReader(cfg.InverterModbusTcp.Host,
		cfg.InverterModbusTcp.Port, uint8(cfg.InverterModbusTcp.MeterId), 1*time.Second,
		cfg.InverterModbusTcp.IgnoreFronius, logger, nil)

	if err != nil {
		return nil, err
	}

	return func() *adactor.ModbusActor {
		return adactor.NewModbusActor(inv, acMeter, logger)
	}, nil
}

func mqttActorProvider(cfg *config.Config, logger *zap.Logger) actor.MQTTActorProvider {
	return func(es *eventstream.EventStream) *adactor.MQTTActor {
		return adactor.NewMQTTActor(cfg, es, logger)
	}
}
