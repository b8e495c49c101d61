// Package bootstrap wires every component of the digital twin runtime
// together: one function that builds a Dependencies struct from a loaded
// Config, so cmd/twinrd stays a thin listener/signal-handling shell. This
// core has no persistence, so the dependency graph here is the five
// components plus the ambient stack around them, rather than a logger
// plus DB handle plus service provider.
package bootstrap

import (
	"context"
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/edgetwin/runtime/internal/config"
	"github.com/edgetwin/runtime/internal/graph"
	"github.com/edgetwin/runtime/internal/intercept"
	"github.com/edgetwin/runtime/internal/managedsub"
	"github.com/edgetwin/runtime/internal/registry"
	"github.com/edgetwin/runtime/internal/rpc"
	"github.com/edgetwin/runtime/internal/transport/dispatch"
	"github.com/edgetwin/runtime/internal/transport/httpapi"
	"github.com/edgetwin/runtime/pkg/di"
	"github.com/edgetwin/runtime/pkg/logger"
	"github.com/edgetwin/runtime/pkg/tracing"
)

// Dependencies holds every constructed component, assembled once at
// startup and handed to cmd/twinrd to serve and, on shutdown, to close.
type Dependencies struct {
	Config *config.Config
	Logger *zap.Logger
	DI     *di.Container

	Registry         *registry.Registry
	DispatchRegistry *dispatch.Registry
	Router           *dispatch.Router
	Correlator       *rpc.Correlator
	Graph            *graph.Facade
	ManagedSub       *managedsub.Bridge
	Pipeline         *intercept.Pipeline

	Handlers *httpapi.Handlers

	TracerProvider *sdktrace.TracerProvider
	tracerShutdown func(context.Context) error
}

// ShutdownTracing flushes and stops the tracer provider. Safe to call
// even when tracing was disabled (OTEL_SDK_DISABLED=true), in which case
// it is a no-op.
func (d *Dependencies) ShutdownTracing(ctx context.Context) error {
	if d.tracerShutdown == nil {
		return nil
	}
	return d.tracerShutdown(ctx)
}

// Close closes the dispatch senders and flushes the structured logger's
// buffered writer. The managed-subscribe broker's MQTT client is not held
// in Dependencies and is not disconnected here.
func (d *Dependencies) Close() {
	if d.DispatchRegistry != nil {
		d.DispatchRegistry.Close()
	}
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}
}

// Initialize builds the full dependency graph from cfg. It never starts a
// listener; cmd/twinrd owns the process's network and signal lifecycle.
func Initialize(cfg *config.Config) (*Dependencies, error) {
	log, err := logger.New(logger.Config{
		Environment: environmentFor(cfg.LogLevel),
		LogLevel:    cfg.LogLevel,
		ServiceName: "edgetwin-runtime",
	})
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	zapLog := log.GetZapLogger()
	zap.ReplaceGlobals(zapLog)

	container := di.New()
	container.RegisterConfig("listen_authority", cfg.ListenAuthority)
	container.RegisterConfig("ask_timeout_ms", cfg.AskTimeoutMS)
	container.RegisterConfig("managed_subscribe_enabled", cfg.ManagedSubscribeEnabled)

	tp, tracerShutdown, err := tracing.Init(tracing.Config{
		ServiceName: "edgetwin-runtime",
		Environment: environmentFor(cfg.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	reg := registry.New()

	dispatchRegistry := dispatch.NewRegistry()
	dispatchRegistry.Register(dispatch.NewCANSender(zapLog))
	dispatchRegistry.Register(dispatch.NewBLESender(zapLog))

	var mqttSender *dispatch.MQTTSender
	if cfg.ManagedSubscribeEnabled {
		mqttSender, err = dispatch.NewMQTTSender(cfg.ManagedSubscribeBrokerURI, 1, zapLog)
		if err != nil {
			return nil, fmt.Errorf("connect managed-subscribe mqtt sender: %w", err)
		}
		dispatchRegistry.Register(mqttSender)
	}

	router := dispatch.NewRouter(dispatchRegistry, zapLog)

	correlator := rpc.New(router, zapLog, func(askID string) string {
		return cfg.NameServiceURI + "/asks/" + askID + "/answer"
	})

	var graphFacade *graph.Facade
	if cfg.GraphEnabled {
		graphFacade = graph.New(reg, correlator, zapLog, cfg.AskTimeout())
	}

	var msBridge *managedsub.Bridge
	stages := make([]intercept.Interceptor, 0, 1)
	if cfg.ManagedSubscribeEnabled {
		// msBridge is assigned below, before the broker's control-topic
		// subscription can fire; the closure only ever runs afterward, on
		// the paho client's own goroutine.
		broker, brokerErr := managedsub.NewMQTTBroker(context.Background(), cfg.ManagedSubscribeBrokerURI, "edgetwin/managed-subscribe/control", zapLog, func(topic string) {
			if msBridge != nil {
				msBridge.OnZeroSubscribers(topic)
			}
		})
		if brokerErr != nil {
			return nil, fmt.Errorf("connect managed-subscribe broker: %w", brokerErr)
		}
		msBridge = managedsub.New(cfg.ManagedSubscribeBrokerURI, broker, router, zapLog, true)
		stages = append(stages, msBridge)
	}
	pipeline := intercept.NewPipeline(stages...)

	handlers := &httpapi.Handlers{
		Registry:   reg,
		Pipeline:   pipeline,
		Graph:      graphFacade,
		Correlator: correlator,
		ManagedSub: msBridge,
		Log:        zapLog,
		DI:         container,
	}

	return &Dependencies{
		Config:           cfg,
		Logger:           zapLog,
		DI:               container,
		Registry:         reg,
		DispatchRegistry: dispatchRegistry,
		Router:           router,
		Correlator:       correlator,
		Graph:            graphFacade,
		ManagedSub:       msBridge,
		Pipeline:         pipeline,
		Handlers:         handlers,
		TracerProvider:   tp,
		tracerShutdown:   tracerShutdown,
	}, nil
}

// environmentFor maps a log level to the logger's Environment switch: only
// "debug" runs the console-encoded development config, everything else
// gets production JSON encoding.
func environmentFor(logLevel string) string {
	if logLevel == "debug" {
		return "development"
	}
	return "production"
}
