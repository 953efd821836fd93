package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/dataflow/api"
	"github.com/kbukum/dataflow/component"
	"github.com/kbukum/dataflow/logger"
	"github.com/kbukum/dataflow/observability"
	"github.com/kbukum/dataflow/redis"
	"github.com/kbukum/dataflow/resilience"
	"github.com/kbukum/dataflow/server"
)

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve schedule computations over HTTP",
		Long: `Start the HTTP service. POST a graph document to /v1/schedules to compute
its schedule, or to /v1/graphs/legalize to see the legalized graph.
/health, /info, /version and /metrics report on the service itself.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := appConfig
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			return serve(cmd.Context(), cfg.Server)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Override server.port")
	return cmd
}

// serve runs the HTTP service until ctx is cancelled.
func serve(ctx context.Context, srvCfg server.Config) error {
	cfg := appConfig
	log := logger.WithComponent("serve")
	registry := component.NewRegistry(logger.GetGlobalLogger())

	// Instruments bind to the global meter provider, which forwards to the
	// exporter once the telemetry component has started.
	var metrics *observability.Metrics
	if cfg.Telemetry.Enabled {
		m, err := observability.NewMetrics(observability.Meter(serviceName))
		if err != nil {
			return err
		}
		metrics = m
		if err := registry.Register(telemetryComponent()); err != nil {
			return err
		}
	}

	opts := []api.Option{}
	if cfg.Cache.Enabled {
		rc := redis.NewComponent(cfg.Cache, logger.GetGlobalLogger())
		if err := registry.Register(rc); err != nil {
			return err
		}
		opts = append(opts, api.WithCache(redis.NewScheduleCache(rc, cfg.Cache.KeyPrefix, cfg.Cache.TTL())))
	}

	srv := server.New(srvCfg, logger.GetGlobalLogger())
	timeout := time.Duration(srvCfg.ScheduleTimeout) * time.Second
	slots := resilience.NewBulkhead(resilience.BulkheadConfig{
		Name:          "scheduler",
		MaxConcurrent: srvCfg.MaxConcurrent,
		MaxWait:       time.Duration(srvCfg.QueueTimeout) * time.Second,
	})
	opts = append(opts,
		api.WithBaseConfig(cfg.Schedule),
		api.WithTimeout(timeout),
		api.WithMetrics(metrics),
		api.WithBulkhead(slots),
	)
	api.NewSchedules(logger.GetGlobalLogger(), opts...).Register(srv.GinEngine())
	if err := registry.Register(srv); err != nil {
		return err
	}

	checkers := append(registry.Checkers(), api.SchedulerCheck{Config: cfg.Schedule, Timeout: timeout, Slots: slots})
	srv.RegisterDefaultEndpoints(cfg.Name, checkers...)

	if err := registry.StartAll(ctx); err != nil {
		return err
	}
	log.Info("sdfsched ready", logger.Fields(
		"addr", srv.Addr(),
		"environment", cfg.Environment,
		"components", registry.Names(),
		"slots", slots.Stats().Capacity,
	))

	<-ctx.Done()
	log.Info("shutting down")
	return registry.StopAll(context.Background())
}

// telemetryComponent starts OTLP trace and metric export and flushes both
// providers on stop.
func telemetryComponent() component.Func {
	var providers *observability.Providers
	return component.Func{
		ID: "telemetry",
		OnStart: func(ctx context.Context) error {
			p, err := observability.Init(ctx, appConfig.ExportConfig())
			if err != nil {
				return err
			}
			providers = p
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if providers == nil {
				return nil
			}
			return providers.Shutdown(ctx)
		},
	}
}
