package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/bingonight/internal/adapters/archive"
	"github.com/okian/bingonight/internal/adapters/http/api"
	"github.com/okian/bingonight/internal/adapters/mq/worker"
	"github.com/okian/bingonight/internal/adapters/repository"
	"github.com/okian/bingonight/internal/adapters/timer"
	service "github.com/okian/bingonight/internal/app"
	"github.com/okian/bingonight/internal/config"
	"github.com/okian/bingonight/pkg/logger"
	"github.com/okian/bingonight/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	shutdownTimeout           = 30 * time.Second
	nanosecondsPerMillisecond = 1e6
)

// components holds everything main has to tear down.
type components struct {
	store  repository.Store
	timers *timer.Registry
	svc    *service.Service
}

func main() {
	// Our own system gauges replace the default Go and process collectors.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			os.Stderr.WriteString("failed to sync logger: " + err.Error() + "\n")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Get().Error(ctx, "bingonight exited", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	log := logger.Get()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	if cfg.HostSecret == config.DefaultHostSecret {
		log.Warn(ctx, "using the development host secret; set BINGO_HOST_SECRET before exposing the server")
	}

	c, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer c.close(ctx, log)

	if err := c.svc.Start(ctx); err != nil {
		return err
	}
	if err := scheduleMetrics(c.timers, c.svc, log); err != nil {
		return err
	}

	srv, err := api.NewServer(c.svc,
		api.WithLogger(log.Named("http")),
		api.WithHostSecret(cfg.HostSecret),
		api.WithTokenTTL(cfg.HostTokenTTL),
	)
	if err != nil {
		return err
	}
	app := srv.App()

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("store", cfg.StoreDriver))
		serveErr <- app.Listen(cfg.Addr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}
	log.Info(ctx, "shutting down server...")

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// build wires the store, timer registry, sinks and game service from cfg.
func build(ctx context.Context, cfg *config.Config, log logger.Logger) (*components, error) {
	store, err := repository.Open(cfg.StoreDriver, cfg.StoreDSN, repository.WithLogger(log.Named("store")))
	if err != nil {
		return nil, err
	}

	timers, err := timer.New(timer.WithLogger(log.Named("timer")))
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	opts := []service.Option{
		service.WithLogger(log.Named("service")),
		service.WithRecentEvents(cfg.RecentEvents),
		service.WithQuestionDefaults(cfg.QuestionLimit(), cfg.DefaultQuestionPoints),
		service.WithResolvedMarkerSize(cfg.ResolvedMarkerSize),
		service.WithOutbox(cfg.OutboxQueueSize, cfg.OutboxWorkers),
	}
	sinks := []worker.Sink{worker.NewLogSink(log.Named("events"))}

	if cfg.ArchiveEnabled {
		arch, err := archive.New(ctx, archive.Config{
			Bucket:    cfg.ArchiveBucket,
			Region:    cfg.ArchiveRegion,
			Endpoint:  cfg.ArchiveEndpoint,
			AccessKey: cfg.ArchiveAccessKey,
			SecretKey: cfg.ArchiveSecretKey,
		}, archive.WithLogger(log.Named("archive")))
		if err != nil {
			_ = timers.Shutdown()
			_ = store.Close()
			return nil, err
		}
		sinks = append(sinks, arch)
		opts = append(opts, service.WithArchiver(arch))
	}
	opts = append(opts, service.WithSinks(sinks...))

	return &components{
		store:  store,
		timers: timers,
		svc:    service.New(store, timers, opts...),
	}, nil
}

// close stops the service before the registry and the store it depends on.
func (c *components) close(ctx context.Context, log logger.Logger) {
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	err := errors.Join(
		c.svc.Stop(stopCtx),
		c.timers.Shutdown(),
		c.store.Close(),
	)
	if err != nil {
		log.Error(stopCtx, "shutdown incomplete", logger.Error(err))
	}
}

// scheduleMetrics refreshes the system and service gauges on the metrics
// refresh interval.
func scheduleMetrics(timers *timer.Registry, svc *service.Service, log logger.Logger) error {
	every := metrics.RefreshInterval()
	if err := timers.Every("system-metrics", every, func(context.Context) {
		updateSystemMetrics()
	}); err != nil {
		return err
	}
	return timers.Every("service-metrics", every, func(ctx context.Context) {
		if err := updateServiceMetrics(ctx, svc); err != nil {
			log.Warn(ctx, "service metrics update failed", logger.Error(err))
		}
	})
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics publishes the service counters as gauges.
func updateServiceMetrics(ctx context.Context, svc *service.Service) error {
	stats, err := svc.Stats(ctx)
	if err != nil {
		return err
	}
	metrics.UpdateActiveSessions(stats.Sessions)
	metrics.UpdatePendingTimers(stats.PendingTimers)
	metrics.UpdateQueueSize(stats.QueueLength)
	metrics.UpdateWorkerActiveCount(stats.Workers)
	return nil
}
