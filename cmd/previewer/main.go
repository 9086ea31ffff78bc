// Command previewer consumes built descriptors from NATS, draws each one on
// a headless map through the bootstrapper and stores the GeoJSON preview in
// Valkey for GET /v1/widgets/:id/preview.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/multimap/internal/adapters/geojsonmap"
	natsadapter "github.com/samirrijal/multimap/internal/adapters/nats"
	"github.com/samirrijal/multimap/internal/adapters/valkey"
	"github.com/samirrijal/multimap/internal/bootstrap"
	"github.com/samirrijal/multimap/internal/core/domain"
	"github.com/samirrijal/multimap/internal/core/usecases"
	"github.com/samirrijal/multimap/internal/pkg/config"
	"github.com/samirrijal/multimap/internal/pkg/logging"
	"github.com/samirrijal/multimap/internal/pkg/metrics"
	"github.com/samirrijal/multimap/internal/pkg/telemetry"
)

const durableName = "multimap-previewer"

func main() {
	cfg, err := config.Load("multimap-previewer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)
	logger := slog.Default().With("component", "previewer")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			logger.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		log.Fatalf("valkey: %v", err)
	}
	defer cache.Close()

	previews := usecases.NewPreviewService(geojsonmap.NewRenderer(), cache, 0)

	// The headless library counts as loaded once the preview store answers.
	lib := geojsonmap.New()
	boot := bootstrap.New(lib, geojsonmap.AcceptAll(),
		bootstrap.WithLogger(logger),
		bootstrap.WithOnInitialized(func(ctx context.Context, desc *domain.MapInstanceDescriptor, m bootstrap.Map) {
			defer lib.Release(desc.InstanceID.ContainerID())
			data, err := geojsonmap.Snapshot(m)
			if err != nil {
				logger.Error("snapshot failed", "instance_id", string(desc.InstanceID), "error", err)
				return
			}
			if err := previews.Store(ctx, desc.InstanceID, data); err != nil {
				logger.Error("store preview failed", "instance_id", string(desc.InstanceID), "error", err)
			}
		}),
	)

	watchOpts := []bootstrap.WatcherOption{
		bootstrap.WithInterval(cfg.Maps.PollInterval()),
		bootstrap.WithMaxAttempts(cfg.Maps.MaxPollAttempts),
	}
	if cfg.Maps.MaxPollAttempts > 0 {
		watchOpts = append(watchOpts, bootstrap.WithExponentialBackoff())
	}
	watcher := bootstrap.NewReadyWatcher(func() bool {
		pingCtx, pingCancel := context.WithTimeout(ctx, time.Second)
		defer pingCancel()
		if err := cache.Ping(pingCtx); err != nil {
			return false
		}
		lib.MarkLoaded()
		return true
	}, watchOpts...)

	go func() {
		if err := boot.Run(ctx, watcher); err != nil {
			logger.Error("map library never became ready, previews stay queued", "error", err, "pending", boot.Pending())
			return
		}
		logger.Info("map library ready", "state", boot.State().String())
	}()

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL, durableName)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer sub.Close()

	err = sub.SubscribeDescriptorBuilt(ctx, func(ctx context.Context, event *domain.DescriptorBuilt) error {
		desc := event.Descriptor
		boot.Submit(ctx, &desc)
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	// Metrics and liveness
	app := fiber.New(fiber.Config{DisableStartupMessage: true, AppName: "Multimap Previewer"})
	app.Get("/metrics", metrics.Handler())
	app.Get("/v1/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"state":   boot.State().String(),
			"pending": boot.Pending(),
		})
	})
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		logger.Info("previewer listening", "addr", addr, "subject", natsadapter.SubjectDescriptorsAll)
		if err := app.Listen(addr); err != nil {
			logger.Error("listen", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down previewer", "signal", sig.String())
	cancel()
	_ = app.ShutdownWithTimeout(5 * time.Second)
}
