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
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/multimap/internal/adapters/geojsonmap"
	"github.com/samirrijal/multimap/internal/adapters/http"
	natsadapter "github.com/samirrijal/multimap/internal/adapters/nats"
	"github.com/samirrijal/multimap/internal/adapters/postgres"
	"github.com/samirrijal/multimap/internal/adapters/storage"
	"github.com/samirrijal/multimap/internal/adapters/valkey"
	"github.com/samirrijal/multimap/internal/core/ports"
	"github.com/samirrijal/multimap/internal/core/usecases"
	"github.com/samirrijal/multimap/internal/pkg/config"
	"github.com/samirrijal/multimap/internal/pkg/logging"
	"github.com/samirrijal/multimap/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("multimap-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database (media library). Without it images are omitted from pins.
	var mediaRepo ports.MediaRepository
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		slog.Warn("database unavailable, pin images disabled", "error", err)
	} else {
		defer db.Close()
		mediaRepo = postgres.NewMediaRepo(db)
		go db.ReportPoolStats(ctx, 15*time.Second)
	}

	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Close()
	}

	var objects ports.ObjectURLer
	if cfg.Storage.Endpoint != "" {
		s3, err := storage.NewS3Service(cfg.Storage)
		if err != nil {
			slog.Warn("object storage unavailable", "error", err)
		} else {
			if err := s3.CheckBucket(ctx); err != nil {
				slog.Warn("media bucket check failed", "error", err)
			}
			objects = s3
		}
	}

	mediaSvc := usecases.NewMediaService(mediaRepo, objects, cacheSvc,
		usecases.WithRendition(cfg.Media.Rendition),
		usecases.WithCacheTTL(cfg.Media.CacheTTLSecond),
	)
	descriptorSvc := usecases.NewDescriptorService(mediaSvc, publisher)
	widgetSvc := usecases.NewWidgetService(descriptorSvc, usecases.WidgetConfig{
		APIKey:             cfg.Maps.APIKey,
		LoaderURL:          cfg.Maps.LoaderURL,
		AssetURL:           cfg.Maps.AssetURL,
		DefaultAspectRatio: cfg.Maps.DefaultAspectRatio,
	})
	previewSvc := usecases.NewPreviewService(geojsonmap.NewRenderer(), cacheSvc, 0)

	deps := &http.Dependencies{
		Descriptors: descriptorSvc,
		Widgets:     widgetSvc,
		Previews:    previewSvc,
		NATS:        natsConn,
		DB:          db,
		Cache:       cache,
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024,
		AppName:      "Multimap API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
