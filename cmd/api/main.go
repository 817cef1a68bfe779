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

	"github.com/samirrijal/elevprofile/internal/adapters/http"
	natsadapter "github.com/samirrijal/elevprofile/internal/adapters/nats"
	"github.com/samirrijal/elevprofile/internal/adapters/postgres"
	"github.com/samirrijal/elevprofile/internal/adapters/valkey"
	"github.com/samirrijal/elevprofile/internal/app"
	"github.com/samirrijal/elevprofile/internal/core/ports"
	"github.com/samirrijal/elevprofile/internal/pkg/config"
	"github.com/samirrijal/elevprofile/internal/pkg/logging"
	"github.com/samirrijal/elevprofile/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("elevprofile-api")
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

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go db.ReportPoolStats(ctx, 15*time.Second)

	// Cache (optional). Keep untyped nils when unavailable.
	var (
		cache       ports.CacheService
		cachePinger http.Pinger
	)
	if vc, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer vc.Close()
		cache, cachePinger = vc, vc
	}

	// NATS (optional): job queue, computed events and the WebSocket relay
	var events ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, async jobs disabled", "error", err)
	} else {
		defer pub.Close()
		events = pub
	}
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Close()
	}

	profiles, closeTiles, err := app.NewProfileService(ctx, cfg, postgres.NewProfileRepo(db), cache, events)
	if err != nil {
		log.Fatalf("profile service: %v", err)
	}
	defer closeTiles()

	deps := &http.Dependencies{
		Profiles: profiles,
		NATS:     natsConn,
		DB:       db,
		Cache:    cachePinger,
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    8 * 1024 * 1024, // long lines with many POIs
		AppName:      "Elevation Profile API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "tiles", cfg.Tiles.Source, "planar_crs", cfg.Profile.PlanarCRS)
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
