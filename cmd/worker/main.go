package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"time"

	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/elevprofile/internal/adapters/nats"
	"github.com/samirrijal/elevprofile/internal/adapters/postgres"
	"github.com/samirrijal/elevprofile/internal/adapters/valkey"
	"github.com/samirrijal/elevprofile/internal/app"
	"github.com/samirrijal/elevprofile/internal/core/domain"
	"github.com/samirrijal/elevprofile/internal/core/ports"
	"github.com/samirrijal/elevprofile/internal/pkg/config"
	"github.com/samirrijal/elevprofile/internal/pkg/logging"
	"github.com/samirrijal/elevprofile/internal/pkg/telemetry"
	"github.com/samirrijal/elevprofile/internal/workflows"
)

func main() {
	cfg, err := config.Load("elevprofile-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)
	logger := logging.Component("worker")

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

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go db.ReportPoolStats(ctx, 15*time.Second)

	var cache ports.CacheService
	if vc, err := valkey.New(cfg.Valkey.Addr); err != nil {
		logger.Warn("valkey unavailable", "error", err)
	} else {
		defer vc.Close()
		cache = vc
	}

	var events ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		logger.Warn("nats publisher unavailable, computed events disabled", "error", err)
	} else {
		defer pub.Close()
		events = pub
	}

	profiles, closeTiles, err := app.NewProfileService(ctx, cfg, postgres.NewProfileRepo(db), cache, events)
	if err != nil {
		log.Fatalf("profile service: %v", err)
	}
	defer closeTiles()

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    tlog.NewStructuredLogger(slog.Default()),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize: cfg.Profile.Workers,
	})
	w.RegisterWorkflow(workflows.ProfileWorkflow)
	w.RegisterActivity(&workflows.ProfileActivities{Profiles: profiles})

	// Queued jobs arrive on NATS and are handed to Temporal.
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer sub.Close()

	if err := relayJobs(ctx, sub, c, cfg, logger); err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	logger.Info("profile worker started", "task_queue", cfg.Temporal.TaskQueue, "workers", cfg.Profile.Workers)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

// relayJobs starts one workflow per queued profile job.
func relayJobs(ctx context.Context, sub ports.EventSubscriber, c client.Client, cfg *config.Config, logger *slog.Logger) error {
	return sub.SubscribeProfileRequests(ctx, func(ctx context.Context, job domain.ProfileJob) error {
		run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
			ID:        workflows.WorkflowID(job.ID),
			TaskQueue: cfg.Temporal.TaskQueue,
		}, workflows.ProfileWorkflow, workflows.ProfileInput{
			JobID:    job.ID,
			Request:  job.Request,
			FailFast: cfg.Profile.FailFast,
		})
		if err != nil {
			return fmt.Errorf("start workflow for job %s: %w", job.ID, err)
		}
		logger.Info("profile workflow started", "job", job.ID, "workflow", run.GetID(), "run", run.GetRunID())
		return nil
	})
}
