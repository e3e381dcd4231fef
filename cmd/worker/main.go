package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/shubhamkulkarni01/emstrack/internal/app"
	"github.com/shubhamkulkarni01/emstrack/internal/facilities"
	"github.com/shubhamkulkarni01/emstrack/internal/observability"
	"github.com/shubhamkulkarni01/emstrack/internal/platform/db"
	"github.com/shubhamkulkarni01/emstrack/internal/realtime"
	"github.com/shubhamkulkarni01/emstrack/internal/vehicles"
	"github.com/shubhamkulkarni01/emstrack/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := observability.NewMetrics()

	supervisor, err := realtime.Connect(ctx, realtime.Config{
		BrokerHost:     cfg.BrokerHost,
		BrokerPort:     cfg.BrokerPort,
		Username:       cfg.BrokerUsername,
		Password:       cfg.BrokerPassword,
		QueueSize:      cfg.PublishQueue,
		ConnectRetries: cfg.ConnectRetries,
		ConnectBackoff: cfg.ConnectBackoff,
	}, logger, metrics)
	if err != nil {
		logger.Error("connect broker", slog.Any("error", err))
		os.Exit(1)
	}
	defer supervisor.Close()

	bridge := realtime.NewBridge(supervisor, logger)
	resyncJob := jobs.NewResyncJob(vehicles.NewRepository(pool), facilities.NewRepository(pool), bridge, logger)

	resyncTask, err := jobs.NewResyncTask(jobs.ResyncPayload{})
	if err != nil {
		logger.Error("build resync task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskRealtimeResync, Handler: resyncJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/30 * * * *", Task: resyncTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
