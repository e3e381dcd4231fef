package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/shubhamkulkarni01/emstrack/internal/access"
	"github.com/shubhamkulkarni01/emstrack/internal/app"
	"github.com/shubhamkulkarni01/emstrack/internal/auth"
	"github.com/shubhamkulkarni01/emstrack/internal/facilities"
	"github.com/shubhamkulkarni01/emstrack/internal/history"
	"github.com/shubhamkulkarni01/emstrack/internal/observability"
	"github.com/shubhamkulkarni01/emstrack/internal/platform/cache"
	"github.com/shubhamkulkarni01/emstrack/internal/platform/db"
	"github.com/shubhamkulkarni01/emstrack/internal/realtime"
	"github.com/shubhamkulkarni01/emstrack/internal/vehicles"
	"github.com/shubhamkulkarni01/emstrack/jobs"
)

func main() {
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	// The broker connection is load-bearing: without it no client sees
	// state changes, so a failed connect is fatal.
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

	bridge := realtime.NewBridge(supervisor, logger)
	evaluator := access.NewEvaluator(access.NewRepository(pool))
	recorder := history.NewRecorder(history.NewRepository(pool), logger)

	tokens := auth.NewTokenStore(redisClient, cfg.TokenTTL)
	authService := auth.NewService(auth.NewRepository(pool), tokens)
	authHandler := auth.NewHandler(logger, authService)
	authMiddleware := &auth.Middleware{Service: authService, Logger: logger}

	vehicleService := vehicles.NewService(vehicles.NewRepository(pool), evaluator, recorder, bridge, logger)
	vehicleHandler := vehicles.NewHandler(logger, vehicleService)

	facilityService := facilities.NewService(facilities.NewRepository(pool), evaluator, bridge, logger)
	facilityHandler := facilities.NewHandler(logger, facilityService)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(jobClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		AuthHandler:     authHandler,
		AuthMiddleware:  authMiddleware,
		VehicleHandler:  vehicleHandler,
		FacilityHandler: facilityHandler,
		JobHandler:      jobHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("http server", slog.Any("error", err))
	}

	// Disconnect the broker only after the server stops accepting
	// mutations, so every accepted change is still broadcast.
	supervisor.Close()
}
