package main

import (
	"context"
	"errors"
	"os"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat, log.ComponentWorker)

	logger.Info("Starting fintrack-worker", log.FieldOperation, log.OpStartup)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldErrorType, log.ErrorTypeConfiguration, log.FieldError, err)
		os.Exit(1)
	}
	factory := backend.NewFactory(logger)

	store, closeStore, err := factory.CreateStore(backendCfg)
	if err != nil {
		logger.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// Unlike the API, an unreachable broker is fatal for the worker.
	amqpClient, err := factory.CreateAMQP(backendCfg)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}

	var publisher services.EventPublisher
	if amqpClient != nil {
		publisher = amqpClient
		defer amqpClient.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sweeper *services.ChallengeSweeper
	if cfg.SweepInterval > 0 {
		tracker := services.NewChallengeTracker(store, store, services.NewBadgeAwarder(store, publisher))
		sweeper = services.NewChallengeSweeper(store, tracker, services.ChallengeSweeperConfig{Interval: cfg.SweepInterval})
		if err := sweeper.Start(ctx); err != nil {
			logger.Error("Failed to start challenge sweeper", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Info("Challenge sweeper disabled")
	}

	if amqpClient != nil {
		mirror, err := factory.CreateMirror(ctx, backendCfg)
		if err != nil {
			logger.Error("Failed to initialize ledger mirror", "error", err)
			os.Exit(1)
		}
		eventWorker := worker.NewEventWorker(mirror, logger)

		go func() {
			if err := amqpClient.Consume(ctx, eventWorker.Handlers()); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", "error", err)
				cancel()
			}
		}()
		logger.Info("Consuming events", "queue", cfg.AMQPQueue, "remote_mirror", mirror.Remote)
	} else {
		logger.Info("Skipping event consumption - no AMQP_URL provided")
	}

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(stopCtx context.Context) {
		cancel()
		if sweeper != nil {
			if err := sweeper.Stop(stopCtx); err != nil {
				logger.Error("Sweeper stop error", "error", err)
			}
		}
	})

	select {
	case <-shutdownCtx.Done():
		<-done
	case <-ctx.Done():
		logger.Warn("Worker stopped after consumer failure")
		if sweeper != nil {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
			_ = sweeper.Stop(stopCtx)
			stopCancel()
		}
	}
	logger.Info("Worker shutdown complete")
}
