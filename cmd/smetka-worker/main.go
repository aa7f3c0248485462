package main

import (
	"context"
	"errors"
	"os"

	"smetka/internal/amqp"
	"smetka/internal/cli"
	applog "smetka/internal/log"
	"smetka/internal/worker"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig(applog.ComponentWorker)
	logger.Info("Starting smetka-worker", "concurrency", cfg.WorkerConcurrency, "output_dir", cfg.OutputDir)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the render worker")
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	// The payer directory fills in company details missing from a job.
	payerBackend := cli.InitBackend(ctx, logger, cfg)
	if payerBackend.Cleanup != nil {
		defer payerBackend.Cleanup()
	}
	payers, cacheManager := cli.CachedPayers(logger, cfg, payerBackend)
	defer cacheManager.Stop()

	renderer := cli.LoadRenderer(logger, cfg.TemplatePath)

	renderWorker, err := worker.NewRenderWorker(renderer, payers, cfg.OutputDir)
	if err != nil {
		logger.Error("Failed to initialize render worker", applog.FieldError, err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	err = amqpClient.ConsumeRenderJobs(ctx, cfg.WorkerConcurrency, renderWorker.HandleRenderJob)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
