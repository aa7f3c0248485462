package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"smetka/internal/amqp"
	"smetka/internal/cli"
	apphttp "smetka/internal/http"
	applog "smetka/internal/log"
	"smetka/internal/middleware/ratelimit"
	"smetka/internal/services"
	"smetka/internal/sheets"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig(applog.ComponentApp)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	payerBackend := cli.InitBackend(ctx, logger, cfg)
	if payerBackend.Cleanup != nil {
		defer func() {
			if err := payerBackend.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", applog.FieldError, err)
			}
		}()
	}

	payers, cacheManager := cli.CachedPayers(logger, cfg, payerBackend)
	defer cacheManager.Stop()

	renderer := cli.LoadRenderer(logger, cfg.TemplatePath)

	// The render queue is optional; without it only synchronous downloads work.
	var publisher services.RenderJobPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, background rendering disabled", applog.FieldError, err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("Render queue connected", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	var payerWriter sheets.PayerWriter
	if payers.Writable() {
		payerWriter = payers
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Service:        services.NewStatementService(renderer, payers, publisher),
		Payers:         payers,
		PayerWriter:    payerWriter,
		Ping:           payerBackend.Ping,
		Logger:         logger,
		RateLimit:      ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute},
		TrustedProxies: cfg.TrustedProxies,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting smetka server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := cli.ShutdownContext(30 * time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
