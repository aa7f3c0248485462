// Package cli provides common CLI initialization utilities shared by
// cmd/smetka and cmd/smetka-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"smetka/internal/adapters"
	"smetka/internal/backend"
	"smetka/internal/cache"
	"smetka/internal/config"
	applog "smetka/internal/log"
	"smetka/internal/render"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func SetupLogger(cfg *config.Config, component string) *applog.Logger {
	level, err := config.ParseLogLevel(cfg.LogLevel)
	logger := applog.New(applog.Config{
		Level:     level,
		Component: component,
		Format:    cfg.LogFormat,
		Output:    os.Stdout,
	})
	applog.SetDefault(logger)
	if err != nil {
		logger.Warn("Falling back to info level", applog.FieldError, err)
	}
	return logger
}

// LoadAndValidateConfig loads .env and the environment, sets up logging and
// exits the process when the configuration is invalid.
func LoadAndValidateConfig(component string) (*config.Config, *applog.Logger) {
	LoadEnvFile()
	cfg := config.Load()
	logger := SetupLogger(cfg, component)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}

// InitBackend opens the payer directory selected by DATA_BACKEND.
// Returns the backend or exits the process on failure.
func InitBackend(ctx context.Context, logger *applog.Logger, cfg *config.Config) *backend.BackendResult {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize payer backend", applog.FieldError, err, "backend", bcfg.Type)
		os.Exit(1)
	}
	return result
}

// CachedPayers wraps the backend in an LRU cache and registers it for
// periodic expiry. Stop the returned manager on shutdown.
func CachedPayers(logger *applog.Logger, cfg *config.Config, b *backend.BackendResult) (*adapters.CachedPayers, *cache.Manager) {
	payers := adapters.NewCachedPayers(b.Reader, b.Writer, 256, cfg.PayerCacheTTL)
	manager := cache.NewManager(logger.WithComponent(applog.ComponentCache).Logger)
	for _, c := range payers.Caches() {
		manager.Register(c)
	}
	manager.StartCleanup(cfg.PayerCacheTTL)
	return payers, manager
}

// LoadRenderer reads TEMPLATE_PATH, falling back to the built-in form when
// the file does not exist. Exits the process on an unreadable template.
func LoadRenderer(logger *applog.Logger, path string) *render.Renderer {
	renderer, err := render.LoadRenderer(path)
	if err != nil {
		logger.Error("Failed to load form template", applog.FieldError, err, "path", path)
		os.Exit(1)
	}
	if _, statErr := os.Stat(path); statErr != nil {
		logger.Info("Using built-in form template", "path", path)
	} else {
		logger.Info("Loaded form template", "path", path)
	}
	return renderer
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")
	}()
	return ctx, stop
}

// ShutdownContext bounds the time allowed for graceful shutdown.
func ShutdownContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}
