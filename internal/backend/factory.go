package backend

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	gsheet "smetka/internal/sheets/google"
	"smetka/internal/sheets/memory"
	"smetka/internal/storage"

	goption "google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	// An empty database is seeded from the same file the memory backend reads.
	seed, _ := memory.NewFromFiles(config.DataDirectory).ListPayers(ctx)
	seeded, err := repo.SeedPayers(ctx, seed)
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("seed payers: %w", err)
	}

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"seeded", seeded)

	return &BackendResult{
		Reader:  repo,
		Writer:  repo,
		Cleanup: repo.Close,
		Ping:    repo.Ping,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	var opts []goption.ClientOption
	switch {
	case config.GoogleServiceAccountJSON != "":
		opts = append(opts, goption.WithCredentialsJSON([]byte(config.GoogleServiceAccountJSON)))
	case config.GoogleServiceAccountFile != "":
		data, err := os.ReadFile(config.GoogleServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		opts = append(opts, goption.WithCredentialsJSON(data))
	}
	opts = append(opts, goption.WithScopes(sheetsapi.SpreadsheetsReadonlyScope))

	cli, err := gsheet.New(ctx, config.GoogleSpreadsheetID, config.GoogleSheetName, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend", "sheet", config.GoogleSheetName)

	return &BackendResult{Reader: cli}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	store := memory.NewFromFiles(config.DataDirectory)

	f.logger.Info("Initialized memory backend", "data_directory", config.DataDirectory)

	return &BackendResult{Reader: store, Writer: store}, nil
}
