package backend

import (
	"context"

	"smetka/internal/sheets"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// BackendResult is the payer directory selected by configuration.
type BackendResult struct {
	Reader sheets.PayerReader
	// Writer is nil for read-only backends.
	Writer  sheets.PayerWriter
	Cleanup CleanupFunc
	// Ping checks backend health; nil when there is nothing to check.
	Ping func(ctx context.Context) error
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	// Seed files for the memory and sqlite backends
	DataDirectory string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
