package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"smetka/internal/core"
	ports "smetka/internal/sheets"

	_ "modernc.org/sqlite"
)

var _ ports.PayerDirectory = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SavePayer implements sheets.PayerWriter
func (r *SQLiteRepository) SavePayer(ctx context.Context, p core.Payer) error {
	p = core.Payer{
		Name:      strings.TrimSpace(p.Name),
		EIK:       strings.TrimSpace(p.EIK),
		NAPOffice: strings.TrimSpace(p.NAPOffice),
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if err := r.queries.UpsertPayer(ctx, Payer{EIK: p.EIK, Name: p.Name, NapOffice: p.NAPOffice}); err != nil {
		return fmt.Errorf("save payer: %w", err)
	}
	slog.DebugContext(ctx, "Payer saved to SQLite", "eik", p.EIK)
	return nil
}

// FindPayer implements sheets.PayerReader
func (r *SQLiteRepository) FindPayer(ctx context.Context, eik string) (core.Payer, error) {
	row, err := r.queries.GetPayer(ctx, strings.TrimSpace(eik))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Payer{}, core.ErrPayerNotFound
	}
	if err != nil {
		return core.Payer{}, fmt.Errorf("get payer %s: %w", eik, err)
	}
	return toCore(row), nil
}

// ListPayers implements sheets.PayerReader
func (r *SQLiteRepository) ListPayers(ctx context.Context) ([]core.Payer, error) {
	rows, err := r.queries.ListPayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list payers: %w", err)
	}
	out := make([]core.Payer, 0, len(rows))
	for _, row := range rows {
		out = append(out, toCore(row))
	}
	return out, nil
}

// SeedPayers stores the payers when the table is still empty. It returns the
// number of rows written.
func (r *SQLiteRepository) SeedPayers(ctx context.Context, payers []core.Payer) (int, error) {
	n, err := r.queries.CountPayers(ctx)
	if err != nil {
		return 0, fmt.Errorf("count payers: %w", err)
	}
	if n > 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	written := 0
	for _, p := range payers {
		if p.Validate() != nil {
			continue
		}
		if err := q.UpsertPayer(ctx, Payer{EIK: p.EIK, Name: p.Name, NapOffice: p.NAPOffice}); err != nil {
			return 0, fmt.Errorf("seed payer %s: %w", p.EIK, err)
		}
		written++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}
	return written, nil
}

func toCore(p Payer) core.Payer {
	return core.Payer{Name: p.Name, EIK: p.EIK, NAPOffice: p.NapOffice}
}
