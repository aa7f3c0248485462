package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Payer struct {
	EIK       string
	Name      string
	NapOffice string
}

const upsertPayer = `
INSERT INTO payers (eik, name, nap_office)
VALUES (?, ?, ?)
ON CONFLICT(eik) DO UPDATE SET
    name = excluded.name,
    nap_office = excluded.nap_office,
    updated_at = CURRENT_TIMESTAMP
`

func (q *Queries) UpsertPayer(ctx context.Context, arg Payer) error {
	_, err := q.db.ExecContext(ctx, upsertPayer, arg.EIK, arg.Name, arg.NapOffice)
	return err
}

const getPayer = `
SELECT eik, name, nap_office FROM payers WHERE eik = ?
`

func (q *Queries) GetPayer(ctx context.Context, eik string) (Payer, error) {
	var p Payer
	err := q.db.QueryRowContext(ctx, getPayer, eik).Scan(&p.EIK, &p.Name, &p.NapOffice)
	return p, err
}

const listPayers = `
SELECT eik, name, nap_office FROM payers ORDER BY name, eik
`

func (q *Queries) ListPayers(ctx context.Context) ([]Payer, error) {
	rows, err := q.db.QueryContext(ctx, listPayers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Payer
	for rows.Next() {
		var p Payer
		if err := rows.Scan(&p.EIK, &p.Name, &p.NapOffice); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countPayers = `
SELECT COUNT(*) FROM payers
`

func (q *Queries) CountPayers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countPayers).Scan(&n)
	return n, err
}
