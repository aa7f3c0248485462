package sheets

import (
	"context"

	"smetka/internal/core"
)

// Ports for the payer directory adapters.
type (
	PayerReader interface {
		// ListPayers returns every payer in directory order.
		ListPayers(ctx context.Context) ([]core.Payer, error)
		// FindPayer returns core.ErrPayerNotFound when the EIK is unknown.
		FindPayer(ctx context.Context, eik string) (core.Payer, error)
	}

	PayerWriter interface {
		// SavePayer inserts the payer or replaces the one with the same EIK.
		SavePayer(ctx context.Context, p core.Payer) error
	}

	PayerDirectory interface {
		PayerReader
		PayerWriter
	}
)
