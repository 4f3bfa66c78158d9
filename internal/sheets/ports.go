package sheets

import (
	"context"

	"facturas/internal/core"
)

// LedgerRow is one line of the exported Libro de Registros: a flattened,
// display-ready view of an invoice or transaction.
type LedgerRow struct {
	UserID      string
	Kind        core.RecordKind
	ID          string
	Date        string
	ClientID    string
	Description string
	Category    string
	BaseCents   int64
	VATCents    int64
	IRPFCents   int64
	TotalCents  int64
	Status      string
}

// Ports for outbound adapters.
type (
	// LedgerAppender appends one row to the ledger export target.
	LedgerAppender interface {
		Append(ctx context.Context, row LedgerRow) (rowRef string, err error)
	}
)
