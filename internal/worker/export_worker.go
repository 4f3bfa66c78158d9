package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"facturas/internal/amqp"
	"facturas/internal/core"
	"facturas/internal/sheets"
	"facturas/internal/storage"
)

// ExportStore is the storage surface the export worker reads and marks.
type ExportStore interface {
	GetInvoice(ctx context.Context, userID, id string) (core.Invoice, error)
	GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
	ListCategories(ctx context.Context) (map[string]core.Category, error)
	GetPendingExportRecords(ctx context.Context, limit int) ([]storage.ExportRecord, error)
	MarkExported(ctx context.Context, kind core.RecordKind, id string) error
	MarkExportError(ctx context.Context, kind core.RecordKind, id string) error
}

// ExportWorker pushes changed fiscal records to the ledger spreadsheet. It
// consumes change messages and periodically sweeps the pending queue as a
// backup in case messages are lost.
type ExportWorker struct {
	storage   ExportStore
	appender  sheets.LedgerAppender
	batchSize int
}

func NewExportWorker(storage ExportStore, appender sheets.LedgerAppender, batchSize int) *ExportWorker {
	return &ExportWorker{
		storage:   storage,
		appender:  appender,
		batchSize: batchSize,
	}
}

// HandleRecordChanged processes a single record change message from AMQP
func (w *ExportWorker) HandleRecordChanged(ctx context.Context, msg *amqp.RecordChangedMessage) error {
	slog.InfoContext(ctx, "Processing record change message",
		"user_id", msg.UserID,
		"kind", msg.Kind,
		"id", msg.ID,
		"action", msg.Action)

	if msg.Action == amqp.ActionDeleted {
		// The ledger export is an append-only journal; deletions stay local.
		slog.InfoContext(ctx, "Skipping export for deleted record", "id", msg.ID)
		return nil
	}

	return w.exportRecord(ctx, msg.UserID, msg.Kind, msg.ID)
}

// ProcessPendingRecords exports any records that have not been pushed yet.
// This is a backup mechanism in case AMQP messages are lost.
func (w *ExportWorker) ProcessPendingRecords(ctx context.Context) error {
	pending, err := w.storage.GetPendingExportRecords(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending records: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending export records", "count", len(pending))

	for _, rec := range pending {
		if err := w.exportRecord(ctx, rec.UserID, rec.Kind, rec.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to export pending record",
				"kind", rec.Kind,
				"id", rec.ID,
				"error", err)
		}
	}

	return nil
}

// Run sweeps the pending queue on the given interval until the context is
// cancelled.
func (w *ExportWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Export worker stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessPendingRecords(ctx); err != nil {
				slog.ErrorContext(ctx, "Pending export sweep failed", "error", err)
			}
		}
	}
}

func (w *ExportWorker) exportRecord(ctx context.Context, userID string, kind core.RecordKind, id string) error {
	row, err := w.buildRow(ctx, userID, kind, id)
	if err != nil {
		return err
	}

	ref, err := w.appender.Append(ctx, row)
	if err != nil {
		if markErr := w.storage.MarkExportError(ctx, kind, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append ledger row: %w", err)
	}

	if err := w.storage.MarkExported(ctx, kind, id); err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}

	slog.InfoContext(ctx, "Record exported to ledger",
		"kind", kind,
		"id", id,
		"sheets_ref", ref)
	return nil
}

func (w *ExportWorker) buildRow(ctx context.Context, userID string, kind core.RecordKind, id string) (sheets.LedgerRow, error) {
	switch kind {
	case core.RecordInvoice:
		inv, err := w.storage.GetInvoice(ctx, userID, id)
		if err != nil {
			return sheets.LedgerRow{}, fmt.Errorf("get invoice from storage: %w", err)
		}
		return invoiceRow(userID, inv), nil

	case core.RecordTransaction:
		tx, err := w.storage.GetTransaction(ctx, userID, id)
		if err != nil {
			return sheets.LedgerRow{}, fmt.Errorf("get transaction from storage: %w", err)
		}
		categories, err := w.storage.ListCategories(ctx)
		if err != nil {
			return sheets.LedgerRow{}, fmt.Errorf("list categories: %w", err)
		}
		return transactionRow(userID, tx, categories), nil

	default:
		return sheets.LedgerRow{}, fmt.Errorf("unknown record kind %q", kind)
	}
}

func invoiceRow(userID string, inv core.Invoice) sheets.LedgerRow {
	return sheets.LedgerRow{
		UserID:     userID,
		Kind:       core.RecordInvoice,
		ID:         inv.ID,
		Date:       inv.IssueDate.String(),
		ClientID:   inv.ClientID,
		BaseCents:  inv.Subtotal.Cents,
		VATCents:   inv.Tax.Cents,
		TotalCents: inv.Total.Cents,
		Status:     string(inv.Status),
	}
}

func transactionRow(userID string, tx core.Transaction, categories map[string]core.Category) sheets.LedgerRow {
	category := tx.CategoryID
	if cat, ok := categories[tx.CategoryID]; ok && cat.Name != "" {
		category = cat.Name
	}
	return sheets.LedgerRow{
		UserID:      userID,
		Kind:        core.RecordTransaction,
		ID:          tx.ID,
		Date:        tx.Date.String(),
		Description: tx.Description,
		Category:    category,
		BaseCents:   tx.Amount.Cents,
		VATCents:    tx.TaxAmount.Cents,
		IRPFCents:   tx.IRPFAmount.Cents,
		TotalCents:  tx.Amount.Cents + tx.TaxAmount.Cents,
		Status:      string(tx.Type),
	}
}
