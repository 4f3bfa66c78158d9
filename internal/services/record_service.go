package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"facturas/internal/amqp"
	"facturas/internal/core"
)

// RecordStore is the subset of the repository the record service writes
// through.
type RecordStore interface {
	CreateInvoice(ctx context.Context, userID string, inv core.Invoice) error
	UpdateInvoiceStatus(ctx context.Context, userID, id string, status core.InvoiceStatus) error
	DeleteInvoice(ctx context.Context, userID, id string) error
	CreateTransaction(ctx context.Context, userID string, tx core.Transaction) error
	DeleteTransaction(ctx context.Context, userID, id string) error
	CreateQuote(ctx context.Context, userID string, q core.Quote) error
	UpdateQuoteStatus(ctx context.Context, userID, id string, status core.QuoteStatus) error
	DeleteQuote(ctx context.Context, userID, id string) error
	Close() error
}

// ChangePublisher notifies downstream consumers that a record changed.
type ChangePublisher interface {
	PublishRecordChanged(ctx context.Context, msg *amqp.RecordChangedMessage) error
	Close() error
}

// ReportInvalidator drops cached reports for a user.
type ReportInvalidator interface {
	InvalidateUser(userID string)
}

// RecordService orchestrates record writes: SQLite first, then cache
// invalidation, then a best-effort change notification.
type RecordService struct {
	store      RecordStore
	publisher  ChangePublisher
	invalidate ReportInvalidator
}

func NewRecordService(store RecordStore, publisher ChangePublisher, invalidate ReportInvalidator) *RecordService {
	return &RecordService{
		store:      store,
		publisher:  publisher,
		invalidate: invalidate,
	}
}

// CreateInvoice validates and saves an invoice, returning its id.
func (s *RecordService) CreateInvoice(ctx context.Context, userID string, inv core.Invoice) (string, error) {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if err := inv.Validate(); err != nil {
		return "", err
	}

	if err := s.store.CreateInvoice(ctx, userID, inv); err != nil {
		return "", fmt.Errorf("save invoice: %w", err)
	}

	s.afterChange(ctx, userID, core.RecordInvoice, inv.ID, amqp.ActionCreated)
	return inv.ID, nil
}

// UpdateInvoiceStatus moves an invoice through its lifecycle (for instance
// pending to paid, which turns it into realized income).
func (s *RecordService) UpdateInvoiceStatus(ctx context.Context, userID, id string, status core.InvoiceStatus) error {
	switch status {
	case core.InvoicePending, core.InvoicePaid, core.InvoiceOverdue, core.InvoiceCanceled:
	default:
		return fmt.Errorf("%w: %q", core.ErrInvalidStatus, status)
	}

	if err := s.store.UpdateInvoiceStatus(ctx, userID, id, status); err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}

	s.afterChange(ctx, userID, core.RecordInvoice, id, amqp.ActionUpdated)
	return nil
}

func (s *RecordService) DeleteInvoice(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteInvoice(ctx, userID, id); err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}

	s.afterChange(ctx, userID, core.RecordInvoice, id, amqp.ActionDeleted)
	return nil
}

// CreateTransaction validates and saves a standalone income or expense entry.
func (s *RecordService) CreateTransaction(ctx context.Context, userID string, tx core.Transaction) (string, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if err := tx.Validate(); err != nil {
		return "", err
	}

	if err := s.store.CreateTransaction(ctx, userID, tx); err != nil {
		return "", fmt.Errorf("save transaction: %w", err)
	}

	s.afterChange(ctx, userID, core.RecordTransaction, tx.ID, amqp.ActionCreated)
	return tx.ID, nil
}

func (s *RecordService) DeleteTransaction(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.afterChange(ctx, userID, core.RecordTransaction, id, amqp.ActionDeleted)
	return nil
}

// CreateQuote validates and saves a quote.
func (s *RecordService) CreateQuote(ctx context.Context, userID string, q core.Quote) (string, error) {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if err := q.Validate(); err != nil {
		return "", err
	}

	if err := s.store.CreateQuote(ctx, userID, q); err != nil {
		return "", fmt.Errorf("save quote: %w", err)
	}

	s.invalidateUser(userID)
	return q.ID, nil
}

func (s *RecordService) UpdateQuoteStatus(ctx context.Context, userID, id string, status core.QuoteStatus) error {
	switch status {
	case core.QuotePending, core.QuoteAccepted, core.QuoteRejected:
	default:
		return fmt.Errorf("%w: %q", core.ErrInvalidStatus, status)
	}

	if err := s.store.UpdateQuoteStatus(ctx, userID, id, status); err != nil {
		return fmt.Errorf("update quote status: %w", err)
	}

	s.invalidateUser(userID)
	return nil
}

func (s *RecordService) DeleteQuote(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteQuote(ctx, userID, id); err != nil {
		return fmt.Errorf("delete quote: %w", err)
	}

	s.invalidateUser(userID)
	return nil
}

// afterChange invalidates cached reports and publishes a change message.
// Publishing is best effort: the record is already durable in SQLite.
func (s *RecordService) afterChange(ctx context.Context, userID string, kind core.RecordKind, id, action string) {
	s.invalidateUser(userID)

	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping change message")
		return
	}
	msg := amqp.NewRecordChangedMessage(userID, kind, id, action)
	if err := s.publisher.PublishRecordChanged(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change message",
			"user_id", userID,
			"kind", kind,
			"id", id,
			"error", err)
		// Don't fail the request - the record is saved locally
	}
}

func (s *RecordService) invalidateUser(userID string) {
	if s.invalidate != nil {
		s.invalidate.InvalidateUser(userID)
	}
}

// Close closes both storage and AMQP connections
func (s *RecordService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close record service: %v", errs)
	}

	return nil
}
