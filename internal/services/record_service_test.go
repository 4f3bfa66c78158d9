package services

import (
	"context"
	"errors"
	"testing"

	"facturas/internal/amqp"
	"facturas/internal/core"
)

type fakeStore struct {
	invoices     map[string]core.Invoice
	transactions map[string]core.Transaction
	quotes       map[string]core.Quote
	createErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		invoices:     map[string]core.Invoice{},
		transactions: map[string]core.Transaction{},
		quotes:       map[string]core.Quote{},
	}
}

func (f *fakeStore) CreateInvoice(_ context.Context, _ string, inv core.Invoice) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.invoices[inv.ID] = inv
	return nil
}

func (f *fakeStore) UpdateInvoiceStatus(_ context.Context, _, id string, status core.InvoiceStatus) error {
	inv, ok := f.invoices[id]
	if !ok {
		return core.ErrNotFound
	}
	inv.Status = status
	f.invoices[id] = inv
	return nil
}

func (f *fakeStore) DeleteInvoice(_ context.Context, _, id string) error {
	if _, ok := f.invoices[id]; !ok {
		return core.ErrNotFound
	}
	delete(f.invoices, id)
	return nil
}

func (f *fakeStore) CreateTransaction(_ context.Context, _ string, tx core.Transaction) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.transactions[tx.ID] = tx
	return nil
}

func (f *fakeStore) DeleteTransaction(_ context.Context, _, id string) error {
	if _, ok := f.transactions[id]; !ok {
		return core.ErrNotFound
	}
	delete(f.transactions, id)
	return nil
}

func (f *fakeStore) CreateQuote(_ context.Context, _ string, q core.Quote) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.quotes[q.ID] = q
	return nil
}

func (f *fakeStore) UpdateQuoteStatus(_ context.Context, _, id string, status core.QuoteStatus) error {
	q, ok := f.quotes[id]
	if !ok {
		return core.ErrNotFound
	}
	q.Status = status
	f.quotes[id] = q
	return nil
}

func (f *fakeStore) DeleteQuote(_ context.Context, _, id string) error {
	if _, ok := f.quotes[id]; !ok {
		return core.ErrNotFound
	}
	delete(f.quotes, id)
	return nil
}

func (f *fakeStore) Close() error { return nil }

type fakePublisher struct {
	published []*amqp.RecordChangedMessage
	err       error
}

func (f *fakePublisher) PublishRecordChanged(_ context.Context, msg *amqp.RecordChangedMessage) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, msg)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeInvalidator struct {
	users []string
}

func (f *fakeInvalidator) InvalidateUser(userID string) {
	f.users = append(f.users, userID)
}

func validInvoice() core.Invoice {
	return core.Invoice{
		IssueDate: core.NewDate(2025, 5, 10),
		ClientID:  "client-1",
		Subtotal:  core.Cents(100000),
		Tax:       core.Cents(21000),
		Total:     core.Cents(121000),
		Status:    core.InvoicePending,
	}
}

func TestRecordService_CreateInvoice(t *testing.T) {
	store := newFakeStore()
	publisher := &fakePublisher{}
	invalidator := &fakeInvalidator{}
	svc := NewRecordService(store, publisher, invalidator)

	id, err := svc.CreateInvoice(context.Background(), "user-1", validInvoice())
	if err != nil {
		t.Fatalf("CreateInvoice() error = %v", err)
	}
	if id == "" {
		t.Fatal("CreateInvoice() must assign an id")
	}
	if _, ok := store.invoices[id]; !ok {
		t.Error("invoice not persisted")
	}

	if len(invalidator.users) != 1 || invalidator.users[0] != "user-1" {
		t.Errorf("invalidations = %v, want [user-1]", invalidator.users)
	}
	if len(publisher.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(publisher.published))
	}
	msg := publisher.published[0]
	if msg.Kind != core.RecordInvoice || msg.ID != id || msg.Action != amqp.ActionCreated {
		t.Errorf("published message = %+v", msg)
	}
}

func TestRecordService_CreateInvoiceInvalid(t *testing.T) {
	store := newFakeStore()
	svc := NewRecordService(store, &fakePublisher{}, &fakeInvalidator{})

	inv := validInvoice()
	inv.ClientID = ""

	if _, err := svc.CreateInvoice(context.Background(), "user-1", inv); err == nil {
		t.Error("CreateInvoice() should reject invoice without client")
	}
	if len(store.invoices) != 0 {
		t.Error("invalid invoice was persisted")
	}
}

func TestRecordService_PublishFailureIsNonFatal(t *testing.T) {
	store := newFakeStore()
	publisher := &fakePublisher{err: errors.New("broker down")}
	svc := NewRecordService(store, publisher, &fakeInvalidator{})

	id, err := svc.CreateInvoice(context.Background(), "user-1", validInvoice())
	if err != nil {
		t.Fatalf("CreateInvoice() error = %v, broker failure must not fail the write", err)
	}
	if _, ok := store.invoices[id]; !ok {
		t.Error("invoice not persisted despite broker failure")
	}
}

func TestRecordService_NilPublisher(t *testing.T) {
	store := newFakeStore()
	svc := NewRecordService(store, nil, &fakeInvalidator{})

	if _, err := svc.CreateInvoice(context.Background(), "user-1", validInvoice()); err != nil {
		t.Fatalf("CreateInvoice() error = %v", err)
	}
}

func TestRecordService_UpdateInvoiceStatus(t *testing.T) {
	store := newFakeStore()
	publisher := &fakePublisher{}
	svc := NewRecordService(store, publisher, &fakeInvalidator{})

	id, err := svc.CreateInvoice(context.Background(), "user-1", validInvoice())
	if err != nil {
		t.Fatalf("CreateInvoice() error = %v", err)
	}

	if err := svc.UpdateInvoiceStatus(context.Background(), "user-1", id, core.InvoicePaid); err != nil {
		t.Fatalf("UpdateInvoiceStatus() error = %v", err)
	}
	if store.invoices[id].Status != core.InvoicePaid {
		t.Errorf("status = %v, want paid", store.invoices[id].Status)
	}

	if err := svc.UpdateInvoiceStatus(context.Background(), "user-1", id, "archived"); !errors.Is(err, core.ErrInvalidStatus) {
		t.Errorf("unknown status error = %v, want ErrInvalidStatus", err)
	}
}

func TestRecordService_CreateTransaction(t *testing.T) {
	store := newFakeStore()
	publisher := &fakePublisher{}
	invalidator := &fakeInvalidator{}
	svc := NewRecordService(store, publisher, invalidator)

	tx := core.Transaction{
		Date:      core.NewDate(2025, 6, 3),
		Type:      core.TypeExpense,
		Amount:    core.Cents(20000),
		TaxAmount: core.Cents(4200),
	}
	id, err := svc.CreateTransaction(context.Background(), "user-1", tx)
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	if _, ok := store.transactions[id]; !ok {
		t.Error("transaction not persisted")
	}
	if len(publisher.published) != 1 || publisher.published[0].Kind != core.RecordTransaction {
		t.Errorf("published = %+v", publisher.published)
	}
}

func TestRecordService_QuoteLifecycle(t *testing.T) {
	store := newFakeStore()
	publisher := &fakePublisher{}
	invalidator := &fakeInvalidator{}
	svc := NewRecordService(store, publisher, invalidator)

	q := core.Quote{
		Date:     core.NewDate(2025, 2, 1),
		ClientID: "client-1",
		Total:    core.Cents(30000),
		Status:   core.QuotePending,
	}
	id, err := svc.CreateQuote(context.Background(), "user-1", q)
	if err != nil {
		t.Fatalf("CreateQuote() error = %v", err)
	}

	if err := svc.UpdateQuoteStatus(context.Background(), "user-1", id, core.QuoteAccepted); err != nil {
		t.Fatalf("UpdateQuoteStatus() error = %v", err)
	}
	if err := svc.DeleteQuote(context.Background(), "user-1", id); err != nil {
		t.Fatalf("DeleteQuote() error = %v", err)
	}

	// Quotes never reach the export queue, but every change invalidates caches
	if len(publisher.published) != 0 {
		t.Errorf("quote changes published %d messages, want 0", len(publisher.published))
	}
	if len(invalidator.users) != 3 {
		t.Errorf("invalidations = %d, want 3", len(invalidator.users))
	}
}

func TestRecordService_DeleteInvoiceNotFound(t *testing.T) {
	svc := NewRecordService(newFakeStore(), &fakePublisher{}, &fakeInvalidator{})

	if err := svc.DeleteInvoice(context.Background(), "user-1", "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("DeleteInvoice() error = %v, want ErrNotFound", err)
	}
}
