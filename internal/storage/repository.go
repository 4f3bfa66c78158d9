package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"facturas/internal/core"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

// ExportRecord identifies a stored row waiting for export to the ledger
// spreadsheet.
type ExportRecord struct {
	Kind      core.RecordKind
	ID        string
	UserID    string
	CreatedAt time.Time
}

type SQLiteRepository struct {
	db *sql.DB
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

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// DB exposes the underlying handle for tests.
func (r *SQLiteRepository) DB() *sql.DB {
	return r.db
}

func (r *SQLiteRepository) CreateInvoice(ctx context.Context, userID string, inv core.Invoice) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invoices (id, user_id, client_id, issue_date, subtotal_cents, tax_cents, total_cents, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, userID, inv.ClientID, inv.IssueDate.String(),
		inv.Subtotal.Cents, inv.Tax.Cents, inv.Total.Cents, string(inv.Status))
	if err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}

	slog.InfoContext(ctx, "Invoice saved",
		"id", inv.ID,
		"user_id", userID,
		"total_cents", inv.Total.Cents,
		"status", inv.Status)
	return nil
}

func (r *SQLiteRepository) GetInvoice(ctx context.Context, userID, id string) (core.Invoice, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, client_id, issue_date, subtotal_cents, tax_cents, total_cents, status
		FROM invoices WHERE user_id = ? AND id = ?`, userID, id)

	inv, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Invoice{}, fmt.Errorf("invoice %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Invoice{}, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

func (r *SQLiteRepository) ListInvoices(ctx context.Context, userID string) ([]core.Invoice, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, client_id, issue_date, subtotal_cents, tax_cents, total_cents, status
		FROM invoices WHERE user_id = ? ORDER BY issue_date, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []core.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return invoices, nil
}

func (r *SQLiteRepository) UpdateInvoiceStatus(ctx context.Context, userID, id string, status core.InvoiceStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invoices SET status = ?, sync_status = 'pending', updated_at = datetime('now')
		WHERE user_id = ? AND id = ?`, string(status), userID, id)
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	return requireAffected(res, "invoice", id)
}

func (r *SQLiteRepository) DeleteInvoice(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM invoices WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	return requireAffected(res, "invoice", id)
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, userID string, tx core.Transaction) error {
	categoryID := sql.NullString{String: tx.CategoryID, Valid: tx.CategoryID != ""}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, date, type, description, amount_cents, tax_cents, irpf_cents, category_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, userID, tx.Date.String(), string(tx.Type), tx.Description,
		tx.Amount.Cents, tx.TaxAmount.Cents, tx.IRPFAmount.Cents, categoryID)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", tx.ID,
		"user_id", userID,
		"type", tx.Type,
		"amount_cents", tx.Amount.Cents)
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, date, type, description, amount_cents, tax_cents, irpf_cents, category_id
		FROM transactions WHERE user_id = ? AND id = ?`, userID, id)

	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, date, type, description, amount_cents, tax_cents, irpf_cents, category_id
		FROM transactions WHERE user_id = ? ORDER BY date, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return transactions, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireAffected(res, "transaction", id)
}

func (r *SQLiteRepository) CreateQuote(ctx context.Context, userID string, q core.Quote) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO quotes (id, user_id, client_id, date, total_cents, status)
		VALUES (?, ?, ?, ?, ?, ?)`,
		q.ID, userID, q.ClientID, q.Date.String(), q.Total.Cents, string(q.Status))
	if err != nil {
		return fmt.Errorf("create quote: %w", err)
	}

	slog.InfoContext(ctx, "Quote saved",
		"id", q.ID,
		"user_id", userID,
		"total_cents", q.Total.Cents,
		"status", q.Status)
	return nil
}

func (r *SQLiteRepository) ListQuotes(ctx context.Context, userID string) ([]core.Quote, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, client_id, date, total_cents, status
		FROM quotes WHERE user_id = ? ORDER BY date, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	defer rows.Close()

	var quotes []core.Quote
	for rows.Next() {
		var (
			q          core.Quote
			date       string
			totalCents int64
			status     string
		)
		if err := rows.Scan(&q.ID, &q.ClientID, &date, &totalCents, &status); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		d, err := parseDate(date)
		if err != nil {
			return nil, fmt.Errorf("scan quote date: %w", err)
		}
		q.Date = d
		q.Total = core.Cents(totalCents)
		q.Status = core.QuoteStatus(status)
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	return quotes, nil
}

func (r *SQLiteRepository) UpdateQuoteStatus(ctx context.Context, userID, id string, status core.QuoteStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE quotes SET status = ? WHERE user_id = ? AND id = ?`,
		string(status), userID, id)
	if err != nil {
		return fmt.Errorf("update quote status: %w", err)
	}
	return requireAffected(res, "quote", id)
}

func (r *SQLiteRepository) DeleteQuote(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM quotes WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete quote: %w", err)
	}
	return requireAffected(res, "quote", id)
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) (map[string]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, type, deductible FROM categories`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make(map[string]core.Category)
	for rows.Next() {
		var (
			c          core.Category
			catType    string
			deductible int64
		)
		if err := rows.Scan(&c.ID, &c.Name, &catType, &deductible); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Type = core.TransactionType(catType)
		c.Deductible = deductible != 0
		categories[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// GetPendingExportRecords returns stored rows that still need to be pushed
// to the ledger spreadsheet, oldest first.
func (r *SQLiteRepository) GetPendingExportRecords(ctx context.Context, limit int) ([]ExportRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT kind, id, user_id, created_at FROM (
			SELECT 'invoice' AS kind, id, user_id, created_at FROM invoices WHERE sync_status = 'pending'
			UNION ALL
			SELECT 'transaction' AS kind, id, user_id, created_at FROM transactions WHERE sync_status = 'pending'
		) ORDER BY created_at LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending export records: %w", err)
	}
	defer rows.Close()

	var records []ExportRecord
	for rows.Next() {
		var (
			rec       ExportRecord
			kind      string
			createdAt string
		)
		if err := rows.Scan(&kind, &rec.ID, &rec.UserID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan export record: %w", err)
		}
		rec.Kind = core.RecordKind(kind)
		if t, err := time.Parse("2006-01-02 15:04:05", createdAt); err == nil {
			rec.CreatedAt = t
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get pending export records: %w", err)
	}
	return records, nil
}

// MarkExported marks a record as successfully pushed to the spreadsheet
func (r *SQLiteRepository) MarkExported(ctx context.Context, kind core.RecordKind, id string) error {
	if err := r.setSyncStatus(ctx, kind, id, "synced"); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Record marked as exported", "kind", kind, "id", id)
	return nil
}

// MarkExportError marks a record as having failed export
func (r *SQLiteRepository) MarkExportError(ctx context.Context, kind core.RecordKind, id string) error {
	if err := r.setSyncStatus(ctx, kind, id, "error"); err != nil {
		return err
	}
	slog.WarnContext(ctx, "Record marked with export error", "kind", kind, "id", id)
	return nil
}

func (r *SQLiteRepository) setSyncStatus(ctx context.Context, kind core.RecordKind, id, status string) error {
	var table string
	switch kind {
	case core.RecordInvoice:
		table = "invoices"
	case core.RecordTransaction:
		table = "transactions"
	default:
		return fmt.Errorf("set sync status: unknown record kind %q", kind)
	}

	res, err := r.db.ExecContext(ctx, `UPDATE `+table+` SET sync_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("set sync status: %w", err)
	}
	return requireAffected(res, string(kind), id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (core.Invoice, error) {
	var (
		inv                                 core.Invoice
		issueDate, status                   string
		subtotalCents, taxCents, totalCents int64
	)
	if err := row.Scan(&inv.ID, &inv.ClientID, &issueDate, &subtotalCents, &taxCents, &totalCents, &status); err != nil {
		return core.Invoice{}, err
	}
	d, err := parseDate(issueDate)
	if err != nil {
		return core.Invoice{}, err
	}
	inv.IssueDate = d
	inv.Subtotal = core.Cents(subtotalCents)
	inv.Tax = core.Cents(taxCents)
	inv.Total = core.Cents(totalCents)
	inv.Status = core.InvoiceStatus(status)
	return inv, nil
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx                               core.Transaction
		date, txType                     string
		amountCents, taxCents, irpfCents int64
		categoryID                       sql.NullString
	)
	if err := row.Scan(&tx.ID, &date, &txType, &tx.Description, &amountCents, &taxCents, &irpfCents, &categoryID); err != nil {
		return core.Transaction{}, err
	}
	d, err := parseDate(date)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.Date = d
	tx.Type = core.TransactionType(txType)
	tx.Amount = core.Cents(amountCents)
	tx.TaxAmount = core.Cents(taxCents)
	tx.IRPFAmount = core.Cents(irpfCents)
	tx.CategoryID = categoryID.String
	return tx, nil
}

func parseDate(s string) (core.Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return core.Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return core.Date{Time: t}, nil
}

func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, core.ErrNotFound)
	}
	return nil
}
