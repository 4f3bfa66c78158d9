package fiscal

import (
	"fmt"

	"facturas/internal/core"
)

// UncategorizedID is the synthetic bucket for records whose category is
// missing or points at a deleted category. Such records keep contributing
// to fiscal totals; only category-breakdown views skip the bucket.
const UncategorizedID = "uncategorized"

// Warning records a non-fatal classification problem, typically a malformed
// amount coerced to zero. Warnings degrade the result instead of aborting it.
type Warning struct {
	RecordID string
	Field    string
	Reason   string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s.%s: %s", w.RecordID, w.Field, w.Reason)
}

// Input is the raw record set the engine works from. Categories are keyed
// by id; a nil map behaves like an empty one.
type Input struct {
	Invoices     []core.Invoice
	Transactions []core.Transaction
	Categories   map[string]core.Category
}

// Classification is the normalized record set plus the outstanding-invoice
// bucket. Pending totals reflect "outstanding as of now" and are reported
// independent of any period filter.
type Classification struct {
	Records []core.FiscalRecord

	PendingInvoicesCents int64
	PendingCount         int

	Warnings []Warning
}

// Classify normalizes the heterogeneous inputs into FiscalRecords, resolving
// deductibility and coercing malformed numeric fields to zero with a warning.
// It never fails: degraded data beats a blank dashboard.
func Classify(in Input) Classification {
	var c Classification
	c.Records = make([]core.FiscalRecord, 0, len(in.Invoices)+len(in.Transactions))

	for _, inv := range in.Invoices {
		c.classifyInvoice(inv)
	}
	for _, tx := range in.Transactions {
		c.classifyTransaction(tx, in.Categories)
	}
	return c
}

func (c *Classification) classifyInvoice(inv core.Invoice) {
	subtotal := c.coerce(inv.ID, "subtotal", inv.Subtotal)
	tax := c.coerce(inv.ID, "tax", inv.Tax)

	switch inv.Status {
	case core.InvoicePaid:
		c.Records = append(c.Records, core.FiscalRecord{
			Kind:            core.RecordInvoice,
			ID:              inv.ID,
			Date:            inv.IssueDate,
			Deductible:      true,
			IncomeBaseCents: subtotal,
			VATOutputCents:  tax,
		})
	case core.InvoicePending, core.InvoiceOverdue:
		total := c.coerce(inv.ID, "total", inv.Total)
		c.PendingInvoicesCents += total
		c.PendingCount++
	case core.InvoiceCanceled:
		// Excluded from income and from the outstanding bucket.
	default:
		c.warn(inv.ID, "status", fmt.Sprintf("unknown invoice status %q", inv.Status))
	}
}

func (c *Classification) classifyTransaction(tx core.Transaction, cats map[string]core.Category) {
	amount := c.coerce(tx.ID, "amount", tx.Amount)
	taxAmount := c.coerce(tx.ID, "taxAmount", tx.TaxAmount)
	irpf := c.coerce(tx.ID, "irpfAmount", tx.IRPFAmount)

	rec := core.FiscalRecord{
		Kind: core.RecordTransaction,
		ID:   tx.ID,
		Date: tx.Date,
	}

	switch tx.Type {
	case core.TypeIncome:
		rec.Deductible = true
		rec.IncomeBaseCents = amount
		rec.VATOutputCents = taxAmount
		rec.IRPFIncomeCents = irpf
	case core.TypeExpense:
		rec.ExpenseBaseCents = amount
		rec.VATInputCents = taxAmount
		rec.IRPFExpenseCents = irpf
		rec.CategoryID, rec.Uncategorized, rec.Deductible = resolveCategory(tx.CategoryID, cats)
	default:
		c.warn(tx.ID, "type", fmt.Sprintf("unknown transaction type %q", tx.Type))
		return
	}
	c.Records = append(c.Records, rec)
}

// resolveCategory looks up the category and derives deductibility. A missing
// or unknown category defaults to deductible: the classifier never invents
// non-deductibility.
func resolveCategory(categoryID string, cats map[string]core.Category) (id string, uncategorized, deductible bool) {
	if categoryID == "" {
		return UncategorizedID, true, true
	}
	cat, ok := cats[categoryID]
	if !ok {
		return UncategorizedID, true, true
	}
	return cat.ID, false, cat.Deductible
}

// coerce extracts cents from a lenient Amount. Absent or null values are
// ordinary zeros; a value that was present but unparseable is coerced to
// zero with a warning.
func (c *Classification) coerce(recordID, field string, a core.Amount) int64 {
	if a.Valid {
		return a.Cents
	}
	if a.Malformed {
		c.warn(recordID, field, "malformed value coerced to 0")
	}
	return 0
}

func (c *Classification) warn(recordID, field, reason string) {
	c.Warnings = append(c.Warnings, Warning{RecordID: recordID, Field: field, Reason: reason})
}

// QuoteStats summarizes a user's quotes: the pending bucket plus the
// accepted/total counts behind the acceptance-rate figure.
type QuoteStats struct {
	PendingCents int64
	PendingCount int
	Accepted     int
	Total        int
}

// AcceptanceRate is accepted quotes over all quotes, 0 when there are none.
func (q QuoteStats) AcceptanceRate() float64 {
	if q.Total == 0 {
		return 0
	}
	return float64(q.Accepted) / float64(q.Total)
}

// ClassifyQuotes mirrors invoice classification for the quotes collection:
// pending quotes count toward the pending bucket, accepted and rejected ones
// only toward the acceptance rate.
func ClassifyQuotes(quotes []core.Quote) (QuoteStats, []Warning) {
	var stats QuoteStats
	var warnings []Warning
	for _, q := range quotes {
		stats.Total++
		switch q.Status {
		case core.QuotePending:
			if q.Total.Malformed {
				warnings = append(warnings, Warning{RecordID: q.ID, Field: "total", Reason: "malformed value coerced to 0"})
			}
			stats.PendingCents += q.Total.Cents
			stats.PendingCount++
		case core.QuoteAccepted:
			stats.Accepted++
		case core.QuoteRejected:
		default:
			stats.Total--
			warnings = append(warnings, Warning{RecordID: q.ID, Field: "status", Reason: fmt.Sprintf("unknown quote status %q", q.Status)})
		}
	}
	return stats, warnings
}
