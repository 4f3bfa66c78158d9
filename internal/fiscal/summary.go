package fiscal

import (
	"sort"
	"strconv"

	"facturas/internal/core"
)

// Summarize runs the whole pipeline for one fiscal window: classify, filter,
// aggregate, and shape the dashboard summary. Warnings are returned for the
// caller to log; they never abort the computation.
func Summarize(in Input, quotes []core.Quote, sel core.PeriodSelector) (core.DashboardSummary, []Warning, error) {
	if err := sel.Validate(); err != nil {
		return core.DashboardSummary{}, nil, err
	}

	cls := Classify(in)
	filtered, err := FilterRecords(cls.Records, sel)
	if err != nil {
		return core.DashboardSummary{}, cls.Warnings, err
	}
	agg, err := Aggregate(filtered)
	if err != nil {
		return core.DashboardSummary{}, cls.Warnings, err
	}
	agg.PendingInvoicesCents = cls.PendingInvoicesCents
	agg.PendingCount = cls.PendingCount

	stats, qw := ClassifyQuotes(quotes)
	warnings := append(cls.Warnings, qw...)

	summary := BuildDashboard(agg, stats, BreakdownByCategory(filtered, in.Categories))
	return summary, warnings, nil
}

// BuildDashboard converts the exact cent aggregate into the flat euro shape
// the dashboard and export layers consume. This is the presentation boundary:
// the only place period totals get rounded.
func BuildDashboard(agg core.AggregateResult, quotes QuoteStats, byCategory []core.CategoryAmount) core.DashboardSummary {
	return core.DashboardSummary{
		Income:               euros(agg.IncomeCents),
		Expenses:             euros(agg.ExpensesCents),
		GastosDeducibles:     euros(agg.GastosDeduciblesCents),
		IVARepercutido:       euros(agg.IVARepercutidoCents),
		IVASoportado:         euros(agg.IVASoportadoCents),
		IVADeducible:         euros(agg.IVADeducibleCents),
		IVAALiquidar:         euros(agg.IVAALiquidarCents),
		IRPFRetenidoIngresos: euros(agg.IRPFRetenidoIngresosCents),
		IRPFGastos:           euros(agg.IRPFGastosCents),
		ResultadoFiscal:      euros(agg.ResultadoFiscalCents),
		FinalResult:          euros(agg.FinalResultCents),
		PendingInvoices:      euros(agg.PendingInvoicesCents),
		PendingCount:         agg.PendingCount,
		PendingQuotes:        euros(quotes.PendingCents),
		PendingQuotesCount:   quotes.PendingCount,
		QuoteAcceptanceRate:  quotes.AcceptanceRate(),
		ExpensesByCategory:   byCategory,
	}
}

// BuildLedger assembles the Libro de Registros: the period-filtered record
// lists with display-formatted fields plus the summary totals. Lists are
// ordered most recent first, ties broken by record id ascending so the
// export is deterministic.
func BuildLedger(in Input, quotes []core.Quote, sel core.PeriodSelector) (core.LedgerBook, []Warning, error) {
	summary, warnings, err := Summarize(in, quotes, sel)
	if err != nil {
		return core.LedgerBook{}, warnings, err
	}

	book := core.LedgerBook{
		Year:    sel.Year,
		Quarter: sel.Quarter,
		Month:   monthLabel(sel.Month),
		Summary: summary,
	}
	if book.Quarter == "" {
		book.Quarter = core.QuarterAll
	}

	for _, inv := range in.Invoices {
		ok, err := Includes(inv.IssueDate, sel)
		if err != nil {
			return core.LedgerBook{}, warnings, err
		}
		if !ok {
			continue
		}
		book.Invoices = append(book.Invoices, core.LedgerInvoice{
			ID:       inv.ID,
			Date:     inv.IssueDate.String(),
			ClientID: inv.ClientID,
			Subtotal: core.FormatEuros(inv.Subtotal.Cents),
			Tax:      core.FormatEuros(inv.Tax.Cents),
			Total:    core.FormatEuros(inv.Total.Cents),
			Status:   string(inv.Status),
		})
	}
	sort.Slice(book.Invoices, func(i, j int) bool {
		return ledgerBefore(book.Invoices[i].Date, book.Invoices[i].ID, book.Invoices[j].Date, book.Invoices[j].ID)
	})

	for _, tx := range in.Transactions {
		ok, err := Includes(tx.Date, sel)
		if err != nil {
			return core.LedgerBook{}, warnings, err
		}
		if !ok {
			continue
		}
		// Categories only apply to expenses; income rows keep an empty cell.
		var category string
		var deductible bool
		if tx.Type == core.TypeExpense {
			catID, uncategorized, ded := resolveCategory(tx.CategoryID, in.Categories)
			deductible = ded
			category = catID
			if cat, found := in.Categories[catID]; found && cat.Name != "" {
				category = cat.Name
			}
			if uncategorized {
				category = "Sin categoría"
			}
		}
		book.Transactions = append(book.Transactions, core.LedgerTransaction{
			ID:          tx.ID,
			Date:        tx.Date.String(),
			Type:        string(tx.Type),
			Description: tx.Description,
			Category:    category,
			Amount:      core.FormatEuros(tx.Amount.Cents),
			Tax:         core.FormatEuros(tx.TaxAmount.Cents),
			IRPF:        core.FormatEuros(tx.IRPFAmount.Cents),
			Deductible:  deductible,
		})
	}
	sort.Slice(book.Transactions, func(i, j int) bool {
		return ledgerBefore(book.Transactions[i].Date, book.Transactions[i].ID, book.Transactions[j].Date, book.Transactions[j].ID)
	})

	for _, q := range quotes {
		ok, err := Includes(q.Date, sel)
		if err != nil {
			return core.LedgerBook{}, warnings, err
		}
		if !ok {
			continue
		}
		book.Quotes = append(book.Quotes, core.LedgerQuote{
			ID:       q.ID,
			Date:     q.Date.String(),
			ClientID: q.ClientID,
			Total:    core.FormatEuros(q.Total.Cents),
			Status:   string(q.Status),
		})
	}
	sort.Slice(book.Quotes, func(i, j int) bool {
		return ledgerBefore(book.Quotes[i].Date, book.Quotes[i].ID, book.Quotes[j].Date, book.Quotes[j].ID)
	})

	return book, warnings, nil
}

// ledgerBefore orders ledger rows most recent first; equal dates fall back
// to id ascending.
func ledgerBefore(dateA, idA, dateB, idB string) bool {
	if dateA != dateB {
		return dateA > dateB
	}
	return idA < idB
}

func monthLabel(month int) string {
	if month == core.MonthAll {
		return "all"
	}
	return strconv.Itoa(month)
}

func euros(cents int64) float64 {
	return float64(cents) / 100.0
}
