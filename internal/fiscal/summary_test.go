package fiscal

import (
	"reflect"
	"testing"

	"facturas/internal/core"
)

func q2of2025() core.PeriodSelector {
	return core.PeriodSelector{Year: "2025", Quarter: core.Q2, Month: core.MonthAll}
}

// A paid invoice plus a deductible expense inside the window.
func TestSummarizePaidInvoiceAndDeductibleExpense(t *testing.T) {
	in := Input{
		Invoices: []core.Invoice{
			{ID: "f1", IssueDate: core.NewDate(2025, 5, 10), ClientID: "c1", Subtotal: core.Cents(100000), Tax: core.Cents(21000), Total: core.Cents(121000), Status: core.InvoicePaid},
		},
		Transactions: []core.Transaction{
			{ID: "t1", Date: core.NewDate(2025, 6, 3), Type: core.TypeExpense, Amount: core.Cents(20000), TaxAmount: core.Cents(4200), IRPFAmount: core.Cents(0), CategoryID: "rent"},
		},
		Categories: map[string]core.Category{
			"rent": {ID: "rent", Name: "Alquiler", Type: core.TypeExpense, Deductible: true},
		},
	}

	got, warnings, err := Summarize(in, nil, q2of2025())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}

	if got.Income != 1000 {
		t.Errorf("income: got %v", got.Income)
	}
	if got.IVARepercutido != 210 {
		t.Errorf("iva repercutido: got %v", got.IVARepercutido)
	}
	if got.GastosDeducibles != 200 {
		t.Errorf("gastos deducibles: got %v", got.GastosDeducibles)
	}
	if got.IVADeducible != 42 {
		t.Errorf("iva deducible: got %v", got.IVADeducible)
	}
	if got.IVAALiquidar != 168 {
		t.Errorf("iva a liquidar: got %v", got.IVAALiquidar)
	}
	if got.ResultadoFiscal != 800 {
		t.Errorf("resultado fiscal: got %v", got.ResultadoFiscal)
	}
	if got.FinalResult != 800 {
		t.Errorf("final result: got %v", got.FinalResult)
	}
	if len(got.ExpensesByCategory) != 1 || got.ExpensesByCategory[0].Name != "Alquiler" {
		t.Errorf("breakdown: %+v", got.ExpensesByCategory)
	}
}

// A window with no records yields a zero summary, not an error.
func TestSummarizeEmptyPeriod(t *testing.T) {
	in := Input{
		Invoices: []core.Invoice{
			{ID: "f1", IssueDate: core.NewDate(2025, 7, 1), Subtotal: core.Cents(100000), Tax: core.Cents(21000), Total: core.Cents(121000), Status: core.InvoicePaid},
		},
	}
	sel := core.PeriodSelector{Year: "2025", Quarter: core.Q1, Month: core.MonthAll}

	got, _, err := Summarize(in, nil, sel)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Income != 0 || got.Expenses != 0 || got.IVAALiquidar != 0 || got.ResultadoFiscal != 0 {
		t.Fatalf("empty window must be all zero: %+v", got)
	}
	if len(got.ExpensesByCategory) != 0 {
		t.Fatalf("empty window must have no breakdown: %+v", got.ExpensesByCategory)
	}
}

// An expense whose category was deleted still counts toward every total but
// stays out of the category breakdown.
func TestSummarizeMissingCategory(t *testing.T) {
	in := Input{
		Transactions: []core.Transaction{
			{ID: "t1", Date: core.NewDate(2025, 4, 20), Type: core.TypeExpense, Amount: core.Cents(30000), TaxAmount: core.Cents(6300), IRPFAmount: core.Cents(0), CategoryID: "gone"},
		},
	}

	got, _, err := Summarize(in, nil, q2of2025())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Expenses != 300 || got.GastosDeducibles != 300 {
		t.Fatalf("uncategorized expense must hit both totals: expenses=%v deducibles=%v", got.Expenses, got.GastosDeducibles)
	}
	if got.IVADeducible != 63 {
		t.Fatalf("iva deducible: got %v", got.IVADeducible)
	}
	if len(got.ExpensesByCategory) != 0 {
		t.Fatalf("uncategorized bucket must not appear in the breakdown: %+v", got.ExpensesByCategory)
	}
}

// Pending invoices report independent of the selected window.
func TestSummarizePendingIgnoresPeriod(t *testing.T) {
	in := Input{
		Invoices: []core.Invoice{
			{ID: "f1", IssueDate: core.NewDate(2024, 11, 1), Subtotal: core.Cents(50000), Tax: core.Cents(10500), Total: core.Cents(60500), Status: core.InvoicePending},
			{ID: "f2", IssueDate: core.NewDate(2025, 8, 1), Subtotal: core.Cents(10000), Tax: core.Cents(2100), Total: core.Cents(12100), Status: core.InvoiceOverdue},
		},
	}

	got, _, err := Summarize(in, nil, q2of2025())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.PendingInvoices != 726 || got.PendingCount != 2 {
		t.Fatalf("pending bucket must span all periods: %v / %d", got.PendingInvoices, got.PendingCount)
	}
	if got.Income != 0 {
		t.Fatalf("pending invoices must not contribute income: %v", got.Income)
	}
}

func TestSummarizeInvalidSelector(t *testing.T) {
	_, _, err := Summarize(Input{}, nil, core.PeriodSelector{Year: "25", Quarter: core.Q1})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestSummarizeDeterministic(t *testing.T) {
	in := Input{
		Invoices: []core.Invoice{
			{ID: "f1", IssueDate: core.NewDate(2025, 5, 10), Subtotal: core.Cents(77700), Tax: core.Cents(16317), Total: core.Cents(94017), Status: core.InvoicePaid},
		},
		Transactions: []core.Transaction{
			{ID: "t1", Date: core.NewDate(2025, 6, 3), Type: core.TypeExpense, Amount: core.Cents(12345), TaxAmount: core.Cents(2592), IRPFAmount: core.Cents(0), CategoryID: "rent"},
		},
		Categories: map[string]core.Category{
			"rent": {ID: "rent", Name: "Alquiler", Deductible: true},
		},
	}
	quotes := []core.Quote{
		{ID: "q1", Date: core.NewDate(2025, 5, 1), ClientID: "c", Total: core.Cents(40000), Status: core.QuotePending},
	}

	first, _, err := Summarize(in, quotes, q2of2025())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 20; i++ {
		got, _, err := Summarize(in, quotes, q2of2025())
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if !reflect.DeepEqual(got, first) {
			t.Fatalf("summary diverged on call %d", i)
		}
	}
}

func TestBuildLedgerOrdering(t *testing.T) {
	in := Input{
		Invoices: []core.Invoice{
			{ID: "b", IssueDate: core.NewDate(2025, 5, 10), ClientID: "c", Subtotal: core.Cents(1000), Tax: core.Cents(210), Total: core.Cents(1210), Status: core.InvoicePaid},
			{ID: "a", IssueDate: core.NewDate(2025, 5, 10), ClientID: "c", Subtotal: core.Cents(2000), Tax: core.Cents(420), Total: core.Cents(2420), Status: core.InvoicePaid},
			{ID: "c", IssueDate: core.NewDate(2025, 6, 1), ClientID: "c", Subtotal: core.Cents(3000), Tax: core.Cents(630), Total: core.Cents(3630), Status: core.InvoicePaid},
		},
	}

	book, _, err := BuildLedger(in, nil, q2of2025())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var ids []string
	for _, inv := range book.Invoices {
		ids = append(ids, inv.ID)
	}
	want := []string{"c", "a", "b"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("ledger order: got %v, want %v", ids, want)
	}
}

func TestBuildLedgerShape(t *testing.T) {
	in := Input{
		Transactions: []core.Transaction{
			{ID: "t1", Date: core.NewDate(2025, 4, 5), Type: core.TypeExpense, Description: "Oficina", Amount: core.Cents(123456), TaxAmount: core.Cents(25926), IRPFAmount: core.Cents(0), CategoryID: "gone"},
		},
	}
	quotes := []core.Quote{
		{ID: "q1", Date: core.NewDate(2025, 4, 6), ClientID: "c9", Total: core.Cents(50000), Status: core.QuoteAccepted},
		{ID: "q2", Date: core.NewDate(2024, 4, 6), ClientID: "c9", Total: core.Cents(1000), Status: core.QuotePending},
	}

	book, _, err := BuildLedger(in, quotes, q2of2025())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if book.Year != "2025" || book.Quarter != core.Q2 || book.Month != "all" {
		t.Fatalf("book header: %s %s %s", book.Year, book.Quarter, book.Month)
	}
	if len(book.Transactions) != 1 {
		t.Fatalf("transactions: %+v", book.Transactions)
	}
	tx := book.Transactions[0]
	if tx.Amount != "1234,56 €" || tx.Category != "Sin categoría" || !tx.Deductible {
		t.Fatalf("transaction row: %+v", tx)
	}
	if len(book.Quotes) != 1 || book.Quotes[0].ID != "q1" {
		t.Fatalf("only in-window quotes belong in the book: %+v", book.Quotes)
	}
}

func TestBuildLedgerIncomeRowHasNoCategory(t *testing.T) {
	in := Input{
		Transactions: []core.Transaction{
			{ID: "t1", Date: core.NewDate(2025, 5, 2), Type: core.TypeIncome, Description: "Cobro", Amount: core.Cents(50000)},
			{ID: "t2", Date: core.NewDate(2025, 5, 3), Type: core.TypeExpense, Description: "Varios", Amount: core.Cents(1000)},
		},
	}

	book, _, err := BuildLedger(in, nil, q2of2025())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(book.Transactions) != 2 {
		t.Fatalf("transactions: %+v", book.Transactions)
	}

	income := book.Transactions[0]
	if income.Category != "" || income.Deductible {
		t.Errorf("income row must carry no category: %+v", income)
	}
	expense := book.Transactions[1]
	if expense.Category != "Sin categoría" {
		t.Errorf("uncategorized expense row: %+v", expense)
	}
}
