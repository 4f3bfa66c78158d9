package core

// CategoryAmount is an expense amount aggregated by category name.
type CategoryAmount struct {
	Name   string `json:"name"`
	Amount Money  `json:"-"`
	Total  string `json:"total"`
}

// AggregateResult is the engine's raw output for a fiscal window. All
// currency fields are exact integer cents; rounding happens only when a
// presentation shape (DashboardSummary, LedgerBook) is built from it.
type AggregateResult struct {
	IncomeCents               int64
	ExpensesCents             int64
	GastosDeduciblesCents     int64
	IVARepercutidoCents       int64
	IVASoportadoCents         int64
	IVADeducibleCents         int64
	IVAALiquidarCents         int64
	IRPFRetenidoIngresosCents int64
	IRPFGastosCents           int64
	ResultadoFiscalCents      int64
	FinalResultCents          int64

	// Outstanding invoice bucket, reported independent of the period filter.
	PendingInvoicesCents int64
	PendingCount         int
}

// DashboardSummary is the flat wire shape the dashboard consumes. Field
// names are a stable contract shared with the export and report layers.
// Currency values are euros rounded to two decimals.
type DashboardSummary struct {
	Income               float64 `json:"income"`
	Expenses             float64 `json:"expenses"`
	GastosDeducibles     float64 `json:"gastosDeducibles"`
	IVARepercutido       float64 `json:"ivaRepercutido"`
	IVASoportado         float64 `json:"ivaSoportado"`
	IVADeducible         float64 `json:"ivaDeducible"`
	IVAALiquidar         float64 `json:"ivaALiquidar"`
	IRPFRetenidoIngresos float64 `json:"irpfRetenidoIngresos"`
	IRPFGastos           float64 `json:"irpfGastos"`
	ResultadoFiscal      float64 `json:"resultadoFiscal"`
	FinalResult          float64 `json:"finalResult"`

	PendingInvoices    float64 `json:"pendingInvoices"`
	PendingCount       int     `json:"pendingCount"`
	PendingQuotes      float64 `json:"pendingQuotes"`
	PendingQuotesCount int     `json:"pendingQuotesCount"`

	QuoteAcceptanceRate float64 `json:"quoteAcceptanceRate"`

	// Deductible expense base per category; the synthetic Uncategorized
	// bucket is excluded here but never from the totals above.
	ExpensesByCategory []CategoryAmount `json:"expensesByCategory"`
}

// LedgerBook is the "Libro de Registros" export shape: the period-filtered
// record lists with display-formatted fields plus the same summary totals.
type LedgerBook struct {
	Year    string  `json:"year"`
	Quarter Quarter `json:"quarter"`
	Month   string  `json:"month"`

	Summary      DashboardSummary    `json:"summary"`
	Invoices     []LedgerInvoice     `json:"invoices"`
	Transactions []LedgerTransaction `json:"transactions"`
	Quotes       []LedgerQuote       `json:"quotes"`
}

type LedgerInvoice struct {
	ID       string `json:"id"`
	Date     string `json:"date"`
	ClientID string `json:"clientId"`
	Subtotal string `json:"subtotal"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
	Status   string `json:"status"`
}

type LedgerTransaction struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	Tax         string `json:"tax"`
	IRPF        string `json:"irpf"`
	Deductible  bool   `json:"deductible"`
}

type LedgerQuote struct {
	ID       string `json:"id"`
	Date     string `json:"date"`
	ClientID string `json:"clientId"`
	Total    string `json:"total"`
	Status   string `json:"status"`
}
