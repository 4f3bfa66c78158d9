package core

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	InvoicePending  InvoiceStatus = "pending"
	InvoicePaid     InvoiceStatus = "paid"
	InvoiceOverdue  InvoiceStatus = "overdue"
	InvoiceCanceled InvoiceStatus = "canceled"

	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"

	QuotePending  QuoteStatus = "pending"
	QuoteAccepted QuoteStatus = "accepted"
	QuoteRejected QuoteStatus = "rejected"

	QuarterAll Quarter = "all"
	Q1         Quarter = "Q1"
	Q2         Quarter = "Q2"
	Q3         Quarter = "Q3"
	Q4         Quarter = "Q4"

	// MonthAll selects every month of the year in a PeriodSelector.
	MonthAll = 0
)

type (
	InvoiceStatus   string
	TransactionType string
	QuoteStatus     string
	Quarter         string

	Date struct {
		time.Time
	}

	// Invoice is a document issued to a client. Only paid invoices count as
	// realized income; pending and overdue ones feed the outstanding bucket.
	// total = subtotal + tax is assumed of inputs and never silently repaired.
	Invoice struct {
		ID        string        `json:"id"`
		IssueDate Date          `json:"issueDate"`
		ClientID  string        `json:"clientId"`
		Subtotal  Amount        `json:"subtotal"`
		Tax       Amount        `json:"tax"`
		Total     Amount        `json:"total"`
		Status    InvoiceStatus `json:"status"`
	}

	// Transaction is a standalone income or expense entry not tied to an
	// issued invoice. Amount is the taxable base (VAT-exclusive by convention).
	Transaction struct {
		ID          string          `json:"id"`
		Date        Date            `json:"date"`
		Type        TransactionType `json:"type"`
		Description string          `json:"description"`
		Amount      Amount          `json:"amount"`
		CategoryID  string          `json:"categoryId"`
		TaxAmount   Amount          `json:"taxAmount"`
		IRPFAmount  Amount          `json:"irpfAmount"`
	}

	Category struct {
		ID         string          `json:"id"`
		Name       string          `json:"name"`
		Type       TransactionType `json:"type"`
		Deductible bool            `json:"deductible"`
	}

	Quote struct {
		ID       string      `json:"id"`
		Date     Date        `json:"date"`
		ClientID string      `json:"clientId"`
		Total    Amount      `json:"total"`
		Status   QuoteStatus `json:"status"`
	}

	// PeriodSelector is the fiscal window under which an aggregate is
	// requested. Year is a 4-digit string; Month 0 means "all".
	PeriodSelector struct {
		Year    string  `json:"year"`
		Quarter Quarter `json:"quarter"`
		Month   int     `json:"month"`
	}

	// FiscalRecord is the uniform shape invoices and transactions are
	// normalized into before aggregation. All amounts are integer cents.
	FiscalRecord struct {
		Kind          RecordKind
		ID            string
		Date          Date
		CategoryID    string
		Uncategorized bool
		Deductible    bool

		IncomeBaseCents  int64
		ExpenseBaseCents int64
		VATOutputCents   int64
		VATInputCents    int64
		IRPFIncomeCents  int64
		IRPFExpenseCents int64
	}

	RecordKind string
)

const (
	RecordInvoice     RecordKind = "invoice"
	RecordTransaction RecordKind = "transaction"
)

var (
	ErrInvalidSelector = errors.New("invalid period selector")
	ErrMalformedInput  = errors.New("malformed input")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrEmptyClient     = errors.New("empty client id")
	ErrNotFound        = errors.New("record not found")
)

// NewDate creates a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the calendar month, 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		// Some upstream sources send full timestamps
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return err
		}
	}
	d.Time = t.UTC()
	return nil
}

// Validate reports whether the selector names a resolvable fiscal window.
// The year must parse as a 4-digit integer, the quarter must be one of
// all/Q1..Q4 (the zero value counts as all, like Key does) and the month
// must be 0 (all) or 1-12.
func (s PeriodSelector) Validate() error {
	if _, err := s.YearInt(); err != nil {
		return err
	}
	switch s.Quarter {
	case "", QuarterAll, Q1, Q2, Q3, Q4:
	default:
		return errors.Join(ErrInvalidSelector, errors.New("unknown quarter "+strconv.Quote(string(s.Quarter))))
	}
	if s.Month < MonthAll || s.Month > 12 {
		return errors.Join(ErrInvalidSelector, errors.New("month out of range: "+strconv.Itoa(s.Month)))
	}
	return nil
}

// YearInt parses the selector year, failing with ErrInvalidSelector when the
// year is not a 4-digit integer.
func (s PeriodSelector) YearInt() (int, error) {
	y := strings.TrimSpace(s.Year)
	if len(y) != 4 {
		return 0, errors.Join(ErrInvalidSelector, errors.New("year must be a 4-digit string"))
	}
	n, err := strconv.Atoi(y)
	if err != nil {
		return 0, errors.Join(ErrInvalidSelector, errors.New("non-numeric year "+strconv.Quote(y)))
	}
	return n, nil
}

// Key returns a stable cache key fragment for the selector.
func (s PeriodSelector) Key() string {
	month := "all"
	if s.Month != MonthAll {
		month = strconv.Itoa(s.Month)
	}
	quarter := string(s.Quarter)
	if quarter == "" {
		quarter = string(QuarterAll)
	}
	return s.Year + "|" + quarter + "|" + month
}

// MonthRange maps a quarter to its calendar month range (1-indexed,
// inclusive). QuarterAll and the zero value cover the whole year.
func (q Quarter) MonthRange() (first, last int, ok bool) {
	switch q {
	case "", QuarterAll:
		return 1, 12, true
	case Q1:
		return 1, 3, true
	case Q2:
		return 4, 6, true
	case Q3:
		return 7, 9, true
	case Q4:
		return 10, 12, true
	default:
		return 0, 0, false
	}
}

func (i Invoice) Validate() error {
	if err := i.IssueDate.Validate(); err != nil {
		return errors.New("invalid issue date: " + err.Error())
	}
	if strings.TrimSpace(i.ClientID) == "" {
		return ErrEmptyClient
	}
	switch i.Status {
	case InvoicePending, InvoicePaid, InvoiceOverdue, InvoiceCanceled:
	default:
		return ErrInvalidStatus
	}
	if !i.Subtotal.Valid || !i.Tax.Valid || !i.Total.Valid {
		return ErrInvalidAmount
	}
	if i.Subtotal.Cents < 0 || i.Tax.Cents < 0 {
		return ErrInvalidAmount
	}
	// Creation-time guard only; the aggregation engine never repairs totals.
	if i.Total.Cents != i.Subtotal.Cents+i.Tax.Cents {
		return errors.New("total does not equal subtotal plus tax")
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return errors.New("invalid date: " + err.Error())
	}
	switch t.Type {
	case TypeIncome, TypeExpense:
	default:
		return errors.New("invalid transaction type")
	}
	if !t.Amount.Valid || t.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (q Quote) Validate() error {
	if err := q.Date.Validate(); err != nil {
		return errors.New("invalid date: " + err.Error())
	}
	if strings.TrimSpace(q.ClientID) == "" {
		return ErrEmptyClient
	}
	switch q.Status {
	case QuotePending, QuoteAccepted, QuoteRejected:
	default:
		return ErrInvalidStatus
	}
	if !q.Total.Valid || q.Total.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}
