package core

import (
	"errors"
	"testing"
)

func TestPeriodSelectorValidate(t *testing.T) {
	cases := []struct {
		name string
		sel  PeriodSelector
		ok   bool
	}{
		{"year only", PeriodSelector{Year: "2025", Quarter: QuarterAll, Month: MonthAll}, true},
		{"quarter", PeriodSelector{Year: "2025", Quarter: Q2, Month: MonthAll}, true},
		{"zero-value quarter", PeriodSelector{Year: "2025", Month: 2}, true},
		{"month", PeriodSelector{Year: "2025", Quarter: QuarterAll, Month: 12}, true},
		{"non-numeric year", PeriodSelector{Year: "20x5", Quarter: QuarterAll, Month: MonthAll}, false},
		{"short year", PeriodSelector{Year: "25", Quarter: QuarterAll, Month: MonthAll}, false},
		{"bad quarter", PeriodSelector{Year: "2025", Quarter: "T3", Month: MonthAll}, false},
		{"month out of range", PeriodSelector{Year: "2025", Quarter: QuarterAll, Month: 13}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.sel.Validate()
			if tc.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.ok {
				if err == nil {
					t.Fatal("expected error")
				}
				if !errors.Is(err, ErrInvalidSelector) {
					t.Fatalf("expected ErrInvalidSelector, got %v", err)
				}
			}
		})
	}
}

func TestQuarterMonthRange(t *testing.T) {
	cases := []struct {
		q           Quarter
		first, last int
		ok          bool
	}{
		{Q1, 1, 3, true},
		{Q2, 4, 6, true},
		{Q3, 7, 9, true},
		{Q4, 10, 12, true},
		{QuarterAll, 1, 12, true},
		{"", 1, 12, true},
		{"Q5", 0, 0, false},
	}
	for _, tc := range cases {
		first, last, ok := tc.q.MonthRange()
		if first != tc.first || last != tc.last || ok != tc.ok {
			t.Fatalf("%s: got (%d, %d, %v)", tc.q, first, last, ok)
		}
	}
}

func TestSelectorKey(t *testing.T) {
	sel := PeriodSelector{Year: "2025", Quarter: Q1, Month: MonthAll}
	if sel.Key() != "2025|Q1|all" {
		t.Fatalf("got %q", sel.Key())
	}
	sel = PeriodSelector{Year: "2025", Month: 6}
	if sel.Key() != "2025|all|6" {
		t.Fatalf("got %q", sel.Key())
	}
}

func TestInvoiceValidate(t *testing.T) {
	valid := Invoice{
		ID:        "f1",
		IssueDate: NewDate(2025, 5, 10),
		ClientID:  "c1",
		Subtotal:  Cents(100000),
		Tax:       Cents(21000),
		Total:     Cents(121000),
		Status:    InvoicePaid,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid invoice, got %v", err)
	}

	broken := valid
	broken.Total = Cents(120000)
	if err := broken.Validate(); err == nil {
		t.Fatal("expected total mismatch error")
	}

	broken = valid
	broken.Status = "draft"
	if !errors.Is(broken.Validate(), ErrInvalidStatus) {
		t.Fatal("expected ErrInvalidStatus")
	}

	broken = valid
	broken.ClientID = "  "
	if !errors.Is(broken.Validate(), ErrEmptyClient) {
		t.Fatal("expected ErrEmptyClient")
	}
}

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		ID:     "t1",
		Date:   NewDate(2025, 5, 10),
		Type:   TypeExpense,
		Amount: Cents(20000),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid transaction, got %v", err)
	}

	broken := valid
	broken.Type = "transfer"
	if broken.Validate() == nil {
		t.Fatal("expected type error")
	}

	broken = valid
	broken.Amount = Amount{}
	if !errors.Is(broken.Validate(), ErrInvalidAmount) {
		t.Fatal("expected ErrInvalidAmount")
	}
}
