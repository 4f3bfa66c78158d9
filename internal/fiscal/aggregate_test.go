package fiscal

import (
	"errors"
	"testing"

	"facturas/internal/core"
)

func TestAggregateEmpty(t *testing.T) {
	agg, err := Aggregate(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agg != (core.AggregateResult{}) {
		t.Fatalf("empty record set must aggregate to zero, got %+v", agg)
	}
}

func TestAggregateUnknownKind(t *testing.T) {
	_, err := Aggregate([]core.FiscalRecord{{Kind: "receipt", ID: "x"}})
	if !errors.Is(err, core.ErrMalformedInput) {
		t.Fatalf("want ErrMalformedInput, got %v", err)
	}
}

func TestAggregateTotals(t *testing.T) {
	records := []core.FiscalRecord{
		{Kind: core.RecordInvoice, ID: "f1", Deductible: true, IncomeBaseCents: 100000, VATOutputCents: 21000},
		{Kind: core.RecordTransaction, ID: "t1", Deductible: true, IncomeBaseCents: 50000, VATOutputCents: 10500, IRPFIncomeCents: 7500},
		{Kind: core.RecordTransaction, ID: "t2", Deductible: true, ExpenseBaseCents: 20000, VATInputCents: 4200, IRPFExpenseCents: 3000},
		{Kind: core.RecordTransaction, ID: "t3", Deductible: false, ExpenseBaseCents: 10000, VATInputCents: 2100},
	}
	agg, err := Aggregate(records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if agg.IncomeCents != 150000 {
		t.Errorf("income: got %d", agg.IncomeCents)
	}
	if agg.ExpensesCents != 30000 {
		t.Errorf("expenses: got %d", agg.ExpensesCents)
	}
	if agg.GastosDeduciblesCents != 20000 {
		t.Errorf("gastos deducibles must exclude non-deductible base: got %d", agg.GastosDeduciblesCents)
	}
	if agg.IVARepercutidoCents != 31500 {
		t.Errorf("iva repercutido: got %d", agg.IVARepercutidoCents)
	}
	if agg.IVASoportadoCents != 6300 {
		t.Errorf("iva soportado: got %d", agg.IVASoportadoCents)
	}
	if agg.IVADeducibleCents != 4200 {
		t.Errorf("iva deducible must exclude non-deductible input VAT: got %d", agg.IVADeducibleCents)
	}
	if agg.IVAALiquidarCents != 31500-4200 {
		t.Errorf("iva a liquidar: got %d", agg.IVAALiquidarCents)
	}
	if agg.IRPFRetenidoIngresosCents != 7500 {
		t.Errorf("irpf retenido: got %d", agg.IRPFRetenidoIngresosCents)
	}
	if agg.IRPFGastosCents != 3000 {
		t.Errorf("irpf gastos: got %d", agg.IRPFGastosCents)
	}
	if agg.ResultadoFiscalCents != 150000-20000 {
		t.Errorf("resultado fiscal: got %d", agg.ResultadoFiscalCents)
	}
	if agg.FinalResultCents != 150000-30000 {
		t.Errorf("final result: got %d", agg.FinalResultCents)
	}
}

func TestAggregateNegativeIVAALiquidar(t *testing.T) {
	records := []core.FiscalRecord{
		{Kind: core.RecordTransaction, ID: "t1", Deductible: true, IncomeBaseCents: 10000, VATOutputCents: 2100},
		{Kind: core.RecordTransaction, ID: "t2", Deductible: true, ExpenseBaseCents: 50000, VATInputCents: 10500},
	}
	agg, err := Aggregate(records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agg.IVAALiquidarCents != 2100-10500 {
		t.Fatalf("VAT credit position must stay negative, got %d", agg.IVAALiquidarCents)
	}
}

func TestAggregateQuarterAdditivity(t *testing.T) {
	// One record per month, amounts chosen so naive float arithmetic
	// would drift.
	var records []core.FiscalRecord
	for m := 1; m <= 12; m++ {
		records = append(records, core.FiscalRecord{
			Kind:            core.RecordTransaction,
			ID:              "t" + string(rune('a'+m)),
			Date:            core.NewDate(2025, m, 15),
			Deductible:      true,
			IncomeBaseCents: int64(m) * 3333,
			VATOutputCents:  int64(m) * 699,
		})
	}

	year := core.PeriodSelector{Year: "2025", Quarter: core.QuarterAll, Month: core.MonthAll}
	yearRecords, err := FilterRecords(records, year)
	if err != nil {
		t.Fatalf("filter year: %v", err)
	}
	yearAgg, err := Aggregate(yearRecords)
	if err != nil {
		t.Fatalf("aggregate year: %v", err)
	}

	var income, vat int64
	for _, q := range []core.Quarter{core.Q1, core.Q2, core.Q3, core.Q4} {
		sel := core.PeriodSelector{Year: "2025", Quarter: q, Month: core.MonthAll}
		qr, err := FilterRecords(records, sel)
		if err != nil {
			t.Fatalf("filter %s: %v", q, err)
		}
		qAgg, err := Aggregate(qr)
		if err != nil {
			t.Fatalf("aggregate %s: %v", q, err)
		}
		income += qAgg.IncomeCents
		vat += qAgg.IVARepercutidoCents
	}

	if income != yearAgg.IncomeCents {
		t.Fatalf("quarter incomes %d do not sum to year income %d", income, yearAgg.IncomeCents)
	}
	if vat != yearAgg.IVARepercutidoCents {
		t.Fatalf("quarter VAT %d does not sum to year VAT %d", vat, yearAgg.IVARepercutidoCents)
	}
}

func TestBreakdownByCategory(t *testing.T) {
	cats := map[string]core.Category{
		"rent":     {ID: "rent", Name: "Alquiler", Deductible: true},
		"material": {ID: "material", Name: "Material", Deductible: true},
	}
	records := []core.FiscalRecord{
		{Kind: core.RecordTransaction, ID: "a", CategoryID: "rent", Deductible: true, ExpenseBaseCents: 60000},
		{Kind: core.RecordTransaction, ID: "b", CategoryID: "rent", Deductible: true, ExpenseBaseCents: 60000},
		{Kind: core.RecordTransaction, ID: "c", CategoryID: "material", Deductible: true, ExpenseBaseCents: 15000},
		{Kind: core.RecordTransaction, ID: "d", CategoryID: UncategorizedID, Uncategorized: true, Deductible: true, ExpenseBaseCents: 99999},
		{Kind: core.RecordTransaction, ID: "e", CategoryID: "rent", Deductible: true, IncomeBaseCents: 5000},
	}

	got := BreakdownByCategory(records, cats)
	if len(got) != 2 {
		t.Fatalf("uncategorized and zero-expense records must be skipped, got %+v", got)
	}
	if got[0].Name != "Alquiler" || got[0].Amount.Cents != 120000 {
		t.Fatalf("largest category first: %+v", got[0])
	}
	if got[1].Name != "Material" || got[1].Amount.Cents != 15000 {
		t.Fatalf("second category: %+v", got[1])
	}
	if got[0].Total != "1200,00 €" {
		t.Fatalf("display total: %q", got[0].Total)
	}
}
