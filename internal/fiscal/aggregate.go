package fiscal

import (
	"fmt"
	"sort"

	"facturas/internal/core"
)

// Aggregate folds a classified, period-filtered record set into the raw
// aggregate. All sums run on integer cents, so a year aggregate equals the
// sum of its four quarter aggregates exactly.
//
// Note the two expense figures: ExpensesCents is the full expense base,
// deductible or not, while GastosDeduciblesCents is deductible-only. The two
// were historically conflated upstream and are deliberately kept distinct.
func Aggregate(records []core.FiscalRecord) (core.AggregateResult, error) {
	var agg core.AggregateResult
	for _, r := range records {
		switch r.Kind {
		case core.RecordInvoice, core.RecordTransaction:
		default:
			return core.AggregateResult{}, fmt.Errorf("%w: unknown record kind %q", core.ErrMalformedInput, r.Kind)
		}

		agg.IncomeCents += r.IncomeBaseCents
		agg.ExpensesCents += r.ExpenseBaseCents
		agg.IVARepercutidoCents += r.VATOutputCents
		agg.IVASoportadoCents += r.VATInputCents
		agg.IRPFRetenidoIngresosCents += r.IRPFIncomeCents
		agg.IRPFGastosCents += r.IRPFExpenseCents
		if r.Deductible {
			agg.GastosDeduciblesCents += r.ExpenseBaseCents
			agg.IVADeducibleCents += r.VATInputCents
		}
	}

	// May be negative: a VAT credit position, never clamped to zero.
	agg.IVAALiquidarCents = agg.IVARepercutidoCents - agg.IVADeducibleCents
	agg.ResultadoFiscalCents = agg.IncomeCents - agg.GastosDeduciblesCents
	agg.FinalResultCents = agg.IncomeCents - agg.ExpensesCents
	return agg, nil
}

// BreakdownByCategory sums deductible-relevant expense bases per category
// name. Uncategorized records are left out of the breakdown; they still sit
// in every total produced by Aggregate.
func BreakdownByCategory(records []core.FiscalRecord, cats map[string]core.Category) []core.CategoryAmount {
	byID := map[string]int64{}
	for _, r := range records {
		if r.ExpenseBaseCents == 0 || r.Uncategorized {
			continue
		}
		byID[r.CategoryID] += r.ExpenseBaseCents
	}

	out := make([]core.CategoryAmount, 0, len(byID))
	for id, cents := range byID {
		name := id
		if cat, ok := cats[id]; ok && cat.Name != "" {
			name = cat.Name
		}
		out = append(out, core.CategoryAmount{
			Name:   name,
			Amount: core.Money{Cents: cents},
			Total:  core.FormatEuros(cents),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}
