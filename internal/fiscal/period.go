// Package fiscal implements the period aggregation and tax computation
// engine: a pure pipeline that turns invoices and transactions into
// period-scoped financial summaries. No I/O happens here; the surrounding
// service layer owns fetching, caching and invalidation.
package fiscal

import (
	"facturas/internal/core"
)

// Includes decides whether a dated record belongs to the requested fiscal
// window. When both a quarter and a month are set and conflict, the month
// wins: the narrower selector is taken as the user's intent. Pure and
// idempotent by construction.
func Includes(d core.Date, sel core.PeriodSelector) (bool, error) {
	year, err := sel.YearInt()
	if err != nil {
		return false, err
	}
	if err := sel.Validate(); err != nil {
		return false, err
	}
	if d.Year() != year {
		return false, nil
	}
	if sel.Month != core.MonthAll {
		return d.Month() == sel.Month, nil
	}
	first, last, ok := sel.Quarter.MonthRange()
	if !ok {
		return false, core.ErrInvalidSelector
	}
	m := d.Month()
	return m >= first && m <= last, nil
}

// FilterRecords keeps the fiscal records inside the selector's window.
func FilterRecords(records []core.FiscalRecord, sel core.PeriodSelector) ([]core.FiscalRecord, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	out := make([]core.FiscalRecord, 0, len(records))
	for _, r := range records {
		in, err := Includes(r.Date, sel)
		if err != nil {
			return nil, err
		}
		if in {
			out = append(out, r)
		}
	}
	return out, nil
}
