package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"facturas/internal/cache"
	"facturas/internal/core"
	"facturas/internal/fiscal"
	"facturas/internal/log"
)

// RecordSource loads a user's full record set for aggregation.
type RecordSource interface {
	ListInvoices(ctx context.Context, userID string) ([]core.Invoice, error)
	ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
	ListQuotes(ctx context.Context, userID string) ([]core.Quote, error)
	ListCategories(ctx context.Context) (map[string]core.Category, error)
}

// ReportService computes dashboard summaries and ledger books on demand,
// caching them per user and period. Concurrent requests for the same window
// share a single computation.
type ReportService struct {
	source    RecordSource
	summaries *cache.LRUCache[core.DashboardSummary]
	ledgers   *cache.LRUCache[core.LedgerBook]
	group     singleflight.Group
	logger    *log.Logger
}

func NewReportService(source RecordSource, ttl time.Duration, maxEntries int, manager *cache.Manager, logger *log.Logger) *ReportService {
	s := &ReportService{
		source:    source,
		summaries: cache.NewLRUCache[core.DashboardSummary](maxEntries, ttl),
		ledgers:   cache.NewLRUCache[core.LedgerBook](maxEntries, ttl),
		logger:    logger.WithComponent(log.ComponentReport),
	}
	if manager != nil {
		manager.Register(s.summaries)
		manager.Register(s.ledgers)
	}
	return s
}

// Summary returns the dashboard summary for one user and fiscal window,
// computing and caching it on a miss.
func (s *ReportService) Summary(ctx context.Context, userID string, sel core.PeriodSelector) (core.DashboardSummary, error) {
	if err := sel.Validate(); err != nil {
		return core.DashboardSummary{}, err
	}

	key := cacheKey(userID, sel)
	if summary, ok := s.summaries.Get(key); ok {
		return summary, nil
	}

	v, err, _ := s.group.Do("summary|"+key, func() (any, error) {
		in, quotes, err := s.loadInput(ctx, userID)
		if err != nil {
			return nil, err
		}

		summary, warnings, err := fiscal.Summarize(in, quotes, sel)
		if err != nil {
			return nil, err
		}
		s.logWarnings(ctx, userID, sel, warnings)

		s.summaries.Set(key, summary)
		return summary, nil
	})
	if err != nil {
		return core.DashboardSummary{}, fmt.Errorf("compute summary: %w", err)
	}
	return v.(core.DashboardSummary), nil
}

// Ledger returns the Libro de Registros for one user and fiscal window.
func (s *ReportService) Ledger(ctx context.Context, userID string, sel core.PeriodSelector) (core.LedgerBook, error) {
	if err := sel.Validate(); err != nil {
		return core.LedgerBook{}, err
	}

	key := cacheKey(userID, sel)
	if book, ok := s.ledgers.Get(key); ok {
		return book, nil
	}

	v, err, _ := s.group.Do("ledger|"+key, func() (any, error) {
		in, quotes, err := s.loadInput(ctx, userID)
		if err != nil {
			return nil, err
		}

		book, warnings, err := fiscal.BuildLedger(in, quotes, sel)
		if err != nil {
			return nil, err
		}
		s.logWarnings(ctx, userID, sel, warnings)

		s.ledgers.Set(key, book)
		return book, nil
	})
	if err != nil {
		return core.LedgerBook{}, fmt.Errorf("build ledger: %w", err)
	}
	return v.(core.LedgerBook), nil
}

// InvalidateUser drops every cached report for the user. Called whenever one
// of the user's records changes.
func (s *ReportService) InvalidateUser(userID string) {
	removed := s.summaries.DeletePrefix(userID + "|")
	removed += s.ledgers.DeletePrefix(userID + "|")
	if removed > 0 {
		s.logger.Debug("Invalidated cached reports",
			log.FieldUserID, userID,
			"entries", removed)
	}
}

func (s *ReportService) loadInput(ctx context.Context, userID string) (fiscal.Input, []core.Quote, error) {
	invoices, err := s.source.ListInvoices(ctx, userID)
	if err != nil {
		return fiscal.Input{}, nil, fmt.Errorf("list invoices: %w", err)
	}
	transactions, err := s.source.ListTransactions(ctx, userID)
	if err != nil {
		return fiscal.Input{}, nil, fmt.Errorf("list transactions: %w", err)
	}
	quotes, err := s.source.ListQuotes(ctx, userID)
	if err != nil {
		return fiscal.Input{}, nil, fmt.Errorf("list quotes: %w", err)
	}
	categories, err := s.source.ListCategories(ctx)
	if err != nil {
		return fiscal.Input{}, nil, fmt.Errorf("list categories: %w", err)
	}

	return fiscal.Input{
		Invoices:     invoices,
		Transactions: transactions,
		Categories:   categories,
	}, quotes, nil
}

func (s *ReportService) logWarnings(ctx context.Context, userID string, sel core.PeriodSelector, warnings []fiscal.Warning) {
	for _, w := range warnings {
		s.logger.WarnContext(ctx, "Degraded record in aggregation",
			log.FieldUserID, userID,
			log.FieldPeriod, sel.Key(),
			log.FieldRecordID, w.RecordID,
			"field", w.Field,
			"reason", w.Reason)
	}
}

func cacheKey(userID string, sel core.PeriodSelector) string {
	return userID + "|" + sel.Key()
}
