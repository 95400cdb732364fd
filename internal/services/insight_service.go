package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/insights"
	"fintrack/internal/log"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const monthlyWindow = 12

// InsightCaches holds one cache per insight kind. Keys start with the owner id.
type InsightCaches struct {
	Spending cache.Cache[insights.Spending]
	Monthly  cache.Cache[insights.MonthlySeries]
	Patterns cache.Cache[insights.Analysis]
}

// NewLRUInsightCaches builds in-process caches of the given size and TTL.
func NewLRUInsightCaches(size int, ttl time.Duration) (InsightCaches, []cache.Cleaner) {
	spending := cache.NewLRUCache[insights.Spending](size, ttl)
	monthly := cache.NewLRUCache[insights.MonthlySeries](size, ttl)
	patterns := cache.NewLRUCache[insights.Analysis](size, ttl)
	return InsightCaches{Spending: spending, Monthly: monthly, Patterns: patterns},
		[]cache.Cleaner{spending, monthly, patterns}
}

// InsightService serves the read-only insight endpoints. Concurrent misses
// for the same key share one computation.
type InsightService struct {
	transactions core.TransactionRepository
	caches       InsightCaches
	analyzer     insights.Analyzer
	group        singleflight.Group
	now          func() time.Time
}

func NewInsightService(transactions core.TransactionRepository, caches InsightCaches, analyzer insights.Analyzer) *InsightService {
	return &InsightService{
		transactions: transactions,
		caches:       caches,
		analyzer:     analyzer,
		now:          time.Now,
	}
}

// Spending computes the insight summary over the trailing days and keeps
// the top categories.
func (s *InsightService) Spending(ctx context.Context, ownerID string, days, top int) (insights.Spending, error) {
	key := fmt.Sprintf("%s:spending:%d:%d", ownerID, days, top)
	return cached(ctx, s, s.caches.Spending, key, func(ctx context.Context) (insights.Spending, error) {
		now := s.now().UTC()
		from := now.AddDate(0, 0, -days)

		var window, quarter []core.Transaction
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			window, err = s.transactions.ListTransactions(gctx, ownerID, core.TransactionFilter{From: from, To: now})
			return err
		})
		g.Go(func() error {
			var err error
			quarter, err = s.transactions.ListTransactions(gctx, ownerID, core.TransactionFilter{From: insights.QuarterStart(now), To: now})
			return err
		})
		if err := g.Wait(); err != nil {
			return insights.Spending{}, fmt.Errorf("load transactions: %w", err)
		}
		return insights.Compute(window, quarter, top, from, now), nil
	})
}

// Monthly returns income, expenses and savings for the last 12 calendar months.
func (s *InsightService) Monthly(ctx context.Context, ownerID string) (insights.MonthlySeries, error) {
	key := ownerID + ":monthly"
	return cached(ctx, s, s.caches.Monthly, key, func(ctx context.Context) (insights.MonthlySeries, error) {
		now := s.now().UTC()
		txs, err := s.transactions.ListTransactions(ctx, ownerID, core.TransactionFilter{
			From: insights.MonthsStart(now, monthlyWindow),
		})
		if err != nil {
			return insights.MonthlySeries{}, fmt.Errorf("load transactions: %w", err)
		}
		return insights.Monthly(txs, now, monthlyWindow), nil
	})
}

// Patterns runs the heuristic analysis over the owner's full history.
func (s *InsightService) Patterns(ctx context.Context, ownerID string) (insights.Analysis, error) {
	key := ownerID + ":patterns"
	return cached(ctx, s, s.caches.Patterns, key, func(ctx context.Context) (insights.Analysis, error) {
		txs, err := s.transactions.ListTransactions(ctx, ownerID, core.TransactionFilter{})
		if err != nil {
			return insights.Analysis{}, fmt.Errorf("load transactions: %w", err)
		}
		return s.analyzer.Analyze(txs, s.now().UTC())
	})
}

// Invalidate drops every cached insight of the owner.
func (s *InsightService) Invalidate(ctx context.Context, ownerID string) {
	prefix := ownerID + ":"
	n := s.caches.Spending.DeletePrefix(ctx, prefix) +
		s.caches.Monthly.DeletePrefix(ctx, prefix) +
		s.caches.Patterns.DeletePrefix(ctx, prefix)
	if n > 0 {
		slog.DebugContext(ctx, "Insight cache invalidated", log.FieldComponent, log.ComponentCache, log.FieldOwnerID, ownerID, "entries", n)
	}
}

func cached[T any](ctx context.Context, s *InsightService, c cache.Cache[T], key string, load func(context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(ctx, key); ok {
		return v, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		// A load that finished between the miss above and this call already filled the cache.
		if v, ok := c.Get(ctx, key); ok {
			return v, nil
		}
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(ctx, key, v)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
