package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
)

// Dashboard builds the user's dashboard for a period. Concurrent requests for
// the same view share one computation, and the result is cached until the
// user's next write.
func (s *FinanceService) Dashboard(ctx context.Context, userID string, period analytics.Period, anchor core.MonthKey) (analytics.Dashboard, error) {
	if err := requireUser(userID); err != nil {
		return analytics.Dashboard{}, err
	}
	if anchor != "" && !anchor.Valid() {
		return analytics.Dashboard{}, core.ErrInvalidMonthKey
	}
	if period == "" {
		period = analytics.Monthly
	}

	key := userID + "|" + string(period) + "|" + string(anchor)
	if s.dashboards != nil {
		if d, ok := s.dashboards.Get(key); ok {
			slog.DebugContext(ctx, "Dashboard cache hit", "key", key)
			return d, nil
		}
	}

	// The shared computation must not inherit one caller's cancellation;
	// the store calls inside it carry their own timeouts.
	detached := context.WithoutCancel(ctx)
	ch := s.flight.DoChan(key, func() (any, error) {
		gen := s.generation(userID)
		d, err := s.buildDashboard(detached, userID, period, anchor)
		if err != nil {
			return analytics.Dashboard{}, err
		}
		if s.dashboards != nil && s.generation(userID) == gen {
			s.dashboards.Set(key, d)
		}
		return d, nil
	})

	select {
	case <-ctx.Done():
		return analytics.Dashboard{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return analytics.Dashboard{}, res.Err
		}
		if res.Shared {
			slog.DebugContext(ctx, "Dashboard computation shared", "key", key)
		}
		return res.Val.(analytics.Dashboard), nil
	}
}

func (s *FinanceService) buildDashboard(ctx context.Context, userID string, period analytics.Period, anchor core.MonthKey) (analytics.Dashboard, error) {
	txs, cats, err := s.load(ctx, userID)
	if err != nil {
		return analytics.Dashboard{}, err
	}
	settingsCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	st, err := s.settings(settingsCtx, userID)
	if err != nil {
		return analytics.Dashboard{}, err
	}
	return analytics.BuildDashboard(analytics.DashboardInput{
		Transactions: txs,
		Categories:   cats,
		Currency:     st.Currency,
		Period:       period,
		Anchor:       anchor,
		Now:          s.now(),
	}), nil
}

// Summary aggregates income, expenses and balance for a period window.
func (s *FinanceService) Summary(ctx context.Context, userID string, period analytics.Period, anchor core.MonthKey) (analytics.Summary, error) {
	txs, err := s.transactionsFor(ctx, userID)
	if err != nil {
		return analytics.Summary{}, err
	}
	if anchor != "" && !anchor.Valid() {
		return analytics.Summary{}, core.ErrInvalidMonthKey
	}
	return analytics.Aggregate(txs, period, anchor, s.now()), nil
}

func (s *FinanceService) Last12Months(ctx context.Context, userID string) ([]analytics.MonthPoint, error) {
	txs, err := s.transactionsFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return analytics.Last12Months(txs, s.now()), nil
}

func (s *FinanceService) Last30Days(ctx context.Context, userID string) ([]analytics.DayPoint, error) {
	txs, err := s.transactionsFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return analytics.Last30Days(txs, s.now()), nil
}

// Alerts evaluates budget alerts for month, or the current month when empty.
func (s *FinanceService) Alerts(ctx context.Context, userID string, month core.MonthKey) ([]analytics.Alert, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if month == "" {
		month = core.MonthKeyFromTime(s.now())
	}
	if !month.Valid() {
		return nil, core.ErrInvalidMonthKey
	}
	txs, cats, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return analytics.Evaluate(analytics.EntriesForMonth(cats, txs, month)), nil
}

func (s *FinanceService) transactionsFor(ctx context.Context, userID string) ([]core.Transaction, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}
