// Package worker turns transaction events into refreshed monthly reports.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/ports"
	"fintrack/internal/services"
)

// ReportWorker rewrites a user's monthly report whenever one of their
// transactions in that month changes. Events older than the last successful
// export of the same report are skipped, so a burst of writes costs one export.
type ReportWorker struct {
	finance *services.FinanceService
	writer  ports.ReportWriter
	now     func() time.Time

	mu      sync.Mutex
	written map[string]time.Time
}

func NewReportWorker(finance *services.FinanceService, writer ports.ReportWriter) *ReportWorker {
	return &ReportWorker{
		finance: finance,
		writer:  writer,
		now:     time.Now,
		written: make(map[string]time.Time),
	}
}

func reportKey(userID string, month core.MonthKey) string {
	return userID + "|" + string(month)
}

// HandleEvent processes a single transaction event from AMQP, refreshing
// every month the event touched. A returned error makes the consumer requeue
// the delivery.
func (w *ReportWorker) HandleEvent(ctx context.Context, evt core.TransactionEvent) error {
	if evt.UserID == "" || !evt.Month.Valid() {
		slog.WarnContext(ctx, "Dropping event without user or month",
			"kind", evt.Kind,
			"transaction_id", evt.TransactionID)
		return nil
	}

	for _, month := range evt.Months() {
		if !month.Valid() {
			slog.WarnContext(ctx, "Skipping invalid previous month",
				"transaction_id", evt.TransactionID,
				"month", month)
			continue
		}
		if err := w.refresh(ctx, evt, month); err != nil {
			return err
		}
	}
	return nil
}

func (w *ReportWorker) refresh(ctx context.Context, evt core.TransactionEvent, month core.MonthKey) error {
	key := reportKey(evt.UserID, month)
	w.mu.Lock()
	last, seen := w.written[key]
	w.mu.Unlock()
	if seen && !last.Before(evt.Timestamp) {
		slog.DebugContext(ctx, "Report already current",
			"user_id", evt.UserID,
			"month", month,
			"event_at", evt.Timestamp,
			"exported_at", last)
		return nil
	}

	started := w.now()
	if _, err := w.ExportMonth(ctx, evt.UserID, month); err != nil {
		return fmt.Errorf("export %s report for event %s: %w", month, evt.TransactionID, err)
	}

	w.mu.Lock()
	if started.After(w.written[key]) {
		w.written[key] = started
	}
	w.mu.Unlock()
	return nil
}

// ExportMonth rebuilds the month's dashboard and hands it to the writer,
// returning the writer's reference for what it wrote.
func (w *ReportWorker) ExportMonth(ctx context.Context, userID string, month core.MonthKey) (string, error) {
	d, err := w.finance.Dashboard(ctx, userID, analytics.Monthly, month)
	if err != nil {
		return "", fmt.Errorf("build dashboard: %w", err)
	}
	ref, err := w.writer.WriteMonthlyReport(ctx, userID, d)
	if err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	slog.InfoContext(ctx, "Monthly report exported",
		"user_id", userID,
		"month", month,
		"ref", ref,
		"expenses_cents", d.Summary.Expenses.Cents,
		"categories", len(d.Categories))
	return ref, nil
}
