package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/storage/memory"
)

var testNow = time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC)

type fakeWriter struct {
	mu      sync.Mutex
	reports []analytics.Dashboard
	users   []string
	err     error
}

func (f *fakeWriter) WriteMonthlyReport(_ context.Context, userID string, d analytics.Dashboard) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.reports = append(f.reports, d)
	f.users = append(f.users, userID)
	return "'" + string(d.Month) + " Report'!A1:F9", nil
}

func (f *fakeWriter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reports)
}

func newTestWorker(t *testing.T) (*ReportWorker, *fakeWriter, *services.FinanceService) {
	t.Helper()
	finance := services.NewFinanceService(memory.New(), services.WithClock(func() time.Time { return testNow }))
	writer := &fakeWriter{}
	w := NewReportWorker(finance, writer)
	clock := testNow
	w.now = func() time.Time { return clock }
	return w, writer, finance
}

func TestHandleEventExportsMonth(t *testing.T) {
	w, writer, finance := newTestWorker(t)
	ctx := context.Background()

	tx, err := finance.AddTransaction(ctx, "u1", core.Transaction{
		Type:        core.Expense,
		Amount:      core.Cents(4210),
		Description: "Groceries",
		Date:        core.NewDate(2025, 2, 14),
	})
	require.NoError(t, err)

	evt := core.NewTransactionEvent(core.EventCreated, tx, testNow.Add(-time.Minute))
	require.NoError(t, w.HandleEvent(ctx, evt))

	require.Equal(t, 1, writer.count())
	assert.Equal(t, "u1", writer.users[0])
	assert.Equal(t, core.MonthKey("2025-02"), writer.reports[0].Month)
	assert.Equal(t, int64(4210), writer.reports[0].Summary.Expenses.Cents)
}

func TestHandleEventRefreshesMonthTransactionLeft(t *testing.T) {
	w, writer, finance := newTestWorker(t)
	ctx := context.Background()

	tx, err := finance.AddTransaction(ctx, "u1", core.Transaction{
		Type:        core.Expense,
		Amount:      core.Cents(900),
		Description: "Train",
		Date:        core.NewDate(2025, 3, 2),
	})
	require.NoError(t, err)
	require.NoError(t, w.HandleEvent(ctx, core.NewTransactionEvent(core.EventCreated, tx, testNow.Add(-time.Hour))))
	require.Equal(t, 1, writer.count())

	feb := core.NewDate(2025, 2, 28)
	moved, err := finance.UpdateTransaction(ctx, "u1", tx.ID, services.TransactionPatch{Date: &feb})
	require.NoError(t, err)

	w.now = func() time.Time { return testNow.Add(time.Minute) }
	evt := core.NewTransactionEvent(core.EventUpdated, moved, testNow.Add(time.Second))
	evt.PreviousMonth = "2025-03"
	require.NoError(t, w.HandleEvent(ctx, evt))

	require.Equal(t, 3, writer.count())
	assert.Equal(t, core.MonthKey("2025-02"), writer.reports[1].Month)
	assert.Equal(t, int64(900), writer.reports[1].Summary.Expenses.Cents)
	assert.Equal(t, core.MonthKey("2025-03"), writer.reports[2].Month)
	assert.Zero(t, writer.reports[2].Summary.Expenses.Cents)
}

func TestHandleEventSkipsEventsOlderThanLastExport(t *testing.T) {
	w, writer, _ := newTestWorker(t)
	ctx := context.Background()
	evt := core.TransactionEvent{Kind: core.EventUpdated, UserID: "u1", TransactionID: "t1", Month: "2025-03", Timestamp: testNow.Add(-time.Second)}

	require.NoError(t, w.HandleEvent(ctx, evt))
	require.NoError(t, w.HandleEvent(ctx, evt))
	assert.Equal(t, 1, writer.count(), "replayed event is coalesced")

	later := evt
	later.Timestamp = testNow.Add(time.Second)
	require.NoError(t, w.HandleEvent(ctx, later))
	assert.Equal(t, 2, writer.count())

	other := evt
	other.Month = "2025-02"
	require.NoError(t, w.HandleEvent(ctx, other))
	assert.Equal(t, 3, writer.count(), "months are tracked separately")
}

func TestHandleEventDropsIncompleteEvents(t *testing.T) {
	w, writer, _ := newTestWorker(t)
	require.NoError(t, w.HandleEvent(context.Background(), core.TransactionEvent{Kind: core.EventDeleted, Month: "2025-03"}))
	require.NoError(t, w.HandleEvent(context.Background(), core.TransactionEvent{Kind: core.EventDeleted, UserID: "u1", Month: "March"}))
	assert.Zero(t, writer.count())
}

func TestHandleEventReturnsWriterErrorForRequeue(t *testing.T) {
	w, writer, _ := newTestWorker(t)
	writer.err = errors.New("quota exceeded")
	evt := core.TransactionEvent{Kind: core.EventCreated, UserID: "u1", TransactionID: "t1", Month: "2025-03", Timestamp: testNow}

	err := w.HandleEvent(context.Background(), evt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")

	writer.err = nil
	require.NoError(t, w.HandleEvent(context.Background(), evt), "failed export is not remembered")
	assert.Equal(t, 1, writer.count())
}

func TestExportMonthRejectsInvalidMonth(t *testing.T) {
	w, _, _ := newTestWorker(t)
	_, err := w.ExportMonth(context.Background(), "u1", "2025-3")
	assert.ErrorIs(t, err, core.ErrInvalidMonthKey)
}
