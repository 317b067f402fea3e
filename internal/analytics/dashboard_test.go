package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestBuildDashboard(t *testing.T) {
	now := time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC)
	cats := []core.Category{
		{ID: "food", Name: "Food", Icon: "Coffee", MonthlyBudgets: map[core.MonthKey]core.Money{"2025-03": core.Cents(10000)}},
		{ID: "car", Name: "Car", Icon: "Car", MonthlyBudgets: map[core.MonthKey]core.Money{"2025-03": core.Cents(5000)}},
		{ID: "gift", Name: "Gifts", Icon: "Gift"},
	}
	txs := []core.Transaction{
		tx(core.Income, 300000, "2025-03-01", ""),
		tx(core.Expense, 8000, "2025-03-05", "food"),
		tx(core.Expense, 6000, "2025-03-18", "car"),
		tx(core.Expense, 1500, "2025-02-10", "food"),
		tx(core.Expense, 2500, "2025-03-19", "gift"),
	}

	d := BuildDashboard(DashboardInput{
		Transactions: txs,
		Categories:   cats,
		Currency:     "EUR",
		Period:       Monthly,
		Now:          now,
	})

	assert.Equal(t, core.MonthKey("2025-03"), d.Month)
	assert.Equal(t, "EUR", d.Currency)
	assert.Equal(t, Summary{Income: core.Cents(300000), Expenses: core.Cents(16500), Balance: core.Cents(283500)}, d.Summary)
	assert.Len(t, d.Last12Months, 12)
	assert.Len(t, d.Last30Days, 30)

	require.Len(t, d.Alerts, 2)
	assert.Equal(t, "car", d.Alerts[0].CategoryID)
	assert.Equal(t, SeverityCritical, d.Alerts[0].Severity)
	assert.Equal(t, "food", d.Alerts[1].CategoryID)
	assert.Equal(t, AlertCounts{Critical: 1, Warning: 1}, d.AlertCounts)

	require.Len(t, d.Categories, 3)
	assert.Equal(t, StatusWarning, d.Categories[0].Status)
	assert.Equal(t, core.Cents(8000), d.Categories[0].Spent)
	assert.Equal(t, 1, d.Categories[0].Transactions)
	assert.Equal(t, StatusOver, d.Categories[1].Status)
	assert.Equal(t, StatusUnset, d.Categories[2].Status)

	require.Len(t, d.Recent, 5)
	assert.Equal(t, "2025-03-19", d.Recent[0].Date.String())
	assert.Equal(t, "2025-02-10", d.Recent[4].Date.String())
}

func TestBuildDashboardAnchoredMonth(t *testing.T) {
	now := time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC)
	cats := []core.Category{
		{ID: "food", Name: "Food", MonthlyBudgets: map[core.MonthKey]core.Money{"2025-02": core.Cents(1000)}},
	}
	txs := []core.Transaction{
		tx(core.Expense, 1500, "2025-02-10", "food"),
		tx(core.Expense, 10, "2025-03-10", "food"),
	}
	d := BuildDashboard(DashboardInput{Transactions: txs, Categories: cats, Period: Monthly, Anchor: "2025-02", Now: now})

	assert.Equal(t, core.MonthKey("2025-02"), d.Month)
	assert.Equal(t, Window{Start: core.NewDate(2025, 2, 1), End: core.NewDate(2025, 2, 28)}, d.Window)
	assert.Equal(t, int64(1500), d.Summary.Expenses.Cents)
	require.Len(t, d.Alerts, 1)
	assert.Equal(t, SeverityCritical, d.Alerts[0].Severity)
}

func TestRecentLimitAndTieBreak(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var txs []core.Transaction
	for i := 0; i < 15; i++ {
		x := tx(core.Expense, int64(i+1), "2025-01-01", "")
		x.ID = string(rune('a' + i))
		x.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		txs = append(txs, x)
	}
	got := Recent(txs, 10)
	require.Len(t, got, 10)
	assert.Equal(t, "o", got[0].ID)
	assert.Equal(t, "a", txs[0].ID, "input order preserved")
}
