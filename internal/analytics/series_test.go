package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestLast12MonthsEmpty(t *testing.T) {
	now := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	points := Last12Months(nil, now)
	require.Len(t, points, 12)

	wantLabels := []string{"Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec", "Jan", "Feb", "Mar"}
	for i, p := range points {
		assert.Equal(t, wantLabels[i], p.Label)
		assert.True(t, p.Income.IsZero())
		assert.True(t, p.Expense.IsZero())
	}
	assert.Equal(t, core.MonthKey("2024-04"), points[0].Month)
	assert.Equal(t, core.MonthKey("2025-03"), points[11].Month)
}

func TestLast12MonthsSums(t *testing.T) {
	now := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		tx(core.Expense, 500, "2025-03-01", "c1"),
		tx(core.Income, 9000, "2025-03-31", ""),
		tx(core.Expense, 250, "2024-04-30", ""),
		tx(core.Expense, 999, "2024-03-31", ""), // thirteen months back
		tx(core.Income, 1, "2025-04-01", ""),    // future month
		tx(core.Expense, 100, "2025-01-10", ""),
		tx(core.Expense, 50, "2025-01-20", ""),
	}
	points := Last12Months(txs, now)
	require.Len(t, points, 12)

	assert.Equal(t, int64(250), points[0].Expense.Cents)
	assert.Equal(t, int64(150), points[9].Expense.Cents)
	assert.Equal(t, int64(500), points[11].Expense.Cents)
	assert.Equal(t, int64(9000), points[11].Income.Cents)

	var total int64
	for _, p := range points {
		total += p.Expense.Cents
	}
	assert.Equal(t, int64(900), total)
}

func TestLast30DaysEmpty(t *testing.T) {
	now := time.Date(2025, 3, 14, 22, 0, 0, 0, time.UTC)
	points := Last30Days(nil, now)
	require.Len(t, points, 30)
	assert.Equal(t, 13, points[0].Day) // 2025-02-13
	assert.Equal(t, "2025-02-13", points[0].Date.String())
	assert.Equal(t, 14, points[29].Day)
	for _, p := range points {
		assert.True(t, p.Expense.IsZero())
	}
}

func TestLast30DaysExpensesOnly(t *testing.T) {
	now := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		tx(core.Expense, 300, "2025-03-14", ""),
		tx(core.Expense, 200, "2025-03-14", ""),
		tx(core.Income, 10000, "2025-03-14", ""),
		tx(core.Expense, 70, "2025-02-13", ""),
		tx(core.Expense, 80, "2025-02-12", ""), // 31 days back
	}
	points := Last30Days(txs, now)
	assert.Equal(t, int64(500), points[29].Expense.Cents)
	assert.Equal(t, int64(70), points[0].Expense.Cents)

	var total int64
	for _, p := range points {
		total += p.Expense.Cents
	}
	assert.Equal(t, int64(570), total)
}

func TestSeriesToleratesUnorderedInput(t *testing.T) {
	now := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	a := []core.Transaction{
		tx(core.Expense, 1, "2025-03-01", ""),
		tx(core.Expense, 2, "2024-12-01", ""),
		tx(core.Expense, 3, "2025-03-10", ""),
	}
	b := []core.Transaction{a[2], a[0], a[1]}
	assert.Equal(t, Last12Months(a, now), Last12Months(b, now))
	assert.Equal(t, Last30Days(a, now), Last30Days(b, now))
}
