package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestRollupSingleTransaction(t *testing.T) {
	cats := []core.Category{{ID: "c1", Name: "Food"}}
	out := Rollup([]core.Transaction{tx(core.Expense, 5000, "2025-03-10", "c1")}, cats)

	require.Len(t, out, 1)
	assert.Equal(t, map[core.MonthKey]core.MonthSpending{
		"2025-03": {Spent: core.Cents(5000), Transactions: 1},
	}, out[0].MonthlySpending)
}

func TestRollupGroupsByCategoryAndMonth(t *testing.T) {
	cats := []core.Category{{ID: "c1"}, {ID: "c2"}, {ID: "c3"}}
	txs := []core.Transaction{
		tx(core.Expense, 100, "2025-03-01", "c1"),
		tx(core.Expense, 200, "2025-03-31", "c1"),
		tx(core.Expense, 300, "2025-04-01", "c1"),
		tx(core.Expense, 400, "2025-03-15", "c2"),
		tx(core.Expense, 999, "2025-03-15", "ghost"),
		tx(core.Expense, 999, "2025-03-15", ""),
	}
	out := Rollup(txs, cats)

	assert.Equal(t, core.MonthSpending{Spent: core.Cents(300), Transactions: 2}, out[0].MonthlySpending["2025-03"])
	assert.Equal(t, core.MonthSpending{Spent: core.Cents(300), Transactions: 1}, out[0].MonthlySpending["2025-04"])
	assert.Equal(t, core.MonthSpending{Spent: core.Cents(400), Transactions: 1}, out[1].MonthlySpending["2025-03"])
	assert.NotNil(t, out[2].MonthlySpending)
	assert.Empty(t, out[2].MonthlySpending)

	var total int64
	for _, c := range out {
		for _, s := range c.MonthlySpending {
			total += s.Spent.Cents
		}
	}
	assert.Equal(t, int64(1000), total, "unmatched and uncategorized transactions are dropped")
}

func TestRollupDiscardsStoredSpending(t *testing.T) {
	cats := []core.Category{{
		ID:              "c1",
		MonthlyBudgets:  map[core.MonthKey]core.Money{"2025-01": core.Cents(1000)},
		MonthlySpending: map[core.MonthKey]core.MonthSpending{"2024-12": {Spent: core.Cents(42), Transactions: 7}},
	}}
	out := Rollup([]core.Transaction{tx(core.Expense, 10, "2025-01-02", "c1")}, cats)

	assert.NotContains(t, out[0].MonthlySpending, core.MonthKey("2024-12"))
	assert.Equal(t, core.Cents(1000), out[0].MonthlyBudgets["2025-01"], "budgets survive the rebuild")
	assert.Equal(t, core.MonthSpending{Spent: core.Cents(42), Transactions: 7}, cats[0].MonthlySpending["2024-12"], "input untouched")
}

func TestRollupIgnoresIncomeByDefault(t *testing.T) {
	cats := []core.Category{{ID: "c1"}}
	txs := []core.Transaction{
		tx(core.Expense, 100, "2025-03-01", "c1"),
		tx(core.Income, 5000, "2025-03-02", "c1"),
	}

	out := Rollup(txs, cats)
	assert.Equal(t, core.MonthSpending{Spent: core.Cents(100), Transactions: 1}, out[0].MonthlySpending["2025-03"])

	out = RollupWith(txs, cats, RollupOptions{IncludeIncome: true})
	assert.Equal(t, core.MonthSpending{Spent: core.Cents(5100), Transactions: 2}, out[0].MonthlySpending["2025-03"])
}

func TestRollupMatchesCategorySpent(t *testing.T) {
	cats := []core.Category{{ID: "c1"}, {ID: "c2"}}
	txs := []core.Transaction{
		tx(core.Expense, 120, "2025-05-03", "c1"),
		tx(core.Expense, 80, "2025-05-20", "c1"),
		tx(core.Income, 1000, "2025-05-20", "c1"),
		tx(core.Expense, 15, "2025-05-20", "c2"),
		tx(core.Expense, 7, "2025-06-01", "c2"),
	}
	out := Rollup(txs, cats)
	for _, c := range out {
		for m, s := range c.MonthlySpending {
			assert.Equal(t, CategorySpent(txs, c.ID, m), s.Spent, "%s %s", c.ID, m)
		}
	}
}
