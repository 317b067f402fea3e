package analytics

import "fintrack/internal/core"

// RollupOptions tunes which transactions count towards category spending.
type RollupOptions struct {
	// IncludeIncome also accumulates income transactions attributed to a
	// category. Off by default: spending is expenses only.
	IncludeIncome bool
}

// Rollup rebuilds MonthlySpending for every category from txs, counting
// expenses only. See RollupWith.
func Rollup(txs []core.Transaction, categories []core.Category) []core.Category {
	return RollupWith(txs, categories, RollupOptions{})
}

// RollupWith groups transactions by category id and then by month, and
// replaces each category's MonthlySpending with the result. Transactions with
// no category, or whose category is not in categories, are dropped. The input
// categories are left untouched; copies are returned.
func RollupWith(txs []core.Transaction, categories []core.Category, opts RollupOptions) []core.Category {
	spending := make(map[string]map[core.MonthKey]core.MonthSpending, len(categories))
	for _, c := range categories {
		spending[c.ID] = make(map[core.MonthKey]core.MonthSpending)
	}

	for _, tx := range txs {
		if tx.CategoryID == "" {
			continue
		}
		if tx.Type != core.Expense && !(opts.IncludeIncome && tx.Type == core.Income) {
			continue
		}
		byMonth, ok := spending[tx.CategoryID]
		if !ok {
			continue
		}
		m := tx.Month()
		acc := byMonth[m]
		acc.Spent = acc.Spent.Add(tx.Amount)
		acc.Transactions++
		byMonth[m] = acc
	}

	out := make([]core.Category, len(categories))
	for i, c := range categories {
		cp := c.Clone()
		cp.MonthlySpending = spending[c.ID]
		out[i] = cp
	}
	return out
}

// CategorySpent sums the expenses attributed to categoryID in month.
func CategorySpent(txs []core.Transaction, categoryID string, month core.MonthKey) core.Money {
	var spent core.Money
	for _, tx := range txs {
		if tx.Type == core.Expense && tx.CategoryID == categoryID && tx.Month() == month {
			spent = spent.Add(tx.Amount)
		}
	}
	return spent
}
