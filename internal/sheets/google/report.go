package google

import (
	"strings"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
)

// reportWidth is the number of columns in the widest report row.
const reportWidth = 6

var categoryHeader = []any{"Category", "Budget", "Spent", "Transactions", "Remaining", "Status"}

func reportSheetName(month core.MonthKey) string {
	return string(month) + " Report"
}

// reportRows lays out a summary block followed by one row per category.
// Amounts are written as plain numbers so the sheet can format them.
func reportRows(userID string, d analytics.Dashboard) [][]any {
	rows := [][]any{
		{"Report", string(d.Month), "User", userID, "Currency", d.Currency},
		{"Generated", d.GeneratedAt.UTC().Format(time.RFC3339)},
		{},
		{"Income", "Expenses", "Balance"},
		{d.Summary.Income.Float(), d.Summary.Expenses.Float(), d.Summary.Balance.Float()},
		{},
		categoryHeader,
	}
	for _, c := range d.Categories {
		rows = append(rows, []any{
			c.Name,
			c.Budget.Float(),
			c.Spent.Float(),
			c.Transactions,
			c.Remaining.Float(),
			string(c.Status),
		})
	}
	return rows
}

func hasSheet(titles []string, title string) bool {
	for _, t := range titles {
		if strings.EqualFold(strings.TrimSpace(t), title) {
			return true
		}
	}
	return false
}

// columnLetter converts a 1-based column index to its A1 letter form.
func columnLetter(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}
