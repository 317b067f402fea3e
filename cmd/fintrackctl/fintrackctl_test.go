package main

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/currency"
)

func TestPrintSummary(t *testing.T) {
	d := analytics.Dashboard{
		Period:   analytics.Monthly,
		Month:    "2025-03",
		Window:   analytics.Window{Start: core.NewDate(2025, 3, 1), End: core.NewDate(2025, 3, 31)},
		Currency: "EUR",
		Summary: analytics.Summary{
			Income:   core.Cents(300000),
			Expenses: core.Cents(45000),
			Balance:  core.Cents(255000),
		},
		Categories: []analytics.CategoryView{
			{Name: "Food", Budget: core.Cents(50000), Spent: core.Cents(45000), Transactions: 4, Remaining: core.Cents(5000), Status: analytics.StatusWarning},
		},
		Alerts:      []analytics.Alert{{}},
		AlertCounts: analytics.AlertCounts{Warning: 1},
	}

	var out bytes.Buffer
	require.NoError(t, printSummary(&out, currency.Default, d))

	got := out.String()
	assert.Contains(t, got, "monthly (2025-03-01 to 2025-03-31)")
	assert.Contains(t, got, "€3000.00")
	assert.Contains(t, got, "€2550.00")
	assert.Contains(t, got, "Budgets for 2025-03")
	assert.Regexp(t, `Food\s+€500\.00\s+€450\.00\s+4\s+€50\.00\s+warning`, got)
	assert.Contains(t, got, "1 alerts (0 critical)")
}

func TestPrintSummaryWithoutCategories(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printSummary(&out, currency.Default, analytics.Dashboard{Period: analytics.Yearly, Currency: "USD"}))
	assert.NotContains(t, out.String(), "Budgets for")
	assert.Contains(t, out.String(), "$0.00")
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"import-ofx", "summary", "copy-budgets", "process-renewals", "issue-token", "export-report"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestRequiredFlags(t *testing.T) {
	tests := map[string][]string{
		"import-ofx":    {"user", "file"},
		"summary":       {"user"},
		"copy-budgets":  {"user", "month"},
		"issue-token":   {"user"},
		"export-report": {"user", "month"},
	}
	for name, flags := range tests {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err)
		for _, f := range flags {
			flag := cmd.Flags().Lookup(f)
			require.NotNil(t, flag, "%s --%s", name, f)
			assert.Equal(t, []string{"true"}, flag.Annotations[cobra.BashCompOneRequiredFlag], "%s --%s", name, f)
		}
	}
}
