package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fintrack/internal/analytics"
	"fintrack/internal/cli"
	"fintrack/internal/core"
	"fintrack/internal/currency"
)

func summaryCmd() *cobra.Command {
	var user, period, month string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print a user's income, expenses and budgets for a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := analytics.ParsePeriod(period)
			if err != nil {
				return err
			}
			var anchor core.MonthKey
			if month != "" {
				if anchor, err = core.ParseMonthKey(month); err != nil {
					return fmt.Errorf("--month %q: %w", month, err)
				}
			}

			ctx := cmd.Context()
			finance, res, err := openFinance(ctx)
			if err != nil {
				return err
			}
			defer cli.CloseBackend(logger, res)

			d, err := finance.Dashboard(ctx, user, p, anchor)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(d)
			}
			return printSummary(cmd.OutOrStdout(), finance.Currencies(), d)
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user id")
	cmd.Flags().StringVar(&period, "period", string(analytics.Monthly), "daily, weekly, monthly or yearly")
	cmd.Flags().StringVar(&month, "month", "", "anchor month as YYYY-MM (default: current period)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full dashboard as JSON")
	markRequired(cmd, "user")
	return cmd
}

func printSummary(out io.Writer, currencies *currency.Table, d analytics.Dashboard) error {
	money := func(m core.Money) string { return currencies.Format(m, d.Currency) }

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Period\t%s (%s to %s)\n", d.Period, d.Window.Start, d.Window.End)
	fmt.Fprintf(tw, "Income\t%s\n", money(d.Summary.Income))
	fmt.Fprintf(tw, "Expenses\t%s\n", money(d.Summary.Expenses))
	fmt.Fprintf(tw, "Balance\t%s\n", money(d.Summary.Balance))
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(d.Categories) == 0 {
		return nil
	}

	fmt.Fprintf(out, "\nBudgets for %s\n", d.Month)
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tBUDGET\tSPENT\tTXNS\tREMAINING\tSTATUS")
	for _, c := range d.Categories {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			c.Name, money(c.Budget), money(c.Spent), c.Transactions, money(c.Remaining), c.Status)
	}
	if len(d.Alerts) > 0 {
		fmt.Fprintf(tw, "\n%d alerts (%d critical)\n", len(d.Alerts), d.AlertCounts.Critical)
	}
	return tw.Flush()
}
