package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/core"
)

func copyBudgetsCmd() *cobra.Command {
	var user, month string
	cmd := &cobra.Command{
		Use:   "copy-budgets",
		Short: "Copy last month's category budgets into a month",
		Long: `Copy every positive category budget of the month before --month into
--month, overwriting budgets already set there. Categories are copied
independently; failures are reported without undoing the rest.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := core.ParseMonthKey(month)
			if err != nil {
				return fmt.Errorf("--month %q: %w", month, err)
			}

			ctx := cmd.Context()
			finance, res, err := openFinance(ctx)
			if err != nil {
				return err
			}
			defer cli.CloseBackend(logger, res)

			result, err := finance.CopyBudgetsFromPreviousMonth(ctx, user, m)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Copied %d budgets from %s to %s (%d skipped)\n",
				len(result.Copied), result.From, result.To, len(result.Skipped))
			if len(result.Failed) > 0 {
				fmt.Fprintf(out, "Failed: %s\n", strings.Join(result.Failed, ", "))
			}
			return err
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user id")
	cmd.Flags().StringVar(&month, "month", "", "target month as YYYY-MM")
	markRequired(cmd, "user", "month")
	return cmd
}
