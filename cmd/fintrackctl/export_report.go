package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/core"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/worker"
)

func exportReportCmd() *cobra.Command {
	var user, month string
	cmd := &cobra.Command{
		Use:   "export-report",
		Short: "Write a user's monthly report to Google Sheets now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := core.ParseMonthKey(month)
			if err != nil {
				return fmt.Errorf("--month %q: %w", month, err)
			}
			if !cfg.ReportsEnabled() {
				return errors.New("GOOGLE_SPREADSHEET_ID is not set")
			}

			ctx := cmd.Context()
			sheets, err := gsheet.New(ctx, gsheet.Options{
				SpreadsheetID:   cfg.GoogleSpreadsheetID,
				CredentialsJSON: cfg.GoogleServiceAccountJSON,
				CredentialsFile: cfg.GoogleServiceAccountFile,
			})
			if err != nil {
				return err
			}

			finance, res, err := openFinance(ctx)
			if err != nil {
				return err
			}
			defer cli.CloseBackend(logger, res)

			ref, err := worker.NewReportWorker(finance, sheets).ExportMonth(ctx, user, m)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", ref)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user id")
	cmd.Flags().StringVar(&month, "month", "", "report month as YYYY-MM")
	markRequired(cmd, "user", "month")
	return cmd
}
