package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/importer/ofx"
)

func importOFXCmd() *cobra.Command {
	var user, file, category string
	cmd := &cobra.Command{
		Use:   "import-ofx",
		Short: "Import transactions from an OFX/QFX statement",
		Long: `Import every transaction of an OFX or QFX statement for one user.
Credits become income and debits become expenses.

Examples:
  fintrackctl import-ofx --user u1 --file ~/Downloads/checking_2025_03.qfx
  fintrackctl import-ofx --user u1 --file card.ofx --category Groceries`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open statement: %w", err)
			}
			defer f.Close()

			entries, err := ofx.Parse(ctx, f)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No transactions found in %s\n", filepath.Base(file))
				return nil
			}

			finance, res, err := openFinance(ctx)
			if err != nil {
				return err
			}
			defer cli.CloseBackend(logger, res)

			bar := progressbar.NewOptions(len(entries),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("Importing transactions..."),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(cmd.ErrOrStderr())
				}),
			)
			result, err := finance.ImportEntries(ctx, user, entries, category, func() {
				_ = bar.Add(1)
			})
			if result.Imported == 0 && result.Failed == 0 && err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d transactions from %s\n",
				result.Imported, len(entries), filepath.Base(file))
			if err != nil {
				return fmt.Errorf("%d transactions failed: %w", result.Failed, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user id to import for")
	cmd.Flags().StringVar(&file, "file", "", "OFX or QFX statement")
	cmd.Flags().StringVar(&category, "category", "", "category name for imported expenses")
	markRequired(cmd, "user", "file")
	return cmd
}
