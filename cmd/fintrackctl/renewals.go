package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/core"
	"fintrack/internal/services"
)

func processRenewalsCmd() *cobra.Command {
	var asOf string
	cmd := &cobra.Command{
		Use:   "process-renewals",
		Short: "Book every due subscription renewal once",
		Long: `Book one expense per due renewal of every active subscription and
advance renewal dates, the same pass renewal-worker runs on its interval.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := time.Now().UTC()
			if asOf != "" {
				d, err := core.ParseDate(asOf)
				if err != nil {
					return fmt.Errorf("--as-of %q: %w", asOf, err)
				}
				now = time.Date(d.Year(), time.Month(d.Month()), d.Day(), 12, 0, 0, 0, time.UTC)
			}

			ctx := cmd.Context()
			finance, res, err := openFinance(ctx)
			if err != nil {
				return err
			}
			defer cli.CloseBackend(logger, res)

			booked, err := services.NewRenewalProcessor(res.Store, finance).ProcessDue(ctx, now)
			fmt.Fprintf(cmd.OutOrStdout(), "Booked %d renewals due by %s\n", booked, core.DateOf(now))
			return err
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "process renewals due by this date (YYYY-MM-DD, default today)")
	return cmd
}
