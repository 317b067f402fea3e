// Command fintrackctl runs administrative tasks against a fintrack store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fintrack/internal/auth"
	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

var (
	cfgFile string
	v       = config.NewViper()
	cfg     *config.Config
	logger  *log.Logger

	rootCmd = &cobra.Command{
		Use:   "fintrackctl",
		Short: "Administer fintrack data from the command line",
		Long: `fintrackctl imports statements, prints summaries and runs the
maintenance jobs of a fintrack deployment directly against its store.

Settings come from the environment (and .env) like the server, optionally
layered with a config file and the flags below.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	flags.String("backend", "", "data backend (memory, sqlite, mongo)")
	flags.String("sqlite-path", "", "SQLite database file")
	flags.String("log-level", "", "log level (debug, info, warn, error)")

	_ = v.BindPFlag("DATA_BACKEND", flags.Lookup("backend"))
	_ = v.BindPFlag("SQLITE_DB_PATH", flags.Lookup("sqlite-path"))
	_ = v.BindPFlag("LOG_LEVEL", flags.Lookup("log-level"))

	rootCmd.AddCommand(importOFXCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(copyBudgetsCmd())
	rootCmd.AddCommand(processRenewalsCmd())
	rootCmd.AddCommand(issueTokenCmd())
	rootCmd.AddCommand(exportReportCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	cli.LoadEnvFile()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}

	cfg = config.FromViper(v)
	if err := cfg.Validate(); err != nil {
		return err
	}

	// stdout carries command output
	logger = log.New(log.Config{Level: cfg.SlogLevel(), Output: os.Stderr})
	log.SetDefault(logger)
	return nil
}

// openFinance opens the configured backend and a service over it. The caller
// must close the returned backend.
func openFinance(ctx context.Context) (*services.FinanceService, *backend.BackendResult, error) {
	res, err := cli.OpenBackend(ctx, logger, cfg)
	if err != nil {
		return nil, nil, err
	}
	opts := []services.Option{services.WithEvents(res.Events)}
	if cfg.AuthSecret != "" {
		opts = append(opts, services.WithSigner(auth.NewSigner(cfg.AuthSecret), cfg.ShareTokenTTL))
	}
	return services.NewFinanceService(res.Store, opts...), res, nil
}

func markRequired(cmd *cobra.Command, names ...string) {
	for _, n := range names {
		_ = cmd.MarkFlagRequired(n)
	}
}
