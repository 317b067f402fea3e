package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/auth"
)

func issueTokenCmd() *cobra.Command {
	var user string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "issue-token",
		Short: "Sign an API bearer token for a user",
		Long: `Sign a bearer token with AUTH_SECRET for local development and
scripting. Production tokens come from the identity provider.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.AuthSecret == "" {
				return errors.New("AUTH_SECRET is not set")
			}
			token, err := auth.NewSigner(cfg.AuthSecret).IssueUserToken(user, ttl)
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user id placed in the sub claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	markRequired(cmd, "user")
	return cmd
}
