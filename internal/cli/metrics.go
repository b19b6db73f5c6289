// SPDX-License-Identifier: AGPL-3.0-only
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"syscall"

	"github.com/SejalWadi/Meta-Analytics-Pro/internal/analytics"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/api/handlers"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/cache"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/config"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/fetcher"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/metrics"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type metricsFlags struct {
	id          string
	name        string
	token       string
	promptToken bool
	days        int
	accounts    []string
}

func (a *app) metricsCmd() *cobra.Command {
	var f metricsFlags
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Print the metrics view for a user as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if f.token != "" && f.promptToken {
				return errors.New("--token and --prompt-token are mutually exclusive")
			}
			if f.promptToken {
				fmt.Fprint(cmd.ErrOrStderr(), "Graph access token: ")
				raw, err := term.ReadPassword(int(syscall.Stdin))
				fmt.Fprintln(cmd.ErrOrStderr())
				if err != nil {
					return fmt.Errorf("reading token: %w", err)
				}
				f.token = string(raw)
			}
			return a.printMetrics(cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.id, "id", "", "user id used to seed demo data")
	cmd.Flags().StringVar(&f.name, "name", "", "user name used to seed demo data")
	cmd.Flags().StringVar(&f.token, "token", "", "Graph API access token")
	cmd.Flags().BoolVar(&f.promptToken, "prompt-token", false, "read the Graph API token from the terminal")
	cmd.Flags().IntVar(&f.days, "days", 0, "date range in days")
	cmd.Flags().StringSliceVar(&f.accounts, "accounts", nil, "limit to these page or Instagram account ids")
	return cmd
}

func (a *app) printMetrics(cmd *cobra.Command, f metricsFlags) error {
	appCfg := config.NewAppConfig(a.cfg)
	collector := fetcher.NewCollector(graphClient(a.cfg))
	svc := analytics.NewService(collector, handlers.NewAggregator(appCfg), cache.Noop{}, 0)

	days := f.days
	if days <= 0 {
		days = a.cfg.Metrics.DefaultRangeDays
	}

	view := svc.Metrics(cmd.Context(), analytics.Request{
		Identity: metrics.Identity{ID: f.id, Name: f.name},
		Token:    f.token,
		Accounts: f.accounts,
		Days:     days,
	})

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}
