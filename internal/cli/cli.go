// SPDX-License-Identifier: AGPL-3.0-only

// Package cli is the meta-analytics command line.
package cli

import (
	"os"

	"github.com/SejalWadi/Meta-Analytics-Pro/internal/config"
	"github.com/SejalWadi/Meta-Analytics-Pro/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	v   *viper.Viper
	cfg config.Config
}

func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:          "meta-analytics",
		Short:        "Facebook and Instagram analytics API",
		Version:      config.AppVersion,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.v)
			if err != nil {
				return err
			}
			a.cfg = cfg
			logger.Initialize(cfg.Server.LogLevel, cfg.Server.PrettyLogs)
			return nil
		},
	}

	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	_ = a.v.BindPFlag("server.log_level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(a.serveCmd(), a.migrateCmd(), a.metricsCmd())
	return root
}
