// SPDX-License-Identifier: AGPL-3.0-only
package cli

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/SejalWadi/Meta-Analytics-Pro/internal/database"
	"github.com/spf13/cobra"
)

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dsn := a.cfg.PostgresDSN()
			if dsn == "" {
				return errors.New("database is not configured: set POSTGRES_DB, POSTGRES_USER and POSTGRES_PASSWORD")
			}

			db, err := sql.Open("postgres", dsn)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()

			version, err := database.Migrate(db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database schema at version %d\n", version)
			return nil
		},
	}
}
