package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/promociones-residenciales/reservas/backend/service"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Database.Driver == "memory" {
			fmt.Fprintln(cmd.OutOrStdout(), "memory store: nothing to migrate")
			return nil
		}
		store, err := service.OpenSQLStore(&cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer store.Close()

		if err := store.Migrate(); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s schema up to date\n", cfg.Database.Driver)
		return nil
	},
}
