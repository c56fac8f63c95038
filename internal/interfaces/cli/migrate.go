package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/turtacn/geometax/internal/infrastructure/database/postgres"
)

// NewMigrateCmd creates the migrate command group: schema migrations against
// the configured database.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			cfg := cliCtx.Config.Database
			if err := postgres.RunMigrations(cfg.DSN(), cfg.MigrationsPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			cfg := cliCtx.Config.Database
			if err := postgres.RollbackMigration(cfg.DSN(), cfg.MigrationsPath, steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the current schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			cfg := cliCtx.Config.Database
			version, dirty, err := postgres.MigrationStatus(cfg.DSN(), cfg.MigrationsPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version: %d  dirty: %t\n", version, dirty)
			return nil
		},
	}

	cmd.AddCommand(up, down, status)
	return cmd
}
