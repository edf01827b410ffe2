package cli

import (
	"github.com/spf13/cobra"

	"github.com/spec-kit/contractor-portal/internal/persistence"
)

func newMigrateCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all up migrations",
		RunE: func(*cobra.Command, []string) error {
			return persistence.RunMigrations(rt.cfg.Postgres.DSN, rt.logger)
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Revert migrations",
		RunE: func(*cobra.Command, []string) error {
			return persistence.RollbackMigrations(rt.cfg.Postgres.DSN, steps, rt.logger)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to revert (0 reverts all)")

	cmd.AddCommand(up, down)
	return cmd
}
