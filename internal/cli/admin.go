package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spec-kit/contractor-portal/internal/persistence"
	"github.com/spec-kit/contractor-portal/internal/repository"
	"github.com/spec-kit/contractor-portal/internal/service"
)

func newAdminCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Operator maintenance tasks",
	}

	var email string
	promote := &cobra.Command{
		Use:   "promote",
		Short: "Grant the ADMIN role to an existing account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" {
				return errors.New("--email is required")
			}
			ctx := cmd.Context()
			pg, err := persistence.NewPostgres(ctx, rt.cfg.Postgres, rt.logger)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer pg.Close()
			if pg.PoolHandle() == nil {
				return errors.New("POSTGRES_DSN is required")
			}

			pool := pg.PoolHandle()
			approvals := service.NewApprovalService(service.ApprovalDependencies{
				Store:  repository.NewStore(pool),
				Audit:  service.NewAuditService(repository.NewAuditRepository(pool), rt.logger),
				Logger: rt.logger,
			})
			user, err := approvals.PromoteAdmin(ctx, email)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s (%s)\n", user.Email, user.Role, user.Status)
			return nil
		},
	}
	promote.Flags().StringVar(&email, "email", "", "email address of the account to promote")

	cmd.AddCommand(promote)
	return cmd
}
