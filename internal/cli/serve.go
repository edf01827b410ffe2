package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/contractor-portal/internal/api/http"
	"github.com/spec-kit/contractor-portal/internal/api/http/handlers"
	"github.com/spec-kit/contractor-portal/internal/auth"
	"github.com/spec-kit/contractor-portal/internal/events"
	"github.com/spec-kit/contractor-portal/internal/notify"
	"github.com/spec-kit/contractor-portal/internal/observability"
	"github.com/spec-kit/contractor-portal/internal/persistence"
	"github.com/spec-kit/contractor-portal/internal/repository"
	"github.com/spec-kit/contractor-portal/internal/service"
)

func newServeCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), rt)
		},
	}
}

func serve(ctx context.Context, rt *runtime) error {
	cfg, logger := rt.cfg, rt.logger

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()
	if pg.PoolHandle() == nil {
		return fmt.Errorf("POSTGRES_DSN is required")
	}

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(cfg.Postgres.DSN, logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	sender, closeSender, err := notify.New(cfg.Notification, logger)
	if err != nil {
		return fmt.Errorf("init notifications: %w", err)
	}
	defer closeSender()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	pool := pg.PoolHandle()
	store := repository.NewStore(pool)
	dispatcher := events.NewInMemoryDispatcher()
	service.NewNotificationService(dispatcher, sender, logger, cfg.Notification).RegisterHandlers()
	audit := service.NewAuditService(repository.NewAuditRepository(pool), logger)

	deps := service.ApprovalDependencies{
		Store:      store,
		Audit:      audit,
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
	}
	approvals := service.NewApprovalService(deps)
	staging := service.NewStagingService(deps)
	dedup := service.NewDedupService(store, logger, metrics)
	signup := service.NewSignUpService(*cfg, service.SignUpDependencies{
		Store:      store,
		Tokens:     persistence.NewVerificationTokens(redis.Client),
		Dedup:      dedup,
		Audit:      audit,
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
	})
	authMiddleware := auth.NewAuthMiddleware(signup.TokenManager(), repository.NewUserRepository(pool))

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Users:          handlers.NewUsersHandler(signup),
		Approvals:      handlers.NewApprovalsHandler(approvals, staging),
		Profile:        handlers.NewProfileHandler(service.NewProfileService(store, logger)),
		AuthMiddleware: authMiddleware,
		Gatherer:       registry,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		errCh <- app.Listen(cfg.App.Addr())
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("fiber listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	return app.ShutdownWithTimeout(10 * time.Second)
}
