// Package server boots the HTTP API: configuration, storage, event
// dispatch, background jobs, and the full use case wiring.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	allocationUsecases "github.com/trellis-inc/trellis/internal/application/allocation/usecases"
	bindingUsecases "github.com/trellis-inc/trellis/internal/application/binding/usecases"
	campaignUsecases "github.com/trellis-inc/trellis/internal/application/campaign/usecases"
	hierarchyUsecases "github.com/trellis-inc/trellis/internal/application/hierarchy/usecases"
	partnerUsecases "github.com/trellis-inc/trellis/internal/application/partner/usecases"
	"github.com/trellis-inc/trellis/internal/domain/shared/events"
	"github.com/trellis-inc/trellis/internal/infrastructure/auth"
	"github.com/trellis-inc/trellis/internal/infrastructure/cache"
	"github.com/trellis-inc/trellis/internal/infrastructure/config"
	"github.com/trellis-inc/trellis/internal/infrastructure/database"
	"github.com/trellis-inc/trellis/internal/infrastructure/email"
	"github.com/trellis-inc/trellis/internal/infrastructure/migration"
	"github.com/trellis-inc/trellis/internal/infrastructure/repository"
	"github.com/trellis-inc/trellis/internal/infrastructure/scheduler"
	httpRouter "github.com/trellis-inc/trellis/internal/interfaces/http"
	"github.com/trellis-inc/trellis/internal/interfaces/http/handlers"
	"github.com/trellis-inc/trellis/internal/interfaces/http/middleware"
	"github.com/trellis-inc/trellis/internal/shared/biztime"
	"github.com/trellis-inc/trellis/internal/shared/db"
	"github.com/trellis-inc/trellis/internal/shared/logger"
)

var (
	env         string
	autoMigrate bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Long:  `Start the Trellis HTTP server with the configured database, cache, and background jobs.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Run database migrations on startup (not recommended for production)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Server.Mode = mapEnvToGinMode(env)

	if err := logger.Init(&cfg.Logger, cfg.Server.Mode == "debug"); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := biztime.Init(""); err != nil {
		return fmt.Errorf("failed to initialize business timezone: %w", err)
	}

	logger.Info("starting server", "environment", env, "auto_migrate", autoMigrate)

	gin.SetMode(cfg.Server.Mode)
	gin.DefaultWriter = io.Discard
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, nuHandlers int) {}

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	if autoMigrate {
		if env == "production" {
			logger.Warn("auto-migration is enabled in production")
		}
		if err := migration.Run(database.Get()); err != nil {
			return fmt.Errorf("auto-migration failed: %w", err)
		}
	}

	dispatcher := events.NewInMemoryEventDispatcher(100)
	if err := dispatcher.Start(); err != nil {
		return fmt.Errorf("failed to start event dispatcher: %w", err)
	}
	defer func() {
		if err := dispatcher.Stop(); err != nil {
			logger.Error("failed to stop event dispatcher", "error", err)
		}
	}()

	log := logger.NewLogger()

	// Repositories and transaction manager
	gormDB := database.Get()
	txMgr := db.NewTransactionManager(gormDB)
	partnerRepo := repository.NewPartnerRepository(gormDB, log)
	campaignRepo := repository.NewCampaignRepository(gormDB, log)
	entryRepo := repository.NewLedgerEntryRepository(gormDB, log)
	codeRepo := repository.NewInvitationCodeRepository(gormDB, log)
	redemptionRepo := repository.NewRedemptionRepository(gormDB, log)

	// Optional Redis-backed summary cache
	var summaryCache hierarchyUsecases.SummaryCache
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		summaryCache = cache.NewRedisSummaryCache(redisClient, log)
		logger.Info("summary cache enabled", "addr", cfg.Redis.GetAddr())
	}

	// Optional email notifier
	if cfg.Email.Enabled && cfg.Email.AdminAddress != "" {
		notifier := email.NewNotifier(email.NewSMTPEmailService(email.SMTPConfig{
			Host:        cfg.Email.SMTPHost,
			Port:        cfg.Email.SMTPPort,
			Username:    cfg.Email.SMTPUsername,
			Password:    cfg.Email.SMTPPassword,
			FromAddress: cfg.Email.FromAddress,
		}), cfg.Email.AdminAddress, log)
		if err := notifier.Register(dispatcher); err != nil {
			return fmt.Errorf("failed to register email notifier: %w", err)
		}
		logger.Info("email notifier registered", "admin_address", cfg.Email.AdminAddress)
	}

	// Use cases
	grantRootUC := allocationUsecases.NewGrantRootUseCase(entryRepo, campaignRepo, partnerRepo, txMgr, dispatcher, log)
	allocateToChildUC := allocationUsecases.NewAllocateToChildUseCase(entryRepo, campaignRepo, partnerRepo, txMgr, dispatcher, log)
	revokeFromChildUC := allocationUsecases.NewRevokeFromChildUseCase(entryRepo, codeRepo, txMgr, dispatcher, log)
	consumeUC := allocationUsecases.NewConsumeUseCase(entryRepo, campaignRepo, codeRepo, redemptionRepo, txMgr, dispatcher, log)
	allocationHistoryUC := allocationUsecases.NewAllocationHistoryUseCase(entryRepo, partnerRepo, log)

	createCampaignUC := campaignUsecases.NewCreateCampaignUseCase(campaignRepo, partnerRepo, dispatcher, log)
	updateCampaignUC := campaignUsecases.NewUpdateCampaignUseCase(campaignRepo, entryRepo, txMgr, log)
	getCampaignUC := campaignUsecases.NewGetCampaignUseCase(campaignRepo, log)
	listCampaignsUC := campaignUsecases.NewListCampaignsUseCase(campaignRepo, partnerRepo, log)
	setCampaignStatusUC := campaignUsecases.NewSetCampaignStatusUseCase(campaignRepo, entryRepo, codeRepo, txMgr, dispatcher, log)
	expireCampaignsUC := campaignUsecases.NewExpireCampaignsUseCase(campaignRepo, setCampaignStatusUC, dispatcher, cfg.Campaign.ExpiringNoticeDays, log)

	activateCodeUC := bindingUsecases.NewActivateCodeUseCase(codeRepo, entryRepo, campaignRepo, partnerRepo, txMgr, dispatcher, log)
	getCodesByPartnerUC := bindingUsecases.NewGetCodesByPartnerUseCase(codeRepo, partnerRepo, log)
	markConversionUC := bindingUsecases.NewMarkConversionUseCase(redemptionRepo, log)

	subtreeUC := hierarchyUsecases.NewSubtreeUseCase(partnerRepo, log)
	performanceSummaryUC := hierarchyUsecases.NewPerformanceSummaryUseCase(partnerRepo, campaignRepo, redemptionRepo, summaryCache, log)
	quotaUtilizationUC := hierarchyUsecases.NewQuotaUtilizationUseCase(entryRepo, partnerRepo, log)

	createPartnerUC := partnerUsecases.NewCreatePartnerUseCase(partnerRepo, codeRepo, txMgr, log)
	getPartnerUC := partnerUsecases.NewGetPartnerUseCase(partnerRepo, log)
	listPartnersUC := partnerUsecases.NewListPartnersUseCase(partnerRepo, log)

	// Background jobs
	schedulerManager, err := scheduler.NewManager(log)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	if err := schedulerManager.RegisterCampaignExpiry(cfg.Campaign.ExpiryScanCron, expireCampaignsUC); err != nil {
		return fmt.Errorf("failed to register campaign expiry job: %w", err)
	}
	schedulerManager.Start()
	defer func() {
		if err := schedulerManager.Stop(); err != nil {
			logger.Error("failed to stop scheduler", "error", err)
		}
	}()

	// HTTP surface
	jwtService := auth.NewJWTService(cfg.Auth.JWT.Secret)
	router := httpRouter.NewRouter(
		handlers.NewPartnerHandler(createPartnerUC, getPartnerUC, listPartnersUC),
		handlers.NewCampaignHandler(createCampaignUC, updateCampaignUC, getCampaignUC, listCampaignsUC, setCampaignStatusUC, grantRootUC),
		handlers.NewAllocationHandler(allocateToChildUC, revokeFromChildUC, consumeUC, allocationHistoryUC, markConversionUC),
		handlers.NewBindingHandler(activateCodeUC, getCodesByPartnerUC),
		handlers.NewHierarchyHandler(subtreeUC, performanceSummaryUC, quotaUtilizationUC),
		middleware.NewAuthMiddleware(jwtService, log),
	)

	engine := gin.New()
	router.Setup(engine)

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "address", cfg.Server.GetAddr(), "mode", cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		return err
	}

	logger.Info("server exited gracefully")
	return nil
}

func mapEnvToGinMode(environment string) string {
	switch environment {
	case "production", "prod", "release":
		return "release"
	case "test", "testing":
		return "test"
	default:
		return "debug"
	}
}
