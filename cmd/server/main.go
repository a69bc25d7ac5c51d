package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/edcraft/mentoring-engine/internal/cache"
	"github.com/edcraft/mentoring-engine/internal/config"
	"github.com/edcraft/mentoring-engine/internal/handlers"
	"github.com/edcraft/mentoring-engine/internal/identity"
	"github.com/edcraft/mentoring-engine/internal/models"
	"github.com/edcraft/mentoring-engine/internal/repositories/postgres"
	"github.com/edcraft/mentoring-engine/internal/services"
	"github.com/edcraft/mentoring-engine/internal/utils"
	"github.com/edcraft/mentoring-engine/internal/worker"
	"github.com/edcraft/mentoring-engine/pkg"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	var logger utils.Logger
	if cfg.Environment == "production" {
		logger = utils.NewDefaultLogger()
	} else {
		logger = utils.NewDevelopmentLogger()
	}
	slogLogger := utils.ToSlogLogger(logger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}
	if err := db.AutoMigrate(
		&models.ContentNode{},
		&models.SubmissionRecord{},
		&models.AnonymousUserMap{},
		&models.Report{},
	); err != nil {
		logger.LogError(err, "Failed to run database migrations")
		os.Exit(1)
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.LogError(err, "Failed to connect to redis")
		os.Exit(1)
	}
	defer redisClient.Close()
	cacheService := cache.NewRedisCache(redisClient, slogLogger)

	repo := postgres.NewRepository(db)
	defer repo.Close()

	var casdoorClient *casdoorsdk.Client
	if cfg.CasdoorEndpoint != "" {
		casdoorClient = casdoorsdk.NewClient(
			cfg.CasdoorEndpoint,
			cfg.CasdoorClientID,
			cfg.CasdoorClientSecret,
			cfg.CasdoorCertificate,
			cfg.CasdoorOrganization,
			cfg.CasdoorApplication,
		)
	} else {
		logger.Warn("Casdoor endpoint not configured, usernames come from the local map only")
	}
	identityResolver := identity.NewCasdoorResolver(repo.User(), casdoorClient, cacheService, slogLogger)

	exportService := services.NewExportService(repo, identityResolver, slogLogger)
	projector := services.NewStateProjector(repo.Content(), slogLogger)

	eventCfg := config.LoadEventConfig()
	publisher, subscriber, err := eventCfg.CreateTransport(slogLogger)
	if err != nil {
		logger.LogError(err, "Failed to create event transport", "transport", eventCfg.Transport)
		os.Exit(1)
	}
	defer publisher.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exportWorker := worker.NewExportWorker(
		subscriber,
		exportService,
		cacheService,
		publisher,
		eventCfg.ExportRequestsTopic,
		slogLogger,
	)
	go func() {
		if err := exportWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.LogError(err, "Export worker stopped")
		}
	}()

	validator := utils.NewValidator()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))

	exportHandler := handlers.NewExportHandler(publisher, cacheService, exportService, validator, logger)
	stateHandler := handlers.NewStateHandler(repo.Content(), projector, logger)
	handlerManager := handlers.NewHandlerManager(exportHandler, stateHandler)
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.LogError(err, "Server failed")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.LogError(err, "Server shutdown failed")
	}
}
