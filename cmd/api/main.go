package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/edudata/completion-report-api/api/swagger"
	"github.com/edudata/completion-report-api/internal/handler"
	"github.com/edudata/completion-report-api/internal/middleware"
	"github.com/edudata/completion-report-api/internal/models"
	"github.com/edudata/completion-report-api/internal/repository"
	"github.com/edudata/completion-report-api/internal/service"
	"github.com/edudata/completion-report-api/pkg/cache"
	"github.com/edudata/completion-report-api/pkg/config"
	"github.com/edudata/completion-report-api/pkg/database"
	"github.com/edudata/completion-report-api/pkg/formula"
	"github.com/edudata/completion-report-api/pkg/jobs"
	"github.com/edudata/completion-report-api/pkg/logger"
	corsmiddleware "github.com/edudata/completion-report-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edudata/completion-report-api/pkg/middleware/requestid"
	"github.com/edudata/completion-report-api/pkg/storage"
)

// @title Completion Report API
// @version 1.0.0
// @description Module completion reporting and export service
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	timezone, err := time.LoadLocation(cfg.Report.Timezone)
	if err != nil {
		logr.Sugar().Warnw("invalid report timezone, falling back to UTC", "timezone", cfg.Report.Timezone)
		timezone = time.UTC
	}

	fileStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	userRepo := repository.NewUserRepository(db)
	filterRepo := repository.NewFilterRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	completionRepo := repository.NewCompletionRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)

	metricsService := service.NewMetricsService()
	authService := service.NewAuthService(userRepo, cfg.JWT, logr)
	filterService := service.NewFilterService(filterRepo, catalogRepo, logr)
	settingsService := service.NewSettingsService(catalogRepo, redisClient, cfg.Report.SettingsCacheTTL, logr)

	aggregator := service.NewAggregator(timezone)
	converter := service.NewMetadataTotalsConverter(formula.NewEvaluator(), logr)
	reportService := service.NewReportService(completionRepo, settingsService, aggregator, converter, logr).
		WithMetrics(metricsService)

	exportService := service.NewExportService(reportService, fileStore, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.ResultTTL,
	}, timezone, logr)

	worker := service.NewExportWorker(exportJobRepo, exportService, cfg.Exports.WorkerRetries, logr).
		WithMetrics(metricsService)
	queue := jobs.NewQueue("exports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	})

	exportJobService := service.NewExportJobService(exportJobRepo, queue, fileStore, signer, service.ExportJobConfig{
		ResultTTL:       cfg.Exports.ResultTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
		MaxRetries:      cfg.Exports.WorkerRetries,
	}, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queue.Start(ctx)
	defer queue.Stop()
	exportJobService.RecoverPendingJobs(ctx)
	exportJobService.StartCleanup(ctx)

	authHandler := handler.NewAuthHandler(authService)
	filterHandler := handler.NewFilterHandler(filterService)
	reportHandler := handler.NewReportHandler(reportService, filterService)
	exportHandler := handler.NewExportHandler(exportService, exportJobService)
	settingsHandler := handler.NewSettingsHandler(settingsService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/auth/login", authHandler.Login)

		authed := api.Group("")
		authed.Use(middleware.JWT(authService))

		authed.GET("/auth/me", authHandler.Me)

		managers := authed.Group("")
		managers.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleManager))
		{
			managers.GET("/filters", filterHandler.List)
			managers.POST("/filters", filterHandler.Create)
			managers.GET("/filters/search/users", filterHandler.SearchUsers)
			managers.GET("/filters/search/cohorts", filterHandler.SearchCohorts)
			managers.GET("/filters/search/courses", filterHandler.SearchCourses)
			managers.GET("/filters/:id", filterHandler.Get)
			managers.PUT("/filters/:id", filterHandler.Update)
			managers.DELETE("/filters/:id", filterHandler.Delete)
			managers.POST("/filters/:id/duplicate", filterHandler.Duplicate)

			managers.POST("/reports/quick", reportHandler.Quick)
			managers.GET("/reports/filters/:id", reportHandler.ByFilter)

			managers.POST("/exports", exportHandler.Direct)
			managers.POST("/exports/jobs", exportHandler.CreateJob)
			managers.GET("/exports/jobs/:id", exportHandler.JobStatus)

			managers.GET("/settings", settingsHandler.Get)
			managers.GET("/settings/module-types", settingsHandler.ModuleTypes)
		}

		admins := authed.Group("")
		admins.Use(middleware.RequireRoles(models.RoleAdmin))
		admins.POST("/settings/refresh", settingsHandler.Refresh)

		authed.GET("/users/:id/report",
			middleware.RBAC(string(models.RoleAdmin), string(models.RoleManager), "SELF"),
			reportHandler.Personal)

		// Token-authorized, the signed URL is the credential.
		api.GET("/exports/download", exportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
