package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/coursecraft-api/api/swagger"
	"github.com/noah-isme/coursecraft-api/internal/handler"
	internalmiddleware "github.com/noah-isme/coursecraft-api/internal/middleware"
	"github.com/noah-isme/coursecraft-api/internal/repository"
	"github.com/noah-isme/coursecraft-api/internal/service"
	"github.com/noah-isme/coursecraft-api/pkg/cache"
	"github.com/noah-isme/coursecraft-api/pkg/config"
	"github.com/noah-isme/coursecraft-api/pkg/database"
	"github.com/noah-isme/coursecraft-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/coursecraft-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/coursecraft-api/pkg/middleware/requestid"
	"github.com/noah-isme/coursecraft-api/pkg/storage"
)

// @title CourseCraft Planning API
// @version 1.0.0
// @description Planning gateway for degree plans and term timetables.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect catalog database", zap.Error(err))
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var redisClient *redis.Client
	var cacheSvc *service.CacheService
	if cfg.Catalog.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("catalog cache disabled, redis unreachable", zap.Error(err))
		} else {
			defer redisClient.Close()
			cacheRepo := repository.NewCacheRepository(redisClient, "coursecraft", logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Catalog.CacheTTL, logr, true)
		}
	}

	catalogRepo := repository.NewCatalogRepository(db)
	catalogSvc := service.NewCatalogService(catalogRepo, cacheSvc, metricsSvc, cfg.Catalog.CacheTTL, logr)

	solver := service.NewSolverClient(cfg.Planner, metricsSvc, logr)

	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare export storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(exportStore, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr, nil, nil, nil)

	var dispatcher service.PlanningDispatcher = service.InlineDispatcher{}
	if cfg.Planner.Async {
		queue := service.NewQueueDispatcher(cfg.Planner.Workers, logr)
		queue.Start(ctx)
		defer queue.Stop()
		dispatcher = queue
	}

	planningSvc := service.NewPlanningService(solver, solver, catalogSvc, exportSvc, dispatcher, metricsSvc, service.PlanningServiceConfig{
		SessionTTL:   cfg.Session.TTL,
		MaxSolutions: cfg.Planner.MaxSolutions,
	}, logr)
	tokenSvc := service.NewSessionTokenService(cfg.Session.Secret, cfg.Session.TTL)

	go runEvery(ctx, cfg.Session.SweepInterval, func() {
		planningSvc.Sweep()
	})
	go runEvery(ctx, cfg.Exports.CleanupInterval, func() {
		removed, err := exportSvc.Cleanup(0)
		if err != nil {
			logr.Warn("export cleanup failed", zap.Error(err))
			return
		}
		if len(removed) > 0 {
			logr.Info("expired exports removed", zap.Int("count", len(removed)))
		}
	})

	checks := map[string]handler.ReadinessCheck{
		"database": db.PingContext,
		"planner":  solver.Ping,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	sessionHandler := handler.NewSessionHandler(planningSvc, tokenSvc)
	exportHandler := handler.NewExportHandler(planningSvc, exportSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/system/metrics", metricsHandler.System)

	api.GET("/programs", catalogHandler.ListPrograms)
	api.GET("/programs/:id", catalogHandler.GetProgram)
	api.GET("/courses", catalogHandler.ListCourses)
	api.GET("/courses/:code", catalogHandler.GetCourse)

	api.POST("/sessions", sessionHandler.Create)
	api.GET("/exports/:token", exportHandler.Download)

	session := api.Group("/session", internalmiddleware.Session(tokenSvc))
	session.GET("", sessionHandler.Get)
	session.DELETE("", sessionHandler.Reset)
	session.PUT("/program", sessionHandler.SelectProgram)
	session.PUT("/completed-courses", sessionHandler.SetCompletedCourses)
	session.POST("/completed-courses/:code/toggle", sessionHandler.ToggleCompletedCourse)
	session.POST("/degree-plan", sessionHandler.SubmitDegreePlan)
	session.GET("/degree-plan", sessionHandler.DegreePlan)
	session.POST("/timetables", sessionHandler.SubmitTimetable)
	session.GET("/timetables", sessionHandler.Timetables)
	session.PUT("/timetables/selection", sessionHandler.SelectTimetable)
	session.POST("/exports/plan", exportHandler.ExportPlan)
	session.POST("/exports/timetable", exportHandler.ExportTimetable)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "planner", cfg.Planner.BaseURL, "async", cfg.Planner.Async)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func runEvery(ctx context.Context, interval time.Duration, fn func()) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
