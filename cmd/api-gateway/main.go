package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/skillmatrix-api/api/swagger"
	"github.com/noah-isme/skillmatrix-api/internal/handler"
	"github.com/noah-isme/skillmatrix-api/internal/middleware"
	"github.com/noah-isme/skillmatrix-api/internal/repository"
	"github.com/noah-isme/skillmatrix-api/internal/service"
	"github.com/noah-isme/skillmatrix-api/pkg/cache"
	"github.com/noah-isme/skillmatrix-api/pkg/config"
	"github.com/noah-isme/skillmatrix-api/pkg/database"
	"github.com/noah-isme/skillmatrix-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/skillmatrix-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/skillmatrix-api/pkg/middleware/requestid"
	"github.com/noah-isme/skillmatrix-api/pkg/storage"
)

const shutdownTimeout = 15 * time.Second

// @title Skill Matrix API
// @version 1.0.0
// @description Workforce qualification tracking with revisioned skills and recertification
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	metrics := service.NewMetricsService()

	// Redis is optional: without it the caches stay disabled.
	var cacheRepo service.CacheRepository
	checks := map[string]handler.Pinger{"postgres": db}
	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
	} else {
		defer func(client *redis.Client) { _ = client.Close() }(redisClient)
		cacheRepo = repository.NewCacheRepository(redisClient, cfg.Redis.KeyPrefix, logr)
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Compliance.CacheTTL, logr, cfg.Compliance.CacheEnabled)

	files, err := storage.NewLocalStorage(cfg.Uploads.Dir, cfg.Uploads.BaseURL)
	if err != nil {
		logr.Fatal("uploads directory unavailable", zap.Error(err))
	}

	validate := validator.New()

	employeeRepo := repository.NewEmployeeRepository(db)
	skillRepo := repository.NewSkillRepository(db)
	recordRepo := repository.NewTrainingRecordRepository(db)
	assignmentRepo := repository.NewTrainingAssignmentRepository(db)
	uploadRepo := repository.NewUploadLogRepository(db)
	userRepo := repository.NewUserRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, uploadRepo, validate, logr)
	employeeSvc := service.NewEmployeeService(service.EmployeeServiceParams{
		Repo:      employeeRepo,
		Records:   recordRepo,
		Storage:   files,
		Audit:     userRepo,
		Cache:     cacheSvc,
		Validator: validate,
		Logger:    logr,
	})
	retrainingSvc := service.NewRetrainingService(skillRepo, recordRepo, assignmentRepo, metrics, logr, cfg.Compliance.RetrainingTargetLevel)
	skillSvc := service.NewSkillService(service.SkillServiceParams{
		Repo:      skillRepo,
		Cascade:   retrainingSvc,
		Storage:   files,
		Audit:     userRepo,
		Cache:     cacheSvc,
		Metrics:   metrics,
		Validator: validate,
		Logger:    logr,
	})
	trainingSvc := service.NewTrainingService(service.TrainingServiceParams{
		Records:   recordRepo,
		Employees: employeeRepo,
		Skills:    skillRepo,
		Storage:   files,
		Audit:     userRepo,
		Cache:     cacheSvc,
		Validator: validate,
		Logger:    logr,
	})
	assignmentSvc := service.NewAssignmentService(assignmentRepo, employeeRepo, skillRepo, userRepo, validate, logr)
	importSvc := service.NewImportService(employeeSvc, skillSvc, uploadRepo, userRepo, metrics, logr, cfg.Import.DetailLimit)
	complianceSvc := service.NewComplianceService(recordRepo, cacheSvc, cfg.Compliance.CacheTTL, logr)
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Employees:   employeeRepo,
		Skills:      skillRepo,
		Records:     recordRepo,
		Users:       userRepo,
		Assignments: assignmentRepo,
		Cache:       cacheSvc,
		CacheTTL:    cfg.Dashboard.CacheTTL,
		Logger:      logr,
	})
	exportSvc := service.NewExportService(service.ExportServiceParams{
		Employees: employeeRepo,
		Skills:    skillRepo,
		Records:   recordRepo,
		Profiles:  employeeSvc,
		Logger:    logr,
	})

	maxUpload := cfg.Uploads.MaxFileSizeBytes
	handlers := handler.Handlers{
		Auth:        handler.NewAuthHandler(authSvc),
		Employees:   handler.NewEmployeeHandler(employeeSvc, maxUpload),
		Skills:      handler.NewSkillHandler(skillSvc, maxUpload),
		Training:    handler.NewTrainingHandler(trainingSvc, maxUpload),
		Assignments: handler.NewAssignmentHandler(assignmentSvc),
		Imports:     handler.NewImportHandler(importSvc, maxUpload),
		Compliance:  handler.NewComplianceHandler(complianceSvc),
		Exports:     handler.NewExportHandler(exportSvc),
		Dashboard:   handler.NewDashboardHandler(dashboardSvc),
		Users:       handler.NewUserHandler(userSvc),
		Metrics:     handler.NewMetricsHandler(metrics, checks),
	}

	r := gin.New()
	r.MaxMultipartMemory = maxUpload
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics, "/metrics", "/health", "/ready"))

	r.GET("/health", handlers.Metrics.Health)
	r.GET("/ready", handlers.Metrics.Ready)
	r.GET("/metrics", handlers.Metrics.Prometheus)
	if strings.HasPrefix(cfg.Uploads.BaseURL, "/") {
		r.Static(cfg.Uploads.BaseURL, files.Dir())
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Register(r, cfg.APIPrefix, handlers, handler.RouteDeps{
		Tokens: authSvc,
		Audit:  userRepo,
		Logger: logr,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
