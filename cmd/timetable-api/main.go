package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-timetable-engine/api/swagger"
	"github.com/noah-isme/sma-timetable-engine/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-timetable-engine/internal/middleware"
	"github.com/noah-isme/sma-timetable-engine/internal/models"
	"github.com/noah-isme/sma-timetable-engine/internal/optimizer"
	"github.com/noah-isme/sma-timetable-engine/internal/repository"
	"github.com/noah-isme/sma-timetable-engine/internal/service"
	"github.com/noah-isme/sma-timetable-engine/pkg/cache"
	"github.com/noah-isme/sma-timetable-engine/pkg/config"
	"github.com/noah-isme/sma-timetable-engine/pkg/database"
	"github.com/noah-isme/sma-timetable-engine/pkg/jobs"
	"github.com/noah-isme/sma-timetable-engine/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-timetable-engine/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-timetable-engine/pkg/middleware/requestid"
)

// @title Timetable Engine API
// @version 1.0.0
// @description Clash detection, constraint validation and automated generation of school timetables.
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	var cacheRepo service.CacheRepository
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			repo := repository.NewCacheRepository(client, cfg.Cache.Prefix, logr)
			defer repo.Close() //nolint:errcheck
			cacheRepo = repo
		}
	}

	validate := validator.New()
	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.ReportTTL, logr)

	schedules := repository.NewScheduleRepository(db)
	sessions := repository.NewSessionRepository(db)
	constraints := repository.NewConstraintRepository(db)
	reference := service.NewReferenceProvider(
		repository.NewVenueRepository(db),
		repository.NewLecturerRepository(db),
		repository.NewCourseRepository(db),
		repository.NewStudentGroupRepository(db),
		cacheSvc,
		cfg.Cache.ReferenceTTL,
		logr,
	)

	workingDays := service.ParseWorkingDays(cfg.Scheduler.WorkingDays)
	mutationSvc := service.NewScheduleMutationService(schedules, sessions, reference, constraints, db, cacheSvc, metrics, validate, logr,
		service.ScheduleQualityConfig{
			WorkingStartHour:     cfg.Scheduler.WorkingStartHour,
			WorkingEndHour:       cfg.Scheduler.WorkingEndHour,
			WorkingDays:          workingDays,
			MaxGapMinutes:        cfg.Scheduler.MaxGapMinutes,
			MinBreakMinutes:      cfg.Scheduler.MinBreakMinutes,
			UnderusedUtilization: cfg.Scheduler.UnderusedUtilization,
			OverloadUtilization:  cfg.Scheduler.OverloadUtilization,
		})
	constraintSvc := service.NewConstraintService(constraints, sessions, reference, nil, validate, logr)
	exportSvc := service.NewScheduleExportService(schedules, sessions, reference, logr, nil, nil, nil)

	var opt service.Optimizer
	if cfg.Optimizer.Enabled {
		opt = optimizer.New(optimizer.Config{BaseURL: cfg.Optimizer.URL, APIKey: cfg.Optimizer.APIKey, Timeout: cfg.Optimizer.Timeout}, logr)
		logr.Info("optimizer enabled", zap.String("url", cfg.Optimizer.URL))
	}
	generationSvc := service.NewTimetableGenerationService(reference, constraints, opt, schedules, sessions, db, metrics, validate, logr,
		service.GenerationDefaults{WorkingHours: models.WorkingHours{
			StartHour: cfg.Scheduler.WorkingStartHour,
			EndHour:   cfg.Scheduler.WorkingEndHour,
			Days:      workingDays,
		}})

	jobStore := repository.NewMemoryGenerationJobStore()
	worker := service.NewGenerationWorker(jobStore, generationSvc, logr)
	queue := jobs.NewQueue("timetable-generation", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Generation.Workers,
		BufferSize: cfg.Generation.QueueSize,
		Timeout:    cfg.Generation.JobTimeout,
		Logger:     logr,
	})
	queue.Start(ctx)
	defer queue.Stop()
	jobSvc := service.NewGenerationJobService(jobStore, queue, generationSvc, validate, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	var throttle gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		throttle = internalmiddleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst).Handler()
	}
	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Schedules:   handler.NewScheduleHandler(mutationSvc, logr),
		Constraints: handler.NewConstraintHandler(constraintSvc),
		Generation:  handler.NewGenerationHandler(generationSvc, jobSvc, logr),
		Export:      handler.NewExportHandler(exportSvc),
	}, throttle)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "optimizer", cfg.Optimizer.Enabled)
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
