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

	_ "github.com/noah-isme/timetable-planner/api/swagger"
	"github.com/noah-isme/timetable-planner/internal/handler"
	internalmiddleware "github.com/noah-isme/timetable-planner/internal/middleware"
	"github.com/noah-isme/timetable-planner/internal/repository"
	"github.com/noah-isme/timetable-planner/internal/service"
	"github.com/noah-isme/timetable-planner/pkg/cache"
	"github.com/noah-isme/timetable-planner/pkg/config"
	"github.com/noah-isme/timetable-planner/pkg/database"
	"github.com/noah-isme/timetable-planner/pkg/jobs"
	"github.com/noah-isme/timetable-planner/pkg/lock"
	"github.com/noah-isme/timetable-planner/pkg/logger"
	corsmiddleware "github.com/noah-isme/timetable-planner/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/timetable-planner/pkg/middleware/requestid"
)

// @title Timetable Planner API
// @version 1.0.0
// @description Weekly school timetable generation and teacher workload reporting
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
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect redis", "error", err)
	}

	engineCfg, err := service.NewEngineConfig(cfg.Scheduler.MaxPerDay, cfg.Scheduler.Days)
	if err != nil {
		logr.Sugar().Fatalw("invalid scheduler config", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Workload.CacheTTL, logr, redisClient != nil)

	var locker lock.Locker = lock.NewLocalLocker()
	if redisClient != nil {
		locker = lock.NewRedisLocker(redisClient, "timetable-planner:lock:")
	}

	termRepo := repository.NewTermRepository(db)
	classRepo := repository.NewClassRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	slotRepo := repository.NewTimeSlotRepository(db)
	lessonRepo := repository.NewLessonRepository(db)

	workloadSvc := service.NewWorkloadService(termRepo, lessonRepo, cacheSvc, cfg.Workload.CacheTTL, validate, logr)
	timetableSvc := service.NewTimetableService(
		termRepo,
		classRepo,
		subjectRepo,
		slotRepo,
		lessonRepo,
		db,
		locker,
		workloadSvc,
		metricsSvc,
		validate,
		logr,
		service.TimetableConfig{
			Engine:  engineCfg,
			Seed:    cfg.Scheduler.Seed,
			LockTTL: cfg.Scheduler.LockTTL,
		},
	)

	timetableHandler := handler.NewTimetableHandler(timetableSvc, nil, workloadSvc)
	if cfg.Scheduler.Enabled {
		runStore := service.NewGenerationRunStore(cfg.Scheduler.RunTTL)
		worker := service.NewTimetableWorker(timetableSvc, runStore, cfg.Scheduler.Retries, logr)
		queue := jobs.NewQueue(service.JobTypeTimetableGeneration, worker.Handle, jobs.QueueConfig{
			Workers:     cfg.Scheduler.Workers,
			MaxRetries:  cfg.Scheduler.Retries,
			RetryDelay:  2 * time.Second,
			Logger:      logr,
			OnExhausted: worker.Exhausted,
		})
		queue.Start(ctx)
		defer queue.Stop()

		runSvc := service.NewTimetableRunService(runStore, queue, validate, logr)
		timetableHandler = handler.NewTimetableHandler(timetableSvc, runSvc, workloadSvc)
	}
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	api.POST("/timetable/generate", timetableHandler.Generate)
	api.GET("/timetable/runs/:id", timetableHandler.GetRun)
	api.GET("/terms/:id/workload", timetableHandler.Workload)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "scheduler", cfg.Scheduler.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
