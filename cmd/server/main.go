package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	_ "campus/docs" // swagger docs

	"campus/internal/auth"
	"campus/internal/cache"
	"campus/internal/config"
	"campus/internal/db"
	"campus/internal/handler"
	"campus/internal/jobs"
	"campus/internal/logger"
	"campus/internal/repository"
	"campus/internal/router"
	"campus/internal/service"
)

// @title Campus API
// @version 1.0
// @description Campus management API with session-backed authentication, semesters, enrollments and attendance.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.
func main() {
	cfg := config.Load()

	zl, err := logger.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		zl.Fatal("database init", zap.Error(err))
	}

	if cfg.ResetDB {
		zl.Warn("RESET_DB=true detected, dropping all tables")
		if err := db.Reset(gormDB); err != nil {
			zl.Fatal("reset database", zap.Error(err))
		}
	}
	if err := db.Migrate(gormDB); err != nil {
		zl.Fatal("migrate database", zap.Error(err))
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := cacheClient.Ping(ctx); err != nil {
		zl.Warn("redis unavailable, continuing without cache", zap.Error(err))
	}
	defer cacheClient.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	sessionRepo := repository.NewSessionRepository(gormDB)
	semesterRepo := repository.NewSemesterRepository(gormDB)
	courseRepo := repository.NewCourseRepository(gormDB)
	enrollmentRepo := repository.NewEnrollmentRepository(gormDB)
	attendanceRepo := repository.NewAttendanceRepository(gormDB)

	// Initialize auth components
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenLifetime)
	sessionCache := auth.NewSessionCache(cacheClient, cfg.SessionCacheTTL)

	// Initialize services
	sessionService := service.NewSessionService(sessionRepo, sessionCache, logger.WithComponent(zl, "sessions"))
	authService := service.NewAuthService(userRepo, issuer, sessionService, logger.WithComponent(zl, "auth"))
	academicService := service.NewAcademicService(userRepo, semesterRepo, courseRepo, enrollmentRepo)
	attendanceService := service.NewAttendanceService(attendanceRepo, courseRepo, enrollmentRepo, userRepo)
	gate := service.NewGate(issuer, sessionService, logger.WithComponent(zl, "gate"))

	// Background jobs
	rollover := jobs.NewRolloverJob(semesterRepo, courseRepo, enrollmentRepo, cacheClient, cfg.RolloverLeaseTTL, logger.WithComponent(zl, "jobs"))
	cleanup := jobs.NewSessionCleanupJob(sessionService, logger.WithComponent(zl, "jobs"))
	scheduler, err := jobs.NewScheduler(jobs.SchedulerConfig{
		Timezone:               cfg.SchedulerTimezone,
		RolloverSchedule:       cfg.RolloverSchedule,
		RolloverTimeout:        cfg.RolloverTimeout,
		SessionCleanupSchedule: cfg.SessionCleanupSchedule,
		SessionCleanupTimeout:  cfg.SessionCleanupTimeout,
		RunRolloverOnStart:     cfg.RolloverOnStart,
	}, rollover, cleanup, logger.WithComponent(zl, "scheduler"))
	if err != nil {
		zl.Fatal("scheduler init", zap.Error(err))
	}

	e := echo.New()
	e.HideBanner = true

	router.Register(
		e,
		cfg,
		zl,
		gate,
		handler.NewAuthHandler(authService),
		handler.NewAcademicHandler(academicService),
		handler.NewAttendanceHandler(attendanceService),
	)

	scheduler.Start()

	addr := ":" + cfg.ServerPort
	go func() {
		zl.Info("server listening", zap.String("addr", addr), zap.String("swagger", "http://localhost"+addr+"/swagger/index.html"))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Error("server shutdown", zap.Error(err))
	}
	if err := scheduler.Stop(shutdownCtx); err != nil {
		zl.Error("scheduler shutdown", zap.Error(err))
	}
}
