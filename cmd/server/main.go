package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/certquest/arena-backend/internal/config"
	"github.com/certquest/arena-backend/internal/database"
	"github.com/certquest/arena-backend/internal/handler"
	"github.com/certquest/arena-backend/internal/logger"
	"github.com/certquest/arena-backend/internal/middleware"
	"github.com/certquest/arena-backend/internal/repository"
	"github.com/certquest/arena-backend/internal/router"
	"github.com/certquest/arena-backend/internal/service"
	"github.com/certquest/arena-backend/internal/session"
	"github.com/certquest/arena-backend/internal/validator"
	"github.com/certquest/arena-backend/internal/worker"
	"github.com/rs/zerolog"
)

// bundlerLockTTL outlives any realistic bundler run; the lock is released
// explicitly when the run ends.
const bundlerLockTTL = 2 * time.Minute

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting CertQuest Arena backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Apply Migrations ──────────────────────────────────────────────
	if cfg.AutoMigrate {
		if err := database.MigrateUp(cfg.DatabaseURL, log); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
	}

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	resultRepo := repository.NewResultRepository(pool)
	packageRepo := repository.NewPackageRepository(pool)
	settingRepo := repository.NewSettingRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, userRepo, rdb)
	examService := service.NewExamService(examRepo, questionRepo, rdb, cfg.QuestionCacheTTL, log)
	sessionService := service.NewSessionService(examService, resultRepo, rdb, session.ManagerOptions{}, log)
	resultService := service.NewResultService(resultRepo, examService, log)
	bundler := service.NewBundler(
		service.NewPostgresBundleRunner(packageRepo),
		service.NewRedisLock(rdb, bundlerLockTTL),
		service.BundlerOptions{
			GroupByCategory: cfg.BundleGroupByCategory,
			Discount:        cfg.BundleDefaultDiscount,
		},
		log,
	)
	packageService := service.NewPackageService(packageRepo, examRepo, bundler, log)
	settingService := service.NewSettingService(settingRepo, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:     handler.NewAuthHandler(authService, log),
		Exam:     handler.NewExamHandler(examService, log),
		Question: handler.NewQuestionHandler(examService, log),
		Session:  handler.NewSessionHandler(sessionService, log),
		WS:       handler.NewWSHandler(sessionService, log, cfg.AllowedOrigins),
		Result:   handler.NewResultHandler(resultService, log),
		Package:  handler.NewPackageHandler(packageService, log),
		Setting:  handler.NewSettingHandler(settingService),
		System:   handler.NewSystemHandler(pool, rdb, sessionService, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	resultWorker := worker.NewResultWorker(resultRepo, rdb, log)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		resultWorker.Start(workerCtx)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)
	defer authLimiter.Stop()

	r := router.SetupRouter(authService, handlers, authLimiter, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop session timers. Open WebSocket streams are closed.
	sessionService.Shutdown()

	// 3. Stop the result worker and wait for the queue to drain.
	workerCancel()
	<-workerDone

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
