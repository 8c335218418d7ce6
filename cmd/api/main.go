package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/tutor-scheduler/internal/audit"
	"github.com/BruksfildServices01/tutor-scheduler/internal/config"
	dbpkg "github.com/BruksfildServices01/tutor-scheduler/internal/db"
	domain "github.com/BruksfildServices01/tutor-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/tutor-scheduler/internal/handlers"
	infraRepo "github.com/BruksfildServices01/tutor-scheduler/internal/infra/repository"
	"github.com/BruksfildServices01/tutor-scheduler/internal/jobs"
	"github.com/BruksfildServices01/tutor-scheduler/internal/lock"
	"github.com/BruksfildServices01/tutor-scheduler/internal/logger"
	"github.com/BruksfildServices01/tutor-scheduler/internal/middleware"
	"github.com/BruksfildServices01/tutor-scheduler/internal/routes"
	ucBooking "github.com/BruksfildServices01/tutor-scheduler/internal/usecase/booking"
)

const (
	auditBuffer     = 256
	promoteTimeout  = time.Minute
	shutdownTimeout = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New(logger.Options{Env: cfg.Env, File: cfg.LogFile})
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checks := map[string]handlers.Pinger{}

	// ======================================================
	// 🔧 INFRA
	// ======================================================
	var repo domain.Repository
	switch cfg.StorageDriver {
	case config.DriverMemory:
		zlog.Warn("using in-memory storage; bookings are lost on restart")
		repo = infraRepo.NewBookingMemoryRepository()
	default:
		db, err := dbpkg.NewDB(cfg)
		if err != nil {
			return err
		}
		if err := dbpkg.Migrate(ctx, db, zlog); err != nil {
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		defer sqlDB.Close()
		checks["database"] = handlers.PingFunc(sqlDB.PingContext)
		repo = infraRepo.NewBookingGormRepository(db)
	}

	var locker lock.Locker = lock.NewLocal()
	if cfg.RedisURL != "" {
		redisLock, err := lock.NewRedis(cfg.RedisURL, cfg.LockTTL)
		if err != nil {
			return err
		}
		defer redisLock.Close()
		checks["redis"] = redisLock
		locker = redisLock
	}

	dispatcher := audit.NewDispatcher(zlog, auditBuffer, audit.New(zlog))
	defer dispatcher.Close()

	// ======================================================
	// 🧠 USE CASES
	// ======================================================
	bookings := ucBooking.NewService(repo, locker,
		ucBooking.WithPublisher(dispatcher),
		ucBooking.WithLogger(zlog),
		ucBooking.WithLocation(cfg.Location()),
		ucBooking.WithTimeout(cfg.StorageTimeout),
	)

	scheduler := jobs.NewScheduler(zlog, cfg.Location())
	if err := scheduler.SchedulePromotion(cfg.PromoteCron, bookings, promoteTimeout); err != nil {
		return err
	}
	scheduler.Start()

	// ======================================================
	// 🌍 HTTP
	// ======================================================
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	rateLimit, err := middleware.NewRateLimiter(cfg.RateLimit)
	if err != nil {
		return err
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(zlog))
	r.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	routes.RegisterRoutes(r, cfg, routes.Deps{
		Bookings:  bookings,
		Health:    handlers.NewHealthHandler(checks),
		RateLimit: rateLimit,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("server running", zap.String("addr", cfg.Addr()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zlog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	scheduler.Stop(shutdownCtx)
	return srv.Shutdown(shutdownCtx)
}
