package main // Entry point package

import (
    "context"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/seat-hold-engine/internal/booking"
    "github.com/iliyamo/seat-hold-engine/internal/config"
    "github.com/iliyamo/seat-hold-engine/internal/database"
    "github.com/iliyamo/seat-hold-engine/internal/handler"
    "github.com/iliyamo/seat-hold-engine/internal/hub"
    "github.com/iliyamo/seat-hold-engine/internal/logger"
    "github.com/iliyamo/seat-hold-engine/internal/metrics"
    "github.com/iliyamo/seat-hold-engine/internal/queue"
    "github.com/iliyamo/seat-hold-engine/internal/repository"
    "github.com/iliyamo/seat-hold-engine/internal/router"
    "github.com/iliyamo/seat-hold-engine/internal/session"
    "github.com/iliyamo/seat-hold-engine/internal/store"
)

func main() {
    _ = godotenv.Load() // .env is optional; real deployments use the environment

    cfg := config.Load()
    logger.Set(logger.New(cfg.Env))
    defer func() { _ = logger.Sync() }()
    metrics.Init()

    seats := store.NewSeatMap()
    broadcast := hub.New(seats, int(cfg.HoldTTL/time.Second))
    mgr := session.NewManager(seats, broadcast, cfg.HoldTTL)

    // Durable write-behind store for confirmed bookings; the engine runs
    // fine without it.
    var reservations *repository.ReservationRepo
    if cfg.PersistenceEnabled() {
        db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
        if err != nil {
            logger.Fatal("database connect failed", zap.Error(err))
        }
        reservations = repository.NewReservationRepo(db)
    } else {
        logger.Warn("persistence disabled: DB_HOST/DB_USER/DB_NAME not set")
    }

    var finalizer *booking.Finalizer
    if reservations != nil {
        finalizer = booking.NewFinalizer(mgr, reservations, queue.PublishBookingConfirmed)
    } else {
        finalizer = booking.NewFinalizer(mgr, nil, queue.PublishBookingConfirmed)
    }

    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()

    sweeper := session.NewSweeper(mgr, cfg.SweepInterval)
    go sweeper.Start(ctx)
    go queue.StartBookingConsumer()

    rdb := config.NewRedisClient() // nil degrades rate limiting gracefully
    if rdb == nil {
        logger.Warn("redis unavailable: rate limiting disabled")
    }

    e := echo.New()
    e.HideBanner = true
    router.Register(e, router.Handlers{
        Hold:    handler.NewHoldHandler(mgr, seats, reservations),
        Payment: handler.NewPaymentHandler(finalizer),
        Admin:   handler.NewAdminHandler(seats),
        WS:      handler.NewWSHandler(broadcast),
    }, cfg.JWTSecret, rdb)

    addr := ":" + cfg.Port
    logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env),
        zap.Duration("hold_ttl", cfg.HoldTTL), zap.Duration("sweep_interval", cfg.SweepInterval))

    go func() {
        if err := e.Start(addr); err != nil {
            logger.Error("server stopped", zap.Error(err))
            cancel()
        }
    }()

    quit := make(chan os.Signal, 1)
    signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
    select {
    case <-quit:
    case <-ctx.Done():
    }

    shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer shutdownCancel()
    if err := e.Shutdown(shutdownCtx); err != nil {
        logger.Error("shutdown failed", zap.Error(err))
    }
    cancel()
}
