package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"booking-service/internal/app"
	"booking-service/internal/config"
	"booking-service/internal/database"
	"booking-service/internal/server"
	"booking-service/internal/telemetry"
)

const serviceName = "booking-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := telemetry.NewLogger(cfg.Environment)
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TracingConfig{
		Enabled:      cfg.OTelEnabled,
		ServiceName:  serviceName,
		OTLPEndpoint: cfg.OTelEndpoint,
		SampleRatio:  cfg.OTelSampling,
	})
	if err != nil {
		logger.Error("tracing setup failed", zap.Error(err))
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(shutdownCtx); err != nil {
				logger.Warn("tracing flush failed", zap.Error(err))
			}
		}()
	}

	pool, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to db", zap.Error(err))
	}
	defer pool.Close()

	if cfg.MigrateOnStart {
		version, err := database.Migrate(ctx, pool)
		if err != nil {
			logger.Fatal("migrations failed", zap.Error(err))
		}
		logger.Info("migrations applied", zap.Int64("version", version))
	}

	store := app.NewPgStore(pool)
	appInstance := &app.App{
		DB:       store,
		Logger:   logger,
		Sessions: app.NewSessionIssuer(cfg.SessionSecret, 24*time.Hour),
		OAuth:    app.NewGoogleOAuthConfig(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL),
		Location: cfg.Location,
	}
	if appInstance.OAuth != nil {
		appInstance.Calendar = app.NewGoogleCalendar(appInstance.OAuth, store)
	} else {
		logger.Warn("Google Calendar not configured, bookings will not be mirrored")
	}

	opts := app.RouterOptions{
		ReadyChecks: []app.ReadyCheck{{Name: "postgres", Check: store.Ping}},
	}
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("invalid REDIS_URL", zap.Error(err))
		}
		rdb := redis.NewClient(redisOpts)
		defer rdb.Close()
		opts.BookingLimiter = app.NewRateLimiter(rdb, cfg.BookingRateLimit, time.Minute, "booking", logger)
		opts.ReadyChecks = append(opts.ReadyChecks, app.ReadyCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	}

	if cfg.CalendarSyncInterval > 0 {
		worker := app.NewSyncWorker(appInstance, app.SyncWorkerConfig{
			Interval:    cfg.CalendarSyncInterval,
			MaxAttempts: cfg.CalendarSyncMaxAttempts,
		})
		go worker.Run(ctx)
	}

	router := app.NewRouter(appInstance, opts)
	if err := server.Run(ctx, router, cfg.Port, logger); err != nil {
		logger.Error("http server stopped", zap.Error(err))
	}
}
