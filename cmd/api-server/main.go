package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/careline/clinic-queue/internal/api"
	"github.com/careline/clinic-queue/internal/auth"
	"github.com/careline/clinic-queue/internal/booking"
	"github.com/careline/clinic-queue/internal/config"
	"github.com/careline/clinic-queue/internal/db"
	"github.com/careline/clinic-queue/internal/directory"
	"github.com/careline/clinic-queue/internal/notify"
	redisclient "github.com/careline/clinic-queue/internal/redis"
	"github.com/careline/clinic-queue/internal/schedule"
)

const version = "1.0.0"

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "api-server").Logger()
	log.Info().Msg("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("configuration loaded")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis")
		}
	}()
	log.Info().Msg("connected to Redis")

	var notifier notify.Notifier
	switch cfg.SMSProvider {
	case "twilio":
		notifier = notify.NewTwilioNotifier(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
	default:
		notifier = notify.NewConsoleNotifier(log)
	}

	scheduleRepo := schedule.NewPgRepository(pgPool)
	directoryRepo := directory.NewPgRepository(pgPool)
	locker := redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL)
	otps := redisclient.NewRedisOTPStore(rdb)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)

	scheduleSvc := schedule.NewService(scheduleRepo, locker, notifier, log)
	bookingSvc := booking.NewService(scheduleSvc, log)
	directorySvc := directory.NewService(directoryRepo, log)
	authSvc := auth.NewService(directoryRepo, scheduleRepo, otps, tokens, notifier, cfg.OTPTTL, log)

	handler := api.NewRouter(api.RouterConfig{
		Schedules: scheduleSvc,
		Bookings:  bookingSvc,
		Directory: directorySvc,
		Auth:      authSvc,
		Tokens:    tokens,
		TokenTTL:  cfg.TokenTTL,
		PgPool:    pgPool,
		Redis:     rdb,
		Log:       log,
		Env:       cfg.Env,
		Version:   version,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  time.Minute,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-rootCtx.Done()
	log.Info().Msg("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}
}
