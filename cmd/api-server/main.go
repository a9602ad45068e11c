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

	"github.com/wellnest/clinic-backend/internal/api"
	"github.com/wellnest/clinic-backend/internal/booking"
	"github.com/wellnest/clinic-backend/internal/config"
	"github.com/wellnest/clinic-backend/internal/db"
	"github.com/wellnest/clinic-backend/internal/directory"
	"github.com/wellnest/clinic-backend/internal/identity"
	"github.com/wellnest/clinic-backend/internal/messaging"
	"github.com/wellnest/clinic-backend/internal/prescription"
	"github.com/wellnest/clinic-backend/internal/redisclient"
)

const version = "1.2.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		errLog := zerolog.New(os.Stderr)
		errLog.Fatal().Err(err).Msg("config load error")
	}

	log := newLogger(cfg.Env).With().Str("service", "api-server").Logger()
	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("starting up")

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
			log.Warn().Err(err).Msg("error closing redis")
		}
	}()
	log.Info().Msg("connected to Redis")

	// Wire services
	store := booking.NewPgStore(pgPool)
	locker := redisclient.NewRedisActorLocker(rdb, cfg.LockTTL)
	bookingSvc := booking.NewService(store, locker, log)

	tokens := identity.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	identitySvc := identity.NewService(identity.NewPgRepository(pgPool), tokens, log)
	directorySvc := directory.NewService(directory.NewPgRepository(pgPool), log)
	messagingSvc := messaging.NewService(messaging.NewPgRepository(pgPool), log)
	prescriptionSvc := prescription.NewService(prescription.NewPgRepository(pgPool))

	handler := api.NewRouter(api.RouterConfig{
		Booking:       bookingSvc,
		Identity:      identitySvc,
		Tokens:        tokens,
		Directory:     directorySvc,
		Messaging:     messagingSvc,
		Prescriptions: prescriptionSvc,
		PgPool:        pgPool,
		Redis:         rdb,
		Env:           cfg.Env,
		Version:       version,
		Log:           log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-rootCtx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown error")
	}

	log.Info().Msg("api-server stopped")
}

func newLogger(env string) zerolog.Logger {
	if env == "dev" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
