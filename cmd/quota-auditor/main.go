package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/wellnest/clinic-backend/internal/booking"
	"github.com/wellnest/clinic-backend/internal/config"
	"github.com/wellnest/clinic-backend/internal/db"
	"github.com/wellnest/clinic-backend/internal/redisclient"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		errLog := zerolog.New(os.Stderr)
		errLog.Fatal().Err(err).Msg("config load error")
	}

	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "quota-auditor").Logger()
	log.Info().
		Str("env", cfg.Env).
		Dur("interval", cfg.AuditInterval).
		Bool("repair", cfg.QuotaRepair).
		Msg("starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

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

	store := booking.NewPgStore(pgPool)
	locker := redisclient.NewRedisActorLocker(rdb, cfg.LockTTL)
	svc := booking.NewService(store, locker, log)

	// Run once at startup
	runOnce(rootCtx, svc, cfg.QuotaRepair, log)

	ticker := time.NewTicker(cfg.AuditInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Info().Msg("shutdown signal received, stopping quota auditor")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, cfg.QuotaRepair, log)
		}
	}
}

func runOnce(ctx context.Context, svc *booking.Service, repair bool, log zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	reports, err := svc.AuditQuotas(runCtx, repair)
	if err != nil {
		log.Error().Err(err).Msg("audit run error")
		return
	}

	drifted := 0
	for _, r := range reports {
		if r.Drifted() {
			drifted++
		}
	}
	log.Info().
		Int("doctors", len(reports)).
		Int("drifted", drifted).
		Dur("took", time.Since(start)).
		Msg("audit run complete")
}
