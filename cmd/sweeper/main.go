// Command sweeper runs the periodic challenge sweep against the shared
// database. Deployments that prefer an external scheduler can hit
// POST /admin/sweep on the server instead; running both is harmless because
// the sweep is idempotent.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	cardstore "github.com/Coritp27/sysga-sub002/internal/card/store"
	otpservice "github.com/Coritp27/sysga-sub002/internal/otp/service"
	otpstore "github.com/Coritp27/sysga-sub002/internal/otp/store"
	"github.com/Coritp27/sysga-sub002/internal/platform/config"
	"github.com/Coritp27/sysga-sub002/internal/platform/logger"
	"github.com/Coritp27/sysga-sub002/internal/platform/postgres"
	"github.com/Coritp27/sysga-sub002/pkg/requestcontext"
)

func main() {
	cfg := config.Load()
	log := logger.New()

	if cfg.DatabaseURL == "" {
		log.Error("DATABASE_URL is required for the sweeper")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	challenges, err := otpservice.New(otpstore.NewPostgres(db), cardstore.NewPostgres(db), nil,
		otpservice.WithLogger(log),
	)
	if err != nil {
		log.Error("challenge manager init failed", "error", err)
		os.Exit(1)
	}

	log.Info("sweeper started", "interval", cfg.SweepInterval.String())
	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("sweeper stopped")
			return
		case <-ticker.C:
			// One consistent clock reading per pass.
			passCtx := requestcontext.WithTime(ctx, time.Now())
			removed, err := challenges.Sweep(passCtx)
			if err != nil {
				log.Error("sweep pass failed", "error", err)
				continue
			}
			if removed > 0 {
				log.Info("sweep pass completed", "challenges_removed", removed)
			}
		}
	}
}
