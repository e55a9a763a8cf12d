// Command server runs the card verification HTTP service. Backing services
// degrade gracefully: without DATABASE_URL, REDIS_URL, KAFKA_BROKERS, or
// CHAIN_GATEWAY_URL the corresponding component falls back to an in-memory
// implementation, which keeps local development a single `go run`.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Coritp27/sysga-sub002/internal/audit"
	cardstore "github.com/Coritp27/sysga-sub002/internal/card/store"
	"github.com/Coritp27/sysga-sub002/internal/chain"
	"github.com/Coritp27/sysga-sub002/internal/delivery"
	"github.com/Coritp27/sysga-sub002/internal/delivery/email"
	"github.com/Coritp27/sysga-sub002/internal/delivery/sms"
	"github.com/Coritp27/sysga-sub002/internal/jwttoken"
	otpmetrics "github.com/Coritp27/sysga-sub002/internal/otp/metrics"
	otpservice "github.com/Coritp27/sysga-sub002/internal/otp/service"
	otpstore "github.com/Coritp27/sysga-sub002/internal/otp/store"
	"github.com/Coritp27/sysga-sub002/internal/platform/config"
	"github.com/Coritp27/sysga-sub002/internal/platform/httpserver"
	"github.com/Coritp27/sysga-sub002/internal/platform/logger"
	"github.com/Coritp27/sysga-sub002/internal/platform/postgres"
	redisplatform "github.com/Coritp27/sysga-sub002/internal/platform/redis"
	"github.com/Coritp27/sysga-sub002/internal/reconcile"
	recmetrics "github.com/Coritp27/sysga-sub002/internal/reconcile/metrics"
	httptransport "github.com/Coritp27/sysga-sub002/internal/transport/http"
	verifhandler "github.com/Coritp27/sysga-sub002/internal/verification/handler"
	verifmetrics "github.com/Coritp27/sysga-sub002/internal/verification/metrics"
	verifservice "github.com/Coritp27/sysga-sub002/internal/verification/service"
	sessionstore "github.com/Coritp27/sysga-sub002/internal/verification/store"
)

func main() {
	cfg := config.Load()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	health := make(map[string]httptransport.HealthCheck)

	// Storage: postgres when configured, memory otherwise.
	var (
		cards      cardstore.Store
		challenges otpstore.Store
	)
	if cfg.DatabaseURL != "" {
		if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
			log.Error("database migration failed", "error", err)
			os.Exit(1)
		}
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		cards = cardstore.NewPostgres(db)
		challenges = otpstore.NewPostgres(db)
		health["postgres"] = db.PingContext
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		cards = cardstore.NewMemoryStore()
		challenges = otpstore.NewMemoryStore()
	}

	redisClient, err := redisplatform.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}

	var sessions sessionstore.Store
	if redisClient != nil {
		defer redisClient.Close()
		sessions = sessionstore.NewRedis(redisClient.Client)
		health["redis"] = redisClient.Health
	} else {
		sessions = sessionstore.NewMemoryStore()
	}

	// On-chain reader, with a redis read-through cache when both are present.
	var reader chain.Reader
	if cfg.ChainGatewayURL != "" {
		reader = chain.NewHTTPReader(cfg.ChainGatewayURL)
		if redisClient != nil {
			reader = chain.NewCachedReader(reader, redisClient.Client, 5*time.Minute)
		}
	} else {
		log.Warn("CHAIN_GATEWAY_URL not set, using in-memory chain reader")
		reader = chain.NewMemoryReader()
	}

	// Delivery channels fall back to log-only senders in development.
	var smsChannel delivery.Channel = delivery.NewLogChannel(delivery.KindSMS, log)
	if cfg.SMSAPIKey != "" {
		smsChannel = sms.New(cfg.SMSAPIKey, cfg.SMSBaseURL, cfg.SMSSender)
	}
	var emailChannel delivery.Channel = delivery.NewLogChannel(delivery.KindEmail, log)
	if cfg.SMTPAddr != "" {
		emailChannel = email.New(cfg.SMTPAddr, cfg.SMTPFrom)
	}
	dispatcher := delivery.NewDispatcher(
		[]delivery.Channel{smsChannel, emailChannel},
		delivery.WithLogger(log),
	)

	// Audit pipeline: handlers emit into a bounded inbox; a worker drains it
	// to kafka when configured, to an in-memory store otherwise.
	auditBus := audit.NewChannelPublisher(256)
	var sink audit.Publisher = audit.NewStoreSink(audit.NewMemoryStore())
	if kafkaPublisher := audit.NewKafkaPublisher(cfg.Brokers(), cfg.KafkaAuditTopic); kafkaPublisher != nil {
		defer kafkaPublisher.Close()
		sink = kafkaPublisher
	}
	worker := audit.NewWorker(sink, auditBus.Inbox())

	challengeManager, err := otpservice.New(challenges, cards, dispatcher,
		otpservice.WithLogger(log),
		otpservice.WithAuditPublisher(auditBus),
		otpservice.WithMetrics(otpmetrics.New()),
		otpservice.WithConfig(otpservice.Config{
			ChallengeTTL:    cfg.ChallengeTTL,
			MaxAttempts:     3,
			ReissueCooldown: cfg.ReissueCooldown,
		}),
	)
	if err != nil {
		log.Error("challenge manager init failed", "error", err)
		os.Exit(1)
	}

	engine, err := reconcile.New(cards, reader,
		reconcile.WithLogger(log),
		reconcile.WithAuditPublisher(auditBus),
		reconcile.WithMetrics(recmetrics.New()),
	)
	if err != nil {
		log.Error("reconciliation engine init failed", "error", err)
		os.Exit(1)
	}

	verification, err := verifservice.New(sessions, challengeManager, engine,
		verifservice.WithLogger(log),
		verifservice.WithAuditPublisher(auditBus),
		verifservice.WithMetrics(verifmetrics.New()),
		verifservice.WithSessionTTL(cfg.SessionTTL),
	)
	if err != nil {
		log.Error("verification service init failed", "error", err)
		os.Exit(1)
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:       log,
		Resolver:     jwttoken.NewService(cfg.JWTSigningKey, "sysga"),
		Verification: verifhandler.New(verification, log),
		AdminToken:   cfg.AdminToken,
		Health:       health,
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		log.Info("starting card verification service", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
