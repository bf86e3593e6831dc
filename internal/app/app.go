package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cartai/ledger/internal/api"
	"github.com/cartai/ledger/internal/api/middleware"
	"github.com/cartai/ledger/internal/config"
	"github.com/cartai/ledger/internal/db"
	"github.com/cartai/ledger/internal/domain"
	"github.com/cartai/ledger/internal/game"
	"github.com/cartai/ledger/internal/idempotency"
	"github.com/cartai/ledger/internal/identity"
	"github.com/cartai/ledger/internal/observability"
	"github.com/cartai/ledger/internal/repository"
	"github.com/cartai/ledger/internal/service"
	"github.com/cartai/ledger/internal/worker"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const shutdownGrace = 30 * time.Second

// Run bootstraps the HTTP server and background jobs, blocking until SIGINT or SIGTERM.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	observability.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tokens, err := middleware.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTTTL)
	if err != nil {
		return fmt.Errorf("init session tokens: %w", err)
	}

	verifier, err := identity.NewVerifier(IdentityConfig(cfg))
	if err != nil {
		return fmt.Errorf("init identity verifier: %w", err)
	}

	if cfg.MigrateOnStart {
		if err := db.MigrateUp(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migrate on start: %w", err)
		}
	}
	pool, err := db.Connect(ctx, cfg.DatabaseURL, db.PoolOptions{MaxConns: cfg.DBMaxConns})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	redisClient, err := NewRedisClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close()

	store := repository.NewStore(pool)
	idemStore := idempotency.NewStore(redisClient, store.Queries(), cfg.IdempotencyTTL)

	stopJobs, err := startJobs(ctx, cfg, logger, store, idemStore)
	if err != nil {
		return err
	}
	defer stopJobs()

	svc := NewServices(store, game.NewRedisStore(redisClient, cfg.GameSessionTTL), cfg)
	server := api.NewRouter(cfg, logger, api.Infra{
		DB:          store,
		Redis:       redisClient,
		Idempotency: idemStore,
		Tokens:      tokens,
		Identity:    verifier,
	}, svc).Server()

	return serve(ctx, logger, server)
}

// startJobs registers the cron sweeps and the queue monitor. The returned func
// stops both and waits for running jobs.
func startJobs(ctx context.Context, cfg *config.Config, logger *zap.Logger, store *repository.Store, purger worker.KeyPurger) (func(), error) {
	scheduler := worker.NewScheduler(cfg.Timezone)
	if err := scheduler.AddMaturitySweep(cfg.MaturitySchedule, service.NewMaturityService(store)); err != nil {
		return nil, err
	}
	if err := scheduler.AddReconciliation(cfg.ReconciliationSchedule, service.NewReconciliationService(store)); err != nil {
		return nil, err
	}
	if err := scheduler.AddIdempotencyPurge(cfg.IdempotencyPurgeSchedule, purger); err != nil {
		return nil, err
	}
	stopScheduler := scheduler.Run()
	logger.Info("scheduler started",
		zap.String("maturity", cfg.MaturitySchedule),
		zap.String("reconciliation", cfg.ReconciliationSchedule),
		zap.String("idempotency_purge", cfg.IdempotencyPurgeSchedule),
		zap.String("timezone", cfg.Timezone.String()),
	)

	stopMonitor := worker.NewQueueMonitor(service.NewQueueService(store)).
		WithInterval(cfg.QueueMonitorInterval).
		Run(ctx)

	return func() {
		logger.Info("stopping background jobs")
		stopMonitor()
		stopScheduler()
	}, nil
}

// serve runs the server until ctx is cancelled or ListenAndServe fails, then
// drains in-flight requests.
func serve(ctx context.Context, logger *zap.Logger, server *http.Server) error {
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", server.Addr))
		serverErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(drainCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

// NewServices wires every ledger service against one store and the shared policy.
func NewServices(store service.QueryStore, sessions game.SessionStore, cfg *config.Config) api.Services {
	policy := PolicyFromConfig(cfg)
	return api.Services{
		Accounts:    service.NewAccountService(store, policy),
		Catalog:     service.NewCatalogService(store),
		Payments:    service.NewPaymentService(store),
		Withdrawals: service.NewWithdrawalService(store, policy),
		Referrals:   service.NewReferralService(store, policy),
		Promos:      service.NewPromoService(store),
		FreeYield:   service.NewFreeYieldService(store, policy),
		Games:       service.NewGameService(sessions, cfg.GameOpponentDelay),
	}
}

func IdentityConfig(cfg *config.Config) identity.Config {
	return identity.Config{
		Issuer:       cfg.IdentityIssuer,
		Audience:     cfg.IdentityAudience,
		Secret:       cfg.IdentitySecret,
		PublicKeyPEM: cfg.IdentityPublicKey,
	}
}

func PolicyFromConfig(cfg *config.Config) service.Policy {
	policy := service.DefaultPolicy()
	policy.MinWithdrawal = domain.Amount(cfg.MinWithdrawal)
	policy.RefereeBonus = domain.Amount(cfg.RefereeBonus)
	policy.ReferrerBonus = domain.Amount(cfg.ReferrerBonus)
	policy.FreeYieldTermDays = cfg.FreeYieldTermDays
	policy.FreeYieldDailyUnit = domain.Amount(cfg.FreeYieldUnit)
	policy.DebitOnApproval = cfg.DebitOnApproval
	policy.RefundOnReject = cfg.RefundOnReject
	if cfg.Timezone != nil {
		policy.Location = cfg.Timezone
	}
	policy.AdminUserIDs = cfg.AdminUserIDs
	return policy
}

// NewLogger builds a JSON production logger. Unknown levels fall back to info.
func NewLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func NewRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
