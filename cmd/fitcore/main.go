package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/fitcore/fitcore/internal/analytics"
	"github.com/fitcore/fitcore/internal/app"
	"github.com/fitcore/fitcore/internal/auth"
	"github.com/fitcore/fitcore/internal/authz"
	"github.com/fitcore/fitcore/internal/billing"
	"github.com/fitcore/fitcore/internal/branches"
	"github.com/fitcore/fitcore/internal/gateway"
	"github.com/fitcore/fitcore/internal/goals"
	"github.com/fitcore/fitcore/internal/gyms"
	"github.com/fitcore/fitcore/internal/ledger"
	"github.com/fitcore/fitcore/internal/lockers"
	"github.com/fitcore/fitcore/internal/members"
	"github.com/fitcore/fitcore/internal/observability"
	"github.com/fitcore/fitcore/internal/plans"
	"github.com/fitcore/fitcore/internal/platform/cache"
	"github.com/fitcore/fitcore/internal/platform/db"
	"github.com/fitcore/fitcore/internal/referrals"
	"github.com/fitcore/fitcore/internal/shared"
	"github.com/fitcore/fitcore/internal/trainers"
	"github.com/fitcore/fitcore/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	tokens := auth.NewTokenStore(redisClient, cfg.TokenTTL)
	authService := auth.NewService(auth.NewRepository(pool), tokens)
	authHandler := auth.NewHandler(logger, authService)
	guard := authz.Middleware{Logger: logger}

	gymService := gyms.NewService(gyms.NewRepository(pool))
	gymHandler := gyms.NewHandler(logger, gymService, guard)

	branchService := branches.NewService(branches.NewRepository(pool))
	branchHandler := branches.NewHandler(logger, branchService, guard)

	memberService := members.NewService(members.NewRepository(pool))
	memberHandler := members.NewHandler(logger, memberService, guard)

	trainerService := trainers.NewService(trainers.NewRepository(pool))
	trainerHandler := trainers.NewHandler(logger, trainerService, guard)

	planService := plans.NewService(plans.NewRepository(pool))
	planHandler := plans.NewHandler(logger, planService, guard)

	ledgerService := ledger.NewService(ledger.NewRepository(pool))
	ledgerHandler := ledger.NewHandler(logger, ledgerService, guard)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	billingService := billing.NewService(logger, billing.NewRepository(pool), planService, ledgerService, jobClient, billing.Config{
		GSTRate:        cfg.GSTRate,
		InvoiceDueDays: cfg.InvoiceDueDays,
	})
	billingHandler := billing.NewHandler(logger, billingService, guard)

	gatewayClient := gateway.NewClient(cfg.GatewayBaseURL, gateway.Credentials{
		RazorpayKeyID:     cfg.RazorpayKeyID,
		RazorpayKeySecret: cfg.RazorpayKeySecret,
		PayUMerchantKey:   cfg.PayUMerchantKey,
		PayUSalt:          cfg.PayUSalt,
		CCAvenueMerchant:  cfg.CCAvenueMerchant,
		CCAvenueWorking:   cfg.CCAvenueWorking,
		PhonePeMerchantID: cfg.PhonePeMerchantID,
		PhonePeSaltKey:    cfg.PhonePeSaltKey,
	})
	gatewayHandler := gateway.NewHandler(logger, gatewayClient, ledgerService, shared.NewIdempotencyStore(pool), guard)

	lockerService := lockers.NewService(lockers.NewRepository(pool))
	lockerHandler := lockers.NewHandler(logger, lockerService, guard)

	referralService := referrals.NewService(referrals.NewRepository(pool))
	referralHandler := referrals.NewHandler(logger, referralService, guard)

	goalService := goals.NewService(goals.NewRepository(pool))
	goalHandler := goals.NewHandler(logger, goalService, guard)

	analyticsCache := analytics.NewCache(redisClient, 10*time.Minute)
	if err := analyticsCache.ListenForInvalidation(ctx, ""); err != nil {
		logger.Warn("analytics cache listener", slog.Any("error", err))
	}
	analyticsService := analytics.NewService(analytics.NewRepository(pool), analyticsCache)
	analyticsHandler := analytics.NewHandler(logger, analyticsService, guard)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Tokens:           tokens,
		Authz:            guard,
		AuthHandler:      authHandler,
		GymHandler:       gymHandler,
		BranchHandler:    branchHandler,
		MemberHandler:    memberHandler,
		TrainerHandler:   trainerHandler,
		PlanHandler:      planHandler,
		BillingHandler:   billingHandler,
		GatewayHandler:   gatewayHandler,
		LockerHandler:    lockerHandler,
		ReferralHandler:  referralHandler,
		LedgerHandler:    ledgerHandler,
		GoalHandler:      goalHandler,
		AnalyticsHandler: analyticsHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
