package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kreditkeliling/kupon-backend-go/internal/config"
	appHTTP "github.com/kreditkeliling/kupon-backend-go/internal/handler/http"
	"github.com/kreditkeliling/kupon-backend-go/internal/handler/http/middleware"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/authz"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/cache"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/cron"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/database"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/jwt"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/sse"
	"github.com/kreditkeliling/kupon-backend-go/internal/repository/postgresql"
	agentService "github.com/kreditkeliling/kupon-backend-go/internal/service/agent"
	commissionService "github.com/kreditkeliling/kupon-backend-go/internal/service/commission"
	expenseService "github.com/kreditkeliling/kupon-backend-go/internal/service/expense"
	performanceService "github.com/kreditkeliling/kupon-backend-go/internal/service/performance"
)

const version = "v1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})).With(slog.String("app", "kupon-backend"), slog.String("env", cfg.App.Env)))

	if err := run(cfg); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	var reportCache cache.Cache
	if cfg.Redis.Enabled {
		rdb, err := cache.NewRedisClient(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()
		reportCache = cache.NewRedisCache(rdb)
		slog.Info("report cache using redis", "addr", cfg.RedisAddr())
	} else {
		reportCache = cache.NewMemoryCache()
		slog.Info("report cache using process memory")
	}

	hub := sse.NewHub()

	// Repositories
	agentRepo := postgresql.NewAgentRepository(db)
	contractRepo := postgresql.NewContractRepository(db)
	couponRepo := postgresql.NewCouponRepository(db)
	paymentLogRepo := postgresql.NewPaymentLogRepository(db)
	tierRepo := postgresql.NewCommissionTierRepository(db)
	commissionPaymentRepo := postgresql.NewCommissionPaymentRepository(db)
	expenseRepo := postgresql.NewExpenseRepository(db)
	targetRepo := postgresql.NewYearlyTargetRepository(db)

	// Services
	calculator := commissionService.NewCalculator()
	tierSvc := commissionService.NewTierService(tierRepo, reportCache, hub)
	ledgerSvc := commissionService.NewLedgerService(
		agentRepo, contractRepo, tierRepo, commissionPaymentRepo,
		calculator, reportCache, hub, cfg.Cache.ReportTTL,
	)
	perfSvc := performanceService.NewPerformanceService(performanceService.Repositories{
		Agents:      agentRepo,
		Contracts:   contractRepo,
		Coupons:     couponRepo,
		PaymentLogs: paymentLogRepo,
		Tiers:       tierRepo,
		Expenses:    expenseRepo,
		Targets:     targetRepo,
	}, performanceService.NewAggregator(calculator), reportCache, cfg.Cache.ReportTTL)
	agentSvc := agentService.NewAgentService(agentRepo, reportCache, hub)
	expenseSvc := expenseService.NewExpenseService(expenseRepo, reportCache, hub)

	// Auth
	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	authzMode, err := authz.ParseMode(cfg.Authz.Mode)
	if err != nil {
		return err
	}
	authorizer, err := authz.NewAuthorizer(cfg.Authz.PolicyPath, authzMode)
	if err != nil {
		return err
	}

	routerCfg := appHTTP.RouterConfig{
		AppEnv:         cfg.App.Env,
		Version:        version,
		AllowedOrigins: cfg.App.AllowedOrigins,
		LogLevel:       cfg.SlogLevel(),
	}
	if cfg.RateLimit.Rate != "" {
		routerCfg.RateLimit, err = middleware.RateLimit(cfg.RateLimit.Rate)
		if err != nil {
			return err
		}
	}

	router := appHTTP.NewRouter(routerCfg, JWTService, authorizer, appHTTP.Handlers{
		Commission: appHTTP.NewCommissionHandler(tierSvc, ledgerSvc),
		Agent:      appHTTP.NewAgentHandler(agentSvc),
		Report:     appHTTP.NewReportHandler(perfSvc),
		Expense:    appHTTP.NewExpenseHandler(expenseSvc),
		Event:      appHTTP.NewEventHandler(hub, JWTService, authorizer),
	})

	if cfg.Cron.Enabled {
		scheduler := cron.NewScheduler(slog.Default())
		cron.NewReportJobs(perfSvc, cfg.Cron.WarmUpInterval).RegisterJobs(scheduler)
		scheduler.Start()
		defer scheduler.Stop()
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "port", cfg.App.Port, "version", version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Open event streams never go idle, so they are closed forcibly once the
	// grace period ends.
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("graceful shutdown timed out, closing remaining connections", "error", err)
		return server.Close()
	}
	return nil
}
