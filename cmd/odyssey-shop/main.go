package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-shop/cmd/odyssey-shop/cli"
	"github.com/odyssey-erp/odyssey-shop/internal/app"
	"github.com/odyssey-erp/odyssey-shop/internal/auth"
	"github.com/odyssey-erp/odyssey-shop/internal/catalog"
	"github.com/odyssey-erp/odyssey-shop/internal/observability"
	"github.com/odyssey-erp/odyssey-shop/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-shop/internal/platform/db"
	"github.com/odyssey-erp/odyssey-shop/internal/platform/telemetry"
	"github.com/odyssey-erp/odyssey-shop/internal/purchases"
	"github.com/odyssey-erp/odyssey-shop/jobs"
	"github.com/odyssey-erp/odyssey-shop/web"
)

const usage = `usage: odyssey-shop [serve]
       odyssey-shop admin --email EMAIL [--name NAME --password PASSWORD] [--revoke]
       odyssey-shop jobs stats`

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping server startup")
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

	command := "serve"
	args := os.Args[1:]
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}
	switch command {
	case "serve":
		os.Exit(serve(ctx, stop, cfg, logger))
	case "admin":
		os.Exit(runAdmin(ctx, cfg, logger, args))
	case "jobs":
		os.Exit(runJobs(ctx, cfg, args))
	default:
		_, _ = fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
}

func serve(ctx context.Context, stop context.CancelFunc, cfg *app.Config, logger *slog.Logger) int {
	shutdownTracing := telemetry.Setup(ctx, telemetry.Options{
		ServiceName: cfg.OTelServiceName,
		Endpoint:    cfg.OTelExporterEndpoint,
		Insecure:    !cfg.IsProduction(),
	}, logger)
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("flush traces", slog.Any("error", err))
		}
	}()

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		return 1
	}
	defer pool.Close()

	if cfg.DBAutoMigrate {
		if err := db.Migrate(ctx, pool); err != nil {
			logger.Error("run migrations", slog.Any("error", err))
			return 1
		}
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, running without cache, revocation and jobs", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()

	issuer, err := auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL)
	if err != nil {
		logger.Error("init token issuer", slog.Any("error", err))
		return 1
	}
	var revocations *auth.RevocationList
	if cfg.RevokeOnSignout && redisClient != nil {
		revocations = auth.NewRevocationList(redisClient)
	}
	userRepo := auth.NewRepository(pool)
	authService := auth.NewService(userRepo, auth.NewPasswordHasher(cfg.BcryptCost), issuer, revocations)
	gate := auth.Gate{Auth: authService, Logger: logger, OnEvent: metrics.RecordAuth}
	authHandler := auth.NewHandler(logger, authService, gate, auth.CookieOptions{Secure: cfg.SecureCookies()})

	var catalogCache *catalog.Cache
	if redisClient != nil {
		catalogCache = catalog.NewCache(redisClient, cfg.CatalogCacheTTL)
	}
	catalogService := catalog.NewService(catalog.NewRepository(pool), catalog.DefaultImageOptimizer(), catalogCache, logger)
	catalogHandler := catalog.NewHandler(logger, catalogService, gate, cfg.UploadMaxBytes)

	var (
		receipts   purchases.ReceiptEnqueuer
		jobHandler *jobs.Handler
	)
	if redisClient != nil {
		redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
		jobClient := jobs.NewClient(redisOpts)
		defer func() { _ = jobClient.Close() }()
		inspector := asynq.NewInspector(redisOpts)
		defer func() { _ = inspector.Close() }()
		receipts = jobClient
		jobHandler = jobs.NewHandler(inspector, logger)
	} else {
		jobHandler = jobs.NewHandler(nil, logger)
	}
	purchaseService := purchases.NewService(purchases.NewRepository(pool), userRepo, catalogService, receipts, logger)
	purchasesHandler := purchases.NewHandler(logger, purchaseService, gate)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AuthHandler:      authHandler,
		CatalogHandler:   catalogHandler,
		PurchasesHandler: purchasesHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
		Frontend:         web.Dist(),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      telemetry.Handler(router, "odyssey-shop"),
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
		return 1
	}
	return 0
}

func runAdmin(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string) int {
	opts, err := cli.ParseAdminFlags(args, os.Stderr)
	if err != nil {
		return 2
	}
	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		return 1
	}
	defer pool.Close()
	if cfg.DBAutoMigrate {
		if err := db.Migrate(ctx, pool); err != nil {
			logger.Error("run migrations", slog.Any("error", err))
			return 1
		}
	}
	return cli.NewAdminCLI(auth.NewRepository(pool), auth.NewPasswordHasher(cfg.BcryptCost)).Command(ctx, opts)
}

func runJobs(ctx context.Context, cfg *app.Config, args []string) int {
	if len(args) == 0 || args[0] != "stats" {
		_, _ = fmt.Fprintln(os.Stderr, usage)
		return 2
	}
	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() { _ = inspector.Close() }()
	return cli.NewJobsCLI(inspector).StatsCommand(ctx, os.Stdout, os.Stderr)
}
