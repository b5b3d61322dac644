package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/budgetly/backend/internal/infra/gateway/gemini"
	"github.com/budgetly/backend/internal/infra/gateway/openai"
	"github.com/budgetly/backend/internal/infra/postgres"
	infraRedis "github.com/budgetly/backend/internal/infra/redis"
	"github.com/budgetly/backend/internal/module/assistant"
	"github.com/budgetly/backend/internal/module/export"
	"github.com/budgetly/backend/internal/platform/category"
	"github.com/budgetly/backend/internal/platform/debt"
	"github.com/budgetly/backend/internal/platform/transaction"
	"github.com/budgetly/backend/internal/transport/httpapi"
	"github.com/budgetly/backend/internal/transport/httpapi/handler"
	"github.com/budgetly/backend/internal/transport/httpapi/middleware"
	"github.com/budgetly/backend/pkg/config"
	"github.com/budgetly/backend/pkg/logger"
)

func main() {
	// Create context that listens for termination signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewDefault(cfg.Env)
	log.Info("Starting Budgetly API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	// Initialize database connection pool
	db, err := postgres.NewPool(ctx, postgres.Config{
		URL:      cfg.DatabaseURL,
		MaxConns: int32(cfg.DBMaxConns),
	})
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("Database connection established")

	// Optional Redis balance cache. Interface values stay nil when disabled.
	var (
		balanceCache debt.BalanceCache
		cachePinger  handler.Pinger
	)
	if cfg.RedisURL != "" {
		redisClient, err := infraRedis.NewClient(ctx, cfg.RedisURL, cfg.RedisPassword)
		if err != nil {
			log.Warn("Redis unavailable, balance cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			c := infraRedis.NewBalanceCache(redisClient, cfg.BalanceCacheTTL, log)
			balanceCache, cachePinger = c, c
			log.Info("Balance cache enabled", "ttl", cfg.BalanceCacheTTL)
		}
	} else {
		log.Info("REDIS_URL not configured, balance cache disabled")
	}

	// Initialize repositories
	debtRepo := postgres.NewDebtRepository(db.Pool)
	transactionRepo := postgres.NewTransactionRepository(db.Pool)
	categoryRepo := postgres.NewCategoryRepository(db.Pool)

	// Initialize services
	categorySvc := category.NewService(categoryRepo)
	transactionSvc := transaction.NewService(transactionRepo)
	debtSvc := debt.NewService(debtRepo, transactionRepo, categorySvc, balanceCache, log)
	exporter := export.NewExporter(debtSvc)

	// Optional assistant provider
	var generator assistant.Generator
	switch cfg.AIProvider {
	case "openai":
		generator = openai.NewClient(cfg.AIAPIKey, cfg.AIModel, log)
	case "gemini":
		client, err := gemini.NewClient(ctx, cfg.AIAPIKey, cfg.AIModel, log)
		if err != nil {
			log.Warn("Gemini client unavailable, assistant disabled", "error", err)
			break
		}
		defer client.Close()
		generator = client
	}
	assistantSvc := assistant.NewService(debtSvc, generator, log)
	if assistantSvc.Enabled() {
		log.Info("Assistant enabled", "provider", generator.Name())
	}

	// Identity: bearer tokens when a secret is configured, otherwise a fixed owner
	identity := middleware.FixedOwner(cfg.DefaultOwnerID)
	if cfg.JWTSecret != "" {
		identity = middleware.BearerOwner(middleware.NewTokenVerifier(cfg.JWTSecret))
		log.Info("Bearer token identity enabled")
	} else {
		log.Info("Acting for fixed owner", "owner_id", cfg.DefaultOwnerID)
	}

	// Create HTTP router
	r := httpapi.NewRouter(httpapi.Config{
		Logger:             log,
		AllowedOrigins:     cfg.AllowedOrigins,
		DebtHandler:        handler.NewDebtHandler(debtSvc, exporter),
		TransactionHandler: handler.NewTransactionHandler(transactionSvc),
		CategoryHandler:    handler.NewCategoryHandler(categorySvc),
		AssistantHandler:   handler.NewAssistantHandler(assistantSvc),
		HealthHandler:      handler.NewHealthHandler(db, cachePinger),
		Identity:           identity,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for termination signal
	<-ctx.Done()
	log.Info("Shutdown signal received")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("Server stopped gracefully")
}
