package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/user/buysmart-service/internal/adapter/chromedp_fetcher"
	"github.com/user/buysmart-service/internal/adapter/postgres"
	redis_adapter "github.com/user/buysmart-service/internal/adapter/redis"
	"github.com/user/buysmart-service/internal/agent"
	"github.com/user/buysmart-service/internal/delivery/http/handler"
	"github.com/user/buysmart-service/internal/delivery/http/router"
	"github.com/user/buysmart-service/internal/llm"
	"github.com/user/buysmart-service/internal/usecase"
	"github.com/user/buysmart-service/pkg/config"
	"github.com/user/buysmart-service/pkg/logger"
	"github.com/user/buysmart-service/pkg/metrics"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Unable to load configuration", "error", err)
		os.Exit(1)
	}

	// --- Logger ---
	logLevel := logger.ParseLevel(cfg.LogLevel)
	logger.Init(os.Stdout, logLevel)
	slog.Info("Logger initialized", "level", logLevel.String())

	// --- Metrics ---
	metrics.Init()
	slog.Info("Metrics initialized")

	// --- Database Connections ---
	ctx := context.Background()

	dbpool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		slog.Error("Unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	if err := postgres.Bootstrap(ctx, dbpool); err != nil {
		slog.Error("Unable to bootstrap database schema", "error", err)
		os.Exit(1)
	}
	slog.Info("PostgreSQL connection pool established")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		slog.Error("Unable to connect to Redis", "error", err)
		os.Exit(1)
	}
	slog.Info("Redis connection established")

	// --- Repositories ---
	queryRepo := postgres.NewQueryRepo(dbpool)
	sessionRepo := postgres.NewSessionRepo(dbpool)
	productRepo := postgres.NewProductRepo(dbpool)
	comparisonRepo := postgres.NewComparisonRepo(dbpool)
	guardRepo := redis_adapter.NewGuardRepo(rdb)

	fetcher, err := chromedp_fetcher.NewChromedpFetcher(cfg.BrowserPoolSize, cfg.PageLoadTimeout())
	if err != nil {
		slog.Error("Unable to start browser pool", "error", err)
		os.Exit(1)
	}

	// --- LLM Agents ---
	llmClient, err := llm.New(cfg)
	if err != nil {
		slog.Error("Unable to create LLM client", "error", err)
		os.Exit(1)
	}
	parser := agent.NewQueryParser(llmClient)
	crawler := agent.NewProductCrawler(fetcher, llmClient, cfg.CrawlDelay())
	ranker := agent.NewProductRanker(llmClient)

	// --- Use Cases ---
	queryManager := usecase.NewQueryUseCase(queryRepo, sessionRepo, productRepo, comparisonRepo)
	pipeline := usecase.NewPipelineUseCase(
		queryRepo, sessionRepo, productRepo, comparisonRepo, guardRepo,
		parser, crawler, ranker, cfg.ProcessingGuardTTL(),
	)

	// --- HTTP Server ---
	apiHandler := handler.NewHandler(
		queryManager,
		pipeline,
		dbpool.Ping,
		func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	)
	httpRouter := router.New(apiHandler)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      httpRouter,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Starting server", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not listen on port", "port", cfg.ServerPort, "error", err)
			os.Exit(1)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	slog.Info("Server stopped")
}
