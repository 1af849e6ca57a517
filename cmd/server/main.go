package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/stocksage/stocksage/internal/advisor"
	"github.com/stocksage/stocksage/internal/api"
	"github.com/stocksage/stocksage/internal/auth"
	"github.com/stocksage/stocksage/internal/config"
	"github.com/stocksage/stocksage/internal/database"
	"github.com/stocksage/stocksage/internal/inference"
	"github.com/stocksage/stocksage/internal/llm"
	"github.com/stocksage/stocksage/internal/logging"
	"github.com/stocksage/stocksage/internal/marketdata"
	"github.com/stocksage/stocksage/internal/metrics"
	"github.com/stocksage/stocksage/internal/persona"
	"github.com/stocksage/stocksage/internal/portfolio"
	"github.com/stocksage/stocksage/internal/server"

	"log/slog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting stocksage")

	if cfg.Auth.JWTSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}
	if cfg.OpenAI.APIKey == "" {
		logger.Warn("OPENAI_API_KEY not set, advice generation will degrade to defaults")
	}
	if cfg.MarketData.APIKey == "" {
		logger.Warn("FINNHUB_API_KEY not set, quotes will be unavailable")
	}

	dbConfig := database.DefaultConfig()
	dbConfig.URL = cfg.Database.URL

	logger.Info("connecting to database")
	db, err := database.Connect(context.Background(), dbConfig)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("database connected")

	// Run pending migrations (non-fatal to allow app to start even if migrations fail)
	if err := database.RunMigrations(db, cfg.Database.MigrationsDir, logger); err != nil {
		logger.Warn("failed to run migrations, continuing anyway", "error", err)
	}

	// Create repositories
	userRepo := database.NewUserRepository(db)
	tradeRepo := database.NewTradeRepository(db)
	inferenceLogRepo := database.NewInferenceLogRepository(db)

	// Model call accounting
	inferenceLogger := inference.NewLogger(inferenceLogRepo, logger)

	collector, err := metrics.NewCollector()
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}

	// Market data: Finnhub behind a TTL cache. The raw client also serves
	// news sentiment, which the cache does not intercept.
	finnhub := marketdata.NewFinnhubClient(cfg.MarketData, logger)
	quotes := marketdata.NewQuoteCache(finnhub, cfg.MarketData.CacheTTL)

	// Advice pipeline
	completer := llm.NewClient(cfg.OpenAI, logger, inferenceLogger, collector)
	parser := persona.NewParser(completer, logger)
	generator := advisor.NewGenerator(completer, quotes, finnhub, cfg.Advisor.Universe, logger)
	validator := advisor.NewValidator(cfg.Advisor.Universe, advisor.DefaultPolicy(), quotes, logger)
	tradeValidator := advisor.NewTradeValidator(completer, quotes, cfg.Advisor.Universe, logger)
	pipeline := advisor.NewPipeline(parser, generator, validator, tradeValidator, logger)

	// Ranked strategist variant: Hold allowed, capped quantities.
	strategistValidator := advisor.NewValidator(cfg.Advisor.Universe, advisor.StrategistPolicy(), quotes, logger)
	strategist := advisor.NewStrategist(generator, strategistValidator, logger)

	// Account and trading services
	portfolioSvc := portfolio.NewService(tradeRepo, userRepo, logger)
	authSvc := auth.NewService(userRepo, cfg.Auth, cfg.Advisor.StartingBalance, logger)

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := database.HealthCheck(r.Context(), db); err != nil {
			logger.Error("health check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unhealthy"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":   "ok",
			"database": database.Stats(db),
		})
	})

	mux.Handle("/metrics", collector.Handler())

	logger.Info("setting up REST API",
		"universe_size", len(cfg.Advisor.Universe),
		"starting_balance", cfg.Advisor.StartingBalance)
	api.SetupRoutes(mux, pipeline, strategist, portfolioSvc, authSvc, quotes, cfg.Advisor.Universe, inferenceLogRepo, cfg.Auth, collector, logger)

	// Wrap with SPA middleware to serve the frontend for non-API routes
	handler := server.SPAMiddleware(collector.InstrumentHandler(mux), "./web/dist", "./web/dist/index.html")

	srv := server.New(cfg.Server, logger, handler)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("stocksage started successfully")
	logger.Info("API available", "url", fmt.Sprintf("http://localhost:%s", cfg.Server.Port))

	waitForSignal(logger)

	logger.Info("shutting down")
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}

func waitForSignal(logger *slog.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	sig := <-c
	logger.Info("received signal", "signal", sig.String())
	signal.Stop(c)
	close(c)
}
