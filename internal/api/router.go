package api

import (
	"net/http"

	"log/slog"

	"github.com/stocksage/stocksage/internal/advisor"
	"github.com/stocksage/stocksage/internal/auth"
	"github.com/stocksage/stocksage/internal/config"
	"github.com/stocksage/stocksage/internal/marketdata"
	"github.com/stocksage/stocksage/internal/metrics"
	"github.com/stocksage/stocksage/internal/models"
	"github.com/stocksage/stocksage/internal/portfolio"
)

// SetupRoutes configures all API routes
func SetupRoutes(mux *http.ServeMux, pipeline *advisor.Pipeline, strategist *advisor.Strategist, portfolioSvc *portfolio.Service, authSvc *auth.Service, quotes marketdata.QuoteProvider, universe models.Universe, logStore InferenceLogStore, authConfig config.AuthConfig, collector *metrics.Collector, logger *slog.Logger) {
	handler := NewHandler(pipeline, strategist, portfolioSvc, quotes, universe, collector, logger)
	authHandler := NewAuthHandler(authSvc, logger)
	logHandler := NewInferenceLogHandler(logStore, logger)

	authMiddleware := auth.Middleware(authConfig)

	// Authentication routes (public)
	mux.HandleFunc("/api/auth/register", withCORS("POST", requireMethod(http.MethodPost, authHandler.Register)))
	mux.HandleFunc("/api/auth/login", withCORS("POST", requireMethod(http.MethodPost, authHandler.Login)))
	mux.HandleFunc("/api/auth/me", withCORS("GET", func(w http.ResponseWriter, r *http.Request) {
		authMiddleware(http.HandlerFunc(requireMethod(http.MethodGet, authHandler.Me))).ServeHTTP(w, r)
	}))

	// Advice pipeline routes (public)
	mux.HandleFunc("/api/advice", withCORS("POST", requireMethod(http.MethodPost, handler.Advice)))
	mux.HandleFunc("/api/strategy", withCORS("POST", requireMethod(http.MethodPost, handler.Strategy)))
	mux.HandleFunc("/api/trades/validate", withCORS("POST", requireMethod(http.MethodPost, handler.ValidateTrade)))

	// Market data routes (public)
	mux.HandleFunc("/api/quotes", withCORS("GET", requireMethod(http.MethodGet, handler.Quotes)))
	mux.HandleFunc("/api/leaderboard", withCORS("GET", requireMethod(http.MethodGet, handler.Leaderboard)))

	// Trading routes (authenticated)
	mux.HandleFunc("/api/trades", withCORS("POST", func(w http.ResponseWriter, r *http.Request) {
		authMiddleware(http.HandlerFunc(requireMethod(http.MethodPost, handler.ExecuteTrade))).ServeHTTP(w, r)
	}))
	mux.HandleFunc("/api/portfolio", withCORS("GET", func(w http.ResponseWriter, r *http.Request) {
		authMiddleware(http.HandlerFunc(requireMethod(http.MethodGet, handler.Portfolio))).ServeHTTP(w, r)
	}))

	// Model-call accounting routes (authenticated)
	mux.HandleFunc("/api/admin/inference-logs", withCORS("GET", func(w http.ResponseWriter, r *http.Request) {
		authMiddleware(http.HandlerFunc(requireMethod(http.MethodGet, logHandler.List))).ServeHTTP(w, r)
	}))
	mux.HandleFunc("/api/admin/inference-logs/stats", withCORS("GET", func(w http.ResponseWriter, r *http.Request) {
		authMiddleware(http.HandlerFunc(requireMethod(http.MethodGet, logHandler.Stats))).ServeHTTP(w, r)
	}))
}

// withCORS sets CORS headers and answers preflight requests before handing
// off to the route handler.
func withCORS(methods string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", methods+", OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next(w, r)
	}
}

func requireMethod(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}
