package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"log/slog"

	"github.com/stocksage/stocksage/internal/advisor"
	"github.com/stocksage/stocksage/internal/auth"
	"github.com/stocksage/stocksage/internal/database"
	"github.com/stocksage/stocksage/internal/marketdata"
	"github.com/stocksage/stocksage/internal/metrics"
	"github.com/stocksage/stocksage/internal/models"
	"github.com/stocksage/stocksage/internal/portfolio"
)

// Handler serves the advice, trading, and market data endpoints.
type Handler struct {
	pipeline   *advisor.Pipeline
	strategist *advisor.Strategist
	portfolio  *portfolio.Service
	quotes     marketdata.QuoteProvider
	universe   models.Universe
	metrics    *metrics.Collector
	logger     *slog.Logger
}

// NewHandler creates the API handler. The metrics collector may be nil.
func NewHandler(pipeline *advisor.Pipeline, strategist *advisor.Strategist, portfolioSvc *portfolio.Service, quotes marketdata.QuoteProvider, universe models.Universe, collector *metrics.Collector, logger *slog.Logger) *Handler {
	return &Handler{
		pipeline:   pipeline,
		strategist: strategist,
		portfolio:  portfolioSvc,
		quotes:     quotes,
		universe:   universe,
		metrics:    collector,
		logger:     logger,
	}
}

// AdviceRequest carries the user's free-text investment preferences.
type AdviceRequest struct {
	Preferences string `json:"preferences"`
}

// Advice handles POST /api/advice. The response always carries at least one
// recommendation, so the status is 200 even when the pipeline degrades.
func (h *Handler) Advice(w http.ResponseWriter, r *http.Request) {
	var req AdviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	advice := h.pipeline.Advise(r.Context(), req.Preferences)
	h.metrics.RecordRecommendations(len(advice.Recommendations))

	writeJSON(w, http.StatusOK, advice, h.logger)
}

// StrategyResponse is the ranked strategist output: up to three picks by
// score, plus the single best trade that fits the budget when one exists.
type StrategyResponse struct {
	Recommendations []models.Recommendation `json:"recommendations"`
	Best            *models.Recommendation  `json:"best,omitempty"`
}

// Strategy handles POST /api/strategy. The strategist variant accepts Hold
// and caps quantities, so its picks differ from the advice pipeline's.
func (h *Handler) Strategy(w http.ResponseWriter, r *http.Request) {
	var req AdviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	persona := h.pipeline.ParsePersona(r.Context(), req.Preferences)
	recs := h.strategist.Recommend(r.Context(), persona)
	h.metrics.RecordRecommendations(len(recs))

	resp := StrategyResponse{Recommendations: recs}
	if best, ok := h.strategist.SelectBest(recs, persona.InvestmentAmount); ok {
		resp.Best = &best
	}

	writeJSON(w, http.StatusOK, resp, h.logger)
}

// TradeValidationRequest pairs a recommendation with the preference text it
// was generated for.
type TradeValidationRequest struct {
	Recommendation models.Recommendation `json:"recommendation"`
	Preferences    string                `json:"preferences"`
}

// ValidateTrade handles POST /api/trades/validate.
func (h *Handler) ValidateTrade(w http.ResponseWriter, r *http.Request) {
	var req TradeValidationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Recommendation.Symbol == "" {
		http.Error(w, "Recommendation symbol is required", http.StatusBadRequest)
		return
	}

	persona := h.pipeline.ParsePersona(r.Context(), req.Preferences)
	verdict := h.pipeline.ValidateTrade(r.Context(), req.Recommendation, persona)

	writeJSON(w, http.StatusOK, verdict, h.logger)
}

// TradeRequest is a simulated trade order. The execution price is always the
// current quote; any client-supplied price is ignored.
type TradeRequest struct {
	Symbol   string           `json:"symbol"`
	Type     models.TradeType `json:"type"`
	Quantity float64          `json:"quantity"`
}

// ExecuteTrade handles POST /api/trades (authenticated).
func (h *Handler) ExecuteTrade(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if !h.universe.Contains(req.Symbol) {
		http.Error(w, "Symbol is not in the allowed list", http.StatusBadRequest)
		return
	}

	quote, err := h.quotes.GetQuote(r.Context(), req.Symbol)
	if err != nil || quote.CurrentPrice <= 0 {
		h.logger.Warn("quote unavailable for trade", "symbol", req.Symbol, "error", err)
		http.Error(w, "Could not get a valid price for symbol", http.StatusBadGateway)
		return
	}

	trade, err := h.portfolio.ExecuteTrade(r.Context(), userID, req.Symbol, req.Type, req.Quantity, quote.CurrentPrice)
	if err != nil {
		switch {
		case errors.Is(err, portfolio.ErrInvalidTrade):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, database.ErrInsufficientBalance):
			http.Error(w, "Insufficient balance", http.StatusUnprocessableEntity)
		default:
			h.logger.Error("trade execution failed", "user_id", userID, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.metrics.RecordTrade(string(trade.Type))
	writeJSON(w, http.StatusCreated, trade, h.logger)
}

// PortfolioResponse is the authenticated user's balance and trade history.
type PortfolioResponse struct {
	Balance float64        `json:"balance"`
	Trades  []models.Trade `json:"trades"`
}

// Portfolio handles GET /api/portfolio (authenticated).
func (h *Handler) Portfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	balance, err := h.portfolio.Balance(r.Context(), userID)
	if err != nil {
		h.logger.Error("balance lookup failed", "user_id", userID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	trades, err := h.portfolio.Portfolio(r.Context(), userID)
	if err != nil {
		h.logger.Error("portfolio lookup failed", "user_id", userID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if trades == nil {
		trades = []models.Trade{}
	}

	writeJSON(w, http.StatusOK, PortfolioResponse{Balance: balance, Trades: trades}, h.logger)
}

// Leaderboard handles GET /api/leaderboard.
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.portfolio.Leaderboard(r.Context())
	if err != nil {
		h.logger.Error("leaderboard lookup failed", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}

	writeJSON(w, http.StatusOK, entries, h.logger)
}

// Quotes handles GET /api/quotes. With ?symbol= it returns one quote;
// without, quotes for the whole allow-list. Symbols with no data are
// omitted rather than failing the response.
func (h *Handler) Quotes(w http.ResponseWriter, r *http.Request) {
	if symbol := r.URL.Query().Get("symbol"); symbol != "" {
		if !h.universe.Contains(symbol) {
			http.Error(w, "Symbol is not in the allowed list", http.StatusBadRequest)
			return
		}
		quote, err := h.quotes.GetQuote(r.Context(), symbol)
		if err != nil || quote.IsZero() {
			http.Error(w, "Quote unavailable", http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, quote, h.logger)
		return
	}

	quotes := make([]models.Quote, 0, len(h.universe))
	for _, symbol := range h.universe {
		quote, err := h.quotes.GetQuote(r.Context(), symbol)
		if err != nil || quote.IsZero() {
			continue
		}
		quotes = append(quotes, quote)
	}
	sort.Slice(quotes, func(i, j int) bool { return quotes[i].Symbol < quotes[j].Symbol })

	writeJSON(w, http.StatusOK, quotes, h.logger)
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
