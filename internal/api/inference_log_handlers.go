package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"log/slog"

	"github.com/stocksage/stocksage/internal/models"
)

// defaultLogLimit bounds an unfiltered admin log listing.
const defaultLogLimit = 100

// InferenceLogStore is the model-call accounting persistence the admin
// surface reads.
type InferenceLogStore interface {
	List(ctx context.Context, query models.InferenceLogQuery) ([]models.InferenceLog, error)
	GetStats(ctx context.Context, startDate, endDate *time.Time) (*models.InferenceLogStats, error)
}

// InferenceLogHandler serves the model-call accounting admin endpoints.
type InferenceLogHandler struct {
	store  InferenceLogStore
	logger *slog.Logger
}

// NewInferenceLogHandler creates a new handler
func NewInferenceLogHandler(store InferenceLogStore, logger *slog.Logger) *InferenceLogHandler {
	return &InferenceLogHandler{
		store:  store,
		logger: logger,
	}
}

// List handles GET /api/admin/inference-logs (authenticated).
func (h *InferenceLogHandler) List(w http.ResponseWriter, r *http.Request) {
	query := models.InferenceLogQuery{
		Provider:  r.URL.Query().Get("provider"),
		Model:     r.URL.Query().Get("model"),
		Operation: r.URL.Query().Get("operation"),
		Status:    r.URL.Query().Get("status"),
		Limit:     defaultLogLimit,
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			query.Limit = limit
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			query.Offset = offset
		}
	}
	query.StartDate = parseDateParam(r, "start_date")
	query.EndDate = parseDateParam(r, "end_date")

	logs, err := h.store.List(r.Context(), query)
	if err != nil {
		h.logger.Error("failed to list inference logs", "error", err)
		http.Error(w, "Failed to list inference logs", http.StatusInternalServerError)
		return
	}
	if logs == nil {
		logs = []models.InferenceLog{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"logs":   logs,
		"limit":  query.Limit,
		"offset": query.Offset,
	}, h.logger)
}

// Stats handles GET /api/admin/inference-logs/stats (authenticated).
func (h *InferenceLogHandler) Stats(w http.ResponseWriter, r *http.Request) {
	startDate := parseDateParam(r, "start_date")
	endDate := parseDateParam(r, "end_date")

	stats, err := h.store.GetStats(r.Context(), startDate, endDate)
	if err != nil {
		h.logger.Error("failed to get inference stats", "error", err)
		http.Error(w, "Failed to get inference stats", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, stats, h.logger)
}

// parseDateParam reads an RFC3339 query parameter; malformed or absent
// values are ignored.
func parseDateParam(r *http.Request, name string) *time.Time {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &parsed
}
