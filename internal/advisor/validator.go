package advisor

import (
	"context"
	"log/slog"
	"math"

	"github.com/stocksage/stocksage/internal/marketdata"
	"github.com/stocksage/stocksage/internal/models"
	"github.com/stocksage/stocksage/internal/numeric"
)

// Policy configures which actions a validator accepts and an optional hard
// quantity ceiling.
type Policy struct {
	Actions []models.Action
	// MaxQuantity caps a single recommendation's share count; 0 means no cap.
	MaxQuantity float64
}

// DefaultPolicy accepts Buy and Sell with no quantity ceiling.
func DefaultPolicy() Policy {
	return Policy{Actions: []models.Action{models.ActionBuy, models.ActionSell}}
}

// StrategistPolicy additionally accepts Hold and caps quantity at 50 shares.
func StrategistPolicy() Policy {
	return Policy{
		Actions:     []models.Action{models.ActionBuy, models.ActionSell, models.ActionHold},
		MaxQuantity: 50,
	}
}

// Validator repairs and filters raw model candidates into trustworthy
// recommendations. Absent fields are backfilled from a default template;
// invalid fields drop the candidate. Prices are always re-resolved from the
// quote source, never taken from the model.
type Validator struct {
	universe models.Universe
	policy   Policy
	quotes   marketdata.QuoteProvider
	logger   *slog.Logger
}

// NewValidator creates a validator over the given allow-list and policy.
func NewValidator(universe models.Universe, policy Policy, quotes marketdata.QuoteProvider, logger *slog.Logger) *Validator {
	return &Validator{
		universe: universe,
		policy:   policy,
		quotes:   quotes,
		logger:   logger,
	}
}

// Validate processes every candidate independently. When zero candidates
// survive it returns the single ERROR placeholder so callers always get a
// non-empty, schema-complete list.
func (v *Validator) Validate(ctx context.Context, candidates []map[string]any, p models.Persona) []models.Recommendation {
	validated := make([]models.Recommendation, 0, len(candidates))
	for _, raw := range candidates {
		if rec, ok := v.validateOne(ctx, raw, p); ok {
			validated = append(validated, rec)
		}
	}

	if len(validated) == 0 {
		v.logger.Warn("no candidates survived validation, emitting placeholder",
			"candidates", len(candidates))
		return []models.Recommendation{models.ErrorRecommendation()}
	}
	return validated
}

// validateOne backfills, checks, and repairs a single candidate.
func (v *Validator) validateOne(ctx context.Context, raw map[string]any, p models.Persona) (models.Recommendation, bool) {
	rec := models.Recommendation{
		Symbol:        stringOr(raw, "Symbol", ""),
		Company:       stringOr(raw, "Company", "Unknown Company"),
		Action:        models.Action(stringOr(raw, "Action", "None")),
		Reason:        stringOr(raw, "Reason", "No reason provided"),
		Caution:       stringOr(raw, "Caution", "No caution provided"),
		NewsSentiment: models.Sentiment(stringOr(raw, "NewsSentiment", "Neutral")),
	}

	quantity, ok := numberOr(raw, "Quantity", 0)
	if !ok {
		v.logger.Warn("dropping candidate with non-numeric quantity", "symbol", rec.Symbol)
		return models.Recommendation{}, false
	}
	score, ok := numberOr(raw, "Score", 0)
	if !ok {
		v.logger.Warn("dropping candidate with non-numeric score", "symbol", rec.Symbol)
		return models.Recommendation{}, false
	}
	rec.Quantity = quantity
	rec.Score = int(score)

	if !v.universe.Contains(rec.Symbol) {
		v.logger.Warn("dropping candidate with disallowed symbol", "symbol", rec.Symbol)
		return models.Recommendation{}, false
	}
	if !v.allowedAction(rec.Action) {
		v.logger.Warn("dropping candidate with invalid action",
			"symbol", rec.Symbol, "action", rec.Action)
		return models.Recommendation{}, false
	}
	if rec.Score < 0 || rec.Score > 100 {
		v.logger.Warn("dropping candidate with out-of-range score",
			"symbol", rec.Symbol, "score", rec.Score)
		return models.Recommendation{}, false
	}
	if !models.ValidSentiment(rec.NewsSentiment) {
		v.logger.Warn("dropping candidate with invalid sentiment",
			"symbol", rec.Symbol, "sentiment", rec.NewsSentiment)
		return models.Recommendation{}, false
	}

	// Authoritative price comes from the quote source, not the model.
	quote, err := v.quotes.GetQuote(ctx, rec.Symbol)
	if err != nil || quote.CurrentPrice <= 0 {
		v.logger.Warn("dropping candidate without a valid price",
			"symbol", rec.Symbol, "error", err)
		return models.Recommendation{}, false
	}
	price := quote.CurrentPrice

	if rec.Quantity <= 0 {
		v.logger.Warn("dropping candidate with non-positive quantity",
			"symbol", rec.Symbol, "quantity", rec.Quantity)
		return models.Recommendation{}, false
	}
	if v.policy.MaxQuantity > 0 && rec.Quantity > v.policy.MaxQuantity {
		v.logger.Info("capping quantity at policy ceiling",
			"symbol", rec.Symbol,
			"quantity", rec.Quantity,
			"ceiling", v.policy.MaxQuantity)
		rec.Quantity = v.policy.MaxQuantity
	}

	totalCost := price * rec.Quantity
	if totalCost > p.InvestmentAmount {
		clamped := math.Floor((p.InvestmentAmount/price)*100) / 100
		v.logger.Info("clamping quantity to fit budget",
			"symbol", rec.Symbol,
			"quantity", rec.Quantity,
			"clamped", clamped,
			"budget", p.InvestmentAmount)
		if clamped <= 0 {
			return models.Recommendation{}, false
		}
		rec.Quantity = clamped
		totalCost = price * rec.Quantity
	}

	rec.CurrentPrice = price
	rec.TotalCost = totalCost
	return rec, true
}

func (v *Validator) allowedAction(action models.Action) bool {
	for _, a := range v.policy.Actions {
		if a == action {
			return true
		}
	}
	return false
}

func stringOr(raw map[string]any, key, def string) string {
	if s, ok := raw[key].(string); ok && s != "" {
		return s
	}
	return def
}

// numberOr returns the default when the key is absent, and reports failure
// only when a present value cannot be converted to a number.
func numberOr(raw map[string]any, key string, def float64) (float64, bool) {
	value, present := raw[key]
	if !present || value == nil {
		return def, true
	}
	n := numeric.ToFloatDefault(value, math.NaN())
	if math.IsNaN(n) {
		return 0, false
	}
	return n, true
}
