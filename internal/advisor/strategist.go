package advisor

import (
	"context"
	"log/slog"
	"sort"

	"github.com/stocksage/stocksage/internal/models"
)

// Strategist is the ranking entry point: it generates and validates under
// the strategist policy (Hold allowed, 50-share ceiling), keeps the top
// candidates by score, and can select a single best trade within budget.
type Strategist struct {
	generator *Generator
	validator *Validator
	logger    *slog.Logger
}

// topRecommendations is how many ranked picks Recommend returns at most.
const topRecommendations = 3

// NewStrategist wires a strategist from its generator and a
// StrategistPolicy validator.
func NewStrategist(generator *Generator, validator *Validator, logger *slog.Logger) *Strategist {
	return &Strategist{
		generator: generator,
		validator: validator,
		logger:    logger,
	}
}

// Recommend produces up to three validated recommendations ranked by score.
// Like the pipeline entry point, the list is never empty; total failure
// yields the single ERROR placeholder.
func (s *Strategist) Recommend(ctx context.Context, p models.Persona) []models.Recommendation {
	generated := s.generator.Generate(ctx, p)
	validated := s.validator.Validate(ctx, generated.Candidates, p)

	sort.SliceStable(validated, func(i, j int) bool {
		return validated[i].Score > validated[j].Score
	})
	if len(validated) > topRecommendations {
		validated = validated[:topRecommendations]
	}

	s.logger.Info("[STRATEGIST COMPLETE]", "picks", len(validated))
	return validated
}

// SelectBest returns the highest-scoring recommendation whose cost fits the
// budget. Hold recommendations cost nothing and always fit. The placeholder
// is never selected.
func (s *Strategist) SelectBest(recs []models.Recommendation, budget float64) (models.Recommendation, bool) {
	best := models.Recommendation{Score: -1}
	found := false
	for _, rec := range recs {
		if rec.Symbol == "ERROR" {
			continue
		}
		if rec.Action == models.ActionBuy && rec.TotalCost > budget {
			continue
		}
		if rec.Score > best.Score {
			best = rec
			found = true
		}
	}
	return best, found
}
