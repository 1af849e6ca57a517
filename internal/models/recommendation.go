package models

// Action represents the recommended trade direction.
type Action string

const (
	ActionBuy  Action = "Buy"
	ActionSell Action = "Sell"
	ActionHold Action = "Hold"
	// ActionNone marks the synthetic placeholder emitted when no candidate
	// survives validation.
	ActionNone Action = "None"
)

// Sentiment classifies recent news coverage for a symbol.
type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNegative Sentiment = "Negative"
	SentimentNeutral  Sentiment = "Neutral"
)

// ValidSentiment reports whether s is one of the three recognized values.
func ValidSentiment(s Sentiment) bool {
	return s == SentimentPositive || s == SentimentNegative || s == SentimentNeutral
}

// Recommendation is a single validated trade suggestion. Field names keep the
// upper-case JSON keys the model is instructed to emit so raw candidates and
// validated output share a wire shape.
type Recommendation struct {
	Symbol        string    `json:"Symbol"`
	Company       string    `json:"Company"`
	Action        Action    `json:"Action"`
	Quantity      float64   `json:"Quantity"`
	CurrentPrice  float64   `json:"CurrentPrice"`
	TotalCost     float64   `json:"TotalCost"`
	Reason        string    `json:"Reason"`
	Caution       string    `json:"Caution"`
	NewsSentiment Sentiment `json:"NewsSentiment"`
	Score         int       `json:"Score"`
}

// ErrorRecommendation is the synthetic placeholder returned when validation
// filters out every candidate, so callers always receive a non-empty,
// schema-complete list.
func ErrorRecommendation() Recommendation {
	return Recommendation{
		Symbol:        "ERROR",
		Company:       "Error in Recommendation",
		Action:        ActionNone,
		Quantity:      0,
		CurrentPrice:  0.0,
		TotalCost:     0.0,
		Reason:        "Failed to generate valid recommendation",
		Caution:       "Please try again",
		NewsSentiment: SentimentNeutral,
		Score:         0,
	}
}

// Advice is the schema-complete pipeline result returned to callers. Every
// field is always present; Recommendations may hold the single ERROR
// placeholder but is never empty from the top-level entry point.
type Advice struct {
	Recommendations []Recommendation `json:"recommendations"`
	Insights        string           `json:"insights"`
	ReasoningSteps  []string         `json:"reasoning_steps"`
	ThinkingProcess []string         `json:"thinking_process"`
}

// TradeVerdict is the trade validator's decision for a single recommendation.
type TradeVerdict struct {
	Valid       bool     `json:"valid"`
	Explanation string   `json:"explanation"`
	Steps       []string `json:"steps"`
}
