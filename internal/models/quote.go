package models

// Quote is a market snapshot for a single symbol. Supplied externally; the
// pipeline treats it as read-only input keyed by symbol. A provider that
// cannot resolve a symbol returns the all-zero sentinel, never an absent value.
type Quote struct {
	Symbol        string  `json:"symbol"`
	CurrentPrice  float64 `json:"current_price"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	PreviousClose float64 `json:"previous_close"`
}

// IsZero reports whether the quote is the unavailable-data sentinel.
func (q Quote) IsZero() bool {
	return q.CurrentPrice == 0 && q.High == 0 && q.Low == 0 && q.PreviousClose == 0
}
