package models

import "time"

// TradeType is the direction of an executed virtual trade.
type TradeType string

const (
	TradeBuy  TradeType = "buy"
	TradeSell TradeType = "sell"
)

// Trade is an executed virtual transaction against a user's paper balance.
type Trade struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Symbol    string    `json:"symbol"`
	Type      TradeType `json:"type"`
	Quantity  float64   `json:"quantity"`
	Price     float64   `json:"price"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}
