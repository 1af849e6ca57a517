package portfolio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stocksage/stocksage/internal/models"
)

// leaderboardLimit caps how many ranked users the board shows.
const leaderboardLimit = 10

// ErrInvalidTrade is returned when a trade record fails validation before it
// reaches storage.
var ErrInvalidTrade = errors.New("invalid trade")

// TradeStore persists executed trades and applies the balance change.
type TradeStore interface {
	Execute(ctx context.Context, trade models.Trade) (*models.Trade, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Trade, error)
}

// UserStore reads balances and the ranked leaderboard rows.
type UserStore interface {
	GetBalance(ctx context.Context, userID int64) (float64, error)
	Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

// Service manages virtual balances: simulated trade execution, portfolio
// retrieval, and the masked leaderboard.
type Service struct {
	trades TradeStore
	users  UserStore
	logger *slog.Logger
}

// NewService creates a portfolio service.
func NewService(trades TradeStore, users UserStore, logger *slog.Logger) *Service {
	return &Service{
		trades: trades,
		users:  users,
		logger: logger,
	}
}

// ExecuteTrade validates and records a simulated trade. Buys are rejected by
// the store when the amount exceeds the user's balance; sells always credit.
func (s *Service) ExecuteTrade(ctx context.Context, userID int64, symbol string, tradeType models.TradeType, quantity, price float64) (*models.Trade, error) {
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", ErrInvalidTrade)
	}
	if tradeType != models.TradeBuy && tradeType != models.TradeSell {
		return nil, fmt.Errorf("%w: trade type must be buy or sell, got %q", ErrInvalidTrade, tradeType)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive, got %g", ErrInvalidTrade, quantity)
	}
	if price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive, got %g", ErrInvalidTrade, price)
	}

	amount := quantity * price
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive, got %g", ErrInvalidTrade, amount)
	}

	trade, err := s.trades.Execute(ctx, models.Trade{
		UserID:   userID,
		Symbol:   symbol,
		Type:     tradeType,
		Quantity: quantity,
		Price:    price,
		Amount:   amount,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute trade: %w", err)
	}

	s.logger.Info("[TRADE EXECUTED]",
		"user_id", userID,
		"symbol", symbol,
		"type", tradeType,
		"quantity", quantity,
		"amount", amount)

	return trade, nil
}

// Portfolio returns all trades for a user, newest first.
func (s *Service) Portfolio(ctx context.Context, userID int64) ([]models.Trade, error) {
	trades, err := s.trades.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}
	return trades, nil
}

// Balance returns the user's current virtual balance.
func (s *Service) Balance(ctx context.Context, userID int64) (float64, error) {
	return s.users.GetBalance(ctx, userID)
}

// Leaderboard returns the top users by balance with masked amounts. Users
// without trades never appear.
func (s *Service) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	entries, err := s.users.Leaderboard(ctx, leaderboardLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}

	for i := range entries {
		entries[i].MaskedBalance = MaskBalance(entries[i].Balance)
	}
	return entries, nil
}
