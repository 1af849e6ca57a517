package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stocksage/stocksage/internal/models"
)

// ErrInsufficientBalance is returned when a buy exceeds the user's balance.
var ErrInsufficientBalance = errors.New("insufficient balance")

// TradeRepository handles trade database operations
type TradeRepository struct {
	db *sql.DB
}

// NewTradeRepository creates a new trade repository
func NewTradeRepository(db *sql.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// Execute records a trade and adjusts the user's balance in one transaction.
// The balance check for buys happens inside the transaction with the row
// locked, so concurrent trades cannot overdraw.
func (r *TradeRepository) Execute(ctx context.Context, trade models.Trade) (*models.Trade, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var balance float64
	err = tx.QueryRowContext(ctx,
		`SELECT balance FROM users WHERE id = $1 FOR UPDATE`, trade.UserID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock user balance: %w", err)
	}

	change := trade.Amount
	if trade.Type == models.TradeBuy {
		if trade.Amount > balance {
			return nil, fmt.Errorf("buy of $%.2f against balance $%.2f: %w",
				trade.Amount, balance, ErrInsufficientBalance)
		}
		change = -trade.Amount
	}

	trade.ID = uuid.New().String()
	trade.CreatedAt = time.Now()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO trades (id, user_id, symbol, trade_type, quantity, price, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, trade.ID, trade.UserID, trade.Symbol, trade.Type, trade.Quantity, trade.Price, trade.Amount, trade.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert trade: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE users SET balance = balance + $1 WHERE id = $2`, change, trade.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit trade: %w", err)
	}

	return &trade, nil
}

// ListByUser retrieves all trades for a user, newest first.
func (r *TradeRepository) ListByUser(ctx context.Context, userID int64) ([]models.Trade, error) {
	query := `
		SELECT id, user_id, symbol, trade_type, quantity, price, amount, created_at
		FROM trades
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		var trade models.Trade
		err := rows.Scan(
			&trade.ID,
			&trade.UserID,
			&trade.Symbol,
			&trade.Type,
			&trade.Quantity,
			&trade.Price,
			&trade.Amount,
			&trade.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}

	return trades, nil
}
