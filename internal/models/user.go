package models

import "time"

// User is a registered account with a virtual trading balance.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Balance      float64   `json:"balance"`
	CreatedAt    time.Time `json:"created_at"`
}

// LeaderboardEntry is one row of the balance ranking. Only users with at
// least one executed trade appear on the board. The exact balance never
// leaves the server; rendering uses the masked form.
type LeaderboardEntry struct {
	Rank          int     `json:"rank"`
	Username      string  `json:"username"`
	Balance       float64 `json:"-"`
	MaskedBalance string  `json:"masked_balance"`
	Trades        int     `json:"trades"`
}
