package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestConnect_RequiresURL(t *testing.T) {
	_, err := Connect(context.Background(), DefaultConfig())
	if err == nil {
		t.Fatal("expected an error for an empty database URL")
	}
}

func TestStats(t *testing.T) {
	// sql.Open does not dial, so pool stats are readable without a server.
	db, err := sql.Open("postgres", "postgres://localhost/stocksage?sslmode=disable")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	stats := Stats(db)
	for _, key := range []string{
		"max_open_connections", "open_connections", "in_use", "idle",
		"wait_count", "wait_duration_ms", "max_idle_closed", "max_lifetime_closed",
	} {
		if _, ok := stats[key]; !ok {
			t.Errorf("stats missing key %q", key)
		}
	}
}

func TestIsUniqueViolation(t *testing.T) {
	wrapped := fmt.Errorf("failed to create user: %w", &pq.Error{Code: "23505"})
	if !isUniqueViolation(wrapped) {
		t.Error("wrapped 23505 should be detected")
	}
	if isUniqueViolation(&pq.Error{Code: "23503"}) {
		t.Error("foreign key violation is not a unique violation")
	}
	if isUniqueViolation(errors.New("duplicate key value")) {
		t.Error("plain errors should not match")
	}
}
