package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stocksage/stocksage/internal/advisor"
	"github.com/stocksage/stocksage/internal/auth"
	"github.com/stocksage/stocksage/internal/config"
	"github.com/stocksage/stocksage/internal/database"
	"github.com/stocksage/stocksage/internal/llm"
	"github.com/stocksage/stocksage/internal/models"
	"github.com/stocksage/stocksage/internal/persona"
	"github.com/stocksage/stocksage/internal/portfolio"
)

const testSecret = "test-secret"

type stubQuotes struct {
	prices map[string]float64
	err    error
}

func (s *stubQuotes) GetQuote(ctx context.Context, symbol string) (models.Quote, error) {
	if s.err != nil {
		return models.Quote{Symbol: symbol}, s.err
	}
	price := s.prices[symbol]
	return models.Quote{
		Symbol:        symbol,
		CurrentPrice:  price,
		High:          price * 1.02,
		Low:           price * 0.98,
		PreviousClose: price,
	}, nil
}

type memTradeStore struct {
	trades          []models.Trade
	insufficientFor float64
}

func (m *memTradeStore) Execute(ctx context.Context, trade models.Trade) (*models.Trade, error) {
	if m.insufficientFor > 0 && trade.Amount > m.insufficientFor {
		return nil, fmt.Errorf("buy rejected: %w", database.ErrInsufficientBalance)
	}
	trade.ID = fmt.Sprintf("trade-%d", len(m.trades)+1)
	trade.CreatedAt = time.Now()
	m.trades = append(m.trades, trade)
	return &trade, nil
}

func (m *memTradeStore) ListByUser(ctx context.Context, userID int64) ([]models.Trade, error) {
	var out []models.Trade
	for _, trade := range m.trades {
		if trade.UserID == userID {
			out = append(out, trade)
		}
	}
	return out, nil
}

type memUserStore struct {
	users   map[string]*models.User
	byID    map[int64]*models.User
	entries []models.LeaderboardEntry
	nextID  int64
}

func newMemUserStore() *memUserStore {
	return &memUserStore{
		users:  make(map[string]*models.User),
		byID:   make(map[int64]*models.User),
		nextID: 1,
	}
}

func (m *memUserStore) Create(ctx context.Context, username, email, passwordHash string, startingBalance float64) (*models.User, error) {
	if _, exists := m.users[username]; exists {
		return nil, database.ErrDuplicate
	}
	user := &models.User{
		ID:           m.nextID,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Balance:      startingBalance,
		CreatedAt:    time.Now(),
	}
	m.nextID++
	m.users[username] = user
	m.byID[user.ID] = user
	return user, nil
}

func (m *memUserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, ok := m.users[username]
	if !ok {
		return nil, database.ErrNotFound
	}
	return user, nil
}

func (m *memUserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user, ok := m.byID[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return user, nil
}

func (m *memUserStore) GetBalance(ctx context.Context, userID int64) (float64, error) {
	user, ok := m.byID[userID]
	if !ok {
		return 0, database.ErrNotFound
	}
	return user.Balance, nil
}

func (m *memUserStore) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if len(m.entries) > limit {
		return m.entries[:limit], nil
	}
	return m.entries, nil
}

type fakeLogStore struct {
	logs  []models.InferenceLog
	stats models.InferenceLogStats
}

func (f *fakeLogStore) List(ctx context.Context, query models.InferenceLogQuery) ([]models.InferenceLog, error) {
	if query.Limit > 0 && len(f.logs) > query.Limit {
		return f.logs[:query.Limit], nil
	}
	return f.logs, nil
}

func (f *fakeLogStore) GetStats(ctx context.Context, startDate, endDate *time.Time) (*models.InferenceLogStats, error) {
	stats := f.stats
	return &stats, nil
}

type testEnv struct {
	mux    *http.ServeMux
	users  *memUserStore
	trades *memTradeStore
	logs   *fakeLogStore
}

func newTestEnv(t *testing.T, mock *llm.MockCompleter) *testEnv {
	t.Helper()

	logger := slog.Default()
	quotes := &stubQuotes{prices: map[string]float64{"AAPL": 150.0, "MSFT": 300.0}}
	universe := models.DefaultUniverse()

	parser := persona.NewParser(mock, logger)
	generator := advisor.NewGenerator(mock, quotes, nil, universe, logger)
	validator := advisor.NewValidator(universe, advisor.DefaultPolicy(), quotes, logger)
	trades := advisor.NewTradeValidator(mock, quotes, universe, logger)
	pipeline := advisor.NewPipeline(parser, generator, validator, trades, logger)

	strategistValidator := advisor.NewValidator(universe, advisor.StrategistPolicy(), quotes, logger)
	strategist := advisor.NewStrategist(generator, strategistValidator, logger)

	tradeStore := &memTradeStore{}
	userStore := newMemUserStore()
	portfolioSvc := portfolio.NewService(tradeStore, userStore, logger)
	logStore := &fakeLogStore{}

	authCfg := config.AuthConfig{JWTSecret: testSecret, TokenTTL: time.Hour}
	authSvc := auth.NewService(userStore, authCfg, 100000.0, logger)

	mux := http.NewServeMux()
	SetupRoutes(mux, pipeline, strategist, portfolioSvc, authSvc, quotes, universe, logStore, authCfg, nil, logger)

	return &testEnv{mux: mux, users: userStore, trades: tradeStore, logs: logStore}
}

func (e *testEnv) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) registeredToken(t *testing.T) (int64, string) {
	t.Helper()
	user, err := e.users.Create(context.Background(), "trader", "t@t.com", "hash", 100000.0)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	token, err := auth.GenerateToken(user.ID, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return user.ID, token
}

const adviceReply = `{
	"recommendations": [
		{"Symbol": "AAPL", "Company": "Apple Inc.", "Action": "Buy", "Quantity": 2,
		 "Reason": "Momentum", "Caution": "Earnings", "NewsSentiment": "Positive", "Score": 85}
	],
	"insights": "Stay diversified."
}`

func TestAdviceEndpoint(t *testing.T) {
	// Call order: persona parse, thinking, recommend.
	env := newTestEnv(t, llm.NewMockCompleter("not json", "Inner Monologue: thinking.", adviceReply))

	rec := env.do(t, http.MethodPost, "/api/advice", `{"preferences": "growth with $10000"}`, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var advice models.Advice
	if err := json.Unmarshal(rec.Body.Bytes(), &advice); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(advice.Recommendations) != 1 || advice.Recommendations[0].Symbol != "AAPL" {
		t.Errorf("unexpected recommendations: %+v", advice.Recommendations)
	}
	if advice.Insights != "Stay diversified." {
		t.Errorf("Insights = %q", advice.Insights)
	}
}

func TestAdviceEndpoint_BadBody(t *testing.T) {
	env := newTestEnv(t, llm.NewMockCompleter())

	rec := env.do(t, http.MethodPost, "/api/advice", `{broken`, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/advice", "", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

const strategyReply = `{
	"recommendations": [
		{"Symbol": "AAPL", "Company": "Apple Inc.", "Action": "Buy", "Quantity": 2,
		 "Reason": "Momentum", "Caution": "Earnings", "NewsSentiment": "Positive", "Score": 70},
		{"Symbol": "MSFT", "Company": "Microsoft Corp.", "Action": "Buy", "Quantity": 30,
		 "Reason": "Cloud growth", "Caution": "Valuation", "NewsSentiment": "Neutral", "Score": 90}
	],
	"insights": "Large caps lead."
}`

func TestStrategyEndpoint(t *testing.T) {
	// Call order: persona parse, thinking, recommend.
	env := newTestEnv(t, llm.NewMockCompleter("not json", "Inner Monologue: weighing options.", strategyReply))

	rec := env.do(t, http.MethodPost, "/api/strategy", `{"preferences": "growth with $10000"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp StrategyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Recommendations) != 2 {
		t.Fatalf("expected 2 picks, got %+v", resp.Recommendations)
	}
	if resp.Recommendations[0].Symbol != "MSFT" {
		t.Errorf("top pick = %q, want MSFT (highest score first)", resp.Recommendations[0].Symbol)
	}
	if resp.Best == nil || resp.Best.Symbol != "MSFT" {
		t.Errorf("best = %+v, want MSFT within the $10000 budget", resp.Best)
	}
}

func TestStrategyEndpoint_BadBody(t *testing.T) {
	env := newTestEnv(t, llm.NewMockCompleter())

	rec := env.do(t, http.MethodPost, "/api/strategy", `{broken`, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestValidateTradeEndpoint(t *testing.T) {
	validReply := `{"validation": {"validation_result": {"is_valid": true, "confidence": 80}}}`
	// Call order: persona parse, trade validation.
	env := newTestEnv(t, llm.NewMockCompleter("not json", validReply))

	body := `{
		"recommendation": {"Symbol": "AAPL", "Action": "Buy", "Quantity": 2},
		"preferences": "growth with $10000"
	}`
	rec := env.do(t, http.MethodPost, "/api/trades/validate", body, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var verdict models.TradeVerdict
	if err := json.Unmarshal(rec.Body.Bytes(), &verdict); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !verdict.Valid {
		t.Errorf("expected valid verdict, explanation: %q", verdict.Explanation)
	}
}

func TestValidateTradeEndpoint_MissingSymbol(t *testing.T) {
	env := newTestEnv(t, llm.NewMockCompleter())

	rec := env.do(t, http.MethodPost, "/api/trades/validate", `{"preferences": "x"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestQuotesEndpoint(t *testing.T) {
	env := newTestEnv(t, llm.NewMockCompleter())

	t.Run("Single symbol", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/quotes?symbol=AAPL", "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var quote models.Quote
		if err := json.Unmarshal(rec.Body.Bytes(), &quote); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if quote.Symbol != "AAPL" || quote.CurrentPrice != 150.0 {
			t.Errorf("unexpected quote: %+v", quote)
		}
	})

	t.Run("Disallowed symbol", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/quotes?symbol=GME", "", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("Full list skips missing quotes", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/quotes", "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var quotes []models.Quote
		if err := json.Unmarshal(rec.Body.Bytes(), &quotes); err != nil {
			t.Fatalf("decode: %v", err)
		}
		// Only AAPL and MSFT have prices in the stub.
		if len(quotes) != 2 {
			t.Errorf("expected 2 quotes, got %d: %+v", len(quotes), quotes)
		}
	})
}

func TestLeaderboardEndpoint(t *testing.T) {
	env := newTestEnv(t, llm.NewMockCompleter())
	env.users.entries = []models.LeaderboardEntry{
		{Rank: 1, Username: "alice", Balance: 123456.78, Trades: 3},
	}

	rec := env.do(t, http.MethodGet, "/api/leaderboard", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	body := rec.Body.String()
	if !strings.Contains(body, `"masked_balance":"$12X,XXX.78"`) {
		t.Errorf("masked balance missing: %s", body)
	}
	if strings.Contains(body, "123456.78") {
		t.Errorf("exact balance leaked: %s", body)
	}
}

func TestExecuteTradeEndpoint(t *testing.T) {
	env := newTestEnv(t, llm.NewMockCompleter())
	userID, token := env.registeredToken(t)

	t.Run("Requires auth", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/trades", `{"symbol":"AAPL","type":"buy","quantity":2}`, "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("Executes at quote price", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/trades", `{"symbol":"AAPL","type":"buy","quantity":2}`, token)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var trade models.Trade
		if err := json.Unmarshal(rec.Body.Bytes(), &trade); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if trade.UserID != userID || trade.Price != 150.0 || trade.Amount != 300.0 {
			t.Errorf("unexpected trade: %+v", trade)
		}
	})

	t.Run("Rejects disallowed symbol", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/trades", `{"symbol":"GME","type":"buy","quantity":1}`, token)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("Rejects invalid quantity", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/trades", `{"symbol":"AAPL","type":"buy","quantity":0}`, token)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("Insufficient balance", func(t *testing.T) {
		env.trades.insufficientFor = 100.0
		defer func() { env.trades.insufficientFor = 0 }()

		rec := env.do(t, http.MethodPost, "/api/trades", `{"symbol":"AAPL","type":"buy","quantity":10}`, token)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", rec.Code)
		}
	})
}

func TestPortfolioEndpoint(t *testing.T) {
	env := newTestEnv(t, llm.NewMockCompleter())
	userID, token := env.registeredToken(t)

	if _, err := env.trades.Execute(context.Background(), models.Trade{
		UserID: userID, Symbol: "AAPL", Type: models.TradeBuy, Quantity: 2, Price: 150, Amount: 300,
	}); err != nil {
		t.Fatalf("seed trade: %v", err)
	}

	rec := env.do(t, http.MethodGet, "/api/portfolio", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp PortfolioResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Balance != 100000.0 {
		t.Errorf("Balance = %v, want 100000.0", resp.Balance)
	}
	if len(resp.Trades) != 1 || resp.Trades[0].Symbol != "AAPL" {
		t.Errorf("unexpected trades: %+v", resp.Trades)
	}
}

func TestMeEndpoint(t *testing.T) {
	env := newTestEnv(t, llm.NewMockCompleter())
	userID, token := env.registeredToken(t)

	t.Run("Requires auth", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/auth/me", "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("Returns the account", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/auth/me", "", token)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var user models.User
		if err := json.Unmarshal(rec.Body.Bytes(), &user); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if user.ID != userID || user.Username != "trader" {
			t.Errorf("unexpected user: %+v", user)
		}
	})
}

func TestInferenceLogEndpoints(t *testing.T) {
	env := newTestEnv(t, llm.NewMockCompleter())
	_, token := env.registeredToken(t)

	env.logs.logs = []models.InferenceLog{
		{ID: 1, Provider: "openai", Model: "gpt-4o-mini", Operation: "recommend", TokensUsed: 321, Status: "success"},
	}
	env.logs.stats = models.InferenceLogStats{
		TotalCalls:      5,
		TotalTokens:     1234,
		SuccessfulCalls: 4,
		FailedCalls:     1,
		AvgLatencyMs:    88.5,
	}

	t.Run("Requires auth", func(t *testing.T) {
		for _, path := range []string{"/api/admin/inference-logs", "/api/admin/inference-logs/stats"} {
			rec := env.do(t, http.MethodGet, path, "", "")
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("%s status = %d, want 401", path, rec.Code)
			}
		}
	})

	t.Run("Lists logs", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/admin/inference-logs", "", token)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		body := rec.Body.String()
		if !strings.Contains(body, `"operation":"recommend"`) {
			t.Errorf("log entry missing from body: %s", body)
		}
		if !strings.Contains(body, `"limit":100`) {
			t.Errorf("default limit missing from body: %s", body)
		}
	})

	t.Run("Reports stats", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/admin/inference-logs/stats", "", token)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var stats models.InferenceLogStats
		if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if stats.TotalCalls != 5 || stats.FailedCalls != 1 {
			t.Errorf("unexpected stats: %+v", stats)
		}
	})
}

func TestAuthEndpoints(t *testing.T) {
	env := newTestEnv(t, llm.NewMockCompleter())

	rec := env.do(t, http.MethodPost, "/api/auth/register",
		`{"username":"alice","email":"a@a.com","password":"supersecret"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp AuthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token == "" || resp.User.Username != "alice" {
		t.Errorf("unexpected auth response: %+v", resp)
	}
	if resp.User.Balance != 100000.0 {
		t.Errorf("Balance = %v, want starting 100000.0", resp.User.Balance)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Error("password material must not appear in the response")
	}

	t.Run("Duplicate username", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/register",
			`{"username":"alice","email":"a2@a.com","password":"supersecret"}`, "")
		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", rec.Code)
		}
	})

	t.Run("Login", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/login",
			`{"username":"alice","password":"supersecret"}`, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("login status = %d, body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("Wrong password", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/login",
			`{"username":"alice","password":"wrong"}`, "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})
}
