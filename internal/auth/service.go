package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stocksage/stocksage/internal/config"
	"github.com/stocksage/stocksage/internal/database"
	"github.com/stocksage/stocksage/internal/models"
)

// ErrInvalidCredentials is returned when login fails. Unknown usernames and
// wrong passwords report identically.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrUsernameTaken is returned when registration hits an existing username
// or email.
var ErrUsernameTaken = errors.New("username or email already taken")

// UserStore is the account persistence the service needs.
type UserStore interface {
	Create(ctx context.Context, username, email, passwordHash string, startingBalance float64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// Service handles account registration and login.
type Service struct {
	users           UserStore
	cfg             config.AuthConfig
	startingBalance float64
	logger          *slog.Logger
}

// NewService creates an auth service. New accounts start with the given
// virtual balance.
func NewService(users UserStore, cfg config.AuthConfig, startingBalance float64, logger *slog.Logger) *Service {
	return &Service{
		users:           users,
		cfg:             cfg,
		startingBalance: startingBalance,
		logger:          logger,
	}
}

// Register creates an account and returns a signed token for it.
func (s *Service) Register(ctx context.Context, username, email, password string) (*models.User, string, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" || email == "" {
		return nil, "", fmt.Errorf("username and email are required")
	}
	if len(password) < 8 {
		return nil, "", fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.Create(ctx, username, email, hash, s.startingBalance)
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, "", ErrUsernameTaken
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := GenerateToken(user.ID, s.cfg.JWTSecret, s.cfg.TokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign token: %w", err)
	}

	s.logger.Info("[USER REGISTERED]", "user_id", user.ID, "username", user.Username)
	return user, token, nil
}

// Me returns the account behind an authenticated user id, for clients
// restoring a session from a stored token.
func (s *Service) Me(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user %d: %w", userID, err)
	}
	return user, nil
}

// Login verifies credentials and returns the user with a signed token.
func (s *Service) Login(ctx context.Context, username, password string) (*models.User, string, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}

	if !CheckPassword(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := GenerateToken(user.ID, s.cfg.JWTSecret, s.cfg.TokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign token: %w", err)
	}

	s.logger.Info("[USER LOGIN]", "user_id", user.ID, "username", user.Username)
	return user, token, nil
}
