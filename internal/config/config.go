package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/stocksage/stocksage/internal/models"
)

// Config represents runtime configuration derived from environment variables.
type Config struct {
	Server     ServerConfig
	Logging    LoggingConfig
	Database   DatabaseConfig
	OpenAI     OpenAIConfig
	MarketData MarketDataConfig
	Auth       AuthConfig
	Advisor    AdvisorConfig
}

// ServerConfig holds HTTP server runtime parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// LoggingConfig represents structured logging configuration.
type LoggingConfig struct {
	Level  slog.Level
	Format string
}

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	URL           string
	MigrationsDir string
}

// OpenAIConfig holds model-call settings shared by every LLM-backed component.
type OpenAIConfig struct {
	APIKey     string
	Model      string
	MaxRetries int
	BaseDelay  time.Duration
}

// MarketDataConfig holds quote-provider settings.
type MarketDataConfig struct {
	APIKey   string
	BaseURL  string
	CacheTTL time.Duration
}

// AuthConfig holds token signing settings. JWTSecret is validated at server
// wiring time, not at Load, so offline tools can run without it.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// AdvisorConfig selects the ticker allow-list and the paper-trading balance
// granted to new accounts.
type AdvisorConfig struct {
	Universe        models.Universe
	StartingBalance float64
}

const (
	defaultPort            = "8080"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultShutdownTimeout = 5 * time.Second

	defaultLogFormat = "json"

	defaultMigrationsDir = "migrations"

	defaultOpenAIModel = "gpt-4o-mini"
	defaultMaxRetries  = 3
	defaultBaseDelay   = 2 * time.Second

	defaultMarketDataURL = "https://finnhub.io/api/v1"
	defaultCacheTTL      = 60 * time.Second

	defaultTokenTTL = 24 * time.Hour

	defaultStartingBalance = 100000.0
)

// Load reads configuration from environment variables, applying defaults when
// values are not provided or invalid.
func Load() (Config, error) {
	// Cloud Run sets PORT, but allow SERVER_PORT override for local dev
	port := getEnv("PORT", "")
	if port == "" {
		port = getEnv("SERVER_PORT", defaultPort)
	}

	cfg := Config{
		Server: ServerConfig{
			Port:            port,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:  slog.LevelInfo,
			Format: defaultLogFormat,
		},
		Database: DatabaseConfig{
			URL:           os.Getenv("DATABASE_URL"),
			MigrationsDir: getEnv("MIGRATIONS_DIR", defaultMigrationsDir),
		},
		OpenAI: OpenAIConfig{
			APIKey:     os.Getenv("OPENAI_API_KEY"),
			Model:      getEnv("OPENAI_MODEL", defaultOpenAIModel),
			MaxRetries: defaultMaxRetries,
			BaseDelay:  defaultBaseDelay,
		},
		MarketData: MarketDataConfig{
			APIKey:   os.Getenv("FINNHUB_API_KEY"),
			BaseURL:  getEnv("MARKET_DATA_URL", defaultMarketDataURL),
			CacheTTL: defaultCacheTTL,
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
			TokenTTL:  defaultTokenTTL,
		},
		Advisor: AdvisorConfig{
			Universe:        models.DefaultUniverse(),
			StartingBalance: defaultStartingBalance,
		},
	}

	if v := os.Getenv("SERVER_READ_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_READ_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.ReadTimeout = d
	}

	if v := os.Getenv("SERVER_WRITE_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.WriteTimeout = d
	}

	if v := os.Getenv("SERVER_SHUTDOWN_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.ShutdownTimeout = d
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.Logging.Level = level
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		switch v {
		case "json", "text":
			cfg.Logging.Format = v
		default:
			return Config{}, fmt.Errorf("invalid LOG_FORMAT: must be 'json' or 'text'")
		}
	}

	if v := os.Getenv("OPENAI_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("invalid OPENAI_MAX_RETRIES: must be a positive integer")
		}
		cfg.OpenAI.MaxRetries = n
	}

	if v := os.Getenv("OPENAI_BASE_DELAY_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid OPENAI_BASE_DELAY_SECONDS: %w", err)
		}
		cfg.OpenAI.BaseDelay = d
	}

	if v := os.Getenv("QUOTE_CACHE_TTL_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid QUOTE_CACHE_TTL_SECONDS: %w", err)
		}
		cfg.MarketData.CacheTTL = d
	}

	if v := os.Getenv("JWT_TOKEN_TTL_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil || hours < 1 {
			return Config{}, fmt.Errorf("invalid JWT_TOKEN_TTL_HOURS: must be a positive integer")
		}
		cfg.Auth.TokenTTL = time.Duration(hours) * time.Hour
	}

	if v := os.Getenv("STOCK_UNIVERSE"); v != "" {
		switch v {
		case "default":
			cfg.Advisor.Universe = models.DefaultUniverse()
		case "extended":
			cfg.Advisor.Universe = models.ExtendedUniverse()
		default:
			return Config{}, fmt.Errorf("invalid STOCK_UNIVERSE: must be 'default' or 'extended'")
		}
	}

	if v := os.Getenv("STARTING_BALANCE"); v != "" {
		balance, err := strconv.ParseFloat(v, 64)
		if err != nil || balance <= 0 {
			return Config{}, fmt.Errorf("invalid STARTING_BALANCE: must be a positive number")
		}
		cfg.Advisor.StartingBalance = balance
	}

	return cfg, nil
}

func parseSeconds(raw string) (time.Duration, error) {
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("must be a non-negative integer")
	}
	return time.Duration(seconds) * time.Second, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch raw {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("must be one of debug, info, warn, error")
	}
}
