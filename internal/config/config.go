package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	IrisBaseURL string
	IrisWSURL   string
	EgressMode  string

	BotPrefix string

	XUserID    string
	XUserEmail string
	XSessionID string

	RedisURL    string
	DatabaseURL string
	MessageDir  string

	AllowedRooms []string

	PuzzleMaxGuesses    int
	PuzzleTurnSeconds   int
	PuzzleSessionTTLSec int
	PuzzleHistoryLimit  int
	PuzzleExtraPieces   int
	PuzzleBoardAttempts int
}

// TurnTimeLimit converts PuzzleTurnSeconds; zero or less disables the timer.
func (c *AppConfig) TurnTimeLimit() time.Duration {
	if c.PuzzleTurnSeconds <= 0 {
		return -1
	}
	return time.Duration(c.PuzzleTurnSeconds) * time.Second
}

func (c *AppConfig) SessionTTL() time.Duration {
	return time.Duration(c.PuzzleSessionTTLSec) * time.Second
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		EgressMode:          "auto",
		PuzzleMaxGuesses:    6,
		PuzzleTurnSeconds:   30,
		PuzzleSessionTTLSec: 3600,
		PuzzleHistoryLimit:  10,
		PuzzleExtraPieces:   6,
		PuzzleBoardAttempts: 300,
	}

	cfg.IrisBaseURL = strings.TrimSpace(os.Getenv("IRIS_BASE_URL"))
	cfg.IrisWSURL = strings.TrimSpace(os.Getenv("IRIS_WS_URL"))
	cfg.BotPrefix = strings.TrimSpace(os.Getenv("BOT_PREFIX"))
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("EGRESS_MODE"))); v != "" {
		cfg.EgressMode = v
	}

	cfg.XUserID = strings.TrimSpace(os.Getenv("X_USER_ID"))
	cfg.XUserEmail = strings.TrimSpace(os.Getenv("X_USER_EMAIL"))
	cfg.XSessionID = strings.TrimSpace(os.Getenv("X_SESSION_ID"))

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.MessageDir = strings.TrimSpace(os.Getenv("MESSAGE_DIR"))

	cfg.AllowedRooms = splitList(os.Getenv("ALLOWED_ROOMS"))
	if len(cfg.AllowedRooms) == 0 {
		cfg.AllowedRooms = splitList(os.Getenv("PUZZLE_ALLOWED_ROOMS"))
	}

	positiveInt("PUZZLE_MAX_GUESSES", &cfg.PuzzleMaxGuesses)
	positiveInt("PUZZLE_SESSION_TTL", &cfg.PuzzleSessionTTLSec)
	positiveInt("PUZZLE_HISTORY_LIMIT", &cfg.PuzzleHistoryLimit)
	positiveInt("PUZZLE_BOARD_ATTEMPTS", &cfg.PuzzleBoardAttempts)
	// Zero is meaningful for these two: no extra pieces, no turn timer.
	nonNegativeInt("PUZZLE_EXTRA_PIECES", &cfg.PuzzleExtraPieces)
	nonNegativeInt("PUZZLE_TURN_SECONDS", &cfg.PuzzleTurnSeconds)

	switch cfg.EgressMode {
	case "http", "ws", "auto":
	default:
		return nil, errors.New("EGRESS_MODE must be http, ws or auto")
	}
	if cfg.IrisBaseURL == "" {
		return nil, errors.New("IRIS_BASE_URL is required")
	}
	if cfg.IrisWSURL == "" {
		return nil, errors.New("IRIS_WS_URL is required")
	}
	if cfg.BotPrefix == "" {
		return nil, errors.New("BOT_PREFIX is required")
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func positiveInt(key string, dst *int) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}

func nonNegativeInt(key string, dst *int) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			*dst = n
		}
	}
}
