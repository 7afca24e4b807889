package puzzlebuilder

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/park285/Cheese-MoveGuess-bot/internal/chess"
	"github.com/park285/Cheese-MoveGuess-bot/internal/config"
	"github.com/park285/Cheese-MoveGuess-bot/internal/msgcat"
	"github.com/park285/Cheese-MoveGuess-bot/internal/service/cache"
	"github.com/park285/Cheese-MoveGuess-bot/internal/service/puzzle"
	"go.uber.org/zap"
)

type Deps struct {
	Service   *puzzle.Service
	Generator *chess.Generator
	Cache     *cache.CacheService
	Repo      puzzle.Repository
	Catalog   *msgcat.Catalog

	db *sql.DB
}

// New wires the puzzle service from configuration. Redis is required;
// without DATABASE_URL finished puzzles are kept in memory only.
func New(cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	catalog, err := msgcat.New(cfg.MessageDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	if strings.TrimSpace(cfg.RedisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL is required for puzzle sessions")
	}
	cconf, err := cache.ParseRedisURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	cacheSvc, err := cache.NewCacheService(*cconf, logger)
	if err != nil {
		return nil, fmt.Errorf("init cache: %w", err)
	}

	deps := &Deps{Cache: cacheSvc, Catalog: catalog}
	repo, db, err := openRepository(cfg.DatabaseURL, logger)
	if err != nil {
		_ = cacheSvc.Close()
		return nil, err
	}
	deps.Repo, deps.db = repo, db

	deps.Generator = NewGenerator(cfg)
	svcCfg := puzzle.Config{
		MaxGuesses:    cfg.PuzzleMaxGuesses,
		TurnTimeLimit: cfg.TurnTimeLimit(),
		SessionTTL:    cfg.SessionTTL(),
		HistoryLimit:  cfg.PuzzleHistoryLimit,
		AllowedRooms:  append([]string(nil), cfg.AllowedRooms...),
	}
	service, err := puzzle.NewService(deps.Generator, cacheSvc, repo, puzzle.NewSVGBoardRenderer(), svcCfg, logger)
	if err != nil {
		_ = deps.Close()
		return nil, err
	}
	deps.Service = service
	return deps, nil
}

// NewGenerator builds a board generator from the PUZZLE_* settings.
func NewGenerator(cfg *config.AppConfig) *chess.Generator {
	opts := []chess.Option{chess.WithExtraPieces(cfg.PuzzleExtraPieces)}
	if cfg.PuzzleBoardAttempts > 0 {
		opts = append(opts, chess.WithBoardAttempts(cfg.PuzzleBoardAttempts))
	}
	return chess.NewGenerator(opts...)
}

func openRepository(dsn string, logger *zap.Logger) (puzzle.Repository, *sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		logger.Warn("puzzle_repository_in_memory", zap.String("reason", "DATABASE_URL not set"))
		return puzzle.NewMemoryRepository(), nil, nil
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := puzzle.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	return puzzle.NewRepository(db), db, nil
}

func (d *Deps) Close() error {
	if d == nil {
		return nil
	}
	var firstErr error
	if d.Cache != nil {
		firstErr = d.Cache.Close()
	}
	if d.db != nil {
		if err := d.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
