package puzzle

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/park285/Cheese-MoveGuess-bot/internal/domain"
)

var ErrDuplicateRecord = errors.New("puzzle record already exists")

type Repository interface {
	InsertGame(ctx context.Context, game *domain.PuzzleGame) (int64, error)
	GetRecentGames(ctx context.Context, playerHash string, limit int) ([]*domain.PuzzleGame, error)
	GetGame(ctx context.Context, id int64, playerHash string) (*domain.PuzzleGame, error)
	GetGameBySession(ctx context.Context, sessionUUID string, playerHash string) (*domain.PuzzleGame, error)
	GetProfile(ctx context.Context, playerHash string, roomHash string) (*domain.PuzzleProfile, error)
	UpsertProfile(ctx context.Context, profile *domain.PuzzleProfile) error
}

const schema = `
CREATE TABLE IF NOT EXISTS puzzle_games (
	id            BIGSERIAL PRIMARY KEY,
	session_uuid  TEXT NOT NULL UNIQUE,
	player_hash   TEXT NOT NULL,
	room_hash     TEXT NOT NULL,
	fen           TEXT NOT NULL,
	target_kind   TEXT NOT NULL,
	target_color  TEXT NOT NULL,
	target_from   TEXT NOT NULL,
	target_to     TEXT NOT NULL,
	outcome       TEXT NOT NULL,
	guess_count   INTEGER NOT NULL,
	guesses       JSONB NOT NULL DEFAULT '[]'::jsonb,
	started_at    TIMESTAMPTZ NOT NULL,
	ended_at      TIMESTAMPTZ NOT NULL,
	duration_ms   BIGINT
);
CREATE INDEX IF NOT EXISTS puzzle_games_player_ended_idx ON puzzle_games (player_hash, ended_at DESC);
CREATE TABLE IF NOT EXISTS puzzle_profiles (
	player_hash    TEXT NOT NULL,
	room_hash      TEXT NOT NULL,
	played         INTEGER NOT NULL DEFAULT 0,
	solved         INTEGER NOT NULL DEFAULT 0,
	abandoned      INTEGER NOT NULL DEFAULT 0,
	streak         INTEGER NOT NULL DEFAULT 0,
	best_streak    INTEGER NOT NULL DEFAULT 0,
	solve_guesses  INTEGER NOT NULL DEFAULT 0,
	last_played_at TIMESTAMPTZ,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (player_hash, room_hash)
);`

const gameColumns = `
	id,
	session_uuid,
	player_hash,
	room_hash,
	fen,
	target_kind,
	target_color,
	target_from,
	target_to,
	outcome,
	guess_count,
	guesses,
	started_at,
	ended_at,
	duration_ms`

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// EnsureSchema creates the puzzle tables when missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure puzzle schema: %w", err)
	}
	return nil
}

func (r *repository) InsertGame(ctx context.Context, game *domain.PuzzleGame) (int64, error) {
	if game == nil {
		return 0, fmt.Errorf("nil puzzle game payload")
	}
	guesses, err := json.Marshal(game.Guesses)
	if err != nil {
		return 0, fmt.Errorf("marshal guesses: %w", err)
	}

	const query = `
		INSERT INTO puzzle_games (
			session_uuid,
			player_hash,
			room_hash,
			fen,
			target_kind,
			target_color,
			target_from,
			target_to,
			outcome,
			guess_count,
			guesses,
			started_at,
			ended_at,
			duration_ms
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::jsonb, $12, $13, $14)
		ON CONFLICT (session_uuid) DO NOTHING
		RETURNING id`

	var id sql.NullInt64
	err = r.db.QueryRowContext(
		ctx,
		query,
		game.SessionUUID,
		game.PlayerHash,
		game.RoomHash,
		game.FEN,
		game.TargetKind,
		game.TargetColor,
		game.TargetFrom,
		game.TargetTo,
		game.Outcome,
		game.GuessCount,
		guesses,
		game.StartedAt,
		game.EndedAt,
		game.Duration.Milliseconds(),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !id.Valid) {
		return 0, ErrDuplicateRecord
	}
	if err != nil {
		return 0, fmt.Errorf("insert puzzle game: %w", err)
	}
	return id.Int64, nil
}

func (r *repository) GetRecentGames(ctx context.Context, playerHash string, limit int) ([]*domain.PuzzleGame, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `SELECT` + gameColumns + `
		FROM puzzle_games
		WHERE player_hash = $1
		ORDER BY ended_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, playerHash, limit)
	if err != nil {
		return nil, fmt.Errorf("select puzzle games: %w", err)
	}
	defer rows.Close()

	games := make([]*domain.PuzzleGame, 0, limit)
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate puzzle games: %w", err)
	}
	return games, nil
}

func (r *repository) GetGame(ctx context.Context, id int64, playerHash string) (*domain.PuzzleGame, error) {
	query := `SELECT` + gameColumns + `
		FROM puzzle_games
		WHERE id = $1 AND player_hash = $2`

	game, err := scanGame(r.db.QueryRowContext(ctx, query, id, playerHash))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return game, err
}

func (r *repository) GetGameBySession(ctx context.Context, sessionUUID string, playerHash string) (*domain.PuzzleGame, error) {
	query := `SELECT` + gameColumns + `
		FROM puzzle_games
		WHERE session_uuid = $1 AND player_hash = $2
		LIMIT 1`

	game, err := scanGame(r.db.QueryRowContext(ctx, query, sessionUUID, playerHash))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return game, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*domain.PuzzleGame, error) {
	var (
		game        domain.PuzzleGame
		guessesJSON []byte
		durationMS  sql.NullInt64
	)
	err := row.Scan(
		&game.ID,
		&game.SessionUUID,
		&game.PlayerHash,
		&game.RoomHash,
		&game.FEN,
		&game.TargetKind,
		&game.TargetColor,
		&game.TargetFrom,
		&game.TargetTo,
		&game.Outcome,
		&game.GuessCount,
		&guessesJSON,
		&game.StartedAt,
		&game.EndedAt,
		&durationMS,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan puzzle game: %w", err)
	}
	if durationMS.Valid {
		game.Duration = time.Duration(durationMS.Int64) * time.Millisecond
	}
	if len(guessesJSON) > 0 {
		if err := json.Unmarshal(guessesJSON, &game.Guesses); err != nil {
			return nil, fmt.Errorf("unmarshal guesses: %w", err)
		}
	}
	return &game, nil
}

func (r *repository) GetProfile(ctx context.Context, playerHash string, roomHash string) (*domain.PuzzleProfile, error) {
	const query = `
		SELECT
			player_hash,
			room_hash,
			played,
			solved,
			abandoned,
			streak,
			best_streak,
			solve_guesses,
			last_played_at,
			updated_at,
			created_at
		FROM puzzle_profiles
		WHERE player_hash = $1 AND room_hash = $2
		LIMIT 1`

	var (
		profile    domain.PuzzleProfile
		lastPlayed sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, playerHash, roomHash).Scan(
		&profile.PlayerHash,
		&profile.RoomHash,
		&profile.Played,
		&profile.Solved,
		&profile.Abandoned,
		&profile.Streak,
		&profile.BestStreak,
		&profile.SolveGuesses,
		&lastPlayed,
		&profile.UpdatedAt,
		&profile.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select puzzle profile: %w", err)
	}
	if lastPlayed.Valid {
		profile.LastPlayedAt = lastPlayed.Time
	}
	return &profile, nil
}

func (r *repository) UpsertProfile(ctx context.Context, profile *domain.PuzzleProfile) error {
	if profile == nil {
		return fmt.Errorf("nil puzzle profile payload")
	}
	const query = `
		INSERT INTO puzzle_profiles (
			player_hash,
			room_hash,
			played,
			solved,
			abandoned,
			streak,
			best_streak,
			solve_guesses,
			last_played_at,
			updated_at,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		ON CONFLICT (player_hash, room_hash)
		DO UPDATE SET
			played = EXCLUDED.played,
			solved = EXCLUDED.solved,
			abandoned = EXCLUDED.abandoned,
			streak = EXCLUDED.streak,
			best_streak = EXCLUDED.best_streak,
			solve_guesses = EXCLUDED.solve_guesses,
			last_played_at = EXCLUDED.last_played_at,
			updated_at = NOW()`

	_, err := r.db.ExecContext(
		ctx,
		query,
		profile.PlayerHash,
		profile.RoomHash,
		profile.Played,
		profile.Solved,
		profile.Abandoned,
		profile.Streak,
		profile.BestStreak,
		profile.SolveGuesses,
		profile.LastPlayedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert puzzle profile: %w", err)
	}
	return nil
}
