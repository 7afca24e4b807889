package puzzle

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/park285/Cheese-MoveGuess-bot/internal/chess"
	"github.com/park285/Cheese-MoveGuess-bot/internal/domain"
	"github.com/park285/Cheese-MoveGuess-bot/internal/service/cache"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound   = errors.New("puzzle session not found")
	ErrSessionInProgress = errors.New("puzzle session already in progress")
	ErrRecordNotFound    = errors.New("puzzle record not found")
	ErrProfileNotFound   = errors.New("puzzle profile not found")
	ErrRoomNotAllowed    = errors.New("puzzle room not allowed")
	ErrEmptyGuess        = errors.New("empty guess")
)

const (
	DefaultMaxGuesses    = 6
	DefaultTurnTimeLimit = 30 * time.Second
	defaultHistoryLimit  = 10
	maxHistoryLimit      = 50
	profileCacheTTL      = 6 * time.Hour
	playerLabelRuneLimit = 24
	maxStartPasses       = 3
	defaultPlayerLabel   = "Player"

	causeTimeout = "timeout"
)

// Puzzler produces a fresh board with its hidden target.
type Puzzler interface {
	NewPuzzle() (*chess.Puzzle, error)
}

type SessionMeta struct {
	SessionID string
	Room      string
	Sender    string
}

type sessionIdentity struct {
	SessionID  string
	RoomHash   string
	PlayerHash string
}

type Config struct {
	MaxGuesses int
	// TurnTimeLimit bounds each guess; a negative value disables the timer.
	TurnTimeLimit time.Duration
	SessionTTL    time.Duration
	HistoryLimit  int
	AllowedRooms  []string
}

type Service struct {
	generator    Puzzler
	cache        *cache.CacheService
	renderer     BoardRenderer
	repo         Repository
	cfg          Config
	allowedRooms map[string]struct{}
	logger       *zap.Logger
	now          func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now, mainly so tests can move the turn timer.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

type SessionState struct {
	SessionUUID  string
	PlayerName   string
	FEN          string
	Board        *chess.Board
	Guesses      []domain.PuzzleGuess
	MaxGuesses   int
	GuessesLeft  int
	TurnDeadline time.Time
	StartedAt    time.Time
	// TimedOut counts turns charged by the timer during this call.
	TimedOut   int
	Finished   bool
	Outcome    string
	Target     *chess.Target
	GameID     int64
	Profile    *domain.PuzzleProfile
	BoardImage []byte
}

type GuessSummary struct {
	State         *SessionState
	Guess         chess.Guess
	Feedback      chess.Feedback
	Invalid       bool
	InvalidReason error
}

func NewService(gen Puzzler, cacheSvc *cache.CacheService, repo Repository, renderer BoardRenderer, cfg Config, logger *zap.Logger, opts ...Option) (*Service, error) {
	if gen == nil {
		return nil, fmt.Errorf("puzzle generator is required")
	}
	if cacheSvc == nil {
		return nil, fmt.Errorf("cache service is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("puzzle repository is required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("board renderer is required")
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("session TTL must be greater than 0")
	}
	if cfg.MaxGuesses <= 0 {
		cfg.MaxGuesses = DefaultMaxGuesses
	}
	switch {
	case cfg.TurnTimeLimit == 0:
		cfg.TurnTimeLimit = DefaultTurnTimeLimit
	case cfg.TurnTimeLimit < 0:
		cfg.TurnTimeLimit = 0
	}
	if cfg.HistoryLimit <= 0 || cfg.HistoryLimit > maxHistoryLimit {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	allowedRooms := make(map[string]struct{})
	for _, room := range cfg.AllowedRooms {
		normalized := strings.ToLower(strings.TrimSpace(room))
		if normalized == "" {
			continue
		}
		allowedRooms[normalized] = struct{}{}
	}
	cfg.AllowedRooms = append([]string(nil), cfg.AllowedRooms...)

	s := &Service{
		generator:    gen,
		cache:        cacheSvc,
		renderer:     renderer,
		repo:         repo,
		cfg:          cfg,
		allowedRooms: allowedRooms,
		logger:       logger,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start opens a new puzzle for the caller. An unfinished puzzle is returned
// together with ErrSessionInProgress instead.
func (s *Service) Start(ctx context.Context, meta SessionMeta) (*SessionState, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	if err := s.ensureRoomAllowed(meta); err != nil {
		return nil, err
	}

	identity := deriveIdentity(meta)
	now := s.now()
	var (
		payload    sessionPayload
		previous   *sessionPayload
		recorded   string
		inProgress bool
		timedOut   int
	)
	// A finished session still in the store is recorded before it is replaced.
	for pass := 0; ; pass++ {
		if pass == maxStartPasses {
			return nil, cache.ErrConflict
		}
		err := s.cache.Update(ctx, s.sessionKey(identity.SessionID), s.cfg.SessionTTL, &payload, func(exists bool) (cache.Mutation, error) {
			previous, inProgress, timedOut = nil, false, 0
			if exists {
				var over bool
				timedOut, over = payload.settle(now, s.cfg.TurnTimeLimit, s.cfg.MaxGuesses)
				if !over {
					inProgress = true
					return saveIf(timedOut > 0), nil
				}
				if payload.SessionUUID != recorded {
					done := payload
					previous = &done
					return saveIf(timedOut > 0), nil
				}
			}

			pz, err := s.generator.NewPuzzle()
			if err != nil {
				return cache.MutationNone, fmt.Errorf("generate puzzle: %w", err)
			}
			payload.reset(identity, normalizePlayerLabel(meta.Sender), pz, now)
			return cache.MutationSave, nil
		})
		if err != nil {
			return nil, err
		}
		if previous == nil {
			break
		}
		prevState, err := s.stateFromPayload(previous)
		if err != nil {
			return nil, err
		}
		if err := s.finish(ctx, identity, previous, prevState); err != nil {
			return nil, err
		}
		recorded = previous.SessionUUID
	}

	state, err := s.stateFromPayload(&payload)
	if err != nil {
		return nil, err
	}
	state.TimedOut = timedOut
	if profile, perr := s.fetchProfile(ctx, identity, true); perr == nil {
		state.Profile = profile
	}
	s.attachBoardImage(ctx, state, &payload)

	if inProgress {
		return state, ErrSessionInProgress
	}
	s.logger.Info("puzzle_started",
		zap.String("session_uuid", payload.SessionUUID),
		zap.String("room_hash", identity.RoomHash),
		zap.Int("pieces", state.Board.Len()),
	)
	return state, nil
}

// Status returns the current puzzle after charging any elapsed turns.
func (s *Service) Status(ctx context.Context, meta SessionMeta) (*SessionState, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	if err := s.ensureRoomAllowed(meta); err != nil {
		return nil, err
	}

	identity := deriveIdentity(meta)
	now := s.now()
	var (
		payload  sessionPayload
		timedOut int
		finished bool
	)
	err := s.cache.Update(ctx, s.sessionKey(identity.SessionID), s.cfg.SessionTTL, &payload, func(exists bool) (cache.Mutation, error) {
		if !exists {
			return cache.MutationNone, ErrSessionNotFound
		}
		timedOut, finished = payload.settle(now, s.cfg.TurnTimeLimit, s.cfg.MaxGuesses)
		return saveIf(timedOut > 0), nil
	})
	if err != nil {
		return nil, err
	}

	state, err := s.stateFromPayload(&payload)
	if err != nil {
		return nil, err
	}
	state.TimedOut = timedOut
	if finished {
		if err := s.closeOut(ctx, identity, &payload, state); err != nil {
			return nil, err
		}
	} else if profile, perr := s.fetchProfile(ctx, identity, true); perr == nil {
		state.Profile = profile
	}
	s.attachBoardImage(ctx, state, &payload)
	return state, nil
}

// Guess parses and judges one guess. Malformed or illegal guesses come back
// with Invalid set and do not use up a turn.
func (s *Service) Guess(ctx context.Context, meta SessionMeta, input string) (*GuessSummary, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	if err := s.ensureRoomAllowed(meta); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(input)
	if text == "" {
		return nil, ErrEmptyGuess
	}

	identity := deriveIdentity(meta)
	now := s.now()
	var (
		payload  sessionPayload
		summary  GuessSummary
		timedOut int
		finished bool
	)
	err := s.cache.Update(ctx, s.sessionKey(identity.SessionID), s.cfg.SessionTTL, &payload, func(exists bool) (cache.Mutation, error) {
		summary, finished = GuessSummary{}, false
		if !exists {
			return cache.MutationNone, ErrSessionNotFound
		}
		timedOut, finished = payload.settle(now, s.cfg.TurnTimeLimit, s.cfg.MaxGuesses)
		if finished {
			return saveIf(timedOut > 0), nil
		}

		board, err := payload.board()
		if err != nil {
			return cache.MutationNone, err
		}
		target, err := payload.target()
		if err != nil {
			return cache.MutationNone, err
		}

		g, err := chess.ParseGuess(text, board)
		if err == nil {
			summary.Guess = g
			summary.Feedback, err = chess.Judge(g, board, target)
		}
		if err != nil {
			if !isGuessError(err) {
				return cache.MutationNone, err
			}
			summary.Invalid, summary.InvalidReason = true, err
			return saveIf(timedOut > 0), nil
		}

		payload.Guesses = append(payload.Guesses, guessRecord(text, g, summary.Feedback, now))
		payload.TurnStartedAt = now
		payload.UpdatedAt = now
		finished = payload.over(s.cfg.MaxGuesses)
		return cache.MutationSave, nil
	})
	if err != nil {
		return nil, err
	}

	state, err := s.stateFromPayload(&payload)
	if err != nil {
		return nil, err
	}
	state.TimedOut = timedOut
	if finished {
		if err := s.closeOut(ctx, identity, &payload, state); err != nil {
			return nil, err
		}
	}
	s.attachBoardImage(ctx, state, &payload)
	summary.State = state

	s.logger.Debug("puzzle_guess",
		zap.String("session_uuid", payload.SessionUUID),
		zap.Bool("invalid", summary.Invalid),
		zap.String("headline", summary.Feedback.Headline().String()),
		zap.Int("guesses", len(payload.Guesses)),
		zap.Int("timed_out", timedOut),
	)
	return &summary, nil
}

// GiveUp ends the puzzle and reveals the target.
func (s *Service) GiveUp(ctx context.Context, meta SessionMeta) (*SessionState, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	if err := s.ensureRoomAllowed(meta); err != nil {
		return nil, err
	}

	identity := deriveIdentity(meta)
	now := s.now()
	var (
		payload  sessionPayload
		timedOut int
	)
	err := s.cache.Update(ctx, s.sessionKey(identity.SessionID), s.cfg.SessionTTL, &payload, func(exists bool) (cache.Mutation, error) {
		if !exists {
			return cache.MutationNone, ErrSessionNotFound
		}
		var over bool
		timedOut, over = payload.settle(now, s.cfg.TurnTimeLimit, s.cfg.MaxGuesses)
		if over {
			return saveIf(timedOut > 0), nil
		}
		payload.Abandoned = true
		payload.UpdatedAt = now
		return cache.MutationSave, nil
	})
	if err != nil {
		return nil, err
	}

	state, err := s.stateFromPayload(&payload)
	if err != nil {
		return nil, err
	}
	state.TimedOut = timedOut
	if err := s.closeOut(ctx, identity, &payload, state); err != nil {
		return nil, err
	}
	s.attachBoardImage(ctx, state, &payload)
	return state, nil
}

// closeOut records a finished puzzle and only then removes its session. A
// failed write leaves the session in place so the next call records it again.
func (s *Service) closeOut(ctx context.Context, identity sessionIdentity, p *sessionPayload, state *SessionState) error {
	if err := s.finish(ctx, identity, p, state); err != nil {
		return err
	}
	s.dropSession(ctx, identity, p.SessionUUID)
	return nil
}

// dropSession deletes the stored session if it still belongs to sessionUUID.
func (s *Service) dropSession(ctx context.Context, identity sessionIdentity, sessionUUID string) {
	var current sessionPayload
	err := s.cache.Update(ctx, s.sessionKey(identity.SessionID), s.cfg.SessionTTL, &current, func(exists bool) (cache.Mutation, error) {
		if !exists || current.SessionUUID != sessionUUID {
			return cache.MutationNone, nil
		}
		return cache.MutationDelete, nil
	})
	if err != nil {
		s.logger.Warn("puzzle_session_delete_failed", zap.Error(err), zap.String("session_uuid", sessionUUID))
	}
}

func saveIf(changed bool) cache.Mutation {
	if changed {
		return cache.MutationSave
	}
	return cache.MutationNone
}

func (s *Service) History(ctx context.Context, meta SessionMeta, limit int) ([]*domain.PuzzleGame, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	if err := s.ensureRoomAllowed(meta); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > s.cfg.HistoryLimit {
		limit = s.cfg.HistoryLimit
	}
	identity := deriveIdentity(meta)
	return s.repo.GetRecentGames(ctx, identity.PlayerHash, limit)
}

func (s *Service) Record(ctx context.Context, meta SessionMeta, id int64) (*domain.PuzzleGame, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	if err := s.ensureRoomAllowed(meta); err != nil {
		return nil, err
	}
	identity := deriveIdentity(meta)
	game, err := s.repo.GetGame(ctx, id, identity.PlayerHash)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrRecordNotFound
	}
	return game, nil
}

func (s *Service) Profile(ctx context.Context, meta SessionMeta) (*domain.PuzzleProfile, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	if err := s.ensureRoomAllowed(meta); err != nil {
		return nil, err
	}
	identity := deriveIdentity(meta)
	profile, err := s.fetchProfile(ctx, identity, true)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

func (s *Service) MaxGuesses() int { return s.cfg.MaxGuesses }

func (s *Service) TurnTimeLimit() time.Duration { return s.cfg.TurnTimeLimit }

func (s *Service) ensureReady() error {
	switch {
	case s.generator == nil:
		return fmt.Errorf("puzzle generator not configured")
	case s.cache == nil:
		return fmt.Errorf("cache service not configured")
	case s.renderer == nil:
		return fmt.Errorf("board renderer not configured")
	case s.repo == nil:
		return fmt.Errorf("puzzle repository not configured")
	default:
		return nil
	}
}

func (s *Service) ensureRoomAllowed(meta SessionMeta) error {
	if len(s.allowedRooms) == 0 {
		return nil
	}
	room := strings.ToLower(strings.TrimSpace(meta.Room))
	if room == "" {
		room = "unknown-room"
	}
	if _, ok := s.allowedRooms[room]; ok {
		return nil
	}
	s.logger.Info("puzzle_room_denied",
		zap.String("room", room),
		zap.String("sender", strings.TrimSpace(meta.Sender)),
	)
	return ErrRoomNotAllowed
}

func (s *Service) sessionKey(sessionID string) string {
	return "puzzle:sessions:" + hashString(strings.TrimSpace(sessionID))
}

func (s *Service) profileCacheKey(identity sessionIdentity) string {
	return "puzzle:profile:" + identity.PlayerHash + ":" + identity.RoomHash
}

func (s *Service) stateFromPayload(p *sessionPayload) (*SessionState, error) {
	board, err := p.board()
	if err != nil {
		return nil, err
	}
	state := &SessionState{
		SessionUUID: p.SessionUUID,
		PlayerName:  p.PlayerName,
		FEN:         p.FEN,
		Board:       board,
		Guesses:     append([]domain.PuzzleGuess(nil), p.Guesses...),
		MaxGuesses:  s.cfg.MaxGuesses,
		GuessesLeft: s.cfg.MaxGuesses - len(p.Guesses),
		StartedAt:   p.StartedAt,
	}
	if state.GuessesLeft < 0 {
		state.GuessesLeft = 0
	}
	if state.PlayerName == "" {
		state.PlayerName = defaultPlayerLabel
	}
	if s.cfg.TurnTimeLimit > 0 {
		state.TurnDeadline = p.TurnStartedAt.Add(s.cfg.TurnTimeLimit)
	}
	return state, nil
}

func isGuessError(err error) bool {
	return errors.Is(err, chess.ErrMalformedGuess) ||
		errors.Is(err, chess.ErrMalformedNotation) ||
		errors.Is(err, chess.ErrInvalidGuess)
}

func deriveIdentity(meta SessionMeta) sessionIdentity {
	room := strings.ToLower(strings.TrimSpace(meta.Room))
	sender := strings.ToLower(strings.TrimSpace(meta.Sender))
	sessionID := strings.ToLower(strings.TrimSpace(meta.SessionID))
	if sessionID == "" {
		sessionID = room + ":" + sender
	}
	return sessionIdentity{
		SessionID:  sessionID,
		RoomHash:   hashString(room),
		PlayerHash: hashString(room + ":" + sender),
	}
}

func normalizePlayerLabel(raw string) string {
	cleaned := strings.Join(strings.Fields(raw), " ")
	if cleaned == "" {
		return ""
	}
	runes := []rune(cleaned)
	if len(runes) > playerLabelRuneLimit {
		return strings.TrimSpace(string(runes[:playerLabelRuneLimit])) + "..."
	}
	return cleaned
}

func newSessionUUID() string { return uuid.NewString() }

func hashString(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
