package puzzle

import (
	"fmt"
	"strings"
	"time"

	"github.com/park285/Cheese-MoveGuess-bot/internal/chess"
	"github.com/park285/Cheese-MoveGuess-bot/internal/domain"
)

type targetPayload struct {
	Kind  string `json:"kind"`
	Color string `json:"color"`
	From  string `json:"from"`
	To    string `json:"to"`
}

type sessionPayload struct {
	SessionUUID   string               `json:"session_uuid"`
	PlayerHash    string               `json:"player_hash"`
	RoomHash      string               `json:"room_hash"`
	PlayerName    string               `json:"player_name,omitempty"`
	FEN           string               `json:"fen"`
	Target        targetPayload        `json:"target"`
	Guesses       []domain.PuzzleGuess `json:"guesses"`
	StartedAt     time.Time            `json:"started_at"`
	TurnStartedAt time.Time            `json:"turn_started_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
	Abandoned     bool                 `json:"abandoned,omitempty"`
}

func (p *sessionPayload) reset(identity sessionIdentity, playerName string, pz *chess.Puzzle, now time.Time) {
	*p = sessionPayload{
		SessionUUID:   newSessionUUID(),
		PlayerHash:    identity.PlayerHash,
		RoomHash:      identity.RoomHash,
		PlayerName:    playerName,
		FEN:           pz.Board.FEN(chess.White),
		Target:        encodeTarget(pz.Target),
		Guesses:       []domain.PuzzleGuess{},
		StartedAt:     now,
		TurnStartedAt: now,
		UpdatedAt:     now,
	}
}

func (p *sessionPayload) board() (*chess.Board, error) {
	b, _, err := chess.ParseFEN(p.FEN)
	if err != nil {
		return nil, fmt.Errorf("session board: %w", err)
	}
	return b, nil
}

func (p *sessionPayload) target() (chess.Target, error) {
	return decodeTarget(p.Target)
}

// applyTimeouts charges one timed-out guess for every whole turn window that
// has elapsed since the current turn started. It never exceeds maxGuesses.
func (p *sessionPayload) applyTimeouts(now time.Time, limit time.Duration, maxGuesses int) int {
	if limit <= 0 || now.Before(p.TurnStartedAt) {
		return 0
	}
	windows := int(now.Sub(p.TurnStartedAt) / limit)
	if remaining := maxGuesses - len(p.Guesses); windows > remaining {
		windows = remaining
	}
	for i := 1; i <= windows; i++ {
		p.Guesses = append(p.Guesses, domain.PuzzleGuess{
			Headline:  causeTimeout,
			TimedOut:  true,
			GuessedAt: p.TurnStartedAt.Add(time.Duration(i) * limit),
		})
	}
	if windows > 0 {
		p.TurnStartedAt = p.TurnStartedAt.Add(time.Duration(windows) * limit)
		p.UpdatedAt = now
	}
	return windows
}

func (p *sessionPayload) solved() bool {
	n := len(p.Guesses)
	return n > 0 && p.Guesses[n-1].Headline == chess.CauseSolved.String()
}

func (p *sessionPayload) exhausted(maxGuesses int) bool {
	return len(p.Guesses) >= maxGuesses
}

// over reports a puzzle that is decided but may not be recorded yet.
func (p *sessionPayload) over(maxGuesses int) bool {
	return p.Abandoned || p.solved() || p.exhausted(maxGuesses)
}

// settle charges elapsed turns on an undecided puzzle and reports whether it is over.
func (p *sessionPayload) settle(now time.Time, limit time.Duration, maxGuesses int) (int, bool) {
	if p.over(maxGuesses) {
		return 0, true
	}
	n := p.applyTimeouts(now, limit, maxGuesses)
	return n, p.over(maxGuesses)
}

// lastValidGuess returns the newest guess that was evaluated against the target.
func (p *sessionPayload) lastValidGuess() (domain.PuzzleGuess, bool) {
	for i := len(p.Guesses) - 1; i >= 0; i-- {
		if !p.Guesses[i].TimedOut {
			return p.Guesses[i], true
		}
	}
	return domain.PuzzleGuess{}, false
}

func encodeTarget(t chess.Target) targetPayload {
	return targetPayload{
		Kind:  t.Kind.String(),
		Color: t.Color.String(),
		From:  chess.ToNotation(t.From),
		To:    chess.ToNotation(t.To),
	}
}

func decodeTarget(tp targetPayload) (chess.Target, error) {
	kind, ok := chess.ParseKind(tp.Kind)
	if !ok {
		return chess.Target{}, fmt.Errorf("session target kind %q", tp.Kind)
	}
	color, ok := chess.ParseColor(tp.Color)
	if !ok {
		return chess.Target{}, fmt.Errorf("session target color %q", tp.Color)
	}
	from, err := chess.FromNotation(tp.From)
	if err != nil {
		return chess.Target{}, fmt.Errorf("session target origin: %w", err)
	}
	to, err := chess.FromNotation(tp.To)
	if err != nil {
		return chess.Target{}, fmt.Errorf("session target destination: %w", err)
	}
	return chess.Target{Kind: kind, Color: color, From: from, To: to}, nil
}

func guessRecord(text string, g chess.Guess, f chess.Feedback, at time.Time) domain.PuzzleGuess {
	return domain.PuzzleGuess{
		Text:           strings.TrimSpace(text),
		Kind:           g.Kind.String(),
		Color:          g.Color.String(),
		From:           chess.ToNotation(g.From),
		To:             chess.ToNotation(g.To),
		Headline:       f.Headline().String(),
		DestinationHit: f.DestinationCorrect(),
		GuessedAt:      at,
	}
}
