package domain

import "time"

// Puzzle outcomes stored with every finished game.
const (
	OutcomeSolved    = "solved"
	OutcomeExhausted = "exhausted"
	OutcomeAbandoned = "abandoned"
)

type PuzzleGuess struct {
	Text     string `json:"text"`
	Kind     string `json:"kind,omitempty"`
	Color    string `json:"color,omitempty"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
	Headline string `json:"headline"`
	// DestinationHit is set when the destination square matched the target.
	DestinationHit bool      `json:"destination_hit,omitempty"`
	TimedOut       bool      `json:"timed_out,omitempty"`
	GuessedAt      time.Time `json:"guessed_at"`
}

type PuzzleGame struct {
	ID          int64
	SessionUUID string
	PlayerHash  string
	RoomHash    string
	FEN         string
	TargetKind  string
	TargetColor string
	TargetFrom  string
	TargetTo    string
	Outcome     string
	GuessCount  int
	Guesses     []PuzzleGuess
	StartedAt   time.Time
	EndedAt     time.Time
	Duration    time.Duration
}

type PuzzleProfile struct {
	PlayerHash   string
	RoomHash     string
	Played       int
	Solved       int
	Abandoned    int
	Streak       int
	BestStreak   int
	SolveGuesses int
	LastPlayedAt time.Time
	UpdatedAt    time.Time
	CreatedAt    time.Time
}

// AverageGuesses is the mean number of guesses on solved puzzles.
func (p *PuzzleProfile) AverageGuesses() float64 {
	if p == nil || p.Solved == 0 {
		return 0
	}
	return float64(p.SolveGuesses) / float64(p.Solved)
}

func (p *PuzzleProfile) SolveRate() float64 {
	if p == nil || p.Played == 0 {
		return 0
	}
	return float64(p.Solved) / float64(p.Played)
}
