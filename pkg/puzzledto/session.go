package puzzledto

import "time"

// Move names one piece movement with lowercase words ("white", "knight")
// and algebraic squares.
type Move struct {
	Kind  string
	Color string
	From  string
	To    string
}

type GuessRecord struct {
	Text           string
	Move           Move
	Headline       string
	DestinationHit bool
	TimedOut       bool
	GuessedAt      time.Time
}

type SessionState struct {
	SessionUUID  string
	PlayerName   string
	FEN          string
	Pieces       int
	BoardImage   []byte
	MaxGuesses   int
	GuessesLeft  int
	Guesses      []GuessRecord
	TurnDeadline time.Time
	TimedOut     int
	Finished     bool
	Outcome      string
	Target       *Move
	GameID       int64
	Profile      *PuzzleProfile
}

// GuessSummary is the result of one guess. InvalidCode is empty for
// evaluated guesses.
type GuessSummary struct {
	State          *SessionState
	Guess          *Move
	Headline       string
	DestinationHit bool
	Invalid        bool
	InvalidCode    string
	InvalidDetail  string
}
