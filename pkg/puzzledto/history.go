package puzzledto

import "time"

type PuzzleGame struct {
	ID          int64
	SessionUUID string
	FEN         string
	Target      Move
	Outcome     string
	GuessCount  int
	Guesses     []GuessRecord
	StartedAt   time.Time
	EndedAt     time.Time
	Duration    time.Duration
}

type PuzzleProfile struct {
	Played         int
	Solved         int
	Abandoned      int
	Streak         int
	BestStreak     int
	AverageGuesses float64
	SolveRate      float64
	LastPlayedAt   time.Time
}
