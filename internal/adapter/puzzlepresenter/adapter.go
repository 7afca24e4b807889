package puzzlepresenter

import (
	"errors"

	"github.com/park285/Cheese-MoveGuess-bot/internal/chess"
	"github.com/park285/Cheese-MoveGuess-bot/internal/domain"
	"github.com/park285/Cheese-MoveGuess-bot/internal/service/cache"
	svc "github.com/park285/Cheese-MoveGuess-bot/internal/service/puzzle"
	"github.com/park285/Cheese-MoveGuess-bot/pkg/puzzledto"
)

func ToMeta(m puzzledto.RequestMeta) svc.SessionMeta {
	return svc.SessionMeta{SessionID: m.SessionID, Room: m.Room, Sender: m.Sender}
}

func ToDTOState(s *svc.SessionState) *puzzledto.SessionState {
	if s == nil {
		return nil
	}
	out := &puzzledto.SessionState{
		SessionUUID:  s.SessionUUID,
		PlayerName:   s.PlayerName,
		FEN:          s.FEN,
		BoardImage:   append([]byte(nil), s.BoardImage...),
		MaxGuesses:   s.MaxGuesses,
		GuessesLeft:  s.GuessesLeft,
		Guesses:      toDTOGuesses(s.Guesses),
		TurnDeadline: s.TurnDeadline,
		TimedOut:     s.TimedOut,
		Finished:     s.Finished,
		Outcome:      s.Outcome,
		GameID:       s.GameID,
		Profile:      ToDTOProfile(s.Profile),
	}
	if s.Board != nil {
		out.Pieces = s.Board.Len()
	}
	if s.Target != nil {
		m := targetMove(*s.Target)
		out.Target = &m
	}
	return out
}

func ToDTOSummary(g *svc.GuessSummary) *puzzledto.GuessSummary {
	if g == nil {
		return nil
	}
	out := &puzzledto.GuessSummary{
		State:   ToDTOState(g.State),
		Invalid: g.Invalid,
	}
	if g.Invalid {
		out.InvalidCode = invalidCode(g.InvalidReason)
		if g.InvalidReason != nil {
			out.InvalidDetail = g.InvalidReason.Error()
		}
		if g.Guess != (chess.Guess{}) {
			m := guessMove(g.Guess)
			out.Guess = &m
		}
		return out
	}
	if g.Feedback.Valid {
		m := guessMove(g.Guess)
		out.Guess = &m
		out.Headline = g.Feedback.Headline().String()
		out.DestinationHit = g.Feedback.DestinationCorrect()
	}
	return out
}

func ToDTOProfile(p *domain.PuzzleProfile) *puzzledto.PuzzleProfile {
	if p == nil {
		return nil
	}
	return &puzzledto.PuzzleProfile{
		Played:         p.Played,
		Solved:         p.Solved,
		Abandoned:      p.Abandoned,
		Streak:         p.Streak,
		BestStreak:     p.BestStreak,
		AverageGuesses: p.AverageGuesses(),
		SolveRate:      p.SolveRate(),
		LastPlayedAt:   p.LastPlayedAt,
	}
}

func ToDTOGames(list []*domain.PuzzleGame) []*puzzledto.PuzzleGame {
	out := make([]*puzzledto.PuzzleGame, 0, len(list))
	for _, g := range list {
		if dto := ToDTOGame(g); dto != nil {
			out = append(out, dto)
		}
	}
	return out
}

func ToDTOGame(g *domain.PuzzleGame) *puzzledto.PuzzleGame {
	if g == nil {
		return nil
	}
	return &puzzledto.PuzzleGame{
		ID:          g.ID,
		SessionUUID: g.SessionUUID,
		FEN:         g.FEN,
		Target:      puzzledto.Move{Kind: g.TargetKind, Color: g.TargetColor, From: g.TargetFrom, To: g.TargetTo},
		Outcome:     g.Outcome,
		GuessCount:  g.GuessCount,
		Guesses:     toDTOGuesses(g.Guesses),
		StartedAt:   g.StartedAt,
		EndedAt:     g.EndedAt,
		Duration:    g.Duration,
	}
}

// ToDomainError maps service errors onto stable codes for the chat surface.
func ToDomainError(err error) *puzzledto.DomainError {
	if err == nil {
		return nil
	}
	code := puzzledto.CodeInternal
	retryable := false
	switch {
	case errors.Is(err, svc.ErrSessionNotFound):
		code = puzzledto.CodeNoSession
	case errors.Is(err, svc.ErrSessionInProgress):
		code = puzzledto.CodeInProgress
	case errors.Is(err, svc.ErrRoomNotAllowed):
		code = puzzledto.CodeRoomNotAllowed
	case errors.Is(err, chess.ErrGenerationExhausted):
		code, retryable = puzzledto.CodeGeneration, true
	case errors.Is(err, svc.ErrRecordNotFound):
		code = puzzledto.CodeNotFound
	case errors.Is(err, svc.ErrProfileNotFound):
		code = puzzledto.CodeNoProfile
	case errors.Is(err, svc.ErrEmptyGuess):
		code = puzzledto.CodeEmptyGuess
	case errors.Is(err, cache.ErrConflict):
		code, retryable = puzzledto.CodeConflict, true
	}
	return &puzzledto.DomainError{Code: code, Message: err.Error(), Retryable: retryable}
}

func invalidCode(err error) string {
	switch {
	case errors.Is(err, chess.ErrMalformedNotation):
		return "notation"
	case errors.Is(err, chess.ErrNoPieceAtOrigin):
		return "no_piece"
	case errors.Is(err, chess.ErrPieceMismatch):
		return "piece_mismatch"
	case errors.Is(err, chess.ErrIllegalDestination):
		return "illegal"
	default:
		return "malformed"
	}
}

func toDTOGuesses(list []domain.PuzzleGuess) []puzzledto.GuessRecord {
	out := make([]puzzledto.GuessRecord, 0, len(list))
	for _, g := range list {
		out = append(out, puzzledto.GuessRecord{
			Text:           g.Text,
			Move:           puzzledto.Move{Kind: g.Kind, Color: g.Color, From: g.From, To: g.To},
			Headline:       g.Headline,
			DestinationHit: g.DestinationHit,
			TimedOut:       g.TimedOut,
			GuessedAt:      g.GuessedAt,
		})
	}
	return out
}

func targetMove(t chess.Target) puzzledto.Move {
	return puzzledto.Move{
		Kind:  t.Kind.String(),
		Color: t.Color.String(),
		From:  chess.ToNotation(t.From),
		To:    chess.ToNotation(t.To),
	}
}

func guessMove(g chess.Guess) puzzledto.Move {
	return puzzledto.Move{
		Kind:  g.Kind.String(),
		Color: g.Color.String(),
		From:  chess.ToNotation(g.From),
		To:    chess.ToNotation(g.To),
	}
}
