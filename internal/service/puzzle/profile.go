package puzzle

import (
	"context"
	"errors"
	"time"

	"github.com/park285/Cheese-MoveGuess-bot/internal/domain"
	"go.uber.org/zap"
)

func outcomeOf(p *sessionPayload, maxGuesses int) string {
	switch {
	case p.solved():
		return domain.OutcomeSolved
	case p.Abandoned:
		return domain.OutcomeAbandoned
	case p.exhausted(maxGuesses):
		return domain.OutcomeExhausted
	default:
		return domain.OutcomeAbandoned
	}
}

// finish records a completed puzzle and fills the reveal fields of state.
func (s *Service) finish(ctx context.Context, identity sessionIdentity, p *sessionPayload, state *SessionState) error {
	target, err := p.target()
	if err != nil {
		return err
	}
	outcome := outcomeOf(p, s.cfg.MaxGuesses)
	state.Finished = true
	state.Outcome = outcome
	state.Target = &target
	state.TurnDeadline = time.Time{}

	gameID, profile, err := s.persistFinished(ctx, identity, p, outcome)
	if err != nil {
		return err
	}
	state.GameID = gameID
	state.Profile = profile

	s.logger.Info("puzzle_finished",
		zap.String("session_uuid", p.SessionUUID),
		zap.String("outcome", outcome),
		zap.Int("guesses", len(p.Guesses)),
		zap.Int64("game_id", gameID),
	)
	return nil
}

func (s *Service) persistFinished(ctx context.Context, identity sessionIdentity, p *sessionPayload, outcome string) (int64, *domain.PuzzleProfile, error) {
	now := s.now()
	record := &domain.PuzzleGame{
		SessionUUID: p.SessionUUID,
		PlayerHash:  identity.PlayerHash,
		RoomHash:    identity.RoomHash,
		FEN:         p.FEN,
		TargetKind:  p.Target.Kind,
		TargetColor: p.Target.Color,
		TargetFrom:  p.Target.From,
		TargetTo:    p.Target.To,
		Outcome:     outcome,
		GuessCount:  len(p.Guesses),
		Guesses:     append([]domain.PuzzleGuess(nil), p.Guesses...),
		StartedAt:   p.StartedAt,
		EndedAt:     now,
		Duration:    now.Sub(p.StartedAt),
	}

	gameID, err := s.repo.InsertGame(ctx, record)
	if err != nil {
		if !errors.Is(err, ErrDuplicateRecord) {
			return 0, nil, err
		}
		existing, fetchErr := s.repo.GetGameBySession(ctx, p.SessionUUID, identity.PlayerHash)
		if fetchErr != nil || existing == nil {
			return 0, nil, err
		}
		profile, profErr := s.fetchProfile(ctx, identity, true)
		if profErr != nil && !errors.Is(profErr, ErrProfileNotFound) {
			return existing.ID, nil, profErr
		}
		return existing.ID, profile, nil
	}

	profile, err := s.fetchProfile(ctx, identity, false)
	if err != nil && !errors.Is(err, ErrProfileNotFound) {
		return gameID, nil, err
	}
	profile = applyResult(profile, identity, record)
	if err := s.repo.UpsertProfile(ctx, profile); err != nil {
		return gameID, nil, err
	}
	s.cacheProfile(ctx, identity, profile)
	return gameID, profile, nil
}

func applyResult(profile *domain.PuzzleProfile, identity sessionIdentity, game *domain.PuzzleGame) *domain.PuzzleProfile {
	if profile == nil {
		profile = &domain.PuzzleProfile{
			PlayerHash: identity.PlayerHash,
			RoomHash:   identity.RoomHash,
			CreatedAt:  game.EndedAt,
		}
	}
	profile.Played++
	switch game.Outcome {
	case domain.OutcomeSolved:
		profile.Solved++
		profile.SolveGuesses += game.GuessCount
		profile.Streak++
		if profile.Streak > profile.BestStreak {
			profile.BestStreak = profile.Streak
		}
	case domain.OutcomeAbandoned:
		profile.Abandoned++
		profile.Streak = 0
	default:
		profile.Streak = 0
	}
	profile.LastPlayedAt = game.EndedAt
	profile.UpdatedAt = game.EndedAt
	return profile
}

func (s *Service) fetchProfile(ctx context.Context, identity sessionIdentity, allowCache bool) (*domain.PuzzleProfile, error) {
	if allowCache {
		cached := &domain.PuzzleProfile{}
		if err := s.cache.Get(ctx, s.profileCacheKey(identity), cached); err != nil {
			return nil, err
		}
		if cached.PlayerHash != "" {
			return cached, nil
		}
	}

	stored, err := s.repo.GetProfile(ctx, identity.PlayerHash, identity.RoomHash)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, ErrProfileNotFound
	}
	s.cacheProfile(ctx, identity, stored)
	return stored, nil
}

func (s *Service) cacheProfile(ctx context.Context, identity sessionIdentity, profile *domain.PuzzleProfile) {
	if profile == nil {
		return
	}
	if err := s.cache.Set(ctx, s.profileCacheKey(identity), profile, profileCacheTTL); err != nil {
		s.logger.Warn("puzzle_profile_cache_failed", zap.Error(err))
	}
}
