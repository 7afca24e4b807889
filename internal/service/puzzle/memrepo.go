package puzzle

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/park285/Cheese-MoveGuess-bot/internal/domain"
)

// memrepo keeps puzzle records in process memory for development and tests.
type memrepo struct {
	mu sync.RWMutex

	nextID int64

	gamesByID      map[int64]*domain.PuzzleGame
	gamesByPlayer  map[string][]*domain.PuzzleGame
	gamesBySession map[string]*domain.PuzzleGame

	profiles map[string]*domain.PuzzleProfile // playerHash|roomHash
}

func NewMemoryRepository() Repository {
	return &memrepo{
		gamesByID:      make(map[int64]*domain.PuzzleGame),
		gamesByPlayer:  make(map[string][]*domain.PuzzleGame),
		gamesBySession: make(map[string]*domain.PuzzleGame),
		profiles:       make(map[string]*domain.PuzzleProfile),
	}
}

func (m *memrepo) InsertGame(_ context.Context, game *domain.PuzzleGame) (int64, error) {
	if game == nil {
		return 0, ErrDuplicateRecord
	}
	key := strings.TrimSpace(game.SessionUUID)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.gamesBySession[key]; exists {
		return 0, ErrDuplicateRecord
	}

	m.nextID++
	stored := cloneGame(game)
	stored.ID = m.nextID

	m.gamesByID[stored.ID] = stored
	m.gamesBySession[key] = stored
	m.gamesByPlayer[game.PlayerHash] = append(m.gamesByPlayer[game.PlayerHash], stored)
	return stored.ID, nil
}

func (m *memrepo) GetRecentGames(_ context.Context, playerHash string, limit int) ([]*domain.PuzzleGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := m.gamesByPlayer[playerHash]
	items := make([]*domain.PuzzleGame, 0, len(list))
	for _, g := range list {
		items = append(items, cloneGame(g))
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].EndedAt.Equal(items[j].EndedAt) {
			return items[i].EndedAt.After(items[j].EndedAt)
		}
		return items[i].ID > items[j].ID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *memrepo) GetGame(_ context.Context, id int64, playerHash string) (*domain.PuzzleGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.gamesByID[id]
	if !ok || g.PlayerHash != playerHash {
		return nil, nil
	}
	return cloneGame(g), nil
}

func (m *memrepo) GetGameBySession(_ context.Context, sessionUUID string, playerHash string) (*domain.PuzzleGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.gamesBySession[strings.TrimSpace(sessionUUID)]
	if !ok || g.PlayerHash != playerHash {
		return nil, nil
	}
	return cloneGame(g), nil
}

func (m *memrepo) GetProfile(_ context.Context, playerHash string, roomHash string) (*domain.PuzzleProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.profiles[profileKey(playerHash, roomHash)]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (m *memrepo) UpsertProfile(_ context.Context, profile *domain.PuzzleProfile) error {
	if profile == nil {
		return nil
	}
	cp := *profile
	m.mu.Lock()
	m.profiles[profileKey(profile.PlayerHash, profile.RoomHash)] = &cp
	m.mu.Unlock()
	return nil
}

func cloneGame(g *domain.PuzzleGame) *domain.PuzzleGame {
	cp := *g
	cp.Guesses = append([]domain.PuzzleGuess(nil), g.Guesses...)
	return &cp
}

func profileKey(playerHash, roomHash string) string {
	return strings.TrimSpace(playerHash) + "|" + strings.TrimSpace(roomHash)
}
