package game

import (
	"context"
	"sort"
	"sync"

	"github.com/jason-s-yu/scorekeeper/internal/models"
)

// GameStore keeps games in memory. It backs the server when no database is
// configured and is used by tests.
type GameStore struct {
	mu    sync.Mutex
	games map[string]models.Game
}

func NewGameStore() *GameStore {
	return &GameStore{
		games: make(map[string]models.Game),
	}
}

func (s *GameStore) InsertGame(ctx context.Context, g models.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[g.ID] = g.Clone()
	return nil
}

func (s *GameStore) GetGame(ctx context.Context, tenantID, gameID string) (models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok || g.TenantID != tenantID {
		return models.Game{}, ErrNotFound
	}
	return g.Clone(), nil
}

func (s *GameStore) ListGames(ctx context.Context, f ListFilter) ([]models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Game, 0, len(s.games))
	for _, g := range s.games {
		if g.TenantID != f.TenantID {
			continue
		}
		if f.UserID != "" && g.UserID != f.UserID {
			continue
		}
		out = append(out, g.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID > out[j].ID
		}
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

// UpdateGame runs mutate on a copy under the store lock and saves the result
// only when mutate succeeds.
func (s *GameStore) UpdateGame(ctx context.Context, tenantID, gameID string, mutate func(g *models.Game) error) (models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok || g.TenantID != tenantID {
		return models.Game{}, ErrNotFound
	}
	work := g.Clone()
	if err := mutate(&work); err != nil {
		return models.Game{}, err
	}
	s.games[gameID] = work
	return work.Clone(), nil
}

func (s *GameStore) DeleteGame(ctx context.Context, tenantID, gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok || g.TenantID != tenantID {
		return ErrNotFound
	}
	delete(s.games, gameID)
	return nil
}
