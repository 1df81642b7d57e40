// Package session holds the client-side game session manager: a cache of the
// games visible to the caller, the currently selected game, and the
// operations that forward every change to the games API.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/jason-s-yu/scorekeeper/internal/models"
	"github.com/jason-s-yu/scorekeeper/internal/scoring"
	"github.com/sirupsen/logrus"
)

// Messages stored in the error slot when a backend call fails.
const (
	MsgFetchFailed    = "Failed to fetch games"
	MsgCreateFailed   = "Failed to create game"
	MsgAddRoundFailed = "Failed to add round"
	MsgEditFailed     = "Failed to edit round"
	MsgCompleteFailed = "Failed to complete game"
	MsgDeleteFailed   = "Failed to delete game"
)

// ErrNoPlayers is returned by StartNewGame when the player list is empty.
var ErrNoPlayers = errors.New("a game needs at least one player")

// GamesAPI is the backend collaborator the manager talks to.
type GamesAPI interface {
	ListGames(ctx context.Context, opts models.ListGamesOptions) ([]models.Game, error)
	CreateGame(ctx context.Context, req models.CreateGameRequest) (models.Game, error)
	AddRound(ctx context.Context, gameID string, scores map[string]int) (models.Game, error)
	EditRound(ctx context.Context, gameID, roundID string, scores map[string]int) (models.Game, error)
	CompleteGame(ctx context.Context, gameID string) (models.Game, error)
	DeleteGame(ctx context.Context, gameID string) error
}

// GameState is a snapshot of the manager's cache.
type GameState struct {
	Games       []models.Game
	CurrentGame *models.Game
}

// Manager owns the GameState for one user session. All mutation goes
// through its methods; readers get copies.
//
// The current game is kept as an id into games and resolved on read. A copy
// of the last server response for it is pinned so the selection survives a
// refresh that no longer lists it.
type Manager struct {
	api    GamesAPI
	logger *logrus.Logger

	mu        sync.RWMutex
	games     []models.Game
	currentID string
	pinned    *models.Game
	inFlight  int
	err       string
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for failed backend calls.
func WithLogger(l *logrus.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// New builds a Manager with an empty cache.
func New(api GamesAPI, opts ...Option) *Manager {
	m := &Manager{
		api:    api,
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// begin marks a call in flight and clears the error slot.
func (m *Manager) begin() {
	m.mu.Lock()
	m.inFlight++
	m.err = ""
	m.mu.Unlock()
}

// end closes a call started with begin. A non-nil err records msg in the
// error slot. apply runs under the lock only on success.
func (m *Manager) end(op, gameID string, err error, msg string, apply func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight--
	if err != nil {
		m.err = msg
		m.logger.WithFields(logrus.Fields{
			"op":      op,
			"game_id": gameID,
		}).WithError(err).Error(msg)
		return
	}
	if apply != nil {
		apply()
	}
}

// RefreshGames reloads the visible games. Failures are recorded in the error
// slot and otherwise swallowed; the cached list is kept as it was.
func (m *Manager) RefreshGames(ctx context.Context, opts models.ListGamesOptions) {
	m.begin()
	games, err := m.api.ListGames(ctx, opts)
	m.end("refresh_games", "", err, MsgFetchFailed, func() {
		m.games = cloneGames(games)
	})
}

// StartNewGame creates a game and makes it current. A targetScore of zero
// means models.DefaultTargetScore. An empty player list fails locally with
// ErrNoPlayers and sets the error slot like a failed create.
func (m *Manager) StartNewGame(ctx context.Context, name string, players []string, targetScore int) error {
	if len(players) == 0 {
		m.mu.Lock()
		m.err = MsgCreateFailed
		m.mu.Unlock()
		return ErrNoPlayers
	}
	if targetScore == 0 {
		targetScore = models.DefaultTargetScore
	}
	m.begin()
	g, err := m.api.CreateGame(ctx, models.CreateGameRequest{
		Name:        name,
		Players:     players,
		TargetScore: targetScore,
	})
	m.end("start_new_game", "", err, MsgCreateFailed, func() {
		m.games = append([]models.Game{g.Clone()}, m.games...)
		m.setCurrent(g)
	})
	return err
}

// AddRound appends a round to the current game. Without a current game it
// does nothing. The server's game replaces the cached one wholesale.
func (m *Manager) AddRound(ctx context.Context, scores map[string]int) error {
	gameID := m.currentGameID()
	if gameID == "" {
		return nil
	}
	m.begin()
	g, err := m.api.AddRound(ctx, gameID, scores)
	m.end("add_round", gameID, err, MsgAddRoundFailed, func() {
		m.replaceGame(g)
		m.setCurrent(g)
	})
	return err
}

// EditRound replaces the scores of one round of the current game. Without a
// current game it does nothing.
func (m *Manager) EditRound(ctx context.Context, roundID string, scores map[string]int) error {
	gameID := m.currentGameID()
	if gameID == "" {
		return nil
	}
	m.begin()
	g, err := m.api.EditRound(ctx, gameID, roundID, scores)
	m.end("edit_round", gameID, err, MsgEditFailed, func() {
		m.replaceGame(g)
		m.setCurrent(g)
	})
	return err
}

// CompleteGame marks the current game complete on the server and clears the
// selection. Without a current game it does nothing.
func (m *Manager) CompleteGame(ctx context.Context) error {
	gameID := m.currentGameID()
	if gameID == "" {
		return nil
	}
	m.begin()
	g, err := m.api.CompleteGame(ctx, gameID)
	m.end("complete_game", gameID, err, MsgCompleteFailed, func() {
		m.replaceGame(g)
		m.clearCurrent()
	})
	return err
}

// EndGame drops the selection without touching the game itself.
func (m *Manager) EndGame() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearCurrent()
}

// SelectGame makes the cached game with gameID current, or clears the
// selection when no such game is cached.
func (m *Manager) SelectGame(gameID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.games {
		if g.ID == gameID {
			m.setCurrent(g)
			return
		}
	}
	m.clearCurrent()
}

// DeleteGame removes a game on the server and then from the cache. A failed
// call leaves the cache untouched.
func (m *Manager) DeleteGame(ctx context.Context, gameID string) error {
	m.begin()
	err := m.api.DeleteGame(ctx, gameID)
	m.end("delete_game", gameID, err, MsgDeleteFailed, func() {
		kept := m.games[:0]
		for _, g := range m.games {
			if g.ID != gameID {
				kept = append(kept, g)
			}
		}
		m.games = kept
		if m.currentID == gameID {
			m.clearCurrent()
		}
	})
	return err
}

// GetPlayerTotals sums playerID's scores over the current game's rounds.
// It returns 0 when no game is current.
func (m *Manager) GetPlayerTotals(playerID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g := m.current()
	if g == nil {
		return 0
	}
	return scoring.PlayerTotal(g.Rounds, playerID)
}

// Totals returns every player's total for the current game, or nil when no
// game is current.
func (m *Manager) Totals() (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g := m.current()
	if g == nil {
		return nil, nil
	}
	return scoring.Totals(*g)
}

// Winner returns the leading player of the current game. ok is false when
// no game is current or it has no players.
func (m *Manager) Winner() (models.Player, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g := m.current()
	if g == nil {
		return models.Player{}, false, nil
	}
	return scoring.Winner(*g)
}

// State returns a deep copy of the cache.
func (m *Manager) State() GameState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := GameState{Games: cloneGames(m.games)}
	if g := m.current(); g != nil {
		c := g.Clone()
		st.CurrentGame = &c
	}
	return st
}

// Games returns a copy of the cached games.
func (m *Manager) Games() []models.Game {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneGames(m.games)
}

// CurrentGame returns a copy of the current game.
func (m *Manager) CurrentGame() (models.Game, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g := m.current()
	if g == nil {
		return models.Game{}, false
	}
	return g.Clone(), true
}

// IsLoading reports whether any backend call is in flight.
func (m *Manager) IsLoading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inFlight > 0
}

// Err returns the message of the last failed call, or "" after a call
// started since then.
func (m *Manager) Err() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.err
}

func (m *Manager) currentGameID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentID
}

// current resolves the selection. Caller holds mu.
func (m *Manager) current() *models.Game {
	if m.currentID == "" {
		return nil
	}
	for i := range m.games {
		if m.games[i].ID == m.currentID {
			return &m.games[i]
		}
	}
	return m.pinned
}

// Caller holds mu.
func (m *Manager) setCurrent(g models.Game) {
	c := g.Clone()
	m.currentID = g.ID
	m.pinned = &c
}

// Caller holds mu.
func (m *Manager) clearCurrent() {
	m.currentID = ""
	m.pinned = nil
}

// replaceGame swaps the cached entry with the same id for g. Caller holds mu.
func (m *Manager) replaceGame(g models.Game) {
	for i := range m.games {
		if m.games[i].ID == g.ID {
			m.games[i] = g.Clone()
		}
	}
}

func cloneGames(games []models.Game) []models.Game {
	out := make([]models.Game, len(games))
	for i, g := range games {
		out[i] = g.Clone()
	}
	return out
}
