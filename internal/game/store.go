package game

import (
	"context"
	"errors"

	"github.com/jason-s-yu/scorekeeper/internal/models"
)

var (
	// ErrNotFound means no game with the id exists in the caller's tenant.
	ErrNotFound = errors.New("game not found")
	// ErrRoundNotFound means the game has no round with the id.
	ErrRoundNotFound = errors.New("round not found")
	// ErrForbidden means the caller may not act on the game.
	ErrForbidden = errors.New("not authorized to modify this game")
	// ErrInvalid wraps request validation failures.
	ErrInvalid = errors.New("invalid game request")
)

// ListFilter scopes a listing to one tenant and, when UserID is set, one owner.
type ListFilter struct {
	TenantID string
	UserID   string
}

// Store persists games. Implementations return games newest first from
// ListGames and run UpdateGame's mutate func atomically with the write.
type Store interface {
	InsertGame(ctx context.Context, g models.Game) error
	GetGame(ctx context.Context, tenantID, gameID string) (models.Game, error)
	ListGames(ctx context.Context, f ListFilter) ([]models.Game, error)
	UpdateGame(ctx context.Context, tenantID, gameID string, mutate func(g *models.Game) error) (models.Game, error)
	DeleteGame(ctx context.Context, tenantID, gameID string) error
}
