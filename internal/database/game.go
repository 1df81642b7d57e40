// internal/database/game.go
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/scorekeeper/internal/game"
	"github.com/jason-s-yu/scorekeeper/internal/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var gameColumns = []string{
	"id", "tenant_id", "user_id", "name", "created_at",
	"target_score", "is_complete", "players", "rounds",
}

// GameRepo stores games in the games table. Players and rounds are kept as
// JSONB documents so round order is exactly the stored array order.
type GameRepo struct {
	DB *pgxpool.Pool
}

func NewGameRepo(db *pgxpool.Pool) *GameRepo {
	return &GameRepo{DB: db}
}

var _ game.Store = (*GameRepo)(nil)

// InsertGame writes a new games row.
func (r *GameRepo) InsertGame(ctx context.Context, g models.Game) error {
	players, err := json.Marshal(g.Players)
	if err != nil {
		return fmt.Errorf("failed to marshal players: %w", err)
	}
	rounds, err := marshalRounds(g.Rounds)
	if err != nil {
		return err
	}
	q, args, err := psql.Insert("games").
		Columns(gameColumns...).
		Values(g.ID, g.TenantID, g.UserID, g.Name, g.Date, g.TargetScore, g.IsComplete, players, rounds).
		ToSql()
	if err != nil {
		return err
	}
	return pgx.BeginTxFunc(ctx, r.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, args...)
		return err
	})
}

// GetGame loads one game of the tenant.
func (r *GameRepo) GetGame(ctx context.Context, tenantID, gameID string) (models.Game, error) {
	q, args, err := psql.Select(gameColumns...).
		From("games").
		Where(sq.Eq{"id": gameID, "tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return models.Game{}, err
	}
	return scanGame(r.DB.QueryRow(ctx, q, args...))
}

// ListGames returns the tenant's games, newest first.
func (r *GameRepo) ListGames(ctx context.Context, f game.ListFilter) ([]models.Game, error) {
	sb := psql.Select(gameColumns...).
		From("games").
		Where(sq.Eq{"tenant_id": f.TenantID}).
		OrderBy("created_at DESC", "id DESC")
	if f.UserID != "" {
		sb = sb.Where(sq.Eq{"user_id": f.UserID})
	}
	q, args, err := sb.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	games := []models.Game{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// UpdateGame locks the row, applies mutate and writes back the mutable
// columns in one transaction.
func (r *GameRepo) UpdateGame(ctx context.Context, tenantID, gameID string, mutate func(g *models.Game) error) (models.Game, error) {
	sel, selArgs, err := psql.Select(gameColumns...).
		From("games").
		Where(sq.Eq{"id": gameID, "tenant_id": tenantID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return models.Game{}, err
	}

	var out models.Game
	err = pgx.BeginTxFunc(ctx, r.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		g, err := scanGame(tx.QueryRow(ctx, sel, selArgs...))
		if err != nil {
			return err
		}
		if err := mutate(&g); err != nil {
			return err
		}
		rounds, err := marshalRounds(g.Rounds)
		if err != nil {
			return err
		}
		upd, updArgs, err := psql.Update("games").
			Set("rounds", rounds).
			Set("is_complete", g.IsComplete).
			Where(sq.Eq{"id": gameID, "tenant_id": tenantID}).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, upd, updArgs...); err != nil {
			return err
		}
		out = g
		return nil
	})
	if err != nil {
		return models.Game{}, err
	}
	return out, nil
}

// DeleteGame hard deletes the row.
func (r *GameRepo) DeleteGame(ctx context.Context, tenantID, gameID string) error {
	q, args, err := psql.Delete("games").
		Where(sq.Eq{"id": gameID, "tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return err
	}
	return pgx.BeginTxFunc(ctx, r.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, q, args...)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return game.ErrNotFound
		}
		return nil
	})
}

func marshalRounds(rounds []models.Round) ([]byte, error) {
	if rounds == nil {
		rounds = []models.Round{}
	}
	b, err := json.Marshal(rounds)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rounds: %w", err)
	}
	return b, nil
}

func scanGame(row pgx.Row) (models.Game, error) {
	var (
		g       models.Game
		created time.Time
		players []byte
		rounds  []byte
	)
	err := row.Scan(
		&g.ID, &g.TenantID, &g.UserID, &g.Name, &created,
		&g.TargetScore, &g.IsComplete, &players, &rounds,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Game{}, game.ErrNotFound
	}
	if err != nil {
		return models.Game{}, err
	}
	g.Date = created.UTC()
	if err := json.Unmarshal(players, &g.Players); err != nil {
		return models.Game{}, fmt.Errorf("game %s: decode players: %w", g.ID, err)
	}
	if err := json.Unmarshal(rounds, &g.Rounds); err != nil {
		return models.Game{}, fmt.Errorf("game %s: decode rounds: %w", g.ID, err)
	}
	if g.Rounds == nil {
		g.Rounds = []models.Round{}
	}
	return g, nil
}
