package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/scorekeeper/internal/models"
)

// EventRepo appends to the game_events table.
type EventRepo struct {
	DB *pgxpool.Pool
}

func NewEventRepo(db *pgxpool.Pool) *EventRepo {
	return &EventRepo{DB: db}
}

// StoreGameEvents inserts the batch in a single transaction.
func (r *EventRepo) StoreGameEvents(ctx context.Context, events []models.GameEvent) error {
	if len(events) == 0 {
		return nil
	}
	err := pgx.BeginTxFunc(ctx, r.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		b := &pgx.Batch{}
		for _, ev := range events {
			var payload []byte
			if ev.Game != nil {
				p, err := json.Marshal(ev.Game)
				if err != nil {
					return fmt.Errorf("marshal event payload: %w", err)
				}
				payload = p
			}
			b.Queue(`
				INSERT INTO game_events (game_id, tenant_id, actor_user_id, event_type, payload, occurred_at)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, ev.GameID, ev.TenantID, ev.ActorUserID, ev.Type, payload, time.UnixMilli(ev.Timestamp).UTC())
		}
		return tx.SendBatch(ctx, b).Close()
	})
	if err != nil {
		return fmt.Errorf("insert game events: %w", err)
	}
	return nil
}
