// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/jason-s-yu/scorekeeper/internal/game"
	"github.com/jason-s-yu/scorekeeper/internal/middleware"
	"github.com/jason-s-yu/scorekeeper/internal/models"
)

const (
	feedWriteTimeout = 3 * time.Second
	feedPingInterval = 30 * time.Second
)

// gameFeed handles GET /games/{gameID}/ws. The caller must be able to read the
// game; it then receives the current game followed by every change to it
// until the game is deleted or the client goes away.
func (s *GameServer) gameFeed(w http.ResponseWriter, r *http.Request) {
	u, ok := requestUser(w, r)
	if !ok {
		return
	}
	gameID := chi.URLParam(r, "gameID")
	if _, err := s.Service.Get(r.Context(), u, gameID); err != nil {
		s.writeError(w, r, err)
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{"game"},
		OriginPatterns: s.OriginPatterns,
	})
	if err != nil {
		s.Logger.Warnf("WebSocket accept error for game %s: %v", gameID, err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

	if c.Subprotocol() != "game" {
		s.Logger.Warnf("Client for game %s connected with invalid subprotocol: %s", gameID, c.Subprotocol())
		c.Close(BadSubprotocolError, "Client must use the 'game' subprotocol.")
		return
	}

	sub := s.Hub.Subscribe(gameID)
	defer s.Hub.Unsubscribe(gameID, sub)

	middleware.LogWebSocketConnect(s.Logger, r.RemoteAddr, gameID)

	// Subscribers only listen; CloseRead handles control frames and cancels
	// ctx once the client closes.
	ctx := c.CloseRead(r.Context())

	// The snapshot is read after subscribing so no change falls between the
	// two; a change that lands in both is simply sent twice.
	msg := FeedMessage{Type: FeedGameUpdated}
	g, err := s.Service.Get(ctx, u, gameID)
	switch {
	case errors.Is(err, game.ErrNotFound):
		msg = FeedMessage{Type: FeedGameDeleted, Game: &models.Game{ID: gameID}}
	case err != nil:
		middleware.LogWebSocketDisconnect(s.Logger, r.RemoteAddr, gameID, err)
		return
	default:
		msg.Game = &g
	}
	snapshot, err := json.Marshal(msg)
	if err != nil {
		middleware.LogWebSocketDisconnect(s.Logger, r.RemoteAddr, gameID, err)
		return
	}
	if err := writeFrame(ctx, c, snapshot); err != nil {
		middleware.LogWebSocketDisconnect(s.Logger, r.RemoteAddr, gameID, err)
		return
	}
	if msg.Type == FeedGameDeleted {
		c.Close(websocket.StatusNormalClosure, "Game deleted.")
		middleware.LogWebSocketDisconnect(s.Logger, r.RemoteAddr, gameID, nil)
		return
	}

	err = s.pumpFeed(ctx, c, sub)
	middleware.LogWebSocketDisconnect(s.Logger, r.RemoteAddr, gameID, err)
}

// pumpFeed writes hub frames to c until ctx ends, the game is deleted or the
// subscriber is dropped.
func (s *GameServer) pumpFeed(ctx context.Context, c *websocket.Conn, sub *Subscriber) error {
	ticker := time.NewTicker(feedPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sub.dropped:
			c.Close(SlowConsumerError, "Subscriber too slow.")
			return nil
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, feedWriteTimeout)
			err := c.Ping(pctx)
			cancel()
			if err != nil {
				return err
			}
		case data := <-sub.send:
			if err := writeFrame(ctx, c, data); err != nil {
				return err
			}
			var msg FeedMessage
			if json.Unmarshal(data, &msg) == nil && msg.Type == FeedGameDeleted {
				c.Close(websocket.StatusNormalClosure, "Game deleted.")
				return nil
			}
		}
	}
}

func writeFrame(ctx context.Context, c *websocket.Conn, data []byte) error {
	wctx, cancel := context.WithTimeout(ctx, feedWriteTimeout)
	defer cancel()
	return c.Write(wctx, websocket.MessageText, data)
}
