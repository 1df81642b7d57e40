package handlers

import (
	"encoding/json"
	"sync"

	"github.com/jason-s-yu/scorekeeper/internal/models"
	"github.com/sirupsen/logrus"
)

// Feed message types sent to live subscribers.
const (
	FeedGameUpdated = "game_updated"
	FeedGameDeleted = "game_deleted"
)

const subscriberBuffer = 16

// FeedMessage is one frame of the live game feed.
type FeedMessage struct {
	Type string       `json:"type"`
	Game *models.Game `json:"game,omitempty"`
}

// Subscriber receives feed frames for one game.
type Subscriber struct {
	send chan []byte

	// dropped is closed when the hub gives up on a subscriber that stopped reading.
	dropped  chan struct{}
	dropOnce sync.Once
}

// GameHub fans game events out to websocket subscribers, per game id.
type GameHub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscriber]struct{}
	logger *logrus.Logger
}

func NewGameHub(logger *logrus.Logger) *GameHub {
	return &GameHub{
		subs:   make(map[string]map[*Subscriber]struct{}),
		logger: logger,
	}
}

// Subscribe registers a subscriber for gameID.
func (h *GameHub) Subscribe(gameID string) *Subscriber {
	s := &Subscriber{
		send:    make(chan []byte, subscriberBuffer),
		dropped: make(chan struct{}),
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[gameID] == nil {
		h.subs[gameID] = make(map[*Subscriber]struct{})
	}
	h.subs[gameID][s] = struct{}{}
	return s
}

// Unsubscribe removes s. It is safe to call more than once.
func (h *GameHub) Unsubscribe(gameID string, s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[gameID]
	delete(set, s)
	if len(set) == 0 {
		delete(h.subs, gameID)
	}
}

// Subscribers counts live subscribers of gameID.
func (h *GameHub) Subscribers(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[gameID])
}

// Broadcast sends ev to every subscriber of its game without blocking. A
// subscriber whose buffer is full is dropped.
func (h *GameHub) Broadcast(ev models.GameEvent) {
	msg := FeedMessage{Type: FeedGameUpdated, Game: ev.Game}
	if ev.Type == models.EventGameDeleted {
		msg = FeedMessage{Type: FeedGameDeleted, Game: &models.Game{ID: ev.GameID}}
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.WithError(err).WithField("game_id", ev.GameID).Error("failed to marshal feed message")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs[ev.GameID] {
		select {
		case s.send <- data:
		default:
			h.logger.WithField("game_id", ev.GameID).Warn("dropping slow feed subscriber")
			s.dropOnce.Do(func() { close(s.dropped) })
		}
	}
}
