// Package game implements the server-side rules of the games API: who may
// see and change a game, how rounds are recorded, and what is published
// after every change.
package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/scorekeeper/internal/models"
	"github.com/jason-s-yu/scorekeeper/internal/scoring"
	"github.com/sirupsen/logrus"
)

// Publisher receives every game event, e.g. the historian queue.
type Publisher interface {
	PublishGameEvent(ctx context.Context, ev models.GameEvent) error
}

// Broadcaster fans game events out to live subscribers.
type Broadcaster interface {
	Broadcast(ev models.GameEvent)
}

// Service applies game rules on top of a Store.
type Service struct {
	store       Store
	publisher   Publisher
	broadcaster Broadcaster
	logger      *logrus.Logger

	now   func() time.Time
	newID func() string
}

// Option configures a Service.
type Option func(*Service)

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithBroadcaster(b Broadcaster) Option {
	return func(s *Service) { s.broadcaster = b }
}

func WithLogger(l *logrus.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides the time source used to stamp new games.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: logrus.StandardLogger(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the games the caller asked for, newest first. Without
// TenantWide only the caller's own games are listed.
func (s *Service) List(ctx context.Context, u models.User, opts models.ListGamesOptions) ([]models.Game, error) {
	f := ListFilter{TenantID: u.TenantID, UserID: u.ID}
	if opts.TenantWide {
		f.UserID = opts.UserID
	}
	games, err := s.store.ListGames(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return games, nil
}

// Get returns one game of the caller's tenant.
func (s *Service) Get(ctx context.Context, u models.User, gameID string) (models.Game, error) {
	return s.store.GetGame(ctx, u.TenantID, gameID)
}

// Create stores a new game owned by the caller. Player ids are generated
// here; names come from the request in seat order.
func (s *Service) Create(ctx context.Context, u models.User, req models.CreateGameRequest) (models.Game, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return models.Game{}, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if len(req.Players) == 0 {
		return models.Game{}, fmt.Errorf("%w: at least one player is required", ErrInvalid)
	}
	target := req.TargetScore
	if target == 0 {
		target = models.DefaultTargetScore
	}
	if target < 0 {
		return models.Game{}, fmt.Errorf("%w: targetScore must be positive", ErrInvalid)
	}

	g := models.Game{
		ID:          s.newID(),
		Name:        name,
		Date:        s.now().UTC(),
		Players:     make([]models.Player, 0, len(req.Players)),
		Rounds:      []models.Round{},
		TargetScore: target,
		UserID:      u.ID,
		TenantID:    u.TenantID,
	}
	for i, pname := range req.Players {
		pname = strings.TrimSpace(pname)
		if pname == "" {
			return models.Game{}, fmt.Errorf("%w: player %d has no name", ErrInvalid, i+1)
		}
		g.Players = append(g.Players, models.Player{ID: s.newID(), Name: pname})
	}

	if err := s.store.InsertGame(ctx, g); err != nil {
		return models.Game{}, fmt.Errorf("insert game: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"game_id":   g.ID,
		"user_id":   u.ID,
		"tenant_id": u.TenantID,
	}).Info("created game")
	s.emit(ctx, u, models.EventGameCreated, g)
	return g, nil
}

// AddRound appends a round to the game. Completion is never inferred from
// the totals; it only happens through Complete.
func (s *Service) AddRound(ctx context.Context, u models.User, gameID string, scores map[string]int) (models.Game, error) {
	g, err := s.store.UpdateGame(ctx, u.TenantID, gameID, func(g *models.Game) error {
		if err := checkOwner(u, *g); err != nil {
			return err
		}
		if err := validateRound(*g, scores); err != nil {
			return err
		}
		g.Rounds = append(g.Rounds, models.Round{ID: s.newID(), Scores: copyScores(scores)})
		return nil
	})
	if err != nil {
		return models.Game{}, err
	}
	s.emit(ctx, u, models.EventRoundAdded, g)
	return g, nil
}

// EditRound replaces the scores of an existing round.
func (s *Service) EditRound(ctx context.Context, u models.User, gameID, roundID string, scores map[string]int) (models.Game, error) {
	g, err := s.store.UpdateGame(ctx, u.TenantID, gameID, func(g *models.Game) error {
		if err := checkOwner(u, *g); err != nil {
			return err
		}
		idx := g.RoundIndex(roundID)
		if idx < 0 {
			return ErrRoundNotFound
		}
		if err := validateRound(*g, scores); err != nil {
			return err
		}
		g.Rounds[idx].Scores = copyScores(scores)
		return nil
	})
	if err != nil {
		return models.Game{}, err
	}
	s.emit(ctx, u, models.EventRoundEdited, g)
	return g, nil
}

// Complete marks the game complete. Completing twice is harmless.
func (s *Service) Complete(ctx context.Context, u models.User, gameID string) (models.Game, error) {
	g, err := s.store.UpdateGame(ctx, u.TenantID, gameID, func(g *models.Game) error {
		if err := checkOwner(u, *g); err != nil {
			return err
		}
		g.IsComplete = true
		return nil
	})
	if err != nil {
		return models.Game{}, err
	}
	s.logger.WithFields(logrus.Fields{
		"game_id": gameID,
		"user_id": u.ID,
	}).Info("marked game complete")
	s.emit(ctx, u, models.EventGameCompleted, g)
	return g, nil
}

// Delete removes the game for good.
func (s *Service) Delete(ctx context.Context, u models.User, gameID string) error {
	g, err := s.store.GetGame(ctx, u.TenantID, gameID)
	if err != nil {
		return err
	}
	if err := checkOwner(u, g); err != nil {
		return err
	}
	if err := s.store.DeleteGame(ctx, u.TenantID, gameID); err != nil {
		return err
	}
	s.emit(ctx, u, models.EventGameDeleted, models.Game{ID: g.ID, TenantID: g.TenantID})
	return nil
}

// checkOwner allows the game's owner and tenant admins.
func checkOwner(u models.User, g models.Game) error {
	if g.UserID == u.ID || u.IsAdmin() {
		return nil
	}
	return ErrForbidden
}

func validateRound(g models.Game, scores map[string]int) error {
	if len(scores) == 0 {
		return fmt.Errorf("%w: scores are required", ErrInvalid)
	}
	if err := scoring.ValidateScores(g.Players, scores); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

func copyScores(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// emit publishes and broadcasts ev. Publishing failures are logged, not
// returned: the game change itself already succeeded.
func (s *Service) emit(ctx context.Context, u models.User, typ string, g models.Game) {
	ev := models.GameEvent{
		Type:        typ,
		GameID:      g.ID,
		TenantID:    g.TenantID,
		ActorUserID: u.ID,
		Timestamp:   s.now().UnixMilli(),
	}
	if typ != models.EventGameDeleted {
		snap := g.Clone()
		ev.Game = &snap
	}
	if s.publisher != nil {
		if err := s.publisher.PublishGameEvent(ctx, ev); err != nil {
			s.logger.WithFields(logrus.Fields{
				"game_id": g.ID,
				"event":   typ,
			}).WithError(err).Warn("failed to publish game event")
		}
	}
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(ev)
	}
}

// IsClientError reports whether err should be answered with a 4xx.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrRoundNotFound) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrInvalid)
}
