// Package historian drains the game event queue into the game_events table in
// batches.
package historian

import (
	"context"
	"errors"
	"time"

	"github.com/jason-s-yu/scorekeeper/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	popTimeout   = 3 * time.Second
	errorBackoff = time.Second

	// DefaultFlushDelay is used when New is given a non-positive delay.
	DefaultFlushDelay = 500 * time.Millisecond
)

// Source yields queued game events. ok is false when timeout passed without one.
type Source interface {
	PopGameEvent(ctx context.Context, timeout time.Duration) (ev models.GameEvent, ok bool, err error)
}

// Sink persists a batch of events atomically.
type Sink interface {
	StoreGameEvents(ctx context.Context, events []models.GameEvent) error
}

// Service moves events from a Source to a Sink.
type Service struct {
	source     Source
	sink       Sink
	batchSize  int
	flushDelay time.Duration
	logger     *logrus.Logger
}

func New(source Source, sink Sink, batchSize int, flushDelay time.Duration, logger *logrus.Logger) *Service {
	if batchSize <= 0 {
		batchSize = 1
	}
	if flushDelay <= 0 {
		flushDelay = DefaultFlushDelay
	}
	return &Service{
		source:     source,
		sink:       sink,
		batchSize:  batchSize,
		flushDelay: flushDelay,
		logger:     logger,
	}
}

// Run reads and flushes until ctx is cancelled. Events still buffered at that
// point are flushed before Run returns.
func (s *Service) Run(ctx context.Context) error {
	events := make(chan models.GameEvent, s.batchSize)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(events)
		return s.readLoop(gctx, events)
	})
	g.Go(func() error {
		s.batchLoop(events)
		return nil
	})

	s.logger.Info("historian started")
	err := g.Wait()
	s.logger.Info("historian stopped")
	return err
}

func (s *Service) readLoop(ctx context.Context, out chan<- models.GameEvent) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		ev, ok, err := s.source.PopGameEvent(ctx, popTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			s.logger.WithError(err).Error("failed to pop game event")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(errorBackoff):
			}
			continue
		}
		if !ok {
			continue
		}
		select {
		case out <- ev:
		case <-ctx.Done():
			return nil
		}
	}
}

// batchLoop flushes when the batch is full, when the flush timer fires, and
// once more when in is closed.
func (s *Service) batchLoop(in <-chan models.GameEvent) {
	ticker := time.NewTicker(s.flushDelay)
	defer ticker.Stop()

	batch := make([]models.GameEvent, 0, s.batchSize)
	for {
		select {
		case ev, ok := <-in:
			if !ok {
				s.flush(batch)
				return
			}
			batch = append(batch, ev)
			if len(batch) >= s.batchSize {
				s.flush(batch)
				batch = make([]models.GameEvent, 0, s.batchSize)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.flush(batch)
				batch = make([]models.GameEvent, 0, s.batchSize)
			}
		}
	}
}

// flush writes batch with its own context so a shutdown does not abort the
// final write. Failed batches are logged and dropped.
func (s *Service) flush(batch []models.GameEvent) {
	if len(batch) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.sink.StoreGameEvents(ctx, batch); err != nil {
		s.logger.WithError(err).WithField("events", len(batch)).Error("failed to flush game events")
		return
	}
	s.logger.WithField("events", len(batch)).Debug("flushed game events")
}
