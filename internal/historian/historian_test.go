// internal/historian/historian_test.go
package historian

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/jason-s-yu/scorekeeper/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chanSource pops from a channel, reporting ok=false when it is empty.
type chanSource struct {
	ch chan models.GameEvent
}

func (c *chanSource) PopGameEvent(ctx context.Context, timeout time.Duration) (models.GameEvent, bool, error) {
	select {
	case ev := <-c.ch:
		return ev, true, nil
	case <-ctx.Done():
		return models.GameEvent{}, false, ctx.Err()
	case <-time.After(10 * time.Millisecond):
		return models.GameEvent{}, false, nil
	}
}

type memSink struct {
	mu       sync.Mutex
	batches  [][]models.GameEvent
	attempts int
	failWith error
}

func (m *memSink) StoreGameEvents(ctx context.Context, events []models.GameEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
	if m.failWith != nil {
		return m.failWith
	}
	m.batches = append(m.batches, append([]models.GameEvent(nil), events...))
	return nil
}

func (m *memSink) snapshot() [][]models.GameEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]models.GameEvent(nil), m.batches...)
}

func quiet() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func event(i int) models.GameEvent {
	return models.GameEvent{Type: models.EventRoundAdded, GameID: "g1", Timestamp: int64(i)}
}

func TestFlushesFullBatches(t *testing.T) {
	src := &chanSource{ch: make(chan models.GameEvent, 10)}
	sink := &memSink{}
	svc := New(src, sink, 2, time.Hour, quiet())

	for i := 0; i < 4; i++ {
		src.ch <- event(i)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- svc.Run(ctx) }()

	require.Eventually(t, func() bool { return len(sink.snapshot()) == 2 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	batches := sink.snapshot()
	require.Len(t, batches, 2)
	assert.Equal(t, int64(0), batches[0][0].Timestamp)
	assert.Equal(t, int64(3), batches[1][1].Timestamp)
}

func TestFlushesOnTimer(t *testing.T) {
	src := &chanSource{ch: make(chan models.GameEvent, 1)}
	sink := &memSink{}
	svc := New(src, sink, 100, 20*time.Millisecond, quiet())
	src.ch <- event(1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	require.Eventually(t, func() bool { return len(sink.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Len(t, sink.snapshot()[0], 1)
}

func TestFlushesRemainderOnShutdown(t *testing.T) {
	src := &chanSource{ch: make(chan models.GameEvent, 1)}
	sink := &memSink{}
	svc := New(src, sink, 100, time.Hour, quiet())
	src.ch <- event(1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- svc.Run(ctx) }()

	require.Eventually(t, func() bool { return len(src.ch) == 0 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Len(t, sink.snapshot(), 1)
}

func TestSinkFailureKeepsRunning(t *testing.T) {
	src := &chanSource{ch: make(chan models.GameEvent, 2)}
	sink := &memSink{failWith: errors.New("db down")}
	svc := New(src, sink, 1, time.Hour, quiet())
	src.ch <- event(1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- svc.Run(ctx) }()

	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return sink.attempts == 1
	}, 2*time.Second, 5*time.Millisecond)
	sink.mu.Lock()
	sink.failWith = nil
	sink.mu.Unlock()
	src.ch <- event(2)

	require.Eventually(t, func() bool { return len(sink.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(2), sink.snapshot()[0][0].Timestamp)
	cancel()
	require.NoError(t, <-done)
}

func TestZeroFlushDelayFallsBack(t *testing.T) {
	src := &chanSource{ch: make(chan models.GameEvent, 1)}
	sink := &memSink{}
	svc := New(src, sink, 100, 0, quiet())
	assert.Equal(t, DefaultFlushDelay, svc.flushDelay)

	src.ch <- event(1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- svc.Run(ctx) }()

	require.Eventually(t, func() bool { return len(sink.snapshot()) == 1 }, 3*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}
