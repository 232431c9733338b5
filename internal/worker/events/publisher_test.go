package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/location-lookup/internal/domain"
	"github.com/location-lookup/internal/pkg/metrics"
)

type fakeRepository struct {
	mu      sync.Mutex
	batches [][]domain.ResolutionEvent
	err     error
}

func (r *fakeRepository) Publish(_ context.Context, events []domain.ResolutionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.batches = append(r.batches, append([]domain.ResolutionEvent(nil), events...))
	return nil
}

func (r *fakeRepository) Close() error { return nil }

func (r *fakeRepository) published() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, b := range r.batches {
		n += len(b)
	}
	return n
}

func (r *fakeRepository) batchCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

func event() domain.ResolutionEvent {
	return domain.ResolutionEvent{ID: uuid.New(), Mode: domain.ModeResolve}
}

func run(t *testing.T, p *Publisher) (context.CancelFunc, <-chan struct{}) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, p.Start(ctx))
	}()
	return cancel, done
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher did not stop")
	}
}

func TestPublisher_DropsWhenBufferFull(t *testing.T) {
	mt := metrics.NewMetricsForTesting()
	p := NewPublisher(&fakeRepository{}, 2, mt, zap.NewNop())

	for i := 0; i < 5; i++ {
		p.Emit(event())
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(mt.EventsDropped))
	assert.Len(t, p.queue, 2)
}

func TestPublisher_FlushesOnTick(t *testing.T) {
	repo := &fakeRepository{}
	clock := clockwork.NewFakeClock()
	mt := metrics.NewMetricsForTesting()
	p := NewPublisher(repo, 10, mt, zap.NewNop(), WithClock(clock))

	cancel, done := run(t, p)
	defer cancel()

	ctx, stop := context.WithTimeout(context.Background(), time.Second)
	defer stop()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	p.Emit(event())
	p.Emit(event())
	require.Eventually(t, func() bool { return len(p.queue) == 0 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, repo.published())

	clock.Advance(flushInterval)
	require.Eventually(t, func() bool { return repo.published() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, repo.batchCount())
	assert.Equal(t, 2.0, testutil.ToFloat64(mt.EventsPublished))

	require.NoError(t, p.Stop())
	waitDone(t, done)
}

func TestPublisher_FlushesFullBatch(t *testing.T) {
	repo := &fakeRepository{}
	p := NewPublisher(repo, batchSize*2, metrics.NewMetricsForTesting(), zap.NewNop(), WithClock(clockwork.NewFakeClock()))

	cancel, done := run(t, p)
	defer cancel()

	for i := 0; i < batchSize; i++ {
		p.Emit(event())
	}
	require.Eventually(t, func() bool { return repo.published() == batchSize }, time.Second, 5*time.Millisecond)

	cancel()
	waitDone(t, done)
}

func TestPublisher_StopDrainsQueue(t *testing.T) {
	repo := &fakeRepository{}
	p := NewPublisher(repo, 10, metrics.NewMetricsForTesting(), zap.NewNop(), WithClock(clockwork.NewFakeClock()))

	for i := 0; i < 3; i++ {
		p.Emit(event())
	}
	require.NoError(t, p.Stop())
	require.NoError(t, p.Stop())

	require.NoError(t, p.Start(context.Background()))
	assert.Equal(t, 3, repo.published())
	assert.True(t, p.IsStopped())
}

func TestPublisher_FailedBatchIsCountedAsDropped(t *testing.T) {
	repo := &fakeRepository{err: errors.New("broker unavailable")}
	mt := metrics.NewMetricsForTesting()
	p := NewPublisher(repo, 10, mt, zap.NewNop(), WithClock(clockwork.NewFakeClock()))

	p.Emit(event())
	p.Emit(event())
	require.NoError(t, p.Stop())
	require.NoError(t, p.Start(context.Background()))

	assert.Equal(t, 2.0, testutil.ToFloat64(mt.EventsDropped))
	assert.Zero(t, testutil.ToFloat64(mt.EventsPublished))
}
