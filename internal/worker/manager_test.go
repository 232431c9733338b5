package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type blockingWorker struct {
	*BaseWorker
	started atomic.Bool
	ignore  bool
}

func (w *blockingWorker) Start(ctx context.Context) error {
	w.started.Store(true)
	if w.ignore {
		time.Sleep(time.Second)
		return nil
	}
	select {
	case <-w.StopChan():
	case <-ctx.Done():
	}
	return nil
}

func TestWorkerManager_StartStop(t *testing.T) {
	m := NewWorkerManager(time.Second, zap.NewNop())
	w := &blockingWorker{BaseWorker: NewBaseWorker("test", zap.NewNop())}
	m.Register(w)

	m.Start(context.Background())
	require.Eventually(t, w.started.Load, time.Second, 5*time.Millisecond)

	require.NoError(t, m.Stop())
	assert.True(t, w.IsStopped())
}

func TestWorkerManager_StopTimesOut(t *testing.T) {
	m := NewWorkerManager(20*time.Millisecond, zap.NewNop())
	w := &blockingWorker{BaseWorker: NewBaseWorker("slow", zap.NewNop()), ignore: true}
	m.Register(w)

	m.Start(context.Background())
	require.Eventually(t, w.started.Load, time.Second, 5*time.Millisecond)

	assert.Error(t, m.Stop())
}

func TestWorkerManager_EmptyIsNoop(t *testing.T) {
	m := NewWorkerManager(time.Second, zap.NewNop())

	m.Start(context.Background())
	assert.NoError(t, m.Stop())
}
