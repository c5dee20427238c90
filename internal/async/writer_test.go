package async

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWriter_ExecutesTasks(t *testing.T) {
	w := NewWriter(16, zap.NewNop(), nil)

	var executed atomic.Int64
	for i := 0; i < 5; i++ {
		ok := w.Enqueue("count", func(ctx context.Context) error {
			executed.Add(1)
			return nil
		})
		assert.True(t, ok)
	}

	require.NoError(t, w.Close())
	assert.Equal(t, int64(5), executed.Load())
}

func TestWriter_DrainsOnClose(t *testing.T) {
	w := NewWriter(16, zap.NewNop(), nil)

	var executed atomic.Bool
	ok := w.Enqueue("pending", func(ctx context.Context) error {
		executed.Store(true)
		return nil
	})
	require.True(t, ok)

	require.NoError(t, w.Close())
	assert.True(t, executed.Load(), "queued task must run before Close returns")
}

func TestWriter_DropsWhenFull(t *testing.T) {
	var dropped []string
	var droppedMu sync.Mutex
	onDrop := func(name string) {
		droppedMu.Lock()
		dropped = append(dropped, name)
		droppedMu.Unlock()
	}

	w := NewWriter(1, zap.NewNop(), onDrop)
	defer w.Close()

	block := make(chan struct{})
	// First task occupies the worker
	w.Enqueue("blocker", func(ctx context.Context) error {
		<-block
		return nil
	})

	// Fill the queue, then overflow it
	filled := false
	for i := 0; i < 10; i++ {
		if !w.Enqueue("overflow", func(ctx context.Context) error { return nil }) {
			filled = true
			break
		}
	}
	close(block)

	assert.True(t, filled, "queue should eventually reject tasks")
	droppedMu.Lock()
	defer droppedMu.Unlock()
	assert.NotEmpty(t, dropped)
	assert.Equal(t, "overflow", dropped[0])
}

func TestWriter_EnqueueAfterClose(t *testing.T) {
	var droppedCount atomic.Int64
	w := NewWriter(16, zap.NewNop(), func(string) { droppedCount.Add(1) })
	require.NoError(t, w.Close())

	ok := w.Enqueue("late", func(ctx context.Context) error { return nil })
	assert.False(t, ok)
	assert.Equal(t, int64(1), droppedCount.Load())

	// Second Close is a no-op
	assert.NoError(t, w.Close())
}

func TestWriter_TaskErrorDoesNotStopWorker(t *testing.T) {
	w := NewWriter(16, zap.NewNop(), nil)

	var executed atomic.Bool
	w.Enqueue("failing", func(ctx context.Context) error {
		return assert.AnError
	})
	w.Enqueue("after-failure", func(ctx context.Context) error {
		executed.Store(true)
		return nil
	})

	require.NoError(t, w.Close())
	assert.True(t, executed.Load())
}

func TestWriter_TaskContextHasDeadline(t *testing.T) {
	w := NewWriter(16, zap.NewNop(), nil)

	deadlineSet := make(chan bool, 1)
	w.Enqueue("deadline", func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		deadlineSet <- ok
		return nil
	})

	select {
	case ok := <-deadlineSet:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}
	require.NoError(t, w.Close())
}
