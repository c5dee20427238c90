// Package async runs fire-and-forget writes off the request hot path.
package async

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const taskTimeout = 5 * time.Second

// Task is a named deferred write
type Task struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Writer executes tasks on a single background goroutine. Enqueue never
// blocks: when the queue is full the task is dropped. Failed tasks are
// logged, never retried.
type Writer struct {
	tasks  chan Task
	logger *zap.Logger
	onDrop func(name string)

	mutex  sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewWriter creates a Writer with the given queue size and starts its worker.
// onDrop is invoked with the task name whenever a task is dropped; it may be
// nil.
func NewWriter(queueSize int, logger *zap.Logger, onDrop func(name string)) *Writer {
	if queueSize <= 0 {
		queueSize = 256
	}
	if onDrop == nil {
		onDrop = func(string) {}
	}

	w := &Writer{
		tasks:  make(chan Task, queueSize),
		logger: logger.Named("async"),
		onDrop: onDrop,
		done:   make(chan struct{}),
	}

	go w.run()
	return w
}

// Enqueue submits a task without waiting for its outcome. Returns false when
// the task was dropped because the queue is full or the writer is closed.
func (w *Writer) Enqueue(name string, fn func(ctx context.Context) error) bool {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	if w.closed {
		w.onDrop(name)
		return false
	}

	select {
	case w.tasks <- Task{Name: name, Fn: fn}:
		return true
	default:
		w.logger.Warn("task queue full, dropping task", zap.String("task", name))
		w.onDrop(name)
		return false
	}
}

func (w *Writer) run() {
	defer close(w.done)

	for task := range w.tasks {
		ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
		if err := task.Fn(ctx); err != nil {
			w.logger.Warn("task failed", zap.String("task", task.Name), zap.Error(err))
		}
		cancel()
	}
}

// Close stops intake and drains queued tasks, waiting at most taskTimeout for
// the worker to finish
func (w *Writer) Close() error {
	w.mutex.Lock()
	if w.closed {
		w.mutex.Unlock()
		return nil
	}
	w.closed = true
	close(w.tasks)
	w.mutex.Unlock()

	select {
	case <-w.done:
	case <-time.After(taskTimeout):
		w.logger.Warn("timed out waiting for task queue drain")
	}
	return nil
}
