// Package worker consumes changed paths from the notification queue.
package worker

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/raoulx24/pollwatch/internal/logging"
	"github.com/raoulx24/pollwatch/internal/notify"
)

// Handler acts on one changed path.
type Handler func(ctx context.Context, path string) error

// Worker drains a queue and hands each path to its handler, one at a time.
type Worker struct {
	queue   *notify.Queue[string]
	handle  Handler
	log     logging.Logger
	handled atomic.Int64
	failed  atomic.Int64
}

// New creates a worker over queue.
func New(queue *notify.Queue[string], handle Handler, log logging.Logger) *Worker {
	log.Debug("creating worker")
	return &Worker{
		queue:  queue,
		handle: handle,
		log:    log,
	}
}

// Start runs until ctx is done. Handler errors are logged and the loop
// carries on with the next path.
func (w *Worker) Start(ctx context.Context) {
	w.log.Info("starting worker")
	for {
		path, ok := w.queue.Take(ctx)
		if !ok {
			w.stop()
			return
		}
		if err := w.Handle(ctx, path); err != nil {
			w.log.Error("worker: handler failed", "path", path, "error", err.Error())
		}
	}
}

// Handle runs the handler for a single path, turning a panic into an error.
func (w *Worker) Handle(ctx context.Context, path string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
		if err != nil {
			w.failed.Add(1)
			return
		}
		w.handled.Add(1)
	}()
	return w.handle(ctx, path)
}

// stop empties the queue so paths pushed during shutdown are reported
// rather than silently kept.
func (w *Worker) stop() {
	pending := w.queue.Drain()
	if len(pending) > 0 {
		w.log.Warn("worker stopped with unhandled paths", "count", len(pending), "paths", pending)
	}
	handled, failed := w.Stats()
	w.log.Info("worker stopped", "handled", handled, "failed", failed)
}

// Stats returns how many paths were handled successfully and how many failed.
func (w *Worker) Stats() (handled, failed int64) {
	return w.handled.Load(), w.failed.Load()
}
