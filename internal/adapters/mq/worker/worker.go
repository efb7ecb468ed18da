// Package worker runs the monitor loop: workers drain the frame queue and
// hand each frame to the detection processor.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/okian/postura/internal/domain/model"
	"github.com/okian/postura/pkg/logger"
	"github.com/okian/postura/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount  = 1 // scoring is cheap and ordered; one worker usually suffices
	poolShutdownTimeout = 30 * time.Second
)

// Frame is what workers read off the queue.
type Frame = model.Frame

// Processor consumes one dequeued frame: extraction, comparison, smoothing,
// and downstream publication all happen behind this interface.
type Processor interface {
	ProcessFrame(ctx context.Context, f Frame) error
}

// Queue defines how workers receive frames.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Frame
}

// Worker processes frames until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing frames.
type InMemoryWorker struct {
	queue     Queue
	processor Processor
	name      string

	// Shutdown control
	done chan struct{}

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, processor Processor, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     queue,
		processor: processor,
		name:      "worker",
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop. It exits when the dequeue channel closes or
// the context is canceled; buffered frames are drained on queue close.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	frameChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-frameChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}

			if err := w.processFrame(ctx, f); err != nil {
				w.logger.Error(ctx, "error processing frame", logger.Error(err))
			}
		}
	}
}

// Shutdown waits for the worker loop to finish. Close the queue first or
// this only returns when ctx expires.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processFrame handles a single frame.
func (w *InMemoryWorker) processFrame(ctx context.Context, f Frame) error {
	start := time.Now()
	defer func() {
		latency := time.Since(start).Milliseconds()
		metrics.RecordWorkerProcessingLatency(float64(latency))
	}()

	if err := w.processor.ProcessFrame(ctx, f); err != nil {
		metrics.RecordWorkerError()
		w.logger.Error(ctx, "frame processing failed",
			logger.String("frameID", f.FrameID),
			logger.Error(err),
		)
		return fmt.Errorf("failed to process frame %s: %w", f.FrameID, err)
	}

	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers   []*InMemoryWorker
	queue     Queue
	processor Processor

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, queue Queue, processor Processor) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	pool := &Pool{
		workers:   make([]*InMemoryWorker, workerCount),
		queue:     queue,
		processor: processor,
		logger:    logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			processor,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and gracefully stops all workers.
func (p *Pool) Shutdown(ctx context.Context) error {
	// Close the queue first so drained workers exit on their own.
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
