// Package queue defines the contract for enqueuing and consuming landmark
// frames between the ingest layer and the monitor workers.
package queue

import (
	"context"
	"sync"

	"github.com/okian/postura/internal/domain/model"
	"github.com/okian/postura/pkg/metrics"
)

// Default queue configuration constants. The queue absorbs short ingest
// bursts; a sustained backlog means the detector outpaces the workers and
// older frames are better dropped than scored late.
const (
	defaultQueueCapacity = 256
)

// Frame is the payload type flowing through the queue.
type Frame = model.Frame

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a frame to the queue.
	// Returns false if the queue is full and the frame was not enqueued.
	Enqueue(ctx context.Context, f Frame) bool

	// Dequeue returns a channel that will receive frames as they become
	// available. The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Frame

	// Len returns the current number of queued frames.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue. After closing, no new frames
	// can be enqueued and the dequeue channel is closed.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	frames   chan Frame
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.frames = make(chan Frame, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)

	return q
}

// Enqueue adds a frame to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, f Frame) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		return false
	}

	select {
	case q.frames <- f:
		metrics.RecordQueueEnqueue()
		q.publishSize(len(q.frames))
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		return false
	default:
		metrics.RecordQueueEnqueueError()
		return false // queue is full
	}
}

// Dequeue returns a channel that will receive frames as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Frame {
	out := make(chan Frame)
	go func() {
		defer close(out)
		for f := range q.frames {
			select {
			case out <- f:
				metrics.RecordQueueDequeue()
				q.publishSize(len(q.frames))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued frames.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	size := len(q.frames)
	q.publishSize(size)
	return size
}

func (q *InMemoryQueue) publishSize(size int) {
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	close(q.frames)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
