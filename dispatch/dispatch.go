// Package dispatch provides the asynchronous boundary between result
// producers and the host-side sinks and dataset store.
package dispatch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/c360/resultflow/errors"
	"github.com/c360/resultflow/metric"
)

// Task is one unit of host-side work, typically a single sink delivery.
type Task struct {
	Channel string // originating channel path, for logs and metrics
	Do      func(context.Context) error
}

// Queue delivers submitted tasks on a single consumer goroutine. Submit
// never blocks and never drops; tasks run in submission order. Failures
// inside tasks are logged and counted, not returned: past this boundary the
// producing side has already moved on.
type Queue struct {
	logger  *slog.Logger
	metrics *metric.Metrics

	mu      sync.Mutex
	queue   []Task
	waiters []chan struct{}
	pending int // queued plus in-flight
	closed  bool
	wake    chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Queue
type Option func(*Queue)

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) {
		q.logger = logger
	}
}

// WithMetrics enables Prometheus instrumentation
func WithMetrics(m *metric.Metrics) Option {
	return func(q *Queue) {
		q.metrics = m
	}
}

// NewQueue creates a queue and starts its consumer goroutine
func NewQueue(opts ...Option) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		logger: slog.Default(),
		wake:   make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}

	go q.consume()
	return q
}

// Submit enqueues a task for eventual, ordered delivery. It returns an error
// only if the queue has been closed.
func (q *Queue) Submit(task Task) error {
	if task.Do == nil {
		return errors.WrapUsage(errors.ErrNilValue, "Queue", "Submit", "task check")
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return errors.WrapUsage(errors.ErrQueueClosed, "Queue", "Submit", "enqueue")
	}
	q.queue = append(q.queue, task)
	q.pending++
	depth := len(q.queue)
	q.mu.Unlock()

	if q.metrics != nil {
		q.metrics.RecordDispatchSubmitted(task.Channel)
		q.metrics.RecordDispatchDepth(depth)
	}

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

// Flush blocks until every task submitted before the call has been delivered
func (q *Queue) Flush(ctx context.Context) error {
	q.mu.Lock()
	if q.pending == 0 {
		q.mu.Unlock()
		return nil
	}
	waiter := make(chan struct{})
	q.waiters = append(q.waiters, waiter)
	q.mu.Unlock()

	select {
	case <-waiter:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting new tasks, waits for the backlog to drain, then
// stops the consumer. Safe to call once.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}

	if err := q.Flush(ctx); err != nil {
		return err
	}

	q.cancel()
	select {
	case q.wake <- struct{}{}:
	default:
	}
	<-q.done
	return nil
}

func (q *Queue) consume() {
	defer close(q.done)

	for {
		q.mu.Lock()
		for len(q.queue) == 0 {
			if q.closed {
				q.mu.Unlock()
				return
			}
			q.mu.Unlock()
			<-q.wake
			q.mu.Lock()
		}
		task := q.queue[0]
		q.queue = q.queue[1:]
		q.mu.Unlock()

		q.run(task)

		q.mu.Lock()
		q.pending--
		depth := len(q.queue)
		if q.pending == 0 {
			for _, waiter := range q.waiters {
				close(waiter)
			}
			q.waiters = nil
		}
		q.mu.Unlock()

		if q.metrics != nil {
			q.metrics.RecordDispatchDepth(depth)
		}
	}
}

func (q *Queue) run(task Task) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("dispatch task panicked", "channel", task.Channel, "panic", r)
			if q.metrics != nil {
				q.metrics.RecordDispatchFailed(task.Channel)
			}
		}
	}()

	if err := task.Do(q.ctx); err != nil {
		q.logger.Error("dispatch task failed",
			"channel", task.Channel,
			"class", errors.Classify(err).String(),
			"error", err)
		if q.metrics != nil {
			q.metrics.RecordDispatchFailed(task.Channel)
		}
		return
	}

	if q.metrics != nil {
		q.metrics.RecordDispatchDelivered(task.Channel)
	}
}
