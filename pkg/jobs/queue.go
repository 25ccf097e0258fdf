package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrQueueFull is returned when the buffer cannot take another job.
	ErrQueueFull = errors.New("queue is full")
	// ErrNotStarted is returned when enqueueing before Start or after Stop.
	ErrNotStarted = errors.New("queue not started")
)

// Job represents a queued background task.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Enqueued time.Time
}

// Handler processes a job. The context is cancelled by Cancel, Stop or the per-job timeout.
type Handler func(context.Context, Job) error

// QueueConfig configures worker pool behaviour.
type QueueConfig struct {
	Workers    int
	BufferSize int
	Timeout    time.Duration
	Logger     *zap.Logger
}

// Queue is an in-memory job dispatcher backed by goroutines. Jobs run at most once.
type Queue struct {
	name    string
	handler Handler

	workers int
	timeout time.Duration
	logger  *zap.Logger

	jobs    chan Job
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool

	pending map[string]struct{}
	running map[string]context.CancelFunc
	dropped map[string]struct{}
}

// NewQueue builds a new queue with the provided handler.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue{
		name:    name,
		handler: handler,
		workers: cfg.Workers,
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
		jobs:    make(chan Job, cfg.BufferSize),
		pending: make(map[string]struct{}),
		running: make(map[string]context.CancelFunc),
		dropped: make(map[string]struct{}),
	}
}

// Start begins worker consumption. Safe to call once.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i + 1)
	}
	q.started = true
	q.logger.Sugar().Infow("queue started", "queue", q.name, "workers", q.workers)
}

// Stop cancels running jobs and waits for workers to exit.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.started = false
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Sugar().Infow("queue stopped", "queue", q.name)
}

// Enqueue pushes a job onto the queue without blocking.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.started {
		return fmt.Errorf("queue %s: %w", q.name, ErrNotStarted)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	select {
	case q.jobs <- job:
		q.pending[job.ID] = struct{}{}
		return nil
	default:
		return fmt.Errorf("queue %s: %w", q.name, ErrQueueFull)
	}
}

// Cancel stops a running job or drops a queued one. It reports whether the job was known.
func (q *Queue) Cancel(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if cancel, ok := q.running[id]; ok {
		cancel()
		return true
	}
	if _, ok := q.pending[id]; ok {
		delete(q.pending, id)
		q.dropped[id] = struct{}{}
		return true
	}
	return false
}

// Pending reports how many jobs are buffered and not yet picked up.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *Queue) worker(workerID int) {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.run(workerID, job)
		}
	}
}

func (q *Queue) run(workerID int, job Job) {
	ctx, cancel := q.jobContext()
	defer cancel()

	q.mu.Lock()
	if _, skip := q.dropped[job.ID]; skip {
		delete(q.dropped, job.ID)
		q.mu.Unlock()
		q.logger.Sugar().Debugw("job dropped before start", "queue", q.name, "job_id", job.ID)
		return
	}
	delete(q.pending, job.ID)
	q.running[job.ID] = cancel
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		delete(q.running, job.ID)
		q.mu.Unlock()
	}()

	started := time.Now()
	err := q.handler(ctx, job)
	fields := []interface{}{"queue", q.name, "worker", workerID, "job_id", job.ID, "type", job.Type, "duration", time.Since(started)}
	switch {
	case err == nil:
		q.logger.Sugar().Debugw("job finished", fields...)
	case errors.Is(err, context.Canceled):
		q.logger.Sugar().Infow("job cancelled", fields...)
	default:
		q.logger.Sugar().Errorw("job failed", append(fields, "error", err)...)
	}
}

func (q *Queue) jobContext() (context.Context, context.CancelFunc) {
	if q.timeout > 0 {
		return context.WithTimeout(q.ctx, q.timeout)
	}
	return context.WithCancel(q.ctx)
}
