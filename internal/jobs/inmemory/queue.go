package inmemory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/fincopilot/internal/jobs"
)

// ErrQueueClosed is returned when publishing to a stopped or drained queue.
var ErrQueueClosed = errors.New("queue is closed")

// Options configures a Queue.
type Options struct {
	// BufferSize is how many jobs can wait before PublishIngestText blocks.
	BufferSize int
	// Workers is the number of concurrent job handlers.
	Workers int
	// MaxRetries applies to jobs published without their own limit.
	MaxRetries int
	// Backoff is the delay unit between retries; the n-th retry waits n units.
	Backoff time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.BufferSize <= 0 {
		o.BufferSize = 100
	}
	if o.Workers <= 0 {
		o.Workers = 5
	}
	if o.Backoff <= 0 {
		o.Backoff = time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Queue is an in-memory implementation of job publisher and consumer.
// It uses Go channels for job distribution and is safe for concurrent use.
// Jobs do not survive a restart.
type Queue struct {
	jobChan   chan *jobs.IngestTextJob
	closeChan chan struct{}
	wg        sync.WaitGroup
	retries   sync.WaitGroup
	mu        sync.RWMutex
	store     jobs.JobStore
	opts      Options
	log       zerolog.Logger
	closed    bool
}

// NewQueue creates a new in-memory job queue.
func NewQueue(opts Options, store jobs.JobStore, log zerolog.Logger) *Queue {
	opts = opts.withDefaults()
	return &Queue{
		jobChan:   make(chan *jobs.IngestTextJob, opts.BufferSize),
		closeChan: make(chan struct{}),
		store:     store,
		opts:      opts,
		log:       log,
	}
}

// PublishIngestText implements the Publisher interface.
// It enqueues a statement for asynchronous ingestion.
func (q *Queue) PublishIngestText(ctx context.Context, job *jobs.IngestTextJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	if job.JobID == "" {
		job.JobID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = q.opts.Now()
	}
	if job.MaxRetries == 0 {
		job.MaxRetries = q.opts.MaxRetries
	}

	if q.store != nil {
		if err := q.store.SaveJob(ctx, job); err != nil {
			return fmt.Errorf("failed to save job: %w", err)
		}
	}

	select {
	case q.jobChan <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return ErrQueueClosed
	}
}

// Start implements the Consumer interface.
// It starts Options.Workers goroutines that call handler for each job.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return ErrQueueClosed
	}
	q.mu.RUnlock()

	for i := 0; i < q.opts.Workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}
	q.log.Info().Int("workers", q.opts.Workers).Msg("job queue started")
	return nil
}

// worker processes jobs from the queue.
func (q *Queue) worker(ctx context.Context, handler jobs.JobHandler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case job, ok := <-q.jobChan:
			if !ok || job == nil {
				return
			}
			q.processJob(ctx, job, handler)
		}
	}
}

// processJob executes a single job with retry logic.
func (q *Queue) processJob(ctx context.Context, job *jobs.IngestTextJob, handler jobs.JobHandler) {
	job.Status = jobs.JobStatusRunning
	now := q.opts.Now()
	job.StartedAt = &now
	q.save(ctx, job)

	err := q.runHandler(ctx, job, handler)

	completedAt := q.opts.Now()
	job.CompletedAt = &completedAt

	switch {
	case err == nil:
		job.Status = jobs.JobStatusCompleted
		job.Error = ""
	case !jobs.IsPermanent(err) && job.RetryCount < job.MaxRetries:
		job.Error = err.Error()
		job.RetryCount++
		job.Status = jobs.JobStatusRetrying
		// Saved before scheduling: the timer owns the job afterwards.
		q.save(ctx, job)
		q.scheduleRetry(ctx, job)
		return
	default:
		job.Error = err.Error()
		job.Status = jobs.JobStatusFailed
		q.log.Warn().
			Err(err).
			Str("job_id", job.JobID).
			Str("failure_kind", job.FailureKind).
			Int("retries", job.RetryCount).
			Msg("job failed")
	}
	q.save(ctx, job)
}

// runHandler converts a handler panic into a permanent failure so one bad
// job cannot take a worker down.
func (q *Queue) runHandler(ctx context.Context, job *jobs.IngestTextJob, handler jobs.JobHandler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Error().Interface("panic", r).Str("job_id", job.JobID).Msg("job handler panicked")
			err = jobs.Permanent(fmt.Errorf("handler panic: %v", r))
		}
	}()
	return handler(ctx, job)
}

func (q *Queue) scheduleRetry(ctx context.Context, job *jobs.IngestTextJob) {
	backoff := time.Duration(job.RetryCount) * q.opts.Backoff
	q.retries.Add(1)
	time.AfterFunc(backoff, func() {
		defer q.retries.Done()
		job.Status = jobs.JobStatusPending
		job.StartedAt = nil
		job.CompletedAt = nil
		if err := q.PublishIngestText(ctx, job); err != nil {
			job.Status = jobs.JobStatusFailed
			q.save(context.Background(), job)
			q.log.Warn().Err(err).Str("job_id", job.JobID).Msg("retry could not be queued")
		}
	})
}

func (q *Queue) save(ctx context.Context, job *jobs.IngestTextJob) {
	if q.store == nil {
		return
	}
	if err := q.store.SaveJob(ctx, job); err != nil {
		q.log.Warn().Err(err).Str("job_id", job.JobID).Msg("failed to save job state")
	}
}

// Stop implements the Consumer interface.
// Workers finish the job in hand and exit; queued jobs are left unprocessed.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	return q.wait(ctx)
}

// Drain stops accepting new jobs, lets the workers finish everything
// already queued and waits for them. Pending retries are given the same
// chance before the channel is closed.
func (q *Queue) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		q.retries.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return q.wait(ctx)
	}
	q.closed = true
	close(q.jobChan)
	q.mu.Unlock()

	return q.wait(ctx)
}

func (q *Queue) wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements the Publisher interface.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

// Ensure Queue implements both Publisher and Consumer interfaces.
var _ jobs.Publisher = (*Queue)(nil)
var _ jobs.Consumer = (*Queue)(nil)
