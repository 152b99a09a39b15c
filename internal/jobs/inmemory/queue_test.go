package inmemory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/fincopilot/internal/jobs"
)

func waitForJob(t *testing.T, store *Store, id string) *jobs.IngestTextJob {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.GetJob(context.Background(), id)
		if err == nil && job.Done() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish in time", id)
	return nil
}

func TestQueue_ProcessesAndDrains(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	q := NewQueue(Options{BufferSize: 10, Workers: 3}, store, zerolog.Nop())

	var handled int32
	if err := q.Start(ctx, func(ctx context.Context, job *jobs.IngestTextJob) error {
		atomic.AddInt32(&handled, 1)
		job.RecordID = "rec-" + job.JobID
		return nil
	}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ids := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		job := &jobs.IngestTextJob{Text: "расход 100", Origin: "test"}
		if err := q.PublishIngestText(ctx, job); err != nil {
			t.Fatalf("publish: %v", err)
		}
		if job.JobID == "" {
			t.Fatal("publish did not assign a job ID")
		}
		ids = append(ids, job.JobID)
	}

	if err := q.Drain(ctx); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if got := atomic.LoadInt32(&handled); got != 8 {
		t.Errorf("handled %d jobs, want 8", got)
	}
	for _, id := range ids {
		job, err := store.GetJob(ctx, id)
		if err != nil {
			t.Fatalf("GetJob: %v", err)
		}
		if job.Status != jobs.JobStatusCompleted || job.RecordID != "rec-"+id {
			t.Errorf("job %s = %+v", id, job)
		}
		if job.StartedAt == nil || job.CompletedAt == nil {
			t.Errorf("job %s missing timestamps", id)
		}
	}

	err := q.PublishIngestText(ctx, &jobs.IngestTextJob{Text: "x"})
	if !errors.Is(err, ErrQueueClosed) {
		t.Errorf("publish after drain err = %v, want ErrQueueClosed", err)
	}
}

func TestQueue_RetriesTransientFailures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := NewStore()
	q := NewQueue(Options{Workers: 1, MaxRetries: 2, Backoff: time.Millisecond}, store, zerolog.Nop())
	defer q.Stop(context.Background())

	var attempts int32
	_ = q.Start(ctx, func(ctx context.Context, job *jobs.IngestTextJob) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("model timeout")
		}
		return nil
	})

	job := &jobs.IngestTextJob{Text: "расход 100"}
	if err := q.PublishIngestText(ctx, job); err != nil {
		t.Fatal(err)
	}

	got := waitForJob(t, store, job.JobID)
	if got.Status != jobs.JobStatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if got.RetryCount != 2 {
		t.Errorf("retry count = %d, want 2", got.RetryCount)
	}
	if got.Error != "" {
		t.Errorf("error not cleared: %q", got.Error)
	}
}

func TestQueue_DefaultIsNoRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := NewStore()
	q := NewQueue(Options{Workers: 1}, store, zerolog.Nop())
	defer q.Stop(context.Background())

	var attempts int32
	_ = q.Start(ctx, func(ctx context.Context, job *jobs.IngestTextJob) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("store unavailable")
	})

	job := &jobs.IngestTextJob{Text: "расход 100"}
	_ = q.PublishIngestText(ctx, job)

	got := waitForJob(t, store, job.JobID)
	if got.Status != jobs.JobStatusFailed || got.Error != "store unavailable" {
		t.Errorf("job = %+v", got)
	}
	if n := atomic.LoadInt32(&attempts); n != 1 {
		t.Errorf("attempts = %d, want 1", n)
	}
}

func TestQueue_PermanentFailureSkipsRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := NewStore()
	q := NewQueue(Options{Workers: 1, MaxRetries: 3, Backoff: time.Millisecond}, store, zerolog.Nop())
	defer q.Stop(context.Background())

	_ = q.Start(ctx, func(ctx context.Context, job *jobs.IngestTextJob) error {
		return jobs.Permanent(errors.New("no amount"))
	})

	job := &jobs.IngestTextJob{Text: "привет"}
	_ = q.PublishIngestText(ctx, job)

	got := waitForJob(t, store, job.JobID)
	if got.Status != jobs.JobStatusFailed || got.RetryCount != 0 {
		t.Errorf("job = %+v", got)
	}
}

func TestQueue_HandlerPanicFailsJob(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := NewStore()
	q := NewQueue(Options{Workers: 1}, store, zerolog.Nop())
	defer q.Stop(context.Background())

	_ = q.Start(ctx, func(ctx context.Context, job *jobs.IngestTextJob) error {
		if job.Text == "boom" {
			panic("nil map")
		}
		return nil
	})

	bad := &jobs.IngestTextJob{Text: "boom"}
	good := &jobs.IngestTextJob{Text: "расход 1"}
	_ = q.PublishIngestText(ctx, bad)
	_ = q.PublishIngestText(ctx, good)

	if got := waitForJob(t, store, bad.JobID); got.Status != jobs.JobStatusFailed {
		t.Errorf("panicking job status = %s", got.Status)
	}
	if got := waitForJob(t, store, good.JobID); got.Status != jobs.JobStatusCompleted {
		t.Errorf("worker did not survive the panic: %s", got.Status)
	}
}

func TestQueue_StopIsIdempotent(t *testing.T) {
	q := NewQueue(Options{}, nil, zerolog.Nop())
	if err := q.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := q.Close(); err != nil {
		t.Fatal(err)
	}
	if err := q.Start(context.Background(), nil); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Start after Stop err = %v", err)
	}
}
