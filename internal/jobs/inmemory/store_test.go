package inmemory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/fincopilot/internal/jobs"
)

func TestStore_SaveGetCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	started := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	job := &jobs.IngestTextJob{JobID: "j1", Text: "расход 1", Status: jobs.JobStatusRunning, StartedAt: &started}
	if err := s.SaveJob(ctx, job); err != nil {
		t.Fatal(err)
	}
	job.Status = jobs.JobStatusFailed
	*job.StartedAt = started.Add(time.Hour)

	got, err := s.GetJob(ctx, "j1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != jobs.JobStatusRunning || !got.StartedAt.Equal(started) {
		t.Errorf("stored job was mutated through the caller's pointer: %+v", got)
	}

	if err := s.SaveJob(ctx, &jobs.IngestTextJob{}); err == nil {
		t.Error("expected error for empty job ID")
	}
	if _, err := s.GetJob(ctx, "missing"); !errors.Is(err, jobs.ErrJobNotFound) {
		t.Errorf("err = %v, want ErrJobNotFound", err)
	}
}

func TestStore_ListJobs(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	base := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	seed := []*jobs.IngestTextJob{
		{JobID: "a", Origin: "api", Status: jobs.JobStatusCompleted, CreatedAt: base},
		{JobID: "b", Origin: "import", Status: jobs.JobStatusFailed, CreatedAt: base.Add(time.Minute)},
		{JobID: "c", Origin: "api", Status: jobs.JobStatusFailed, CreatedAt: base.Add(2 * time.Minute)},
		{JobID: "d", Origin: "api", Status: jobs.JobStatusPending, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, j := range seed {
		if err := s.SaveJob(ctx, j); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name   string
		filter jobs.JobFilter
		want   []string
	}{
		{"all newest first", jobs.JobFilter{}, []string{"c", "d", "b", "a"}},
		{"by origin", jobs.JobFilter{Origin: "api"}, []string{"c", "d", "a"}},
		{"by status", jobs.JobFilter{Status: jobs.JobStatusFailed}, []string{"c", "b"}},
		{"limit", jobs.JobFilter{Limit: 2}, []string{"c", "d"}},
		{"offset", jobs.JobFilter{Offset: 3}, []string{"a"}},
		{"offset past end", jobs.JobFilter{Offset: 10}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListJobs(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d jobs, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].JobID != id {
					t.Errorf("got[%d] = %s, want %s", i, got[i].JobID, id)
				}
			}
		})
	}
}

func TestStore_UpdateJobStatus(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	_ = s.SaveJob(ctx, &jobs.IngestTextJob{JobID: "j1", Status: jobs.JobStatusPending})

	if err := s.UpdateJobStatus(ctx, "j1", jobs.JobStatusFailed, "boom"); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetJob(ctx, "j1")
	if got.Status != jobs.JobStatusFailed || got.Error != "boom" {
		t.Errorf("job = %+v", got)
	}
	if err := s.UpdateJobStatus(ctx, "nope", jobs.JobStatusFailed, ""); !errors.Is(err, jobs.ErrJobNotFound) {
		t.Errorf("err = %v", err)
	}
}
