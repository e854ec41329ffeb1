package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/netstore-backend/pkg/logger"
)

func TestOutboxRetentionJobUsesCutoffs(t *testing.T) {
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	repo := &fakeOutboxRetentionRepo{}
	job := newOutboxRetentionJob(t, repo)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := now.Add(-outboxRetentionDays * 24 * time.Hour); !repo.publishedCutoff.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, repo.publishedCutoff)
	}
	if want := now.Add(-dlqRetentionDays * 24 * time.Hour); !repo.dlqCutoff.Equal(want) {
		t.Fatalf("expected dlq cutoff %s, got %s", want, repo.dlqCutoff)
	}
}

func TestOutboxRetentionJobCombinesErrors(t *testing.T) {
	repo := &fakeOutboxRetentionRepo{
		publishedErr: errors.New("events boom"),
		dlqErr:       errors.New("dlq boom"),
	}
	job := newOutboxRetentionJob(t, repo)

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("expected 2 combined errors, got %d", got)
	}
	if repo.dlqCalls != 1 {
		t.Fatal("dlq pruning must run even when event pruning fails")
	}
}

func newOutboxRetentionJob(t *testing.T, repo *fakeOutboxRetentionRepo) *outboxRetentionJob {
	t.Helper()
	jobIface, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("NewOutboxRetentionJob: %v", err)
	}
	job, ok := jobIface.(*outboxRetentionJob)
	if !ok {
		t.Fatalf("expected outboxRetentionJob, got %T", jobIface)
	}
	return job
}

type fakeOutboxRetentionRepo struct {
	publishedCutoff time.Time
	dlqCutoff       time.Time
	dlqCalls        int
	publishedErr    error
	dlqErr          error
}

func (f *fakeOutboxRetentionRepo) DeletePublishedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.publishedCutoff = cutoff
	if f.publishedErr != nil {
		return 0, f.publishedErr
	}
	return 7, nil
}

func (f *fakeOutboxRetentionRepo) DeleteDLQBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.dlqCalls++
	f.dlqCutoff = cutoff
	if f.dlqErr != nil {
		return 0, f.dlqErr
	}
	return 1, nil
}
