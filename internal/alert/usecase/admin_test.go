package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/shandysiswandi/bidwatch/internal/alert/entity"
	"github.com/shandysiswandi/bidwatch/internal/pkg/goerror"
)

func TestRetryNotification(t *testing.T) {
	t.Run("resets_failed_job", func(t *testing.T) {
		// Arrange
		var gotID int64
		repo := &fakeRepo{
			retryJobFn: func(_ context.Context, jobID int64, _ time.Time) error {
				gotID = jobID
				return nil
			},
		}
		uc := newTestUsecase(&testDeps{repo: repo})

		// Act
		err := uc.RetryNotification(context.Background(), 42)

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotID != 42 {
			t.Fatalf("expected job 42 to be retried, got %d", gotID)
		}
	})

	t.Run("non_retryable_job_returns_not_found", func(t *testing.T) {
		// Arrange
		repo := &fakeRepo{
			retryJobFn: func(context.Context, int64, time.Time) error {
				return goerror.ErrNotFound
			},
		}
		uc := newTestUsecase(&testDeps{repo: repo})

		// Act
		err := uc.RetryNotification(context.Background(), 42)

		// Assert
		var gerr *goerror.Error
		if !errors.As(err, &gerr) || gerr.StatusCode() != http.StatusNotFound {
			t.Fatalf("expected not found business error, got %v", err)
		}
	})
}

func TestCancelNotification(t *testing.T) {
	t.Run("non_cancellable_job_returns_not_found", func(t *testing.T) {
		// Arrange
		repo := &fakeRepo{
			cancelJobFn: func(context.Context, int64, time.Time) error {
				return goerror.ErrNotFound
			},
		}
		uc := newTestUsecase(&testDeps{repo: repo})

		// Act
		err := uc.CancelNotification(context.Background(), 42)

		// Assert
		var gerr *goerror.Error
		if !errors.As(err, &gerr) || gerr.StatusCode() != http.StatusNotFound {
			t.Fatalf("expected not found business error, got %v", err)
		}
	})
}

func TestBulkOperations(t *testing.T) {
	t.Run("retry_all_failed_scoped_to_user", func(t *testing.T) {
		// Arrange
		repo := &fakeRepo{
			retryAllFailedFn: func(_ context.Context, filter entity.BulkFilter, _ time.Time) (int64, error) {
				if filter.UserID != 7 || filter.ContractID != 0 {
					t.Fatalf("expected user 7 filter, got %+v", filter)
				}
				return 3, nil
			},
		}
		uc := newTestUsecase(&testDeps{repo: repo})

		// Act
		count, err := uc.RetryAllFailed(context.Background(), entity.BulkFilter{UserID: 7})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != 3 {
			t.Fatalf("expected 3 jobs reset, got %d", count)
		}
	})

	t.Run("empty_filter_addresses_whole_queue", func(t *testing.T) {
		// Arrange
		var gotFilter entity.BulkFilter
		repo := &fakeRepo{
			retryAllFailedFn: func(_ context.Context, filter entity.BulkFilter, _ time.Time) (int64, error) {
				gotFilter = filter
				return 12, nil
			},
		}
		uc := newTestUsecase(&testDeps{repo: repo})

		// Act
		count, err := uc.RetryAllFailed(context.Background(), entity.BulkFilter{})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotFilter != (entity.BulkFilter{}) {
			t.Fatalf("expected the empty filter to pass through, got %+v", gotFilter)
		}
		if count != 12 {
			t.Fatalf("expected 12 jobs reset, got %d", count)
		}
	})

	t.Run("cancel_pending_scoped_to_contract", func(t *testing.T) {
		// Arrange: a retracted contract cancels jobs across all users
		repo := &fakeRepo{
			cancelAllPendingFn: func(_ context.Context, filter entity.BulkFilter, _ time.Time) (int64, error) {
				if filter.ContractID != 100 || filter.UserID != 0 {
					t.Fatalf("expected contract 100 filter, got %+v", filter)
				}
				return 5, nil
			},
		}
		uc := newTestUsecase(&testDeps{repo: repo})

		// Act
		count, err := uc.CancelAllPending(context.Background(), entity.BulkFilter{ContractID: 100})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != 5 {
			t.Fatalf("expected 5 jobs cancelled, got %d", count)
		}
	})
}

func TestQueueStats(t *testing.T) {
	t.Run("passes_through_repo_stats", func(t *testing.T) {
		// Arrange
		repo := &fakeRepo{
			queueStatsFn: func(context.Context) (entity.QueueStats, error) {
				return entity.QueueStats{Pending: 4, Sent: 9, Failed: 1, SuccessRate: 0.9}, nil
			},
		}
		uc := newTestUsecase(&testDeps{repo: repo})

		// Act
		stats, err := uc.QueueStats(context.Background())

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stats.Pending != 4 || stats.SuccessRate != 0.9 {
			t.Fatalf("unexpected stats: %+v", stats)
		}
	})

	t.Run("repo_error_is_wrapped", func(t *testing.T) {
		// Arrange
		repo := &fakeRepo{
			queueStatsFn: func(context.Context) (entity.QueueStats, error) {
				return entity.QueueStats{}, errors.New("db down")
			},
		}
		uc := newTestUsecase(&testDeps{repo: repo})

		// Act
		_, err := uc.QueueStats(context.Background())

		// Assert
		var gerr *goerror.Error
		if !errors.As(err, &gerr) || gerr.StatusCode() != http.StatusInternalServerError {
			t.Fatalf("expected server error, got %v", err)
		}
	})
}

func TestReclaimStale(t *testing.T) {
	t.Run("uses_configured_cutoff", func(t *testing.T) {
		// Arrange
		now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		var cutoff time.Time
		repo := &fakeRepo{
			reclaimStaleFn: func(_ context.Context, claimedBefore time.Time) (int64, error) {
				cutoff = claimedBefore
				return 2, nil
			},
		}
		uc := newTestUsecase(&testDeps{repo: repo, now: now})

		// Act
		count, err := uc.ReclaimStale(context.Background())

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != 2 {
			t.Fatalf("expected 2 reclaimed jobs, got %d", count)
		}
		if want := now.Add(-10 * time.Minute); !cutoff.Equal(want) {
			t.Fatalf("expected cutoff %v, got %v", want, cutoff)
		}
	})
}
