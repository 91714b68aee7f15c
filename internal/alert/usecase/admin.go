package usecase

import (
	"context"
	"errors"

	"github.com/shandysiswandi/bidwatch/internal/alert/entity"
	"github.com/shandysiswandi/bidwatch/internal/pkg/goerror"
)

// RetryNotification resets a failed job so the next drain picks it up.
func (s *Usecase) RetryNotification(ctx context.Context, jobID int64) (err error) {
	ctx, span := s.startSpan(ctx, "RetryNotification")
	defer func() { s.endSpan(span, err) }()

	err = s.repoDB.RetryJob(ctx, jobID, s.clock.Now())
	if errors.Is(err, goerror.ErrNotFound) {
		return goerror.NewBusiness("Notification is not in a retryable state", goerror.CodeNotFound)
	}
	if err != nil {
		return goerror.NewServer(err)
	}

	return nil
}

// CancelNotification cancels a pending or processing job.
func (s *Usecase) CancelNotification(ctx context.Context, jobID int64) (err error) {
	ctx, span := s.startSpan(ctx, "CancelNotification")
	defer func() { s.endSpan(span, err) }()

	err = s.repoDB.CancelJob(ctx, jobID, s.clock.Now())
	if errors.Is(err, goerror.ErrNotFound) {
		return goerror.NewBusiness("Notification is not in a cancellable state", goerror.CodeNotFound)
	}
	if err != nil {
		return goerror.NewServer(err)
	}

	return nil
}

// RetryAllFailed resets every failed job the filter selects and returns how
// many were reset. The empty filter sweeps the whole queue.
func (s *Usecase) RetryAllFailed(ctx context.Context, filter entity.BulkFilter) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "RetryAllFailed")
	defer func() { s.endSpan(span, err) }()

	count, err := s.repoDB.RetryAllFailed(ctx, filter, s.clock.Now())
	if err != nil {
		return 0, goerror.NewServer(err)
	}

	return count, nil
}

// CancelAllPending cancels every pending job the filter selects and returns
// how many were cancelled. A contract-only filter covers cross-user events
// such as a retracted announcement.
func (s *Usecase) CancelAllPending(ctx context.Context, filter entity.BulkFilter) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "CancelAllPending")
	defer func() { s.endSpan(span, err) }()

	count, err := s.repoDB.CancelAllPending(ctx, filter, s.clock.Now())
	if err != nil {
		return 0, goerror.NewServer(err)
	}

	return count, nil
}

// QueueStats returns job counts per status and the overall success rate.
func (s *Usecase) QueueStats(ctx context.Context) (_ entity.QueueStats, err error) {
	ctx, span := s.startSpan(ctx, "QueueStats")
	defer func() { s.endSpan(span, err) }()

	stats, err := s.repoDB.QueueStats(ctx)
	if err != nil {
		return entity.QueueStats{}, goerror.NewServer(err)
	}

	return stats, nil
}
