package inbound

import (
	"context"

	"github.com/shandysiswandi/bidwatch/internal/alert/entity"
	"github.com/shandysiswandi/bidwatch/internal/alert/usecase"
)

type ucConsumer interface {
	ConsumeContractPublished(ctx context.Context, in usecase.ConsumeContractPublishedInput) error
}

type uc interface {
	ucConsumer

	ProcessNewContracts(ctx context.Context, in usecase.ProcessNewContractsInput) (entity.MatchReport, error)
	SendDeadlineReminders(ctx context.Context) (entity.ReminderReport, error)
	ProcessPending(ctx context.Context, in usecase.ProcessPendingInput) (entity.ProcessReport, error)
	RetryNotification(ctx context.Context, jobID int64) error
	CancelNotification(ctx context.Context, jobID int64) error
	RetryAllFailed(ctx context.Context, filter entity.BulkFilter) (int64, error)
	CancelAllPending(ctx context.Context, filter entity.BulkFilter) (int64, error)
	QueueStats(ctx context.Context) (entity.QueueStats, error)
}
