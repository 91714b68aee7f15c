package entity

import (
	"time"

	"github.com/shandysiswandi/bidwatch/internal/pkg/valueobject"
)

type NotificationJob struct {
	ID              int64
	UserID          int64
	ContractID      int64
	ContractVersion int32
	Type            JobType
	Status          JobStatus
	Priority        int16
	Payload         valueobject.JSONMap
	CreatedAt       time.Time
	ScheduledAt     time.Time
	ProcessedAt     *time.Time
	RetryCount      int16
	MaxRetries      int16
	LastError       string
}

type EnqueueJob struct {
	ID              int64
	UserID          int64
	ContractID      int64
	ContractVersion int32
	Type            JobType
	Priority        int16
	Payload         valueobject.JSONMap
	ScheduledAt     time.Time
	MaxRetries      int16
}

// ChannelResult records the outcome of one channel delivery attempt.
type ChannelResult struct {
	Channel   Channel
	Sent      bool
	MessageID string
	SentAt    time.Time
	Error     string
}

type QueueStats struct {
	Pending     int64
	Processing  int64
	Sent        int64
	Failed      int64
	Cancelled   int64
	SuccessRate float64
}

// ProcessReport summarizes one queue drain run. Errors lists the per-job
// delivery failures so the trigger caller sees them without digging through
// logs.
type ProcessReport struct {
	Claimed int64
	Sent    int64
	Retried int64
	Failed  int64
	Errors  []string
}

// BulkFilter scopes a bulk queue operation. Zero fields mean no filter, so
// the empty filter addresses the whole queue.
type BulkFilter struct {
	UserID     int64
	ContractID int64
}

// MatchReport summarizes one contract matching run.
type MatchReport struct {
	ContractsScanned int
	ProfilesScanned  int
	Matches          int
	Enqueued         int
	Deduplicated     int
}

// ReminderReport summarizes one deadline reminder run.
type ReminderReport struct {
	DeadlinesScanned int
	Enqueued         int
	Deduplicated     int
}
