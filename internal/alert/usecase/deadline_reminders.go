package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/bidwatch/internal/alert/entity"
	"github.com/shandysiswandi/bidwatch/internal/pkg/idempotency"
)

// reminderOffsets are the day marks at which a tracked deadline fires a
// reminder job.
var reminderOffsets = map[int]struct{}{7: {}, 3: {}, 1: {}}

// SendDeadlineReminders scans active tracked deadlines and enqueues reminder
// jobs for the 7, 3 and 1 day marks. The (user, contract, type) dedup key
// includes the offset, so repeated runs on the same day are no-ops.
func (s *Usecase) SendDeadlineReminders(ctx context.Context) (_ entity.ReminderReport, err error) {
	ctx, span := s.startSpan(ctx, "SendDeadlineReminders")
	defer func() { s.endSpan(span, err) }()

	var report entity.ReminderReport
	err = s.idemp.Exec(ctx, "alert:send_deadline_reminders", func(ctx context.Context) error {
		now := s.clock.Now()

		deadlines, dErr := s.repoDB.ListActiveTrackedDeadlines(ctx, now, now.Add(8*24*time.Hour))
		if dErr != nil {
			return dErr
		}
		report.DeadlinesScanned = len(deadlines)

		for _, tracked := range deadlines {
			daysLeft := daysUntil(now, tracked.Deadline)
			if _, ok := reminderOffsets[daysLeft]; !ok {
				continue
			}

			if err := s.enqueueReminder(ctx, tracked, daysLeft, now, &report); err != nil {
				slog.ErrorContext(ctx, "failed to enqueue deadline reminder",
					"user_id", tracked.UserID, "contract_id", tracked.ContractID,
					"days_left", daysLeft, "error", err)
			}
		}

		return nil
	}, idempotency.WithLockDuration(s.cfg.GetMinute("modules.alert.trigger_lock_minutes")))

	if err != nil {
		return entity.ReminderReport{}, s.mapIdempotencyError(err)
	}

	return report, nil
}

func (s *Usecase) enqueueReminder(ctx context.Context, tracked entity.TrackedDeadline, daysLeft int, now time.Time, report *entity.ReminderReport) error {
	contract, err := s.repoDB.GetContract(ctx, tracked.ContractID)
	if err != nil {
		return err
	}

	priority := priorityNormal
	if daysLeft == 1 {
		priority = priorityHigh
	}

	created, err := s.repoDB.Enqueue(ctx, entity.EnqueueJob{
		ID:              s.uid.Generate(),
		UserID:          tracked.UserID,
		ContractID:      tracked.ContractID,
		ContractVersion: contract.Version,
		Type:            entity.DeadlineReminderType(daysLeft),
		Priority:        priority,
		Payload:         deadlinePayload(*contract, daysLeft),
		ScheduledAt:     now,
		MaxRetries:      defaultMaxRetries,
	})
	if err != nil {
		return err
	}

	if created {
		report.Enqueued++
	} else {
		report.Deduplicated++
	}

	return nil
}

// daysUntil counts whole days remaining, rounding up: a deadline 25 hours
// away is 2 days, one 23 hours away is 1 day.
func daysUntil(now, deadline time.Time) int {
	remaining := deadline.Sub(now)
	if remaining <= 0 {
		return 0
	}

	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) > 0 {
		days++
	}

	return days
}
