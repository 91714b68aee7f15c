package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shandysiswandi/bidwatch/internal/alert/entity"
	"github.com/shandysiswandi/bidwatch/internal/pkg/goerror"
	"github.com/shandysiswandi/bidwatch/internal/pkg/valueobject"
)

const jobColumns = `id, user_id, contract_id, contract_version, type, status, priority, payload,
	created_at, scheduled_at, processed_at, retry_count, max_retries, last_error`

func scanJob(row pgx.Row) (entity.NotificationJob, error) {
	var (
		job         entity.NotificationJob
		payload     valueobject.JSONMap
		status      string
		jobType     string
		scheduledAt pgtype.Timestamptz
		createdAt   pgtype.Timestamptz
		processedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&job.ID, &job.UserID, &job.ContractID, &job.ContractVersion, &jobType, &status,
		&job.Priority, &payload, &createdAt, &scheduledAt, &processedAt,
		&job.RetryCount, &job.MaxRetries, &job.LastError,
	)
	if err != nil {
		return entity.NotificationJob{}, err
	}

	job.Type = entity.JobType(jobType)
	job.Status = entity.JobStatus(status)
	job.Payload = payload
	job.CreatedAt = timeFromPgTimestamptz(createdAt)
	job.ScheduledAt = timeFromPgTimestamptz(scheduledAt)
	job.ProcessedAt = timePtrFromPgTimestamptz(processedAt)

	return job, nil
}

// Enqueue inserts a job unless a non-terminal job with the same
// (user, contract, type) key already exists. It reports whether a row was
// created, so callers can count deduplicated enqueues.
func (s *DB) Enqueue(ctx context.Context, job entity.EnqueueJob) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "Enqueue")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		INSERT INTO notification_jobs
			(id, user_id, contract_id, contract_version, type, status, priority, payload, scheduled_at, max_retries)
		SELECT $1, $2, $3, $4, $5, 'pending', $6, $7, $8, $9
		WHERE NOT EXISTS (
			SELECT 1 FROM notification_jobs
			WHERE user_id = $2 AND contract_id = $3 AND type = $5
			  AND status IN ('pending', 'processing')
		)`,
		job.ID, job.UserID, job.ContractID, job.ContractVersion, job.Type.String(),
		job.Priority, job.Payload, pgTimestamptz(job.ScheduledAt), job.MaxRetries,
	)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() > 0, nil
}

// ClaimBatch atomically moves up to limit due pending jobs to processing and
// returns them. SKIP LOCKED keeps concurrent workers from claiming the same
// rows; a job is never handed to two workers.
func (s *DB) ClaimBatch(ctx context.Context, now time.Time, limit int32) (_ []entity.NotificationJob, err error) {
	ctx, span := s.startSpan(ctx, "ClaimBatch")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `
		UPDATE notification_jobs SET status = 'processing', claimed_at = $1
		WHERE id IN (
			SELECT id FROM notification_jobs
			WHERE status = 'pending' AND scheduled_at <= $1
			ORDER BY priority DESC, created_at ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+jobColumns,
		pgTimestamptz(now), limit,
	)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var jobs []entity.NotificationJob
	for rows.Next() {
		job, scanErr := scanJob(rows)
		if scanErr != nil {
			return nil, s.mapError(scanErr)
		}
		jobs = append(jobs, job)
	}

	return jobs, s.mapError(rows.Err())
}

// MarkSent finalizes a processing job as sent and records per-channel results.
func (s *DB) MarkSent(ctx context.Context, jobID int64, now time.Time, results []entity.ChannelResult) (err error) {
	ctx, span := s.startSpan(ctx, "MarkSent")
	defer func() { s.endSpan(span, err) }()

	var email, chat entity.ChannelResult
	for _, res := range results {
		switch res.Channel {
		case entity.ChannelEmail:
			email = res
		case entity.ChannelChat:
			chat = res
		}
	}

	tag, err := s.conn.Exec(ctx, `
		UPDATE notification_jobs
		SET status = 'sent', processed_at = $2, last_error = '',
			email_sent = $3, email_sent_at = $4, email_message_id = $5,
			chat_sent = $6, chat_sent_at = $7, chat_message_id = $8
		WHERE id = $1 AND status = 'processing'`,
		jobID, pgTimestamptz(now),
		email.Sent, nullableTime(email.SentAt), email.MessageID,
		chat.Sent, nullableTime(chat.SentAt), chat.MessageID,
	)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

// MarkRetry schedules the next attempt of a processing job. The processor
// owns the retry cap: it passes the incremented count here while the count
// stays below max_retries, and calls MarkFailed once the attempt that just
// failed was the last one allowed.
func (s *DB) MarkRetry(ctx context.Context, jobID int64, retryCount int16, nextAt time.Time, lastError string) (err error) {
	ctx, span := s.startSpan(ctx, "MarkRetry")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE notification_jobs
		SET status = 'pending', retry_count = $2, scheduled_at = $3,
			claimed_at = NULL, last_error = $4
		WHERE id = $1 AND status = 'processing'`,
		jobID, retryCount, pgTimestamptz(nextAt), lastError,
	)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

// MarkFailed finalizes a processing job as failed, recording the attempt
// count the job ends with. Permanent delivery errors pass the current count
// unchanged; retry exhaustion passes the incremented one.
func (s *DB) MarkFailed(ctx context.Context, jobID int64, now time.Time, retryCount int16, lastError string) (err error) {
	ctx, span := s.startSpan(ctx, "MarkFailed")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE notification_jobs
		SET status = 'failed', processed_at = $2, retry_count = $3,
			claimed_at = NULL, last_error = $4
		WHERE id = $1 AND status = 'processing'`,
		jobID, pgTimestamptz(now), retryCount, lastError,
	)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

// RetryJob resets a failed job so the processor picks it up again.
func (s *DB) RetryJob(ctx context.Context, jobID int64, now time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "RetryJob")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE notification_jobs
		SET status = 'pending', retry_count = 0, scheduled_at = $2,
			processed_at = NULL, claimed_at = NULL, last_error = ''
		WHERE id = $1 AND status = 'failed'`,
		jobID, pgTimestamptz(now),
	)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

// CancelJob cancels a single pending or processing job.
func (s *DB) CancelJob(ctx context.Context, jobID int64, now time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "CancelJob")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE notification_jobs
		SET status = 'cancelled', processed_at = $2, claimed_at = NULL
		WHERE id = $1 AND status IN ('pending', 'processing')`,
		jobID, pgTimestamptz(now),
	)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

// RetryAllFailed resets every failed job the filter selects. The empty
// filter resets the whole queue.
func (s *DB) RetryAllFailed(ctx context.Context, filter entity.BulkFilter, now time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "RetryAllFailed")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE notification_jobs
		SET status = 'pending', retry_count = 0, scheduled_at = $3,
			processed_at = NULL, claimed_at = NULL, last_error = ''
		WHERE status = 'failed'
		  AND ($1 = 0 OR user_id = $1)
		  AND ($2 = 0 OR contract_id = $2)`,
		filter.UserID, filter.ContractID, pgTimestamptz(now),
	)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}

// CancelAllPending cancels every pending job the filter selects, e.g. all
// jobs for a retracted contract when the filter sets only the contract ID.
func (s *DB) CancelAllPending(ctx context.Context, filter entity.BulkFilter, now time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "CancelAllPending")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE notification_jobs
		SET status = 'cancelled', processed_at = $3
		WHERE status = 'pending'
		  AND ($1 = 0 OR user_id = $1)
		  AND ($2 = 0 OR contract_id = $2)`,
		filter.UserID, filter.ContractID, pgTimestamptz(now),
	)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}

// ReclaimStale reverts processing jobs whose worker died back to pending
// without consuming a retry attempt.
func (s *DB) ReclaimStale(ctx context.Context, claimedBefore time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "ReclaimStale")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE notification_jobs
		SET status = 'pending', claimed_at = NULL
		WHERE status = 'processing' AND processed_at IS NULL AND claimed_at < $1`,
		pgTimestamptz(claimedBefore),
	)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}

// QueueStats counts jobs per status.
func (s *DB) QueueStats(ctx context.Context) (_ entity.QueueStats, err error) {
	ctx, span := s.startSpan(ctx, "QueueStats")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'processing'),
			COUNT(*) FILTER (WHERE status = 'sent'),
			COUNT(*) FILTER (WHERE status = 'failed'),
			COUNT(*) FILTER (WHERE status = 'cancelled')
		FROM notification_jobs`,
	)

	var stats entity.QueueStats
	if err := row.Scan(&stats.Pending, &stats.Processing, &stats.Sent, &stats.Failed, &stats.Cancelled); err != nil {
		return entity.QueueStats{}, s.mapError(err)
	}

	if total := stats.Sent + stats.Failed; total > 0 {
		stats.SuccessRate = float64(stats.Sent) / float64(total)
	}

	return stats, nil
}

func nullableTime(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{}
	}
	return pgTimestamptz(t)
}
