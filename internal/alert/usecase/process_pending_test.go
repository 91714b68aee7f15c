package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/bidwatch/internal/alert/entity"
	"github.com/shandysiswandi/bidwatch/internal/pkg/valueobject"
)

func pendingJob(id int64) entity.NotificationJob {
	return entity.NotificationJob{
		ID:         id,
		UserID:     7,
		ContractID: 100,
		Type:       entity.JobTypeContractMatch,
		Status:     entity.JobStatusProcessing,
		Payload: valueobject.JSONMap{
			"title":    "Supply of ICT Equipment",
			"agency":   "Ministry of Works",
			"location": "Kampala",
			"value":    "UGX 50,000,000",
			"deadline": "15 Mar 2026",
			"reasons":  "industry: Information Technology (ict)",
		},
		RetryCount: 0,
		MaxRetries: 5,
	}
}

func bothChannelsProfile() *entity.UserPreferenceProfile {
	return &entity.UserPreferenceProfile{
		UserID:          7,
		EmailAlerts:     true,
		ChatAlerts:      true,
		Email:           "bidder@example.com",
		ChatDestination: "0700123456",
	}
}

func TestProcessPending(t *testing.T) {
	t.Run("empty_queue_reports_zero", func(t *testing.T) {
		// Arrange
		deps := &testDeps{repo: &fakeRepo{}}
		uc := newTestUsecase(deps)

		// Act
		report, err := uc.ProcessPending(context.Background(), ProcessPendingInput{})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Claimed != 0 || report.Sent != 0 || report.Retried != 0 || report.Failed != 0 {
			t.Fatalf("expected empty report, got %+v", report)
		}
	})

	t.Run("default_batch_size_when_unset", func(t *testing.T) {
		// Arrange
		var gotLimit int32
		repo := &fakeRepo{
			claimBatchFn: func(_ context.Context, _ time.Time, limit int32) ([]entity.NotificationJob, error) {
				gotLimit = limit
				return nil, nil
			},
		}
		uc := newTestUsecase(&testDeps{repo: repo})

		// Act
		if _, err := uc.ProcessPending(context.Background(), ProcessPendingInput{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Assert
		if gotLimit != 10 {
			t.Fatalf("expected default batch size 10, got %d", gotLimit)
		}
	})

	t.Run("both_channels_sent_marks_job_sent", func(t *testing.T) {
		// Arrange
		var sentResults []entity.ChannelResult
		repo := &fakeRepo{
			claimBatchFn: func(context.Context, time.Time, int32) ([]entity.NotificationJob, error) {
				return []entity.NotificationJob{pendingJob(1)}, nil
			},
			getProfileFn: func(context.Context, int64) (*entity.UserPreferenceProfile, error) {
				return bothChannelsProfile(), nil
			},
			markSentFn: func(_ context.Context, _ int64, _ time.Time, results []entity.ChannelResult) error {
				sentResults = results
				return nil
			},
		}
		deps := &testDeps{repo: repo}
		uc := newTestUsecase(deps)

		// Act
		report, err := uc.ProcessPending(context.Background(), ProcessPendingInput{})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Sent != 1 || report.Retried != 0 || report.Failed != 0 {
			t.Fatalf("expected one sent job, got %+v", report)
		}
		if len(sentResults) != 2 {
			t.Fatalf("expected results for both channels, got %d", len(sentResults))
		}
		if len(deps.email.sent) != 1 || deps.email.sent[0].Destination != "bidder@example.com" {
			t.Fatalf("expected email delivery to the profile address")
		}
		if len(deps.chat.sent) != 1 || deps.chat.sent[0].Destination != "0700123456" {
			t.Fatalf("expected chat delivery to the profile destination")
		}
		if len(report.Errors) != 0 {
			t.Fatalf("expected no delivery errors, got %v", report.Errors)
		}
	})

	t.Run("partial_success_still_counts_as_sent", func(t *testing.T) {
		// Arrange
		repo := &fakeRepo{
			claimBatchFn: func(context.Context, time.Time, int32) ([]entity.NotificationJob, error) {
				return []entity.NotificationJob{pendingJob(1)}, nil
			},
			getProfileFn: func(context.Context, int64) (*entity.UserPreferenceProfile, error) {
				return bothChannelsProfile(), nil
			},
		}
		chat := &fakeSender{channel: entity.ChannelChat, err: errors.New("gateway timeout")}
		uc := newTestUsecase(&testDeps{repo: repo, chat: chat})

		// Act
		report, err := uc.ProcessPending(context.Background(), ProcessPendingInput{})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Sent != 1 {
			t.Fatalf("expected partial delivery to count as sent, got %+v", report)
		}
	})

	t.Run("all_transient_failures_schedule_retry", func(t *testing.T) {
		// Arrange
		var gotCount int16
		var nextAt time.Time
		var lastError string
		now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		repo := &fakeRepo{
			claimBatchFn: func(context.Context, time.Time, int32) ([]entity.NotificationJob, error) {
				job := pendingJob(1)
				job.RetryCount = 2
				return []entity.NotificationJob{job}, nil
			},
			getProfileFn: func(context.Context, int64) (*entity.UserPreferenceProfile, error) {
				return bothChannelsProfile(), nil
			},
			markRetryFn: func(_ context.Context, _ int64, retryCount int16, next time.Time, lastErr string) error {
				gotCount = retryCount
				nextAt = next
				lastError = lastErr
				return nil
			},
		}
		email := &fakeSender{channel: entity.ChannelEmail, err: errors.New("smtp down")}
		chat := &fakeSender{channel: entity.ChannelChat, err: errors.New("gateway timeout")}
		uc := newTestUsecase(&testDeps{repo: repo, email: email, chat: chat, now: now})

		// Act
		report, err := uc.ProcessPending(context.Background(), ProcessPendingInput{})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Retried != 1 {
			t.Fatalf("expected one retried job, got %+v", report)
		}
		if gotCount != 3 {
			t.Fatalf("expected retry count 3 after the third failure, got %d", gotCount)
		}
		// retry count 2 backs off 2^2 = 4 minutes
		if want := now.Add(4 * time.Minute); !nextAt.Equal(want) {
			t.Fatalf("expected next attempt at %v, got %v", want, nextAt)
		}
		if lastError == "" {
			t.Fatalf("expected the channel errors to be recorded")
		}
		if len(report.Errors) != 1 || !strings.Contains(report.Errors[0], "smtp down") {
			t.Fatalf("expected the delivery errors in the report, got %v", report.Errors)
		}
	})

	t.Run("final_allowed_attempt_marks_job_failed", func(t *testing.T) {
		// Arrange: retry_count 4 with max_retries 5 means this is attempt five
		var failedCount int16
		var failedErr string
		retried := false
		repo := &fakeRepo{
			claimBatchFn: func(context.Context, time.Time, int32) ([]entity.NotificationJob, error) {
				job := pendingJob(1)
				job.RetryCount = 4
				return []entity.NotificationJob{job}, nil
			},
			getProfileFn: func(context.Context, int64) (*entity.UserPreferenceProfile, error) {
				return bothChannelsProfile(), nil
			},
			markRetryFn: func(context.Context, int64, int16, time.Time, string) error {
				retried = true
				return nil
			},
			markFailedFn: func(_ context.Context, _ int64, _ time.Time, retryCount int16, lastErr string) error {
				failedCount = retryCount
				failedErr = lastErr
				return nil
			},
		}
		email := &fakeSender{channel: entity.ChannelEmail, err: errors.New("smtp down")}
		chat := &fakeSender{channel: entity.ChannelChat, err: errors.New("gateway timeout")}
		uc := newTestUsecase(&testDeps{repo: repo, email: email, chat: chat})

		// Act
		report, err := uc.ProcessPending(context.Background(), ProcessPendingInput{})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Failed != 1 || report.Retried != 0 {
			t.Fatalf("expected the fifth failure to end the job, got %+v", report)
		}
		if retried {
			t.Fatalf("a sixth attempt must never be scheduled")
		}
		if failedCount != 5 {
			t.Fatalf("expected the job to end with retry count 5, got %d", failedCount)
		}
		if !strings.Contains(failedErr, "retries exhausted") {
			t.Fatalf("expected exhaustion in the last error, got %q", failedErr)
		}
	})

	t.Run("attempt_below_cap_still_retries", func(t *testing.T) {
		// Arrange: retry_count 3 leaves one attempt after this one
		retried, failed := false, false
		repo := &fakeRepo{
			claimBatchFn: func(context.Context, time.Time, int32) ([]entity.NotificationJob, error) {
				job := pendingJob(1)
				job.RetryCount = 3
				return []entity.NotificationJob{job}, nil
			},
			getProfileFn: func(context.Context, int64) (*entity.UserPreferenceProfile, error) {
				return bothChannelsProfile(), nil
			},
			markRetryFn: func(context.Context, int64, int16, time.Time, string) error {
				retried = true
				return nil
			},
			markFailedFn: func(context.Context, int64, time.Time, int16, string) error {
				failed = true
				return nil
			},
		}
		email := &fakeSender{channel: entity.ChannelEmail, err: errors.New("smtp down")}
		chat := &fakeSender{channel: entity.ChannelChat, err: errors.New("gateway timeout")}
		uc := newTestUsecase(&testDeps{repo: repo, email: email, chat: chat})

		// Act
		report, err := uc.ProcessPending(context.Background(), ProcessPendingInput{})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Retried != 1 || !retried || failed {
			t.Fatalf("expected a fourth failure to schedule the final attempt, got %+v", report)
		}
	})

	t.Run("permanent_failures_skip_retries", func(t *testing.T) {
		// Arrange
		var failedCount int16
		var failedErr string
		retried := false
		repo := &fakeRepo{
			claimBatchFn: func(context.Context, time.Time, int32) ([]entity.NotificationJob, error) {
				return []entity.NotificationJob{pendingJob(1)}, nil
			},
			getProfileFn: func(context.Context, int64) (*entity.UserPreferenceProfile, error) {
				profile := bothChannelsProfile()
				profile.ChatAlerts = false
				return profile, nil
			},
			markFailedFn: func(_ context.Context, _ int64, _ time.Time, retryCount int16, lastErr string) error {
				failedCount = retryCount
				failedErr = lastErr
				return nil
			},
			markRetryFn: func(context.Context, int64, int16, time.Time, string) error {
				retried = true
				return nil
			},
		}
		email := &fakeSender{channel: entity.ChannelEmail, err: entity.Permanent(errors.New("invalid address"))}
		uc := newTestUsecase(&testDeps{repo: repo, email: email})

		// Act
		report, err := uc.ProcessPending(context.Background(), ProcessPendingInput{})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Failed != 1 {
			t.Fatalf("expected permanent failure to fail the job, got %+v", report)
		}
		if retried {
			t.Fatalf("permanent failures must not burn retry attempts")
		}
		if failedCount != 0 {
			t.Fatalf("expected retry count to stay at 0, got %d", failedCount)
		}
		if failedErr == "" {
			t.Fatalf("expected last error to be recorded")
		}
	})

	t.Run("missing_profile_fails_job", func(t *testing.T) {
		// Arrange
		failed := false
		repo := &fakeRepo{
			claimBatchFn: func(context.Context, time.Time, int32) ([]entity.NotificationJob, error) {
				return []entity.NotificationJob{pendingJob(1)}, nil
			},
			markFailedFn: func(context.Context, int64, time.Time, int16, string) error {
				failed = true
				return nil
			},
		}
		uc := newTestUsecase(&testDeps{repo: repo})

		// Act
		report, err := uc.ProcessPending(context.Background(), ProcessPendingInput{})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Failed != 1 || !failed {
			t.Fatalf("expected missing profile to fail the job, got %+v", report)
		}
		if len(report.Errors) != 1 {
			t.Fatalf("expected the failure reason in the report, got %v", report.Errors)
		}
	})

	t.Run("no_enabled_channels_fails_job", func(t *testing.T) {
		// Arrange
		repo := &fakeRepo{
			claimBatchFn: func(context.Context, time.Time, int32) ([]entity.NotificationJob, error) {
				return []entity.NotificationJob{pendingJob(1)}, nil
			},
			getProfileFn: func(context.Context, int64) (*entity.UserPreferenceProfile, error) {
				return &entity.UserPreferenceProfile{UserID: 7}, nil
			},
		}
		uc := newTestUsecase(&testDeps{repo: repo})

		// Act
		report, err := uc.ProcessPending(context.Background(), ProcessPendingInput{})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Failed != 1 {
			t.Fatalf("expected job without channels to fail, got %+v", report)
		}
	})

	t.Run("panicking_sender_is_contained", func(t *testing.T) {
		// Arrange
		repo := &fakeRepo{
			claimBatchFn: func(context.Context, time.Time, int32) ([]entity.NotificationJob, error) {
				return []entity.NotificationJob{pendingJob(1)}, nil
			},
			getProfileFn: func(context.Context, int64) (*entity.UserPreferenceProfile, error) {
				return bothChannelsProfile(), nil
			},
		}
		email := &fakeSender{channel: entity.ChannelEmail, panicMsg: "smtp client corrupted"}
		uc := newTestUsecase(&testDeps{repo: repo, email: email})

		// Act
		report, err := uc.ProcessPending(context.Background(), ProcessPendingInput{})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// chat still delivered, so the job counts as sent
		if report.Sent != 1 {
			t.Fatalf("expected job to be sent through the surviving channel, got %+v", report)
		}
	})
}
