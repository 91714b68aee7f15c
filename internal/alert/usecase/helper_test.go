package usecase

import (
	"context"
	"time"

	"github.com/shandysiswandi/bidwatch/internal/alert/entity"
	"github.com/shandysiswandi/bidwatch/internal/pkg/config"
	"github.com/shandysiswandi/bidwatch/internal/pkg/goerror"
	"github.com/shandysiswandi/bidwatch/internal/pkg/idempotency"
	"github.com/shandysiswandi/bidwatch/internal/pkg/instrument"
)

// fakeClock returns a fixed instant.
type fakeClock struct {
	now time.Time
}

func (f fakeClock) Now() time.Time { return f.now }

// fakeUID hands out sequential IDs.
type fakeUID struct {
	next int64
}

func (f *fakeUID) Generate() int64 {
	f.next++
	return f.next
}

// fakeValidator accepts everything unless err is set.
type fakeValidator struct {
	err error
}

func (f fakeValidator) Validate(any) error { return f.err }

// fakeIdempotency runs the callback inline unless execErr is set.
type fakeIdempotency struct {
	execErr error
	calls   int
}

func (f *fakeIdempotency) Acquire(context.Context, string, time.Duration) (idempotency.State, error) {
	return idempotency.StateNone, nil
}

func (f *fakeIdempotency) MarkCompleted(context.Context, string, time.Duration) error { return nil }

func (f *fakeIdempotency) MarkFailed(context.Context, string, time.Duration) error { return nil }

func (f *fakeIdempotency) Exec(ctx context.Context, _ string, fn func(context.Context) error, _ ...idempotency.Option) error {
	f.calls++
	if f.execErr != nil {
		return f.execErr
	}
	return fn(ctx)
}

// fakeConfig serves fixed durations and strings; unused Config methods are
// inherited from the nil embedded interface and panic when touched.
type fakeConfig struct {
	config.Config
	strings   map[string]string
	ints      map[string]int
	durations map[string]time.Duration
}

func (f fakeConfig) GetString(key string) string { return f.strings[key] }

func (f fakeConfig) GetInt(key string) int { return f.ints[key] }

func (f fakeConfig) GetMinute(key string) time.Duration { return f.durations[key] }

func (f fakeConfig) GetHour(key string) time.Duration { return f.durations[key] }

// fakeSender records sends and replies with a canned receipt or error.
type fakeSender struct {
	channel  entity.Channel
	err      error
	panicMsg string
	sent     []entity.OutboundMessage
}

func (f *fakeSender) Channel() entity.Channel { return f.channel }

func (f *fakeSender) Send(_ context.Context, msg entity.OutboundMessage) (entity.SendReceipt, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.err != nil {
		return entity.SendReceipt{}, f.err
	}
	f.sent = append(f.sent, msg)
	return entity.SendReceipt{MessageID: "msg-1", SentAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}, nil
}

// fakeRepo implements repoDB with overridable hooks. Unset hooks return
// zero values so each test configures only what it exercises.
type fakeRepo struct {
	enqueueFn          func(ctx context.Context, job entity.EnqueueJob) (bool, error)
	claimBatchFn       func(ctx context.Context, now time.Time, limit int32) ([]entity.NotificationJob, error)
	markSentFn         func(ctx context.Context, jobID int64, now time.Time, results []entity.ChannelResult) error
	markRetryFn        func(ctx context.Context, jobID int64, retryCount int16, nextAt time.Time, lastError string) error
	markFailedFn       func(ctx context.Context, jobID int64, now time.Time, retryCount int16, lastError string) error
	retryJobFn         func(ctx context.Context, jobID int64, now time.Time) error
	cancelJobFn        func(ctx context.Context, jobID int64, now time.Time) error
	retryAllFailedFn   func(ctx context.Context, filter entity.BulkFilter, now time.Time) (int64, error)
	cancelAllPendingFn func(ctx context.Context, filter entity.BulkFilter, now time.Time) (int64, error)
	reclaimStaleFn     func(ctx context.Context, claimedBefore time.Time) (int64, error)
	queueStatsFn       func(ctx context.Context) (entity.QueueStats, error)

	getContractFn   func(ctx context.Context, contractID int64) (*entity.ContractAnnouncement, error)
	listContractsFn func(ctx context.Context, since time.Time) ([]entity.ContractAnnouncement, error)
	getProfileFn    func(ctx context.Context, userID int64) (*entity.UserPreferenceProfile, error)
	listProfilesFn  func(ctx context.Context) ([]entity.UserPreferenceProfile, error)
	listDeadlinesFn func(ctx context.Context, from, until time.Time) ([]entity.TrackedDeadline, error)

	enqueued []entity.EnqueueJob
}

func (f *fakeRepo) Enqueue(ctx context.Context, job entity.EnqueueJob) (bool, error) {
	f.enqueued = append(f.enqueued, job)
	if f.enqueueFn != nil {
		return f.enqueueFn(ctx, job)
	}
	return true, nil
}

func (f *fakeRepo) ClaimBatch(ctx context.Context, now time.Time, limit int32) ([]entity.NotificationJob, error) {
	if f.claimBatchFn != nil {
		return f.claimBatchFn(ctx, now, limit)
	}
	return nil, nil
}

func (f *fakeRepo) MarkSent(ctx context.Context, jobID int64, now time.Time, results []entity.ChannelResult) error {
	if f.markSentFn != nil {
		return f.markSentFn(ctx, jobID, now, results)
	}
	return nil
}

func (f *fakeRepo) MarkRetry(ctx context.Context, jobID int64, retryCount int16, nextAt time.Time, lastError string) error {
	if f.markRetryFn != nil {
		return f.markRetryFn(ctx, jobID, retryCount, nextAt, lastError)
	}
	return nil
}

func (f *fakeRepo) MarkFailed(ctx context.Context, jobID int64, now time.Time, retryCount int16, lastError string) error {
	if f.markFailedFn != nil {
		return f.markFailedFn(ctx, jobID, now, retryCount, lastError)
	}
	return nil
}

func (f *fakeRepo) RetryJob(ctx context.Context, jobID int64, now time.Time) error {
	if f.retryJobFn != nil {
		return f.retryJobFn(ctx, jobID, now)
	}
	return nil
}

func (f *fakeRepo) CancelJob(ctx context.Context, jobID int64, now time.Time) error {
	if f.cancelJobFn != nil {
		return f.cancelJobFn(ctx, jobID, now)
	}
	return nil
}

func (f *fakeRepo) RetryAllFailed(ctx context.Context, filter entity.BulkFilter, now time.Time) (int64, error) {
	if f.retryAllFailedFn != nil {
		return f.retryAllFailedFn(ctx, filter, now)
	}
	return 0, nil
}

func (f *fakeRepo) CancelAllPending(ctx context.Context, filter entity.BulkFilter, now time.Time) (int64, error) {
	if f.cancelAllPendingFn != nil {
		return f.cancelAllPendingFn(ctx, filter, now)
	}
	return 0, nil
}

func (f *fakeRepo) ReclaimStale(ctx context.Context, claimedBefore time.Time) (int64, error) {
	if f.reclaimStaleFn != nil {
		return f.reclaimStaleFn(ctx, claimedBefore)
	}
	return 0, nil
}

func (f *fakeRepo) QueueStats(ctx context.Context) (entity.QueueStats, error) {
	if f.queueStatsFn != nil {
		return f.queueStatsFn(ctx)
	}
	return entity.QueueStats{}, nil
}

func (f *fakeRepo) GetContract(ctx context.Context, contractID int64) (*entity.ContractAnnouncement, error) {
	if f.getContractFn != nil {
		return f.getContractFn(ctx, contractID)
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeRepo) ListContractsPublishedSince(ctx context.Context, since time.Time) ([]entity.ContractAnnouncement, error) {
	if f.listContractsFn != nil {
		return f.listContractsFn(ctx, since)
	}
	return nil, nil
}

func (f *fakeRepo) GetProfile(ctx context.Context, userID int64) (*entity.UserPreferenceProfile, error) {
	if f.getProfileFn != nil {
		return f.getProfileFn(ctx, userID)
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeRepo) ListAlertableProfiles(ctx context.Context) ([]entity.UserPreferenceProfile, error) {
	if f.listProfilesFn != nil {
		return f.listProfilesFn(ctx)
	}
	return nil, nil
}

func (f *fakeRepo) ListActiveTrackedDeadlines(ctx context.Context, from, until time.Time) ([]entity.TrackedDeadline, error) {
	if f.listDeadlinesFn != nil {
		return f.listDeadlinesFn(ctx, from, until)
	}
	return nil, nil
}

type testDeps struct {
	repo  *fakeRepo
	email *fakeSender
	chat  *fakeSender
	idemp *fakeIdempotency
	now   time.Time
}

func newTestUsecase(deps *testDeps) *Usecase {
	if deps.repo == nil {
		deps.repo = &fakeRepo{}
	}
	if deps.email == nil {
		deps.email = &fakeSender{channel: entity.ChannelEmail}
	}
	if deps.chat == nil {
		deps.chat = &fakeSender{channel: entity.ChannelChat}
	}
	if deps.idemp == nil {
		deps.idemp = &fakeIdempotency{}
	}
	if deps.now.IsZero() {
		deps.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	}

	return NewAlert(Dependency{
		RepoDB:  deps.repo,
		Senders: []ChannelSender{deps.email, deps.chat},
		Config: fakeConfig{
			strings: map[string]string{},
			ints:    map[string]int{},
			durations: map[string]time.Duration{
				"modules.alert.trigger_lock_minutes": 5 * time.Minute,
				"modules.alert.match_window_hours":   24 * time.Hour,
				"modules.alert.stale_after_minutes":  10 * time.Minute,
			},
		},
		UID:         &fakeUID{},
		Clock:       fakeClock{now: deps.now},
		Validator:   fakeValidator{},
		Idempotency: deps.idemp,
		Instrument:  instrument.NewNoop(),
	})
}
