package usecase

import (
	"bytes"
	"context"
	"html/template"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/bidwatch/internal/alert/entity"
	"github.com/shandysiswandi/bidwatch/internal/pkg/clock"
	"github.com/shandysiswandi/bidwatch/internal/pkg/config"
	"github.com/shandysiswandi/bidwatch/internal/pkg/idempotency"
	"github.com/shandysiswandi/bidwatch/internal/pkg/instrument"
	"github.com/shandysiswandi/bidwatch/internal/pkg/uid"
	"github.com/shandysiswandi/bidwatch/internal/pkg/validator"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultBatchSize  = 10
	defaultMaxRetries = 5
	defaultDigestHour = 8

	priorityNormal int16 = 0
	priorityHigh   int16 = 10

	retryBackoffBase = time.Minute
)

type repoDB interface {
	Enqueue(ctx context.Context, job entity.EnqueueJob) (bool, error)
	ClaimBatch(ctx context.Context, now time.Time, limit int32) ([]entity.NotificationJob, error)
	MarkSent(ctx context.Context, jobID int64, now time.Time, results []entity.ChannelResult) error
	MarkRetry(ctx context.Context, jobID int64, retryCount int16, nextAt time.Time, lastError string) error
	MarkFailed(ctx context.Context, jobID int64, now time.Time, retryCount int16, lastError string) error
	RetryJob(ctx context.Context, jobID int64, now time.Time) error
	CancelJob(ctx context.Context, jobID int64, now time.Time) error
	RetryAllFailed(ctx context.Context, filter entity.BulkFilter, now time.Time) (int64, error)
	CancelAllPending(ctx context.Context, filter entity.BulkFilter, now time.Time) (int64, error)
	ReclaimStale(ctx context.Context, claimedBefore time.Time) (int64, error)
	QueueStats(ctx context.Context) (entity.QueueStats, error)

	GetContract(ctx context.Context, contractID int64) (*entity.ContractAnnouncement, error)
	ListContractsPublishedSince(ctx context.Context, since time.Time) ([]entity.ContractAnnouncement, error)
	GetProfile(ctx context.Context, userID int64) (*entity.UserPreferenceProfile, error)
	ListAlertableProfiles(ctx context.Context) ([]entity.UserPreferenceProfile, error)
	ListActiveTrackedDeadlines(ctx context.Context, from, until time.Time) ([]entity.TrackedDeadline, error)
}

// ChannelSender delivers a rendered notification over one channel. Senders
// must not retry; the queue owns the retry policy. A permanent error (see
// entity.Permanent) fails the job without consuming retry attempts.
type ChannelSender interface {
	Channel() entity.Channel
	Send(ctx context.Context, msg entity.OutboundMessage) (entity.SendReceipt, error)
}

type Usecase struct {
	repoDB    repoDB
	senders   map[entity.Channel]ChannelSender
	cfg       config.Config
	uid       uid.NumberID
	clock     clock.Clocker
	validator validator.Validator
	idemp     idempotency.Idempotency
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoDB      repoDB
	Senders     []ChannelSender
	Config      config.Config
	UID         uid.NumberID
	Clock       clock.Clocker
	Validator   validator.Validator
	Idempotency idempotency.Idempotency
	Instrument  instrument.Instrumentation
}

func NewAlert(dep Dependency) *Usecase {
	senders := make(map[entity.Channel]ChannelSender, len(dep.Senders))
	for _, sender := range dep.Senders {
		senders[sender.Channel()] = sender
	}

	return &Usecase{
		repoDB:    dep.RepoDB,
		senders:   senders,
		cfg:       dep.Config,
		uid:       dep.UID,
		clock:     dep.Clock,
		validator: dep.Validator,
		idemp:     dep.Idempotency,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("alert.usecase").Start(ctx, name)
}

func (s *Usecase) endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *Usecase) renderTemplate(name, tpl string, data map[string]any) (string, error) {
	t, err := template.New(name).Option("missingkey=zero").Parse(tpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// retryDelay returns the backoff before attempt number retryCount+1, doubling
// from a one-minute base: 1m, 2m, 4m, 8m, ...
func retryDelay(retryCount int16) time.Duration {
	backoff := retry.NewExponential(retryBackoffBase)

	delay := retryBackoffBase
	for i := int16(0); i <= retryCount; i++ {
		next, stop := backoff.Next()
		if stop {
			break
		}
		delay = next
	}

	return delay
}

// scheduleFor returns when a contract match for this profile becomes due.
// Real-time profiles are due immediately; daily-digest profiles wait for the
// next digest send hour so their matches arrive as one batch.
func (s *Usecase) scheduleFor(profile entity.UserPreferenceProfile) time.Time {
	now := s.clock.Now()
	if profile.Frequency != entity.FrequencyDailyDigest {
		return now
	}

	hour := s.cfg.GetInt("modules.alert.digest_hour")
	if hour <= 0 || hour > 23 {
		hour = defaultDigestHour
	}

	return nextClockHour(now, hour)
}

// nextClockHour returns the next occurrence of hour:00 strictly after now.
func nextClockHour(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// formatUGX renders a monetary value as Ugandan shillings with thousands
// separators, e.g. "UGX 1,250,000".
func formatUGX(value int64) string {
	raw := strconv.FormatInt(value, 10)

	neg := false
	if len(raw) > 0 && raw[0] == '-' {
		neg = true
		raw = raw[1:]
	}

	var buf bytes.Buffer
	for i, digit := range raw {
		if i > 0 && (len(raw)-i)%3 == 0 {
			buf.WriteByte(',')
		}
		buf.WriteRune(digit)
	}

	out := "UGX " + buf.String()
	if neg {
		out = "UGX -" + buf.String()
	}

	return out
}
