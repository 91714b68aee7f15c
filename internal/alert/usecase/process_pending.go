package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/bidwatch/internal/alert/entity"
	"github.com/shandysiswandi/bidwatch/internal/pkg/goerror"
	"go.uber.org/atomic"
)

type ProcessPendingInput struct {
	BatchSize int32
}

// ProcessPending claims a batch of due jobs and fans each one out to the
// user's enabled channels. A job counts as sent when at least one channel
// delivered; when every channel fails the job is retried with exponential
// backoff, or failed outright when the errors are permanent or retries are
// exhausted.
func (s *Usecase) ProcessPending(ctx context.Context, in ProcessPendingInput) (_ entity.ProcessReport, err error) {
	ctx, span := s.startSpan(ctx, "ProcessPending")
	defer func() { s.endSpan(span, err) }()

	batchSize := in.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	jobs, err := s.repoDB.ClaimBatch(ctx, s.clock.Now(), batchSize)
	if err != nil {
		return entity.ProcessReport{}, goerror.NewServer(err)
	}

	var sent, retried, failed atomic.Int64
	var deliveryErrs []string
	for _, job := range jobs {
		outcome, errMsg := s.deliverJob(ctx, job)
		switch outcome {
		case deliverySent:
			sent.Inc()
		case deliveryRetried:
			retried.Inc()
		case deliveryFailed:
			failed.Inc()
		}
		if errMsg != "" {
			deliveryErrs = append(deliveryErrs, fmt.Sprintf("job %d: %s", job.ID, errMsg))
		}
	}

	return entity.ProcessReport{
		Claimed: int64(len(jobs)),
		Sent:    sent.Load(),
		Retried: retried.Load(),
		Failed:  failed.Load(),
		Errors:  deliveryErrs,
	}, nil
}

type deliveryOutcome int

const (
	deliverySent deliveryOutcome = iota
	deliveryRetried
	deliveryFailed
)

func (s *Usecase) deliverJob(ctx context.Context, job entity.NotificationJob) (deliveryOutcome, string) {
	profile, err := s.repoDB.GetProfile(ctx, job.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		reason := "preference profile no longer exists"
		return s.failJob(ctx, job, reason), reason
	}
	if err != nil {
		return s.retryJob(ctx, job, err.Error()), err.Error()
	}

	msg, err := s.renderJobMessage(job)
	if err != nil {
		reason := "render template: " + err.Error()
		return s.failJob(ctx, job, reason), reason
	}

	results := s.fanOut(ctx, job, *profile, msg)
	if len(results) == 0 {
		reason := "no delivery channels enabled"
		return s.failJob(ctx, job, reason), reason
	}

	var sendErrs []string
	anySent, allPermanent := false, true
	for _, res := range results {
		if res.Sent {
			anySent = true
			continue
		}
		sendErrs = append(sendErrs, fmt.Sprintf("%s: %s", res.Channel, res.Error))
		if !res.permanent {
			allPermanent = false
		}
	}

	if anySent {
		if err := s.repoDB.MarkSent(ctx, job.ID, s.clock.Now(), channelResults(results)); err != nil {
			slog.ErrorContext(ctx, "failed to mark job sent", "job_id", job.ID, "error", err)
		}
		return deliverySent, ""
	}

	joined := strings.Join(sendErrs, "; ")
	if allPermanent {
		return s.failJob(ctx, job, joined), joined
	}

	return s.retryJob(ctx, job, joined), joined
}

type deliveryResult struct {
	entity.ChannelResult
	permanent bool
}

// fanOut sends over every channel the profile enabled and a sender exists
// for. A panicking sender is contained and recorded as that channel failing.
func (s *Usecase) fanOut(ctx context.Context, job entity.NotificationJob, profile entity.UserPreferenceProfile, msg entity.OutboundMessage) []deliveryResult {
	destinations := map[entity.Channel]string{
		entity.ChannelEmail: profile.Email,
		entity.ChannelChat:  profile.ChatDestination,
	}

	var results []deliveryResult
	for channel, sender := range s.senders {
		if !profile.HasChannel(channel) {
			continue
		}

		channelMsg := msg
		channelMsg.Destination = destinations[channel]

		receipt, err := sendWithRecover(ctx, sender, channelMsg)
		if err != nil {
			slog.ErrorContext(ctx, "channel delivery failed",
				"job_id", job.ID, "channel", channel.String(), "error", err)
			results = append(results, deliveryResult{
				ChannelResult: entity.ChannelResult{Channel: channel, Error: err.Error()},
				permanent:     entity.IsPermanent(err),
			})
			continue
		}

		results = append(results, deliveryResult{
			ChannelResult: entity.ChannelResult{
				Channel:   channel,
				Sent:      true,
				MessageID: receipt.MessageID,
				SentAt:    receipt.SentAt,
			},
		})
	}

	return results
}

func sendWithRecover(ctx context.Context, sender ChannelSender, msg entity.OutboundMessage) (receipt entity.SendReceipt, err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			err = fmt.Errorf("panic in %s sender: %v", sender.Channel(), rvr)
		}
	}()

	return sender.Send(ctx, msg)
}

// retryJob schedules the next attempt, or fails the job when the attempt
// that just failed was attempt number max_retries. The claimed row is held
// exclusively, so its counters are authoritative here.
func (s *Usecase) retryJob(ctx context.Context, job entity.NotificationJob, lastError string) deliveryOutcome {
	attempts := job.RetryCount + 1
	if attempts >= job.MaxRetries {
		if err := s.repoDB.MarkFailed(ctx, job.ID, s.clock.Now(), attempts, "retries exhausted: "+lastError); err != nil {
			slog.ErrorContext(ctx, "failed to mark job failed", "job_id", job.ID, "error", err)
		}
		return deliveryFailed
	}

	nextAt := s.clock.Now().Add(retryDelay(job.RetryCount))
	if err := s.repoDB.MarkRetry(ctx, job.ID, attempts, nextAt, lastError); err != nil {
		slog.ErrorContext(ctx, "failed to mark job for retry", "job_id", job.ID, "error", err)
		return deliveryFailed
	}

	return deliveryRetried
}

func (s *Usecase) failJob(ctx context.Context, job entity.NotificationJob, lastError string) deliveryOutcome {
	if err := s.repoDB.MarkFailed(ctx, job.ID, s.clock.Now(), job.RetryCount, lastError); err != nil {
		slog.ErrorContext(ctx, "failed to mark job failed", "job_id", job.ID, "error", err)
	}
	return deliveryFailed
}

func channelResults(results []deliveryResult) []entity.ChannelResult {
	out := make([]entity.ChannelResult, 0, len(results))
	for _, res := range results {
		out = append(out, res.ChannelResult)
	}
	return out
}
