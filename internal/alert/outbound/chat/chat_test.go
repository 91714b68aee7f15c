package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/bidwatch/internal/alert/entity"
	"github.com/shandysiswandi/bidwatch/internal/pkg/instrument"
	"github.com/shandysiswandi/bidwatch/internal/pkg/messaging"
)

type fakePublisher struct {
	err       error
	messageID string

	destination string
	published   []messaging.OutgoingMessage
}

func (f *fakePublisher) Publish(_ context.Context, destination string, msg messaging.OutgoingMessage) (messaging.PublishResult, error) {
	if f.err != nil {
		return messaging.PublishResult{}, f.err
	}
	f.destination = destination
	f.published = append(f.published, msg)
	return messaging.PublishResult{MessageID: f.messageID}, nil
}

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time { return f.now }

type fixedUUID struct{}

func (fixedUUID) Generate() string { return "uuid-1" }

func TestChatSend(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	newSender := func(pub *fakePublisher) *Sender {
		return New(pub, "chat.outbound", fixedUUID{}, fixedClock{now: now}, instrument.NewNoop())
	}

	msg := entity.OutboundMessage{
		Destination: "+256700123456",
		Subject:     "New contract opportunity",
		TextBody:    "plain text",
	}

	t.Run("publishes_to_gateway_subject", func(t *testing.T) {
		// Arrange
		pub := &fakePublisher{messageID: "broker-42"}
		sender := newSender(pub)

		// Act
		receipt, err := sender.Send(context.Background(), msg)

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if pub.destination != "chat.outbound" {
			t.Fatalf("expected gateway subject, got %q", pub.destination)
		}
		if receipt.MessageID != "broker-42" || !receipt.SentAt.Equal(now) {
			t.Fatalf("unexpected receipt: %+v", receipt)
		}
		if len(pub.published) != 1 {
			t.Fatalf("expected one published message, got %d", len(pub.published))
		}
		out := pub.published[0]
		if string(out.Body) != "plain text" || string(out.Key) != "+256700123456" {
			t.Fatalf("unexpected outgoing message: %+v", out)
		}
	})

	t.Run("normalizes_local_numbers", func(t *testing.T) {
		tests := []struct {
			name        string
			destination string
			want        string
		}{
			{name: "local_with_leading_zero", destination: "0700123456", want: "+256700123456"},
			{name: "local_without_leading_zero", destination: "700123456", want: "+256700123456"},
			{name: "international_without_plus", destination: "256700123456", want: "+256700123456"},
			{name: "already_normalized", destination: "+256700123456", want: "+256700123456"},
			{name: "spaces_and_dashes", destination: "0700 123-456", want: "+256700123456"},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				// Arrange
				pub := &fakePublisher{}
				sender := newSender(pub)
				local := msg
				local.Destination = tc.destination

				// Act
				_, err := sender.Send(context.Background(), local)

				// Assert
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if len(pub.published) != 1 {
					t.Fatalf("expected one published message, got %d", len(pub.published))
				}
				if got := string(pub.published[0].Key); got != tc.want {
					t.Fatalf("expected key %q, got %q", tc.want, got)
				}
			})
		}
	})

	t.Run("invalid_destination_is_permanent", func(t *testing.T) {
		// Arrange
		pub := &fakePublisher{}
		sender := newSender(pub)
		bad := msg
		bad.Destination = "chat-user-7"

		// Act
		_, err := sender.Send(context.Background(), bad)

		// Assert
		if !errors.Is(err, ErrInvalidDestination) {
			t.Fatalf("expected invalid destination error, got %v", err)
		}
		if !entity.IsPermanent(err) {
			t.Fatalf("expected permanent error")
		}
		if len(pub.published) != 0 {
			t.Fatalf("expected nothing published")
		}
	})

	t.Run("falls_back_to_generated_message_id", func(t *testing.T) {
		// Arrange
		pub := &fakePublisher{}
		sender := newSender(pub)

		// Act
		receipt, err := sender.Send(context.Background(), msg)

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if receipt.MessageID != "uuid-1" {
			t.Fatalf("expected generated message id, got %q", receipt.MessageID)
		}
	})

	t.Run("empty_destination_is_permanent", func(t *testing.T) {
		// Arrange
		pub := &fakePublisher{}
		sender := newSender(pub)
		bad := msg
		bad.Destination = "   "

		// Act
		_, err := sender.Send(context.Background(), bad)

		// Assert
		if !errors.Is(err, ErrEmptyDestination) {
			t.Fatalf("expected empty destination error, got %v", err)
		}
		if !entity.IsPermanent(err) {
			t.Fatalf("expected permanent error")
		}
		if len(pub.published) != 0 {
			t.Fatalf("expected nothing published")
		}
	})

	t.Run("broker_failure_is_transient", func(t *testing.T) {
		// Arrange
		pub := &fakePublisher{err: errors.New("broker unavailable")}
		sender := newSender(pub)

		// Act
		_, err := sender.Send(context.Background(), msg)

		// Assert
		if err == nil {
			t.Fatalf("expected publish error")
		}
		if entity.IsPermanent(err) {
			t.Fatalf("expected transient error, got permanent")
		}
	})
}
