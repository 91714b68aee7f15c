package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/shandysiswandi/bidwatch/internal/alert/entity"
	"github.com/shandysiswandi/bidwatch/internal/pkg/clock"
	"github.com/shandysiswandi/bidwatch/internal/pkg/instrument"
	"github.com/shandysiswandi/bidwatch/internal/pkg/messaging"
	"github.com/shandysiswandi/bidwatch/internal/pkg/uid"
	"go.opentelemetry.io/otel/codes"
)

// ErrEmptyDestination indicates the user has no chat handle configured.
var ErrEmptyDestination = errors.New("chat: destination is empty")

// ErrInvalidDestination indicates the chat handle is not a Ugandan phone
// number in a recognized form.
var ErrInvalidDestination = errors.New("chat: destination is not a valid phone number")

// Sender delivers notifications to the chat gateway through the message
// broker. The gateway consumes the subject and pushes to the user's chat
// provider. No retry here; the queue owns the retry policy.
type Sender struct {
	publisher messaging.Publisher
	subject   string
	uuid      uid.StringID
	clock     clock.Clocker
	ins       instrument.Instrumentation
}

func New(publisher messaging.Publisher, subject string, uuid uid.StringID, clk clock.Clocker, ins instrument.Instrumentation) *Sender {
	return &Sender{publisher: publisher, subject: subject, uuid: uuid, clock: clk, ins: ins}
}

func (c *Sender) Channel() entity.Channel {
	return entity.ChannelChat
}

func (c *Sender) Send(ctx context.Context, msg entity.OutboundMessage) (entity.SendReceipt, error) {
	ctx, span := c.ins.Tracer("alert.outbound.chat").Start(ctx, "Send")
	defer span.End()

	raw := strings.TrimSpace(msg.Destination)
	if raw == "" {
		return entity.SendReceipt{}, entity.Permanent(ErrEmptyDestination)
	}

	destination, err := normalizeDestination(raw)
	if err != nil {
		return entity.SendReceipt{}, entity.Permanent(err)
	}

	result, err := c.publisher.Publish(ctx, c.subject, messaging.OutgoingMessage{
		Body: []byte(msg.TextBody),
		Key:  []byte(destination),
		Headers: []messaging.Header{
			{Key: "destination", Value: []byte(destination)},
			{Key: "subject", Value: []byte(msg.Subject)},
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return entity.SendReceipt{}, err
	}

	messageID := result.MessageID
	if messageID == "" {
		messageID = c.uuid.Generate()
	}

	return entity.SendReceipt{
		MessageID: messageID,
		SentAt:    c.clock.Now(),
	}, nil
}

// normalizeDestination accepts Ugandan MSISDNs in local form (0XXXXXXXXX or
// 7XXXXXXXX) or international form and returns them as +256XXXXXXXXX.
func normalizeDestination(raw string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')':
			return -1
		}
		return r
	}, raw)

	digits := strings.TrimPrefix(cleaned, "+")
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", ErrInvalidDestination
		}
	}

	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, "256"):
		return "+" + digits, nil
	case len(digits) == 10 && digits[0] == '0':
		return "+256" + digits[1:], nil
	case len(digits) == 9 && digits[0] == '7':
		return "+256" + digits, nil
	}

	return "", ErrInvalidDestination
}
