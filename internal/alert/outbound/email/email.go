package email

import (
	"context"
	netmail "net/mail"

	"github.com/shandysiswandi/bidwatch/internal/alert/entity"
	"github.com/shandysiswandi/bidwatch/internal/pkg/clock"
	"github.com/shandysiswandi/bidwatch/internal/pkg/instrument"
	"github.com/shandysiswandi/bidwatch/internal/pkg/mail"
	"github.com/shandysiswandi/bidwatch/internal/pkg/uid"
	"go.opentelemetry.io/otel/codes"
)

// Sender delivers notifications over SMTP email. It does not retry; the queue
// owns the retry policy.
type Sender struct {
	client mail.Mail
	uuid   uid.StringID
	clock  clock.Clocker
	ins    instrument.Instrumentation
}

func New(client mail.Mail, uuid uid.StringID, clk clock.Clocker, ins instrument.Instrumentation) *Sender {
	return &Sender{client: client, uuid: uuid, clock: clk, ins: ins}
}

func (m *Sender) Channel() entity.Channel {
	return entity.ChannelEmail
}

func (m *Sender) Send(ctx context.Context, msg entity.OutboundMessage) (entity.SendReceipt, error) {
	ctx, span := m.ins.Tracer("alert.outbound.email").Start(ctx, "Send")
	defer span.End()

	if _, err := netmail.ParseAddress(msg.Destination); err != nil {
		return entity.SendReceipt{}, entity.Permanent(err)
	}

	err := m.client.Send(ctx, mail.Message{
		To:       []string{msg.Destination},
		Subject:  msg.Subject,
		TextBody: msg.TextBody,
		HTMLBody: msg.HTMLBody,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return entity.SendReceipt{}, err
	}

	return entity.SendReceipt{
		MessageID: m.uuid.Generate(),
		SentAt:    m.clock.Now(),
	}, nil
}
