package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/bidwatch/internal/alert/usecase"
	"github.com/shandysiswandi/bidwatch/internal/pkg/instrument"
	"github.com/shandysiswandi/bidwatch/internal/pkg/messaging"
	"github.com/shandysiswandi/bidwatch/internal/pkg/uid"
	"github.com/shandysiswandi/bidwatch/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, headers []messaging.Header) context.Context {
	for i := range headers {
		if headers[i].Key == keyOfCorrelationID {
			return instrument.SetCorrelationID(ctx, string(headers[i].Value))
		}
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) ContractPublishedAlert(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("alert.inbound.mq").Start(ctx, "ContractPublishedAlert")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: contract published alert", "msg_body", string(body))

	var payload event.ContractPublishedMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of contract published alert", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.uc.ConsumeContractPublished(ctx, usecase.ConsumeContractPublishedInput{
		ContractID: payload.ContractID,
		Version:    payload.Version,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume contract published", "msg_body", string(body), "error", err)
		return err
	}

	return nil
}
