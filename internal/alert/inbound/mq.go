package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/bidwatch/internal/pkg/config"
	"github.com/shandysiswandi/bidwatch/internal/pkg/goroutine"
	"github.com/shandysiswandi/bidwatch/internal/pkg/instrument"
	"github.com/shandysiswandi/bidwatch/internal/pkg/messaging"
	"github.com/shandysiswandi/bidwatch/internal/pkg/uid"
	"github.com/shandysiswandi/bidwatch/internal/shared/event"
)

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Messaging,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.alert.consumer_names")

	var consumers = []struct {
		name              string
		topic             string // destination where publisher sent message
		natsConsumerName  string // for nats
		kafkaConsumerName string // for kafka
		handler           messaging.Handler
	}{
		{
			name:              event.ContractPublishedConsumerAlert,
			topic:             event.ContractPublishedDestination,
			natsConsumerName:  event.ContractPublishedConsumerAlert,
			kafkaConsumerName: event.ContractPublishedConsumerAlert,
			handler:           mqHandler.ContractPublishedAlert,
		},
	}

	for _, consumer := range consumers {
		if len(enableConsumerNames) > 0 && slices.Contains(enableConsumerNames, consumer.name) {
			routine.Go(ctx, func(pCtx context.Context) error {
				slog.InfoContext(ctx, "Running job for handling consumer", "consumer", consumer.name)
				return messenger.Consume(pCtx,
					consumer.topic,
					consumer.handler,
					messaging.WithQueueGroup(consumer.natsConsumerName),
					messaging.WithGroup(consumer.kafkaConsumerName),
					messaging.WithAutoAck(true),
					messaging.WithConcurrency(10),
					messaging.WithMaxInFlight(10),
				)
			})
		}
	}
}
