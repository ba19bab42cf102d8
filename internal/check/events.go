package check

import (
	"context"

	"compliance/internal/broker"
	"compliance/internal/constants"
	"compliance/pkg/logging"
	"compliance/pkg/models"
	"compliance/pkg/tracing"
)

// EventPublisher announces finished check runs.
type EventPublisher struct {
	producer broker.Producer
	topic    string
}

func NewEventPublisher(producer broker.Producer, topic string) *EventPublisher {
	return &EventPublisher{producer: producer, topic: topic}
}

func (p *EventPublisher) PublishCompleted(ctx context.Context, event models.CheckCompletedEvent) error {
	if p == nil || p.producer == nil || p.topic == "" {
		return nil
	}

	payload, err := models.ToPayload(event)
	if err != nil {
		return err
	}

	traceID := tracing.TraceIDFromContext(ctx)
	if traceID == "" {
		traceID = logging.GetTraceID(ctx)
	}

	envelope := models.NewMessageEnvelopeBuilder().
		WithSource(constants.ServiceName).
		WithEventType(models.EventTypeCheckCompleted, models.ServiceTypeChecks).
		WithTraceID(traceID).
		WithPayload(payload).
		Build()

	return p.producer.Publish(ctx, p.topic, *envelope)
}
