package management

import (
	"context"
	"time"

	"compliance/internal/broker"
	"compliance/internal/constants"
	"compliance/pkg/logging"
	"compliance/pkg/models"
	"compliance/pkg/tracing"
)

// ConfigEventProducer announces rule changes so other instances can reload.
type ConfigEventProducer struct {
	producer broker.Producer
	topic    string
}

func NewConfigEventProducer(producer broker.Producer, topic string) *ConfigEventProducer {
	return &ConfigEventProducer{
		producer: producer,
		topic:    topic,
	}
}

func (p *ConfigEventProducer) PublishRuleEvent(ctx context.Context, action, ruleID, changedBy string, metadata map[string]interface{}) error {
	event := models.ConfigUpdateEvent{
		EventType:   models.EventTypeCheckRuleUpdated,
		ServiceType: models.ServiceTypeRules,
		RuleID:      ruleID,
		Action:      action,
		Timestamp:   time.Now().UTC(),
		ChangedBy:   changedBy,
		Metadata:    metadata,
	}
	return p.publishEvent(ctx, event)
}

func (p *ConfigEventProducer) publishEvent(ctx context.Context, event models.ConfigUpdateEvent) error {
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
		WithEventType(event.EventType, event.ServiceType).
		WithTraceID(traceID).
		WithPayload(payload).
		Build()

	return p.producer.Publish(ctx, p.topic, *envelope)
}
