package config_handler

import (
	"context"

	"compliance/internal/logger"
	"compliance/pkg/metrics"
	"compliance/pkg/models"
)

// RuleReloader re-reads the rule collection from its durable slot and
// reports whether anything changed.
type RuleReloader interface {
	Reload(ctx context.Context) (bool, error)
}

type Handler struct {
	expectedEventType   string
	expectedServiceType string
	reloader            RuleReloader
	logger              logger.Logger
}

func NewHandler(expectedEventType, expectedServiceType string, reloader RuleReloader, log logger.Logger) *Handler {
	return &Handler{
		expectedEventType:   expectedEventType,
		expectedServiceType: expectedServiceType,
		reloader:            reloader,
		logger:              log,
	}
}

// NewRuleEventHandler handles check_rule_updated events for the rules
// service type.
func NewRuleEventHandler(reloader RuleReloader, log logger.Logger) *Handler {
	return NewHandler(models.EventTypeCheckRuleUpdated, models.ServiceTypeRules, reloader, log)
}

func (h *Handler) HandleConfigUpdateEvent(ctx context.Context, envelope models.MessageEnvelope) error {
	if err := envelope.Validate(); err != nil {
		h.logger.WarnwCtx(ctx, "Dropping malformed config event", "id", envelope.ID, "error", err)
		return nil
	}

	eventType := envelope.Metadata.EventType
	if eventType == "" {
		if v, ok := envelope.Payload["event_type"].(string); ok {
			eventType = v
		} else {
			h.logger.WarnwCtx(ctx, "Config event missing event_type", "id", envelope.ID)
			return nil
		}
	}

	if eventType != h.expectedEventType {
		return nil
	}

	serviceType := envelope.Metadata.ServiceType
	if serviceType == "" {
		if v, ok := envelope.Payload["service_type"].(string); ok {
			serviceType = v
		} else {
			h.logger.WarnwCtx(ctx, "Config event missing service_type", "id", envelope.ID)
			return nil
		}
	}

	if serviceType != h.expectedServiceType {
		return nil
	}

	var event models.ConfigUpdateEvent
	if err := models.FromPayload(envelope.Payload, &event); err != nil {
		h.logger.ErrorwCtx(ctx, "Failed to decode config event", "error", err, "id", envelope.ID)
		return err
	}

	h.logger.InfowCtx(ctx, "Received config update event",
		"event_type", event.EventType,
		"action", event.Action,
		"rule_id", event.RuleID,
		"changed_by", event.ChangedBy,
	)

	if h.reloader == nil {
		return nil
	}

	changed, err := h.reloader.Reload(ctx)
	metrics.IncRuleReload("broker", err)
	if err != nil {
		h.logger.ErrorwCtx(ctx, "Failed to reload rules after config update", "error", err)
		return err
	}
	h.logger.InfowCtx(ctx, "Rules reloaded after config update",
		"action", event.Action,
		"changed", changed,
	)
	return nil
}
