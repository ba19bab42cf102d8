package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "compliance/pkg/errors"
)

func TestBuilder_FillsIDAndTimestamp(t *testing.T) {
	env := NewMessageEnvelopeBuilder().
		WithSource("compliance-service").
		WithEventType(EventTypeCheckRuleUpdated, ServiceTypeRules).
		Build()

	assert.NotEmpty(t, env.ID)
	assert.False(t, env.Timestamp.IsZero())
	assert.Equal(t, EventTypeCheckRuleUpdated, env.Metadata.EventType)
	assert.NoError(t, env.Validate())
}

func TestPayloadConversion(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	event := ConfigUpdateEvent{
		EventType:   EventTypeCheckRuleUpdated,
		ServiceType: ServiceTypeRules,
		RuleID:      "rule-1",
		Action:      ActionUpdate,
		Timestamp:   ts,
		ChangedBy:   "alice",
	}

	payload, err := ToPayload(event)
	require.NoError(t, err)
	assert.Equal(t, "rule-1", payload["rule_id"])
	assert.Equal(t, "check_rule_updated", payload["event_type"])

	var decoded ConfigUpdateEvent
	require.NoError(t, FromPayload(payload, &decoded))
	assert.Equal(t, event, decoded)
}

func TestMessageEnvelope_Validate(t *testing.T) {
	var nilEnv *MessageEnvelope
	assert.True(t, apperrors.IsValidation(nilEnv.Validate()))

	err := (&MessageEnvelope{Source: "s", Timestamp: time.Now(), Payload: map[string]interface{}{}}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing id")

	err = (&MessageEnvelope{}).Validate()
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, []string{"id", "source", "timestamp", "payload"}, appErr.Details["fields"])
}
