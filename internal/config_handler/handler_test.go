package config_handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliance/internal/logger"
	"compliance/pkg/models"
)

type fakeReloader struct {
	calls int
	err   error
}

func (f *fakeReloader) Reload(ctx context.Context) (bool, error) {
	f.calls++
	return f.err == nil, f.err
}

func envelope(t *testing.T, eventType, serviceType string, inMetadata bool) models.MessageEnvelope {
	t.Helper()
	payload, err := models.ToPayload(models.ConfigUpdateEvent{
		EventType:   eventType,
		ServiceType: serviceType,
		RuleID:      "rule-1",
		Action:      models.ActionUpdate,
		Timestamp:   time.Now().UTC(),
	})
	require.NoError(t, err)

	b := models.NewMessageEnvelopeBuilder().WithSource("test").WithPayload(payload)
	if inMetadata {
		b = b.WithEventType(eventType, serviceType)
	}
	return *b.Build()
}

func TestHandleConfigUpdateEvent(t *testing.T) {
	tests := []struct {
		name      string
		env       func(t *testing.T) models.MessageEnvelope
		reloadErr error
		wantCalls int
		wantErr   bool
	}{
		{
			name: "rule event in metadata reloads",
			env: func(t *testing.T) models.MessageEnvelope {
				return envelope(t, models.EventTypeCheckRuleUpdated, models.ServiceTypeRules, true)
			},
			wantCalls: 1,
		},
		{
			name: "rule event in payload reloads",
			env: func(t *testing.T) models.MessageEnvelope {
				return envelope(t, models.EventTypeCheckRuleUpdated, models.ServiceTypeRules, false)
			},
			wantCalls: 1,
		},
		{
			name: "other event type is ignored",
			env: func(t *testing.T) models.MessageEnvelope {
				return envelope(t, models.EventTypeCheckCompleted, models.ServiceTypeChecks, true)
			},
		},
		{
			name: "other service type is ignored",
			env: func(t *testing.T) models.MessageEnvelope {
				return envelope(t, models.EventTypeCheckRuleUpdated, "billing", true)
			},
		},
		{
			name: "missing event type is ignored",
			env: func(t *testing.T) models.MessageEnvelope {
				return *models.NewMessageEnvelopeBuilder().WithSource("test").Build()
			},
		},
		{
			name: "malformed envelope is dropped",
			env: func(t *testing.T) models.MessageEnvelope {
				env := envelope(t, models.EventTypeCheckRuleUpdated, models.ServiceTypeRules, true)
				env.Source = ""
				return env
			},
		},
		{
			name: "reload failure is returned",
			env: func(t *testing.T) models.MessageEnvelope {
				return envelope(t, models.EventTypeCheckRuleUpdated, models.ServiceTypeRules, true)
			},
			reloadErr: errors.New("slot unavailable"),
			wantCalls: 1,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeReloader{err: tt.reloadErr}
			h := NewRuleEventHandler(r, logger.NopLogger())

			err := h.HandleConfigUpdateEvent(context.Background(), tt.env(t))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, r.calls)
		})
	}
}
