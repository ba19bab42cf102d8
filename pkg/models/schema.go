package models

import (
	"strings"

	apperrors "compliance/pkg/errors"
)

// Validate checks the envelope fields every consumer relies on. The error
// lists all missing fields at once.
func (m *MessageEnvelope) Validate() error {
	if m == nil {
		return apperrors.ErrValidation.WithDetail("message", "message envelope is nil")
	}

	var missing []string
	if m.ID == "" {
		missing = append(missing, "id")
	}
	if m.Source == "" {
		missing = append(missing, "source")
	}
	if m.Timestamp.IsZero() {
		missing = append(missing, "timestamp")
	}
	if m.Payload == nil {
		missing = append(missing, "payload")
	}
	if len(missing) == 0 {
		return nil
	}

	return apperrors.ErrValidation.
		WithDetail("message", "message envelope is missing "+strings.Join(missing, ", ")).
		WithDetail("fields", missing)
}
