package management

import (
	"time"

	"compliance/internal/rules"
)

type CreateRuleRequest struct {
	Name        string                       `json:"name"`
	Description string                       `json:"description"`
	Fields      []rules.CheckField           `json:"fields"`
	Constraints []rules.CrossFieldConstraint `json:"constraints"`
}

// UpdateRuleRequest replaces only the members that are present. The merged
// rule goes through the same draft validation as a create.
type UpdateRuleRequest struct {
	Name        *string                       `json:"name"`
	Description *string                       `json:"description"`
	Fields      *[]rules.CheckField           `json:"fields"`
	Constraints *[]rules.CrossFieldConstraint `json:"constraints"`
}

type ProtectionStatus struct {
	ProtectedIDs []string `json:"protected_ids"`
	Override     bool     `json:"override"`
}

type SetProtectionRequest struct {
	Override *bool `json:"override" binding:"required"`
}

type DuplicateFieldRequest struct {
	Rule    rules.CheckRule `json:"rule"`
	FieldID string          `json:"field_id" binding:"required"`
}

type RuleVersion struct {
	ID        string          `json:"id"`
	RuleID    string          `json:"rule_id"`
	Rule      rules.CheckRule `json:"rule"`
	Version   int             `json:"version"`
	Action    string          `json:"action"`
	ChangedBy string          `json:"changed_by,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type AuditLog struct {
	ID        string           `json:"id"`
	RuleID    *string          `json:"rule_id,omitempty"`
	Action    string           `json:"action"`
	OldValue  *rules.CheckRule `json:"old_value,omitempty"`
	NewValue  *rules.CheckRule `json:"new_value,omitempty"`
	Diff      string           `json:"diff,omitempty"`
	ChangedBy string           `json:"changed_by"`
	IPAddress string           `json:"ip_address,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}
