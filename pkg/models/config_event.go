package models

import "time"

// ConfigUpdateEvent announces a change to the shared rule collection.
type ConfigUpdateEvent struct {
	EventType   string                 `json:"event_type"`
	ServiceType string                 `json:"service_type"`
	RuleID      string                 `json:"rule_id,omitempty"`
	Action      string                 `json:"action"` // create, update, delete, duplicate, override
	Timestamp   time.Time              `json:"timestamp"`
	ChangedBy   string                 `json:"changed_by,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// CheckCompletedEvent is published once per finished check run.
type CheckCompletedEvent struct {
	RunID         string    `json:"run_id"`
	Mode          string    `json:"mode"`
	ArtifactCount int       `json:"artifact_count"`
	Total         int       `json:"total"`
	Passed        int       `json:"passed"`
	Warnings      int       `json:"warnings"`
	Errors        int       `json:"errors"`
	SaveToKB      bool      `json:"save_to_kb"`
	CompletedAt   time.Time `json:"completed_at"`
}

const (
	EventTypeCheckRuleUpdated = "check_rule_updated"
	EventTypeCheckCompleted   = "check_completed"
)

const (
	ActionCreate    = "create"
	ActionUpdate    = "update"
	ActionDelete    = "delete"
	ActionDuplicate = "duplicate"
	ActionOverride  = "override"
	ActionReload    = "reload"
)

const (
	ServiceTypeRules  = "rules"
	ServiceTypeChecks = "checks"
)
