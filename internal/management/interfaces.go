package management

import (
	"context"

	"compliance/internal/rules"
)

type Service interface {
	ListRules(ctx context.Context) ([]rules.CheckRule, error)
	GetRule(ctx context.Context, id string) (*rules.CheckRule, error)
	CreateRule(ctx context.Context, req CreateRuleRequest) (*rules.CheckRule, error)
	UpdateRule(ctx context.Context, id string, req UpdateRuleRequest) (*rules.CheckRule, error)
	DeleteRule(ctx context.Context, id string) error
	DuplicateRule(ctx context.Context, id string) (*rules.CheckRule, error)

	GetProtection(ctx context.Context) (*ProtectionStatus, error)
	SetProtectionOverride(ctx context.Context, enabled bool) (*ProtectionStatus, error)

	NewDraft(ctx context.Context) rules.CheckRule
	DuplicateDraftField(ctx context.Context, req DuplicateFieldRequest) (*rules.CheckRule, error)

	GetRuleVersions(ctx context.Context, ruleID string) ([]RuleVersion, error)
	GetAuditLogs(ctx context.Context, ruleID *string, limit int) ([]AuditLog, error)
}

// RuleStore is the rule collection the service edits.
type RuleStore interface {
	List(ctx context.Context) []rules.CheckRule
	Get(ctx context.Context, id string) (rules.CheckRule, error)
	Create(ctx context.Context, draft rules.CheckRule) (rules.CheckRule, error)
	UpdateFunc(ctx context.Context, id string, mutate func(current rules.CheckRule) rules.CheckRule) (rules.CheckRule, rules.CheckRule, error)
	Remove(ctx context.Context, id string) (rules.CheckRule, error)
	Duplicate(ctx context.Context, id string) (rules.CheckRule, error)
	SetOverride(enabled bool)
	Override() bool
	ProtectedIDs() []string
}

// HistoryRepository keeps rule versions and the audit trail.
type HistoryRepository interface {
	CreateVersion(ctx context.Context, version *RuleVersion) error
	GetVersions(ctx context.Context, ruleID string) ([]RuleVersion, error)
	GetNextVersion(ctx context.Context, ruleID string) (int, error)
	CreateAuditLog(ctx context.Context, log *AuditLog) error
	GetAuditLogs(ctx context.Context, ruleID *string, limit int) ([]AuditLog, error)
}
