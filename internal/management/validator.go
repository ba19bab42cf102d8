package management

import (
	"strings"

	"compliance/internal/rules"
	apperrors "compliance/pkg/errors"
)

// DraftFromCreate turns a create request into a rule draft. Names and keys
// are trimmed; everything else is taken as sent.
func DraftFromCreate(req CreateRuleRequest) rules.CheckRule {
	return normalizeDraft(rules.CheckRule{
		Name:        req.Name,
		Description: req.Description,
		Fields:      req.Fields,
		Constraints: req.Constraints,
	})
}

// ValidateUpdateRuleRequest rejects an update that changes nothing.
func ValidateUpdateRuleRequest(req UpdateRuleRequest) error {
	if req.Name == nil && req.Description == nil && req.Fields == nil && req.Constraints == nil {
		return apperrors.ErrValidation.WithDetail("message", "update must change at least one of name, description, fields or constraints")
	}
	return nil
}

// MergeUpdate applies the present members of req to existing.
func MergeUpdate(existing rules.CheckRule, req UpdateRuleRequest) rules.CheckRule {
	merged := rules.Clone(existing)
	if req.Name != nil {
		merged.Name = *req.Name
	}
	if req.Description != nil {
		merged.Description = *req.Description
	}
	if req.Fields != nil {
		merged.Fields = *req.Fields
	}
	if req.Constraints != nil {
		merged.Constraints = *req.Constraints
	}
	return normalizeDraft(merged)
}

func normalizeDraft(rule rules.CheckRule) rules.CheckRule {
	rule = rules.Clone(rule)
	rule.Name = strings.TrimSpace(rule.Name)
	rule.Description = strings.TrimSpace(rule.Description)
	for i := range rule.Fields {
		rule.Fields[i].Name = strings.TrimSpace(rule.Fields[i].Name)
		rule.Fields[i].Key = strings.TrimSpace(rule.Fields[i].Key)
	}
	return rule
}
