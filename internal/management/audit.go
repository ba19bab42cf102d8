package management

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"compliance/internal/rules"
)

const defaultActor = "system"

type actorKey struct{}

type actor struct {
	changedBy string
	ipAddress string
}

// WithActor records who is making the change for the audit trail.
func WithActor(ctx context.Context, changedBy, ipAddress string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor{changedBy: changedBy, ipAddress: ipAddress})
}

func actorFrom(ctx context.Context) actor {
	a, _ := ctx.Value(actorKey{}).(actor)
	if a.changedBy == "" {
		a.changedBy = defaultActor
	}
	return a
}

// RuleDiff renders the line changes between the indented JSON encodings of
// two rule revisions. Removed lines start with "-", added lines with "+".
// Either side may be nil.
func RuleDiff(oldRule, newRule *rules.CheckRule) string {
	before := indentedJSON(oldRule)
	after := indentedJSON(newRule)
	if before == after {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		default:
			continue
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				sb.WriteString("\n")
			}
		}
	}
	return sb.String()
}

func indentedJSON(rule *rules.CheckRule) string {
	if rule == nil {
		return ""
	}
	data, err := json.MarshalIndent(rule, "", "  ")
	if err != nil {
		return ""
	}
	return string(data) + "\n"
}

func buildAuditLog(ctx context.Context, ruleID, action string, oldValue, newValue *rules.CheckRule) *AuditLog {
	a := actorFrom(ctx)
	var id *string
	if ruleID != "" {
		id = &ruleID
	}
	return &AuditLog{
		RuleID:    id,
		Action:    action,
		OldValue:  oldValue,
		NewValue:  newValue,
		Diff:      RuleDiff(oldValue, newValue),
		ChangedBy: a.changedBy,
		IPAddress: a.ipAddress,
	}
}
