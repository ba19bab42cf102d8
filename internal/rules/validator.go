package rules

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"compliance/pkg/cel"
	apperrors "compliance/pkg/errors"
)

var (
	evaluatorOnce sync.Once
	evaluator     *cel.Evaluator
	evaluatorErr  error
)

func constraintEvaluator() (*cel.Evaluator, error) {
	evaluatorOnce.Do(func() {
		evaluator, evaluatorErr = cel.NewEvaluator()
	})
	return evaluator, evaluatorErr
}

func invalid(format string, args ...interface{}) error {
	return apperrors.ErrValidation.WithDetail("message", fmt.Sprintf(format, args...))
}

// ValidateDraft checks a rule before it is created or updated. The first
// violation found is returned as an ErrValidation.
func ValidateDraft(rule CheckRule) error {
	if strings.TrimSpace(rule.Name) == "" {
		return invalid("rule name is required")
	}
	if len(rule.Fields) == 0 {
		return invalid("rule %q must contain at least one field", rule.Name)
	}

	ids := make(map[string]bool, len(rule.Fields))
	keys := make(map[string]bool, len(rule.Fields))
	for i, field := range rule.Fields {
		if err := validateField(i, field); err != nil {
			return err
		}
		if field.ID != "" {
			if ids[field.ID] {
				return invalid("fields[%d]: duplicate field id %q", i, field.ID)
			}
			ids[field.ID] = true
		}
		keys[field.Key] = true
	}

	for i, c := range rule.Constraints {
		if err := validateConstraint(i, c, keys); err != nil {
			return err
		}
	}

	return nil
}

func validateField(i int, field CheckField) error {
	if strings.TrimSpace(field.Name) == "" {
		return invalid("fields[%d]: name is required", i)
	}
	if strings.TrimSpace(field.Key) == "" {
		return invalid("fields[%d]: key is required", i)
	}
	if !field.Type.Valid() {
		return invalid("fields[%d]: invalid type %q. Allowed: text, numeric, time, semantic", i, field.Type)
	}
	if field.Type == FieldTypeSemantic && strings.TrimSpace(field.Validation.SemanticRequirement) == "" {
		return invalid("fields[%d]: semantic field %q requires a semantic_requirement", i, field.Name)
	}

	v := field.Validation
	if v.Min != nil && v.Max != nil && *v.Min > *v.Max {
		return invalid("fields[%d]: min %s is greater than max %s", i, FormatNumber(*v.Min), FormatNumber(*v.Max))
	}
	if v.Pattern != "" {
		if _, err := regexp.Compile(v.Pattern); err != nil {
			return invalid("fields[%d]: invalid pattern: %v", i, err)
		}
	}
	return nil
}

func validateConstraint(i int, c CrossFieldConstraint, keys map[string]bool) error {
	if strings.TrimSpace(c.Target) == "" {
		return invalid("constraints[%d]: target is required", i)
	}
	if !keys[c.Target] {
		return invalid("constraints[%d]: target %q is not a field key of this rule", i, c.Target)
	}

	structured := c.Left != "" || c.Right != "" || c.Operator != ""
	switch {
	case c.Expression != "" && structured:
		return invalid("constraints[%d]: set either expression or left/operator/right, not both", i)
	case c.Expression != "":
		eval, err := constraintEvaluator()
		if err != nil {
			return apperrors.ErrInternal.WithCause(err)
		}
		if err := eval.ValidatePredicate(c.Expression); err != nil {
			return invalid("constraints[%d]: %v", i, err)
		}
	case structured:
		if strings.TrimSpace(c.Left) == "" || strings.TrimSpace(c.Right) == "" {
			return invalid("constraints[%d]: left and right operands are required", i)
		}
		if !c.Operator.Valid() {
			return invalid("constraints[%d]: invalid operator %q. Allowed: <, <=, >, >=, ==, !=", i, c.Operator)
		}
	default:
		return invalid("constraints[%d]: a predicate is required", i)
	}
	return nil
}
