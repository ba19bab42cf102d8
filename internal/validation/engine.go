package validation

import (
	"context"
	"fmt"

	"compliance/internal/logger"
	"compliance/internal/rules"
	"compliance/pkg/cel"
)

type Engine struct {
	evaluator *cel.Evaluator
	logger    logger.Logger
}

type EngineOption func(*Engine)

func WithLogger(log logger.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = log
	}
}

// WithEvaluator supplies the CEL evaluator used for expression constraints.
// Without one, expression constraints never hold.
func WithEvaluator(eval *cel.Evaluator) EngineOption {
	return func(e *Engine) {
		e.evaluator = eval
	}
}

func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{logger: logger.NopLogger()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Validate evaluates every field of every rule against record and returns one
// result per field in rule-then-field order. It never fails.
func (e *Engine) Validate(ctx context.Context, checkRules []rules.CheckRule, record rules.Record) []Result {
	total := 0
	for _, r := range checkRules {
		total += len(r.Fields)
	}
	results := make([]Result, 0, total)

	for _, rule := range checkRules {
		forced := e.forcedTargets(ctx, rule, record)
		for _, field := range rule.Fields {
			value := record[field.Key]
			res := evaluateField(rule.ID, field, value)

			if msg, ok := forced[field.Key]; ok && res.IsValid && rules.IsEmpty(value) {
				res = fail(res, SeverityError, msg)
			}
			results = append(results, res)
		}
	}

	return results
}

// forcedTargets returns, per target key, the message of the first constraint
// of rule whose predicate holds.
func (e *Engine) forcedTargets(ctx context.Context, rule rules.CheckRule, record rules.Record) map[string]string {
	if len(rule.Constraints) == 0 {
		return nil
	}

	forced := make(map[string]string)
	for _, c := range rule.Constraints {
		if _, done := forced[c.Target]; done {
			continue
		}
		if !e.holds(ctx, rule.ID, c, record) {
			continue
		}
		forced[c.Target] = constraintMessage(rule, c)
	}
	return forced
}

func (e *Engine) holds(ctx context.Context, ruleID string, c rules.CrossFieldConstraint, record rules.Record) bool {
	if c.Expression == "" {
		return Compare(record[c.Left], c.Operator, record[c.Right])
	}

	if e.evaluator == nil {
		e.logger.WarnwCtx(ctx, "No evaluator configured for expression constraint",
			"rule_id", ruleID,
			"constraint_id", c.ID,
		)
		return false
	}

	ok, err := e.evaluator.EvaluatePredicate(ctx, c.Expression, record)
	if err != nil {
		e.logger.WarnwCtx(ctx, "Constraint expression failed, treating as not holding",
			"rule_id", ruleID,
			"constraint_id", c.ID,
			"error", err,
		)
		return false
	}
	return ok
}

func constraintMessage(rule rules.CheckRule, c rules.CrossFieldConstraint) string {
	if c.Message != "" {
		return c.Message
	}
	name := c.Target
	if f, ok := rule.FieldByKey(c.Target); ok {
		name = f.Name
	}
	if c.Expression != "" {
		return fmt.Sprintf("%s is required when %s.", name, c.Expression)
	}
	return fmt.Sprintf("%s is required when %s %s %s.", name, c.Left, c.Operator, c.Right)
}

// Compare applies op to two record values as numbers. Values that are empty
// or cannot be parsed make the comparison false.
func Compare(left interface{}, op rules.Operator, right interface{}) bool {
	l, ok := rules.ParseNumber(left)
	if !ok {
		return false
	}
	r, ok := rules.ParseNumber(right)
	if !ok {
		return false
	}

	switch op {
	case rules.OpLess:
		return l < r
	case rules.OpLessEqual:
		return l <= r
	case rules.OpGreater:
		return l > r
	case rules.OpGreaterEqual:
		return l >= r
	case rules.OpEqual:
		return l == r
	case rules.OpNotEqual:
		return l != r
	default:
		return false
	}
}

func evaluateField(ruleID string, field rules.CheckField, value interface{}) Result {
	res := Result{
		Field:         field.Name,
		FieldKey:      field.Key,
		RuleID:        ruleID,
		IsValid:       true,
		OriginalValue: value,
		Severity:      SeveritySuccess,
	}

	if field.Required && rules.IsEmpty(value) {
		return fail(res, SeverityError, fmt.Sprintf("%s is required, currently empty.", field.Name))
	}

	switch field.Type {
	case rules.FieldTypeNumeric:
		return evaluateNumeric(res, field, value)
	default:
		// text, time and semantic fields have no local checks beyond required.
		return res
	}
}

func evaluateNumeric(res Result, field rules.CheckField, value interface{}) Result {
	if rules.IsEmpty(value) {
		return res
	}

	n, ok := rules.ParseNumber(value)
	if !ok {
		return fail(res, SeverityError, fmt.Sprintf("%s must be a number, got %s.", field.Name, rules.FormatValue(value)))
	}

	v := field.Validation
	if v.Min != nil && n < *v.Min {
		return fail(res, SeverityError, fmt.Sprintf("%s must not be less than %s.", field.Name, rules.FormatNumber(*v.Min)))
	}
	if v.Max != nil && n > *v.Max {
		return fail(res, SeverityWarning, fmt.Sprintf("%s exceeds the upper bound %s; please confirm.", field.Name, rules.FormatNumber(*v.Max)))
	}
	return res
}

func fail(res Result, severity Severity, msg string) Result {
	res.IsValid = false
	res.Severity = severity
	res.ErrorMsg = &msg
	return res
}

var defaultEngine = NewEngine()

// Validate runs the structured-predicate engine without a CEL evaluator.
func Validate(checkRules []rules.CheckRule, record rules.Record) []Result {
	return defaultEngine.Validate(context.Background(), checkRules, record)
}
