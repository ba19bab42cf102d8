package rules

import "github.com/google/uuid"

const CopySuffix = " (copy)"

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func (v Validation) clone() Validation {
	v.Min = cloneFloat(v.Min)
	v.Max = cloneFloat(v.Max)
	return v
}

// Clone returns a deep copy of the rule.
func Clone(rule CheckRule) CheckRule {
	out := rule
	if rule.Fields != nil {
		out.Fields = make([]CheckField, len(rule.Fields))
		for i, f := range rule.Fields {
			f.Validation = f.Validation.clone()
			out.Fields[i] = f
		}
	}
	if rule.Constraints != nil {
		out.Constraints = make([]CrossFieldConstraint, len(rule.Constraints))
		copy(out.Constraints, rule.Constraints)
	}
	return out
}

func CloneAll(rules []CheckRule) []CheckRule {
	out := make([]CheckRule, len(rules))
	for i, r := range rules {
		out[i] = Clone(r)
	}
	return out
}

// AssignIDs fills empty rule, field and constraint ids with fresh uuids.
func AssignIDs(rule *CheckRule) {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	for i := range rule.Fields {
		if rule.Fields[i].ID == "" {
			rule.Fields[i].ID = uuid.NewString()
		}
	}
	for i := range rule.Constraints {
		if rule.Constraints[i].ID == "" {
			rule.Constraints[i].ID = uuid.NewString()
		}
	}
}

// Copy builds a duplicate of rule with new ids everywhere and the name
// marked with CopySuffix.
func Copy(rule CheckRule) CheckRule {
	out := Clone(rule)
	out.ID = ""
	out.Name = rule.Name + CopySuffix
	for i := range out.Fields {
		out.Fields[i].ID = ""
	}
	for i := range out.Constraints {
		out.Constraints[i].ID = ""
	}
	AssignIDs(&out)
	return out
}

// DuplicateField inserts a copy of the field with fieldID directly after it.
// Only the id of the copy differs. It reports false when no field has that id.
func DuplicateField(rule CheckRule, fieldID string) (CheckRule, bool) {
	out := Clone(rule)
	for i, f := range out.Fields {
		if f.ID != fieldID {
			continue
		}
		dup := f
		dup.ID = uuid.NewString()
		dup.Validation = f.Validation.clone()

		fields := make([]CheckField, 0, len(out.Fields)+1)
		fields = append(fields, out.Fields[:i+1]...)
		fields = append(fields, dup)
		fields = append(fields, out.Fields[i+1:]...)
		out.Fields = fields
		return out, true
	}
	return out, false
}

// NewBlankDraft returns the starting point for a new rule. It has an id but
// no fields, so it does not pass ValidateDraft until fields are added.
func NewBlankDraft() CheckRule {
	return CheckRule{ID: uuid.NewString(), Fields: []CheckField{}}
}

// NewBlankField returns an empty optional text field with a fresh id.
func NewBlankField() CheckField {
	return CheckField{ID: uuid.NewString(), Type: FieldTypeText}
}
