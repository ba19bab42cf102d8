package rules

type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeNumeric  FieldType = "numeric"
	FieldTypeTime     FieldType = "time"
	FieldTypeSemantic FieldType = "semantic"
)

func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeText, FieldTypeNumeric, FieldTypeTime, FieldTypeSemantic:
		return true
	}
	return false
}

// Validation holds the optional per-field constraints. Min and Max are
// pointers so that a configured bound of 0 is distinguishable from unset.
type Validation struct {
	Min                 *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max                 *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Pattern             string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	SemanticRequirement string   `json:"semantic_requirement,omitempty" yaml:"semantic_requirement,omitempty"`
}

type CheckField struct {
	ID         string     `json:"id" yaml:"id"`
	Name       string     `json:"name" yaml:"name"`
	Key        string     `json:"key" yaml:"key"`
	Type       FieldType  `json:"type" yaml:"type"`
	Required   bool       `json:"required" yaml:"required"`
	Validation Validation `json:"validation" yaml:"validation"`
}

type Operator string

const (
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
	OpEqual        Operator = "=="
	OpNotEqual     Operator = "!="
)

func (o Operator) Valid() bool {
	switch o {
	case OpLess, OpLessEqual, OpGreater, OpGreaterEqual, OpEqual, OpNotEqual:
		return true
	}
	return false
}

// CrossFieldConstraint makes Target mandatory whenever its predicate holds.
// The predicate is either the structured comparison Left Operator Right over
// record values, or a CEL boolean Expression over the variable "record".
type CrossFieldConstraint struct {
	ID         string   `json:"id" yaml:"id"`
	Left       string   `json:"left,omitempty" yaml:"left,omitempty"`
	Operator   Operator `json:"operator,omitempty" yaml:"operator,omitempty"`
	Right      string   `json:"right,omitempty" yaml:"right,omitempty"`
	Expression string   `json:"expression,omitempty" yaml:"expression,omitempty"`
	Target     string   `json:"target" yaml:"target"`
	Message    string   `json:"message,omitempty" yaml:"message,omitempty"`
}

type CheckRule struct {
	ID          string                 `json:"id" yaml:"id"`
	Name        string                 `json:"name" yaml:"name"`
	Description string                 `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []CheckField           `json:"fields" yaml:"fields"`
	Constraints []CrossFieldConstraint `json:"constraints,omitempty" yaml:"constraints,omitempty"`
}

// FieldByKey returns the first field with the given record key.
func (r CheckRule) FieldByKey(key string) (CheckField, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return CheckField{}, false
}

// Record is the key/value view of one ingested document.
type Record map[string]interface{}

// Keys returns the record keys in no particular order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	return keys
}
