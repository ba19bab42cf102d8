package validation

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Result is the outcome of evaluating one field of one rule against a record.
type Result struct {
	Field         string      `json:"field"`
	FieldKey      string      `json:"field_key"`
	RuleID        string      `json:"rule_id"`
	IsValid       bool        `json:"is_valid"`
	ErrorMsg      *string     `json:"error_msg"`
	OriginalValue interface{} `json:"original_value"`
	Severity      Severity    `json:"severity"`
}

// Message returns the finding text, or "" for a passing field.
func (r Result) Message() string {
	if r.ErrorMsg == nil {
		return ""
	}
	return *r.ErrorMsg
}

type Summary struct {
	Total    int `json:"total"`
	Passed   int `json:"passed"`
	Warnings int `json:"warnings"`
	Errors   int `json:"errors"`
}

func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Severity {
		case SeverityError:
			s.Errors++
		case SeverityWarning:
			s.Warnings++
		default:
			s.Passed++
		}
	}
	return s
}
