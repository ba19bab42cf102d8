package rules

const (
	DefaultBasicInfoRuleID  = "default-rule-basic-info"
	DefaultDurationRuleID   = "default-rule-duration"
	DefaultAttendanceRuleID = "default-rule-attendance"
)

// ProtectedRuleIDs are the ids of the shipped default rules.
var ProtectedRuleIDs = []string{
	DefaultBasicInfoRuleID,
	DefaultDurationRuleID,
	DefaultAttendanceRuleID,
}

const AbsenceReasonMessage = "Actual attendance is below expected attendance, but no absence reason was given."

func float(v float64) *float64 {
	return &v
}

// DefaultRules returns a fresh copy of the seed rule set.
func DefaultRules() []CheckRule {
	return []CheckRule{
		{
			ID:          DefaultBasicInfoRuleID,
			Name:        "Meeting basics",
			Description: "Host, recorder and place must be filled in.",
			Fields: []CheckField{
				{ID: "field-host", Name: "Host", Key: "host", Type: FieldTypeText, Required: true},
				{ID: "field-recorder", Name: "Recorder", Key: "recorder", Type: FieldTypeText, Required: true},
				{ID: "field-place", Name: "Place", Key: "place", Type: FieldTypeText, Required: true},
			},
		},
		{
			ID:          DefaultDurationRuleID,
			Name:        "Meeting duration",
			Description: "Meetings longer than four hours need confirmation.",
			Fields: []CheckField{
				{
					ID:         "field-meeting-duration",
					Name:       "Meeting duration (minutes)",
					Key:        "meeting_duration",
					Type:       FieldTypeNumeric,
					Validation: Validation{Max: float(240)},
				},
			},
		},
		{
			ID:          DefaultAttendanceRuleID,
			Name:        "Attendance",
			Description: "At least three attendees; absences need a reason.",
			Fields: []CheckField{
				{
					ID:         "field-attendees-actual",
					Name:       "Actual attendees",
					Key:        "attendees_actual",
					Type:       FieldTypeNumeric,
					Required:   true,
					Validation: Validation{Min: float(3)},
				},
				{ID: "field-attendees-expected", Name: "Expected attendees", Key: "attendees_expected", Type: FieldTypeNumeric, Required: true},
				{ID: "field-absent-reason", Name: "Absence reason", Key: "absent_reason", Type: FieldTypeText},
			},
			Constraints: []CrossFieldConstraint{
				{
					ID:       "constraint-absence-reason",
					Left:     "attendees_actual",
					Operator: OpLess,
					Right:    "attendees_expected",
					Target:   "absent_reason",
					Message:  AbsenceReasonMessage,
				},
			},
		},
	}
}
