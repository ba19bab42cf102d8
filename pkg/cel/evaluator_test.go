package cel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvaluator(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)
	assert.NotNil(t, eval)
}

func TestValidatePredicate(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	tests := []struct {
		name      string
		expr      string
		wantError bool
	}{
		{
			name:      "numeric comparison",
			expr:      `record.attendees_actual < record.attendees_expected`,
			wantError: false,
		},
		{
			name:      "has macro",
			expr:      `has(record.absent_reason)`,
			wantError: false,
		},
		{
			name:      "non-bool expression",
			expr:      `record.attendees_actual`,
			wantError: true,
		},
		{
			name:      "invalid syntax",
			expr:      `record.attendees_actual <<< 3`,
			wantError: true,
		},
		{
			name:      "undefined variable",
			expr:      `payload.status == "active"`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := eval.ValidatePredicate(tt.expr)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// constraintExpressions are predicates a CrossFieldConstraint.Expression
// may hold.
var constraintExpressions = map[string]string{
	"attendance_shortfall": `record.attendees_actual < record.attendees_expected`,
	"numeric_string":       `double(record.attendees_actual) < double(record.attendees_expected)`,
	"has_field":            `has(record.absent_reason) && record.absent_reason != ""`,
	"overtime":             `has(record.meeting_duration) && record.meeting_duration > 180`,
	"combined":             `record.attendees_actual < record.attendees_expected && record.place != "online"`,
}

func TestConstraintExpressionsCompile(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	for name, expr := range constraintExpressions {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, eval.ValidatePredicate(expr))
		})
	}
}

func TestEvaluatePredicate(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	ctx := context.Background()

	tests := []struct {
		name    string
		expr    string
		record  map[string]interface{}
		want    bool
		wantErr bool
	}{
		{
			name:   "int shortfall",
			expr:   `record.attendees_actual < record.attendees_expected`,
			record: map[string]interface{}{"attendees_actual": 8, "attendees_expected": 10},
			want:   true,
		},
		{
			name:   "mixed int and float",
			expr:   `record.attendees_actual < record.attendees_expected`,
			record: map[string]interface{}{"attendees_actual": 8.0, "attendees_expected": 10},
			want:   true,
		},
		{
			name:   "no shortfall",
			expr:   `record.attendees_actual < record.attendees_expected`,
			record: map[string]interface{}{"attendees_actual": 10, "attendees_expected": 10},
			want:   false,
		},
		{
			name:   "has on nil value",
			expr:   `has(record.absent_reason)`,
			record: map[string]interface{}{"absent_reason": nil},
			want:   false,
		},
		{
			name:    "missing key",
			expr:    `record.attendees_actual < record.attendees_expected`,
			record:  map[string]interface{}{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eval.EvaluatePredicate(ctx, tt.expr, tt.record)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluatePredicate_CachesProgram(t *testing.T) {
	eval, err := NewEvaluator()
	require.NoError(t, err)

	expr := `record.meeting_duration > 180`
	_, err = eval.EvaluatePredicate(context.Background(), expr, map[string]interface{}{"meeting_duration": 200})
	require.NoError(t, err)

	_, ok := eval.programs.Load(expr)
	assert.True(t, ok)
}
