package check

import (
	"time"

	"compliance/internal/ingest"
	"compliance/internal/report"
	"compliance/internal/rules"
	"compliance/internal/validation"
	apperrors "compliance/pkg/errors"
)

type State string

const (
	StateIdle       State = "idle"
	StateParsing    State = "parsing"
	StateValidating State = "validating"
	StateCompleted  State = "completed"
	StateError      State = "error"
)

// Busy reports whether a run is in flight.
func (s State) Busy() bool {
	return s == StateParsing || s == StateValidating
}

// Request starts a check run. Mode wins over DeepAnalysis when both are
// given; an empty Mode means local rules, with review if DeepAnalysis is set.
type Request struct {
	Artifacts    []ingest.Artifact `json:"artifacts"`
	DeepAnalysis bool              `json:"deep_analysis"`
	Mode         report.Mode       `json:"mode,omitempty"`
	SaveToKB     bool              `json:"save_to_kb"`
}

func (r Request) resolveMode() (report.Mode, error) {
	switch {
	case r.Mode == "" && r.DeepAnalysis:
		return report.ModeLocalRulesWithReview, nil
	case r.Mode == "":
		return report.ModeLocalRules, nil
	case !r.Mode.Valid():
		return "", apperrors.ErrValidation.
			WithDetail("message", "unknown check mode "+string(r.Mode)).
			WithDetail("mode", string(r.Mode))
	}
	return r.Mode, nil
}

// Snapshot is a copy of the lifecycle taken under its lock.
type Snapshot struct {
	State          State               `json:"state"`
	RunID          string              `json:"run_id,omitempty"`
	StartedAt      *time.Time          `json:"started_at,omitempty"`
	Mode           report.Mode         `json:"mode,omitempty"`
	ArtifactCount  int                 `json:"artifact_count"`
	SaveToKB       bool                `json:"save_to_kb"`
	Record         rules.Record        `json:"record,omitempty"`
	Results        []validation.Result `json:"results"`
	Summary        validation.Summary  `json:"summary"`
	Prompt         string              `json:"prompt,omitempty"`
	Narrative      string              `json:"narrative,omitempty"`
	Streaming      bool                `json:"streaming"`
	NarrativeError string              `json:"narrative_error,omitempty"`
	Error          string              `json:"error,omitempty"`
}

type run struct {
	id            string
	generation    uint64
	startedAt     time.Time
	mode          report.Mode
	saveToKB      bool
	artifactCount int
	rules         []rules.CheckRule
	record        rules.Record
	results       []validation.Result
	summary       validation.Summary
	prompt        string
	err           error
	analysisErr   error
}
