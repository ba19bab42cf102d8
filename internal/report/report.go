package report

import (
	"fmt"
	"strings"
	"time"

	"compliance/internal/prompt"
	"compliance/internal/rules"
	"compliance/internal/validation"
)

type Mode string

const (
	ModeLocalRules           Mode = "local_rules"
	ModeLocalRulesWithReview Mode = "local_rules_with_review"
	ModeExportPrompt         Mode = "export_prompt"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeLocalRules, ModeLocalRulesWithReview, ModeExportPrompt:
		return true
	}
	return false
}

func (m Mode) Label() string {
	switch m {
	case ModeLocalRulesWithReview:
		return "local rules + reviewer deep analysis"
	case ModeExportPrompt:
		return "prompt export"
	default:
		return "local rules"
	}
}

const (
	ContentType    = "text/plain; charset=utf-8"
	TimestampFmt   = "2006-01-02 15:04:05"
	FilenamePrefix = "compliance-report-"
)

type Input struct {
	RunID         string
	Timestamp     time.Time
	ArtifactCount int
	Mode          Mode
	SaveToKB      bool
	Profile       prompt.Profile
	Record        rules.Record
	Results       []validation.Result
	Rules         []rules.CheckRule
	Narrative     string
}

type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

func Filename(runID string) string {
	return FilenamePrefix + runID + ".txt"
}

// Export renders the report text. It has no side effects; see Sink for
// delivering the document.
func Export(in Input) Document {
	title := in.Profile.Title
	if title == "" {
		title = prompt.DefaultProfile().Title
	}

	var b strings.Builder
	b.WriteString("Compliance check report\n\n")
	fmt.Fprintf(&b, "Run ID: %s\n", in.RunID)
	fmt.Fprintf(&b, "Checked at: %s\n", in.Timestamp.Format(TimestampFmt))
	fmt.Fprintf(&b, "Files: %d\n", in.ArtifactCount)
	fmt.Fprintf(&b, "Mode: %s\n", in.Mode.Label())
	fmt.Fprintf(&b, "Saved to knowledge base: %s\n", yesNo(in.SaveToKB))

	fmt.Fprintf(&b, "\n=== %s ===\n", title)
	b.WriteString(prompt.RenderRecord(in.Profile, in.Record))
	b.WriteString("\n")

	b.WriteString("\n=== Check results ===\n")
	for _, r := range in.Results {
		b.WriteString(resultLine(r))
		b.WriteString("\n")
	}

	b.WriteString("\n=== Rules used ===\n")
	b.WriteString(prompt.RenderRules(in.Rules))
	b.WriteString("\n")

	if strings.TrimSpace(in.Narrative) != "" {
		b.WriteString("\n=== Reviewer analysis ===\n")
		b.WriteString(in.Narrative)
		if !strings.HasSuffix(in.Narrative, "\n") {
			b.WriteString("\n")
		}
	}

	return Document{
		Filename:    Filename(in.RunID),
		ContentType: ContentType,
		Body:        []byte(b.String()),
	}
}

func resultLine(r validation.Result) string {
	mark := "pass"
	if !r.IsValid {
		mark = "fail"
	}
	msg := r.Message()
	if msg == "" {
		msg = "passed"
	}
	line := fmt.Sprintf("[%s] %s: %s", mark, r.Field, msg)
	if r.OriginalValue != nil {
		line += fmt.Sprintf(" (original: %s)", rules.FormatValue(r.OriginalValue))
	}
	return line
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
