package prompt

import (
	"strings"

	"compliance/internal/rules"
)

// Synthesize builds the reviewer prompt for record under checkRules. The
// output depends only on its arguments, so the same input always yields the
// same bytes.
func Synthesize(profile Profile, checkRules []rules.CheckRule, record rules.Record) string {
	p := profile.withDefaults()

	var b strings.Builder
	b.WriteString(p.Header)
	b.WriteString("\n\n")
	b.WriteString(p.Title)
	b.WriteString(":\n")
	writeAttributes(&b, p, record, "- ")
	b.WriteString("\nCurrent check items:\n")
	b.WriteString(RenderRules(checkRules))
	b.WriteString("\n\n")
	b.WriteString(p.Instruction)
	return b.String()
}

// RenderRecord renders the profile attributes of record, one "Label: value"
// line each.
func RenderRecord(profile Profile, record rules.Record) string {
	var b strings.Builder
	writeAttributes(&b, profile, record, "")
	return strings.TrimSuffix(b.String(), "\n")
}

func writeAttributes(b *strings.Builder, p Profile, record rules.Record, bullet string) {
	for _, attr := range p.attributesFor(record) {
		b.WriteString(bullet)
		b.WriteString(attr.Label)
		b.WriteString(": ")
		b.WriteString(attr.render(record))
		b.WriteString("\n")
	}
}

// RenderRules lists every rule and field in stored order. Rules are separated
// by a blank line.
func RenderRules(checkRules []rules.CheckRule) string {
	blocks := make([]string, 0, len(checkRules))
	for _, r := range checkRules {
		var b strings.Builder
		b.WriteString("[")
		b.WriteString(r.Name)
		b.WriteString("]")
		if r.Description != "" {
			b.WriteString(" - ")
			b.WriteString(r.Description)
		}
		for _, f := range r.Fields {
			b.WriteString("\n  - ")
			b.WriteString(f.Name)
			b.WriteString(" (")
			b.WriteString(f.Key)
			b.WriteString(")")
			if f.Required {
				b.WriteString(" [required]")
			}
			if f.Type == rules.FieldTypeSemantic && f.Validation.SemanticRequirement != "" {
				b.WriteString("\n    requirement: ")
				b.WriteString(f.Validation.SemanticRequirement)
			}
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}
