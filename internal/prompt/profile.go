package prompt

import (
	"sort"

	"compliance/internal/rules"
)

const NotProvided = "not provided"

// Attribute is one labeled record line. When EndKey is set the line renders
// the range "<Key> - <EndKey>". Suffix is appended to present values only.
type Attribute struct {
	Label  string `json:"label" yaml:"label" mapstructure:"label"`
	Key    string `json:"key" yaml:"key" mapstructure:"key"`
	EndKey string `json:"end_key,omitempty" yaml:"end_key,omitempty" mapstructure:"end_key"`
	Suffix string `json:"suffix,omitempty" yaml:"suffix,omitempty" mapstructure:"suffix"`
}

// Profile describes how a record is introduced to the reviewer.
type Profile struct {
	Header      string      `json:"header" yaml:"header" mapstructure:"header"`
	Title       string      `json:"title" yaml:"title" mapstructure:"title"`
	Attributes  []Attribute `json:"attributes" yaml:"attributes" mapstructure:"attributes"`
	Instruction string      `json:"instruction" yaml:"instruction" mapstructure:"instruction"`
}

func DefaultProfile() Profile {
	return Profile{
		Header: "You are a document compliance assistant. Please check the compliance of the following meeting minutes:",
		Title:  "Meeting information",
		Attributes: []Attribute{
			{Label: "Time", Key: "meeting_time_start", EndKey: "meeting_time_end"},
			{Label: "Host", Key: "host"},
			{Label: "Recorder", Key: "recorder"},
			{Label: "Place", Key: "place"},
			{Label: "Expected attendees", Key: "attendees_expected", Suffix: " people"},
			{Label: "Actual attendees", Key: "attendees_actual", Suffix: " people"},
		},
		Instruction: "Please focus on the compliance of the items above.",
	}
}

// withDefaults fills blank profile text from DefaultProfile. Attributes are
// left alone; an empty list means "use the record keys".
func (p Profile) withDefaults() Profile {
	d := DefaultProfile()
	if p.Header == "" {
		p.Header = d.Header
	}
	if p.Title == "" {
		p.Title = d.Title
	}
	if p.Instruction == "" {
		p.Instruction = d.Instruction
	}
	return p
}

// attributesFor returns the profile attributes, or one attribute per record
// key in sorted order when the profile has none.
func (p Profile) attributesFor(record rules.Record) []Attribute {
	if len(p.Attributes) > 0 {
		return p.Attributes
	}
	keys := record.Keys()
	sort.Strings(keys)
	attrs := make([]Attribute, len(keys))
	for i, k := range keys {
		attrs[i] = Attribute{Label: k, Key: k}
	}
	return attrs
}

func (a Attribute) render(record rules.Record) string {
	if a.EndKey != "" {
		return value(record, a.Key, "") + " - " + value(record, a.EndKey, "")
	}
	return value(record, a.Key, a.Suffix)
}

func value(record rules.Record, key, suffix string) string {
	v, ok := record[key]
	if !ok || rules.IsEmpty(v) {
		return NotProvided
	}
	return rules.FormatValue(v) + suffix
}
