// Package note converts a corrected transcript into a fixed-section clinical
// note.
//
// Two interchangeable strategies sit behind the [Strategy] contract: a
// deterministic rule-based extractor that never fails, and an LLM-backed
// formatter (see the llmformat subpackage). [Formatter] chains them so that an
// unavailable model server degrades to rule-based output instead of an error.
package note

import (
	"context"
	"fmt"
	"strings"
)

// Method identifies the strategy that produced a [Note].
type Method string

const (
	// MethodRuleBased marks output of the deterministic extractor.
	MethodRuleBased Method = "rule-based"

	// MethodLLMBased marks output of the LLM formatter.
	MethodLLMBased Method = "llm-based"
)

// SectionNames is the fixed clinical note template. Order is contractual:
// rendering, export and verification all iterate sections in this order.
var SectionNames = []string{
	"Identification",
	"Chief Complaint",
	"Problem List",
	"Current Medications",
	"Interim History",
	"Past Medical History",
	"Social History",
	"Family History",
	"Review of Systems",
	"Mental Status Exam",
	"Risk Assessment",
	"Assessment",
	"Plan",
	"Therapy Notes",
	"Signature",
}

// Placeholder is the body of a section the dictation did not cover. Sections
// are never omitted, only filled with this marker.
const Placeholder = "Not provided."

// Note is a formatted clinical note. Every name in [SectionNames] is always
// present; empty sections carry [Placeholder].
type Note struct {
	sections map[string]string

	// Method records which strategy produced this note.
	Method Method
}

// New returns a Note with every template section set to [Placeholder].
func New(method Method) *Note {
	n := &Note{
		sections: make(map[string]string, len(SectionNames)),
		Method:   method,
	}
	for _, name := range SectionNames {
		n.sections[name] = Placeholder
	}
	return n
}

// Section returns the body of the named section. Unknown names return "".
func (n *Note) Section(name string) string {
	return n.sections[name]
}

// SetSection replaces the body of the named section. Unknown section names
// are rejected so typos cannot silently grow the template.
func (n *Note) SetSection(name, body string) error {
	if _, ok := n.sections[name]; !ok {
		return fmt.Errorf("note: unknown section %q", name)
	}
	body = strings.TrimSpace(body)
	if body == "" {
		body = Placeholder
	}
	n.sections[name] = body
	return nil
}

// Append adds text to the end of the named section, displacing the
// placeholder if the section was empty.
func (n *Note) Append(name, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	cur, ok := n.sections[name]
	if !ok {
		return fmt.Errorf("note: unknown section %q", name)
	}
	if cur == Placeholder {
		n.sections[name] = text
		return nil
	}
	n.sections[name] = cur + "\n" + text
	return nil
}

// Render returns the full note as plain text, sections in template order with
// upper-case headers.
func (n *Note) Render() string {
	var b strings.Builder
	for i, name := range SectionNames {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strings.ToUpper(name))
		b.WriteString(":\n")
		b.WriteString(n.sections[name])
	}
	return b.String()
}

// Strategy is one way of turning a corrected transcript into a [Note].
// Implementations must return a note with every template section present.
type Strategy interface {
	Format(ctx context.Context, transcript string) (*Note, error)
}
