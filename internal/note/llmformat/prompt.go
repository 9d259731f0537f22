package llmformat

import (
	"strings"

	"github.com/quillmed/quillmed/internal/note"
	"github.com/quillmed/quillmed/internal/vocab"
)

// PromptVersion identifies the prompt template in logs and diagnostics so a
// behaviour change in model output can be traced to a prompt revision.
const PromptVersion = "v3"

const systemPrompt = `You are a clinical documentation assistant. You restructure a psychiatrist's
raw dictation into a structured clinical note. You never invent clinical
content: every fact in your output must come from the dictation. Medication
names and doses must be copied verbatim. If the dictation does not cover a
section, write exactly "Not provided." for that section.`

const workedExample = `Dictation:
"This is Dr. Lee seeing Jane Roe for follow-up. Chief complaint anxiety.
Current medications Lexapro 20mg one pill per day. Risk assessment denies
suicidal ideation. Plan continue Lexapro."

Note:
IDENTIFICATION:
Dr. Lee seeing Jane Roe for follow-up.

CHIEF COMPLAINT:
Anxiety.

PROBLEM LIST:
Not provided.

CURRENT MEDICATIONS:
Lexapro 20mg (one pill per day)

INTERIM HISTORY:
Not provided.

PAST MEDICAL HISTORY:
Not provided.

SOCIAL HISTORY:
Not provided.

FAMILY HISTORY:
Not provided.

REVIEW OF SYSTEMS:
Not provided.

MENTAL STATUS EXAM:
Not provided.

RISK ASSESSMENT:
Denies suicidal ideation.

ASSESSMENT:
Not provided.

PLAN:
Continue Lexapro 20mg daily.

THERAPY NOTES:
Not provided.

SIGNATURE:
Dr. Lee`

// buildUserPrompt assembles the full formatting prompt: section template,
// worked example, abbreviation table and the transcript itself.
func buildUserPrompt(transcript string) string {
	var b strings.Builder

	b.WriteString("Restructure the dictation below into a clinical note with exactly these sections, in this order:\n\n")
	for _, name := range note.SectionNames {
		b.WriteString(strings.ToUpper(name))
		b.WriteString(":\n")
	}

	b.WriteString("\nExpand these dictation abbreviations only when spelled out aids readability; otherwise keep the abbreviation:\n")
	for _, abbr := range abbreviationTable() {
		b.WriteString(abbr)
		b.WriteByte('\n')
	}

	b.WriteString("\nExample:\n")
	b.WriteString(workedExample)

	b.WriteString("\n\nDictation:\n\"")
	b.WriteString(transcript)
	b.WriteString("\"\n\nNote:\n")
	return b.String()
}

// abbreviationTable renders "ABBR = expansion" lines from the vocabulary.
func abbreviationTable() []string {
	idx := vocab.Default()
	var lines []string
	for _, canonical := range idx.Canonicals(vocab.CategoryAbbreviation) {
		entry, ok := idx.LookupCanonical(vocab.Normalize(canonical))
		if !ok || len(entry.Aliases) == 0 {
			continue
		}
		lines = append(lines, canonical+" = "+entry.Aliases[0])
	}
	return lines
}
