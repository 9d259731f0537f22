package llmformat

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/quillmed/quillmed/internal/vocab"
)

// protectedPhrases are fixed expressions in which a dictation-cue word is
// ordinary vocabulary and must not be collapsed into punctuation. The regexp
// engine has no lookaround, so these are masked before cue conversion and
// restored afterwards.
var protectedPhrases = []string{
	"interim period",
	"grace period",
	"time period",
	"period of time",
	"trial period",
}

var protectedRe = buildProtectedRe()

func buildProtectedRe() *regexp.Regexp {
	quoted := make([]string, len(protectedPhrases))
	for i, p := range protectedPhrases {
		quoted[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
}

var (
	periodCueRe    = regexp.MustCompile(`(?i)\s+period\b\.?`)
	commaCueRe     = regexp.MustCompile(`(?i)\s+comma\b`)
	paragraphCueRe = regexp.MustCompile(`(?i)\s*\bnew (?:paragraph|line)\b\.?\s*`)
	maskRe         = regexp.MustCompile("\x00(\\d+)\x00")
)

// collapseDictationCues converts spoken punctuation commands the model left
// in the text ("period", "comma", "new paragraph") into actual punctuation,
// leaving protected phrases untouched.
func collapseDictationCues(text string) string {
	var masked []string
	text = protectedRe.ReplaceAllStringFunc(text, func(m string) string {
		masked = append(masked, m)
		return fmt.Sprintf("\x00%d\x00", len(masked)-1)
	})

	text = paragraphCueRe.ReplaceAllString(text, "\n")
	text = periodCueRe.ReplaceAllString(text, ".")
	text = commaCueRe.ReplaceAllString(text, ",")

	return maskRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := maskRe.FindStringSubmatch(m)
		var i int
		fmt.Sscanf(sub[1], "%d", &i)
		if i < 0 || i >= len(masked) {
			return m
		}
		return masked[i]
	})
}

// titleCaseDiagnoses applies title case to each line of a diagnosis-style
// section (Problem List, Assessment). Known abbreviations keep their
// all-caps form and small connector words stay lower-case mid-line.
func titleCaseDiagnoses(body string) string {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lines[i] = titleCaseLine(line)
	}
	return strings.Join(lines, "\n")
}

var smallWords = map[string]bool{
	"a": true, "an": true, "and": true, "in": true, "of": true,
	"on": true, "or": true, "the": true, "to": true, "with": true,
}

func titleCaseLine(line string) string {
	words := strings.Fields(line)
	for i, w := range words {
		trimmed := strings.TrimRight(w, ".,;:")
		if trimmed == "" {
			continue
		}
		if isAbbreviation(trimmed) {
			words[i] = strings.ToUpper(w[:len(trimmed)]) + w[len(trimmed):]
			continue
		}
		lower := strings.ToLower(w)
		if i > 0 && smallWords[strings.TrimRight(lower, ".,;:")] {
			words[i] = lower
			continue
		}
		r := []rune(lower)
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// isAbbreviation reports whether the word is a known clinical abbreviation
// (PTSD, ADHD, ...) that must stay upper-case.
func isAbbreviation(word string) bool {
	entry, ok := vocab.Default().LookupCanonical(vocab.Normalize(word))
	return ok && entry.Category == vocab.CategoryAbbreviation
}

var signatureDateRe = regexp.MustCompile(
	`(?i)\b(?:today'?s date|\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|` +
		`(?:january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2},?\s+\d{4})\b`)

// normalizeSignatureDate rewrites any date the model put in the signature to
// the transcription date. Models tend to insert the current date, which is
// wrong for dictations processed later.
func normalizeSignatureDate(body string, transcribedAt time.Time) string {
	date := transcribedAt.Format("January 2, 2006")
	if signatureDateRe.MatchString(body) {
		return signatureDateRe.ReplaceAllString(body, date)
	}
	return body + "\n" + date
}
