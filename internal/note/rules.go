package note

import (
	"context"
	"regexp"
	"sort"
	"strings"
)

// sectionCues maps spoken section-introducing phrases to template sections.
// Several spoken variants may lead to the same section.
var sectionCues = map[string]string{
	"identification":           "Identification",
	"chief complaint":          "Chief Complaint",
	"problem list":             "Problem List",
	"current medications":      "Current Medications",
	"medications":              "Current Medications",
	"interim history":          "Interim History",
	"past medical history":     "Past Medical History",
	"past psychiatric history": "Past Medical History",
	"social history":           "Social History",
	"family history":           "Family History",
	"review of systems":        "Review of Systems",
	"mental status exam":       "Mental Status Exam",
	"mental status":            "Mental Status Exam",
	"risk assessment":          "Risk Assessment",
	"assessment":               "Assessment",
	"plan":                     "Plan",
	"therapy notes":            "Therapy Notes",
	"therapy note":             "Therapy Notes",
	"signature":                "Signature",
}

// cueRe matches any section cue at a word boundary, optionally followed by a
// colon or stop. Longer cues are listed first so "risk assessment" wins over
// "assessment".
var cueRe = buildCueRe()

func buildCueRe() *regexp.Regexp {
	cues := make([]string, 0, len(sectionCues))
	for cue := range sectionCues {
		cues = append(cues, cue)
	}
	sort.Slice(cues, func(i, j int) bool {
		if len(cues[i]) != len(cues[j]) {
			return len(cues[i]) > len(cues[j])
		}
		return cues[i] < cues[j]
	})
	for i, cue := range cues {
		cues[i] = regexp.QuoteMeta(cue)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(cues, "|") + `)\b[:.]?\s*`)
}

// CanonicalSection maps a spoken or model-emitted header to its canonical
// template section name. It accepts both exact section names and the cue
// variants the rule-based extractor recognizes.
func CanonicalSection(header string) (string, bool) {
	h := strings.ToLower(strings.TrimSpace(header))
	section, ok := sectionCues[h]
	return section, ok
}

// RuleBased is the deterministic fallback strategy. It splits the transcript
// on section-introducing cue phrases and never fails; input that matches no
// cue lands in the Identification section so content is never dropped.
type RuleBased struct{}

// NewRuleBased returns the rule-based extraction strategy.
func NewRuleBased() *RuleBased {
	return &RuleBased{}
}

// Format implements [Strategy]. The returned error is always nil.
func (r *RuleBased) Format(_ context.Context, transcript string) (*Note, error) {
	n := New(MethodRuleBased)
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return n, nil
	}

	matches := cueRe.FindAllStringSubmatchIndex(transcript, -1)
	if len(matches) == 0 {
		n.Append("Identification", transcript)
		return n, nil
	}

	// Anything dictated before the first cue usually opens with clinician and
	// patient identification.
	if lead := strings.TrimSpace(transcript[:matches[0][0]]); lead != "" {
		n.Append("Identification", lead)
	}

	for i, m := range matches {
		cue := strings.ToLower(transcript[m[2]:m[3]])
		section := sectionCues[cue]

		end := len(transcript)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		body := strings.TrimSpace(transcript[m[1]:end])
		if body == "" {
			continue
		}
		n.Append(section, body)
	}
	return n, nil
}

var _ Strategy = (*RuleBased)(nil)
