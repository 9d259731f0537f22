package verify

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/quillmed/quillmed/internal/note"
	"github.com/quillmed/quillmed/internal/vocab"
)

var sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]?`)

// sectionKeywords drives the placement heuristic for recovered sentences.
// Scoring is best-effort; a sentence that matches nothing lands in Interim
// History, the narrative catch-all.
var sectionKeywords = map[string][]string{
	"Current Medications":  {"dose", "tablet", "pill", "capsule", "daily", "twice", "refill"},
	"Plan":                 {"continue", "increase", "decrease", "start", "stop", "taper", "follow", "refer", "recheck"},
	"Risk Assessment":      {"suicidal", "ideation", "harm", "risk", "safety", "denies"},
	"Social History":       {"work", "job", "married", "divorced", "alcohol", "smoking", "tobacco"},
	"Family History":       {"mother", "father", "sister", "brother", "family"},
	"Mental Status Exam":   {"affect", "mood", "speech", "thought", "oriented", "insight", "judgment"},
	"Review of Systems":    {"sleep", "appetite", "energy", "weight", "headache", "nausea"},
	"Past Medical History": {"diagnosed", "hospitalized", "history"},
}

const fallbackSection = "Interim History"

// Reinject appends source sentences containing missing terms verbatim to the
// most plausible note section and returns how many sentences were recovered.
// The caller re-verifies afterwards; at most one reinjection pass runs per
// formatting attempt.
func Reinject(n *note.Note, original string, report Report) int {
	if len(report.MissingTerms) == 0 {
		return 0
	}
	missing := make(map[string]bool, len(report.MissingTerms))
	for _, term := range report.MissingTerms {
		missing[term] = true
	}

	injected := 0
	for _, raw := range sentenceRe.FindAllString(original, -1) {
		sentence := strings.TrimSpace(raw)
		if sentence == "" || !mentionsAny(sentence, missing) {
			continue
		}
		section := placeSentence(sentence)
		if err := n.Append(section, sentence); err != nil {
			continue
		}
		slog.Debug("reinjected missing sentence", "section", section)
		injected++
	}
	return injected
}

func mentionsAny(sentence string, terms map[string]bool) bool {
	for _, tok := range tokenize(sentence) {
		if terms[tok] {
			return true
		}
	}
	return false
}

// placeSentence scores the sentence against each section's keyword list.
// Medication or dosage tokens weigh towards Current Medications.
func placeSentence(sentence string) string {
	scores := make(map[string]int)
	for _, tok := range tokenize(sentence) {
		if entry, ok := vocab.Default().LookupCanonical(tok); ok {
			switch entry.Category {
			case vocab.CategoryMedication, vocab.CategoryDosageUnit:
				scores["Current Medications"] += 2
			}
		}
		if containsDigit(tok) && strings.HasSuffix(tok, "mg") {
			scores["Current Medications"] += 2
		}
		for section, keywords := range sectionKeywords {
			for _, kw := range keywords {
				if tok == kw {
					scores[section]++
				}
			}
		}
	}

	best, bestScore := fallbackSection, 0
	for _, section := range note.SectionNames {
		if scores[section] > bestScore {
			best, bestScore = section, scores[section]
		}
	}
	return best
}
