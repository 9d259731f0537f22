// Package verify checks that a formatted note still carries the content of
// the corrected transcript it was produced from.
//
// Coverage is measured over medically salient tokens; hallucination signals
// fire on disproportionate output length and on medication mentions with no
// fuzzy anchor in the source. On an invalid report the caller may run one
// bounded reinjection pass (see [Reinject]) before surfacing the note for
// human review.
package verify

import (
	"fmt"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/quillmed/quillmed/internal/note"
)

// Defaults for [Verifier]. Coverage below the threshold or any hallucination
// signal marks the report invalid.
const (
	defaultCoverageThreshold = 80.0
	defaultLengthMultiplier  = 3.0
	defaultAnchorSimilarity  = 0.85
)

// Report is the outcome of comparing a formatted note against its source
// transcript. It is recomputed on every formatting attempt and serialized
// alongside the note for diagnostics.
type Report struct {
	// CoveragePercent is the share of salient source tokens found in the
	// formatted output, in [0, 100].
	CoveragePercent float64 `json:"coveragePercent"`

	// MissingTerms lists salient source tokens absent from the output, in
	// source order.
	MissingTerms []string `json:"missingTerms,omitempty"`

	// SuspectedHallucinations lists medication mentions in the output with no
	// fuzzy anchor in the source.
	SuspectedHallucinations []string `json:"suspectedHallucinations,omitempty"`

	// OutputLengthSuspect is set when the output is disproportionately longer
	// than the source.
	OutputLengthSuspect bool `json:"outputLengthSuspect"`

	// MedicationsFound and MedicationsTotal count distinct source medications
	// preserved in the output.
	MedicationsFound int `json:"medicationsFound"`
	MedicationsTotal int `json:"medicationsTotal"`

	// IsValid is true when coverage meets the threshold and no hallucination
	// signal fired.
	IsValid bool `json:"isValid"`
}

// Verifier compares formatted notes against source transcripts. The zero
// value is not usable; construct with [New].
type Verifier struct {
	coverageThreshold float64
	lengthMultiplier  float64
	anchorSimilarity  float64
}

// Option is a functional option for Verifier.
type Option func(*Verifier)

// WithCoverageThreshold overrides the minimum coverage percentage, in
// (0, 100].
func WithCoverageThreshold(pct float64) Option {
	return func(v *Verifier) { v.coverageThreshold = pct }
}

// WithLengthMultiplier overrides the output/source length ratio beyond which
// the output is flagged as suspect.
func WithLengthMultiplier(m float64) Option {
	return func(v *Verifier) { v.lengthMultiplier = m }
}

// New creates a Verifier.
func New(opts ...Option) (*Verifier, error) {
	v := &Verifier{
		coverageThreshold: defaultCoverageThreshold,
		lengthMultiplier:  defaultLengthMultiplier,
		anchorSimilarity:  defaultAnchorSimilarity,
	}
	for _, o := range opts {
		o(v)
	}
	if v.coverageThreshold <= 0 || v.coverageThreshold > 100 {
		return nil, fmt.Errorf("verify: coverage threshold %.1f out of (0, 100]", v.coverageThreshold)
	}
	if v.lengthMultiplier <= 1 {
		return nil, fmt.Errorf("verify: length multiplier %.1f must exceed 1", v.lengthMultiplier)
	}
	return v, nil
}

// Verify compares the formatted text against the original corrected
// transcript and returns a [Report].
func (v *Verifier) Verify(original, formatted string) Report {
	var r Report

	formattedTokens := make(map[string]bool)
	for _, tok := range tokenize(formatted) {
		formattedTokens[tok] = true
	}

	salient := salientTokens(original)
	if len(salient) == 0 {
		r.CoveragePercent = 100
	} else {
		found := 0
		for _, tok := range salient {
			if formattedTokens[tok] {
				found++
				continue
			}
			r.MissingTerms = append(r.MissingTerms, tok)
		}
		r.CoveragePercent = 100 * float64(found) / float64(len(salient))
	}

	if len(original) > 0 && float64(contentLength(formatted)) > v.lengthMultiplier*float64(len(original)) {
		r.OutputLengthSuspect = true
	}

	originalTokens := tokenize(original)
	for _, med := range medicationsIn(formatted) {
		if !v.hasAnchor(med, originalTokens) {
			r.SuspectedHallucinations = append(r.SuspectedHallucinations, med)
		}
	}

	sourceMeds := medicationsIn(original)
	r.MedicationsTotal = len(sourceMeds)
	outputMeds := make(map[string]bool)
	for _, med := range medicationsIn(formatted) {
		outputMeds[med] = true
	}
	for _, med := range sourceMeds {
		if outputMeds[med] {
			r.MedicationsFound++
		}
	}

	r.IsValid = r.CoveragePercent >= v.coverageThreshold &&
		len(r.SuspectedHallucinations) == 0 &&
		!r.OutputLengthSuspect
	return r
}

// sectionHeaders holds the rendered header line of every template section.
var sectionHeaders = func() map[string]bool {
	m := make(map[string]bool, len(note.SectionNames))
	for _, name := range note.SectionNames {
		m[strings.ToUpper(name)+":"] = true
	}
	return m
}()

// contentLength measures formatted excluding template boilerplate. A rendered
// note always carries the fixed section headers and placeholder bodies for
// uncovered sections; counting those against the source length would flag
// every short dictation as disproportionate.
func contentLength(formatted string) int {
	total := 0
	for _, line := range strings.Split(formatted, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed == note.Placeholder || sectionHeaders[trimmed] {
			continue
		}
		total += len(trimmed)
	}
	return total
}

// hasAnchor reports whether any source token is a close fuzzy match for the
// medication name, so an output mention of it is traceable to the dictation.
func (v *Verifier) hasAnchor(med string, originalTokens []string) bool {
	entry, ok := vocabEntry(med)
	if !ok {
		return false
	}
	names := append([]string{entry.Canonical}, entry.Aliases...)
	for _, tok := range originalTokens {
		for _, name := range names {
			if matchr.JaroWinkler(tok, normalizeName(name), true) >= v.anchorSimilarity {
				return true
			}
		}
	}
	return false
}
