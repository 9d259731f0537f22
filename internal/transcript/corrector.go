// Package transcript implements the clinical vocabulary correction engine
// applied to raw speech-to-text output.
//
// Raw whisper output is rarely perfect for clinical vocabulary — medication
// names, dosage units, and abbreviations are frequently misheard
// ("sertralene", "surgery line", "100 mgs"). The [Corrector] scans the
// transcript token by token (and over short n-gram windows, to catch
// multi-word misrecognitions) and applies, in order of precedence:
//
//  1. Exact match against a canonical name or alias — the token is already
//     correct and is left untouched.
//  2. Membership in an entry's known-misrecognition list — rewritten to the
//     canonical spelling with high confidence.
//  3. Dosage normalisation — "20 mgs", "20 milligrams" and friends collapse
//     to "20mg" with medium confidence.
//  4. Phonetic fuzzy match (Double Metaphone + Jaro-Winkler) against the
//     canonical names — rewritten with medium or low confidence depending on
//     similarity.
//
// First match wins per token window; a span consumed by one rule is never
// re-corrected by another. Every substitution produces its own [Correction]
// record for audit purposes — repeated occurrences of the same error are
// deliberately not deduplicated.
//
// The engine is pure with respect to the vocabulary: it never mutates
// [vocab.Entry] data, and correcting the same input twice yields identical
// output. A [Corrector] is safe for concurrent use.
package transcript

import (
	"regexp"
	"strings"

	"github.com/quillmed/quillmed/internal/vocab"
)

// Confidence grades how certain the engine is about a substitution.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Correction captures a single substitution made by the engine. Corrections
// are ordered by first occurrence in the transcript.
type Correction struct {
	// Original is the span as produced by the speech engine.
	Original string `json:"original"`

	// Corrected is the replacement text.
	Corrected string `json:"corrected"`

	// Kind is the vocabulary category that produced the substitution.
	Kind vocab.Category `json:"kind"`

	// Confidence grades the substitution. Known-misrecognition matches are
	// high; dosage normalisation and fuzzy matches are medium or low.
	Confidence Confidence `json:"confidence"`
}

// Result is the output of a [Corrector.Correct] call.
type Result struct {
	// Corrected is the transcript with all substitutions applied.
	Corrected string

	// Corrections is the ordered, audit-complete list of substitutions.
	// Empty (non-nil) when no corrections were necessary.
	Corrections []Correction
}

// Option is a functional option for configuring a [Corrector].
type Option func(*Corrector)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score required for a
// phonetically-matched canonical to be accepted. Default: 0.84.
func WithPhoneticThreshold(threshold float64) Option {
	return func(c *Corrector) { c.phoneticThreshold = threshold }
}

// WithMediumConfidenceAbove sets the Jaro-Winkler score above which a fuzzy
// match is graded medium rather than low. Default: 0.90.
func WithMediumConfidenceAbove(threshold float64) Option {
	return func(c *Corrector) { c.mediumThreshold = threshold }
}

// WithoutFuzzy disables the phonetic fuzzy stage, leaving only exact
// dictionary and dosage matching. Useful when false positives are
// unacceptable and the misrecognition tables are considered complete.
func WithoutFuzzy() Option {
	return func(c *Corrector) { c.fuzzy = false }
}

// Corrector is the clinical vocabulary correction engine. It is read-only
// after construction and safe for concurrent use.
type Corrector struct {
	index *vocab.Index

	fuzzy             bool
	phoneticThreshold float64
	mediumThreshold   float64

	// candidates is the precomputed fuzzy match table (see fuzzy.go).
	candidates []fuzzyCandidate
}

const (
	defaultPhoneticThreshold = 0.84
	defaultMediumThreshold   = 0.90

	// minFuzzyLen is the minimum token length considered for fuzzy matching.
	// Short tokens produce too many false phonetic collisions.
	minFuzzyLen = 5
)

// New returns a [Corrector] over the given vocabulary index. Pass
// [vocab.Default]() for the builtin clinical tables.
func New(index *vocab.Index, opts ...Option) *Corrector {
	c := &Corrector{
		index:             index,
		fuzzy:             true,
		phoneticThreshold: defaultPhoneticThreshold,
		mediumThreshold:   defaultMediumThreshold,
	}
	for _, o := range opts {
		o(c)
	}
	if c.fuzzy {
		c.buildFuzzyCandidates()
	}
	return c
}

// dosageRe matches a number loosely attached to a dosage unit variant
// ("100mgs", "100 mgs", "0.5 milligrams"). Group 1 is the number, group 2
// the unit variant.
var dosageRe = regexp.MustCompile(`(?i)^(\d+(?:\.\d+)?)[ -]?(mgs|mg's|milligrams?|mg|mcgs|micrograms?|mcg|mls|millilitres?|milliliters?|ml)$`)

// canonicalUnit maps a lowercased dosage unit variant to its canonical form.
func canonicalUnit(unit string) string {
	switch {
	case strings.HasPrefix(unit, "mg") || strings.HasPrefix(unit, "milligram"):
		return "mg"
	case strings.HasPrefix(unit, "mcg") || strings.HasPrefix(unit, "microgram"):
		return "mcg"
	default:
		return "ml"
	}
}

// Correct scans text and returns the corrected transcript plus the ordered
// list of applied corrections.
func (c *Corrector) Correct(text string) Result {
	tokens := strings.Fields(text)
	result := Result{Corrections: []Correction{}}
	if len(tokens) == 0 {
		result.Corrected = text
		return result
	}

	maxWords := c.index.MaxWords()

	var out []string
	i := 0
	for i < len(tokens) {
		maxN := maxWords
		if i+maxN > len(tokens) {
			maxN = len(tokens) - i
		}

		consumed, replacement, corr := c.matchAt(tokens, i, maxN)
		if consumed == 0 {
			out = append(out, tokens[i])
			i++
			continue
		}
		out = append(out, replacement)
		if corr != nil {
			result.Corrections = append(result.Corrections, *corr)
		}
		i += consumed
	}

	result.Corrected = strings.Join(out, " ")
	return result
}

// matchAt tries windows of decreasing length at position i so that multi-word
// terms take precedence over their single-word prefixes. It returns the
// number of tokens consumed (0 when nothing matched), the replacement text
// (with the window's trailing punctuation preserved), and the correction made
// (nil when the window matched an already-correct spelling).
func (c *Corrector) matchAt(tokens []string, i, maxN int) (int, string, *Correction) {
	for n := maxN; n >= 1; n-- {
		window := strings.Join(tokens[i:i+n], " ")
		core, trailing := splitTrailingPunct(window)
		norm := vocab.Normalize(core)
		if norm == "" {
			continue
		}

		// Already-correct spelling: consume the window untouched so no later
		// rule can re-correct part of it.
		if _, ok := c.index.LookupCanonical(norm); ok {
			return n, window, nil
		}

		if e, ok := c.index.LookupMisrecognition(norm); ok {
			return n, e.Canonical + trailing, &Correction{
				Original:   core,
				Corrected:  e.Canonical,
				Kind:       e.Category,
				Confidence: ConfidenceHigh,
			}
		}

		// Dosage expressions span at most two tokens ("100 mgs").
		if n <= 2 {
			if m := dosageRe.FindStringSubmatch(norm); m != nil {
				canon := m[1] + canonicalUnit(strings.ToLower(m[2]))
				if canon == norm {
					return n, window, nil
				}
				return n, canon + trailing, &Correction{
					Original:   core,
					Corrected:  canon,
					Kind:       vocab.CategoryDosageUnit,
					Confidence: ConfidenceMedium,
				}
			}
		}

		if c.fuzzy && n == 1 && len(norm) >= minFuzzyLen {
			if canon, score, ok := c.fuzzyMatch(norm); ok {
				conf := ConfidenceLow
				if score >= c.mediumThreshold {
					conf = ConfidenceMedium
				}
				return n, canon + trailing, &Correction{
					Original:   core,
					Corrected:  canon,
					Kind:       vocab.CategoryMedication,
					Confidence: conf,
				}
			}
		}
	}
	return 0, "", nil
}

// splitTrailingPunct splits s into its core text and any trailing punctuation
// so replacements preserve sentence structure ("sertralene." → "sertraline.").
func splitTrailingPunct(s string) (core, trailing string) {
	core = strings.TrimRight(s, ".,;:!?\"')")
	return core, s[len(core):]
}
