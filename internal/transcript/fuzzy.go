package transcript

import (
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/quillmed/quillmed/internal/vocab"
)

// fuzzyCandidate is a medication canonical with its Double Metaphone codes
// precomputed once at construction, keeping the per-token match loop free of
// repeated phonetic encoding.
type fuzzyCandidate struct {
	canonical string
	lower     string
	codes     map[string]struct{}
}

// buildFuzzyCandidates prepares the fuzzy match table. Only medication names
// participate in fuzzy matching: dosage units are handled by the dosage rule
// and abbreviations are too short for reliable phonetic comparison.
func (c *Corrector) buildFuzzyCandidates() {
	for _, name := range c.index.Canonicals(vocab.CategoryMedication) {
		lower := strings.ToLower(name)
		c.candidates = append(c.candidates, fuzzyCandidate{
			canonical: name,
			lower:     lower,
			codes:     metaphoneCodes(lower),
		})
	}
}

// fuzzyMatch finds the medication canonical most similar to the normalised
// token. A candidate qualifies when it shares a Double Metaphone code with
// the token AND its Jaro-Winkler similarity meets the phonetic threshold.
// The highest-scoring qualifying candidate wins.
func (c *Corrector) fuzzyMatch(norm string) (canonical string, score float64, ok bool) {
	tokenCodes := metaphoneCodes(norm)

	var best fuzzyCandidate
	var bestScore float64

	for _, cand := range c.candidates {
		if !codesOverlap(tokenCodes, cand.codes) {
			continue
		}
		jw := matchr.JaroWinkler(norm, cand.lower, false)
		if jw >= c.phoneticThreshold && jw > bestScore {
			best = cand
			bestScore = jw
		}
	}

	if best.canonical == "" {
		return "", 0, false
	}
	return best.canonical, bestScore, true
}

// metaphoneCodes returns the set of non-empty Double Metaphone codes for each
// whitespace-separated word in s.
func metaphoneCodes(s string) map[string]struct{} {
	codes := make(map[string]struct{}, 2)
	for _, w := range strings.Fields(s) {
		p, sec := matchr.DoubleMetaphone(w)
		if p != "" {
			codes[p] = struct{}{}
		}
		if sec != "" {
			codes[sec] = struct{}{}
		}
	}
	return codes
}

// codesOverlap reports whether the two code sets share at least one code.
func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}
