package verify

import (
	"strings"

	"github.com/quillmed/quillmed/internal/vocab"
)

// salientTokens extracts the medically salient tokens from a transcript in
// first-occurrence order, deduplicated. A token is salient when it carries a
// digit (doses, quantities, dates), matches the clinical vocabulary, or is a
// multi-syllable word. Filler words never count against coverage.
func salientTokens(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tok := range tokenize(text) {
		if !isSalient(tok) || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

func isSalient(tok string) bool {
	if containsDigit(tok) {
		return true
	}
	if _, ok := vocab.Default().LookupCanonical(tok); ok {
		return true
	}
	return syllables(tok) >= 3
}

// tokenize lower-cases and splits on non-alphanumeric runs, keeping
// alphanumeric compounds like "100mg" intact.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}

func containsDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

// syllables approximates the syllable count as the number of vowel groups.
func syllables(word string) int {
	count := 0
	prevVowel := false
	for _, r := range word {
		v := strings.ContainsRune("aeiouy", r)
		if v && !prevVowel {
			count++
		}
		prevVowel = v
	}
	return count
}

// vocabEntry resolves a canonical name or alias to its vocabulary entry.
func vocabEntry(name string) (*vocab.Entry, bool) {
	return vocab.Default().LookupCanonical(vocab.Normalize(name))
}

// normalizeName lower-cases a vocabulary name for fuzzy comparison.
func normalizeName(name string) string {
	return vocab.Normalize(name)
}

// medicationsIn returns the distinct canonical medication names referenced in
// the text, by canonical name or brand alias, in first-occurrence order.
func medicationsIn(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tok := range tokenize(text) {
		entry, ok := vocab.Default().LookupCanonical(tok)
		if !ok || entry.Category != vocab.CategoryMedication || seen[entry.Canonical] {
			continue
		}
		seen[entry.Canonical] = true
		out = append(out, entry.Canonical)
	}
	return out
}
