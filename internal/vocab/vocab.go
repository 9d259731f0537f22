// Package vocab holds the static clinical vocabulary used by the transcript
// correction engine: medication names, dosage units, and clinical
// abbreviations, each with their known aliases and speech-to-text
// misrecognitions.
//
// The raw tables (see data.go) are compiled once into an immutable [Index] so
// that lookups during correction are O(1) map probes rather than nested
// iteration over the tables. The Index is read-only after construction and is
// safe to share across goroutines and requests.
package vocab

import (
	"fmt"
	"strings"
	"sync"
)

// Category classifies a vocabulary entry.
type Category string

const (
	CategoryMedication   Category = "medication"
	CategoryDosageUnit   Category = "dosageUnit"
	CategoryAbbreviation Category = "abbreviation"
)

// Entry is a single canonical vocabulary term together with its spelling
// variants. Entries are static data: the correction engine never mutates them.
type Entry struct {
	// Canonical is the correct, preferred spelling (e.g., "sertraline").
	Canonical string

	// Aliases are alternative valid names for the same term (e.g., brand
	// names such as "Zoloft"). Aliases are recognised but never rewritten:
	// a dictated brand name stays verbatim in the note.
	Aliases []string

	// Misrecognitions are known incorrect transcriptions produced by the
	// speech engine (e.g., "sertralene", "surgery line"). A misrecognition
	// is always rewritten to Canonical.
	Misrecognitions []string

	// Category classifies the entry.
	Category Category
}

// Index is the pre-built lookup structure over a set of entries.
// All methods are safe for concurrent use — the Index is read-only after
// construction.
type Index struct {
	entries []Entry

	canonical map[string]*Entry // normalised canonical → entry
	alias     map[string]*Entry // normalised alias → entry
	misheard  map[string]*Entry // normalised misrecognition → entry

	maxWords int
}

// BuildIndex compiles entries into an [Index]. It returns an error when the
// same alias or misrecognition maps to more than one canonical entry, since an
// ambiguous variant would make corrections nondeterministic.
func BuildIndex(entries []Entry) (*Index, error) {
	idx := &Index{
		entries:   entries,
		canonical: make(map[string]*Entry, len(entries)),
		alias:     make(map[string]*Entry),
		misheard:  make(map[string]*Entry),
		maxWords:  1,
	}

	for i := range entries {
		e := &idx.entries[i]

		key := Normalize(e.Canonical)
		if key == "" {
			return nil, fmt.Errorf("vocab: entry %d has an empty canonical name", i)
		}
		if prev, ok := idx.canonical[key]; ok {
			return nil, fmt.Errorf("vocab: canonical %q declared twice (%q and %q)", key, prev.Canonical, e.Canonical)
		}
		idx.canonical[key] = e
		idx.trackWords(key)

		for _, a := range e.Aliases {
			norm := Normalize(a)
			if prev, ok := idx.alias[norm]; ok && prev != e {
				return nil, fmt.Errorf("vocab: alias %q maps to both %q and %q", a, prev.Canonical, e.Canonical)
			}
			idx.alias[norm] = e
			idx.trackWords(norm)
		}
		for _, m := range e.Misrecognitions {
			norm := Normalize(m)
			if prev, ok := idx.misheard[norm]; ok && prev != e {
				return nil, fmt.Errorf("vocab: misrecognition %q maps to both %q and %q", m, prev.Canonical, e.Canonical)
			}
			if prev, ok := idx.canonical[norm]; ok {
				return nil, fmt.Errorf("vocab: misrecognition %q collides with canonical %q", m, prev.Canonical)
			}
			idx.misheard[norm] = e
			idx.trackWords(norm)
		}
	}

	return idx, nil
}

func (idx *Index) trackWords(norm string) {
	if n := len(strings.Fields(norm)); n > idx.maxWords {
		idx.maxWords = n
	}
}

// LookupCanonical returns the entry whose canonical name or alias equals the
// normalised term. ok is false when the term is not a known correct spelling.
func (idx *Index) LookupCanonical(norm string) (*Entry, bool) {
	if e, ok := idx.canonical[norm]; ok {
		return e, true
	}
	e, ok := idx.alias[norm]
	return e, ok
}

// LookupMisrecognition returns the entry a known misrecognition resolves to.
func (idx *Index) LookupMisrecognition(norm string) (*Entry, bool) {
	e, ok := idx.misheard[norm]
	return e, ok
}

// MaxWords is the largest number of whitespace-separated words in any indexed
// term. The correction engine uses it to bound its n-gram window size.
func (idx *Index) MaxWords() int { return idx.maxWords }

// Entries returns the underlying entry list. Callers must treat the result as
// read-only.
func (idx *Index) Entries() []Entry { return idx.entries }

// Canonicals returns every canonical name of the given category.
func (idx *Index) Canonicals(cat Category) []string {
	var out []string
	for i := range idx.entries {
		if idx.entries[i].Category == cat {
			out = append(out, idx.entries[i].Canonical)
		}
	}
	return out
}

// Normalize lowercases s, trims surrounding whitespace, and strips common
// trailing punctuation so that "Sertraline," matches "sertraline".
func Normalize(s string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(s), ".,;:!?\"')"))
}

var defaultIndex = sync.OnceValue(func() *Index {
	idx, err := BuildIndex(builtinEntries)
	if err != nil {
		// The builtin tables are compiled into the binary and covered by
		// tests; a build error here is a programming mistake.
		panic(err)
	}
	return idx
})

// Default returns the process-wide Index over the builtin clinical tables.
// It is built once on first use.
func Default() *Index { return defaultIndex() }
