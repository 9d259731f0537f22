package vocab_test

import (
	"testing"

	"github.com/quillmed/quillmed/internal/vocab"
)

func TestDefault_BuildsWithoutAmbiguity(t *testing.T) {
	t.Parallel()

	// Default panics if any alias or misrecognition is ambiguous, so simply
	// building it exercises the uniqueness guarantee over the builtin tables.
	idx := vocab.Default()
	if idx == nil {
		t.Fatal("Default returned nil index")
	}
	if idx.MaxWords() < 2 {
		t.Errorf("MaxWords=%d, want >= 2 (multi-word misrecognitions exist)", idx.MaxWords())
	}
}

func TestBuildIndex_RejectsAmbiguousMisrecognition(t *testing.T) {
	t.Parallel()

	entries := []vocab.Entry{
		{Canonical: "sertraline", Misrecognitions: []string{"sertralene"}, Category: vocab.CategoryMedication},
		{Canonical: "fluoxetine", Misrecognitions: []string{"sertralene"}, Category: vocab.CategoryMedication},
	}
	if _, err := vocab.BuildIndex(entries); err == nil {
		t.Fatal("BuildIndex accepted a misrecognition mapped to two canonicals")
	}
}

func TestBuildIndex_RejectsDuplicateCanonical(t *testing.T) {
	t.Parallel()

	entries := []vocab.Entry{
		{Canonical: "sertraline", Category: vocab.CategoryMedication},
		{Canonical: "Sertraline", Category: vocab.CategoryMedication},
	}
	if _, err := vocab.BuildIndex(entries); err == nil {
		t.Fatal("BuildIndex accepted a duplicate canonical name")
	}
}

func TestIndex_Lookups(t *testing.T) {
	t.Parallel()

	idx := vocab.Default()

	tests := []struct {
		name      string
		term      string
		canonical string
		misheard  bool
	}{
		{name: "canonical name", term: "sertraline", canonical: "sertraline"},
		{name: "brand alias", term: "lexapro", canonical: "escitalopram"},
		{name: "single-word misrecognition", term: "sertralene", canonical: "sertraline", misheard: true},
		{name: "multi-word misrecognition", term: "surgery line", canonical: "sertraline", misheard: true},
		{name: "dosage unit misrecognition", term: "mgs", canonical: "mg", misheard: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			norm := vocab.Normalize(tt.term)
			if tt.misheard {
				e, ok := idx.LookupMisrecognition(norm)
				if !ok {
					t.Fatalf("LookupMisrecognition(%q) not found", norm)
				}
				if e.Canonical != tt.canonical {
					t.Errorf("LookupMisrecognition(%q)=%q, want %q", norm, e.Canonical, tt.canonical)
				}
				return
			}
			e, ok := idx.LookupCanonical(norm)
			if !ok {
				t.Fatalf("LookupCanonical(%q) not found", norm)
			}
			if e.Canonical != tt.canonical {
				t.Errorf("LookupCanonical(%q)=%q, want %q", norm, e.Canonical, tt.canonical)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct{ in, want string }{
		{"Sertraline,", "sertraline"},
		{"  Lexapro. ", "lexapro"},
		{`"mgs")`, `"mgs`}, // only trailing punctuation is stripped
		{"mg's", "mg's"},
	}
	for _, tt := range tests {
		if got := vocab.Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q)=%q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCanonicals_MedicationsOnly(t *testing.T) {
	t.Parallel()

	meds := vocab.Default().Canonicals(vocab.CategoryMedication)
	if len(meds) == 0 {
		t.Fatal("no medication canonicals")
	}
	for _, m := range meds {
		if m == "mg" || m == "PRN" {
			t.Errorf("Canonicals(medication) contains non-medication %q", m)
		}
	}
}
