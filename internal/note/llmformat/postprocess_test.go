package llmformat

import (
	"testing"
	"time"
)

func TestCollapseDictationCues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "period cue becomes full stop",
			in:   "Patient is stable period Will continue current dose period",
			want: "Patient is stable. Will continue current dose.",
		},
		{
			name: "comma cue",
			in:   "Sleep improved comma appetite unchanged",
			want: "Sleep improved, appetite unchanged",
		},
		{
			name: "new paragraph cue",
			in:   "No side effects new paragraph Plan unchanged",
			want: "No side effects\nPlan unchanged",
		},
		{
			name: "protected interim period survives",
			in:   "During the interim period the patient stayed abstinent period",
			want: "During the interim period the patient stayed abstinent.",
		},
		{
			name: "protected grace period survives",
			in:   "a grace period before refills period",
			want: "a grace period before refills.",
		},
		{
			name: "no cues untouched",
			in:   "Continue sertraline 100mg daily.",
			want: "Continue sertraline 100mg daily.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := collapseDictationCues(tt.in); got != tt.want {
				t.Errorf("collapseDictationCues(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTitleCaseDiagnoses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain diagnosis",
			in:   "major depressive disorder",
			want: "Major Depressive Disorder",
		},
		{
			name: "abbreviation stays upper",
			in:   "ptsd, chronic",
			want: "PTSD, Chronic",
		},
		{
			name: "connector words stay lower",
			in:   "disorder of sleep with insomnia",
			want: "Disorder of Sleep with Insomnia",
		},
		{
			name: "multiple lines",
			in:   "gad\nmdd, recurrent",
			want: "GAD\nMDD, Recurrent",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := titleCaseDiagnoses(tt.in); got != tt.want {
				t.Errorf("titleCaseDiagnoses(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeSignatureDate(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, time.March, 10, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "numeric date replaced",
			in:   "Dr. Lee\n12/05/2024",
			want: "Dr. Lee\nMarch 10, 2026",
		},
		{
			name: "written date replaced",
			in:   "Dr. Lee, January 3, 2025",
			want: "Dr. Lee, March 10, 2026",
		},
		{
			name: "todays date phrase replaced",
			in:   "Signed on today's date",
			want: "Signed on March 10, 2026",
		},
		{
			name: "date appended when absent",
			in:   "Dr. Lee",
			want: "Dr. Lee\nMarch 10, 2026",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := normalizeSignatureDate(tt.in, at); got != tt.want {
				t.Errorf("normalizeSignatureDate(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseSectionsToleratesMarkdownHeaders(t *testing.T) {
	t.Parallel()

	out := "Here is the note:\n" +
		"**IDENTIFICATION:** Dr. Chen, patient John Doe.\n" +
		"## Chief Complaint:\nLow mood.\nPoor sleep.\n" +
		"CURRENT MEDICATIONS:\nLexapro 20mg (one pill per day)\n"

	got := parseSections(out)
	if got["Identification"] != "Dr. Chen, patient John Doe." {
		t.Errorf("Identification = %q", got["Identification"])
	}
	if got["Chief Complaint"] != "Low mood.\nPoor sleep." {
		t.Errorf("Chief Complaint = %q", got["Chief Complaint"])
	}
	if got["Current Medications"] != "Lexapro 20mg (one pill per day)" {
		t.Errorf("Current Medications = %q", got["Current Medications"])
	}
}
