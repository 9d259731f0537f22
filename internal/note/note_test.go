package note_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/quillmed/quillmed/internal/note"
)

func TestNewContainsEveryTemplateSection(t *testing.T) {
	t.Parallel()

	n := note.New(note.MethodRuleBased)
	for _, name := range note.SectionNames {
		if got := n.Section(name); got != note.Placeholder {
			t.Errorf("Section(%q) = %q, want placeholder", name, got)
		}
	}
}

func TestSetSection(t *testing.T) {
	t.Parallel()

	n := note.New(note.MethodRuleBased)
	if err := n.SetSection("Plan", "Continue sertraline 100mg daily."); err != nil {
		t.Fatalf("SetSection: %v", err)
	}
	if got := n.Section("Plan"); got != "Continue sertraline 100mg daily." {
		t.Errorf("Section(Plan) = %q", got)
	}

	if err := n.SetSection("Lab Results", "x"); err == nil {
		t.Error("SetSection with unknown section: want error, got nil")
	}

	// Blank bodies fall back to the placeholder rather than leaving an empty
	// section.
	if err := n.SetSection("Plan", "   "); err != nil {
		t.Fatalf("SetSection blank: %v", err)
	}
	if got := n.Section("Plan"); got != note.Placeholder {
		t.Errorf("Section(Plan) after blank set = %q, want placeholder", got)
	}
}

func TestAppendDisplacesPlaceholder(t *testing.T) {
	t.Parallel()

	n := note.New(note.MethodRuleBased)
	if err := n.Append("Assessment", "MDD, in partial remission."); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if got := n.Section("Assessment"); got != "MDD, in partial remission." {
		t.Errorf("Section(Assessment) = %q", got)
	}

	if err := n.Append("Assessment", "GAD."); err != nil {
		t.Fatalf("Append: %v", err)
	}
	want := "MDD, in partial remission.\nGAD."
	if got := n.Section("Assessment"); got != want {
		t.Errorf("Section(Assessment) = %q, want %q", got, want)
	}
}

func TestRenderListsSectionsInTemplateOrder(t *testing.T) {
	t.Parallel()

	n := note.New(note.MethodLLMBased)
	out := n.Render()

	last := -1
	for _, name := range note.SectionNames {
		idx := strings.Index(out, strings.ToUpper(name)+":")
		if idx < 0 {
			t.Fatalf("Render() missing header for %q", name)
		}
		if idx < last {
			t.Errorf("header %q out of template order", name)
		}
		last = idx
	}
}

func TestRuleBasedSplitsOnCues(t *testing.T) {
	t.Parallel()

	transcript := "This is Dr. Chen dictating on patient John Doe. " +
		"Chief complaint: low mood and poor sleep. " +
		"Current medications: Lexapro 20mg (one pill per day). " +
		"Risk assessment: no suicidal ideation. " +
		"Plan: continue current dose."

	n, err := note.NewRuleBased().Format(context.Background(), transcript)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if n.Method != note.MethodRuleBased {
		t.Errorf("Method = %q, want rule-based", n.Method)
	}

	if got := n.Section("Identification"); !strings.Contains(got, "Dr. Chen") {
		t.Errorf("Identification = %q, want lead-in text", got)
	}
	if got := n.Section("Current Medications"); !strings.Contains(got, "Lexapro 20mg (one pill per day)") {
		t.Errorf("Current Medications = %q, want verbatim medication line", got)
	}
	// "Risk assessment" must not spill into the plain Assessment section.
	if got := n.Section("Risk Assessment"); !strings.Contains(got, "no suicidal ideation") {
		t.Errorf("Risk Assessment = %q", got)
	}
	if got := n.Section("Assessment"); got != note.Placeholder {
		t.Errorf("Assessment = %q, want placeholder", got)
	}
	if got := n.Section("Plan"); !strings.Contains(got, "continue current dose") {
		t.Errorf("Plan = %q", got)
	}
}

func TestRuleBasedDegenerateInputs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		transcript string
	}{
		{"empty", ""},
		{"whitespace", "   \n\t "},
		{"no cues", "patient doing well overall no changes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			n, err := note.NewRuleBased().Format(context.Background(), tt.transcript)
			if err != nil {
				t.Fatalf("Format: %v", err)
			}
			for _, name := range note.SectionNames {
				if n.Section(name) == "" {
					t.Errorf("section %q empty, want placeholder or content", name)
				}
			}
		})
	}

	// Cue-free content must land somewhere, not vanish.
	n, _ := note.NewRuleBased().Format(context.Background(), "patient doing well overall")
	if got := n.Section("Identification"); !strings.Contains(got, "patient doing well") {
		t.Errorf("Identification = %q, want cue-free content", got)
	}
}

type failingStrategy struct{ err error }

func (f failingStrategy) Format(context.Context, string) (*note.Note, error) {
	return nil, f.err
}

type cannedStrategy struct{ note *note.Note }

func (c cannedStrategy) Format(context.Context, string) (*note.Note, error) {
	return c.note, nil
}

func TestFormatterFallsBackToRules(t *testing.T) {
	t.Parallel()

	f := note.NewFormatter(failingStrategy{err: errors.New("connection refused")})
	n, err := f.Format(context.Background(), "Plan: taper slowly.")
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if n.Method != note.MethodRuleBased {
		t.Errorf("Method = %q, want rule-based fallback", n.Method)
	}
	if got := n.Section("Plan"); !strings.Contains(got, "taper slowly") {
		t.Errorf("Plan = %q", got)
	}
}

func TestFormatterPrefersPrimary(t *testing.T) {
	t.Parallel()

	want := note.New(note.MethodLLMBased)
	want.SetSection("Plan", "increase to 150mg")

	f := note.NewFormatter(cannedStrategy{note: want})
	n, err := f.Format(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if n.Method != note.MethodLLMBased {
		t.Errorf("Method = %q, want llm-based", n.Method)
	}
	if got := n.Section("Plan"); got != "increase to 150mg" {
		t.Errorf("Plan = %q", got)
	}
}

func TestFormatterWithoutPrimaryUsesRules(t *testing.T) {
	t.Parallel()

	f := note.NewFormatter(nil)
	n, err := f.Format(context.Background(), "")
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if n.Method != note.MethodRuleBased {
		t.Errorf("Method = %q, want rule-based", n.Method)
	}
}
