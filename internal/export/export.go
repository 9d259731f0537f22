// Package export renders pipeline results to their output artifacts: the
// plain-text note, a PDF rendering, the verification report and the
// correction audit list.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/quillmed/quillmed/internal/note"
	"github.com/quillmed/quillmed/internal/note/verify"
	"github.com/quillmed/quillmed/internal/transcript"
)

// Paths lists the artifact files produced by one [Writer.Write] call.
type Paths struct {
	Text        string `json:"text"`
	PDF         string `json:"pdf"`
	Report      string `json:"report"`
	Corrections string `json:"corrections"`
}

// Writer renders notes into a fixed output directory.
type Writer struct {
	dir string
}

// New creates a Writer, creating dir if necessary.
func New(dir string) (*Writer, error) {
	if dir == "" {
		return nil, fmt.Errorf("export: output directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("export: create output directory: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// Write produces all artifacts for the note under the given base name
// (typically the audio file name without extension). Existing files are
// overwritten.
func (w *Writer) Write(base string, n *note.Note, report verify.Report, corrections []transcript.Correction) (Paths, error) {
	p := Paths{
		Text:        filepath.Join(w.dir, base+".txt"),
		PDF:         filepath.Join(w.dir, base+".pdf"),
		Report:      filepath.Join(w.dir, base+".report.json"),
		Corrections: filepath.Join(w.dir, base+".corrections.json"),
	}

	if err := os.WriteFile(p.Text, []byte(n.Render()+"\n"), 0o644); err != nil {
		return Paths{}, fmt.Errorf("export: write text: %w", err)
	}
	if err := writePDF(p.PDF, n); err != nil {
		return Paths{}, fmt.Errorf("export: write pdf: %w", err)
	}
	if err := writeJSON(p.Report, report); err != nil {
		return Paths{}, fmt.Errorf("export: write report: %w", err)
	}
	if corrections == nil {
		corrections = []transcript.Correction{}
	}
	if err := writeJSON(p.Corrections, corrections); err != nil {
		return Paths{}, fmt.Errorf("export: write corrections: %w", err)
	}
	return p, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// writePDF renders the note as an A4 document, one bold header per section.
func writePDF(path string, n *note.Note) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Clinical Note", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, "Clinical Note", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	for _, name := range note.SectionNames {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 7, tr(strings.ToUpper(name)), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, tr(n.Section(name)), "", "L", false)
		pdf.Ln(3)
	}

	return pdf.OutputFileAndClose(path)
}
