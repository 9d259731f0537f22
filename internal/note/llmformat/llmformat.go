// Package llmformat implements the LLM-backed note formatting strategy.
//
// It prompts a local OpenAI-compatible model with the fixed section template,
// a worked example and the clinical abbreviation table, then post-processes
// the response: headers are normalized to the canonical template, leftover
// spoken punctuation commands are collapsed, diagnosis lines are title-cased
// and the signature date is pinned to the transcription date. Errors from the
// model backend propagate so the caller's fallback chain can take over.
package llmformat

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/quillmed/quillmed/internal/note"
	"github.com/quillmed/quillmed/pkg/provider/llm"
)

// Formatter is the LLM-backed [note.Strategy].
type Formatter struct {
	provider      llm.Provider
	transcribedAt func() time.Time
}

// Option is a functional option for Formatter.
type Option func(*Formatter)

// WithTranscriptionTime fixes the timestamp written into the signature
// section. Defaults to time.Now at format time.
func WithTranscriptionTime(t time.Time) Option {
	return func(f *Formatter) {
		f.transcribedAt = func() time.Time { return t }
	}
}

// New creates a Formatter talking to the given provider.
func New(provider llm.Provider, opts ...Option) (*Formatter, error) {
	if provider == nil {
		return nil, fmt.Errorf("llmformat: provider must not be nil")
	}
	f := &Formatter{
		provider:      provider,
		transcribedAt: time.Now,
	}
	for _, o := range opts {
		o(f)
	}
	return f, nil
}

// Format implements [note.Strategy].
func (f *Formatter) Format(ctx context.Context, transcript string) (*note.Note, error) {
	resp, err := f.provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		Prompt:       buildUserPrompt(transcript),
		Temperature:  0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("llmformat: completion: %w", err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return nil, fmt.Errorf("llmformat: model returned empty response")
	}
	slog.Debug("llm formatting response received",
		"prompt_version", PromptVersion,
		"completion_tokens", resp.Usage.CompletionTokens)

	n := note.New(note.MethodLLMBased)
	for section, body := range parseSections(resp.Content) {
		body = collapseDictationCues(body)
		switch section {
		case "Problem List", "Assessment":
			body = titleCaseDiagnoses(body)
		case "Signature":
			body = normalizeSignatureDate(body, f.transcribedAt())
		}
		if err := n.SetSection(section, body); err != nil {
			return nil, fmt.Errorf("llmformat: %w", err)
		}
	}
	return n, nil
}

// headerRe matches a section header line in model output, tolerating
// markdown bold markers, leading hashes and trailing colons.
var headerRe = regexp.MustCompile(`^\s*(?:#+\s*)?\*{0,2}([A-Za-z][A-Za-z ]*?)\*{0,2}\s*:\s*\*{0,2}\s*(.*)$`)

// parseSections splits model output into canonical-section → body.
// Unrecognized header lines stay with the preceding section so content
// survives sloppy model formatting; preamble chatter before the first real
// header is discarded.
func parseSections(text string) map[string]string {
	sections := make(map[string]string)
	current := ""
	var body []string

	flush := func() {
		if current == "" {
			return
		}
		joined := strings.TrimSpace(strings.Join(body, "\n"))
		if prev, ok := sections[current]; ok && prev != "" && joined != "" {
			joined = prev + "\n" + joined
		} else if ok && joined == "" {
			joined = prev
		}
		sections[current] = joined
	}

	for _, line := range strings.Split(text, "\n") {
		if m := headerRe.FindStringSubmatch(line); m != nil {
			if canonical, ok := note.CanonicalSection(m[1]); ok {
				flush()
				current = canonical
				body = body[:0]
				if rest := strings.TrimSpace(m[2]); rest != "" {
					body = append(body, rest)
				}
				continue
			}
		}
		body = append(body, line)
	}
	flush()
	return sections
}

var _ note.Strategy = (*Formatter)(nil)
