package stt

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/quillmed/quillmed/internal/audio"
)

// State is the orchestrator's lifecycle state. It exists for observability;
// the busy guard itself is the semaphore, not this value.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// maxStitchWindow bounds how many trailing words of the previous chunk are
// compared against the head of the next chunk when deduplicating overlap.
const maxStitchWindow = 16

// Orchestrator serialises transcription requests over one [Engine].
//
// The single-processing guarantee is system-wide: construct exactly one
// Orchestrator per process and route every request through it. A second
// Transcribe call while one is running fails immediately with a
// [FailureBusy] error; it never queues. The running state is reset
// unconditionally when the request finishes, whatever the outcome, so a
// failed request can never leave the orchestrator stuck busy.
type Orchestrator struct {
	engine Engine

	// busy is the single system-wide in-flight guard.
	busy *semaphore.Weighted

	mu      sync.Mutex
	profile ModelProfile
	state   State
}

// OrchestratorOption is a functional option for [NewOrchestrator].
type OrchestratorOption func(*Orchestrator)

// WithProfile sets the initial model profile. Invalid profiles are ignored,
// keeping the default.
func WithProfile(p ModelProfile) OrchestratorOption {
	return func(o *Orchestrator) {
		if p.IsValid() {
			o.profile = p
		}
	}
}

// NewOrchestrator returns an [Orchestrator] over engine. The default model
// profile is [ProfileBase].
func NewOrchestrator(engine Engine, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		engine:  engine,
		busy:    semaphore.NewWeighted(1),
		profile: ProfileBase,
		state:   StateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SelectModel switches the model profile used by subsequent requests.
// An unrecognised profile keeps the previous selection rather than erroring:
// a transiently bad configuration must never leave the system without a
// valid model.
func (o *Orchestrator) SelectModel(profile ModelProfile) {
	if !profile.IsValid() {
		slog.Warn("ignoring unknown model profile", "profile", string(profile), "keeping", string(o.Profile()))
		return
	}
	o.mu.Lock()
	o.profile = profile
	o.mu.Unlock()
}

// Profile returns the currently selected model profile.
func (o *Orchestrator) Profile() ModelProfile {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.profile
}

// State returns the orchestrator's current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// Transcribe runs the engine over every chunk in order and returns the
// stitched transcript. Errors are *[Failure] values carrying the failure
// kind; a busy rejection does not disturb the in-flight request.
func (o *Orchestrator) Transcribe(ctx context.Context, chunks []audio.Chunk, onProgress ProgressFunc) (*Result, error) {
	if !o.busy.TryAcquire(1) {
		return nil, failf(FailureBusy, "a transcription is already running; retry when it finishes")
	}
	defer func() {
		// Unconditional reset: whatever happened above, the next request
		// must find the orchestrator idle.
		o.setState(StateIdle)
		o.busy.Release(1)
	}()
	o.setState(StateRunning)

	if len(chunks) == 0 {
		o.setState(StateFailed)
		return nil, failf(FailureInput, "no audio chunks to transcribe")
	}
	for _, c := range chunks {
		if _, err := os.Stat(c.SourcePath); err != nil {
			o.setState(StateFailed)
			return nil, failf(FailureInput, "chunk %q: %w", c.SourcePath, err)
		}
	}

	profile := o.Profile()
	emit := newMonotonicProgress(onProgress)

	reporter, _ := o.engine.(ModelLoadReporter)
	var loadBefore time.Duration
	if reporter != nil {
		loadBefore = reporter.ModelLoadTime()
	}

	start := time.Now()
	var parts []string
	for i, chunk := range chunks {
		chunkText, err := o.engine.Transcribe(ctx, chunk.SourcePath, profile, chunkProgress(emit, i, len(chunks)))
		if err != nil {
			o.setState(StateFailed)
			if f, ok := err.(*Failure); ok {
				return nil, f
			}
			return nil, &Failure{Kind: FailureExit, Err: err}
		}
		parts = stitch(parts, chunkText, chunk.OverlapSeconds > 0)
	}
	emit(Progress{Stage: "transcribe", Percent: 100})

	res := &Result{
		RawText:        strings.TrimSpace(strings.Join(parts, " ")),
		TranscribeTime: time.Since(start),
	}
	if reporter != nil {
		res.ModelLoadTime = reporter.ModelLoadTime() - loadBefore
	}

	o.setState(StateCompleted)
	return res, nil
}

// newMonotonicProgress wraps onProgress so that Percent never regresses
// within one request. Nil-safe.
func newMonotonicProgress(onProgress ProgressFunc) ProgressFunc {
	if onProgress == nil {
		return func(Progress) {}
	}
	var last float64
	return func(p Progress) {
		if p.Percent < last {
			return
		}
		last = p.Percent
		onProgress(p)
	}
}

// chunkProgress rescales an engine's per-chunk 0–100 progress into the
// request-wide range for chunk i of n.
func chunkProgress(emit ProgressFunc, i, n int) ProgressFunc {
	return func(p Progress) {
		overall := (float64(i) + p.Percent/100) / float64(n) * 100
		emit(Progress{Stage: p.Stage, Percent: overall})
	}
}

// stitch appends the next chunk's words to parts, dropping the longest head
// of next that repeats the current tail — the audio overlap means boundary
// words were transcribed twice. Comparison is case- and punctuation-
// insensitive; the kept words come from the next chunk, which heard them
// with full context.
func stitch(parts []string, next string, overlapped bool) []string {
	nextWords := strings.Fields(next)
	if len(parts) == 0 || !overlapped {
		return append(parts, nextWords...)
	}

	window := maxStitchWindow
	if window > len(parts) {
		window = len(parts)
	}
	if window > len(nextWords) {
		window = len(nextWords)
	}

	for n := window; n > 0; n-- {
		if wordsEqualFold(parts[len(parts)-n:], nextWords[:n]) {
			parts = parts[:len(parts)-n]
			break
		}
	}
	return append(parts, nextWords...)
}

func wordsEqualFold(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if normalizeWord(a[i]) != normalizeWord(b[i]) {
			return false
		}
	}
	return true
}

func normalizeWord(w string) string {
	return strings.ToLower(strings.Trim(w, ".,;:!?\"'"))
}
