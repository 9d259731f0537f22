// Package stt defines the transcription engine abstraction and the
// orchestrator that serialises transcription requests.
//
// An [Engine] turns one audio file into text. Two implementations exist:
// whispercli (external whisper executable, see the whispercli subpackage) and
// whispernative (in-process whisper.cpp bindings). The [Orchestrator] owns
// the system-wide single-processing guarantee: at most one transcription is
// in flight at any time, and a second request fails fast with a busy error
// instead of queueing silently.
package stt

import (
	"context"
	"fmt"
	"time"
)

// ModelProfile selects the whisper model size/quality trade-off.
type ModelProfile string

// Supported model profiles. The set is fixed; anything else is rejected by
// [ModelProfile.IsValid].
const (
	ProfileBase     ModelProfile = "base"
	ProfileSmallEN  ModelProfile = "small.en"
	ProfileMediumEN ModelProfile = "medium.en"
	ProfileLargeV3  ModelProfile = "large-v3"
)

// IsValid reports whether p is a recognised model profile.
func (p ModelProfile) IsValid() bool {
	switch p {
	case ProfileBase, ProfileSmallEN, ProfileMediumEN, ProfileLargeV3:
		return true
	}
	return false
}

// Progress is a point-in-time progress report for one transcription request.
type Progress struct {
	// Stage names the pipeline step currently executing (e.g., "transcribe").
	Stage string

	// Percent is overall completion in [0, 100]. Within one request it never
	// decreases; rapid updates may be coalesced.
	Percent float64
}

// ProgressFunc receives progress updates. May be nil when the caller does not
// care. Implementations must be fast — they are called from the engine's
// stream-reading path.
type ProgressFunc func(Progress)

// Result is the successful outcome of a transcription request. It is
// immutable once returned.
type Result struct {
	// RawText is the concatenated transcription of all chunks.
	RawText string

	// ModelLoadTime and TranscribeTime are timing diagnostics. TranscribeTime
	// covers the whole transcription loop; ModelLoadTime is the share of it
	// spent lazily loading models. Engines that cannot separate loading from
	// inference leave ModelLoadTime zero.
	ModelLoadTime  time.Duration
	TranscribeTime time.Duration
}

// FailureKind discriminates the ways a transcription request can fail.
// Parse failures are deliberately distinct from exit failures: a malformed
// payload indicates an integration or version mismatch with the engine, not
// a transient fault.
type FailureKind string

const (
	// FailureBusy: another request is already in flight.
	FailureBusy FailureKind = "busy"

	// FailureInput: the audio file is missing or unreadable.
	FailureInput FailureKind = "input"

	// FailureSpawn: the engine process could not be started.
	FailureSpawn FailureKind = "spawn"

	// FailureExit: the engine started but crashed or exited non-zero.
	FailureExit FailureKind = "exit"

	// FailureParse: the engine exited cleanly but its output payload did not
	// match the expected shape.
	FailureParse FailureKind = "parse"
)

// Failure is the structured error returned for every transcription failure.
// Callers discriminate with errors.As and inspect Kind.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("stt: %s failure", f.Kind)
	}
	return fmt.Sprintf("stt: %s failure: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// failf builds a *Failure of the given kind.
func failf(kind FailureKind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Engine transcribes a single prepared audio file.
//
// Implementations must respect ctx cancellation by terminating any external
// process they spawned — abandoned subprocess handles are resource leaks.
// Returned errors should be *[Failure] values so the orchestrator can
// propagate the failure kind.
type Engine interface {
	Transcribe(ctx context.Context, audioPath string, profile ModelProfile, onProgress ProgressFunc) (string, error)
}

// ModelLoadReporter is implemented by engines that load models lazily and
// account for the time spent doing so. The reported value is cumulative over
// the engine's lifetime; the orchestrator diffs it around each request to
// attribute per-request load time in [Result.ModelLoadTime].
type ModelLoadReporter interface {
	ModelLoadTime() time.Duration
}
