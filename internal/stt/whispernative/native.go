// Package whispernative implements [stt.Engine] in-process via the
// whisper.cpp CGO bindings, eliminating subprocess overhead entirely. The
// whisper.cpp static library (libwhisper.a) and headers must be available at
// link time via LIBRARY_PATH and C_INCLUDE_PATH.
//
// Models are loaded lazily, once per profile, and cached for the lifetime of
// the engine; contexts are created per request because a whisper context is
// not thread-safe while the model itself is shareable.
package whispernative

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/quillmed/quillmed/internal/stt"
)

// Engine runs whisper.cpp inference in-process. Safe for concurrent use;
// the orchestrator serialises requests anyway.
type Engine struct {
	modelDir string
	language string

	mu       sync.Mutex
	models   map[stt.ModelProfile]whisperlib.Model
	loadTime time.Duration
}

var (
	_ stt.Engine            = (*Engine)(nil)
	_ stt.ModelLoadReporter = (*Engine)(nil)
)

// Option is a functional option for configuring an [Engine].
type Option func(*Engine)

// WithLanguage sets the BCP-47 language code for transcription. Default "en".
func WithLanguage(lang string) Option {
	return func(e *Engine) { e.language = lang }
}

// New returns an [Engine] resolving ggml model files from modelDir.
// The caller must Close the engine to release loaded models.
func New(modelDir string, opts ...Option) (*Engine, error) {
	if modelDir == "" {
		return nil, errors.New("whispernative: model directory must not be empty")
	}
	e := &Engine{
		modelDir: modelDir,
		language: "en",
		models:   make(map[stt.ModelProfile]whisperlib.Model),
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Close releases every loaded model.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var errs []error
	for profile, m := range e.models {
		if err := m.Close(); err != nil {
			errs = append(errs, fmt.Errorf("whispernative: close %s: %w", profile, err))
		}
		delete(e.models, profile)
	}
	return errors.Join(errs...)
}

// ModelPath returns the ggml model file used for profile.
func (e *Engine) ModelPath(profile stt.ModelProfile) string {
	return filepath.Join(e.modelDir, "ggml-"+string(profile)+".bin")
}

// model returns the cached model for profile, loading it on first use. Load
// durations accumulate into [Engine.ModelLoadTime]; cache hits cost nothing.
func (e *Engine) model(profile stt.ModelProfile) (whisperlib.Model, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if m, ok := e.models[profile]; ok {
		return m, nil
	}

	path := e.ModelPath(profile)
	start := time.Now()
	m, err := whisperlib.New(path)
	if err != nil {
		return nil, &stt.Failure{Kind: stt.FailureSpawn,
			Err: fmt.Errorf("whispernative: load model %q: %w", path, err)}
	}
	e.models[profile] = m
	e.loadTime += time.Since(start)
	return m, nil
}

// ModelLoadTime implements [stt.ModelLoadReporter]: the cumulative time spent
// loading models since the engine was created.
func (e *Engine) ModelLoadTime() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadTime
}

// Transcribe decodes the WAV file at audioPath, runs whisper.cpp inference,
// and returns the concatenated segment text.
func (e *Engine) Transcribe(ctx context.Context, audioPath string, profile stt.ModelProfile, onProgress stt.ProgressFunc) (string, error) {
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return "", &stt.Failure{Kind: stt.FailureInput, Err: fmt.Errorf("whispernative: read %q: %w", audioPath, err)}
	}
	pcm, channels, err := decodeWAV(data)
	if err != nil {
		return "", &stt.Failure{Kind: stt.FailureInput, Err: err}
	}
	samples := pcmToFloat32Mono(pcm, channels)

	m, err := e.model(profile)
	if err != nil {
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", &stt.Failure{Kind: stt.FailureExit, Err: err}
	}

	// Each inference gets a fresh context: contexts are not thread-safe,
	// only the model is shareable.
	wctx, err := m.NewContext()
	if err != nil {
		return "", &stt.Failure{Kind: stt.FailureExit, Err: fmt.Errorf("whispernative: create context: %w", err)}
	}
	if err := wctx.SetLanguage(e.language); err != nil {
		return "", &stt.Failure{Kind: stt.FailureExit, Err: fmt.Errorf("whispernative: set language %q: %w", e.language, err)}
	}

	var progressCb whisperlib.ProgressCallback
	if onProgress != nil {
		progressCb = func(pct int) {
			onProgress(stt.Progress{Stage: "transcribe", Percent: float64(pct)})
		}
	}

	if err := wctx.Process(samples, nil, nil, progressCb); err != nil {
		return "", &stt.Failure{Kind: stt.FailureExit, Err: fmt.Errorf("whispernative: process audio: %w", err)}
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", &stt.Failure{Kind: stt.FailureParse, Err: fmt.Errorf("whispernative: read segment: %w", err)}
		}
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, " "), nil
}
