// Package app wires all pipeline stages into a running application.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems from config, Run executes one dictation through the pipeline
// (preprocess → transcribe → correct → format → verify → export), and Close
// tears everything down.
//
// For testing, inject doubles via functional options (WithPreparer,
// WithEngine, WithPrimaryStrategy, etc.). When an option is not provided,
// New creates real implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/quillmed/quillmed/internal/audio"
	"github.com/quillmed/quillmed/internal/config"
	"github.com/quillmed/quillmed/internal/export"
	"github.com/quillmed/quillmed/internal/note"
	"github.com/quillmed/quillmed/internal/note/llmformat"
	"github.com/quillmed/quillmed/internal/note/verify"
	"github.com/quillmed/quillmed/internal/observe"
	"github.com/quillmed/quillmed/internal/stt"
	"github.com/quillmed/quillmed/internal/stt/whispercli"
	"github.com/quillmed/quillmed/internal/stt/whispernative"
	"github.com/quillmed/quillmed/internal/transcript"
	"github.com/quillmed/quillmed/internal/vocab"
	"github.com/quillmed/quillmed/pkg/provider/llm/openai"
)

// Preparer abstracts the audio preprocessor for testing.
type Preparer interface {
	Prepare(ctx context.Context, sourcePath string) (*audio.Prepared, error)
}

// RunResult carries everything one pipeline run produced.
type RunResult struct {
	// RawText is the stitched transcript straight from the engine.
	RawText string

	// CorrectedText is the transcript after vocabulary correction.
	CorrectedText string

	// Corrections is the audit list of substitutions applied.
	Corrections []transcript.Correction

	// Note is the final formatted note, after any reinjection pass.
	Note *note.Note

	// Report is the verification report for Note. May be invalid; the note
	// is still surfaced for human review.
	Report verify.Report

	// Reinjected counts sentences recovered by the reinjection pass.
	Reinjected int

	// Paths locates the written artifacts.
	Paths export.Paths

	// TranscribeTime is how long the engine spent on the audio.
	TranscribeTime time.Duration
}

// App owns all subsystem lifetimes and runs dictations through the pipeline.
type App struct {
	cfg       *config.Config
	preparer  Preparer
	orch      *stt.Orchestrator
	corrector *transcript.Corrector
	formatter *note.Formatter
	verifier  *verify.Verifier
	exporter  *export.Writer
	metrics   *observe.Metrics
	progress  stt.ProgressFunc

	llmConfigured bool

	closers  []func() error
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithPreparer injects an audio preparer instead of building the ffmpeg
// preprocessor from config.
func WithPreparer(p Preparer) Option {
	return func(a *App) { a.preparer = p }
}

// WithEngine injects a transcription engine instead of building one from
// config.
func WithEngine(e stt.Engine) Option {
	return func(a *App) { a.orch = stt.NewOrchestrator(e) }
}

// WithPrimaryStrategy injects the primary note formatting strategy instead
// of constructing the LLM formatter from config.
func WithPrimaryStrategy(s note.Strategy) Option {
	return func(a *App) {
		a.formatter = note.NewFormatter(s)
		a.llmConfigured = s != nil
	}
}

// WithMetrics injects a metrics instance; tests use a manual reader.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithProgress receives transcription progress updates. Defaults to debug
// logging.
func WithProgress(fn stt.ProgressFunc) Option {
	return func(a *App) { a.progress = fn }
}

// New builds the pipeline from cfg.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: config must not be nil")
	}
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}

	if a.preparer == nil {
		pre, err := audio.NewPreprocessor(audio.Config{
			ChunkSeconds:      cfg.Audio.ChunkSeconds,
			OverlapSeconds:    cfg.Audio.OverlapSeconds,
			ShortAudioSeconds: cfg.Audio.ShortAudioSeconds,
			FFmpegPath:        cfg.Audio.FFmpegPath,
			FFprobePath:       cfg.Audio.FFprobePath,
		})
		if err != nil {
			return nil, err
		}
		a.preparer = pre
	}

	if a.orch == nil {
		engine, err := a.buildEngine()
		if err != nil {
			return nil, err
		}
		a.orch = stt.NewOrchestrator(engine)
	}
	if cfg.STT.ModelProfile != "" {
		a.orch.SelectModel(stt.ModelProfile(cfg.STT.ModelProfile))
	}

	a.corrector = transcript.New(vocab.Default())

	if a.formatter == nil {
		primary, err := a.buildPrimaryStrategy()
		if err != nil {
			return nil, err
		}
		a.formatter = note.NewFormatter(primary)
		a.llmConfigured = primary != nil
	}

	var verifyOpts []verify.Option
	if cfg.Verify.CoverageThreshold > 0 {
		verifyOpts = append(verifyOpts, verify.WithCoverageThreshold(cfg.Verify.CoverageThreshold))
	}
	if cfg.Verify.LengthMultiplier > 0 {
		verifyOpts = append(verifyOpts, verify.WithLengthMultiplier(cfg.Verify.LengthMultiplier))
	}
	verifier, err := verify.New(verifyOpts...)
	if err != nil {
		return nil, err
	}
	a.verifier = verifier

	dir := cfg.Export.Dir
	if dir == "" {
		dir = "."
	}
	exporter, err := export.New(dir)
	if err != nil {
		return nil, err
	}
	a.exporter = exporter

	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	if a.progress == nil {
		a.progress = func(p stt.Progress) {
			slog.Debug("transcription progress", "stage", p.Stage, "percent", p.Percent)
		}
	}
	return a, nil
}

func (a *App) buildEngine() (stt.Engine, error) {
	var langOptCLI []whispercli.Option
	var langOptNative []whispernative.Option
	if a.cfg.STT.Language != "" {
		langOptCLI = append(langOptCLI, whispercli.WithLanguage(a.cfg.STT.Language))
		langOptNative = append(langOptNative, whispernative.WithLanguage(a.cfg.STT.Language))
	}

	switch a.cfg.STT.Engine {
	case config.EngineNative:
		engine, err := whispernative.New(a.cfg.STT.ModelDir, langOptNative...)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, engine.Close)
		return engine, nil
	default:
		return whispercli.New(a.cfg.STT.BinaryPath, a.cfg.STT.ModelDir, langOptCLI...)
	}
}

func (a *App) buildPrimaryStrategy() (note.Strategy, error) {
	if !a.cfg.LLM.Enabled {
		return nil, nil
	}
	var provOpts []openai.Option
	if a.cfg.LLM.TimeoutSeconds > 0 {
		provOpts = append(provOpts, openai.WithTimeout(
			time.Duration(a.cfg.LLM.TimeoutSeconds*float64(time.Second))))
	}
	provider, err := openai.New(a.cfg.LLM.BaseURL, a.cfg.LLM.Model, provOpts...)
	if err != nil {
		return nil, err
	}
	formatter, err := llmformat.New(provider)
	if err != nil {
		return nil, err
	}
	return formatter, nil
}

// Run processes one recording end to end and writes the artifacts. The
// returned result always carries the best available note and its report,
// even when the report is invalid — human review is the recovery path.
func (a *App) Run(ctx context.Context, audioPath string) (*RunResult, error) {
	res, err := a.run(ctx, audioPath)
	if err != nil {
		a.metrics.RecordPipelineRun(ctx, "error")
		return nil, err
	}
	a.metrics.RecordPipelineRun(ctx, "ok")
	return res, nil
}

func (a *App) run(ctx context.Context, audioPath string) (*RunResult, error) {
	prepared, err := a.timedPrepare(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := prepared.Cleanup(); err != nil {
			slog.Warn("temp cleanup failed", "error", err)
		}
	}()

	sttResult, err := a.timedTranscribe(ctx, prepared)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	corrected := a.corrector.Correct(sttResult.RawText)
	a.metrics.RecordStage(ctx, "correct", time.Since(start), nil, "")
	for _, c := range corrected.Corrections {
		a.metrics.RecordCorrection(ctx, string(c.Kind), string(c.Confidence))
	}

	start = time.Now()
	n, err := a.formatter.Format(ctx, corrected.Corrected)
	a.metrics.RecordStage(ctx, "format", time.Since(start), err, "format")
	if err != nil {
		return nil, err
	}
	if a.llmConfigured && n.Method == note.MethodRuleBased {
		a.metrics.FormatterFallbacks.Add(ctx, 1)
	}

	start = time.Now()
	report := a.verifier.Verify(corrected.Corrected, n.Render())
	reinjected := 0
	if !report.IsValid && len(report.MissingTerms) > 0 {
		// One bounded recovery pass, then surface whatever we have.
		reinjected = verify.Reinject(n, corrected.Corrected, report)
		if reinjected > 0 {
			a.metrics.Reinjections.Add(ctx, int64(reinjected))
			report = a.verifier.Verify(corrected.Corrected, n.Render())
		}
	}
	a.metrics.RecordStage(ctx, "verify", time.Since(start), nil, "")
	if !report.IsValid {
		slog.Warn("note failed verification, surfacing for review",
			"coverage_percent", report.CoveragePercent,
			"missing_terms", len(report.MissingTerms),
			"suspected_hallucinations", len(report.SuspectedHallucinations))
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	start = time.Now()
	paths, err := a.exporter.Write(base, n, report, corrected.Corrections)
	a.metrics.RecordStage(ctx, "export", time.Since(start), err, "io")
	if err != nil {
		return nil, err
	}

	return &RunResult{
		RawText:        sttResult.RawText,
		CorrectedText:  corrected.Corrected,
		Corrections:    corrected.Corrections,
		Note:           n,
		Report:         report,
		Reinjected:     reinjected,
		Paths:          paths,
		TranscribeTime: sttResult.TranscribeTime,
	}, nil
}

func (a *App) timedPrepare(ctx context.Context, audioPath string) (*audio.Prepared, error) {
	start := time.Now()
	prepared, err := a.preparer.Prepare(ctx, audioPath)
	a.metrics.RecordStage(ctx, "preprocess", time.Since(start), err, "input")
	if err != nil {
		return nil, fmt.Errorf("app: preprocess: %w", err)
	}
	slog.Info("audio prepared",
		"duration_seconds", prepared.DurationSeconds,
		"chunks", len(prepared.Chunks))
	return prepared, nil
}

func (a *App) timedTranscribe(ctx context.Context, prepared *audio.Prepared) (*stt.Result, error) {
	start := time.Now()
	res, err := a.orch.Transcribe(ctx, prepared.Chunks, a.progress)
	a.metrics.RecordStage(ctx, "transcribe", time.Since(start), err, failureKind(err))
	if err != nil {
		return nil, fmt.Errorf("app: transcribe: %w", err)
	}
	return res, nil
}

// failureKind extracts the structured kind from orchestrator failures for
// metric attribution.
func failureKind(err error) string {
	if err == nil {
		return ""
	}
	var f *stt.Failure
	if errors.As(err, &f) {
		return string(f.Kind)
	}
	return "unknown"
}

// Close releases engine resources. Safe to call more than once.
func (a *App) Close() error {
	var errs []error
	a.stopOnce.Do(func() {
		for _, c := range a.closers {
			if err := c(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}
