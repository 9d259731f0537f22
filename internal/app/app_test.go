package app_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/quillmed/quillmed/internal/app"
	"github.com/quillmed/quillmed/internal/audio"
	"github.com/quillmed/quillmed/internal/config"
	"github.com/quillmed/quillmed/internal/note"
	"github.com/quillmed/quillmed/internal/observe"
	"github.com/quillmed/quillmed/internal/stt"
)

type fakePreparer struct {
	chunkPaths []string
	err        error
}

func (f *fakePreparer) Prepare(_ context.Context, _ string) (*audio.Prepared, error) {
	if f.err != nil {
		return nil, f.err
	}
	chunks := make([]audio.Chunk, len(f.chunkPaths))
	for i, p := range f.chunkPaths {
		chunks[i] = audio.Chunk{SourcePath: p, DurationSeconds: 60}
	}
	return &audio.Prepared{Chunks: chunks, DurationSeconds: 60}, nil
}

type fakeEngine struct {
	text string
	err  error
}

func (f *fakeEngine) Transcribe(_ context.Context, _ string, _ stt.ModelProfile, onProgress stt.ProgressFunc) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if onProgress != nil {
		onProgress(stt.Progress{Stage: "transcribe", Percent: 100})
	}
	return f.text, nil
}

type failingStrategy struct{}

func (failingStrategy) Format(context.Context, string) (*note.Note, error) {
	return nil, errors.New("llm unreachable")
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.STT.BinaryPath = "/usr/bin/true"
	cfg.STT.ModelDir = t.TempDir()
	cfg.Export.Dir = t.TempDir()
	return cfg
}

func testMetrics(t *testing.T) *observe.Metrics {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m
}

func writeChunk(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chunk-000.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestApp(t *testing.T, cfg *config.Config, engine stt.Engine, chunk string) *app.App {
	t.Helper()
	a, err := app.New(cfg,
		app.WithPreparer(&fakePreparer{chunkPaths: []string{chunk}}),
		app.WithEngine(engine),
		app.WithPrimaryStrategy(nil),
		app.WithMetrics(testMetrics(t)),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestRunEndToEnd(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	engine := &fakeEngine{
		text: "identification doctor chen seeing patient john doe for a medication review " +
			"chief complaint patient reports low mood and poor sleep over the last month " +
			"current medications sertralene 100mgs daily with good adherence and no side effects " +
			"assessment major depressive disorder moderate severity " +
			"plan continue current dose and follow up in four weeks",
	}
	a := newTestApp(t, cfg, engine, writeChunk(t))

	res, err := a.Run(context.Background(), "/recordings/visit.m4a")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !strings.Contains(res.CorrectedText, "sertraline 100mg daily") {
		t.Errorf("CorrectedText = %q, want corrected medication and dose", res.CorrectedText)
	}
	if len(res.Corrections) != 2 {
		t.Errorf("Corrections = %+v, want 2 entries", res.Corrections)
	}
	if res.Note.Method != note.MethodRuleBased {
		t.Errorf("Note.Method = %q, want rule-based", res.Note.Method)
	}
	if got := res.Note.Section("Current Medications"); !strings.Contains(got, "sertraline 100mg") {
		t.Errorf("Current Medications = %q", got)
	}
	if !res.Report.IsValid {
		t.Errorf("Report = %+v, want valid", res.Report)
	}

	for name, path := range map[string]string{
		"text":        res.Paths.Text,
		"pdf":         res.Paths.PDF,
		"report":      res.Paths.Report,
		"corrections": res.Paths.Corrections,
	} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("%s artifact missing: %v", name, err)
		}
	}
	if got := filepath.Base(res.Paths.Text); got != "visit.txt" {
		t.Errorf("text artifact name = %q, want visit.txt", got)
	}
}

func TestRunPropagatesEngineFailure(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	engine := &fakeEngine{err: errors.New("model crashed")}
	a := newTestApp(t, cfg, engine, writeChunk(t))

	if _, err := a.Run(context.Background(), "visit.m4a"); err == nil {
		t.Error("Run = nil error, want transcription failure")
	}
}

func TestRunPropagatesPreprocessFailure(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	a, err := app.New(cfg,
		app.WithPreparer(&fakePreparer{err: errors.New("corrupt container")}),
		app.WithEngine(&fakeEngine{text: "x"}),
		app.WithPrimaryStrategy(nil),
		app.WithMetrics(testMetrics(t)),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if _, err := a.Run(context.Background(), "visit.m4a"); err == nil {
		t.Error("Run = nil error, want preprocess failure")
	}
}

func TestRunRecordsFormatterFallback(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	cfg := testConfig(t)
	a, err := app.New(cfg,
		app.WithPreparer(&fakePreparer{chunkPaths: []string{writeChunk(t)}}),
		app.WithEngine(&fakeEngine{text: "plan continue sertraline"}),
		app.WithPrimaryStrategy(failingStrategy{}),
		app.WithMetrics(metrics),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	res, err := a.Run(context.Background(), "visit.m4a")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Note.Method != note.MethodRuleBased {
		t.Fatalf("Note.Method = %q, want rule-based after LLM failure", res.Note.Method)
	}
	if !res.Report.IsValid {
		t.Errorf("Report = %+v, want a short fully covered dictation to verify", res.Report)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	found := false
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == "quillmed.formatter.fallbacks" {
				found = true
			}
		}
	}
	if !found {
		t.Error("formatter fallback metric not recorded")
	}
}

func TestNewRejectsNilConfig(t *testing.T) {
	t.Parallel()

	if _, err := app.New(nil); err == nil {
		t.Error("New(nil) = nil error, want failure")
	}
}
