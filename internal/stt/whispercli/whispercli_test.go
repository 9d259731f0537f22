package whispercli_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/quillmed/quillmed/internal/stt"
	"github.com/quillmed/quillmed/internal/stt/whispercli"
)

// fakeBinary writes an executable shell script standing in for the whisper
// binary and returns its path.
func fakeBinary(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-script fake engine requires a unix shell")
	}
	path := filepath.Join(t.TempDir(), "fake-whisper")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func newEngine(t *testing.T, script string) *whispercli.Engine {
	t.Helper()
	e, err := whispercli.New(fakeBinary(t, script), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func failureKind(t *testing.T, err error) stt.FailureKind {
	t.Helper()
	var f *stt.Failure
	if !errors.As(err, &f) {
		t.Fatalf("error %v is not a *stt.Failure", err)
	}
	return f.Kind
}

func TestTranscribe_ParsesTextPayload(t *testing.T) {
	t.Parallel()

	e := newEngine(t, `echo '{"text": "  patient is doing well  "}'`)
	text, err := e.Transcribe(context.Background(), "in.wav", stt.ProfileBase, nil)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "patient is doing well" {
		t.Errorf("text=%q", text)
	}
}

func TestTranscribe_StreamsProgressFromStderr(t *testing.T) {
	t.Parallel()

	e := newEngine(t, `
echo "whisper_print_progress_callback: progress =  25%" >&2
echo "whisper_print_progress_callback: progress = 100%" >&2
echo '{"text": "done"}'`)

	var seen []float64
	_, err := e.Transcribe(context.Background(), "in.wav", stt.ProfileBase, func(p stt.Progress) {
		seen = append(seen, p.Percent)
	})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(seen) != 2 || seen[0] != 25 || seen[1] != 100 {
		t.Errorf("progress=%v, want [25 100]", seen)
	}
}

func TestTranscribe_NonZeroExitIsExitFailure(t *testing.T) {
	t.Parallel()

	e := newEngine(t, `echo "model file not found" >&2; exit 3`)
	_, err := e.Transcribe(context.Background(), "in.wav", stt.ProfileBase, nil)
	if kind := failureKind(t, err); kind != stt.FailureExit {
		t.Errorf("kind=%q, want exit", kind)
	}
}

func TestTranscribe_MalformedOutputIsParseFailure(t *testing.T) {
	t.Parallel()

	tests := []struct{ name, script string }{
		{name: "not json", script: `echo "plain text transcript"`},
		{name: "missing text field", script: `echo '{"language": "en"}'`},
		{name: "empty output", script: `true`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newEngine(t, tt.script)
			_, err := e.Transcribe(context.Background(), "in.wav", stt.ProfileBase, nil)
			if kind := failureKind(t, err); kind != stt.FailureParse {
				t.Errorf("kind=%q, want parse", kind)
			}
		})
	}
}

func TestTranscribe_MissingBinaryIsSpawnFailure(t *testing.T) {
	t.Parallel()

	e, err := whispercli.New(filepath.Join(t.TempDir(), "does-not-exist"), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_, err = e.Transcribe(context.Background(), "in.wav", stt.ProfileBase, nil)
	if kind := failureKind(t, err); kind != stt.FailureSpawn {
		t.Errorf("kind=%q, want spawn", kind)
	}
}

func TestTranscribe_CancellationKillsProcess(t *testing.T) {
	t.Parallel()

	e := newEngine(t, `sleep 30; echo '{"text": "too late"}'`)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := e.Transcribe(ctx, "in.wav", stt.ProfileBase, nil)
	if err == nil {
		t.Fatal("want error after cancellation")
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Fatalf("process not killed promptly, took %v", elapsed)
	}
	if kind := failureKind(t, err); kind != stt.FailureExit {
		t.Errorf("kind=%q, want exit", kind)
	}
}

func TestModelPath(t *testing.T) {
	t.Parallel()

	e, err := whispercli.New("whisper-cli", "/models")
	if err != nil {
		t.Fatal(err)
	}
	if got := e.ModelPath(stt.ProfileLargeV3); got != filepath.Join("/models", "ggml-large-v3.bin") {
		t.Errorf("ModelPath=%q", got)
	}
}
