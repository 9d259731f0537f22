// Package whispercli implements [stt.Engine] by spawning an external whisper
// executable (whisper.cpp's whisper-cli or a compatible wrapper).
//
// Contract with the binary: it is invoked with a model file argument and an
// audio file path, writes a JSON payload containing at least a "text" field
// to stdout, and reports progress on stderr as lines containing
// "progress = NN%". Non-zero exit, spawn failure, and malformed output are
// reported as distinct [stt.Failure] kinds. Cancelling the context kills the
// process — the handle is never abandoned.
package whispercli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/quillmed/quillmed/internal/stt"
)

// progressRe matches whisper.cpp's stderr progress lines, e.g.
// "whisper_print_progress_callback: progress =  45%".
var progressRe = regexp.MustCompile(`progress\s*=\s*(\d+)%`)

// stderrTailLines is how many trailing stderr lines are preserved for error
// reporting on non-zero exit.
const stderrTailLines = 8

// Option is a functional option for configuring an [Engine].
type Option func(*Engine)

// WithLanguage sets the language hint passed to the binary. Default "en".
func WithLanguage(lang string) Option {
	return func(e *Engine) { e.language = lang }
}

// WithWaitDelay sets how long Wait allows output pipes to drain after the
// context is cancelled before forcibly closing them. Default 5s.
func WithWaitDelay(d time.Duration) Option {
	return func(e *Engine) { e.waitDelay = d }
}

// Engine runs an external whisper binary. It is read-only after construction
// and safe for concurrent use; serialisation of requests is the
// orchestrator's job, not the engine's.
type Engine struct {
	binPath   string
	modelDir  string
	language  string
	waitDelay time.Duration
}

var _ stt.Engine = (*Engine)(nil)

// New returns an [Engine] invoking binPath with models resolved from
// modelDir. binPath must exist on PATH or be an absolute path; resolution
// failures surface at first use, not here, because the binary may be
// installed between startup and first dictation.
func New(binPath, modelDir string, opts ...Option) (*Engine, error) {
	if binPath == "" {
		return nil, errors.New("whispercli: binary path must not be empty")
	}
	if modelDir == "" {
		return nil, errors.New("whispercli: model directory must not be empty")
	}
	e := &Engine{
		binPath:   binPath,
		modelDir:  modelDir,
		language:  "en",
		waitDelay: 5 * time.Second,
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// ModelPath returns the ggml model file used for profile.
func (e *Engine) ModelPath(profile stt.ModelProfile) string {
	return filepath.Join(e.modelDir, "ggml-"+string(profile)+".bin")
}

// Transcribe spawns the whisper binary for one audio file and parses its
// JSON output. See the package comment for the subprocess contract.
func (e *Engine) Transcribe(ctx context.Context, audioPath string, profile stt.ModelProfile, onProgress stt.ProgressFunc) (string, error) {
	cmd := exec.CommandContext(ctx, e.binPath,
		"--model", e.ModelPath(profile),
		"--file", audioPath,
		"--language", e.language,
		"--output-json",
		"--print-progress",
	)
	cmd.WaitDelay = e.waitDelay

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", &stt.Failure{Kind: stt.FailureSpawn, Err: fmt.Errorf("whispercli: stderr pipe: %w", err)}
	}

	if err := cmd.Start(); err != nil {
		return "", &stt.Failure{Kind: stt.FailureSpawn, Err: fmt.Errorf("whispercli: start %q: %w", e.binPath, err)}
	}

	// Drain stderr to EOF before Wait, per the os/exec pipe contract.
	tail := streamProgress(stderr, onProgress)()

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			// The process was killed because the caller went away.
			return "", &stt.Failure{Kind: stt.FailureExit, Err: ctx.Err()}
		}
		return "", &stt.Failure{Kind: stt.FailureExit,
			Err: fmt.Errorf("whispercli: %w: %s", err, strings.Join(tail, " | "))}
	}

	text, err := parsePayload(stdout.Bytes())
	if err != nil {
		return "", &stt.Failure{Kind: stt.FailureParse, Err: err}
	}
	return text, nil
}

// streamProgress consumes r line by line, forwarding progress percentages to
// onProgress and retaining a bounded tail of lines. The returned function
// reports the tail once the stream is exhausted (call it after cmd.Wait).
func streamProgress(r io.Reader, onProgress stt.ProgressFunc) func() []string {
	var tail []string
	done := make(chan struct{})

	go func() {
		defer close(done)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			line := scanner.Text()
			if m := progressRe.FindStringSubmatch(line); m != nil && onProgress != nil {
				if pct, err := strconv.ParseFloat(m[1], 64); err == nil {
					onProgress(stt.Progress{Stage: "transcribe", Percent: pct})
				}
				continue
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			tail = append(tail, line)
			if len(tail) > stderrTailLines {
				tail = tail[1:]
			}
		}
	}()

	return func() []string {
		<-done
		return tail
	}
}

// parsePayload extracts the "text" field from the engine's JSON output.
// Any other shape — invalid JSON, missing field — is a parse failure.
func parsePayload(data []byte) (string, error) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(data), &payload); err != nil {
		return "", fmt.Errorf("whispercli: output is not the expected JSON shape: %w", err)
	}
	if payload.Text == "" {
		return "", errors.New(`whispercli: output JSON has no "text" field`)
	}
	return strings.TrimSpace(payload.Text), nil
}
