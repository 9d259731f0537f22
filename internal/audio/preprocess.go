// Package audio normalises a dictation recording for transcription and, for
// long recordings, splits it into overlapping time-bounded chunks.
//
// The preprocessor shells out to ffmpeg/ffprobe: any input container the
// host's ffmpeg understands (wav, m4a, mp3, webm, …) is accepted and
// converted to the canonical 16 kHz mono 16-bit WAV that the transcription
// engines expect. All intermediate files live in a per-request temporary
// directory whose removal is guaranteed on both success and failure paths via
// [Prepared.Cleanup].
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	defaultChunkSeconds      = 300
	defaultOverlapSeconds    = 10
	defaultShortAudioSeconds = 330
	defaultSampleRate        = 16000
)

// ErrToolingMissing is returned by [NewPreprocessor] when ffmpeg or ffprobe
// cannot be found on the host. There is no fallback: audio conversion is a
// hard requirement.
var ErrToolingMissing = errors.New("audio: external audio tooling not found")

// Config controls normalisation and chunking. Zero values select defaults.
type Config struct {
	// ChunkSeconds is the window length for long recordings. Default 300.
	ChunkSeconds float64

	// OverlapSeconds is how much consecutive chunks overlap, so that words
	// spoken across a boundary appear completely in at least one chunk.
	// Default 10.
	OverlapSeconds float64

	// ShortAudioSeconds is the duration at or below which the recording is
	// kept as a single chunk. Default 330.
	ShortAudioSeconds float64

	// SampleRate is the canonical output sample rate in Hz. Default 16000.
	SampleRate int

	// FFmpegPath and FFprobePath override the binaries resolved from PATH.
	FFmpegPath  string
	FFprobePath string
}

func (cfg *Config) applyDefaults() {
	if cfg.ChunkSeconds == 0 {
		cfg.ChunkSeconds = defaultChunkSeconds
	}
	if cfg.OverlapSeconds == 0 {
		cfg.OverlapSeconds = defaultOverlapSeconds
	}
	if cfg.ShortAudioSeconds == 0 {
		cfg.ShortAudioSeconds = defaultShortAudioSeconds
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = defaultSampleRate
	}
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.FFprobePath == "" {
		cfg.FFprobePath = "ffprobe"
	}
}

func (cfg Config) validate() error {
	var errs []error
	if cfg.ChunkSeconds <= 0 {
		errs = append(errs, fmt.Errorf("audio: chunk duration %.1fs must be positive", cfg.ChunkSeconds))
	}
	if cfg.OverlapSeconds <= 0 {
		errs = append(errs, fmt.Errorf("audio: chunk overlap %.1fs must be positive", cfg.OverlapSeconds))
	}
	if cfg.OverlapSeconds >= cfg.ChunkSeconds {
		errs = append(errs, fmt.Errorf("audio: overlap %.1fs must be smaller than chunk duration %.1fs", cfg.OverlapSeconds, cfg.ChunkSeconds))
	}
	if cfg.ShortAudioSeconds <= 0 {
		errs = append(errs, fmt.Errorf("audio: short-audio threshold %.1fs must be positive", cfg.ShortAudioSeconds))
	}
	return errors.Join(errs...)
}

// Prepared is the preprocessor output for one recording: the normalised
// chunk files plus the probed total duration. Call Cleanup when the chunks
// have been consumed.
type Prepared struct {
	// Chunks is the ordered chunk list. Always non-empty.
	Chunks []Chunk

	// DurationSeconds is the total recording duration as probed.
	DurationSeconds float64

	dir string
}

// Cleanup removes the temporary directory holding the normalised and chunk
// files. Safe to call more than once.
func (p *Prepared) Cleanup() error {
	if p.dir == "" {
		return nil
	}
	dir := p.dir
	p.dir = ""
	return os.RemoveAll(dir)
}

// Preprocessor converts recordings into canonical chunked WAV files.
// It is read-only after construction and safe for concurrent use.
type Preprocessor struct {
	cfg Config
}

// NewPreprocessor validates cfg and verifies that ffmpeg and ffprobe are
// available. A missing binary is reported immediately (wrapped
// [ErrToolingMissing]) rather than at first use.
func NewPreprocessor(cfg Config) (*Preprocessor, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	for _, bin := range []string{cfg.FFmpegPath, cfg.FFprobePath} {
		if _, err := exec.LookPath(bin); err != nil {
			return nil, fmt.Errorf("%w: %q is not installed or not on PATH", ErrToolingMissing, bin)
		}
	}
	return &Preprocessor{cfg: cfg}, nil
}

// Prepare normalises the recording at sourcePath and returns its chunk plan.
// On any failure the temporary directory is removed before returning; no
// partial files are left behind.
func (p *Preprocessor) Prepare(ctx context.Context, sourcePath string) (*Prepared, error) {
	if _, err := os.Stat(sourcePath); err != nil {
		return nil, fmt.Errorf("audio: source %q: %w", sourcePath, err)
	}

	duration, err := p.probeDuration(ctx, sourcePath)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "quillmed-audio-*")
	if err != nil {
		return nil, fmt.Errorf("audio: create temp dir: %w", err)
	}
	prepared := &Prepared{DurationSeconds: duration, dir: dir}

	fail := func(err error) (*Prepared, error) {
		prepared.Cleanup() //nolint:errcheck // best-effort removal on the error path
		return nil, err
	}

	normalized := filepath.Join(dir, "normalized.wav")
	if err := p.runFFmpeg(ctx,
		"-y", "-i", sourcePath,
		"-ac", "1",
		"-ar", strconv.Itoa(p.cfg.SampleRate),
		"-sample_fmt", "s16",
		normalized,
	); err != nil {
		return fail(fmt.Errorf("audio: normalise %q: %w", sourcePath, err))
	}

	chunks := planChunks(duration, p.cfg)
	if len(chunks) == 1 {
		chunks[0].SourcePath = normalized
		prepared.Chunks = chunks
		slog.Debug("audio prepared without chunking", "source", sourcePath, "duration_s", duration)
		return prepared, nil
	}

	for i := range chunks {
		out := filepath.Join(dir, fmt.Sprintf("chunk_%03d.wav", i))
		if err := p.runFFmpeg(ctx,
			"-y",
			"-ss", formatSeconds(chunks[i].StartSeconds),
			"-t", formatSeconds(chunks[i].DurationSeconds),
			"-i", normalized,
			"-c", "copy",
			out,
		); err != nil {
			return fail(fmt.Errorf("audio: cut chunk %d: %w", i, err))
		}
		chunks[i].SourcePath = out
	}
	prepared.Chunks = chunks

	slog.Debug("audio prepared",
		"source", sourcePath, "duration_s", duration, "chunks", len(chunks))
	return prepared, nil
}

// probeDuration asks ffprobe for the container duration in seconds.
func (p *Preprocessor) probeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, p.cfg.FFprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("audio: probe %q: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(stdout.String()), 64)
	if err != nil || duration <= 0 {
		return 0, fmt.Errorf("audio: %q is unreadable or has no duration (ffprobe said %q)", path, strings.TrimSpace(stdout.String()))
	}
	return duration, nil
}

func (p *Preprocessor) runFFmpeg(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, p.cfg.FFmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, lastLine(stderr.String()))
	}
	return nil
}

// lastLine returns the final non-empty line of s — ffmpeg puts the actual
// error there, after pages of banner output.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}
