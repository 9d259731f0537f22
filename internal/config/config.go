// Package config provides the configuration schema and loader for the
// dictation pipeline.
package config

import "github.com/quillmed/quillmed/internal/stt"

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// STTEngine selects the transcription backend.
type STTEngine string

const (
	// EngineExec runs the whisper CLI as a subprocess.
	EngineExec STTEngine = "exec"

	// EngineNative uses the in-process whisper.cpp bindings.
	EngineNative STTEngine = "native"
)

// IsValid reports whether e is a recognised engine.
func (e STTEngine) IsValid() bool {
	return e == EngineExec || e == EngineNative
}

// Config is the root configuration structure. It is typically loaded from a
// YAML file using [Load] or [LoadFromReader].
type Config struct {
	// LogLevel controls verbosity. Empty means "info".
	LogLevel LogLevel `yaml:"log_level"`

	// MetricsListenAddr, when set, enables a local /metrics endpoint on this
	// address (e.g., "127.0.0.1:9090"). Empty disables the listener.
	MetricsListenAddr string `yaml:"metrics_listen_addr"`

	Audio  AudioConfig  `yaml:"audio"`
	STT    STTConfig    `yaml:"stt"`
	LLM    LLMConfig    `yaml:"llm"`
	Verify VerifyConfig `yaml:"verify"`
	Export ExportConfig `yaml:"export"`
}

// AudioConfig holds preprocessing settings. Zero values fall back to the
// preprocessor defaults.
type AudioConfig struct {
	// FFmpegPath and FFprobePath override the binaries resolved from PATH.
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`

	// ChunkSeconds is the transcription window length for long recordings.
	ChunkSeconds float64 `yaml:"chunk_seconds"`

	// OverlapSeconds is the overlap between consecutive chunks.
	OverlapSeconds float64 `yaml:"overlap_seconds"`

	// ShortAudioSeconds is the duration at or below which the recording is
	// transcribed as a single chunk.
	ShortAudioSeconds float64 `yaml:"short_audio_seconds"`
}

// STTConfig selects and configures the transcription engine.
type STTConfig struct {
	// Engine picks the backend. Empty means "exec".
	Engine STTEngine `yaml:"engine"`

	// BinaryPath is the whisper CLI executable, required for the exec engine.
	BinaryPath string `yaml:"binary_path"`

	// ModelDir is the directory holding ggml model files.
	ModelDir string `yaml:"model_dir"`

	// ModelProfile selects the whisper model size. Unknown profiles log a
	// warning and keep the orchestrator default.
	ModelProfile string `yaml:"model_profile"`

	// Language is the spoken language hint passed to whisper. Empty means "en".
	Language string `yaml:"language"`
}

// LLMConfig configures the local model server used for note formatting.
// Formatting works without it; the rule-based strategy takes over.
type LLMConfig struct {
	// Enabled turns the LLM formatting strategy on.
	Enabled bool `yaml:"enabled"`

	// BaseURL is the OpenAI-compatible endpoint (e.g.,
	// "http://127.0.0.1:8080/v1"). Required when Enabled.
	BaseURL string `yaml:"base_url"`

	// Model is the model name sent with each request. Required when Enabled.
	Model string `yaml:"model"`

	// TimeoutSeconds caps each completion request. Zero means no timeout.
	TimeoutSeconds float64 `yaml:"timeout_seconds"`
}

// VerifyConfig tunes the content-coverage verifier. Zero values fall back to
// the verifier defaults.
type VerifyConfig struct {
	// CoverageThreshold is the minimum salient-token coverage percentage for
	// a note to be considered valid, in (0, 100].
	CoverageThreshold float64 `yaml:"coverage_threshold"`

	// LengthMultiplier is the output/source length ratio beyond which a note
	// is flagged as suspect. Must exceed 1.
	LengthMultiplier float64 `yaml:"length_multiplier"`
}

// ExportConfig controls artifact output.
type ExportConfig struct {
	// Dir is the directory artifacts are written to. Empty means the current
	// directory.
	Dir string `yaml:"dir"`
}

// Default returns a Config with the stock offline setup: exec engine,
// medium.en profile, LLM disabled.
func Default() *Config {
	return &Config{
		LogLevel: LogInfo,
		STT: STTConfig{
			Engine:       EngineExec,
			ModelProfile: string(stt.ProfileMediumEN),
		},
		Export: ExportConfig{Dir: "."},
	}
}
