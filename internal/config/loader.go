package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/quillmed/quillmed/internal/stt"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and
// [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	// Audio
	if cfg.Audio.ChunkSeconds < 0 {
		errs = append(errs, fmt.Errorf("audio.chunk_seconds %.1f must be positive", cfg.Audio.ChunkSeconds))
	}
	if cfg.Audio.OverlapSeconds < 0 {
		errs = append(errs, fmt.Errorf("audio.overlap_seconds %.1f must be positive", cfg.Audio.OverlapSeconds))
	}
	if cfg.Audio.ChunkSeconds > 0 && cfg.Audio.OverlapSeconds >= cfg.Audio.ChunkSeconds {
		errs = append(errs, fmt.Errorf("audio.overlap_seconds %.1f must be smaller than audio.chunk_seconds %.1f",
			cfg.Audio.OverlapSeconds, cfg.Audio.ChunkSeconds))
	}
	if cfg.Audio.ShortAudioSeconds < 0 {
		errs = append(errs, fmt.Errorf("audio.short_audio_seconds %.1f must be positive", cfg.Audio.ShortAudioSeconds))
	}

	// STT
	if cfg.STT.Engine != "" && !cfg.STT.Engine.IsValid() {
		errs = append(errs, fmt.Errorf("stt.engine %q is invalid; valid values: exec, native", cfg.STT.Engine))
	}
	if cfg.STT.Engine == EngineExec && cfg.STT.BinaryPath == "" {
		errs = append(errs, errors.New("stt.binary_path is required when stt.engine is exec"))
	}
	if cfg.STT.ModelDir == "" {
		errs = append(errs, errors.New("stt.model_dir is required"))
	}
	if cfg.STT.ModelProfile != "" && !stt.ModelProfile(cfg.STT.ModelProfile).IsValid() {
		// The orchestrator keeps its default for unknown profiles; surface
		// the typo early but do not fail the load.
		slog.Warn("unknown stt.model_profile, orchestrator default will be used",
			"profile", cfg.STT.ModelProfile)
	}

	// LLM
	if cfg.LLM.Enabled {
		if cfg.LLM.BaseURL == "" {
			errs = append(errs, errors.New("llm.base_url is required when llm.enabled is true"))
		}
		if cfg.LLM.Model == "" {
			errs = append(errs, errors.New("llm.model is required when llm.enabled is true"))
		}
	}
	if cfg.LLM.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("llm.timeout_seconds %.1f must be positive", cfg.LLM.TimeoutSeconds))
	}

	// Verify
	if cfg.Verify.CoverageThreshold < 0 || cfg.Verify.CoverageThreshold > 100 {
		errs = append(errs, fmt.Errorf("verify.coverage_threshold %.1f is out of (0, 100]", cfg.Verify.CoverageThreshold))
	}
	if cfg.Verify.LengthMultiplier != 0 && cfg.Verify.LengthMultiplier <= 1 {
		errs = append(errs, fmt.Errorf("verify.length_multiplier %.1f must exceed 1", cfg.Verify.LengthMultiplier))
	}

	return errors.Join(errs...)
}
