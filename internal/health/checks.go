package health

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/quillmed/quillmed/internal/config"
)

// CheckExecutable verifies that bin exists and is runnable. A bare name is
// resolved on the PATH; a path is checked directly.
func CheckExecutable(name, bin string) Checker {
	return Checker{
		Name: name,
		Check: func(_ context.Context) error {
			if strings.ContainsRune(bin, os.PathSeparator) {
				info, err := os.Stat(bin)
				if err != nil {
					return err
				}
				if info.IsDir() {
					return fmt.Errorf("%s is a directory", bin)
				}
				return nil
			}
			_, err := exec.LookPath(bin)
			return err
		},
	}
}

// CheckModelDir verifies that dir holds at least one whisper model file
// (*.bin or *.gguf).
func CheckModelDir(dir string) Checker {
	return Checker{
		Name: "model",
		Check: func(_ context.Context) error {
			entries, err := os.ReadDir(dir)
			if err != nil {
				return err
			}
			for _, e := range entries {
				if e.IsDir() {
					continue
				}
				switch filepath.Ext(e.Name()) {
				case ".bin", ".gguf":
					return nil
				}
			}
			return fmt.Errorf("no model files in %s", dir)
		},
	}
}

// CheckLLM probes the OpenAI-compatible server at baseURL. Any HTTP response
// counts as reachable; only transport failures are reported.
func CheckLLM(baseURL string) Checker {
	return Checker{
		Name: "llm",
		Check: func(ctx context.Context) error {
			url := strings.TrimSuffix(baseURL, "/") + "/models"
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			return resp.Body.Close()
		},
	}
}

// ForConfig assembles the readiness checks for the configured pipeline.
func ForConfig(cfg *config.Config) []Checker {
	ffmpeg := cfg.Audio.FFmpegPath
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	ffprobe := cfg.Audio.FFprobePath
	if ffprobe == "" {
		ffprobe = "ffprobe"
	}

	checkers := []Checker{
		CheckExecutable("ffmpeg", ffmpeg),
		CheckExecutable("ffprobe", ffprobe),
	}
	if cfg.STT.Engine == config.EngineExec && cfg.STT.BinaryPath != "" {
		checkers = append(checkers, CheckExecutable("whisper", cfg.STT.BinaryPath))
	}
	if cfg.STT.ModelDir != "" {
		checkers = append(checkers, CheckModelDir(cfg.STT.ModelDir))
	}
	if cfg.LLM.Enabled {
		checkers = append(checkers, CheckLLM(cfg.LLM.BaseURL))
	}
	return checkers
}
