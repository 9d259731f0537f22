package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/quillmed/quillmed/internal/config"
)

func TestCheckExecutable_PathExists(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "whisper-cli")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	c := CheckExecutable("whisper", bin)
	if err := c.Check(context.Background()); err != nil {
		t.Errorf("Check = %v, want nil", err)
	}
}

func TestCheckExecutable_PathMissing(t *testing.T) {
	c := CheckExecutable("whisper", filepath.Join(t.TempDir(), "missing"))
	if err := c.Check(context.Background()); err == nil {
		t.Error("Check = nil, want error for missing binary")
	}
}

func TestCheckExecutable_Directory(t *testing.T) {
	c := CheckExecutable("whisper", t.TempDir())
	if err := c.Check(context.Background()); err == nil {
		t.Error("Check = nil, want error for directory")
	}
}

func TestCheckModelDir(t *testing.T) {
	dir := t.TempDir()
	c := CheckModelDir(dir)

	if err := c.Check(context.Background()); err == nil {
		t.Error("Check = nil, want error for empty model dir")
	}

	if err := os.WriteFile(filepath.Join(dir, "ggml-medium.en.bin"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := c.Check(context.Background()); err != nil {
		t.Errorf("Check = %v, want nil once a model file exists", err)
	}
}

func TestCheckLLM(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := CheckLLM(srv.URL).Check(context.Background()); err != nil {
		t.Errorf("Check = %v, want nil for reachable server", err)
	}

	srv.Close()
	if err := CheckLLM(srv.URL).Check(context.Background()); err == nil {
		t.Error("Check = nil, want transport error for closed server")
	}
}

func TestForConfig(t *testing.T) {
	cfg := config.Default()
	cfg.STT.BinaryPath = "/opt/whisper/whisper-cli"
	cfg.STT.ModelDir = "/opt/whisper/models"

	names := checkerNames(ForConfig(cfg))
	want := []string{"ffmpeg", "ffprobe", "whisper", "model"}
	if len(names) != len(want) {
		t.Fatalf("checkers = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("checker[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	cfg.LLM.Enabled = true
	cfg.LLM.BaseURL = "http://localhost:8080/v1"
	cfg.LLM.Model = "qwen2.5"
	names = checkerNames(ForConfig(cfg))
	if names[len(names)-1] != "llm" {
		t.Errorf("checkers = %v, want trailing llm check when LLM is enabled", names)
	}
}

func checkerNames(cs []Checker) []string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Name
	}
	return names
}
