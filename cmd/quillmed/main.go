// Command quillmed transcribes a clinical dictation recording and writes a
// structured note alongside its verification report.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quillmed/quillmed/internal/app"
	"github.com/quillmed/quillmed/internal/config"
	"github.com/quillmed/quillmed/internal/health"
	"github.com/quillmed/quillmed/internal/observe"
	"github.com/quillmed/quillmed/internal/stt"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	audioPath := flag.String("audio", "", "path to the dictation recording (required)")
	outputDir := flag.String("output", "", "export directory (overrides config)")
	modelProfile := flag.String("model", "", "whisper model profile (overrides config)")
	printNote := flag.Bool("print", false, "print the formatted note to stdout")
	flag.Parse()

	if *audioPath == "" {
		fmt.Fprintln(os.Stderr, "quillmed: -audio is required")
		flag.Usage()
		return 2
	}

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "quillmed: config file %q not found — at minimum stt.binary_path and stt.model_dir must be configured\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "quillmed: %v\n", err)
		}
		return 1
	}
	if *outputDir != "" {
		cfg.Export.Dir = *outputDir
	}
	if *modelProfile != "" {
		cfg.STT.ModelProfile = *modelProfile
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	slog.SetDefault(newLogger(cfg.LogLevel))

	slog.Info("quillmed starting",
		"version", version,
		"config", *configPath,
		"audio", *audioPath,
		"log_level", cfg.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	// Cancelling this context kills any ffmpeg/whisper subprocess in flight.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	if cfg.MetricsListenAddr != "" {
		go serveMetrics(cfg.MetricsListenAddr, cfg)
	}

	printStartupSummary(cfg)

	// ── Pipeline ──────────────────────────────────────────────────────────────
	application, err := app.New(cfg, app.WithProgress(logProgress))
	if err != nil {
		slog.Error("failed to initialise pipeline", "err", err)
		return 1
	}
	defer func() {
		if err := application.Close(); err != nil {
			slog.Warn("close error", "err", err)
		}
	}()

	result, err := application.Run(ctx, *audioPath)
	if err != nil {
		var failure *stt.Failure
		switch {
		case errors.Is(err, context.Canceled):
			slog.Info("interrupted")
			return 1
		case errors.As(err, &failure):
			slog.Error("transcription failed", "kind", failure.Kind, "err", err)
			return 1
		default:
			slog.Error("pipeline failed", "err", err)
			return 1
		}
	}

	slog.Info("note written",
		"method", result.Note.Method,
		"coverage_percent", result.Report.CoveragePercent,
		"valid", result.Report.IsValid,
		"corrections", len(result.Corrections),
		"reinjected", result.Reinjected,
		"transcribe_time", result.TranscribeTime,
		"text", result.Paths.Text,
		"pdf", result.Paths.PDF,
	)

	if *printNote {
		fmt.Println(result.Note.Render())
	}
	if !result.Report.IsValid {
		slog.Warn("verification flagged the note — review before signing",
			"missing_terms", result.Report.MissingTerms,
			"suspected_hallucinations", result.Report.SuspectedHallucinations,
		)
	}
	return 0
}

func serveMetrics(addr string, cfg *config.Config) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	health.New(health.ForConfig(cfg)...).Register(mux)
	slog.Info("metrics listener starting", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Warn("metrics listener error", "err", err)
	}
}

func logProgress(p stt.Progress) {
	slog.Info("transcribing", "stage", p.Stage, "percent", p.Percent)
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║        quillmed — startup summary     ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printField("STT engine", string(cfg.STT.Engine))
	printField("Model profile", cfg.STT.ModelProfile)
	if cfg.LLM.Enabled {
		printField("LLM formatter", cfg.LLM.Model)
	} else {
		printField("LLM formatter", "(disabled)")
	}
	printField("Export dir", cfg.Export.Dir)
	if cfg.MetricsListenAddr != "" {
		printField("Metrics", cfg.MetricsListenAddr)
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printField(name, value string) {
	if value == "" {
		value = "(not configured)"
	}
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-14s  : %-19s ║\n", name, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
