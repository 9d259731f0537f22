package audio

import (
	"math"
	"testing"
)

func testConfig() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

func TestPlanChunks_ShortRecordingIsSingleChunk(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	for _, duration := range []float64{1, 30, 299.5, cfg.ShortAudioSeconds} {
		chunks := planChunks(duration, cfg)
		if len(chunks) != 1 {
			t.Fatalf("duration %.1fs: got %d chunks, want 1", duration, len(chunks))
		}
		c := chunks[0]
		if c.StartSeconds != 0 || c.DurationSeconds != duration || c.OverlapSeconds != 0 {
			t.Errorf("duration %.1fs: chunk %+v, want full-span chunk", duration, c)
		}
	}
}

func TestPlanChunks_LongRecordingStride(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	for _, duration := range []float64{331, 600, 1234.5, 3600} {
		chunks := planChunks(duration, cfg)
		if len(chunks) < 2 {
			t.Fatalf("duration %.1fs: got %d chunks, want >= 2", duration, len(chunks))
		}

		stride := cfg.ChunkSeconds - cfg.OverlapSeconds
		for i := 1; i < len(chunks); i++ {
			gap := chunks[i].StartSeconds - chunks[i-1].StartSeconds
			if math.Abs(gap-stride) > 1e-9 {
				t.Errorf("duration %.1fs: chunks %d→%d start gap %.3f, want %.3f", duration, i-1, i, gap, stride)
			}
			if chunks[i].OverlapSeconds != cfg.OverlapSeconds {
				t.Errorf("duration %.1fs: chunk %d overlap %.1f, want %.1f", duration, i, chunks[i].OverlapSeconds, cfg.OverlapSeconds)
			}
		}
		if chunks[0].OverlapSeconds != 0 {
			t.Errorf("duration %.1fs: first chunk overlap %.1f, want 0", duration, chunks[0].OverlapSeconds)
		}

		last := chunks[len(chunks)-1]
		end := last.StartSeconds + last.DurationSeconds
		if math.Abs(end-duration) > 1e-9 {
			t.Errorf("duration %.1fs: last chunk ends at %.3f, want end of recording", duration, end)
		}
	}
}

func TestPlanChunks_TailNeverShorterThanOverlap(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.ShortAudioSeconds = 120

	// Durations just past a stride boundary produce the shortest possible
	// tails. The loop only emits another chunk when the previous one ends
	// before the recording does, so even the tightest tail strictly exceeds
	// the overlap and its recorded overlap matches the audio actually shared
	// with the previous chunk.
	for _, duration := range []float64{300.5, 585, 590.5, 881} {
		chunks := planChunks(duration, cfg)
		if len(chunks) < 2 {
			t.Fatalf("duration %.1fs: got %d chunks, want >= 2", duration, len(chunks))
		}

		last := chunks[len(chunks)-1]
		if last.DurationSeconds <= last.OverlapSeconds {
			t.Errorf("duration %.1fs: tail length %.3f not greater than overlap %.1f",
				duration, last.DurationSeconds, last.OverlapSeconds)
		}

		prev := chunks[len(chunks)-2]
		shared := (prev.StartSeconds + prev.DurationSeconds) - last.StartSeconds
		if math.Abs(shared-last.OverlapSeconds) > 1e-9 {
			t.Errorf("duration %.1fs: tail records overlap %.1f but shares %.3f with previous chunk",
				duration, last.OverlapSeconds, shared)
		}
	}
}

func TestPlanChunks_StartsMonotonic(t *testing.T) {
	t.Parallel()

	chunks := planChunks(3600, testConfig())
	for i := 1; i < len(chunks); i++ {
		if chunks[i].StartSeconds <= chunks[i-1].StartSeconds {
			t.Fatalf("chunk %d start %.1f not after chunk %d start %.1f",
				i, chunks[i].StartSeconds, i-1, chunks[i-1].StartSeconds)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "negative chunk", mutate: func(c *Config) { c.ChunkSeconds = -1 }, wantErr: true},
		{name: "negative overlap", mutate: func(c *Config) { c.OverlapSeconds = -1 }, wantErr: true},
		{name: "overlap exceeds chunk", mutate: func(c *Config) { c.OverlapSeconds = c.ChunkSeconds }, wantErr: true},
		{name: "negative threshold", mutate: func(c *Config) { c.ShortAudioSeconds = -5 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := testConfig()
			tt.mutate(&cfg)
			err := cfg.validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
