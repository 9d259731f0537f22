package whispernative

import (
	"encoding/binary"
	"math"
	"testing"
)

// buildWAV assembles a minimal RIFF/WAV container around pcm.
func buildWAV(pcm []byte, channels, sampleRate, bits int) []byte {
	byteRate := sampleRate * channels * bits / 8
	blockAlign := channels * bits / 8

	buf := make([]byte, 44+len(pcm))
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+len(pcm)))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1)
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], uint16(bits))
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(len(pcm)))
	copy(buf[44:], pcm)
	return buf
}

func pcm16(samples ...int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func TestDecodeWAV_Mono16(t *testing.T) {
	t.Parallel()

	pcm := pcm16(0, 16384, -16384, 32767)
	data := buildWAV(pcm, 1, 16000, 16)

	got, channels, err := decodeWAV(data)
	if err != nil {
		t.Fatalf("decodeWAV: %v", err)
	}
	if channels != 1 {
		t.Errorf("channels=%d, want 1", channels)
	}
	if len(got) != len(pcm) {
		t.Errorf("pcm length=%d, want %d", len(got), len(pcm))
	}
}

func TestDecodeWAV_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "not riff", data: make([]byte, 64)},
		{name: "wrong bit depth", data: buildWAV(pcm16(0, 0), 1, 16000, 8)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, _, err := decodeWAV(tt.data); err == nil {
				t.Error("decodeWAV accepted malformed input")
			}
		})
	}
}

func TestPCMToFloat32Mono_Normalisation(t *testing.T) {
	t.Parallel()

	samples := pcmToFloat32Mono(pcm16(0, 16384, -32768), 1)
	want := []float32{0, 0.5, -1.0}
	if len(samples) != len(want) {
		t.Fatalf("got %d samples, want %d", len(samples), len(want))
	}
	for i := range want {
		if math.Abs(float64(samples[i]-want[i])) > 1e-6 {
			t.Errorf("sample %d = %f, want %f", i, samples[i], want[i])
		}
	}
}

func TestPCMToFloat32Mono_Downmix(t *testing.T) {
	t.Parallel()

	// Stereo frames: (16384, 0) averages to 0.25.
	samples := pcmToFloat32Mono(pcm16(16384, 0, 16384, 0), 2)
	if len(samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(samples))
	}
	for i, s := range samples {
		if math.Abs(float64(s)-0.25) > 1e-6 {
			t.Errorf("sample %d = %f, want 0.25", i, s)
		}
	}
}

func TestModelPath(t *testing.T) {
	t.Parallel()

	e, err := New("/models")
	if err != nil {
		t.Fatal(err)
	}
	if got := e.ModelPath("medium.en"); got != "/models/ggml-medium.en.bin" {
		t.Errorf("ModelPath=%q", got)
	}
}
