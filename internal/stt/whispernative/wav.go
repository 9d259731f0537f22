package whispernative

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// decodeWAV extracts the raw 16-bit PCM payload and channel count from a
// RIFF/WAV container. Only the uncompressed 16-bit format the preprocessor
// emits is supported; anything else is rejected.
func decodeWAV(data []byte) (pcm []byte, channels int, err error) {
	if len(data) < 44 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, errors.New("whispernative: not a RIFF/WAVE file")
	}

	channels = 1
	var haveFmt bool

	// Walk the chunk list: fmt must precede data.
	for off := 12; off+8 <= len(data); {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if body+size > len(data) {
			return nil, 0, errors.New("whispernative: truncated WAV chunk")
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, errors.New("whispernative: short fmt chunk")
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			if format != 1 {
				return nil, 0, fmt.Errorf("whispernative: unsupported WAV format %d (want PCM)", format)
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			bits := binary.LittleEndian.Uint16(data[body+14 : body+16])
			if bits != 16 {
				return nil, 0, fmt.Errorf("whispernative: unsupported bit depth %d (want 16)", bits)
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return nil, 0, errors.New("whispernative: data chunk before fmt chunk")
			}
			return data[body : body+size], channels, nil
		}

		// Chunks are word-aligned.
		off = body + size + size%2
	}

	return nil, 0, errors.New("whispernative: no data chunk found")
}

// pcmToFloat32Mono down-mixes 16-bit signed little-endian PCM to mono
// float32 samples normalised to [-1.0, 1.0], averaging channels per frame.
func pcmToFloat32Mono(pcm []byte, channels int) []float32 {
	if channels < 1 {
		channels = 1
	}
	frames := len(pcm) / (2 * channels)
	mono := make([]float32, frames)
	for i := range frames {
		var sum float32
		for ch := range channels {
			idx := (i*channels + ch) * 2
			sample := int16(binary.LittleEndian.Uint16(pcm[idx : idx+2]))
			sum += float32(sample) / 32768.0
		}
		mono[i] = sum / float32(channels)
	}
	return mono
}
