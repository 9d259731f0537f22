package audio

// Chunk describes one time-bounded segment of the normalised recording,
// ready for sequential transcription. Chunks are immutable once created.
type Chunk struct {
	// SourcePath is the WAV file holding this chunk's audio. For short
	// recordings this is the normalised file itself.
	SourcePath string

	// StartSeconds is the chunk's offset into the full recording.
	StartSeconds float64

	// DurationSeconds is the chunk's length.
	DurationSeconds float64

	// OverlapSeconds is how much of this chunk repeats the tail of the
	// previous chunk. Zero for the first chunk.
	OverlapSeconds float64
}

// planChunks computes the chunk layout for a recording of the given duration.
//
// Recordings at or below cfg.ShortAudioSeconds produce a single chunk
// spanning the whole file — the overlap-stitching machinery is skipped
// entirely. Longer recordings are split into cfg.ChunkSeconds windows whose
// start times advance by (ChunkSeconds - OverlapSeconds), so consecutive
// chunks share exactly OverlapSeconds of audio and no words are lost at a
// boundary. The last chunk always reaches the end of the recording.
func planChunks(duration float64, cfg Config) []Chunk {
	if duration <= cfg.ShortAudioSeconds {
		return []Chunk{{StartSeconds: 0, DurationSeconds: duration}}
	}

	stride := cfg.ChunkSeconds - cfg.OverlapSeconds

	var chunks []Chunk
	for start := 0.0; ; start += stride {
		length := cfg.ChunkSeconds
		last := false
		if start+length >= duration {
			length = duration - start
			last = true
		}

		overlap := cfg.OverlapSeconds
		if start == 0 {
			overlap = 0
		}
		chunks = append(chunks, Chunk{
			StartSeconds:    start,
			DurationSeconds: length,
			OverlapSeconds:  overlap,
		})
		if last {
			return chunks
		}
	}
}
