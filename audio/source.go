package audio

import (
	"errors"
	"io"
)

var (
	// ErrBackendUnavailable indicates the audio driver could not be
	// initialized. Surfaced at Open, never retried.
	ErrBackendUnavailable = errors.New("audio backend unavailable")

	// ErrUnsupportedFormat indicates the configured sample format is not
	// one of the supported encodings.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrNotOpen indicates Chunks was called before Open on a
	// device-backed source.
	ErrNotOpen = errors.New("audio source is not opened")

	// ErrUnsupportedSampleWidth indicates a WAV container declared a
	// sample width other than 16 bits.
	ErrUnsupportedSampleWidth = errors.New("unsupported WAV sample width")
)

// Stream is a pull-based sequence of PCM chunks. Next returns io.EOF when a
// finite stream is exhausted; an infinite stream blocks until a chunk is
// available.
type Stream interface {
	Next() ([]byte, error)
}

// Source produces raw PCM byte chunks from a device or a static buffer.
// Close must be safe to call when never opened or already closed.
type Source interface {
	Open() error
	Close() error
	Chunks() (Stream, error)
	Config() Config
}

// Collect pulls up to maxChunks chunks from the stream, or everything until
// end-of-stream when maxChunks is zero. Bounding by chunk count is how a
// caller imposes a duration limit on an infinite device stream.
func Collect(s Stream, maxChunks int) ([][]byte, error) {
	var chunks [][]byte
	for maxChunks == 0 || len(chunks) < maxChunks {
		chunk, err := s.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

// ChunksForDuration computes how many chunks cover the given number of
// seconds at the configured sample rate and block size. Always at least one.
func ChunksForDuration(cfg Config, seconds float64) int {
	n := int(seconds * float64(cfg.SampleRate) / float64(cfg.ChunkSize))
	if n < 1 {
		n = 1
	}
	return n
}
