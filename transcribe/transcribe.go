// Package transcribe converts captured PCM audio into text through one of
// two interchangeable speech-to-text backends: a locally installed whisper
// CLI or the OpenAI transcription API. Both normalize their input the same
// way before the underlying engine ever sees it.
package transcribe

import (
	"context"
	"errors"
)

// ErrBackendUnavailable indicates a required runtime capability (the local
// whisper executable, or the remote API credentials) is missing. Surfaced
// at construction, never at call time.
var ErrBackendUnavailable = errors.New("transcription backend unavailable")

// Segment is a time-aligned fragment of a transcript. Timing offsets are in
// seconds; nil marks an absent value, which is distinct from zero.
type Segment struct {
	Text       string
	Start      *float64
	End        *float64
	Confidence *float64
}

// Result is a whole-utterance transcription. Empty audio yields a Result
// with empty Text and no Segments; that is the defined no-speech outcome,
// not an error.
type Result struct {
	Text     string
	Segments []Segment
	Language string
}

// Transcriber converts a complete sequence of PCM chunks into text. The
// chunks are concatenated into one contiguous buffer before processing; the
// caller decides how much audio to collect. The input is never retained.
type Transcriber interface {
	Transcribe(ctx context.Context, chunks [][]byte, language string) (Result, error)
}

func floatPtr(v float64) *float64 { return &v }
