package transcribe

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func fakeBinary(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "whisper")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0755))
	return path
}

func TestNewWhisperMissingBinary(t *testing.T) {
	_, err := NewWhisper(filepath.Join(t.TempDir(), "does-not-exist"), "small")
	require.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestNewWhisperUnknownModel(t *testing.T) {
	_, err := NewWhisper(fakeBinary(t), "enormous")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrBackendUnavailable)
}

func TestKnownModel(t *testing.T) {
	require.True(t, KnownModel("small"))
	require.True(t, KnownModel("large-v3"))
	require.False(t, KnownModel("whisper-1"))
	require.False(t, KnownModel(""))
}

func TestWhisperEmptyAudioSkipsEngine(t *testing.T) {
	w, err := NewWhisper(fakeBinary(t), "small")
	require.NoError(t, err)

	w.run = func(ctx context.Context, wavPath, outDir, language string) error {
		t.Fatal("engine invoked for empty audio")
		return nil
	}

	result, err := w.Transcribe(context.Background(), nil, "")
	require.NoError(t, err)
	require.Empty(t, result.Text)
	require.Empty(t, result.Segments)
}

func TestWhisperTranscribe(t *testing.T) {
	w, err := NewWhisper(fakeBinary(t), "small")
	require.NoError(t, err)

	var gotLanguage string
	w.run = func(ctx context.Context, wavPath, outDir, language string) error {
		gotLanguage = language

		// The engine must receive a WAV file on disk.
		data, err := os.ReadFile(wavPath)
		require.NoError(t, err)
		require.True(t, len(data) > 44)
		require.Equal(t, "RIFF", string(data[:4]))

		logprob := -0.25
		out := whisperOutput{
			Text:     " hello there ",
			Language: "en",
			Segments: []whisperSegment{
				{Start: 0.0, End: 1.5, Text: " hello", AvgLogprob: &logprob},
				{Start: 1.5, End: 2.0, Text: " there"},
			},
		}
		encoded, err := json.Marshal(out)
		require.NoError(t, err)
		return os.WriteFile(filepath.Join(outDir, "utterance.json"), encoded, 0644)
	}

	chunks := [][]byte{pcmBytes([]int16{100, -100, 200, -200})}
	result, err := w.Transcribe(context.Background(), chunks, "en")
	require.NoError(t, err)

	require.Equal(t, "en", gotLanguage)
	require.Equal(t, "hello there", result.Text)
	require.Equal(t, "en", result.Language)
	require.Len(t, result.Segments, 2)

	first := result.Segments[0]
	require.Equal(t, " hello", first.Text)
	require.NotNil(t, first.Start)
	require.Equal(t, 0.0, *first.Start)
	require.NotNil(t, first.End)
	require.Equal(t, 1.5, *first.End)
	require.NotNil(t, first.Confidence)
	require.Equal(t, -0.25, *first.Confidence)

	// Missing avg_logprob stays absent rather than zero.
	require.Nil(t, result.Segments[1].Confidence)
}
