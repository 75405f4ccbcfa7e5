package transcribe

import (
	"bytes"
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/voxchat/voxchat/audio"
)

// openaiSampleRate is the rate audio is normalized to before upload.
const openaiSampleRate = 16000

// transcriptionAPI is the slice of the OpenAI client the backend needs.
type transcriptionAPI interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

// OpenAI transcribes audio through the OpenAI audio-transcription endpoint.
// The normalized buffer is always framed as a WAV container before
// transmission since the API refuses raw PCM.
type OpenAI struct {
	client transcriptionAPI
	model  string
}

// NewOpenAI builds the remote backend. The API key is a hard requirement;
// without it the backend is unavailable, reported at construction.
func NewOpenAI(apiKey, model, baseURL string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key is required", ErrBackendUnavailable)
	}
	if model == "" {
		model = openai.Whisper1
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

func (o *OpenAI) Transcribe(ctx context.Context, chunks [][]byte, language string) (Result, error) {
	samples, err := normalize(chunks, openaiSampleRate)
	if err != nil {
		return Result{}, err
	}
	if len(samples) == 0 {
		return Result{}, nil
	}

	wavData, err := audio.EncodeWAV(audio.Float32ToInt16(samples), openaiSampleRate)
	if err != nil {
		return Result{}, err
	}

	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.model,
		FilePath: "utterance.wav",
		Reader:   bytes.NewReader(wavData),
		Format:   openai.AudioResponseFormatVerboseJSON,
		Language: language,
	})
	if err != nil {
		return Result{}, fmt.Errorf("transcription request failed: %w", err)
	}

	result := Result{
		Text:     resp.Text,
		Language: resp.Language,
	}
	for _, seg := range resp.Segments {
		result.Segments = append(result.Segments, Segment{
			Text:       seg.Text,
			Start:      floatPtr(seg.Start),
			End:        floatPtr(seg.End),
			Confidence: floatPtr(seg.AvgLogprob),
		})
	}
	return result, nil
}
