package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/voxchat/voxchat/audio"
)

// whisperSampleRate is the rate the whisper engine consumes.
const whisperSampleRate = 16000

var whisperModels = map[string]bool{
	"tiny": true, "tiny.en": true,
	"base": true, "base.en": true,
	"small": true, "small.en": true,
	"medium": true, "medium.en": true,
	"large": true, "large-v2": true, "large-v3": true,
	"turbo": true,
}

// KnownModel reports whether name is a recognized whisper model size.
func KnownModel(name string) bool {
	return whisperModels[name]
}

// Whisper transcribes audio by running a locally installed whisper CLI.
// No network dependency; the model size is configurable.
type Whisper struct {
	binary string
	model  string

	// run executes the CLI against a prepared WAV file, writing
	// <name>.json into outDir. Replaceable in tests.
	run func(ctx context.Context, wavPath, outDir, language string) error
}

// NewWhisper resolves the whisper executable and validates the model name.
// A missing executable fails immediately with ErrBackendUnavailable rather
// than at the first transcription.
func NewWhisper(binary, model string) (*Whisper, error) {
	if binary == "" {
		binary = "whisper"
	}
	if model == "" {
		model = "small"
	}
	if !whisperModels[model] {
		return nil, fmt.Errorf("unknown whisper model %q", model)
	}

	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("%w: whisper executable %q not found", ErrBackendUnavailable, binary)
	}

	w := &Whisper{binary: path, model: model}
	w.run = w.runCLI
	return w, nil
}

func (w *Whisper) Transcribe(ctx context.Context, chunks [][]byte, language string) (Result, error) {
	samples, err := normalize(chunks, whisperSampleRate)
	if err != nil {
		return Result{}, err
	}
	if len(samples) == 0 {
		return Result{}, nil
	}

	wavData, err := audio.EncodeWAV(audio.Float32ToInt16(samples), whisperSampleRate)
	if err != nil {
		return Result{}, err
	}

	workDir, err := os.MkdirTemp("", "voxchat-whisper-")
	if err != nil {
		return Result{}, fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	wavPath := filepath.Join(workDir, "utterance.wav")
	if err := os.WriteFile(wavPath, wavData, 0644); err != nil {
		return Result{}, fmt.Errorf("failed to write audio file: %w", err)
	}

	if err := w.run(ctx, wavPath, workDir, language); err != nil {
		return Result{}, fmt.Errorf("whisper execution failed: %w", err)
	}

	return readWhisperJSON(filepath.Join(workDir, "utterance.json"))
}

func (w *Whisper) runCLI(ctx context.Context, wavPath, outDir, language string) error {
	args := []string{
		wavPath,
		"--model", w.model,
		"--output_format", "json",
		"--output_dir", outDir,
		"--fp16", "False",
	}
	if language != "" {
		args = append(args, "--language", language)
	}

	cmd := exec.CommandContext(ctx, w.binary, args...)

	slog.Debug("Executing whisper command",
		"command", cmd.String(),
		"model", w.model)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

type whisperSegment struct {
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	Text       string   `json:"text"`
	AvgLogprob *float64 `json:"avg_logprob"`
}

type whisperOutput struct {
	Text     string           `json:"text"`
	Segments []whisperSegment `json:"segments"`
	Language string           `json:"language"`
}

func readWhisperJSON(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read whisper output: %w", err)
	}

	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return Result{}, fmt.Errorf("failed to parse whisper output: %w", err)
	}

	result := Result{
		Text:     strings.TrimSpace(out.Text),
		Language: out.Language,
	}
	for _, seg := range out.Segments {
		segment := Segment{
			Text:  seg.Text,
			Start: floatPtr(seg.Start),
			End:   floatPtr(seg.End),
		}
		if seg.AvgLogprob != nil {
			segment.Confidence = floatPtr(*seg.AvgLogprob)
		}
		result.Segments = append(result.Segments, segment)
	}
	return result, nil
}
