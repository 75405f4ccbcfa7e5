// Package pipeline ties capture, transcription, generation, and
// persistence into one synchronous flow. The whole exchange runs to
// completion single-threaded; the only suspension points are the device
// read and the two backend calls.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/voxchat/voxchat/audio"
	"github.com/voxchat/voxchat/chat"
	"github.com/voxchat/voxchat/transcribe"
	"github.com/voxchat/voxchat/transcript"
)

// Outcome distinguishes the no-speech result from a completed exchange.
// Empty audio is not an error; it just means there is nothing to say.
type Outcome int

const (
	// OutcomeReply means a user/assistant exchange completed and was
	// persisted.
	OutcomeReply Outcome = iota

	// OutcomeNoSpeech means the captured audio produced an empty
	// transcript; generation and persistence were skipped.
	OutcomeNoSpeech
)

// Options bounds one exchange.
type Options struct {
	// ConversationID identifies the persisted document. A fresh UUID is
	// generated when empty.
	ConversationID string

	// Duration limits live capture to this many seconds by bounding the
	// number of chunks pulled. Zero drains the source, which is only
	// sensible for a finite buffer source.
	Duration float64

	// Language optionally hints the transcription backend.
	Language string
}

// Result reports what one exchange produced.
type Result struct {
	Outcome        Outcome
	ConversationID string
	Transcript     transcribe.Result
	User           chat.Message
	Assistant      chat.Message
	DocumentPath   string
}

// Pipeline composes the four subsystems behind their contracts.
type Pipeline struct {
	Source       audio.Source
	Transcriber  transcribe.Transcriber
	Conversation *chat.Conversation
	Logger       *transcript.Logger
}

// Run executes one capture, transcribe, converse, persist exchange. The
// audio device is released on every exit path, including failures in the
// downstream backends.
func (p *Pipeline) Run(ctx context.Context, opts Options) (Result, error) {
	result := Result{ConversationID: opts.ConversationID}
	if result.ConversationID == "" {
		result.ConversationID = uuid.NewString()
	}

	chunks, err := p.capture(opts.Duration)
	if err != nil {
		return result, err
	}

	transcriptResult, err := p.Transcriber.Transcribe(ctx, chunks, opts.Language)
	if err != nil {
		return result, fmt.Errorf("transcription failed: %w", err)
	}
	result.Transcript = transcriptResult

	if transcriptResult.Text == "" {
		slog.Info("No speech detected", "conversationID", result.ConversationID)
		result.Outcome = OutcomeNoSpeech
		return result, nil
	}

	slog.Info("Transcribed utterance",
		"conversationID", result.ConversationID,
		"text", transcriptResult.Text,
		"segments", len(transcriptResult.Segments))

	result.User = p.Conversation.AddUserMessage(
		transcriptResult.Text,
		map[string]any{"transcript": transcriptMetadata(transcriptResult)},
	)

	result.Assistant, err = p.Conversation.GenerateReply(ctx)
	if err != nil {
		return result, err
	}

	history := p.Conversation.History()
	path, err := p.Logger.Write(
		result.ConversationID,
		systemMessages(history),
		pairTurns(history),
		map[string]any{"transcript": transcriptMetadata(transcriptResult)},
	)
	if err != nil {
		return result, err
	}

	result.DocumentPath = path
	result.Outcome = OutcomeReply

	slog.Info("Conversation persisted",
		"conversationID", result.ConversationID,
		"path", path)
	return result, nil
}

// capture opens the source, pulls the bounded chunk sequence, and releases
// the device before any backend work starts. Close runs on every exit path.
func (p *Pipeline) capture(duration float64) ([][]byte, error) {
	if err := p.Source.Open(); err != nil {
		return nil, err
	}
	defer p.Source.Close()

	stream, err := p.Source.Chunks()
	if err != nil {
		return nil, err
	}

	maxChunks := 0
	if duration > 0 {
		maxChunks = audio.ChunksForDuration(p.Source.Config(), duration)
	}

	chunks, err := audio.Collect(stream, maxChunks)
	if err != nil {
		return nil, fmt.Errorf("audio capture failed: %w", err)
	}
	return chunks, nil
}

// systemMessages filters the preamble messages out of the history.
func systemMessages(history []chat.Message) []chat.Message {
	var system []chat.Message
	for _, msg := range history {
		if msg.Role == chat.RoleSystem {
			system = append(system, msg)
		}
	}
	return system
}

// pairTurns walks the history pairing each user message with the assistant
// message that answered it. An unanswered trailing user message is not a
// turn and is not persisted.
func pairTurns(history []chat.Message) []transcript.Turn {
	var turns []transcript.Turn
	var pending *chat.Message
	for _, msg := range history {
		switch msg.Role {
		case chat.RoleUser:
			m := msg
			pending = &m
		case chat.RoleAssistant:
			if pending != nil {
				turns = append(turns, transcript.Turn{User: *pending, Assistant: msg})
				pending = nil
			}
		}
	}
	return turns
}

// transcriptMetadata flattens a transcription result into the open-ended
// metadata shape carried on the user message and the persisted document.
// Absent optional fields are omitted rather than written as zeros.
func transcriptMetadata(t transcribe.Result) map[string]any {
	meta := map[string]any{}
	if t.Language != "" {
		meta["language"] = t.Language
	}

	segments := make([]map[string]any, 0, len(t.Segments))
	for _, seg := range t.Segments {
		entry := map[string]any{"text": seg.Text}
		if seg.Start != nil {
			entry["start"] = *seg.Start
		}
		if seg.End != nil {
			entry["end"] = *seg.End
		}
		if seg.Confidence != nil {
			entry["confidence"] = *seg.Confidence
		}
		segments = append(segments, entry)
	}
	if len(segments) > 0 {
		meta["segments"] = segments
	}
	return meta
}
