// Package transcript persists finished conversations as TOML documents,
// one document per conversation identifier.
package transcript

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/voxchat/voxchat/chat"
)

// Turn pairs one user message with the assistant message it produced. It is
// the unit of persistence only; turns are not stored outside the
// conversation history.
type Turn struct {
	User      chat.Message
	Assistant chat.Message
}

// Document is the persisted transcript shape: top-level conversation
// metadata followed by the full ordered message list.
type Document struct {
	Conversation Header   `toml:"conversation" json:"conversation"`
	Messages     []Record `toml:"messages" json:"messages"`
}

// Header carries the conversation identity and arbitrary metadata.
type Header struct {
	ID        string         `toml:"id" json:"id"`
	CreatedAt string         `toml:"created_at" json:"created_at"`
	Metadata  map[string]any `toml:"metadata,omitempty" json:"metadata,omitempty"`
}

// Record is one serialized message.
type Record struct {
	Role      string         `toml:"role" json:"role"`
	Content   string         `toml:"content" json:"content"`
	Timestamp string         `toml:"timestamp" json:"timestamp"`
	Metadata  map[string]any `toml:"metadata,omitempty" json:"metadata,omitempty"`
}

// Logger writes transcript documents into a single output directory.
type Logger struct {
	dir string
}

// NewLogger ensures the output directory exists before any write is
// attempted.
func NewLogger(dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create transcript directory: %w", err)
	}
	return &Logger{dir: dir}, nil
}

// Path returns the document location for a conversation identifier.
func (l *Logger) Path(conversationID string) string {
	return filepath.Join(l.dir, conversationID+".toml")
}

// Write persists one complete conversation document: the system messages
// first, then each turn's user/assistant pair in order. The write replaces
// any previous document for the identifier (last write wins) and is atomic
// from the caller's point of view - the document is staged in a temp file
// and renamed into place.
func (l *Logger) Write(conversationID string, system []chat.Message, turns []Turn, metadata map[string]any) (string, error) {
	doc := Document{
		Conversation: Header{
			ID:        conversationID,
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
			Metadata:  metadata,
		},
	}

	for _, msg := range system {
		doc.Messages = append(doc.Messages, toRecord(msg))
	}
	for _, turn := range turns {
		doc.Messages = append(doc.Messages, toRecord(turn.User), toRecord(turn.Assistant))
	}

	tmp, err := os.CreateTemp(l.dir, conversationID+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create transcript file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(doc); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to encode transcript: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close transcript file: %w", err)
	}

	path := l.Path(conversationID)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to finalize transcript: %w", err)
	}
	return path, nil
}

// Read loads a persisted transcript document.
func Read(path string) (Document, error) {
	var doc Document
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return Document{}, fmt.Errorf("failed to decode transcript: %w", err)
	}
	return doc, nil
}

func toRecord(msg chat.Message) Record {
	rec := Record{
		Role:      msg.Role,
		Content:   msg.Content,
		Timestamp: msg.Timestamp.UTC().Format(time.RFC3339),
	}
	if len(msg.Metadata) > 0 {
		rec.Metadata = msg.Metadata
	}
	return rec
}
