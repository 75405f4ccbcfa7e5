package monitor

import (
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/voxchat/voxchat/transcript"
)

func (m *Monitor) worker(ctx context.Context) {
	slog.Debug("Worker starting")
	defer func() {
		slog.Debug("Worker shutting down")
		m.workers.Done()
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Debug("Worker context cancelled")
			return

		case job, ok := <-m.queue:
			if !ok {
				slog.Debug("Worker queue closed")
				return
			}

			if err := m.processJob(job); err != nil {
				slog.Error("Failed to process transcript document",
					"error", err,
					"file", job.Path)
			}
		}
	}
}

func (m *Monitor) processJob(job documentJob) error {
	doc, err := transcript.Read(job.Path)
	if err != nil {
		return err
	}

	id := doc.Conversation.ID
	if id == "" {
		id = strings.TrimSuffix(filepath.Base(job.Path), ".toml")
	}

	m.conversations.Store(id, doc)

	slog.Info("Loaded transcript document",
		"conversationID", id,
		"messages", len(doc.Messages))

	return m.broadcast(id, doc)
}

// notification is the websocket message sent when a document lands.
type notification struct {
	Type           string              `json:"type"`
	ConversationID string              `json:"conversationId"`
	Timestamp      time.Time           `json:"timestamp"`
	Document       transcript.Document `json:"document"`
}

func (m *Monitor) broadcast(id string, doc transcript.Document) error {
	data, err := json.Marshal(notification{
		Type:           "conversation",
		ConversationID: id,
		Timestamp:      time.Now().UTC(),
		Document:       doc,
	})
	if err != nil {
		return err
	}

	m.subscribersMu.Lock()
	defer m.subscribersMu.Unlock()

	for i, conn := range m.subscribers {
		select {
		case conn.send <- data:
			slog.Debug("Sent document to subscriber",
				"conversationID", id,
				"connectionIndex", i)
		default:
			slog.Warn("Failed to send to subscriber - channel full",
				"conversationID", id,
				"connectionIndex", i)
		}
	}
	return nil
}
