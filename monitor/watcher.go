package monitor

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// loadExisting queues every document already present in the transcript
// directory so the archive is complete before the watcher takes over.
func (m *Monitor) loadExisting() {
	entries, err := os.ReadDir(m.config.TranscriptsDir)
	if err != nil {
		slog.Error("Failed to read transcripts directory",
			"error", err,
			"path", m.config.TranscriptsDir)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		m.enqueue(filepath.Join(m.config.TranscriptsDir, entry.Name()))
	}
}

func (m *Monitor) watchFiles(ctx context.Context) {
	if err := m.watcher.Add(m.config.TranscriptsDir); err != nil {
		slog.Error("Failed to start watching transcripts directory",
			"error", err,
			"path", m.config.TranscriptsDir)
		return
	}

	slog.Info("Started watching transcripts directory",
		"path", m.config.TranscriptsDir)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			m.handleFSEvent(event)

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", "error", err)
		}
	}
}

func (m *Monitor) handleFSEvent(event fsnotify.Event) {
	// The logger stages documents in .tmp files and renames them into
	// place; only completed .toml documents matter here.
	if !strings.HasSuffix(event.Name, ".toml") {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}
	if info, err := os.Stat(event.Name); err != nil || info.IsDir() {
		return
	}

	m.enqueue(event.Name)
}

func (m *Monitor) enqueue(path string) {
	select {
	case m.queue <- documentJob{Path: path}:
		slog.Debug("Queued transcript document", "file", filepath.Base(path))
	default:
		slog.Warn("Document queue is full, dropping event", "file", filepath.Base(path))
	}
}
