// Package monitor watches the transcript directory and exposes persisted
// conversations over HTTP, pushing newly written documents to websocket
// subscribers.
package monitor

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/gorilla/websocket"
)

// Config for the monitor service.
type Config struct {
	// Directory of persisted transcript documents to watch.
	TranscriptsDir string

	// HTTP server address.
	HTTPAddr string

	// Number of worker threads decoding documents.
	Workers int
}

// Monitor serves the transcript archive and live updates.
type Monitor struct {
	config Config

	// File system watcher
	watcher *fsnotify.Watcher

	// Decoded conversation documents, keyed by conversation id
	conversations sync.Map

	// Websocket subscribers
	subscribersMu sync.Mutex
	subscribers   []*wsConnection

	// Processing queue
	queue   chan documentJob
	workers sync.WaitGroup

	server   *http.Server
	upgrader websocket.Upgrader
}

// documentJob points a worker at a transcript document to (re)load.
type documentJob struct {
	Path string
}

// New creates a Monitor over the given transcript directory.
func New(cfg Config) (*Monitor, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	m := &Monitor{
		config:  cfg,
		watcher: watcher,
		queue:   make(chan documentJob, 100),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Local single-user service.
				return true
			},
		},
	}

	return m, nil
}

// Start begins watching and serving. Blocks until the context is done.
func (m *Monitor) Start(ctx context.Context) error {
	for i := 0; i < m.config.Workers; i++ {
		m.workers.Add(1)
		go m.worker(ctx)
	}

	m.loadExisting()

	go m.watchFiles(ctx)

	return m.startHTTP(ctx)
}

// Stop gracefully shuts down the monitor.
func (m *Monitor) Stop(ctx context.Context) error {
	close(m.queue)

	done := make(chan struct{})
	go func() {
		m.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("shutdown timed out")
	}

	if m.server != nil {
		if err := m.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to stop HTTP server: %w", err)
		}
	}

	if err := m.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close file watcher: %w", err)
	}

	return nil
}
