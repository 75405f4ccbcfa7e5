package monitor

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/voxchat/voxchat/transcript"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10
)

type wsConnection struct {
	conn    *websocket.Conn
	send    chan []byte
	monitor *Monitor
}

func (m *Monitor) startHTTP(ctx context.Context) error {
	router := mux.NewRouter()

	router.HandleFunc("/api/conversations", m.handleListConversations).Methods("GET")
	router.HandleFunc("/api/conversations/{conversationID}", m.handleGetConversation).Methods("GET")
	router.HandleFunc("/ws", m.handleWebSocket)

	m.server = &http.Server{
		Addr:    m.config.HTTPAddr,
		Handler: router,
	}

	go func() {
		slog.Info("Monitor listening", "addr", m.config.HTTPAddr)
		if err := m.server.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	<-ctx.Done()
	return m.server.Shutdown(context.Background())
}

// handleListConversations returns the header of every loaded conversation.
func (m *Monitor) handleListConversations(w http.ResponseWriter, r *http.Request) {
	index := make(map[string]transcript.Header)

	m.conversations.Range(func(key, value interface{}) bool {
		id := key.(string)
		doc := value.(transcript.Document)
		index[id] = doc.Conversation
		return true
	})

	slog.Debug("Sending conversation index", "numConversations", len(index))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(index)
}

// handleGetConversation returns one full transcript document.
func (m *Monitor) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	conversationID := vars["conversationID"]

	value, ok := m.conversations.Load(conversationID)
	if !ok {
		http.Error(w, "Conversation not found", http.StatusNotFound)
		return
	}

	doc := value.(transcript.Document)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		slog.Error("Failed to encode response",
			"error", err,
			"conversationID", conversationID)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
}

func (m *Monitor) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}

	wsConn := &wsConnection{
		conn:    conn,
		send:    make(chan []byte, 256),
		monitor: m,
	}

	m.registerSubscriber(wsConn)

	go wsConn.writePump()
	go wsConn.readPump()
}

func (m *Monitor) registerSubscriber(wsConn *wsConnection) {
	m.subscribersMu.Lock()
	defer m.subscribersMu.Unlock()
	m.subscribers = append(m.subscribers, wsConn)
}

func (m *Monitor) unregisterSubscriber(wsConn *wsConnection) {
	m.subscribersMu.Lock()
	defer m.subscribersMu.Unlock()
	for i, conn := range m.subscribers {
		if conn == wsConn {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			break
		}
	}
}

func (c *wsConnection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *wsConnection) readPump() {
	defer func() {
		c.monitor.unregisterSubscriber(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket read error", "error", err)
			}
			break
		}
	}
}
