package websocket

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"project-verification/portal-backend/internal/notifications"
)

// Manager handles WebSocket connections and message routing
type Manager struct {
	connections map[string]*Connection
	mu          sync.RWMutex
	hub         *Hub
	upgrader    websocket.Upgrader
	logger      *zap.Logger
}

// Connection represents a WebSocket client connection to one project session
type Connection struct {
	ID           string
	Slug         string
	Conn         *websocket.Conn
	Send         chan notifications.WebSocketMessage
	LastActivity time.Time
	UserAgent    string
	IPAddress    string
	mu           sync.Mutex
}

// Hub serializes connection registration
type Hub struct {
	register   chan *Connection
	unregister chan *Connection
	stop       chan struct{}
	done       chan struct{}
}

// NewManager creates a new WebSocket manager. allowedOrigins empty allows any origin.
func NewManager(allowedOrigins []string, logger *zap.Logger) *Manager {
	hub := &Hub{
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}

	m := &Manager{
		connections: make(map[string]*Connection),
		hub:         hub,
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}

	go m.run()

	return m
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if len(allowed) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		for _, o := range allowed {
			if o == origin {
				return true
			}
		}
		return false
	}
}

// HandleConnection upgrades the request and subscribes it to slug
func (m *Manager) HandleConnection(w http.ResponseWriter, r *http.Request, slug string) (*Connection, error) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:           uuid.New().String(),
		Slug:         slug,
		Conn:         conn,
		Send:         make(chan notifications.WebSocketMessage, 64),
		LastActivity: time.Now(),
		UserAgent:    r.Header.Get("User-Agent"),
		IPAddress:    r.RemoteAddr,
	}

	m.hub.register <- connection

	go m.readPump(connection)
	go m.writePump(connection)

	return connection, nil
}

// ServeSession is HandleConnection for callers that only need the error
func (m *Manager) ServeSession(w http.ResponseWriter, r *http.Request, slug string) error {
	_, err := m.HandleConnection(w, r, slug)
	return err
}

// readPump reads presence pings until the client goes away
func (m *Manager) readPump(conn *Connection) {
	defer func() {
		select {
		case m.hub.unregister <- conn:
		case <-m.hub.done:
		}
		conn.Conn.Close()
	}()

	conn.Conn.SetReadLimit(512)
	conn.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.Conn.SetPongHandler(func(string) error {
		conn.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		var msg notifications.WebSocketMessage
		if err := conn.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				m.logger.Warn("websocket read failed", zap.String("connection_id", conn.ID), zap.Error(err))
			}
			return
		}

		conn.mu.Lock()
		conn.LastActivity = time.Now()
		conn.mu.Unlock()

		if msg.Type == notifications.WSMessageTypePresence {
			m.trySend(conn, notifications.WebSocketMessage{
				ID:        uuid.New().String(),
				Type:      notifications.WSMessageTypeStatus,
				Data:      map[string]any{"status": "connected", "connection_id": conn.ID},
				Timestamp: time.Now(),
				Target:    conn.Slug,
			})
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (m *Manager) writePump(conn *Connection) {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		conn.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				conn.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.Conn.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			conn.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// run owns registration; Send channels are closed only here, under the lock
func (m *Manager) run() {
	defer close(m.hub.done)
	for {
		select {
		case conn := <-m.hub.register:
			m.mu.Lock()
			m.connections[conn.ID] = conn
			m.mu.Unlock()
			m.logger.Debug("Connection registered", zap.String("connection_id", conn.ID), zap.String("slug", conn.Slug))

		case conn := <-m.hub.unregister:
			m.mu.Lock()
			if _, ok := m.connections[conn.ID]; ok {
				delete(m.connections, conn.ID)
				close(conn.Send)
			}
			m.mu.Unlock()
			m.logger.Debug("Connection unregistered", zap.String("connection_id", conn.ID), zap.String("slug", conn.Slug))

		case <-m.hub.stop:
			m.mu.Lock()
			for id, conn := range m.connections {
				close(conn.Send)
				delete(m.connections, id)
			}
			m.mu.Unlock()
			return
		}
	}
}

func (m *Manager) trySend(conn *Connection, message notifications.WebSocketMessage) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.connections[conn.ID]; !ok {
		return false
	}
	select {
	case conn.Send <- message:
		return true
	default:
		return false
	}
}

// SendToProject sends a message to every connection of a project session.
// It never blocks; full buffers drop the message.
func (m *Manager) SendToProject(slug string, message notifications.WebSocketMessage) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sent := 0
	for _, conn := range m.connections {
		if conn.Slug != slug {
			continue
		}
		message.Target = slug
		select {
		case conn.Send <- message:
			sent++
		default:
			// Connection buffer full, skip
		}
	}

	if sent == 0 {
		return fmt.Errorf("no clients connected to project %s", slug)
	}

	return nil
}

// GetProjectConnections returns the number of connections for a project session
func (m *Manager) GetProjectConnections(slug string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, conn := range m.connections {
		if conn.Slug == slug {
			count++
		}
	}
	return count
}

// Close closes the WebSocket manager and all connections
func (m *Manager) Close() {
	close(m.hub.stop)
	<-m.hub.done
}
