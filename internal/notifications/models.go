package notifications

import "time"

// WebSocket message types
const (
	WSMessageTypeNotification = "notification"
	WSMessageTypeOpen         = "open"
	WSMessageTypeStatus       = "status"
	WSMessageTypePresence     = "presence"
)

// WebSocketMessage represents WebSocket message format
type WebSocketMessage struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
	Target    string         `json:"target"` // project slug
}
