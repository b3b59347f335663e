package notifications

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"project-verification/portal-backend/internal/verification"
)

// Sender delivers a message to every connection of a project session
type Sender interface {
	SendToProject(slug string, message WebSocketMessage) error
}

// Service turns wizard notices and redirects into websocket messages
type Service struct {
	sender Sender
	logger *zap.Logger
}

// NewService creates a new notification service
func NewService(sender Sender, logger *zap.Logger) *Service {
	return &Service{sender: sender, logger: logger}
}

// ForSession returns the notifier/opener bound to one project session
func (s *Service) ForSession(slug string) *SessionChannel {
	return &SessionChannel{service: s, slug: slug}
}

func (s *Service) send(slug, msgType string, data map[string]any) error {
	msg := WebSocketMessage{
		ID:        uuid.New().String(),
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now(),
		Target:    slug,
	}
	if err := s.sender.SendToProject(slug, msg); err != nil {
		s.logger.Debug("Notification not delivered",
			zap.String("slug", slug),
			zap.String("type", msgType),
			zap.Error(err))
		return err
	}
	return nil
}

// SessionChannel implements verification.Notifier and verification.Opener
type SessionChannel struct {
	service *Service
	slug    string
}

// Notify pushes a user-visible notice
func (c *SessionChannel) Notify(message string, severity verification.Severity) {
	_ = c.service.send(c.slug, WSMessageTypeNotification, map[string]any{
		"message":  message,
		"severity": string(severity),
	})
}

// Open asks connected clients to open url in a new tab. Clients that are not
// connected get the url in the HTTP response instead, so a missed push is
// not an error.
func (c *SessionChannel) Open(url string) error {
	_ = c.service.send(c.slug, WSMessageTypeOpen, map[string]any{
		"url":    url,
		"target": "_blank",
	})
	return nil
}
