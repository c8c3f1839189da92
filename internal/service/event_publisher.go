package service

import "github.com/shaharia-lab/mailnotify/internal/notification"

// EventPublisher is the interface for publishing stage events.
// The service uses it to queue work without depending on a concrete
// event bus implementation.
type EventPublisher interface {
	Publish(eventType string, stage notification.StageEvent) (string, error)
}
