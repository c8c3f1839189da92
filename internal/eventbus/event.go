package eventbus

import (
	"time"

	"github.com/shaharia-lab/mailnotify/internal/notification"
)

// Event is a stage status change queued for notification.
type Event struct {
	ID        string                  `json:"id"`
	Type      string                  `json:"type"`
	Timestamp time.Time               `json:"timestamp"`
	Stage     notification.StageEvent `json:"stage"`
}

// Listener handles an event.
type Listener func(Event)
