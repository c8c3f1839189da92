package storage

import (
	"context"
	"time"
)

// DeliveryEntry records a single mail delivery attempt.
type DeliveryEntry struct {
	ID        int64     `json:"id"`
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	ErrorMsg  string    `json:"error_msg,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DeliveryStore persists delivery attempts.
type DeliveryStore interface {
	// LogDelivery records a delivery attempt.
	LogDelivery(ctx context.Context, entry DeliveryEntry) error
	// ListDeliveries returns the most recent entries, newest first, up to limit.
	ListDeliveries(ctx context.Context, limit int) ([]DeliveryEntry, error)
	// PruneBefore deletes entries created before t and returns how many were removed.
	PruneBefore(ctx context.Context, t time.Time) (int64, error)
}
