// Package service holds the application logic behind the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shaharia-lab/mailnotify/internal/eventbus"
	"github.com/shaharia-lab/mailnotify/internal/notification"
	"github.com/shaharia-lab/mailnotify/internal/storage"
)

const maskedPassword = "***"

// EventTestNotification is the delivery log event type for test mails.
const EventTestNotification = "notification.test"

// NotificationService queues stage events and exposes the delivery log.
type NotificationService interface {
	// GetSettings returns the active SMTP settings. The password is masked.
	GetSettings() notification.Settings
	// PublishStageEvent validates ev and queues it for delivery, returning the event ID.
	PublishStageEvent(ev notification.StageEvent) (string, error)
	// TestNotification sends a test mail to recipient synchronously.
	TestNotification(ctx context.Context, recipient string) (notification.Result, error)
	// ListLog returns the most recent delivery log entries.
	ListLog(ctx context.Context, limit int) ([]storage.DeliveryEntry, error)
}

// notificationServiceImpl implements NotificationService.
type notificationServiceImpl struct {
	settings  notification.Settings
	sender    notification.Sender
	publisher EventPublisher
	store     storage.DeliveryStore
	serverURL string
	logger    *slog.Logger
}

// NewNotificationService creates a new NotificationService. serverURL fills in
// stage events that arrive without one.
func NewNotificationService(
	settings notification.Settings,
	sender notification.Sender,
	publisher EventPublisher,
	store storage.DeliveryStore,
	serverURL string,
	logger *slog.Logger,
) NotificationService {
	return &notificationServiceImpl{
		settings:  settings,
		sender:    sender,
		publisher: publisher,
		store:     store,
		serverURL: serverURL,
		logger:    logger,
	}
}

// GetSettings returns the SMTP settings with the password masked.
func (s *notificationServiceImpl) GetSettings() notification.Settings {
	out := s.settings
	if out.Password != "" {
		out.Password = maskedPassword
	}
	return out
}

func (s *notificationServiceImpl) PublishStageEvent(ev notification.StageEvent) (string, error) {
	if err := ev.Validate(); err != nil {
		return "", &ValidationError{Message: err.Error()}
	}
	if ev.ServerURL == "" {
		ev.ServerURL = s.serverURL
	}

	id, err := s.publisher.Publish(notification.EventStageStatus, ev)
	if errors.Is(err, eventbus.ErrBufferFull) || errors.Is(err, eventbus.ErrClosed) {
		return "", &UnavailableError{Err: err}
	}
	if err != nil {
		return "", fmt.Errorf("publishing stage event: %w", err)
	}
	return id, nil
}

// TestNotification lets operators verify SMTP settings without a CI event.
// The attempt is recorded in the delivery log like any other. A failed log
// write is only logged; the result still reflects the send.
func (s *notificationServiceImpl) TestNotification(ctx context.Context, recipient string) (notification.Result, error) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return notification.Result{}, &ValidationError{Field: "recipient", Message: "recipient is required"}
	}

	subject := "mailnotify test notification"
	res := s.sender.Send(ctx, subject,
		"This is a test notification from mailnotify.\n\nYour SMTP configuration is working correctly.",
		recipient)

	entry := storage.DeliveryEntry{
		EventType: EventTestNotification,
		Recipient: recipient,
		Subject:   subject,
		Status:    res.Status(),
		CreatedAt: time.Now().UTC(),
	}
	if !res.OK() {
		entry.Reason = res.Reason.String()
		if res.Err != nil {
			entry.ErrorMsg = res.Err.Error()
		}
	}
	if err := s.store.LogDelivery(ctx, entry); err != nil {
		s.logger.Error("failed to record test delivery", "recipient", recipient, "error", err)
	}
	return res, nil
}

// ListLog returns the most recent delivery log entries.
func (s *notificationServiceImpl) ListLog(ctx context.Context, limit int) ([]storage.DeliveryEntry, error) {
	return s.store.ListDeliveries(ctx, limit)
}
