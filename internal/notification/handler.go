package notification

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shaharia-lab/mailnotify/internal/storage"
)

// EventStageStatus is the event type for build-stage status changes.
const EventStageStatus = "stage.status_changed"

// Sender is the part of Dispatcher the Handler depends on.
type Sender interface {
	Send(ctx context.Context, subject, body, recipient string) Result
}

// Handler turns stage events into mail, one delivery per recipient, and
// records every attempt in the delivery log.
type Handler struct {
	sender     Sender
	recipients []string
	policy     NotifyPolicy
	store      storage.DeliveryStore
	logger     *slog.Logger
}

// NewHandler creates a Handler. store may be nil when no delivery log is kept.
func NewHandler(sender Sender, recipients []string, policy NotifyPolicy, store storage.DeliveryStore, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		sender:     sender,
		recipients: recipients,
		policy:     policy,
		store:      store,
		logger:     logger,
	}
}

// Handle mails ev to every recipient if the policy allows it. It returns the
// per-recipient results in recipient order; nil means nothing was sent.
func (h *Handler) Handle(ctx context.Context, eventID string, ev StageEvent) []Result {
	if !h.policy.Allows(ev) {
		h.logger.Debug("stage event filtered by notify policy",
			"event_id", eventID, "stage", ev.Locator(), "state", ev.State)
		return nil
	}
	if len(h.recipients) == 0 {
		h.logger.Warn("no recipients configured, dropping notification", "event_id", eventID)
		return nil
	}

	subject := Subject(ev)
	body, err := Body(ev)
	if err != nil {
		h.logger.Error("failed to render notification body", "event_id", eventID, "error", err)
		return nil
	}

	results := make([]Result, 0, len(h.recipients))
	for _, rcpt := range h.recipients {
		res := h.sender.Send(ctx, subject, body, rcpt)
		results = append(results, res)
		h.record(ctx, eventID, rcpt, subject, res)
	}
	return results
}

func (h *Handler) record(ctx context.Context, eventID, recipient, subject string, res Result) {
	if h.store == nil {
		return
	}
	entry := storage.DeliveryEntry{
		EventID:   eventID,
		EventType: EventStageStatus,
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
	if err := h.store.LogDelivery(ctx, entry); err != nil {
		h.logger.Error("failed to record delivery", "event_id", eventID, "error", err)
	}
}

// ParseRecipients splits a comma separated address list, dropping blanks.
func ParseRecipients(list string) []string {
	var out []string
	for _, r := range strings.Split(list, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
