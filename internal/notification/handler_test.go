package notification_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/mailnotify/internal/notification"
	"github.com/shaharia-lab/mailnotify/internal/storage"
)

type sentMail struct {
	subject, body, recipient string
}

type stubSender struct {
	mu      sync.Mutex
	sent    []sentMail
	results map[string]notification.Result
}

func (s *stubSender) Send(_ context.Context, subject, body, recipient string) notification.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMail{subject, body, recipient})
	return s.results[recipient]
}

type stubStore struct {
	entries []storage.DeliveryEntry
	err     error
}

func (s *stubStore) LogDelivery(_ context.Context, e storage.DeliveryEntry) error {
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, e)
	return nil
}

func (s *stubStore) ListDeliveries(context.Context, int) ([]storage.DeliveryEntry, error) {
	return s.entries, nil
}

func (s *stubStore) PruneBefore(context.Context, time.Time) (int64, error) { return 0, nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestHandler_SendsToEveryRecipient(t *testing.T) {
	sender := &stubSender{results: map[string]notification.Result{
		"ops@example.com": {Reason: notification.ReasonDelivery, Err: errors.New("550 mailbox unavailable")},
	}}
	store := &stubStore{}
	h := notification.NewHandler(sender, []string{"dev@example.com", "ops@example.com"},
		notification.DefaultNotifyPolicy(), store, discardLogger())

	results := h.Handle(context.Background(), "evt-1", failedStage())

	require.Len(t, results, 2)
	assert.True(t, results[0].OK())
	assert.Equal(t, notification.ReasonDelivery, results[1].Reason)

	require.Len(t, sender.sent, 2)
	assert.Equal(t, "Stage [build/12/test/3] failed", sender.sent[0].subject)
	assert.Contains(t, sender.sent[0].body, "See details:")
	assert.Equal(t, "ops@example.com", sender.sent[1].recipient)

	require.Len(t, store.entries, 2)
	assert.Equal(t, "sent", store.entries[0].Status)
	assert.Equal(t, "evt-1", store.entries[0].EventID)
	assert.Equal(t, notification.EventStageStatus, store.entries[0].EventType)
	assert.Equal(t, "failed", store.entries[1].Status)
	assert.Equal(t, "delivery", store.entries[1].Reason)
	assert.Equal(t, "550 mailbox unavailable", store.entries[1].ErrorMsg)
}

func TestHandler_PolicyFilters(t *testing.T) {
	sender := &stubSender{}
	h := notification.NewHandler(sender, []string{"dev@example.com"},
		notification.NotifyPolicy{States: []string{notification.StateFailed}}, nil, discardLogger())

	ev := failedStage()
	ev.State = "Passed"
	assert.Nil(t, h.Handle(context.Background(), "evt-1", ev))
	assert.Empty(t, sender.sent)
}

func TestHandler_NoRecipients(t *testing.T) {
	sender := &stubSender{}
	h := notification.NewHandler(sender, nil, notification.DefaultNotifyPolicy(), nil, discardLogger())

	assert.Nil(t, h.Handle(context.Background(), "evt-1", failedStage()))
	assert.Empty(t, sender.sent)
}

func TestHandler_StoreErrorDoesNotStopDelivery(t *testing.T) {
	sender := &stubSender{}
	store := &stubStore{err: errors.New("disk full")}
	h := notification.NewHandler(sender, []string{"a@example.com", "b@example.com"},
		notification.DefaultNotifyPolicy(), store, discardLogger())

	results := h.Handle(context.Background(), "evt-1", failedStage())
	assert.Len(t, results, 2)
	assert.Len(t, sender.sent, 2)
}

func TestParseRecipients(t *testing.T) {
	assert.Equal(t, []string{"a@example.com", "b@example.com"},
		notification.ParseRecipients(" a@example.com, ,b@example.com,"))
	assert.Nil(t, notification.ParseRecipients(""))
}
