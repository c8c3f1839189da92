package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/shaharia-lab/mailnotify/internal/notification"
	"github.com/shaharia-lab/mailnotify/internal/storage"
)

// MockNotificationService is a mock implementation of service.NotificationService.
type MockNotificationService struct {
	mock.Mock
}

//nolint:revive
func (m *MockNotificationService) GetSettings() notification.Settings {
	args := m.Called()
	return args.Get(0).(notification.Settings)
}

//nolint:revive
func (m *MockNotificationService) PublishStageEvent(ev notification.StageEvent) (string, error) {
	args := m.Called(ev)
	return args.String(0), args.Error(1)
}

//nolint:revive
func (m *MockNotificationService) TestNotification(ctx context.Context, recipient string) (notification.Result, error) {
	args := m.Called(ctx, recipient)
	return args.Get(0).(notification.Result), args.Error(1)
}

//nolint:revive
func (m *MockNotificationService) ListLog(ctx context.Context, limit int) ([]storage.DeliveryEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.DeliveryEntry), args.Error(1)
}
