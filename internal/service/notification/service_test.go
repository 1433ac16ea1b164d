package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/notification"
	"github.com/cmlabs-hris/admin-portal-backend/internal/pkg/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	notification.Repository
	mu       sync.Mutex
	stored   []*notification.Notification
	disabled map[notification.NotificationType]bool
	prefs    []*notification.NotificationPreference
	upserted *notification.NotificationPreference
}

func (m *memRepo) IsNotificationEnabled(_ context.Context, _ string, t notification.NotificationType) (bool, error) {
	return !m.disabled[t], nil
}

func (m *memRepo) CreateBatch(_ context.Context, ns []*notification.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored = append(m.stored, ns...)
	return nil
}

func (m *memRepo) Create(ctx context.Context, n *notification.Notification) error {
	return m.CreateBatch(ctx, []*notification.Notification{n})
}

func (m *memRepo) GetPreferences(context.Context, string) ([]*notification.NotificationPreference, error) {
	return m.prefs, nil
}

func (m *memRepo) UpsertPreference(_ context.Context, p *notification.NotificationPreference) error {
	m.upserted = p
	return nil
}

func (m *memRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stored)
}

func TestQueueNotification_FlushesOnStopAndPushes(t *testing.T) {
	repo := &memRepo{}
	svc := NewNotificationService(repo, sse.NewHub(), Config{FlushInterval: time.Hour, WorkerCount: 1})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, unsubscribe := svc.Subscribe(ctx, "user-1")
	defer unsubscribe()

	err := svc.QueueNotification(ctx, notification.CreateNotificationRequest{
		RecipientID: "user-1",
		Type:        notification.TypeAccessRequestApproved,
		Title:       "Access approved",
		Message:     "Your page access request was approved",
	})
	require.NoError(t, err)

	svc.Stop()
	assert.Equal(t, 1, repo.count())

	select {
	case ev := <-events:
		assert.Equal(t, notification.EventNotification, ev.Event)
		resp, ok := ev.Data.(notification.NotificationResponse)
		require.True(t, ok)
		assert.Equal(t, "Access approved", resp.Title)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a pushed notification")
	}
}

func TestQueueNotification_DisabledTypeIsSkipped(t *testing.T) {
	repo := &memRepo{disabled: map[notification.NotificationType]bool{
		notification.TypeIncidentReportSubmitted: true,
	}}
	svc := NewNotificationService(repo, sse.NewHub(), Config{WorkerCount: 1})

	err := svc.QueueNotification(context.Background(), notification.CreateNotificationRequest{
		RecipientID: "hr-1",
		Type:        notification.TypeIncidentReportSubmitted,
	})
	require.NoError(t, err)

	svc.Stop()
	assert.Zero(t, repo.count())
}

func TestQueueNotification_FullQueueInsertsDirectly(t *testing.T) {
	repo := &memRepo{}
	s := &service{
		repo:  repo,
		hub:   sse.NewHub(),
		queue: make(chan notification.CreateNotificationRequest),
	}

	err := s.QueueNotification(context.Background(), notification.CreateNotificationRequest{
		RecipientID: "user-1",
		Type:        notification.TypeAccessRequestDenied,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.count())
}

func TestGetPreferences_FillsDefaults(t *testing.T) {
	repo := &memRepo{prefs: []*notification.NotificationPreference{
		{NotificationType: notification.TypeAccessRequestDenied, EmailEnabled: false, PushEnabled: true},
	}}
	svc := NewNotificationService(repo, sse.NewHub(), Config{WorkerCount: 1})
	defer svc.Stop()

	prefs, err := svc.GetPreferences(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, prefs, len(notification.AllNotificationTypes()))

	for _, p := range prefs {
		if p.NotificationType == notification.TypeAccessRequestDenied {
			assert.False(t, p.EmailEnabled)
			continue
		}
		assert.True(t, p.EmailEnabled)
		assert.True(t, p.PushEnabled)
	}
}

func TestUpdatePreference_RejectsUnknownType(t *testing.T) {
	repo := &memRepo{}
	svc := NewNotificationService(repo, sse.NewHub(), Config{WorkerCount: 1})
	defer svc.Stop()

	err := svc.UpdatePreference(context.Background(), "user-1", notification.UpdatePreferenceRequest{NotificationType: "payroll"})
	assert.ErrorIs(t, err, notification.ErrInvalidNotificationType)
	assert.Nil(t, repo.upserted)

	err = svc.UpdatePreference(context.Background(), "user-1", notification.UpdatePreferenceRequest{
		NotificationType: notification.TypeAccessRequestApproved,
		PushEnabled:      true,
	})
	require.NoError(t, err)
	require.NotNil(t, repo.upserted)
	assert.Equal(t, "user-1", repo.upserted.UserID)
}
