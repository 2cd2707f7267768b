package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"jobportal/internal/model"
	"jobportal/internal/queue"
	"jobportal/internal/repository"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User, columns ...string) error {
	return m.Called(ctx, user, columns).Error(0)
}

func (m *MockUserRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo repository.UserRepository) error) error {
	return fn(ctx, m)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return m.FindByID(ctx, id)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, filter repository.UserFilter, page repository.Pagination) ([]model.User, int64, error) {
	args := m.Called(ctx, filter, page)
	return args.Get(0).([]model.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) ListIDsByRole(ctx context.Context, role model.Role) ([]uuid.UUID, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockNotificationRepository is a mock implementation of NotificationRepository.
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) CreateBatch(ctx context.Context, list []model.Notification) (int64, error) {
	args := m.Called(ctx, list)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) FindByID(ctx context.Context, id uuid.UUID, now time.Time) (*model.Notification, error) {
	args := m.Called(ctx, id, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Notification), args.Error(1)
}

func (m *MockNotificationRepository) List(ctx context.Context, userID uuid.UUID, filter repository.NotificationFilter, page repository.Pagination, now time.Time) ([]model.Notification, int64, error) {
	args := m.Called(ctx, userID, filter, page, now)
	return args.Get(0).([]model.Notification), args.Get(1).(int64), args.Error(2)
}

func (m *MockNotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	args := m.Called(ctx, userID, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	args := m.Called(ctx, userID, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockNotificationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Append(ctx context.Context, event *model.OutboxEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockOutboxRepository) ClaimPending(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]model.OutboxEvent, error) {
	args := m.Called(ctx, now, lease, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OutboxEvent), args.Error(1)
}

func (m *MockOutboxRepository) MarkDispatched(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockOutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastErr string, retryAt time.Time, dead bool) error {
	return m.Called(ctx, id, attempts, lastErr, retryAt, dead).Error(0)
}

func (m *MockOutboxRepository) CountByStatus(ctx context.Context, status model.OutboxStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

type stubPublisher struct {
	err       error
	published []queue.Event
}

func (p *stubPublisher) Publish(_ context.Context, ev queue.Event) error {
	p.published = append(p.published, ev)
	return p.err
}

func event(t *testing.T, kind string, payload any) queue.Event {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return queue.Event{ID: uuid.New(), Kind: kind, OccurredAt: time.Now(), Payload: raw}
}

func TestMaterializer_StatusChangedNotifiesStudent(t *testing.T) {
	users := new(MockUserRepository)
	notifications := new(MockNotificationRepository)
	m := NewMaterializer(users, notifications, time.Hour, zerolog.Nop())
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	studentID := uuid.New()
	ev := event(t, queue.KindApplicationStatusChanged, queue.ApplicationStatusChanged{
		ApplicationID: uuid.New(),
		JobID:         uuid.New(),
		JobTitle:      "Clerk",
		StudentID:     studentID,
		Status:        "accepted",
	})

	notifications.On("CreateBatch", mock.Anything, mock.MatchedBy(func(list []model.Notification) bool {
		if len(list) != 1 {
			return false
		}
		n := list[0]
		return n.UserID == studentID &&
			n.Panel == model.RoleStudent &&
			n.Priority == model.PriorityHigh &&
			n.EventID != nil && *n.EventID == ev.ID &&
			n.ExpiresAt.Equal(fixed.Add(time.Hour))
	})).Return(int64(1), nil)

	require.NoError(t, m.Materialize(context.Background(), ev))
	notifications.AssertExpectations(t)
}

func TestMaterializer_CertificateUploadedFansOutToAdmins(t *testing.T) {
	users := new(MockUserRepository)
	notifications := new(MockNotificationRepository)
	m := NewMaterializer(users, notifications, 0, zerolog.Nop())

	admins := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	users.On("ListIDsByRole", mock.Anything, model.RoleAdmin).Return(admins, nil)
	notifications.On("CreateBatch", mock.Anything, mock.MatchedBy(func(list []model.Notification) bool {
		if len(list) != len(admins) {
			return false
		}
		for i, n := range list {
			if n.UserID != admins[i] || n.Panel != model.RoleAdmin {
				return false
			}
		}
		return true
	})).Return(int64(3), nil)

	ev := event(t, queue.KindCertificateUploaded, queue.CertificateUploaded{
		CertificateID: uuid.New(),
		Title:         "Typing",
		StudentID:     uuid.New(),
		StudentName:   "Asha",
	})
	require.NoError(t, m.Materialize(context.Background(), ev))
	users.AssertExpectations(t)
	notifications.AssertExpectations(t)
}

func TestMaterializer_ChatMessageUsesRecipientPanel(t *testing.T) {
	users := new(MockUserRepository)
	notifications := new(MockNotificationRepository)
	m := NewMaterializer(users, notifications, 0, zerolog.Nop())

	recipient := &model.User{ID: uuid.New(), Role: model.RoleEmployer}
	users.On("FindByID", mock.Anything, recipient.ID).Return(recipient, nil)
	notifications.On("CreateBatch", mock.Anything, mock.MatchedBy(func(list []model.Notification) bool {
		return len(list) == 1 && list[0].Panel == model.RoleEmployer && list[0].Message == "hello"
	})).Return(int64(1), nil)

	ev := event(t, queue.KindChatMessageSent, queue.ChatMessageSent{
		ChatID:      uuid.New(),
		MessageID:   uuid.New(),
		SenderID:    uuid.New(),
		SenderName:  "Asha",
		RecipientID: recipient.ID,
		Preview:     "hello",
	})
	require.NoError(t, m.Materialize(context.Background(), ev))
	notifications.AssertExpectations(t)
}

func TestMaterializer_ApplicationSubmittedUsesPosterPanel(t *testing.T) {
	tests := []struct {
		name string
		role model.Role
	}{
		{name: "employer poster", role: model.RoleEmployer},
		{name: "admin poster", role: model.RoleAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserRepository)
			notifications := new(MockNotificationRepository)
			m := NewMaterializer(users, notifications, 0, zerolog.Nop())

			poster := &model.User{ID: uuid.New(), Role: tt.role}
			users.On("FindByID", mock.Anything, poster.ID).Return(poster, nil)
			notifications.On("CreateBatch", mock.Anything, mock.MatchedBy(func(list []model.Notification) bool {
				return len(list) == 1 && list[0].UserID == poster.ID && list[0].Panel == tt.role && list[0].Type == "new_application"
			})).Return(int64(1), nil)

			ev := event(t, queue.KindApplicationSubmitted, queue.ApplicationSubmitted{
				ApplicationID: uuid.New(),
				JobID:         uuid.New(),
				JobTitle:      "Clerk",
				EmployerID:    poster.ID,
				StudentName:   "Ravi",
			})
			require.NoError(t, m.Materialize(context.Background(), ev))
			notifications.AssertExpectations(t)
		})
	}
}

func TestMaterializer_UnknownKindIsIgnored(t *testing.T) {
	notifications := new(MockNotificationRepository)
	m := NewMaterializer(new(MockUserRepository), notifications, 0, zerolog.Nop())

	err := m.Materialize(context.Background(), queue.Event{ID: uuid.New(), Kind: "job.archived"})
	assert.NoError(t, err)
	notifications.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
}

func TestMaterializer_BadPayload(t *testing.T) {
	m := NewMaterializer(new(MockUserRepository), new(MockNotificationRepository), 0, zerolog.Nop())

	err := m.Materialize(context.Background(), queue.Event{
		ID:      uuid.New(),
		Kind:    queue.KindApplicationSubmitted,
		Payload: json.RawMessage(`{"employerId": 42}`),
	})
	assert.Error(t, err)
}

func TestDispatcher_DispatchOnce(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	pending := model.OutboxEvent{
		ID:        uuid.New(),
		Kind:      queue.KindApplicationSubmitted,
		Payload:   datatypes.JSON(`{"jobTitle":"Clerk"}`),
		Attempts:  0,
		CreatedAt: now.Add(-time.Minute),
	}

	tests := []struct {
		name       string
		attempts   int
		publishErr error
		setup      func(o *MockOutboxRepository, id uuid.UUID)
	}{
		{
			name: "published events are marked dispatched",
			setup: func(o *MockOutboxRepository, id uuid.UUID) {
				o.On("MarkDispatched", mock.Anything, id, now).Return(nil)
			},
		},
		{
			name:       "failures are retried with backoff",
			attempts:   2,
			publishErr: errors.New("broker down"),
			setup: func(o *MockOutboxRepository, id uuid.UUID) {
				o.On("MarkFailed", mock.Anything, id, 3, "broker down", now.Add(15*time.Second), false).Return(nil)
			},
		},
		{
			name:       "last attempt parks the event",
			attempts:   9,
			publishErr: errors.New("broker down"),
			setup: func(o *MockOutboxRepository, id uuid.UUID) {
				o.On("MarkFailed", mock.Anything, id, 10, "broker down", now.Add(50*time.Second), true).Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outbox := new(MockOutboxRepository)
			pub := &stubPublisher{err: tt.publishErr}
			d := NewDispatcher(outbox, new(MockNotificationRepository), pub, DispatcherConfig{
				BatchSize:    10,
				MaxAttempts:  10,
				RetryBackoff: 5 * time.Second,
				Lease:        time.Minute,
			}, zerolog.Nop())
			d.now = func() time.Time { return now }

			ev := pending
			ev.Attempts = tt.attempts
			outbox.On("ClaimPending", mock.Anything, now, time.Minute, 10).Return([]model.OutboxEvent{ev}, nil)
			tt.setup(outbox, ev.ID)

			n, err := d.DispatchOnce(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 1, n)
			require.Len(t, pub.published, 1)
			assert.Equal(t, ev.ID, pub.published[0].ID)
			assert.JSONEq(t, `{"jobTitle":"Clerk"}`, string(pub.published[0].Payload))
			outbox.AssertExpectations(t)
		})
	}
}

func TestDispatcher_ClaimError(t *testing.T) {
	outbox := new(MockOutboxRepository)
	outbox.On("ClaimPending", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("db gone"))
	d := NewDispatcher(outbox, new(MockNotificationRepository), &stubPublisher{}, DispatcherConfig{}, zerolog.Nop())

	n, err := d.DispatchOnce(context.Background())
	assert.Error(t, err)
	assert.Zero(t, n)
}

func TestDispatcher_Sweep(t *testing.T) {
	notifications := new(MockNotificationRepository)
	now := time.Now()
	notifications.On("DeleteExpired", mock.Anything, now).Return(int64(4), nil)

	d := NewDispatcher(new(MockOutboxRepository), notifications, &stubPublisher{}, DispatcherConfig{}, zerolog.Nop())
	d.now = func() time.Time { return now }

	n, err := d.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestInlinePublisher_Materializes(t *testing.T) {
	notifications := new(MockNotificationRepository)
	notifications.On("CreateBatch", mock.Anything, mock.Anything).Return(int64(1), nil)
	users := new(MockUserRepository)
	poster := &model.User{ID: uuid.New(), Role: model.RoleEmployer}
	users.On("FindByID", mock.Anything, poster.ID).Return(poster, nil)
	pub := NewInlinePublisher(NewMaterializer(users, notifications, 0, zerolog.Nop()))

	ev := event(t, queue.KindApplicationWithdrawn, queue.ApplicationWithdrawn{EmployerID: poster.ID, JobTitle: "Clerk"})
	require.NoError(t, pub.Publish(context.Background(), ev))
	notifications.AssertNumberOfCalls(t, "CreateBatch", 1)
}
