// Package notify turns outbox events into per-user notifications.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"jobportal/internal/model"
	"jobportal/internal/queue"
	"jobportal/internal/repository"
)

// DefaultTTL is how long a notification stays visible.
const DefaultTTL = 30 * 24 * time.Hour

// Materializer resolves the recipients of an event and stores their notifications.
type Materializer struct {
	users         repository.UserRepository
	notifications repository.NotificationRepository
	ttl           time.Duration
	now           func() time.Time
	log           zerolog.Logger
}

// NewMaterializer creates a new materializer.
func NewMaterializer(users repository.UserRepository, notifications repository.NotificationRepository, ttl time.Duration, log zerolog.Logger) *Materializer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Materializer{
		users:         users,
		notifications: notifications,
		ttl:           ttl,
		now:           time.Now,
		log:           log,
	}
}

// Materialize stores the notifications for ev. Redelivering the same event
// creates nothing new.
func (m *Materializer) Materialize(ctx context.Context, ev queue.Event) error {
	list, err := m.build(ctx, ev)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return nil
	}

	now := m.now()
	eventID := ev.ID
	for i := range list {
		list[i].EventID = &eventID
		list[i].ExpiresAt = now.Add(m.ttl)
		list[i].CreatedAt = now
	}
	created, err := m.notifications.CreateBatch(ctx, list)
	if err != nil {
		return fmt.Errorf("store notifications: %w", err)
	}
	m.log.Debug().Str("event_id", ev.ID.String()).Str("kind", ev.Kind).
		Int64("created", created).Msg("notifications materialized")
	return nil
}

// Handle adapts Materialize to a queue.Handler.
func (m *Materializer) Handle(ctx context.Context, ev queue.Event) error {
	return m.Materialize(ctx, ev)
}

func (m *Materializer) build(ctx context.Context, ev queue.Event) ([]model.Notification, error) {
	switch ev.Kind {
	case queue.KindApplicationSubmitted:
		var p queue.ApplicationSubmitted
		if err := ev.Decode(&p); err != nil {
			return nil, decodeErr(ev, err)
		}
		panel, err := m.panelOf(ctx, p.EmployerID)
		if err != nil {
			return nil, err
		}
		return []model.Notification{{
			UserID:   p.EmployerID,
			Panel:    panel,
			Type:     "new_application",
			Title:    "New application received",
			Message:  fmt.Sprintf("%s applied for %s", p.StudentName, p.JobTitle),
			Priority: model.PriorityMedium,
			Metadata: datatypes.JSONMap{
				"applicationId": p.ApplicationID.String(),
				"jobId":         p.JobID.String(),
			},
		}}, nil

	case queue.KindApplicationStatusChanged:
		var p queue.ApplicationStatusChanged
		if err := ev.Decode(&p); err != nil {
			return nil, decodeErr(ev, err)
		}
		priority := model.PriorityMedium
		if p.Status == string(model.ApplicationAccepted) {
			priority = model.PriorityHigh
		}
		return []model.Notification{{
			UserID:   p.StudentID,
			Panel:    model.RoleStudent,
			Type:     "application_status",
			Title:    "Application " + p.Status,
			Message:  fmt.Sprintf("Your application for %s was %s", p.JobTitle, p.Status),
			Priority: priority,
			Metadata: datatypes.JSONMap{
				"applicationId": p.ApplicationID.String(),
				"jobId":         p.JobID.String(),
				"status":        p.Status,
				"notes":         p.Notes,
			},
		}}, nil

	case queue.KindApplicationWithdrawn:
		var p queue.ApplicationWithdrawn
		if err := ev.Decode(&p); err != nil {
			return nil, decodeErr(ev, err)
		}
		panel, err := m.panelOf(ctx, p.EmployerID)
		if err != nil {
			return nil, err
		}
		return []model.Notification{{
			UserID:   p.EmployerID,
			Panel:    panel,
			Type:     "application_withdrawn",
			Title:    "Application withdrawn",
			Message:  fmt.Sprintf("%s withdrew their application for %s", p.StudentName, p.JobTitle),
			Priority: model.PriorityLow,
			Metadata: datatypes.JSONMap{
				"applicationId": p.ApplicationID.String(),
				"jobId":         p.JobID.String(),
			},
		}}, nil

	case queue.KindCertificateUploaded:
		var p queue.CertificateUploaded
		if err := ev.Decode(&p); err != nil {
			return nil, decodeErr(ev, err)
		}
		admins, err := m.users.ListIDsByRole(ctx, model.RoleAdmin)
		if err != nil {
			return nil, fmt.Errorf("list admins: %w", err)
		}
		list := make([]model.Notification, 0, len(admins))
		for _, id := range admins {
			list = append(list, model.Notification{
				UserID:   id,
				Panel:    model.RoleAdmin,
				Type:     "certificate_uploaded",
				Title:    "Certificate awaiting verification",
				Message:  fmt.Sprintf("%s uploaded %s", p.StudentName, p.Title),
				Priority: model.PriorityMedium,
				Metadata: datatypes.JSONMap{
					"certificateId": p.CertificateID.String(),
					"studentId":     p.StudentID.String(),
				},
			})
		}
		return list, nil

	case queue.KindCertificateVerified:
		var p queue.CertificateVerified
		if err := ev.Decode(&p); err != nil {
			return nil, decodeErr(ev, err)
		}
		priority := model.PriorityMedium
		if p.Status == string(model.CertificateVerified) {
			priority = model.PriorityHigh
		}
		return []model.Notification{{
			UserID:   p.StudentID,
			Panel:    model.RoleStudent,
			Type:     "certificate_" + p.Status,
			Title:    "Certificate " + p.Status,
			Message:  fmt.Sprintf("Your certificate %s was %s", p.Title, p.Status),
			Priority: priority,
			Metadata: datatypes.JSONMap{
				"certificateId": p.CertificateID.String(),
				"status":        p.Status,
				"notes":         p.Notes,
			},
		}}, nil

	case queue.KindChatMessageSent:
		var p queue.ChatMessageSent
		if err := ev.Decode(&p); err != nil {
			return nil, decodeErr(ev, err)
		}
		recipient, err := m.users.FindByID(ctx, p.RecipientID)
		if err != nil {
			return nil, fmt.Errorf("load recipient: %w", err)
		}
		return []model.Notification{{
			UserID:   p.RecipientID,
			Panel:    recipient.Role,
			Type:     "chat_message",
			Title:    "New message from " + p.SenderName,
			Message:  p.Preview,
			Priority: model.PriorityLow,
			Metadata: datatypes.JSONMap{
				"chatId":    p.ChatID.String(),
				"messageId": p.MessageID.String(),
				"senderId":  p.SenderID.String(),
			},
		}}, nil
	}

	m.log.Warn().Str("kind", ev.Kind).Str("event_id", ev.ID.String()).Msg("unknown event kind ignored")
	return nil, nil
}

// panelOf returns the dashboard a job poster reads notifications in.
func (m *Materializer) panelOf(ctx context.Context, posterID uuid.UUID) (model.Role, error) {
	poster, err := m.users.FindByID(ctx, posterID)
	if err != nil {
		return "", fmt.Errorf("load poster: %w", err)
	}
	return poster.Role, nil
}

func decodeErr(ev queue.Event, err error) error {
	return fmt.Errorf("decode %s payload: %w", ev.Kind, err)
}
