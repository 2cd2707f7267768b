// Package queue carries notification events between the outbox dispatcher and
// the notification materializer, either in process or through a broker.
package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event kinds.
const (
	KindApplicationSubmitted     = "application.submitted"
	KindApplicationStatusChanged = "application.status_changed"
	KindApplicationWithdrawn     = "application.withdrawn"
	KindCertificateUploaded      = "certificate.uploaded"
	KindCertificateVerified      = "certificate.verified"
	KindChatMessageSent          = "chat.message_sent"
)

// Event is the envelope sent over every transport. ID is the outbox event id
// and stays the same across redeliveries.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Kind       string          `json:"kind"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// Handler processes one event. Returning an error asks the transport to retry.
type Handler func(ctx context.Context, ev Event) error

// ApplicationSubmitted is emitted when a student applies to a job.
type ApplicationSubmitted struct {
	ApplicationID uuid.UUID `json:"applicationId"`
	JobID         uuid.UUID `json:"jobId"`
	JobTitle      string    `json:"jobTitle"`
	StudentID     uuid.UUID `json:"studentId"`
	StudentName   string    `json:"studentName"`
	EmployerID    uuid.UUID `json:"employerId"`
}

// ApplicationStatusChanged is emitted when an employer or admin reviews an application.
type ApplicationStatusChanged struct {
	ApplicationID uuid.UUID `json:"applicationId"`
	JobID         uuid.UUID `json:"jobId"`
	JobTitle      string    `json:"jobTitle"`
	StudentID     uuid.UUID `json:"studentId"`
	Status        string    `json:"status"`
	Notes         string    `json:"notes,omitempty"`
}

// ApplicationWithdrawn is emitted when a student withdraws an application.
type ApplicationWithdrawn struct {
	ApplicationID uuid.UUID `json:"applicationId"`
	JobID         uuid.UUID `json:"jobId"`
	JobTitle      string    `json:"jobTitle"`
	StudentName   string    `json:"studentName"`
	EmployerID    uuid.UUID `json:"employerId"`
}

// CertificateUploaded is emitted when a student uploads a certificate. It fans out to every admin.
type CertificateUploaded struct {
	CertificateID uuid.UUID `json:"certificateId"`
	Title         string    `json:"title"`
	StudentID     uuid.UUID `json:"studentId"`
	StudentName   string    `json:"studentName"`
}

// CertificateVerified is emitted when an admin verifies or rejects a certificate.
type CertificateVerified struct {
	CertificateID uuid.UUID `json:"certificateId"`
	Title         string    `json:"title"`
	StudentID     uuid.UUID `json:"studentId"`
	Status        string    `json:"status"`
	Notes         string    `json:"notes,omitempty"`
}

// ChatMessageSent is emitted for every chat message.
type ChatMessageSent struct {
	ChatID      uuid.UUID `json:"chatId"`
	MessageID   uuid.UUID `json:"messageId"`
	SenderID    uuid.UUID `json:"senderId"`
	SenderName  string    `json:"senderName"`
	RecipientID uuid.UUID `json:"recipientId"`
	Preview     string    `json:"preview"`
}
