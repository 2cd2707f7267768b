package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OutboxStatus represents the delivery state of an outbox event.
type OutboxStatus string

const (
	OutboxPending    OutboxStatus = "pending"
	OutboxDispatched OutboxStatus = "dispatched"
	OutboxFailed     OutboxStatus = "failed"
)

// OutboxEvent is a domain event appended in the same transaction as the
// state change that caused it and delivered asynchronously.
type OutboxEvent struct {
	ID           uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey"`
	Kind         string         `json:"kind" gorm:"size:64;not null;index"`
	Payload      datatypes.JSON `json:"payload"`
	Status       OutboxStatus   `json:"status" gorm:"type:varchar(20);not null;default:'pending';index:idx_outbox_due,priority:1"`
	Attempts     int            `json:"attempts" gorm:"not null;default:0"`
	LastError    string         `json:"lastError,omitempty" gorm:"type:text"`
	AvailableAt  time.Time      `json:"availableAt" gorm:"not null;index:idx_outbox_due,priority:2"`
	DispatchedAt *time.Time     `json:"dispatchedAt,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// BeforeCreate sets UUID before creating the record.
func (e *OutboxEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
