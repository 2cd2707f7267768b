package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Priority of a notification.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Notification is a per-user, per-panel message that expires after a TTL.
type Notification struct {
	ID     uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	UserID uuid.UUID `json:"userId" gorm:"type:char(36);not null;index;uniqueIndex:idx_notification_event_user,priority:2"`
	// EventID is the outbox event that produced the notification; it keeps redelivery idempotent.
	EventID   *uuid.UUID        `json:"-" gorm:"type:char(36);uniqueIndex:idx_notification_event_user,priority:1"`
	Panel     Role              `json:"panel" gorm:"type:varchar(20);not null;index"`
	Type      string            `json:"type" gorm:"size:50;not null"`
	Title     string            `json:"title" gorm:"size:255;not null"`
	Message   string            `json:"message" gorm:"type:text"`
	Priority  Priority          `json:"priority" gorm:"type:varchar(10);not null;default:'medium'"`
	Metadata  datatypes.JSONMap `json:"metadata,omitempty"`
	IsRead    bool              `json:"isRead" gorm:"not null;default:false;index"`
	ReadAt    *time.Time        `json:"readAt,omitempty"`
	ExpiresAt time.Time         `json:"expiresAt" gorm:"not null;index"`
	CreatedAt time.Time         `json:"createdAt" gorm:"index"`
}

// BeforeCreate sets UUID before creating the record.
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
