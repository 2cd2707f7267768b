package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Chat is a conversation between two users, optionally about an application.
type Chat struct {
	ID            uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	ParticipantA  uuid.UUID  `json:"participantA" gorm:"type:char(36);not null;index"`
	ParticipantB  uuid.UUID  `json:"participantB" gorm:"type:char(36);not null;index"`
	ApplicationID *uuid.UUID `json:"applicationId,omitempty" gorm:"type:char(36)"`
	// PairKey makes (participants, application) unique even when ApplicationID is NULL.
	PairKey       string     `json:"-" gorm:"size:120;not null;uniqueIndex"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty" gorm:"index"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (c *Chat) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// NewChat orders the participants so the same pair always yields the same key.
func NewChat(a, b uuid.UUID, applicationID *uuid.UUID) *Chat {
	if b.String() < a.String() {
		a, b = b, a
	}
	return &Chat{
		ParticipantA:  a,
		ParticipantB:  b,
		ApplicationID: applicationID,
		PairKey:       ChatPairKey(a, b, applicationID),
	}
}

// ChatPairKey returns the unique key for a participant pair and optional application.
func ChatPairKey(a, b uuid.UUID, applicationID *uuid.UUID) string {
	if b.String() < a.String() {
		a, b = b, a
	}
	key := a.String() + ":" + b.String()
	if applicationID != nil {
		key += ":" + applicationID.String()
	}
	return key
}

// HasParticipant reports whether id takes part in the chat.
func (c *Chat) HasParticipant(id uuid.UUID) bool {
	return c.ParticipantA == id || c.ParticipantB == id
}

// Other returns the participant that is not id.
func (c *Chat) Other(id uuid.UUID) uuid.UUID {
	if c.ParticipantA == id {
		return c.ParticipantB
	}
	return c.ParticipantA
}

// ChatMessage is a single message inside a chat.
type ChatMessage struct {
	ID        uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	ChatID    uuid.UUID  `json:"chatId" gorm:"type:char(36);not null;index:idx_chat_message_order,priority:1"`
	SenderID  uuid.UUID  `json:"senderId" gorm:"type:char(36);not null"`
	Content   string     `json:"content" gorm:"type:text;not null"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt" gorm:"index:idx_chat_message_order,priority:2"`
}

// BeforeCreate sets UUID before creating the record.
func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
