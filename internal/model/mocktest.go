package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Question is a single multiple choice item. Answer is the index into Options.
type Question struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Answer  *int     `json:"answer,omitempty"`
}

// MockTest is a practice exam managed by admins.
type MockTest struct {
	ID              uuid.UUID                     `json:"id" gorm:"type:char(36);primaryKey"`
	Title           string                        `json:"title" gorm:"size:255;not null"`
	Category        string                        `json:"category" gorm:"size:100;index"`
	Description     string                        `json:"description,omitempty" gorm:"type:text"`
	DurationMinutes int                           `json:"durationMinutes" gorm:"not null"`
	Questions       datatypes.JSONSlice[Question] `json:"questions"`
	IsActive        bool                          `json:"isActive" gorm:"not null;default:true;index"`
	CreatedBy       uuid.UUID                     `json:"createdBy" gorm:"type:char(36)"`
	CreatedAt       time.Time                     `json:"createdAt"`
	UpdatedAt       time.Time                     `json:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (m *MockTest) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Redacted returns a copy with the answer key removed.
func (m MockTest) Redacted() MockTest {
	questions := make(datatypes.JSONSlice[Question], len(m.Questions))
	for i, q := range m.Questions {
		q.Answer = nil
		questions[i] = q
	}
	m.Questions = questions
	return m
}

// MockTestResult is a scored attempt by a student.
type MockTestResult struct {
	ID          uuid.UUID                `json:"id" gorm:"type:char(36);primaryKey"`
	MockTestID  uuid.UUID                `json:"mockTestId" gorm:"type:char(36);not null;index"`
	StudentID   uuid.UUID                `json:"studentId" gorm:"type:char(36);not null;index"`
	Title       string                   `json:"title" gorm:"size:255"`
	Score       int                      `json:"score"`
	Total       int                      `json:"total"`
	Answers     datatypes.JSONSlice[int] `json:"answers"`
	CompletedAt time.Time                `json:"completedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (r *MockTestResult) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
