package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Job is a posting owned by an employer or admin.
type Job struct {
	ID                  uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Title               string    `json:"title" gorm:"size:255;not null;index"`
	Description         string    `json:"description" gorm:"type:text"`
	Department          string    `json:"department" gorm:"size:255;index"`
	Location            string    `json:"location" gorm:"size:255;index"`
	Category            string    `json:"category" gorm:"size:100;index"`
	Qualification       string    `json:"qualification,omitempty" gorm:"size:255"`
	SalaryRange         string    `json:"salaryRange,omitempty" gorm:"size:100"`
	Vacancies           int       `json:"vacancies" gorm:"not null;default:1"`
	ApplicationDeadline time.Time `json:"applicationDeadline" gorm:"not null"`
	IsActive            bool      `json:"isActive" gorm:"not null;default:true;index"`
	PostedBy            uuid.UUID `json:"postedBy" gorm:"type:char(36);not null;index"`
	Shopkeeper          string    `json:"shopkeeper" gorm:"size:255"`
	ApplicationCount    int       `json:"applicationCount" gorm:"not null;default:0"`
	CreatedAt           time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}

// Open reports whether applications are still accepted at t.
func (j *Job) Open(t time.Time) bool {
	return !t.After(j.ApplicationDeadline)
}
