package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ApplicationStatus represents the state of an application.
type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "pending"
	ApplicationAccepted  ApplicationStatus = "accepted"
	ApplicationRejected  ApplicationStatus = "rejected"
	ApplicationWithdrawn ApplicationStatus = "withdrawn"
)

// Reviewable reports whether s is a verdict an employer may set.
func (s ApplicationStatus) Reviewable() bool {
	return s == ApplicationAccepted || s == ApplicationRejected
}

// Application joins a student and a job. Job and student fields are copied
// at submission so the application stays readable after the job is removed.
type Application struct {
	ID           uuid.UUID                     `json:"id" gorm:"type:char(36);primaryKey"`
	JobID        uuid.UUID                     `json:"jobId" gorm:"type:char(36);not null;uniqueIndex:idx_application_student_job,priority:2;index"`
	StudentID    uuid.UUID                     `json:"studentId" gorm:"type:char(36);not null;uniqueIndex:idx_application_student_job,priority:1"`
	EmployerID   uuid.UUID                     `json:"employerId" gorm:"type:char(36);not null;index"`
	JobTitle     string                        `json:"jobTitle" gorm:"size:255"`
	Department   string                        `json:"department" gorm:"size:255"`
	Shopkeeper   string                        `json:"shopkeeper" gorm:"size:255"`
	StudentName  string                        `json:"studentName" gorm:"size:255"`
	StudentEmail string                        `json:"studentEmail" gorm:"size:255"`
	CoverLetter  string                        `json:"coverLetter,omitempty" gorm:"type:text"`
	Resume       datatypes.JSONType[*FileMeta] `json:"resume,omitempty"`
	Documents    datatypes.JSONSlice[FileMeta] `json:"documents"`
	Status       ApplicationStatus             `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	ReviewedBy   *uuid.UUID                    `json:"reviewedBy,omitempty" gorm:"type:char(36)"`
	ReviewedDate *time.Time                    `json:"reviewedDate,omitempty"`
	Notes        string                        `json:"notes,omitempty" gorm:"type:text"`
	AppliedAt    time.Time                     `json:"appliedAt" gorm:"not null;index"`
	CreatedAt    time.Time                     `json:"createdAt"`
	UpdatedAt    time.Time                     `json:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (a *Application) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Files returns every stored file referenced by the application.
func (a *Application) Files() []FileMeta {
	var files []FileMeta
	if r := a.Resume.Data(); r != nil {
		files = append(files, *r)
	}
	return append(files, a.Documents...)
}
