package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CertificateStatus represents the verification state of a certificate.
type CertificateStatus string

const (
	CertificatePending  CertificateStatus = "pending"
	CertificateVerified CertificateStatus = "verified"
	CertificateRejected CertificateStatus = "rejected"
)

// Verdict reports whether s is a status an admin may set.
func (s CertificateStatus) Verdict() bool {
	return s == CertificateVerified || s == CertificateRejected
}

// Certificate is a document uploaded by a student for admin verification.
type Certificate struct {
	ID           uuid.UUID                    `json:"id" gorm:"type:char(36);primaryKey"`
	StudentID    uuid.UUID                    `json:"studentId" gorm:"type:char(36);not null;index"`
	Title        string                       `json:"title" gorm:"size:255;not null"`
	Issuer       string                       `json:"issuer,omitempty" gorm:"size:255"`
	IssueDate    *time.Time                   `json:"issueDate,omitempty"`
	Description  string                       `json:"description,omitempty" gorm:"type:text"`
	File         datatypes.JSONType[FileMeta] `json:"file"`
	Status       CertificateStatus            `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	VerifiedBy   *uuid.UUID                   `json:"verifiedBy,omitempty" gorm:"type:char(36)"`
	VerifiedDate *time.Time                   `json:"verifiedDate,omitempty"`
	Notes        string                       `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt    time.Time                    `json:"createdAt"`
	UpdatedAt    time.Time                    `json:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (c *Certificate) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
