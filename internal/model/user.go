package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Role determines which routes and ownership rules apply to a user.
type Role string

const (
	RoleStudent  Role = "student"
	RoleEmployer Role = "employer"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleEmployer, RoleAdmin:
		return true
	}
	return false
}

// CertificateMirror is the lightweight copy of a certificate kept on the student profile.
type CertificateMirror struct {
	CertificateID uuid.UUID         `json:"certificateId"`
	Title         string            `json:"title"`
	Status        CertificateStatus `json:"status"`
}

// StudentDetails is the student-only part of a profile.
type StudentDetails struct {
	Education    string              `json:"education,omitempty"`
	Skills       []string            `json:"skills,omitempty"`
	DateOfBirth  string              `json:"dateOfBirth,omitempty"`
	Address      string              `json:"address,omitempty"`
	Certificates []CertificateMirror `json:"certificates"`
}

// EmployerDetails is the employer-only part of a profile.
type EmployerDetails struct {
	ShopName     string `json:"shopName,omitempty"`
	ShopAddress  string `json:"shopAddress,omitempty"`
	BusinessType string `json:"businessType,omitempty"`
	Verified     bool   `json:"verified"`
}

// AdminDetails is the admin-only part of a profile.
type AdminDetails struct {
	Permissions []string   `json:"permissions,omitempty"`
	LastLogin   *time.Time `json:"lastLogin,omitempty"`
}

// User represents an authenticated user in the system.
type User struct {
	ID                    uuid.UUID                            `json:"id" gorm:"type:char(36);primaryKey"`
	Name                  string                               `json:"name" gorm:"size:255;not null"`
	Email                 string                               `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash          string                               `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	Phone                 string                               `json:"phone,omitempty" gorm:"size:32"`
	Role                  Role                                 `json:"userType" gorm:"type:varchar(20);not null;index"`
	IsActive              bool                                 `json:"isActive" gorm:"not null;default:true"`
	SubscriptionPlanID    *uuid.UUID                           `json:"subscriptionPlanId,omitempty" gorm:"type:char(36)"`
	SubscriptionExpiresAt *time.Time                           `json:"subscriptionExpiresAt,omitempty"`
	StudentDetails        datatypes.JSONType[*StudentDetails]  `json:"studentDetails,omitempty"`
	EmployerDetails       datatypes.JSONType[*EmployerDetails] `json:"employerDetails,omitempty"`
	AdminDetails          datatypes.JSONType[*AdminDetails]    `json:"adminDetails,omitempty"`
	CreatedAt             time.Time                            `json:"createdAt"`
	UpdatedAt             time.Time                            `json:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Student returns a copy of the student profile, never nil.
func (u *User) Student() StudentDetails {
	d := u.StudentDetails.Data()
	if d == nil {
		return StudentDetails{Certificates: []CertificateMirror{}}
	}
	out := *d
	out.Skills = append([]string(nil), d.Skills...)
	out.Certificates = append([]CertificateMirror{}, d.Certificates...)
	return out
}

// SetStudent replaces the student profile.
func (u *User) SetStudent(d StudentDetails) {
	if d.Certificates == nil {
		d.Certificates = []CertificateMirror{}
	}
	u.StudentDetails = datatypes.NewJSONType(&d)
}

// Employer returns a copy of the employer profile, never nil.
func (u *User) Employer() EmployerDetails {
	if d := u.EmployerDetails.Data(); d != nil {
		return *d
	}
	return EmployerDetails{}
}

// SetEmployer replaces the employer profile.
func (u *User) SetEmployer(d EmployerDetails) {
	u.EmployerDetails = datatypes.NewJSONType(&d)
}

// Admin returns a copy of the admin profile, never nil.
func (u *User) Admin() AdminDetails {
	if d := u.AdminDetails.Data(); d != nil {
		out := *d
		out.Permissions = append([]string(nil), d.Permissions...)
		return out
	}
	return AdminDetails{}
}

// SetAdmin replaces the admin profile.
func (u *User) SetAdmin(d AdminDetails) {
	u.AdminDetails = datatypes.NewJSONType(&d)
}

// ShopLabel is the storefront name shown on jobs posted by this user.
func (u *User) ShopLabel() string {
	if name := u.Employer().ShopName; name != "" {
		return name
	}
	return u.Name
}
