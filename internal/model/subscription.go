package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SubscriptionPlan defines entitlement limits. A zero limit means unlimited.
type SubscriptionPlan struct {
	ID               uuid.UUID                   `json:"id" gorm:"type:char(36);primaryKey"`
	Name             string                      `json:"name" gorm:"size:100;not null;uniqueIndex"`
	Description      string                      `json:"description,omitempty" gorm:"type:text"`
	Price            decimal.Decimal             `json:"price" gorm:"type:decimal(10,2);not null"`
	DurationDays     int                         `json:"durationDays" gorm:"not null"`
	MockTestLimit    int                         `json:"mockTestLimit" gorm:"not null;default:0"`
	ApplicationLimit int                         `json:"applicationLimit" gorm:"not null;default:0"`
	Features         datatypes.JSONSlice[string] `json:"features"`
	IsActive         bool                        `json:"isActive" gorm:"not null;default:true;index"`
	CreatedAt        time.Time                   `json:"createdAt"`
	UpdatedAt        time.Time                   `json:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (p *SubscriptionPlan) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
