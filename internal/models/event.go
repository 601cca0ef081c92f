package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EventStatus string

const (
	EventStatusPending  EventStatus = "pending"
	EventStatusApproved EventStatus = "approved"
	EventStatusRejected EventStatus = "rejected"
)

// Terminal reports whether no further lifecycle transition is allowed.
func (s EventStatus) Terminal() bool {
	return s == EventStatusApproved || s == EventStatusRejected
}

type Event struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string      `gorm:"type:varchar(200);not null" json:"title"`
	Description string      `gorm:"type:text;not null" json:"description"`
	Location    string      `gorm:"type:varchar(200);not null" json:"location"`
	Date        string      `gorm:"type:varchar(10);not null" json:"date"`
	Time        string      `gorm:"type:varchar(8);not null" json:"time"`
	StartsAt    time.Time   `gorm:"not null;index" json:"starts_at"`
	Image       string      `gorm:"type:text" json:"image,omitempty"`
	Status      EventStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedBy   uuid.UUID   `gorm:"type:uuid;not null;index" json:"created_by"`

	// Kept for the audit trail; not part of public listings
	RejectionReason string     `gorm:"type:text" json:"-"`
	ReviewedBy      *uuid.UUID `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Creator User `gorm:"foreignKey:CreatedBy;constraint:OnDelete:RESTRICT" json:"-"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
