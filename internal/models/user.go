package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Gender string

const (
	GenderUnspecified Gender = ""
	GenderFemale      Gender = "female"
	GenderMale        Gender = "male"
	GenderOther       Gender = "other"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderUnspecified, GenderFemale, GenderMale, GenderOther:
		return true
	default:
		return false
	}
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(100);not null" json:"name"`
	Email        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"` // Never expose password hash in JSON
	Role         Role      `gorm:"type:varchar(20);not null" json:"role"`
	Verified     bool      `gorm:"not null;default:false" json:"verified"`
	City         string    `gorm:"type:varchar(100)" json:"city"`
	Gender       Gender    `gorm:"type:varchar(20)" json:"gender"`
	PictureURL   *string   `gorm:"type:text" json:"picture_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == 0 {
		u.Role = RoleUser
	}
	return nil
}
