package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification channels a household can choose from.
const (
	ChannelEmail    = "email"
	ChannelSMS      = "sms"
	ChannelWhatsApp = "whatsapp"
)

// Family is the household. It owns the notification destination shared by
// all of its members.
type Family struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name     string    `gorm:"not null" json:"name"`
	Email    string    `json:"email"`
	Phone    string    `json:"phone"`
	Channel  string    `gorm:"type:varchar(20);default:email" json:"channel"`
	Timezone string    `gorm:"type:varchar(64)" json:"timezone,omitempty"`

	Members []Member `gorm:"foreignKey:FamilyID" json:"members,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (f *Family) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.Channel == "" {
		f.Channel = ChannelEmail
	}
	return
}

type Member struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	FamilyID uuid.UUID `gorm:"type:uuid;index;not null" json:"familyId"`
	Name     string    `gorm:"not null" json:"name"`
	Role     string    `gorm:"not null" json:"role"`
	Timezone string    `gorm:"type:varchar(64)" json:"timezone,omitempty"` // overrides the family zone

	Family *Family `gorm:"foreignKey:FamilyID" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (m *Member) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}

// Destination is where a member's reminders are delivered.
type Destination struct {
	MemberName string
	Channel    string
	Address    string
}
