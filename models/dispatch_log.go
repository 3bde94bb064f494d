// models/dispatch_log.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AttemptSent   = "sent"
	AttemptFailed = "failed"
)

// DispatchLog records a single send attempt made by the scheduler.
type DispatchLog struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ReminderID   uuid.UUID `gorm:"type:uuid;index;not null" json:"reminderId"`
	MemberID     uuid.UUID `gorm:"type:uuid;index;not null" json:"memberId"`
	Channel      string    `gorm:"type:varchar(20)" json:"channel"`
	Destination  string    `json:"destination"`
	Status       string    `gorm:"type:varchar(20)" json:"status"` // sent, failed
	ErrorMessage string    `gorm:"type:text" json:"error,omitempty"`
	Attempt      int       `json:"attempt"`
	AttemptedAt  time.Time `gorm:"index" json:"attemptedAt"`
}

func (l *DispatchLog) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return
}
