package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reminder is a single medicine or checkup reminder owned by a member.
// ScheduledAt is the one instant the reminder is due; date and time
// decomposition is left to whoever renders it.
type Reminder struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	MemberID    uuid.UUID `gorm:"type:uuid;index;not null" json:"memberId"`
	Substance   string    `gorm:"not null" json:"substance"`
	DosageNote  string    `gorm:"type:text" json:"dosageNote,omitempty"`
	ScheduledAt time.Time `gorm:"index;not null" json:"scheduledAt"`
	FreeNote    string    `gorm:"type:text" json:"freeNote,omitempty"`
	Status      Status    `gorm:"type:varchar(20);index;not null;default:pending" json:"status"`

	// Written only by the dispatch scheduler.
	LastDispatchAttemptAt *time.Time `json:"lastDispatchAttemptAt,omitempty"`
	DispatchAttempts      int        `gorm:"default:0" json:"dispatchAttempts"`

	Version   int64     `gorm:"not null;default:0" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r *Reminder) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Status == "" {
		r.Status = StatusPending
	}
	return
}

// AfterFind rejects rows whose status is outside the state machine, so a
// corrupt record fails loudly instead of never being selected again.
func (r *Reminder) AfterFind(tx *gorm.DB) (err error) {
	if !r.Status.Valid() {
		return fmt.Errorf("reminder %s: unknown status %q", r.ID, r.Status)
	}
	return
}

// AttemptsOn returns how many dispatch attempts were made on the calendar
// day of day, in day's location.
func (r Reminder) AttemptsOn(day time.Time) int {
	if r.LastDispatchAttemptAt == nil {
		return 0
	}
	last := r.LastDispatchAttemptAt.In(day.Location())
	ly, lm, ld := last.Date()
	y, m, d := day.Date()
	if ly != y || lm != m || ld != d {
		return 0
	}
	return r.DispatchAttempts
}
