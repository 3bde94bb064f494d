// Package repository holds the reminder store and the household directory.
//
// Every status change goes through Store.Update, which applies a Patch as an
// atomic read-modify-write on one record and checks it against the reminder
// state machine. Two writers racing on the same reminder are serialized; the
// loser either lands a still-legal transition or gets ErrInvalidTransition or
// ErrConflict. It never silently overwrites.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"famhealth-backend/models"
)

type Store interface {
	Create(ctx context.Context, r *models.Reminder) error
	ByID(ctx context.Context, id uuid.UUID) (models.Reminder, error)
	ByMember(ctx context.Context, memberID uuid.UUID) ([]models.Reminder, error)
	DueInRange(ctx context.Context, q RangeQuery) ([]models.Reminder, error)
	Update(ctx context.Context, id uuid.UUID, patch Patch) (models.Reminder, error)
	LogAttempt(ctx context.Context, entry models.DispatchLog) error
}

// RangeQuery selects reminders with ScheduledAt in [Start, End).
// A nil MemberID means all members; empty Statuses means any status.
type RangeQuery struct {
	MemberID *uuid.UUID
	Start    time.Time
	End      time.Time
	Statuses []models.Status
}

func (q RangeQuery) matches(r models.Reminder) bool {
	if q.MemberID != nil && r.MemberID != *q.MemberID {
		return false
	}
	if !q.Start.IsZero() && r.ScheduledAt.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && !r.ScheduledAt.Before(q.End) {
		return false
	}
	if len(q.Statuses) == 0 {
		return true
	}
	for _, s := range q.Statuses {
		if r.Status == s {
			return true
		}
	}
	return false
}

// Patch is a partial update. Nil fields are left alone.
type Patch struct {
	// ExpectStatus, when set, must equal the stored status or the update
	// fails with ErrConflict.
	ExpectStatus *models.Status

	Status                *models.Status
	ScheduledAt           *time.Time
	LastDispatchAttemptAt *time.Time
	DispatchAttempts      *int
}

// apply runs the patch against r in place. Shared by every Store
// implementation so the rules cannot drift between them.
func (p Patch) apply(r *models.Reminder) error {
	if p.ExpectStatus != nil && r.Status != *p.ExpectStatus {
		return &ConflictError{ID: r.ID, Expected: *p.ExpectStatus, Actual: r.Status}
	}

	if p.ScheduledAt != nil && !p.ScheduledAt.Equal(r.ScheduledAt) {
		if r.Status.Terminal() {
			return &models.TransitionError{From: r.Status, To: models.StatusPending}
		}
		r.ScheduledAt = *p.ScheduledAt
		r.Status = models.StatusPending
		r.LastDispatchAttemptAt = nil
		r.DispatchAttempts = 0
	}

	if p.Status != nil && *p.Status != r.Status {
		next, err := models.Transition(r.Status, *p.Status)
		if err != nil {
			return err
		}
		r.Status = next
	} else if p.Status != nil && p.ScheduledAt == nil {
		// Re-applying the current status is a no-op transition, and no
		// state allows that.
		return &models.TransitionError{From: r.Status, To: *p.Status}
	}

	if p.LastDispatchAttemptAt != nil {
		at := *p.LastDispatchAttemptAt
		r.LastDispatchAttemptAt = &at
	}
	if p.DispatchAttempts != nil {
		r.DispatchAttempts = *p.DispatchAttempts
	}
	r.Version++
	return nil
}

type ConflictError struct {
	ID       uuid.UUID
	Expected models.Status
	Actual   models.Status
}

func (e *ConflictError) Error() string {
	return "reminder " + e.ID.String() + " is " + string(e.Actual) + ", expected " + string(e.Expected)
}

func (e *ConflictError) Unwrap() error {
	return models.ErrConflict
}

func StatusPtr(s models.Status) *models.Status { return &s }
