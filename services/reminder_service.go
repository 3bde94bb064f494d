// services/reminder_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmhodges/clock"
	"go.uber.org/zap"

	"famhealth-backend/models"
	"famhealth-backend/repository"
)

// MaxUpcomingHours bounds the Upcoming window to a year.
const MaxUpcomingHours = 24 * 366

type AddReminderInput struct {
	MemberID    uuid.UUID
	Substance   string
	DosageNote  string
	ScheduledAt time.Time
	FreeNote    string
}

// ReminderService is what request handlers use. It never dispatches;
// delivery belongs to the Scheduler.
type ReminderService struct {
	store  repository.Store
	dir    repository.Directory
	clk    clock.Clock
	grace  time.Duration
	logger *zap.Logger
}

func NewReminderService(store repository.Store, dir repository.Directory, clk clock.Clock, grace time.Duration, logger *zap.Logger) *ReminderService {
	return &ReminderService{store: store, dir: dir, clk: clk, grace: grace, logger: logger}
}

func (s *ReminderService) Add(ctx context.Context, in AddReminderInput) (models.Reminder, error) {
	in.Substance = strings.TrimSpace(in.Substance)
	if in.Substance == "" {
		return models.Reminder{}, fmt.Errorf("%w: medicine is required", models.ErrInvalidInput)
	}
	if err := s.requireMember(ctx, in.MemberID); err != nil {
		return models.Reminder{}, err
	}

	r := models.Reminder{
		MemberID:    in.MemberID,
		Substance:   in.Substance,
		DosageNote:  in.DosageNote,
		ScheduledAt: in.ScheduledAt,
		FreeNote:    in.FreeNote,
	}
	if err := s.store.Create(ctx, &r); err != nil {
		return models.Reminder{}, err
	}

	s.logger.Info("reminder added",
		zap.String("reminder_id", r.ID.String()),
		zap.String("member_id", r.MemberID.String()),
		zap.Time("scheduled_at", r.ScheduledAt))
	return r, nil
}

func (s *ReminderService) Get(ctx context.Context, id uuid.UUID) (models.Reminder, error) {
	return s.store.ByID(ctx, id)
}

// List returns every reminder of the member, whatever its status.
func (s *ReminderService) List(ctx context.Context, memberID uuid.UUID) ([]models.Reminder, error) {
	if err := s.requireMember(ctx, memberID); err != nil {
		return nil, err
	}
	return s.store.ByMember(ctx, memberID)
}

// Upcoming returns pending reminders scheduled within [now, now+withinHours].
func (s *ReminderService) Upcoming(ctx context.Context, memberID uuid.UUID, withinHours int) ([]models.Reminder, error) {
	if withinHours <= 0 || withinHours > MaxUpcomingHours {
		return nil, fmt.Errorf("%w: hours must be between 1 and %d", models.ErrInvalidInput, MaxUpcomingHours)
	}
	if err := s.requireMember(ctx, memberID); err != nil {
		return nil, err
	}

	now := s.clk.Now()
	return s.store.DueInRange(ctx, repository.RangeQuery{
		MemberID: &memberID,
		Start:    now,
		End:      now.Add(time.Duration(withinHours) * time.Hour).Add(time.Nanosecond), // inclusive
		Statuses: []models.Status{models.StatusPending},
	})
}

func (s *ReminderService) MarkDone(ctx context.Context, id uuid.UUID) (models.Reminder, error) {
	r, err := s.store.Update(ctx, id, repository.Patch{Status: repository.StatusPtr(models.StatusDone)})
	if err != nil {
		return models.Reminder{}, err
	}
	s.logger.Info("reminder marked done", zap.String("reminder_id", id.String()))
	return r, nil
}

// Reschedule moves a non-terminal reminder to a new instant. The reminder
// becomes pending again with a clean dispatch history.
func (s *ReminderService) Reschedule(ctx context.Context, id uuid.UUID, at time.Time) (models.Reminder, error) {
	now := s.clk.Now()
	if at.Before(now.Add(-s.grace)) {
		return models.Reminder{}, models.ErrScheduledInPast
	}
	r, err := s.store.Update(ctx, id, repository.Patch{ScheduledAt: &at})
	if err != nil {
		return models.Reminder{}, err
	}
	s.logger.Info("reminder rescheduled", zap.String("reminder_id", id.String()), zap.Time("scheduled_at", at))
	return r, nil
}

func (s *ReminderService) requireMember(ctx context.Context, memberID uuid.UUID) error {
	ok, err := s.dir.MemberExists(ctx, memberID)
	if err != nil {
		return err
	}
	if !ok {
		return models.ErrMemberNotFound
	}
	return nil
}
