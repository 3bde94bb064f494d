package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"famhealth-backend/models"
	"famhealth-backend/repository"
	"famhealth-backend/utils"
)

// zoneSpan covers the widest gap between UTC and any zone's calendar day.
const zoneSpan = 48 * time.Hour

// DueSelector decides which reminders need action on the current day.
// It only reads.
type DueSelector struct {
	store      repository.Store
	dir        repository.Directory
	defaultLoc *time.Location
}

func NewDueSelector(store repository.Store, dir repository.Directory, defaultLoc *time.Location) *DueSelector {
	if defaultLoc == nil {
		defaultLoc = time.Local
	}
	return &DueSelector{store: store, dir: dir, defaultLoc: defaultLoc}
}

// SelectDue returns pending reminders whose scheduled day, in the member's
// zone, is today. Ordered by ScheduledAt, then ID.
func (s *DueSelector) SelectDue(ctx context.Context, now time.Time) ([]models.Reminder, error) {
	candidates, err := s.store.DueInRange(ctx, repository.RangeQuery{
		Start:    now.Add(-zoneSpan),
		End:      now.Add(zoneSpan),
		Statuses: []models.Status{models.StatusPending},
	})
	if err != nil {
		return nil, fmt.Errorf("select due: %w", err)
	}
	return s.filter(ctx, candidates, func(r models.Reminder, loc *time.Location) bool {
		return utils.SameDay(r.ScheduledAt, now, loc)
	})
}

// SelectOverdue returns pending reminders whose scheduled day, in the
// member's zone, ended before today began.
func (s *DueSelector) SelectOverdue(ctx context.Context, now time.Time) ([]models.Reminder, error) {
	candidates, err := s.store.DueInRange(ctx, repository.RangeQuery{
		End:      now,
		Statuses: []models.Status{models.StatusPending},
	})
	if err != nil {
		return nil, fmt.Errorf("select overdue: %w", err)
	}
	return s.filter(ctx, candidates, func(r models.Reminder, loc *time.Location) bool {
		return utils.DaysBetween(r.ScheduledAt.In(loc), now.In(loc)) > 0
	})
}

func (s *DueSelector) filter(ctx context.Context, rs []models.Reminder, keep func(models.Reminder, *time.Location) bool) ([]models.Reminder, error) {
	zones := make(map[uuid.UUID]*time.Location)
	out := make([]models.Reminder, 0, len(rs))
	for _, r := range rs {
		loc, ok := zones[r.MemberID]
		if !ok {
			var err error
			loc, err = s.Location(ctx, r.MemberID)
			if err != nil {
				return nil, err
			}
			zones[r.MemberID] = loc
		}
		if keep(r, loc) {
			out = append(out, r)
		}
	}
	repository.SortBySchedule(out)
	return out, nil
}

// Location resolves the member's zone. Members the directory no longer knows
// are judged in the default zone.
func (s *DueSelector) Location(ctx context.Context, memberID uuid.UUID) (*time.Location, error) {
	loc, err := s.dir.Location(ctx, memberID)
	if errors.Is(err, models.ErrMemberNotFound) || (err == nil && loc == nil) {
		return s.defaultLoc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve zone for member %s: %w", memberID, err)
	}
	return loc, nil
}
