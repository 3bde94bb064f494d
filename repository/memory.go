package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmhodges/clock"

	"famhealth-backend/models"
)

// MemoryStore is an in-process Store. It backs tests and single-node runs
// without a database.
type MemoryStore struct {
	mu        sync.Mutex
	clk       clock.Clock
	grace     time.Duration
	reminders map[uuid.UUID]models.Reminder
	attempts  []models.DispatchLog
}

func NewMemoryStore(clk clock.Clock, grace time.Duration) *MemoryStore {
	return &MemoryStore{
		clk:       clk,
		grace:     grace,
		reminders: make(map[uuid.UUID]models.Reminder),
	}
}

func (s *MemoryStore) Create(ctx context.Context, r *models.Reminder) error {
	if err := checkSchedule(s.clk.Now(), r.ScheduledAt, s.grace); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if _, exists := s.reminders[r.ID]; exists {
		return fmt.Errorf("reminder %s already exists", r.ID)
	}
	now := s.clk.Now()
	r.Status = models.StatusPending
	r.CreatedAt = now
	r.UpdatedAt = now
	s.reminders[r.ID] = clone(*r)
	return nil
}

func (s *MemoryStore) ByID(ctx context.Context, id uuid.UUID) (models.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reminders[id]
	if !ok {
		return models.Reminder{}, models.ErrNotFound
	}
	return clone(r), nil
}

func (s *MemoryStore) ByMember(ctx context.Context, memberID uuid.UUID) ([]models.Reminder, error) {
	return s.DueInRange(ctx, RangeQuery{MemberID: &memberID})
}

func (s *MemoryStore) DueInRange(ctx context.Context, q RangeQuery) ([]models.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Reminder, 0)
	for _, r := range s.reminders {
		if q.matches(r) {
			out = append(out, clone(r))
		}
	}
	SortBySchedule(out)
	return out, nil
}

func (s *MemoryStore) Update(ctx context.Context, id uuid.UUID, patch Patch) (models.Reminder, error) {
	if err := ctx.Err(); err != nil {
		return models.Reminder{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.reminders[id]
	if !ok {
		return models.Reminder{}, models.ErrNotFound
	}

	next := clone(current)
	if err := patch.apply(&next); err != nil {
		return current, err
	}
	next.UpdatedAt = s.clk.Now()
	s.reminders[id] = next
	return clone(next), nil
}

func (s *MemoryStore) LogAttempt(ctx context.Context, entry models.DispatchLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	s.attempts = append(s.attempts, entry)
	return nil
}

// Attempts returns the dispatch log for one reminder, oldest first.
func (s *MemoryStore) Attempts(reminderID uuid.UUID) []models.DispatchLog {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.DispatchLog
	for _, a := range s.attempts {
		if a.ReminderID == reminderID {
			out = append(out, a)
		}
	}
	return out
}

// SortBySchedule orders reminders by ScheduledAt, then ID.
func SortBySchedule(rs []models.Reminder) {
	sort.SliceStable(rs, func(i, j int) bool {
		if !rs[i].ScheduledAt.Equal(rs[j].ScheduledAt) {
			return rs[i].ScheduledAt.Before(rs[j].ScheduledAt)
		}
		return rs[i].ID.String() < rs[j].ID.String()
	})
}

func checkSchedule(now, at time.Time, grace time.Duration) error {
	if at.IsZero() {
		return fmt.Errorf("scheduled time is required: %w", models.ErrScheduledInPast)
	}
	if at.Before(now.Add(-grace)) {
		return fmt.Errorf("%s is before %s: %w", at.Format(time.RFC3339), now.Add(-grace).Format(time.RFC3339), models.ErrScheduledInPast)
	}
	return nil
}

func clone(r models.Reminder) models.Reminder {
	if r.LastDispatchAttemptAt != nil {
		at := *r.LastDispatchAttemptAt
		r.LastDispatchAttemptAt = &at
	}
	return r
}
