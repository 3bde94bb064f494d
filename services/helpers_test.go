package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmhodges/clock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"famhealth-backend/models"
	"famhealth-backend/repository"
)

// 2026-10-16 is a Friday.
var day1 = time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)

type recordingSink struct {
	mu    sync.Mutex
	calls []uuid.UUID
	dests []models.Destination
	fail  func(call int, r models.Reminder) error
}

func (s *recordingSink) Send(ctx context.Context, dest models.Destination, r models.Reminder) error {
	s.mu.Lock()
	s.calls = append(s.calls, r.ID)
	s.dests = append(s.dests, dest)
	n := len(s.calls)
	fail := s.fail
	s.mu.Unlock()

	if fail != nil {
		return fail(n, r)
	}
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *recordingSink) countFor(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c == id {
			n++
		}
	}
	return n
}

type fixture struct {
	clk       clock.FakeClock
	store     *repository.MemoryStore
	dir       *repository.MemoryDirectory
	sink      *recordingSink
	selector  *DueSelector
	scheduler *Scheduler
	service   *ReminderService
	family    models.Family
	member    uuid.UUID
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	clk := clock.NewFake()
	clk.Set(now)
	logger := zaptest.NewLogger(t)

	store := repository.NewMemoryStore(clk, time.Hour)
	dir := repository.NewMemoryDirectory(time.UTC)
	family := dir.Put(models.Family{
		Name:    "Okafor",
		Email:   "home@example.com",
		Members: []models.Member{{Name: "Ada", Role: "mother"}},
	})

	sink := &recordingSink{}
	selector := NewDueSelector(store, dir, time.UTC)
	scheduler := NewScheduler(selector, store, dir, sink, clk, logger, SchedulerConfig{
		Schedule:         "@every 1h",
		Location:         time.UTC,
		Workers:          4,
		MaxDailyAttempts: 3,
	})

	return &fixture{
		clk:       clk,
		store:     store,
		dir:       dir,
		sink:      sink,
		selector:  selector,
		scheduler: scheduler,
		service:   NewReminderService(store, dir, clk, time.Hour, logger),
		family:    family,
		member:    family.Members[0].ID,
	}
}

func (f *fixture) add(t *testing.T, substance string, at time.Time) models.Reminder {
	t.Helper()
	r, err := f.service.Add(context.Background(), AddReminderInput{
		MemberID:    f.member,
		Substance:   substance,
		ScheduledAt: at,
	})
	require.NoError(t, err)
	return r
}

func (f *fixture) get(t *testing.T, id uuid.UUID) models.Reminder {
	t.Helper()
	r, err := f.store.ByID(context.Background(), id)
	require.NoError(t, err)
	return r
}

func (f *fixture) sweep(t *testing.T) SweepReport {
	t.Helper()
	report, err := f.scheduler.Sweep(context.Background())
	require.NoError(t, err)
	return report
}
