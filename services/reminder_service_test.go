package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"famhealth-backend/models"
)

func TestReminderService_AddThenList(t *testing.T) {
	f := newFixture(t, day1.Add(8*time.Hour))
	at := day1.Add(20 * time.Hour)

	added, err := f.service.Add(context.Background(), AddReminderInput{
		MemberID:    f.member,
		Substance:   "Lisinopril",
		DosageNote:  "10mg",
		ScheduledAt: at,
		FreeNote:    "before bed",
	})
	require.NoError(t, err)

	list, err := f.service.List(context.Background(), f.member)
	require.NoError(t, err)
	require.Len(t, list, 1)

	got := list[0]
	assert.Equal(t, added.ID, got.ID)
	assert.Equal(t, f.member, got.MemberID)
	assert.Equal(t, "Lisinopril", got.Substance)
	assert.Equal(t, "10mg", got.DosageNote)
	assert.Equal(t, "before bed", got.FreeNote)
	assert.True(t, got.ScheduledAt.Equal(at))
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Nil(t, got.LastDispatchAttemptAt)
}

func TestReminderService_AddValidation(t *testing.T) {
	f := newFixture(t, day1.Add(8*time.Hour))

	_, err := f.service.Add(context.Background(), AddReminderInput{
		MemberID: uuid.New(), Substance: "x", ScheduledAt: day1.Add(9 * time.Hour),
	})
	assert.ErrorIs(t, err, models.ErrMemberNotFound)

	_, err = f.service.Add(context.Background(), AddReminderInput{
		MemberID: f.member, Substance: "   ", ScheduledAt: day1.Add(9 * time.Hour),
	})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	// Earlier today but inside the grace window is fine.
	_, err = f.service.Add(context.Background(), AddReminderInput{
		MemberID: f.member, Substance: "late", ScheduledAt: day1.Add(7*time.Hour + 30*time.Minute),
	})
	assert.NoError(t, err)

	_, err = f.service.Add(context.Background(), AddReminderInput{
		MemberID: f.member, Substance: "stale", ScheduledAt: day1.Add(2 * time.Hour),
	})
	assert.ErrorIs(t, err, models.ErrScheduledInPast)
}

func TestReminderService_ListUnknownMember(t *testing.T) {
	f := newFixture(t, day1)
	_, err := f.service.List(context.Background(), uuid.New())
	assert.ErrorIs(t, err, models.ErrMemberNotFound)
}

func TestReminderService_Upcoming(t *testing.T) {
	f := newFixture(t, day1.Add(8*time.Hour))
	now := f.clk.Now()

	later := f.add(t, "later", now.Add(20*time.Hour))
	soon := f.add(t, "soon", now.Add(time.Hour))
	edge := f.add(t, "edge", now.Add(24*time.Hour))
	f.add(t, "too far", now.Add(25*time.Hour))
	f.add(t, "just passed", now.Add(-10*time.Minute))
	done := f.add(t, "done", now.Add(2*time.Hour))
	_, err := f.service.MarkDone(context.Background(), done.ID)
	require.NoError(t, err)

	got, err := f.service.Upcoming(context.Background(), f.member, 24)
	require.NoError(t, err)

	ids := make([]uuid.UUID, 0, len(got))
	for _, r := range got {
		assert.Equal(t, models.StatusPending, r.Status)
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []uuid.UUID{soon.ID, later.ID, edge.ID}, ids)

	_, err = f.service.Upcoming(context.Background(), f.member, 0)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestReminderService_UpcomingWindowBounds(t *testing.T) {
	f := newFixture(t, day1.Add(8*time.Hour))
	soon := f.add(t, "soon", f.clk.Now().Add(time.Hour))

	got, err := f.service.Upcoming(context.Background(), f.member, MaxUpcomingHours)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, soon.ID, got[0].ID)

	for _, hours := range []int{MaxUpcomingHours + 1, 3000000, math.MaxInt32} {
		_, err := f.service.Upcoming(context.Background(), f.member, hours)
		assert.ErrorIs(t, err, models.ErrInvalidInput, "hours=%d", hours)
	}
}

func TestReminderService_MarkDone(t *testing.T) {
	f := newFixture(t, day1.Add(8*time.Hour))
	r := f.add(t, "Aspirin", day1.Add(9*time.Hour))

	got, err := f.service.MarkDone(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, got.Status)

	_, err = f.service.MarkDone(context.Background(), r.ID)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
	var te *models.TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, models.StatusDone, te.From)

	_, err = f.service.MarkDone(context.Background(), uuid.New())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestReminderService_MarkDoneOnMissed(t *testing.T) {
	f := newFixture(t, day1.Add(8*time.Hour))
	f.sink.fail = func(int, models.Reminder) error { return errors.New("down") }
	r := f.add(t, "Aspirin", day1.Add(9*time.Hour))

	f.clk.Set(day1.Add(25 * time.Hour))
	f.sweep(t)
	require.Equal(t, models.StatusMissed, f.get(t, r.ID).Status)

	_, err := f.service.MarkDone(context.Background(), r.ID)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestReminderService_Reschedule(t *testing.T) {
	f := newFixture(t, day1.Add(8*time.Hour))
	r := f.add(t, "Aspirin", day1.Add(9*time.Hour))

	got, err := f.service.Reschedule(context.Background(), r.ID, day1.Add(33*time.Hour))
	require.NoError(t, err)
	assert.True(t, got.ScheduledAt.Equal(day1.Add(33*time.Hour)))
	assert.Equal(t, r.ID, got.ID)

	_, err = f.service.Reschedule(context.Background(), r.ID, day1)
	assert.ErrorIs(t, err, models.ErrScheduledInPast)

	_, err = f.service.Reschedule(context.Background(), uuid.New(), day1.Add(33*time.Hour))
	assert.ErrorIs(t, err, models.ErrNotFound)
}
