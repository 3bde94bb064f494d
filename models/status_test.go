package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition_Table(t *testing.T) {
	all := []Status{StatusPending, StatusDispatched, StatusDone, StatusMissed}
	allowed := map[[2]Status]bool{
		{StatusPending, StatusDispatched}: true,
		{StatusPending, StatusMissed}:     true,
		{StatusPending, StatusDone}:       true,
		{StatusDispatched, StatusDone}:    true,
	}

	for _, from := range all {
		for _, to := range all {
			got, err := Transition(from, to)
			if allowed[[2]Status{from, to}] {
				require.NoError(t, err, "%s -> %s", from, to)
				assert.Equal(t, to, got)
				continue
			}

			require.Error(t, err, "%s -> %s", from, to)
			assert.True(t, errors.Is(err, ErrInvalidTransition))
			assert.Equal(t, from, got)

			var te *TransitionError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, from, te.From)
			assert.Equal(t, to, te.To)
			assert.Contains(t, err.Error(), string(from))
			assert.Contains(t, err.Error(), string(to))
		}
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.True(t, StatusDone.Terminal())
	assert.True(t, StatusMissed.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusDispatched.Terminal())
	assert.False(t, Status("archived").Valid())
}

func TestReminder_AfterFindRejectsUnknownStatus(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusDispatched, StatusDone, StatusMissed} {
		r := Reminder{Status: s}
		assert.NoError(t, r.AfterFind(nil), s)
	}

	corrupt := Reminder{Status: "archived"}
	assert.Error(t, corrupt.AfterFind(nil))
	empty := Reminder{}
	assert.Error(t, empty.AfterFind(nil))
}

func TestReminder_AttemptsOn(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	last := time.Date(2026, 10, 16, 23, 30, 0, 0, time.UTC) // 02:30 on the 17th in loc
	r := Reminder{LastDispatchAttemptAt: &last, DispatchAttempts: 2}

	assert.Equal(t, 2, r.AttemptsOn(time.Date(2026, 10, 17, 9, 0, 0, 0, loc)))
	assert.Equal(t, 0, r.AttemptsOn(time.Date(2026, 10, 16, 9, 0, 0, 0, loc)))
	assert.Equal(t, 2, r.AttemptsOn(time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, Reminder{}.AttemptsOn(last))
}
