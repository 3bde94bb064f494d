package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"famhealth-backend/models"
)

func TestLogSink_FailsTheAttempt(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sink := NewLogSink(zap.New(core))

	dest := models.Destination{MemberName: "Ada", Channel: models.ChannelSMS, Address: "+2348000000"}
	err := sink.Send(context.Background(), dest, testReminder())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrDispatchFailure)
	assert.ErrorIs(t, err, ErrNoProvider)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "sms", fields["channel"])
	assert.Equal(t, "+2348000000", fields["to"])
	assert.Contains(t, fields["body"], "Amoxicillin")
}

func TestRouter_UnconfiguredChannelIsAFailure(t *testing.T) {
	router := NewRouter(time.Second, map[string]Sink{models.ChannelEmail: NewLogSink(zap.NewNop())})

	dest := models.Destination{MemberName: "Ada", Channel: models.ChannelEmail, Address: "home@example.com"}
	err := router.Send(context.Background(), dest, testReminder())
	assert.ErrorIs(t, err, models.ErrDispatchFailure)
	assert.ErrorIs(t, err, ErrNoProvider)
}
