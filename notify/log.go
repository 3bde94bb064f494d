package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"famhealth-backend/models"
)

var ErrNoProvider = errors.New("no provider configured")

// LogSink stands in for a channel that has no credentials. It logs the
// message and fails the attempt, so the reminder stays pending and is
// eventually reported as exhausted instead of passing for delivered.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Send(ctx context.Context, dest models.Destination, r models.Reminder) error {
	s.logger.Warn("reminder not delivered, provider not configured",
		zap.String("channel", dest.Channel),
		zap.String("to", dest.Address),
		zap.String("reminder_id", r.ID.String()),
		zap.String("body", PlainText(dest, r)))
	return fmt.Errorf("%w: %w for %s", models.ErrDispatchFailure, ErrNoProvider, dest.Channel)
}
