// Package notify delivers reminders to a household over email, SMS or
// WhatsApp.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"famhealth-backend/models"
)

// Sink delivers one reminder to one destination.
type Sink interface {
	Send(ctx context.Context, dest models.Destination, r models.Reminder) error
}

type SinkFunc func(ctx context.Context, dest models.Destination, r models.Reminder) error

func (f SinkFunc) Send(ctx context.Context, dest models.Destination, r models.Reminder) error {
	return f(ctx, dest, r)
}

var ErrUnknownChannel = errors.New("unknown channel")

// Router picks a Sink by the destination channel and bounds every call by a
// timeout. Errors come back wrapped in models.ErrDispatchFailure.
type Router struct {
	sinks   map[string]Sink
	timeout time.Duration
}

func NewRouter(timeout time.Duration, sinks map[string]Sink) *Router {
	return &Router{sinks: sinks, timeout: timeout}
}

func (r *Router) Send(ctx context.Context, dest models.Destination, rem models.Reminder) error {
	sink, ok := r.sinks[dest.Channel]
	if !ok || sink == nil {
		return fmt.Errorf("%w: %w %q", models.ErrDispatchFailure, ErrUnknownChannel, dest.Channel)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	// Provider clients do not all honour ctx, so the call runs aside and is
	// abandoned once ctx is done.
	result := make(chan error, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				result <- fmt.Errorf("sink panicked: %v", p)
			}
		}()
		result <- sink.Send(ctx, dest, rem)
	}()

	select {
	case err := <-result:
		if err != nil {
			return fmt.Errorf("%w: %s via %s: %w", models.ErrDispatchFailure, dest.Address, dest.Channel, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %s via %s: %w", models.ErrDispatchFailure, dest.Address, dest.Channel, ctx.Err())
	}
}
