// services/scheduler.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmhodges/clock"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"famhealth-backend/models"
	"famhealth-backend/notify"
	"famhealth-backend/repository"
)

var ErrSweepInProgress = errors.New("a sweep is already running")

type SchedulerConfig struct {
	// Schedule is a cron expression ("0 8 * * *") or descriptor ("@every 1h").
	Schedule         string
	Location         *time.Location
	Workers          int
	MaxDailyAttempts int
	RunOnStart       bool
}

// SweepReport summarizes one sweep.
type SweepReport struct {
	StartedAt  time.Time     `json:"startedAt"`
	Duration   time.Duration `json:"duration"`
	Due        int           `json:"due"`
	Dispatched int           `json:"dispatched"`
	Failed     int           `json:"failed"`
	Missed     int           `json:"missed"`
	Cancelled  int           `json:"cancelled"`
	// Exhausted lists reminders that are still pending after the daily
	// attempt limit. They need an operator.
	Exhausted []uuid.UUID `json:"exhausted"`
}

type outcome int

const (
	outcomeDispatched outcome = iota
	outcomeFailed
	outcomeExhausted
	outcomeCancelled
)

// Scheduler runs the daily dispatch sweep. Each due reminder is sent at most
// once per day; failed sends are retried by later sweeps of the same day up to
// MaxDailyAttempts, and reminders still pending when their day is over are
// marked missed by the first sweep of the next day.
type Scheduler struct {
	selector *DueSelector
	store    repository.Store
	dir      repository.Directory
	sink     notify.Sink
	clk      clock.Clock
	logger   *zap.Logger
	cfg      SchedulerConfig

	sweepMu sync.Mutex

	cron    *cron.Cron
	cancel  context.CancelFunc
	startWG sync.WaitGroup
}

func NewScheduler(
	selector *DueSelector,
	store repository.Store,
	dir repository.Directory,
	sink notify.Sink,
	clk clock.Clock,
	logger *zap.Logger,
	cfg SchedulerConfig,
) *Scheduler {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxDailyAttempts <= 0 {
		cfg.MaxDailyAttempts = 3
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Scheduler{
		selector: selector,
		store:    store,
		dir:      dir,
		sink:     sink,
		clk:      clk,
		logger:   logger,
		cfg:      cfg,
	}
}

// Start registers the sweep with cron and returns. Stop ends it.
func (s *Scheduler) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)

	c := cron.New(
		cron.WithLocation(s.cfg.Location),
		cron.WithChain(cron.Recover(cron.PrintfLogger(zap.NewStdLog(s.logger)))),
	)
	if _, err := c.AddFunc(s.cfg.Schedule, func() { s.tick(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("invalid sweep schedule %q: %w", s.cfg.Schedule, err)
	}

	s.cron = c
	s.cancel = cancel

	if s.cfg.RunOnStart {
		s.startWG.Add(1)
		go func() {
			defer s.startWG.Done()
			s.tick(runCtx)
		}()
	}

	c.Start()
	s.logger.Info("reminder scheduler started", zap.String("schedule", s.cfg.Schedule))
	return nil
}

// Stop cancels any running sweep and waits for it to return.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	s.cancel()
	<-s.cron.Stop().Done()
	s.startWG.Wait()
	s.logger.Info("reminder scheduler stopped")
}

func (s *Scheduler) tick(ctx context.Context) {
	report, err := s.Sweep(ctx)
	switch {
	case errors.Is(err, ErrSweepInProgress):
		s.logger.Warn("skipping tick, previous sweep still running")
	case err != nil:
		s.logger.Error("sweep failed", zap.Error(err))
	default:
		s.logger.Info("sweep completed",
			zap.Int("due", report.Due),
			zap.Int("dispatched", report.Dispatched),
			zap.Int("failed", report.Failed),
			zap.Int("missed", report.Missed),
			zap.Int("exhausted", len(report.Exhausted)),
			zap.Duration("duration", report.Duration))
	}
}

// Sweep runs one pass: expire yesterday's leftovers, then dispatch today's
// due reminders. A failure on one reminder never stops the others.
func (s *Scheduler) Sweep(ctx context.Context) (report SweepReport, err error) {
	if !s.sweepMu.TryLock() {
		sweepsTotal.WithLabelValues("skipped").Inc()
		return SweepReport{}, ErrSweepInProgress
	}
	defer s.sweepMu.Unlock()

	now := s.clk.Now()
	report = SweepReport{StartedAt: now, Exhausted: []uuid.UUID{}}
	defer func() {
		report.Duration = s.clk.Now().Sub(now)
		sweepDuration.Observe(report.Duration.Seconds())
	}()

	missed, err := s.expireOverdue(ctx, now)
	report.Missed = missed
	if err != nil {
		sweepsTotal.WithLabelValues("error").Inc()
		return report, err
	}

	due, err := s.selector.SelectDue(ctx, now)
	if err != nil {
		sweepsTotal.WithLabelValues("error").Inc()
		return report, err
	}
	report.Due = len(due)

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.cfg.Workers)
	for _, r := range due {
		g.Go(func() error {
			res := s.dispatch(ctx, r, now)
			mu.Lock()
			defer mu.Unlock()
			switch res {
			case outcomeDispatched:
				report.Dispatched++
			case outcomeFailed:
				report.Failed++
			case outcomeExhausted:
				report.Exhausted = append(report.Exhausted, r.ID)
			case outcomeCancelled:
				report.Cancelled++
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		sweepsTotal.WithLabelValues("cancelled").Inc()
		return report, err
	}
	sweepsTotal.WithLabelValues("ok").Inc()
	return report, nil
}

func (s *Scheduler) expireOverdue(ctx context.Context, now time.Time) (int, error) {
	overdue, err := s.selector.SelectOverdue(ctx, now)
	if err != nil {
		return 0, err
	}

	missed := 0
	for _, r := range overdue {
		if ctx.Err() != nil {
			return missed, ctx.Err()
		}
		_, err := s.store.Update(ctx, r.ID, repository.Patch{
			ExpectStatus: repository.StatusPtr(models.StatusPending),
			Status:       repository.StatusPtr(models.StatusMissed),
		})
		switch {
		case err == nil:
			missed++
			remindersMissed.Inc()
			s.logger.Info("reminder missed",
				zap.String("reminder_id", r.ID.String()),
				zap.Time("scheduled_at", r.ScheduledAt))
		case errors.Is(err, models.ErrConflict), errors.Is(err, models.ErrNotFound):
			// Changed since it was selected; nothing to expire.
		default:
			s.logger.Error("failed to mark reminder missed", zap.String("reminder_id", r.ID.String()), zap.Error(err))
		}
	}
	return missed, nil
}

func (s *Scheduler) dispatch(ctx context.Context, r models.Reminder, now time.Time) (res outcome) {
	log := s.logger.With(zap.String("reminder_id", r.ID.String()), zap.String("member_id", r.MemberID.String()))

	defer func() {
		if p := recover(); p != nil {
			log.Error("dispatch panicked", zap.Any("panic", p))
			res = outcomeFailed
		}
	}()

	if ctx.Err() != nil {
		return outcomeCancelled
	}

	loc, err := s.selector.Location(ctx, r.MemberID)
	if err != nil {
		loc = s.cfg.Location
	}
	attempts := r.AttemptsOn(now.In(loc))
	if attempts >= s.cfg.MaxDailyAttempts {
		return outcomeExhausted
	}

	dest, err := s.dir.ResolveDestination(ctx, r.MemberID)
	if err == nil {
		msg := r
		msg.ScheduledAt = r.ScheduledAt.In(loc)
		err = safeSend(ctx, s.sink, dest, msg)
	}

	if err != nil && ctx.Err() != nil {
		// Shutdown, not a delivery failure. Leave the record untouched.
		return outcomeCancelled
	}

	// The outcome must be recorded even if shutdown starts right now,
	// otherwise a sent reminder would be sent again.
	writeCtx := context.WithoutCancel(ctx)
	attempts++
	channel := dest.Channel
	if channel == "" {
		channel = "unknown"
	}
	entry := models.DispatchLog{
		ReminderID:  r.ID,
		MemberID:    r.MemberID,
		Channel:     dest.Channel,
		Destination: dest.Address,
		Attempt:     attempts,
		AttemptedAt: now,
	}

	if err == nil {
		dispatchAttempts.WithLabelValues(channel, "sent").Inc()

		_, uerr := s.store.Update(writeCtx, r.ID, repository.Patch{
			ExpectStatus:          repository.StatusPtr(models.StatusPending),
			Status:                repository.StatusPtr(models.StatusDispatched),
			LastDispatchAttemptAt: &now,
			DispatchAttempts:      &attempts,
		})
		switch {
		case uerr == nil:
			log.Info("reminder dispatched", zap.String("channel", dest.Channel))
		case errors.Is(uerr, models.ErrConflict):
			// Confirmed or changed by the user while we were sending.
			log.Info("reminder sent but changed meanwhile, status kept", zap.Error(uerr))
		default:
			// Still pending without an attempt stamp: the next sweep sends again.
			log.Error("reminder sent but status not recorded, it may be sent again", zap.Error(uerr))
		}

		entry.Status = models.AttemptSent
		s.logAttempt(writeCtx, log, entry)
		return outcomeDispatched
	}

	entry.Status = models.AttemptFailed
	entry.ErrorMessage = err.Error()
	s.logAttempt(writeCtx, log, entry)
	dispatchAttempts.WithLabelValues(channel, "failed").Inc()

	_, uerr := s.store.Update(writeCtx, r.ID, repository.Patch{
		ExpectStatus:          repository.StatusPtr(models.StatusPending),
		LastDispatchAttemptAt: &now,
		DispatchAttempts:      &attempts,
	})
	if uerr != nil {
		log.Warn("failed to record dispatch attempt", zap.Error(uerr))
	}

	if attempts >= s.cfg.MaxDailyAttempts {
		remindersExhausted.Inc()
		log.Error("reminder delivery failed, daily attempts exhausted",
			zap.Int("attempts", attempts),
			zap.Error(err))
		return outcomeExhausted
	}

	log.Warn("reminder delivery failed, will retry",
		zap.Int("attempt", attempts),
		zap.Int("max_attempts", s.cfg.MaxDailyAttempts),
		zap.Error(err))
	return outcomeFailed
}

func safeSend(ctx context.Context, sink notify.Sink, dest models.Destination, r models.Reminder) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: sink panicked: %v", models.ErrDispatchFailure, p)
		}
	}()
	return sink.Send(ctx, dest, r)
}

func (s *Scheduler) logAttempt(ctx context.Context, log *zap.Logger, entry models.DispatchLog) {
	if err := s.store.LogAttempt(ctx, entry); err != nil {
		log.Error("failed to log dispatch attempt", zap.Error(err))
	}
}
