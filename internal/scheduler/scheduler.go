package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Target is the entry point the scheduler hands wall-clock ticks to.
// tracker.Tracker implements this (method: Tick).
type Target interface {
	Tick(ctx context.Context, now time.Time)
}

// Scheduler wakes up once per hour and hands the current time, converted to
// the configured timezone, to the target. The target decides whether the
// weekly slot matched; the scheduler only provides the cadence.
type Scheduler struct {
	target   Target
	loc      *time.Location
	log      *zap.Logger
	interval time.Duration
}

func New(target Target, loc *time.Location, log *zap.Logger) *Scheduler {
	return &Scheduler{
		target:   target,
		loc:      loc,
		log:      log,
		interval: time.Hour,
	}
}

// Run ticks once immediately, then loops until ctx is canceled, so a restart
// inside the configured hour does not skip that week's reminder. Cancellation
// interrupts the sleep; the current tick's sends are best-effort and not
// waited for.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("scheduler started", zap.String("tz", s.loc.String()))
	s.target.Tick(ctx, time.Now().In(s.loc))
	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopping")
			return
		case <-ticker.C:
			s.target.Tick(ctx, time.Now().In(s.loc))
		}
	}
}
