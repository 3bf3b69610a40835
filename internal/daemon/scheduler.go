// Package daemon implements the curfew and guardian daemons.
package daemon

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/night_mon/internal/domain"
	"github.com/eliteGoblin/focusd/night_mon/internal/negotiate"
	"github.com/eliteGoblin/focusd/night_mon/internal/schedule"
)

// ShutdownMessage is displayed by the OS when the curfew shutdown fires.
const ShutdownMessage = "EH WHAT TIME ALREADY? GO TO SLEEP LA TOMORROW YOU CANNOT WAKE UP HOW. I GIVE YOU 30 SECONDS"

// SchedulerConfig holds curfew scheduler configuration.
type SchedulerConfig struct {
	TickInterval     time.Duration // deadline poll cadence (default 1s)
	ShutdownDelaySec int           // grace passed to the OS shutdown call
}

// DefaultSchedulerConfig returns default scheduler configuration.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		TickInterval:     time.Second,
		ShutdownDelaySec: 30,
	}
}

// Scheduler owns the shutdown deadline for the current epoch. Once per tick
// it re-derives minutes left, fires each checkpoint warning at most once per
// epoch, runs the blocking negotiation at a checkpoint, and decides shutdown.
type Scheduler struct {
	config   SchedulerConfig
	window   domain.CurfewWindow
	deadline *domain.Deadline
	session  *negotiate.Session
	shutdown domain.ShutdownManager
	bus      domain.CommandBus
	store    domain.EventStore
	now      func() time.Time
	logger   *zap.Logger
}

// NewScheduler creates a scheduler whose deadline is the next occurrence of
// the curfew window start.
func NewScheduler(
	config SchedulerConfig,
	window domain.CurfewWindow,
	session *negotiate.Session,
	shutdown domain.ShutdownManager,
	cmdBus domain.CommandBus,
	store domain.EventStore,
	logger *zap.Logger,
) *Scheduler {
	s := &Scheduler{
		config:   config,
		window:   window,
		session:  session,
		shutdown: shutdown,
		bus:      cmdBus,
		store:    store,
		now:      time.Now,
		logger:   logger,
	}
	s.deadline = domain.NewDeadline(schedule.NextOccurrence(window.Start, s.now()))
	return s
}

// NewSchedulerWithClock creates a scheduler with an injected clock (for tests).
func NewSchedulerWithClock(
	config SchedulerConfig,
	window domain.CurfewWindow,
	session *negotiate.Session,
	shutdown domain.ShutdownManager,
	cmdBus domain.CommandBus,
	store domain.EventStore,
	now func() time.Time,
	logger *zap.Logger,
) *Scheduler {
	s := NewScheduler(config, window, session, shutdown, cmdBus, store, logger)
	s.now = now
	s.deadline = domain.NewDeadline(schedule.NextOccurrence(window.Start, now()))
	return s
}

// Deadline exposes the current deadline (for status output and tests).
func (s *Scheduler) Deadline() *domain.Deadline {
	return s.deadline
}

// Run polls the deadline until shutdown fires or the context is canceled.
// The negotiation at a checkpoint deliberately blocks this loop: nothing
// else the scheduler does is time-critical while the user is bargaining.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("curfew scheduler started",
		zap.Time("deadline", s.deadline.At),
		zap.String("window_start", fmt.Sprintf("%02d:%02d", s.window.Start.Hour, s.window.Start.Minute)),
		zap.String("window_end", fmt.Sprintf("%02d:%02d", s.window.End.Hour, s.window.End.Minute)))

	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("curfew scheduler stopping")
			return ctx.Err()
		case <-ticker.C:
			if s.Tick(ctx) {
				return nil
			}
		}
	}
}

// Tick runs one scheduler step and reports whether shutdown was initiated.
func (s *Scheduler) Tick(ctx context.Context) bool {
	now := s.now()
	minutesLeft := s.deadline.At.Sub(now).Seconds() / 60
	inWindow := schedule.InsideWindow(schedule.TimeOfDayAt(now), s.window)

	if s.shouldShutdown(minutesLeft, inWindow) {
		s.initiateShutdown()
		return true
	}

	if cp, ok := s.dueCheckpoint(minutesLeft); ok {
		s.deadline.MarkFired(cp)
		s.runNegotiation(ctx, cp)
	}
	return false
}

// shouldShutdown reproduces the observed boundary: past the deadline we wait
// out a one-minute grace unless the wall clock is physically inside the
// curfew window.
func (s *Scheduler) shouldShutdown(minutesLeft float64, inWindow bool) bool {
	return minutesLeft <= 0 && (inWindow || minutesLeft < -1)
}

// dueCheckpoint returns the checkpoint within half a minute of minutesLeft
// that has not fired this epoch, if any. At most one fires per tick.
func (s *Scheduler) dueCheckpoint(minutesLeft float64) (int, bool) {
	for _, cp := range domain.Checkpoints {
		if s.deadline.Fired(cp) {
			continue
		}
		if minutesLeft > float64(cp)-0.5 && minutesLeft < float64(cp)+0.5 {
			return cp, true
		}
	}
	return 0, false
}

// runNegotiation offers the bargain for a checkpoint and applies the grant.
// The session already resolves every failure to a fail-safe zero grant, so
// nothing here can abort the loop.
func (s *Scheduler) runNegotiation(ctx context.Context, checkpoint int) {
	s.logger.Info("checkpoint reached, offering bargain",
		zap.Int("minutes_left", checkpoint))

	grant := s.session.Negotiate(ctx, checkpoint)

	if grant.Minutes > 0 {
		s.deadline.Extend(grant.Minutes)
		s.logger.Info("bargain succeeded, deadline extended",
			zap.Int("granted_minutes", grant.Minutes),
			zap.Time("new_deadline", s.deadline.At))
	}

	if grant.Reply != "" {
		s.bus.Publish(domain.Command{Type: domain.CommandShowAlert, Text: grant.Reply})
	}
	if grant.Punitive {
		s.bus.Publish(domain.Command{Type: domain.CommandPunitiveTrigger})
	}

	s.recordEvent(domain.EventNegotiation,
		fmt.Sprintf("checkpoint=%d granted=%d punitive=%t", checkpoint, grant.Minutes, grant.Punitive))
}

// initiateShutdown schedules the OS shutdown and records the epoch's end.
func (s *Scheduler) initiateShutdown() {
	s.logger.Info("curfew deadline reached, initiating shutdown")

	if err := s.shutdown.Schedule(s.config.ShutdownDelaySec, ShutdownMessage); err != nil {
		s.logger.Error("failed to schedule shutdown", zap.Error(err))
	}
	s.recordEvent(domain.EventShutdown, fmt.Sprintf("deadline=%s", s.deadline.At.Format(time.RFC3339)))
}

func (s *Scheduler) recordEvent(kind domain.EventKind, detail string) {
	if s.store == nil {
		return
	}
	if err := s.store.Record(kind, detail); err != nil {
		s.logger.Warn("failed to record event", zap.String("kind", string(kind)), zap.Error(err))
	}
}
