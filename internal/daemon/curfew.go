package daemon

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/night_mon/internal/domain"
)

// CurfewConfig holds the curfew daemon's housekeeping intervals.
type CurfewConfig struct {
	HeartbeatInterval    time.Duration // how often to update heartbeat
	PartnerCheckInterval time.Duration // how often to check the guardian
}

// DefaultCurfewConfig returns default curfew daemon configuration.
func DefaultCurfewConfig() CurfewConfig {
	return CurfewConfig{
		HeartbeatInterval:    30 * time.Second,
		PartnerCheckInterval: 60 * time.Second,
	}
}

// Curfew is the main enforcement daemon. It hosts the scheduler, the policy
// and activity monitors and the presentation consumer as isolated loops, and
// keeps the guardian daemon alive.
type Curfew struct {
	config   CurfewConfig
	registry domain.DaemonRegistry
	daemon   domain.Daemon

	scheduler   *Scheduler
	policyMon   *PolicyMonitor
	activityMon *ActivityMonitor
	consumer    Loop

	logger *zap.Logger
}

// Loop is any long-running component driven by the curfew daemon.
type Loop interface {
	Run(ctx context.Context) error
}

// NewCurfew creates the curfew daemon.
func NewCurfew(
	config CurfewConfig,
	registry domain.DaemonRegistry,
	daemon domain.Daemon,
	scheduler *Scheduler,
	policyMon *PolicyMonitor,
	activityMon *ActivityMonitor,
	consumer Loop,
	logger *zap.Logger,
) *Curfew {
	return &Curfew{
		config:      config,
		registry:    registry,
		daemon:      daemon,
		scheduler:   scheduler,
		policyMon:   policyMon,
		activityMon: activityMon,
		consumer:    consumer,
		logger:      logger,
	}
}

// Run starts all loops and blocks until the context is canceled or the
// scheduler initiates shutdown. Each monitor is an isolated failure domain:
// a panic in one loop is recovered and logged without touching the others.
func (c *Curfew) Run(ctx context.Context) error {
	if err := c.registry.Register(c.daemon); err != nil {
		c.logger.Error("failed to register curfew daemon", zap.Error(err))
		return err
	}

	c.logger.Info("curfew daemon started",
		zap.Int("pid", c.daemon.PID),
		zap.String("name", c.daemon.ObfuscatedName))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The scheduler's return (shutdown initiated) ends the whole daemon.
	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		c.runIsolated(ctx, "scheduler", c.scheduler)
	}()
	go c.runIsolated(ctx, "policy_monitor", c.policyMon)
	go c.runIsolated(ctx, "activity_monitor", c.activityMon)
	go c.runIsolated(ctx, "consumer", c.consumer)

	heartbeatTicker := time.NewTicker(c.config.HeartbeatInterval)
	partnerTicker := time.NewTicker(c.config.PartnerCheckInterval)
	defer heartbeatTicker.Stop()
	defer partnerTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("curfew daemon stopping")
			return ctx.Err()

		case <-schedulerDone:
			// Shutdown fired; give the consumer a moment to flush the bus.
			time.Sleep(200 * time.Millisecond)
			return nil

		case <-heartbeatTicker.C:
			if err := c.registry.UpdateHeartbeat(domain.RoleCurfew); err != nil {
				c.logger.Warn("failed to update heartbeat", zap.Error(err))
			}

		case <-partnerTicker.C:
			c.checkAndRestartGuardian()
		}
	}
}

// runIsolated runs a loop, recovering panics so one monitor's fault never
// takes down the others or the consumer.
func (c *Curfew) runIsolated(ctx context.Context, name string, loop Loop) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("monitor loop panicked",
				zap.String("loop", name),
				zap.Any("panic", r))
		}
	}()

	if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
		c.logger.Error("monitor loop exited with error",
			zap.String("loop", name),
			zap.Error(err))
	}
}

// checkAndRestartGuardian mirrors the guardian's own watch in the other
// direction, so killing either daemon alone does not end enforcement.
func (c *Curfew) checkAndRestartGuardian() {
	alive, err := c.registry.IsPartnerAlive(domain.RoleCurfew)
	if err != nil {
		c.logger.Debug("no guardian registered yet")
		return
	}

	if !alive {
		c.logger.Info("guardian not running, restarting...")
		if err := StartDaemon(domain.RoleGuardian); err != nil {
			c.logger.Error("failed to restart guardian", zap.Error(err))
		} else {
			c.logger.Info("guardian restarted successfully")
		}
	}
}
