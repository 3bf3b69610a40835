package daemon

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/night_mon/internal/domain"
)

// GuardianConfig holds guardian daemon configuration.
type GuardianConfig struct {
	CurfewCheckInterval time.Duration // how often to check the curfew daemon
	HeartbeatInterval   time.Duration // how often to update heartbeat
}

// DefaultGuardianConfig returns default guardian configuration.
func DefaultGuardianConfig() GuardianConfig {
	return GuardianConfig{
		CurfewCheckInterval: 30 * time.Second,
		HeartbeatInterval:   30 * time.Second,
	}
}

// Guardian monitors the curfew daemon and restarts it if killed.
// This is the simpler of the two daemons - its only job is to keep the
// curfew daemon alive so the deadline cannot be escaped by killing it.
type Guardian struct {
	config         GuardianConfig
	registry       domain.DaemonRegistry
	processManager domain.ProcessManager
	logger         *zap.Logger
	daemon         domain.Daemon
}

// NewGuardian creates a new guardian daemon.
func NewGuardian(
	config GuardianConfig,
	registry domain.DaemonRegistry,
	pm domain.ProcessManager,
	daemon domain.Daemon,
	logger *zap.Logger,
) *Guardian {
	return &Guardian{
		config:         config,
		registry:       registry,
		processManager: pm,
		daemon:         daemon,
		logger:         logger,
	}
}

// Run starts the guardian loop. Blocks until context is canceled.
func (g *Guardian) Run(ctx context.Context) error {
	if err := g.registry.Register(g.daemon); err != nil {
		g.logger.Error("failed to register guardian", zap.Error(err))
		return err
	}

	g.logger.Info("guardian daemon started",
		zap.Int("pid", g.daemon.PID),
		zap.String("name", g.daemon.ObfuscatedName))

	checkTicker := time.NewTicker(g.config.CurfewCheckInterval)
	heartbeatTicker := time.NewTicker(g.config.HeartbeatInterval)
	defer checkTicker.Stop()
	defer heartbeatTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			g.logger.Info("guardian daemon stopping")
			return ctx.Err()

		case <-checkTicker.C:
			g.checkAndRestartCurfew()

		case <-heartbeatTicker.C:
			if err := g.registry.UpdateHeartbeat(domain.RoleGuardian); err != nil {
				g.logger.Warn("failed to update heartbeat", zap.Error(err))
			}
		}
	}
}

// checkAndRestartCurfew restarts the curfew daemon if it is not running.
func (g *Guardian) checkAndRestartCurfew() {
	alive, err := g.registry.IsPartnerAlive(domain.RoleGuardian)
	if err != nil {
		g.logger.Debug("no curfew daemon registered yet")
		return
	}

	if !alive {
		g.logger.Info("curfew daemon not running, restarting...")
		if err := StartDaemon(domain.RoleCurfew); err != nil {
			g.logger.Error("failed to restart curfew daemon", zap.Error(err))
		} else {
			g.logger.Info("curfew daemon restarted successfully")
		}
	}
}
