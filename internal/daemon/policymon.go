package daemon

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/night_mon/internal/domain"
)

// PolicyMonitorConfig holds denylist scan configuration.
type PolicyMonitorConfig struct {
	ScanInterval time.Duration // default 60s
}

// DefaultPolicyMonitorConfig returns default policy monitor configuration.
func DefaultPolicyMonitorConfig() PolicyMonitorConfig {
	return PolicyMonitorConfig{ScanInterval: 60 * time.Second}
}

// PolicyMonitor scans running processes against the denylist every tick,
// emits a violation for each match and asks the OS to terminate it.
// Matching re-runs every tick against still-running processes: a process
// that resists termination keeps producing violations and anger deltas.
type PolicyMonitor struct {
	config   PolicyMonitorConfig
	denylist []string
	pm       domain.ProcessManager
	bus      domain.CommandBus
	store    domain.EventStore
	logger   *zap.Logger
}

// NewPolicyMonitor creates a denylist monitor. Entries are matched
// case-insensitively as substrings of the executable path.
func NewPolicyMonitor(
	config PolicyMonitorConfig,
	denylist []string,
	pm domain.ProcessManager,
	cmdBus domain.CommandBus,
	store domain.EventStore,
	logger *zap.Logger,
) *PolicyMonitor {
	lowered := make([]string, len(denylist))
	for i, entry := range denylist {
		lowered[i] = strings.ToLower(entry)
	}
	return &PolicyMonitor{
		config:   config,
		denylist: lowered,
		pm:       pm,
		bus:      cmdBus,
		store:    store,
		logger:   logger,
	}
}

// Run scans on a fixed interval until the context is canceled.
// The first scan runs immediately.
func (m *PolicyMonitor) Run(ctx context.Context) error {
	m.logger.Info("policy monitor started",
		zap.Strings("denylist", m.denylist),
		zap.Duration("interval", m.config.ScanInterval))

	m.Scan(ctx)

	ticker := time.NewTicker(m.config.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("policy monitor stopping")
			return ctx.Err()
		case <-ticker.C:
			m.Scan(ctx)
		}
	}
}

// Scan runs one enforcement pass and returns the violations it found.
// Enumeration and termination failures are logged and never fatal.
func (m *PolicyMonitor) Scan(ctx context.Context) []domain.ViolationEvent {
	procs, err := m.pm.List()
	if err != nil {
		m.logger.Warn("failed to list processes", zap.Error(err))
		return nil
	}

	var violations []domain.ViolationEvent
	for _, proc := range procs {
		if ctx.Err() != nil {
			return violations
		}
		if !m.matches(proc.Executable) {
			continue
		}

		violation := domain.ViolationEvent{
			PID:        proc.PID,
			Name:       proc.Name,
			Executable: proc.Executable,
		}
		violations = append(violations, violation)

		m.bus.Publish(domain.Command{
			Type: domain.CommandShowAlert,
			Text: fmt.Sprintf("EH! I see you opening %s ah? Not allowed. I close it for you.", proc.Name),
		})
		m.bus.Publish(domain.Command{Type: domain.CommandAngerDelta, Delta: 1})

		m.recordEvent(violation)

		if err := m.pm.Terminate(proc.PID); err != nil {
			// Permission denied or already gone - the next tick retries.
			m.logger.Warn("failed to terminate process",
				zap.Int("pid", proc.PID),
				zap.String("name", proc.Name),
				zap.Error(err))
			continue
		}
		m.logger.Info("terminated denylisted process",
			zap.Int("pid", proc.PID),
			zap.String("name", proc.Name),
			zap.String("executable", proc.Executable))
	}
	return violations
}

// matches reports whether an executable path contains any denylist entry.
func (m *PolicyMonitor) matches(executable string) bool {
	if executable == "" {
		return false
	}
	lowered := strings.ToLower(executable)
	for _, entry := range m.denylist {
		if strings.Contains(lowered, entry) {
			return true
		}
	}
	return false
}

func (m *PolicyMonitor) recordEvent(v domain.ViolationEvent) {
	if m.store == nil {
		return
	}
	detail := fmt.Sprintf("pid=%d name=%s exe=%s", v.PID, v.Name, v.Executable)
	if err := m.store.Record(domain.EventViolation, detail); err != nil {
		m.logger.Warn("failed to record violation", zap.Error(err))
	}
}
