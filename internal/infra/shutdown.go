package infra

import (
	"fmt"
	"os/exec"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/night_mon/internal/domain"
)

// SystemShutdown implements domain.ShutdownManager via shutdown(8).
// In rehearsal mode the call is logged but never executed, so the whole
// pipeline can be exercised without halting the machine.
type SystemShutdown struct {
	rehearsal bool
	logger    *zap.Logger
}

// NewSystemShutdown creates a shutdown manager.
func NewSystemShutdown(rehearsal bool, logger *zap.Logger) *SystemShutdown {
	return &SystemShutdown{rehearsal: rehearsal, logger: logger}
}

// Schedule requests a halt after delaySeconds, broadcasting message to all
// logged-in sessions. shutdown(8) only takes whole minutes, so the delay is
// rounded up; a sub-minute delay becomes +1.
func (s *SystemShutdown) Schedule(delaySeconds int, message string) error {
	minutes := (delaySeconds + 59) / 60
	if minutes < 1 {
		minutes = 1
	}

	if s.rehearsal {
		s.logger.Info("rehearsal mode, skipping real shutdown",
			zap.Int("delay_seconds", delaySeconds),
			zap.String("message", message))
		return nil
	}

	cmd := exec.Command("shutdown", "-h", fmt.Sprintf("+%d", minutes), message)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("shutdown command failed: %w (output: %s)", err, out)
	}

	s.logger.Info("shutdown scheduled",
		zap.Int("delay_minutes", minutes),
		zap.String("message", message))
	return nil
}

// Ensure SystemShutdown implements domain.ShutdownManager.
var _ domain.ShutdownManager = (*SystemShutdown)(nil)
