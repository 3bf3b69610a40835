package daemon

import (
	"os"
	"os/exec"
	"syscall"

	"github.com/eliteGoblin/focusd/night_mon/internal/domain"
	"github.com/eliteGoblin/focusd/night_mon/internal/infra"
)

// StartDaemon spawns a new daemon process with an obfuscated name.
// The daemon is detached from the parent process (runs independently).
func StartDaemon(role domain.DaemonRole) error {
	obfuscator := infra.NewObfuscator()
	daemonName := obfuscator.GenerateName()

	executable, err := os.Executable()
	if err != nil {
		return err
	}

	// Self-exec with daemon mode flag
	// Hidden "daemon" command: nightmon daemon --role curfew --name systemd-agent-xxxxxx
	cmd := exec.Command(executable, "daemon",
		"--role", string(role),
		"--name", daemonName)

	// Detach from parent process
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true, // Create new session (detach from terminal)
	}

	// No stdin/stdout/stderr - fully detached
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	return cmd.Start()
}

// StartBothDaemons starts both curfew and guardian daemons.
func StartBothDaemons() error {
	if err := StartDaemon(domain.RoleCurfew); err != nil {
		return err
	}
	return StartDaemon(domain.RoleGuardian)
}

// SetProcessName changes the visible process name.
// Uses argv[0] overwrite which is best-effort on most platforms; the real
// obfuscation comes from the binary name and registry file hiding.
func SetProcessName(name string) {
	if len(os.Args) > 0 {
		os.Args[0] = name
	}
}
