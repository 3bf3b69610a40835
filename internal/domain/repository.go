package domain

import "context"

// ProcessManager handles OS process operations.
// Implementation: uses gopsutil for cross-platform support.
type ProcessManager interface {
	// List returns all running processes with name and executable path.
	// Processes whose metadata cannot be read are skipped.
	List() ([]Process, error)

	// Terminate asks a process to exit (SIGTERM).
	Terminate(pid int) error

	// IsRunning checks if a PID exists and is running.
	IsRunning(pid int) bool

	// GetCurrentPID returns the current process PID.
	GetCurrentPID() int
}

// ShutdownManager schedules the OS shutdown at curfew.
type ShutdownManager interface {
	// Schedule requests a shutdown after delaySeconds, showing message.
	// In rehearsal mode no real shutdown happens and nil is returned.
	Schedule(delaySeconds int, message string) error
}

// ExcuseEvaluator scores a textual excuse and decides how many extra
// minutes it is worth. Implementations must honor ctx cancellation; the
// caller applies a fail-safe grant on any error.
type ExcuseEvaluator interface {
	Evaluate(ctx context.Context, excuse string) (Grant, error)
}

// ActivityClassifier scores a screen capture for productivity.
// Same fail-safe contract as ExcuseEvaluator.
type ActivityClassifier interface {
	Classify(ctx context.Context, screenJPEG []byte) (ActivityAssessment, error)
}

// ScreenCapturer grabs the current primary display as JPEG bytes.
type ScreenCapturer interface {
	Capture() ([]byte, error)
}

// ExcusePrompter obtains the user's excuse at a checkpoint. It blocks until
// the user answers or declines; an empty excuse means no bargain attempt.
// This is the human-in-the-loop point: it suspends the scheduler loop.
type ExcusePrompter interface {
	PromptExcuse(ctx context.Context, minutesLeft int) (string, error)
}

// Renderer is the external presentation surface (avatar, bubbles, popups).
// The core only ever drives it from the single consumer goroutine.
type Renderer interface {
	SetMood(mood Mood)
	ShowBubble(text string, score float64)
	ShowAlert(text string)
	PlayPunitive()
	PrepareForCapture()
}

// CommandBus fans commands from the monitors into the single consumer.
// Publish never blocks; commands from one producer are delivered in order.
type CommandBus interface {
	Publish(cmd Command)
	Drain() []Command
	Len() int
}

// EventStore persists the enforcement history.
// Implementation: SQLCipher encrypted SQLite.
type EventStore interface {
	Record(kind EventKind, detail string) error
	Recent(limit int) ([]Event, error)
	Close() error
}

// DaemonRegistry provides daemon discovery and registration.
// Daemons find each other via PID stored in a hidden registry file.
// Implementation: hidden JSON file in /var/tmp/
type DaemonRegistry interface {
	// Register saves current daemon's PID and obfuscated name.
	Register(daemon Daemon) error

	// GetPartner returns the partner daemon info (curfew<->guardian).
	GetPartner(role DaemonRole) (*Daemon, error)

	// UpdateHeartbeat updates timestamp for liveness check.
	UpdateHeartbeat(role DaemonRole) error

	// IsPartnerAlive checks if partner daemon is running via PID.
	IsPartnerAlive(role DaemonRole) (bool, error)

	// GetAll returns full registry state (for status command).
	GetAll() (*RegistryEntry, error)

	// Clear removes registry file (for clean restart).
	Clear() error

	// GetRegistryPath returns the hidden registry file path (for tests).
	GetRegistryPath() string
}

// KeyProvider abstracts the source of the history store encryption key.
type KeyProvider interface {
	GetKey() ([]byte, error)
	StoreKey(key []byte) error
	KeyExists() bool
}

// Obfuscator generates system-looking process names.
type Obfuscator interface {
	// GenerateName creates a random system-looking process name.
	GenerateName() string
}
