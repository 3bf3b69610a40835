// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import "time"

// TimeOfDay is an hour:minute pair with no date attached.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// CurfewWindow is the daily interval during which the machine must be off.
// Start >= End means the window spans midnight (e.g. 22:00-06:00).
type CurfewWindow struct {
	Start TimeOfDay
	End   TimeOfDay
}

// Deadline is the absolute enforcement timestamp for the current epoch,
// together with the set of checkpoint warnings already delivered.
// It only moves forward within an epoch (negotiation grants extend it).
type Deadline struct {
	At    time.Time
	fired map[int]bool
}

// NewDeadline creates a deadline for a fresh epoch with no fired checkpoints.
func NewDeadline(at time.Time) *Deadline {
	return &Deadline{At: at, fired: make(map[int]bool)}
}

// Fired reports whether the given checkpoint already fired this epoch.
func (d *Deadline) Fired(checkpoint int) bool {
	return d.fired[checkpoint]
}

// MarkFired records a checkpoint as delivered for this epoch.
// Grants do not clear this set: a checkpoint fires at most once per epoch
// even if an extension pushes the deadline back across it.
func (d *Deadline) MarkFired(checkpoint int) {
	d.fired[checkpoint] = true
}

// Extend advances the deadline by the granted minutes.
func (d *Deadline) Extend(minutes int) {
	d.At = d.At.Add(time.Duration(minutes) * time.Minute)
}

// Checkpoints are the minutes-before-deadline marks at which a warning and
// bargain opportunity is offered, highest first.
var Checkpoints = []int{15, 5, 1}

// Grant is the outcome of a single bargain attempt.
type Grant struct {
	Minutes  int    // minutes added to the deadline, clamped to [0, MaxGrantMinutes]
	Reply    string // the evaluator's verdict text, shown to the user
	Punitive bool   // true when the evaluator judged the attempt abusive
}

// MaxGrantMinutes caps a single negotiation grant.
const MaxGrantMinutes = 30

// ViolationEvent records one denylist match on one scan tick. A process that
// survives termination produces further events on later ticks.
type ViolationEvent struct {
	PID        int
	Name       string
	Executable string
}

// ActivityAssessment is the classifier's verdict on a screen sample.
// Score runs from -1 (very unproductive) to +1 (very productive).
type ActivityAssessment struct {
	Reply string
	Score float64
}

// AngerLevel is the bounded mood accumulator, always within [0, AngerMax].
// Level 0 is calm; level 3 is the worst sustained state. Reaching AngerMax
// triggers a one-shot punitive event and an immediate reset to 3.
type AngerLevel int

const (
	AngerMin AngerLevel = 0
	AngerMax AngerLevel = 4
)

// Mood is the presentation state derived from an anger level.
type Mood string

const (
	MoodContent Mood = "content"
	MoodAnnoyed Mood = "annoyed"
	MoodAngry   Mood = "angry"
	MoodFurious Mood = "furious"
)

// CommandType tags the closed set of commands a monitor may put on the bus.
type CommandType string

const (
	CommandSetMood           CommandType = "set_mood"
	CommandShowBubble        CommandType = "show_bubble"
	CommandShowAlert         CommandType = "show_alert"
	CommandAngerDelta        CommandType = "anger_delta"
	CommandPunitiveTrigger   CommandType = "punitive_trigger"
	CommandPrepareForCapture CommandType = "prepare_for_capture"
)

// Command is a tagged variant carried from the monitors to the single
// presentation consumer. Only the fields for its type are meaningful.
type Command struct {
	Type  CommandType
	Text  string
	Score float64
	Delta int
	Mood  Mood
}

// DaemonRole identifies the type of daemon process.
type DaemonRole string

const (
	RoleCurfew   DaemonRole = "curfew"
	RoleGuardian DaemonRole = "guardian"
)

// Daemon represents a running daemon process.
type Daemon struct {
	PID            int
	Role           DaemonRole
	ObfuscatedName string
	StartedAt      time.Time
	AppVersion     string
}

// RegistryEntry stores the state of both daemons for mutual discovery.
// Persisted to a hidden file for cross-process communication.
type RegistryEntry struct {
	Version       int    `json:"version"`
	CurfewPID     int    `json:"curfew_pid"`
	CurfewName    string `json:"curfew_name"`
	GuardianPID   int    `json:"guardian_pid"`
	GuardianName  string `json:"guardian_name"`
	LastHeartbeat int64  `json:"last_heartbeat"`
	AppVersion    string `json:"app_version,omitempty"`
}

// Process is a running OS process as seen by the policy monitor.
type Process struct {
	PID        int
	Name       string
	Executable string
}

// EventKind tags a row in the event history store.
type EventKind string

const (
	EventViolation   EventKind = "violation"
	EventNegotiation EventKind = "negotiation"
	EventAssessment  EventKind = "assessment"
	EventShutdown    EventKind = "shutdown"
)

// Event is one row of the persisted history, shown by `nightmon status`.
type Event struct {
	ID     int64
	Kind   EventKind
	Detail string
	At     time.Time
}
