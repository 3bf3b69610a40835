//go:build integration

package integration

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/night_mon/internal/bus"
	"github.com/eliteGoblin/focusd/night_mon/internal/consumer"
	"github.com/eliteGoblin/focusd/night_mon/internal/daemon"
	"github.com/eliteGoblin/focusd/night_mon/internal/domain"
	"github.com/eliteGoblin/focusd/night_mon/internal/infra"
	"github.com/eliteGoblin/focusd/night_mon/internal/negotiate"
	"github.com/eliteGoblin/focusd/night_mon/internal/store"
)

// fakeProcessManager serves a fixed process table.
type fakeProcessManager struct {
	procs      []domain.Process
	terminated []int
}

func (f *fakeProcessManager) List() ([]domain.Process, error) { return f.procs, nil }
func (f *fakeProcessManager) Terminate(pid int) error {
	f.terminated = append(f.terminated, pid)
	return nil
}
func (f *fakeProcessManager) IsRunning(pid int) bool { return false }
func (f *fakeProcessManager) GetCurrentPID() int     { return 1 }

// fakeEvaluator answers every excuse with a fixed grant.
type fakeEvaluator struct {
	grant domain.Grant
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, excuse string) (domain.Grant, error) {
	return f.grant, nil
}

// fakePrompter always offers the same excuse.
type fakePrompter struct {
	excuse string
}

func (f *fakePrompter) PromptExcuse(ctx context.Context, minutesLeft int) (string, error) {
	return f.excuse, nil
}

// fakeShutdown records shutdown requests.
type fakeShutdown struct {
	calls    int
	messages []string
}

func (f *fakeShutdown) Schedule(delaySeconds int, message string) error {
	f.calls++
	f.messages = append(f.messages, message)
	return nil
}

// recordingRenderer captures presentation calls.
type recordingRenderer struct {
	moods     []domain.Mood
	alerts    []string
	punitives int
}

func (r *recordingRenderer) SetMood(mood domain.Mood)              { r.moods = append(r.moods, mood) }
func (r *recordingRenderer) ShowBubble(text string, score float64) {}
func (r *recordingRenderer) ShowAlert(text string)                 { r.alerts = append(r.alerts, text) }
func (r *recordingRenderer) PlayPunitive()                         { r.punitives++ }
func (r *recordingRenderer) PrepareForCapture()                    {}

var _ = Describe("Curfew Enforcement", func() {
	var (
		logger  *zap.Logger
		cmdBus  *bus.Bus
		events  *store.EventStore
		dataDir string
	)

	BeforeEach(func() {
		logger = zap.NewNop()
		cmdBus = bus.New(logger)

		var err error
		dataDir = GinkgoT().TempDir()
		keyProvider := infra.NewFileKeyProvider(dataDir)
		key, err := infra.EnsureKey(keyProvider)
		Expect(err).NotTo(HaveOccurred())
		events, err = store.NewEventStore(dataDir, key)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(events.Close()).To(Succeed())
	})

	Describe("denylist enforcement", func() {
		Context("when a forbidden application is running", func() {
			It("closes it, raises anger, and records the violation", func() {
				pm := &fakeProcessManager{
					procs: []domain.Process{
						{PID: 100, Name: "code", Executable: "/usr/bin/code"},
						{PID: 200, Name: "minecraft", Executable: "/opt/minecraft/launcher"},
					},
				}
				mon := daemon.NewPolicyMonitor(
					daemon.DefaultPolicyMonitorConfig(),
					[]string{"minecraft"}, pm, cmdBus, events, logger)

				violations := mon.Scan(context.Background())
				Expect(violations).To(HaveLen(1))
				Expect(pm.terminated).To(Equal([]int{200}))

				// Drain the bus through the consumer.
				renderer := &recordingRenderer{}
				cons := consumer.New(consumer.DefaultConfig(), cmdBus, renderer, logger)
				for _, cmd := range cmdBus.Drain() {
					cons.Apply(cmd)
				}

				Expect(renderer.alerts).To(HaveLen(1))
				Expect(renderer.alerts[0]).To(ContainSubstring("minecraft"))
				Expect(cons.AngerLevel()).To(Equal(domain.AngerLevel(1)))
				Expect(renderer.moods).To(Equal([]domain.Mood{domain.MoodAnnoyed}))

				recorded, err := events.Recent(10)
				Expect(err).NotTo(HaveOccurred())
				Expect(recorded).To(HaveLen(1))
				Expect(recorded[0].Kind).To(Equal(domain.EventViolation))
			})
		})

		Context("when repeated violations push anger to its peak", func() {
			It("throws the slipper exactly once and settles just below the peak", func() {
				renderer := &recordingRenderer{}
				cons := consumer.New(consumer.DefaultConfig(), cmdBus, renderer, logger)

				for i := 0; i < 4; i++ {
					cons.Apply(domain.Command{Type: domain.CommandAngerDelta, Delta: 1})
				}

				Expect(renderer.punitives).To(Equal(1))
				Expect(cons.AngerLevel()).To(Equal(domain.AngerLevel(3)))
			})
		})
	})

	Describe("bedtime negotiation", func() {
		var (
			window   domain.CurfewWindow
			now      time.Time
			shutdown *fakeShutdown
		)

		BeforeEach(func() {
			window = domain.CurfewWindow{
				Start: domain.TimeOfDay{Hour: 22, Minute: 0},
				End:   domain.TimeOfDay{Hour: 6, Minute: 0},
			}
			now = time.Date(2026, 3, 10, 21, 0, 0, 0, time.UTC)
			shutdown = &fakeShutdown{}
		})

		newScheduler := func(grant domain.Grant) *daemon.Scheduler {
			session := negotiate.NewSession(
				&fakePrompter{excuse: "finishing my essay, five more pages"},
				&fakeEvaluator{grant: grant},
				logger)
			return daemon.NewSchedulerWithClock(
				daemon.DefaultSchedulerConfig(), window, session, shutdown, cmdBus, events,
				func() time.Time { return now }, logger)
		}

		Context("when a good excuse is offered at a checkpoint", func() {
			It("extends the deadline and records the bargain", func() {
				s := newScheduler(domain.Grant{Minutes: 25, Reply: "Essay first, then straight to bed!"})

				now = time.Date(2026, 3, 10, 21, 45, 10, 0, time.UTC)
				s.Tick(context.Background())

				Expect(s.Deadline().At).To(Equal(time.Date(2026, 3, 10, 22, 25, 0, 0, time.UTC)))
				Expect(s.Deadline().Fired(15)).To(BeTrue())

				recorded, err := events.Recent(10)
				Expect(err).NotTo(HaveOccurred())
				Expect(recorded).To(HaveLen(1))
				Expect(recorded[0].Kind).To(Equal(domain.EventNegotiation))
				Expect(recorded[0].Detail).To(ContainSubstring("granted=25"))
			})
		})

		Context("when the deadline passes inside the window", func() {
			It("schedules the shutdown and records the epoch's end", func() {
				s := newScheduler(domain.Grant{})

				now = time.Date(2026, 3, 10, 22, 0, 30, 0, time.UTC)
				Expect(s.Tick(context.Background())).To(BeTrue())

				Expect(shutdown.calls).To(Equal(1))
				Expect(shutdown.messages[0]).To(Equal(daemon.ShutdownMessage))

				recorded, err := events.Recent(10)
				Expect(err).NotTo(HaveOccurred())
				Expect(recorded).To(HaveLen(1))
				Expect(recorded[0].Kind).To(Equal(domain.EventShutdown))
			})
		})
	})
})
