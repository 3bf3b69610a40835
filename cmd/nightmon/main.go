// Package main is the CLI entry point for nightmon.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eliteGoblin/focusd/night_mon/internal/bus"
	"github.com/eliteGoblin/focusd/night_mon/internal/config"
	"github.com/eliteGoblin/focusd/night_mon/internal/consumer"
	"github.com/eliteGoblin/focusd/night_mon/internal/daemon"
	"github.com/eliteGoblin/focusd/night_mon/internal/domain"
	"github.com/eliteGoblin/focusd/night_mon/internal/infra"
	"github.com/eliteGoblin/focusd/night_mon/internal/negotiate"
	"github.com/eliteGoblin/focusd/night_mon/internal/store"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	// API keys may live in a local .env during development.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "nightmon",
	Short: "Bedtime curfew enforcer - mom is watching",
	Long: `nightmon is a daemon that enforces a nightly computer curfew.
It warns as bedtime approaches, lets you bargain for extra minutes,
closes forbidden applications, judges what is on your screen, and
shuts the machine down when time is up.

For your own good, there is no stop command.`,
	Version: Version,
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the curfew (launches curfew and guardian daemons)",
	Long: `Starts both the curfew and guardian daemons.
The curfew daemon runs the deadline scheduler, the denylist scan and
the screen checks. The guardian restarts the curfew daemon if it is
killed, and vice versa.`,
	RunE: runStart,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check curfew status",
	Long:  `Shows whether the daemons are running, the configured window, and recent enforcement history.`,
	RunE:  runStatus,
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a denylist scan immediately",
	Long:  `Runs a one-time denylist scan without waiting for the next scheduled one, closing any forbidden application it finds.`,
	RunE:  runScan,
}

var negotiateCmd = &cobra.Command{
	Use:   "negotiate",
	Short: "Rehearse a bargain for extra minutes",
	Long: `Runs one negotiation round on the terminal against the real evaluator.
Useful for testing excuses before bedtime. Grants from here do not move
the daemon's deadline.`,
	RunE: runNegotiate,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Prints version, commit, and build time. Use --json for machine-readable output.`,
	Run:   runVersion,
}

// Hidden daemon command - used for self-exec when spawning daemons
var daemonCmd = &cobra.Command{
	Use:    "daemon",
	Hidden: true,
	RunE:   runDaemon,
}

var (
	daemonRole  string
	daemonName  string
	configPath  string
	jsonOutput  bool
	minutesLeft int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Config file path")
	daemonCmd.Flags().StringVar(&daemonRole, "role", "", "Daemon role (curfew/guardian)")
	daemonCmd.Flags().StringVar(&daemonName, "name", "", "Obfuscated process name")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")
	negotiateCmd.Flags().IntVar(&minutesLeft, "minutes-left", 15, "Pretend this many minutes remain")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(negotiateCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(daemonCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	pm := infra.NewProcessManager()
	registry := infra.NewFileRegistry(pm)

	// Check if already running
	entry, _ := registry.GetAll()
	if entry != nil {
		curfewAlive := pm.IsRunning(entry.CurfewPID)
		guardianAlive := pm.IsRunning(entry.GuardianPID)
		if curfewAlive && guardianAlive {
			fmt.Println("nightmon is already running (curfew active)")
			return nil
		}
	}

	if err := daemon.StartBothDaemons(); err != nil {
		return fmt.Errorf("failed to start daemons: %w", err)
	}

	// Wait a moment for daemons to register
	time.Sleep(500 * time.Millisecond)

	fmt.Println("\n=== nightmon Started ===")
	fmt.Printf("Curfew window: %s - %s\n", cfg.CurfewStart, cfg.CurfewEnd)
	fmt.Println("Forbidden applications:")
	for _, entry := range cfg.Denylist {
		fmt.Printf("  - %s\n", entry)
	}
	if cfg.Rehearsal {
		fmt.Println("Mode: REHEARSAL (no real shutdown)")
	}
	fmt.Println("\nDaemons are running in the background.")
	fmt.Println("They will restart each other if killed.")
	fmt.Println("========================")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	pm := infra.NewProcessManager()
	registry := infra.NewFileRegistry(pm)

	fmt.Println("\n=== nightmon Status ===")

	entry, err := registry.GetAll()
	if err != nil || entry == nil {
		fmt.Println("Status: NOT RUNNING")
		fmt.Println("\nRun 'nightmon start' to enable the curfew.")
		return nil
	}

	curfewAlive := pm.IsRunning(entry.CurfewPID)
	guardianAlive := pm.IsRunning(entry.GuardianPID)

	switch {
	case curfewAlive && guardianAlive:
		fmt.Println("Status: RUNNING (curfew active)")
	case curfewAlive || guardianAlive:
		fmt.Println("Status: DEGRADED (partial protection)")
		if !curfewAlive {
			fmt.Println("        Curfew daemon is down (will be restarted by guardian)")
		}
		if !guardianAlive {
			fmt.Println("        Guardian is down (will be restarted by curfew daemon)")
		}
	default:
		fmt.Println("Status: NOT RUNNING")
	}

	if entry.LastHeartbeat > 0 {
		lastBeat := time.Unix(entry.LastHeartbeat, 0)
		fmt.Printf("Last heartbeat: %s ago\n", time.Since(lastBeat).Round(time.Second))
	}

	fmt.Printf("\nCurfew window: %s - %s\n", cfg.CurfewStart, cfg.CurfewEnd)

	// Recent history, if the encrypted store is readable.
	keyProvider := infra.NewFileKeyProvider(cfg.DataDir)
	if keyProvider.KeyExists() {
		if key, err := keyProvider.GetKey(); err == nil {
			if events, err := openRecentEvents(cfg.DataDir, key, 10); err == nil && len(events) > 0 {
				fmt.Println("\nRecent events:")
				for _, e := range events {
					fmt.Printf("  %s  [%s]  %s\n", e.At.Format("Jan 02 15:04"), e.Kind, e.Detail)
				}
			}
		}
	}

	fmt.Println("=======================")
	return nil
}

func openRecentEvents(dataDir string, key []byte, limit int) ([]domain.Event, error) {
	s, err := store.NewEventStore(dataDir, key)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.Recent(limit)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	fmt.Println("\n=== Running Denylist Scan ===")

	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()

	pm := infra.NewProcessManager()
	cmdBus := bus.New(logger)
	mon := daemon.NewPolicyMonitor(daemon.DefaultPolicyMonitorConfig(), cfg.Denylist, pm, cmdBus, nil, logger)

	violations := mon.Scan(context.Background())
	if len(violations) == 0 {
		fmt.Println("\nNo forbidden applications found.")
	} else {
		for _, v := range violations {
			fmt.Printf("  closed %s (pid %d)\n", v.Name, v.PID)
		}
		fmt.Printf("\nTotal: %d closed\n", len(violations))
	}

	fmt.Println("=============================")
	return nil
}

func runNegotiate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("GROQ_API_KEY not set; mom is unreachable")
	}

	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()

	evaluator := infra.NewGroqClient(apiKey, cfg.GroqModel, cfg.GroqVisionModel, logger)
	prompter := infra.NewConsolePrompter(os.Stdin, os.Stdout)
	session := negotiate.NewSession(prompter, evaluator, logger)

	grant := session.Negotiate(cmd.Context(), minutesLeft)

	fmt.Printf("\n[Mom]: %s\n", grant.Reply)
	fmt.Printf("  -> Extra minutes: %d\n", grant.Minutes)
	if grant.Punitive {
		fmt.Println("  -> SLIPPER INCOMING")
	}
	return nil
}

func runDaemon(cmd *cobra.Command, args []string) error {
	if daemonRole == "" || daemonName == "" {
		return fmt.Errorf("--role and --name are required")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// Set up logger (writes to /var/tmp/nightmon.log)
	logger := createLogger()
	defer func() { _ = logger.Sync() }()

	// Set process name for obfuscation
	daemon.SetProcessName(daemonName)

	role := domain.DaemonRole(daemonRole)
	d := domain.Daemon{
		PID:            os.Getpid(),
		Role:           role,
		ObfuscatedName: daemonName,
		StartedAt:      time.Now(),
		AppVersion:     Version,
	}

	pm := infra.NewProcessManager()
	registry := infra.NewFileRegistry(pm)

	// Set up graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	switch role {
	case domain.RoleCurfew:
		curfew, err := buildCurfew(cfg, registry, pm, d, logger)
		if err != nil {
			return err
		}
		return curfew.Run(ctx)

	case domain.RoleGuardian:
		guardian := daemon.NewGuardian(
			daemon.DefaultGuardianConfig(),
			registry,
			pm,
			d,
			logger,
		)
		return guardian.Run(ctx)

	default:
		return fmt.Errorf("unknown role: %s", role)
	}
}

// buildCurfew wires every curfew daemon component from config.
func buildCurfew(
	cfg *config.Config,
	registry domain.DaemonRegistry,
	pm domain.ProcessManager,
	d domain.Daemon,
	logger *zap.Logger,
) (*daemon.Curfew, error) {
	window, err := cfg.Window()
	if err != nil {
		return nil, err
	}

	cmdBus := bus.New(logger)

	// Event history is best-effort: a broken store never blocks the curfew.
	var events domain.EventStore
	keyProvider := infra.NewFileKeyProvider(cfg.DataDir)
	if key, err := infra.EnsureKey(keyProvider); err != nil {
		logger.Warn("history store disabled", zap.Error(err))
	} else if s, err := store.NewEventStore(cfg.DataDir, key); err != nil {
		logger.Warn("history store disabled", zap.Error(err))
	} else {
		events = s
	}

	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		logger.Warn("GROQ_API_KEY not set, bargains and screen checks will fail safe")
	}
	groq := infra.NewGroqClient(apiKey, cfg.GroqModel, cfg.GroqVisionModel, logger)

	// The daemon runs detached with no stdin, so this prompt returns EOF at a
	// checkpoint and the session resolves it to a zero grant. Interactive
	// bargaining happens through `nightmon negotiate`; a terminal prompt only
	// engages here when the daemon is run in the foreground for debugging.
	prompter := infra.NewConsolePrompter(os.Stdin, os.Stdout)
	session := negotiate.NewSession(prompter, groq, logger)

	shutdown := infra.NewSystemShutdown(cfg.Rehearsal, logger)
	scheduler := daemon.NewScheduler(
		daemon.DefaultSchedulerConfig(), window, session, shutdown, cmdBus, events, logger)

	policyCfg := daemon.DefaultPolicyMonitorConfig()
	policyCfg.ScanInterval = time.Duration(cfg.ScanIntervalSec) * time.Second
	policyMon := daemon.NewPolicyMonitor(policyCfg, cfg.Denylist, pm, cmdBus, events, logger)

	activityCfg := daemon.DefaultActivityMonitorConfig()
	activityCfg.SampleInterval = time.Duration(cfg.ScreenshotIntervalMin) * time.Minute
	activityMon := daemon.NewActivityMonitor(
		activityCfg, infra.NewDisplayCapturer(), groq, cmdBus, events, logger)

	consumerCfg := consumer.DefaultConfig()
	consumerCfg.NagPhrases = cfg.NagPhrases
	consumerCfg.PunitiveEnabled = cfg.PunitiveEnabled
	renderer := infra.NewLogRenderer(logger)
	cons := consumer.New(consumerCfg, cmdBus, renderer, logger)

	return daemon.NewCurfew(
		daemon.DefaultCurfewConfig(),
		registry,
		d,
		scheduler,
		policyMon,
		activityMon,
		cons,
		logger,
	), nil
}

func createLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"/var/tmp/nightmon.log"}
	config.ErrorOutputPaths = []string{"/var/tmp/nightmon.error.log"}
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		// Fallback to stdout if file logging fails
		logger, _ = zap.NewProduction()
	}
	return logger
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		fmt.Printf(`{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Printf("nightmon %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}
