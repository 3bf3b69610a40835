// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/eliteGoblin/focusd/night_mon/internal/domain"
	"github.com/eliteGoblin/focusd/night_mon/internal/schedule"
)

// Config holds all nightmon configuration. Malformed configuration is the
// only fatal error in the core: it is rejected before any loop starts.
type Config struct {
	CurfewStart string   `yaml:"curfew_start"` // HH:MM
	CurfewEnd   string   `yaml:"curfew_end"`   // HH:MM
	Denylist    []string `yaml:"denylist"`     // process name substrings
	NagPhrases  []string `yaml:"nag_phrases"`  // passed through to the renderer

	ScanIntervalSec       int  `yaml:"scan_interval_sec"`
	ScreenshotIntervalMin int  `yaml:"screenshot_interval_min"`
	PunitiveEnabled       bool `yaml:"punitive_enabled"`
	Rehearsal             bool `yaml:"rehearsal"` // no real shutdown when true

	GroqModel       string `yaml:"groq_model"`
	GroqVisionModel string `yaml:"groq_vision_model"`
	DataDir         string `yaml:"data_dir"`
}

// Default returns the shipped defaults.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		CurfewStart: "22:00",
		CurfewEnd:   "06:00",
		Denylist: []string{
			"minecraft",
			"steam",
			"epicgameslauncher",
			"cs2",
			"osu",
		},
		NagPhrases: []string{
			"Don't think I don't know what you doing ah. My eyes everywhere one.",
			"Focus on your studying... then you can get good job in the future.",
			"Better finish your work first then play hor.",
			"Now you lazy, next time you regret then you know. Don't say I never warn you.",
		},
		ScanIntervalSec:       60,
		ScreenshotIntervalMin: 5,
		PunitiveEnabled:       false,
		Rehearsal:             false,
		GroqModel:             "llama-3.1-8b-instant",
		GroqVisionModel:       "meta-llama/llama-4-scout-17b-16e-instruct",
		DataDir:               filepath.Join(home, ".local", "share", "nightmon"),
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "nightmon", "config.yaml")
}

// Load reads configuration from a YAML file, falling back to defaults for
// unset fields. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the invariants the core depends on.
func (c *Config) Validate() error {
	if _, err := schedule.ParseTimeOfDay(c.CurfewStart); err != nil {
		return fmt.Errorf("curfew_start: %w", err)
	}
	if _, err := schedule.ParseTimeOfDay(c.CurfewEnd); err != nil {
		return fmt.Errorf("curfew_end: %w", err)
	}
	if len(c.Denylist) == 0 {
		return fmt.Errorf("denylist must contain at least one process name")
	}
	if len(c.NagPhrases) == 0 {
		return fmt.Errorf("nag_phrases must contain at least one phrase")
	}
	if c.ScanIntervalSec <= 0 {
		return fmt.Errorf("scan_interval_sec must be > 0")
	}
	if c.ScreenshotIntervalMin < 1 || c.ScreenshotIntervalMin > 60 {
		return fmt.Errorf("screenshot_interval_min must be within [1, 60]")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir cannot be empty")
	}
	return nil
}

// Window parses the curfew window. Call only after Validate.
func (c *Config) Window() (domain.CurfewWindow, error) {
	start, err := schedule.ParseTimeOfDay(c.CurfewStart)
	if err != nil {
		return domain.CurfewWindow{}, err
	}
	end, err := schedule.ParseTimeOfDay(c.CurfewEnd)
	if err != nil {
		return domain.CurfewWindow{}, err
	}
	return domain.CurfewWindow{Start: start, End: end}, nil
}
