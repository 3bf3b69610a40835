package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefault_IsValid verifies the shipped defaults pass validation
func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	w, err := cfg.Window()
	require.NoError(t, err)
	assert.Equal(t, 22, w.Start.Hour)
	assert.Equal(t, 6, w.End.Hour)
}

// TestLoad_MissingFileFallsBackToDefaults verifies a missing file is not fatal
func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().CurfewStart, cfg.CurfewStart)
}

// TestLoad_FileOverridesDefaults verifies YAML fields override defaults
func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
curfew_start: "23:30"
curfew_end: "07:00"
denylist: ["game"]
nag_phrases: ["go study"]
screenshot_interval_min: 10
rehearsal: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "23:30", cfg.CurfewStart)
	assert.Equal(t, []string{"game"}, cfg.Denylist)
	assert.Equal(t, 10, cfg.ScreenshotIntervalMin)
	assert.True(t, cfg.Rehearsal)
	// Unset fields keep defaults
	assert.Equal(t, Default().ScanIntervalSec, cfg.ScanIntervalSec)
}

// TestValidate_Rejections covers the fatal configuration errors
func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"malformed start time", func(c *Config) { c.CurfewStart = "25:00" }},
		{"malformed end time", func(c *Config) { c.CurfewEnd = "nope" }},
		{"empty denylist", func(c *Config) { c.Denylist = nil }},
		{"empty nag phrases", func(c *Config) { c.NagPhrases = []string{} }},
		{"zero scan interval", func(c *Config) { c.ScanIntervalSec = 0 }},
		{"screenshot interval too low", func(c *Config) { c.ScreenshotIntervalMin = 0 }},
		{"screenshot interval too high", func(c *Config) { c.ScreenshotIntervalMin = 61 }},
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

// TestLoad_MalformedYAML verifies parse errors are fatal
func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("curfew_start: [broken"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}
