package infra

import (
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/night_mon/internal/domain"
)

// LogRenderer implements domain.Renderer against the structured log.
// The daemon has no GUI surface of its own; a desktop avatar process can
// tail the log or replace this with a real presentation client.
type LogRenderer struct {
	logger *zap.Logger
}

// NewLogRenderer creates a log-backed renderer.
func NewLogRenderer(logger *zap.Logger) *LogRenderer {
	return &LogRenderer{logger: logger}
}

func (r *LogRenderer) SetMood(mood domain.Mood) {
	r.logger.Info("mood changed", zap.String("mood", string(mood)))
}

func (r *LogRenderer) ShowBubble(text string, score float64) {
	r.logger.Info("bubble", zap.String("text", text), zap.Float64("score", score))
}

func (r *LogRenderer) ShowAlert(text string) {
	r.logger.Info("alert", zap.String("text", text))
}

func (r *LogRenderer) PlayPunitive() {
	r.logger.Info("slipper thrown")
}

func (r *LogRenderer) PrepareForCapture() {
	r.logger.Info("posing for screenshot")
}

// Ensure LogRenderer implements domain.Renderer.
var _ domain.Renderer = (*LogRenderer)(nil)
