// Package consumer drains the command bus onto the presentation surface.
package consumer

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/night_mon/internal/domain"
	"github.com/eliteGoblin/focusd/night_mon/internal/mood"
)

// Config holds consumer configuration.
type Config struct {
	DrainInterval   time.Duration // bus poll cadence (default 50ms)
	NagInterval     time.Duration // cadence of unsolicited nagging, 0 disables
	NagPhrases      []string
	PunitiveEnabled bool
}

// DefaultConfig returns default consumer configuration.
func DefaultConfig() Config {
	return Config{
		DrainInterval:   50 * time.Millisecond,
		NagInterval:     10 * time.Minute,
		PunitiveEnabled: true,
	}
}

// Consumer is the single goroutine that owns the anger state. All mood
// mutations flow through Apply, so the engine never needs a lock.
type Consumer struct {
	config   Config
	engine   *mood.Engine
	bus      domain.CommandBus
	renderer domain.Renderer
	logger   *zap.Logger
}

// New creates a command consumer.
func New(config Config, cmdBus domain.CommandBus, renderer domain.Renderer, logger *zap.Logger) *Consumer {
	return &Consumer{
		config:   config,
		engine:   mood.NewEngine(),
		bus:      cmdBus,
		renderer: renderer,
		logger:   logger,
	}
}

// AngerLevel exposes the current anger level (for status output and tests).
func (c *Consumer) AngerLevel() domain.AngerLevel {
	return c.engine.Level()
}

// Run drains the bus until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("command consumer started",
		zap.Duration("drain_interval", c.config.DrainInterval))

	drain := time.NewTicker(c.config.DrainInterval)
	defer drain.Stop()

	var nag <-chan time.Time
	if c.config.NagInterval > 0 && len(c.config.NagPhrases) > 0 {
		nagTicker := time.NewTicker(c.config.NagInterval)
		defer nagTicker.Stop()
		nag = nagTicker.C
	}

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("command consumer stopping")
			return ctx.Err()
		case <-drain.C:
			for _, cmd := range c.bus.Drain() {
				c.Apply(cmd)
			}
		case <-nag:
			phrase := c.config.NagPhrases[rand.Intn(len(c.config.NagPhrases))]
			c.renderer.ShowBubble(phrase, 0)
		}
	}
}

// Apply executes one command against the renderer and the anger engine.
func (c *Consumer) Apply(cmd domain.Command) {
	switch cmd.Type {
	case domain.CommandSetMood:
		c.renderer.SetMood(cmd.Mood)

	case domain.CommandShowBubble:
		c.renderer.ShowBubble(cmd.Text, cmd.Score)

	case domain.CommandShowAlert:
		c.renderer.ShowAlert(cmd.Text)

	case domain.CommandAngerDelta:
		level, punitive := c.engine.Apply(cmd.Delta)
		c.renderer.SetMood(mood.MoodFor(level))
		if punitive {
			c.logger.Info("anger peaked", zap.Int("level", int(level)))
			if c.config.PunitiveEnabled {
				c.renderer.PlayPunitive()
			}
		}

	case domain.CommandPunitiveTrigger:
		if c.config.PunitiveEnabled {
			c.renderer.PlayPunitive()
		}

	case domain.CommandPrepareForCapture:
		c.renderer.PrepareForCapture()

	default:
		c.logger.Warn("unknown command dropped", zap.String("type", string(cmd.Type)))
	}
}
