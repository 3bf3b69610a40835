// Package mood implements the anger accumulator and its punitive threshold.
// The level is owned exclusively by the presentation consumer; monitors may
// only propose deltas through the command bus.
package mood

import "github.com/eliteGoblin/focusd/night_mon/internal/domain"

// Engine is the pure anger state machine.
type Engine struct {
	level domain.AngerLevel
}

// NewEngine creates an engine starting at the calm level.
func NewEngine() *Engine {
	return &Engine{level: domain.AngerMin}
}

// Level returns the current anger level, always in [0, 4].
func (e *Engine) Level() domain.AngerLevel {
	return e.level
}

// Apply adds a delta, clamping to [AngerMin, AngerMax]. If the clamped result
// reaches AngerMax the engine resets to 3 in the same step and reports a
// single punitive trigger; the level is never left at the maximum.
func (e *Engine) Apply(delta int) (level domain.AngerLevel, punitive bool) {
	next := e.level + domain.AngerLevel(delta)
	if next < domain.AngerMin {
		next = domain.AngerMin
	}
	if next > domain.AngerMax {
		next = domain.AngerMax
	}
	if next == domain.AngerMax {
		e.level = domain.AngerMax - 1
		return e.level, true
	}
	e.level = next
	return e.level, false
}

// MoodFor maps a sustained anger level (0..3) to a presentation mood.
func MoodFor(level domain.AngerLevel) domain.Mood {
	switch {
	case level <= 0:
		return domain.MoodContent
	case level == 1:
		return domain.MoodAnnoyed
	case level == 2:
		return domain.MoodAngry
	default:
		return domain.MoodFurious
	}
}
