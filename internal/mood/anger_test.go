package mood

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eliteGoblin/focusd/night_mon/internal/domain"
)

// TestEngine_ClampLow verifies negative deltas never push the level below zero
func TestEngine_ClampLow(t *testing.T) {
	e := NewEngine()

	level, punitive := e.Apply(-1)
	assert.Equal(t, domain.AngerLevel(0), level)
	assert.False(t, punitive)

	level, punitive = e.Apply(-5)
	assert.Equal(t, domain.AngerLevel(0), level)
	assert.False(t, punitive)
}

// TestEngine_PunitiveThreshold verifies the one-shot trigger and reset to 3
func TestEngine_PunitiveThreshold(t *testing.T) {
	e := NewEngine()

	for i := 0; i < 3; i++ {
		level, punitive := e.Apply(1)
		assert.Equal(t, domain.AngerLevel(i+1), level)
		assert.False(t, punitive)
	}

	// Fourth increment crosses the threshold: one trigger, reset to 3
	level, punitive := e.Apply(1)
	assert.Equal(t, domain.AngerLevel(3), level)
	assert.True(t, punitive)

	// Applying +1 again from 3 triggers again (fresh crossing), still resets
	level, punitive = e.Apply(1)
	assert.Equal(t, domain.AngerLevel(3), level)
	assert.True(t, punitive)

	// A big delta from low levels clamps and still fires exactly once
	e2 := NewEngine()
	level, punitive = e2.Apply(10)
	assert.Equal(t, domain.AngerLevel(3), level)
	assert.True(t, punitive)
}

// TestEngine_NeverOutOfRange verifies the invariant over a mixed sequence
func TestEngine_NeverOutOfRange(t *testing.T) {
	e := NewEngine()
	for _, delta := range []int{1, 1, -1, 2, -4, 3, 1, 1, -2, 5} {
		level, _ := e.Apply(delta)
		assert.GreaterOrEqual(t, level, domain.AngerMin)
		assert.Less(t, level, domain.AngerMax, "level must never rest at the maximum")
	}
}

// TestMoodFor verifies the level-to-mood mapping
func TestMoodFor(t *testing.T) {
	assert.Equal(t, domain.MoodContent, MoodFor(0))
	assert.Equal(t, domain.MoodAnnoyed, MoodFor(1))
	assert.Equal(t, domain.MoodAngry, MoodFor(2))
	assert.Equal(t, domain.MoodFurious, MoodFor(3))
}
