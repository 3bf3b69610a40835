package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliteGoblin/focusd/night_mon/internal/domain"
)

// TestParseTimeOfDay verifies HH:MM parsing and rejection of malformed input
func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("22:00")
	require.NoError(t, err)
	assert.Equal(t, domain.TimeOfDay{Hour: 22, Minute: 0}, tod)

	tod, err = ParseTimeOfDay("00:59")
	require.NoError(t, err)
	assert.Equal(t, domain.TimeOfDay{Hour: 0, Minute: 59}, tod)

	for _, bad := range []string{"", "24:00", "7:30", "07:60", "0700", "07:30:00", "late"} {
		_, err := ParseTimeOfDay(bad)
		assert.Error(t, err, "input %q should be rejected", bad)
	}
}

// TestInsideWindow_SameDay verifies membership for a window within one day
func TestInsideWindow_SameDay(t *testing.T) {
	w := domain.CurfewWindow{
		Start: domain.TimeOfDay{Hour: 14, Minute: 0},
		End:   domain.TimeOfDay{Hour: 16, Minute: 0},
	}

	assert.True(t, InsideWindow(domain.TimeOfDay{Hour: 14, Minute: 0}, w))
	assert.True(t, InsideWindow(domain.TimeOfDay{Hour: 15, Minute: 30}, w))
	assert.True(t, InsideWindow(domain.TimeOfDay{Hour: 16, Minute: 0}, w))
	assert.False(t, InsideWindow(domain.TimeOfDay{Hour: 17, Minute: 0}, w))
	assert.False(t, InsideWindow(domain.TimeOfDay{Hour: 13, Minute: 59}, w))
}

// TestInsideWindow_SpansMidnight verifies membership for an overnight window
func TestInsideWindow_SpansMidnight(t *testing.T) {
	w := domain.CurfewWindow{
		Start: domain.TimeOfDay{Hour: 23, Minute: 0},
		End:   domain.TimeOfDay{Hour: 7, Minute: 0},
	}

	assert.True(t, InsideWindow(domain.TimeOfDay{Hour: 0, Minute: 30}, w))
	assert.True(t, InsideWindow(domain.TimeOfDay{Hour: 23, Minute: 0}, w))
	assert.True(t, InsideWindow(domain.TimeOfDay{Hour: 6, Minute: 59}, w))
	assert.True(t, InsideWindow(domain.TimeOfDay{Hour: 7, Minute: 0}, w))
	assert.False(t, InsideWindow(domain.TimeOfDay{Hour: 12, Minute: 0}, w))
	assert.False(t, InsideWindow(domain.TimeOfDay{Hour: 22, Minute: 59}, w))
}

// TestNextOccurrence verifies today-vs-tomorrow selection
func TestNextOccurrence(t *testing.T) {
	tod := domain.TimeOfDay{Hour: 23, Minute: 0}

	now := time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC)
	got := NextOccurrence(tod, now)
	assert.Equal(t, time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC), got)

	now = time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)
	got = NextOccurrence(tod, now)
	assert.Equal(t, time.Date(2026, 3, 11, 23, 0, 0, 0, time.UTC), got)

	// Exact hit counts as today
	now = time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	got = NextOccurrence(tod, now)
	assert.Equal(t, now, got)
}

// TestDeadline_CheckpointsFireOnce verifies the per-epoch fired set
func TestDeadline_CheckpointsFireOnce(t *testing.T) {
	d := domain.NewDeadline(time.Now().Add(20 * time.Minute))

	assert.False(t, d.Fired(15))
	d.MarkFired(15)
	assert.True(t, d.Fired(15))

	// Extending does not clear fired checkpoints
	d.Extend(20)
	assert.True(t, d.Fired(15))
	assert.False(t, d.Fired(5))
}
