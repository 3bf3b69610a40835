// Package schedule implements curfew window arithmetic: time-of-day parsing,
// midnight-spanning membership tests and next-occurrence computation.
package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/eliteGoblin/focusd/night_mon/internal/domain"
)

// timeOfDayRE accepts exactly HH:MM, 24-hour clock.
var timeOfDayRE = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// ParseTimeOfDay parses an "HH:MM" string.
func ParseTimeOfDay(s string) (domain.TimeOfDay, error) {
	m := timeOfDayRE.FindStringSubmatch(s)
	if m == nil {
		return domain.TimeOfDay{}, fmt.Errorf("invalid time of day %q: want HH:MM", s)
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	return domain.TimeOfDay{Hour: hour, Minute: minute}, nil
}

// TimeOfDayAt extracts the time-of-day from a timestamp.
func TimeOfDayAt(t time.Time) domain.TimeOfDay {
	return domain.TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
}

// minutes flattens a time-of-day to minutes since midnight.
func minutes(t domain.TimeOfDay) int {
	return t.Hour*60 + t.Minute
}

// InsideWindow reports whether now falls inside the curfew window.
// A window whose start is not before its end spans midnight: membership is
// then now >= start OR now <= end. Both bounds are inclusive.
func InsideWindow(now domain.TimeOfDay, w domain.CurfewWindow) bool {
	n, start, end := minutes(now), minutes(w.Start), minutes(w.End)
	if start < end {
		return n >= start && n <= end
	}
	return n >= start || n <= end
}

// NextOccurrence combines today's date with the given time-of-day; if the
// result is strictly before now it lands on tomorrow instead.
func NextOccurrence(t domain.TimeOfDay, now time.Time) time.Time {
	target := time.Date(now.Year(), now.Month(), now.Day(), t.Hour, t.Minute, 0, 0, now.Location())
	if target.Before(now) {
		target = target.AddDate(0, 0, 1)
	}
	return target
}
