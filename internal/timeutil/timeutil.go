// Package timeutil provides minute-granularity time arithmetic for the
// scheduling engine. All interval checks in the application go through
// IsOverlapping so that every subsystem agrees on overlap semantics.
package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinutesPerDay is the number of minutes in a calendar day.
const MinutesPerDay = 24 * 60

// FormatError reports a time string that is not in "HH:MM" form.
type FormatError struct {
	Input string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid time format: %q (want HH:MM)", e.Input)
}

// TimeToMinutes parses an "HH:MM" string into minutes since midnight.
func TimeToMinutes(t string) (int, error) {
	parts := strings.Split(t, ":")
	if len(parts) != 2 {
		return 0, &FormatError{Input: t}
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, &FormatError{Input: t}
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, &FormatError{Input: t}
	}

	return hour*60 + minute, nil
}

// MinutesToTime formats minutes since midnight as a zero-padded "HH:MM"
// string. The caller is responsible for keeping m within [0, MinutesPerDay);
// out-of-range values are not clamped here.
func MinutesToTime(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// IsOverlapping reports whether the half-open intervals [s1, e1) and
// [s2, e2) overlap. Intervals that share only an endpoint do not overlap.
func IsOverlapping(s1, e1, s2, e2 int) bool {
	return s1 < e2 && e1 > s2
}

// SameDay reports whether a and b fall on the same calendar date,
// ignoring the time of day.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// DateOnly truncates t to midnight in its own location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
