// Package clock converts between "HH:MM" wall-clock labels and minutes
// since midnight.
package clock

import (
	"fmt"
	"strings"
	"time"
)

// MinutesPerDay bounds every minute offset handled here.
const MinutesPerDay = 24 * 60

// Parse reads "HH:MM" (or "HH:MM:SS", seconds ignored) into minutes since midnight.
func Parse(input string) (int, error) {
	input = strings.TrimSpace(input)
	layout := "15:04"
	if strings.Count(input, ":") == 2 {
		layout = "15:04:05"
	}
	parsed, err := time.Parse(layout, input)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q (expected HH:MM)", input)
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}

// Format renders minutes since midnight as a zero-padded "HH:MM" label.
func Format(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Normalize re-renders a time label in canonical "HH:MM" form.
func Normalize(input string) (string, error) {
	m, err := Parse(input)
	if err != nil {
		return "", err
	}
	return Format(m), nil
}
