package calendar

import (
	"time"

	appLog "courtcal/internal/log"
	"courtcal/internal/model"
	"courtcal/internal/weekday"
)

// DateLayout is the calendar date format used in class records.
const DateLayout = "2006-01-02"

// Occurs reports whether c takes place on date.
//
// One-off classes match their pinned date. Weekly classes match when one of
// their weekday labels canonicalizes to the date's weekday and the date lies
// within their start/end range, when set. A weekday label that does not
// canonicalize matches nothing: the class is left off the grid without an
// error.
func Occurs(c model.ScheduledClass, date time.Time) bool {
	day := date.Format(DateLayout)
	if c.IsOnce() {
		return c.StartDate == day
	}
	if c.StartDate != "" && day < c.StartDate {
		return false
	}
	if c.EndDate != "" && day > c.EndDate {
		return false
	}
	want := weekday.Of(date)
	for _, label := range c.DaysOfWeek {
		d, ok := weekday.Canonicalize(label)
		if !ok {
			appLog.Debug("unrecognized weekday label", "class", c.ID, "label", label)
			continue
		}
		if d == want {
			return true
		}
	}
	return false
}

// dateOnly strips the clock part of t, keeping its calendar date.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate reads a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
