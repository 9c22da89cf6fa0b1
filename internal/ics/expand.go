package ics

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	appLog "courtcal/internal/log"
	"courtcal/internal/model"
	"courtcal/internal/schedule"
	"courtcal/internal/weekday"
)

const (
	defaultMaxOccurrencesPerEvent = 5000
)

// MaxOccurrencesPerEvent caps how many one-off classes a single imported
// rule may expand into.
var MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent

// weeklyClass maps a plain weekly rule (every week, BYDAY only, no COUNT and
// no EXDATE) onto a weekly class.
func weeklyClass(c model.ScheduledClass, ev parsedEvent, loc *time.Location) (model.ScheduledClass, bool) {
	opt, err := rrule.StrToROption(ev.RawRRule)
	if err != nil {
		return c, false
	}
	if opt.Freq != rrule.WEEKLY || opt.Interval > 1 || opt.Count > 0 || len(ev.ExDates) > 0 ||
		len(opt.Bymonth) > 0 || len(opt.Bysetpos) > 0 {
		return c, false
	}

	days := opt.Byweekday
	if len(days) == 0 {
		rd, _ := schedule.RRuleDay(weekday.Of(ev.Start.In(loc)))
		days = []rrule.Weekday{rd}
	}
	seen := map[weekday.Weekday]bool{}
	for _, rd := range days {
		if rd.N() != 0 {
			return c, false
		}
		d := weekday.Weekday(rd.Day() + 1)
		if !seen[d] {
			seen[d] = true
			c.DaysOfWeek = append(c.DaysOfWeek, d.Key())
		}
	}

	c.RecurrenceType = model.RecurrenceWeekly
	c.StartDate = ev.Start.In(loc).Format(schedule.DateLayout)
	if !opt.Until.IsZero() {
		c.EndDate = opt.Until.In(loc).Format(schedule.DateLayout)
	}
	return c, true
}

// expandToOnce turns any other recurrence into one-off classes, honoring
// EXDATE. Rules without COUNT or UNTIL stop at MaxOccurrencesPerEvent.
func expandToOnce(c model.ScheduledClass, ev parsedEvent, loc *time.Location) ([]model.ScheduledClass, error) {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		return nil, fmt.Errorf("parse RRULE %q: %w", ev.RawRRule, err)
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	limit := MaxOccurrencesPerEvent
	if limit <= 0 {
		limit = defaultMaxOccurrencesPerEvent
	}
	var times []time.Time
	next := set.Iterator()
	for len(times) <= limit {
		t, ok := next()
		if !ok {
			break
		}
		times = append(times, t)
	}
	if len(times) > limit {
		times = times[:limit]
		appLog.Error("ics import: truncated occurrences for UID due to cap",
			errors.New("max occurrences reached"),
			"uid", ev.UID,
			"cap", limit,
		)
	}

	out := make([]model.ScheduledClass, 0, len(times))
	for _, t := range times {
		date := t.In(loc).Format(schedule.DateLayout)
		once := c
		once.ID = fmt.Sprintf("%s-%s", c.ID, date)
		once.RecurrenceType = model.RecurrenceOnce
		once.StartDate = date
		once.EndDate = date
		once.Participants = append([]string(nil), c.Participants...)
		out = append(out, once)
	}
	return out, nil
}
