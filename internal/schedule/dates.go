package schedule

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"courtcal/internal/weekday"
)

var rruleDays = map[weekday.Weekday]rrule.Weekday{
	weekday.Monday:    rrule.MO,
	weekday.Tuesday:   rrule.TU,
	weekday.Wednesday: rrule.WE,
	weekday.Thursday:  rrule.TH,
	weekday.Friday:    rrule.FR,
	weekday.Saturday:  rrule.SA,
	weekday.Sunday:    rrule.SU,
}

// RRuleDay maps a canonical weekday onto its RRULE BYDAY value.
func RRuleDay(d weekday.Weekday) (rrule.Weekday, bool) {
	rd, ok := rruleDays[d]
	return rd, ok
}

// ExpandDates lists every date in [start, end] (both inclusive, YYYY-MM-DD)
// that falls on d. A range with no matching day yields an empty list.
func ExpandDates(start, end string, d weekday.Weekday) ([]string, error) {
	from, err := time.Parse(DateLayout, start)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	until, err := time.Parse(DateLayout, end)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", end, err)
	}
	rd, ok := RRuleDay(d)
	if !ok {
		return nil, fmt.Errorf("invalid weekday %v", d)
	}
	if until.Before(from) {
		return []string{}, nil
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: []rrule.Weekday{rd},
		Dtstart:   from,
		Until:     until,
	})
	if err != nil {
		return nil, err
	}

	occ := r.All()
	out := make([]string, 0, len(occ))
	for _, t := range occ {
		out = append(out, t.Format(DateLayout))
	}
	return out, nil
}
