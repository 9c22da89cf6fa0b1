// Package ics converts scheduled classes to and from iCalendar.
package ics

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"courtcal/internal/clock"
	appLog "courtcal/internal/log"
	"courtcal/internal/model"
	"courtcal/internal/schedule"
	"courtcal/internal/weekday"
)

const (
	uidSuffix      = "@courtcal"
	productID      = "-//courtcal//scheduled classes//EN"
	localTimestamp = "20060102T150405"
)

// Class attributes without a standard VEVENT property.
const (
	propClub         = "X-COURTCAL-CLUB"
	propCourt        = "X-COURTCAL-COURT"
	propTrainerID    = "X-COURTCAL-TRAINER-ID"
	propTrainerName  = "X-COURTCAL-TRAINER"
	propPrice        = "X-COURTCAL-PRICE"
	propCapacity     = "X-COURTCAL-CAPACITY"
	propLevelFrom    = "X-COURTCAL-LEVEL-FROM"
	propLevelTo      = "X-COURTCAL-LEVEL-TO"
	propParticipants = "X-COURTCAL-PARTICIPANTS"
)

var now = time.Now

// Export builds a calendar with one VEVENT per class, wall-clock times in
// loc. Weekly classes carry a FREQ=WEEKLY rule anchored on their first
// occurrence; classes that cannot be placed are logged and left out.
func Export(classes []model.ScheduledClass, loc *time.Location) *ical.Calendar {
	if loc == nil {
		loc = time.Local
	}
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName("courtcal")
	cal.SetXWRTimezone(loc.String())

	stamp := now().UTC()
	exported := 0
	for _, c := range classes {
		if err := addEvent(cal, c, loc, stamp); err != nil {
			appLog.Warn("ics export skipped class", "class", c.ID, "reason", err)
			continue
		}
		exported++
	}

	appLog.Info("ics export completed", "classes", len(classes), "exported", exported)
	return cal
}

// ExportString renders Export as ICS text.
func ExportString(classes []model.ScheduledClass, loc *time.Location) string {
	return Export(classes, loc).Serialize()
}

func addEvent(cal *ical.Calendar, c model.ScheduledClass, loc *time.Location, stamp time.Time) error {
	if c.ID == "" {
		return errors.New("class has no id")
	}
	minutes, err := clock.Parse(c.StartTime)
	if err != nil {
		return err
	}

	var start time.Time
	var rule string
	if c.IsOnce() {
		start, err = wallClock(c.StartDate, minutes, loc)
		if err != nil {
			return err
		}
	} else {
		start, rule, err = weeklyRule(c, minutes, loc)
		if err != nil {
			return err
		}
	}
	end := start.Add(time.Duration(c.Duration) * time.Minute)

	tzid := &ical.KeyValues{Key: "TZID", Value: []string{loc.String()}}
	ev := cal.AddEvent(c.ID + uidSuffix)
	ev.SetDtStampTime(stamp)
	ev.SetProperty(ical.ComponentPropertyDtStart, start.Format(localTimestamp), tzid)
	ev.SetProperty(ical.ComponentPropertyDtEnd, end.Format(localTimestamp), tzid)
	ev.SetSummary(c.Name)
	ev.SetLocation(fmt.Sprintf("Court %d", c.CourtNumber))
	if c.TrainerName != "" {
		ev.SetDescription("Trainer: " + c.TrainerName)
	}
	if rule != "" {
		ev.SetProperty(ical.ComponentPropertyRrule, rule)
	}

	setX(ev, propClub, c.ClubID)
	setX(ev, propCourt, strconv.Itoa(c.CourtNumber))
	setX(ev, propTrainerID, c.TrainerID)
	setX(ev, propTrainerName, c.TrainerName)
	setX(ev, propPrice, strconv.FormatFloat(c.Price, 'f', -1, 64))
	setX(ev, propCapacity, strconv.Itoa(c.Capacity))
	if c.LevelFrom != 0 || c.LevelTo != 0 {
		setX(ev, propLevelFrom, strconv.FormatFloat(c.LevelFrom, 'f', -1, 64))
		setX(ev, propLevelTo, strconv.FormatFloat(c.LevelTo, 'f', -1, 64))
	}
	setX(ev, propParticipants, strings.Join(c.Participants, ","))
	return nil
}

func setX(ev *ical.VEvent, name, value string) {
	if value == "" {
		return
	}
	ev.SetProperty(ical.ComponentProperty(name), value)
}

func wallClock(date string, minutes int, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(schedule.DateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return d.Add(time.Duration(minutes) * time.Minute), nil
}

// weeklyRule returns the first occurrence of a weekly class and its RRULE
// value. The range defaults to starting today and being open-ended.
func weeklyRule(c model.ScheduledClass, minutes int, loc *time.Location) (time.Time, string, error) {
	var days []rrule.Weekday
	for _, label := range c.DaysOfWeek {
		d, ok := weekday.Canonicalize(label)
		if !ok {
			continue
		}
		if rd, ok := schedule.RRuleDay(d); ok {
			days = append(days, rd)
		}
	}
	if len(days) == 0 {
		return time.Time{}, "", fmt.Errorf("no recognized weekday in %v", c.DaysOfWeek)
	}

	from := c.StartDate
	if from == "" {
		from = now().In(loc).Format(schedule.DateLayout)
	}
	dtstart, err := wallClock(from, minutes, loc)
	if err != nil {
		return time.Time{}, "", err
	}

	opt := rrule.ROption{Freq: rrule.WEEKLY, Byweekday: days, Dtstart: dtstart}
	if c.EndDate != "" {
		last, err := wallClock(c.EndDate, clock.MinutesPerDay-1, loc)
		if err != nil {
			return time.Time{}, "", err
		}
		opt.Until = last.Add(59 * time.Second)
	}
	r, err := rrule.NewRRule(opt)
	if err != nil {
		return time.Time{}, "", err
	}
	first := r.After(dtstart, true)
	if first.IsZero() {
		return time.Time{}, "", errors.New("no occurrence within the class date range")
	}

	// Anchor on the first real occurrence so DTSTART matches the rule.
	opt.Dtstart = time.Time{}
	return first, opt.RRuleString(), nil
}

// WriteFile exports classes to path atomically (temp file + rename).
func WriteFile(path string, classes []model.ScheduledClass, loc *time.Location) error {
	if path == "" {
		return errors.New("export path is empty")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".courtcal-export-*.ics")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(ExportString(classes, loc)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
