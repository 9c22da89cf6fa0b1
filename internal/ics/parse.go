package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"courtcal/internal/clock"
	appLog "courtcal/internal/log"
	"courtcal/internal/model"
	"courtcal/internal/schedule"
)

// parsedEvent is the normalized representation of a VEVENT before it is
// mapped onto class records.
type parsedEvent struct {
	UID         string
	Summary     string
	Description string
	Location    string

	Start  time.Time
	End    time.Time
	AllDay bool

	RawRRule   string
	ExDates    []time.Time
	IsOverride bool // RECURRENCE-ID present

	X map[string]string
}

var textUnescaper = strings.NewReplacer(`\n`, "\n", `\N`, "\n", `\,`, ",", `\;`, ";", `\\`, `\`)

// Import parses an ICS payload into class records with wall-clock times in
// loc.
//
//   - Timed events without RRULE become one-off classes.
//   - A plain weekly RRULE becomes a weekly class on its BYDAY days.
//   - Any other rule is expanded into one-off classes (see expand.go).
//   - All-day events and RECURRENCE-ID overrides are skipped.
func Import(body []byte, loc *time.Location) ([]model.ScheduledClass, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}
	if loc == nil {
		loc = time.Local
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err)
		return nil, err
	}

	classes := make([]model.ScheduledClass, 0)
	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(comp)
		if perr != nil {
			// Log and skip this event, but keep parsing others.
			appLog.Error("ics vevent parse failed", perr)
			continue
		}
		switch {
		case ev.AllDay:
			appLog.Debug("ics skipping all-day event", "uid", ev.UID)
			continue
		case ev.IsOverride:
			appLog.Warn("ics skipping recurrence override", "uid", ev.UID)
			continue
		}
		out, err := toClasses(ev, loc)
		if err != nil {
			appLog.Error("ics event not imported", err, "uid", ev.UID)
			continue
		}
		classes = append(classes, out...)
	}

	appLog.Info("ics import completed", "event_count", len(cal.Events()), "class_count", len(classes))
	return classes, nil
}

func parseVEvent(ve *ical.VEvent) (parsedEvent, error) {
	var out parsedEvent

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = textUnescaper.Replace(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = textUnescaper.Replace(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = textUnescaper.Replace(p.Value)
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return out, fmt.Errorf("DTSTART: %w", err)
	}
	out.Start = start
	if end, err := ve.GetEndAt(); err == nil {
		out.End = end
	}

	if dtStartProp := ve.GetProperty(ical.ComponentPropertyDtStart); dtStartProp != nil {
		if vs, ok := dtStartProp.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			out.AllDay = true
		}
		if !strings.Contains(dtStartProp.Value, "T") {
			out.AllDay = true
		}
	}

	if rruleProp := ve.GetProperty(ical.ComponentPropertyRrule); rruleProp != nil {
		out.RawRRule = rruleProp.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		loc := start.Location()
		if tzs, ok := p.ICalParameters["TZID"]; ok && len(tzs) > 0 {
			if l, err := time.LoadLocation(tzs[0]); err == nil {
				loc = l
			}
		}
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(strings.TrimSpace(part), loc); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	if ve.GetProperty("RECURRENCE-ID") != nil {
		out.IsOverride = true
	}

	out.X = map[string]string{}
	for _, p := range ve.Properties {
		if strings.HasPrefix(p.IANAToken, "X-COURTCAL-") {
			out.X[p.IANAToken] = p.Value
		}
	}
	return out, nil
}

// parseICSTime parses a basic ICS date/date-time string. Floating values are
// read in loc.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation(localTimestamp, v, loc)
	}
	return time.ParseInLocation("20060102", v, loc)
}

// classTemplate maps everything but the recurrence onto a class record.
func classTemplate(ev parsedEvent, loc *time.Location) model.ScheduledClass {
	start := ev.Start.In(loc)
	c := model.ScheduledClass{
		ID:          strings.TrimSuffix(ev.UID, uidSuffix),
		ClubID:      ev.X[propClub],
		Name:        ev.Summary,
		TrainerID:   ev.X[propTrainerID],
		TrainerName: ev.X[propTrainerName],
		StartTime:   clock.Format(start.Hour()*60 + start.Minute()),
		Duration:    60,
	}
	if !ev.End.IsZero() && ev.End.After(ev.Start) {
		c.Duration = int(ev.End.Sub(ev.Start) / time.Minute)
	}

	if n, err := strconv.Atoi(ev.X[propCourt]); err == nil {
		c.CourtNumber = n
	} else {
		_, _ = fmt.Sscanf(ev.Location, "Court %d", &c.CourtNumber)
	}
	if c.TrainerName == "" {
		c.TrainerName = strings.TrimPrefix(ev.Description, "Trainer: ")
	}
	c.Price, _ = strconv.ParseFloat(ev.X[propPrice], 64)
	c.Capacity, _ = strconv.Atoi(ev.X[propCapacity])
	c.LevelFrom, _ = strconv.ParseFloat(ev.X[propLevelFrom], 64)
	c.LevelTo, _ = strconv.ParseFloat(ev.X[propLevelTo], 64)
	if v := ev.X[propParticipants]; v != "" {
		c.Participants = strings.Split(v, ",")
	}
	return c
}

func toClasses(ev parsedEvent, loc *time.Location) ([]model.ScheduledClass, error) {
	c := classTemplate(ev, loc)
	if ev.RawRRule == "" {
		date := ev.Start.In(loc).Format(schedule.DateLayout)
		c.RecurrenceType = model.RecurrenceOnce
		c.StartDate = date
		c.EndDate = date
		return []model.ScheduledClass{c}, nil
	}

	if weekly, ok := weeklyClass(c, ev, loc); ok {
		return []model.ScheduledClass{weekly}, nil
	}
	return expandToOnce(c, ev, loc)
}
