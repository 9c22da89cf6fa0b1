package calendar

import (
	"fmt"
	"slices"
	"time"

	"courtcal/internal/clock"
	"courtcal/internal/model"
)

const DefaultMaxInline = 3

// MonthDay is one day of the month view: a count and the first few classes.
type MonthDay struct {
	Date     string                 `json:"date"`
	Day      int                    `json:"day"`
	InMonth  bool                   `json:"in_month"`
	Count    int                    `json:"count"`
	Visible  []model.ScheduledClass `json:"visible"`
	Overflow int                    `json:"overflow,omitempty"`
}

// OverflowLabel renders "+N more", or "" when everything is visible.
func (d MonthDay) OverflowLabel() string {
	if d.Overflow <= 0 {
		return ""
	}
	return fmt.Sprintf("+%d more", d.Overflow)
}

// MonthView is a month padded to full weeks.
type MonthView struct {
	Year  int          `json:"year"`
	Month time.Month   `json:"month"`
	Weeks [][]MonthDay `json:"weeks"`
}

// Month lists the classes of every day of the month, padded with the
// neighbouring days needed to fill whole weeks.
func (e *Engine) Month(year int, month time.Month, classes []model.ScheduledClass) MonthView {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	start := e.WeekOf(first)
	end := e.WeekOf(last).AddDate(0, 0, 6)

	view := MonthView{Year: year, Month: month}
	var week []MonthDay
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		week = append(week, e.monthDay(d, month, classes))
		if len(week) == 7 {
			view.Weeks = append(view.Weeks, week)
			week = nil
		}
	}
	return view
}

func (e *Engine) monthDay(date time.Time, month time.Month, classes []model.ScheduledClass) MonthDay {
	var matched []model.ScheduledClass
	for _, c := range classes {
		if Occurs(c, date) {
			matched = append(matched, c)
		}
	}
	slices.SortStableFunc(matched, func(a, b model.ScheduledClass) int {
		return startMinutes(a) - startMinutes(b)
	})

	visible := matched
	if len(visible) > e.MaxInline {
		visible = visible[:e.MaxInline]
	}
	return MonthDay{
		Date:     date.Format(DateLayout),
		Day:      date.Day(),
		InMonth:  date.Month() == month,
		Count:    len(matched),
		Visible:  append([]model.ScheduledClass{}, visible...),
		Overflow: len(matched) - len(visible),
	}
}

func startMinutes(c model.ScheduledClass) int {
	m, err := clock.Parse(c.StartTime)
	if err != nil {
		return clock.MinutesPerDay
	}
	return m
}
