package calendar

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"courtcal/internal/weekday"
)

// WriteDay prints a day grid as text. Continuation cells print a bar only.
func WriteDay(w io.Writer, d DayLayout, labels weekday.Labeler) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s %s\n", labels.Label(d.Weekday), d.Date)
	for _, cell := range d.Cells {
		fmt.Fprintf(tw, "%s\t%s\n", cell.Label, cellText(d, cell))
	}
	return tw.Flush()
}

func cellText(d DayLayout, cell Cell) string {
	var parts []string
	if cell.Indicator != nil {
		names := make([]string, 0, len(cell.Anchors))
		for _, i := range cell.Anchors {
			names = append(names, d.Placements[i].Class.Name)
		}
		parts = append(parts, fmt.Sprintf("[%s] %s", cell.Indicator.Label, strings.Join(names, ", ")))
	} else {
		for _, i := range cell.Anchors {
			p := d.Placements[i]
			text := fmt.Sprintf("%s (court %d, %s, %d min)", p.Class.Name, p.Class.CourtNumber, trainerLabel(p), p.Class.Duration)
			if p.Columns > 1 {
				text += fmt.Sprintf(" [col %d/%d]", p.Column+1, p.Columns)
			}
			parts = append(parts, text)
		}
	}
	if len(cell.Continuations) > 0 {
		parts = append([]string{strings.Repeat("|", len(cell.Continuations))}, parts...)
	}
	return strings.Join(parts, " ")
}

func trainerLabel(p Placement) string {
	if p.Class.TrainerName != "" {
		return p.Class.TrainerName
	}
	return p.Class.TrainerID
}

// WriteWeek prints each day of a week one after the other, skipping empty days.
func WriteWeek(w io.Writer, days []DayLayout, labels weekday.Labeler) error {
	for _, d := range days {
		if len(d.Placements) == 0 {
			if _, err := fmt.Fprintf(w, "%s %s: no classes\n", labels.Label(d.Weekday), d.Date); err != nil {
				return err
			}
			continue
		}
		if err := WriteDay(w, d, labels); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

// WriteMonth prints a month as one line per day with classes.
func WriteMonth(w io.Writer, m MonthView) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%d-%02d\n", m.Year, int(m.Month))
	for _, week := range m.Weeks {
		for _, d := range week {
			if !d.InMonth || d.Count == 0 {
				continue
			}
			names := make([]string, 0, len(d.Visible)+1)
			for _, c := range d.Visible {
				names = append(names, c.StartTime+" "+c.Name)
			}
			if l := d.OverflowLabel(); l != "" {
				names = append(names, l)
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\n", d.Date, d.Count, strings.Join(names, "; "))
		}
	}
	return tw.Flush()
}
