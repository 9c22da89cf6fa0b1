package calendar

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"courtcal/internal/model"
	"courtcal/internal/weekday"
)

// 2024-06-03 is a Monday.
var monday = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

func weekly(id, day, start string, duration int) model.ScheduledClass {
	return model.ScheduledClass{
		ID:             id,
		Name:           "Class " + id,
		CourtNumber:    1,
		TrainerName:    "Ana",
		DaysOfWeek:     []string{day},
		StartDate:      "2024-06-01",
		EndDate:        "2024-06-30",
		RecurrenceType: model.RecurrenceWeekly,
		StartTime:      start,
		Duration:       duration,
	}
}

func once(id, date, start string, duration int) model.ScheduledClass {
	return model.ScheduledClass{
		ID:             id,
		Name:           "Class " + id,
		CourtNumber:    2,
		StartDate:      date,
		EndDate:        date,
		RecurrenceType: model.RecurrenceOnce,
		StartTime:      start,
		Duration:       duration,
	}
}

func newTestEngine() *Engine {
	return NewEngine(DefaultGrid(), weekday.Monday, 3)
}

func TestDayContinuationCells(t *testing.T) {
	d := newTestEngine().Day(monday, []model.ScheduledClass{weekly("a", "monday", "10:00", 90)})

	if len(d.Placements) != 1 {
		t.Fatalf("len(Placements) = %d, want 1", len(d.Placements))
	}
	p := d.Placements[0]
	if p.Slot != 4 || p.Span != 3 {
		t.Errorf("placement slot, span = %d, %d, want 4, 3", p.Slot, p.Span)
	}
	for _, s := range []int{5, 6} {
		c := d.Cells[s]
		if len(c.Anchors) != 0 {
			t.Errorf("cell %s anchors %v, continuation must not anchor", c.Label, c.Anchors)
		}
		if len(c.Continuations) != 1 {
			t.Errorf("cell %s continuations = %v, want [0]", c.Label, c.Continuations)
		}
	}
	if c := d.Cells[7]; len(c.Anchors)+len(c.Continuations) != 0 {
		t.Errorf("cell %s is not empty: %+v", c.Label, c)
	}

	var buf bytes.Buffer
	if err := WriteDay(&buf, d, weekday.Labels("en")); err != nil {
		t.Fatalf("WriteDay() error = %v", err)
	}
	if n := strings.Count(buf.String(), "Class a"); n != 1 {
		t.Errorf("rendered class %d times, want once:\n%s", n, buf.String())
	}
}

func TestDayOverlapColumns(t *testing.T) {
	d := newTestEngine().Day(monday, []model.ScheduledClass{
		weekly("a", "monday", "10:00", 60),
		weekly("b", "monday", "10:30", 60),
	})
	a, b := d.Placements[0], d.Placements[1]
	if a.Columns != 2 || b.Columns != 2 {
		t.Errorf("Columns = %d, %d, want 2, 2", a.Columns, b.Columns)
	}
	if a.Column == b.Column {
		t.Errorf("both placements in column %d", a.Column)
	}
	if a.Width+b.Width > 100 {
		t.Errorf("widths sum to %v", a.Width+b.Width)
	}
	if b.Left != 50 {
		t.Errorf("b.Left = %v, want 50", b.Left)
	}
	if len(d.Groups) != 1 || d.Groups[0].Columns != 2 {
		t.Errorf("Groups = %+v", d.Groups)
	}
}

func TestDayAdjacentClassesDoNotOverlap(t *testing.T) {
	d := newTestEngine().Day(monday, []model.ScheduledClass{
		weekly("a", "monday", "10:00", 60),
		weekly("b", "monday", "11:00", 60),
	})
	for _, p := range d.Placements {
		if p.Columns != 1 || p.Width != 100 || p.Left != 0 {
			t.Errorf("placement %s = %+v, want full width", p.Class.ID, p)
		}
	}
	if len(d.Groups) != 0 {
		t.Errorf("Groups = %+v, want none", d.Groups)
	}
}

func TestDayOverlapChain(t *testing.T) {
	d := newTestEngine().Day(monday, []model.ScheduledClass{
		weekly("c", "monday", "11:00", 60),
		weekly("a", "monday", "10:00", 60),
		weekly("b", "monday", "10:30", 60),
	})
	got := map[string][2]int{}
	for _, p := range d.Placements {
		got[p.Class.ID] = [2]int{p.Column, p.Columns}
	}
	want := map[string][2]int{
		"a": {0, 2},
		"b": {1, 3},
		"c": {1, 2},
	}
	for id, w := range want {
		if got[id] != w {
			t.Errorf("placement %s column/columns = %v, want %v", id, got[id], w)
		}
	}
}

func TestDaySameStartIndicator(t *testing.T) {
	d := newTestEngine().Day(monday, []model.ScheduledClass{
		weekly("a", "monday", "18:00", 60),
		weekly("b", "lunes", "18:00", 60),
		once("c", "2024-06-03", "18:00", 30),
	})
	cell := d.Cells[20]
	if cell.Label != "18:00" || cell.Indicator == nil || cell.Indicator.Count != 3 {
		t.Fatalf("cell = %+v, want indicator for 3 classes", cell)
	}
	// Ties keep input order.
	for i, p := range d.Placements {
		if p.Column != i || p.Columns != 3 {
			t.Errorf("placement %s column = %d/%d, want %d/3", p.Class.ID, p.Column, p.Columns, i)
		}
	}
}

func TestDayWeekdayMatching(t *testing.T) {
	wednesday := time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)
	classes := []model.ScheduledClass{
		weekly("accented", "miércoles", "09:00", 60),
		weekly("plain", "miercoles", "11:00", 60),
		weekly("english", "Wednesday", "13:00", 60),
		weekly("german", "Mittwoch", "15:00", 60),
		weekly("monday", "monday", "17:00", 60),
	}
	d := newTestEngine().Day(wednesday, classes)

	got := map[string]bool{}
	for _, p := range d.Placements {
		got[p.Class.ID] = true
	}
	for _, id := range []string{"accented", "plain", "english"} {
		if !got[id] {
			t.Errorf("class %s missing from wednesday", id)
		}
	}
	// Unrecognized labels are dropped silently.
	if got["german"] || got["monday"] {
		t.Errorf("placements = %v", got)
	}
}

func TestOccurs(t *testing.T) {
	tests := []struct {
		name  string
		class model.ScheduledClass
		date  time.Time
		want  bool
	}{
		{"weekly in range", weekly("a", "lunes", "10:00", 60), monday, true},
		{"weekly after end", weekly("a", "lunes", "10:00", 60), monday.AddDate(0, 1, 0), false},
		{"weekly wrong day", weekly("a", "martes", "10:00", 60), monday, false},
		{"once on date", once("b", "2024-06-03", "10:00", 60), monday, true},
		{"once other date", once("b", "2024-06-10", "10:00", 60), monday, false},
		{"weekly no range", model.ScheduledClass{DaysOfWeek: []string{"Mon"}, RecurrenceType: model.RecurrenceWeekly}, monday, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Occurs(tt.class, tt.date); got != tt.want {
				t.Errorf("Occurs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDayOutsideGrid(t *testing.T) {
	d := newTestEngine().Day(monday, []model.ScheduledClass{
		weekly("early", "monday", "07:00", 60),
		weekly("late", "monday", "21:30", 90),
	})
	if len(d.Placements) != 1 || d.Placements[0].Class.ID != "late" || d.Placements[0].Span != 1 {
		t.Errorf("Placements = %+v", d.Placements)
	}
}

func TestWeek(t *testing.T) {
	thursday := time.Date(2024, 6, 6, 15, 0, 0, 0, time.UTC)
	e := newTestEngine()
	days := e.Week(thursday, []model.ScheduledClass{weekly("a", "domingo", "10:00", 60)})
	if len(days) != 7 || days[0].Date != "2024-06-03" || days[6].Date != "2024-06-09" {
		t.Fatalf("Week() = %s..%s", days[0].Date, days[6].Date)
	}
	if len(days[6].Placements) != 1 {
		t.Errorf("sunday placements = %d, want 1", len(days[6].Placements))
	}

	e.WeekStart = weekday.Sunday
	if got := e.WeekOf(thursday).Format(DateLayout); got != "2024-06-02" {
		t.Errorf("WeekOf() with sunday start = %s, want 2024-06-02", got)
	}
}
