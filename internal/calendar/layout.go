package calendar

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	appLog "courtcal/internal/log"
	"courtcal/internal/model"
	"courtcal/internal/weekday"
)

// Placement is a class anchored on a day grid with its side-by-side position.
type Placement struct {
	Class model.ScheduledClass `json:"class"`
	// Slot is the anchor slot, Span the number of visible slots covered.
	Slot int `json:"slot"`
	Span int `json:"span"`

	Column  int     `json:"column"`
	Columns int     `json:"columns"`
	Width   float64 `json:"width"`
	Left    float64 `json:"left"`
}

// End is the first slot after the placement.
func (p Placement) End() int {
	return p.Slot + p.Span
}

// Overlaps applies the half-open interval test to two placements.
func (p Placement) Overlaps(q Placement) bool {
	return !(p.End() <= q.Slot || p.Slot >= q.End())
}

// Indicator replaces the cards of several classes anchored in the same cell
// with a single card carrying a count badge.
type Indicator struct {
	Count int    `json:"count"`
	Label string `json:"label"`
}

// Cell is one (day, slot) coordinate. Anchors and Continuations index into
// DayLayout.Placements. A continuation cell belongs to the visual block of
// its anchor and never renders the class itself.
type Cell struct {
	Slot          int        `json:"slot"`
	Label         string     `json:"label"`
	Anchors       []int      `json:"anchors,omitempty"`
	Continuations []int      `json:"continuations,omitempty"`
	Indicator     *Indicator `json:"indicator,omitempty"`
}

// OverlapGroup is a set of placements laid out side by side.
type OverlapGroup struct {
	Members []int `json:"members"`
	Columns int   `json:"columns"`
}

// DayLayout is the computed grid for one calendar day.
type DayLayout struct {
	Date       string          `json:"date"`
	Weekday    weekday.Weekday `json:"weekday"`
	Cells      []Cell          `json:"cells"`
	Placements []Placement     `json:"placements"`
	Groups     []OverlapGroup  `json:"groups,omitempty"`
}

// Find returns the placement index of the class with the given id.
func (d DayLayout) Find(id string) (int, bool) {
	for i, p := range d.Placements {
		if p.Class.ID == id {
			return i, true
		}
	}
	return 0, false
}

// AnchorsAt returns the placements anchored at slot.
func (d DayLayout) AnchorsAt(slot int) []Placement {
	if slot < 0 || slot >= len(d.Cells) {
		return nil
	}
	out := make([]Placement, 0, len(d.Cells[slot].Anchors))
	for _, i := range d.Cells[slot].Anchors {
		out = append(out, d.Placements[i])
	}
	return out
}

// Engine computes calendar layouts for a fixed grid.
type Engine struct {
	Grid      Grid
	WeekStart weekday.Weekday
	// MaxInline caps the classes listed per month-view day before "+N more".
	MaxInline int
}

func NewEngine(grid Grid, weekStart weekday.Weekday, maxInline int) *Engine {
	if weekStart != weekday.Sunday {
		weekStart = weekday.Monday
	}
	if maxInline <= 0 {
		maxInline = DefaultMaxInline
	}
	return &Engine{Grid: grid, WeekStart: weekStart, MaxInline: maxInline}
}

// Day lays out every class occurring on date.
func (e *Engine) Day(date time.Time, classes []model.ScheduledClass) DayLayout {
	date = dateOnly(date)
	g := e.Grid
	out := DayLayout{
		Date:       date.Format(DateLayout),
		Weekday:    weekday.Of(date),
		Cells:      make([]Cell, g.Len()),
		Placements: []Placement{},
	}
	for i := range out.Cells {
		out.Cells[i] = Cell{Slot: i, Label: g.Label(i)}
	}

	for _, c := range classes {
		if !Occurs(c, date) {
			continue
		}
		slot, ok := g.SlotOf(c.StartTime)
		if !ok {
			appLog.Debug("class outside visible grid", "class", c.ID, "date", out.Date, "start", c.StartTime)
			continue
		}
		span := min(g.Span(c.Duration), g.Len()-slot)
		out.Placements = append(out.Placements, Placement{Class: c, Slot: slot, Span: span})
	}

	for i, p := range out.Placements {
		out.Cells[p.Slot].Anchors = append(out.Cells[p.Slot].Anchors, i)
		for s := p.Slot + 1; s < p.End(); s++ {
			out.Cells[s].Continuations = append(out.Cells[s].Continuations, i)
		}
	}
	for i := range out.Cells {
		if n := len(out.Cells[i].Anchors); n > 1 {
			out.Cells[i].Indicator = &Indicator{Count: n, Label: fmt.Sprintf("%d classes", n)}
		}
	}

	out.Groups = assignColumns(out.Placements)
	return out
}

// assignColumns gives each placement a column within the group of
// placements overlapping it, itself included. Groups are sorted by anchor
// slot, ties kept in input order. It returns the distinct groups with more
// than one member.
func assignColumns(ps []Placement) []OverlapGroup {
	var groups []OverlapGroup
	seen := map[string]bool{}

	for i := range ps {
		var members []int
		for j := range ps {
			if ps[i].Overlaps(ps[j]) {
				members = append(members, j)
			}
		}
		slices.SortStableFunc(members, func(a, b int) int {
			return ps[a].Slot - ps[b].Slot
		})

		col := slices.Index(members, i)
		n := len(members)
		width := 100 / float64(n)
		ps[i].Column = col
		ps[i].Columns = n
		ps[i].Width = width
		ps[i].Left = float64(col) * width

		if n < 2 {
			continue
		}
		key := groupKey(members)
		if seen[key] {
			continue
		}
		seen[key] = true
		groups = append(groups, OverlapGroup{Members: members, Columns: n})
	}
	return groups
}

func groupKey(members []int) string {
	sorted := slices.Clone(members)
	slices.Sort(sorted)
	parts := make([]string, len(sorted))
	for i, m := range sorted {
		parts[i] = strconv.Itoa(m)
	}
	return strings.Join(parts, ",")
}

// WeekOf returns the first day of the week containing date.
func (e *Engine) WeekOf(date time.Time) time.Time {
	date = dateOnly(date)
	offset := (int(weekday.Of(date)) - int(e.WeekStart) + 7) % 7
	return date.AddDate(0, 0, -offset)
}

// Week lays out the seven days of the week containing date.
func (e *Engine) Week(date time.Time, classes []model.ScheduledClass) []DayLayout {
	start := e.WeekOf(date)
	out := make([]DayLayout, 0, 7)
	for i := 0; i < 7; i++ {
		out = append(out, e.Day(start.AddDate(0, 0, i), classes))
	}
	return out
}
