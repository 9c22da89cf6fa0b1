// Package calendar lays class records out on a day/week/month grid of
// fixed-size time slots.
package calendar

import (
	"fmt"

	"courtcal/internal/clock"
)

const (
	DefaultGranularity = 30
	DefaultGridStart   = "08:00"
	DefaultGridEnd     = "22:00"
)

// Grid is the visible window [Start, End) cut into Granularity-minute slots.
type Grid struct {
	Granularity int
	Start       int
	End         int
}

// DefaultGrid is 08:00-22:00 in 30 minute slots.
func DefaultGrid() Grid {
	g, _ := NewGrid(DefaultGranularity, DefaultGridStart, DefaultGridEnd)
	return g
}

func NewGrid(granularity int, start, end string) (Grid, error) {
	if granularity <= 0 {
		return Grid{}, fmt.Errorf("granularity must be positive, got %d", granularity)
	}
	s, err := clock.Parse(start)
	if err != nil {
		return Grid{}, err
	}
	e, err := clock.Parse(end)
	if err != nil {
		return Grid{}, err
	}
	if e <= s {
		return Grid{}, fmt.Errorf("grid end %s must be after start %s", end, start)
	}
	return Grid{Granularity: granularity, Start: s, End: e}, nil
}

// Len is the number of slots in the window.
func (g Grid) Len() int {
	return (g.End - g.Start + g.Granularity - 1) / g.Granularity
}

// Label returns the "HH:MM" label of a slot.
func (g Grid) Label(slot int) string {
	return clock.Format(g.Start + slot*g.Granularity)
}

// Labels enumerates every slot label in order.
func (g Grid) Labels() []string {
	out := make([]string, g.Len())
	for i := range out {
		out[i] = g.Label(i)
	}
	return out
}

// SlotOf returns the slot containing the time label t, or false when t is
// unparsable or outside the window.
func (g Grid) SlotOf(t string) (int, bool) {
	m, err := clock.Parse(t)
	if err != nil || m < g.Start || m >= g.End {
		return 0, false
	}
	return (m - g.Start) / g.Granularity, true
}

// Span is the number of slots a class of the given duration occupies:
// ceil(duration / granularity), and at least one.
func (g Grid) Span(duration int) int {
	n := (duration + g.Granularity - 1) / g.Granularity
	if n < 1 {
		return 1
	}
	return n
}

// SlotRef is one slot of an occupied span.
type SlotRef struct {
	Slot   int    `json:"slot"`
	Label  string `json:"label"`
	Anchor bool   `json:"anchor"`
}

// Occupy lists the slots covered by a class starting at start. Only the first
// is the anchor; the rest are continuation slots. Slots past the window are
// clipped.
func (g Grid) Occupy(start string, duration int) []SlotRef {
	first, ok := g.SlotOf(start)
	if !ok {
		return nil
	}
	span := min(g.Span(duration), g.Len()-first)
	out := make([]SlotRef, 0, span)
	for i := 0; i < span; i++ {
		out = append(out, SlotRef{Slot: first + i, Label: g.Label(first + i), Anchor: i == 0})
	}
	return out
}
