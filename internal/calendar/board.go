package calendar

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"courtcal/internal/clock"
	appLog "courtcal/internal/log"
	"courtcal/internal/model"
	"courtcal/internal/weekday"
)

var ErrClassNotFound = errors.New("class not found")

// RelocationRequest asks to move a class to a destination cell. From is the
// date of the occurrence being dragged; it is required for weekly classes
// that run on more than one day.
type RelocationRequest struct {
	ClassID string `json:"class_id"`
	From    string `json:"from,omitempty"`
	Date    string `json:"date"`
	Time    string `json:"time"`
}

// RelocationIntent is sent to the persistence collaborator once the
// destination is known to be free. For weekly classes FromWeekday names the
// day being moved. A non-empty SplitID moves that day out into a new weekly
// class with that id, leaving the other days at their current time.
type RelocationIntent struct {
	ClassID     string          `json:"instance_id"`
	FromWeekday weekday.Weekday `json:"from_weekday,omitempty"`
	NewDate     string          `json:"new_day"`
	NewWeekday  weekday.Weekday `json:"new_weekday"`
	NewTime     string          `json:"new_time"`
	SplitID     string          `json:"split_id,omitempty"`
}

// Relocator persists relocations.
type Relocator interface {
	Relocate(ctx context.Context, intent RelocationIntent) error
}

// Remover frees the slot of a cancelled class.
type Remover interface {
	Remove(ctx context.Context, classID string) error
}

// Reason explains a locally rejected relocation.
type Reason string

const (
	ReasonOccupied     Reason = "occupied"
	ReasonUnknownClass Reason = "unknown_class"
	ReasonOutsideGrid  Reason = "outside_grid"
	ReasonUnchanged    Reason = "unchanged"
	ReasonInvalid      Reason = "invalid_request"
)

// RelocationResult reports what happened to a request. A rejected request
// has Accepted false and a Reason; nothing was sent to the collaborator.
// Split holds the class created when one day of a weekly series moved to a
// new time.
type RelocationResult struct {
	Accepted bool                  `json:"accepted"`
	Reason   Reason                `json:"reason,omitempty"`
	Class    model.ScheduledClass  `json:"class"`
	Split    *model.ScheduledClass `json:"split,omitempty"`
}

// Board is the set of confirmed classes shown on the calendar. Changes are
// applied only after the collaborator confirms them.
type Board struct {
	engine    *Engine
	relocator Relocator
	remover   Remover

	mu      sync.RWMutex
	classes []model.ScheduledClass
	states  map[string]model.State
}

func NewBoard(engine *Engine, classes []model.ScheduledClass, relocator Relocator, remover Remover) *Board {
	b := &Board{engine: engine, relocator: relocator, remover: remover}
	b.Replace(classes)
	return b
}

// Replace swaps in a fresh snapshot of classes, all displayed.
func (b *Board) Replace(classes []model.ScheduledClass) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.classes = slices.Clone(classes)
	b.states = make(map[string]model.State, len(classes))
	for _, c := range classes {
		b.states[c.ID] = model.StateDisplayed
	}
}

// Classes returns a copy of the current snapshot.
func (b *Board) Classes() []model.ScheduledClass {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.classes)
}

// State returns the lifecycle state of a class; cancelled classes keep
// reporting StateCancelled.
func (b *Board) State(id string) (model.State, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.states[id]
	return s, ok
}

func (b *Board) Engine() *Engine {
	return b.engine
}

func (b *Board) Day(date time.Time) DayLayout {
	return b.engine.Day(date, b.Classes())
}

func (b *Board) Week(date time.Time) []DayLayout {
	return b.engine.Week(date, b.Classes())
}

func (b *Board) Month(year int, month time.Month) MonthView {
	return b.engine.Month(year, month, b.Classes())
}

func (b *Board) find(id string) (int, bool) {
	i := slices.IndexFunc(b.classes, func(c model.ScheduledClass) bool { return c.ID == id })
	return i, i >= 0
}

// Relocate moves a class to an empty destination cell. The destination must
// anchor no class; there is no merge or swap. A locally rejected request
// returns a result with a Reason and a nil error. A collaborator failure
// returns an error and leaves the board unchanged.
func (b *Board) Relocate(ctx context.Context, req RelocationRequest) (RelocationResult, error) {
	date, err := ParseDate(req.Date)
	if err != nil {
		return RelocationResult{Reason: ReasonInvalid}, nil
	}

	b.mu.RLock()
	idx, ok := b.find(req.ClassID)
	if !ok {
		b.mu.RUnlock()
		return RelocationResult{Reason: ReasonUnknownClass}, nil
	}
	class := b.classes[idx]
	state := b.states[class.ID]
	from, fromErr := sourceWeekday(class, req.From)
	slot, inGrid := b.engine.Grid.SlotOf(req.Time)
	var day DayLayout
	if inGrid {
		day = b.engine.Day(date, b.classes)
	}
	b.mu.RUnlock()

	if fromErr != nil {
		appLog.Debug("relocation rejected", "class", class.ID, "from", req.From, "reason", fromErr)
		return RelocationResult{Reason: ReasonInvalid, Class: class}, nil
	}
	if !inGrid {
		return RelocationResult{Reason: ReasonOutsideGrid, Class: class}, nil
	}
	anchored := day.AnchorsAt(slot)
	if len(anchored) == 1 && anchored[0].Class.ID == class.ID && (class.IsOnce() || day.Weekday == from) {
		return RelocationResult{Reason: ReasonUnchanged, Class: class}, nil
	}
	if len(anchored) > 0 {
		appLog.Debug("relocation rejected", "class", class.ID, "date", req.Date, "time", req.Time, "reason", ReasonOccupied)
		return RelocationResult{Reason: ReasonOccupied, Class: class}, nil
	}
	if _, err := model.Next(state, model.EventRelocate); err != nil {
		return RelocationResult{Reason: ReasonInvalid, Class: class}, nil
	}

	intent := RelocationIntent{
		ClassID:     class.ID,
		FromWeekday: from,
		NewDate:     day.Date,
		NewWeekday:  day.Weekday,
		NewTime:     b.engine.Grid.Label(slot),
	}
	if len(classDays(class)) > 1 && !sameTime(class.StartTime, intent.NewTime) {
		intent.SplitID = uuid.NewString()
	}
	if err := b.relocator.Relocate(ctx, intent); err != nil {
		appLog.Error("relocation failed", err, "class", class.ID, "date", intent.NewDate, "time", intent.NewTime)
		return RelocationResult{Class: class}, fmt.Errorf("relocate %s: %w", class.ID, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	idx, ok = b.find(class.ID)
	if !ok {
		// Removed while the collaborator was confirming.
		return RelocationResult{Reason: ReasonUnknownClass}, nil
	}
	moved, split := Apply(b.classes[idx], intent)
	b.classes[idx] = moved
	relocated, _ := model.Next(state, model.EventRelocate)
	b.states[moved.ID], _ = model.Next(relocated, model.EventDisplay)
	if split != nil {
		b.classes = append(b.classes, *split)
		b.states[split.ID] = model.StateDisplayed
	}

	appLog.Info("class relocated", "class", moved.ID, "date", intent.NewDate, "time", intent.NewTime, "split", intent.SplitID)
	return RelocationResult{Accepted: true, Class: moved, Split: split}, nil
}

// sourceWeekday resolves which day of a weekly class is being moved. A
// single-day class needs no source date.
func sourceWeekday(c model.ScheduledClass, from string) (weekday.Weekday, error) {
	if c.IsOnce() {
		return 0, nil
	}
	days := classDays(c)
	if from == "" {
		if len(days) == 1 {
			return days[0], nil
		}
		return 0, fmt.Errorf("class runs on %d days, source date required", len(days))
	}
	date, err := ParseDate(from)
	if err != nil {
		return 0, err
	}
	if !Occurs(c, date) {
		return 0, fmt.Errorf("class does not run on %s", from)
	}
	return weekday.Of(date), nil
}

// classDays returns the distinct canonical weekdays of a weekly class.
func classDays(c model.ScheduledClass) []weekday.Weekday {
	var out []weekday.Weekday
	for _, label := range c.DaysOfWeek {
		if d, ok := weekday.Canonicalize(label); ok && !slices.Contains(out, d) {
			out = append(out, d)
		}
	}
	return out
}

func sameTime(a, b string) bool {
	na, errA := clock.Normalize(a)
	nb, errB := clock.Normalize(b)
	return errA == nil && errB == nil && na == nb
}

// Apply returns c moved according to intent. A one-off class is re-pinned to
// the new date. A weekly class swaps the moved day for the new weekday; with a
// SplitID the moved day is taken out of c and returned as a new class.
func Apply(c model.ScheduledClass, intent RelocationIntent) (model.ScheduledClass, *model.ScheduledClass) {
	if c.IsOnce() {
		c.StartTime = intent.NewTime
		c.StartDate = intent.NewDate
		c.EndDate = intent.NewDate
		return c, nil
	}
	if intent.SplitID != "" {
		split := c
		split.ID = intent.SplitID
		split.StartTime = intent.NewTime
		split.DaysOfWeek = []string{intent.NewWeekday.Key()}
		split.Participants = slices.Clone(c.Participants)
		c.DaysOfWeek = replaceDay(c.DaysOfWeek, intent.FromWeekday, 0)
		return c, &split
	}
	c.StartTime = intent.NewTime
	c.DaysOfWeek = replaceDay(c.DaysOfWeek, intent.FromWeekday, intent.NewWeekday)
	return c, nil
}

// replaceDay swaps from for to in days, dropping from when to is the zero
// weekday. A zero from replaces every day. Days are kept once.
func replaceDay(days []string, from, to weekday.Weekday) []string {
	out := make([]string, 0, len(days))
	seen := make(map[string]bool, len(days))
	add := func(label string) {
		if label == "" {
			return
		}
		key := weekday.Fold(label)
		if d, ok := weekday.Canonicalize(label); ok {
			key = d.Key()
		}
		if !seen[key] {
			seen[key] = true
			out = append(out, label)
		}
	}
	for _, label := range days {
		if d, ok := weekday.Canonicalize(label); !from.Valid() || (ok && d == from) {
			add(to.Key())
			continue
		}
		add(label)
	}
	return out
}
