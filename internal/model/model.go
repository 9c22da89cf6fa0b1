package model

import (
	"errors"
	"fmt"
)

// Recurrence types understood by the persistence collaborator.
const (
	RecurrenceOnce   = "once"
	RecurrenceWeekly = "weekly"
)

// ScheduledClass is the persisted shape of a class as stored by the
// persistence collaborator and consumed by the calendar layout.
//
// A weekly class recurs on every day in DaysOfWeek between StartDate and
// EndDate. A one-off class is pinned to a single date: StartDate == EndDate.
type ScheduledClass struct {
	ID     string `json:"id,omitempty" yaml:"id,omitempty"`
	ClubID string `json:"club_id" yaml:"club_id"`
	Name   string `json:"name" yaml:"name"`

	TrainerID   string `json:"trainer_id" yaml:"trainer_id"`
	TrainerName string `json:"trainer_name,omitempty" yaml:"trainer_name,omitempty"`
	CourtNumber int    `json:"court_number" yaml:"court_number"`

	// DaysOfWeek holds weekday labels as stored. They may be localized or
	// accented; the calendar canonicalizes them before comparison.
	DaysOfWeek     []string `json:"days_of_week,omitempty" yaml:"days_of_week,omitempty"`
	StartDate      string   `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate        string   `json:"end_date,omitempty" yaml:"end_date,omitempty"`
	RecurrenceType string   `json:"recurrence_type" yaml:"recurrence_type"`

	StartTime string `json:"start_time" yaml:"start_time"`
	// Duration is in minutes.
	Duration int     `json:"duration" yaml:"duration"`
	Price    float64 `json:"price" yaml:"price"`
	Capacity int     `json:"max_participants" yaml:"max_participants"`

	LevelFrom float64 `json:"level_from,omitempty" yaml:"level_from,omitempty"`
	LevelTo   float64 `json:"level_to,omitempty" yaml:"level_to,omitempty"`

	Participants []string `json:"participants,omitempty" yaml:"participants,omitempty"`
}

// IsOnce reports whether the class is pinned to a single date.
func (c ScheduledClass) IsOnce() bool {
	return c.RecurrenceType == RecurrenceOnce
}

// State is the lifecycle position of a class instance.
type State string

const (
	StateDraft      State = "draft"
	StateSelected   State = "selected"
	StateDeselected State = "deselected"
	StateCommitted  State = "committed"
	StateDisplayed  State = "displayed"
	StateRelocated  State = "relocated"
	StateCancelled  State = "cancelled"
)

// Event drives a lifecycle transition.
type Event string

const (
	EventSelect   Event = "select"
	EventDeselect Event = "deselect"
	EventCommit   Event = "commit"
	EventDisplay  Event = "display"
	EventRelocate Event = "relocate"
	EventCancel   Event = "cancel"
)

var ErrInvalidTransition = errors.New("invalid lifecycle transition")

var transitions = map[State]map[Event]State{
	StateDraft: {
		EventSelect:   StateSelected,
		EventDeselect: StateDeselected,
	},
	StateSelected: {
		EventSelect:   StateSelected,
		EventDeselect: StateDeselected,
		EventCommit:   StateCommitted,
	},
	StateDeselected: {
		EventSelect:   StateSelected,
		EventDeselect: StateDeselected,
	},
	StateCommitted: {
		EventDisplay: StateDisplayed,
		EventCancel:  StateCancelled,
	},
	StateDisplayed: {
		EventRelocate: StateRelocated,
		EventCancel:   StateCancelled,
	},
	StateRelocated: {
		EventDisplay: StateDisplayed,
		EventCancel:  StateCancelled,
	},
}

// Next returns the state reached from s on ev. Cancelled is terminal.
func Next(s State, ev Event) (State, error) {
	if to, ok := transitions[s][ev]; ok {
		return to, nil
	}
	return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, ev, s)
}
