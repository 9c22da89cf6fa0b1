// Package schedule expands a compact class specification (courts x trainers
// x weekdays x time windows x date range) into concrete class instances and
// maps them onto the persisted class shape.
package schedule

import (
	"fmt"

	"courtcal/internal/weekday"
)

// DateLayout is the calendar date format used across the package.
const DateLayout = "2006-01-02"

// BaseClassConfig holds the settings shared by every generated instance.
type BaseClassConfig struct {
	Name      string  `json:"name" yaml:"name"`
	LevelFrom float64 `json:"level_from" yaml:"level_from"`
	LevelTo   float64 `json:"level_to" yaml:"level_to"`
	// Duration is in minutes.
	Duration        int     `json:"duration" yaml:"duration"`
	Price           float64 `json:"price" yaml:"price"`
	MaxParticipants int     `json:"max_participants" yaml:"max_participants"`
	StartDate       string  `json:"start_date" yaml:"start_date"`
	EndDate         string  `json:"end_date" yaml:"end_date"`
	FirstClassTime  string  `json:"first_class_time" yaml:"first_class_time"`
}

// Trainer is a trainer as supplied by the directory.
type Trainer struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// ResourcePools are the courts and trainers chosen for a run. Order matters:
// the i-th court is paired with trainer i mod len(Trainers).
type ResourcePools struct {
	Courts   []int     `json:"courts" yaml:"courts"`
	Trainers []Trainer `json:"trainers" yaml:"trainers"`
}

// TimeSlot is a half-open window [Start, End) stepped every Interval minutes.
type TimeSlot struct {
	Start    string `json:"start" yaml:"start"`
	End      string `json:"end" yaml:"end"`
	Interval int    `json:"interval" yaml:"interval"`
}

// MultiplicationSpec selects the weekdays and time slots to expand over.
type MultiplicationSpec struct {
	Weekdays []weekday.Weekday `json:"weekdays" yaml:"weekdays"`
	Slots    []TimeSlot        `json:"slots" yaml:"slots"`
}

// Expands reports whether the spec triggers the multiplied set. Both sets
// must be non-empty; a partial spec falls back to the base set.
func (s MultiplicationSpec) Expands() bool {
	return len(s.Weekdays) > 0 && len(s.Slots) > 0
}

// Instance is a generated, not yet persisted, class.
type Instance struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	TrainerID   string          `json:"trainer_id"`
	TrainerName string          `json:"trainer_name"`
	Court       int             `json:"court"`
	Weekday     weekday.Weekday `json:"weekday"`
	// SpecificDate is set for date-pinned instances and empty for the base set.
	SpecificDate    string   `json:"specific_date,omitempty"`
	StartTime       string   `json:"start_time"`
	Duration        int      `json:"duration"`
	Price           float64  `json:"price"`
	MaxParticipants int      `json:"max_participants"`
	LevelFrom       float64  `json:"level_from"`
	LevelTo         float64  `json:"level_to"`
	Selected        bool     `json:"selected"`
	Participants    []string `json:"participants,omitempty"`
}

// Key identifies an instance structurally. Two instances with equal keys are
// duplicates.
type Key struct {
	Date    string
	Weekday weekday.Weekday
	Court   int
	Time    string
}

func (i Instance) Key() Key {
	return Key{Date: i.SpecificDate, Weekday: i.Weekday, Court: i.Court, Time: i.StartTime}
}

// String renders the synthetic id for k.
func (k Key) String() string {
	if k.Date == "" {
		return fmt.Sprintf("base-%d-%s", k.Court, k.Time)
	}
	return fmt.Sprintf("%s-%d-%s", k.Date, k.Court, k.Time)
}

// Plan is a complete generation request, as read from a plan file or an
// API body.
type Plan struct {
	ClubID string             `json:"club_id" yaml:"club_id"`
	Config BaseClassConfig    `json:"config" yaml:"config"`
	Pools  *ResourcePools     `json:"pools,omitempty" yaml:"pools,omitempty"`
	Spec   MultiplicationSpec `json:"spec" yaml:"spec"`
}
