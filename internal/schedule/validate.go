package schedule

import (
	"fmt"
	"strings"

	"courtcal/internal/clock"
)

// Issue codes reported by ValidateSlots.
const (
	IssueIncompatible = "incompatible_interval"
	IssueInvalid      = "invalid_slot"
)

// SlotIssue describes one time slot that should block the workflow.
type SlotIssue struct {
	Index   int      `json:"index"`
	Slot    TimeSlot `json:"slot"`
	Code    string   `json:"code"`
	Message string   `json:"message"`
}

// Compatible reports whether a stepping interval and a class duration divide
// one another.
func Compatible(duration, interval int) bool {
	if duration <= 0 || interval <= 0 {
		return false
	}
	return interval%duration == 0 || duration%interval == 0
}

// ValidateSlots checks every slot against the class duration. Issues are
// values: they never stop generation of the other slots.
func ValidateSlots(duration int, slots []TimeSlot) []SlotIssue {
	issues := []SlotIssue{}
	for i, s := range slots {
		if _, err := Steps(s); err != nil {
			issues = append(issues, SlotIssue{Index: i, Slot: s, Code: IssueInvalid, Message: err.Error()})
			continue
		}
		if !Compatible(duration, s.Interval) {
			issues = append(issues, SlotIssue{
				Index:   i,
				Slot:    s,
				Code:    IssueIncompatible,
				Message: fmt.Sprintf("interval %d and duration %d do not divide each other", s.Interval, duration),
			})
		}
	}
	return issues
}

// Steps lists the start times of s: from Start, every Interval minutes,
// strictly before End.
func Steps(s TimeSlot) ([]string, error) {
	start, err := clock.Parse(s.Start)
	if err != nil {
		return nil, err
	}
	end, err := clock.Parse(s.End)
	if err != nil {
		return nil, err
	}
	if s.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %d", s.Interval)
	}
	times := []string{}
	for m := start; m < end; m += s.Interval {
		times = append(times, clock.Format(m))
	}
	return times, nil
}

// MissingFields names the configuration a run needs but does not have.
// An empty result means Generate can produce output.
func MissingFields(cfg BaseClassConfig, pools ResourcePools) []string {
	var missing []string
	if strings.TrimSpace(cfg.FirstClassTime) == "" {
		missing = append(missing, "first_class_time")
	}
	if len(pools.Courts) == 0 {
		missing = append(missing, "courts")
	}
	if len(pools.Trainers) == 0 {
		missing = append(missing, "trainers")
	}
	return missing
}
