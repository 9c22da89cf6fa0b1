package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Step is a position in the class creation workflow.
type Step int

const (
	StepConfig Step = iota
	StepResources
	StepMultiply
	StepReview
	StepCommitted
)

var stepNames = [...]string{"config", "resources", "multiply", "review", "committed"}

func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return fmt.Sprintf("Step(%d)", int(s))
	}
	return stepNames[s]
}

var (
	ErrMissingConfig     = errors.New("configuration incomplete")
	ErrEmptyPools        = errors.New("select at least one court and one trainer")
	ErrIncompatibleSlots = errors.New("time slots are incompatible with the class duration")
	ErrInstanceNotFound  = errors.New("instance not found")
	ErrWorkflowCommitted = errors.New("workflow already committed")
	ErrNothingSelected   = errors.New("no instance selected")
	ErrNotReadyForCommit = errors.New("workflow is not at the review step")
)

// Workflow is the explicit state of one class creation session: the inputs,
// the step reached and the instances currently on offer.
type Workflow struct {
	ClubID  string
	Config  BaseClassConfig
	Pools   ResourcePools
	Spec    MultiplicationSpec
	Options Options

	Step      Step
	Instances []Instance
	Issues    []SlotIssue
	Truncated bool
}

// Regenerate replaces the instance set wholesale from the current inputs.
// Selection toggles and participant assignments are discarded.
func (w *Workflow) Regenerate() {
	res := Build(w.Config, w.Pools, w.Spec, w.Options)
	w.Instances = res.Instances
	w.Issues = res.Issues
	w.Truncated = res.Truncated
}

// Advance moves to the next step when the current one is complete.
func (w *Workflow) Advance() error {
	switch w.Step {
	case StepConfig:
		if strings.TrimSpace(w.Config.Name) == "" || strings.TrimSpace(w.Config.FirstClassTime) == "" || w.Config.Duration <= 0 {
			return ErrMissingConfig
		}
	case StepResources:
		if len(w.Pools.Courts) == 0 || len(w.Pools.Trainers) == 0 {
			return ErrEmptyPools
		}
	case StepMultiply:
		w.Regenerate()
		if len(w.Issues) > 0 {
			return ErrIncompatibleSlots
		}
	case StepReview:
		return ErrNotReadyForCommit
	case StepCommitted:
		return ErrWorkflowCommitted
	}
	w.Step++
	return nil
}

// Back returns to the previous step. A committed workflow stays put.
func (w *Workflow) Back() {
	if w.Step > StepConfig && w.Step < StepCommitted {
		w.Step--
	}
}

func (w *Workflow) find(id string) (*Instance, error) {
	for i := range w.Instances {
		if w.Instances[i].ID == id {
			return &w.Instances[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrInstanceNotFound, id)
}

// Toggle flips the selected flag of an instance and returns the new value.
func (w *Workflow) Toggle(id string) (bool, error) {
	inst, err := w.find(id)
	if err != nil {
		return false, err
	}
	inst.Selected = !inst.Selected
	return inst.Selected, nil
}

// AssignParticipants attaches participant ids to an instance.
func (w *Workflow) AssignParticipants(id string, participants []string) error {
	inst, err := w.find(id)
	if err != nil {
		return err
	}
	inst.Participants = append([]string(nil), participants...)
	return nil
}

// Selected returns the instances that will be committed.
func (w *Workflow) Selected() []Instance {
	out := []Instance{}
	for _, inst := range w.Instances {
		if inst.Selected {
			out = append(out, inst)
		}
	}
	return out
}

// Commit submits the selected instances from the review step. The workflow
// reaches StepCommitted when at least one instance was stored.
func (w *Workflow) Commit(ctx context.Context, p Persister) (CommitReport, error) {
	if w.Step == StepCommitted {
		return CommitReport{}, ErrWorkflowCommitted
	}
	if w.Step != StepReview {
		return CommitReport{}, ErrNotReadyForCommit
	}
	if len(w.Selected()) == 0 {
		return CommitReport{}, ErrNothingSelected
	}
	report, err := Commit(ctx, p, w.ClubID, w.Config, w.Instances)
	if len(report.Succeeded) > 0 {
		w.Step = StepCommitted
	}
	return report, err
}
