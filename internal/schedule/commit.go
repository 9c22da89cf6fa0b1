package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	appLog "courtcal/internal/log"
	"courtcal/internal/model"
	"courtcal/internal/weekday"
)

// ErrNothingCommitted is returned when every submitted instance was rejected.
var ErrNothingCommitted = errors.New("no class was committed")

// CommitItem pairs a persisted class with the generated instance it came from.
// Ref is unique within a batch.
type CommitItem struct {
	Ref   string               `json:"ref"`
	Class model.ScheduledClass `json:"class"`
}

// CommitBatch is what the persistence collaborator receives: the classes plus
// an echo of the configuration they were generated from.
type CommitBatch struct {
	ClubID string          `json:"club_id"`
	Config BaseClassConfig `json:"config"`
	Items  []CommitItem    `json:"items"`
}

// ItemResult is the collaborator's verdict on one item. Error is empty on
// success.
type ItemResult struct {
	Ref   string `json:"ref"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error,omitempty"`
}

// Persister durably stores committed classes.
type Persister interface {
	SaveClasses(ctx context.Context, batch CommitBatch) ([]ItemResult, error)
}

// Failure records why one instance was not committed.
type Failure struct {
	InstanceID string `json:"instance_id"`
	Message    string `json:"message"`
}

// Outcome classifies a commit.
type Outcome string

const (
	OutcomeEmpty   Outcome = "empty"
	OutcomeSuccess Outcome = "success"
	OutcomePartial Outcome = "partial"
	OutcomeFailed  Outcome = "failed"
)

// CommitReport keeps which instances made it and which did not.
type CommitReport struct {
	Submitted int `json:"submitted"`
	// Succeeded maps item ref to the persisted class id. The ref is the
	// instance id, suffixed with "#n" when the id repeats within a commit.
	Succeeded map[string]string `json:"succeeded"`
	Failed    []Failure         `json:"failed"`
}

func (r CommitReport) Outcome() Outcome {
	switch {
	case r.Submitted == 0:
		return OutcomeEmpty
	case len(r.Failed) == 0:
		return OutcomeSuccess
	case len(r.Succeeded) == 0:
		return OutcomeFailed
	default:
		return OutcomePartial
	}
}

// Summary renders "N succeeded, M failed, first error: ...".
func (r CommitReport) Summary() string {
	s := fmt.Sprintf("%d succeeded, %d failed", len(r.Succeeded), len(r.Failed))
	if len(r.Failed) > 0 {
		s += ", first error: " + r.Failed[0].Message
	}
	return s
}

// ToScheduled maps a generated instance onto the persisted shape. A
// date-pinned instance becomes a "once" class with start and end on that
// date; otherwise it recurs weekly on its weekday across the configured range.
func ToScheduled(inst Instance, cfg BaseClassConfig, clubID string) model.ScheduledClass {
	sc := model.ScheduledClass{
		ClubID:       clubID,
		Name:         inst.Name,
		TrainerID:    inst.TrainerID,
		TrainerName:  inst.TrainerName,
		CourtNumber:  inst.Court,
		StartTime:    inst.StartTime,
		Duration:     inst.Duration,
		Price:        inst.Price,
		Capacity:     inst.MaxParticipants,
		LevelFrom:    inst.LevelFrom,
		LevelTo:      inst.LevelTo,
		Participants: inst.Participants,
	}
	if inst.SpecificDate != "" {
		sc.RecurrenceType = model.RecurrenceOnce
		sc.StartDate = inst.SpecificDate
		sc.EndDate = inst.SpecificDate
		return sc
	}
	sc.RecurrenceType = model.RecurrenceWeekly
	sc.DaysOfWeek = []string{inst.Weekday.Key()}
	sc.StartDate = cfg.StartDate
	sc.EndDate = cfg.EndDate
	return sc
}

// FromScheduled maps a persisted class back onto an instance.
func FromScheduled(sc model.ScheduledClass) Instance {
	inst := Instance{
		Name:            sc.Name,
		TrainerID:       sc.TrainerID,
		TrainerName:     sc.TrainerName,
		Court:           sc.CourtNumber,
		StartTime:       sc.StartTime,
		Duration:        sc.Duration,
		Price:           sc.Price,
		MaxParticipants: sc.Capacity,
		LevelFrom:       sc.LevelFrom,
		LevelTo:         sc.LevelTo,
		Selected:        true,
		Participants:    sc.Participants,
	}
	if sc.IsOnce() {
		inst.SpecificDate = sc.StartDate
		if t, err := time.Parse(DateLayout, sc.StartDate); err == nil {
			inst.Weekday = weekday.Of(t)
		}
	} else if len(sc.DaysOfWeek) > 0 {
		inst.Weekday, _ = weekday.Canonicalize(sc.DaysOfWeek[0])
	}
	inst.ID = inst.Key().String()
	return inst
}

// Commit submits every selected instance to p and reports per-instance
// results. When nothing succeeds out of a non-empty submission it returns
// ErrNothingCommitted along with the report.
func Commit(ctx context.Context, p Persister, clubID string, cfg BaseClassConfig, instances []Instance) (CommitReport, error) {
	report := CommitReport{Succeeded: map[string]string{}, Failed: []Failure{}}

	batch := CommitBatch{ClubID: clubID, Config: cfg}
	uses := make(map[string]int)
	for _, inst := range instances {
		if !inst.Selected {
			continue
		}
		batch.Items = append(batch.Items, CommitItem{Ref: itemRef(inst.ID, uses), Class: ToScheduled(inst, cfg, clubID)})
	}
	report.Submitted = len(batch.Items)
	if report.Submitted == 0 {
		return report, nil
	}

	results, err := p.SaveClasses(ctx, batch)
	if err != nil {
		for _, it := range batch.Items {
			report.Failed = append(report.Failed, Failure{InstanceID: it.Ref, Message: err.Error()})
		}
		appLog.Error("commit: persistence call failed", err, "club", clubID, "submitted", report.Submitted)
		return report, fmt.Errorf("%w: %w", ErrNothingCommitted, err)
	}

	byRef := make(map[string]ItemResult, len(results))
	for _, r := range results {
		byRef[r.Ref] = r
	}
	for _, it := range batch.Items {
		r, ok := byRef[it.Ref]
		switch {
		case !ok:
			report.Failed = append(report.Failed, Failure{InstanceID: it.Ref, Message: "no result returned"})
		case r.Error != "":
			report.Failed = append(report.Failed, Failure{InstanceID: it.Ref, Message: r.Error})
		default:
			report.Succeeded[it.Ref] = r.ID
		}
	}

	switch report.Outcome() {
	case OutcomeFailed:
		appLog.Error("commit failed", errors.New(report.Failed[0].Message), "club", clubID, "submitted", report.Submitted)
		return report, fmt.Errorf("%w: %s", ErrNothingCommitted, report.Summary())
	case OutcomePartial:
		appLog.Warn("commit partially succeeded", "club", clubID, "summary", report.Summary())
	default:
		appLog.Info("commit succeeded", "club", clubID, "committed", len(report.Succeeded))
	}
	return report, nil
}

// itemRef returns id the first time it is seen and "id#n" after that.
func itemRef(id string, uses map[string]int) string {
	n := uses[id]
	uses[id] = n + 1
	if n == 0 {
		return id
	}
	return fmt.Sprintf("%s#%d", id, n)
}
