package schedule

import (
	"errors"
	"fmt"
	"strings"

	"courtcal/internal/clock"
	appLog "courtcal/internal/log"
	"courtcal/internal/weekday"
)

const (
	defaultWarnThreshold = 300
	defaultMaxInstances  = 5000
)

// Generate expands cfg, pools and spec into class instances. It is a pure
// function of its inputs: equal inputs give equal output, in the same order.
//
// Output is empty when there are no courts, no trainers or no first class
// time. Without both weekdays and slots in spec, one instance per court is
// produced at the first class time (the base set). Instances with equal keys,
// as produced by overlapping slots or repeated weekdays, are kept once.
func Generate(cfg BaseClassConfig, pools ResourcePools, spec MultiplicationSpec) []Instance {
	if len(MissingFields(cfg, pools)) > 0 {
		return []Instance{}
	}
	first, err := clock.Normalize(cfg.FirstClassTime)
	if err != nil {
		return []Instance{}
	}

	if !spec.Expands() {
		return baseSet(cfg, pools, first)
	}
	return multipliedSet(cfg, pools, spec)
}

func baseSet(cfg BaseClassConfig, pools ResourcePools, first string) []Instance {
	out := make([]Instance, 0, len(pools.Courts))
	for i, court := range pools.Courts {
		out = append(out, newInstance(cfg, court, pools.TrainerFor(i), weekday.Monday, "", first))
	}
	return out
}

func multipliedSet(cfg BaseClassConfig, pools ResourcePools, spec MultiplicationSpec) []Instance {
	var times []string
	for _, s := range spec.Slots {
		steps, err := Steps(s)
		if err != nil {
			appLog.Debug("skipping invalid time slot", "start", s.Start, "end", s.End, "interval", s.Interval, "reason", err)
			continue
		}
		times = append(times, steps...)
	}

	out := []Instance{}
	seen := make(map[Key]bool)
	for _, d := range spec.Weekdays {
		dates, err := ExpandDates(cfg.StartDate, cfg.EndDate, d)
		if err != nil {
			appLog.Debug("no dates for weekday", "weekday", d, "reason", err)
			continue
		}
		for _, date := range dates {
			for _, t := range times {
				for i, court := range pools.Courts {
					inst := newInstance(cfg, court, pools.TrainerFor(i), d, date, t)
					if seen[inst.Key()] {
						appLog.Debug("skipping duplicate instance", "id", inst.ID)
						continue
					}
					seen[inst.Key()] = true
					out = append(out, inst)
				}
			}
		}
	}
	return out
}

func newInstance(cfg BaseClassConfig, court int, tr Trainer, d weekday.Weekday, date, start string) Instance {
	inst := Instance{
		Name:            className(cfg.Name, court),
		TrainerID:       tr.ID,
		TrainerName:     tr.Name,
		Court:           court,
		Weekday:         d,
		SpecificDate:    date,
		StartTime:       start,
		Duration:        cfg.Duration,
		Price:           cfg.Price,
		MaxParticipants: cfg.MaxParticipants,
		LevelFrom:       cfg.LevelFrom,
		LevelTo:         cfg.LevelTo,
		Selected:        true,
	}
	inst.ID = inst.Key().String()
	return inst
}

func className(name string, court int) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Sprintf("Court %d", court)
	}
	return fmt.Sprintf("%s - Court %d", name, court)
}

// Options bound the cost of a generation run.
type Options struct {
	// WarnThreshold logs a warning above this many instances. Zero uses the default.
	WarnThreshold int `json:"warn_threshold" yaml:"warn_threshold"`
	// MaxInstances truncates the output. Zero uses the default.
	MaxInstances int `json:"max_instances" yaml:"max_instances"`
}

// Result is the output of Build.
type Result struct {
	Instances []Instance  `json:"instances"`
	Issues    []SlotIssue `json:"issues"`
	Missing   []string    `json:"missing,omitempty"`
	Truncated bool        `json:"truncated,omitempty"`
}

// Blocked reports whether the result should stop the workflow from advancing.
func (r Result) Blocked() bool {
	return len(r.Issues) > 0
}

// Build runs Generate alongside slot validation and applies the cost bound.
func Build(cfg BaseClassConfig, pools ResourcePools, spec MultiplicationSpec, opts Options) Result {
	if opts.WarnThreshold <= 0 {
		opts.WarnThreshold = defaultWarnThreshold
	}
	if opts.MaxInstances <= 0 {
		opts.MaxInstances = defaultMaxInstances
	}

	res := Result{
		Instances: Generate(cfg, pools, spec),
		Issues:    ValidateSlots(cfg.Duration, spec.Slots),
		Missing:   MissingFields(cfg, pools),
	}

	n := len(res.Instances)
	if n > opts.MaxInstances {
		res.Instances = res.Instances[:opts.MaxInstances]
		res.Truncated = true
		appLog.Error("generate: truncated instances due to cap",
			errors.New("max instances reached"),
			"generated", n,
			"cap", opts.MaxInstances,
		)
	} else if n > opts.WarnThreshold {
		appLog.Warn("generate: large expansion", "generated", n, "threshold", opts.WarnThreshold)
	}

	appLog.Debug("generate completed",
		"instances", len(res.Instances),
		"issues", len(res.Issues),
		"weekdays", len(spec.Weekdays),
		"slots", len(spec.Slots),
		"courts", len(pools.Courts),
	)
	return res
}
