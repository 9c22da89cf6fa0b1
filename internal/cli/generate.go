package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	appLog "courtcal/internal/log"
	"courtcal/internal/schedule"
	"courtcal/internal/weekday"
)

func generateCmd() *cobra.Command {
	var planPath string
	var clubID string
	var courts []int
	var trainers []string
	var exclude []string
	var commit bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate class instances from a plan file and optionally commit them",
		RunE: func(cmd *cobra.Command, args []string) error {
			if planPath == "" {
				return fmt.Errorf("--plan is required")
			}
			plan, err := loadPlan(planPath)
			if err != nil {
				return err
			}
			if clubID != "" {
				plan.ClubID = clubID
			}
			club, err := resolveClub(plan.ClubID)
			if err != nil {
				return err
			}

			pools := schedule.ResourcePools{}
			switch {
			case len(courts) > 0 || len(trainers) > 0 || plan.Pools == nil:
				pools, err = club.Pools(courts, trainers)
				if err != nil {
					return err
				}
			default:
				pools = *plan.Pools
			}

			wf := &schedule.Workflow{
				ClubID:  club.ID,
				Config:  plan.Config,
				Pools:   pools,
				Spec:    plan.Spec,
				Options: conf.Generator,
			}
			for wf.Step < schedule.StepReview {
				if err := wf.Advance(); err != nil {
					if errors.Is(err, schedule.ErrIncompatibleSlots) {
						printIssues(wf.Issues)
					}
					return fmt.Errorf("%s step: %w", wf.Step, err)
				}
			}
			for _, id := range exclude {
				if _, err := wf.Toggle(id); err != nil {
					return err
				}
			}

			if !commit {
				if outputJSON {
					return writeJSON(schedule.Result{Instances: wf.Instances, Issues: wf.Issues, Truncated: wf.Truncated})
				}
				return printInstances(wf.Instances, wf.Truncated)
			}

			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			report, err := wf.Commit(cmd.Context(), st)
			if outputJSON {
				if jerr := writeJSON(report); jerr != nil {
					return jerr
				}
			} else {
				fmt.Println(report.Summary())
				for _, f := range report.Failed {
					fmt.Printf("  %s: %s\n", f.InstanceID, f.Message)
				}
			}
			return err
		},
	}

	cmd.Flags().StringVar(&planPath, "plan", "", "YAML plan file (club_id, config, pools, spec)")
	cmd.Flags().StringVar(&clubID, "club", "", "Club id (overrides the plan)")
	cmd.Flags().IntSliceVar(&courts, "courts", nil, "Courts to schedule, in order")
	cmd.Flags().StringSliceVar(&trainers, "trainers", nil, "Trainer ids, paired with courts in order")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "Instance ids to deselect before commit")
	cmd.Flags().BoolVar(&commit, "commit", false, "Persist the selected instances")
	return cmd
}

func loadPlan(path string) (schedule.Plan, error) {
	var plan schedule.Plan
	data, err := os.ReadFile(path)
	if err != nil {
		return plan, err
	}
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return plan, fmt.Errorf("parse plan %s: %w", path, err)
	}
	appLog.Debug("plan loaded", "path", path, "club", plan.ClubID, "weekdays", len(plan.Spec.Weekdays), "slots", len(plan.Spec.Slots))
	return plan, nil
}

func printInstances(instances []schedule.Instance, truncated bool) error {
	labels := weekday.Labels(conf.Locale)
	writer := tabwriter.NewWriter(os.Stdout, 2, 2, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tDAY\tTIME\tCOURT\tTRAINER\tSELECTED")
	for _, inst := range instances {
		day := labels.Label(inst.Weekday)
		if inst.SpecificDate != "" {
			day = inst.SpecificDate + " " + day
		}
		selected := "yes"
		if !inst.Selected {
			selected = "no"
		}
		trainer := inst.TrainerName
		if trainer == "" {
			trainer = inst.TrainerID
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%d\t%s\t%s\n", inst.ID, day, inst.StartTime, inst.Court, trainer, selected)
	}
	if err := writer.Flush(); err != nil {
		return err
	}
	fmt.Printf("%d instances", len(instances))
	if truncated {
		fmt.Printf(" (truncated at %d)", conf.Generator.MaxInstances)
	}
	fmt.Println()
	return nil
}

func printIssues(issues []schedule.SlotIssue) {
	for _, issue := range issues {
		fmt.Fprintf(os.Stderr, "slot %d (%s-%s every %d min): %s\n",
			issue.Index+1, issue.Slot.Start, issue.Slot.End, issue.Slot.Interval, issue.Message)
	}
}
