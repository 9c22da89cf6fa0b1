package store

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"courtcal/internal/calendar"
	"courtcal/internal/model"
	"courtcal/internal/schedule"
	"courtcal/internal/weekday"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "classes.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func weeklyClass(court int, day, start string) model.ScheduledClass {
	return model.ScheduledClass{
		Name:           "Clinic",
		TrainerID:      "t1",
		TrainerName:    "Ana",
		CourtNumber:    court,
		DaysOfWeek:     []string{day},
		StartDate:      "2024-06-01",
		EndDate:        "2024-06-30",
		RecurrenceType: model.RecurrenceWeekly,
		StartTime:      start,
		Duration:       60,
		Price:          80,
		Capacity:       4,
		Participants:   []string{"p1"},
	}
}

func onceClass(court int, date, start string) model.ScheduledClass {
	return model.ScheduledClass{
		Name:           "Drop-in",
		TrainerID:      "t2",
		CourtNumber:    court,
		StartDate:      date,
		EndDate:        date,
		RecurrenceType: model.RecurrenceOnce,
		StartTime:      start,
		Duration:       90,
	}
}

func TestSaveAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	batch := schedule.CommitBatch{
		ClubID: "club",
		Config: schedule.BaseClassConfig{Name: "Clinic", Duration: 60},
		Items: []schedule.CommitItem{
			{Ref: "r1", Class: weeklyClass(1, "monday", "10:00")},
			{Ref: "r2", Class: onceClass(1, "2024-06-03", "10:00")},
			// Same court, weekday and time as r1 once canonicalized.
			{Ref: "r3", Class: weeklyClass(1, "Lunes", "10:00")},
		},
	}
	results, err := s.SaveClasses(ctx, batch)
	if err != nil {
		t.Fatalf("SaveClasses() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	if results[0].Error != "" || results[0].ID == "" || results[1].Error != "" {
		t.Errorf("results = %+v, want r1 and r2 stored", results)
	}
	if results[2].Error != ErrSlotTaken.Error() {
		t.Errorf("r3 error = %q, want %q", results[2].Error, ErrSlotTaken)
	}

	classes, err := s.ListClasses(ctx, "club")
	if err != nil {
		t.Fatalf("ListClasses() error = %v", err)
	}
	if len(classes) != 2 {
		t.Fatalf("len(ListClasses()) = %d, want 2", len(classes))
	}
	got, err := s.Get(ctx, results[0].ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	want := weeklyClass(1, "monday", "10:00")
	want.ID = results[0].ID
	want.ClubID = "club"
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}

	if other, _ := s.ListClasses(ctx, "other"); len(other) != 0 {
		t.Errorf("ListClasses(other) = %v", other)
	}
}

func TestCommitThroughStore(t *testing.T) {
	s := openTestStore(t)
	cfg := schedule.BaseClassConfig{
		Name: "Clinic", Duration: 60, StartDate: "2024-06-01", EndDate: "2024-06-30", FirstClassTime: "10:00",
	}
	pools := schedule.ResourcePools{Courts: []int{1, 2}, Trainers: []schedule.Trainer{{ID: "a"}, {ID: "b"}}}
	spec := schedule.MultiplicationSpec{
		Weekdays: []weekday.Weekday{weekday.Monday},
		Slots:    []schedule.TimeSlot{{Start: "10:00", End: "12:00", Interval: 60}},
	}
	instances := schedule.Generate(cfg, pools, spec)

	report, err := schedule.Commit(context.Background(), s, "club", cfg, instances)
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if report.Outcome() != schedule.OutcomeSuccess || len(report.Succeeded) != 16 {
		t.Errorf("report = %s", report.Summary())
	}

	// Committing the same set again collides on every slot.
	report, err = schedule.Commit(context.Background(), s, "club", cfg, instances)
	if !errors.Is(err, schedule.ErrNothingCommitted) || len(report.Failed) != 16 {
		t.Errorf("second Commit() = %s, %v", report.Summary(), err)
	}
}

func TestRelocate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	results, err := s.SaveClasses(ctx, schedule.CommitBatch{ClubID: "club", Items: []schedule.CommitItem{
		{Ref: "a", Class: weeklyClass(1, "monday", "10:00")},
		{Ref: "b", Class: weeklyClass(1, "tuesday", "10:00")},
		{Ref: "c", Class: onceClass(2, "2024-06-05", "18:00")},
	}})
	if err != nil {
		t.Fatalf("SaveClasses() error = %v", err)
	}
	idA, idC := results[0].ID, results[2].ID

	err = s.Relocate(ctx, calendar.RelocationIntent{ClassID: idA, NewDate: "2024-06-04", NewWeekday: weekday.Tuesday, NewTime: "10:00"})
	if !errors.Is(err, ErrSlotTaken) {
		t.Errorf("Relocate(onto b) error = %v, want ErrSlotTaken", err)
	}

	if err := s.Relocate(ctx, calendar.RelocationIntent{ClassID: idA, NewDate: "2024-06-06", NewWeekday: weekday.Thursday, NewTime: "11:00"}); err != nil {
		t.Fatalf("Relocate() error = %v", err)
	}
	got, _ := s.Get(ctx, idA)
	if !reflect.DeepEqual(got.DaysOfWeek, []string{"thursday"}) || got.StartTime != "11:00" {
		t.Errorf("relocated weekly class = %+v", got)
	}

	if err := s.Relocate(ctx, calendar.RelocationIntent{ClassID: idC, NewDate: "2024-06-07", NewWeekday: weekday.Friday, NewTime: "19:00"}); err != nil {
		t.Fatalf("Relocate(once) error = %v", err)
	}
	got, _ = s.Get(ctx, idC)
	if got.StartDate != "2024-06-07" || got.EndDate != "2024-06-07" || got.StartTime != "19:00" {
		t.Errorf("relocated once class = %+v", got)
	}

	if err := s.Relocate(ctx, calendar.RelocationIntent{ClassID: "missing"}); !errors.Is(err, ErrClassNotFound) {
		t.Errorf("Relocate(missing) error = %v", err)
	}
}

func TestRemove(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	results, _ := s.SaveClasses(ctx, schedule.CommitBatch{ClubID: "club", Items: []schedule.CommitItem{
		{Ref: "a", Class: weeklyClass(1, "monday", "10:00")},
	}})

	if err := s.Remove(ctx, results[0].ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := s.Remove(ctx, results[0].ID); !errors.Is(err, ErrClassNotFound) {
		t.Errorf("Remove(again) error = %v", err)
	}
	// The slot is free again.
	again, _ := s.SaveClasses(ctx, schedule.CommitBatch{ClubID: "club", Items: []schedule.CommitItem{
		{Ref: "a", Class: weeklyClass(1, "monday", "10:00")},
	}})
	if again[0].Error != "" {
		t.Errorf("re-save error = %q", again[0].Error)
	}
}

func TestBoardWithStore(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, _ = s.SaveClasses(ctx, schedule.CommitBatch{ClubID: "club", Items: []schedule.CommitItem{
		{Ref: "a", Class: weeklyClass(1, "monday", "10:00")},
	}})
	classes, _ := s.ListClasses(ctx, "club")

	b := calendar.NewBoard(calendar.NewEngine(calendar.DefaultGrid(), weekday.Monday, 3), classes, s, s)
	res, err := b.Relocate(ctx, calendar.RelocationRequest{ClassID: classes[0].ID, Date: "2024-06-05", Time: "09:00"})
	if err != nil || !res.Accepted {
		t.Fatalf("Relocate() = %+v, %v", res, err)
	}
	stored, _ := s.Get(ctx, classes[0].ID)
	if !reflect.DeepEqual(stored, res.Class) {
		t.Errorf("stored = %+v, board = %+v", stored, res.Class)
	}
}

func TestCommitOverlappingSlots(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	cfg := schedule.BaseClassConfig{
		Name: "Clinic", Duration: 60, StartDate: "2024-06-01", EndDate: "2024-06-30", FirstClassTime: "10:00",
	}
	pools := schedule.ResourcePools{Courts: []int{1}, Trainers: []schedule.Trainer{{ID: "a"}}}
	spec := schedule.MultiplicationSpec{
		Weekdays: []weekday.Weekday{weekday.Monday},
		Slots: []schedule.TimeSlot{
			{Start: "10:00", End: "11:00", Interval: 60},
			{Start: "10:00", End: "10:30", Interval: 30},
		},
	}

	report, err := schedule.Commit(ctx, s, "club", cfg, schedule.Generate(cfg, pools, spec))
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if report.Outcome() != schedule.OutcomeSuccess || len(report.Succeeded) != 4 {
		t.Errorf("report = %s, want 4 succeeded", report.Summary())
	}
	classes, _ := s.ListClasses(ctx, "club")
	if len(classes) != len(report.Succeeded) {
		t.Errorf("stored %d classes, report says %d", len(classes), len(report.Succeeded))
	}
}

func TestSlotsPerWeekday(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	series := weeklyClass(1, "monday", "10:00")
	series.DaysOfWeek = []string{"monday", "wednesday"}

	results, err := s.SaveClasses(ctx, schedule.CommitBatch{ClubID: "club", Items: []schedule.CommitItem{
		{Ref: "series", Class: series},
		{Ref: "monday", Class: weeklyClass(1, "monday", "10:00")},
		{Ref: "miercoles", Class: weeklyClass(1, "Miércoles", "10:00")},
		{Ref: "friday", Class: weeklyClass(1, "friday", "10:00")},
	}})
	if err != nil {
		t.Fatalf("SaveClasses() error = %v", err)
	}
	want := []string{"", ErrSlotTaken.Error(), ErrSlotTaken.Error(), ""}
	for i, r := range results {
		if r.Error != want[i] {
			t.Errorf("%s error = %q, want %q", r.Ref, r.Error, want[i])
		}
	}

	// Removing the series frees both of its days.
	if err := s.Remove(ctx, results[0].ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	again, _ := s.SaveClasses(ctx, schedule.CommitBatch{ClubID: "club", Items: []schedule.CommitItem{
		{Ref: "monday", Class: weeklyClass(1, "monday", "10:00")},
		{Ref: "wednesday", Class: weeklyClass(1, "wednesday", "10:00")},
	}})
	for _, r := range again {
		if r.Error != "" {
			t.Errorf("%s error = %q after removal", r.Ref, r.Error)
		}
	}
}

func TestRelocateOneDayOfSeries(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	series := weeklyClass(1, "monday", "10:00")
	series.DaysOfWeek = []string{"monday", "wednesday"}
	results, _ := s.SaveClasses(ctx, schedule.CommitBatch{ClubID: "club", Items: []schedule.CommitItem{
		{Ref: "series", Class: series},
		{Ref: "busy", Class: weeklyClass(1, "tuesday", "12:00")},
	}})
	classes, _ := s.ListClasses(ctx, "club")

	b := calendar.NewBoard(calendar.NewEngine(calendar.DefaultGrid(), weekday.Monday, 3), classes, s, s)
	res, err := b.Relocate(ctx, calendar.RelocationRequest{ClassID: results[0].ID, From: "2024-06-03", Date: "2024-06-03", Time: "12:00"})
	if err != nil || !res.Accepted || res.Split == nil {
		t.Fatalf("Relocate() = %+v, %v, want accepted with split", res, err)
	}

	stored, _ := s.Get(ctx, results[0].ID)
	if !reflect.DeepEqual(stored, res.Class) || !reflect.DeepEqual(stored.DaysOfWeek, []string{"wednesday"}) {
		t.Errorf("stored series = %+v, board = %+v", stored, res.Class)
	}
	split, err := s.Get(ctx, res.Split.ID)
	if err != nil {
		t.Fatalf("Get(split) error = %v", err)
	}
	if !reflect.DeepEqual(split, *res.Split) {
		t.Errorf("stored split = %+v, board = %+v", split, *res.Split)
	}

	// The freed monday 10:00 slot is available, wednesday 10:00 is not.
	again, _ := s.SaveClasses(ctx, schedule.CommitBatch{ClubID: "club", Items: []schedule.CommitItem{
		{Ref: "monday", Class: weeklyClass(1, "monday", "10:00")},
		{Ref: "wednesday", Class: weeklyClass(1, "wednesday", "10:00")},
	}})
	if again[0].Error != "" || again[1].Error != ErrSlotTaken.Error() {
		t.Errorf("results = %+v", again)
	}

	// Moving the split onto a taken slot rolls back.
	err = s.Relocate(ctx, calendar.RelocationIntent{
		ClassID: res.Split.ID, FromWeekday: weekday.Monday, NewDate: "2024-06-04", NewWeekday: weekday.Tuesday, NewTime: "12:00",
	})
	if !errors.Is(err, ErrSlotTaken) {
		t.Errorf("Relocate(onto busy) error = %v, want ErrSlotTaken", err)
	}
	if got, _ := s.Get(ctx, res.Split.ID); !reflect.DeepEqual(got.DaysOfWeek, []string{"monday"}) {
		t.Errorf("split after failed move = %+v", got)
	}
}
