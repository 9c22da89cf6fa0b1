package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"courtcal/internal/model"
)

func TestExportImportRoundTrip(t *testing.T) {
	classes := []model.ScheduledClass{
		{
			ID:             "w1",
			ClubID:         "norte",
			Name:           "Clinic, advanced",
			TrainerID:      "t1",
			TrainerName:    "Ana",
			CourtNumber:    2,
			DaysOfWeek:     []string{"Lunes", "miércoles"},
			StartDate:      "2024-06-01",
			EndDate:        "2024-06-30",
			RecurrenceType: model.RecurrenceWeekly,
			StartTime:      "10:00",
			Duration:       90,
			Price:          25.5,
			Capacity:       4,
			LevelFrom:      2,
			LevelTo:        3.5,
			Participants:   []string{"p1", "p2"},
		},
		{
			ID:             "o1",
			ClubID:         "norte",
			Name:           "Drop-in",
			TrainerID:      "t2",
			CourtNumber:    5,
			StartDate:      "2024-06-07",
			EndDate:        "2024-06-07",
			RecurrenceType: model.RecurrenceOnce,
			StartTime:      "19:30",
			Duration:       60,
		},
	}

	body := ExportString(classes, time.UTC)
	if !strings.Contains(body, "FREQ=WEEKLY") || !strings.Contains(body, "BYDAY=MO,WE") {
		t.Errorf("export missing weekly rule:\n%s", body)
	}

	got, err := Import([]byte(body), time.UTC)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Import() returned %d classes, want 2", len(got))
	}

	// The weekly rule is anchored on its first real occurrence.
	wantWeekly := classes[0]
	wantWeekly.DaysOfWeek = []string{"monday", "wednesday"}
	wantWeekly.StartDate = "2024-06-03"
	if !reflect.DeepEqual(got[0], wantWeekly) {
		t.Errorf("weekly = %+v, want %+v", got[0], wantWeekly)
	}
	if !reflect.DeepEqual(got[1], classes[1]) {
		t.Errorf("once = %+v, want %+v", got[1], classes[1])
	}
}

func TestExportInLocation(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		t.Skip("tzdata not available")
	}
	c := model.ScheduledClass{
		ID: "o1", Name: "Late", CourtNumber: 1, RecurrenceType: model.RecurrenceOnce,
		StartDate: "2024-06-07", EndDate: "2024-06-07", StartTime: "21:00", Duration: 60,
	}
	body := ExportString([]model.ScheduledClass{c}, loc)
	if !strings.Contains(body, "TZID=Europe/Madrid:20240607T210000") {
		t.Errorf("export missing local DTSTART:\n%s", body)
	}
	got, err := Import([]byte(body), loc)
	if err != nil || len(got) != 1 {
		t.Fatalf("Import() = %v, %v", got, err)
	}
	if got[0].StartTime != "21:00" || got[0].StartDate != "2024-06-07" {
		t.Errorf("Import() = %+v", got[0])
	}
}

func TestExportSkipsUnplaceableClasses(t *testing.T) {
	now = func() time.Time { return time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = time.Now })

	classes := []model.ScheduledClass{
		{ID: "bad-day", RecurrenceType: model.RecurrenceWeekly, DaysOfWeek: []string{"someday"}, StartTime: "10:00"},
		{ID: "bad-time", RecurrenceType: model.RecurrenceOnce, StartDate: "2024-06-07", StartTime: "late"},
		{ID: "empty-range", RecurrenceType: model.RecurrenceWeekly, DaysOfWeek: []string{"monday"},
			StartDate: "2024-06-04", EndDate: "2024-06-09", StartTime: "10:00"},
		{ID: "open", RecurrenceType: model.RecurrenceWeekly, DaysOfWeek: []string{"friday"}, StartTime: "10:00", Duration: 60},
	}
	cal := Export(classes, time.UTC)
	events := cal.Events()
	if len(events) != 1 {
		t.Fatalf("exported %d events, want 1", len(events))
	}
	start, err := events[0].GetStartAt()
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2024, 6, 7, 10, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Errorf("open-ended start = %v, want %v", start, want)
	}
}

const foreignFeed = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//EN
BEGIN:VEVENT
UID:daily-1
DTSTAMP:20240601T000000Z
DTSTART:20240603T180000Z
DTEND:20240603T193000Z
SUMMARY:Camp
LOCATION:Court 4
RRULE:FREQ=DAILY;COUNT=3
EXDATE:20240604T180000Z
END:VEVENT
BEGIN:VEVENT
UID:allday
DTSTAMP:20240601T000000Z
DTSTART;VALUE=DATE:20240605
SUMMARY:Holiday
END:VEVENT
BEGIN:VEVENT
UID:weekly-1
DTSTAMP:20240601T000000Z
DTSTART:20240604T080000Z
DTEND:20240604T090000Z
SUMMARY:Morning
RRULE:FREQ=WEEKLY
END:VEVENT
END:VCALENDAR
`

func TestImportForeignFeed(t *testing.T) {
	body := strings.ReplaceAll(foreignFeed, "\n", "\r\n")
	got, err := Import([]byte(body), time.UTC)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	var ids []string
	for _, c := range got {
		ids = append(ids, c.ID)
	}
	wantIDs := []string{"daily-1-2024-06-03", "daily-1-2024-06-05", "weekly-1"}
	if !reflect.DeepEqual(ids, wantIDs) {
		t.Fatalf("ids = %v, want %v", ids, wantIDs)
	}
	camp := got[0]
	if !camp.IsOnce() || camp.StartTime != "18:00" || camp.Duration != 90 || camp.CourtNumber != 4 {
		t.Errorf("camp = %+v", camp)
	}
	weekly := got[2]
	if weekly.IsOnce() || !reflect.DeepEqual(weekly.DaysOfWeek, []string{"tuesday"}) || weekly.EndDate != "" {
		t.Errorf("weekly = %+v", weekly)
	}
}

func TestImportCapsUnboundedRules(t *testing.T) {
	MaxOccurrencesPerEvent = 5
	t.Cleanup(func() { MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent })

	body := strings.ReplaceAll(`BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//EN
BEGIN:VEVENT
UID:forever
DTSTAMP:20240601T000000Z
DTSTART:20240603T180000Z
RRULE:FREQ=DAILY
END:VEVENT
END:VCALENDAR
`, "\n", "\r\n")
	got, err := Import([]byte(body), time.UTC)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if len(got) != 5 {
		t.Errorf("Import() returned %d classes, want 5", len(got))
	}
}

func TestImportEmpty(t *testing.T) {
	if _, err := Import(nil, time.UTC); err == nil {
		t.Error("Import(nil): want error")
	}
}

func TestFetcherCaching(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"))
	}))

	f := NewFetcher(t.TempDir())
	ctx := context.Background()

	first, err := f.Fetch(ctx, srv.URL+"/feed.ics?token=secret")
	if err != nil || first.FromCache {
		t.Fatalf("first Fetch() = %+v, %v", first, err)
	}
	second, err := f.Fetch(ctx, srv.URL+"/feed.ics?token=secret")
	if err != nil || !second.FromCache || string(second.Body) != string(first.Body) {
		t.Fatalf("second Fetch() = %+v, %v", second, err)
	}

	srv.Close()
	third, err := f.Fetch(ctx, srv.URL+"/feed.ics?token=secret")
	if err != nil || !third.FromCache {
		t.Errorf("Fetch() after shutdown = %+v, %v", third, err)
	}
	if hits != 2 {
		t.Errorf("server hits = %d, want 2", hits)
	}
}

func TestRedactURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://example.com/private/abc.ics?token=x", "https://example.com/...(redacted)"},
		{"not a url", "ics://...(redacted)"},
	}
	for _, tt := range tests {
		if got := redactURL(tt.in); got != tt.want {
			t.Errorf("redactURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "classes.ics")
	classes := []model.ScheduledClass{{
		ID: "o1", Name: "Drop-in", CourtNumber: 1, RecurrenceType: model.RecurrenceOnce,
		StartDate: "2024-06-07", EndDate: "2024-06-07", StartTime: "09:00", Duration: 60,
	}}
	if err := WriteFile(path, classes, time.UTC); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Import(body, time.UTC)
	if err != nil || len(got) != 1 || got[0].ID != "o1" {
		t.Errorf("Import(WriteFile()) = %+v, %v", got, err)
	}
}
