package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"courtcal/internal/calendar"
	"courtcal/internal/config"
	"courtcal/internal/store"
)

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func openStore() (*store.Store, error) {
	return store.Open(conf.Database)
}

// resolveClub returns the club named by id, or the first configured club.
func resolveClub(id string) (config.ClubConfig, error) {
	if id == "" {
		if len(conf.Clubs) == 0 {
			return config.ClubConfig{}, fmt.Errorf("no clubs configured in %s", configPath)
		}
		return conf.Clubs[0], nil
	}
	return conf.Club(id)
}

// loadBoard builds a calendar board over a club's stored classes.
func loadBoard(ctx context.Context, st *store.Store, clubID string) (*calendar.Board, error) {
	engine, err := conf.Engine()
	if err != nil {
		return nil, err
	}
	classes, err := st.ListClasses(ctx, clubID)
	if err != nil {
		return nil, err
	}
	return calendar.NewBoard(engine, classes, st, st), nil
}

// parseDateInput accepts YYYY-MM-DD, "today" or "tomorrow" in the
// configured timezone.
func parseDateInput(input string) (time.Time, error) {
	now := time.Now().In(conf.Location())
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "", "today":
		return calendar.ParseDate(now.Format(calendar.DateLayout))
	case "tomorrow":
		return calendar.ParseDate(now.AddDate(0, 0, 1).Format(calendar.DateLayout))
	}
	parsed, err := calendar.ParseDate(input)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", input)
	}
	return parsed, nil
}

func parseMonthInput(input string) (int, time.Month, error) {
	if input == "" {
		now := time.Now().In(conf.Location())
		return now.Year(), now.Month(), nil
	}
	parsed, err := time.Parse("2006-01", input)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q (expected YYYY-MM)", input)
	}
	return parsed.Year(), parsed.Month(), nil
}
