package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"courtcal/internal/calendar"
	"courtcal/internal/schedule"
	"courtcal/internal/weekday"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions.

// GridConfig describes the visible day window of the calendar.
type GridConfig struct {
	// Granularity is the slot size in minutes.
	Granularity int `yaml:"granularity" json:"granularity"`
	// Start and End bound the window as "HH:MM"; End is exclusive.
	Start string `yaml:"start" json:"start"`
	End   string `yaml:"end" json:"end"`
}

type MonthConfig struct {
	// MaxInline is how many classes a month cell lists before "+N more".
	MaxInline int `yaml:"max_inline" json:"max_inline"`
}

// ExportConfig controls the periodic ICS export run by `serve`.
type ExportConfig struct {
	// Cron is a cron-style schedule string (e.g. "*/15 * * * *").
	Cron string `yaml:"cron" json:"cron"`
	// Path is where the ICS file is written. Empty disables the job.
	Path string `yaml:"path" json:"path"`
}

// TrainerConfig is a trainer available at a club.
type TrainerConfig struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// ClubConfig is the directory entry of a single club.
type ClubConfig struct {
	ID       string          `yaml:"id" json:"id"`
	Name     string          `yaml:"name" json:"name"`
	Courts   []int           `yaml:"courts" json:"courts"`
	Trainers []TrainerConfig `yaml:"trainers" json:"trainers"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone classes are scheduled in (e.g. "Europe/Madrid").
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart controls which weekday is treated as the first day of the week
	// in calendar views. Supported values:
	//   - "monday" (default)
	//   - "sunday"
	WeekStart string `yaml:"week_start" json:"week_start"`

	// Locale selects weekday labels ("en", "es", "ca", "pt", "fr", "it", "ko").
	Locale string `yaml:"locale" json:"locale"`

	// LogLevel is the minimum log level: debug, info, warn or error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Database is the SQLite file holding committed classes.
	Database string `yaml:"database" json:"database"`

	Grid      GridConfig       `yaml:"grid" json:"grid"`
	Month     MonthConfig      `yaml:"month" json:"month"`
	Generator schedule.Options `yaml:"generator" json:"generator"`
	Export    ExportConfig     `yaml:"export" json:"export"`

	// Clubs is the directory of clubs with their courts and trainers.
	Clubs []ClubConfig `yaml:"clubs" json:"clubs"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:    "127.0.0.1:8080",
		Timezone:  "Europe/Madrid",
		WeekStart: "monday",
		Locale:    "en",
		LogLevel:  "info",
		Database:  "courtcal.db",
		Grid: GridConfig{
			Granularity: calendar.DefaultGranularity,
			Start:       calendar.DefaultGridStart,
			End:         calendar.DefaultGridEnd,
		},
		Month: MonthConfig{MaxInline: calendar.DefaultMaxInline},
		Generator: schedule.Options{
			WarnThreshold: 300,
			MaxInstances:  5000,
		},
		Export: ExportConfig{Cron: "*/15 * * * *"},
		Clubs:  []ClubConfig{},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	switch c.WeekStart {
	case "monday", "sunday":
	default:
		// Unknown value; fall back to monday to avoid surprising layouts.
		c.WeekStart = "monday"
	}
	if c.Locale == "" {
		c.Locale = def.Locale
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.Database == "" {
		c.Database = def.Database
	}
	if c.Grid.Granularity <= 0 {
		c.Grid.Granularity = def.Grid.Granularity
	}
	if c.Grid.Start == "" {
		c.Grid.Start = def.Grid.Start
	}
	if c.Grid.End == "" {
		c.Grid.End = def.Grid.End
	}
	if c.Month.MaxInline <= 0 {
		c.Month.MaxInline = def.Month.MaxInline
	}
	if c.Generator.WarnThreshold <= 0 {
		c.Generator.WarnThreshold = def.Generator.WarnThreshold
	}
	if c.Generator.MaxInstances <= 0 {
		c.Generator.MaxInstances = def.Generator.MaxInstances
	}
	if c.Export.Cron == "" {
		c.Export.Cron = def.Export.Cron
	}
	if c.Clubs == nil {
		c.Clubs = []ClubConfig{}
	}
}

// Location resolves Timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// FirstWeekday is WeekStart as a weekday.
func (c *Config) FirstWeekday() weekday.Weekday {
	if c.WeekStart == "sunday" {
		return weekday.Sunday
	}
	return weekday.Monday
}

// Engine builds the calendar layout engine described by the grid, week start
// and month settings.
func (c *Config) Engine() (*calendar.Engine, error) {
	grid, err := calendar.NewGrid(c.Grid.Granularity, c.Grid.Start, c.Grid.End)
	if err != nil {
		return nil, fmt.Errorf("grid: %w", err)
	}
	return calendar.NewEngine(grid, c.FirstWeekday(), c.Month.MaxInline), nil
}

var ErrUnknownClub = errors.New("unknown club")

// Club looks up a club by id.
func (c *Config) Club(id string) (ClubConfig, error) {
	i := slices.IndexFunc(c.Clubs, func(cl ClubConfig) bool { return cl.ID == id })
	if i < 0 {
		return ClubConfig{}, fmt.Errorf("%w: %q", ErrUnknownClub, id)
	}
	return c.Clubs[i], nil
}

// ScheduleTrainers returns the club's trainers in directory order.
func (cl ClubConfig) ScheduleTrainers() []schedule.Trainer {
	out := make([]schedule.Trainer, 0, len(cl.Trainers))
	for _, t := range cl.Trainers {
		out = append(out, schedule.Trainer{ID: t.ID, Name: t.Name})
	}
	return out
}

// Pools selects courts and trainers from the club by number and id, in
// selection order. With nothing selected it takes every trainer and as many
// courts as there are trainers.
func (cl ClubConfig) Pools(courts []int, trainerIDs []string) (schedule.ResourcePools, error) {
	known := cl.ScheduleTrainers()
	if len(courts) == 0 && len(trainerIDs) == 0 {
		for _, t := range known {
			trainerIDs = append(trainerIDs, t.ID)
		}
		courts = cl.Courts[:min(len(cl.Courts), len(known))]
	}

	var pools schedule.ResourcePools
	for _, id := range trainerIDs {
		i := slices.IndexFunc(known, func(t schedule.Trainer) bool { return t.ID == id })
		if i < 0 {
			return pools, fmt.Errorf("unknown trainer %q at club %s", id, cl.ID)
		}
		if err := pools.AddTrainer(known[i]); err != nil {
			return pools, err
		}
	}
	for _, n := range courts {
		if !slices.Contains(cl.Courts, n) {
			return pools, fmt.Errorf("unknown court %d at club %s", n, cl.ID)
		}
		if err := pools.AddCourt(n); err != nil {
			return pools, err
		}
	}
	return pools, nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path atomically
// (temp file + rename) with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".courtcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func (c *Config) Save(path string) error {
	return Save(path, c)
}
