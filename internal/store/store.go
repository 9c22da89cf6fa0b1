// Package store is the SQLite-backed persistence collaborator for scheduled
// classes.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"courtcal/internal/calendar"
	appLog "courtcal/internal/log"
	"courtcal/internal/model"
	"courtcal/internal/schedule"
	"courtcal/internal/weekday"
)

var (
	ErrSlotTaken     = errors.New("court already has a class at that day and time")
	ErrClassNotFound = errors.New("class not found")
)

// Store keeps classes in a single SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path is empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func ensureSchema(db *sql.DB) error {
	createClasses := `
CREATE TABLE IF NOT EXISTS classes (
  id TEXT PRIMARY KEY,
  batch_id TEXT,
  club_id TEXT NOT NULL,
  name TEXT,
  trainer_id TEXT,
  trainer_name TEXT,
  court INTEGER NOT NULL,
  days_of_week TEXT,
  start_date TEXT,
  end_date TEXT,
  recurrence_type TEXT NOT NULL,
  start_time TEXT NOT NULL,
  duration INTEGER,
  price REAL,
  capacity INTEGER,
  level_from REAL,
  level_to REAL,
  participants TEXT,
  created_at TEXT
);`

	// One row per day a class occupies: the pinned date of a one-off class,
	// or each weekday key of a weekly class.
	createSlots := `
CREATE TABLE IF NOT EXISTS class_slots (
  class_id TEXT NOT NULL,
  club_id TEXT NOT NULL,
  court INTEGER NOT NULL,
  slot_day TEXT NOT NULL,
  start_time TEXT NOT NULL
);`

	createBatches := `
CREATE TABLE IF NOT EXISTS batches (
  id TEXT PRIMARY KEY,
  club_id TEXT,
  config TEXT,
  submitted INTEGER,
  created_at TEXT
);`

	if _, err := db.Exec(createClasses); err != nil {
		return fmt.Errorf("create classes table: %w", err)
	}
	if _, err := db.Exec(createSlots); err != nil {
		return fmt.Errorf("create class_slots table: %w", err)
	}
	if _, err := db.Exec(createBatches); err != nil {
		return fmt.Errorf("create batches table: %w", err)
	}
	if _, err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_class_slots_slot ON class_slots(club_id, court, slot_day, start_time);"); err != nil {
		return fmt.Errorf("create class_slots slot index: %w", err)
	}
	if _, err := db.Exec("CREATE INDEX IF NOT EXISTS idx_class_slots_class ON class_slots(class_id);"); err != nil {
		return fmt.Errorf("create class_slots class index: %w", err)
	}
	if _, err := db.Exec("CREATE INDEX IF NOT EXISTS idx_classes_club ON classes(club_id);"); err != nil {
		return fmt.Errorf("create classes club index: %w", err)
	}
	return nil
}

// slotDays are the day parts of the uniqueness key: the pinned date of a
// one-off class, or each canonical weekday key of a weekly class.
func slotDays(c model.ScheduledClass) []string {
	if c.IsOnce() {
		return []string{c.StartDate}
	}
	keys := make([]string, 0, len(c.DaysOfWeek))
	for _, label := range c.DaysOfWeek {
		key := weekday.Fold(label)
		if d, ok := weekday.Canonicalize(label); ok {
			key = d.Key()
		}
		if !slices.Contains(keys, key) {
			keys = append(keys, key)
		}
	}
	return keys
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// claimSlots replaces the slot rows of c. The unique index rejects a day and
// time already held on the same court.
func claimSlots(ctx context.Context, ex execer, c model.ScheduledClass) error {
	if _, err := ex.ExecContext(ctx, "DELETE FROM class_slots WHERE class_id = ?", c.ID); err != nil {
		return err
	}
	for _, day := range slotDays(c) {
		if _, err := ex.ExecContext(ctx,
			"INSERT INTO class_slots (class_id, club_id, court, slot_day, start_time) VALUES (?, ?, ?, ?, ?);",
			c.ID, c.ClubID, c.CourtNumber, day, c.StartTime,
		); err != nil {
			return err
		}
	}
	return nil
}

// inTx runs fn inside a transaction, committing when it returns nil.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// SaveClasses inserts every item of the batch independently and reports a
// result per item. Only a failure to record the batch itself is an error.
func (s *Store) SaveClasses(ctx context.Context, batch schedule.CommitBatch) ([]schedule.ItemResult, error) {
	batchID := uuid.NewString()
	cfg, err := json.Marshal(batch.Config)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC().Format(time.RFC3339)
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO batches (id, club_id, config, submitted, created_at) VALUES (?, ?, ?, ?, ?);",
		batchID, batch.ClubID, string(cfg), len(batch.Items), now,
	); err != nil {
		return nil, fmt.Errorf("record batch: %w", err)
	}

	results := make([]schedule.ItemResult, 0, len(batch.Items))
	for _, it := range batch.Items {
		c := it.Class
		if c.ClubID == "" {
			c.ClubID = batch.ClubID
		}
		c.ID = uuid.NewString()
		err := s.inTx(ctx, func(tx *sql.Tx) error {
			return insert(ctx, tx, batchID, c, now)
		})
		if err != nil {
			msg := err.Error()
			if isUniqueViolation(err) {
				msg = ErrSlotTaken.Error()
			}
			results = append(results, schedule.ItemResult{Ref: it.Ref, Error: msg})
			continue
		}
		results = append(results, schedule.ItemResult{Ref: it.Ref, ID: c.ID})
	}

	appLog.Info("store: batch saved", "batch", batchID, "club", batch.ClubID, "items", len(batch.Items))
	return results, nil
}

func insert(ctx context.Context, ex execer, batchID string, c model.ScheduledClass, createdAt string) error {
	participants, err := json.Marshal(c.Participants)
	if err != nil {
		return err
	}
	query := `
INSERT INTO classes (
  id, batch_id, club_id, name, trainer_id, trainer_name, court, days_of_week, start_date, end_date,
  recurrence_type, start_time, duration, price, capacity, level_from, level_to, participants, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	if _, err := ex.ExecContext(ctx, query,
		c.ID,
		batchID,
		c.ClubID,
		c.Name,
		c.TrainerID,
		c.TrainerName,
		c.CourtNumber,
		strings.Join(c.DaysOfWeek, ","),
		c.StartDate,
		c.EndDate,
		c.RecurrenceType,
		c.StartTime,
		c.Duration,
		c.Price,
		c.Capacity,
		c.LevelFrom,
		c.LevelTo,
		string(participants),
		createdAt,
	); err != nil {
		return err
	}
	return claimSlots(ctx, ex, c)
}

const selectClasses = `
SELECT id, club_id, name, trainer_id, trainer_name, court, days_of_week, start_date, end_date,
  recurrence_type, start_time, duration, price, capacity, level_from, level_to, participants
FROM classes`

// ListClasses returns the classes of a club ordered by court and start time.
// An empty clubID lists every club.
func (s *Store) ListClasses(ctx context.Context, clubID string) ([]model.ScheduledClass, error) {
	query := selectClasses
	args := []any{}
	if clubID != "" {
		query += " WHERE club_id = ?"
		args = append(args, clubID)
	}
	query += " ORDER BY club_id, court, start_time, start_date, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	classes := []model.ScheduledClass{}
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return classes, nil
}

// Get loads one class.
func (s *Store) Get(ctx context.Context, id string) (model.ScheduledClass, error) {
	row := s.db.QueryRowContext(ctx, selectClasses+" WHERE id = ?", id)
	c, err := scanClass(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ScheduledClass{}, fmt.Errorf("%w: %s", ErrClassNotFound, id)
	}
	return c, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClass(sc scanner) (model.ScheduledClass, error) {
	var c model.ScheduledClass
	var days, participants sql.NullString
	var trainerName, startDate, endDate sql.NullString
	if err := sc.Scan(
		&c.ID,
		&c.ClubID,
		&c.Name,
		&c.TrainerID,
		&trainerName,
		&c.CourtNumber,
		&days,
		&startDate,
		&endDate,
		&c.RecurrenceType,
		&c.StartTime,
		&c.Duration,
		&c.Price,
		&c.Capacity,
		&c.LevelFrom,
		&c.LevelTo,
		&participants,
	); err != nil {
		return c, err
	}
	c.TrainerName = trainerName.String
	c.StartDate = startDate.String
	c.EndDate = endDate.String
	if days.Valid && days.String != "" {
		c.DaysOfWeek = strings.Split(days.String, ",")
	}
	if participants.Valid && participants.String != "" && participants.String != "null" {
		if err := json.Unmarshal([]byte(participants.String), &c.Participants); err != nil {
			return c, fmt.Errorf("decode participants of %s: %w", c.ID, err)
		}
	}
	return c, nil
}

// Relocate moves a class to the day and time of intent, storing any class
// split off a weekly series in the same transaction. The unique slot index
// rejects a destination taken in the meantime with ErrSlotTaken.
func (s *Store) Relocate(ctx context.Context, intent calendar.RelocationIntent) error {
	c, err := s.Get(ctx, intent.ClassID)
	if err != nil {
		return err
	}
	moved, split := calendar.Apply(c, intent)

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"UPDATE classes SET start_time = ?, days_of_week = ?, start_date = ?, end_date = ? WHERE id = ?;",
			moved.StartTime,
			strings.Join(moved.DaysOfWeek, ","),
			moved.StartDate,
			moved.EndDate,
			moved.ID,
		); err != nil {
			return err
		}
		if err := claimSlots(ctx, tx, moved); err != nil {
			return err
		}
		if split == nil {
			return nil
		}
		var batchID sql.NullString
		if err := tx.QueryRowContext(ctx, "SELECT batch_id FROM classes WHERE id = ?", c.ID).Scan(&batchID); err != nil {
			return err
		}
		return insert(ctx, tx, batchID.String, *split, s.now().UTC().Format(time.RFC3339))
	})
	if isUniqueViolation(err) {
		return ErrSlotTaken
	}
	return err
}

// Remove deletes a class, freeing its slots.
func (s *Store) Remove(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM classes WHERE id = ?", id)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return fmt.Errorf("%w: %s", ErrClassNotFound, id)
		}
		_, err = tx.ExecContext(ctx, "DELETE FROM class_slots WHERE class_id = ?", id)
		return err
	})
}
