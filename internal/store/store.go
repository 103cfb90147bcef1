package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

// ErrInvalidSnapshot is returned by ImportAllData when the snapshot lacks
// the required collections. Nothing is mutated in that case.
var ErrInvalidSnapshot = errors.New("invalid backup snapshot")

type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single-writer by design; one connection also keeps :memory: stores
	// from silently splitting into independent databases.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	// topic_id columns carry no FOREIGN KEY constraint on purpose: deleting
	// a topic leaves dangling references that readers resolve to "no topic".
	const ddl = `
	CREATE TABLE IF NOT EXISTS study_topics (
		id                           INTEGER PRIMARY KEY AUTOINCREMENT,
		name                         TEXT NOT NULL,
		description                  TEXT NOT NULL DEFAULT '',
		created_at                   INTEGER NOT NULL,
		is_completed                 INTEGER NOT NULL DEFAULT 0,
		is_archived                  INTEGER NOT NULL DEFAULT 0,
		total_study_minutes          INTEGER NOT NULL DEFAULT 0,
		current_period_study_minutes INTEGER NOT NULL DEFAULT 0,
		monthly_goal_hours           REAL,
		goal_year_month              TEXT,
		sort_order                   INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_topics_name      ON study_topics(name);
	CREATE INDEX IF NOT EXISTS idx_topics_completed ON study_topics(is_completed);
	CREATE INDEX IF NOT EXISTS idx_topics_archived  ON study_topics(is_archived);
	CREATE INDEX IF NOT EXISTS idx_topics_created   ON study_topics(created_at);

	CREATE TABLE IF NOT EXISTS monthly_goals (
		year_month   TEXT PRIMARY KEY,
		target_hours REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS daily_records (
		date          TEXT PRIMARY KEY,
		study_minutes INTEGER NOT NULL DEFAULT 0,
		topic_id      INTEGER,
		notes         TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS study_sessions (
		id                     INTEGER PRIMARY KEY AUTOINCREMENT,
		start_time             INTEGER NOT NULL,
		end_time               INTEGER NOT NULL DEFAULT 0,
		duration_minutes       INTEGER NOT NULL DEFAULT 0,
		topic_id               INTEGER,
		is_pomodoro            INTEGER NOT NULL DEFAULT 0,
		pomodoro_work_minutes  INTEGER NOT NULL DEFAULT 0,
		pomodoro_break_minutes INTEGER NOT NULL DEFAULT 0,
		date                   TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_date  ON study_sessions(date);
	CREATE INDEX IF NOT EXISTS idx_sessions_topic ON study_sessions(topic_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_start ON study_sessions(start_time);

	CREATE TABLE IF NOT EXISTS planned_tasks (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		date              TEXT NOT NULL,
		topic_id          INTEGER,
		topic_name        TEXT NOT NULL DEFAULT '',
		planned_minutes   INTEGER NOT NULL DEFAULT 0,
		notes             TEXT NOT NULL DEFAULT '',
		is_completed      INTEGER NOT NULL DEFAULT 0,
		completed_minutes INTEGER NOT NULL DEFAULT 0,
		created_at        INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_date      ON planned_tasks(date);
	CREATE INDEX IF NOT EXISTS idx_tasks_topic     ON planned_tasks(topic_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_completed ON planned_tasks(is_completed);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO settings (key, value) VALUES
		('pomodoro_work',       '50'),
		('pomodoro_break',      '10'),
		('pomodoro_long_break', '30'),
		('pomodoro_count',      '4'),
		('sound_enabled',       '1');
	`
	_, err := s.db.Exec(ddl)
	return err
}

// DefaultDBPath returns ~/.config/oposita/oposita.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "oposita", "oposita.db"), nil
}

// DayString formats a point in time as the local "YYYY-MM-DD" day used to
// key daily records and session dates.
func DayString(t time.Time) string {
	return t.Format("2006-01-02")
}

// MonthString formats a point in time as the local "YYYY-MM" key used by
// monthly goals.
func MonthString(t time.Time) string {
	return t.Format("2006-01")
}
