package store

import (
	"fmt"
	"time"
)

// Snapshot is the whole-database backup document. Its JSON shape is the
// external boundary: five arrays of full records plus a schema version and
// export timestamp, stable across the collections' internal ordering.
type Snapshot struct {
	Version       int            `json:"version"`
	ExportDate    string         `json:"exportDate"` // RFC 3339
	Topics        []Topic        `json:"topics"`
	MonthlyGoals  []MonthlyGoal  `json:"monthlyGoals"`
	DailyRecords  []DailyRecord  `json:"dailyRecords"`
	StudySessions []StudySession `json:"studySessions"`
	PlannedTasks  []PlannedTask  `json:"plannedTasks"`
}

// Valid reports whether the snapshot carries the collections an import
// requires. A file missing both topics and studySessions is not a backup.
func (snap *Snapshot) Valid() bool {
	return snap != nil && (snap.Topics != nil || snap.StudySessions != nil)
}

// ExportAllData reads all five collections into one snapshot.
func (s *Store) ExportAllData() (*Snapshot, error) {
	snap := &Snapshot{
		Version:    currentVersion,
		ExportDate: time.Now().UTC().Format(time.RFC3339),
	}

	var err error
	if snap.Topics, err = s.GetAllTopics(); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if snap.MonthlyGoals, err = s.GetAllGoals(); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if snap.DailyRecords, err = s.GetAllRecords(); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if snap.StudySessions, err = s.GetAllSessions(); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if snap.PlannedTasks, err = s.GetAllTasks(); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return snap, nil
}

// ImportAllData replaces the entire database with the snapshot's contents,
// keeping every record's original id. The whole import runs in one
// transaction: on any failure the store is left exactly as it was.
func (s *Store) ImportAllData(snap *Snapshot) error {
	if !snap.Valid() {
		return fmt.Errorf("%w: missing topics and studySessions", ErrInvalidSnapshot)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"study_topics", "monthly_goals", "daily_records", "study_sessions", "planned_tasks"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("import: clear %s: %w", table, err)
		}
	}

	for i := range snap.Topics {
		t := &snap.Topics[i]
		_, err := tx.Exec(
			`INSERT INTO study_topics
			 (id, name, description, created_at, is_completed, is_archived,
			  total_study_minutes, current_period_study_minutes, monthly_goal_hours, goal_year_month, sort_order)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.Name, t.Description, t.CreatedAt, boolToInt(t.IsCompleted), boolToInt(t.IsArchived),
			t.TotalStudyMinutes, t.CurrentPeriodStudyMinutes, t.MonthlyGoalHours, t.GoalYearMonth, t.SortOrder,
		)
		if err != nil {
			return fmt.Errorf("import: topic %d: %w", t.ID, err)
		}
	}

	for _, g := range snap.MonthlyGoals {
		_, err := tx.Exec(
			`INSERT INTO monthly_goals (year_month, target_hours) VALUES (?, ?)`,
			g.YearMonth, g.TargetHours,
		)
		if err != nil {
			return fmt.Errorf("import: goal %s: %w", g.YearMonth, err)
		}
	}

	for i := range snap.DailyRecords {
		r := &snap.DailyRecords[i]
		_, err := tx.Exec(
			`INSERT INTO daily_records (date, study_minutes, topic_id, notes) VALUES (?, ?, ?, ?)`,
			r.Date, r.StudyMinutes, r.TopicID, r.Notes,
		)
		if err != nil {
			return fmt.Errorf("import: record %s: %w", r.Date, err)
		}
	}

	for i := range snap.StudySessions {
		sess := &snap.StudySessions[i]
		_, err := tx.Exec(
			`INSERT INTO study_sessions
			 (id, start_time, end_time, duration_minutes, topic_id, is_pomodoro,
			  pomodoro_work_minutes, pomodoro_break_minutes, date)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sess.ID, sess.StartTime, sess.EndTime, sess.DurationMinutes, sess.TopicID,
			boolToInt(sess.IsPomodoroSession), sess.PomodoroWorkMinutes, sess.PomodoroBreakMinutes, sess.Date,
		)
		if err != nil {
			return fmt.Errorf("import: session %d: %w", sess.ID, err)
		}
	}

	for i := range snap.PlannedTasks {
		t := &snap.PlannedTasks[i]
		_, err := tx.Exec(
			`INSERT INTO planned_tasks
			 (id, date, topic_id, topic_name, planned_minutes, notes, is_completed, completed_minutes, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.Date, t.TopicID, t.TopicName, t.PlannedMinutes, t.Notes,
			boolToInt(t.IsCompleted), t.CompletedMinutes, t.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("import: task %d: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	return nil
}
