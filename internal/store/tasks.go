package store

import (
	"database/sql"
	"fmt"
	"time"
)

const taskColumns = `id, date, topic_id, topic_name, planned_minutes, notes,
	is_completed, completed_minutes, created_at`

// InsertTask stores a planned task and returns its assigned id. TopicName
// is whatever the caller snapshotted at creation; it is never refreshed.
func (s *Store) InsertTask(t *PlannedTask) (int64, error) {
	if t.CreatedAt == 0 {
		t.CreatedAt = time.Now().UnixMilli()
	}
	res, err := s.db.Exec(
		`INSERT INTO planned_tasks
		 (date, topic_id, topic_name, planned_minutes, notes, is_completed, completed_minutes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Date, t.TopicID, t.TopicName, t.PlannedMinutes, t.Notes,
		boolToInt(t.IsCompleted), t.CompletedMinutes, t.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}
	id, _ := res.LastInsertId()
	t.ID = id
	return id, nil
}

// GetTask returns the task with the given id, or (nil, nil) when absent.
func (s *Store) GetTask(id int64) (*PlannedTask, error) {
	row := s.db.QueryRow(`SELECT `+taskColumns+` FROM planned_tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	return t, nil
}

// GetAllTasks returns every planned task in insertion order.
func (s *Store) GetAllTasks() ([]PlannedTask, error) {
	return s.queryTasks(`SELECT ` + taskColumns + ` FROM planned_tasks ORDER BY id`)
}

// GetTasksForDate returns the tasks scheduled on one day, oldest created first.
func (s *Store) GetTasksForDate(date string) ([]PlannedTask, error) {
	return s.queryTasks(
		`SELECT `+taskColumns+` FROM planned_tasks WHERE date = ? ORDER BY created_at`, date)
}

// GetPendingTasks returns incomplete tasks on or after fromDate, soonest first.
func (s *Store) GetPendingTasks(fromDate string) ([]PlannedTask, error) {
	return s.queryTasks(
		`SELECT `+taskColumns+` FROM planned_tasks
		 WHERE is_completed = 0 AND date >= ? ORDER BY date`, fromDate)
}

// GetDatesWithPlannedTasksForMonth returns the distinct days of a
// "YYYY-MM" month that have at least one planned task.
func (s *Store) GetDatesWithPlannedTasksForMonth(yearMonth string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT date FROM planned_tasks WHERE date LIKE ? || '-%'`, yearMonth)
	if err != nil {
		return nil, fmt.Errorf("task dates %s: %w", yearMonth, err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

func (s *Store) queryTasks(query string, args ...any) ([]PlannedTask, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []PlannedTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func scanTask(r rowScanner) (*PlannedTask, error) {
	t := &PlannedTask{}
	var topicID sql.NullInt64
	var completed int

	err := r.Scan(&t.ID, &t.Date, &topicID, &t.TopicName, &t.PlannedMinutes, &t.Notes,
		&completed, &t.CompletedMinutes, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	if topicID.Valid {
		t.TopicID = &topicID.Int64
	}
	t.IsCompleted = completed == 1
	return t, nil
}

// UpdateTask replaces the full record by id.
func (s *Store) UpdateTask(t *PlannedTask) error {
	_, err := s.db.Exec(
		`UPDATE planned_tasks SET date = ?, topic_id = ?, topic_name = ?, planned_minutes = ?,
		 notes = ?, is_completed = ?, completed_minutes = ?, created_at = ?
		 WHERE id = ?`,
		t.Date, t.TopicID, t.TopicName, t.PlannedMinutes, t.Notes,
		boolToInt(t.IsCompleted), t.CompletedMinutes, t.CreatedAt,
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("update task %d: %w", t.ID, err)
	}
	return nil
}

// DeleteTask removes the record.
func (s *Store) DeleteTask(id int64) error {
	_, err := s.db.Exec(`DELETE FROM planned_tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	return nil
}

// SetTaskCompleted toggles completion and records the minutes credited for
// it (plannedMinutes on completion, 0 when unticked). Missing tasks are a
// silent no-op.
func (s *Store) SetTaskCompleted(id int64, completed bool, completedMinutes int) error {
	_, err := s.db.Exec(
		`UPDATE planned_tasks SET is_completed = ?, completed_minutes = ? WHERE id = ?`,
		boolToInt(completed), completedMinutes, id,
	)
	if err != nil {
		return fmt.Errorf("complete task %d: %w", id, err)
	}
	return nil
}
