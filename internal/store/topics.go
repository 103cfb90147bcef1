package store

import (
	"database/sql"
	"fmt"
	"time"
)

const topicColumns = `id, name, description, created_at, is_completed, is_archived,
	total_study_minutes, current_period_study_minutes, monthly_goal_hours, goal_year_month, sort_order`

// InsertTopic stores a new topic and returns its assigned id. Zero-valued
// fields get the usual defaults (created now, not completed, no minutes).
func (s *Store) InsertTopic(t *Topic) (int64, error) {
	if t.CreatedAt == 0 {
		t.CreatedAt = time.Now().UnixMilli()
	}
	res, err := s.db.Exec(
		`INSERT INTO study_topics
		 (name, description, created_at, is_completed, is_archived,
		  total_study_minutes, current_period_study_minutes, monthly_goal_hours, goal_year_month, sort_order)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Name, t.Description, t.CreatedAt, boolToInt(t.IsCompleted), boolToInt(t.IsArchived),
		t.TotalStudyMinutes, t.CurrentPeriodStudyMinutes, t.MonthlyGoalHours, t.GoalYearMonth, t.SortOrder,
	)
	if err != nil {
		return 0, fmt.Errorf("insert topic: %w", err)
	}
	id, _ := res.LastInsertId()
	t.ID = id
	return id, nil
}

// GetTopic returns the topic with the given id, or (nil, nil) when absent.
func (s *Store) GetTopic(id int64) (*Topic, error) {
	row := s.db.QueryRow(`SELECT `+topicColumns+` FROM study_topics WHERE id = ?`, id)
	t, err := scanTopic(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get topic %d: %w", id, err)
	}
	return t, nil
}

// GetAllTopics returns every topic, explicit sort order first, newest
// created first among equals.
func (s *Store) GetAllTopics() ([]Topic, error) {
	return s.queryTopics(`SELECT ` + topicColumns + ` FROM study_topics ORDER BY sort_order, created_at DESC`)
}

// GetActiveTopics returns topics that are neither completed nor archived.
func (s *Store) GetActiveTopics() ([]Topic, error) {
	return s.queryTopics(`SELECT ` + topicColumns + ` FROM study_topics
		WHERE is_completed = 0 AND is_archived = 0
		ORDER BY sort_order, created_at DESC`)
}

func (s *Store) queryTopics(query string, args ...any) ([]Topic, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	var topics []Topic
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, err
		}
		topics = append(topics, *t)
	}
	return topics, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTopic(r rowScanner) (*Topic, error) {
	t := &Topic{}
	var completed, archived int
	var goalHours sql.NullFloat64
	var goalMonth sql.NullString

	err := r.Scan(&t.ID, &t.Name, &t.Description, &t.CreatedAt, &completed, &archived,
		&t.TotalStudyMinutes, &t.CurrentPeriodStudyMinutes, &goalHours, &goalMonth, &t.SortOrder)
	if err != nil {
		return nil, err
	}
	t.IsCompleted = completed == 1
	t.IsArchived = archived == 1
	if goalHours.Valid {
		t.MonthlyGoalHours = &goalHours.Float64
	}
	if goalMonth.Valid {
		t.GoalYearMonth = &goalMonth.String
	}
	return t, nil
}

// UpdateTopic replaces the full record by id.
func (s *Store) UpdateTopic(t *Topic) error {
	_, err := s.db.Exec(
		`UPDATE study_topics SET name = ?, description = ?, created_at = ?, is_completed = ?, is_archived = ?,
		 total_study_minutes = ?, current_period_study_minutes = ?, monthly_goal_hours = ?, goal_year_month = ?, sort_order = ?
		 WHERE id = ?`,
		t.Name, t.Description, t.CreatedAt, boolToInt(t.IsCompleted), boolToInt(t.IsArchived),
		t.TotalStudyMinutes, t.CurrentPeriodStudyMinutes, t.MonthlyGoalHours, t.GoalYearMonth, t.SortOrder,
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("update topic %d: %w", t.ID, err)
	}
	return nil
}

// DeleteTopic removes the topic only. Sessions and planned tasks keep their
// topic_id; readers resolve the dangling reference to "no topic".
func (s *Store) DeleteTopic(id int64) error {
	_, err := s.db.Exec(`DELETE FROM study_topics WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete topic %d: %w", id, err)
	}
	return nil
}

// AddStudyMinutesToTopic adds deltaMinutes (possibly negative) to both the
// historical total and the current-period counter. Missing topics are a
// silent no-op. The single UPDATE keeps concurrent adjustments from losing
// each other.
func (s *Store) AddStudyMinutesToTopic(id int64, deltaMinutes int) error {
	_, err := s.db.Exec(
		`UPDATE study_topics
		 SET total_study_minutes = total_study_minutes + ?,
		     current_period_study_minutes = current_period_study_minutes + ?
		 WHERE id = ?`,
		deltaMinutes, deltaMinutes, id,
	)
	if err != nil {
		return fmt.Errorf("add minutes to topic %d: %w", id, err)
	}
	return nil
}

// SetTopicCompleted flips the completion flag. No-op when absent.
func (s *Store) SetTopicCompleted(id int64, completed bool) error {
	_, err := s.db.Exec(`UPDATE study_topics SET is_completed = ? WHERE id = ?`, boolToInt(completed), id)
	return err
}

// SetTopicArchived flips the archive flag. No-op when absent.
func (s *Store) SetTopicArchived(id int64, archived bool) error {
	_, err := s.db.Exec(`UPDATE study_topics SET is_archived = ? WHERE id = ?`, boolToInt(archived), id)
	return err
}

// ResetTopicCycle zeroes the current-period counter without touching the
// historical total.
func (s *Store) ResetTopicCycle(id int64) error {
	_, err := s.db.Exec(`UPDATE study_topics SET current_period_study_minutes = 0 WHERE id = ?`, id)
	return err
}

// SetTopicOrder persists an explicit ordering: each id gets its position
// (starting at 1) as sort_order.
func (s *Store) SetTopicOrder(ids []int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("set topic order: %w", err)
	}
	for i, id := range ids {
		if _, err := tx.Exec(`UPDATE study_topics SET sort_order = ? WHERE id = ?`, i+1, id); err != nil {
			tx.Rollback()
			return fmt.Errorf("set topic order: %w", err)
		}
	}
	return tx.Commit()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
