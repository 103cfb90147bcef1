package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Compound operations. Each one bundles a session write with its
// compensating aggregate updates in a single transaction, so the topic and
// daily totals can never drift from the ledger halfway through.

// CommitSession inserts a session, adds its duration to the day's record,
// and, when a topic is set, to that topic's counters. Returns the new
// session id.
func (s *Store) CommitSession(sess *StudySession) (int64, error) {
	if sess.StartTime == 0 {
		sess.StartTime = time.Now().UnixMilli()
	}
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("commit session: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO study_sessions
		 (start_time, end_time, duration_minutes, topic_id, is_pomodoro,
		  pomodoro_work_minutes, pomodoro_break_minutes, date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.StartTime, sess.EndTime, sess.DurationMinutes, sess.TopicID,
		boolToInt(sess.IsPomodoroSession), sess.PomodoroWorkMinutes, sess.PomodoroBreakMinutes, sess.Date,
	)
	if err != nil {
		return 0, fmt.Errorf("commit session: %w", err)
	}
	id, _ := res.LastInsertId()

	_, err = tx.Exec(
		`INSERT INTO daily_records (date, study_minutes, topic_id, notes) VALUES (?, ?, NULL, '')
		 ON CONFLICT(date) DO UPDATE SET study_minutes = study_minutes + excluded.study_minutes`,
		sess.Date, sess.DurationMinutes,
	)
	if err != nil {
		return 0, fmt.Errorf("commit session: daily record: %w", err)
	}

	if sess.TopicID != nil {
		if err := addTopicMinutesTx(tx, *sess.TopicID, sess.DurationMinutes); err != nil {
			return 0, fmt.Errorf("commit session: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit session: %w", err)
	}
	sess.ID = id
	return id, nil
}

// EditSession reassigns a session's topic and/or duration, applying the
// exact compensating delta to the affected topic counters: never a full
// recompute. The session's date is left untouched, and so is the daily
// record (an inherited quirk: daily totals only ever grow). Editing a
// missing session is a silent no-op.
func (s *Store) EditSession(id int64, newTopicID *int64, newDurationMinutes int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("edit session %d: %w", id, err)
	}
	defer tx.Rollback()

	var startTime int64
	var oldDuration int
	var oldTopic sql.NullInt64
	err = tx.QueryRow(
		`SELECT start_time, duration_minutes, topic_id FROM study_sessions WHERE id = ?`, id,
	).Scan(&startTime, &oldDuration, &oldTopic)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("edit session %d: %w", id, err)
	}

	oldTopicID := int64(0)
	newTopic := int64(0)
	if oldTopic.Valid {
		oldTopicID = oldTopic.Int64
	}
	if newTopicID != nil {
		newTopic = *newTopicID
	}

	switch {
	case oldTopicID != newTopic:
		if oldTopic.Valid {
			if err := addTopicMinutesTx(tx, oldTopic.Int64, -oldDuration); err != nil {
				return fmt.Errorf("edit session %d: %w", id, err)
			}
		}
		if newTopicID != nil {
			if err := addTopicMinutesTx(tx, *newTopicID, newDurationMinutes); err != nil {
				return fmt.Errorf("edit session %d: %w", id, err)
			}
		}
	case newDurationMinutes != oldDuration && newTopicID != nil:
		if err := addTopicMinutesTx(tx, *newTopicID, newDurationMinutes-oldDuration); err != nil {
			return fmt.Errorf("edit session %d: %w", id, err)
		}
	}

	endTime := startTime + int64(newDurationMinutes)*60_000
	_, err = tx.Exec(
		`UPDATE study_sessions SET topic_id = ?, duration_minutes = ?, end_time = ? WHERE id = ?`,
		newTopicID, newDurationMinutes, endTime, id,
	)
	if err != nil {
		return fmt.Errorf("edit session %d: %w", id, err)
	}
	return tx.Commit()
}

// RemoveSession deletes a session and subtracts its duration from its
// topic, symmetrically with insertion. The daily record keeps the minutes
// (same inherited quirk as EditSession). Missing sessions are a silent
// no-op.
func (s *Store) RemoveSession(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("remove session %d: %w", id, err)
	}
	defer tx.Rollback()

	var duration int
	var topicID sql.NullInt64
	err = tx.QueryRow(
		`SELECT duration_minutes, topic_id FROM study_sessions WHERE id = ?`, id,
	).Scan(&duration, &topicID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("remove session %d: %w", id, err)
	}

	if topicID.Valid {
		if err := addTopicMinutesTx(tx, topicID.Int64, -duration); err != nil {
			return fmt.Errorf("remove session %d: %w", id, err)
		}
	}

	if _, err := tx.Exec(`DELETE FROM study_sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("remove session %d: %w", id, err)
	}
	return tx.Commit()
}

// AddTimeToTopic credits minutes studied off the clock: a synthetic
// session ending now plus the topic counter bump, in one transaction.
// Returns the new session id.
func (s *Store) AddTimeToTopic(topicID int64, minutes int) (int64, error) {
	now := time.Now()
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("add time to topic %d: %w", topicID, err)
	}
	defer tx.Rollback()

	if err := addTopicMinutesTx(tx, topicID, minutes); err != nil {
		return 0, fmt.Errorf("add time to topic %d: %w", topicID, err)
	}

	end := now.UnixMilli()
	start := end - int64(minutes)*60_000
	res, err := tx.Exec(
		`INSERT INTO study_sessions
		 (start_time, end_time, duration_minutes, topic_id, is_pomodoro,
		  pomodoro_work_minutes, pomodoro_break_minutes, date)
		 VALUES (?, ?, ?, ?, 0, 0, 0, ?)`,
		start, end, minutes, topicID, DayString(now),
	)
	if err != nil {
		return 0, fmt.Errorf("add time to topic %d: %w", topicID, err)
	}
	id, _ := res.LastInsertId()

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("add time to topic %d: %w", topicID, err)
	}
	return id, nil
}

func addTopicMinutesTx(tx *sql.Tx, topicID int64, delta int) error {
	_, err := tx.Exec(
		`UPDATE study_topics
		 SET total_study_minutes = total_study_minutes + ?,
		     current_period_study_minutes = current_period_study_minutes + ?
		 WHERE id = ?`,
		delta, delta, topicID,
	)
	return err
}
