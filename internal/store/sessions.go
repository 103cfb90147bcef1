package store

import (
	"database/sql"
	"fmt"
	"time"
)

const sessionColumns = `id, start_time, end_time, duration_minutes, topic_id,
	is_pomodoro, pomodoro_work_minutes, pomodoro_break_minutes, date`

// InsertSession stores a session record and returns its assigned id. This
// is the low-level primitive: it touches no aggregates. Callers that want
// topic and daily totals to follow should use CommitSession instead.
func (s *Store) InsertSession(sess *StudySession) (int64, error) {
	if sess.StartTime == 0 {
		sess.StartTime = time.Now().UnixMilli()
	}
	res, err := s.db.Exec(
		`INSERT INTO study_sessions
		 (start_time, end_time, duration_minutes, topic_id, is_pomodoro,
		  pomodoro_work_minutes, pomodoro_break_minutes, date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.StartTime, sess.EndTime, sess.DurationMinutes, sess.TopicID,
		boolToInt(sess.IsPomodoroSession), sess.PomodoroWorkMinutes, sess.PomodoroBreakMinutes, sess.Date,
	)
	if err != nil {
		return 0, fmt.Errorf("insert session: %w", err)
	}
	id, _ := res.LastInsertId()
	sess.ID = id
	return id, nil
}

// GetSession returns the session with the given id, or (nil, nil) when absent.
func (s *Store) GetSession(id int64) (*StudySession, error) {
	row := s.db.QueryRow(`SELECT `+sessionColumns+` FROM study_sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session %d: %w", id, err)
	}
	return sess, nil
}

// GetAllSessions returns every session, most recent start first.
func (s *Store) GetAllSessions() ([]StudySession, error) {
	return s.querySessions(`SELECT ` + sessionColumns + ` FROM study_sessions ORDER BY start_time DESC`)
}

// GetSessionsForDate returns the sessions of one calendar day, most recent first.
func (s *Store) GetSessionsForDate(date string) ([]StudySession, error) {
	return s.querySessions(
		`SELECT `+sessionColumns+` FROM study_sessions WHERE date = ? ORDER BY start_time DESC`, date)
}

// GetSessionsForTopic returns every session referencing the topic, most
// recent first.
func (s *Store) GetSessionsForTopic(topicID int64) ([]StudySession, error) {
	return s.querySessions(
		`SELECT `+sessionColumns+` FROM study_sessions WHERE topic_id = ? ORDER BY start_time DESC`, topicID)
}

// GetTotalMinutesForMonth sums session durations for a "YYYY-MM" month.
func (s *Store) GetTotalMinutesForMonth(yearMonth string) (int, error) {
	var total sql.NullInt64
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(duration_minutes), 0) FROM study_sessions WHERE date LIKE ? || '-%'`,
		yearMonth,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("month total %s: %w", yearMonth, err)
	}
	return int(total.Int64), nil
}

func (s *Store) querySessions(query string, args ...any) ([]StudySession, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []StudySession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

func scanSession(r rowScanner) (*StudySession, error) {
	sess := &StudySession{}
	var topicID sql.NullInt64
	var pomodoro int

	err := r.Scan(&sess.ID, &sess.StartTime, &sess.EndTime, &sess.DurationMinutes, &topicID,
		&pomodoro, &sess.PomodoroWorkMinutes, &sess.PomodoroBreakMinutes, &sess.Date)
	if err != nil {
		return nil, err
	}
	if topicID.Valid {
		sess.TopicID = &topicID.Int64
	}
	sess.IsPomodoroSession = pomodoro == 1
	return sess, nil
}

// UpdateSession replaces the full record by id. The caller must have
// applied any compensating aggregate deltas already; EditSession does both
// in one transaction.
func (s *Store) UpdateSession(sess *StudySession) error {
	_, err := s.db.Exec(
		`UPDATE study_sessions SET start_time = ?, end_time = ?, duration_minutes = ?, topic_id = ?,
		 is_pomodoro = ?, pomodoro_work_minutes = ?, pomodoro_break_minutes = ?, date = ?
		 WHERE id = ?`,
		sess.StartTime, sess.EndTime, sess.DurationMinutes, sess.TopicID,
		boolToInt(sess.IsPomodoroSession), sess.PomodoroWorkMinutes, sess.PomodoroBreakMinutes, sess.Date,
		sess.ID,
	)
	if err != nil {
		return fmt.Errorf("update session %d: %w", sess.ID, err)
	}
	return nil
}

// DeleteSession removes the record without touching aggregates. Callers
// wanting the topic totals adjusted should use RemoveSession.
func (s *Store) DeleteSession(id int64) error {
	_, err := s.db.Exec(`DELETE FROM study_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session %d: %w", id, err)
	}
	return nil
}
