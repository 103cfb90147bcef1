package store

import (
	"database/sql"
	"fmt"
)

// GetRecordForDate returns the daily record for a "YYYY-MM-DD" day, or
// (nil, nil) when the day has no record yet.
func (s *Store) GetRecordForDate(date string) (*DailyRecord, error) {
	r := &DailyRecord{}
	var topicID sql.NullInt64
	err := s.db.QueryRow(
		`SELECT date, study_minutes, topic_id, notes FROM daily_records WHERE date = ?`, date,
	).Scan(&r.Date, &r.StudyMinutes, &topicID, &r.Notes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", date, err)
	}
	if topicID.Valid {
		r.TopicID = &topicID.Int64
	}
	return r, nil
}

// UpsertRecord inserts or fully replaces the record for its date.
func (s *Store) UpsertRecord(r *DailyRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO daily_records (date, study_minutes, topic_id, notes) VALUES (?, ?, ?, ?)
		 ON CONFLICT(date) DO UPDATE SET
		   study_minutes = excluded.study_minutes,
		   topic_id = excluded.topic_id,
		   notes = excluded.notes`,
		r.Date, r.StudyMinutes, r.TopicID, r.Notes,
	)
	if err != nil {
		return fmt.Errorf("upsert record %s: %w", r.Date, err)
	}
	return nil
}

// AddStudyMinutesToDate adds minutes to the day's total, creating the
// record if needed. Additive only: nothing ever subtracts from a daily
// record, even when sessions are edited or deleted.
func (s *Store) AddStudyMinutesToDate(date string, minutes int) error {
	_, err := s.db.Exec(
		`INSERT INTO daily_records (date, study_minutes, topic_id, notes) VALUES (?, ?, NULL, '')
		 ON CONFLICT(date) DO UPDATE SET study_minutes = study_minutes + excluded.study_minutes`,
		date, minutes,
	)
	if err != nil {
		return fmt.Errorf("add minutes to %s: %w", date, err)
	}
	return nil
}

// GetRecordsForMonth returns the records of a "YYYY-MM" month, newest first.
func (s *Store) GetRecordsForMonth(yearMonth string) ([]DailyRecord, error) {
	return s.queryRecords(
		`SELECT date, study_minutes, topic_id, notes FROM daily_records
		 WHERE date LIKE ? || '-%' ORDER BY date DESC`, yearMonth)
}

// GetAllRecords returns every daily record, newest first.
func (s *Store) GetAllRecords() ([]DailyRecord, error) {
	return s.queryRecords(`SELECT date, study_minutes, topic_id, notes FROM daily_records ORDER BY date DESC`)
}

func (s *Store) queryRecords(query string, args ...any) ([]DailyRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []DailyRecord
	for rows.Next() {
		var r DailyRecord
		var topicID sql.NullInt64
		if err := rows.Scan(&r.Date, &r.StudyMinutes, &topicID, &r.Notes); err != nil {
			return nil, err
		}
		if topicID.Valid {
			r.TopicID = &topicID.Int64
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
