package store

import "testing"

// ============================================================
// CommitSession
// ============================================================

func TestCommitSessionUpdatesAggregates(t *testing.T) {
	s := newTestStore(t)
	topicID := insertTopic(t, s, "Topic")

	id, err := s.CommitSession(&StudySession{
		StartTime:       1700000000000,
		EndTime:         1700003000000,
		DurationMinutes: 50,
		TopicID:         &topicID,
		Date:            "2026-08-28",
	})
	if err != nil {
		t.Fatal(err)
	}
	if id == 0 {
		t.Fatal("expected session id")
	}

	topic, _ := s.GetTopic(topicID)
	if topic.TotalStudyMinutes != 50 || topic.CurrentPeriodStudyMinutes != 50 {
		t.Fatalf("topic counters %d/%d, want 50/50", topic.TotalStudyMinutes, topic.CurrentPeriodStudyMinutes)
	}

	rec, _ := s.GetRecordForDate("2026-08-28")
	if rec == nil || rec.StudyMinutes != 50 {
		t.Fatalf("daily record %+v, want 50 minutes", rec)
	}
}

func TestCommitSessionWithoutTopic(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CommitSession(&StudySession{
		StartTime:       1,
		DurationMinutes: 30,
		Date:            "2026-08-28",
	})
	if err != nil {
		t.Fatal(err)
	}

	rec, _ := s.GetRecordForDate("2026-08-28")
	if rec == nil || rec.StudyMinutes != 30 {
		t.Fatalf("daily record must accrue without a topic: %+v", rec)
	}
}

func TestCommitSessionsAccumulate(t *testing.T) {
	s := newTestStore(t)
	topicID := insertTopic(t, s, "Topic")

	for _, mins := range []int{25, 50, 5} {
		_, err := s.CommitSession(&StudySession{
			StartTime:       1,
			DurationMinutes: mins,
			TopicID:         &topicID,
			Date:            "2026-08-28",
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	topic, _ := s.GetTopic(topicID)
	rec, _ := s.GetRecordForDate("2026-08-28")
	if topic.TotalStudyMinutes != 80 || rec.StudyMinutes != 80 {
		t.Fatalf("aggregates drifted: topic=%d day=%d, want 80/80", topic.TotalStudyMinutes, rec.StudyMinutes)
	}
}

// ============================================================
// EditSession
// ============================================================

func TestEditSessionDurationDelta(t *testing.T) {
	s := newTestStore(t)
	topicID := insertTopic(t, s, "Topic")
	id, _ := s.CommitSession(&StudySession{
		StartTime: 1700000000000, DurationMinutes: 50, TopicID: &topicID, Date: "2026-08-28",
	})

	if err := s.EditSession(id, &topicID, 30); err != nil {
		t.Fatal(err)
	}

	topic, _ := s.GetTopic(topicID)
	if topic.TotalStudyMinutes != 30 {
		t.Fatalf("topic total %d, want 30 after the -20 delta", topic.TotalStudyMinutes)
	}

	sess, _ := s.GetSession(id)
	if sess.DurationMinutes != 30 {
		t.Fatalf("session duration %d, want 30", sess.DurationMinutes)
	}
	if sess.EndTime != sess.StartTime+30*60_000 {
		t.Fatalf("end time not recomputed: %d", sess.EndTime)
	}
}

func TestEditSessionReassignTopic(t *testing.T) {
	s := newTestStore(t)
	oldTopic := insertTopic(t, s, "Old")
	newTopic := insertTopic(t, s, "New")
	id, _ := s.CommitSession(&StudySession{
		StartTime: 1, DurationMinutes: 50, TopicID: &oldTopic, Date: "2026-08-28",
	})

	if err := s.EditSession(id, &newTopic, 40); err != nil {
		t.Fatal(err)
	}

	a, _ := s.GetTopic(oldTopic)
	b, _ := s.GetTopic(newTopic)
	if a.TotalStudyMinutes != 0 {
		t.Fatalf("old topic keeps %d minutes, want 0", a.TotalStudyMinutes)
	}
	if b.TotalStudyMinutes != 40 {
		t.Fatalf("new topic has %d minutes, want 40", b.TotalStudyMinutes)
	}
}

func TestEditSessionClearTopic(t *testing.T) {
	s := newTestStore(t)
	topicID := insertTopic(t, s, "Topic")
	id, _ := s.CommitSession(&StudySession{
		StartTime: 1, DurationMinutes: 50, TopicID: &topicID, Date: "2026-08-28",
	})

	if err := s.EditSession(id, nil, 50); err != nil {
		t.Fatal(err)
	}

	topic, _ := s.GetTopic(topicID)
	if topic.TotalStudyMinutes != 0 {
		t.Fatalf("clearing the topic must subtract its minutes, got %d", topic.TotalStudyMinutes)
	}
	sess, _ := s.GetSession(id)
	if sess.TopicID != nil {
		t.Fatal("session should have no topic")
	}
}

func TestEditSessionKeepsDateAndDailyRecord(t *testing.T) {
	s := newTestStore(t)
	topicID := insertTopic(t, s, "Topic")
	id, _ := s.CommitSession(&StudySession{
		StartTime: 1, DurationMinutes: 50, TopicID: &topicID, Date: "2026-08-28",
	})

	if err := s.EditSession(id, &topicID, 10); err != nil {
		t.Fatal(err)
	}

	sess, _ := s.GetSession(id)
	if sess.Date != "2026-08-28" {
		t.Fatalf("date must be immutable, got %q", sess.Date)
	}
	// Daily totals only ever grow; the edit leaves the day at 50.
	rec, _ := s.GetRecordForDate("2026-08-28")
	if rec.StudyMinutes != 50 {
		t.Fatalf("daily record should be untouched by edits, got %d", rec.StudyMinutes)
	}
}

func TestEditSessionMissingIsNoOp(t *testing.T) {
	s := newTestStore(t)
	topicID := insertTopic(t, s, "Topic")

	if err := s.EditSession(9999, &topicID, 30); err != nil {
		t.Fatalf("expected silent no-op, got %v", err)
	}
	topic, _ := s.GetTopic(topicID)
	if topic.TotalStudyMinutes != 0 {
		t.Fatal("no-op edit must not touch the topic")
	}
}

func TestEditSessionDanglingTopicTolerated(t *testing.T) {
	s := newTestStore(t)
	topicID := insertTopic(t, s, "Doomed")
	id, _ := s.CommitSession(&StudySession{
		StartTime: 1, DurationMinutes: 50, TopicID: &topicID, Date: "2026-08-28",
	})
	s.DeleteTopic(topicID)

	// Editing a session whose topic vanished must still succeed; the
	// counter update simply matches no row.
	if err := s.EditSession(id, &topicID, 60); err != nil {
		t.Fatal(err)
	}
	sess, _ := s.GetSession(id)
	if sess.DurationMinutes != 60 {
		t.Fatalf("duration %d, want 60", sess.DurationMinutes)
	}
}

// ============================================================
// RemoveSession
// ============================================================

func TestRemoveSessionCompensatesTopic(t *testing.T) {
	s := newTestStore(t)
	topicID := insertTopic(t, s, "Topic")
	id, _ := s.CommitSession(&StudySession{
		StartTime: 1, DurationMinutes: 50, TopicID: &topicID, Date: "2026-08-28",
	})

	if err := s.RemoveSession(id); err != nil {
		t.Fatal(err)
	}

	topic, _ := s.GetTopic(topicID)
	if topic.TotalStudyMinutes != 0 || topic.CurrentPeriodStudyMinutes != 0 {
		t.Fatalf("topic counters %d/%d, want 0/0", topic.TotalStudyMinutes, topic.CurrentPeriodStudyMinutes)
	}

	sess, _ := s.GetSession(id)
	if sess != nil {
		t.Fatal("session should be gone")
	}

	// The daily record keeps its minutes.
	rec, _ := s.GetRecordForDate("2026-08-28")
	if rec.StudyMinutes != 50 {
		t.Fatalf("daily record must keep %d minutes", 50)
	}
}

func TestRemoveSessionMissingIsNoOp(t *testing.T) {
	s := newTestStore(t)
	if err := s.RemoveSession(777); err != nil {
		t.Fatalf("expected silent no-op, got %v", err)
	}
}

// ============================================================
// AddTimeToTopic
// ============================================================

func TestAddTimeToTopicCreatesSession(t *testing.T) {
	s := newTestStore(t)
	topicID := insertTopic(t, s, "Topic")

	id, err := s.AddTimeToTopic(topicID, 45)
	if err != nil {
		t.Fatal(err)
	}

	topic, _ := s.GetTopic(topicID)
	if topic.TotalStudyMinutes != 45 {
		t.Fatalf("topic total %d, want 45", topic.TotalStudyMinutes)
	}

	sess, _ := s.GetSession(id)
	if sess == nil {
		t.Fatal("synthetic session missing")
	}
	if sess.DurationMinutes != 45 || sess.TopicID == nil || *sess.TopicID != topicID {
		t.Fatalf("unexpected synthetic session: %+v", sess)
	}
	if sess.EndTime-sess.StartTime != 45*60_000 {
		t.Fatalf("span should cover 45 minutes, got %d ms", sess.EndTime-sess.StartTime)
	}

	// Manual credit bypasses the daily record.
	rec, _ := s.GetRecordForDate(sess.Date)
	if rec != nil {
		t.Fatalf("manual time must not touch the daily record, got %+v", rec)
	}
}
