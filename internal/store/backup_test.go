package store

import (
	"errors"
	"testing"
)

// ============================================================
// Export / import
// ============================================================

func seedFull(t *testing.T, s *Store) (topicID, sessionID, taskID int64) {
	t.Helper()
	topicID = insertTopic(t, s, "Topic")
	sessionID, _ = s.CommitSession(&StudySession{
		StartTime: 1700000000000, DurationMinutes: 50, TopicID: &topicID, Date: "2026-08-28",
	})
	taskID, _ = s.InsertTask(&PlannedTask{Date: "2026-09-01", TopicID: &topicID, TopicName: "Topic", PlannedMinutes: 60})
	s.UpsertGoal(&MonthlyGoal{YearMonth: "2026-08", TargetHours: 80})
	return topicID, sessionID, taskID
}

func TestExportAllData(t *testing.T) {
	s := newTestStore(t)
	seedFull(t, s)

	snap, err := s.ExportAllData()
	if err != nil {
		t.Fatal(err)
	}
	if snap.Version != currentVersion {
		t.Fatalf("version %d, want %d", snap.Version, currentVersion)
	}
	if snap.ExportDate == "" {
		t.Fatal("missing export date")
	}
	if len(snap.Topics) != 1 || len(snap.StudySessions) != 1 ||
		len(snap.DailyRecords) != 1 || len(snap.MonthlyGoals) != 1 || len(snap.PlannedTasks) != 1 {
		t.Fatalf("unexpected snapshot shape: %+v", snap)
	}
}

func TestImportRoundTripPreservesIDs(t *testing.T) {
	src := newTestStore(t)
	topicID, sessionID, taskID := seedFull(t, src)

	snap, err := src.ExportAllData()
	if err != nil {
		t.Fatal(err)
	}

	dst := newTestStore(t)
	// Pre-existing data must be wiped by the import.
	insertTopic(t, dst, "Stale")
	dst.AddStudyMinutesToDate("2020-01-01", 999)

	if err := dst.ImportAllData(snap); err != nil {
		t.Fatal(err)
	}

	topic, _ := dst.GetTopic(topicID)
	if topic == nil || topic.Name != "Topic" || topic.TotalStudyMinutes != 50 {
		t.Fatalf("topic not restored under its id: %+v", topic)
	}
	sess, _ := dst.GetSession(sessionID)
	if sess == nil || sess.DurationMinutes != 50 {
		t.Fatalf("session not restored under its id: %+v", sess)
	}
	task, _ := dst.GetTask(taskID)
	if task == nil || task.TopicName != "Topic" {
		t.Fatalf("task not restored under its id: %+v", task)
	}

	topics, _ := dst.GetAllTopics()
	if len(topics) != 1 {
		t.Fatalf("stale data survived the import: %+v", topics)
	}
	if rec, _ := dst.GetRecordForDate("2020-01-01"); rec != nil {
		t.Fatal("stale daily record survived the import")
	}

	roundTrip, _ := dst.ExportAllData()
	if len(roundTrip.StudySessions) != len(snap.StudySessions) ||
		len(roundTrip.Topics) != len(snap.Topics) {
		t.Fatal("second export does not match the imported snapshot")
	}
}

func TestImportRejectsInvalidSnapshot(t *testing.T) {
	s := newTestStore(t)
	keep := insertTopic(t, s, "Keep")

	err := s.ImportAllData(&Snapshot{Version: 1})
	if !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("expected ErrInvalidSnapshot, got %v", err)
	}

	// Nothing was mutated.
	topic, _ := s.GetTopic(keep)
	if topic == nil {
		t.Fatal("failed import must leave existing data intact")
	}
}

func TestSnapshotValid(t *testing.T) {
	var nilSnap *Snapshot
	if nilSnap.Valid() {
		t.Fatal("nil snapshot cannot be valid")
	}
	if (&Snapshot{}).Valid() {
		t.Fatal("empty snapshot cannot be valid")
	}
	if !(&Snapshot{Topics: []Topic{}}).Valid() {
		t.Fatal("present (even empty) topics array is valid")
	}
	if !(&Snapshot{StudySessions: []StudySession{}}).Valid() {
		t.Fatal("present sessions array is valid")
	}
}

func TestImportAllOrNothing(t *testing.T) {
	s := newTestStore(t)
	keep := insertTopic(t, s, "Keep")

	// Duplicate primary keys make the insert fail partway through; the
	// transaction must roll everything back.
	bad := &Snapshot{
		Topics: []Topic{
			{ID: 1, Name: "A"},
			{ID: 1, Name: "B"},
		},
	}
	if err := s.ImportAllData(bad); err == nil {
		t.Fatal("expected import failure")
	}

	topic, _ := s.GetTopic(keep)
	if topic == nil || topic.Name != "Keep" {
		t.Fatal("failed import must leave the store untouched")
	}
}
