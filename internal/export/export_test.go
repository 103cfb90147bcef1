package export

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"oposita/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// ============================================================
// JSON backup
// ============================================================

func TestBackupRoundTrip(t *testing.T) {
	s := newTestStore(t)
	topicID, _ := s.InsertTopic(&store.Topic{Name: "Topic"})
	s.CommitSession(&store.StudySession{
		StartTime: 1700000000000, DurationMinutes: 50, TopicID: &topicID, Date: "2026-08-28",
	})
	s.UpsertGoal(&store.MonthlyGoal{YearMonth: "2026-08", TargetHours: 80})

	snap, err := s.ExportAllData()
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "backup.json")
	if err := WriteBackup(snap, path); err != nil {
		t.Fatal(err)
	}

	got, err := ReadBackup(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Topics) != 1 || got.Topics[0].ID != topicID {
		t.Fatalf("topics not round-tripped: %+v", got.Topics)
	}
	if len(got.StudySessions) != 1 || got.StudySessions[0].DurationMinutes != 50 {
		t.Fatalf("sessions not round-tripped: %+v", got.StudySessions)
	}
	if len(got.MonthlyGoals) != 1 || got.MonthlyGoals[0].TargetHours != 80 {
		t.Fatalf("goals not round-tripped: %+v", got.MonthlyGoals)
	}

	// The restored snapshot imports cleanly into a fresh store.
	dst := newTestStore(t)
	if err := dst.ImportAllData(got); err != nil {
		t.Fatal(err)
	}
	topic, _ := dst.GetTopic(topicID)
	if topic == nil || topic.TotalStudyMinutes != 50 {
		t.Fatalf("imported topic: %+v", topic)
	}
}

func TestReadBackupMissingFile(t *testing.T) {
	_, err := ReadBackup(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReadBackupRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.json")
	os.WriteFile(path, []byte("not json"), 0o644)

	if _, err := ReadBackup(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestReadBackupRejectsInvalidSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	os.WriteFile(path, []byte(`{"version":1}`), 0o644)

	_, err := ReadBackup(path)
	if !errors.Is(err, store.ErrInvalidSnapshot) {
		t.Fatalf("expected ErrInvalidSnapshot, got %v", err)
	}
}

// ============================================================
// CSV
// ============================================================

func TestToCSV(t *testing.T) {
	s := newTestStore(t)
	topicID, _ := s.InsertTopic(&store.Topic{Name: "Constitutional Law"})
	dangling := topicID + 100

	sessions := []store.StudySession{
		{
			ID: 1, StartTime: 1700000000000, EndTime: 1700003000000,
			DurationMinutes: 50, TopicID: &topicID, Date: "2026-08-28",
			IsPomodoroSession: true, PomodoroWorkMinutes: 50, PomodoroBreakMinutes: 10,
		},
		{ID: 2, StartTime: 1700010000000, DurationMinutes: 70, Date: "2026-08-28"},
		{ID: 3, StartTime: 1700020000000, DurationMinutes: 5, TopicID: &dangling, Date: "2026-08-28"},
	}
	topics, _ := s.GetAllTopics()
	index := make(map[int64]*store.Topic, len(topics))
	for i := range topics {
		index[topics[i].ID] = &topics[i]
	}

	path := filepath.Join(t.TempDir(), "sessions.csv")
	if err := ToCSV(sessions, index, path); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "ID" || rows[0][2] != "Topic" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][2] != "Constitutional Law" {
		t.Fatalf("topic name not resolved: %v", rows[1])
	}
	if rows[1][7] != "50/10" {
		t.Fatalf("pomodoro column: %v", rows[1])
	}
	if rows[2][2] != "No topic" {
		t.Fatalf("nil topic should render as No topic: %v", rows[2])
	}
	if rows[3][2] != "No topic" {
		t.Fatalf("dangling topic should render as No topic: %v", rows[3])
	}
	if rows[2][6] != "01:10" {
		t.Fatalf("duration column: %v", rows[2])
	}
	if !strings.Contains(rows[1][1], "2026-08-28") {
		// Date column carries the session's own day key.
		t.Fatalf("date column: %v", rows[1])
	}
}
