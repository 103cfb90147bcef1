package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"oposita/internal/store"
	"oposita/internal/timer"
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

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// ============================================================
// Helpers
// ============================================================

func TestTopicLabel(t *testing.T) {
	topics := []store.Topic{{ID: 1, Name: "Law"}}
	index := topicIndex(topics)

	if got := topicLabel(index, nil); got != "No topic" {
		t.Fatalf("nil id: %q", got)
	}
	id := int64(1)
	if got := topicLabel(index, &id); got != "Law" {
		t.Fatalf("known id: %q", got)
	}
	dangling := int64(99)
	if got := topicLabel(index, &dangling); got != "No topic" {
		t.Fatalf("dangling id must resolve to No topic: %q", got)
	}
}

func TestFormatMinutes(t *testing.T) {
	cases := map[int]string{
		0:   "0m",
		45:  "45m",
		60:  "1h 00m",
		205: "3h 25m",
	}
	for mins, want := range cases {
		if got := formatMinutes(mins); got != want {
			t.Errorf("formatMinutes(%d) = %q, want %q", mins, got, want)
		}
	}
}

func TestFormatElapsed(t *testing.T) {
	d := 2*time.Hour + 5*time.Minute + 9*time.Second
	if got := formatElapsed(d); got != "02:05:09" {
		t.Fatalf("formatElapsed = %q", got)
	}
}

func TestFormatCountdown(t *testing.T) {
	if got := formatCountdown(90 * time.Second); got != "01:30" {
		t.Fatalf("formatCountdown = %q", got)
	}
	if got := formatCountdown(-time.Second); got != "00:00" {
		t.Fatalf("negative countdown must clamp, got %q", got)
	}
}

// ============================================================
// Study view
// ============================================================

func TestStudyDataMsg(t *testing.T) {
	s := newTestStore(t)
	tm := timer.New(s, timer.DefaultConfig())
	m := newStudyModel(s, tm)

	id, _ := s.InsertTopic(&store.Topic{Name: "Law"})
	msg := studyDataMsg{
		topics:   []store.Topic{{ID: id, Name: "Law"}},
		sessions: []store.StudySession{{ID: 1, DurationMinutes: 30}},
		todayMin: 30,
	}
	m, _ = m.update(msg)

	if len(m.topics) != 1 || m.todayMin != 30 || len(m.sessions) != 1 {
		t.Fatalf("data msg not applied: %+v", m)
	}
	if m.topicMap[id] == nil {
		t.Fatal("topic index not rebuilt")
	}
}

func TestStudyPickerStartsStopwatch(t *testing.T) {
	s := newTestStore(t)
	tm := timer.New(s, timer.DefaultConfig())
	m := newStudyModel(s, tm)

	id, _ := s.InsertTopic(&store.Topic{Name: "Law"})
	m, _ = m.update(studyDataMsg{topics: []store.Topic{{ID: id, Name: "Law"}}})

	m, _ = m.update(keyRune('s'))
	if !m.picking || m.pickPomodoro {
		t.Fatal("s must open the stopwatch picker")
	}

	// Move past "No topic" to the first topic and confirm.
	m, _ = m.update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.update(tea.KeyMsg{Type: tea.KeyEnter})

	state := tm.State()
	if !state.Running || state.Pomodoro {
		t.Fatalf("timer not started as stopwatch: %+v", state)
	}
	if state.TopicID == nil || *state.TopicID != id {
		t.Fatalf("topic not wired through: %+v", state.TopicID)
	}
	tm.Stop()
}

func TestStudyPickerPomodoroNoTopic(t *testing.T) {
	s := newTestStore(t)
	tm := timer.New(s, timer.DefaultConfig())
	m := newStudyModel(s, tm)

	m, _ = m.update(keyRune('p'))
	if !m.picking || !m.pickPomodoro {
		t.Fatal("p must open the pomodoro picker")
	}
	m, _ = m.update(tea.KeyMsg{Type: tea.KeyEnter}) // "No topic"

	state := tm.State()
	if !state.Running || !state.Pomodoro || state.TopicID != nil {
		t.Fatalf("unexpected timer state: %+v", state)
	}
	tm.Stop()
}

func TestStudyPickerCancel(t *testing.T) {
	s := newTestStore(t)
	tm := timer.New(s, timer.DefaultConfig())
	m := newStudyModel(s, tm)

	m, _ = m.update(keyRune('s'))
	m, _ = m.update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.picking {
		t.Fatal("esc must close the picker")
	}
	if tm.State().Running {
		t.Fatal("cancelled picker must not start the timer")
	}
}

// ============================================================
// Planner view
// ============================================================

func TestPlannerToggleComplete(t *testing.T) {
	s := newTestStore(t)
	id, _ := s.InsertTask(&store.PlannedTask{Date: "2099-01-01", PlannedMinutes: 45})

	m := newPlannerModel(s)
	task, _ := s.GetTask(id)
	m, _ = m.update(plannerDataMsg{tasks: []store.PlannedTask{*task}})

	m, _ = m.update(tea.KeyMsg{Type: tea.KeyEnter})

	got, _ := s.GetTask(id)
	if !got.IsCompleted || got.CompletedMinutes != 45 {
		t.Fatalf("toggle did not credit planned minutes: %+v", got)
	}

	// Untick resets the credit.
	m, _ = m.update(plannerDataMsg{tasks: []store.PlannedTask{*got}})
	m, _ = m.update(tea.KeyMsg{Type: tea.KeyEnter})
	got, _ = s.GetTask(id)
	if got.IsCompleted || got.CompletedMinutes != 0 {
		t.Fatalf("untick: %+v", got)
	}
}

func TestPlannerDelete(t *testing.T) {
	s := newTestStore(t)
	id, _ := s.InsertTask(&store.PlannedTask{Date: "2099-01-01"})

	m := newPlannerModel(s)
	task, _ := s.GetTask(id)
	m, _ = m.update(plannerDataMsg{tasks: []store.PlannedTask{*task}})
	m, _ = m.update(keyRune('d'))

	got, _ := s.GetTask(id)
	if got != nil {
		t.Fatal("task should be deleted")
	}
}

// ============================================================
// Settings view
// ============================================================

func TestFormatSettingValue(t *testing.T) {
	if got := formatSettingValue("pomodoro_work", "50"); got != "50 min" {
		t.Fatalf("work: %q", got)
	}
	if got := formatSettingValue("sound_enabled", "1"); got != "on" {
		t.Fatalf("sound on: %q", got)
	}
	if got := formatSettingValue("sound_enabled", "0"); got != "off" {
		t.Fatalf("sound off: %q", got)
	}
	if got := formatSettingValue("pomodoro_count", "4"); got != "4" {
		t.Fatalf("count passes through: %q", got)
	}
}

// ============================================================
// App
// ============================================================

func TestAppTabSwitching(t *testing.T) {
	s := newTestStore(t)
	tm := timer.New(s, timer.DefaultConfig())
	app := NewApp(s, tm)

	model, _ := app.Update(keyRune('3'))
	a := model.(App)
	if a.activeView != viewPlanner {
		t.Fatalf("activeView = %v, want planner", a.activeView)
	}

	model, _ = a.Update(tea.KeyMsg{Type: tea.KeyTab})
	a = model.(App)
	if a.activeView != viewStats {
		t.Fatalf("tab should advance to stats, got %v", a.activeView)
	}
}

func TestAppQuitStopsRunningTimer(t *testing.T) {
	s := newTestStore(t)
	tm := timer.New(s, timer.DefaultConfig())
	app := NewApp(s, tm)

	tm.Start(nil, false)
	_, cmd := app.Update(keyRune('q'))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if tm.State().Running {
		t.Fatal("quit must stop the timer so the run is not lost")
	}
}

func TestAppStatusFromCommit(t *testing.T) {
	s := newTestStore(t)
	tm := timer.New(s, timer.DefaultConfig())
	app := NewApp(s, tm)

	model, _ := app.Update(sessionCommittedMsg{minutes: 25})
	a := model.(App)
	if a.status != "Saved 25 min" {
		t.Fatalf("status = %q", a.status)
	}

	model, _ = a.Update(sessionCommittedMsg{minutes: 0})
	a = model.(App)
	if a.status != "Too short, nothing saved" {
		t.Fatalf("status = %q", a.status)
	}
}
