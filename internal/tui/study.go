package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"oposita/internal/store"
	"oposita/internal/timer"
)

type phaseEvent struct {
	prev, next timer.Phase
}

// studyModel is the main tab: pick a topic, run the stopwatch or a
// Pomodoro cycle, and review today's sessions.
type studyModel struct {
	store  *store.Store
	timer  *timer.Timer
	width  int
	height int

	topics   []store.Topic
	topicMap map[int64]*store.Topic
	sessions []store.StudySession
	todayMin int

	picking       bool
	pickPomodoro  bool
	pickCursor    int
	sessionCursor int

	phaseCh chan phaseEvent
}

func newStudyModel(s *store.Store, tm *timer.Timer) studyModel {
	ch := make(chan phaseEvent, 8)
	tm.OnPhaseComplete(func(prev, next timer.Phase) {
		select {
		case ch <- phaseEvent{prev, next}:
		default:
		}
	})
	return studyModel{
		store:   s,
		timer:   tm,
		phaseCh: ch,
	}
}

func (m *studyModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type studyDataMsg struct {
	topics   []store.Topic
	sessions []store.StudySession
	todayMin int
}

func (m studyModel) refresh() tea.Cmd {
	return func() tea.Msg {
		topics, _ := m.store.GetActiveTopics()
		today := store.DayString(time.Now())
		sessions, _ := m.store.GetSessionsForDate(today)
		total := 0
		if rec, _ := m.store.GetRecordForDate(today); rec != nil {
			total = rec.StudyMinutes
		}
		return studyDataMsg{topics: topics, sessions: sessions, todayMin: total}
	}
}

func (m studyModel) update(msg tea.Msg) (studyModel, tea.Cmd) {
	switch msg := msg.(type) {
	case studyDataMsg:
		m.topics = msg.topics
		m.topicMap = topicIndex(m.topics)
		m.sessions = msg.sessions
		m.todayMin = msg.todayMin
		if m.sessionCursor >= len(m.sessions) {
			m.sessionCursor = max(0, len(m.sessions)-1)
		}
		return m, nil

	case tickMsg:
		// Phase transitions arrive from the timer goroutine; surface
		// them as a status line on the next render tick.
		select {
		case ev := <-m.phaseCh:
			return m, func() tea.Msg {
				text := phaseChangeText(ev)
				if v, err := m.store.GetSetting("sound_enabled"); err == nil && v != "0" {
					text += " \a"
				}
				return statusMsg{text: text}
			}
		default:
		}
		return m, nil

	case tea.KeyMsg:
		if m.picking {
			return m.updatePicker(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m studyModel) updateKeys(msg tea.KeyMsg) (studyModel, tea.Cmd) {
	state := m.timer.State()

	switch {
	case key.Matches(msg, keys.Start):
		if !state.Running {
			m.picking = true
			m.pickPomodoro = false
			m.pickCursor = 0
		}
	case key.Matches(msg, keys.Pomodoro):
		if !state.Running {
			m.picking = true
			m.pickPomodoro = true
			m.pickCursor = 0
		}
	case key.Matches(msg, keys.Pause):
		if state.Running {
			if state.Paused {
				m.timer.Resume()
			} else {
				m.timer.Pause()
			}
		}
	case key.Matches(msg, keys.Stop):
		if state.Running {
			return m, m.stopTimer()
		}
	case key.Matches(msg, keys.Skip):
		if state.Running && state.Pomodoro {
			m.timer.SkipPhase()
		}
	case key.Matches(msg, keys.Up):
		if m.sessionCursor > 0 {
			m.sessionCursor--
		}
	case key.Matches(msg, keys.Down):
		if m.sessionCursor < len(m.sessions)-1 {
			m.sessionCursor++
		}
	case key.Matches(msg, keys.Delete):
		if len(m.sessions) > 0 {
			id := m.sessions[m.sessionCursor].ID
			if err := m.store.RemoveSession(id); err != nil {
				return m, errStatus("Delete error", err)
			}
			return m, m.refresh()
		}
	}
	return m, nil
}

func (m studyModel) updatePicker(msg tea.KeyMsg) (studyModel, tea.Cmd) {
	// Entry 0 is "No topic", entries 1..n are active topics.
	switch {
	case key.Matches(msg, keys.Up):
		if m.pickCursor > 0 {
			m.pickCursor--
		}
	case key.Matches(msg, keys.Down):
		if m.pickCursor < len(m.topics) {
			m.pickCursor++
		}
	case key.Matches(msg, keys.Enter):
		m.picking = false
		var topicID *int64
		if m.pickCursor > 0 {
			id := m.topics[m.pickCursor-1].ID
			topicID = &id
		}
		m.timer.Start(topicID, m.pickPomodoro)
		return m, func() tea.Msg {
			return statusMsg{text: "Timer started"}
		}
	case key.Matches(msg, keys.Back):
		m.picking = false
	}
	return m, nil
}

func (m studyModel) stopTimer() tea.Cmd {
	return func() tea.Msg {
		minutes, err := m.timer.Stop()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Save error: %v", err), isError: true}
		}
		return sessionCommittedMsg{minutes: minutes}
	}
}

func (m studyModel) view() string {
	w := m.width - 4

	if m.picking {
		return m.renderPicker(w)
	}

	timerPanel := m.renderTimer(w)
	sessionsPanel := m.renderSessions(w)
	return lipgloss.JoinVertical(lipgloss.Left, timerPanel, sessionsPanel)
}

func (m studyModel) renderTimer(w int) string {
	state := m.timer.State()

	var rows []string
	if !state.Running {
		rows = append(rows,
			timerStyle.Width(w-6).Render("00:00:00"),
			mutedStyle.Width(w-6).Align(lipgloss.Center).Render("Press s to study, p for a Pomodoro"),
		)
	} else {
		elapsed := time.Duration(state.ElapsedMs) * time.Millisecond
		display := timerRunningStyle
		if state.Paused {
			display = timerPausedStyle
		}
		rows = append(rows, display.Width(w-6).Render(formatElapsed(elapsed)))

		topic := topicLabel(m.topicMap, state.TopicID)
		rows = append(rows, mutedStyle.Width(w-6).Align(lipgloss.Center).Render(topic))

		if state.Pomodoro {
			rows = append(rows, "")
			rows = append(rows, m.renderPhase(w, state))
		}
		if state.Paused {
			rows = append(rows, warningStyle.Width(w-6).Align(lipgloss.Center).Render("PAUSED"))
		}
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Width(w-6).Align(lipgloss.Center).Render(
		fmt.Sprintf("Today: %s", formatMinutes(m.todayMin)),
	))

	style := panelStyle
	if state.Running {
		style = activePanelStyle
	}
	return style.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m studyModel) renderPhase(w int, state timer.Snapshot) string {
	remaining := m.timer.Remaining()
	cfg := m.timer.Config()

	var label string
	switch state.Phase {
	case timer.PhaseBreak:
		label = breakStyle.Render("BREAK")
	case timer.PhaseLongBreak:
		label = breakStyle.Render("LONG BREAK")
	default:
		label = workStyle.Render("WORK")
	}

	var dots []string
	for i := 0; i < cfg.SessionsBeforeLongBreak; i++ {
		switch {
		case i < state.CompletedCycles:
			dots = append(dots, successStyle.Render("●"))
		case i == state.CompletedCycles && state.Phase == timer.PhaseWork:
			dots = append(dots, workStyle.Render("◐"))
		default:
			dots = append(dots, mutedStyle.Render("○"))
		}
	}

	line := fmt.Sprintf("%s  %s  %s", label, formatCountdown(remaining), strings.Join(dots, " "))
	return lipgloss.NewStyle().Width(w - 6).Align(lipgloss.Center).Render(line)
}

func (m studyModel) renderSessions(w int) string {
	title := titleStyle.Render("Today's Sessions")

	if len(m.sessions) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", mutedStyle.Render("Nothing recorded yet today."),
		))
	}

	var rows []string
	rows = append(rows, title, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-7s %-24s %8s %10s", "Start", "Topic", "Minutes", "Pomodoro")))

	for i, s := range m.sessions {
		cursor := "  "
		style := normalItemStyle
		if i == m.sessionCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		start := time.UnixMilli(s.StartTime).Local().Format("15:04")
		pomodoro := ""
		if s.IsPomodoroSession {
			pomodoro = fmt.Sprintf("%d/%d", s.PomodoroWorkMinutes, s.PomodoroBreakMinutes)
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%-7s %-24s %8d %10s",
			cursor, start, topicLabel(m.topicMap, s.TopicID), s.DurationMinutes, pomodoro,
		)))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  d: delete session"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (m studyModel) renderPicker(w int) string {
	mode := "Stopwatch"
	if m.pickPomodoro {
		mode = "Pomodoro"
	}
	title := titleStyle.Render(fmt.Sprintf("Start %s — pick a topic", mode))

	var rows []string
	rows = append(rows, title, "")

	labels := []string{"No topic"}
	for _, t := range m.topics {
		labels = append(labels, t.Name)
	}
	for i, l := range labels {
		cursor := "  "
		style := normalItemStyle
		if i == m.pickCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+l))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: start  esc: cancel"))
	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func phaseChangeText(ev phaseEvent) string {
	switch ev.next {
	case timer.PhaseBreak:
		return "Break time!"
	case timer.PhaseLongBreak:
		return "Long break!"
	default:
		return "Back to work"
	}
}

func errStatus(prefix string, err error) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: fmt.Sprintf("%s: %v", prefix, err), isError: true}
	}
}
