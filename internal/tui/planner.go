package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"oposita/internal/store"
)

// plannerModel lists pending planned tasks from today forward.
type plannerModel struct {
	store  *store.Store
	width  int
	height int

	tasks  []store.PlannedTask
	topics []store.Topic
	cursor int

	formActive bool
	form       *huh.Form

	// Form field pointers (survive value copies)
	formDate    *string
	formTopicID *int64
	formMinutes *string
	formNotes   *string
}

func newPlannerModel(s *store.Store) plannerModel {
	date, mins, notes := "", "", ""
	var topicID int64
	return plannerModel{
		store:       s,
		formDate:    &date,
		formTopicID: &topicID,
		formMinutes: &mins,
		formNotes:   &notes,
	}
}

func (m *plannerModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type plannerDataMsg struct {
	tasks  []store.PlannedTask
	topics []store.Topic
}

func (m plannerModel) refresh() tea.Cmd {
	return func() tea.Msg {
		today := store.DayString(time.Now())
		tasks, _ := m.store.GetPendingTasks(today)
		topics, _ := m.store.GetActiveTopics()
		return plannerDataMsg{tasks: tasks, topics: topics}
	}
}

func (m plannerModel) update(msg tea.Msg) (plannerModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case plannerDataMsg:
		m.tasks = msg.tasks
		m.topics = msg.topics
		if m.cursor >= len(m.tasks) {
			m.cursor = max(0, len(m.tasks)-1)
		}
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m plannerModel) updateKeys(msg tea.KeyMsg) (plannerModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.New):
		return m.showTaskForm()
	case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Complete):
		if len(m.tasks) > 0 {
			t := m.tasks[m.cursor]
			completed := t.PlannedMinutes
			if t.IsCompleted {
				completed = 0
			}
			m.store.SetTaskCompleted(t.ID, !t.IsCompleted, completed)
			return m, m.refresh()
		}
	case key.Matches(msg, keys.Delete):
		if len(m.tasks) > 0 {
			if err := m.store.DeleteTask(m.tasks[m.cursor].ID); err != nil {
				return m, errStatus("Delete error", err)
			}
			return m, m.refresh()
		}
	}
	return m, nil
}

func (m plannerModel) showTaskForm() (plannerModel, tea.Cmd) {
	*m.formDate = store.DayString(time.Now())
	*m.formTopicID = 0
	*m.formMinutes = ""
	*m.formNotes = ""

	topicOptions := []huh.Option[int64]{huh.NewOption("No topic", int64(0))}
	for _, t := range m.topics {
		topicOptions = append(topicOptions, huh.NewOption(t.Name, t.ID))
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Date (YYYY-MM-DD)").Value(m.formDate).
				Validate(func(s string) error {
					if _, err := time.ParseInLocation("2006-01-02", s, time.Local); err != nil {
						return fmt.Errorf("use YYYY-MM-DD")
					}
					return nil
				}),
			huh.NewSelect[int64]().Title("Topic").Options(topicOptions...).Value(m.formTopicID),
			huh.NewInput().Title("Planned minutes").Value(m.formMinutes),
			huh.NewInput().Title("Notes").Value(m.formNotes),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m plannerModel) updateForm(msg tea.Msg) (plannerModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		task := &store.PlannedTask{
			Date:  *m.formDate,
			Notes: *m.formNotes,
		}
		if mins, err := strconv.Atoi(*m.formMinutes); err == nil && mins > 0 {
			task.PlannedMinutes = mins
		}
		// Topic name is frozen at creation; it survives later renames
		// and deletions of the topic itself.
		if *m.formTopicID != 0 {
			id := *m.formTopicID
			task.TopicID = &id
			for _, t := range m.topics {
				if t.ID == id {
					task.TopicName = t.Name
					break
				}
			}
		}
		m.store.InsertTask(task)
		return m, m.refresh()
	}

	return m, cmd
}

func (m plannerModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("New Planned Task"), "", m.form.View()),
		)
	}

	title := titleStyle.Render("Planner")

	if len(m.tasks) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", mutedStyle.Render("No pending tasks. Press n to plan one."),
		))
	}

	var rows []string
	rows = append(rows, title, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-3s %-12s %-24s %8s  %s", "", "Date", "Topic", "Planned", "Notes")))

	for i, t := range m.tasks {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		check := "☐"
		if t.IsCompleted {
			check = successStyle.Render("☑")
		}
		name := t.TopicName
		if name == "" {
			name = "No topic"
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%s  %-12s %-24s %8s  %s",
			cursor, check, t.Date, name, formatMinutes(t.PlannedMinutes), t.Notes,
		)))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  enter: toggle done  d: delete"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
