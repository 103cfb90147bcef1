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

type topicsModel struct {
	store  *store.Store
	width  int
	height int

	topics       []store.Topic
	cursor       int
	showArchived bool

	formActive bool
	form       *huh.Form
	formType   string // "new", "edit", "addtime"

	// Form field pointers (survive value copies)
	formName    *string
	formDesc    *string
	formGoal    *string
	formMinutes *string

	editingID int64
}

func newTopicsModel(s *store.Store) topicsModel {
	name, desc, goal, mins := "", "", "", ""
	return topicsModel{
		store:       s,
		formName:    &name,
		formDesc:    &desc,
		formGoal:    &goal,
		formMinutes: &mins,
	}
}

func (m *topicsModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type topicsDataMsg struct {
	topics []store.Topic
}

func (m topicsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		var topics []store.Topic
		var err error
		if m.showArchived {
			topics, err = m.store.GetAllTopics()
		} else {
			topics, err = m.store.GetActiveTopics()
		}
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Load error: %v", err), isError: true}
		}
		return topicsDataMsg{topics: topics}
	}
}

func (m topicsModel) update(msg tea.Msg) (topicsModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case topicsDataMsg:
		m.topics = msg.topics
		if m.cursor >= len(m.topics) {
			m.cursor = max(0, len(m.topics)-1)
		}
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m topicsModel) updateKeys(msg tea.KeyMsg) (topicsModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.topics)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.New):
		return m.showTopicForm("new")
	case key.Matches(msg, keys.Edit):
		if len(m.topics) > 0 {
			return m.showTopicForm("edit")
		}
	case key.Matches(msg, keys.AddTime):
		if len(m.topics) > 0 {
			return m.showAddTimeForm()
		}
	case key.Matches(msg, keys.Complete):
		if len(m.topics) > 0 {
			t := m.topics[m.cursor]
			m.store.SetTopicCompleted(t.ID, !t.IsCompleted)
			return m, m.refresh()
		}
	case key.Matches(msg, keys.Archive):
		if len(m.topics) > 0 {
			t := m.topics[m.cursor]
			m.store.SetTopicArchived(t.ID, !t.IsArchived)
			return m, m.refresh()
		}
	case key.Matches(msg, keys.Reset):
		if len(m.topics) > 0 {
			m.store.ResetTopicCycle(m.topics[m.cursor].ID)
			return m, m.refresh()
		}
	case key.Matches(msg, keys.Delete):
		if len(m.topics) > 0 {
			// Sessions keep their topic id and show as "No topic".
			if err := m.store.DeleteTopic(m.topics[m.cursor].ID); err != nil {
				return m, errStatus("Delete error", err)
			}
			return m, m.refresh()
		}
	case msg.String() == "z":
		m.showArchived = !m.showArchived
		return m, m.refresh()
	}
	return m, nil
}

func (m topicsModel) showTopicForm(formType string) (topicsModel, tea.Cmd) {
	m.formType = formType
	if formType == "edit" {
		t := m.topics[m.cursor]
		m.editingID = t.ID
		*m.formName = t.Name
		*m.formDesc = t.Description
		*m.formGoal = ""
		if t.MonthlyGoalHours != nil {
			*m.formGoal = strconv.FormatFloat(*t.MonthlyGoalHours, 'f', -1, 64)
		}
	} else {
		*m.formName = ""
		*m.formDesc = ""
		*m.formGoal = ""
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Topic Name").Value(m.formName),
			huh.NewInput().Title("Description").Value(m.formDesc),
			huh.NewInput().Title("Monthly goal (hours, empty for none)").Value(m.formGoal),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m topicsModel) showAddTimeForm() (topicsModel, tea.Cmd) {
	m.formType = "addtime"
	m.editingID = m.topics[m.cursor].ID
	*m.formMinutes = ""

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Minutes to add").Value(m.formMinutes),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m topicsModel) updateForm(msg tea.Msg) (topicsModel, tea.Cmd) {
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
		switch m.formType {
		case "new":
			if *m.formName != "" {
				t := &store.Topic{
					Name:        *m.formName,
					Description: *m.formDesc,
				}
				applyGoal(t, *m.formGoal)
				m.store.InsertTopic(t)
			}
			return m, m.refresh()
		case "edit":
			t := m.findEditing()
			if t != nil && *m.formName != "" {
				t.Name = *m.formName
				t.Description = *m.formDesc
				applyGoal(t, *m.formGoal)
				m.store.UpdateTopic(t)
			}
			return m, m.refresh()
		case "addtime":
			if mins, err := strconv.Atoi(*m.formMinutes); err == nil && mins > 0 {
				if _, err := m.store.AddTimeToTopic(m.editingID, mins); err != nil {
					return m, errStatus("Add time error", err)
				}
			}
			return m, m.refresh()
		}
	}

	return m, cmd
}

func (m topicsModel) findEditing() *store.Topic {
	for i := range m.topics {
		if m.topics[i].ID == m.editingID {
			return &m.topics[i]
		}
	}
	return nil
}

// applyGoal parses the goal-hours field. A blank field clears the goal; a
// set goal is pinned to the current month.
func applyGoal(t *store.Topic, goal string) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		t.MonthlyGoalHours = nil
		t.GoalYearMonth = nil
		return
	}
	hours, err := strconv.ParseFloat(goal, 64)
	if err != nil || hours <= 0 {
		return
	}
	ym := store.MonthString(time.Now())
	t.MonthlyGoalHours = &hours
	t.GoalYearMonth = &ym
}

func (m topicsModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		title := titleStyle.Render("New Topic")
		switch m.formType {
		case "edit":
			title = titleStyle.Render("Edit Topic")
		case "addtime":
			title = titleStyle.Render("Add Study Time")
		}
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View()),
		)
	}

	label := "Topics"
	if m.showArchived {
		label = "Topics (incl. archived)"
	}
	title := titleStyle.Render(label)

	if len(m.topics) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", mutedStyle.Render("No topics yet. Press n to create one."),
		))
	}

	var rows []string
	rows = append(rows, title, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-3s %-26s %10s %10s %10s", "", "Name", "Total", "Period", "Goal")))

	for i, t := range m.topics {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}

		flag := " "
		if t.IsCompleted {
			flag = successStyle.Render("✓")
		}
		if t.IsArchived {
			flag = mutedStyle.Render("◦")
		}

		goal := ""
		if t.MonthlyGoalHours != nil {
			goal = fmt.Sprintf("%.1fh", *t.MonthlyGoalHours)
		}

		rows = append(rows, style.Render(fmt.Sprintf("%s%s  %-26s %10s %10s %10s",
			cursor, flag, t.Name,
			formatMinutes(t.TotalStudyMinutes),
			formatMinutes(t.CurrentPeriodStudyMinutes),
			goal,
		)))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  e: edit  a: add time  c: complete  v: archive  r: reset cycle  d: delete  z: archived"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
