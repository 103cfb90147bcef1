package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"oposita/internal/store"
)

// statsModel shows one month of daily study bars plus progress against
// the monthly goal.
type statsModel struct {
	store  *store.Store
	width  int
	height int

	offset      int // months back from the current one (0 = current)
	records     []store.DailyRecord
	goal        *store.MonthlyGoal
	totalMin    int
	plannedDays map[string]bool

	chart barchart.Model

	formActive bool
	form       *huh.Form
	formGoal   *string
}

func newStatsModel(s *store.Store) statsModel {
	goal := ""
	return statsModel{
		store:    s,
		chart:    barchart.New(60, 12),
		formGoal: &goal,
	}
}

func (m *statsModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m statsModel) month() time.Time {
	now := time.Now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local)
	return first.AddDate(0, -m.offset, 0)
}

type statsDataMsg struct {
	records     []store.DailyRecord
	goal        *store.MonthlyGoal
	totalMin    int
	plannedDays map[string]bool
}

func (m statsModel) refresh() tea.Cmd {
	ym := store.MonthString(m.month())
	return func() tea.Msg {
		records, _ := m.store.GetRecordsForMonth(ym)
		goal, _ := m.store.GetGoalForMonth(ym)
		total, _ := m.store.GetTotalMinutesForMonth(ym)
		dates, _ := m.store.GetDatesWithPlannedTasksForMonth(ym)
		planned := make(map[string]bool, len(dates))
		for _, d := range dates {
			planned[d] = true
		}
		return statsDataMsg{records: records, goal: goal, totalMin: total, plannedDays: planned}
	}
}

func (m statsModel) update(msg tea.Msg) (statsModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case statsDataMsg:
		m.records = msg.records
		m.goal = msg.goal
		m.totalMin = msg.totalMin
		m.plannedDays = msg.plannedDays
		m.buildChart()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			m.offset++
			return m, m.refresh()
		case key.Matches(msg, keys.Right):
			if m.offset > 0 {
				m.offset--
			}
			return m, m.refresh()
		case msg.String() == "g":
			return m.showGoalForm()
		}
	}
	return m, nil
}

func (m *statsModel) buildChart() {
	chartWidth := m.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if m.height > 30 {
		chartHeight = 16
	}

	m.chart = barchart.New(chartWidth, chartHeight)

	byDate := make(map[string]int, len(m.records))
	for _, r := range m.records {
		byDate[r.Date] = r.StudyMinutes
	}

	first := m.month()
	next := first.AddDate(0, 1, 0)

	var bars []barchart.BarData
	for d := first; d.Before(next); d = d.AddDate(0, 0, 1) {
		dateStr := store.DayString(d)
		hours := float64(byDate[dateStr]) / 60.0

		style := lipgloss.NewStyle().Foreground(colorPrimary)
		if hours == 0 {
			style = lipgloss.NewStyle().Foreground(colorSubtle)
		}

		bars = append(bars, barchart.BarData{
			Label: d.Format("02"),
			Values: []barchart.BarValue{
				{Name: dateStr, Value: hours, Style: style},
			},
		})
	}

	m.chart.PushAll(bars)
	m.chart.Draw()
}

func (m statsModel) showGoalForm() (statsModel, tea.Cmd) {
	*m.formGoal = ""
	if m.goal != nil {
		*m.formGoal = strconv.FormatFloat(m.goal.TargetHours, 'f', -1, 64)
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("Goal for %s (hours)", store.MonthString(m.month()))).
				Value(m.formGoal),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m statsModel) updateForm(msg tea.Msg) (statsModel, tea.Cmd) {
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
		if hours, err := strconv.ParseFloat(strings.TrimSpace(*m.formGoal), 64); err == nil && hours > 0 {
			m.store.UpsertGoal(&store.MonthlyGoal{
				YearMonth:   store.MonthString(m.month()),
				TargetHours: hours,
			})
		}
		return m, m.refresh()
	}

	return m, cmd
}

func (m statsModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Monthly Goal"), "", m.form.View()),
		)
	}

	month := m.month()
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Stats"), "  ",
		highlightStyle.Render(month.Format("January 2006")),
	)

	chartView := m.chart.View()

	progress := m.renderGoalProgress()
	planned := m.renderPlannedNote()
	nav := mutedStyle.Render("  ←/→: month  g: set goal")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, "", chartView, "", progress, planned, "", nav),
	)
}

func (m statsModel) renderGoalProgress() string {
	total := fmt.Sprintf("  Studied: %s", highlightStyle.Render(formatMinutes(m.totalMin)))
	if m.goal == nil {
		return total + mutedStyle.Render("  (no goal set)")
	}

	targetMin := int(m.goal.TargetHours * 60)
	pct := 0.0
	if targetMin > 0 {
		pct = float64(m.totalMin) / float64(targetMin) * 100
	}

	style := warningStyle
	if pct >= 100 {
		style = successStyle
	}
	return total + fmt.Sprintf("  Goal: %s  %s",
		formatMinutes(targetMin),
		style.Render(fmt.Sprintf("%.0f%%", pct)),
	)
}

func (m statsModel) renderPlannedNote() string {
	if len(m.plannedDays) == 0 {
		return ""
	}
	return mutedStyle.Render(fmt.Sprintf("  %d day(s) with planned tasks this month", len(m.plannedDays)))
}
