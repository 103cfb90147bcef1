package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"oposita/internal/export"
	"oposita/internal/store"
	"oposita/internal/timer"
)

// App is the root Bubble Tea model.
type App struct {
	store  *store.Store
	timer  *timer.Timer
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	study    studyModel
	topics   topicsModel
	planner  plannerModel
	stats    statsModel
	settings settingsModel

	help   help.Model
	status string
}

func NewApp(s *store.Store, tm *timer.Timer) App {
	h := help.New()
	h.ShowAll = false

	return App{
		store:      s,
		timer:      tm,
		activeView: viewStudy,
		study:      newStudyModel(s, tm),
		topics:     newTopicsModel(s),
		planner:    newPlannerModel(s),
		stats:      newStatsModel(s),
		settings:   newSettingsModel(s, tm),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.study.refresh(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.study.setSize(a.width, contentHeight)
		a.topics.setSize(a.width, contentHeight)
		a.planner.setSize(a.width, contentHeight)
		a.stats.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			// An abandoned run would lose its minutes; commit it.
			if a.timer.State().Running {
				a.timer.Stop()
			}
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewStudy
			return a, a.study.refresh()
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewTopics
			return a, a.topics.refresh()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewPlanner
			return a, a.planner.refresh()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewStats
			return a, a.stats.refresh()
		case key.Matches(msg, keys.Tab5):
			a.activeView = viewSettings
			return a, a.settings.refresh()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % 5
			return a, a.refreshCurrentView()
		}

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		// Always route ticks to the study view so the timer keeps
		// rendering while another tab is open.
		var cmd tea.Cmd
		a.study, cmd = a.study.update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case statusMsg:
		a.status = msg.text
		return a, nil

	case sessionCommittedMsg:
		if msg.minutes > 0 {
			a.status = fmt.Sprintf("Saved %d min", msg.minutes)
		} else {
			a.status = "Too short, nothing saved"
		}
		return a, a.study.refresh()

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.exportPicking = false
		return a, nil

	case importDoneMsg:
		a.status = "Backup imported"
		return a, tea.Batch(a.study.refresh(), a.refreshCurrentView())
	}

	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewStudy:
		a.study, cmd = a.study.update(msg)
	case viewTopics:
		a.topics, cmd = a.topics.update(msg)
	case viewPlanner:
		a.planner, cmd = a.planner.update(msg)
	case viewStats:
		a.stats, cmd = a.stats.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewStudy:
		return a.study.picking
	case viewTopics:
		return a.topics.formActive
	case viewPlanner:
		return a.planner.formActive
	case viewStats:
		return a.stats.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewStudy:
		return a.study.refresh()
	case viewTopics:
		return a.topics.refresh()
	case viewPlanner:
		return a.planner.refresh()
	case viewStats:
		return a.stats.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewStudy:
		content = a.study.view()
	case viewTopics:
		content = a.topics.view()
	case viewPlanner:
		content = a.planner.view()
	case viewStats:
		content = a.stats.view()
	case viewSettings:
		content = a.settings.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("oposita")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		status = style.Render(" " + a.status)
	}

	// Timer indicator in footer
	timerInfo := ""
	if state := a.timer.State(); state.Running {
		elapsed := time.Duration(state.ElapsedMs) * time.Millisecond
		if state.Paused {
			timerInfo = warningStyle.Render(" ⏸ " + formatElapsed(elapsed))
		} else {
			timerInfo = successStyle.Render(" ● " + formatElapsed(elapsed))
		}
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export")
	formats := []string{"JSON backup (full data)", "CSV (session ledger)"}
	var rows []string
	rows = append(rows, title, "")
	for i, f := range formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < 1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	return func() tea.Msg {
		home, _ := os.UserHomeDir()
		dateStr := time.Now().Format("2006-01-02")

		if format == 0 {
			snap, err := a.store.ExportAllData()
			if err != nil {
				return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
			}
			path := filepath.Join(home, fmt.Sprintf("oposita-backup-%s.json", dateStr))
			if err := export.WriteBackup(snap, path); err != nil {
				return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
			}
			return exportDoneMsg{path: path}
		}

		sessions, err := a.store.GetAllSessions()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		topics, _ := a.store.GetAllTopics()
		path := filepath.Join(home, fmt.Sprintf("oposita-sessions-%s.csv", dateStr))
		if err := export.ToCSV(sessions, topicIndex(topics), path); err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		return exportDoneMsg{path: path}
	}
}
