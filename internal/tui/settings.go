package tui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"oposita/internal/export"
	"oposita/internal/store"
	"oposita/internal/timer"
)

type settingsModel struct {
	store  *store.Store
	timer  *timer.Timer
	width  int
	height int

	settings   []store.Setting
	formActive bool
	form       *huh.Form
	formType   string // "settings", "import"

	// Form values as pointers (survive value copies)
	pomodoroWork      *string
	pomodoroBreak     *string
	pomodoroLongBreak *string
	pomodoroCount     *string
	soundEnabled      *string
	importPath        *string
}

func newSettingsModel(s *store.Store, tm *timer.Timer) settingsModel {
	pw, pb, plb, pc, se, ip := "", "", "", "", "", ""
	return settingsModel{
		store:             s,
		timer:             tm,
		pomodoroWork:      &pw,
		pomodoroBreak:     &pb,
		pomodoroLongBreak: &plb,
		pomodoroCount:     &pc,
		soundEnabled:      &se,
		importPath:        &ip,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, _ := s.store.GetAllSettings()
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showSettingsForm()
		case key.Matches(msg, keys.Import):
			return s.showImportForm()
		}
	}
	return s, nil
}

func (s settingsModel) showSettingsForm() (settingsModel, tea.Cmd) {
	*s.pomodoroWork = s.getVal("pomodoro_work", "50")
	*s.pomodoroBreak = s.getVal("pomodoro_break", "10")
	*s.pomodoroLongBreak = s.getVal("pomodoro_long_break", "30")
	*s.pomodoroCount = s.getVal("pomodoro_count", "4")
	*s.soundEnabled = s.getVal("sound_enabled", "1")
	s.formType = "settings"

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Work phase (min)").Value(s.pomodoroWork),
			huh.NewInput().Title("Break (min)").Value(s.pomodoroBreak),
			huh.NewInput().Title("Long break (min)").Value(s.pomodoroLongBreak),
			huh.NewInput().Title("Work phases before long break").Value(s.pomodoroCount),
			huh.NewSelect[string]().Title("Sound").
				Options(
					huh.NewOption("On", "1"),
					huh.NewOption("Off", "0"),
				).Value(s.soundEnabled),
		).Title("Pomodoro"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) showImportForm() (settingsModel, tea.Cmd) {
	*s.importPath = ""
	s.formType = "import"

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Backup file path").Value(s.importPath),
			huh.NewNote().Description("Import replaces ALL current data."),
		),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		if s.formType == "import" {
			return s, s.doImport(*s.importPath)
		}
		s.saveSettings()
		s.timer.SetConfig(timer.ConfigFromSettings(s.store))
		return s, s.refresh()
	}

	return s, cmd
}

func (s settingsModel) saveSettings() {
	s.setIfNumeric("pomodoro_work", *s.pomodoroWork)
	s.setIfNumeric("pomodoro_break", *s.pomodoroBreak)
	s.setIfNumeric("pomodoro_long_break", *s.pomodoroLongBreak)
	s.setIfNumeric("pomodoro_count", *s.pomodoroCount)
	s.store.SetSetting("sound_enabled", *s.soundEnabled)
}

func (s settingsModel) setIfNumeric(key, val string) {
	if n, err := strconv.Atoi(val); err == nil && n > 0 {
		s.store.SetSetting(key, val)
	}
}

func (s settingsModel) doImport(path string) tea.Cmd {
	return func() tea.Msg {
		snap, err := export.ReadBackup(path)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Import error: %v", err), isError: true}
		}
		if err := s.store.ImportAllData(snap); err != nil {
			return statusMsg{text: fmt.Sprintf("Import error: %v", err), isError: true}
		}
		return importDoneMsg{}
	}
}

func (s settingsModel) getVal(k, fallback string) string {
	v, err := s.store.GetSetting(k)
	if err != nil {
		return fallback
	}
	return v
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		if s.formType == "import" {
			title = titleStyle.Render("Import Backup")
		}
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	var rows []string
	rows = append(rows, titleStyle.Render("Settings"), "")

	for _, setting := range s.settings {
		label := lipgloss.NewStyle().Width(24).Render(setting.Key)
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("enter: edit settings  i: import backup"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSettingValue(k, v string) string {
	switch k {
	case "pomodoro_work", "pomodoro_break", "pomodoro_long_break":
		return v + " min"
	case "sound_enabled":
		if v == "1" {
			return "on"
		}
		return "off"
	}
	return v
}
