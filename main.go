package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"oposita/internal/store"
	"oposita/internal/timer"
	"oposita/internal/tui"
)

func main() {
	dbPath, err := store.DefaultDBPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	s, err := store.New(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening database: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	tm := timer.New(s, timer.ConfigFromSettings(s))

	app := tui.NewApp(s, tm)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
