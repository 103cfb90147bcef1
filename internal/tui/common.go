package tui

import (
	"fmt"
	"time"

	"oposita/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewStudy viewState = iota
	viewTopics
	viewPlanner
	viewStats
	viewSettings
)

var viewNames = []string{"Study", "Topics", "Planner", "Stats", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type sessionCommittedMsg struct {
	minutes int
}

type exportDoneMsg struct {
	path string
}

type importDoneMsg struct{}

// --- Helpers ---

func formatElapsed(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", m, s)
}

// formatMinutes renders a minute total as "3h 25m" / "45m".
func formatMinutes(mins int) string {
	if mins < 60 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dh %02dm", mins/60, mins%60)
}

// topicLabel resolves a possibly dangling topic reference for display.
func topicLabel(topics map[int64]*store.Topic, id *int64) string {
	if id == nil {
		return "No topic"
	}
	if t, ok := topics[*id]; ok {
		return t.Name
	}
	return "No topic"
}

func topicIndex(topics []store.Topic) map[int64]*store.Topic {
	m := make(map[int64]*store.Topic, len(topics))
	for i := range topics {
		m[topics[i].ID] = &topics[i]
	}
	return m
}
