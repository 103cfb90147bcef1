package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"oposita/internal/store"
)

// ToCSV writes the session ledger to path. Sessions whose topic was
// deleted keep their dangling id and come out as "No topic".
func ToCSV(sessions []store.StudySession, topics map[int64]*store.Topic, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"ID", "Date", "Topic", "Start", "End", "Minutes", "Duration", "Pomodoro"}); err != nil {
		return err
	}

	for _, s := range sessions {
		topicName := "No topic"
		if s.TopicID != nil {
			if t, ok := topics[*s.TopicID]; ok {
				topicName = t.Name
			}
		}
		pomodoro := ""
		if s.IsPomodoroSession {
			pomodoro = fmt.Sprintf("%d/%d", s.PomodoroWorkMinutes, s.PomodoroBreakMinutes)
		}

		row := []string{
			fmt.Sprintf("%d", s.ID),
			s.Date,
			topicName,
			time.UnixMilli(s.StartTime).Local().Format(time.RFC3339),
			time.UnixMilli(s.EndTime).Local().Format(time.RFC3339),
			fmt.Sprintf("%d", s.DurationMinutes),
			formatMinutes(s.DurationMinutes),
			pomodoro,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func formatMinutes(mins int) string {
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}
