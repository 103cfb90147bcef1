package store

// Topic is a user-defined subject of study. TotalStudyMinutes tracks the
// full session ledger; CurrentPeriodStudyMinutes accumulates identically
// but can be reset on its own for revision cycles.
type Topic struct {
	ID                        int64    `json:"id"`
	Name                      string   `json:"name"`
	Description               string   `json:"description"`
	CreatedAt                 int64    `json:"createdAt"` // epoch ms
	IsCompleted               bool     `json:"isCompleted"`
	IsArchived                bool     `json:"isArchived"`
	TotalStudyMinutes         int      `json:"totalStudyMinutes"`
	CurrentPeriodStudyMinutes int      `json:"currentPeriodStudyMinutes"`
	MonthlyGoalHours          *float64 `json:"monthlyGoalHours"`
	GoalYearMonth             *string  `json:"goalYearMonth"` // "YYYY-MM"
	SortOrder                 int      `json:"sortOrder"`
}

// StudySession is one completed interval of study time. Date is the local
// calendar day of StartTime, fixed at creation; edits never move it.
type StudySession struct {
	ID                   int64  `json:"id"`
	StartTime            int64  `json:"startTime"` // epoch ms
	EndTime              int64  `json:"endTime"`   // epoch ms
	DurationMinutes      int    `json:"durationMinutes"`
	TopicID              *int64 `json:"topicId"` // may dangle after topic deletion
	IsPomodoroSession    bool   `json:"isPomodoroSession"`
	PomodoroWorkMinutes  int    `json:"pomodoroWorkMinutes"`
	PomodoroBreakMinutes int    `json:"pomodoroBreakMinutes"`
	Date                 string `json:"date"` // "YYYY-MM-DD"
}

// DailyRecord aggregates study minutes per calendar day. It is only ever
// incremented; deleting a session elsewhere does not lower it.
type DailyRecord struct {
	Date         string `json:"date"` // "YYYY-MM-DD", primary key
	StudyMinutes int    `json:"studyMinutes"`
	TopicID      *int64 `json:"topicId"` // informational only
	Notes        string `json:"notes"`
}

// MonthlyGoal stores only the target; completed minutes are recomputed
// from the session ledger on every read.
type MonthlyGoal struct {
	YearMonth   string  `json:"yearMonth"` // "YYYY-MM", primary key
	TargetHours float64 `json:"targetHours"`
}

// PlannedTask is a scheduled study item. TopicName is a snapshot taken at
// creation and does not follow topic renames or deletion.
type PlannedTask struct {
	ID               int64  `json:"id"`
	Date             string `json:"date"`
	TopicID          *int64 `json:"topicId"`
	TopicName        string `json:"topicName"`
	PlannedMinutes   int    `json:"plannedMinutes"`
	Notes            string `json:"notes"`
	IsCompleted      bool   `json:"isCompleted"`
	CompletedMinutes int    `json:"completedMinutes"`
	CreatedAt        int64  `json:"createdAt"` // epoch ms
}

type Setting struct {
	Key   string
	Value string
}
