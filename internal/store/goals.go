package store

import (
	"database/sql"
	"fmt"
)

// GetGoalForMonth returns the goal for a "YYYY-MM" month, or (nil, nil)
// when no goal is set.
func (s *Store) GetGoalForMonth(yearMonth string) (*MonthlyGoal, error) {
	g := &MonthlyGoal{}
	err := s.db.QueryRow(
		`SELECT year_month, target_hours FROM monthly_goals WHERE year_month = ?`, yearMonth,
	).Scan(&g.YearMonth, &g.TargetHours)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get goal %s: %w", yearMonth, err)
	}
	return g, nil
}

// UpsertGoal inserts or replaces the goal for its month. Goals are never
// deleted, only overwritten.
func (s *Store) UpsertGoal(g *MonthlyGoal) error {
	_, err := s.db.Exec(
		`INSERT INTO monthly_goals (year_month, target_hours) VALUES (?, ?)
		 ON CONFLICT(year_month) DO UPDATE SET target_hours = excluded.target_hours`,
		g.YearMonth, g.TargetHours,
	)
	if err != nil {
		return fmt.Errorf("upsert goal %s: %w", g.YearMonth, err)
	}
	return nil
}

// GetAllGoals returns every goal, newest month first.
func (s *Store) GetAllGoals() ([]MonthlyGoal, error) {
	rows, err := s.db.Query(`SELECT year_month, target_hours FROM monthly_goals ORDER BY year_month DESC`)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []MonthlyGoal
	for rows.Next() {
		var g MonthlyGoal
		if err := rows.Scan(&g.YearMonth, &g.TargetHours); err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}
