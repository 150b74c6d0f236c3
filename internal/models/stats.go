package models

// DailyStats summarizes one (user, date) partition. CompletionPercentage
// is defined as 0 for an empty partition, never NaN.
type DailyStats struct {
	Date                 string  `json:"date"`
	TotalTasks           int     `json:"total_tasks"`
	CompletedTasks       int     `json:"completed_tasks"`
	RemainingTasks       int     `json:"remaining_tasks"`
	CompletionPercentage float64 `json:"completion_percentage"`
}

// DailyProgress is DailyStats plus the day's task list in display order.
type DailyProgress struct {
	DailyStats
	Tasks []*Task `json:"tasks"`
}

// WeeklyProgress aggregates a Monday..Sunday ISO week. DailyProgress
// always holds exactly 7 entries, Monday first.
type WeeklyProgress struct {
	WeekStart                string           `json:"week_start"`
	WeekEnd                  string           `json:"week_end"`
	DailyProgress            []*DailyProgress `json:"daily_progress"`
	WeekTotalTasks           int              `json:"week_total_tasks"`
	WeekCompletedTasks       int              `json:"week_completed_tasks"`
	WeekCompletionPercentage float64          `json:"week_completion_percentage"`
}
