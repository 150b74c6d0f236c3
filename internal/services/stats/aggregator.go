package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sproutplan/sproutplan-api/internal/models"
	"github.com/sproutplan/sproutplan-api/internal/validation"
)

// MaxHistoryDays bounds the history window to keep range queries sane
const MaxHistoryDays = 365

// TaskLister is the read surface the aggregator needs from the task
// store. The aggregator holds no state of its own; every call
// recomputes from current store contents.
type TaskLister interface {
	ListByDate(ctx context.Context, userID uuid.UUID, date string) ([]*models.Task, error)
	ListByDateRange(ctx context.Context, userID uuid.UUID, from, to string) ([]*models.Task, error)
}

// Aggregator derives per-day and per-week summaries from task store
// contents. It never errors on empty data, only on malformed input.
type Aggregator struct {
	tasks TaskLister
	now   func() time.Time
}

// NewAggregator creates a statistics aggregator over the given store
func NewAggregator(tasks TaskLister) *Aggregator {
	return &Aggregator{tasks: tasks, now: time.Now}
}

// SetClock overrides the time source. Used by tests to pin "today".
func (a *Aggregator) SetClock(now func() time.Time) {
	if now != nil {
		a.now = now
	}
}

// Daily computes the stats for one (user, date) partition. An empty
// date defaults to the current day. Empty partitions yield zeroed
// stats with a 0 completion percentage, never an error.
func (a *Aggregator) Daily(ctx context.Context, userID uuid.UUID, date string) (*models.DailyProgress, error) {
	if date == "" {
		date = a.now().Format(models.DateLayout)
	} else if err := validation.ValidateDate(date); err != nil {
		return nil, err
	}

	tasks, err := a.tasks.ListByDate(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks for %s: %w", date, err)
	}

	return buildProgress(date, tasks), nil
}

// History returns one entry per calendar day for the `days` dates
// ending at and including today, newest first.
func (a *Aggregator) History(ctx context.Context, userID uuid.UUID, days int) ([]*models.DailyProgress, error) {
	if days < 1 {
		return nil, validation.NewError("days must be a positive integer, got %d", days)
	}
	if days > MaxHistoryDays {
		return nil, validation.NewError("days must be at most %d, got %d", MaxHistoryDays, days)
	}

	today := a.now()
	from := today.AddDate(0, 0, -(days - 1)).Format(models.DateLayout)
	to := today.Format(models.DateLayout)

	byDate, err := a.tasksByDate(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	history := make([]*models.DailyProgress, 0, days)
	for i := 0; i < days; i++ {
		date := today.AddDate(0, 0, -i).Format(models.DateLayout)
		history = append(history, buildProgress(date, byDate[date]))
	}

	return history, nil
}

// Weekly computes the Monday..Sunday ISO week containing refDate
// (default: today) with per-day stats and week-level totals. Always
// exactly 7 daily entries, Monday first.
func (a *Aggregator) Weekly(ctx context.Context, userID uuid.UUID, refDate string) (*models.WeeklyProgress, error) {
	ref := a.now()
	if refDate != "" {
		parsed, err := validation.ParseDate(refDate)
		if err != nil {
			return nil, err
		}
		ref = parsed
	}

	monday := ref.AddDate(0, 0, -mondayOffset(ref))
	sunday := monday.AddDate(0, 0, 6)

	byDate, err := a.tasksByDate(ctx, userID,
		monday.Format(models.DateLayout), sunday.Format(models.DateLayout))
	if err != nil {
		return nil, err
	}

	week := &models.WeeklyProgress{
		WeekStart:     monday.Format(models.DateLayout),
		WeekEnd:       sunday.Format(models.DateLayout),
		DailyProgress: make([]*models.DailyProgress, 0, 7),
	}

	for i := 0; i < 7; i++ {
		date := monday.AddDate(0, 0, i).Format(models.DateLayout)
		day := buildProgress(date, byDate[date])
		week.DailyProgress = append(week.DailyProgress, day)
		week.WeekTotalTasks += day.TotalTasks
		week.WeekCompletedTasks += day.CompletedTasks
	}

	week.WeekCompletionPercentage = percentage(week.WeekCompletedTasks, week.WeekTotalTasks)

	return week, nil
}

func (a *Aggregator) tasksByDate(ctx context.Context, userID uuid.UUID, from, to string) (map[string][]*models.Task, error) {
	tasks, err := a.tasks.ListByDateRange(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks %s..%s: %w", from, to, err)
	}

	// The store returns tasks sorted by date then order_index, so each
	// per-date bucket keeps its display order.
	byDate := make(map[string][]*models.Task)
	for _, task := range tasks {
		byDate[task.TaskDate] = append(byDate[task.TaskDate], task)
	}
	return byDate, nil
}

// mondayOffset returns how many days t lies after the Monday of its
// ISO week (Monday = 0 .. Sunday = 6).
func mondayOffset(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func buildProgress(date string, tasks []*models.Task) *models.DailyProgress {
	if tasks == nil {
		tasks = []*models.Task{}
	}

	completed := 0
	for _, task := range tasks {
		if task.Completed {
			completed++
		}
	}

	total := len(tasks)
	return &models.DailyProgress{
		DailyStats: models.DailyStats{
			Date:                 date,
			TotalTasks:           total,
			CompletedTasks:       completed,
			RemainingTasks:       total - completed,
			CompletionPercentage: percentage(completed, total),
		},
		Tasks: tasks,
	}
}

// percentage is zero-safe: an empty partition reports 0, never NaN.
func percentage(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}
