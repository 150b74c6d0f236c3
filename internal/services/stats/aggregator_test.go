package stats

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sproutplan/sproutplan-api/internal/models"
	"github.com/sproutplan/sproutplan-api/internal/validation"
)

// fakeStore is an in-memory TaskLister for aggregator tests
type fakeStore struct {
	tasks []*models.Task
}

func (f *fakeStore) ListByDate(_ context.Context, userID uuid.UUID, date string) ([]*models.Task, error) {
	return f.ListByDateRange(context.Background(), userID, date, date)
}

func (f *fakeStore) ListByDateRange(_ context.Context, userID uuid.UUID, from, to string) ([]*models.Task, error) {
	var out []*models.Task
	for _, task := range f.tasks {
		if task.UserID == userID && task.TaskDate >= from && task.TaskDate <= to {
			out = append(out, task)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TaskDate != out[j].TaskDate {
			return out[i].TaskDate < out[j].TaskDate
		}
		return out[i].OrderIndex < out[j].OrderIndex
	})
	return out, nil
}

func newTask(userID uuid.UUID, date string, orderIndex int, completed bool) *models.Task {
	return &models.Task{
		ID:         uuid.New(),
		UserID:     userID,
		Title:      "task",
		Completed:  completed,
		OrderIndex: orderIndex,
		TaskDate:   date,
	}
}

func pinnedClock(date string) func() time.Time {
	t, err := time.Parse(models.DateLayout, date)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t.Add(15 * time.Hour) }
}

func TestDaily(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	otherUser := uuid.New()
	store := &fakeStore{tasks: []*models.Task{
		newTask(userID, "2024-06-10", 0, true),
		newTask(userID, "2024-06-10", 1, false),
		newTask(userID, "2024-06-10", 2, true),
		newTask(userID, "2024-06-10", 3, false),
		newTask(otherUser, "2024-06-10", 0, true),
	}}

	agg := NewAggregator(store)
	agg.SetClock(pinnedClock("2024-06-10"))

	tests := []struct {
		name          string
		date          string
		wantDate      string
		wantTotal     int
		wantCompleted int
		wantPct       float64
		wantErr       bool
	}{
		{
			name:          "explicit date with mixed completion",
			date:          "2024-06-10",
			wantDate:      "2024-06-10",
			wantTotal:     4,
			wantCompleted: 2,
			wantPct:       50,
		},
		{
			name:     "empty partition yields zeroed stats",
			date:     "2024-06-11",
			wantDate: "2024-06-11",
		},
		{
			name:          "empty date defaults to today",
			date:          "",
			wantDate:      "2024-06-10",
			wantTotal:     4,
			wantCompleted: 2,
			wantPct:       50,
		},
		{
			name:    "malformed date rejected",
			date:    "06/10/2024",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := agg.Daily(context.Background(), userID, tt.date)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected an error, got nil")
				}
				if !validation.IsValidationError(err) {
					t.Errorf("Expected a ValidationError, got %T: %v", err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Daily failed: %v", err)
			}

			if got.Date != tt.wantDate {
				t.Errorf("Expected date %s, got %s", tt.wantDate, got.Date)
			}
			if got.TotalTasks != tt.wantTotal {
				t.Errorf("Expected total %d, got %d", tt.wantTotal, got.TotalTasks)
			}
			if got.CompletedTasks != tt.wantCompleted {
				t.Errorf("Expected completed %d, got %d", tt.wantCompleted, got.CompletedTasks)
			}
			if got.RemainingTasks != tt.wantTotal-tt.wantCompleted {
				t.Errorf("Expected remaining %d, got %d", tt.wantTotal-tt.wantCompleted, got.RemainingTasks)
			}
			if got.CompletionPercentage != tt.wantPct {
				t.Errorf("Expected percentage %v, got %v", tt.wantPct, got.CompletionPercentage)
			}
			if got.Tasks == nil {
				t.Error("Expected a non-nil task list")
			}
			if len(got.Tasks) != tt.wantTotal {
				t.Errorf("Expected %d tasks, got %d", tt.wantTotal, len(got.Tasks))
			}
		})
	}
}

func TestDaily_EmptyPartitionPercentageIsZero(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(&fakeStore{})
	agg.SetClock(pinnedClock("2024-06-10"))

	got, err := agg.Daily(context.Background(), uuid.New(), "2024-06-10")
	if err != nil {
		t.Fatalf("Daily failed: %v", err)
	}
	// Zero total must yield exactly 0, never NaN or an error.
	if got.CompletionPercentage != 0 {
		t.Errorf("Expected percentage 0 for empty partition, got %v", got.CompletionPercentage)
	}
}

func TestHistory_Validation(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(&fakeStore{})

	for _, days := range []int{0, -1, MaxHistoryDays + 1} {
		if _, err := agg.History(context.Background(), uuid.New(), days); err == nil {
			t.Errorf("Expected error for days=%d, got nil", days)
		} else if !validation.IsValidationError(err) {
			t.Errorf("Expected a ValidationError for days=%d, got %T", days, err)
		}
	}
}

func TestHistory(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	store := &fakeStore{tasks: []*models.Task{
		newTask(userID, "2024-06-12", 0, true),
		newTask(userID, "2024-06-11", 0, false),
		newTask(userID, "2024-06-11", 1, true),
		// Outside the 3-day window, must not appear.
		newTask(userID, "2024-06-09", 0, true),
	}}

	agg := NewAggregator(store)
	agg.SetClock(pinnedClock("2024-06-12"))

	history, err := agg.History(context.Background(), userID, 3)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}

	if len(history) != 3 {
		t.Fatalf("Expected exactly 3 entries, got %d", len(history))
	}

	wantDates := []string{"2024-06-12", "2024-06-11", "2024-06-10"}
	for i, want := range wantDates {
		if history[i].Date != want {
			t.Errorf("Entry %d: expected date %s, got %s", i, want, history[i].Date)
		}
	}

	if history[0].TotalTasks != 1 || history[0].CompletedTasks != 1 {
		t.Errorf("Today: expected 1/1, got %d/%d", history[0].CompletedTasks, history[0].TotalTasks)
	}
	if history[1].TotalTasks != 2 || history[1].CompletedTasks != 1 {
		t.Errorf("Yesterday: expected 1/2, got %d/%d", history[1].CompletedTasks, history[1].TotalTasks)
	}
	if history[2].TotalTasks != 0 {
		t.Errorf("Two days ago: expected empty day, got %d tasks", history[2].TotalTasks)
	}
	if history[2].Tasks == nil {
		t.Error("Expected empty day to carry an empty (non-nil) task list")
	}
}

func TestWeekly_SpansMondayToSunday(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(&fakeStore{})

	// 2024-06-10 is a Monday. Every weekday of that week must map to
	// the same Monday..Sunday span.
	tests := []struct {
		refDate   string
		wantStart string
		wantEnd   string
	}{
		{"2024-06-10", "2024-06-10", "2024-06-16"}, // Monday
		{"2024-06-11", "2024-06-10", "2024-06-16"}, // Tuesday
		{"2024-06-12", "2024-06-10", "2024-06-16"}, // Wednesday
		{"2024-06-13", "2024-06-10", "2024-06-16"}, // Thursday
		{"2024-06-14", "2024-06-10", "2024-06-16"}, // Friday
		{"2024-06-15", "2024-06-10", "2024-06-16"}, // Saturday
		{"2024-06-16", "2024-06-10", "2024-06-16"}, // Sunday
		{"2024-06-09", "2024-06-03", "2024-06-09"}, // previous week's Sunday
	}

	for _, tt := range tests {
		t.Run(tt.refDate, func(t *testing.T) {
			t.Parallel()

			week, err := agg.Weekly(context.Background(), uuid.New(), tt.refDate)
			if err != nil {
				t.Fatalf("Weekly failed: %v", err)
			}

			if week.WeekStart != tt.wantStart {
				t.Errorf("Expected week start %s, got %s", tt.wantStart, week.WeekStart)
			}
			if week.WeekEnd != tt.wantEnd {
				t.Errorf("Expected week end %s, got %s", tt.wantEnd, week.WeekEnd)
			}
			if len(week.DailyProgress) != 7 {
				t.Fatalf("Expected exactly 7 daily entries, got %d", len(week.DailyProgress))
			}
			if week.DailyProgress[0].Date != tt.wantStart {
				t.Errorf("Expected first entry %s, got %s", tt.wantStart, week.DailyProgress[0].Date)
			}
			if week.DailyProgress[6].Date != tt.wantEnd {
				t.Errorf("Expected last entry %s, got %s", tt.wantEnd, week.DailyProgress[6].Date)
			}
		})
	}
}

func TestWeekly_Totals(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	store := &fakeStore{tasks: []*models.Task{
		newTask(userID, "2024-06-10", 0, true),
		newTask(userID, "2024-06-10", 1, true),
		newTask(userID, "2024-06-12", 0, false),
		newTask(userID, "2024-06-16", 0, true),
		// Next Monday, outside the week.
		newTask(userID, "2024-06-17", 0, true),
	}}

	agg := NewAggregator(store)

	week, err := agg.Weekly(context.Background(), userID, "2024-06-13")
	if err != nil {
		t.Fatalf("Weekly failed: %v", err)
	}

	if week.WeekTotalTasks != 4 {
		t.Errorf("Expected 4 tasks in week, got %d", week.WeekTotalTasks)
	}
	if week.WeekCompletedTasks != 3 {
		t.Errorf("Expected 3 completed in week, got %d", week.WeekCompletedTasks)
	}
	if week.WeekCompletionPercentage != 75 {
		t.Errorf("Expected 75%% completion, got %v", week.WeekCompletionPercentage)
	}
}

func TestWeekly_EmptyWeekIsZeroSafe(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(&fakeStore{})

	week, err := agg.Weekly(context.Background(), uuid.New(), "2024-06-13")
	if err != nil {
		t.Fatalf("Weekly failed: %v", err)
	}

	if week.WeekCompletionPercentage != 0 {
		t.Errorf("Expected 0%% for empty week, got %v", week.WeekCompletionPercentage)
	}
	for i, day := range week.DailyProgress {
		if day.CompletionPercentage != 0 || day.TotalTasks != 0 {
			t.Errorf("Day %d: expected zeroed stats, got %+v", i, day.DailyStats)
		}
	}
}

func TestWeekly_DefaultsToCurrentWeek(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(&fakeStore{})
	agg.SetClock(pinnedClock("2024-06-14")) // Friday

	week, err := agg.Weekly(context.Background(), uuid.New(), "")
	if err != nil {
		t.Fatalf("Weekly failed: %v", err)
	}
	if week.WeekStart != "2024-06-10" || week.WeekEnd != "2024-06-16" {
		t.Errorf("Expected week 2024-06-10..2024-06-16, got %s..%s", week.WeekStart, week.WeekEnd)
	}
}

func TestWeekly_MalformedReferenceDate(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(&fakeStore{})

	if _, err := agg.Weekly(context.Background(), uuid.New(), "last tuesday"); err == nil {
		t.Error("Expected error for malformed reference date")
	}
}
