package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sproutplan/sproutplan-api/internal/models"
	"github.com/sproutplan/sproutplan-api/internal/validation"
	"go.uber.org/zap"
)

// TaskRepository handles task database operations. Tasks are
// partitioned by (user_id, task_date) and ordered by order_index
// within a partition.
type TaskRepository struct {
	db  *DB
	log *zap.Logger
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db, log: zap.NewNop()}
}

// SetLogger sets the logger used for reorder diagnostics
func (r *TaskRepository) SetLogger(log *zap.Logger) {
	if log != nil {
		r.log = log
	}
}

// Create inserts a new task at the end of its partition. The order
// index is computed inside the INSERT (max+1, or 0 for an empty
// partition) so creates stay dense without a read-modify-write cycle.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (id, user_id, title, completed, order_index, task_date, created_at, completed_at)
		VALUES ($1, $2, $3, FALSE,
			(SELECT COALESCE(MAX(order_index) + 1, 0) FROM tasks WHERE user_id = $2 AND task_date = $4),
			$4, NOW(), NULL)
		RETURNING order_index, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.TaskDate,
	).Scan(&task.OrderIndex, &task.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	task.Completed = false
	task.CompletedAt = nil

	return nil
}

// GetByID retrieves a task by ID, scoped to the owning user
func (r *TaskRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Task, error) {
	query := `
		SELECT id, user_id, title, completed, order_index, task_date, created_at, completed_at
		FROM tasks
		WHERE id = $1 AND user_id = $2
	`

	task, err := scanTask(r.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return task, nil
}

// ListByDate retrieves the tasks of one (user, date) partition sorted
// ascending by order_index. An empty partition yields an empty slice,
// not an error.
func (r *TaskRepository) ListByDate(ctx context.Context, userID uuid.UUID, date string) ([]*models.Task, error) {
	query := `
		SELECT id, user_id, title, completed, order_index, task_date, created_at, completed_at
		FROM tasks
		WHERE user_id = $1 AND task_date = $2
		ORDER BY order_index ASC, created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// ListByDateRange retrieves all tasks with from <= task_date <= to,
// sorted by date then order_index. ISO date strings are fixed width so
// string comparison matches calendar order.
func (r *TaskRepository) ListByDateRange(ctx context.Context, userID uuid.UUID, from, to string) ([]*models.Task, error) {
	query := `
		SELECT id, user_id, title, completed, order_index, task_date, created_at, completed_at
		FROM tasks
		WHERE user_id = $1 AND task_date >= $2 AND task_date <= $3
		ORDER BY task_date ASC, order_index ASC, created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks by range: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// Update persists the mutable fields (title, completed, completed_at).
// task_date and order_index are immutable here; ordering changes go
// through Reorder.
func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks
		SET title = $3, completed = $4, completed_at = $5
		WHERE id = $1 AND user_id = $2
	`

	var completedAt sql.NullTime
	if task.CompletedAt != nil {
		completedAt = sql.NullTime{Time: *task.CompletedAt, Valid: true}
	}

	result, err := r.db.ExecContext(ctx, query, task.ID, task.UserID, task.Title, task.Completed, completedAt)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("task %s: %w", task.ID, ErrNotFound)
	}

	return nil
}

// Delete removes a task. Remaining tasks in the partition keep their
// order_index values; List sorts by relative value so the gap is
// harmless.
func (r *TaskRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}

	return nil
}

// Reorder assigns dense order indices 0..n-1 following the position of
// each id in orderedIDs. The partition is inferred from the tasks'
// stored task_date; the submitted list must cover exactly the tasks of
// one partition. All index updates run in a single transaction, so a
// partial reorder is never observable.
func (r *TaskRepository) Reorder(ctx context.Context, userID uuid.UUID, orderedIDs []uuid.UUID) error {
	if len(orderedIDs) == 0 {
		return validation.NewError("reorder requires at least one task id")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin reorder transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	ids := make([]string, len(orderedIDs))
	for i, id := range orderedIDs {
		ids[i] = id.String()
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT id, task_date FROM tasks
		WHERE user_id = $1 AND id = ANY($2)
		FOR UPDATE
	`, userID, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to lock reorder set: %w", err)
	}

	dates := make(map[uuid.UUID]string, len(orderedIDs))
	for rows.Next() {
		var id uuid.UUID
		var date string
		if err := rows.Scan(&id, &date); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan reorder row: %w", err)
		}
		dates[id] = date
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating reorder rows: %w", err)
	}

	date, err := reorderPartition(orderedIDs, dates)
	if err != nil {
		return err
	}

	// The submitted list must be the partition's full ordering, so the
	// committed indices are exactly {0..n-1}.
	var partitionSize int
	if err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tasks WHERE user_id = $1 AND task_date = $2
	`, userID, date).Scan(&partitionSize); err != nil {
		return fmt.Errorf("failed to count partition: %w", err)
	}
	if partitionSize != len(orderedIDs) {
		return validation.NewError("reorder must include all %d tasks for %s, got %d", partitionSize, date, len(orderedIDs))
	}

	for position, id := range orderedIDs {
		if _, err := tx.ExecContext(ctx, `
			UPDATE tasks SET order_index = $3 WHERE id = $1 AND user_id = $2
		`, id, userID, position); err != nil {
			return fmt.Errorf("failed to update order index: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reorder: %w", err)
	}

	r.log.Debug("tasks_reordered",
		zap.String("user_id", userID.String()),
		zap.String("task_date", date),
		zap.Int("count", len(orderedIDs)),
	)

	return nil
}

// reorderPartition checks the submitted ids against their stored
// partition dates. Every id must resolve to an owned task and all
// tasks must share one task_date; duplicates are rejected.
func reorderPartition(orderedIDs []uuid.UUID, dates map[uuid.UUID]string) (string, error) {
	seen := make(map[uuid.UUID]bool, len(orderedIDs))
	date := ""
	for _, id := range orderedIDs {
		if seen[id] {
			return "", validation.NewError("duplicate task id %s in reorder list", id)
		}
		seen[id] = true

		d, ok := dates[id]
		if !ok {
			return "", validation.NewError("task %s does not exist or is not owned by the caller", id)
		}
		if date == "" {
			date = d
		} else if d != date {
			return "", validation.NewError("reorder spans multiple dates (%s and %s)", date, d)
		}
	}
	return date, nil
}

func scanTask(row *sql.Row) (*models.Task, error) {
	task := &models.Task{}
	var completedAt sql.NullTime

	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Completed,
		&task.OrderIndex,
		&task.TaskDate,
		&task.CreatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		task.CompletedAt = &completedAt.Time
	}

	return task, nil
}

func collectTasks(rows *sql.Rows) ([]*models.Task, error) {
	tasks := []*models.Task{}
	for rows.Next() {
		task := &models.Task{}
		var completedAt sql.NullTime

		err := rows.Scan(
			&task.ID,
			&task.UserID,
			&task.Title,
			&task.Completed,
			&task.OrderIndex,
			&task.TaskDate,
			&task.CreatedAt,
			&completedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}

		if completedAt.Valid {
			task.CompletedAt = &completedAt.Time
		}

		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}
