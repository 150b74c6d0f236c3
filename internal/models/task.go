package models

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire and storage format for task dates (ISO calendar date).
const DateLayout = "2006-01-02"

// Task represents one planned action for one user on one calendar day.
// Tasks are partitioned by (UserID, TaskDate); OrderIndex defines the
// display order within a partition. Gaps in OrderIndex are tolerated
// after deletes, ordering is by relative value.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Title       string     `json:"title"`
	Completed   bool       `json:"completed"`
	OrderIndex  int        `json:"order_index"`
	TaskDate    string     `json:"task_date"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
