package store

import "github.com/pkg/errors"

// Task is a single unit of work owned by exactly one user.
type Task struct {
	ID          int32
	CreatorID   string
	Title       string
	Description string
	Completed   bool
	CreatedTs   int64
	UpdatedTs   int64
}

// FindTask filters for ListTasks / GetTask. CreatorID is mandatory: no task
// query runs without an owner filter.
type FindTask struct {
	ID        *int32
	CreatorID string
	Completed *bool
}

// UpdateTask carries a partial update. Nil fields are left untouched.
type UpdateTask struct {
	ID          int32
	CreatorID   string
	Title       *string
	Description *string
	Completed   *bool
}

// DeleteTask removes a single task of the given owner.
type DeleteTask struct {
	ID        int32
	CreatorID string
}

// Task status filter values accepted by list operations.
const (
	TaskStatusAll       = "all"
	TaskStatusPending   = "pending"
	TaskStatusCompleted = "completed"
)

// ParseTaskStatus maps a status filter string to the Completed filter used by
// FindTask. An empty status means all.
func ParseTaskStatus(status string) (*bool, error) {
	switch status {
	case "", TaskStatusAll:
		return nil, nil
	case TaskStatusPending:
		completed := false
		return &completed, nil
	case TaskStatusCompleted:
		completed := true
		return &completed, nil
	default:
		return nil, errors.Wrapf(ErrValidation, "status must be one of %s, %s, %s", TaskStatusAll, TaskStatusPending, TaskStatusCompleted)
	}
}
