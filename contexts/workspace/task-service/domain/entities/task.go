package entities

import "time"

const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusDone       = "done"
	TaskStatusCancelled  = "cancelled"
)

const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
	TaskPriorityUrgent = "urgent"
)

// Task is a unit of work inside a project. AssigneeUserID is empty for
// unassigned tasks; CompletedAt is set only while the task is done.
type Task struct {
	TaskID         string
	ProjectID      string
	Title          string
	Description    string
	Status         string
	Priority       string
	AssigneeUserID string
	CreatedBy      string
	DueDate        *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time
}

// TaskSummary holds the per-project dashboard counts.
type TaskSummary struct {
	ProjectID       string
	Total           int
	TodoCount       int
	InProgressCount int
	DoneCount       int
	CancelledCount  int
	OverdueCount    int
}

func IsValidTaskStatus(status string) bool {
	switch status {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone, TaskStatusCancelled:
		return true
	}
	return false
}

func IsValidTaskPriority(priority string) bool {
	switch priority {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	}
	return false
}

// PriorityRank orders priorities for sorting, most urgent first.
func PriorityRank(priority string) int {
	switch priority {
	case TaskPriorityUrgent:
		return 0
	case TaskPriorityHigh:
		return 1
	case TaskPriorityMedium:
		return 2
	case TaskPriorityLow:
		return 3
	default:
		return 4
	}
}

// IsOverdue reports whether the task has a due date in the past and is
// still open.
func (t Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	if t.Status == TaskStatusDone || t.Status == TaskStatusCancelled {
		return false
	}
	return t.DueDate.Before(now)
}
