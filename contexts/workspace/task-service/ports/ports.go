// Package ports declares the interfaces the task application layer
// depends on. Adapters implement them; the composition root wires them.
package ports

import (
	"context"
	"time"

	"crewdeck/contexts/workspace/task-service/domain/entities"
)

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator produces task identifiers.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// ProjectDirectory answers project questions owned by the project
// context: existence and active membership. The composition root backs
// it with the project module.
type ProjectDirectory interface {
	ProjectExists(ctx context.Context, projectID string) (bool, error)
	IsActiveMember(ctx context.Context, projectID string, userID string) (bool, error)
}

// CreateTaskInput carries a fully resolved task row for insertion.
type CreateTaskInput struct {
	TaskID         string
	ProjectID      string
	Title          string
	Description    string
	Priority       string
	AssigneeUserID string
	CreatedBy      string
	DueDate        *time.Time
	CreatedAt      time.Time
}

// UpdateTaskInput carries optional field updates; nil means keep current.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Priority    *string
	DueDate     *time.Time
	ClearDue    bool
	UpdatedAt   time.Time
}

// TaskFilter narrows ListTasks. Empty fields are ignored.
type TaskFilter struct {
	ProjectID      string
	AssigneeUserID string
	Status         string
	Priority       string
}

// Repository persists tasks. ListTasks returns unordered rows matching
// the filter; ordering is applied by the application layer so both
// adapters shape lists identically.
type Repository interface {
	CreateTask(ctx context.Context, input CreateTaskInput) (entities.Task, error)
	GetTask(ctx context.Context, taskID string) (entities.Task, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]entities.Task, error)
	UpdateTask(ctx context.Context, taskID string, input UpdateTaskInput) (entities.Task, error)
	SetAssignee(ctx context.Context, taskID string, assigneeUserID string, updatedAt time.Time) (entities.Task, error)
	SetStatus(ctx context.Context, taskID string, status string, completedAt *time.Time, updatedAt time.Time) (entities.Task, error)
	DeleteTask(ctx context.Context, taskID string) error
	DeleteProjectTasks(ctx context.Context, projectID string) error
}
