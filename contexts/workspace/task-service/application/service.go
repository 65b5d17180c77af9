package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"crewdeck/contexts/workspace/task-service/domain/entities"
	domainerrors "crewdeck/contexts/workspace/task-service/domain/errors"
	"crewdeck/contexts/workspace/task-service/domain/services"
	"crewdeck/contexts/workspace/task-service/ports"
)

// Service coordinates task operations against the repository and the
// project directory.
type Service struct {
	Repo        ports.Repository
	Projects    ports.ProjectDirectory
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// CreateTaskInput is the application-level input for CreateTask.
type CreateTaskInput struct {
	ProjectID      string
	Title          string
	Description    string
	Priority       string
	AssigneeUserID string
	DueDate        *time.Time
}

// UpdateTaskInput carries optional field updates; nil means keep
// current. ClearDue removes an existing due date.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Priority    *string
	DueDate     *time.Time
	ClearDue    bool
}

// CreateTask creates a task in the todo status. The project must exist
// and the assignee, when given, must be an active member of it.
func (s Service) CreateTask(ctx context.Context, actorID string, input CreateTaskInput) (entities.Task, error) {
	if strings.TrimSpace(actorID) == "" || strings.TrimSpace(input.ProjectID) == "" || strings.TrimSpace(input.Title) == "" {
		return entities.Task{}, domainerrors.ErrInvalidRequest
	}
	priority := input.Priority
	if priority == "" {
		priority = entities.TaskPriorityMedium
	}
	if !entities.IsValidTaskPriority(priority) {
		return entities.Task{}, domainerrors.ErrInvalidPriority
	}

	exists, err := s.Projects.ProjectExists(ctx, input.ProjectID)
	if err != nil {
		return entities.Task{}, err
	}
	if !exists {
		return entities.Task{}, domainerrors.ErrProjectNotFound
	}
	assignee := strings.TrimSpace(input.AssigneeUserID)
	if assignee != "" {
		if err := s.requireMember(ctx, input.ProjectID, assignee); err != nil {
			return entities.Task{}, err
		}
	}

	taskID, err := s.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.Task{}, err
	}
	task, err := s.Repo.CreateTask(ctx, ports.CreateTaskInput{
		TaskID:         taskID,
		ProjectID:      strings.TrimSpace(input.ProjectID),
		Title:          strings.TrimSpace(input.Title),
		Description:    strings.TrimSpace(input.Description),
		Priority:       priority,
		AssigneeUserID: assignee,
		CreatedBy:      strings.TrimSpace(actorID),
		DueDate:        input.DueDate,
		CreatedAt:      s.now(),
	})
	if err != nil {
		return entities.Task{}, err
	}

	s.logger().Info("task created",
		"event", "task_created",
		"module", "workspace/task-service",
		"layer", "application",
		"task_id", task.TaskID,
		"project_id", task.ProjectID,
		"priority", task.Priority,
	)
	return task, nil
}

// GetTask returns a single task.
func (s Service) GetTask(ctx context.Context, taskID string) (entities.Task, error) {
	if strings.TrimSpace(taskID) == "" {
		return entities.Task{}, domainerrors.ErrInvalidRequest
	}
	return s.Repo.GetTask(ctx, taskID)
}

// ListTasks returns tasks matching the filter in the requested order.
func (s Service) ListTasks(ctx context.Context, filter ports.TaskFilter, sortKey string) ([]entities.Task, error) {
	if !services.IsValidSortKey(sortKey) {
		return nil, domainerrors.ErrInvalidRequest
	}
	if filter.Status != "" && !entities.IsValidTaskStatus(filter.Status) {
		return nil, domainerrors.ErrInvalidStatus
	}
	if filter.Priority != "" && !entities.IsValidTaskPriority(filter.Priority) {
		return nil, domainerrors.ErrInvalidPriority
	}

	tasks, err := s.Repo.ListTasks(ctx, filter)
	if err != nil {
		return nil, err
	}
	services.SortTasks(tasks, sortKey, s.now())
	return tasks, nil
}

// UpdateTask applies field updates to an open or closed task.
func (s Service) UpdateTask(ctx context.Context, actorID string, taskID string, input UpdateTaskInput) (entities.Task, error) {
	if strings.TrimSpace(actorID) == "" || strings.TrimSpace(taskID) == "" {
		return entities.Task{}, domainerrors.ErrInvalidRequest
	}
	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		return entities.Task{}, domainerrors.ErrInvalidRequest
	}
	if input.Priority != nil && !entities.IsValidTaskPriority(*input.Priority) {
		return entities.Task{}, domainerrors.ErrInvalidPriority
	}

	return s.Repo.UpdateTask(ctx, strings.TrimSpace(taskID), ports.UpdateTaskInput{
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
		ClearDue:    input.ClearDue,
		UpdatedAt:   s.now(),
	})
}

// DeleteTask removes the task row.
func (s Service) DeleteTask(ctx context.Context, actorID string, taskID string) error {
	if strings.TrimSpace(actorID) == "" || strings.TrimSpace(taskID) == "" {
		return domainerrors.ErrInvalidRequest
	}
	if err := s.Repo.DeleteTask(ctx, strings.TrimSpace(taskID)); err != nil {
		return err
	}
	s.logger().Info("task deleted",
		"event", "task_deleted",
		"module", "workspace/task-service",
		"layer", "application",
		"task_id", taskID,
		"actor_id", actorID,
	)
	return nil
}

// AssignTask sets the assignee; the user must be an active member of the
// task's project.
func (s Service) AssignTask(ctx context.Context, actorID string, taskID string, userID string) (entities.Task, error) {
	if strings.TrimSpace(actorID) == "" || strings.TrimSpace(taskID) == "" || strings.TrimSpace(userID) == "" {
		return entities.Task{}, domainerrors.ErrInvalidRequest
	}

	task, err := s.Repo.GetTask(ctx, taskID)
	if err != nil {
		return entities.Task{}, err
	}
	if err := s.requireMember(ctx, task.ProjectID, strings.TrimSpace(userID)); err != nil {
		return entities.Task{}, err
	}

	task, err = s.Repo.SetAssignee(ctx, task.TaskID, strings.TrimSpace(userID), s.now())
	if err != nil {
		return entities.Task{}, err
	}
	s.logger().Info("task assigned",
		"event", "task_assigned",
		"module", "workspace/task-service",
		"layer", "application",
		"task_id", taskID,
		"assignee_user_id", userID,
	)
	return task, nil
}

// UnassignTask clears the assignee.
func (s Service) UnassignTask(ctx context.Context, actorID string, taskID string) (entities.Task, error) {
	if strings.TrimSpace(actorID) == "" || strings.TrimSpace(taskID) == "" {
		return entities.Task{}, domainerrors.ErrInvalidRequest
	}

	task, err := s.Repo.GetTask(ctx, taskID)
	if err != nil {
		return entities.Task{}, err
	}
	if task.AssigneeUserID == "" {
		return entities.Task{}, domainerrors.ErrTaskNotAssigned
	}
	return s.Repo.SetAssignee(ctx, task.TaskID, "", s.now())
}

// TransitionStatus moves the task through the status machine. Entering
// done stamps CompletedAt; leaving done clears it. Completing a task
// that is already done returns the task unchanged.
func (s Service) TransitionStatus(ctx context.Context, actorID string, taskID string, status string) (entities.Task, error) {
	if strings.TrimSpace(actorID) == "" || strings.TrimSpace(taskID) == "" {
		return entities.Task{}, domainerrors.ErrInvalidRequest
	}
	if !entities.IsValidTaskStatus(status) {
		return entities.Task{}, domainerrors.ErrInvalidStatus
	}

	task, err := s.Repo.GetTask(ctx, taskID)
	if err != nil {
		return entities.Task{}, err
	}
	if task.Status == entities.TaskStatusDone && status == entities.TaskStatusDone {
		return task, nil
	}
	if !services.CanTransition(task.Status, status) {
		return entities.Task{}, domainerrors.ErrInvalidTransition
	}

	now := s.now()
	var completedAt *time.Time
	if status == entities.TaskStatusDone {
		completedAt = &now
	}

	task, err = s.Repo.SetStatus(ctx, task.TaskID, status, completedAt, now)
	if err != nil {
		return entities.Task{}, err
	}
	s.logger().Info("task status changed",
		"event", "task_status_changed",
		"module", "workspace/task-service",
		"layer", "application",
		"task_id", taskID,
		"status", status,
	)
	return task, nil
}

// TaskSummary computes the dashboard counts for a project.
func (s Service) TaskSummary(ctx context.Context, projectID string) (entities.TaskSummary, error) {
	if strings.TrimSpace(projectID) == "" {
		return entities.TaskSummary{}, domainerrors.ErrInvalidRequest
	}
	exists, err := s.Projects.ProjectExists(ctx, projectID)
	if err != nil {
		return entities.TaskSummary{}, err
	}
	if !exists {
		return entities.TaskSummary{}, domainerrors.ErrProjectNotFound
	}

	tasks, err := s.Repo.ListTasks(ctx, ports.TaskFilter{ProjectID: projectID})
	if err != nil {
		return entities.TaskSummary{}, err
	}
	return services.Summarize(projectID, tasks, s.now()), nil
}

// PurgeProject removes every task of a deleted project. The postgres
// schema cascades this through foreign keys; in-memory wiring calls it
// explicitly.
func (s Service) PurgeProject(ctx context.Context, projectID string) error {
	if strings.TrimSpace(projectID) == "" {
		return domainerrors.ErrInvalidRequest
	}
	return s.Repo.DeleteProjectTasks(ctx, projectID)
}

func (s Service) requireMember(ctx context.Context, projectID string, userID string) error {
	active, err := s.Projects.IsActiveMember(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if !active {
		return domainerrors.ErrAssigneeNotMember
	}
	return nil
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
