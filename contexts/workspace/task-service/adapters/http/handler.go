package httpadapter

import (
	"context"
	"log/slog"

	"crewdeck/contexts/workspace/task-service/application"
	"crewdeck/contexts/workspace/task-service/domain/entities"
	"crewdeck/contexts/workspace/task-service/ports"
	httptransport "crewdeck/contexts/workspace/task-service/transport/http"
)

// Handler maps HTTP DTOs to application service calls.
type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) CreateTaskHandler(ctx context.Context, actorID string, request httptransport.CreateTaskRequest) (httptransport.TaskResponse, error) {
	task, err := h.Service.CreateTask(ctx, actorID, application.CreateTaskInput{
		ProjectID:      request.ProjectID,
		Title:          request.Title,
		Description:    request.Description,
		Priority:       request.Priority,
		AssigneeUserID: request.AssigneeUserID,
		DueDate:        request.DueDate,
	})
	if err != nil {
		return httptransport.TaskResponse{}, err
	}
	return taskDTO(task), nil
}

func (h Handler) GetTaskHandler(ctx context.Context, taskID string) (httptransport.TaskResponse, error) {
	task, err := h.Service.GetTask(ctx, taskID)
	if err != nil {
		return httptransport.TaskResponse{}, err
	}
	return taskDTO(task), nil
}

func (h Handler) ListTasksHandler(ctx context.Context, filter ports.TaskFilter, sortKey string) (httptransport.ListTasksResponse, error) {
	tasks, err := h.Service.ListTasks(ctx, filter, sortKey)
	if err != nil {
		return httptransport.ListTasksResponse{}, err
	}
	items := make([]httptransport.TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		items = append(items, taskDTO(task))
	}
	return httptransport.ListTasksResponse{Tasks: items}, nil
}

func (h Handler) UpdateTaskHandler(ctx context.Context, actorID string, taskID string, request httptransport.UpdateTaskRequest) (httptransport.TaskResponse, error) {
	task, err := h.Service.UpdateTask(ctx, actorID, taskID, application.UpdateTaskInput{
		Title:       request.Title,
		Description: request.Description,
		Priority:    request.Priority,
		DueDate:     request.DueDate,
		ClearDue:    request.ClearDue,
	})
	if err != nil {
		return httptransport.TaskResponse{}, err
	}
	return taskDTO(task), nil
}

func (h Handler) DeleteTaskHandler(ctx context.Context, actorID string, taskID string) error {
	return h.Service.DeleteTask(ctx, actorID, taskID)
}

func (h Handler) AssignTaskHandler(ctx context.Context, actorID string, taskID string, request httptransport.AssignTaskRequest) (httptransport.TaskResponse, error) {
	task, err := h.Service.AssignTask(ctx, actorID, taskID, request.UserID)
	if err != nil {
		return httptransport.TaskResponse{}, err
	}
	return taskDTO(task), nil
}

func (h Handler) UnassignTaskHandler(ctx context.Context, actorID string, taskID string) (httptransport.TaskResponse, error) {
	task, err := h.Service.UnassignTask(ctx, actorID, taskID)
	if err != nil {
		return httptransport.TaskResponse{}, err
	}
	return taskDTO(task), nil
}

func (h Handler) TransitionStatusHandler(ctx context.Context, actorID string, taskID string, request httptransport.TransitionStatusRequest) (httptransport.TaskResponse, error) {
	task, err := h.Service.TransitionStatus(ctx, actorID, taskID, request.Status)
	if err != nil {
		return httptransport.TaskResponse{}, err
	}
	return taskDTO(task), nil
}

func (h Handler) TaskSummaryHandler(ctx context.Context, projectID string) (httptransport.TaskSummaryResponse, error) {
	summary, err := h.Service.TaskSummary(ctx, projectID)
	if err != nil {
		return httptransport.TaskSummaryResponse{}, err
	}
	return httptransport.TaskSummaryResponse{
		ProjectID:       summary.ProjectID,
		Total:           summary.Total,
		TodoCount:       summary.TodoCount,
		InProgressCount: summary.InProgressCount,
		DoneCount:       summary.DoneCount,
		CancelledCount:  summary.CancelledCount,
		OverdueCount:    summary.OverdueCount,
	}, nil
}

func taskDTO(task entities.Task) httptransport.TaskResponse {
	return httptransport.TaskResponse{
		TaskID:         task.TaskID,
		ProjectID:      task.ProjectID,
		Title:          task.Title,
		Description:    task.Description,
		Status:         task.Status,
		Priority:       task.Priority,
		AssigneeUserID: task.AssigneeUserID,
		CreatedBy:      task.CreatedBy,
		DueDate:        task.DueDate,
		CreatedAt:      task.CreatedAt,
		UpdatedAt:      task.UpdatedAt,
		CompletedAt:    task.CompletedAt,
	}
}
