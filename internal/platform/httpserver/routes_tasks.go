package httpserver

import (
	"errors"
	"net/http"

	taskerrors "crewdeck/contexts/workspace/task-service/domain/errors"
	taskports "crewdeck/contexts/workspace/task-service/ports"
	taskhttp "crewdeck/contexts/workspace/task-service/transport/http"
)

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if !s.allow(w, r, claims.UserID, "task.create") {
		return
	}
	var req taskhttp.CreateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.tasks.Handler.CreateTaskHandler(r.Context(), claims.UserID, req)
	if err != nil {
		writeTaskDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if !s.allow(w, r, claims.UserID, "task.view") {
		return
	}

	query := r.URL.Query()
	filter := taskports.TaskFilter{
		ProjectID:      query.Get("project_id"),
		AssigneeUserID: query.Get("assignee_user_id"),
		Status:         query.Get("status"),
		Priority:       query.Get("priority"),
	}
	resp, err := s.tasks.Handler.ListTasksHandler(r.Context(), filter, query.Get("sort"))
	if err != nil {
		writeTaskDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if !s.allow(w, r, claims.UserID, "task.view") {
		return
	}
	resp, err := s.tasks.Handler.GetTaskHandler(r.Context(), r.PathValue("task_id"))
	if err != nil {
		writeTaskDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if !s.allow(w, r, claims.UserID, "task.edit") {
		return
	}
	var req taskhttp.UpdateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.tasks.Handler.UpdateTaskHandler(r.Context(), claims.UserID, r.PathValue("task_id"), req)
	if err != nil {
		writeTaskDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if !s.allow(w, r, claims.UserID, "task.delete") {
		return
	}
	if err := s.tasks.Handler.DeleteTaskHandler(r.Context(), claims.UserID, r.PathValue("task_id")); err != nil {
		writeTaskDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAssignTask(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if !s.allow(w, r, claims.UserID, "task.assign") {
		return
	}
	var req taskhttp.AssignTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.tasks.Handler.AssignTaskHandler(r.Context(), claims.UserID, r.PathValue("task_id"), req)
	if err != nil {
		writeTaskDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUnassignTask(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if !s.allow(w, r, claims.UserID, "task.assign") {
		return
	}
	resp, err := s.tasks.Handler.UnassignTaskHandler(r.Context(), claims.UserID, r.PathValue("task_id"))
	if err != nil {
		writeTaskDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTransitionTaskStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if !s.allow(w, r, claims.UserID, "task.edit") {
		return
	}
	var req taskhttp.TransitionStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.tasks.Handler.TransitionStatusHandler(r.Context(), claims.UserID, r.PathValue("task_id"), req)
	if err != nil {
		writeTaskDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTaskSummary(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if !s.allow(w, r, claims.UserID, "task.view") {
		return
	}
	resp, err := s.tasks.Handler.TaskSummaryHandler(r.Context(), r.PathValue("project_id"))
	if err != nil {
		writeTaskDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeTaskDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, taskerrors.ErrInvalidRequest),
		errors.Is(err, taskerrors.ErrInvalidStatus),
		errors.Is(err, taskerrors.ErrInvalidPriority):
		writeTaskError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, taskerrors.ErrTaskNotFound),
		errors.Is(err, taskerrors.ErrProjectNotFound):
		writeTaskError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, taskerrors.ErrInvalidTransition):
		writeTaskError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, taskerrors.ErrAssigneeNotMember),
		errors.Is(err, taskerrors.ErrTaskNotAssigned):
		writeTaskError(w, http.StatusUnprocessableEntity, "invalid_assignment", err.Error())
	default:
		writeTaskError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeTaskError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, taskhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
