package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	projecterrors "crewdeck/contexts/workspace/project-service/domain/errors"
	projectports "crewdeck/contexts/workspace/project-service/ports"
	projecthttp "crewdeck/contexts/workspace/project-service/transport/http"
)

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if !s.allow(w, r, claims.UserID, "project.create") {
		return
	}
	var req projecthttp.CreateProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.projects.Handler.CreateProjectHandler(r.Context(), claims.UserID, req)
	if err != nil {
		writeProjectDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if !s.allow(w, r, claims.UserID, "project.view") {
		return
	}

	query := r.URL.Query()
	filter := projectports.ProjectFilter{
		OwnerUserID:  query.Get("owner_user_id"),
		MemberUserID: query.Get("member_user_id"),
		Status:       query.Get("status"),
	}
	if query.Get("mine") == "true" {
		filter.MemberUserID = claims.UserID
	}

	resp, err := s.projects.Handler.ListProjectsHandler(r.Context(), filter)
	if err != nil {
		writeProjectDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if !s.allow(w, r, claims.UserID, "project.view") {
		return
	}
	resp, err := s.projects.Handler.GetProjectHandler(r.Context(), r.PathValue("project_id"))
	if err != nil {
		writeProjectDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req projecthttp.UpdateProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.projects.Handler.UpdateProjectHandler(r.Context(), claims.UserID, r.PathValue("project_id"), req)
	if err != nil {
		writeProjectDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleArchiveProject(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	resp, err := s.projects.Handler.ArchiveProjectHandler(r.Context(), claims.UserID, r.PathValue("project_id"))
	if err != nil {
		writeProjectDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if err := s.projects.Handler.DeleteProjectHandler(r.Context(), claims.UserID, r.PathValue("project_id")); err != nil {
		writeProjectDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req projecthttp.AddMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.projects.Handler.AddMemberHandler(r.Context(), claims.UserID, r.PathValue("project_id"), req)
	if err != nil {
		writeProjectDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if !s.allow(w, r, claims.UserID, "project.view") {
		return
	}
	resp, err := s.projects.Handler.ListMembersHandler(r.Context(), r.PathValue("project_id"))
	if err != nil {
		writeProjectDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req projecthttp.UpdateMemberRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.projects.Handler.UpdateMemberRoleHandler(
		r.Context(),
		claims.UserID,
		r.PathValue("project_id"),
		r.PathValue("user_id"),
		req,
	)
	if err != nil {
		writeProjectDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	resp, err := s.projects.Handler.RemoveMemberHandler(
		r.Context(),
		claims.UserID,
		r.PathValue("project_id"),
		r.PathValue("user_id"),
	)
	if err != nil {
		writeProjectDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListProjectAuditLog(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writePlatformError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = parsed
	}
	resp, err := s.projects.Handler.ListAuditLogHandler(r.Context(), claims.UserID, r.PathValue("project_id"), limit)
	if err != nil {
		writeProjectDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeProjectDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, projecterrors.ErrInvalidRequest),
		errors.Is(err, projecterrors.ErrInvalidMemberRole):
		writeProjectError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, projecterrors.ErrProjectNotFound),
		errors.Is(err, projecterrors.ErrMemberNotFound):
		writeProjectError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, projecterrors.ErrMemberAlreadyExists),
		errors.Is(err, projecterrors.ErrProjectArchived),
		errors.Is(err, projecterrors.ErrLastOwner):
		writeProjectError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, projecterrors.ErrForbidden):
		writeProjectError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		writeProjectError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeProjectError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, projecthttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
