// Package httpserver exposes every context module over one HTTP surface.
// Route handlers authenticate the bearer token through the
// authentication module, consult the authorization module for coarse
// permission gates, and delegate to the context handlers; finer checks
// (project roles, record ownership) live in the application services.
package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	authentication "crewdeck/contexts/identity-access/authentication-service"
	authnentities "crewdeck/contexts/identity-access/authentication-service/domain/entities"
	authorization "crewdeck/contexts/identity-access/authorization-service"
	"crewdeck/contexts/identity-access/authorization-service/application/queries"
	attendance "crewdeck/contexts/workforce/attendance-service"
	project "crewdeck/contexts/workspace/project-service"
	task "crewdeck/contexts/workspace/task-service"

	_ "crewdeck/internal/platform/httpserver/docs"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger
	addr   string

	authentication authentication.Module
	authorization  authorization.Module
	projects       project.Module
	tasks          task.Module
	attendance     attendance.Module
}

func New(
	authenticationModule authentication.Module,
	authorizationModule authorization.Module,
	projectModule project.Module,
	taskModule task.Module,
	attendanceModule attendance.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:            http.NewServeMux(),
		logger:         logger,
		addr:           addr,
		authentication: authenticationModule,
		authorization:  authorizationModule,
		projects:       projectModule,
		tasks:          taskModule,
		attendance:     attendanceModule,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/v1/auth/register", s.handleRegister)
	s.mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	s.mux.HandleFunc("GET /api/v1/auth/me", s.handleProfile)
	s.mux.HandleFunc("POST /api/v1/auth/change-password", s.handleChangePassword)

	s.mux.HandleFunc("POST /api/authz/v1/check", s.handleAuthzCheck)
	s.mux.HandleFunc("POST /api/authz/v1/check-batch", s.handleAuthzCheckBatch)
	s.mux.HandleFunc("GET /api/authz/v1/users/{user_id}/roles", s.handleAuthzListUserRoles)
	s.mux.HandleFunc("GET /api/authz/v1/users/{user_id}/permissions", s.handleAuthzListPermissions)
	s.mux.HandleFunc("POST /api/authz/v1/users/{user_id}/roles/grant", s.handleAuthzGrantRole)
	s.mux.HandleFunc("POST /api/authz/v1/users/{user_id}/roles/revoke", s.handleAuthzRevokeRole)
	s.mux.HandleFunc("POST /api/authz/v1/users/{user_id}/permissions/grant", s.handleAuthzGrantPermission)
	s.mux.HandleFunc("POST /api/authz/v1/users/{user_id}/permissions/revoke", s.handleAuthzRevokePermission)

	s.mux.HandleFunc("POST /api/v1/projects", s.handleCreateProject)
	s.mux.HandleFunc("GET /api/v1/projects", s.handleListProjects)
	s.mux.HandleFunc("GET /api/v1/projects/{project_id}", s.handleGetProject)
	s.mux.HandleFunc("PATCH /api/v1/projects/{project_id}", s.handleUpdateProject)
	s.mux.HandleFunc("POST /api/v1/projects/{project_id}/archive", s.handleArchiveProject)
	s.mux.HandleFunc("DELETE /api/v1/projects/{project_id}", s.handleDeleteProject)
	s.mux.HandleFunc("POST /api/v1/projects/{project_id}/members", s.handleAddMember)
	s.mux.HandleFunc("GET /api/v1/projects/{project_id}/members", s.handleListMembers)
	s.mux.HandleFunc("PATCH /api/v1/projects/{project_id}/members/{user_id}", s.handleUpdateMemberRole)
	s.mux.HandleFunc("DELETE /api/v1/projects/{project_id}/members/{user_id}", s.handleRemoveMember)
	s.mux.HandleFunc("GET /api/v1/projects/{project_id}/audit-log", s.handleListProjectAuditLog)

	s.mux.HandleFunc("POST /api/v1/tasks", s.handleCreateTask)
	s.mux.HandleFunc("GET /api/v1/tasks", s.handleListTasks)
	s.mux.HandleFunc("GET /api/v1/tasks/{task_id}", s.handleGetTask)
	s.mux.HandleFunc("PATCH /api/v1/tasks/{task_id}", s.handleUpdateTask)
	s.mux.HandleFunc("DELETE /api/v1/tasks/{task_id}", s.handleDeleteTask)
	s.mux.HandleFunc("POST /api/v1/tasks/{task_id}/assign", s.handleAssignTask)
	s.mux.HandleFunc("DELETE /api/v1/tasks/{task_id}/assign", s.handleUnassignTask)
	s.mux.HandleFunc("POST /api/v1/tasks/{task_id}/status", s.handleTransitionTaskStatus)
	s.mux.HandleFunc("GET /api/v1/projects/{project_id}/tasks/summary", s.handleTaskSummary)

	s.mux.HandleFunc("POST /api/v1/attendance/clock-in", s.handleClockIn)
	s.mux.HandleFunc("POST /api/v1/attendance/clock-out", s.handleClockOut)
	s.mux.HandleFunc("POST /api/v1/attendance/records", s.handleCreateManualEntry)
	s.mux.HandleFunc("GET /api/v1/attendance/records", s.handleListAttendanceRecords)
	s.mux.HandleFunc("GET /api/v1/attendance/records/{record_id}", s.handleGetAttendanceRecord)
	s.mux.HandleFunc("PATCH /api/v1/attendance/records/{record_id}", s.handleUpdateAttendanceRecord)
	s.mux.HandleFunc("DELETE /api/v1/attendance/records/{record_id}", s.handleDeleteAttendanceRecord)
	s.mux.HandleFunc("GET /api/v1/attendance/summary", s.handlePeriodSummary)
	s.mux.HandleFunc("GET /api/v1/attendance/summary/daily", s.handleDailySummary)
}

// authenticate resolves the acting identity from the Authorization
// header. A zero Claims return means the response has been written.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (authnentities.Claims, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		writePlatformError(w, http.StatusUnauthorized, "missing_token", "Authorization bearer token is required")
		return authnentities.Claims{}, false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

	claims, err := s.authentication.Handler.AuthenticateHandler(r.Context(), token)
	if err != nil {
		writePlatformError(w, http.StatusUnauthorized, "invalid_token", "invalid or expired token")
		return authnentities.Claims{}, false
	}
	return claims, true
}

// allow checks one coarse permission through the authorization module.
// Lookup failures deny by default inside the use-case.
func (s *Server) allow(w http.ResponseWriter, r *http.Request, userID string, permission string) bool {
	decision, err := s.authorization.CheckPermission.Execute(r.Context(), queries.CheckPermissionQuery{
		UserID:     userID,
		Permission: permission,
	})
	if err != nil {
		writePlatformError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return false
	}
	if !decision.Allowed {
		writePlatformError(w, http.StatusForbidden, "forbidden", "permission denied: "+permission)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writePlatformError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return false
	}
	return true
}

type platformError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writePlatformError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, platformError{
		Code:    code,
		Message: message,
	})
}
