package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	authentication "crewdeck/contexts/identity-access/authentication-service"
	authnhttp "crewdeck/contexts/identity-access/authentication-service/transport/http"
	authorization "crewdeck/contexts/identity-access/authorization-service"
	authzhttp "crewdeck/contexts/identity-access/authorization-service/transport/http"
	attendance "crewdeck/contexts/workforce/attendance-service"
	project "crewdeck/contexts/workspace/project-service"
	projecthttp "crewdeck/contexts/workspace/project-service/transport/http"
	task "crewdeck/contexts/workspace/task-service"
	taskhttp "crewdeck/contexts/workspace/task-service/transport/http"
)

func newTestServer() *Server {
	return New(
		authentication.NewInMemoryModule(slog.Default()),
		authorization.NewInMemoryModule(slog.Default()),
		project.NewInMemoryModule(slog.Default()),
		task.NewInMemoryModule(slog.Default()),
		attendance.NewInMemoryModule(slog.Default()),
		slog.Default(),
		":0",
	)
}

func doJSON(t *testing.T, server *Server, method string, path string, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response body %q: %v", rr.Body.String(), err)
	}
	return out
}

// registerAndLogin provisions an account over HTTP and returns its token and id.
func registerAndLogin(t *testing.T, server *Server, email string) (string, string) {
	t.Helper()
	rr := doJSON(t, server, http.MethodPost, "/api/v1/auth/register", "", authnhttp.RegisterRequest{
		Email:    email,
		Name:     "Test User",
		Password: "s3cret-pass",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	registered := decodeBody[authnhttp.RegisterResponse](t, rr)

	rr = doJSON(t, server, http.MethodPost, "/api/v1/auth/login", "", authnhttp.LoginRequest{
		Email:    email,
		Password: "s3cret-pass",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	logged := decodeBody[authnhttp.LoginResponse](t, rr)
	return logged.Token, registered.UserID
}

// grantRole assigns a catalog role through the authorization module on behalf
// of the seeded admin user.
func grantRole(t *testing.T, server *Server, userID string, roleID string) {
	t.Helper()
	_, err := server.authorization.Handler.GrantRoleHandler(
		context.Background(),
		userID,
		"user_admin_1",
		fmt.Sprintf("test-grant-%s-%s", userID, roleID),
		authzhttp.GrantRoleRequest{RoleID: roleID, Reason: "test"},
	)
	if err != nil {
		t.Fatalf("grant role %s to %s: %v", roleID, userID, err)
	}
}

func TestProtectedRoutesRequireBearerToken(t *testing.T) {
	server := newTestServer()
	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/projects"},
		{http.MethodPost, "/api/v1/tasks"},
		{http.MethodPost, "/api/v1/attendance/clock-in"},
		{http.MethodGet, "/api/v1/auth/me"},
	}
	for _, route := range paths {
		rr := doJSON(t, server, route.method, route.path, "", nil)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d body=%s", route.method, route.path, rr.Code, rr.Body.String())
		}
	}
}

func TestProjectCreateRequiresPermission(t *testing.T) {
	server := newTestServer()
	token, _ := registerAndLogin(t, server, "norole@example.com")

	rr := doJSON(t, server, http.MethodPost, "/api/v1/projects", token, projecthttp.CreateProjectRequest{Name: "Apollo"})
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestProjectLifecycleOverHTTP(t *testing.T) {
	server := newTestServer()
	token, userID := registerAndLogin(t, server, "lead@example.com")
	grantRole(t, server, userID, "manager")

	rr := doJSON(t, server, http.MethodPost, "/api/v1/projects", token, projecthttp.CreateProjectRequest{
		Name:        "Apollo",
		Description: "Launch prep",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create project: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	created := decodeBody[projecthttp.ProjectResponse](t, rr)
	if created.OwnerUserID != userID {
		t.Fatalf("expected owner %s, got %s", userID, created.OwnerUserID)
	}

	rr = doJSON(t, server, http.MethodGet, "/api/v1/projects/"+created.ProjectID, token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get project: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodGet, "/api/v1/projects?mine=true", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list projects: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	listed := decodeBody[projecthttp.ListProjectsResponse](t, rr)
	if len(listed.Projects) != 1 {
		t.Fatalf("expected one project, got %d", len(listed.Projects))
	}
}

func TestTaskFlowOverHTTP(t *testing.T) {
	server := newTestServer()
	token, userID := registerAndLogin(t, server, "dev@example.com")
	grantRole(t, server, userID, "manager")
	server.tasks.Store.SeedProject("project-9")
	server.tasks.Store.SeedMembership("project-9", userID)

	rr := doJSON(t, server, http.MethodPost, "/api/v1/tasks", token, taskhttp.CreateTaskRequest{
		ProjectID: "project-9",
		Title:     "Wire deployment pipeline",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create task: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	created := decodeBody[taskhttp.TaskResponse](t, rr)
	if created.Status != "todo" {
		t.Fatalf("expected status todo, got %s", created.Status)
	}

	rr = doJSON(t, server, http.MethodPost, "/api/v1/tasks/"+created.TaskID+"/status", token, taskhttp.TransitionStatusRequest{Status: "done"})
	if rr.Code != http.StatusConflict {
		t.Fatalf("todo to done: expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPost, "/api/v1/tasks/"+created.TaskID+"/status", token, taskhttp.TransitionStatusRequest{Status: "in_progress"})
	if rr.Code != http.StatusOK {
		t.Fatalf("todo to in_progress: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	rr = doJSON(t, server, http.MethodPost, "/api/v1/tasks/"+created.TaskID+"/status", token, taskhttp.TransitionStatusRequest{Status: "done"})
	if rr.Code != http.StatusOK {
		t.Fatalf("in_progress to done: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	finished := decodeBody[taskhttp.TaskResponse](t, rr)
	if finished.CompletedAt == nil {
		t.Fatal("expected completed_at to be set")
	}

	rr = doJSON(t, server, http.MethodGet, "/api/v1/projects/project-9/tasks/summary", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("task summary: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	summary := decodeBody[taskhttp.TaskSummaryResponse](t, rr)
	if summary.Total != 1 || summary.DoneCount != 1 {
		t.Fatalf("expected one done task, got total=%d done=%d", summary.Total, summary.DoneCount)
	}
}

func TestAttendanceClockFlowOverHTTP(t *testing.T) {
	server := newTestServer()
	token, userID := registerAndLogin(t, server, "shift@example.com")
	grantRole(t, server, userID, "member")

	rr := doJSON(t, server, http.MethodPost, "/api/v1/attendance/clock-in", token, map[string]string{"project_id": "project-1"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("clock in: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPost, "/api/v1/attendance/clock-in", token, map[string]string{})
	if rr.Code != http.StatusConflict {
		t.Fatalf("second clock in: expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPost, "/api/v1/attendance/clock-out", token, map[string]string{"note": "end of day"})
	if rr.Code != http.StatusOK {
		t.Fatalf("clock out: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodGet, "/api/v1/attendance/records", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list records: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestAttendanceRecordForbiddenForOtherUser(t *testing.T) {
	server := newTestServer()
	ownerToken, ownerID := registerAndLogin(t, server, "owner@example.com")
	grantRole(t, server, ownerID, "member")
	otherToken, otherID := registerAndLogin(t, server, "other@example.com")
	grantRole(t, server, otherID, "member")

	rr := doJSON(t, server, http.MethodPost, "/api/v1/attendance/clock-in", ownerToken, map[string]string{})
	if rr.Code != http.StatusCreated {
		t.Fatalf("clock in: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var record struct {
		RecordID string `json:"record_id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}

	rr = doJSON(t, server, http.MethodGet, "/api/v1/attendance/records/"+record.RecordID, otherToken, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestSwaggerDocIsServed(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}
