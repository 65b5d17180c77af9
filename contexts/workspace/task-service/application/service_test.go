package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"crewdeck/contexts/workspace/task-service/adapters/memory"
	"crewdeck/contexts/workspace/task-service/domain/entities"
	domainerrors "crewdeck/contexts/workspace/task-service/domain/errors"
	"crewdeck/contexts/workspace/task-service/ports"
)

func newService() (Service, *memory.Store) {
	store := memory.NewStore()
	store.SeedMembership("project-1", "user-dev")
	store.SeedMembership("project-1", "user-lead")
	service := Service{
		Repo:        store,
		Projects:    store,
		Clock:       store,
		IDGenerator: store,
	}
	return service, store
}

func mustCreateTask(t *testing.T, service Service, input CreateTaskInput) entities.Task {
	t.Helper()
	if input.ProjectID == "" {
		input.ProjectID = "project-1"
	}
	task, err := service.CreateTask(context.Background(), "user-lead", input)
	if err != nil {
		t.Fatalf("create task failed: %v", err)
	}
	return task
}

func TestCreateTaskDefaults(t *testing.T) {
	service, _ := newService()
	task := mustCreateTask(t, service, CreateTaskInput{Title: "Write handler"})

	if task.Status != entities.TaskStatusTodo {
		t.Fatalf("expected todo status, got %s", task.Status)
	}
	if task.Priority != entities.TaskPriorityMedium {
		t.Fatalf("expected default medium priority, got %s", task.Priority)
	}
	if task.CreatedBy != "user-lead" {
		t.Fatalf("expected creator recorded, got %s", task.CreatedBy)
	}
}

func TestCreateTaskUnknownProject(t *testing.T) {
	service, _ := newService()
	_, err := service.CreateTask(context.Background(), "user-lead", CreateTaskInput{
		ProjectID: "project-missing",
		Title:     "Orphan",
	})
	if !errors.Is(err, domainerrors.ErrProjectNotFound) {
		t.Fatalf("expected project not found, got %v", err)
	}
}

func TestCreateTaskAssigneeMustBeMember(t *testing.T) {
	service, _ := newService()
	_, err := service.CreateTask(context.Background(), "user-lead", CreateTaskInput{
		ProjectID:      "project-1",
		Title:          "Review PR",
		AssigneeUserID: "user-stranger",
	})
	if !errors.Is(err, domainerrors.ErrAssigneeNotMember) {
		t.Fatalf("expected assignee membership error, got %v", err)
	}
}

func TestAssignAndUnassignTask(t *testing.T) {
	service, _ := newService()
	task := mustCreateTask(t, service, CreateTaskInput{Title: "Ship release"})

	assigned, err := service.AssignTask(context.Background(), "user-lead", task.TaskID, "user-dev")
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if assigned.AssigneeUserID != "user-dev" {
		t.Fatalf("expected assignee user-dev, got %s", assigned.AssigneeUserID)
	}

	_, err = service.AssignTask(context.Background(), "user-lead", task.TaskID, "user-stranger")
	if !errors.Is(err, domainerrors.ErrAssigneeNotMember) {
		t.Fatalf("expected membership check on assign, got %v", err)
	}

	unassigned, err := service.UnassignTask(context.Background(), "user-lead", task.TaskID)
	if err != nil {
		t.Fatalf("unassign failed: %v", err)
	}
	if unassigned.AssigneeUserID != "" {
		t.Fatalf("expected empty assignee, got %s", unassigned.AssigneeUserID)
	}

	_, err = service.UnassignTask(context.Background(), "user-lead", task.TaskID)
	if !errors.Is(err, domainerrors.ErrTaskNotAssigned) {
		t.Fatalf("expected not-assigned error, got %v", err)
	}
}

func TestTransitionStatusStampsAndClearsCompletedAt(t *testing.T) {
	service, _ := newService()
	task := mustCreateTask(t, service, CreateTaskInput{Title: "Ship release"})

	started, err := service.TransitionStatus(context.Background(), "user-dev", task.TaskID, entities.TaskStatusInProgress)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if started.CompletedAt != nil {
		t.Fatalf("expected no completion stamp while in progress")
	}

	done, err := service.TransitionStatus(context.Background(), "user-dev", task.TaskID, entities.TaskStatusDone)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if done.CompletedAt == nil {
		t.Fatalf("expected CompletedAt stamped on done")
	}

	reopened, err := service.TransitionStatus(context.Background(), "user-dev", task.TaskID, entities.TaskStatusInProgress)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if reopened.CompletedAt != nil {
		t.Fatalf("expected CompletedAt cleared on reopen")
	}
}

func TestTransitionStatusDoneIsIdempotent(t *testing.T) {
	service, _ := newService()
	task := mustCreateTask(t, service, CreateTaskInput{Title: "Ship release"})

	if _, err := service.TransitionStatus(context.Background(), "user-dev", task.TaskID, entities.TaskStatusInProgress); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	first, err := service.TransitionStatus(context.Background(), "user-dev", task.TaskID, entities.TaskStatusDone)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	second, err := service.TransitionStatus(context.Background(), "user-dev", task.TaskID, entities.TaskStatusDone)
	if err != nil {
		t.Fatalf("expected no-op on repeated done, got %v", err)
	}
	if second.CompletedAt == nil || !second.CompletedAt.Equal(*first.CompletedAt) {
		t.Fatalf("expected original completion stamp retained")
	}
}

func TestTransitionStatusRejectsIllegalMoves(t *testing.T) {
	service, _ := newService()
	task := mustCreateTask(t, service, CreateTaskInput{Title: "Ship release"})

	_, err := service.TransitionStatus(context.Background(), "user-dev", task.TaskID, entities.TaskStatusDone)
	if !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition todo to done, got %v", err)
	}

	if _, err := service.TransitionStatus(context.Background(), "user-dev", task.TaskID, entities.TaskStatusCancelled); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	_, err = service.TransitionStatus(context.Background(), "user-dev", task.TaskID, entities.TaskStatusInProgress)
	if !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("expected cancelled to be terminal, got %v", err)
	}
}

func TestListTasksFiltersAndSorts(t *testing.T) {
	service, store := newService()
	store.SeedMembership("project-2", "user-dev")

	due := time.Now().UTC().Add(48 * time.Hour)
	mustCreateTask(t, service, CreateTaskInput{Title: "Dated", DueDate: &due, Priority: entities.TaskPriorityLow})
	mustCreateTask(t, service, CreateTaskInput{Title: "Undated", Priority: entities.TaskPriorityUrgent})
	mustCreateTask(t, service, CreateTaskInput{Title: "Elsewhere", ProjectID: "project-2"})

	tasks, err := service.ListTasks(context.Background(), ports.TaskFilter{ProjectID: "project-1"}, "due_date")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks in project-1, got %d", len(tasks))
	}
	if tasks[0].Title != "Dated" || tasks[1].Title != "Undated" {
		t.Fatalf("expected dated before undated, got %s, %s", tasks[0].Title, tasks[1].Title)
	}

	byPriority, err := service.ListTasks(context.Background(), ports.TaskFilter{ProjectID: "project-1"}, "priority")
	if err != nil {
		t.Fatalf("priority list failed: %v", err)
	}
	if byPriority[0].Title != "Undated" {
		t.Fatalf("expected urgent task first, got %s", byPriority[0].Title)
	}

	_, err = service.ListTasks(context.Background(), ports.TaskFilter{Status: "bogus"}, "")
	if !errors.Is(err, domainerrors.ErrInvalidStatus) {
		t.Fatalf("expected status validation, got %v", err)
	}
}

func TestTaskSummaryCountsOverdue(t *testing.T) {
	service, _ := newService()

	past := time.Now().UTC().Add(-24 * time.Hour)
	mustCreateTask(t, service, CreateTaskInput{Title: "Late", DueDate: &past})
	mustCreateTask(t, service, CreateTaskInput{Title: "Open"})
	finished := mustCreateTask(t, service, CreateTaskInput{Title: "Finished", DueDate: &past})

	if _, err := service.TransitionStatus(context.Background(), "user-dev", finished.TaskID, entities.TaskStatusInProgress); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := service.TransitionStatus(context.Background(), "user-dev", finished.TaskID, entities.TaskStatusDone); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	summary, err := service.TaskSummary(context.Background(), "project-1")
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.Total != 3 || summary.TodoCount != 2 || summary.DoneCount != 1 {
		t.Fatalf("unexpected counts: %+v", summary)
	}
	if summary.OverdueCount != 1 {
		t.Fatalf("expected only the open late task overdue, got %d", summary.OverdueCount)
	}
}

func TestUpdateTaskClearsDueDate(t *testing.T) {
	service, _ := newService()
	due := time.Now().UTC().Add(24 * time.Hour)
	task := mustCreateTask(t, service, CreateTaskInput{Title: "Dated", DueDate: &due})

	updated, err := service.UpdateTask(context.Background(), "user-lead", task.TaskID, UpdateTaskInput{ClearDue: true})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.DueDate != nil {
		t.Fatalf("expected due date cleared")
	}

	bad := "not-a-priority"
	_, err = service.UpdateTask(context.Background(), "user-lead", task.TaskID, UpdateTaskInput{Priority: &bad})
	if !errors.Is(err, domainerrors.ErrInvalidPriority) {
		t.Fatalf("expected priority validation, got %v", err)
	}
}

func TestDeleteTask(t *testing.T) {
	service, _ := newService()
	task := mustCreateTask(t, service, CreateTaskInput{Title: "Ephemeral"})

	if err := service.DeleteTask(context.Background(), "user-lead", task.TaskID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	_, err := service.GetTask(context.Background(), task.TaskID)
	if !errors.Is(err, domainerrors.ErrTaskNotFound) {
		t.Fatalf("expected task gone, got %v", err)
	}
	if err := service.DeleteTask(context.Background(), "user-lead", task.TaskID); !errors.Is(err, domainerrors.ErrTaskNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}
