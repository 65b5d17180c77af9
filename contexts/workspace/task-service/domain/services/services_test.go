package services_test

import (
	"testing"
	"time"

	"crewdeck/contexts/workspace/task-service/domain/entities"
	"crewdeck/contexts/workspace/task-service/domain/services"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from    string
		to      string
		allowed bool
	}{
		{entities.TaskStatusTodo, entities.TaskStatusInProgress, true},
		{entities.TaskStatusTodo, entities.TaskStatusCancelled, true},
		{entities.TaskStatusTodo, entities.TaskStatusDone, false},
		{entities.TaskStatusInProgress, entities.TaskStatusDone, true},
		{entities.TaskStatusInProgress, entities.TaskStatusCancelled, true},
		{entities.TaskStatusInProgress, entities.TaskStatusTodo, false},
		{entities.TaskStatusDone, entities.TaskStatusInProgress, true},
		{entities.TaskStatusDone, entities.TaskStatusCancelled, false},
		{entities.TaskStatusCancelled, entities.TaskStatusTodo, false},
		{entities.TaskStatusCancelled, entities.TaskStatusInProgress, false},
	}
	for _, tc := range cases {
		if got := services.CanTransition(tc.from, tc.to); got != tc.allowed {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestSortTasksByDueDatePutsOverdueFirstAndNilLast(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	soon := now.Add(24 * time.Hour)
	later := now.Add(72 * time.Hour)

	tasks := []entities.Task{
		{TaskID: "t-undated", Status: entities.TaskStatusTodo, CreatedAt: now},
		{TaskID: "t-later", Status: entities.TaskStatusTodo, DueDate: &later, CreatedAt: now},
		{TaskID: "t-overdue", Status: entities.TaskStatusTodo, DueDate: &past, CreatedAt: now},
		{TaskID: "t-soon", Status: entities.TaskStatusTodo, DueDate: &soon, CreatedAt: now},
	}
	services.SortTasks(tasks, services.SortByDueDate, now)

	want := []string{"t-overdue", "t-soon", "t-later", "t-undated"}
	for i, id := range want {
		if tasks[i].TaskID != id {
			t.Fatalf("position %d: got %s, want %s", i, tasks[i].TaskID, id)
		}
	}
}

func TestSortTasksByDueDateIgnoresClosedOverdue(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	soon := now.Add(time.Hour)

	tasks := []entities.Task{
		{TaskID: "t-done-past", Status: entities.TaskStatusDone, DueDate: &past, CreatedAt: now},
		{TaskID: "t-open-soon", Status: entities.TaskStatusTodo, DueDate: &soon, CreatedAt: now},
		{TaskID: "t-open-past", Status: entities.TaskStatusInProgress, DueDate: &past, CreatedAt: now},
	}
	services.SortTasks(tasks, services.SortByDueDate, now)

	if tasks[0].TaskID != "t-open-past" {
		t.Fatalf("expected the open overdue task first, got %s", tasks[0].TaskID)
	}
	if tasks[1].TaskID != "t-done-past" {
		t.Fatalf("expected done task ordered by plain due date, got %s", tasks[1].TaskID)
	}
}

func TestSortTasksByPriority(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tasks := []entities.Task{
		{TaskID: "t-low", Priority: entities.TaskPriorityLow, CreatedAt: now},
		{TaskID: "t-urgent", Priority: entities.TaskPriorityUrgent, CreatedAt: now},
		{TaskID: "t-medium", Priority: entities.TaskPriorityMedium, CreatedAt: now},
		{TaskID: "t-high", Priority: entities.TaskPriorityHigh, CreatedAt: now},
	}
	services.SortTasks(tasks, services.SortByPriority, now)

	want := []string{"t-urgent", "t-high", "t-medium", "t-low"}
	for i, id := range want {
		if tasks[i].TaskID != id {
			t.Fatalf("position %d: got %s, want %s", i, tasks[i].TaskID, id)
		}
	}
}

func TestSummarizeCounts(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)

	tasks := []entities.Task{
		{Status: entities.TaskStatusTodo, DueDate: &past},
		{Status: entities.TaskStatusTodo},
		{Status: entities.TaskStatusInProgress, DueDate: &past},
		{Status: entities.TaskStatusDone, DueDate: &past},
		{Status: entities.TaskStatusCancelled},
	}
	summary := services.Summarize("project-1", tasks, now)

	if summary.Total != 5 || summary.TodoCount != 2 || summary.InProgressCount != 1 ||
		summary.DoneCount != 1 || summary.CancelledCount != 1 {
		t.Fatalf("unexpected counts: %+v", summary)
	}
	if summary.OverdueCount != 2 {
		t.Fatalf("expected 2 overdue (closed tasks excluded), got %d", summary.OverdueCount)
	}
}
