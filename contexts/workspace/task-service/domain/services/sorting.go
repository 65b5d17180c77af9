package services

import (
	"sort"
	"time"

	"crewdeck/contexts/workspace/task-service/domain/entities"
)

const (
	SortByDueDate   = "due_date"
	SortByPriority  = "priority"
	SortByCreatedAt = "created_at"
)

func IsValidSortKey(key string) bool {
	switch key {
	case SortByDueDate, SortByPriority, SortByCreatedAt, "":
		return true
	}
	return false
}

// SortTasks orders tasks in place. Due-date ordering puts overdue tasks
// first and tasks without a due date last; priority ordering goes from
// urgent to low; the default is newest first by creation time. Ties fall
// back to creation time, newest first.
func SortTasks(tasks []entities.Task, key string, now time.Time) {
	switch key {
	case SortByDueDate:
		sort.SliceStable(tasks, func(i, j int) bool {
			a, b := tasks[i], tasks[j]
			if a.IsOverdue(now) != b.IsOverdue(now) {
				return a.IsOverdue(now)
			}
			if (a.DueDate == nil) != (b.DueDate == nil) {
				return a.DueDate != nil
			}
			if a.DueDate != nil && b.DueDate != nil && !a.DueDate.Equal(*b.DueDate) {
				return a.DueDate.Before(*b.DueDate)
			}
			return a.CreatedAt.After(b.CreatedAt)
		})
	case SortByPriority:
		sort.SliceStable(tasks, func(i, j int) bool {
			a, b := tasks[i], tasks[j]
			if entities.PriorityRank(a.Priority) != entities.PriorityRank(b.Priority) {
				return entities.PriorityRank(a.Priority) < entities.PriorityRank(b.Priority)
			}
			return a.CreatedAt.After(b.CreatedAt)
		})
	default:
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		})
	}
}

// Summarize computes the dashboard counts over a project's tasks.
func Summarize(projectID string, tasks []entities.Task, now time.Time) entities.TaskSummary {
	summary := entities.TaskSummary{ProjectID: projectID}
	for _, t := range tasks {
		summary.Total++
		switch t.Status {
		case entities.TaskStatusTodo:
			summary.TodoCount++
		case entities.TaskStatusInProgress:
			summary.InProgressCount++
		case entities.TaskStatusDone:
			summary.DoneCount++
		case entities.TaskStatusCancelled:
			summary.CancelledCount++
		}
		if t.IsOverdue(now) {
			summary.OverdueCount++
		}
	}
	return summary
}
