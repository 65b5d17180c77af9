// Package services holds the pure task rules: the status state machine
// and the list ordering used by both repository adapters.
package services

import (
	"crewdeck/contexts/workspace/task-service/domain/entities"
)

// CanTransition reports whether a task may move from one status to
// another. Forward moves are todo to in_progress to done; any open task
// may be cancelled; a done task may be reopened to in_progress.
func CanTransition(from string, to string) bool {
	if from == to {
		return false
	}
	switch from {
	case entities.TaskStatusTodo:
		return to == entities.TaskStatusInProgress || to == entities.TaskStatusCancelled
	case entities.TaskStatusInProgress:
		return to == entities.TaskStatusDone || to == entities.TaskStatusCancelled
	case entities.TaskStatusDone:
		return to == entities.TaskStatusInProgress
	case entities.TaskStatusCancelled:
		return false
	}
	return false
}
