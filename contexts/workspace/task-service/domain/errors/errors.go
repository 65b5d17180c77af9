// Package errors defines the sentinel errors of the task context.
package errors

import "errors"

var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrInvalidStatus     = errors.New("invalid task status")
	ErrInvalidPriority   = errors.New("invalid task priority")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrTaskNotFound      = errors.New("task not found")
	ErrProjectNotFound   = errors.New("project not found")
	ErrAssigneeNotMember = errors.New("assignee is not an active project member")
	ErrTaskNotAssigned   = errors.New("task has no assignee")
)
