package httptransport

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateTaskRequest struct {
	ProjectID      string     `json:"project_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Priority       string     `json:"priority,omitempty"`
	AssigneeUserID string     `json:"assignee_user_id,omitempty"`
	DueDate        *time.Time `json:"due_date,omitempty"`
}

type UpdateTaskRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	ClearDue    bool       `json:"clear_due,omitempty"`
}

type AssignTaskRequest struct {
	UserID string `json:"user_id"`
}

type TransitionStatusRequest struct {
	Status string `json:"status"`
}

type TaskResponse struct {
	TaskID         string     `json:"task_id"`
	ProjectID      string     `json:"project_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Status         string     `json:"status"`
	Priority       string     `json:"priority"`
	AssigneeUserID string     `json:"assignee_user_id,omitempty"`
	CreatedBy      string     `json:"created_by"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

type ListTasksResponse struct {
	Tasks []TaskResponse `json:"tasks"`
}

type TaskSummaryResponse struct {
	ProjectID       string `json:"project_id"`
	Total           int    `json:"total"`
	TodoCount       int    `json:"todo_count"`
	InProgressCount int    `json:"in_progress_count"`
	DoneCount       int    `json:"done_count"`
	CancelledCount  int    `json:"cancelled_count"`
	OverdueCount    int    `json:"overdue_count"`
}
