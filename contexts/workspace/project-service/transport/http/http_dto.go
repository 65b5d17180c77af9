package httptransport

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateProjectRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}

type UpdateProjectRequest struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}

type ProjectResponse struct {
	ProjectID   string     `json:"project_id"`
	OwnerUserID string     `json:"owner_user_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type MemberDTO struct {
	MemberID  string    `json:"member_id"`
	ProjectID string    `json:"project_id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	JoinedAt  time.Time `json:"joined_at"`
}

type ProjectDetailResponse struct {
	Project ProjectResponse `json:"project"`
	Members []MemberDTO     `json:"members"`
}

type ListProjectsResponse struct {
	Projects []ProjectResponse `json:"projects"`
}

type AddMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type UpdateMemberRoleRequest struct {
	Role string `json:"role"`
}

type MemberGroupDTO struct {
	Role    string      `json:"role"`
	Members []MemberDTO `json:"members"`
}

type ListMembersResponse struct {
	ProjectID string           `json:"project_id"`
	Groups    []MemberGroupDTO `json:"groups"`
}

type AuditEntryDTO struct {
	AuditLogID string    `json:"audit_log_id"`
	ProjectID  string    `json:"project_id"`
	ActorID    string    `json:"actor_id"`
	Action     string    `json:"action"`
	Detail     string    `json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}

type ListAuditLogResponse struct {
	ProjectID string          `json:"project_id"`
	Entries   []AuditEntryDTO `json:"entries"`
}
