package entities

import "time"

const (
	ProjectStatusActive   = "active"
	ProjectStatusArchived = "archived"
)

const (
	MemberRoleOwner   = "owner"
	MemberRoleManager = "manager"
	MemberRoleMember  = "member"
	MemberRoleViewer  = "viewer"
)

const (
	MemberStatusActive  = "active"
	MemberStatusRemoved = "removed"
)

// Project is the root aggregate for a body of work tracked by the team.
type Project struct {
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

// TeamMember is the join row associating a user with a project and a role
// within it.
type TeamMember struct {
	MemberID  string     `json:"member_id"`
	ProjectID string     `json:"project_id"`
	UserID    string     `json:"user_id"`
	Role      string     `json:"role"`
	Status    string     `json:"status"`
	JoinedAt  time.Time  `json:"joined_at"`
	RemovedAt *time.Time `json:"removed_at,omitempty"`
}

// AuditEntry records who changed what on a project.
type AuditEntry struct {
	AuditLogID string    `json:"audit_log_id"`
	ProjectID  string    `json:"project_id"`
	ActorID    string    `json:"actor_id"`
	Action     string    `json:"action"`
	Detail     string    `json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsValidMemberRole reports whether role is one of the known member roles.
func IsValidMemberRole(role string) bool {
	switch role {
	case MemberRoleOwner, MemberRoleManager, MemberRoleMember, MemberRoleViewer:
		return true
	default:
		return false
	}
}

// RoleRank orders roles for grouped member listings, owner first.
func RoleRank(role string) int {
	switch role {
	case MemberRoleOwner:
		return 0
	case MemberRoleManager:
		return 1
	case MemberRoleMember:
		return 2
	case MemberRoleViewer:
		return 3
	default:
		return 4
	}
}
