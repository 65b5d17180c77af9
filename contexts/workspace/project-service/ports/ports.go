package ports

import (
	"context"
	"time"

	"crewdeck/contexts/workspace/project-service/domain/entities"
)

// Clock abstracts current time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID generation.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// CreateProjectInput creates the project row and its owner member atomically.
type CreateProjectInput struct {
	ProjectID   string
	MemberID    string
	OwnerUserID string
	Name        string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
	CreatedAt   time.Time
}

// UpdateProjectInput carries optional field updates; nil means keep current.
type UpdateProjectInput struct {
	Name        *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	UpdatedAt   time.Time
	ActorID     string
}

// ProjectFilter narrows ListProjects results.
type ProjectFilter struct {
	OwnerUserID  string
	MemberUserID string
	Status       string
}

// AddMemberInput adds one active member row.
type AddMemberInput struct {
	MemberID  string
	ProjectID string
	UserID    string
	Role      string
	ActorID   string
	JoinedAt  time.Time
}

// Repository is the persistence boundary for projects and membership rows.
// Member invariants (active-row uniqueness, last-owner protection) are
// enforced here so memory and postgres adapters behave identically under
// concurrent writers.
type Repository interface {
	CreateProject(ctx context.Context, input CreateProjectInput) (entities.Project, error)
	GetProject(ctx context.Context, projectID string) (entities.Project, []entities.TeamMember, error)
	ListProjects(ctx context.Context, filter ProjectFilter) ([]entities.Project, error)
	UpdateProject(ctx context.Context, projectID string, input UpdateProjectInput) (entities.Project, error)
	SetProjectStatus(ctx context.Context, projectID string, status string, actorID string, now time.Time) (entities.Project, error)
	DeleteProject(ctx context.Context, projectID string, actorID string, now time.Time) error

	AddMember(ctx context.Context, input AddMemberInput) (entities.TeamMember, error)
	UpdateMemberRole(ctx context.Context, projectID string, userID string, role string, actorID string, now time.Time) (entities.TeamMember, error)
	RemoveMember(ctx context.Context, projectID string, userID string, actorID string, now time.Time) (entities.TeamMember, error)
	ListMembers(ctx context.Context, projectID string) ([]entities.TeamMember, error)
	CheckMembership(ctx context.Context, projectID string, userID string) (entities.TeamMember, bool, error)

	ListAuditLog(ctx context.Context, projectID string, limit int) ([]entities.AuditEntry, error)
}
