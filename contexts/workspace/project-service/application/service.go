package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"crewdeck/contexts/workspace/project-service/domain/entities"
	domainerrors "crewdeck/contexts/workspace/project-service/domain/errors"
	"crewdeck/contexts/workspace/project-service/domain/services"
	"crewdeck/contexts/workspace/project-service/ports"
)

// Service coordinates project lifecycle and membership operations.
type Service struct {
	Repo        ports.Repository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// CreateProjectInput is the application-level input for CreateProject.
type CreateProjectInput struct {
	Name        string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
}

// UpdateProjectInput carries optional field updates; nil means keep current.
type UpdateProjectInput struct {
	Name        *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
}

// CreateProject creates the project and its owner member row atomically.
func (s Service) CreateProject(ctx context.Context, actorID string, input CreateProjectInput) (entities.Project, error) {
	if strings.TrimSpace(actorID) == "" || strings.TrimSpace(input.Name) == "" {
		return entities.Project{}, domainerrors.ErrInvalidRequest
	}
	if input.StartDate != nil && input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		return entities.Project{}, domainerrors.ErrInvalidRequest
	}

	projectID, err := s.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.Project{}, err
	}
	memberID, err := s.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.Project{}, err
	}

	project, err := s.Repo.CreateProject(ctx, ports.CreateProjectInput{
		ProjectID:   projectID,
		MemberID:    memberID,
		OwnerUserID: strings.TrimSpace(actorID),
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return entities.Project{}, err
	}

	s.logger().Info("project created",
		"event", "project_created",
		"module", "workspace/project-service",
		"layer", "application",
		"project_id", project.ProjectID,
		"owner_user_id", project.OwnerUserID,
	)
	return project, nil
}

// GetProject returns the project with its active member rows.
func (s Service) GetProject(ctx context.Context, projectID string) (entities.Project, []entities.TeamMember, error) {
	if strings.TrimSpace(projectID) == "" {
		return entities.Project{}, nil, domainerrors.ErrInvalidRequest
	}
	return s.Repo.GetProject(ctx, projectID)
}

// ListProjects returns projects matching the filter.
func (s Service) ListProjects(ctx context.Context, filter ports.ProjectFilter) ([]entities.Project, error) {
	return s.Repo.ListProjects(ctx, filter)
}

// UpdateProject applies field updates; the actor must hold owner or manager
// membership on the project.
func (s Service) UpdateProject(ctx context.Context, actorID string, projectID string, input UpdateProjectInput) (entities.Project, error) {
	if strings.TrimSpace(actorID) == "" || strings.TrimSpace(projectID) == "" {
		return entities.Project{}, domainerrors.ErrInvalidRequest
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return entities.Project{}, domainerrors.ErrInvalidRequest
	}
	if err := s.requireRole(ctx, projectID, actorID, entities.MemberRoleOwner, entities.MemberRoleManager); err != nil {
		return entities.Project{}, err
	}
	if err := s.requireActive(ctx, projectID); err != nil {
		return entities.Project{}, err
	}

	return s.Repo.UpdateProject(ctx, projectID, ports.UpdateProjectInput{
		Name:        input.Name,
		Description: input.Description,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		UpdatedAt:   s.now(),
		ActorID:     strings.TrimSpace(actorID),
	})
}

// ArchiveProject moves the project into the archived state.
func (s Service) ArchiveProject(ctx context.Context, actorID string, projectID string) (entities.Project, error) {
	if strings.TrimSpace(actorID) == "" || strings.TrimSpace(projectID) == "" {
		return entities.Project{}, domainerrors.ErrInvalidRequest
	}
	if err := s.requireRole(ctx, projectID, actorID, entities.MemberRoleOwner, entities.MemberRoleManager); err != nil {
		return entities.Project{}, err
	}

	project, err := s.Repo.SetProjectStatus(ctx, projectID, entities.ProjectStatusArchived, strings.TrimSpace(actorID), s.now())
	if err != nil {
		return entities.Project{}, err
	}
	s.logger().Info("project archived",
		"event", "project_archived",
		"module", "workspace/project-service",
		"layer", "application",
		"project_id", projectID,
		"actor_id", actorID,
	)
	return project, nil
}

// DeleteProject removes the project and cascades its member rows. Owner only.
func (s Service) DeleteProject(ctx context.Context, actorID string, projectID string) error {
	if strings.TrimSpace(actorID) == "" || strings.TrimSpace(projectID) == "" {
		return domainerrors.ErrInvalidRequest
	}
	if err := s.requireRole(ctx, projectID, actorID, entities.MemberRoleOwner); err != nil {
		return err
	}

	if err := s.Repo.DeleteProject(ctx, projectID, strings.TrimSpace(actorID), s.now()); err != nil {
		return err
	}
	s.logger().Info("project deleted",
		"event", "project_deleted",
		"module", "workspace/project-service",
		"layer", "application",
		"project_id", projectID,
		"actor_id", actorID,
	)
	return nil
}

// AddMember adds an active member row. Re-adding an active member fails with
// ErrMemberAlreadyExists.
func (s Service) AddMember(ctx context.Context, actorID string, projectID string, userID string, role string) (entities.TeamMember, error) {
	if strings.TrimSpace(actorID) == "" || strings.TrimSpace(projectID) == "" || strings.TrimSpace(userID) == "" {
		return entities.TeamMember{}, domainerrors.ErrInvalidRequest
	}
	if !entities.IsValidMemberRole(role) {
		return entities.TeamMember{}, domainerrors.ErrInvalidMemberRole
	}
	if err := s.requireRole(ctx, projectID, actorID, entities.MemberRoleOwner, entities.MemberRoleManager); err != nil {
		return entities.TeamMember{}, err
	}
	if err := s.requireActive(ctx, projectID); err != nil {
		return entities.TeamMember{}, err
	}

	memberID, err := s.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.TeamMember{}, err
	}
	member, err := s.Repo.AddMember(ctx, ports.AddMemberInput{
		MemberID:  memberID,
		ProjectID: strings.TrimSpace(projectID),
		UserID:    strings.TrimSpace(userID),
		Role:      role,
		ActorID:   strings.TrimSpace(actorID),
		JoinedAt:  s.now(),
	})
	if err != nil {
		return entities.TeamMember{}, err
	}

	s.logger().Info("project member added",
		"event", "project_member_added",
		"module", "workspace/project-service",
		"layer", "application",
		"project_id", projectID,
		"user_id", userID,
		"role", role,
	)
	return member, nil
}

// UpdateMemberRole changes a member's role. Demoting the last owner fails
// with ErrLastOwner.
func (s Service) UpdateMemberRole(ctx context.Context, actorID string, projectID string, userID string, role string) (entities.TeamMember, error) {
	if strings.TrimSpace(actorID) == "" || strings.TrimSpace(projectID) == "" || strings.TrimSpace(userID) == "" {
		return entities.TeamMember{}, domainerrors.ErrInvalidRequest
	}
	if !entities.IsValidMemberRole(role) {
		return entities.TeamMember{}, domainerrors.ErrInvalidMemberRole
	}
	if err := s.requireRole(ctx, projectID, actorID, entities.MemberRoleOwner, entities.MemberRoleManager); err != nil {
		return entities.TeamMember{}, err
	}

	return s.Repo.UpdateMemberRole(ctx, strings.TrimSpace(projectID), strings.TrimSpace(userID), role, strings.TrimSpace(actorID), s.now())
}

// RemoveMember deactivates a member row. Non-owner members may remove
// themselves; removing the last owner fails with ErrLastOwner.
func (s Service) RemoveMember(ctx context.Context, actorID string, projectID string, userID string) (entities.TeamMember, error) {
	if strings.TrimSpace(actorID) == "" || strings.TrimSpace(projectID) == "" || strings.TrimSpace(userID) == "" {
		return entities.TeamMember{}, domainerrors.ErrInvalidRequest
	}

	if strings.TrimSpace(actorID) != strings.TrimSpace(userID) {
		if err := s.requireRole(ctx, projectID, actorID, entities.MemberRoleOwner, entities.MemberRoleManager); err != nil {
			return entities.TeamMember{}, err
		}
	}

	member, err := s.Repo.RemoveMember(ctx, strings.TrimSpace(projectID), strings.TrimSpace(userID), strings.TrimSpace(actorID), s.now())
	if err != nil {
		return entities.TeamMember{}, err
	}

	s.logger().Info("project member removed",
		"event", "project_member_removed",
		"module", "workspace/project-service",
		"layer", "application",
		"project_id", projectID,
		"user_id", userID,
		"actor_id", actorID,
	)
	return member, nil
}

// ListMembers returns active members grouped by role rank.
func (s Service) ListMembers(ctx context.Context, projectID string) ([]services.MemberGroup, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, domainerrors.ErrInvalidRequest
	}
	members, err := s.Repo.ListMembers(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return services.GroupMembers(members), nil
}

// CheckMembership reports the active member row for a user, if any.
func (s Service) CheckMembership(ctx context.Context, projectID string, userID string) (entities.TeamMember, bool, error) {
	if strings.TrimSpace(projectID) == "" || strings.TrimSpace(userID) == "" {
		return entities.TeamMember{}, false, domainerrors.ErrInvalidRequest
	}
	return s.Repo.CheckMembership(ctx, projectID, userID)
}

// ListAuditLog returns the most recent audit entries for a project.
func (s Service) ListAuditLog(ctx context.Context, actorID string, projectID string, limit int) ([]entities.AuditEntry, error) {
	if strings.TrimSpace(actorID) == "" || strings.TrimSpace(projectID) == "" {
		return nil, domainerrors.ErrInvalidRequest
	}
	if err := s.requireRole(ctx, projectID, actorID, entities.MemberRoleOwner, entities.MemberRoleManager); err != nil {
		return nil, err
	}
	return s.Repo.ListAuditLog(ctx, projectID, limit)
}

func (s Service) requireRole(ctx context.Context, projectID string, userID string, roles ...string) error {
	member, found, err := s.Repo.CheckMembership(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if !found {
		return domainerrors.ErrForbidden
	}
	for _, role := range roles {
		if member.Role == role {
			return nil
		}
	}
	return domainerrors.ErrForbidden
}

func (s Service) requireActive(ctx context.Context, projectID string) error {
	project, _, err := s.Repo.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	if project.Status == entities.ProjectStatusArchived {
		return domainerrors.ErrProjectArchived
	}
	return nil
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
