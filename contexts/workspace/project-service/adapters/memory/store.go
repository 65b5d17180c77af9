package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"crewdeck/contexts/workspace/project-service/domain/entities"
	domainerrors "crewdeck/contexts/workspace/project-service/domain/errors"
	"crewdeck/contexts/workspace/project-service/ports"

	"github.com/google/uuid"
)

// Store is an in-memory adapter implementing the project repository ports.
// It is intended for tests and local development wiring.
type Store struct {
	mu sync.RWMutex

	projects map[string]entities.Project
	members  map[string]entities.TeamMember
	audit    map[string][]entities.AuditEntry
}

func NewStore() *Store {
	return &Store{
		projects: make(map[string]entities.Project),
		members:  make(map[string]entities.TeamMember),
		audit:    make(map[string][]entities.AuditEntry),
	}
}

func (s *Store) CreateProject(_ context.Context, input ports.CreateProjectInput) (entities.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	project := entities.Project{
		ProjectID:   input.ProjectID,
		OwnerUserID: input.OwnerUserID,
		Name:        input.Name,
		Description: input.Description,
		Status:      entities.ProjectStatusActive,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		CreatedAt:   input.CreatedAt.UTC(),
		UpdatedAt:   input.CreatedAt.UTC(),
	}
	s.projects[project.ProjectID] = project

	owner := entities.TeamMember{
		MemberID:  input.MemberID,
		ProjectID: input.ProjectID,
		UserID:    input.OwnerUserID,
		Role:      entities.MemberRoleOwner,
		Status:    entities.MemberStatusActive,
		JoinedAt:  input.CreatedAt.UTC(),
	}
	s.members[owner.MemberID] = owner

	s.appendAuditLocked(project.ProjectID, input.OwnerUserID, "project_created", "name="+project.Name, input.CreatedAt)
	return project, nil
}

func (s *Store) GetProject(_ context.Context, projectID string) (entities.Project, []entities.TeamMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	project, ok := s.projects[projectID]
	if !ok {
		return entities.Project{}, nil, domainerrors.ErrProjectNotFound
	}
	return project, s.activeMembersLocked(projectID), nil
}

func (s *Store) ListProjects(_ context.Context, filter ports.ProjectFilter) ([]entities.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	memberOf := make(map[string]struct{})
	if strings.TrimSpace(filter.MemberUserID) != "" {
		for _, member := range s.members {
			if member.UserID == filter.MemberUserID && member.Status == entities.MemberStatusActive {
				memberOf[member.ProjectID] = struct{}{}
			}
		}
	}

	items := make([]entities.Project, 0)
	for _, project := range s.projects {
		if strings.TrimSpace(filter.OwnerUserID) != "" && project.OwnerUserID != filter.OwnerUserID {
			continue
		}
		if strings.TrimSpace(filter.Status) != "" && project.Status != filter.Status {
			continue
		}
		if strings.TrimSpace(filter.MemberUserID) != "" {
			if _, ok := memberOf[project.ProjectID]; !ok {
				continue
			}
		}
		items = append(items, project)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) UpdateProject(_ context.Context, projectID string, input ports.UpdateProjectInput) (entities.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	project, ok := s.projects[projectID]
	if !ok {
		return entities.Project{}, domainerrors.ErrProjectNotFound
	}
	if input.Name != nil {
		project.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		project.Description = strings.TrimSpace(*input.Description)
	}
	if input.StartDate != nil {
		project.StartDate = input.StartDate
	}
	if input.EndDate != nil {
		project.EndDate = input.EndDate
	}
	project.UpdatedAt = input.UpdatedAt.UTC()
	s.projects[projectID] = project

	s.appendAuditLocked(projectID, input.ActorID, "project_updated", "", input.UpdatedAt)
	return project, nil
}

func (s *Store) SetProjectStatus(_ context.Context, projectID string, status string, actorID string, now time.Time) (entities.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	project, ok := s.projects[projectID]
	if !ok {
		return entities.Project{}, domainerrors.ErrProjectNotFound
	}
	project.Status = status
	project.UpdatedAt = now.UTC()
	s.projects[projectID] = project

	s.appendAuditLocked(projectID, actorID, "project_status_changed", "status="+status, now)
	return project, nil
}

func (s *Store) DeleteProject(_ context.Context, projectID string, actorID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[projectID]; !ok {
		return domainerrors.ErrProjectNotFound
	}
	delete(s.projects, projectID)
	for id, member := range s.members {
		if member.ProjectID == projectID {
			delete(s.members, id)
		}
	}
	delete(s.audit, projectID)
	_ = actorID
	_ = now
	return nil
}

func (s *Store) AddMember(_ context.Context, input ports.AddMemberInput) (entities.TeamMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[input.ProjectID]; !ok {
		return entities.TeamMember{}, domainerrors.ErrProjectNotFound
	}
	for _, member := range s.members {
		if member.ProjectID == input.ProjectID && member.UserID == input.UserID && member.Status == entities.MemberStatusActive {
			return entities.TeamMember{}, domainerrors.ErrMemberAlreadyExists
		}
	}

	member := entities.TeamMember{
		MemberID:  input.MemberID,
		ProjectID: input.ProjectID,
		UserID:    input.UserID,
		Role:      input.Role,
		Status:    entities.MemberStatusActive,
		JoinedAt:  input.JoinedAt.UTC(),
	}
	s.members[member.MemberID] = member

	s.appendAuditLocked(input.ProjectID, input.ActorID, "member_added", "user_id="+input.UserID+" role="+input.Role, input.JoinedAt)
	return member, nil
}

func (s *Store) UpdateMemberRole(_ context.Context, projectID string, userID string, role string, actorID string, now time.Time) (entities.TeamMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.activeMemberLocked(projectID, userID)
	if !ok {
		return entities.TeamMember{}, domainerrors.ErrMemberNotFound
	}
	if target.Role == entities.MemberRoleOwner && role != entities.MemberRoleOwner && s.ownerCountLocked(projectID) <= 1 {
		return entities.TeamMember{}, domainerrors.ErrLastOwner
	}

	target.Role = role
	s.members[target.MemberID] = target

	s.appendAuditLocked(projectID, actorID, "member_role_updated", "user_id="+userID+" role="+role, now)
	return target, nil
}

func (s *Store) RemoveMember(_ context.Context, projectID string, userID string, actorID string, now time.Time) (entities.TeamMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.activeMemberLocked(projectID, userID)
	if !ok {
		return entities.TeamMember{}, domainerrors.ErrMemberNotFound
	}
	if target.Role == entities.MemberRoleOwner && s.ownerCountLocked(projectID) <= 1 {
		return entities.TeamMember{}, domainerrors.ErrLastOwner
	}

	removedAt := now.UTC()
	target.Status = entities.MemberStatusRemoved
	target.RemovedAt = &removedAt
	s.members[target.MemberID] = target

	s.appendAuditLocked(projectID, actorID, "member_removed", "user_id="+userID, now)
	return target, nil
}

func (s *Store) ListMembers(_ context.Context, projectID string) ([]entities.TeamMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.projects[projectID]; !ok {
		return nil, domainerrors.ErrProjectNotFound
	}
	items := make([]entities.TeamMember, 0)
	for _, member := range s.members {
		if member.ProjectID == projectID {
			items = append(items, member)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].JoinedAt.Before(items[j].JoinedAt)
	})
	return items, nil
}

func (s *Store) CheckMembership(_ context.Context, projectID string, userID string) (entities.TeamMember, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	member, ok := s.activeMemberLocked(projectID, userID)
	return member, ok, nil
}

func (s *Store) ListAuditLog(_ context.Context, projectID string, limit int) ([]entities.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	entries := append([]entities.AuditEntry(nil), s.audit[projectID]...)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) activeMembersLocked(projectID string) []entities.TeamMember {
	items := make([]entities.TeamMember, 0)
	for _, member := range s.members {
		if member.ProjectID == projectID && member.Status == entities.MemberStatusActive {
			items = append(items, member)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].JoinedAt.Before(items[j].JoinedAt)
	})
	return items
}

func (s *Store) activeMemberLocked(projectID string, userID string) (entities.TeamMember, bool) {
	for _, member := range s.members {
		if member.ProjectID == projectID && member.UserID == userID && member.Status == entities.MemberStatusActive {
			return member, true
		}
	}
	return entities.TeamMember{}, false
}

func (s *Store) ownerCountLocked(projectID string) int {
	count := 0
	for _, member := range s.members {
		if member.ProjectID == projectID && member.Role == entities.MemberRoleOwner && member.Status == entities.MemberStatusActive {
			count++
		}
	}
	return count
}

func (s *Store) appendAuditLocked(projectID string, actorID string, action string, detail string, at time.Time) {
	s.audit[projectID] = append(s.audit[projectID], entities.AuditEntry{
		AuditLogID: uuid.NewString(),
		ProjectID:  projectID,
		ActorID:    actorID,
		Action:     action,
		Detail:     detail,
		CreatedAt:  at.UTC(),
	})
}
