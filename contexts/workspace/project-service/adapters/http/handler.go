package httpadapter

import (
	"context"
	"log/slog"

	"crewdeck/contexts/workspace/project-service/application"
	"crewdeck/contexts/workspace/project-service/domain/entities"
	"crewdeck/contexts/workspace/project-service/ports"
	httptransport "crewdeck/contexts/workspace/project-service/transport/http"
)

// Handler maps HTTP DTOs to application service calls.
type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) CreateProjectHandler(ctx context.Context, actorID string, request httptransport.CreateProjectRequest) (httptransport.ProjectResponse, error) {
	project, err := h.Service.CreateProject(ctx, actorID, application.CreateProjectInput{
		Name:        request.Name,
		Description: request.Description,
		StartDate:   request.StartDate,
		EndDate:     request.EndDate,
	})
	if err != nil {
		return httptransport.ProjectResponse{}, err
	}
	return projectDTO(project), nil
}

func (h Handler) GetProjectHandler(ctx context.Context, projectID string) (httptransport.ProjectDetailResponse, error) {
	project, members, err := h.Service.GetProject(ctx, projectID)
	if err != nil {
		return httptransport.ProjectDetailResponse{}, err
	}
	items := make([]httptransport.MemberDTO, 0, len(members))
	for _, member := range members {
		items = append(items, memberDTO(member))
	}
	return httptransport.ProjectDetailResponse{
		Project: projectDTO(project),
		Members: items,
	}, nil
}

func (h Handler) ListProjectsHandler(ctx context.Context, filter ports.ProjectFilter) (httptransport.ListProjectsResponse, error) {
	projects, err := h.Service.ListProjects(ctx, filter)
	if err != nil {
		return httptransport.ListProjectsResponse{}, err
	}
	items := make([]httptransport.ProjectResponse, 0, len(projects))
	for _, project := range projects {
		items = append(items, projectDTO(project))
	}
	return httptransport.ListProjectsResponse{Projects: items}, nil
}

func (h Handler) UpdateProjectHandler(ctx context.Context, actorID string, projectID string, request httptransport.UpdateProjectRequest) (httptransport.ProjectResponse, error) {
	project, err := h.Service.UpdateProject(ctx, actorID, projectID, application.UpdateProjectInput{
		Name:        request.Name,
		Description: request.Description,
		StartDate:   request.StartDate,
		EndDate:     request.EndDate,
	})
	if err != nil {
		return httptransport.ProjectResponse{}, err
	}
	return projectDTO(project), nil
}

func (h Handler) ArchiveProjectHandler(ctx context.Context, actorID string, projectID string) (httptransport.ProjectResponse, error) {
	project, err := h.Service.ArchiveProject(ctx, actorID, projectID)
	if err != nil {
		return httptransport.ProjectResponse{}, err
	}
	return projectDTO(project), nil
}

func (h Handler) DeleteProjectHandler(ctx context.Context, actorID string, projectID string) error {
	return h.Service.DeleteProject(ctx, actorID, projectID)
}

func (h Handler) AddMemberHandler(ctx context.Context, actorID string, projectID string, request httptransport.AddMemberRequest) (httptransport.MemberDTO, error) {
	member, err := h.Service.AddMember(ctx, actorID, projectID, request.UserID, request.Role)
	if err != nil {
		return httptransport.MemberDTO{}, err
	}
	return memberDTO(member), nil
}

func (h Handler) UpdateMemberRoleHandler(ctx context.Context, actorID string, projectID string, userID string, request httptransport.UpdateMemberRoleRequest) (httptransport.MemberDTO, error) {
	member, err := h.Service.UpdateMemberRole(ctx, actorID, projectID, userID, request.Role)
	if err != nil {
		return httptransport.MemberDTO{}, err
	}
	return memberDTO(member), nil
}

func (h Handler) RemoveMemberHandler(ctx context.Context, actorID string, projectID string, userID string) (httptransport.MemberDTO, error) {
	member, err := h.Service.RemoveMember(ctx, actorID, projectID, userID)
	if err != nil {
		return httptransport.MemberDTO{}, err
	}
	return memberDTO(member), nil
}

func (h Handler) ListMembersHandler(ctx context.Context, projectID string) (httptransport.ListMembersResponse, error) {
	groups, err := h.Service.ListMembers(ctx, projectID)
	if err != nil {
		return httptransport.ListMembersResponse{}, err
	}

	items := make([]httptransport.MemberGroupDTO, 0, len(groups))
	for _, group := range groups {
		members := make([]httptransport.MemberDTO, 0, len(group.Members))
		for _, member := range group.Members {
			members = append(members, memberDTO(member))
		}
		items = append(items, httptransport.MemberGroupDTO{
			Role:    group.Role,
			Members: members,
		})
	}
	return httptransport.ListMembersResponse{
		ProjectID: projectID,
		Groups:    items,
	}, nil
}

func (h Handler) ListAuditLogHandler(ctx context.Context, actorID string, projectID string, limit int) (httptransport.ListAuditLogResponse, error) {
	entries, err := h.Service.ListAuditLog(ctx, actorID, projectID, limit)
	if err != nil {
		return httptransport.ListAuditLogResponse{}, err
	}
	items := make([]httptransport.AuditEntryDTO, 0, len(entries))
	for _, entry := range entries {
		items = append(items, httptransport.AuditEntryDTO{
			AuditLogID: entry.AuditLogID,
			ProjectID:  entry.ProjectID,
			ActorID:    entry.ActorID,
			Action:     entry.Action,
			Detail:     entry.Detail,
			CreatedAt:  entry.CreatedAt,
		})
	}
	return httptransport.ListAuditLogResponse{
		ProjectID: projectID,
		Entries:   items,
	}, nil
}

func projectDTO(project entities.Project) httptransport.ProjectResponse {
	return httptransport.ProjectResponse{
		ProjectID:   project.ProjectID,
		OwnerUserID: project.OwnerUserID,
		Name:        project.Name,
		Description: project.Description,
		Status:      project.Status,
		StartDate:   project.StartDate,
		EndDate:     project.EndDate,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}
}

func memberDTO(member entities.TeamMember) httptransport.MemberDTO {
	return httptransport.MemberDTO{
		MemberID:  member.MemberID,
		ProjectID: member.ProjectID,
		UserID:    member.UserID,
		Role:      member.Role,
		Status:    member.Status,
		JoinedAt:  member.JoinedAt,
	}
}
