package application

import (
	"context"
	"errors"
	"testing"

	"crewdeck/contexts/workspace/project-service/adapters/memory"
	"crewdeck/contexts/workspace/project-service/domain/entities"
	domainerrors "crewdeck/contexts/workspace/project-service/domain/errors"
	"crewdeck/contexts/workspace/project-service/ports"
)

func newService() Service {
	store := memory.NewStore()
	return Service{
		Repo:        store,
		Clock:       store,
		IDGenerator: store,
	}
}

func mustCreateProject(t *testing.T, service Service, ownerID string, name string) entities.Project {
	t.Helper()
	project, err := service.CreateProject(context.Background(), ownerID, CreateProjectInput{Name: name})
	if err != nil {
		t.Fatalf("create project failed: %v", err)
	}
	return project
}

func TestCreateProjectMakesCreatorOwner(t *testing.T) {
	service := newService()
	project := mustCreateProject(t, service, "user-owner", "Launch")

	if project.Status != entities.ProjectStatusActive {
		t.Fatalf("expected active project, got %s", project.Status)
	}

	member, found, err := service.CheckMembership(context.Background(), project.ProjectID, "user-owner")
	if err != nil {
		t.Fatalf("check membership failed: %v", err)
	}
	if !found || member.Role != entities.MemberRoleOwner {
		t.Fatalf("expected creator as owner member, got found=%v role=%s", found, member.Role)
	}
}

func TestAddMemberDeduplicatesActiveRows(t *testing.T) {
	service := newService()
	project := mustCreateProject(t, service, "user-owner", "Launch")

	if _, err := service.AddMember(context.Background(), "user-owner", project.ProjectID, "user-dev", entities.MemberRoleMember); err != nil {
		t.Fatalf("add member failed: %v", err)
	}
	_, err := service.AddMember(context.Background(), "user-owner", project.ProjectID, "user-dev", entities.MemberRoleViewer)
	if !errors.Is(err, domainerrors.ErrMemberAlreadyExists) {
		t.Fatalf("expected duplicate member error, got %v", err)
	}
}

func TestAddMemberRequiresManagerOrOwner(t *testing.T) {
	service := newService()
	project := mustCreateProject(t, service, "user-owner", "Launch")

	if _, err := service.AddMember(context.Background(), "user-owner", project.ProjectID, "user-dev", entities.MemberRoleMember); err != nil {
		t.Fatalf("seed member failed: %v", err)
	}

	_, err := service.AddMember(context.Background(), "user-dev", project.ProjectID, "user-other", entities.MemberRoleMember)
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestLastOwnerCannotBeDemotedOrRemoved(t *testing.T) {
	service := newService()
	project := mustCreateProject(t, service, "user-owner", "Launch")

	_, err := service.UpdateMemberRole(context.Background(), "user-owner", project.ProjectID, "user-owner", entities.MemberRoleMember)
	if !errors.Is(err, domainerrors.ErrLastOwner) {
		t.Fatalf("expected last owner guard on demote, got %v", err)
	}

	_, err = service.RemoveMember(context.Background(), "user-owner", project.ProjectID, "user-owner")
	if !errors.Is(err, domainerrors.ErrLastOwner) {
		t.Fatalf("expected last owner guard on remove, got %v", err)
	}
}

func TestSecondOwnerAllowsDemotion(t *testing.T) {
	service := newService()
	project := mustCreateProject(t, service, "user-owner", "Launch")

	if _, err := service.AddMember(context.Background(), "user-owner", project.ProjectID, "user-co", entities.MemberRoleOwner); err != nil {
		t.Fatalf("add co-owner failed: %v", err)
	}

	member, err := service.UpdateMemberRole(context.Background(), "user-co", project.ProjectID, "user-owner", entities.MemberRoleManager)
	if err != nil {
		t.Fatalf("demote with second owner failed: %v", err)
	}
	if member.Role != entities.MemberRoleManager {
		t.Fatalf("expected manager role, got %s", member.Role)
	}
}

func TestNonOwnerMayRemoveSelf(t *testing.T) {
	service := newService()
	project := mustCreateProject(t, service, "user-owner", "Launch")

	if _, err := service.AddMember(context.Background(), "user-owner", project.ProjectID, "user-dev", entities.MemberRoleMember); err != nil {
		t.Fatalf("seed member failed: %v", err)
	}

	member, err := service.RemoveMember(context.Background(), "user-dev", project.ProjectID, "user-dev")
	if err != nil {
		t.Fatalf("self removal failed: %v", err)
	}
	if member.Status != entities.MemberStatusRemoved {
		t.Fatalf("expected removed status, got %s", member.Status)
	}

	_, found, err := service.CheckMembership(context.Background(), project.ProjectID, "user-dev")
	if err != nil {
		t.Fatalf("check membership failed: %v", err)
	}
	if found {
		t.Fatalf("expected membership gone after self removal")
	}
}

func TestListMembersGroupsByRoleRank(t *testing.T) {
	service := newService()
	project := mustCreateProject(t, service, "user-owner", "Launch")

	for user, role := range map[string]string{
		"user-viewer":  entities.MemberRoleViewer,
		"user-dev":     entities.MemberRoleMember,
		"user-manager": entities.MemberRoleManager,
	} {
		if _, err := service.AddMember(context.Background(), "user-owner", project.ProjectID, user, role); err != nil {
			t.Fatalf("add %s failed: %v", user, err)
		}
	}

	groups, err := service.ListMembers(context.Background(), project.ProjectID)
	if err != nil {
		t.Fatalf("list members failed: %v", err)
	}
	if len(groups) != 4 {
		t.Fatalf("expected 4 role groups, got %d", len(groups))
	}
	if groups[0].Role != entities.MemberRoleOwner || groups[1].Role != entities.MemberRoleManager {
		t.Fatalf("unexpected group order: %s, %s", groups[0].Role, groups[1].Role)
	}
}

func TestDeleteProjectIsOwnerOnly(t *testing.T) {
	service := newService()
	project := mustCreateProject(t, service, "user-owner", "Launch")

	if _, err := service.AddMember(context.Background(), "user-owner", project.ProjectID, "user-manager", entities.MemberRoleManager); err != nil {
		t.Fatalf("seed manager failed: %v", err)
	}

	err := service.DeleteProject(context.Background(), "user-manager", project.ProjectID)
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden for manager delete, got %v", err)
	}

	if err := service.DeleteProject(context.Background(), "user-owner", project.ProjectID); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	_, _, err = service.GetProject(context.Background(), project.ProjectID)
	if !errors.Is(err, domainerrors.ErrProjectNotFound) {
		t.Fatalf("expected project gone, got %v", err)
	}
}

func TestArchivedProjectRejectsMutations(t *testing.T) {
	service := newService()
	project := mustCreateProject(t, service, "user-owner", "Launch")

	archived, err := service.ArchiveProject(context.Background(), "user-owner", project.ProjectID)
	if err != nil {
		t.Fatalf("archive failed: %v", err)
	}
	if archived.Status != entities.ProjectStatusArchived {
		t.Fatalf("expected archived status, got %s", archived.Status)
	}

	_, err = service.AddMember(context.Background(), "user-owner", project.ProjectID, "user-late", entities.MemberRoleMember)
	if !errors.Is(err, domainerrors.ErrProjectArchived) {
		t.Fatalf("expected archived guard, got %v", err)
	}

	name := "Renamed"
	_, err = service.UpdateProject(context.Background(), "user-owner", project.ProjectID, UpdateProjectInput{Name: &name})
	if !errors.Is(err, domainerrors.ErrProjectArchived) {
		t.Fatalf("expected archived guard on update, got %v", err)
	}
}

func TestListProjectsFiltersByMembership(t *testing.T) {
	service := newService()
	first := mustCreateProject(t, service, "user-owner", "Launch")
	mustCreateProject(t, service, "user-other", "Internal")

	if _, err := service.AddMember(context.Background(), "user-owner", first.ProjectID, "user-dev", entities.MemberRoleMember); err != nil {
		t.Fatalf("seed member failed: %v", err)
	}

	projects, err := service.ListProjects(context.Background(), ports.ProjectFilter{MemberUserID: "user-dev"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(projects) != 1 || projects[0].ProjectID != first.ProjectID {
		t.Fatalf("expected only membership projects, got %+v", projects)
	}

	owned, err := service.ListProjects(context.Background(), ports.ProjectFilter{OwnerUserID: "user-other"})
	if err != nil {
		t.Fatalf("owner filter failed: %v", err)
	}
	if len(owned) != 1 || owned[0].Name != "Internal" {
		t.Fatalf("unexpected owner filter result: %+v", owned)
	}
}

func TestAuditLogRecordsMutations(t *testing.T) {
	service := newService()
	project := mustCreateProject(t, service, "user-owner", "Launch")

	if _, err := service.AddMember(context.Background(), "user-owner", project.ProjectID, "user-dev", entities.MemberRoleMember); err != nil {
		t.Fatalf("add member failed: %v", err)
	}

	entries, err := service.ListAuditLog(context.Background(), "user-owner", project.ProjectID, 10)
	if err != nil {
		t.Fatalf("list audit failed: %v", err)
	}
	if len(entries) < 2 {
		t.Fatalf("expected create and member-add audit rows, got %d", len(entries))
	}
}
