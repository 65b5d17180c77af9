package queries_test

import (
	"context"
	"testing"
	"time"

	"crewdeck/contexts/identity-access/authorization-service/application/queries"
	"crewdeck/contexts/identity-access/authorization-service/domain/entities"
	"crewdeck/contexts/identity-access/authorization-service/ports"
)

type countingRepository struct {
	loads       int
	permissions []string
}

func (r *countingRepository) ListEffectivePermissions(_ context.Context, _ string, _ time.Time) ([]string, error) {
	r.loads++
	return r.permissions, nil
}

func (r *countingRepository) ListUserRoles(_ context.Context, _ string, _ time.Time) ([]entities.RoleAssignment, error) {
	return nil, nil
}

func (r *countingRepository) GrantRole(_ context.Context, _ ports.GrantRoleInput) (ports.RoleMutationResult, error) {
	return ports.RoleMutationResult{}, nil
}

func (r *countingRepository) RevokeRole(_ context.Context, _ ports.RevokeRoleInput) (ports.RoleMutationResult, error) {
	return ports.RoleMutationResult{}, nil
}

func (r *countingRepository) GrantPermission(_ context.Context, _ ports.GrantPermissionInput) (ports.GrantMutationResult, error) {
	return ports.GrantMutationResult{}, nil
}

func (r *countingRepository) RevokePermission(_ context.Context, _ ports.RevokePermissionInput) (ports.GrantMutationResult, error) {
	return ports.GrantMutationResult{}, nil
}

func (r *countingRepository) ExpireAssignments(_ context.Context, _ time.Time) ([]string, error) {
	return nil, nil
}

func TestCheckBatchLoadsPermissionsOnce(t *testing.T) {
	repo := &countingRepository{permissions: []string{"task.view", "project.*"}}
	batch := queries.CheckPermissionsBatchUseCase{
		CheckPermission: queries.CheckPermissionUseCase{Repository: repo},
	}

	results, err := batch.Execute(context.Background(), queries.CheckPermissionsBatchQuery{
		UserID:      "user-1",
		Permissions: []string{"task.view", "project.delete", "user.grant_role"},
	})
	if err != nil {
		t.Fatalf("batch check failed: %v", err)
	}
	if repo.loads != 1 {
		t.Fatalf("expected a single permission load without a cache, got %d", repo.loads)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 decisions, got %d", len(results))
	}
	if !results[0].Allowed || !results[1].Allowed || results[2].Allowed {
		t.Fatalf("unexpected decisions: %+v", results)
	}
	if results[2].Reason != "permission_missing" {
		t.Fatalf("unexpected reason %s", results[2].Reason)
	}
}
