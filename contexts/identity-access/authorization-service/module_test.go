package authorization_test

import (
	"context"
	"errors"
	"testing"
	"time"

	authorization "crewdeck/contexts/identity-access/authorization-service"
	"crewdeck/contexts/identity-access/authorization-service/adapters/memory"
	"crewdeck/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "crewdeck/contexts/identity-access/authorization-service/domain/errors"
	"crewdeck/contexts/identity-access/authorization-service/ports"
	httptransport "crewdeck/contexts/identity-access/authorization-service/transport/http"
)

func TestGrantRoleAndCheckPermission(t *testing.T) {
	module := authorization.NewInMemoryModule(nil)

	grant, err := module.Handler.GrantRoleHandler(
		context.Background(),
		"user-new-1",
		"user_admin_1",
		"idem-grant-1",
		httptransport.GrantRoleRequest{
			RoleID: "manager",
			Reason: "team lead onboarding",
		},
	)
	if err != nil {
		t.Fatalf("grant role failed: %v", err)
	}
	if grant.AssignmentID == "" {
		t.Fatalf("expected assignment id")
	}

	decision, err := module.Handler.CheckPermissionHandler(
		context.Background(),
		"user-new-1",
		httptransport.CheckPermissionRequest{Permission: "project.create"},
	)
	if err != nil {
		t.Fatalf("permission check failed: %v", err)
	}
	if !decision.Allowed {
		t.Fatalf("expected permission allowed, reason %s", decision.Reason)
	}
}

func TestGrantRoleIdempotencyReplay(t *testing.T) {
	module := authorization.NewInMemoryModule(nil)

	first, err := module.Handler.GrantRoleHandler(
		context.Background(),
		"user-new-2",
		"user_admin_1",
		"idem-grant-replay",
		httptransport.GrantRoleRequest{RoleID: "viewer"},
	)
	if err != nil {
		t.Fatalf("first grant failed: %v", err)
	}

	second, err := module.Handler.GrantRoleHandler(
		context.Background(),
		"user-new-2",
		"user_admin_1",
		"idem-grant-replay",
		httptransport.GrantRoleRequest{RoleID: "viewer"},
	)
	if err != nil {
		t.Fatalf("second grant replay failed: %v", err)
	}
	if !second.Replayed {
		t.Fatalf("expected replayed response")
	}
	if first.AssignmentID != second.AssignmentID {
		t.Fatalf("expected same assignment id, got %s and %s", first.AssignmentID, second.AssignmentID)
	}
}

func TestGrantRoleIdempotencyConflict(t *testing.T) {
	module := authorization.NewInMemoryModule(nil)

	_, err := module.Handler.GrantRoleHandler(
		context.Background(),
		"user-new-3",
		"user_admin_1",
		"idem-grant-conflict",
		httptransport.GrantRoleRequest{RoleID: "viewer"},
	)
	if err != nil {
		t.Fatalf("first grant failed: %v", err)
	}

	_, err = module.Handler.GrantRoleHandler(
		context.Background(),
		"user-new-3",
		"user_admin_1",
		"idem-grant-conflict",
		httptransport.GrantRoleRequest{RoleID: "manager"},
	)
	if !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected idempotency conflict, got %v", err)
	}
}

func TestGrantRoleForbiddenActor(t *testing.T) {
	module := authorization.NewInMemoryModule(nil)

	_, err := module.Handler.GrantRoleHandler(
		context.Background(),
		"user-new-4",
		"user_member_1",
		"idem-grant-forbidden",
		httptransport.GrantRoleRequest{RoleID: "viewer"},
	)
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestBootstrapAdminCanIssueFirstGrant(t *testing.T) {
	// An actor with no stored assignment cannot grant anything, so a
	// database holding only the role catalog would be unreachable.
	module := authorization.NewInMemoryModule(nil)

	_, err := module.Handler.GrantRoleHandler(
		context.Background(),
		"user-hire-1",
		"user-founder",
		"idem-bootstrap-denied-role",
		httptransport.GrantRoleRequest{RoleID: "admin"},
	)
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden without bootstrap list, got %v", err)
	}

	_, err = module.Handler.GrantPermissionHandler(
		context.Background(),
		"user-hire-1",
		"user-founder",
		"idem-bootstrap-denied-perm",
		httptransport.GrantPermissionRequest{Permission: "project.view"},
	)
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden without bootstrap list, got %v", err)
	}

	// Naming the actor in BootstrapAdmins unblocks the first assignment.
	store := memory.NewStore()
	seeded := authorization.NewModule(authorization.Dependencies{
		Repository:         store,
		Idempotency:        store,
		PermissionCache:    store,
		Clock:              store,
		IDGenerator:        store,
		IdempotencyTTL:     time.Hour,
		PermissionCacheTTL: time.Minute,
		BootstrapAdmins:    []string{"user-founder"},
	})

	grant, err := seeded.Handler.GrantRoleHandler(
		context.Background(),
		"user-hire-1",
		"user-founder",
		"idem-bootstrap-first-grant",
		httptransport.GrantRoleRequest{RoleID: "admin", Reason: "initial admin"},
	)
	if err != nil {
		t.Fatalf("bootstrap grant failed: %v", err)
	}
	if grant.AssignmentID == "" {
		t.Fatalf("expected assignment id")
	}

	// The newly assigned admin can grant through the stored policy.
	_, err = seeded.Handler.GrantRoleHandler(
		context.Background(),
		"user-hire-2",
		"user-hire-1",
		"idem-bootstrap-second-grant",
		httptransport.GrantRoleRequest{RoleID: "member"},
	)
	if err != nil {
		t.Fatalf("grant by assigned admin failed: %v", err)
	}
}

func TestGrantRoleAlreadyAssigned(t *testing.T) {
	module := authorization.NewInMemoryModule(nil)

	_, err := module.Handler.GrantRoleHandler(
		context.Background(),
		"user_member_1",
		"user_admin_1",
		"idem-grant-duplicate",
		httptransport.GrantRoleRequest{RoleID: "member"},
	)
	if !errors.Is(err, domainerrors.ErrRoleAlreadyAssigned) {
		t.Fatalf("expected role already assigned, got %v", err)
	}
}

func TestRevokeRoleInvalidatesPermissions(t *testing.T) {
	module := authorization.NewInMemoryModule(nil)

	before, err := module.Handler.CheckPermissionHandler(
		context.Background(),
		"user_member_1",
		httptransport.CheckPermissionRequest{Permission: "task.create"},
	)
	if err != nil {
		t.Fatalf("check before revoke failed: %v", err)
	}
	if !before.Allowed {
		t.Fatalf("expected member to create tasks before revoke")
	}

	_, err = module.Handler.RevokeRoleHandler(
		context.Background(),
		"user_member_1",
		"user_admin_1",
		"idem-revoke-1",
		httptransport.RevokeRoleRequest{RoleID: "member", Reason: "offboarding"},
	)
	if err != nil {
		t.Fatalf("revoke role failed: %v", err)
	}

	after, err := module.Handler.CheckPermissionHandler(
		context.Background(),
		"user_member_1",
		httptransport.CheckPermissionRequest{Permission: "task.create"},
	)
	if err != nil {
		t.Fatalf("check after revoke failed: %v", err)
	}
	if after.Allowed {
		t.Fatalf("expected permission denied after revoke")
	}
	if after.Reason != "permission_missing" {
		t.Fatalf("unexpected reason %s", after.Reason)
	}
}

func TestRevokeRoleNotAssigned(t *testing.T) {
	module := authorization.NewInMemoryModule(nil)

	_, err := module.Handler.RevokeRoleHandler(
		context.Background(),
		"user-new-5",
		"user_admin_1",
		"idem-revoke-missing",
		httptransport.RevokeRoleRequest{RoleID: "manager"},
	)
	if !errors.Is(err, domainerrors.ErrRoleNotAssigned) {
		t.Fatalf("expected role not assigned, got %v", err)
	}
}

func TestDirectGrantLifecycle(t *testing.T) {
	module := authorization.NewInMemoryModule(nil)

	granted, err := module.Handler.GrantPermissionHandler(
		context.Background(),
		"user_member_2",
		"user_admin_1",
		"idem-perm-grant-1",
		httptransport.GrantPermissionRequest{
			Permission: "attendance.manage",
			Reason:     "payroll coverage",
		},
	)
	if err != nil {
		t.Fatalf("grant permission failed: %v", err)
	}
	if granted.GrantID == "" {
		t.Fatalf("expected grant id")
	}

	decision, err := module.Handler.CheckPermissionHandler(
		context.Background(),
		"user_member_2",
		httptransport.CheckPermissionRequest{Permission: "attendance.manage"},
	)
	if err != nil {
		t.Fatalf("check after direct grant failed: %v", err)
	}
	if !decision.Allowed {
		t.Fatalf("expected direct grant to allow permission")
	}

	_, err = module.Handler.GrantPermissionHandler(
		context.Background(),
		"user_member_2",
		"user_admin_1",
		"idem-perm-grant-2",
		httptransport.GrantPermissionRequest{Permission: "attendance.manage"},
	)
	if !errors.Is(err, domainerrors.ErrPermissionAlreadyGranted) {
		t.Fatalf("expected already granted, got %v", err)
	}

	_, err = module.Handler.RevokePermissionHandler(
		context.Background(),
		"user_member_2",
		"user_admin_1",
		"idem-perm-revoke-1",
		httptransport.RevokePermissionRequest{Permission: "attendance.manage"},
	)
	if err != nil {
		t.Fatalf("revoke permission failed: %v", err)
	}

	decision, err = module.Handler.CheckPermissionHandler(
		context.Background(),
		"user_member_2",
		httptransport.CheckPermissionRequest{Permission: "attendance.manage"},
	)
	if err != nil {
		t.Fatalf("check after revoke failed: %v", err)
	}
	if decision.Allowed {
		t.Fatalf("expected permission denied after revoke")
	}

	_, err = module.Handler.RevokePermissionHandler(
		context.Background(),
		"user_member_2",
		"user_admin_1",
		"idem-perm-revoke-2",
		httptransport.RevokePermissionRequest{Permission: "attendance.manage"},
	)
	if !errors.Is(err, domainerrors.ErrPermissionNotGranted) {
		t.Fatalf("expected not granted, got %v", err)
	}
}

func TestWildcardPermissionThroughDecision(t *testing.T) {
	module := authorization.NewInMemoryModule(nil)

	decision, err := module.Handler.CheckPermissionHandler(
		context.Background(),
		"user_admin_1",
		httptransport.CheckPermissionRequest{Permission: "project.delete"},
	)
	if err != nil {
		t.Fatalf("wildcard check failed: %v", err)
	}
	if !decision.Allowed {
		t.Fatalf("expected project.* to cover project.delete")
	}
}

func TestCheckPermissionCacheHit(t *testing.T) {
	module := authorization.NewInMemoryModule(nil)

	first, err := module.Handler.CheckPermissionHandler(
		context.Background(),
		"user_manager_1",
		httptransport.CheckPermissionRequest{Permission: "task.assign"},
	)
	if err != nil {
		t.Fatalf("first check failed: %v", err)
	}
	if first.CacheHit {
		t.Fatalf("expected cold cache on first check")
	}

	second, err := module.Handler.CheckPermissionHandler(
		context.Background(),
		"user_manager_1",
		httptransport.CheckPermissionRequest{Permission: "task.assign"},
	)
	if err != nil {
		t.Fatalf("second check failed: %v", err)
	}
	if !second.CacheHit {
		t.Fatalf("expected cache hit on second check")
	}
	if !second.Allowed {
		t.Fatalf("expected manager to assign tasks")
	}
}

func TestCheckPermissionDenyByDefaultOnLookupFailure(t *testing.T) {
	module := authorization.NewModule(authorization.Dependencies{
		Repository: failingRepository{},
	})

	decision, err := module.Handler.CheckPermissionHandler(
		context.Background(),
		"user-any",
		httptransport.CheckPermissionRequest{Permission: "project.view"},
	)
	if err != nil {
		t.Fatalf("expected deny decision, got error %v", err)
	}
	if decision.Allowed {
		t.Fatalf("expected deny by default")
	}
	if decision.Reason != "deny_by_default" {
		t.Fatalf("unexpected reason %s", decision.Reason)
	}
}

func TestCheckBatchPreservesOrder(t *testing.T) {
	module := authorization.NewInMemoryModule(nil)

	response, err := module.Handler.CheckBatchHandler(
		context.Background(),
		"user_member_1",
		httptransport.CheckBatchRequest{
			Permissions: []string{"task.view", "user.grant_role", "attendance.log"},
		},
	)
	if err != nil {
		t.Fatalf("batch check failed: %v", err)
	}
	if len(response.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(response.Results))
	}
	if !response.Results[0].Allowed || response.Results[1].Allowed || !response.Results[2].Allowed {
		t.Fatalf("unexpected batch decisions: %+v", response.Results)
	}
}

type failingRepository struct{}

func (failingRepository) ListEffectivePermissions(_ context.Context, _ string, _ time.Time) ([]string, error) {
	return nil, errors.New("store unavailable")
}

func (failingRepository) ListUserRoles(_ context.Context, _ string, _ time.Time) ([]entities.RoleAssignment, error) {
	return nil, errors.New("store unavailable")
}

func (failingRepository) GrantRole(_ context.Context, _ ports.GrantRoleInput) (ports.RoleMutationResult, error) {
	return ports.RoleMutationResult{}, errors.New("store unavailable")
}

func (failingRepository) RevokeRole(_ context.Context, _ ports.RevokeRoleInput) (ports.RoleMutationResult, error) {
	return ports.RoleMutationResult{}, errors.New("store unavailable")
}

func (failingRepository) GrantPermission(_ context.Context, _ ports.GrantPermissionInput) (ports.GrantMutationResult, error) {
	return ports.GrantMutationResult{}, errors.New("store unavailable")
}

func (failingRepository) RevokePermission(_ context.Context, _ ports.RevokePermissionInput) (ports.GrantMutationResult, error) {
	return ports.GrantMutationResult{}, errors.New("store unavailable")
}

func (failingRepository) ExpireAssignments(_ context.Context, _ time.Time) ([]string, error) {
	return nil, errors.New("store unavailable")
}
