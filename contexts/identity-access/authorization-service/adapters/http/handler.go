package httpadapter

import (
	"context"
	"log/slog"

	application "crewdeck/contexts/identity-access/authorization-service/application"
	"crewdeck/contexts/identity-access/authorization-service/application/commands"
	"crewdeck/contexts/identity-access/authorization-service/application/queries"
	httptransport "crewdeck/contexts/identity-access/authorization-service/transport/http"
)

// Handler maps HTTP DTOs to application commands/queries.
type Handler struct {
	CheckPermission  queries.CheckPermissionUseCase
	CheckBatch       queries.CheckPermissionsBatchUseCase
	ListRoles        queries.ListUserRolesUseCase
	ListPermissions  queries.ListPermissionsUseCase
	GrantRole        commands.GrantRoleUseCase
	RevokeRole       commands.RevokeRoleUseCase
	GrantPermission  commands.GrantPermissionUseCase
	RevokePermission commands.RevokePermissionUseCase
	Logger           *slog.Logger
}

// CheckPermissionHandler evaluates one permission for one user.
func (h Handler) CheckPermissionHandler(
	ctx context.Context,
	userID string,
	request httptransport.CheckPermissionRequest,
) (httptransport.CheckPermissionResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Debug("http authz check received",
		"event", "authz_http_check_received",
		"module", "identity-access/authorization-service",
		"layer", "transport",
		"user_id", userID,
		"permission", request.Permission,
	)

	decision, err := h.CheckPermission.Execute(ctx, queries.CheckPermissionQuery{
		UserID:     userID,
		Permission: request.Permission,
	})
	if err != nil {
		logger.Error("http authz check failed",
			"event", "authz_http_check_failed",
			"module", "identity-access/authorization-service",
			"layer", "transport",
			"user_id", userID,
			"permission", request.Permission,
			"error", err.Error(),
		)
		return httptransport.CheckPermissionResponse{}, err
	}
	return httptransport.CheckPermissionResponse{
		UserID:     decision.UserID,
		Permission: decision.Permission,
		Allowed:    decision.Allowed,
		Reason:     decision.Reason,
		CheckedAt:  decision.CheckedAt,
		CacheHit:   decision.CacheHit,
	}, nil
}

// CheckBatchHandler evaluates multiple permissions in a single request.
func (h Handler) CheckBatchHandler(
	ctx context.Context,
	userID string,
	request httptransport.CheckBatchRequest,
) (httptransport.CheckBatchResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Debug("http authz check batch received",
		"event", "authz_http_check_batch_received",
		"module", "identity-access/authorization-service",
		"layer", "transport",
		"user_id", userID,
		"permission_count", len(request.Permissions),
	)

	decisions, err := h.CheckBatch.Execute(ctx, queries.CheckPermissionsBatchQuery{
		UserID:      userID,
		Permissions: request.Permissions,
	})
	if err != nil {
		logger.Error("http authz check batch failed",
			"event", "authz_http_check_batch_failed",
			"module", "identity-access/authorization-service",
			"layer", "transport",
			"user_id", userID,
			"permission_count", len(request.Permissions),
			"error", err.Error(),
		)
		return httptransport.CheckBatchResponse{}, err
	}

	items := make([]httptransport.CheckPermissionResponse, 0, len(decisions))
	for _, decision := range decisions {
		items = append(items, httptransport.CheckPermissionResponse{
			UserID:     decision.UserID,
			Permission: decision.Permission,
			Allowed:    decision.Allowed,
			Reason:     decision.Reason,
			CheckedAt:  decision.CheckedAt,
			CacheHit:   decision.CacheHit,
		})
	}
	return httptransport.CheckBatchResponse{Results: items}, nil
}

// ListUserRolesHandler returns active and historical role assignments for a user.
func (h Handler) ListUserRolesHandler(ctx context.Context, userID string) (httptransport.ListUserRolesResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("http authz list roles received",
		"event", "authz_http_list_roles_received",
		"module", "identity-access/authorization-service",
		"layer", "transport",
		"user_id", userID,
	)

	roles, err := h.ListRoles.Execute(ctx, userID)
	if err != nil {
		logger.Error("http authz list roles failed",
			"event", "authz_http_list_roles_failed",
			"module", "identity-access/authorization-service",
			"layer", "transport",
			"user_id", userID,
			"error", err.Error(),
		)
		return httptransport.ListUserRolesResponse{}, err
	}

	items := make([]httptransport.RoleAssignmentDTO, 0, len(roles))
	for _, role := range roles {
		items = append(items, httptransport.RoleAssignmentDTO{
			AssignmentID: role.AssignmentID,
			UserID:       role.UserID,
			RoleID:       role.RoleID,
			RoleName:     role.RoleName,
			AssignedBy:   role.AssignedBy,
			Reason:       role.Reason,
			AssignedAt:   role.AssignedAt,
			ExpiresAt:    role.ExpiresAt,
			IsActive:     role.IsActive,
			RevokedAt:    role.RevokedAt,
		})
	}
	return httptransport.ListUserRolesResponse{
		UserID: userID,
		Roles:  items,
	}, nil
}

// ListPermissionsHandler returns the sorted effective permission set for a user.
func (h Handler) ListPermissionsHandler(ctx context.Context, userID string) (httptransport.ListPermissionsResponse, error) {
	logger := application.ResolveLogger(h.Logger)

	permissions, err := h.ListPermissions.Execute(ctx, userID)
	if err != nil {
		logger.Error("http authz list permissions failed",
			"event", "authz_http_list_permissions_failed",
			"module", "identity-access/authorization-service",
			"layer", "transport",
			"user_id", userID,
			"error", err.Error(),
		)
		return httptransport.ListPermissionsResponse{}, err
	}
	return httptransport.ListPermissionsResponse{
		UserID:      userID,
		Permissions: permissions,
	}, nil
}

// GrantRoleHandler executes idempotent role assignment and returns command result DTO.
func (h Handler) GrantRoleHandler(
	ctx context.Context,
	userID string,
	adminID string,
	idempotencyKey string,
	request httptransport.GrantRoleRequest,
) (httptransport.GrantRoleResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("http authz grant role received",
		"event", "authz_http_grant_role_received",
		"module", "identity-access/authorization-service",
		"layer", "transport",
		"user_id", userID,
		"admin_id", adminID,
		"role_id", request.RoleID,
	)

	result, err := h.GrantRole.Execute(ctx, commands.GrantRoleCommand{
		IdempotencyKey: idempotencyKey,
		UserID:         userID,
		RoleID:         request.RoleID,
		AdminID:        adminID,
		Reason:         request.Reason,
		ExpiresAt:      request.ExpiresAt,
	})
	if err != nil {
		logger.Error("http authz grant role failed",
			"event", "authz_http_grant_role_failed",
			"module", "identity-access/authorization-service",
			"layer", "transport",
			"user_id", userID,
			"admin_id", adminID,
			"role_id", request.RoleID,
			"error", err.Error(),
		)
		return httptransport.GrantRoleResponse{}, err
	}
	return httptransport.GrantRoleResponse{
		AssignmentID: result.Assignment.AssignmentID,
		UserID:       result.Assignment.UserID,
		RoleID:       result.Assignment.RoleID,
		AssignedAt:   result.Assignment.AssignedAt,
		ExpiresAt:    result.Assignment.ExpiresAt,
		AuditLogID:   result.AuditLogID,
		Replayed:     result.Replayed,
	}, nil
}

// RevokeRoleHandler executes idempotent role revocation and returns command result DTO.
func (h Handler) RevokeRoleHandler(
	ctx context.Context,
	userID string,
	adminID string,
	idempotencyKey string,
	request httptransport.RevokeRoleRequest,
) (httptransport.RevokeRoleResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("http authz revoke role received",
		"event", "authz_http_revoke_role_received",
		"module", "identity-access/authorization-service",
		"layer", "transport",
		"user_id", userID,
		"admin_id", adminID,
		"role_id", request.RoleID,
	)

	result, err := h.RevokeRole.Execute(ctx, commands.RevokeRoleCommand{
		IdempotencyKey: idempotencyKey,
		UserID:         userID,
		RoleID:         request.RoleID,
		AdminID:        adminID,
		Reason:         request.Reason,
	})
	if err != nil {
		logger.Error("http authz revoke role failed",
			"event", "authz_http_revoke_role_failed",
			"module", "identity-access/authorization-service",
			"layer", "transport",
			"user_id", userID,
			"admin_id", adminID,
			"role_id", request.RoleID,
			"error", err.Error(),
		)
		return httptransport.RevokeRoleResponse{}, err
	}
	return httptransport.RevokeRoleResponse{
		UserID:     result.Assignment.UserID,
		RoleID:     result.Assignment.RoleID,
		RevokedAt:  result.Assignment.RevokedAt,
		AuditLogID: result.AuditLogID,
		Replayed:   result.Replayed,
	}, nil
}

// GrantPermissionHandler grants a direct user-to-permission edge.
func (h Handler) GrantPermissionHandler(
	ctx context.Context,
	userID string,
	adminID string,
	idempotencyKey string,
	request httptransport.GrantPermissionRequest,
) (httptransport.GrantPermissionResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("http authz grant permission received",
		"event", "authz_http_grant_permission_received",
		"module", "identity-access/authorization-service",
		"layer", "transport",
		"user_id", userID,
		"admin_id", adminID,
		"permission", request.Permission,
	)

	result, err := h.GrantPermission.Execute(ctx, commands.GrantPermissionCommand{
		IdempotencyKey: idempotencyKey,
		UserID:         userID,
		Permission:     request.Permission,
		AdminID:        adminID,
		Reason:         request.Reason,
	})
	if err != nil {
		logger.Error("http authz grant permission failed",
			"event", "authz_http_grant_permission_failed",
			"module", "identity-access/authorization-service",
			"layer", "transport",
			"user_id", userID,
			"admin_id", adminID,
			"permission", request.Permission,
			"error", err.Error(),
		)
		return httptransport.GrantPermissionResponse{}, err
	}
	return httptransport.GrantPermissionResponse{
		GrantID:    result.Grant.GrantID,
		UserID:     result.Grant.UserID,
		Permission: result.Grant.Permission,
		GrantedAt:  result.Grant.GrantedAt,
		AuditLogID: result.AuditLogID,
		Replayed:   result.Replayed,
	}, nil
}

// RevokePermissionHandler removes a direct user-to-permission edge.
func (h Handler) RevokePermissionHandler(
	ctx context.Context,
	userID string,
	adminID string,
	idempotencyKey string,
	request httptransport.RevokePermissionRequest,
) (httptransport.RevokePermissionResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("http authz revoke permission received",
		"event", "authz_http_revoke_permission_received",
		"module", "identity-access/authorization-service",
		"layer", "transport",
		"user_id", userID,
		"admin_id", adminID,
		"permission", request.Permission,
	)

	result, err := h.RevokePermission.Execute(ctx, commands.RevokePermissionCommand{
		IdempotencyKey: idempotencyKey,
		UserID:         userID,
		Permission:     request.Permission,
		AdminID:        adminID,
		Reason:         request.Reason,
	})
	if err != nil {
		logger.Error("http authz revoke permission failed",
			"event", "authz_http_revoke_permission_failed",
			"module", "identity-access/authorization-service",
			"layer", "transport",
			"user_id", userID,
			"admin_id", adminID,
			"permission", request.Permission,
			"error", err.Error(),
		)
		return httptransport.RevokePermissionResponse{}, err
	}
	return httptransport.RevokePermissionResponse{
		UserID:     result.Grant.UserID,
		Permission: result.Grant.Permission,
		RevokedAt:  result.Grant.RevokedAt,
		AuditLogID: result.AuditLogID,
		Replayed:   result.Replayed,
	}, nil
}
