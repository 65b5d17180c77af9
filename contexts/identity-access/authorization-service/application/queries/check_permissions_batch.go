package queries

import (
	"context"
	"log/slog"
	"strings"

	application "crewdeck/contexts/identity-access/authorization-service/application"
	"crewdeck/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "crewdeck/contexts/identity-access/authorization-service/domain/errors"
	"crewdeck/contexts/identity-access/authorization-service/domain/services"
)

// CheckPermissionsBatchQuery groups multiple permission checks for one user.
type CheckPermissionsBatchQuery struct {
	UserID      string
	Permissions []string
}

// CheckPermissionsBatchUseCase evaluates a batch against one permission load.
type CheckPermissionsBatchUseCase struct {
	CheckPermission CheckPermissionUseCase
	Logger          *slog.Logger
}

// Execute loads the user's effective permissions once and evaluates every
// requested permission against that snapshot, preserving input order.
// Lookup failures deny the whole batch by default, matching single checks.
func (u CheckPermissionsBatchUseCase) Execute(
	ctx context.Context,
	query CheckPermissionsBatchQuery,
) ([]entities.PermissionDecision, error) {
	if strings.TrimSpace(query.UserID) == "" {
		return nil, domainerrors.ErrInvalidUserID
	}
	for _, permission := range query.Permissions {
		if strings.TrimSpace(permission) == "" {
			return nil, domainerrors.ErrInvalidPermission
		}
	}

	logger := application.ResolveLogger(u.Logger)
	now := u.CheckPermission.now()

	permissions, cacheHit, err := u.CheckPermission.loadPermissions(ctx, query.UserID, now)
	if err != nil {
		logger.Error("permission lookup failed, deny by default",
			"event", "authz_permission_lookup_failed",
			"module", "identity-access/authorization-service",
			"layer", "application",
			"user_id", query.UserID,
			"batch_size", len(query.Permissions),
			"error", err.Error(),
		)
		results := make([]entities.PermissionDecision, 0, len(query.Permissions))
		for _, permission := range query.Permissions {
			results = append(results, entities.PermissionDecision{
				UserID:     query.UserID,
				Permission: permission,
				Allowed:    false,
				Reason:     "deny_by_default",
				CheckedAt:  now,
				CacheHit:   false,
			})
		}
		return results, nil
	}

	results := make([]entities.PermissionDecision, 0, len(query.Permissions))
	for _, permission := range query.Permissions {
		allowed := services.GrantsPermission(permissions, permission)
		reason := "permission_granted"
		if !allowed {
			reason = "permission_missing"
		}
		results = append(results, entities.PermissionDecision{
			UserID:     query.UserID,
			Permission: permission,
			Allowed:    allowed,
			Reason:     reason,
			CheckedAt:  now,
			CacheHit:   cacheHit,
		})
	}
	return results, nil
}
