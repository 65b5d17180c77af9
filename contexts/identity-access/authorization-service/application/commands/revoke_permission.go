package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "crewdeck/contexts/identity-access/authorization-service/application"
	"crewdeck/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "crewdeck/contexts/identity-access/authorization-service/domain/errors"
	"crewdeck/contexts/identity-access/authorization-service/ports"
)

// RevokePermissionCommand removes a direct user-to-permission edge.
type RevokePermissionCommand struct {
	IdempotencyKey string
	UserID         string
	Permission     string
	AdminID        string
	Reason         string
}

type RevokePermissionResult struct {
	Grant      entities.UserGrant `json:"grant"`
	AuditLogID string             `json:"audit_log_id"`
	Replayed   bool               `json:"replayed"`
}

type RevokePermissionUseCase struct {
	Repository      ports.Repository
	Idempotency     ports.IdempotencyStore
	PermissionCache ports.PermissionCache
	Clock           ports.Clock
	IDGenerator     ports.IDGenerator
	IdempotencyTTL  time.Duration
	BootstrapAdmins []string
	Logger          *slog.Logger
}

func (u RevokePermissionUseCase) Execute(ctx context.Context, cmd RevokePermissionCommand) (RevokePermissionResult, error) {
	logger := application.ResolveLogger(u.Logger)

	if strings.TrimSpace(cmd.IdempotencyKey) == "" {
		return RevokePermissionResult{}, domainerrors.ErrIdempotencyKeyRequired
	}
	if strings.TrimSpace(cmd.UserID) == "" {
		return RevokePermissionResult{}, domainerrors.ErrInvalidUserID
	}
	if strings.TrimSpace(cmd.Permission) == "" {
		return RevokePermissionResult{}, domainerrors.ErrInvalidPermission
	}
	if strings.TrimSpace(cmd.AdminID) == "" {
		return RevokePermissionResult{}, domainerrors.ErrInvalidAdminID
	}

	requestHash, err := hashRequest(struct {
		UserID     string `json:"user_id"`
		Permission string `json:"permission"`
		AdminID    string `json:"admin_id"`
		Reason     string `json:"reason"`
	}{cmd.UserID, cmd.Permission, cmd.AdminID, cmd.Reason})
	if err != nil {
		return RevokePermissionResult{}, err
	}

	idempotencyKey := "authz_idempotency:" + cmd.IdempotencyKey
	now := u.now()

	existing, found, err := u.Idempotency.GetRecord(ctx, idempotencyKey, now)
	if err != nil {
		return RevokePermissionResult{}, err
	}
	if found {
		if existing.RequestHash != requestHash {
			return RevokePermissionResult{}, domainerrors.ErrIdempotencyConflict
		}
		var replay RevokePermissionResult
		if err := json.Unmarshal(existing.ResponsePayload, &replay); err != nil {
			return RevokePermissionResult{}, err
		}
		replay.Replayed = true
		return replay, nil
	}

	if err := ensureActorPermission(ctx, u.Repository, u.BootstrapAdmins, cmd.AdminID, "permission.revoke", now); err != nil {
		return RevokePermissionResult{}, err
	}

	auditLogID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return RevokePermissionResult{}, err
	}
	outboxID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return RevokePermissionResult{}, err
	}

	mutation, err := u.Repository.RevokePermission(ctx, ports.RevokePermissionInput{
		AuditLogID: auditLogID,
		OutboxID:   outboxID,
		UserID:     cmd.UserID,
		Permission: cmd.Permission,
		AdminID:    cmd.AdminID,
		Reason:     cmd.Reason,
		RevokedAt:  now,
	})
	if err != nil {
		logger.Error("revoke permission write failed",
			"event", "authz_revoke_permission_write_failed",
			"module", "identity-access/authorization-service",
			"layer", "application",
			"user_id", cmd.UserID,
			"permission", cmd.Permission,
			"error", err.Error(),
		)
		return RevokePermissionResult{}, err
	}

	if u.PermissionCache != nil {
		if err := u.PermissionCache.Invalidate(ctx, cmd.UserID); err != nil {
			logger.Warn("permission cache invalidate failed after revoke",
				"event", "authz_cache_invalidation_failed",
				"module", "identity-access/authorization-service",
				"layer", "application",
				"user_id", cmd.UserID,
				"error", err.Error(),
			)
		}
	}

	result := RevokePermissionResult{
		Grant:      mutation.Grant,
		AuditLogID: mutation.AuditLogID,
	}
	responsePayload, err := json.Marshal(result)
	if err != nil {
		return RevokePermissionResult{}, err
	}
	if err := u.Idempotency.PutRecord(ctx, ports.IdempotencyRecord{
		Key:             idempotencyKey,
		Operation:       "revoke_permission",
		RequestHash:     requestHash,
		ResponsePayload: responsePayload,
		ExpiresAt:       now.Add(u.idempotencyTTL()),
	}); err != nil {
		return RevokePermissionResult{}, err
	}

	logger.Info("revoke permission completed",
		"event", "authz_revoke_permission_completed",
		"module", "identity-access/authorization-service",
		"layer", "application",
		"user_id", cmd.UserID,
		"admin_id", cmd.AdminID,
		"permission", cmd.Permission,
	)
	return result, nil
}

func (u RevokePermissionUseCase) idempotencyTTL() time.Duration {
	if u.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return u.IdempotencyTTL
}

func (u RevokePermissionUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
