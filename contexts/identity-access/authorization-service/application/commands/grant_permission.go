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

// GrantPermissionCommand creates a direct user-to-permission edge.
// This is the user-ID-based arm of the permission matrix.
type GrantPermissionCommand struct {
	IdempotencyKey string
	UserID         string
	Permission     string
	AdminID        string
	Reason         string
}

type GrantPermissionResult struct {
	Grant      entities.UserGrant `json:"grant"`
	AuditLogID string             `json:"audit_log_id"`
	Replayed   bool               `json:"replayed"`
}

type GrantPermissionUseCase struct {
	Repository      ports.Repository
	Idempotency     ports.IdempotencyStore
	PermissionCache ports.PermissionCache
	Clock           ports.Clock
	IDGenerator     ports.IDGenerator
	IdempotencyTTL  time.Duration
	BootstrapAdmins []string
	Logger          *slog.Logger
}

func (u GrantPermissionUseCase) Execute(ctx context.Context, cmd GrantPermissionCommand) (GrantPermissionResult, error) {
	logger := application.ResolveLogger(u.Logger)

	if strings.TrimSpace(cmd.IdempotencyKey) == "" {
		return GrantPermissionResult{}, domainerrors.ErrIdempotencyKeyRequired
	}
	if strings.TrimSpace(cmd.UserID) == "" {
		return GrantPermissionResult{}, domainerrors.ErrInvalidUserID
	}
	if strings.TrimSpace(cmd.Permission) == "" {
		return GrantPermissionResult{}, domainerrors.ErrInvalidPermission
	}
	if strings.TrimSpace(cmd.AdminID) == "" {
		return GrantPermissionResult{}, domainerrors.ErrInvalidAdminID
	}

	requestHash, err := hashRequest(struct {
		UserID     string `json:"user_id"`
		Permission string `json:"permission"`
		AdminID    string `json:"admin_id"`
		Reason     string `json:"reason"`
	}{cmd.UserID, cmd.Permission, cmd.AdminID, cmd.Reason})
	if err != nil {
		return GrantPermissionResult{}, err
	}

	idempotencyKey := "authz_idempotency:" + cmd.IdempotencyKey
	now := u.now()

	existing, found, err := u.Idempotency.GetRecord(ctx, idempotencyKey, now)
	if err != nil {
		return GrantPermissionResult{}, err
	}
	if found {
		if existing.RequestHash != requestHash {
			return GrantPermissionResult{}, domainerrors.ErrIdempotencyConflict
		}
		var replay GrantPermissionResult
		if err := json.Unmarshal(existing.ResponsePayload, &replay); err != nil {
			return GrantPermissionResult{}, err
		}
		replay.Replayed = true
		return replay, nil
	}

	if err := ensureActorPermission(ctx, u.Repository, u.BootstrapAdmins, cmd.AdminID, "permission.grant", now); err != nil {
		return GrantPermissionResult{}, err
	}

	grantID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return GrantPermissionResult{}, err
	}
	auditLogID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return GrantPermissionResult{}, err
	}
	outboxID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return GrantPermissionResult{}, err
	}

	mutation, err := u.Repository.GrantPermission(ctx, ports.GrantPermissionInput{
		GrantID:    grantID,
		AuditLogID: auditLogID,
		OutboxID:   outboxID,
		UserID:     cmd.UserID,
		Permission: cmd.Permission,
		AdminID:    cmd.AdminID,
		Reason:     cmd.Reason,
		GrantedAt:  now,
	})
	if err != nil {
		logger.Error("grant permission write failed",
			"event", "authz_grant_permission_write_failed",
			"module", "identity-access/authorization-service",
			"layer", "application",
			"user_id", cmd.UserID,
			"permission", cmd.Permission,
			"error", err.Error(),
		)
		return GrantPermissionResult{}, err
	}

	if u.PermissionCache != nil {
		if err := u.PermissionCache.Invalidate(ctx, cmd.UserID); err != nil {
			logger.Warn("permission cache invalidate failed after grant",
				"event", "authz_cache_invalidation_failed",
				"module", "identity-access/authorization-service",
				"layer", "application",
				"user_id", cmd.UserID,
				"error", err.Error(),
			)
		}
	}

	result := GrantPermissionResult{
		Grant:      mutation.Grant,
		AuditLogID: mutation.AuditLogID,
	}
	responsePayload, err := json.Marshal(result)
	if err != nil {
		return GrantPermissionResult{}, err
	}
	if err := u.Idempotency.PutRecord(ctx, ports.IdempotencyRecord{
		Key:             idempotencyKey,
		Operation:       "grant_permission",
		RequestHash:     requestHash,
		ResponsePayload: responsePayload,
		ExpiresAt:       now.Add(u.idempotencyTTL()),
	}); err != nil {
		return GrantPermissionResult{}, err
	}

	logger.Info("grant permission completed",
		"event", "authz_grant_permission_completed",
		"module", "identity-access/authorization-service",
		"layer", "application",
		"user_id", cmd.UserID,
		"admin_id", cmd.AdminID,
		"permission", cmd.Permission,
	)
	return result, nil
}

func (u GrantPermissionUseCase) idempotencyTTL() time.Duration {
	if u.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return u.IdempotencyTTL
}

func (u GrantPermissionUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
