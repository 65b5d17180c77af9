package workers

import (
	"context"
	"log/slog"
	"time"

	application "crewdeck/contexts/identity-access/authorization-service/application"
	"crewdeck/contexts/identity-access/authorization-service/ports"
)

// AssignmentSweeper deactivates role assignments past their expiry so the
// matrix never serves permissions from stale rows between TTL refreshes.
type AssignmentSweeper struct {
	Repository      ports.Repository
	PermissionCache ports.PermissionCache
	Clock           ports.Clock
	Logger          *slog.Logger
}

func (s AssignmentSweeper) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(s.Logger)

	now := time.Now().UTC()
	if s.Clock != nil {
		now = s.Clock.Now().UTC()
	}

	userIDs, err := s.Repository.ExpireAssignments(ctx, now)
	if err != nil {
		logger.Error("assignment sweep failed",
			"event", "authz_assignment_sweep_failed",
			"module", "identity-access/authorization-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	for _, userID := range userIDs {
		if s.PermissionCache == nil {
			break
		}
		if err := s.PermissionCache.Invalidate(ctx, userID); err != nil {
			logger.Warn("cache invalidate failed during sweep",
				"event", "authz_cache_invalidation_failed",
				"module", "identity-access/authorization-service",
				"layer", "worker",
				"user_id", userID,
				"error", err.Error(),
			)
		}
	}

	if len(userIDs) > 0 {
		logger.Info("expired assignments swept",
			"event", "authz_assignment_sweep_completed",
			"module", "identity-access/authorization-service",
			"layer", "worker",
			"affected_users", len(userIDs),
		)
	}
	return nil
}
