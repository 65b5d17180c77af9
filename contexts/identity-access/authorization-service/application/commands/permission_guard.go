package commands

import (
	"context"
	"time"

	domainerrors "crewdeck/contexts/identity-access/authorization-service/domain/errors"
	"crewdeck/contexts/identity-access/authorization-service/domain/services"
	"crewdeck/contexts/identity-access/authorization-service/ports"
)

// ensureActorPermission checks that the acting user may perform the
// grant or revoke. Actors named in bootstrapAdmins bypass the stored
// policy so a freshly migrated database can receive its first role
// assignment; operators set the list from deployment config.
func ensureActorPermission(
	ctx context.Context,
	repository ports.Repository,
	bootstrapAdmins []string,
	actorID string,
	permission string,
	now time.Time,
) error {
	if isBootstrapAdmin(bootstrapAdmins, actorID) {
		return nil
	}
	permissions, err := repository.ListEffectivePermissions(ctx, actorID, now)
	if err != nil {
		return err
	}
	if !services.GrantsPermission(permissions, permission) {
		return domainerrors.ErrForbidden
	}
	return nil
}

func isBootstrapAdmin(bootstrapAdmins []string, actorID string) bool {
	if actorID == "" {
		return false
	}
	for _, admin := range bootstrapAdmins {
		if admin == actorID {
			return true
		}
	}
	return false
}
