package queries

import (
	"context"
	"sort"
	"strings"
	"time"

	domainerrors "crewdeck/contexts/identity-access/authorization-service/domain/errors"
	"crewdeck/contexts/identity-access/authorization-service/ports"
)

// ListPermissionsUseCase returns the resolved permission set for a user.
type ListPermissionsUseCase struct {
	Repository ports.Repository
	Clock      ports.Clock
}

func (u ListPermissionsUseCase) Execute(ctx context.Context, userID string) ([]string, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domainerrors.ErrInvalidUserID
	}
	permissions, err := u.Repository.ListEffectivePermissions(ctx, userID, u.now())
	if err != nil {
		return nil, err
	}
	sort.Strings(permissions)
	return permissions, nil
}

func (u ListPermissionsUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
