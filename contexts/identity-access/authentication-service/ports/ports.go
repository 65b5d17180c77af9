package ports

import (
	"context"
	"time"

	"crewdeck/contexts/identity-access/authentication-service/domain/entities"
)

// Clock abstracts current time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID generation for new accounts.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// Repository is the persistence boundary for user accounts.
type Repository interface {
	CreateUser(ctx context.Context, user entities.User) error
	GetUserByEmail(ctx context.Context, email string) (entities.User, error)
	GetUserByID(ctx context.Context, userID string) (entities.User, error)
	UpdatePasswordHash(ctx context.Context, userID string, hash string, updatedAt time.Time) error
}
