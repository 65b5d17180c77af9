package authorization

import (
	"context"
	"log/slog"
	"time"

	httpadapter "crewdeck/contexts/identity-access/authorization-service/adapters/http"
	"crewdeck/contexts/identity-access/authorization-service/adapters/memory"
	"crewdeck/contexts/identity-access/authorization-service/application/commands"
	"crewdeck/contexts/identity-access/authorization-service/application/queries"
	"crewdeck/contexts/identity-access/authorization-service/application/workers"
	"crewdeck/contexts/identity-access/authorization-service/ports"
)

// Module is the authorization-service composition root exposed to runtime wiring.
type Module struct {
	Handler           httpadapter.Handler
	CheckPermission   queries.CheckPermissionUseCase
	OutboxRelay       workers.OutboxRelay
	PolicyConsumer    workers.PolicyChangedConsumer
	AssignmentSweeper workers.AssignmentSweeper
	Store             *memory.Store
}

// Dependencies captures all runtime ports/config required by NewModule.
type Dependencies struct {
	Repository         ports.Repository
	Idempotency        ports.IdempotencyStore
	PermissionCache    ports.PermissionCache
	Outbox             ports.OutboxRepository
	Dedup              ports.EventDedupStore
	Publisher          ports.PolicyChangedPublisher
	Clock              ports.Clock
	IDGenerator        ports.IDGenerator
	IdempotencyTTL     time.Duration
	PermissionCacheTTL time.Duration
	// BootstrapAdmins are user ids allowed to grant and revoke before any
	// assignment exists, so a fresh database can be seeded over the API.
	BootstrapAdmins []string
	Logger          *slog.Logger
}

// NewModule wires use-cases, workers, and the transport handler using explicit ports.
func NewModule(deps Dependencies) Module {
	checkPermission := queries.CheckPermissionUseCase{
		Repository:         deps.Repository,
		PermissionCache:    deps.PermissionCache,
		Clock:              deps.Clock,
		PermissionCacheTTL: deps.PermissionCacheTTL,
		Logger:             deps.Logger,
	}
	checkBatch := queries.CheckPermissionsBatchUseCase{
		CheckPermission: checkPermission,
		Logger:          deps.Logger,
	}
	listRoles := queries.ListUserRolesUseCase{
		Repository: deps.Repository,
		Clock:      deps.Clock,
		Logger:     deps.Logger,
	}
	listPermissions := queries.ListPermissionsUseCase{
		Repository: deps.Repository,
		Clock:      deps.Clock,
	}
	grantRole := commands.GrantRoleUseCase{
		Repository:      deps.Repository,
		Idempotency:     deps.Idempotency,
		PermissionCache: deps.PermissionCache,
		Clock:           deps.Clock,
		IDGenerator:     deps.IDGenerator,
		IdempotencyTTL:  deps.IdempotencyTTL,
		BootstrapAdmins: deps.BootstrapAdmins,
		Logger:          deps.Logger,
	}
	revokeRole := commands.RevokeRoleUseCase{
		Repository:      deps.Repository,
		Idempotency:     deps.Idempotency,
		PermissionCache: deps.PermissionCache,
		Clock:           deps.Clock,
		IDGenerator:     deps.IDGenerator,
		IdempotencyTTL:  deps.IdempotencyTTL,
		BootstrapAdmins: deps.BootstrapAdmins,
		Logger:          deps.Logger,
	}
	grantPermission := commands.GrantPermissionUseCase{
		Repository:      deps.Repository,
		Idempotency:     deps.Idempotency,
		PermissionCache: deps.PermissionCache,
		Clock:           deps.Clock,
		IDGenerator:     deps.IDGenerator,
		IdempotencyTTL:  deps.IdempotencyTTL,
		BootstrapAdmins: deps.BootstrapAdmins,
		Logger:          deps.Logger,
	}
	revokePermission := commands.RevokePermissionUseCase{
		Repository:      deps.Repository,
		Idempotency:     deps.Idempotency,
		PermissionCache: deps.PermissionCache,
		Clock:           deps.Clock,
		IDGenerator:     deps.IDGenerator,
		IdempotencyTTL:  deps.IdempotencyTTL,
		BootstrapAdmins: deps.BootstrapAdmins,
		Logger:          deps.Logger,
	}

	handler := httpadapter.Handler{
		CheckPermission:  checkPermission,
		CheckBatch:       checkBatch,
		ListRoles:        listRoles,
		ListPermissions:  listPermissions,
		GrantRole:        grantRole,
		RevokeRole:       revokeRole,
		GrantPermission:  grantPermission,
		RevokePermission: revokePermission,
		Logger:           deps.Logger,
	}

	return Module{
		Handler:         handler,
		CheckPermission: checkPermission,
		OutboxRelay: workers.OutboxRelay{
			Outbox:    deps.Outbox,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		},
		PolicyConsumer: workers.PolicyChangedConsumer{
			Dedup:           deps.Dedup,
			PermissionCache: deps.PermissionCache,
			Clock:           deps.Clock,
		},
		AssignmentSweeper: workers.AssignmentSweeper{
			Repository:      deps.Repository,
			PermissionCache: deps.PermissionCache,
			Clock:           deps.Clock,
			Logger:          deps.Logger,
		},
	}
}

type nopPublisher struct{}

func (nopPublisher) PublishPolicyChanged(_ context.Context, _ ports.PolicyChangedEvent) error {
	return nil
}

// NewInMemoryModule builds a development/testing module with in-memory adapters.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repository:         store,
		Idempotency:        store,
		PermissionCache:    store,
		Outbox:             store,
		Dedup:              store,
		Publisher:          nopPublisher{},
		Clock:              store,
		IDGenerator:        store,
		IdempotencyTTL:     7 * 24 * time.Hour,
		PermissionCacheTTL: 5 * time.Minute,
		Logger:             logger,
	})
	module.Store = store
	return module
}
