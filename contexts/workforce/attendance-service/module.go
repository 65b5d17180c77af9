package attendance

import (
	"log/slog"

	httpadapter "crewdeck/contexts/workforce/attendance-service/adapters/http"
	"crewdeck/contexts/workforce/attendance-service/adapters/memory"
	"crewdeck/contexts/workforce/attendance-service/application"
	"crewdeck/contexts/workforce/attendance-service/application/workers"
	"crewdeck/contexts/workforce/attendance-service/domain/services"
	"crewdeck/contexts/workforce/attendance-service/ports"
)

// Module is the attendance-service composition root exposed to runtime
// wiring.
type Module struct {
	Handler    httpadapter.Handler
	Service    application.Service
	AutoCloser workers.AutoCloser
	Store      *memory.Store
}

// Dependencies captures all runtime ports/config required by NewModule.
type Dependencies struct {
	Repository  ports.Repository
	Permissions ports.PermissionChecker
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Workday     services.WorkdayWindow
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:        deps.Repository,
		Permissions: deps.Permissions,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		Workday:     deps.Workday,
		Logger:      deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
		AutoCloser: workers.AutoCloser{
			Repository: deps.Repository,
			Clock:      deps.Clock,
			Workday:    deps.Workday,
			Logger:     deps.Logger,
		},
	}
}

// NewInMemoryModule builds a development/testing module with in-memory
// adapters. Seed managers on the store to exercise the manage paths.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repository:  store,
		Permissions: store,
		Clock:       store,
		IDGenerator: store,
		Workday:     services.DefaultWorkday,
		Logger:      logger,
	})
	module.Store = store
	return module
}
