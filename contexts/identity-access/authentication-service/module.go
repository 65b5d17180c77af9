package authentication

import (
	"log/slog"
	"time"

	httpadapter "crewdeck/contexts/identity-access/authentication-service/adapters/http"
	"crewdeck/contexts/identity-access/authentication-service/adapters/memory"
	"crewdeck/contexts/identity-access/authentication-service/application"
	"crewdeck/contexts/identity-access/authentication-service/ports"
)

// Module is the authentication-service composition root exposed to runtime wiring.
type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

// Dependencies captures all runtime ports/config required by NewModule.
type Dependencies struct {
	Repository  ports.Repository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	JWTSecret   string
	TokenTTL    time.Duration
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:        deps.Repository,
		Clock:       deps.Clock,
		IDGenerator: deps.IDGenerator,
		SecretKey:   deps.JWTSecret,
		TokenTTL:    deps.TokenTTL,
		Logger:      deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
	}
}

// NewInMemoryModule builds a development/testing module with in-memory adapters.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repository:  store,
		Clock:       store,
		IDGenerator: store,
		JWTSecret:   "test-secret",
		TokenTTL:    24 * time.Hour,
		Logger:      logger,
	})
	module.Store = store
	return module
}
