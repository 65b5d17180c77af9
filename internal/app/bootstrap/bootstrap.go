package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	authentication "crewdeck/contexts/identity-access/authentication-service"
	authnpostgres "crewdeck/contexts/identity-access/authentication-service/adapters/postgres"
	authorization "crewdeck/contexts/identity-access/authorization-service"
	authzevents "crewdeck/contexts/identity-access/authorization-service/adapters/events"
	authzmemory "crewdeck/contexts/identity-access/authorization-service/adapters/memory"
	authzpostgres "crewdeck/contexts/identity-access/authorization-service/adapters/postgres"
	authzqueries "crewdeck/contexts/identity-access/authorization-service/application/queries"
	authzworkers "crewdeck/contexts/identity-access/authorization-service/application/workers"
	attendance "crewdeck/contexts/workforce/attendance-service"
	attendancepostgres "crewdeck/contexts/workforce/attendance-service/adapters/postgres"
	attendanceworkers "crewdeck/contexts/workforce/attendance-service/application/workers"
	attendanceservices "crewdeck/contexts/workforce/attendance-service/domain/services"
	project "crewdeck/contexts/workspace/project-service"
	projectpostgres "crewdeck/contexts/workspace/project-service/adapters/postgres"
	projecterrors "crewdeck/contexts/workspace/project-service/domain/errors"
	projectports "crewdeck/contexts/workspace/project-service/ports"
	task "crewdeck/contexts/workspace/task-service"
	taskpostgres "crewdeck/contexts/workspace/task-service/adapters/postgres"
	"crewdeck/internal/platform/config"
	"crewdeck/internal/platform/db"
	"crewdeck/internal/platform/httpserver"
	"crewdeck/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so context code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres *db.Postgres
	bus      *messaging.Bus

	outboxRelay    authzworkers.OutboxRelay
	policyConsumer authzworkers.PolicyChangedConsumer
	sweeper        authzworkers.AssignmentSweeper
	autoCloser     attendanceworkers.AutoCloser

	enableAutoClose     bool
	enableSweeper       bool
	enablePolicyConsume bool

	logger *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if err := pg.Migrate(); err != nil {
		return nil, err
	}

	authnModule := authentication.NewModule(authentication.Dependencies{
		Repository:  authnpostgres.NewRepository(pg.DB, logger),
		Clock:       authnpostgres.SystemClock{},
		IDGenerator: authnpostgres.UUIDGenerator{},
		JWTSecret:   cfg.JWTSecret,
		TokenTTL:    cfg.JWTTTL,
		Logger:      logger,
	})

	bus := messaging.NewBus(logger)
	authzRepo := authzpostgres.NewRepository(pg.DB, logger)
	authzModule := authorization.NewModule(authorization.Dependencies{
		Repository:         authzRepo,
		Idempotency:        authzRepo,
		PermissionCache:    authzmemory.NewStore(),
		Outbox:             authzRepo,
		Dedup:              authzRepo,
		Publisher:          authzevents.NewPublisher(bus, logger),
		Clock:              authzpostgres.SystemClock{},
		IDGenerator:        authzpostgres.UUIDGenerator{},
		IdempotencyTTL:     cfg.IdempotencyTTL,
		PermissionCacheTTL: cfg.PermissionCacheTTL,
		BootstrapAdmins:    cfg.BootstrapAdminIDs,
		Logger:             logger,
	})

	projectRepo := projectpostgres.NewRepository(pg.DB, logger)
	projectModule := project.NewModule(project.Dependencies{
		Repository:  projectRepo,
		Clock:       projectpostgres.SystemClock{},
		IDGenerator: projectpostgres.UUIDGenerator{},
		Logger:      logger,
	})

	taskModule := task.NewModule(task.Dependencies{
		Repository:  taskpostgres.NewRepository(pg.DB, logger),
		Projects:    projectDirectory{repo: projectRepo},
		Clock:       taskpostgres.SystemClock{},
		IDGenerator: taskpostgres.UUIDGenerator{},
		Logger:      logger,
	})

	attendanceModule := attendance.NewModule(attendance.Dependencies{
		Repository:  attendancepostgres.NewRepository(pg.DB, logger),
		Permissions: permissionGate{check: authzModule.CheckPermission},
		Clock:       attendancepostgres.SystemClock{},
		IDGenerator: attendancepostgres.UUIDGenerator{},
		Workday:     workdayWindow(cfg),
		Logger:      logger,
	})

	server := httpserver.New(
		authnModule,
		authzModule,
		projectModule,
		taskModule,
		attendanceModule,
		logger,
		normalizeAddr(cfg.HTTPPort),
	)
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	bus := messaging.NewBus(logger)
	authzRepo := authzpostgres.NewRepository(pg.DB, logger)
	// Worker-local cache. The API process invalidates its own cache on
	// every grant and revoke, so consumer-side invalidation here only
	// covers entries this process wrote. Cross-process invalidation
	// needs a shared cache once events flow through an external broker.
	cache := authzmemory.NewStore()

	return &WorkerApp{
		postgres: pg,
		bus:      bus,
		outboxRelay: authzworkers.OutboxRelay{
			Outbox:    authzRepo,
			Publisher: authzevents.NewPublisher(bus, logger),
			Clock:     authzpostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		policyConsumer: authzworkers.PolicyChangedConsumer{
			Dedup:           authzRepo,
			PermissionCache: cache,
			Clock:           authzpostgres.SystemClock{},
			DedupTTL:        cfg.IdempotencyTTL,
		},
		sweeper: authzworkers.AssignmentSweeper{
			Repository:      authzRepo,
			PermissionCache: cache,
			Clock:           authzpostgres.SystemClock{},
			Logger:          logger,
		},
		autoCloser: attendanceworkers.AutoCloser{
			Repository: attendancepostgres.NewRepository(pg.DB, logger),
			Clock:      attendancepostgres.SystemClock{},
			Workday:    workdayWindow(cfg),
			Logger:     logger,
		},
		enableAutoClose:     cfg.EnableAutoClose,
		enableSweeper:       cfg.EnableAssignmentSweeper,
		enablePolicyConsume: cfg.EnablePolicyEventConsume,
		logger:              logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if w.enablePolicyConsume {
		err := w.bus.Subscribe(ctx, authzevents.TopicPolicyChanged, "crewdeck-policy-cg", w.policyConsumer.Handle)
		if err != nil {
			return err
		}
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@every 5s", w.runJob(ctx, "authz_outbox_relay", w.outboxRelay.RunOnce)); err != nil {
		return err
	}
	if w.enableSweeper {
		if _, err := scheduler.AddFunc("@daily", w.runJob(ctx, "assignment_sweeper", w.sweeper.RunOnce)); err != nil {
			return err
		}
	}
	if w.enableAutoClose {
		autoClose := func(ctx context.Context) error {
			_, err := w.autoCloser.RunOnce(ctx)
			return err
		}
		if _, err := scheduler.AddFunc("@every 15m", w.runJob(ctx, "attendance_auto_close", autoClose)); err != nil {
			return err
		}
	}

	scheduler.Start()
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"auto_close_enabled", w.enableAutoClose,
		"sweeper_enabled", w.enableSweeper,
		"policy_consumer_enabled", w.enablePolicyConsume,
	)

	<-ctx.Done()
	<-scheduler.Stop().Done()
	return nil
}

func (w *WorkerApp) runJob(ctx context.Context, name string, job func(context.Context) error) func() {
	return func() {
		if err := job(ctx); err != nil {
			w.logger.Error("scheduled job failed",
				"event", "bootstrap_job_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"job", name,
				"error", err.Error(),
			)
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

// projectDirectory answers the task context's project questions from the
// project repository without importing task code into the project context.
type projectDirectory struct {
	repo projectports.Repository
}

func (d projectDirectory) ProjectExists(ctx context.Context, projectID string) (bool, error) {
	_, _, err := d.repo.GetProject(ctx, projectID)
	if errors.Is(err, projecterrors.ErrProjectNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d projectDirectory) IsActiveMember(ctx context.Context, projectID string, userID string) (bool, error) {
	_, active, err := d.repo.CheckMembership(ctx, projectID, userID)
	if err != nil {
		return false, err
	}
	return active, nil
}

// permissionGate lets the attendance context ask the authorization module
// whether an actor carries a management permission.
type permissionGate struct {
	check authzqueries.CheckPermissionUseCase
}

func (g permissionGate) HasPermission(ctx context.Context, userID string, permission string) (bool, error) {
	decision, err := g.check.Execute(ctx, authzqueries.CheckPermissionQuery{
		UserID:     userID,
		Permission: permission,
	})
	if err != nil {
		return false, err
	}
	return decision.Allowed, nil
}

func workdayWindow(cfg config.Config) attendanceservices.WorkdayWindow {
	window := attendanceservices.WorkdayWindow{
		Start: time.Duration(cfg.WorkdayStartHour) * time.Hour,
		End:   time.Duration(cfg.WorkdayEndHour) * time.Hour,
	}
	if !window.IsValid() {
		return attendanceservices.DefaultWorkday
	}
	return window
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
