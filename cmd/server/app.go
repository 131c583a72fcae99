package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskflow-api/internal/audit"
	"github.com/phrazzld/taskflow-api/internal/config"
	"github.com/phrazzld/taskflow-api/internal/notify"
	"github.com/phrazzld/taskflow-api/internal/platform/postgres"
	"github.com/phrazzld/taskflow-api/internal/redact"
	"github.com/phrazzld/taskflow-api/internal/service"
	"github.com/phrazzld/taskflow-api/internal/service/auth"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// stores groups the persistence dependencies of the application.
type stores struct {
	users store.UserStore
	tasks store.TaskStore
	audit store.AuditStore
}

// application holds the shared dependencies and owns their shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// db is nil when the application runs on non-SQL stores.
	db  *sql.DB
	bus notify.Bus

	dispatcher  *notify.Dispatcher
	userService service.UserService
	taskService service.TaskService
}

// bootstrap opens the database and the notification bus and builds the
// application on top of them.
func bootstrap(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	logger.Info("database connection established")

	bus, err := newBus(ctx, cfg.Notify, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	app, err := newApplication(cfg, logger, stores{
		users: postgres.NewPostgresUserStore(db, logger),
		tasks: postgres.NewPostgresTaskStore(db, logger),
		audit: postgres.NewPostgresAuditStore(db, logger),
	}, bus)
	if err != nil {
		_ = bus.Close()
		_ = db.Close()
		return nil, err
	}
	app.db = db
	return app, nil
}

// newBus selects the notification backend.
func newBus(ctx context.Context, cfg config.NotifyConfig, logger *slog.Logger) (notify.Bus, error) {
	switch cfg.Backend {
	case "redis":
		client, err := notify.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		logger.Info("notification bus ready", "backend", "redis")
		return notify.NewRedisBus(client, logger), nil
	default:
		logger.Info("notification bus ready", "backend", "memory")
		return notify.NewHub(logger), nil
	}
}

// newApplication wires services over the given stores and bus. It does not
// start any goroutines; Run does.
func newApplication(cfg *config.Config, logger *slog.Logger, s stores, bus notify.Bus) (*application, error) {
	tokens, err := auth.NewTokenService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)

	trail := audit.NewTrail(s.audit, logger)
	dispatcher := notify.NewDispatcher(bus, notify.DispatcherConfig{
		QueueSize:   cfg.Notify.QueueSize,
		WorkerCount: cfg.Notify.WorkerCount,
	}, logger)

	app := &application{
		config:     cfg,
		logger:     logger,
		bus:        bus,
		dispatcher: dispatcher,
		userService: service.NewUserService(s.users, hasher, tokens, trail, service.UserServiceConfig{
			RegisterTokenTTL: time.Duration(cfg.Auth.RegisterTokenLifetimeMinutes) * time.Minute,
			LoginTokenTTL:    time.Duration(cfg.Auth.LoginTokenLifetimeMinutes) * time.Minute,
		}, logger),
		taskService: service.NewTaskService(s.tasks, s.users, trail, dispatcher, logger),
	}

	logger.Info("application initialized")
	return app, nil
}

// cleanup drains pending notifications and releases the bus and database.
func (app *application) cleanup(ctx context.Context) {
	if err := app.dispatcher.Stop(ctx); err != nil {
		app.logger.Warn("notification dispatcher did not drain", "error", err)
	}
	if err := app.bus.Close(); err != nil {
		app.logger.Error("failed to close notification bus", "error", redact.Error(err))
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database connection", "error", redact.Error(err))
		}
	}
	app.logger.Info("application shutdown completed")
}
