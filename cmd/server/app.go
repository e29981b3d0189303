package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskvault-api/internal/cache"
	"github.com/phrazzld/taskvault-api/internal/config"
	"github.com/phrazzld/taskvault-api/internal/events"
	"github.com/phrazzld/taskvault-api/internal/platform/memcache"
	"github.com/phrazzld/taskvault-api/internal/platform/postgres"
	"github.com/phrazzld/taskvault-api/internal/platform/redis"
	"github.com/phrazzld/taskvault-api/internal/service"
	"github.com/phrazzld/taskvault-api/internal/service/auth"
	"github.com/phrazzld/taskvault-api/internal/store"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	cache  cache.Cache

	// Stores (using interfaces for proper abstraction)
	userStore store.UserStore
	taskStore store.TaskStore

	// Service interfaces
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	taskService      service.TaskService

	// Event system
	eventEmitter events.EventEmitter
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger, and
// database connection that must be established before application
// initialization.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.passwordVerifier = auth.NewBcryptVerifier()

	app.userStore = postgres.NewPostgresUserStore(db, cfg.Auth.BCryptCost, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)

	app.cache, err = setupCache(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	logger.Info("Cache initialized",
		"backend", cfg.Cache.Backend,
		"ttl_seconds", cfg.Cache.TTLSeconds)

	// The emitter carries cache-invalidation failures and validation
	// rejections; the logging handler is the default sink.
	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(events.NewLoggingEventHandler(logger))
	app.eventEmitter = emitter

	app.taskService, err = service.NewTaskService(
		app.taskStore,
		app.cache,
		app.eventEmitter,
		service.TaskCacheConfig{
			TTL:   time.Duration(cfg.Cache.TTLSeconds) * time.Second,
			Codec: cfg.Cache.Codec,
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// setupCache builds the configured cache backend.
func setupCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case "redis":
		return redis.New(ctx, redis.Config{
			Addr:         cfg.Cache.RedisAddr,
			Password:     cfg.Cache.RedisPassword,
			DB:           cfg.Cache.RedisDB,
			DialTimeout:  time.Duration(cfg.Cache.DialTimeoutMs) * time.Millisecond,
			ReadTimeout:  time.Duration(cfg.Cache.ReadTimeoutMs) * time.Millisecond,
			WriteTimeout: time.Duration(cfg.Cache.WriteTimeoutMs) * time.Millisecond,
		}, logger)
	case "memory":
		return memcache.New(ctx, memcache.Config{
			LifeWindow:         time.Duration(cfg.Cache.TTLSeconds) * time.Second,
			CleanWindow:        time.Minute,
			HardMaxCacheSizeMB: cfg.Cache.MemoryMaxSizeMB,
		})
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.cache != nil {
		if err := app.cache.Close(); err != nil {
			app.logger.Error("Error closing cache", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
