package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/phrazzld/taskvault-api/internal/cache"
	"github.com/phrazzld/taskvault-api/internal/domain"
	"github.com/phrazzld/taskvault-api/internal/events"
	"github.com/phrazzld/taskvault-api/internal/platform/logger"
	"github.com/phrazzld/taskvault-api/internal/store"
)

// DefaultCacheTTL bounds how long a cache entry is trusted when no TTL is
// configured. The exact value is not load-bearing for correctness; every
// mutation invalidates eagerly and the TTL only caps staleness after a
// failed invalidation.
const DefaultCacheTTL = 5 * time.Minute

// CreateTaskInput carries the caller-supplied fields for a new task. The
// owner is passed separately because it comes from the authenticated
// identity, never from the request body.
type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     *time.Time
}

// TaskService orchestrates the task store and the cache. Reads are
// cache-aside: consult the cache, fall back to the store on a miss, and
// populate the cache with a bounded TTL. Writes go to the store first and
// invalidate (never refresh) the affected cache keys only after the store
// has acknowledged the write.
//
// All operations are owner-scoped: a task that exists but belongs to a
// different owner is reported as store.ErrTaskNotFound, indistinguishable
// from a missing one.
//
// Cache failures are never fatal. A failed read degrades to a miss, a
// failed population is skipped, and a failed invalidation is logged and
// emitted on the observability channel while the operation still reports
// success: correctness degrades to temporarily stale reads, never to data
// loss.
type TaskService interface {
	// Create validates the input, persists a new task owned by ownerID,
	// and invalidates the owner's cached collections.
	// Returns domain validation errors if the input is invalid.
	Create(ctx context.Context, ownerID uuid.UUID, input CreateTaskInput) (*domain.Task, error)

	// Get returns the task with the given id if it belongs to ownerID.
	// Returns store.ErrTaskNotFound otherwise. Store misses are never
	// cached (no negative caching).
	Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error)

	// List returns the owner's tasks matching the filter, ordered by due
	// date (tasks without one last), then creation time.
	List(ctx context.Context, ownerID uuid.UUID, filter store.TaskFilter) ([]*domain.Task, error)

	// Update applies a partial update to the task with the given id/owner
	// pair, then invalidates the task's identity key and the owner's
	// cached collections.
	// Returns store.ErrTaskNotFound or domain validation errors.
	Update(ctx context.Context, ownerID, id uuid.UUID, update store.TaskUpdate) (*domain.Task, error)

	// Delete removes the task with the given id/owner pair, then
	// invalidates the same keys as Update. Terminal: ids are never reused.
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

// TaskCacheConfig holds the caching knobs of the task service.
type TaskCacheConfig struct {
	// TTL bounds the lifetime of populated entries. Non-positive values
	// fall back to DefaultCacheTTL.
	TTL time.Duration

	// Codec selects the cache value encoding ("msgpack", "cbor", "json").
	// Empty selects msgpack.
	Codec string
}

// taskServiceImpl implements the TaskService interface.
type taskServiceImpl struct {
	tasks     store.TaskStore
	cache     cache.Cache
	emitter   events.EventEmitter
	ttl       time.Duration
	taskCodec cache.Codec[domain.Task]
	listCodec cache.Codec[[]*domain.Task]
	logger    *slog.Logger
}

// Ensure taskServiceImpl implements TaskService interface
var _ TaskService = (*taskServiceImpl)(nil)

// NewTaskService creates a new TaskService implementation.
// If logger is nil, a default logger will be used.
func NewTaskService(
	tasks store.TaskStore,
	c cache.Cache,
	emitter events.EventEmitter,
	cfg TaskCacheConfig,
	logger *slog.Logger,
) (TaskService, error) {
	if tasks == nil {
		panic("tasks store cannot be nil")
	}
	if c == nil {
		panic("cache cannot be nil")
	}
	if emitter == nil {
		panic("event emitter cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	taskCodec, err := cache.NewCodec[domain.Task](cfg.Codec)
	if err != nil {
		return nil, err
	}
	listCodec, err := cache.NewCodec[[]*domain.Task](cfg.Codec)
	if err != nil {
		return nil, err
	}

	return &taskServiceImpl{
		tasks:     tasks,
		cache:     c,
		emitter:   emitter,
		ttl:       ttl,
		taskCodec: taskCodec,
		listCodec: listCodec,
		logger:    logger.With(slog.String("component", "task_service")),
	}, nil
}

// Create implements TaskService.Create.
func (s *taskServiceImpl) Create(
	ctx context.Context,
	ownerID uuid.UUID,
	input CreateTaskInput,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Validation happens before any store call.
	task, err := domain.NewTask(ownerID, input.Title, input.Description, input.DueDate)
	if err != nil {
		log.Warn("task creation rejected by validation",
			slog.String("error", err.Error()),
			slog.String("user_id", ownerID.String()))
		s.emitValidationRejected(ctx, "create_task", err)
		return nil, err
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		if IsValidationError(err) {
			return nil, err
		}
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("user_id", ownerID.String()))
		return nil, NewServiceError("create_task", "failed to persist task", err)
	}

	// No pre-population: the next read fills the identity key lazily. Only
	// the owner's collection namespace must go, or a cached list would
	// keep missing the new task until it expired.
	s.invalidate(ctx, "create_task", cache.OwnerVersionKey(ownerID))

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", ownerID.String()))
	return task, nil
}

// Get implements TaskService.Get.
func (s *taskServiceImpl) Get(
	ctx context.Context,
	ownerID, id uuid.UUID,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	key := cache.TaskKey(id)

	if data, hit, err := s.cache.Get(ctx, key); err != nil {
		// Cache trouble degrades to a miss; the store remains the source
		// of truth.
		log.Warn("cache read failed, falling back to store",
			slog.String("key", key),
			slog.String("error", err.Error()))
	} else if hit {
		task, decErr := s.taskCodec.Decode(data)
		if decErr == nil {
			log.Debug("cache hit", slog.String("key", key))
			if task.UserID != ownerID {
				return nil, store.ErrTaskNotFound
			}
			return &task, nil
		}
		// An undecodable entry is dropped so the next read repopulates it.
		log.Warn("dropping undecodable cache entry",
			slog.String("key", key),
			slog.String("error", decErr.Error()))
		if delErr := s.cache.Delete(ctx, key); delErr != nil {
			log.Warn("failed to drop undecodable cache entry",
				slog.String("key", key),
				slog.String("error", delErr.Error()))
		}
	} else {
		log.Debug("cache miss", slog.String("key", key))
	}

	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Absence is never cached: repeated misses hit the store, a
			// deliberate trade-off against negative-caching staleness.
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task from store",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, NewServiceError("get_task", "failed to read task", err)
	}

	s.populate(ctx, key, func() ([]byte, error) { return s.taskCodec.Encode(*task) })

	if task.UserID != ownerID {
		return nil, store.ErrTaskNotFound
	}
	return task, nil
}

// List implements TaskService.List.
func (s *taskServiceImpl) List(
	ctx context.Context,
	ownerID uuid.UUID,
	filter store.TaskFilter,
) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	version, cacheable := s.collectionVersion(ctx, ownerID)
	var key string
	if cacheable {
		key = cache.CollectionKey(ownerID, version, filterParams(filter))

		if data, hit, err := s.cache.Get(ctx, key); err != nil {
			log.Warn("cache read failed, falling back to store",
				slog.String("key", key),
				slog.String("error", err.Error()))
			cacheable = false
		} else if hit {
			tasks, decErr := s.listCodec.Decode(data)
			if decErr == nil {
				log.Debug("cache hit", slog.String("key", key))
				return tasks, nil
			}
			log.Warn("dropping undecodable cache entry",
				slog.String("key", key),
				slog.String("error", decErr.Error()))
			if delErr := s.cache.Delete(ctx, key); delErr != nil {
				log.Warn("failed to drop undecodable cache entry",
					slog.String("key", key),
					slog.String("error", delErr.Error()))
			}
		} else {
			log.Debug("cache miss", slog.String("key", key))
		}
	}

	tasks, err := s.tasks.ListByOwner(ctx, ownerID, filter)
	if err != nil {
		log.Error("failed to list tasks from store",
			slog.String("error", err.Error()),
			slog.String("user_id", ownerID.String()))
		return nil, NewServiceError("list_tasks", "failed to list tasks", err)
	}

	if cacheable {
		s.populate(ctx, key, func() ([]byte, error) { return s.listCodec.Encode(tasks) })
	}
	return tasks, nil
}

// Update implements TaskService.Update.
func (s *taskServiceImpl) Update(
	ctx context.Context,
	ownerID, id uuid.UUID,
	update store.TaskUpdate,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Validation happens before any store call.
	if err := validateTaskUpdate(update); err != nil {
		log.Warn("task update rejected by validation",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		s.emitValidationRejected(ctx, "update_task", err)
		return nil, err
	}

	// Single authoritative write; the owner predicate lives in the store.
	task, err := s.tasks.Update(ctx, id, ownerID, update)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || IsValidationError(err) {
			return nil, err
		}
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, NewServiceError("update_task", "failed to update task", err)
	}

	// Invalidation strictly after the store acknowledged the write. Delete
	// rather than refresh: a refresh could race a concurrent writer and
	// repopulate the cache with superseded data.
	s.invalidate(ctx, "update_task", cache.TaskKey(id), cache.OwnerVersionKey(ownerID))

	log.Info("task updated",
		slog.String("task_id", id.String()),
		slog.String("user_id", ownerID.String()))
	return task, nil
}

// Delete implements TaskService.Delete.
func (s *taskServiceImpl) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.tasks.Delete(ctx, id, ownerID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return NewServiceError("delete_task", "failed to delete task", err)
	}

	s.invalidate(ctx, "delete_task", cache.TaskKey(id), cache.OwnerVersionKey(ownerID))

	log.Info("task deleted",
		slog.String("task_id", id.String()),
		slog.String("user_id", ownerID.String()))
	return nil
}

// collectionVersion returns the owner's collection namespace version,
// creating one when absent. The second return value reports whether the
// cache can be used at all for this listing; any cache failure here bypasses
// the cache for the current call.
//
// Two concurrent misses may each mint a version; the last Set wins and the
// loser's entries are orphaned until their TTL expires. That only wastes
// space, it never serves stale data.
func (s *taskServiceImpl) collectionVersion(
	ctx context.Context,
	ownerID uuid.UUID,
) (string, bool) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	verKey := cache.OwnerVersionKey(ownerID)

	data, hit, err := s.cache.Get(ctx, verKey)
	if err != nil {
		log.Warn("cache read failed for collection version, bypassing cache",
			slog.String("key", verKey),
			slog.String("error", err.Error()))
		return "", false
	}
	if hit {
		return string(data), true
	}

	version := cache.NewVersion()
	if err := s.cache.Set(ctx, verKey, []byte(version), s.ttl); err != nil {
		log.Warn("cache write failed for collection version, bypassing cache",
			slog.String("key", verKey),
			slog.String("error", err.Error()))
		return "", false
	}
	return version, true
}

// populate stores an encoded value under key with the configured TTL.
// Best effort: encoding or cache failures are logged and swallowed.
func (s *taskServiceImpl) populate(
	ctx context.Context,
	key string,
	encode func() ([]byte, error),
) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	data, err := encode()
	if err != nil {
		log.Warn("failed to encode cache entry",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return
	}

	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		log.Warn("failed to populate cache",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return
	}
	log.Debug("cache populated",
		slog.String("key", key),
		slog.Duration("ttl", s.ttl))
}

// invalidate deletes the given cache keys after a store write. Failures are
// logged and emitted on the observability channel but never propagated: the
// store write already succeeded, and the TTL bounds the resulting staleness.
func (s *taskServiceImpl) invalidate(ctx context.Context, operation string, keys ...string) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var failed []string
	var reason string
	for _, key := range keys {
		if err := s.cache.Delete(ctx, key); err != nil {
			log.Warn("cache invalidation failed",
				slog.String("key", key),
				slog.String("operation", operation),
				slog.String("error", err.Error()))
			failed = append(failed, key)
			if reason == "" {
				reason = err.Error()
			}
			continue
		}
		log.Debug("cache entry invalidated",
			slog.String("key", key),
			slog.String("operation", operation))
	}

	if len(failed) == 0 {
		return
	}

	event, err := events.NewEvent(events.EventCacheInvalidationFailed,
		events.CacheInvalidationFailedPayload{
			Operation: operation,
			Keys:      failed,
			Reason:    reason,
		})
	if err != nil {
		log.Warn("failed to build invalidation event", slog.String("error", err.Error()))
		return
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("failed to emit invalidation event", slog.String("error", err.Error()))
	}
}

// emitValidationRejected publishes a validation rejection on the
// observability channel. Fire-and-forget.
func (s *taskServiceImpl) emitValidationRejected(ctx context.Context, operation string, valErr error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	event, err := events.NewEvent(events.EventValidationRejected,
		events.ValidationRejectedPayload{
			Operation: operation,
			Reason:    valErr.Error(),
		})
	if err != nil {
		log.Warn("failed to build validation event", slog.String("error", err.Error()))
		return
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("failed to emit validation event", slog.String("error", err.Error()))
	}
}

// validateTaskUpdate applies the domain's title rules to a partial update
// before anything reaches the store.
func validateTaskUpdate(update store.TaskUpdate) error {
	if update.Title != nil {
		if strings.TrimSpace(*update.Title) == "" {
			return domain.ErrTaskTitleEmpty
		}
		if utf8.RuneCountInString(*update.Title) > domain.MaxTaskTitleLength {
			return domain.ErrTaskTitleTooLong
		}
	}
	return nil
}

// IsValidationError reports whether err is a business-rule validation
// failure, as opposed to a not-found or infrastructure error. The API layer
// maps these to HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, domain.ErrTaskTitleEmpty) ||
		errors.Is(err, domain.ErrTaskTitleTooLong) ||
		errors.Is(err, domain.ErrTaskDueDateInvalid) ||
		errors.Is(err, domain.ErrTaskUserIDEmpty) ||
		errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, store.ErrInvalidEntity)
}

// filterParams normalizes a task filter into canonical cache-key parameters.
// Timestamps collapse to RFC 3339 UTC so equivalent filters spelled
// differently derive the same collection key.
func filterParams(filter store.TaskFilter) map[string]string {
	params := make(map[string]string, 2)
	if filter.DueAfter != nil {
		params["due_after"] = cache.EncodeTimeParam(*filter.DueAfter)
	}
	if filter.DueBefore != nil {
		params["due_before"] = cache.EncodeTimeParam(*filter.DueBefore)
	}
	return params
}
