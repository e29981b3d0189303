package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskvault-api/internal/domain"
)

// TaskFilter narrows a task listing to a due-date range. Both bounds are
// optional and inclusive; nil means unbounded on that side. Times are
// compared in UTC.
type TaskFilter struct {
	DueAfter  *time.Time
	DueBefore *time.Time
}

// TaskUpdate describes a partial update to a task. Nil fields are left
// unchanged. ClearDueDate removes the due date and takes precedence over
// DueDate when both are set.
type TaskUpdate struct {
	Title        *string
	Description  *string
	DueDate      *time.Time
	ClearDueDate bool
}

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task to the store and assigns its ID.
	// The task's ID field is populated on success.
	// Returns validation errors from the domain Task if data is invalid.
	// Returns ErrInvalidEntity if the owner does not exist (foreign key violation).
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID, regardless of owner.
	// Ownership checks belong to the caller; this keeps the lookup
	// symmetric with the cache path, which also stores tasks by ID alone.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// ListByOwner retrieves all tasks owned by the given user that match
	// the filter, ordered by due date (tasks without a due date last),
	// then creation time, then ID. Returns an empty slice when nothing
	// matches.
	ListByOwner(ctx context.Context, ownerID uuid.UUID, filter TaskFilter) ([]*domain.Task, error)

	// Update applies a partial update to the task with the given id/owner
	// pair in a single authoritative statement and returns the updated row.
	// Returns ErrTaskNotFound if no task matches the pair: a task owned by
	// someone else is indistinguishable from a missing one.
	Update(ctx context.Context, id, ownerID uuid.UUID, update TaskUpdate) (*domain.Task, error)

	// Delete removes the task with the given id/owner pair.
	// Returns ErrTaskNotFound if no task matches the pair.
	// This operation is permanent and cannot be undone.
	Delete(ctx context.Context, id, ownerID uuid.UUID) error

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) TaskStore
}
