package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/taskvault-api/internal/domain"
	"github.com/phrazzld/taskvault-api/internal/platform/logger"
	"github.com/phrazzld/taskvault-api/internal/store"
)

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// taskColumns is the column list shared by every task query so that
// scanTask stays in sync with what the queries select.
const taskColumns = "id, user_id, title, description, due_date, created_at, updated_at"

// Create implements store.TaskStore.Create
// It validates the task, assigns its ID, and saves it to the database.
// Returns validation errors from the domain Task if data is invalid.
// Returns store.ErrInvalidEntity if the owner doesn't exist (foreign key violation).
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("user_id", task.UserID.String()))
		return err
	}

	// The store owns ID assignment: tasks arrive here without one.
	task.ID = uuid.New()

	query := `
		INSERT INTO tasks (id, user_id, title, description, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		nullableTime(task.DueDate),
		task.CreatedAt,
		task.UpdatedAt,
	)

	if err != nil {
		task.ID = uuid.Nil

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolationCode {
			log.Warn("foreign key violation during task creation",
				slog.String("error", err.Error()),
				slog.String("user_id", task.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, task.UserID)
		}

		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("user_id", task.UserID.String()))
		return err
	}

	log.Info("task created successfully",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", task.UserID.String()))
	return nil
}

// GetByID implements store.TaskStore.GetByID
// It retrieves a task by its unique ID, regardless of owner.
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving task by ID", slog.String("task_id", id.String()))

	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE id = $1
	`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, err
	}

	log.Debug("task retrieved successfully", slog.String("task_id", id.String()))
	return task, nil
}

// ListByOwner implements store.TaskStore.ListByOwner
// It retrieves all tasks owned by the given user that fall inside the
// filter's due-date range, ordered by due date (tasks without one last),
// then creation time, then ID.
// Returns an empty slice if no tasks match the criteria.
func (s *PostgresTaskStore) ListByOwner(
	ctx context.Context,
	ownerID uuid.UUID,
	filter store.TaskFilter,
) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("listing tasks by owner",
		slog.String("user_id", ownerID.String()),
		slog.Bool("due_after_set", filter.DueAfter != nil),
		slog.Bool("due_before_set", filter.DueBefore != nil))

	var sb strings.Builder
	sb.WriteString("SELECT " + taskColumns + " FROM tasks WHERE user_id = $1")
	args := []any{ownerID}

	if filter.DueAfter != nil {
		args = append(args, filter.DueAfter.UTC())
		fmt.Fprintf(&sb, " AND due_date >= $%d", len(args))
	}
	if filter.DueBefore != nil {
		args = append(args, filter.DueBefore.UTC())
		fmt.Fprintf(&sb, " AND due_date <= $%d", len(args))
	}

	sb.WriteString(" ORDER BY due_date ASC NULLS LAST, created_at ASC, id ASC")

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		log.Error("failed to query tasks by owner",
			slog.String("error", err.Error()),
			slog.String("user_id", ownerID.String()))
		return nil, err
	}
	defer func() {
		err := rows.Close()
		if err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row",
				slog.String("error", err.Error()))
			return nil, err
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	// Return empty slice instead of nil if no tasks found
	if tasks == nil {
		tasks = []*domain.Task{}
	}

	log.Debug("listed tasks by owner",
		slog.String("user_id", ownerID.String()),
		slog.Int("count", len(tasks)))
	return tasks, nil
}

// Update implements store.TaskStore.Update
// It applies a partial update to the task matching the id/owner pair in a
// single statement and returns the updated row.
// Returns store.ErrTaskNotFound if no task matches the pair.
// Returns validation errors if a provided field is invalid.
func (s *PostgresTaskStore) Update(
	ctx context.Context,
	id, ownerID uuid.UUID,
	update store.TaskUpdate,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("updating task",
		slog.String("task_id", id.String()),
		slog.String("user_id", ownerID.String()))

	if update.Title != nil {
		if strings.TrimSpace(*update.Title) == "" {
			log.Warn("task validation failed during update",
				slog.String("error", domain.ErrTaskTitleEmpty.Error()),
				slog.String("task_id", id.String()))
			return nil, domain.ErrTaskTitleEmpty
		}
		if utf8.RuneCountInString(*update.Title) > domain.MaxTaskTitleLength {
			log.Warn("task validation failed during update",
				slog.String("error", domain.ErrTaskTitleTooLong.Error()),
				slog.String("task_id", id.String()))
			return nil, domain.ErrTaskTitleTooLong
		}
	}

	updatedAt := time.Now().UTC()

	// Single statement: unset fields keep their stored values, and the
	// owner predicate makes a foreign task look exactly like a missing one.
	query := `
		UPDATE tasks
		SET title       = COALESCE($3, title),
		    description = COALESCE($4, description),
		    due_date    = CASE WHEN $5 THEN NULL ELSE COALESCE($6, due_date) END,
		    updated_at  = $7
		WHERE id = $1 AND user_id = $2
		RETURNING ` + taskColumns

	task, err := scanTask(s.db.QueryRowContext(
		ctx,
		query,
		id,
		ownerID,
		nullableString(update.Title),
		nullableString(update.Description),
		update.ClearDueDate,
		nullableTime(update.DueDate),
		updatedAt,
	))

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found for update",
				slog.String("task_id", id.String()),
				slog.String("user_id", ownerID.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, err
	}

	log.Info("task updated successfully",
		slog.String("task_id", id.String()),
		slog.String("user_id", ownerID.String()))
	return task, nil
}

// Delete implements store.TaskStore.Delete
// It removes the task matching the id/owner pair.
// Returns store.ErrTaskNotFound if no task matches the pair.
func (s *PostgresTaskStore) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("deleting task",
		slog.String("task_id", id.String()),
		slog.String("user_id", ownerID.String()))

	query := `
		DELETE FROM tasks
		WHERE id = $1 AND user_id = $2
	`

	result, err := s.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("task not found for delete",
			slog.String("task_id", id.String()),
			slog.String("user_id", ownerID.String()))
		return store.ErrTaskNotFound
	}

	log.Info("task deleted successfully",
		slog.String("task_id", id.String()),
		slog.String("user_id", ownerID.String()))
	return nil
}

// WithTx implements store.TaskStore.WithTx
// It returns a new TaskStore that runs all operations on the given transaction.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask reads one task row, converting the nullable due_date column
// into the domain's *time.Time representation (always UTC).
func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var dueDate sql.NullTime

	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&dueDate,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if dueDate.Valid {
		utc := dueDate.Time.UTC()
		task.DueDate = &utc
	}

	return &task, nil
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
