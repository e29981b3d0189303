package postgres_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/phrazzld/taskvault-api/internal/domain"
	"github.com/phrazzld/taskvault-api/internal/platform/postgres"
	"github.com/phrazzld/taskvault-api/internal/store"
)

// openTestDB connects to the database named by DATABASE_URL and brings the
// schema up to date. Tests calling it are skipped when the variable is unset,
// so the suite stays runnable without infrastructure.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set; skipping database integration test")
	}

	db, err := sql.Open("pgx", url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, db.PingContext(ctx))

	goose.SetBaseFS(postgres.MigrationsFS)
	require.NoError(t, goose.SetDialect("postgres"))
	require.NoError(t, goose.Up(db, postgres.MigrationsDir))

	return db
}

// withRollback runs fn against stores bound to a transaction that is always
// rolled back, so integration tests leave no rows behind.
func withRollback(
	t *testing.T,
	db *sql.DB,
	fn func(ctx context.Context, users store.UserStore, tasks store.TaskStore),
) {
	t.Helper()

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	users := postgres.NewPostgresUserStore(db, bcrypt.MinCost, nil).WithTx(tx)
	tasks := postgres.NewPostgresTaskStore(db, nil).WithTx(tx)
	fn(ctx, users, tasks)
}

func newIntegrationUser(t *testing.T, ctx context.Context, users store.UserStore) *domain.User {
	t.Helper()

	user, err := domain.NewUser(uuid.NewString()+"@example.com", "integration test password")
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, user))
	return user
}

func TestTaskStoreLifecycle_Integration(t *testing.T) {
	db := openTestDB(t)

	withRollback(t, db, func(ctx context.Context, users store.UserStore, tasks store.TaskStore) {
		owner := newIntegrationUser(t, ctx, users)

		due := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
		task, err := domain.NewTask(owner.ID, "write quarterly report", "draft plus figures", &due)
		require.NoError(t, err)

		// Create assigns the ID.
		require.NoError(t, tasks.Create(ctx, task))
		require.NotEqual(t, uuid.Nil, task.ID)

		// Read back by identity.
		got, err := tasks.GetByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, task.ID, got.ID)
		assert.Equal(t, owner.ID, got.UserID)
		assert.Equal(t, "write quarterly report", got.Title)
		require.NotNil(t, got.DueDate)
		assert.True(t, got.DueDate.Equal(due))

		// Listing with a range that includes the due date finds it; a range
		// that excludes it does not.
		after := due.Add(-time.Hour)
		listed, err := tasks.ListByOwner(ctx, owner.ID, store.TaskFilter{DueAfter: &after})
		require.NoError(t, err)
		require.Len(t, listed, 1)

		before := due.Add(-time.Hour)
		listed, err = tasks.ListByOwner(ctx, owner.ID, store.TaskFilter{DueBefore: &before})
		require.NoError(t, err)
		assert.Empty(t, listed)

		// Partial update replaces only the provided fields.
		title := "write quarterly report (final)"
		updated, err := tasks.Update(ctx, task.ID, owner.ID, store.TaskUpdate{
			Title:        &title,
			ClearDueDate: true,
		})
		require.NoError(t, err)
		assert.Equal(t, title, updated.Title)
		assert.Equal(t, "draft plus figures", updated.Description)
		assert.Nil(t, updated.DueDate)
		assert.True(t, updated.UpdatedAt.After(task.UpdatedAt) || updated.UpdatedAt.Equal(task.UpdatedAt))

		// A foreign owner cannot see, update, or delete the task.
		stranger := newIntegrationUser(t, ctx, users)
		_, err = tasks.Update(ctx, task.ID, stranger.ID, store.TaskUpdate{Title: &title})
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
		assert.ErrorIs(t, tasks.Delete(ctx, task.ID, stranger.ID), store.ErrTaskNotFound)

		// Delete is terminal.
		require.NoError(t, tasks.Delete(ctx, task.ID, owner.ID))
		_, err = tasks.GetByID(ctx, task.ID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})
}

func TestTaskStoreCreate_UnknownOwner_Integration(t *testing.T) {
	db := openTestDB(t)

	withRollback(t, db, func(ctx context.Context, _ store.UserStore, tasks store.TaskStore) {
		task, err := domain.NewTask(uuid.New(), "orphan task", "", nil)
		require.NoError(t, err)

		err = tasks.Create(ctx, task)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})
}

func TestUserStoreLifecycle_Integration(t *testing.T) {
	db := openTestDB(t)

	withRollback(t, db, func(ctx context.Context, users store.UserStore, _ store.TaskStore) {
		user := newIntegrationUser(t, ctx, users)

		// Plaintext is hashed and cleared on the way in.
		assert.Empty(t, user.Password)
		assert.NotEmpty(t, user.HashedPassword)

		got, err := users.GetByEmail(ctx, user.Email)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)

		// A second registration with the same email is rejected.
		dup, err := domain.NewUser(user.Email, "another valid password")
		require.NoError(t, err)
		assert.ErrorIs(t, users.Create(ctx, dup), store.ErrEmailExists)

		require.NoError(t, users.Delete(ctx, user.ID))
		_, err = users.GetByID(ctx, user.ID)
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})
}
