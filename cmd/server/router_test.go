package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/taskvault-api/internal/config"
	"github.com/phrazzld/taskvault-api/internal/domain"
	"github.com/phrazzld/taskvault-api/internal/service"
	"github.com/phrazzld/taskvault-api/internal/service/auth"
	"github.com/phrazzld/taskvault-api/internal/store"
)

// Minimal stub dependencies: the router tests only exercise routing and the
// authentication gate, not the handlers behind it.

type stubUserStore struct{}

func (s *stubUserStore) Create(ctx context.Context, user *domain.User) error { return nil }
func (s *stubUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return nil, store.ErrUserNotFound
}
func (s *stubUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return nil, store.ErrUserNotFound
}
func (s *stubUserStore) Update(ctx context.Context, user *domain.User) error { return nil }
func (s *stubUserStore) Delete(ctx context.Context, id uuid.UUID) error      { return nil }
func (s *stubUserStore) WithTx(tx *sql.Tx) store.UserStore                   { return s }

type stubJWTService struct{}

func (s *stubJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return "token", nil
}
func (s *stubJWTService) GenerateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return "refresh", nil
}
func (s *stubJWTService) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	return nil, auth.ErrInvalidToken
}
func (s *stubJWTService) ValidateRefreshToken(ctx context.Context, token string) (*auth.Claims, error) {
	return nil, auth.ErrInvalidRefreshToken
}

type stubTaskService struct{}

func (s *stubTaskService) Create(ctx context.Context, ownerID uuid.UUID, input service.CreateTaskInput) (*domain.Task, error) {
	return nil, store.ErrTaskNotFound
}
func (s *stubTaskService) Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error) {
	return nil, store.ErrTaskNotFound
}
func (s *stubTaskService) List(ctx context.Context, ownerID uuid.UUID, filter store.TaskFilter) ([]*domain.Task, error) {
	return nil, nil
}
func (s *stubTaskService) Update(ctx context.Context, ownerID, id uuid.UUID, update store.TaskUpdate) (*domain.Task, error) {
	return nil, store.ErrTaskNotFound
}
func (s *stubTaskService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return store.ErrTaskNotFound
}

func newTestApplication() *application {
	return &application{
		config: &config.Config{
			Server: config.ServerConfig{Port: 8080, LogLevel: "error"},
			Auth:   config.AuthConfig{TokenLifetimeMinutes: 15},
		},
		logger:           slog.Default(),
		userStore:        &stubUserStore{},
		jwtService:       &stubJWTService{},
		passwordVerifier: auth.NewBcryptVerifier(),
		taskService:      &stubTaskService{},
	}
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestApplication().setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestRouterProtectedRoutesRequireAuth(t *testing.T) {
	router := newTestApplication().setupRouter()

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/tasks"},
		{http.MethodGet, "/api/tasks"},
		{http.MethodGet, "/api/tasks/" + uuid.NewString()},
		{http.MethodPut, "/api/tasks/" + uuid.NewString()},
		{http.MethodPatch, "/api/tasks/" + uuid.NewString()},
		{http.MethodDelete, "/api/tasks/" + uuid.NewString()},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			req := httptest.NewRequest(route.method, route.path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRouterPublicAuthRoutes(t *testing.T) {
	router := newTestApplication().setupRouter()

	// A malformed body reaches the handler (400), proving the route is not
	// behind the authentication gate.
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
