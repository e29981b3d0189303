package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/taskvault-api/internal/api/shared"
	"github.com/phrazzld/taskvault-api/internal/domain"
	"github.com/phrazzld/taskvault-api/internal/platform/logger"
	"github.com/phrazzld/taskvault-api/internal/redact"
	"github.com/phrazzld/taskvault-api/internal/service"
	"github.com/phrazzld/taskvault-api/internal/store"
)

// TaskResponse represents the response data for a task. The due date is an
// RFC 3339 UTC timestamp, omitted when the task has none.
type TaskResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     *string   `json:"due_date,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateTaskRequest represents the request body for creating a task.
// DueDate, when present, must be an RFC 3339 timestamp.
type CreateTaskRequest struct {
	Title       string `json:"title"       validate:"required,max=200"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
}

// ReplaceTaskRequest represents the request body for a full task replacement
// (PUT). Fields omitted from the body take their zero value: leaving out
// due_date clears it.
type ReplaceTaskRequest struct {
	Title       string `json:"title"       validate:"required,max=200"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
}

// PatchTaskRequest represents the request body for a partial task update
// (PATCH). Omitted fields are left unchanged; an explicit empty due_date
// clears the due date.
type PatchTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"due_date"`
}

// ListTasksResponse wraps the task collection returned by the list endpoint.
type ListTasksResponse struct {
	Tasks []TaskResponse `json:"tasks"`
}

// TaskHandler handles task-related HTTP requests.
type TaskHandler struct {
	taskService service.TaskService
	logger      *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService service.TaskService, logger *slog.Logger) *TaskHandler {
	if taskService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("task service cannot be nil for TaskHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &TaskHandler{
		taskService: taskService,
		logger:      logger.With(slog.String("component", "task_handler")),
	}
}

// CreateTask handles POST /tasks requests.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	dueDate, err := parseOptionalDueDate(req.DueDate)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, GetSafeErrorMessage(err), err)
		return
	}

	task, err := h.taskService.Create(r.Context(), userID, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     dueDate,
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", userID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(task))
}

// GetTask handles GET /tasks/{id} requests.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, taskID, ok := requireUserAndPathID(w, r, log)
	if !ok {
		return
	}

	task, err := h.taskService.Get(r.Context(), userID, taskID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// ListTasks handles GET /tasks requests. The due_after and due_before query
// parameters bound the listing to a due-date range; both are optional RFC
// 3339 timestamps.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	filter, err := parseTaskFilter(r)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, GetSafeErrorMessage(err), err)
		return
	}

	tasks, err := h.taskService.List(r.Context(), userID, filter)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	response := ListTasksResponse{Tasks: make([]TaskResponse, 0, len(tasks))}
	for _, task := range tasks {
		response.Tasks = append(response.Tasks, taskToResponse(task))
	}

	log.Debug("tasks listed",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(tasks)))
	shared.RespondWithJSON(w, r, http.StatusOK, response)
}

// ReplaceTask handles PUT /tasks/{id} requests. The body fully replaces the
// task's mutable fields; omitting due_date clears it.
func (h *TaskHandler) ReplaceTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, taskID, ok := requireUserAndPathID(w, r, log)
	if !ok {
		return
	}

	var req ReplaceTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	update := store.TaskUpdate{
		Title:       &req.Title,
		Description: &req.Description,
	}
	if req.DueDate == "" {
		update.ClearDueDate = true
	} else {
		dueDate, err := domain.ParseDueDate(req.DueDate)
		if err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, GetSafeErrorMessage(err), err)
			return
		}
		update.DueDate = dueDate
	}

	h.applyUpdate(w, r, userID, taskID, update)
}

// PatchTask handles PATCH /tasks/{id} requests. Only the fields present in
// the body change; an explicit empty due_date clears the due date.
func (h *TaskHandler) PatchTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, taskID, ok := requireUserAndPathID(w, r, log)
	if !ok {
		return
	}

	var req PatchTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	update := store.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.DueDate != nil {
		if *req.DueDate == "" {
			update.ClearDueDate = true
		} else {
			dueDate, err := domain.ParseDueDate(*req.DueDate)
			if err != nil {
				shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, GetSafeErrorMessage(err), err)
				return
			}
			update.DueDate = dueDate
		}
	}

	h.applyUpdate(w, r, userID, taskID, update)
}

// DeleteTask handles DELETE /tasks/{id} requests.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, taskID, ok := requireUserAndPathID(w, r, log)
	if !ok {
		return
	}

	if err := h.taskService.Delete(r.Context(), userID, taskID); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("task deleted",
		slog.String("task_id", taskID.String()),
		slog.String("user_id", userID.String()))
	w.WriteHeader(http.StatusNoContent)
}

// applyUpdate runs the update through the service and writes the response.
// Shared by the PUT and PATCH handlers, which differ only in how they build
// the TaskUpdate.
func (h *TaskHandler) applyUpdate(
	w http.ResponseWriter,
	r *http.Request,
	userID, taskID uuid.UUID,
	update store.TaskUpdate,
) {
	task, err := h.taskService.Update(r.Context(), userID, taskID, update)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// parseTaskFilter builds a TaskFilter from the request's query parameters.
func parseTaskFilter(r *http.Request) (store.TaskFilter, error) {
	var filter store.TaskFilter

	if raw := r.URL.Query().Get("due_after"); raw != "" {
		parsed, err := domain.ParseDueDate(raw)
		if err != nil {
			return store.TaskFilter{}, err
		}
		filter.DueAfter = parsed
	}

	if raw := r.URL.Query().Get("due_before"); raw != "" {
		parsed, err := domain.ParseDueDate(raw)
		if err != nil {
			return store.TaskFilter{}, err
		}
		filter.DueBefore = parsed
	}

	if filter.DueAfter != nil && filter.DueBefore != nil &&
		filter.DueBefore.Before(*filter.DueAfter) {
		return store.TaskFilter{}, domain.NewValidationError(
			"due_before", "must not precede due_after", domain.ErrValidation)
	}

	return filter, nil
}

// parseOptionalDueDate parses an RFC 3339 due date, treating the empty
// string as absent.
func parseOptionalDueDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	return domain.ParseDueDate(value)
}

// taskToResponse converts a domain.Task to a TaskResponse.
func taskToResponse(task *domain.Task) TaskResponse {
	var dueDate *string
	if task.DueDate != nil {
		formatted := task.DueDate.UTC().Format(time.RFC3339)
		dueDate = &formatted
	}

	return TaskResponse{
		ID:          task.ID.String(),
		UserID:      task.UserID.String(),
		Title:       task.Title,
		Description: task.Description,
		DueDate:     dueDate,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}
