package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxTaskTitleLength is the maximum number of characters allowed in a task title.
const MaxTaskTitleLength = 200

// Task-specific validation errors
var (
	// ErrTaskUserIDEmpty is returned when a task's owner ID is empty or nil.
	ErrTaskUserIDEmpty = errors.New("task user ID cannot be empty")

	// ErrTaskTitleEmpty is returned when a task's title is empty.
	ErrTaskTitleEmpty = errors.New("task title cannot be empty")

	// ErrTaskTitleTooLong is returned when a task's title exceeds MaxTaskTitleLength.
	ErrTaskTitleTooLong = errors.New("task title cannot exceed 200 characters")

	// ErrTaskDueDateInvalid is returned when a due date cannot be parsed.
	ErrTaskDueDateInvalid = errors.New("task due date must be a valid RFC 3339 timestamp")
)

// Task represents a single unit of work owned by a user. The ID is assigned
// by the store on creation and is immutable afterwards, as is the owner.
// DueDate is optional; when present it is normalized to UTC.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewTask creates a new Task owned by the given user and sets the
// creation/update timestamps. The ID is left unset: the store assigns it
// when the task is first persisted.
// Returns an error if validation fails.
func NewTask(userID uuid.UUID, title, description string, dueDate *time.Time) (*Task, error) {
	task := &Task{
		UserID:      userID,
		Title:       title,
		Description: description,
		DueDate:     normalizeDueDate(dueDate),
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// The ID is deliberately not checked here because it is store-assigned:
// a task that has not been persisted yet has a nil ID.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.UserID == uuid.Nil {
		return ErrTaskUserIDEmpty
	}

	if strings.TrimSpace(t.Title) == "" {
		return ErrTaskTitleEmpty
	}

	if utf8.RuneCountInString(t.Title) > MaxTaskTitleLength {
		return ErrTaskTitleTooLong
	}

	return nil
}

// SetDueDate replaces the task's due date, normalizing it to UTC.
// Passing nil clears the due date.
func (t *Task) SetDueDate(dueDate *time.Time) {
	t.DueDate = normalizeDueDate(dueDate)
}

// Touch updates the UpdatedAt timestamp to the current time.
func (t *Task) Touch() {
	t.UpdatedAt = time.Now().UTC()
}

// ParseDueDate parses an RFC 3339 timestamp into a UTC time suitable for
// Task.DueDate. Returns ErrTaskDueDateInvalid if the value does not parse.
func ParseDueDate(value string) (*time.Time, error) {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, ErrTaskDueDateInvalid
	}
	utc := parsed.UTC()
	return &utc, nil
}

func normalizeDueDate(dueDate *time.Time) *time.Time {
	if dueDate == nil {
		return nil
	}
	utc := dueDate.UTC()
	return &utc
}
