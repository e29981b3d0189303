package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the task service.
const (
	// EventCacheInvalidationFailed is emitted when a store write succeeded
	// but the matching cache invalidation did not. The operation has
	// already been reported as successful; the event exists so operators
	// can see the window of staleness.
	EventCacheInvalidationFailed = "cache_invalidation_failed"

	// EventValidationRejected is emitted when an operation was rejected
	// before any store call because its input failed business validation.
	EventValidationRejected = "validation_rejected"
)

// Event is a structured observability event. Events are advisory: emitting
// one must never affect the outcome of the operation that produced it.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the Event* constants above
	Type string `json:"type"`

	// Payload contains the event-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// CacheInvalidationFailedPayload describes a failed cache invalidation.
type CacheInvalidationFailedPayload struct {
	// Operation is the service operation that performed the store write
	// (e.g., "update_task").
	Operation string `json:"operation"`

	// Keys are the cache keys that could not be deleted.
	Keys []string `json:"keys"`

	// Reason is the underlying cache error message.
	Reason string `json:"reason"`
}

// ValidationRejectedPayload describes an input rejected by validation.
type ValidationRejectedPayload struct {
	// Operation is the service operation that rejected the input.
	Operation string `json:"operation"`

	// Reason is the validation error message.
	Reason string `json:"reason"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates a new Event with the specified type and payload.
func NewEvent(eventType string, payload interface{}) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// EventHandler defines an interface for components that consume events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *Event) error
}

// EventEmitter defines an interface for components that publish events.
// Emission is fire-and-forget from the caller's point of view: services
// log a failed emit but never propagate it.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *Event) error
}
