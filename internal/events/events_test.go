package events

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	payload := CacheInvalidationFailedPayload{
		Operation: "update_task",
		Keys:      []string{"task:abc", "tasks:u1:ver"},
		Reason:    "cache unavailable",
	}

	event, err := NewEvent(EventCacheInvalidationFailed, payload)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, EventCacheInvalidationFailed, event.Type)
	assert.False(t, event.CreatedAt.IsZero())
	assert.NotEmpty(t, event.Payload)
}

func TestNewEvent_UnserializablePayloadFails(t *testing.T) {
	_, err := NewEvent(EventValidationRejected, make(chan int))
	assert.Error(t, err)
}

func TestEvent_UnmarshalPayload(t *testing.T) {
	original := CacheInvalidationFailedPayload{
		Operation: "delete_task",
		Keys:      []string{"task:abc"},
		Reason:    "timeout",
	}

	event, err := NewEvent(EventCacheInvalidationFailed, original)
	require.NoError(t, err)

	var decoded CacheInvalidationFailedPayload
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, original, decoded)
}

func TestEvent_UnmarshalValidationPayload(t *testing.T) {
	original := ValidationRejectedPayload{
		Operation: "create_task",
		Reason:    "task title cannot be empty",
	}

	event, err := NewEvent(EventValidationRejected, original)
	require.NoError(t, err)

	var decoded ValidationRejectedPayload
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, original, decoded)
}
