package cache

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskvault-api/internal/domain"
)

func sampleTask(t *testing.T) *domain.Task {
	t.Helper()
	due, err := domain.ParseDueDate("2024-06-01T10:30:00Z")
	require.NoError(t, err)

	task, err := domain.NewTask(uuid.New(), "Ship report", "final draft", due)
	require.NoError(t, err)
	task.ID = uuid.New()
	return task
}

func TestNewCodec(t *testing.T) {
	tests := []struct {
		name      string
		codecName string
		wantErr   bool
	}{
		{name: "msgpack", codecName: CodecMsgpack},
		{name: "cbor", codecName: CodecCBOR},
		{name: "json", codecName: CodecJSON},
		{name: "empty name selects default", codecName: ""},
		{name: "unknown name rejected", codecName: "protobuf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec, err := NewCodec[domain.Task](tt.codecName)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, codec)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, codec)
		})
	}
}

func TestCodecs_TaskRoundTrip(t *testing.T) {
	task := sampleTask(t)

	for _, name := range []string{CodecMsgpack, CodecCBOR, CodecJSON} {
		t.Run(name, func(t *testing.T) {
			codec, err := NewCodec[domain.Task](name)
			require.NoError(t, err)

			data, err := codec.Encode(*task)
			require.NoError(t, err)
			require.NotEmpty(t, data)

			decoded, err := codec.Decode(data)
			require.NoError(t, err)

			assert.Equal(t, task.ID, decoded.ID)
			assert.Equal(t, task.UserID, decoded.UserID)
			assert.Equal(t, task.Title, decoded.Title)
			assert.Equal(t, task.Description, decoded.Description)
			require.NotNil(t, decoded.DueDate)
			assert.True(t, task.DueDate.Equal(*decoded.DueDate),
				"due date must survive the round trip: %v vs %v", task.DueDate, decoded.DueDate)
		})
	}
}

func TestCodecs_TaskListRoundTrip(t *testing.T) {
	first := sampleTask(t)
	second := sampleTask(t)
	second.Title = "Second task"
	second.DueDate = nil
	list := []*domain.Task{first, second}

	for _, name := range []string{CodecMsgpack, CodecCBOR, CodecJSON} {
		t.Run(name, func(t *testing.T) {
			codec, err := NewCodec[[]*domain.Task](name)
			require.NoError(t, err)

			data, err := codec.Encode(list)
			require.NoError(t, err)

			decoded, err := codec.Decode(data)
			require.NoError(t, err)
			require.Len(t, decoded, 2)

			assert.Equal(t, first.ID, decoded[0].ID)
			assert.Equal(t, second.ID, decoded[1].ID)
			assert.Equal(t, "Second task", decoded[1].Title)
			assert.Nil(t, decoded[1].DueDate)
		})
	}
}

func TestCodecs_DecodeGarbageFails(t *testing.T) {
	garbage := []byte{0xff, 0x00, 0x13, 0x37}

	for _, name := range []string{CodecMsgpack, CodecCBOR, CodecJSON} {
		t.Run(name, func(t *testing.T) {
			codec, err := NewCodec[domain.Task](name)
			require.NoError(t, err)

			_, err = codec.Decode(garbage)
			assert.Error(t, err)
		})
	}
}

func TestMsgpackCodec_PreservesTimePrecision(t *testing.T) {
	codec := MsgpackCodec[time.Time]{}
	instant := time.Date(2024, 6, 1, 10, 30, 0, 123456789, time.UTC)

	data, err := codec.Encode(instant)
	require.NoError(t, err)

	decoded, err := codec.Decode(data)
	require.NoError(t, err)
	assert.True(t, instant.Equal(decoded))
}
