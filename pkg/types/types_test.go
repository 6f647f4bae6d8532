package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageRef(t *testing.T) {
	image := Image{Image: "example", Tag: "latest"}
	assert.Equal(t, "example:latest", image.Ref())
}

func TestStatusIsTerminal(t *testing.T) {
	tests := []struct {
		status   TaskStatus
		terminal bool
	}{
		{StatusAccepted, false},
		{StatusInProgress, false},
		{StatusDeployed, true},
		{StatusFailed, true},
		{StatusAppNotFound, true},
		{StatusTaskNotFound, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
		})
	}
}

func TestTaskJSONContract(t *testing.T) {
	task := Task{
		ID:      "a09791dc-a615-11ec-b182-f2c4bb72758c",
		App:     "test_app",
		Author:  "John Doe",
		Project: "default",
		Images:  []Image{{Image: "example", Tag: "v0.1.0"}},
		Status:  StatusInProgress,
		Created: 1647272344.12,
	}

	raw, err := json.Marshal(task)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "test_app", decoded["app"])
	assert.Equal(t, "in progress", decoded["status"])
	assert.InDelta(t, 1647272344.12, decoded["created"], 0.001)

	// updated is unset and must not appear
	_, present := decoded["updated"]
	assert.False(t, present)

	images, ok := decoded["images"].([]interface{})
	require.True(t, ok)
	require.Len(t, images, 1)
	first := images[0].(map[string]interface{})
	assert.Equal(t, "example", first["image"])
	assert.Equal(t, "v0.1.0", first["tag"])
}

func TestTaskJSONRoundTrip(t *testing.T) {
	raw := `{"app":"app1","author":"ci","project":"p1","images":[{"image":"img","tag":"1.0"}]}`

	var task Task
	require.NoError(t, json.Unmarshal([]byte(raw), &task))

	assert.Equal(t, "app1", task.App)
	assert.Empty(t, task.ID)
	require.Len(t, task.Images, 1)
	assert.Equal(t, "img:1.0", task.Images[0].Ref())
}
