package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentContextSnapshots(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	end := start.Add(90 * time.Second)

	a := AgentContext{AgentID: "x", AgentType: AgentSubagent}.Running(start)
	require.NotNil(t, a.StartTime)
	assert.True(t, a.IsRunning())

	done := a.Completed(end)
	assert.Equal(t, StatusCompleted, done.Status)
	assert.Equal(t, 90*time.Second, done.Duration())

	// The original value is untouched.
	assert.True(t, a.IsRunning())
	assert.Nil(t, a.EndTime)

	// Running again keeps the first start time and clears the end.
	again := done.Running(end)
	assert.Equal(t, start, *again.StartTime)
	assert.Nil(t, again.EndTime)
}

func TestAgentContextPtrIsPrivateCopy(t *testing.T) {
	a := AgentContext{AgentID: "x", Status: StatusRunning}
	p := a.Ptr()
	p.Status = StatusCompleted
	assert.Equal(t, StatusRunning, a.Status)
}

func TestEventAccessors(t *testing.T) {
	ev := Event{
		ID:   "e1",
		Kind: EventToolCall,
		Content: map[string]any{
			"tool_name":  "Read",
			"tool_input": map[string]any{"file_path": "/a"},
			"count":      3,
		},
	}
	assert.Equal(t, "Read", ev.String("tool_name"))
	assert.Equal(t, "", ev.String("count"))
	assert.Equal(t, "/a", StringField(ev.Map("tool_input"), "file_path"))
	assert.Nil(t, ev.Map("tool_name"))

	var empty Event
	assert.Equal(t, "", empty.String("anything"))
	assert.Nil(t, empty.Map("anything"))
}

func TestText(t *testing.T) {
	assert.Equal(t, "", Text(nil))
	assert.Equal(t, "plain", Text("plain"))
	assert.Equal(t, `{"status":"Task completed"}`, Text(map[string]any{"status": "Task completed"}))
}
