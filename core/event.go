package core

import (
	"encoding/json"
	"fmt"
)

// Event is a single notification describing one step of agent execution.
// Events are consumed once and never modified.
type Event struct {
	ID      string         `json:"id"`
	Kind    EventKind      `json:"type"`
	Content map[string]any `json:"content"`
}

// EventKind enumerates the event types produced by the agent backend.
type EventKind string

const (
	EventAgentInitialized EventKind = "agent_initialized"
	EventStatusUpdate     EventKind = "status_update"
	EventError            EventKind = "error"
	EventSystem           EventKind = "system"
	EventUserMessage      EventKind = "user_message"
	EventProcessing       EventKind = "processing"
	EventAgentThinking    EventKind = "agent_thinking"
	EventToolCall         EventKind = "tool_call"
	EventToolResult       EventKind = "tool_result"
	EventAgentResponse    EventKind = "agent_response"
	EventSubAgentComplete EventKind = "sub_agent_complete"
	EventToolProgress     EventKind = "tool_progress"
	EventComplete         EventKind = "complete"
	EventModelCompact     EventKind = "model_compact"
	EventUploadSuccess    EventKind = "upload_success"
	EventInterrupted      EventKind = "agent_response_interrupted"
	EventSandboxStatus    EventKind = "sandbox_status"
)

// EventLog is an ordered, recorded event stream for one session.
type EventLog struct {
	SessionID string  `json:"session_id"`
	Events    []Event `json:"events"`
}

// Value returns the raw content value for key, or nil.
func (e Event) Value(key string) any {
	if e.Content == nil {
		return nil
	}
	return e.Content[key]
}

// String returns the content value for key when it is a string.
func (e Event) String(key string) string {
	s, _ := e.Value(key).(string)
	return s
}

// Map returns the content value for key when it is an object.
func (e Event) Map(key string) map[string]any {
	m, _ := e.Value(key).(map[string]any)
	return m
}

// Text renders an arbitrary result value as text for marker scanning and
// display. Strings pass through; everything else is JSON encoded.
func Text(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}

// StringField safely extracts a string value from a map.
func StringField(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
