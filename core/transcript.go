// Package core defines the transcript model shared by the engine, readers,
// transformers and renderers: events in, display-ready items and agent
// execution snapshots out.
package core

import "time"

// Transcript is the read-only snapshot of one session view. Renderers and
// transformers receive it; the engine produces it.
type Transcript struct {
	SessionID string         `json:"session_id"`
	Title     string         `json:"title,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt *time.Time     `json:"updated_at,omitempty"`
	DiffStats *DiffStats     `json:"diff_stats,omitempty"` // aggregate edit statistics
	Items     []Item         `json:"items"`
	Agents    []AgentContext `json:"agents,omitempty"` // creation order, main agent first
}

// DiffStats summarizes file-level edit statistics across the session.
type DiffStats struct {
	Added   int `json:"added,omitempty"`   // lines added (Write content + Edit new_string)
	Removed int `json:"removed,omitempty"` // lines removed (Edit old_string)
	Changed int `json:"changed,omitempty"` // unique files touched
}

// Item is one ordered, uniquely identified display unit of the transcript: a
// message or a tool action. Items are values; the engine corrects an item by
// replacing it, never by editing a shared copy.
type Item struct {
	ID          string        `json:"id"`
	Role        Role          `json:"role"`
	Content     string        `json:"content,omitempty"`
	Thinking    bool          `json:"thinking,omitempty"`
	Action      *Action       `json:"action,omitempty"`
	Agent       *AgentContext `json:"agent,omitempty"`
	Attachments []Attachment  `json:"attachments,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`
}

// AgentID returns the id of the agent the item is attributed to, or "".
func (i Item) AgentID() string {
	if i.Agent == nil {
		return ""
	}
	return i.Agent.AgentID
}

// Action is a tool invocation embedded in an Item.
type Action struct {
	Kind        string         `json:"kind"` // tool identifier
	CallID      string         `json:"call_id,omitempty"`
	DisplayName string         `json:"display_name,omitempty"`
	Input       map[string]any `json:"input,omitempty"`
	Result      any            `json:"result,omitempty"`
	Resolved    bool           `json:"resolved"`
	IsError     bool           `json:"is_error,omitempty"`
}

// Attachment is a file or link the agent handed back to the user.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Role enumerates who produced an item.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)
