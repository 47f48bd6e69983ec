package core

import "time"

// AgentContext describes one agent execution: identity, parentage, nesting
// depth and lifecycle. It is an immutable value; status and time changes
// produce a new AgentContext.
type AgentContext struct {
	AgentID       string      `json:"agent_id"`
	AgentType     AgentType   `json:"agent_type"`
	AgentName     string      `json:"agent_name,omitempty"`
	ParentAgentID string      `json:"parent_agent_id,omitempty"`
	NestingLevel  int         `json:"nesting_level"`
	Status        AgentStatus `json:"status,omitempty"`
	StartTime     *time.Time  `json:"start_time,omitempty"`
	EndTime       *time.Time  `json:"end_time,omitempty"`
}

// AgentType distinguishes the root agent from delegated ones.
type AgentType string

const (
	AgentMain     AgentType = "main"
	AgentSubagent AgentType = "subagent"
)

// AgentStatus is the lifecycle state of an agent execution.
type AgentStatus string

const (
	StatusRunning   AgentStatus = "running"
	StatusCompleted AgentStatus = "completed"
	StatusFailed    AgentStatus = "failed"
)

// IsSubagent reports whether the context describes a delegated execution.
func (a AgentContext) IsSubagent() bool {
	return a.AgentType == AgentSubagent
}

// IsRunning reports whether the execution is still in progress.
func (a AgentContext) IsRunning() bool {
	return a.Status == StatusRunning
}

// Completed returns a copy marked completed at the given time.
func (a AgentContext) Completed(at time.Time) AgentContext {
	a.Status = StatusCompleted
	a.EndTime = &at
	return a
}

// Running returns a copy marked running. StartTime is kept when already set.
func (a AgentContext) Running(at time.Time) AgentContext {
	a.Status = StatusRunning
	a.EndTime = nil
	if a.StartTime == nil {
		a.StartTime = &at
	}
	return a
}

// Duration returns the elapsed time of a finished execution, or zero.
func (a AgentContext) Duration() time.Duration {
	if a.StartTime == nil || a.EndTime == nil {
		return 0
	}
	return a.EndTime.Sub(*a.StartTime)
}

// Ptr returns a pointer to a private copy of a, for embedding in an Item.
func (a AgentContext) Ptr() *AgentContext {
	return &a
}
