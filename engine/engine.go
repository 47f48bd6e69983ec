// Package engine applies agent lifecycle events to a transcript and an agent
// hierarchy. The same transitions run for live streams and replayed logs;
// only live application yields side-effect requests.
package engine

import (
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sonnes/sutradhar/config"
	"github.com/sonnes/sutradhar/core"
	"github.com/sonnes/sutradhar/hierarchy"
	"github.com/sonnes/sutradhar/timeline"
)

// Engine owns the transcript, the agent hierarchy and session flags of one
// session view. It is single-writer: callers serialize Apply calls.
type Engine struct {
	cfg     *config.Config
	logger  *log.Logger
	now     func() time.Time
	tracker *hierarchy.Tracker
	items   *timeline.Timeline
	guard   Guard
	state   State

	// applied holds the ids of events applied in the current view, so a
	// repeated replay of the same log does not apply them twice.
	applied map[string]struct{}

	sessionID string
	createdAt time.Time
	updatedAt time.Time

	// effects collects requests produced by the event being applied.
	effects []Effect
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig sets the delegation and marker configuration.
func WithConfig(cfg *config.Config) Option {
	return func(e *Engine) {
		if cfg != nil {
			e.cfg = cfg
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithSessionID names the session the snapshot belongs to.
func WithSessionID(id string) Option {
	return func(e *Engine) { e.sessionID = id }
}

// New returns an empty Engine with a seeded main agent.
func New(opts ...Option) *Engine {
	e := &Engine{
		cfg:     config.DefaultConfig(),
		logger:  log.Default(),
		now:     time.Now,
		items:   timeline.New(),
		applied: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.tracker = hierarchy.New(
		hierarchy.WithMainAgentID(e.cfg.MainAgentID),
		hierarchy.WithClock(e.now),
	)
	return e
}

// Apply runs the state transition for ev. In Live mode it returns the
// side-effect requests the event produced; in Replay mode it returns nil.
// Apply never fails: malformed or out-of-order input degrades to a no-op
// or a standalone item.
func (e *Engine) Apply(ev core.Event, mode Mode) []Effect {
	e.effects = nil
	at := e.now()
	if e.createdAt.IsZero() {
		e.createdAt = at
	}
	e.updatedAt = at

	switch ev.Kind {
	case core.EventAgentInitialized:
		e.onAgentInitialized(ev, mode)
	case core.EventInterrupted:
		e.state.Loading = false
		e.state.Stopped = true
	case core.EventStatusUpdate:
		e.onStatusUpdate(ev)
	case core.EventError:
		e.onError(ev)
	case core.EventSandboxStatus:
		if u := ev.String("vscode_url"); u != "" {
			e.state.VSCodeURL = u
		}
		if mode == Live {
			e.state.SandboxAwake = ev.String("status") == "running"
		}
	case core.EventSystem:
		e.onSystem(ev)
	case core.EventUserMessage:
		e.onUserMessage(ev)
	case core.EventProcessing:
		e.state.Loading = true
		e.state.Stopped = false
	case core.EventAgentThinking:
		e.onThinking(ev)
	case core.EventToolCall:
		e.onToolCall(ev)
	case core.EventToolResult:
		e.onToolResult(ev)
	case core.EventAgentResponse:
		e.onAgentResponse(ev)
	case core.EventSubAgentComplete:
		e.onSubAgentComplete(ev)
	case core.EventToolProgress:
		e.logger.Debug("tool progress",
			"tool", ev.String("tool_name"),
			"status", ev.String("status"),
			"message", ev.String("message"))
	case core.EventComplete:
		e.state.Completed = true
		e.state.Loading = false
		e.emit(Effect{Kind: EffectActivateSurface, Surface: SurfaceResult})
	case core.EventModelCompact:
		e.onModelCompact(ev)
	case core.EventUploadSuccess:
		e.onUploadSuccess(ev)
	default:
		e.logger.Debug("ignoring event", "kind", ev.Kind, "id", ev.ID)
	}

	if ev.ID != "" {
		e.applied[ev.ID] = struct{}{}
	}

	if mode == Replay {
		e.effects = nil
	}
	out := e.effects
	e.effects = nil
	return out
}

// Replay rebuilds view viewID from a recorded log. The hierarchy is reset
// once per view identity, then every event not yet applied in this view is
// applied in order with no side effects. Replaying the same log again is a
// no-op; replaying a longer one applies only the new tail. Live application
// may continue afterwards.
func (e *Engine) Replay(viewID string, events []core.Event) core.Transcript {
	e.EnterView(viewID)
	e.guard.Once(e.tracker.Reset)
	for _, ev := range events {
		if _, ok := e.applied[ev.ID]; ok && ev.ID != "" {
			continue
		}
		e.Apply(ev, Replay)
	}
	return e.Snapshot()
}

// EnterView switches the engine to a new session view identity. The replay
// reset and the applied-event record start over only when the identity
// changes.
func (e *Engine) EnterView(viewID string) {
	if viewID != e.guard.View() {
		clear(e.applied)
	}
	e.guard.Enter(viewID)
	if e.sessionID == "" {
		e.sessionID = viewID
	}
}

// Snapshot returns a read-only copy of the transcript.
func (e *Engine) Snapshot() core.Transcript {
	t := core.Transcript{
		SessionID: e.sessionID,
		CreatedAt: e.createdAt,
		Items:     e.items.Items(),
		Agents:    e.tracker.Agents(),
	}
	if !e.updatedAt.IsZero() {
		at := e.updatedAt
		t.UpdatedAt = &at
	}
	t.Title = deriveTitle(t.Items)
	t.DiffStats = core.ComputeDiffStats(&t)
	return t
}

// State returns a copy of the session flags.
func (e *Engine) State() State {
	return e.state.clone()
}

// Current returns the agent new work is attributed to.
func (e *Engine) Current() core.AgentContext {
	return e.tracker.Current()
}

// Agent returns the latest snapshot of an agent execution.
func (e *Engine) Agent(id string) (core.AgentContext, bool) {
	return e.tracker.Get(id)
}

// Stack returns the active agent stack, bottom first.
func (e *Engine) Stack() []string {
	return e.tracker.Stack()
}

// Item returns the item with the given id.
func (e *Engine) Item(id string) (core.Item, bool) {
	return e.items.Get(id)
}

// Len returns the number of transcript items.
func (e *Engine) Len() int {
	return e.items.Len()
}

// ItemsSince returns the items appended after the first n.
func (e *Engine) ItemsSince(n int) []core.Item {
	return e.items.Since(n)
}

func (e *Engine) emit(fx ...Effect) {
	e.effects = append(e.effects, fx...)
}

func (e *Engine) notify(level NoticeLevel, msg string) {
	e.emit(Effect{Kind: EffectNotify, Level: level, Message: msg})
}

// append adds item to the transcript, stamping it with the engine clock.
// Duplicate ids are dropped.
func (e *Engine) append(item core.Item) {
	if item.Timestamp.IsZero() {
		item.Timestamp = e.updatedAt
	}
	if !e.items.Append(item) {
		e.logger.Debug("dropping duplicate item", "id", item.ID)
	}
}

// completeResolved finds the sub-agent a completion signal belongs to and
// completes it. It returns the agent that is current afterwards.
func (e *Engine) completeResolved(hint *core.AgentContext) core.AgentContext {
	target, ok := e.tracker.ResolveCompletionTarget(hint)
	if !ok {
		e.logger.Debug("completion signal with no open sub-agent")
		return e.tracker.Current()
	}
	return e.completeAgent(target)
}

// completeAgent marks target completed, repoints every item attributed to it
// at the completed snapshot and returns the new current agent.
func (e *Engine) completeAgent(target core.AgentContext) core.AgentContext {
	done, changed := e.tracker.Complete(target)
	if changed {
		n := e.items.RebindAgent(done)
		e.logger.Debug("sub-agent completed",
			"agent", done.AgentID,
			"duration", done.Duration(),
			"items", n)
	}
	return e.tracker.Current()
}

const maxTitleLen = 80

// deriveTitle takes the first non-empty user message, truncated on a word
// boundary.
func deriveTitle(items []core.Item) string {
	for _, item := range items {
		if item.Role != core.RoleUser {
			continue
		}
		text := strings.TrimSpace(item.Content)
		if text == "" {
			continue
		}
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = text[:i]
		}
		return truncate(text, maxTitleLen)
	}
	return ""
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if i := strings.LastIndex(s[:maxLen], " "); i > 0 {
		return s[:i] + "..."
	}
	return s[:maxLen] + "..."
}
