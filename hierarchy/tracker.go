// Package hierarchy tracks agent executions: the main agent, the nested
// sub-agents it delegates to, and the stack of agents currently attributable
// for incoming work.
package hierarchy

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/sonnes/sutradhar/config"
	"github.com/sonnes/sutradhar/core"
)

// Tracker owns the agent context map and the active-agent stack. It is not
// safe for concurrent use; the engine applies events one at a time.
type Tracker struct {
	mainID   string
	now      func() time.Time
	contexts map[string]core.AgentContext
	order    []string // creation order, for deterministic fallback scans
	stack    []string // bottom is always the main agent
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithMainAgentID overrides the root agent id.
func WithMainAgentID(id string) Option {
	return func(t *Tracker) {
		if id != "" {
			t.mainID = id
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// New creates a Tracker seeded with a running main agent.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		mainID: config.DefaultMainAgentID,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.Reset()
	return t
}

// Reset clears every context and the stack, then re-seeds the main agent at
// nesting level 0.
func (t *Tracker) Reset() {
	t.contexts = make(map[string]core.AgentContext)
	t.order = t.order[:0]
	t.stack = t.stack[:0]
	t.put(core.AgentContext{
		AgentID:      t.mainID,
		AgentType:    core.AgentMain,
		NestingLevel: 0,
		Status:       core.StatusRunning,
	})
	t.stack = append(t.stack, t.mainID)
}

// Main returns the root agent context.
func (t *Tracker) Main() core.AgentContext {
	return t.contexts[t.mainID]
}

// Current returns the context at the top of the stack.
func (t *Tracker) Current() core.AgentContext {
	if len(t.stack) == 0 {
		return t.Main()
	}
	if ctx, ok := t.contexts[t.stack[len(t.stack)-1]]; ok {
		return ctx
	}
	return t.Main()
}

// Get returns the latest snapshot stored for id.
func (t *Tracker) Get(id string) (core.AgentContext, bool) {
	ctx, ok := t.contexts[id]
	return ctx, ok
}

// Stack returns a copy of the active stack, bottom first.
func (t *Tracker) Stack() []string {
	return slices.Clone(t.stack)
}

// Agents returns every known context in creation order.
func (t *Tracker) Agents() []core.AgentContext {
	out := make([]core.AgentContext, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.contexts[id])
	}
	return out
}

// BeginDelegation returns the context attributable to a new delegation from
// parent. The id is derived from the parent id and display name, plus the
// call id when the producer supplied one; without a call id a numeric suffix
// keeps same-named delegations apart.
//
// A completed context found under the computed id is returned unchanged so
// that a replayed call cannot reopen a finished sub-agent.
func (t *Tracker) BeginDelegation(parent core.AgentContext, name, callID string) core.AgentContext {
	base := orDefault(Sanitize(parent.AgentID), "agent") + "-" + orDefault(Sanitize(name), "sub-agent")

	id := base
	if callID != "" {
		id = base + "-" + orDefault(Sanitize(callID), "call")
	} else {
		for n := 2; t.has(id); n++ {
			id = base + "-" + strconv.Itoa(n)
		}
	}

	ctx, ok := t.contexts[id]
	switch {
	case ok && ctx.Status == core.StatusCompleted:
		return ctx
	case ok:
		ctx = ctx.Running(t.now())
	default:
		ctx = core.AgentContext{
			AgentID:       id,
			AgentType:     core.AgentSubagent,
			AgentName:     name,
			ParentAgentID: parent.AgentID,
			NestingLevel:  parent.NestingLevel + 1,
		}.Running(t.now())
	}

	t.put(ctx)
	if !slices.Contains(t.stack, id) {
		t.stack = append(t.stack, id)
	}
	return ctx
}

// Complete stores a completed snapshot of target and pops it from the stack.
// It reports false, changing nothing, when the agent is already completed or
// is the main agent.
func (t *Tracker) Complete(target core.AgentContext) (core.AgentContext, bool) {
	stored, ok := t.contexts[target.AgentID]
	if !ok {
		stored = target
	}
	if stored.AgentID == t.mainID || !stored.IsSubagent() || stored.Status == core.StatusCompleted {
		return stored, false
	}

	done := stored.Completed(t.now())
	t.put(done)
	if i := slices.Index(t.stack, done.AgentID); i >= 0 {
		t.stack = slices.Delete(t.stack, i, i+1)
	}
	return done, true
}

// ResolveCompletionTarget picks the sub-agent a completion signal belongs to.
// Completion signals arrive through several event kinds that do not always
// name the agent, so the search falls back in a fixed order:
//
//  1. hint, when it is a running sub-agent
//  2. the nearest running sub-agent on the stack, top to bottom
//  3. any running sub-agent, in creation order
//  4. any sub-agent not yet completed, in creation order
//
// It reports false when nothing qualifies.
func (t *Tracker) ResolveCompletionTarget(hint *core.AgentContext) (core.AgentContext, bool) {
	if hint != nil {
		h := *hint
		if stored, ok := t.contexts[h.AgentID]; ok {
			h = stored
		}
		if h.IsSubagent() && h.IsRunning() {
			return h, true
		}
	}

	for i := len(t.stack) - 1; i >= 0; i-- {
		if ctx, ok := t.contexts[t.stack[i]]; ok && ctx.IsSubagent() && ctx.IsRunning() {
			return ctx, true
		}
	}

	for _, id := range t.order {
		if ctx := t.contexts[id]; ctx.IsSubagent() && ctx.IsRunning() {
			return ctx, true
		}
	}

	for _, id := range t.order {
		if ctx := t.contexts[id]; ctx.IsSubagent() && ctx.Status != core.StatusCompleted {
			return ctx, true
		}
	}

	return core.AgentContext{}, false
}

func (t *Tracker) has(id string) bool {
	_, ok := t.contexts[id]
	return ok
}

func (t *Tracker) put(ctx core.AgentContext) {
	if !t.has(ctx.AgentID) {
		t.order = append(t.order, ctx.AgentID)
	}
	t.contexts[ctx.AgentID] = ctx
}

var nonSlugRE = regexp.MustCompile(`[^a-z0-9]+`)

// Sanitize turns s into an id fragment: lower case, runs of anything other
// than [a-z0-9] collapsed to "-", no leading or trailing "-".
func Sanitize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonSlugRE.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
