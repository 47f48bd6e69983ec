package hierarchy

import (
	"testing"
	"time"

	"github.com/sonnes/sutradhar/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepClock returns a clock that advances one second per call.
func stepClock() func() time.Time {
	t := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTracker() *Tracker {
	return New(WithClock(stepClock()))
}

func TestNewSeedsMainAgent(t *testing.T) {
	tr := newTracker()

	main := tr.Current()
	assert.Equal(t, "main-agent", main.AgentID)
	assert.Equal(t, core.AgentMain, main.AgentType)
	assert.Equal(t, 0, main.NestingLevel)
	assert.Empty(t, main.ParentAgentID)
	assert.Equal(t, []string{"main-agent"}, tr.Stack())
}

func TestWithMainAgentID(t *testing.T) {
	tr := New(WithMainAgentID("root"))
	assert.Equal(t, "root", tr.Current().AgentID)
	assert.Equal(t, "root", tr.Main().AgentID)
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Researcher", "researcher"},
		{"  Design Doc Agent  ", "design-doc-agent"},
		{"call_01HX/ab", "call-01hx-ab"},
		{"--x--", "x"},
		{"***", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestBeginDelegationIDs(t *testing.T) {
	tests := []struct {
		name   string
		label  string
		callID string
		want   string
	}{
		{"with call id", "Researcher", "c1", "main-agent-researcher-c1"},
		{"call id sanitized", "Researcher", "toolu_01/AB", "main-agent-researcher-toolu-01-ab"},
		{"call id sanitizes to empty", "Researcher", "@@", "main-agent-researcher-call"},
		{"name sanitizes to empty", "!!", "c1", "main-agent-sub-agent-c1"},
		{"no call id", "Researcher", "", "main-agent-researcher"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTracker()
			ctx := tr.BeginDelegation(tr.Current(), tt.label, tt.callID)
			assert.Equal(t, tt.want, ctx.AgentID)
			assert.Equal(t, core.AgentSubagent, ctx.AgentType)
			assert.Equal(t, tt.label, ctx.AgentName)
			assert.Equal(t, "main-agent", ctx.ParentAgentID)
			assert.Equal(t, 1, ctx.NestingLevel)
			assert.Equal(t, core.StatusRunning, ctx.Status)
			assert.NotNil(t, ctx.StartTime)
			assert.Nil(t, ctx.EndTime)
		})
	}
}

func TestBeginDelegationSameNameDistinctCalls(t *testing.T) {
	tr := newTracker()
	main := tr.Current()

	a := tr.BeginDelegation(main, "Researcher", "c1")
	b := tr.BeginDelegation(main, "Researcher", "c2")

	assert.NotEqual(t, a.AgentID, b.AgentID)
	assert.Equal(t, []string{"main-agent", a.AgentID, b.AgentID}, tr.Stack())
}

func TestBeginDelegationCounterWithoutCallID(t *testing.T) {
	tr := newTracker()
	main := tr.Current()

	a := tr.BeginDelegation(main, "Coder", "")
	b := tr.BeginDelegation(main, "Coder", "")
	c := tr.BeginDelegation(main, "Coder", "")

	assert.Equal(t, "main-agent-coder", a.AgentID)
	assert.Equal(t, "main-agent-coder-2", b.AgentID)
	assert.Equal(t, "main-agent-coder-3", c.AgentID)
	assert.Len(t, tr.Agents(), 4)
}

func TestBeginDelegationNesting(t *testing.T) {
	tr := newTracker()

	outer := tr.BeginDelegation(tr.Current(), "Planner", "c1")
	inner := tr.BeginDelegation(tr.Current(), "Coder", "c2")

	assert.Equal(t, "main-agent-planner-c1-coder-c2", inner.AgentID)
	assert.Equal(t, outer.AgentID, inner.ParentAgentID)
	assert.Equal(t, 2, inner.NestingLevel)
	assert.Equal(t, inner.AgentID, tr.Current().AgentID)
}

func TestBeginDelegationReentrantRunning(t *testing.T) {
	tr := newTracker()
	first := tr.BeginDelegation(tr.Current(), "Researcher", "c1")
	again := tr.BeginDelegation(tr.Main(), "Researcher", "c1")

	assert.Equal(t, first.AgentID, again.AgentID)
	assert.Equal(t, *first.StartTime, *again.StartTime, "start time kept")
	assert.Equal(t, []string{"main-agent", first.AgentID}, tr.Stack(), "not pushed twice")
}

func TestBeginDelegationDoesNotReopenCompleted(t *testing.T) {
	tr := newTracker()
	ctx := tr.BeginDelegation(tr.Current(), "Researcher", "c1")
	done, ok := tr.Complete(ctx)
	require.True(t, ok)

	again := tr.BeginDelegation(tr.Main(), "Researcher", "c1")

	assert.Equal(t, core.StatusCompleted, again.Status)
	assert.Equal(t, done.EndTime, again.EndTime)
	assert.Equal(t, []string{"main-agent"}, tr.Stack())
}

func TestCompleteIsIdempotent(t *testing.T) {
	tr := newTracker()
	ctx := tr.BeginDelegation(tr.Current(), "Researcher", "c1")

	done, ok := tr.Complete(ctx)
	require.True(t, ok)
	require.NotNil(t, done.EndTime)
	end := *done.EndTime

	again, ok := tr.Complete(ctx)
	assert.False(t, ok)
	assert.Equal(t, core.StatusCompleted, again.Status)
	assert.Equal(t, end, *again.EndTime)

	stored, _ := tr.Get(ctx.AgentID)
	assert.Equal(t, end, *stored.EndTime)
}

func TestCompleteNeverPopsMain(t *testing.T) {
	tr := newTracker()
	_, ok := tr.Complete(tr.Main())
	assert.False(t, ok)
	assert.Equal(t, []string{"main-agent"}, tr.Stack())
	assert.Equal(t, core.StatusRunning, tr.Main().Status)
}

func TestCompleteArbitraryOrder(t *testing.T) {
	tr := newTracker()

	var ids []string
	for _, name := range []string{"a", "b", "c", "d"} {
		ids = append(ids, tr.BeginDelegation(tr.Current(), name, "x").AgentID)
	}
	require.Len(t, tr.Stack(), 5)

	// Complete the second and the top, leaving the others in place.
	b, _ := tr.Get(ids[1])
	d, _ := tr.Get(ids[3])
	beforeA, _ := tr.Get(ids[0])
	beforeC, _ := tr.Get(ids[2])

	_, ok := tr.Complete(b)
	require.True(t, ok)
	_, ok = tr.Complete(d)
	require.True(t, ok)

	assert.Equal(t, []string{"main-agent", ids[0], ids[2]}, tr.Stack())
	afterA, _ := tr.Get(ids[0])
	afterC, _ := tr.Get(ids[2])
	assert.Equal(t, beforeA, afterA)
	assert.Equal(t, beforeC, afterC)
	assert.Equal(t, ids[2], tr.Current().AgentID)
}

func TestResolveCompletionTarget(t *testing.T) {
	t.Run("no subagents", func(t *testing.T) {
		tr := newTracker()
		main := tr.Main()
		_, ok := tr.ResolveCompletionTarget(&main)
		assert.False(t, ok)
		_, ok = tr.ResolveCompletionTarget(nil)
		assert.False(t, ok)
	})

	t.Run("running hint wins", func(t *testing.T) {
		tr := newTracker()
		a := tr.BeginDelegation(tr.Main(), "A", "c1")
		tr.BeginDelegation(tr.Main(), "B", "c2")

		got, ok := tr.ResolveCompletionTarget(&a)
		require.True(t, ok)
		assert.Equal(t, a.AgentID, got.AgentID)
	})

	t.Run("stale hint is refreshed", func(t *testing.T) {
		tr := newTracker()
		a := tr.BeginDelegation(tr.Main(), "A", "c1")
		b := tr.BeginDelegation(tr.Main(), "B", "c2")
		tr.Complete(a)

		got, ok := tr.ResolveCompletionTarget(&a)
		require.True(t, ok)
		assert.Equal(t, b.AgentID, got.AgentID)
	})

	t.Run("nearest stack entry without hint", func(t *testing.T) {
		tr := newTracker()
		tr.BeginDelegation(tr.Main(), "A", "c1")
		b := tr.BeginDelegation(tr.Main(), "B", "c2")

		got, ok := tr.ResolveCompletionTarget(nil)
		require.True(t, ok)
		assert.Equal(t, b.AgentID, got.AgentID)
	})

	t.Run("main hint falls through to stack", func(t *testing.T) {
		tr := newTracker()
		a := tr.BeginDelegation(tr.Main(), "A", "c1")
		main := tr.Main()

		got, ok := tr.ResolveCompletionTarget(&main)
		require.True(t, ok)
		assert.Equal(t, a.AgentID, got.AgentID)
	})

	t.Run("running context off the stack", func(t *testing.T) {
		tr := newTracker()
		a := tr.BeginDelegation(tr.Main(), "A", "c1")
		// Simulate a context that lost its stack slot.
		tr.stack = []string{"main-agent"}

		got, ok := tr.ResolveCompletionTarget(nil)
		require.True(t, ok)
		assert.Equal(t, a.AgentID, got.AgentID)
	})

	t.Run("non-completed fallback", func(t *testing.T) {
		tr := newTracker()
		a := tr.BeginDelegation(tr.Main(), "A", "c1")
		failed := a
		failed.Status = core.StatusFailed
		tr.put(failed)

		got, ok := tr.ResolveCompletionTarget(nil)
		require.True(t, ok)
		assert.Equal(t, core.StatusFailed, got.Status)
	})

	t.Run("all completed", func(t *testing.T) {
		tr := newTracker()
		a := tr.BeginDelegation(tr.Main(), "A", "c1")
		tr.Complete(a)

		_, ok := tr.ResolveCompletionTarget(nil)
		assert.False(t, ok)
	})
}

func TestReset(t *testing.T) {
	tr := newTracker()
	tr.BeginDelegation(tr.Main(), "A", "c1")
	tr.BeginDelegation(tr.Current(), "B", "c2")

	tr.Reset()

	assert.Equal(t, []string{"main-agent"}, tr.Stack())
	require.Len(t, tr.Agents(), 1)
	assert.Equal(t, core.AgentMain, tr.Agents()[0].AgentType)
	_, ok := tr.Get("main-agent-a-c1")
	assert.False(t, ok)
}

func TestStackIsCopy(t *testing.T) {
	tr := newTracker()
	s := tr.Stack()
	s[0] = "mutated"
	assert.Equal(t, "main-agent", tr.Current().AgentID)
}
