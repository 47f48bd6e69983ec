// Package timeline holds the ordered, append-only sequence of transcript
// items. Insertion order is display order; ids are unique; items are never
// removed, only replaced in place.
package timeline

import "github.com/sonnes/sutradhar/core"

// Timeline is an ordered item store indexed by id. Not safe for concurrent
// use.
type Timeline struct {
	items []core.Item
	index map[string]int
}

// New creates an empty Timeline.
func New() *Timeline {
	return &Timeline{index: make(map[string]int)}
}

// Append adds item at the end. It reports false, leaving the timeline
// unchanged, when an item with the same id already exists.
func (t *Timeline) Append(item core.Item) bool {
	if _, ok := t.index[item.ID]; ok {
		return false
	}
	t.index[item.ID] = len(t.items)
	t.items = append(t.items, item)
	return true
}

// Replace swaps the stored item with the same id for item, keeping its
// position. It reports false when no such item exists.
func (t *Timeline) Replace(item core.Item) bool {
	i, ok := t.index[item.ID]
	if !ok {
		return false
	}
	t.items[i] = item
	return true
}

// Get returns the item with the given id.
func (t *Timeline) Get(id string) (core.Item, bool) {
	i, ok := t.index[id]
	if !ok {
		return core.Item{}, false
	}
	return t.items[i], true
}

// Len returns the number of items.
func (t *Timeline) Len() int {
	return len(t.items)
}

// Items returns a copy of the items in display order.
func (t *Timeline) Items() []core.Item {
	out := make([]core.Item, len(t.items))
	copy(out, t.items)
	return out
}

// Since returns a copy of the items from position n on.
func (t *Timeline) Since(n int) []core.Item {
	if n < 0 {
		n = 0
	}
	if n >= len(t.items) {
		return nil
	}
	out := make([]core.Item, len(t.items)-n)
	copy(out, t.items[n:])
	return out
}

// FindUnresolved scans backward from the end for the nearest item whose
// action has the given kind and has not been resolved yet.
func (t *Timeline) FindUnresolved(kind string) (core.Item, bool) {
	for i := len(t.items) - 1; i >= 0; i-- {
		a := t.items[i].Action
		if a != nil && a.Kind == kind && !a.Resolved {
			return t.items[i], true
		}
	}
	return core.Item{}, false
}

// HasUserMessage reports whether a user item with exactly this content exists.
func (t *Timeline) HasUserMessage(content string) bool {
	for _, item := range t.items {
		if item.Role == core.RoleUser && item.Content == content {
			return true
		}
	}
	return false
}

// RebindAgent points every item attributed to ctx.AgentID at a fresh copy of
// ctx and returns how many items changed.
func (t *Timeline) RebindAgent(ctx core.AgentContext) int {
	n := 0
	for i := range t.items {
		if t.items[i].AgentID() != ctx.AgentID {
			continue
		}
		t.items[i].Agent = ctx.Ptr()
		n++
	}
	return n
}
