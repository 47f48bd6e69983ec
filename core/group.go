package core

// Group is a run of consecutive items attributed to the same agent. Renderers
// draw each group as one container, separating the main agent's flow from
// nested sub-agent flow.
type Group struct {
	Agent *AgentContext // nil for items without an agent (user input, system notes)
	Items []Item
}

// IsSubagent reports whether the group renders nested sub-agent flow.
func (g Group) IsSubagent() bool {
	return g.Agent != nil && g.Agent.IsSubagent()
}

// GroupByAgent splits items into runs sharing agent id and agent type. A
// group's Agent is the context carried by its last item, which is the most
// recent snapshot the engine rebound onto it.
func GroupByAgent(items []Item) []Group {
	var groups []Group
	var current *Group

	for _, item := range items {
		if current != nil && sameAgent(current.Agent, item.Agent) {
			current.Items = append(current.Items, item)
			if item.Agent != nil {
				current.Agent = item.Agent
			}
			continue
		}
		if current != nil {
			groups = append(groups, *current)
		}
		current = &Group{Agent: item.Agent, Items: []Item{item}}
	}
	if current != nil {
		groups = append(groups, *current)
	}
	return groups
}

func sameAgent(a, b *AgentContext) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.AgentID == b.AgentID && a.AgentType == b.AgentType
}
