package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupByAgent(t *testing.T) {
	main := AgentContext{AgentID: "main-agent", AgentType: AgentMain, Status: StatusRunning}
	sub := AgentContext{AgentID: "main-agent-researcher-c1", AgentType: AgentSubagent, NestingLevel: 1, Status: StatusRunning}
	done := sub.Completed(time.Now())

	tests := []struct {
		name   string
		items  []Item
		want   int
		checks func(t *testing.T, groups []Group)
	}{
		{
			name: "empty",
			want: 0,
		},
		{
			name: "user input without agent forms its own group",
			items: []Item{
				{ID: "u1", Role: RoleUser, Content: "hi"},
				{ID: "a1", Role: RoleAssistant, Agent: main.Ptr()},
			},
			want: 2,
			checks: func(t *testing.T, groups []Group) {
				assert.Nil(t, groups[0].Agent)
				assert.False(t, groups[0].IsSubagent())
				assert.Equal(t, "main-agent", groups[1].Agent.AgentID)
			},
		},
		{
			name: "main, sub, main split into three",
			items: []Item{
				{ID: "1", Agent: main.Ptr()},
				{ID: "2", Agent: sub.Ptr()},
				{ID: "3", Agent: sub.Ptr()},
				{ID: "4", Agent: main.Ptr()},
			},
			want: 3,
			checks: func(t *testing.T, groups []Group) {
				assert.True(t, groups[1].IsSubagent())
				require.Len(t, groups[1].Items, 2)
				assert.Equal(t, "2", groups[1].Items[0].ID)
			},
		},
		{
			name: "status change does not split a run",
			items: []Item{
				{ID: "1", Agent: sub.Ptr()},
				{ID: "2", Agent: done.Ptr()},
			},
			want: 1,
			checks: func(t *testing.T, groups []Group) {
				assert.Equal(t, StatusCompleted, groups[0].Agent.Status)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups := GroupByAgent(tt.items)
			require.Len(t, groups, tt.want)
			if tt.checks != nil {
				tt.checks(t, groups)
			}
		})
	}
}
