// Generates an example HTML transcript by replaying a synthetic event stream
// through the engine, and writes it to stdout.
// Usage: go run ./render/html/cmd/example > example.html
package main

import (
	"os"
	"time"

	"github.com/sonnes/sutradhar/core"
	"github.com/sonnes/sutradhar/engine"
	htmlrender "github.com/sonnes/sutradhar/render/html"
)

func main() {
	clock := time.Date(2026, 2, 13, 10, 15, 0, 0, time.UTC)
	now := func() time.Time {
		clock = clock.Add(7 * time.Second)
		return clock
	}

	ev := func(id string, kind core.EventKind, content map[string]any) core.Event {
		return core.Event{ID: id, Kind: kind, Content: content}
	}

	events := []core.Event{
		ev("e1", core.EventAgentInitialized, map[string]any{}),
		ev("e2", core.EventUserMessage, map[string]any{
			"text": "Research the Go 1.25 release notes and write a short summary to notes/go125.md.",
		}),
		ev("e3", core.EventAgentThinking, map[string]any{
			"text": "I should delegate the research to a researcher agent, then write the file myself.",
		}),
		ev("e4", core.EventToolCall, map[string]any{
			"tool_name":         "Task",
			"tool_call_id":      "call_research",
			"tool_display_name": "Researcher",
			"tool_input":        map[string]any{"description": "Find Go 1.25 release highlights"},
		}),
		ev("e5", core.EventToolCall, map[string]any{
			"tool_name":    "web_search",
			"tool_call_id": "call_search",
			"tool_input":   map[string]any{"query": "Go 1.25 release notes"},
		}),
		ev("e6", core.EventToolResult, map[string]any{
			"tool_name": "web_search",
			"result":    "go.dev/doc/go1.25: container-aware GOMAXPROCS, testing/synctest, encoding/json/v2 experiment",
		}),
		ev("e7", core.EventToolResult, map[string]any{
			"tool_name": "Task",
			"result":    "Highlights: container-aware GOMAXPROCS, testing/synctest graduates, json/v2 experiment.",
		}),
		ev("e8", core.EventToolCall, map[string]any{
			"tool_name":    "Write",
			"tool_call_id": "call_write",
			"tool_input": map[string]any{
				"file_path": "notes/go125.md",
				"content":   "# Go 1.25\n\n- container-aware GOMAXPROCS\n- testing/synctest\n- encoding/json/v2 (experiment)\n",
			},
		}),
		ev("e9", core.EventToolResult, map[string]any{
			"tool_name": "Write",
			"result":    "File created successfully at: notes/go125.md",
		}),
		ev("e10", core.EventAgentResponse, map[string]any{
			"text": "Wrote the summary to `notes/go125.md`:\n\n```markdown\n# Go 1.25\n\n- container-aware GOMAXPROCS\n- testing/synctest\n```",
		}),
		ev("e11", core.EventComplete, map[string]any{}),
	}

	e := engine.New(
		engine.WithClock(now),
		engine.WithSessionID("8397fc7c-39b9-4e25-81da-ed47a574a88a"),
	)
	tr := e.Replay("example", events)

	r := htmlrender.New()
	if err := r.Render(os.Stdout, &tr); err != nil {
		os.Stderr.WriteString("error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
