// Package compact provides a Transformer that replaces verbose tool content
// with short summaries for compact transcript viewing.
package compact

import (
	"fmt"
	"maps"
	"strings"

	"github.com/sonnes/sutradhar/core"
)

// Config controls the compact transformer behavior.
type Config struct {
	StripThinking bool
}

// Compactor replaces verbose tool content with line-count summaries.
type Compactor struct {
	stripThinking bool
}

// New creates a Compactor from the given config.
func New(cfg Config) *Compactor {
	return &Compactor{stripThinking: cfg.StripThinking}
}

// Transform implements core.Transformer. Actions are replaced with compacted
// copies; the snapshot's original maps are never written to.
func (c *Compactor) Transform(t *core.Transcript) error {
	if c.stripThinking {
		t.Items = filterThinking(t.Items)
	}
	for i := range t.Items {
		if t.Items[i].Action != nil {
			t.Items[i].Action = compactAction(t.Items[i].Action)
		}
	}
	return nil
}

func filterThinking(items []core.Item) []core.Item {
	out := make([]core.Item, 0, len(items))
	for _, item := range items {
		if !item.Thinking {
			out = append(out, item)
		}
	}
	return out
}

func compactAction(a *core.Action) *core.Action {
	out := *a
	out.Input = compactInput(a.Kind, a.Input)

	if a.Resolved && a.Result != nil {
		label := "output"
		if a.IsError {
			label = "error"
		}
		out.Result = lineSummary(label, core.Text(a.Result))
	}
	return &out
}

func compactInput(kind string, input map[string]any) map[string]any {
	var keys []string
	switch strings.ToLower(kind) {
	case "write", "slidewrite":
		keys = []string{"content"}
	case "edit", "slideedit", "str_replace_based_edit_tool":
		keys = []string{"old_string", "new_string", "old_str", "new_str", "file_text"}
	case "multiedit":
		keys = []string{"edits"}
	default:
		return input
	}

	out := maps.Clone(input)
	for _, key := range keys {
		summarizeMapField(out, key)
	}
	return out
}

// lineSummary returns a summary like "[output: 245 lines]" or "[error: 12 lines]".
func lineSummary(label, s string) string {
	n := countLines(s)
	if n == 1 {
		return fmt.Sprintf("[%s: 1 line]", label)
	}
	return fmt.Sprintf("[%s: %d lines]", label, n)
}

// summarizeMapField replaces a field in a map with a summary. Strings are
// summarized by line count, lists by length.
func summarizeMapField(m map[string]any, key string) {
	switch v := m[key].(type) {
	case string:
		m[key] = lineSummary(key, v)
	case []any:
		m[key] = fmt.Sprintf("[%s: %d]", key, len(v))
	}
}

// countLines returns the number of lines in s.
// An empty string has 0 lines. A string with no newline has 1 line.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n") + 1
	if strings.HasSuffix(s, "\n") {
		n--
	}
	return n
}
