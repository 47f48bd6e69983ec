package terminal

import (
	"fmt"
	"strings"

	"github.com/sonnes/sutradhar/core"
)

// Summarize produces a compact one-liner like "[bash: git status]".
func Summarize(a *core.Action) string {
	name := strings.ToLower(a.Kind)
	summary := extractToolSummary(name, a.Input)
	if summary == "" {
		return fmt.Sprintf("[%s]", name)
	}
	return fmt.Sprintf("[%s: %s]", name, summary)
}

// extractToolSummary extracts the most relevant field from the tool input.
func extractToolSummary(name string, input map[string]any) string {
	if input == nil {
		return ""
	}

	switch name {
	case "bash":
		return core.StringField(input, "command")
	case "read", "write", "edit", "multiedit":
		return core.StringField(input, "file_path")
	case "glob", "grep", "astgrep":
		return core.StringField(input, "pattern")
	case "task":
		return core.StringField(input, "description")
	case "sequential_thinking":
		return core.StringField(input, "thought")
	default:
		for _, key := range []string{"command", "file_path", "path", "pattern", "query", "url", "task", "prompt"} {
			if v := core.StringField(input, key); v != "" {
				return v
			}
		}
		return ""
	}
}
