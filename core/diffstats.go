package core

import (
	"fmt"
	"strings"
	"time"
)

// ComputeDiffStats walks the file-writing actions in the transcript and
// computes aggregate line-level diff statistics. Unresolved calls count too:
// the edit was requested even if its result has not arrived. Must run before
// the compact transformer, which rewrites tool inputs.
func ComputeDiffStats(t *Transcript) *DiffStats {
	files := make(map[string]bool)
	var added, removed int

	for _, item := range t.Items {
		if item.Action == nil || item.Action.Input == nil {
			continue
		}
		in := item.Action.Input
		path := firstString(in, "file_path", "path", "file")

		switch strings.ToLower(item.Action.Kind) {
		case "write", "slidewrite":
			if path != "" {
				files[path] = true
			}
			added += countLines(firstString(in, "content", "file_text"))
		case "edit", "slideedit", "str_replace_based_edit_tool":
			if path != "" {
				files[path] = true
			}
			removed += countLines(firstString(in, "old_string", "old_str"))
			added += countLines(firstString(in, "new_string", "new_str"))
		case "multiedit":
			if path != "" {
				files[path] = true
			}
			edits, _ := in["edits"].([]any)
			for _, e := range edits {
				m, ok := e.(map[string]any)
				if !ok {
					continue
				}
				removed += countLines(StringField(m, "old_string"))
				added += countLines(StringField(m, "new_string"))
			}
		}
	}

	if added == 0 && removed == 0 && len(files) == 0 {
		return nil
	}

	return &DiffStats{
		Added:   added,
		Removed: removed,
		Changed: len(files),
	}
}

// RelativeTime formats a time.Time as a human-readable relative string.
func RelativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dw ago", int(d.Hours()/(24*7)))
	case d < 365*24*time.Hour:
		return fmt.Sprintf("%dmo ago", int(d.Hours()/(24*30)))
	default:
		return fmt.Sprintf("%dy ago", int(d.Hours()/(24*365)))
	}
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := StringField(m, k); s != "" {
			return s
		}
	}
	return ""
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
