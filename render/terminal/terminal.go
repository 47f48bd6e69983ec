// Package terminal renders transcripts as ANSI-colored message cards, with
// sub-agent flow drawn as indented, railed sections.
package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/term"
	"github.com/sonnes/sutradhar/core"
)

const defaultWidth = 100

// Renderer pretty-prints a transcript as message cards to the terminal.
type Renderer struct {
	// Width overrides terminal width detection. Zero means auto-detect.
	Width int
	// NoHeader skips the title block, for incremental output while following.
	NoHeader bool
}

// New creates a terminal Renderer.
func New() *Renderer {
	return &Renderer{}
}

// Render writes the transcript as ANSI-colored message cards to w.
func (r *Renderer) Render(w io.Writer, t *core.Transcript) error {
	width := r.termWidth()

	if !r.NoHeader {
		writeHeader(w, t)
	}

	var prev *time.Time
	for _, g := range core.GroupByAgent(t.Items) {
		indent := 0
		if g.IsSubagent() {
			indent = g.Agent.NestingLevel
			writeAgentHeader(w, *g.Agent, width)
		}
		for _, item := range g.Items {
			var duration string
			if !item.Timestamp.IsZero() {
				if prev != nil {
					duration = formatDuration(item.Timestamp.Sub(*prev))
				}
				ts := item.Timestamp
				prev = &ts
			}
			writeItem(w, item, duration, width, indent)
		}
	}

	fmt.Fprintln(w)
	return nil
}

// RenderItems writes cards for items without a header, for appending to a
// stream already on screen.
func (r *Renderer) RenderItems(w io.Writer, items []core.Item) error {
	width := r.termWidth()
	for _, item := range items {
		indent := 0
		if item.Agent != nil && item.Agent.IsSubagent() {
			indent = item.Agent.NestingLevel
		}
		writeItem(w, item, "", width, indent)
	}
	return nil
}

func (r *Renderer) termWidth() int {
	if r.Width > 0 {
		return r.Width
	}
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w
	}
	return defaultWidth
}

// writeHeader renders the session metadata block.
func writeHeader(w io.Writer, t *core.Transcript) {
	// Row 1: Title + diff stats
	title := t.Title
	if title == "" && t.SessionID != "" {
		title = "Session " + t.SessionID
	}
	row1 := styleTitle.Render(title)
	if t.DiffStats != nil {
		var stats []string
		if t.DiffStats.Added > 0 {
			stats = append(stats, styleAdded.Render(fmt.Sprintf("+%s", formatNumber(t.DiffStats.Added))))
		}
		if t.DiffStats.Changed > 0 {
			stats = append(stats, styleChanged.Render(fmt.Sprintf("~%s", formatNumber(t.DiffStats.Changed))))
		}
		if t.DiffStats.Removed > 0 {
			stats = append(stats, styleRemoved.Render(fmt.Sprintf("-%s", formatNumber(t.DiffStats.Removed))))
		}
		if len(stats) > 0 {
			row1 += "  " + strings.Join(stats, " ")
		}
	}
	fmt.Fprintln(w, row1)

	// Row 2: relative_time  agents  items
	var parts []string
	if !t.CreatedAt.IsZero() {
		parts = append(parts, core.RelativeTime(t.CreatedAt))
	}
	if n := len(t.Agents); n > 1 {
		parts = append(parts, fmt.Sprintf("%d agents", n))
	}
	parts = append(parts, plural(len(t.Items), "item"))
	fmt.Fprintln(w, styleMeta.Render(strings.Join(parts, "  ")))
}

// writeAgentHeader opens a sub-agent section: name, status and duration.
func writeAgentHeader(w io.Writer, a core.AgentContext, width int) {
	pad := strings.Repeat("  ", max(a.NestingLevel-1, 0))
	name := a.AgentName
	if name == "" {
		name = a.AgentID
	}

	line := styleAgent.Render("◆ " + name)
	meta := []string{string(a.Status)}
	if a.Status == core.StatusRunning {
		meta[0] = stylePending.Render("running")
	}
	if d := a.Duration(); d > 0 {
		meta = append(meta, formatDuration(d))
	}
	line += "  " + styleMeta.Render(strings.Join(meta, "  "))

	writeSeparator(w, width)
	fmt.Fprintln(w)
	fmt.Fprintln(w, pad+line)
}

// writeSeparator renders a horizontal rule.
func writeSeparator(w io.Writer, width int) {
	n := min(width, 72)
	fmt.Fprintln(w)
	fmt.Fprintln(w, styleSeparator.Render(strings.Repeat("─", n)))
}

// writeItem renders a single card: role badge, metadata, body lines. Items
// nested under a sub-agent are indented and drawn against a rail.
func writeItem(w io.Writer, item core.Item, duration string, width, indent int) bool {
	prefix := ""
	if indent > 0 {
		prefix = strings.Repeat("  ", indent-1) + styleAgentRail.Render("│") + " "
	}
	contentWidth := max(width-4-lipgloss.Width(prefix), 40)

	lines := itemLines(item, contentWidth)
	if len(lines) == 0 {
		return false
	}

	if indent == 0 {
		writeSeparator(w, width)
	}

	header := roleBadge(item.Role)
	var metaParts []string
	if !item.Timestamp.IsZero() {
		metaParts = append(metaParts, formatTime(item.Timestamp))
	}
	if duration != "" {
		metaParts = append(metaParts, duration)
	}
	if len(metaParts) > 0 {
		header += "    " + styleMeta.Render(strings.Join(metaParts, "    "))
	}
	fmt.Fprintln(w, prefix)
	fmt.Fprintln(w, prefix+" "+header)

	for _, line := range lines {
		fmt.Fprintln(w, prefix+"  "+line)
	}
	return true
}

func itemLines(item core.Item, width int) []string {
	var lines []string

	switch {
	case item.Thinking:
		lines = append(lines, styleThinking.Render("▸ Thinking..."))
	case item.Action != nil:
		lines = append(lines, actionLines(item.Action, width)...)
	default:
		if text := strings.TrimSpace(item.Content); text != "" {
			lines = append(lines, truncate(text, width))
		}
	}

	for _, a := range item.Attachments {
		label := a.Name
		if label == "" {
			label = a.URL
		}
		lines = append(lines, styleToolDetail.Render(truncate("📎 "+label, width)))
	}
	return lines
}

func actionLines(a *core.Action, width int) []string {
	name := a.DisplayName
	if name == "" {
		name = a.Kind
	}
	if name == "" {
		name = "tool"
	}

	summary := extractToolSummary(strings.ToLower(a.Kind), a.Input)
	toolLine := styleToolName.Render("⚙ " + name)
	if summary != "" {
		nameWidth := lipgloss.Width("⚙ " + name + "  ")
		toolLine += "  " + styleToolDetail.Render(truncate(summary, width-nameWidth))
	}
	lines := []string{toolLine}

	if !a.Resolved {
		return append(lines, stylePending.Render("  … running"))
	}
	if result := strings.TrimSpace(core.Text(a.Result)); result != "" {
		style := styleToolDetail
		if a.IsError {
			style = styleRemoved
		}
		lines = append(lines, style.Render("  → "+truncate(result, width-4)))
	}
	return lines
}

func roleBadge(role core.Role) string {
	label := strings.ToUpper(string(role))
	switch role {
	case core.RoleUser:
		return styleUserBadge.Render(label)
	case core.RoleAssistant:
		return styleAssistantBadge.Render(label)
	case core.RoleSystem:
		return styleSystemBadge.Render(label)
	default:
		return styleMeta.Render(label)
	}
}

// truncate shortens text to maxWidth cells, appending "..." if needed.
// Multi-line text is reduced to the first line.
func truncate(s string, maxWidth int) string {
	if maxWidth < 4 {
		maxWidth = 4
	}
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return ansi.Truncate(strings.TrimSpace(s), maxWidth, "...")
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// Format helpers, mirrored from render/html/funcs.go.

func formatTime(t time.Time) string {
	return t.Format("Jan 2, 2006 3:04 PM")
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	case m > 0 && s > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

func formatNumber(n int) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return formatNumber(n/1000) + "," + fmt.Sprintf("%03d", n%1000)
}
