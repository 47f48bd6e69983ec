// Package html renders transcripts as standalone HTML pages styled with
// Tailwind CSS v4 (CDN) and syntax highlighting via goldmark + chroma.
package html

import (
	"fmt"
	"html/template"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/sonnes/sutradhar/core"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
)

// Renderer renders a transcript to a standalone HTML page.
type Renderer struct {
	md   goldmark.Markdown
	tmpl *template.Template

	// FeedURL, when non-nil, returns the websocket URL the page subscribes to
	// for live updates. Static renders leave it nil.
	FeedURL func(sessionID string) string
}

// New creates an HTML Renderer with goldmark configured for GFM and syntax highlighting.
func New() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("dracula"),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(false), // inline styles for standalone pages
				),
			),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithUnsafe(),
		),
	)

	tmpl := template.Must(
		template.New("page.html").
			Funcs(funcMap()).
			ParseFS(content, "templates/*.html"),
	)

	return &Renderer{md: md, tmpl: tmpl}
}

// pageData is the top-level template data passed to page.html.
type pageData struct {
	Transcript      *core.Transcript
	Groups          []groupData
	OverallDuration string
	FeedURL         string
}

// groupData is one agent section: the main flow or a nested sub-agent.
type groupData struct {
	Subagent bool
	Label    string
	Status   string
	Duration string
	Indent   int // left margin steps, one per nesting level
	Items    []itemData
}

// itemData is the per-item template data.
type itemData struct {
	ID          string // anchor for timeline links
	RoleLabel   string
	BorderClass string
	BadgeClass  string
	DotClass    string
	Timestamp   time.Time
	Duration    string // time since previous item
	Summary     string // short description for the timeline sidebar
	Body        template.HTML
}

// indexData is the template data passed to index.html.
type indexData struct {
	Entries []core.ManifestEntry
}

// RenderIndex writes an HTML index page listing the given sessions to w,
// newest first.
func (r *Renderer) RenderIndex(w io.Writer, entries []core.ManifestEntry) error {
	sorted := make([]core.ManifestEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	return r.tmpl.ExecuteTemplate(w, "index.html", indexData{Entries: sorted})
}

// Render writes the transcript as a complete HTML page to w.
func (r *Renderer) Render(w io.Writer, t *core.Transcript) error {
	var prev time.Time
	var groups []groupData

	for _, g := range core.GroupByAgent(t.Items) {
		gd := groupData{Subagent: g.IsSubagent()}
		if gd.Subagent {
			gd.Label = g.Agent.AgentName
			if gd.Label == "" {
				gd.Label = g.Agent.AgentID
			}
			gd.Status = string(g.Agent.Status)
			if d := g.Agent.Duration(); d > 0 {
				gd.Duration = formatDuration(d)
			}
			gd.Indent = g.Agent.NestingLevel
		}

		for _, item := range g.Items {
			body, err := renderItem(r.md, item)
			if err != nil {
				return fmt.Errorf("render item %s: %w", item.ID, err)
			}
			if body == "" {
				continue
			}

			id := itemData{
				ID:          "item-" + item.ID,
				RoleLabel:   roleLabel(item.Role),
				BorderClass: borderClass(item.Role),
				BadgeClass:  badgeClass(item.Role),
				DotClass:    dotClass(item.Role),
				Timestamp:   item.Timestamp,
				Summary:     itemSummary(item),
				Body:        body,
			}
			if !item.Timestamp.IsZero() {
				if !prev.IsZero() {
					id.Duration = formatDuration(item.Timestamp.Sub(prev))
				}
				prev = item.Timestamp
			}
			gd.Items = append(gd.Items, id)
		}

		if len(gd.Items) > 0 {
			groups = append(groups, gd)
		}
	}

	data := pageData{Transcript: t, Groups: groups}
	if t.UpdatedAt != nil && !t.CreatedAt.IsZero() {
		data.OverallDuration = formatDuration(t.UpdatedAt.Sub(t.CreatedAt))
	}
	if r.FeedURL != nil {
		data.FeedURL = r.FeedURL(t.SessionID)
	}
	return r.tmpl.ExecuteTemplate(w, "page.html", data)
}

func roleLabel(role core.Role) string {
	switch role {
	case core.RoleUser:
		return "User"
	case core.RoleAssistant:
		return "Assistant"
	case core.RoleSystem:
		return "System"
	default:
		return string(role)
	}
}

func borderClass(role core.Role) string {
	switch role {
	case core.RoleUser:
		return "border-l-4 border-l-blue-500"
	case core.RoleAssistant:
		return "border-l-4 border-l-emerald-500"
	case core.RoleSystem:
		return "border-l-4 border-l-slate-400"
	default:
		return ""
	}
}

func badgeClass(role core.Role) string {
	switch role {
	case core.RoleUser:
		return "text-blue-700 dark:text-blue-400 bg-blue-50 dark:bg-blue-950"
	case core.RoleAssistant:
		return "text-emerald-700 dark:text-emerald-400 bg-emerald-50 dark:bg-emerald-950"
	case core.RoleSystem:
		return "text-slate-600 dark:text-slate-400 bg-slate-100 dark:bg-slate-800"
	default:
		return ""
	}
}

func dotClass(role core.Role) string {
	switch role {
	case core.RoleUser:
		return "bg-blue-500"
	case core.RoleAssistant:
		return "bg-emerald-500"
	case core.RoleSystem:
		return "bg-slate-400"
	default:
		return "bg-slate-300"
	}
}

// itemSummary returns a short description for the timeline.
func itemSummary(item core.Item) string {
	switch {
	case item.Thinking:
		return "Thinking"
	case item.Action != nil:
		if item.Action.DisplayName != "" {
			return item.Action.DisplayName
		}
		return item.Action.Kind
	}
	text := strings.TrimSpace(item.Content)
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	if r := []rune(text); len(r) > 50 {
		text = string(r[:47]) + "..."
	}
	return text
}
