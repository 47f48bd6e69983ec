package html

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/sonnes/sutradhar/core"
)

//go:embed templates/*.html
var content embed.FS

func funcMap() template.FuncMap {
	return template.FuncMap{
		"formatTime":     formatTime,
		"formatDuration": formatDuration,
		"formatNumber":   formatNumber,
		"relativeTime":   core.RelativeTime,
	}
}

// formatTime accepts time.Time or *time.Time so templates can pass either.
func formatTime(v any) string {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format("Jan 2, 2006 3:04 PM")
	case *time.Time:
		if t == nil {
			return ""
		}
		return formatTime(*t)
	default:
		return ""
	}
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

// toolIcon returns a small inline glyph for a tool, keyed by the surface the
// tool belongs to.
func toolIcon(kind string) template.HTML {
	k := strings.ToLower(kind)
	var glyph string
	switch {
	case k == "bash" || strings.HasPrefix(k, "bash"):
		glyph = "&#9002;" // shell prompt
	case k == "read" || k == "ls" || k == "glob" || k == "astgrep":
		glyph = "&#128196;"
	case k == "write" || k == "edit" || k == "multiedit" || strings.Contains(k, "edit") || strings.Contains(k, "patch"):
		glyph = "&#9998;"
	case strings.HasPrefix(k, "web_") || k == "image_search":
		glyph = "&#128269;"
	case strings.HasPrefix(k, "browser"):
		glyph = "&#127760;"
	case strings.HasPrefix(k, "generate_") || k == "read_remote_image":
		glyph = "&#127912;"
	case k == "task" || strings.HasPrefix(k, "sub_agent"):
		glyph = "&#129302;"
	case k == "register_deployment":
		glyph = "&#128640;"
	default:
		glyph = "&#9881;"
	}
	return template.HTML(`<span class="text-xs" aria-hidden="true">` + glyph + `</span>`)
}
