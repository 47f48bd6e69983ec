package engine

import (
	"strings"

	"github.com/sonnes/sutradhar/core"
)

// Surface names a presentation area that a tool's output belongs to.
type Surface string

const (
	SurfaceSearch   Surface = "search"
	SurfaceMedia    Surface = "media"
	SurfaceBrowser  Surface = "browser"
	SurfaceFiles    Surface = "files"
	SurfaceTerminal Surface = "terminal"
	SurfaceEditor   Surface = "editor"
	SurfacePlan     Surface = "plan"
	SurfaceDeploy   Surface = "deploy"
	SurfaceSlides   Surface = "slides"
	SurfaceResult   Surface = "result"
)

var toolSurfaces = map[string]Surface{
	"web_search":       SurfaceSearch,
	"web_batch_search": SurfaceSearch,

	"generate_image":     SurfaceMedia,
	"generate_video":     SurfaceMedia,
	"read_remote_image":  SurfaceMedia,
	"image_search":       SurfaceMedia,
	"browser_use":        SurfaceBrowser,
	"web_visit":          SurfaceBrowser,
	"web_visit_compress": SurfaceBrowser,

	"LS": SurfaceFiles,

	"Bash":     SurfaceTerminal,
	"BashInit": SurfaceTerminal,
	"BashView": SurfaceTerminal,
	"BashStop": SurfaceTerminal,
	"BashKill": SurfaceTerminal,
	"ASTGrep":  SurfaceTerminal,
	"Grep":     SurfaceTerminal,
	"Glob":     SurfaceTerminal,

	"Read":                           SurfaceEditor,
	"Write":                          SurfaceEditor,
	"Edit":                           SurfaceEditor,
	"MultiEdit":                      SurfaceEditor,
	"apply_patch":                    SurfaceEditor,
	"codex_execute":                  SurfaceEditor,
	"codex_review":                   SurfaceEditor,
	"mcp_codex_execute":              SurfaceEditor,
	"mcp_codex_review":               SurfaceEditor,
	"mcp_codex-as-mcp_codex_execute": SurfaceEditor,
	"mcp_codex-as-mcp_codex_review":  SurfaceEditor,
	"mcp_claude_code":                SurfaceEditor,
	"str_replace_based_edit_tool":    SurfaceEditor,

	"TodoWrite": SurfacePlan,

	"register_deployment": SurfaceDeploy,

	"SlideEdit":         SurfaceSlides,
	"SlideWrite":        SurfaceSlides,
	"slide_apply_patch": SurfaceSlides,
}

// SurfaceFor returns the surface a tool's output is shown on. Every
// browser_* automation tool maps to the browser surface.
func SurfaceFor(tool string) (Surface, bool) {
	if s, ok := toolSurfaces[tool]; ok {
		return s, true
	}
	if strings.HasPrefix(tool, "browser_") {
		return SurfaceBrowser, true
	}
	return "", false
}

// actionEffects derives the presentation requests for one action item:
// activate its surface and, for editor tools, open the file it touched.
func actionEffects(item core.Item) []Effect {
	a := item.Action
	if a == nil {
		return nil
	}
	surface, ok := SurfaceFor(a.Kind)
	if !ok {
		return nil
	}
	out := []Effect{{
		Kind:    EffectActivateSurface,
		Surface: surface,
		ItemID:  item.ID,
		Tool:    a.Kind,
	}}
	if surface == SurfaceEditor {
		if path := resourcePath(a.Input); path != "" {
			out = append(out, Effect{Kind: EffectSetResource, Resource: path, Tool: a.Kind})
		}
	}
	return out
}

func resourcePath(input map[string]any) string {
	for _, key := range []string{"file_path", "file", "path"} {
		if s := core.StringField(input, key); s != "" {
			return s
		}
	}
	return ""
}
