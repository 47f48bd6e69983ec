// Package json renders transcript snapshots as JSON, serializing the core
// model as-is.
package json

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/sonnes/sutradhar/core"
)

// Renderer renders a transcript to JSON.
type Renderer struct {
	// Indent controls pretty-printing. When true, output is indented.
	Indent bool
}

// Render writes t to w as a single JSON document followed by a newline.
func (r *Renderer) Render(w io.Writer, t *core.Transcript) error {
	return r.encode(w, t)
}

// RenderIndex writes the manifest entries to w as a JSON array.
func (r *Renderer) RenderIndex(w io.Writer, entries []core.ManifestEntry) error {
	if entries == nil {
		entries = []core.ManifestEntry{}
	}
	return r.encode(w, entries)
}

func (r *Renderer) encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if r.Indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
