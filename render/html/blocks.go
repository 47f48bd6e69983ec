package html

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"github.com/sonnes/sutradhar/core"
	"github.com/yuin/goldmark"
)

// renderItem dispatches to the appropriate body renderer for an item.
func renderItem(md goldmark.Markdown, item core.Item) (template.HTML, error) {
	var body template.HTML
	var err error

	switch {
	case item.Thinking:
		body = renderThinking(item.Content)
	case item.Action != nil:
		body, err = renderAction(md, item.Action)
	case item.Role == core.RoleUser:
		body = renderPlain(item.Content)
	default:
		body, err = renderMarkdown(md, item.Content)
	}
	if err != nil {
		return "", err
	}

	return body + renderAttachments(item.Attachments), nil
}

func renderMarkdown(md goldmark.Markdown, text string) (template.HTML, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("goldmark convert: %w", err)
	}
	return template.HTML(`<div class="prose dark:prose-invert max-w-none">` + buf.String() + `</div>`), nil
}

func renderPlain(text string) template.HTML {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	escaped := template.HTMLEscapeString(text)
	return template.HTML(`<p class="whitespace-pre-wrap text-sm">` + escaped + `</p>`)
}

func renderThinking(text string) template.HTML {
	escaped := template.HTMLEscapeString(text)
	h := `<details class="group">` +
		`<summary class="text-xs font-medium text-slate-400 dark:text-slate-500 cursor-pointer select-none">Thinking…</summary>` +
		`<pre class="mt-2 text-xs text-slate-500 dark:text-slate-400 whitespace-pre-wrap bg-slate-50 dark:bg-slate-900 rounded p-3 max-h-96 overflow-y-auto">` + escaped + `</pre>` +
		`</details>`
	return template.HTML(h)
}

func renderAction(md goldmark.Markdown, a *core.Action) (template.HTML, error) {
	inputJSON := formatToolInput(a.Input)

	var inputHTML string
	if inputJSON != "" {
		var buf bytes.Buffer
		fenced := "```json\n" + inputJSON + "\n```"
		if err := md.Convert([]byte(fenced), &buf); err != nil {
			inputHTML = `<pre class="px-4 py-3 text-xs font-mono overflow-x-auto">` + template.HTMLEscapeString(inputJSON) + `</pre>`
		} else {
			inputHTML = `<div class="px-4 py-3 text-xs overflow-x-auto">` + buf.String() + `</div>`
		}
	}

	var resultHTML string
	if a.Resolved {
		errorClass, textClass := "", ""
		if a.IsError {
			errorClass = " bg-red-50 dark:bg-red-950"
			textClass = " text-red-700 dark:text-red-400"
		}
		if text := core.Text(a.Result); text != "" {
			resultHTML = `<div class="border-t border-slate-200 dark:border-slate-700` + errorClass + `">` +
				`<pre class="px-4 py-3 text-xs font-mono overflow-x-auto max-h-96 overflow-y-auto` + textClass + `">` + template.HTMLEscapeString(text) + `</pre>` +
				`</div>`
		}
	} else {
		resultHTML = `<div class="border-t border-slate-200 dark:border-slate-700 px-4 py-2 text-xs italic text-amber-600 dark:text-amber-400">Running…</div>`
	}

	name := a.DisplayName
	if name == "" {
		name = a.Kind
	}
	h := `<div class="bg-slate-50 dark:bg-slate-900 border border-slate-200 dark:border-slate-700 rounded-lg overflow-hidden">` +
		`<div class="px-4 py-2 border-b border-slate-200 dark:border-slate-700 flex items-center gap-2 text-slate-900 dark:text-white">` +
		string(toolIcon(a.Kind)) +
		`<span class="text-xs font-semibold font-mono">` + template.HTMLEscapeString(name) + `</span>` +
		`</div>` +
		inputHTML +
		resultHTML +
		`</div>`
	return template.HTML(h), nil
}

func renderAttachments(atts []core.Attachment) template.HTML {
	if len(atts) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(`<ul class="mt-2 flex flex-wrap gap-2">`)
	for _, a := range atts {
		label := a.Name
		if label == "" {
			label = a.URL
		}
		b.WriteString(`<li><a href="` + template.HTMLEscapeString(a.URL) + `" class="text-xs font-medium text-indigo-600 dark:text-indigo-400 hover:underline">&#128206; ` +
			template.HTMLEscapeString(label) + `</a></li>`)
	}
	b.WriteString(`</ul>`)
	return template.HTML(b.String())
}

func formatToolInput(input map[string]any) string {
	if len(input) == 0 {
		return ""
	}
	data, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", input)
	}
	return string(data)
}
