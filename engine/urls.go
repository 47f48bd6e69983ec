package engine

import (
	"net/url"
	"regexp"
	"strings"
)

// markdownOrBareURL matches a markdown link target or a bare http(s) URL.
var markdownOrBareURL = regexp.MustCompile(`\[.*?\]\((https?://[^\s)]+)\)|(https?://[^\s)]+)`)

// ExtractURLs returns every http(s) URL in text, in order of appearance.
// Markdown emphasis and trailing sentence punctuation are trimmed.
func ExtractURLs(text string) []string {
	if text == "" {
		return nil
	}
	var out []string
	for _, m := range markdownOrBareURL.FindAllStringSubmatch(text, -1) {
		u := m[1]
		if u == "" {
			u = m[2]
		}
		u = strings.TrimRight(u, "*_")
		u = strings.TrimRight(u, ".,)")
		if u != "" {
			out = append(out, u)
		}
	}
	return out
}

// hostOf returns the lower-cased host of raw, or "" when raw does not parse.
func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
