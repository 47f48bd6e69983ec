package redact

import (
	"maps"
	"slices"
)

// maxWalkDepth bounds recursion into tool inputs and results.
const maxWalkDepth = 16

// walkAny applies fn to every string leaf in v. Containers are copied only
// along paths where a leaf changed; otherwise v itself is returned and
// changed is false.
func walkAny(v any, fn func(string) string) (out any, changed bool) {
	return walkDepth(v, fn, 0)
}

func walkDepth(v any, fn func(string) string, depth int) (any, bool) {
	if depth > maxWalkDepth {
		return v, false
	}
	switch val := v.(type) {
	case string:
		s := fn(val)
		return s, s != val
	case map[string]any:
		var out map[string]any
		for k, child := range val {
			next, ok := walkDepth(child, fn, depth+1)
			if !ok {
				continue
			}
			if out == nil {
				out = maps.Clone(val)
			}
			out[k] = next
		}
		if out == nil {
			return v, false
		}
		return out, true
	case []any:
		var out []any
		for i, child := range val {
			next, ok := walkDepth(child, fn, depth+1)
			if !ok {
				continue
			}
			if out == nil {
				out = slices.Clone(val)
			}
			out[i] = next
		}
		if out == nil {
			return v, false
		}
		return out, true
	case []string:
		var out []string
		for i, s := range val {
			r := fn(s)
			if r == s {
				continue
			}
			if out == nil {
				out = slices.Clone(val)
			}
			out[i] = r
		}
		if out == nil {
			return v, false
		}
		return out, true
	default:
		return v, false
	}
}
