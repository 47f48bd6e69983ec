package redact

import (
	"regexp"
	"sort"

	"github.com/sonnes/sutradhar/config"
	"github.com/sonnes/sutradhar/core"
)

// Config controls which rules the Redactor applies.
type Config struct {
	Secrets    bool
	PII        bool
	ExtraRules []Rule
	Allowlist  []string // regex patterns to skip
}

// FromSettings builds a Config from the YAML redact section.
func FromSettings(s config.Redact) Config {
	return Config{Secrets: s.Secrets, PII: s.PII, Allowlist: s.Allowlist}
}

// Redactor applies redaction rules to all string content in a Transcript.
type Redactor struct {
	rules     []Rule
	allowlist []*regexp.Regexp
}

// New creates a Redactor from the given config.
func New(cfg Config) *Redactor {
	var rules []Rule
	if cfg.Secrets {
		rules = append(rules, SecretRules()...)
	}
	if cfg.PII {
		rules = append(rules, PIIRules()...)
	}
	rules = append(rules, cfg.ExtraRules...)

	allowlist := make([]*regexp.Regexp, 0, len(cfg.Allowlist))
	for _, pattern := range cfg.Allowlist {
		if re, err := regexp.Compile(pattern); err == nil {
			allowlist = append(allowlist, re)
		}
	}

	return &Redactor{rules: rules, allowlist: allowlist}
}

// Transform implements core.Transformer. It scrubs item text, action
// inputs and results, attachments and the title. An action with anything to
// scrub is replaced with a redacted copy; the snapshot's source maps are
// never written.
func (r *Redactor) Transform(t *core.Transcript) error {
	if len(r.rules) == 0 {
		return nil
	}
	t.Title = r.redactString(t.Title)
	for i := range t.Items {
		r.redactItem(&t.Items[i])
	}
	return nil
}

func (r *Redactor) redactItem(item *core.Item) {
	item.Content = r.redactString(item.Content)

	if item.Action != nil {
		in, inChanged := walkAny(item.Action.Input, r.redactString)
		result, resultChanged := walkAny(item.Action.Result, r.redactString)
		if inChanged || resultChanged {
			a := *item.Action
			a.Input, _ = in.(map[string]any)
			a.Result = result
			item.Action = &a
		}
	}

	if len(item.Attachments) > 0 {
		atts := make([]core.Attachment, len(item.Attachments))
		for i, att := range item.Attachments {
			atts[i] = core.Attachment{Name: r.redactString(att.Name), URL: r.redactString(att.URL)}
		}
		item.Attachments = atts
	}
}

// redactString applies all rules to s. Overlapping matches resolve to
// earliest start, then longest. Allowlisted values are skipped.
func (r *Redactor) redactString(s string) string {
	if len(s) == 0 {
		return s
	}

	type replacement struct {
		start int
		end   int
		text  string
	}

	var reps []replacement
	for _, rule := range r.rules {
		for _, m := range rule.Detect(s) {
			if r.isAllowed(m.Value) {
				continue
			}
			reps = append(reps, replacement{
				start: m.Start,
				end:   m.End,
				text:  rule.Replacement(m),
			})
		}
	}

	if len(reps) == 0 {
		return s
	}

	// Sort by start position, then longest match first for ties.
	sort.Slice(reps, func(i, j int) bool {
		if reps[i].start != reps[j].start {
			return reps[i].start < reps[j].start
		}
		return reps[i].end > reps[j].end
	})

	// Apply non-overlapping replacements.
	var result []byte
	pos := 0
	for _, rep := range reps {
		if rep.start < pos {
			continue // overlaps with a previous replacement
		}
		result = append(result, s[pos:rep.start]...)
		result = append(result, rep.text...)
		pos = rep.end
	}
	result = append(result, s[pos:]...)
	return string(result)
}

func (r *Redactor) isAllowed(value string) bool {
	for _, re := range r.allowlist {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}
