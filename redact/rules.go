// Package redact scrubs secrets and PII from transcript snapshots before
// they are rendered, served or exported.
package redact

import (
	"fmt"
	"regexp"
	"slices"
)

// Rule detects sensitive data in a string and provides a replacement.
type Rule interface {
	Name() string
	Kind() string
	Detect(s string) []Match
	Replacement(m Match) string
}

// Match represents a detected occurrence within a string.
type Match struct {
	Start int
	End   int
	Value string
}

type regexRule struct {
	name    string
	kind    string
	pattern *regexp.Regexp
}

func (r *regexRule) Name() string { return r.name }
func (r *regexRule) Kind() string { return r.kind }

func (r *regexRule) Detect(s string) []Match {
	locs := r.pattern.FindAllStringIndex(s, -1)
	matches := make([]Match, len(locs))
	for i, loc := range locs {
		matches[i] = Match{Start: loc[0], End: loc[1], Value: s[loc[0]:loc[1]]}
	}
	return matches
}

func (r *regexRule) Replacement(_ Match) string {
	return fmt.Sprintf("[REDACTED:%s]", r.name)
}

// pattern is one row of a rule table.
type pattern struct {
	name string
	expr string
}

// Agent sessions leak credentials mostly through shell commands, env dumps
// and sandbox or deploy links, so provider keys come first.
var secretPatterns = []pattern{
	{"aws_key", `AKIA[0-9A-Z]{16}`},
	{"api_key", `(?:sk-[a-zA-Z0-9]{32,}|ghp_[a-zA-Z0-9]{36,}|gho_[a-zA-Z0-9]{36,}|glpat-[a-zA-Z0-9\-]{20,})`},
	{"anthropic_key", `sk-ant-[A-Za-z0-9\-_]{20,}`},
	{"e2b_key", `e2b_[0-9a-f]{40}`},
	{"bearer_token", `(?i)bearer\s+[A-Za-z0-9\-._~+/]{16,}=*`},
	{"private_key", `-----BEGIN [A-Z ]+PRIVATE KEY-----`},
	{"connection_string", `(?:postgres|mongodb|mysql|redis)://[^\s"'` + "`" + `]+`},
	{"url_credentials", `https?://[^\s:/@"'` + "`" + `]+:[^\s@/"'` + "`" + `]+@`},
	{"jwt", `eyJ[A-Za-z0-9\-_]+\.eyJ[A-Za-z0-9\-_]+\.[A-Za-z0-9\-_.+/=]+`},
}

var piiPatterns = []pattern{
	{"email", `[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`},
	{"ipv4", `\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`},
	{"phone", `(?:\+\d{1,3}[\s\-]?)?\(?\d{3}\)?[\s\-]?\d{3}[\s\-]?\d{4}`},
}

var (
	secretRules = compile("secret", secretPatterns)
	piiRules    = compile("pii", piiPatterns)
)

func compile(kind string, table []pattern) []Rule {
	rules := make([]Rule, len(table))
	for i, p := range table {
		rules[i] = &regexRule{name: p.name, kind: kind, pattern: regexp.MustCompile(p.expr)}
	}
	return rules
}

// SecretRules returns the built-in secret detection rules.
func SecretRules() []Rule {
	return slices.Clone(secretRules)
}

// PIIRules returns the built-in PII detection rules.
func PIIRules() []Rule {
	return slices.Clone(piiRules)
}
