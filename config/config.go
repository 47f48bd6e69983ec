// Package config holds the engine settings that describe the agent backend's
// conventions: which tools delegate to nested agents and which phrases signal
// that a delegation finished.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultMainAgentID is the id of the root agent context.
const DefaultMainAgentID = "main-agent"

// Delegation lists the tool identifiers that run a nested agent.
type Delegation struct {
	Tools    []string `yaml:"tools"`
	Prefixes []string `yaml:"prefixes"`
}

// Markers lists text fragments that signal a finished delegation. Result
// markers are searched in tool results, response markers in agent responses.
type Markers struct {
	Result   []string `yaml:"result"`
	Response []string `yaml:"response"`
}

// Config holds all configurable engine parameters.
type Config struct {
	MainAgentID string     `yaml:"main_agent_id"`
	Delegation  Delegation `yaml:"delegation"`
	Markers     Markers    `yaml:"completion_markers"`
	// SandboxHosts are host fragments identifying sandbox preview links in
	// agent responses; a match becomes the session's result URL.
	SandboxHosts []string `yaml:"sandbox_hosts"`
	Redact       Redact   `yaml:"redact"`
}

// Redact selects the scrubbing applied to snapshots before they are
// rendered or served.
type Redact struct {
	Secrets   bool     `yaml:"secrets"`
	PII       bool     `yaml:"pii"`
	Allowlist []string `yaml:"allowlist"` // regex patterns left untouched
}

// DefaultConfig returns the built-in settings matching the agent backend.
func DefaultConfig() *Config {
	return &Config{
		MainAgentID: DefaultMainAgentID,
		Delegation: Delegation{
			Tools: []string{
				"sub_agent",
				"sub_agent_researcher",
				"design_document_agent",
				"Task",
				"codex_agent",
			},
			Prefixes: []string{"sub_agent"},
		},
		Markers: Markers{
			Result:   []string{"Task completed", "Sub agent completed", "task is complete"},
			Response: []string{"Sub agent completed"},
		},
		SandboxHosts: []string{"e2b"},
	}
}

// LoadConfig loads configuration from a YAML file.
// Empty path falls back to ~/.sutradhar/config.yaml.
// Missing file returns defaults. Invalid YAML returns an error.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return DefaultConfig(), nil
		}
		path = filepath.Join(home, ".sutradhar", "config.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Start with defaults, YAML overwrites only specified fields.
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot work with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.MainAgentID) == "" {
		return fmt.Errorf("main_agent_id must not be empty")
	}
	for _, m := range append(append([]string{}, c.Markers.Result...), c.Markers.Response...) {
		if strings.TrimSpace(m) == "" {
			return fmt.Errorf("completion markers must not be empty")
		}
	}
	for _, p := range c.Delegation.Prefixes {
		if p == "" {
			return fmt.Errorf("delegation prefixes must not be empty")
		}
	}
	for _, pattern := range c.Redact.Allowlist {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("redact allowlist %q: %w", pattern, err)
		}
	}
	return nil
}

// IsDelegation reports whether tool runs a nested agent.
func (c *Config) IsDelegation(tool string) bool {
	if tool == "" {
		return false
	}
	for _, t := range c.Delegation.Tools {
		if t == tool {
			return true
		}
	}
	for _, p := range c.Delegation.Prefixes {
		if strings.HasPrefix(tool, p) {
			return true
		}
	}
	return false
}

// HasResultMarker reports whether a tool result text signals completion.
func (c *Config) HasResultMarker(text string) bool {
	return containsAny(text, c.Markers.Result)
}

// HasResponseMarker reports whether an agent response signals completion.
func (c *Config) HasResponseMarker(text string) bool {
	return containsAny(text, c.Markers.Response)
}

// IsSandboxHost reports whether host belongs to a sandbox preview.
func (c *Config) IsSandboxHost(host string) bool {
	return containsAny(host, c.SandboxHosts)
}

func containsAny(s string, needles []string) bool {
	if s == "" {
		return false
	}
	for _, n := range needles {
		if n != "" && strings.Contains(s, n) {
			return true
		}
	}
	return false
}
