package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValues(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "main-agent", cfg.MainAgentID)
	assert.Contains(t, cfg.Delegation.Tools, "sub_agent_researcher")
	assert.Contains(t, cfg.Markers.Result, "task is complete")
	assert.Equal(t, []string{"Sub agent completed"}, cfg.Markers.Response)
	require.NoError(t, cfg.Validate())
}

func TestIsDelegation(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		tool string
		want bool
	}{
		{"sub_agent", true},
		{"sub_agent_researcher", true},
		{"design_document_agent", true},
		{"Task", true},
		{"codex_agent", true},
		{"sub_agent_custom_namespace", true},
		{"task", false},
		{"Read", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.IsDelegation(tt.tool))
		})
	}
}

func TestMarkers(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.HasResultMarker("ok. Task completed successfully"))
	assert.True(t, cfg.HasResultMarker(`{"status":"the task is complete"}`))
	assert.False(t, cfg.HasResultMarker("task completed")) // case sensitive
	assert.False(t, cfg.HasResultMarker(""))

	assert.True(t, cfg.HasResponseMarker("Sub agent completed"))
	assert.True(t, cfg.HasResponseMarker("note: Sub agent completed, resuming"))
	assert.False(t, cfg.HasResponseMarker("Task completed"))
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigOverridesOnlyGivenFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
main_agent_id: root
delegation:
  tools: [spawn]
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "root", cfg.MainAgentID)
	assert.Equal(t, []string{"spawn"}, cfg.Delegation.Tools)
	assert.Equal(t, []string{"sub_agent"}, cfg.Delegation.Prefixes)
	assert.Equal(t, DefaultConfig().Markers, cfg.Markers)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed yaml", "delegation: [unclosed"},
		{"empty main agent", "main_agent_id: '  '"},
		{"empty marker", "completion_markers:\n  result: ['']"},
		{"bad allowlist pattern", "redact:\n  allowlist: ['(']"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.data), 0o644))
			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigRedact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "redact:\n  secrets: true\n  allowlist: ['AKIA.*EXAMPLE']\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.Redact.Secrets)
	assert.False(t, cfg.Redact.PII)
	assert.Equal(t, []string{"AKIA.*EXAMPLE"}, cfg.Redact.Allowlist)
	assert.Equal(t, DefaultMainAgentID, cfg.MainAgentID)
}
