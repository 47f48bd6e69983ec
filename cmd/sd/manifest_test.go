package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonnes/sutradhar/core"
	"github.com/sonnes/sutradhar/manifest"
	"github.com/sonnes/sutradhar/reader/claude"
	"github.com/sonnes/sutradhar/reader/jsonl"
)

const testdataFixture = "../../reader/claude/testdata/simple.jsonl"

// setupClaudeDir creates a fake claude projects dir with the given session JSONL
// files. It rewrites the sessionId field in the fixture to match the target
// session ID. Returns a Reader pointed at the temp dir.
func setupClaudeDir(t *testing.T, sessions map[string]string) *claude.Reader {
	t.Helper()
	dir := t.TempDir()
	projectDir := filepath.Join(dir, "project")
	require.NoError(t, os.MkdirAll(projectDir, 0o755))

	for sessionID, fixturePath := range sessions {
		data, err := os.ReadFile(fixturePath)
		require.NoError(t, err)
		patched := strings.ReplaceAll(string(data), `"sessionId":"sess-1"`, `"sessionId":"`+sessionID+`"`)
		err = os.WriteFile(filepath.Join(projectDir, sessionID+".jsonl"), []byte(patched), 0o644)
		require.NoError(t, err)
	}

	return &claude.Reader{Dir: dir}
}

// setupExportDir creates an export dir with session subdirectories
// containing the specified index files.
func setupExportDir(t *testing.T, sessions map[string][]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "export")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	for sessionID, indexFiles := range sessions {
		sessionDir := filepath.Join(dir, sessionID)
		require.NoError(t, os.MkdirAll(sessionDir, 0o755))
		for _, name := range indexFiles {
			err := os.WriteFile(filepath.Join(sessionDir, name), []byte("<html>"), 0o644)
			require.NoError(t, err)
		}
	}

	return dir
}

func testReplay() func(*core.EventLog) core.Transcript {
	return newApp(context.Background()).replay
}

func TestRepairManifest(t *testing.T) {
	tests := []struct {
		name        string
		exportDirs  map[string][]string // sessionID → index files
		sessions    map[string]string   // sessionID → fixture path
		wantEntries int
		wantSkipped int
		wantHrefs   map[string]string // sessionID → expected href
	}{
		{
			name: "basic repair with two sessions",
			exportDirs: map[string][]string{
				"sess-1": {"index.html"},
				"sess-2": {"index.html"},
			},
			sessions: map[string]string{
				"sess-1": testdataFixture,
				"sess-2": testdataFixture,
			},
			wantEntries: 2,
		},
		{
			name: "missing session log",
			exportDirs: map[string][]string{
				"sess-1":   {"index.html"},
				"sess-999": {"index.html"},
			},
			sessions: map[string]string{
				"sess-1": testdataFixture,
			},
			wantEntries: 1,
			wantSkipped: 1,
		},
		{
			name: "session dir with only json index",
			exportDirs: map[string][]string{
				"sess-1": {"index.json"},
			},
			sessions: map[string]string{
				"sess-1": testdataFixture,
			},
			wantEntries: 1,
			wantHrefs: map[string]string{
				"sess-1": "sess-1/index.json",
			},
		},
		{
			name:       "no session dirs",
			exportDirs: map[string][]string{},
			sessions:   map[string]string{},
		},
		{
			name: "session dir without index file",
			exportDirs: map[string][]string{
				"sess-1": {"other.txt"},
			},
			sessions: map[string]string{
				"sess-1": testdataFixture,
			},
			wantSkipped: 1,
		},
		{
			name: "href priority html over json",
			exportDirs: map[string][]string{
				"sess-1": {"index.html", "index.json"},
			},
			sessions: map[string]string{
				"sess-1": testdataFixture,
			},
			wantEntries: 1,
			wantHrefs: map[string]string{
				"sess-1": "sess-1/index.html",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exportDir := setupExportDir(t, tt.exportDirs)
			reader := setupClaudeDir(t, tt.sessions)

			m, skipped, err := repairManifest(exportDir, reader, testReplay())
			require.NoError(t, err)

			assert.Len(t, m.Entries, tt.wantEntries)
			assert.Equal(t, tt.wantSkipped, skipped)

			for _, entry := range m.Entries {
				if wantHref, ok := tt.wantHrefs[entry.SessionID]; ok {
					assert.Equal(t, wantHref, entry.Href)
				}
			}
		})
	}
}

func TestRepairManifestNativeLogs(t *testing.T) {
	logs := t.TempDir()
	_, err := jsonl.WriteFile(logs, &core.EventLog{
		SessionID: "s1",
		Events: []core.Event{
			{ID: "e1", Kind: core.EventUserMessage, Content: map[string]any{"text": "research the market"}},
			{ID: "e2", Kind: core.EventToolCall, Content: map[string]any{"tool_name": "sub_agent_researcher", "tool_call_id": "c1"}},
			{ID: "e3", Kind: core.EventToolResult, Content: map[string]any{"tool_name": "sub_agent_researcher", "tool_call_id": "c1", "result": "Task completed"}},
		},
	})
	require.NoError(t, err)

	exportDir := setupExportDir(t, map[string][]string{"s1": {"index.html"}})

	m, skipped, err := repairManifest(exportDir, &jsonl.Reader{Dir: logs}, testReplay())
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, m.Entries, 1)

	e := m.Entries[0]
	assert.Equal(t, "s1", e.SessionID)
	assert.Equal(t, "research the market", e.Title)
	assert.Equal(t, 2, e.ItemCount)
	assert.Equal(t, 1, e.SubagentCount)
	assert.Equal(t, "s1/index.html", e.Href)
}

func TestRepairManifestSkipsNonSessionEntries(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "export")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, manifest.FileName), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitkeep"), nil, 0o644))

	reader := setupClaudeDir(t, map[string]string{})

	m, skipped, err := repairManifest(dir, reader, testReplay())
	require.NoError(t, err)
	assert.Empty(t, m.Entries)
	assert.Zero(t, skipped)
}

func TestRepairManifestWritesValidJSON(t *testing.T) {
	exportDir := setupExportDir(t, map[string][]string{
		"sess-1": {"index.html"},
	})
	reader := setupClaudeDir(t, map[string]string{
		"sess-1": testdataFixture,
	})

	m, _, err := repairManifest(exportDir, reader, testReplay())
	require.NoError(t, err)

	manifestPath := filepath.Join(exportDir, manifest.FileName)
	require.NoError(t, m.WriteFile(manifestPath))

	data, err := os.ReadFile(manifestPath)
	require.NoError(t, err)

	var parsed manifest.Manifest
	require.NoError(t, json.Unmarshal(data, &parsed))
	require.Len(t, parsed.Entries, 1)
	assert.Equal(t, "sess-1", parsed.Entries[0].SessionID)
	assert.Equal(t, "sess-1/index.html", parsed.Entries[0].Href)
}

func TestPruneManifest(t *testing.T) {
	dir := setupExportDir(t, map[string][]string{
		"kept": {"index.html"},
	})
	m := &manifest.Manifest{Entries: []core.ManifestEntry{
		{SessionID: "kept", Href: "kept/index.html"},
		{SessionID: "gone", Href: "gone/index.html"},
		{SessionID: "nohref"},
	}}

	removed := pruneManifest(dir, m)

	assert.ElementsMatch(t, []string{"gone", "nohref"}, removed)
	require.Len(t, m.Entries, 1)
	assert.Equal(t, "kept", m.Entries[0].SessionID)
}

func TestDetectSessionHref(t *testing.T) {
	tests := []struct {
		name     string
		files    []string
		wantHref string
	}{
		{
			name:     "html",
			files:    []string{"index.html"},
			wantHref: "test-session/index.html",
		},
		{
			name:     "json",
			files:    []string{"index.json"},
			wantHref: "test-session/index.json",
		},
		{
			name:     "jsonl",
			files:    []string{"index.jsonl"},
			wantHref: "test-session/index.jsonl",
		},
		{
			name:     "html wins over json",
			files:    []string{"index.json", "index.html"},
			wantHref: "test-session/index.html",
		},
		{
			name:     "no index file",
			files:    []string{"other.txt"},
			wantHref: "",
		},
		{
			name:     "empty dir",
			files:    nil,
			wantHref: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "test-session")
			require.NoError(t, os.MkdirAll(dir, 0o755))
			for _, f := range tt.files {
				require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("x"), 0o644))
			}

			assert.Equal(t, tt.wantHref, detectSessionHref("test-session", dir))
		})
	}
}
