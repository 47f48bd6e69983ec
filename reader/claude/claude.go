// Package claude converts Claude Code session logs (JSONL in
// ~/.claude/projects/) into agent event logs.
package claude

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sonnes/sutradhar/core"
)

// Reader reads Claude Code JSONL session files.
type Reader struct {
	// Dir overrides the default session directory (~/.claude/projects/).
	Dir string

	// Sidechains keeps entries a sub-agent logged inline in the parent
	// session. They land between the Task call and its result, so the engine
	// attributes them to the delegated agent.
	Sidechains bool
}

// maxLineSize is the maximum JSONL line size (1 MB). Claude Code tool results
// can exceed the default 64 KB bufio.Scanner buffer.
const maxLineSize = 1 << 20

// taskTool is Claude Code's delegation tool.
const taskTool = "Task"

// Raw JSON deserialization types. These mirror the JSONL structure on disk.

type rawEntry struct {
	Type        string     `json:"type"`
	UUID        string     `json:"uuid"`
	SessionID   string     `json:"sessionId"`
	Timestamp   string     `json:"timestamp"`
	CWD         string     `json:"cwd"`
	GitBranch   string     `json:"gitBranch"`
	IsSidechain bool       `json:"isSidechain"`
	Message     rawMessage `json:"message"`
}

type rawMessage struct {
	ID    string `json:"id"`
	Role  string `json:"role"`
	Model string `json:"model"`
	// Content is either a plain string or an array of content blocks.
	Content json.RawMessage `json:"content"`
}

type rawContentBlock struct {
	Type      string `json:"type"`
	Text      string `json:"text"`
	Thinking  string `json:"thinking"`
	ID        string `json:"id"`
	Name      string `json:"name"`
	Input     any    `json:"input"`
	ToolUseID string `json:"tool_use_id"`
	Content   any    `json:"content"`
	IsError   bool   `json:"is_error"`
}

// ReadFile converts a single Claude Code JSONL session file.
func (r *Reader) ReadFile(path string) (*core.EventLog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open session file: %w", err)
	}
	defer f.Close()

	entries, err := scanEntries(f, r.Sidechains)
	if err != nil {
		return nil, fmt.Errorf("scan session file: %w", err)
	}

	return buildEventLog(entries)
}

// ReadSession locates and converts a session by its UUID across all projects.
func (r *Reader) ReadSession(sessionID string) (*core.EventLog, error) {
	dir := r.dir()
	fileName := sessionID + ".jsonl"

	projectDirs, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read projects directory: %w", err)
	}

	for _, d := range projectDirs {
		if !d.IsDir() {
			continue
		}
		path := filepath.Join(dir, d.Name(), fileName)
		if _, err := os.Stat(path); err == nil {
			return r.ReadFile(path)
		}
	}

	return nil, fmt.Errorf("session %s not found", sessionID)
}

// ReadProject returns all session logs for a named project directory.
func (r *Reader) ReadProject(project string) ([]*core.EventLog, error) {
	projectDir := filepath.Join(r.dir(), project)

	dirEntries, err := os.ReadDir(projectDir)
	if err != nil {
		return nil, fmt.Errorf("read project directory: %w", err)
	}

	var logs []*core.EventLog
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".jsonl") {
			continue
		}
		l, err := r.ReadFile(filepath.Join(projectDir, de.Name()))
		if err != nil {
			continue
		}
		logs = append(logs, l)
	}

	return logs, nil
}

// ReadAll returns every session log across all projects.
func (r *Reader) ReadAll() ([]*core.EventLog, error) {
	dir := r.dir()
	projectDirs, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read projects directory: %w", err)
	}

	var all []*core.EventLog
	for _, d := range projectDirs {
		if !d.IsDir() {
			continue
		}
		logs, err := r.ReadProject(d.Name())
		if err != nil {
			continue
		}
		all = append(all, logs...)
	}

	return all, nil
}

func (r *Reader) dir() string {
	if r.Dir != "" {
		return r.Dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".claude", "projects")
}

// scanEntries reads JSONL lines, keeping only user and assistant message
// entries. Sidechain entries are dropped unless sidechains is set.
func scanEntries(r io.Reader, sidechains bool) ([]rawEntry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, maxLineSize), maxLineSize)

	var entries []rawEntry
	for scanner.Scan() {
		var entry rawEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		if entry.IsSidechain && !sidechains {
			continue
		}
		if entry.Type != "user" && entry.Type != "assistant" {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, scanner.Err()
}

// buildEventLog converts filtered raw entries into the event stream the
// engine consumes. The stream opens with an agent_initialized event carrying
// the session's working directory, branch and model.
func buildEventLog(entries []rawEntry) (*core.EventLog, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("no messages found in session")
	}

	first := entries[0]
	log := &core.EventLog{SessionID: first.SessionID}
	log.Events = append(log.Events, core.Event{
		ID:   "init-" + first.SessionID,
		Kind: core.EventAgentInitialized,
		Content: map[string]any{
			"cwd":        first.CWD,
			"git_branch": first.GitBranch,
			"model":      findPrimaryModel(entries),
		},
	})

	// Tool results only carry the call id; the tool name is recovered from
	// the matching tool_use.
	toolNames := make(map[string]string)

	for _, entry := range entries {
		blocks := decodeBlocks(entry.Message.Content)
		for i, b := range blocks {
			id := entry.UUID
			if len(blocks) > 1 {
				id += "-" + strconv.Itoa(i)
			}
			if ev, ok := mapBlock(entry, b, id, toolNames); ok {
				log.Events = append(log.Events, ev)
			}
		}
	}
	return log, nil
}

// decodeBlocks decodes message content, which is either a plain string or
// an array of content blocks.
func decodeBlocks(raw json.RawMessage) []rawContentBlock {
	if len(raw) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []rawContentBlock{{Type: "text", Text: s}}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	var blocks []rawContentBlock
	for _, item := range items {
		var b rawContentBlock
		if err := json.Unmarshal(item, &b); err != nil {
			continue
		}
		blocks = append(blocks, b)
	}
	return blocks
}

func mapBlock(entry rawEntry, b rawContentBlock, id string, toolNames map[string]string) (core.Event, bool) {
	content := map[string]any{}
	if entry.Timestamp != "" {
		content["timestamp"] = entry.Timestamp
	}
	ev := core.Event{ID: id, Content: content}

	switch b.Type {
	case "text":
		if entry.Type == "user" {
			// A sidechain's opening prompt repeats the Task input.
			if entry.IsSidechain {
				return core.Event{}, false
			}
			text := cleanUserText(b.Text)
			if text == "" {
				return core.Event{}, false
			}
			ev.Kind = core.EventUserMessage
			content["text"] = text
			return ev, true
		}
		if strings.TrimSpace(b.Text) == "" {
			return core.Event{}, false
		}
		ev.Kind = core.EventAgentResponse
		content["text"] = b.Text
		return ev, true

	case "thinking":
		if strings.TrimSpace(b.Thinking) == "" {
			return core.Event{}, false
		}
		ev.Kind = core.EventAgentThinking
		content["text"] = b.Thinking
		return ev, true

	case "tool_use":
		toolNames[b.ID] = b.Name
		input, _ := b.Input.(map[string]any)
		ev.Kind = core.EventToolCall
		content["tool_name"] = b.Name
		content["tool_call_id"] = b.ID
		content["tool_input"] = input
		if name := displayName(b.Name, input); name != "" {
			content["tool_display_name"] = name
		}
		return ev, true

	case "tool_result":
		ev.Kind = core.EventToolResult
		content["tool_name"] = toolNames[b.ToolUseID]
		content["tool_call_id"] = b.ToolUseID
		content["result"] = extractToolResultContent(b.Content)
		if b.IsError {
			content["is_error"] = true
		}
		return ev, true

	default:
		return core.Event{}, false
	}
}

// displayName names the sub-agent a Task call starts.
func displayName(tool string, input map[string]any) string {
	if tool != taskTool {
		return ""
	}
	if s := core.StringField(input, "subagent_type"); s != "" {
		return s
	}
	return core.StringField(input, "description")
}

// extractToolResultContent handles tool_result content which can be a string
// or an array of {"type":"text","text":"..."} objects.
func extractToolResultContent(v any) string {
	switch c := v.(type) {
	case string:
		return c
	case []any:
		var parts []string
		for _, item := range c {
			if m, ok := item.(map[string]any); ok {
				if text, ok := m["text"].(string); ok {
					parts = append(parts, text)
				}
			}
		}
		return strings.Join(parts, "\n")
	default:
		if v == nil {
			return ""
		}
		return fmt.Sprintf("%v", v)
	}
}

func findPrimaryModel(entries []rawEntry) string {
	for _, e := range entries {
		if e.Type == "assistant" && e.Message.Model != "" {
			return e.Message.Model
		}
	}
	return ""
}
