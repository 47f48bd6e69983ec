package engine

import (
	"path"
	"regexp"

	"github.com/sonnes/sutradhar/core"
)

// Tools whose calls or results are not tracked as actions.
const (
	toolSequentialThinking = "sequential_thinking"
	toolMessageUser        = "message_user"
	toolBrowserUse         = "browser_use"
	toolPresentation       = "presentation"
	toolReturnControl      = "return_control_to_user"
	toolFullstackInit      = "fullstack_project_init"
	toolRegisterDeployment = "register_deployment"
	toolReviewerAgent      = "reviewer_agent"
)

// mediaTools report a generated or fetched asset as their result.
var mediaTools = map[string]bool{
	"generate_image":    true,
	"generate_video":    true,
	"read_remote_image": true,
}

const defaultErrorMessage = "An unexpected error occurred."

const compactNotice = "Context compacted. Earlier conversation was summarized to continue."

func (e *Engine) onAgentInitialized(ev core.Event, mode Mode) {
	if mode == Replay {
		e.guard.Once(e.tracker.Reset)
	} else {
		e.state.Initialized = true
		e.tracker.Reset()
	}
	e.state.FullstackInitialized = false
	e.state.PublishedURL = ""
	if u := ev.String("vscode_url"); u != "" {
		e.state.VSCodeURL = u
	}
}

func (e *Engine) onStatusUpdate(ev core.Event) {
	if status, ok := ev.Value("status").(string); ok {
		e.state.Loading = status == "running"
	}
	if msg := ev.String("message"); msg != "" {
		e.notify(NoticeInfo, msg)
	}
}

func (e *Engine) onError(ev core.Event) {
	msg := ev.String("message")
	if msg == "" {
		msg = defaultErrorMessage
	}
	e.notify(NoticeError, msg)
	e.state.Loading = false
	e.state.Uploading = false
	e.state.PublishedURL = ""
}

func (e *Engine) onSystem(ev core.Event) {
	switch {
	case ev.String("type") == toolReviewerAgent:
		e.append(core.Item{
			ID:   ev.ID,
			Role: core.RoleAssistant,
			Action: &core.Action{
				Kind:     toolReviewerAgent,
				Result:   ev.String("message"),
				Resolved: true,
			},
		})
	case ev.String("session_id") != "":
		sid := ev.String("session_id")
		e.state.ActiveSessionID = sid
		e.emit(Effect{Kind: EffectNavigate, SessionID: sid})
	default:
		deployURL := core.StringField(ev.Map("deployment"), "url")
		if deployURL == "" {
			deployURL = ev.String("deployment_url")
		}
		if deployURL != "" {
			e.state.PublishedURL = deployURL
			msg := ev.String("message")
			if msg == "" {
				msg = "Deployment live at " + deployURL
			}
			e.notify(NoticeSuccess, msg)
			return
		}
		e.append(core.Item{
			ID:      ev.ID,
			Role:    core.RoleAssistant,
			Content: ev.String("message"),
		})
	}
}

func (e *Engine) onUserMessage(ev core.Event) {
	text := ev.String("text")
	if !e.items.HasUserMessage(text) {
		e.append(core.Item{ID: ev.ID, Role: core.RoleUser, Content: text})
	}
	e.state.Completed = false
}

func (e *Engine) onThinking(ev core.Event) {
	e.append(core.Item{
		ID:       ev.ID,
		Role:     core.RoleAssistant,
		Content:  ev.String("text"),
		Thinking: true,
		Agent:    e.tracker.Current().Ptr(),
	})
}

func (e *Engine) onToolCall(ev core.Event) {
	tool := ev.String("tool_name")
	input := ev.Map("tool_input")

	agent := e.tracker.Current()
	if e.cfg.IsDelegation(tool) {
		name := ev.String("tool_display_name")
		if name == "" {
			name = tool
		}
		agent = e.tracker.BeginDelegation(agent, name, ev.String("tool_call_id"))
	}

	switch tool {
	case toolSequentialThinking:
		e.append(core.Item{
			ID:      ev.ID,
			Role:    core.RoleAssistant,
			Content: core.StringField(input, "thought"),
			Agent:   agent.Ptr(),
		})
		return
	case toolMessageUser:
		// Content arrives with the result.
		return
	}

	item := core.Item{
		ID:   ev.ID,
		Role: core.RoleAssistant,
		Action: &core.Action{
			Kind:        tool,
			CallID:      ev.String("tool_call_id"),
			DisplayName: ev.String("tool_display_name"),
			Input:       input,
		},
		Agent: agent.Ptr(),
	}
	if u := core.StringField(input, "url"); u != "" {
		e.state.BrowserURL = u
	}
	e.append(item)
	if tool == toolFullstackInit {
		e.state.FullstackInitialized = true
	}
	e.emit(actionEffects(item)...)
}

func (e *Engine) onToolResult(ev core.Event) {
	tool := ev.String("tool_name")
	result := ev.Value("result")
	current := e.tracker.Current()

	switch tool {
	case toolMessageUser:
		action, _ := ev.Map("result")["action"].(map[string]any)
		e.append(core.Item{
			ID:          ev.ID,
			Role:        core.RoleAssistant,
			Content:     core.StringField(action, "text"),
			Attachments: attachments(action["attachments"]),
			Agent:       current.Ptr(),
		})
		return
	case toolBrowserUse:
		e.append(core.Item{
			ID:      ev.ID,
			Role:    core.RoleAssistant,
			Content: core.Text(result),
			Agent:   current.Ptr(),
		})
		return
	case toolSequentialThinking, toolPresentation, toolReturnControl:
		return
	}

	call, ok := e.items.FindUnresolved(tool)
	if !ok {
		e.logger.Debug("tool result without a pending call", "tool", tool, "id", ev.ID)
		e.append(core.Item{
			ID:   ev.ID,
			Role: core.RoleAssistant,
			Action: &core.Action{
				Kind:     tool,
				CallID:   ev.String("tool_call_id"),
				Input:    ev.Map("tool_input"),
				Result:   result,
				Resolved: true,
				IsError:  isError(ev),
			},
			Agent: current.Ptr(),
		})
		return
	}

	resolved := *call.Action
	resolved.Result = result
	resolved.Resolved = true
	resolved.IsError = isError(ev)
	call.Action = &resolved
	if call.Agent == nil {
		call.Agent = current.Ptr()
	}
	e.items.Replace(call)

	if e.cfg.IsDelegation(tool) || e.cfg.HasResultMarker(core.Text(result)) {
		hint := call.Agent
		if hint == nil {
			hint = current.Ptr()
		}
		e.completeResolved(hint)
	}

	// Re-read: completion may have rebound the item's agent.
	if item, ok := e.items.Get(call.ID); ok {
		e.emit(actionEffects(item)...)
	}

	switch {
	case tool == toolRegisterDeployment:
		if urls := ExtractURLs(core.Text(result)); len(urls) > 0 {
			e.state.ResultURL = urls[0]
		}
	case mediaTools[tool]:
		if m, ok := result.(map[string]any); ok {
			if u := core.StringField(m, "url"); u != "" {
				e.state.ResultURL = u
			}
		} else if s, ok := result.(string); ok && s != "" {
			e.state.ResultURL = s
		}
	}
}

func (e *Engine) onAgentResponse(ev core.Event) {
	text := ev.String("text")
	agent := e.tracker.Current()
	if e.cfg.HasResponseMarker(text) {
		agent = e.completeResolved(agent.Ptr())
	}

	for _, u := range ExtractURLs(text) {
		if e.cfg.IsSandboxHost(hostOf(u)) {
			e.state.ResultURL = u
			break
		}
	}

	e.append(core.Item{
		ID:      ev.ID,
		Role:    core.RoleAssistant,
		Content: text,
		Agent:   agent.Ptr(),
	})
}

func (e *Engine) onSubAgentComplete(ev core.Event) {
	current := e.tracker.Current()
	agent := e.completeResolved(current.Ptr())

	if text := ev.String("text"); text != "" {
		e.append(core.Item{
			ID:      ev.ID,
			Role:    core.RoleAssistant,
			Content: text,
			Agent:   agent.Ptr(),
		})
	}
}

func (e *Engine) onModelCompact(ev core.Event) {
	e.append(core.Item{
		ID:      "compact-" + ev.ID,
		Role:    core.RoleSystem,
		Content: compactNotice,
	})
	if summary := ev.String("summary"); summary != "" {
		e.append(core.Item{
			ID:      "compact-summary-" + ev.ID,
			Role:    core.RoleSystem,
			Content: summary,
		})
	}
}

var folderMarkerRE = regexp.MustCompile(`^folder:(.+):\d+$`)

// onUploadSuccess records uploaded paths. Files inside an uploaded folder
// are represented by the folder marker entry only.
func (e *Engine) onUploadSuccess(ev core.Event) {
	e.state.Uploading = false

	files, _ := ev.Value("files").([]any)
	var paths, folders []string
	for _, f := range files {
		p := core.StringField(asMap(f), "path")
		if p == "" {
			continue
		}
		paths = append(paths, p)
		if m := folderMarkerRE.FindStringSubmatch(p); m != nil {
			folders = append(folders, m[1])
		}
	}

	for _, p := range paths {
		if !folderMarkerRE.MatchString(p) && inFolder(p, folders) {
			continue
		}
		e.state.UploadedFiles = append(e.state.UploadedFiles, p)
	}
}

func inFolder(p string, folders []string) bool {
	for _, f := range folders {
		if containsPath(p, f) {
			return true
		}
	}
	return false
}

func containsPath(p, folder string) bool {
	for dir := path.Dir(p); dir != "." && dir != "/"; dir = path.Dir(dir) {
		if path.Base(dir) == folder {
			return true
		}
	}
	return false
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// attachments normalizes the attachment list of a message_user result.
// Entries may be bare URLs or objects with name and url fields.
func attachments(v any) []core.Attachment {
	list, _ := v.([]any)
	var out []core.Attachment
	for _, raw := range list {
		var a core.Attachment
		switch val := raw.(type) {
		case string:
			a = core.Attachment{Name: path.Base(val), URL: val}
		case map[string]any:
			a.URL = firstNonEmpty(val, "url", "file_url", "path")
			a.Name = firstNonEmpty(val, "name", "filename", "file_name")
			if a.Name == "" && a.URL != "" {
				a.Name = path.Base(a.URL)
			}
		}
		if a.URL == "" {
			continue
		}
		out = append(out, a)
	}
	return out
}

func firstNonEmpty(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := core.StringField(m, k); s != "" {
			return s
		}
	}
	return ""
}

func isError(ev core.Event) bool {
	flag, _ := ev.Value("is_error").(bool)
	return flag
}
