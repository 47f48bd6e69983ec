package engine

import "slices"

// State carries the session-level flags a presentation layer shows next to
// the transcript. It is updated in both modes.
type State struct {
	Initialized          bool     `json:"initialized"`
	Loading              bool     `json:"loading"`
	Stopped              bool     `json:"stopped"`
	Completed            bool     `json:"completed"`
	Uploading            bool     `json:"uploading"`
	FullstackInitialized bool     `json:"fullstack_initialized"`
	SandboxAwake         bool     `json:"sandbox_awake"` // live sandbox_status only
	ActiveSessionID      string   `json:"active_session_id,omitempty"`
	PublishedURL         string   `json:"published_url,omitempty"`
	ResultURL            string   `json:"result_url,omitempty"`
	BrowserURL           string   `json:"browser_url,omitempty"`
	VSCodeURL            string   `json:"vscode_url,omitempty"`
	UploadedFiles        []string `json:"uploaded_files,omitempty"`
}

func (s State) clone() State {
	s.UploadedFiles = slices.Clone(s.UploadedFiles)
	return s
}
