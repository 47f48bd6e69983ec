package core

import "time"

// ManifestEntry holds lightweight metadata for a single session, used by the
// manifest file and the index page. It mirrors the fields of Transcript the
// index needs without carrying the items.
type ManifestEntry struct {
	SessionID     string     `json:"session_id"`
	Title         string     `json:"title,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
	DiffStats     *DiffStats `json:"diff_stats,omitempty"`
	ItemCount     int        `json:"item_count"`
	SubagentCount int        `json:"subagent_count"`
	Href          string     `json:"href"`
}

// NewManifestEntry extracts metadata from a Transcript and pairs it with the
// given href (relative link to the rendered page).
func NewManifestEntry(t *Transcript, href string) ManifestEntry {
	subagents := 0
	for _, a := range t.Agents {
		if a.IsSubagent() {
			subagents++
		}
	}
	return ManifestEntry{
		SessionID:     t.SessionID,
		Title:         t.Title,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
		DiffStats:     t.DiffStats,
		ItemCount:     len(t.Items),
		SubagentCount: subagents,
		Href:          href,
	}
}
