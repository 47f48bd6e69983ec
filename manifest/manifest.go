// Package manifest manages the session index file (manifest.json) written
// next to exported transcripts.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"github.com/sonnes/sutradhar/core"
)

// FileName is the manifest's name inside an export directory.
const FileName = "manifest.json"

// Manifest holds the list of session metadata entries.
type Manifest struct {
	Entries []core.ManifestEntry `json:"entries"`
}

// ReadFile reads a manifest from disk. Returns an empty Manifest if the file
// does not exist.
func ReadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// Get returns the entry for sessionID.
func (m *Manifest) Get(sessionID string) (core.ManifestEntry, bool) {
	for _, e := range m.Entries {
		if e.SessionID == sessionID {
			return e, true
		}
	}
	return core.ManifestEntry{}, false
}

// Upsert adds or replaces an entry matched by SessionID. After upserting, the
// entries are sorted newest-first by CreatedAt.
func (m *Manifest) Upsert(entry core.ManifestEntry) {
	defer m.sort()
	for i, e := range m.Entries {
		if e.SessionID == entry.SessionID {
			m.Entries[i] = entry
			return
		}
	}
	m.Entries = append(m.Entries, entry)
}

// Remove drops the entry for sessionID and reports whether one existed.
func (m *Manifest) Remove(sessionID string) bool {
	n := len(m.Entries)
	m.Entries = slices.DeleteFunc(m.Entries, func(e core.ManifestEntry) bool {
		return e.SessionID == sessionID
	})
	return len(m.Entries) != n
}

// Keep drops every entry whose session id is not in ids, for pruning
// sessions whose logs were deleted.
func (m *Manifest) Keep(ids []string) []string {
	var removed []string
	m.Entries = slices.DeleteFunc(m.Entries, func(e core.ManifestEntry) bool {
		if slices.Contains(ids, e.SessionID) {
			return false
		}
		removed = append(removed, e.SessionID)
		return true
	})
	return removed
}

// sort orders entries newest first; equal times fall back to session id so
// output is stable across runs.
func (m *Manifest) sort() {
	sort.SliceStable(m.Entries, func(i, j int) bool {
		a, b := m.Entries[i], m.Entries[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.SessionID < b.SessionID
	})
}

// WriteFile writes the manifest to disk atomically using a temporary file and
// rename, which is safe against concurrent writers.
func (m *Manifest) WriteFile(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create manifest dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".manifest-*.json")
	if err != nil {
		return fmt.Errorf("create temp manifest: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close manifest: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}
