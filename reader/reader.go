// Package reader defines the interface for loading recorded agent event logs
// from disk.
package reader

import "github.com/sonnes/sutradhar/core"

// Reader loads recorded event logs.
type Reader interface {
	// ReadFile parses a single session log at the given path.
	ReadFile(path string) (*core.EventLog, error)

	// ReadSession locates and parses a session by its ID.
	ReadSession(sessionID string) (*core.EventLog, error)

	// ReadAll returns every session log the reader can find.
	ReadAll() ([]*core.EventLog, error)
}
