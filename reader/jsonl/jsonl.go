// Package jsonl reads and writes native event logs: one JSON encoded event
// per line, one file per session (<dir>/<session>.jsonl).
package jsonl

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/sonnes/sutradhar/core"
)

// Ext is the file extension of native event logs.
const Ext = ".jsonl"

// MaxLineSize is the largest event line accepted (1 MB). Longer lines are
// dropped but still counted, so line-based ids do not shift.
const MaxLineSize = 1 << 20

// ErrNoType is returned by Decode for a line without an event type.
var ErrNoType = errors.New("event has no type")

// ErrNotFound is returned when a session log does not exist.
var ErrNotFound = errors.New("session not found")

// Reader reads native event logs from a directory.
type Reader struct {
	// Dir overrides the default log directory (~/.sutradhar/sessions/).
	Dir string
}

// DefaultDir returns the default log directory.
func DefaultDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".sutradhar", "sessions")
}

// Decode parses one log line. Blank lines and lines without a type are
// rejected; a missing id is left for the caller to fill.
func Decode(line []byte) (core.Event, error) {
	var ev core.Event
	if err := json.Unmarshal(line, &ev); err != nil {
		return core.Event{}, fmt.Errorf("decode event: %w", err)
	}
	if ev.Kind == "" {
		return core.Event{}, ErrNoType
	}
	return ev, nil
}

// Scan decodes every well-formed line of r, in order, and calls fn for each
// event. Malformed lines and lines over MaxLineSize are skipped. Events
// without an id get a stable line-based id. Scanning stops at the first
// error returned by fn.
func Scan(r io.Reader, fn func(core.Event) error) error {
	br := bufio.NewReaderSize(r, 64*1024)

	var (
		line []byte
		long bool
		n    int
	)
	for {
		frag, more, err := br.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read line %d: %w", n+1, err)
		}
		if !long {
			line = append(line, frag...)
			long = len(line) > MaxLineSize
		}
		if more {
			continue
		}
		n++

		skip := long || len(bytes.TrimSpace(line)) == 0
		var ev core.Event
		if !skip {
			ev, err = Decode(line)
			skip = err != nil
		}
		line, long = line[:0], false
		if skip {
			continue
		}
		if ev.ID == "" {
			ev.ID = LineID(n)
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
}

// LineID is the id given to an event that was recorded without one.
func LineID(line int) string {
	return "line-" + strconv.Itoa(line)
}

// ReadFile parses a single event log. The session id is the file name
// without its extension.
func (r *Reader) ReadFile(path string) (*core.EventLog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	defer f.Close()

	log := &core.EventLog{SessionID: SessionID(path)}
	err = Scan(f, func(ev core.Event) error {
		log.Events = append(log.Events, ev)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan event log: %w", err)
	}
	return log, nil
}

// ReadSession reads <dir>/<sessionID>.jsonl.
func (r *Reader) ReadSession(sessionID string) (*core.EventLog, error) {
	path := r.Path(sessionID)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	return r.ReadFile(path)
}

// ReadAll returns every log in the directory, sorted by session id.
// Unreadable files are skipped.
func (r *Reader) ReadAll() ([]*core.EventLog, error) {
	ids, err := r.List()
	if err != nil {
		return nil, err
	}
	var logs []*core.EventLog
	for _, id := range ids {
		l, err := r.ReadFile(r.Path(id))
		if err != nil {
			continue
		}
		logs = append(logs, l)
	}
	return logs, nil
}

// List returns the session ids present in the directory, sorted.
func (r *Reader) List() ([]string, error) {
	entries, err := os.ReadDir(r.dir())
	if err != nil {
		return nil, fmt.Errorf("read sessions directory: %w", err)
	}
	var ids []string
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), Ext) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(de.Name(), Ext))
	}
	sort.Strings(ids)
	return ids, nil
}

// Path returns the log path for a session.
func (r *Reader) Path(sessionID string) string {
	return filepath.Join(r.dir(), sessionID+Ext)
}

func (r *Reader) dir() string {
	if r.Dir != "" {
		return r.Dir
	}
	return DefaultDir()
}

// SessionID derives a session id from a log path.
func SessionID(path string) string {
	return strings.TrimSuffix(filepath.Base(path), Ext)
}

// Write encodes events to w, one per line.
func Write(w io.Writer, events []core.Event) error {
	enc := json.NewEncoder(w)
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			return fmt.Errorf("encode event %s: %w", ev.ID, err)
		}
	}
	return nil
}

// WriteFile writes a log atomically to <dir>/<session>.jsonl.
func WriteFile(dir string, log *core.EventLog) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create log directory: %w", err)
	}
	path := filepath.Join(dir, log.SessionID+Ext)

	tmp, err := os.CreateTemp(dir, ".event-log-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := Write(tmp, log.Events); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return "", fmt.Errorf("rename event log: %w", err)
	}
	return path, nil
}
